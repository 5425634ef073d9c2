// Copyright 2026 The Enrolld Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package http

import (
	"context"

	"github.com/enrolld/enrolld/internal/rbac"
)

type contextKey string

const actorKey contextKey = "actor"

// WithActor stores the authenticated actor in the context.
func WithActor(ctx context.Context, actor rbac.Actor) context.Context {
	return context.WithValue(ctx, actorKey, actor)
}

// GetActor retrieves the authenticated actor from the context. The boolean
// is false on unauthenticated requests.
func GetActor(ctx context.Context) (rbac.Actor, bool) {
	actor, ok := ctx.Value(actorKey).(rbac.Actor)
	return actor, ok
}
