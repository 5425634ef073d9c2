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

// Package notify carries the notify-on-state-change contract. Delivery
// mechanics (mail, push, webhooks) live behind the Notifier interface and
// are out of scope here; failures must never propagate into a transition.
package notify

import (
	"context"
	"log/slog"
)

// Event describes a state change worth telling the learner about.
type Event struct {
	Type      string
	TenantID  string
	SubjectID string // enrollment or request ID
	LearnerID string
	CourseID  string
}

// Notifier delivers state-change notifications, best effort.
type Notifier interface {
	Notify(ctx context.Context, event Event)
}

// SlogNotifier logs notifications instead of delivering them. It is the
// default wiring until a real delivery channel is configured.
type SlogNotifier struct{}

// NewSlogNotifier creates a new logging notifier.
func NewSlogNotifier() *SlogNotifier {
	return &SlogNotifier{}
}

// Notify records the event at INFO level.
func (n *SlogNotifier) Notify(ctx context.Context, event Event) {
	slog.InfoContext(ctx, "notification",
		slog.String("event_type", event.Type),
		slog.String("tenant_id", event.TenantID),
		slog.String("subject_id", event.SubjectID),
		slog.String("learner_id", event.LearnerID),
		slog.String("course_id", event.CourseID),
		slog.String("component", "notify"),
	)
}
