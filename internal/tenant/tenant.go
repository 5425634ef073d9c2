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

// Package tenant holds the control-plane registry of tenants. Each tenant
// carries the DSN of its own enrollment database; resolving a tenant ID to a
// live connection happens in the store layer.
package tenant

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNotFound  = errors.New("tenant not found")
	ErrSuspended = errors.New("tenant suspended")
)

// Tenant statuses
const (
	StatusActive    = "active"
	StatusSuspended = "suspended"
)

// Tenant is a registered organization with isolated enrollment data.
type Tenant struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	DSN       string    `json:"-"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsActive reports whether the tenant may serve traffic.
func (t *Tenant) IsActive() bool {
	return t.Status == StatusActive
}

// Repository defines control-plane tenant persistence.
type Repository interface {
	Create(ctx context.Context, t *Tenant) error
	GetByID(ctx context.Context, id string) (*Tenant, error)
	List(ctx context.Context) ([]*Tenant, error)
	Update(ctx context.Context, t *Tenant) error
	Delete(ctx context.Context, id string) error
}
