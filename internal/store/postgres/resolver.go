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

package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/enrolld/enrolld/internal/tenant"
)

// Resolver maps tenant IDs to live database pools. Each tenant's DSN comes
// from the control-plane registry; the pool is opened lazily on first use and
// the tenant schema is applied idempotently before the pool is shared.
type Resolver struct {
	tenants tenant.Repository

	// pools maps tenant ID to *DB
	pools sync.Map

	// sf collapses concurrent first-connections to the same tenant
	sf singleflight.Group
}

// NewResolver creates a resolver backed by the tenant registry.
func NewResolver(tenants tenant.Repository) *Resolver {
	return &Resolver{tenants: tenants}
}

// Get returns the pool for a tenant, opening it if needed. Suspended tenants
// resolve to tenant.ErrSuspended without touching their database.
func (r *Resolver) Get(ctx context.Context, tenantID string) (*DB, error) {
	if val, ok := r.pools.Load(tenantID); ok {
		return val.(*DB), nil
	}

	val, err, _ := r.sf.Do(tenantID, func() (any, error) {
		// Double-check after winning the flight
		if val, ok := r.pools.Load(tenantID); ok {
			return val.(*DB), nil
		}

		t, err := r.tenants.GetByID(ctx, tenantID)
		if err != nil {
			return nil, err
		}
		if !t.IsActive() {
			return nil, tenant.ErrSuspended
		}

		db, err := NewFromDSN(ctx, t.DSN)
		if err != nil {
			return nil, fmt.Errorf("failed to open tenant database: %w", err)
		}

		if err := db.Migrate(ctx, TenantSchema); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to apply tenant schema: %w", err)
		}

		r.pools.Store(tenantID, db)
		slog.InfoContext(ctx, "tenant database connected",
			slog.String("tenant_id", tenantID),
			slog.String("component", "store"),
		)
		return db, nil
	})
	if err != nil {
		return nil, err
	}

	return val.(*DB), nil
}

// Evict closes and forgets a tenant's pool. The next Get reconnects with a
// fresh registry lookup, so DSN rotation takes effect.
func (r *Resolver) Evict(tenantID string) {
	if val, ok := r.pools.LoadAndDelete(tenantID); ok {
		val.(*DB).Close()
	}
}

// Close closes every open tenant pool.
func (r *Resolver) Close() {
	r.pools.Range(func(key, val any) bool {
		val.(*DB).Close()
		r.pools.Delete(key)
		return true
	})
}
