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

package course

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache is a read-through redis cache in front of a course source. Course
// policy (published, approval, capacity) changes rarely relative to how often
// admission consults it; a short TTL keeps capacity reasonably fresh.
//
// The cache fails open: any redis error falls back to the inner source so a
// cache outage degrades latency, never correctness of NotFound handling.
type Cache struct {
	inner describeSource
	rdb   *redis.Client
	ttl   time.Duration
}

// NewCache wraps source with a redis-backed course cache.
func NewCache(source describeSource, rdb *redis.Client, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &Cache{inner: source, rdb: rdb, ttl: ttl}
}

func cacheKey(tenantID, courseID string) string {
	return "course:" + tenantID + ":" + courseID
}

// Describe returns the cached description or fetches and stores it.
func (c *Cache) Describe(ctx context.Context, tenantID, courseID string) (*Course, error) {
	key := cacheKey(tenantID, courseID)

	payload, err := c.rdb.Get(ctx, key).Bytes()
	if err == nil {
		var course Course
		if jsonErr := json.Unmarshal(payload, &course); jsonErr == nil {
			return &course, nil
		}
		// Corrupt entry: drop it and refetch.
		c.rdb.Del(ctx, key)
	} else if err != redis.Nil {
		slog.WarnContext(ctx, "course cache read failed",
			slog.String("key", key), slog.String("error", err.Error()))
	}

	course, err := c.inner.Describe(ctx, tenantID, courseID)
	if err != nil {
		return nil, err
	}

	if payload, jsonErr := json.Marshal(course); jsonErr == nil {
		if setErr := c.rdb.Set(ctx, key, payload, c.ttl).Err(); setErr != nil {
			slog.WarnContext(ctx, "course cache write failed",
				slog.String("key", key), slog.String("error", setErr.Error()))
		}
	}
	return course, nil
}

// Invalidate drops the cached description for a course.
func (c *Cache) Invalidate(ctx context.Context, tenantID, courseID string) error {
	return c.rdb.Del(ctx, cacheKey(tenantID, courseID)).Err()
}
