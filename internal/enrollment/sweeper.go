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

package enrollment

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/enrolld/enrolld/internal/audit"
	"github.com/enrolld/enrolld/internal/clock"
)

// Sweeper transitions overdue active enrollments to expired in batches.
//
// The sweep is best effort with at-least-once semantics: a failed write on
// one record is collected and the batch continues. Because ExpireIfDue is a
// conditional update, overlapping sweeps for the same tenant are safe and
// each record is counted by at most one of them.
type Sweeper struct {
	repo        Repository
	auditLogger audit.Logger
	clock       clock.Clock
	batchSize   int
}

// NewSweeper creates a sweeper reading due records batchSize at a time.
func NewSweeper(repo Repository, auditLogger audit.Logger, clk clock.Clock, batchSize int) *Sweeper {
	if batchSize <= 0 {
		batchSize = 100
	}
	return &Sweeper{
		repo:        repo,
		auditLogger: auditLogger,
		clock:       clk,
		batchSize:   batchSize,
	}
}

// ProcessExpired expires every due enrollment in the tenant and returns the
// number of records that actually changed state, plus per-record errors.
// Running it again immediately reports zero transitions.
func (s *Sweeper) ProcessExpired(ctx context.Context, tenantID string) (int, []error) {
	now := s.clock.Now()
	expired := 0
	var errs []error

	for {
		batch, err := s.repo.ListExpired(ctx, tenantID, now, s.batchSize)
		if err != nil {
			errs = append(errs, fmt.Errorf("failed to list due enrollments: %w", err))
			break
		}
		if len(batch) == 0 {
			break
		}

		progressed := false
		for _, e := range batch {
			changed, err := s.repo.ExpireIfDue(ctx, tenantID, e.ID, now)
			if err != nil {
				errs = append(errs, fmt.Errorf("failed to expire enrollment %s: %w", e.ID, err))
				continue
			}
			if !changed {
				// Lost the race to a concurrent sweep or an extend; not ours
				// to count.
				continue
			}
			progressed = true
			expired++

			s.auditLogger.Log(ctx, audit.Event{
				Type:     audit.TypeEnrollmentExpired,
				TenantID: tenantID,
				ActorID:  "sweeper",
				Resource: e.ID,
				Metadata: map[string]any{"course_id": e.CourseID, "learner_id": e.LearnerID},
			})
		}

		if len(batch) < s.batchSize {
			break
		}
		// A batch where every conditional update failed or lost its race
		// would loop forever on the same rows; stop and let the next run
		// pick them up.
		if !progressed {
			break
		}
	}

	if expired > 0 || len(errs) > 0 {
		slog.InfoContext(ctx, "expiration sweep finished",
			slog.String("tenant_id", tenantID),
			slog.Int("expired", expired),
			slog.Int("errors", len(errs)),
		)
	}
	return expired, errs
}
