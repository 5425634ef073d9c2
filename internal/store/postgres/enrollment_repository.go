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
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/enrolld/enrolld/internal/enrollment"
)

const enrollmentColumns = `
	id, tenant_id, learner_id, course_id, status, progress,
	enrolled_at, started_at, completed_at, expires_at, last_accessed_at,
	cancellation_reason, certificate_id, created_at, updated_at`

// EnrollmentRepository implements enrollment.Repository. Every call resolves
// the tenant's database through the resolver.
type EnrollmentRepository struct {
	resolver *Resolver
}

// NewEnrollmentRepository creates a new enrollment repository
func NewEnrollmentRepository(resolver *Resolver) *EnrollmentRepository {
	return &EnrollmentRepository{resolver: resolver}
}

func scanEnrollment(row pgx.Row) (*enrollment.Enrollment, error) {
	var e enrollment.Enrollment
	err := row.Scan(
		&e.ID, &e.TenantID, &e.LearnerID, &e.CourseID, &e.Status, &e.Progress,
		&e.EnrolledAt, &e.StartedAt, &e.CompletedAt, &e.ExpiresAt, &e.LastAccessedAt,
		&e.CancellationReason, &e.CertificateID, &e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// Create persists a new enrollment
func (r *EnrollmentRepository) Create(ctx context.Context, e *enrollment.Enrollment) error {
	db, err := r.resolver.Get(ctx, e.TenantID)
	if err != nil {
		return err
	}

	_, err = db.pool.Exec(ctx, `
		INSERT INTO enrollments (
			id, tenant_id, learner_id, course_id, status, progress,
			enrolled_at, started_at, completed_at, expires_at, last_accessed_at,
			cancellation_reason, certificate_id, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`,
		e.ID, e.TenantID, e.LearnerID, e.CourseID, e.Status, e.Progress,
		e.EnrolledAt, e.StartedAt, e.CompletedAt, e.ExpiresAt, e.LastAccessedAt,
		e.CancellationReason, e.CertificateID, e.CreatedAt, e.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to create enrollment: %w", err)
	}

	return nil
}

// Get retrieves an enrollment by ID
func (r *EnrollmentRepository) Get(ctx context.Context, tenantID, id string) (*enrollment.Enrollment, error) {
	db, err := r.resolver.Get(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	e, err := scanEnrollment(db.pool.QueryRow(ctx, `
		SELECT `+enrollmentColumns+`
		FROM enrollments
		WHERE id = $1
	`, id))

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, enrollment.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get enrollment: %w", err)
	}

	return e, nil
}

// GetByLearnerAndCourse returns the most recent enrollment for the pair
func (r *EnrollmentRepository) GetByLearnerAndCourse(ctx context.Context, tenantID, learnerID, courseID string) (*enrollment.Enrollment, error) {
	db, err := r.resolver.Get(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	e, err := scanEnrollment(db.pool.QueryRow(ctx, `
		SELECT `+enrollmentColumns+`
		FROM enrollments
		WHERE learner_id = $1 AND course_id = $2
		ORDER BY enrolled_at DESC
		LIMIT 1
	`, learnerID, courseID))

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, enrollment.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get enrollment: %w", err)
	}

	return e, nil
}

// List returns a page of matching enrollments plus the total match count
func (r *EnrollmentRepository) List(ctx context.Context, tenantID string, f enrollment.Filter, p enrollment.Page) ([]*enrollment.Enrollment, int, error) {
	db, err := r.resolver.Get(ctx, tenantID)
	if err != nil {
		return nil, 0, err
	}

	where := "WHERE ($1 = '' OR learner_id = $1) AND ($2 = '' OR course_id = $2) AND ($3 = '' OR status = $3)"
	args := []any{f.LearnerID, f.CourseID, string(f.Status)}

	var total int
	err = db.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM enrollments `+where, args...).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count enrollments: %w", err)
	}

	limit := p.Limit
	if limit <= 0 {
		limit = 50
	}

	rows, err := db.pool.Query(ctx, `
		SELECT `+enrollmentColumns+`
		FROM enrollments `+where+`
		ORDER BY enrolled_at DESC
		LIMIT $4 OFFSET $5
	`, append(args, limit, p.Offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list enrollments: %w", err)
	}
	defer rows.Close()

	var enrollments []*enrollment.Enrollment
	for rows.Next() {
		e, err := scanEnrollment(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan enrollment: %w", err)
		}
		enrollments = append(enrollments, e)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to read enrollments: %w", err)
	}

	return enrollments, total, nil
}

// Update replaces the stored record
func (r *EnrollmentRepository) Update(ctx context.Context, e *enrollment.Enrollment) error {
	db, err := r.resolver.Get(ctx, e.TenantID)
	if err != nil {
		return err
	}

	result, err := db.pool.Exec(ctx, `
		UPDATE enrollments
		SET status = $2, progress = $3, started_at = $4, completed_at = $5,
		    expires_at = $6, last_accessed_at = $7, cancellation_reason = $8,
		    certificate_id = $9, updated_at = $10
		WHERE id = $1
	`,
		e.ID, e.Status, e.Progress, e.StartedAt, e.CompletedAt,
		e.ExpiresAt, e.LastAccessedAt, e.CancellationReason,
		e.CertificateID, e.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to update enrollment: %w", err)
	}

	if result.RowsAffected() == 0 {
		return enrollment.ErrNotFound
	}

	return nil
}

// ExpireIfDue atomically moves a due active enrollment to expired. The status
// guard makes concurrent sweeps count each record at most once.
func (r *EnrollmentRepository) ExpireIfDue(ctx context.Context, tenantID, id string, now time.Time) (bool, error) {
	db, err := r.resolver.Get(ctx, tenantID)
	if err != nil {
		return false, err
	}

	result, err := db.pool.Exec(ctx, `
		UPDATE enrollments
		SET status = $3, updated_at = $2
		WHERE id = $1
		  AND status = $4
		  AND expires_at IS NOT NULL
		  AND expires_at <= $2
	`, id, now, enrollment.StatusExpired, enrollment.StatusActive)

	if err != nil {
		return false, fmt.Errorf("failed to expire enrollment: %w", err)
	}

	return result.RowsAffected() > 0, nil
}

// ListExpired returns active enrollments whose expiry has elapsed
func (r *EnrollmentRepository) ListExpired(ctx context.Context, tenantID string, now time.Time, limit int) ([]*enrollment.Enrollment, error) {
	db, err := r.resolver.Get(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	rows, err := db.pool.Query(ctx, `
		SELECT `+enrollmentColumns+`
		FROM enrollments
		WHERE status = $1 AND expires_at IS NOT NULL AND expires_at <= $2
		ORDER BY expires_at
		LIMIT $3
	`, enrollment.StatusActive, now, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list expired enrollments: %w", err)
	}
	defer rows.Close()

	var enrollments []*enrollment.Enrollment
	for rows.Next() {
		e, err := scanEnrollment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan enrollment: %w", err)
		}
		enrollments = append(enrollments, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read expired enrollments: %w", err)
	}

	return enrollments, nil
}

// SetCertificateID records a certificate issued after completion
func (r *EnrollmentRepository) SetCertificateID(ctx context.Context, tenantID, id, certificateID string) error {
	db, err := r.resolver.Get(ctx, tenantID)
	if err != nil {
		return err
	}

	result, err := db.pool.Exec(ctx, `
		UPDATE enrollments
		SET certificate_id = $2, updated_at = $3
		WHERE id = $1
	`, id, certificateID, time.Now().UTC())

	if err != nil {
		return fmt.Errorf("failed to set certificate id: %w", err)
	}

	if result.RowsAffected() == 0 {
		return enrollment.ErrNotFound
	}

	return nil
}

// Delete removes the record unconditionally
func (r *EnrollmentRepository) Delete(ctx context.Context, tenantID, id string) error {
	db, err := r.resolver.Get(ctx, tenantID)
	if err != nil {
		return err
	}

	result, err := db.pool.Exec(ctx, `
		DELETE FROM enrollments WHERE id = $1
	`, id)

	if err != nil {
		return fmt.Errorf("failed to delete enrollment: %w", err)
	}

	if result.RowsAffected() == 0 {
		return enrollment.ErrNotFound
	}

	return nil
}

// statusAggregate is one GROUP BY row of the stats query.
type statusAggregate struct {
	status      enrollment.Status
	count       int
	avgProgress float64
}

// foldStats folds per-status aggregates into the tenant-wide figure.
// Average progress covers active enrollments only: completed rows are pinned
// at progress 100 and would inflate it.
func foldStats(aggregates []statusAggregate) *enrollment.Stats {
	stats := &enrollment.Stats{ByStatus: make(map[enrollment.Status]int)}
	for _, agg := range aggregates {
		stats.ByStatus[agg.status] = agg.count
		stats.Total += agg.count
		if agg.status == enrollment.StatusActive {
			stats.AverageProgress = agg.avgProgress
		}
	}
	if stats.Total > 0 {
		stats.CompletionRate = float64(stats.ByStatus[enrollment.StatusCompleted]) / float64(stats.Total)
	}
	return stats
}

// Stats computes the per-tenant aggregate in a single pass
func (r *EnrollmentRepository) Stats(ctx context.Context, tenantID string) (*enrollment.Stats, error) {
	db, err := r.resolver.Get(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	rows, err := db.pool.Query(ctx, `
		SELECT status, COUNT(*), COALESCE(AVG(progress), 0)
		FROM enrollments
		GROUP BY status
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to compute enrollment stats: %w", err)
	}
	defer rows.Close()

	var aggregates []statusAggregate
	for rows.Next() {
		var agg statusAggregate
		if err := rows.Scan(&agg.status, &agg.count, &agg.avgProgress); err != nil {
			return nil, fmt.Errorf("failed to scan enrollment stats: %w", err)
		}
		aggregates = append(aggregates, agg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read enrollment stats: %w", err)
	}

	return foldStats(aggregates), nil
}
