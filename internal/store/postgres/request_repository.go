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

	"github.com/jackc/pgx/v5"

	"github.com/enrolld/enrolld/internal/approval"
)

const requestColumns = `
	id, tenant_id, learner_id, course_id, status, message,
	reviewer_id, rejection_reason, requested_at, reviewed_at,
	created_at, updated_at`

// RequestRepository implements approval.Repository
type RequestRepository struct {
	resolver *Resolver
}

// NewRequestRepository creates a new enrollment request repository
func NewRequestRepository(resolver *Resolver) *RequestRepository {
	return &RequestRepository{resolver: resolver}
}

func scanRequest(row pgx.Row) (*approval.Request, error) {
	var req approval.Request
	err := row.Scan(
		&req.ID, &req.TenantID, &req.LearnerID, &req.CourseID, &req.Status, &req.Message,
		&req.ReviewerID, &req.RejectionReason, &req.RequestedAt, &req.ReviewedAt,
		&req.CreatedAt, &req.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &req, nil
}

// Create persists a new pending request
func (r *RequestRepository) Create(ctx context.Context, req *approval.Request) error {
	db, err := r.resolver.Get(ctx, req.TenantID)
	if err != nil {
		return err
	}

	_, err = db.pool.Exec(ctx, `
		INSERT INTO enrollment_requests (
			id, tenant_id, learner_id, course_id, status, message,
			reviewer_id, rejection_reason, requested_at, reviewed_at,
			created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`,
		req.ID, req.TenantID, req.LearnerID, req.CourseID, req.Status, req.Message,
		req.ReviewerID, req.RejectionReason, req.RequestedAt, req.ReviewedAt,
		req.CreatedAt, req.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to create enrollment request: %w", err)
	}

	return nil
}

// Get retrieves a request by ID
func (r *RequestRepository) Get(ctx context.Context, tenantID, id string) (*approval.Request, error) {
	db, err := r.resolver.Get(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	req, err := scanRequest(db.pool.QueryRow(ctx, `
		SELECT `+requestColumns+`
		FROM enrollment_requests
		WHERE id = $1
	`, id))

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, approval.ErrRequestNotFound
		}
		return nil, fmt.Errorf("failed to get enrollment request: %w", err)
	}

	return req, nil
}

// GetPendingByLearnerAndCourse returns the pending request for the pair
func (r *RequestRepository) GetPendingByLearnerAndCourse(ctx context.Context, tenantID, learnerID, courseID string) (*approval.Request, error) {
	db, err := r.resolver.Get(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	req, err := scanRequest(db.pool.QueryRow(ctx, `
		SELECT `+requestColumns+`
		FROM enrollment_requests
		WHERE learner_id = $1 AND course_id = $2 AND status = $3
	`, learnerID, courseID, approval.StatusPending))

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, approval.ErrRequestNotFound
		}
		return nil, fmt.Errorf("failed to get pending request: %w", err)
	}

	return req, nil
}

// List returns a page of matching requests plus the total match count
func (r *RequestRepository) List(ctx context.Context, tenantID string, f approval.Filter, p approval.Page) ([]*approval.Request, int, error) {
	db, err := r.resolver.Get(ctx, tenantID)
	if err != nil {
		return nil, 0, err
	}

	where := "WHERE ($1 = '' OR learner_id = $1) AND ($2 = '' OR course_id = $2) AND ($3 = '' OR status = $3)"
	args := []any{f.LearnerID, f.CourseID, string(f.Status)}

	var total int
	err = db.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM enrollment_requests `+where, args...).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count enrollment requests: %w", err)
	}

	limit := p.Limit
	if limit <= 0 {
		limit = 50
	}

	rows, err := db.pool.Query(ctx, `
		SELECT `+requestColumns+`
		FROM enrollment_requests `+where+`
		ORDER BY requested_at DESC
		LIMIT $4 OFFSET $5
	`, append(args, limit, p.Offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list enrollment requests: %w", err)
	}
	defer rows.Close()

	var requests []*approval.Request
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan enrollment request: %w", err)
		}
		requests = append(requests, req)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to read enrollment requests: %w", err)
	}

	return requests, total, nil
}

// UpdateIfPending replaces the stored record only while it is still pending
func (r *RequestRepository) UpdateIfPending(ctx context.Context, req *approval.Request) error {
	db, err := r.resolver.Get(ctx, req.TenantID)
	if err != nil {
		return err
	}

	result, err := db.pool.Exec(ctx, `
		UPDATE enrollment_requests
		SET status = $2, reviewer_id = $3, rejection_reason = $4,
		    reviewed_at = $5, updated_at = $6
		WHERE id = $1 AND status = $7
	`,
		req.ID, req.Status, req.ReviewerID, req.RejectionReason,
		req.ReviewedAt, req.UpdatedAt, approval.StatusPending,
	)

	if err != nil {
		return fmt.Errorf("failed to update enrollment request: %w", err)
	}

	if result.RowsAffected() == 0 {
		// Either the row is gone or another review already landed
		if _, err := r.Get(ctx, req.TenantID, req.ID); err != nil {
			return err
		}
		return approval.ErrAlreadyProcessed
	}

	return nil
}

// Delete removes a request
func (r *RequestRepository) Delete(ctx context.Context, tenantID, id string) error {
	db, err := r.resolver.Get(ctx, tenantID)
	if err != nil {
		return err
	}

	result, err := db.pool.Exec(ctx, `
		DELETE FROM enrollment_requests WHERE id = $1
	`, id)

	if err != nil {
		return fmt.Errorf("failed to delete enrollment request: %w", err)
	}

	if result.RowsAffected() == 0 {
		return approval.ErrRequestNotFound
	}

	return nil
}
