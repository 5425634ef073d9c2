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

	"github.com/enrolld/enrolld/internal/approval"
	"github.com/enrolld/enrolld/internal/enrollment"
)

// ApprovalGateway implements approval.TxGateway. The request update and the
// enrollment insert share one transaction; the conditional status guard on
// the request makes concurrent approvals race with exactly one winner.
type ApprovalGateway struct {
	resolver *Resolver
}

// NewApprovalGateway creates a new approval transaction gateway
func NewApprovalGateway(resolver *Resolver) *ApprovalGateway {
	return &ApprovalGateway{resolver: resolver}
}

// ApproveAndEnroll persists the approved request and its enrollment atomically
func (g *ApprovalGateway) ApproveAndEnroll(ctx context.Context, req *approval.Request, e *enrollment.Enrollment) error {
	db, err := g.resolver.Get(ctx, req.TenantID)
	if err != nil {
		return err
	}

	tx, err := db.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	result, err := tx.Exec(ctx, `
		UPDATE enrollment_requests
		SET status = $2, reviewer_id = $3, reviewed_at = $4, updated_at = $5
		WHERE id = $1 AND status = $6
	`,
		req.ID, req.Status, req.ReviewerID, req.ReviewedAt, req.UpdatedAt,
		approval.StatusPending,
	)
	if err != nil {
		return fmt.Errorf("failed to approve request: %w", err)
	}

	if result.RowsAffected() == 0 {
		return approval.ErrAlreadyProcessed
	}

	_, err = tx.Exec(ctx, `
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

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit approval: %w", err)
	}

	return nil
}
