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

package approval

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/enrolld/enrolld/internal/audit"
	"github.com/enrolld/enrolld/internal/clock"
	"github.com/enrolld/enrolld/internal/course"
	"github.com/enrolld/enrolld/internal/enrollment"
	"github.com/enrolld/enrolld/internal/id"
	"github.com/enrolld/enrolld/internal/notify"
	"github.com/enrolld/enrolld/internal/observability/metrics"
	"github.com/enrolld/enrolld/internal/rbac"
)

// Coordinator owns admission: direct enrollment, the request/approval
// workflow, and the dual write that turns an approved request into an
// enrollment. It is the only component that creates enrollments.
type Coordinator struct {
	requests    Repository
	enrollments enrollment.Repository
	gateway     TxGateway
	directory   course.Directory
	notifier    notify.Notifier
	auditLogger audit.Logger
	instruments *metrics.Instruments
	clock       clock.Clock
}

// NewCoordinator creates a new approval workflow coordinator. A nil
// instruments disables metric recording.
func NewCoordinator(
	requests Repository,
	enrollments enrollment.Repository,
	gateway TxGateway,
	directory course.Directory,
	notifier notify.Notifier,
	auditLogger audit.Logger,
	instruments *metrics.Instruments,
	clk clock.Clock,
) *Coordinator {
	return &Coordinator{
		requests:    requests,
		enrollments: enrollments,
		gateway:     gateway,
		directory:   directory,
		notifier:    notifier,
		auditLogger: auditLogger,
		instruments: instruments,
		clock:       clk,
	}
}

// checkCourse validates existence and publication, returning the approval
// policy. All admission paths go through it before any write.
func (c *Coordinator) checkCourse(ctx context.Context, tenantID, courseID string) (requiresApproval bool, err error) {
	exists, err := c.directory.Exists(ctx, tenantID, courseID)
	if err != nil {
		return false, fmt.Errorf("course directory lookup failed: %w", err)
	}
	if !exists {
		return false, course.ErrNotFound
	}

	published, err := c.directory.IsPublished(ctx, tenantID, courseID)
	if err != nil {
		return false, fmt.Errorf("course directory lookup failed: %w", err)
	}
	if !published {
		return false, course.ErrNotPublished
	}

	requiresApproval, err = c.directory.RequiresApproval(ctx, tenantID, courseID)
	if err != nil {
		return false, fmt.Errorf("course directory lookup failed: %w", err)
	}
	return requiresApproval, nil
}

// checkNotEnrolled rejects admission while the learner's most recent
// enrollment for the course is still active lineage: stored active and not
// logically expired. Completed, cancelled and expired lineages may re-enroll.
func (c *Coordinator) checkNotEnrolled(ctx context.Context, tenantID, learnerID, courseID string) error {
	existing, err := c.enrollments.GetByLearnerAndCourse(ctx, tenantID, learnerID, courseID)
	if errors.Is(err, enrollment.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to check existing enrollment: %w", err)
	}
	if existing.Status == enrollment.StatusActive && !enrollment.IsExpiredAt(existing, c.clock.Now()) {
		return enrollment.ErrAlreadyEnrolled
	}
	return nil
}

// Enroll admits a learner directly into a course whose policy does not
// require approval. Reviewers may enroll other learners; a learner enrolls
// only themself.
func (c *Coordinator) Enroll(ctx context.Context, actor rbac.Actor, learnerID, courseID string, expiresAt *time.Time) (*enrollment.Enrollment, error) {
	if learnerID == "" {
		learnerID = actor.ID
	}
	if !actor.CanReview() && !actor.Owns(learnerID) {
		return nil, ErrUnauthorized
	}

	requiresApproval, err := c.checkCourse(ctx, actor.TenantID, courseID)
	if err != nil {
		return nil, err
	}
	if requiresApproval {
		return nil, course.ErrApprovalRequired
	}

	if err := c.checkNotEnrolled(ctx, actor.TenantID, learnerID, courseID); err != nil {
		return nil, err
	}

	hasCapacity, err := c.directory.HasCapacity(ctx, actor.TenantID, courseID)
	if err != nil {
		return nil, fmt.Errorf("course directory lookup failed: %w", err)
	}
	if !hasCapacity {
		return nil, course.ErrFull
	}

	now := c.clock.Now()
	e, err := enrollment.New(id.NewUUIDv7(), actor.TenantID, learnerID, courseID, expiresAt, now)
	if err != nil {
		return nil, err
	}
	if err := c.enrollments.Create(ctx, e); err != nil {
		return nil, fmt.Errorf("failed to create enrollment: %w", err)
	}

	c.auditLogger.Log(ctx, audit.Event{
		Type:     audit.TypeEnrollmentCreated,
		TenantID: actor.TenantID,
		ActorID:  actor.ID,
		Resource: e.ID,
		Metadata: map[string]any{"course_id": courseID, "learner_id": learnerID},
	})
	if c.instruments != nil {
		c.instruments.EnrollmentsCreated.Add(ctx, 1)
	}
	return e, nil
}

// RequestEnrollment files a pending request for an approval-gated course.
func (c *Coordinator) RequestEnrollment(ctx context.Context, actor rbac.Actor, courseID, message string) (*Request, error) {
	requiresApproval, err := c.checkCourse(ctx, actor.TenantID, courseID)
	if err != nil {
		return nil, err
	}
	if !requiresApproval {
		return nil, ErrApprovalNotRequired
	}

	if err := c.checkNotEnrolled(ctx, actor.TenantID, actor.ID, courseID); err != nil {
		return nil, err
	}

	_, err = c.requests.GetPendingByLearnerAndCourse(ctx, actor.TenantID, actor.ID, courseID)
	if err == nil {
		return nil, ErrRequestAlreadyExists
	}
	if !errors.Is(err, ErrRequestNotFound) {
		return nil, fmt.Errorf("failed to check pending requests: %w", err)
	}

	req, err := NewRequest(id.NewUUIDv7(), actor.TenantID, actor.ID, courseID, message, c.clock.Now())
	if err != nil {
		return nil, err
	}
	if err := c.requests.Create(ctx, req); err != nil {
		return nil, fmt.Errorf("failed to create enrollment request: %w", err)
	}

	c.auditLogger.Log(ctx, audit.Event{
		Type:     audit.TypeRequestCreated,
		TenantID: actor.TenantID,
		ActorID:  actor.ID,
		Resource: req.ID,
		Metadata: map[string]any{"course_id": courseID},
	})
	return req, nil
}

// Approve reviews a pending request and, in one atomic unit, creates the
// learner's active enrollment. A full course leaves the request pending so
// approval can be retried once seats free up. Of two concurrent approvals
// exactly one wins; the other observes ErrAlreadyProcessed.
func (c *Coordinator) Approve(ctx context.Context, actor rbac.Actor, requestID string) (*enrollment.Enrollment, error) {
	if !actor.CanReview() {
		return nil, ErrUnauthorized
	}

	req, err := c.requests.Get(ctx, actor.TenantID, requestID)
	if err != nil {
		return nil, err
	}

	// Capacity and duplicate checks happen before the request is touched, so
	// a failure here leaves it pending and retryable.
	hasCapacity, err := c.directory.HasCapacity(ctx, actor.TenantID, req.CourseID)
	if err != nil {
		return nil, fmt.Errorf("course directory lookup failed: %w", err)
	}
	if !hasCapacity {
		return nil, course.ErrFull
	}
	if err := c.checkNotEnrolled(ctx, actor.TenantID, req.LearnerID, req.CourseID); err != nil {
		return nil, err
	}

	now := c.clock.Now()
	if err := req.Approve(actor.ID, now); err != nil {
		return nil, err
	}

	e, err := enrollment.New(id.NewUUIDv7(), req.TenantID, req.LearnerID, req.CourseID, nil, now)
	if err != nil {
		return nil, err
	}

	if err := c.gateway.ApproveAndEnroll(ctx, req, e); err != nil {
		if errors.Is(err, ErrAlreadyProcessed) {
			return nil, ErrAlreadyProcessed
		}
		return nil, fmt.Errorf("%w: %v", ErrApprovalFailed, err)
	}

	c.auditLogger.Log(ctx, audit.Event{
		Type:     audit.TypeRequestApproved,
		TenantID: actor.TenantID,
		ActorID:  actor.ID,
		Resource: req.ID,
		Metadata: map[string]any{"course_id": req.CourseID, "enrollment_id": e.ID},
	})
	c.notifier.Notify(ctx, notify.Event{
		Type:      "request_approved",
		TenantID:  actor.TenantID,
		SubjectID: req.ID,
		LearnerID: req.LearnerID,
		CourseID:  req.CourseID,
	})
	if c.instruments != nil {
		c.instruments.RequestsReviewed.Add(ctx, 1)
		c.instruments.EnrollmentsCreated.Add(ctx, 1)
	}
	return e, nil
}

// Reject reviews a pending request with a reason of at least 5 characters.
func (c *Coordinator) Reject(ctx context.Context, actor rbac.Actor, requestID, reason string) (*Request, error) {
	if !actor.CanReview() {
		return nil, ErrUnauthorized
	}

	req, err := c.requests.Get(ctx, actor.TenantID, requestID)
	if err != nil {
		return nil, err
	}

	if err := req.Reject(actor.ID, reason, c.clock.Now()); err != nil {
		return nil, err
	}
	if err := c.requests.UpdateIfPending(ctx, req); err != nil {
		return nil, err
	}

	c.auditLogger.Log(ctx, audit.Event{
		Type:     audit.TypeRequestRejected,
		TenantID: actor.TenantID,
		ActorID:  actor.ID,
		Resource: req.ID,
		Metadata: map[string]any{"course_id": req.CourseID, "reason": reason},
	})
	c.notifier.Notify(ctx, notify.Event{
		Type:      "request_rejected",
		TenantID:  actor.TenantID,
		SubjectID: req.ID,
		LearnerID: req.LearnerID,
		CourseID:  req.CourseID,
	})
	if c.instruments != nil {
		c.instruments.RequestsReviewed.Add(ctx, 1)
	}
	return req, nil
}

// Withdraw deletes a request at the learner's initiative. Legal only while
// pending and only for the request's owner.
func (c *Coordinator) Withdraw(ctx context.Context, actor rbac.Actor, requestID string) error {
	req, err := c.requests.Get(ctx, actor.TenantID, requestID)
	if err != nil {
		return err
	}
	if !actor.Owns(req.LearnerID) {
		return ErrUnauthorized
	}
	if req.Status != StatusPending {
		return ErrAlreadyProcessed
	}

	if err := c.requests.Delete(ctx, actor.TenantID, requestID); err != nil {
		return fmt.Errorf("failed to withdraw request: %w", err)
	}

	c.auditLogger.Log(ctx, audit.Event{
		Type:     audit.TypeRequestWithdrawn,
		TenantID: actor.TenantID,
		ActorID:  actor.ID,
		Resource: req.ID,
		Metadata: map[string]any{"course_id": req.CourseID},
	})
	return nil
}

// GetRequest returns a single request, owner or reviewer only.
func (c *Coordinator) GetRequest(ctx context.Context, actor rbac.Actor, requestID string) (*Request, error) {
	req, err := c.requests.Get(ctx, actor.TenantID, requestID)
	if err != nil {
		return nil, err
	}
	if !actor.CanReview() && !actor.Owns(req.LearnerID) {
		return nil, ErrUnauthorized
	}
	return req, nil
}

// ListRequests returns requests matching the filter. Learners are restricted
// to their own requests.
func (c *Coordinator) ListRequests(ctx context.Context, actor rbac.Actor, f Filter, p Page) ([]*Request, int, error) {
	if !actor.CanReview() {
		f.LearnerID = actor.ID
	}
	return c.requests.List(ctx, actor.TenantID, f, p)
}
