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
	"time"

	"github.com/enrolld/enrolld/internal/audit"
	"github.com/enrolld/enrolld/internal/clock"
	"github.com/enrolld/enrolld/internal/notify"
	"github.com/enrolld/enrolld/internal/rbac"
)

// CertificateIssuer dispatches post-commit certificate issuance.
// Implemented by the certificate dispatcher; kept as a local interface so
// the domain package stays free of outbound dependencies.
type CertificateIssuer interface {
	IssueAsync(e *Enrollment)
}

// Service applies lifecycle operations to enrollments: load, authorize,
// transition in memory, persist with a single write, then dispatch the
// transition's side effects best effort.
type Service struct {
	repo        Repository
	certs       CertificateIssuer
	notifier    notify.Notifier
	auditLogger audit.Logger
	clock       clock.Clock
}

// NewService creates a new enrollment service.
func NewService(
	repo Repository,
	certs CertificateIssuer,
	notifier notify.Notifier,
	auditLogger audit.Logger,
	clk clock.Clock,
) *Service {
	return &Service{
		repo:        repo,
		certs:       certs,
		notifier:    notifier,
		auditLogger: auditLogger,
		clock:       clk,
	}
}

// load fetches the record and enforces ownership: learners reach only their
// own records, reviewers reach any record in their tenant.
func (s *Service) load(ctx context.Context, actor rbac.Actor, id string) (*Enrollment, error) {
	e, err := s.repo.Get(ctx, actor.TenantID, id)
	if err != nil {
		return nil, err
	}
	if !actor.CanReview() && !actor.Owns(e.LearnerID) {
		return nil, ErrUnauthorized
	}
	return e, nil
}

// Get returns a single enrollment.
func (s *Service) Get(ctx context.Context, actor rbac.Actor, id string) (*Enrollment, error) {
	return s.load(ctx, actor, id)
}

// List returns enrollments matching the filter. Learners are restricted to
// their own records regardless of the requested filter.
func (s *Service) List(ctx context.Context, actor rbac.Actor, f Filter, p Page) ([]*Enrollment, int, error) {
	if !actor.CanReview() {
		f.LearnerID = actor.ID
	}
	return s.repo.List(ctx, actor.TenantID, f, p)
}

// Statistics returns the tenant-wide aggregate. Reviewer only.
func (s *Service) Statistics(ctx context.Context, actor rbac.Actor) (*Stats, error) {
	if !actor.CanReview() {
		return nil, ErrUnauthorized
	}
	return s.repo.Stats(ctx, actor.TenantID)
}

// RecordAccess marks first (and subsequent) content access.
func (s *Service) RecordAccess(ctx context.Context, actor rbac.Actor, id string) (*Enrollment, error) {
	e, err := s.load(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	if err := e.RecordFirstAccess(s.clock.Now()); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, e); err != nil {
		return nil, fmt.Errorf("failed to record access: %w", err)
	}
	return e, nil
}

// UpdateProgress sets the progress percentage. Input outside [0,100] is
// clamped, never rejected.
func (s *Service) UpdateProgress(ctx context.Context, actor rbac.Actor, id string, progress int) (*Enrollment, error) {
	e, err := s.load(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	if err := e.UpdateProgress(progress, s.clock.Now()); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, e); err != nil {
		return nil, fmt.Errorf("failed to update progress: %w", err)
	}
	return e, nil
}

// Complete finishes the enrollment. When no certificate id is supplied,
// issuance is dispatched after the write commits; its failure never rolls
// back the completion.
func (s *Service) Complete(ctx context.Context, actor rbac.Actor, id, certificateID string) (*Enrollment, error) {
	e, err := s.load(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	effects, err := e.Complete(certificateID, s.clock.Now())
	if err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, e); err != nil {
		return nil, fmt.Errorf("failed to complete enrollment: %w", err)
	}

	s.dispatch(ctx, actor, e, effects)
	s.auditLogger.Log(ctx, audit.Event{
		Type:     audit.TypeEnrollmentCompleted,
		TenantID: actor.TenantID,
		ActorID:  actor.ID,
		Resource: e.ID,
		Metadata: map[string]any{"course_id": e.CourseID, "learner_id": e.LearnerID},
	})
	return e, nil
}

// Cancel terminates the enrollment with an optional reason.
func (s *Service) Cancel(ctx context.Context, actor rbac.Actor, id, reason string) (*Enrollment, error) {
	e, err := s.load(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	effects, err := e.Cancel(reason, s.clock.Now())
	if err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, e); err != nil {
		return nil, fmt.Errorf("failed to cancel enrollment: %w", err)
	}

	s.dispatch(ctx, actor, e, effects)
	s.auditLogger.Log(ctx, audit.Event{
		Type:     audit.TypeEnrollmentCancelled,
		TenantID: actor.TenantID,
		ActorID:  actor.ID,
		Resource: e.ID,
		Metadata: map[string]any{"course_id": e.CourseID, "reason": reason},
	})
	return e, nil
}

// Extend moves the expiry forward, reviving an expired enrollment.
// Reviewer only: extension bypasses admission-time capacity checks.
func (s *Service) Extend(ctx context.Context, actor rbac.Actor, id string, newExpiry time.Time) (*Enrollment, error) {
	if !actor.CanReview() {
		return nil, ErrUnauthorized
	}

	e, err := s.load(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	wasExpired := e.Status == StatusExpired
	if err := e.Extend(newExpiry, s.clock.Now()); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, e); err != nil {
		return nil, fmt.Errorf("failed to extend enrollment: %w", err)
	}

	s.auditLogger.Log(ctx, audit.Event{
		Type:     audit.TypeEnrollmentExtended,
		TenantID: actor.TenantID,
		ActorID:  actor.ID,
		Resource: e.ID,
		Metadata: map[string]any{
			"expires_at":  newExpiry,
			"reactivated": wasExpired,
		},
	})
	return e, nil
}

// Delete removes the record unconditionally. Admin only, final.
func (s *Service) Delete(ctx context.Context, actor rbac.Actor, id string) error {
	if !actor.IsAdmin() {
		return ErrUnauthorized
	}

	e, err := s.repo.Get(ctx, actor.TenantID, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, actor.TenantID, id); err != nil {
		return fmt.Errorf("failed to delete enrollment: %w", err)
	}

	s.auditLogger.Log(ctx, audit.Event{
		Type:     audit.TypeEnrollmentDeleted,
		TenantID: actor.TenantID,
		ActorID:  actor.ID,
		Resource: e.ID,
		Metadata: map[string]any{"course_id": e.CourseID, "learner_id": e.LearnerID},
	})
	return nil
}

// CanAccess evaluates derived access for a record at the service clock.
func (s *Service) CanAccess(e *Enrollment) bool {
	return CanAccessAt(e, s.clock.Now())
}

// IsExpired evaluates derived expiry for a record at the service clock.
func (s *Service) IsExpired(e *Enrollment) bool {
	return IsExpiredAt(e, s.clock.Now())
}

// dispatch runs a transition's side effects. All of them are best effort.
func (s *Service) dispatch(ctx context.Context, actor rbac.Actor, e *Enrollment, effects []Effect) {
	for _, effect := range effects {
		switch effect.Kind {
		case EffectIssueCertificate:
			if s.certs != nil {
				s.certs.IssueAsync(e)
			}
		case EffectNotify:
			if s.notifier != nil {
				s.notifier.Notify(ctx, notify.Event{
					Type:      effect.Event,
					TenantID:  actor.TenantID,
					SubjectID: e.ID,
					LearnerID: e.LearnerID,
					CourseID:  e.CourseID,
				})
			}
		}
	}
}
