package enrollment

import (
	"errors"
	"strings"
	"time"
)

// Domain errors
var (
	ErrNotFound          = errors.New("enrollment not found")
	ErrInvalidTransition = errors.New("transition not allowed for current enrollment status")
	ErrAlreadyEnrolled   = errors.New("learner already has an active enrollment for this course")
	ErrPastExpiry        = errors.New("expiry date must be in the future")
	ErrUnauthorized      = errors.New("actor is not allowed to access this enrollment")
)

// Status is the stored lifecycle state of an enrollment.
//
// There is no pending status here: a pending admission is modeled as an
// approval request, never as an enrollment row.
type Status string

const (
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
	StatusExpired   Status = "expired"
	StatusCancelled Status = "cancelled"
)

// IsValid checks that the status is one of the known values.
func (s Status) IsValid() bool {
	switch s {
	case StatusActive, StatusCompleted, StatusExpired, StatusCancelled:
		return true
	default:
		return false
	}
}

// IsTerminal reports whether the status refuses further mutation.
// Expired is not terminal: Extend revives an expired enrollment.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// Enrollment represents a learner's relationship to a course within a tenant.
type Enrollment struct {
	ID        string `json:"id"`
	TenantID  string `json:"tenant_id"`
	LearnerID string `json:"learner_id"`
	CourseID  string `json:"course_id"`

	Status   Status `json:"status"`
	Progress int    `json:"progress"`

	EnrolledAt     time.Time  `json:"enrolled_at"`
	StartedAt      *time.Time `json:"started_at,omitempty"`
	CompletedAt    *time.Time `json:"completed_at,omitempty"`
	ExpiresAt      *time.Time `json:"expires_at,omitempty"`
	LastAccessedAt *time.Time `json:"last_accessed_at,omitempty"`

	CancellationReason *string `json:"cancellation_reason,omitempty"`
	CertificateID      *string `json:"certificate_id,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// EffectKind identifies a post-commit side effect produced by a transition.
type EffectKind string

const (
	EffectIssueCertificate EffectKind = "issue_certificate"
	EffectNotify           EffectKind = "notify"
)

// Effect is a side effect the caller must dispatch after the transition has
// been persisted. The state machine never executes effects itself.
type Effect struct {
	Kind  EffectKind
	Event string
}

// New creates an active enrollment with progress zero.
// A nil expiresAt means the enrollment never expires.
func New(id, tenantID, learnerID, courseID string, expiresAt *time.Time, now time.Time) (*Enrollment, error) {
	if id == "" || tenantID == "" || learnerID == "" || courseID == "" {
		return nil, errors.New("enrollment id, tenant id, learner id and course id are required")
	}
	if expiresAt != nil && !expiresAt.After(now) {
		return nil, ErrPastExpiry
	}

	return &Enrollment{
		ID:         id,
		TenantID:   tenantID,
		LearnerID:  learnerID,
		CourseID:   courseID,
		Status:     StatusActive,
		Progress:   0,
		EnrolledAt: now,
		ExpiresAt:  expiresAt,
		CreatedAt:  now,
		UpdatedAt:  now,
	}, nil
}

// RecordFirstAccess marks the enrollment as started. The started-at timestamp
// is set once; repeated calls only refresh last-accessed-at.
func (e *Enrollment) RecordFirstAccess(now time.Time) error {
	if e.Status != StatusActive {
		return ErrInvalidTransition
	}

	if e.StartedAt == nil {
		t := now
		e.StartedAt = &t
	}
	t := now
	e.LastAccessedAt = &t
	e.UpdatedAt = now
	return nil
}

// UpdateProgress sets the progress percentage, clamped to [0,100].
// Progress never moves the status; reaching 100 does not complete the
// enrollment, only an explicit Complete does.
func (e *Enrollment) UpdateProgress(progress int, now time.Time) error {
	if e.Status != StatusActive {
		return ErrInvalidTransition
	}

	if progress < 0 {
		progress = 0
	}
	if progress > 100 {
		progress = 100
	}

	e.Progress = progress
	e.UpdatedAt = now
	return nil
}

// Complete transitions the enrollment to completed, forcing progress to 100.
// When certificateID is empty an issue-certificate effect is emitted so the
// caller can obtain one after the write commits.
func (e *Enrollment) Complete(certificateID string, now time.Time) ([]Effect, error) {
	if e.Status != StatusActive {
		return nil, ErrInvalidTransition
	}

	t := now
	e.Status = StatusCompleted
	e.Progress = 100
	e.CompletedAt = &t
	e.UpdatedAt = now

	effects := []Effect{{Kind: EffectNotify, Event: "enrollment_completed"}}
	if certificateID != "" {
		e.CertificateID = &certificateID
	} else {
		effects = append(effects, Effect{Kind: EffectIssueCertificate})
	}
	return effects, nil
}

// Cancel transitions the enrollment to cancelled with an optional reason.
func (e *Enrollment) Cancel(reason string, now time.Time) ([]Effect, error) {
	if e.Status != StatusActive {
		return nil, ErrInvalidTransition
	}

	e.Status = StatusCancelled
	if r := strings.TrimSpace(reason); r != "" {
		e.CancellationReason = &r
	}
	e.UpdatedAt = now

	return []Effect{{Kind: EffectNotify, Event: "enrollment_cancelled"}}, nil
}

// Extend moves the expiry forward. Extending an expired enrollment revives it
// to active regardless of how long ago it expired; admission-time capacity
// checks are intentionally not re-applied on extension.
func (e *Enrollment) Extend(newExpiry time.Time, now time.Time) error {
	if e.Status != StatusActive && e.Status != StatusExpired {
		return ErrInvalidTransition
	}
	if !newExpiry.After(now) {
		return ErrPastExpiry
	}

	t := newExpiry
	e.ExpiresAt = &t
	e.Status = StatusActive
	e.UpdatedAt = now
	return nil
}

// SweepExpire transitions an overdue active enrollment to expired. It reports
// whether the record changed: expiring an already expired enrollment is a
// no-op, so running a sweep twice never double-counts.
func (e *Enrollment) SweepExpire(now time.Time) (bool, error) {
	if e.Status == StatusExpired {
		return false, nil
	}
	if e.Status != StatusActive {
		return false, ErrInvalidTransition
	}
	if !IsExpiredAt(e, now) {
		return false, ErrInvalidTransition
	}

	e.Status = StatusExpired
	e.UpdatedAt = now
	return true, nil
}
