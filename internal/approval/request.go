package approval

import (
	"errors"
	"strings"
	"time"
)

// Domain errors
var (
	ErrRequestNotFound         = errors.New("enrollment request not found")
	ErrAlreadyProcessed        = errors.New("enrollment request has already been reviewed")
	ErrRequestAlreadyExists    = errors.New("a pending enrollment request already exists for this course")
	ErrRejectionReasonTooShort = errors.New("rejection reason must be at least 5 characters")
	ErrApprovalNotRequired     = errors.New("course does not require approval; enroll directly")
	ErrApprovalFailed          = errors.New("approval could not be applied")
	ErrUnauthorized            = errors.New("actor is not allowed to access this enrollment request")
)

// minRejectionReason is the minimum length of a trimmed rejection reason.
const minRejectionReason = 5

// Status is the review state of an enrollment request.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// IsValid checks that the status is one of the known values.
func (s Status) IsValid() bool {
	return s == StatusPending || s == StatusApproved || s == StatusRejected
}

// Request is a learner's pending admission to an approval-gated course.
// Once approved or rejected it is immutable; a learner who wants back in
// after a rejection files a brand-new request.
type Request struct {
	ID        string `json:"id"`
	TenantID  string `json:"tenant_id"`
	LearnerID string `json:"learner_id"`
	CourseID  string `json:"course_id"`

	Status  Status `json:"status"`
	Message string `json:"message,omitempty"`

	ReviewerID      *string    `json:"reviewer_id,omitempty"`
	RejectionReason *string    `json:"rejection_reason,omitempty"`
	RequestedAt     time.Time  `json:"requested_at"`
	ReviewedAt      *time.Time `json:"reviewed_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewRequest creates a pending request. Reviewer fields stay nil until the
// request leaves pending.
func NewRequest(id, tenantID, learnerID, courseID, message string, now time.Time) (*Request, error) {
	if id == "" || tenantID == "" || learnerID == "" || courseID == "" {
		return nil, errors.New("request id, tenant id, learner id and course id are required")
	}

	return &Request{
		ID:          id,
		TenantID:    tenantID,
		LearnerID:   learnerID,
		CourseID:    courseID,
		Status:      StatusPending,
		Message:     strings.TrimSpace(message),
		RequestedAt: now,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// Approve marks the request approved. Legal only while pending.
func (r *Request) Approve(reviewerID string, now time.Time) error {
	if r.Status != StatusPending {
		return ErrAlreadyProcessed
	}

	t := now
	r.Status = StatusApproved
	r.ReviewerID = &reviewerID
	r.ReviewedAt = &t
	r.UpdatedAt = now
	return nil
}

// Reject marks the request rejected with a reason of at least 5 characters.
func (r *Request) Reject(reviewerID, reason string, now time.Time) error {
	if r.Status != StatusPending {
		return ErrAlreadyProcessed
	}

	reason = strings.TrimSpace(reason)
	if len(reason) < minRejectionReason {
		return ErrRejectionReasonTooShort
	}

	t := now
	r.Status = StatusRejected
	r.ReviewerID = &reviewerID
	r.RejectionReason = &reason
	r.ReviewedAt = &t
	r.UpdatedAt = now
	return nil
}
