package approval

import (
	"context"

	"github.com/enrolld/enrolld/internal/enrollment"
)

// Filter narrows request listings. Zero values match everything.
type Filter struct {
	LearnerID string
	CourseID  string
	Status    Status
}

// Page bounds List results.
type Page struct {
	Limit  int
	Offset int
}

// Repository defines the tenant-scoped persistence gateway for requests.
type Repository interface {
	Create(ctx context.Context, r *Request) error

	Get(ctx context.Context, tenantID, id string) (*Request, error)

	// GetPendingByLearnerAndCourse returns the pending request for the pair,
	// or ErrRequestNotFound when none is pending.
	GetPendingByLearnerAndCourse(ctx context.Context, tenantID, learnerID, courseID string) (*Request, error)

	List(ctx context.Context, tenantID string, f Filter, p Page) ([]*Request, int, error)

	// UpdateIfPending replaces the stored record only while the stored row
	// is still pending; returns ErrAlreadyProcessed otherwise. This is the
	// conditional write that makes concurrent reviews lose cleanly.
	UpdateIfPending(ctx context.Context, r *Request) error

	// Delete removes the request. Used for learner withdrawal.
	Delete(ctx context.Context, tenantID, id string) error
}

// TxGateway is the transactional boundary for approval's dual write. The
// request must move to approved and the enrollment must be created in one
// atomic unit; an approved request without its enrollment is a consistency
// violation.
type TxGateway interface {
	// ApproveAndEnroll persists req (already approved in memory) and creates
	// e inside a single transaction, guarded on the stored request still
	// being pending. Returns ErrAlreadyProcessed when another review won.
	ApproveAndEnroll(ctx context.Context, req *Request, e *enrollment.Enrollment) error
}
