package enrollment

import (
	"context"
	"time"
)

// Filter narrows List results. Zero values match everything.
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

// Stats is the per-tenant aggregate backing the statistics endpoint.
type Stats struct {
	Total           int            `json:"total"`
	ByStatus        map[Status]int `json:"by_status"`
	AverageProgress float64        `json:"average_progress"`
	CompletionRate  float64        `json:"completion_rate"`
}

// Repository defines the tenant-scoped persistence gateway for enrollments.
// Implementations resolve the tenant's storage unit per call; every method
// returns ErrNotFound when the record is absent in that tenant.
type Repository interface {
	Create(ctx context.Context, e *Enrollment) error

	Get(ctx context.Context, tenantID, id string) (*Enrollment, error)

	// GetByLearnerAndCourse returns the most recent enrollment for the pair,
	// the record whose status decides duplicate admission.
	GetByLearnerAndCourse(ctx context.Context, tenantID, learnerID, courseID string) (*Enrollment, error)

	// List returns a page of matching enrollments plus the total match count.
	List(ctx context.Context, tenantID string, f Filter, p Page) ([]*Enrollment, int, error)

	// Update replaces the stored record.
	Update(ctx context.Context, e *Enrollment) error

	// ExpireIfDue atomically moves the record to expired, guarded on the
	// stored row still being active with an elapsed expiry. Reports whether
	// the row changed, so concurrent sweeps count each record at most once.
	ExpireIfDue(ctx context.Context, tenantID, id string, now time.Time) (bool, error)

	// ListExpired returns active enrollments whose expiry has elapsed.
	ListExpired(ctx context.Context, tenantID string, now time.Time, limit int) ([]*Enrollment, error)

	// SetCertificateID records a certificate issued after completion.
	SetCertificateID(ctx context.Context, tenantID, id, certificateID string) error

	// Delete removes the record unconditionally.
	Delete(ctx context.Context, tenantID, id string) error

	Stats(ctx context.Context, tenantID string) (*Stats, error)
}
