package course

import (
	"context"
	"errors"
)

// Domain errors surfaced by the directory and by admission checks.
var (
	ErrNotFound         = errors.New("course not found")
	ErrNotPublished     = errors.New("course is not published")
	ErrFull             = errors.New("course has no remaining capacity")
	ErrApprovalRequired = errors.New("course requires enrollment approval")
)

// Directory answers policy questions about a course. It is a consumed
// boundary: the catalog itself lives in a separate service.
type Directory interface {
	Exists(ctx context.Context, tenantID, courseID string) (bool, error)
	IsPublished(ctx context.Context, tenantID, courseID string) (bool, error)
	RequiresApproval(ctx context.Context, tenantID, courseID string) (bool, error)
	HasCapacity(ctx context.Context, tenantID, courseID string) (bool, error)
}

// Course is the directory's description of a course, as fetched from the
// catalog service and optionally cached.
type Course struct {
	ID               string `json:"id"`
	Published        bool   `json:"published"`
	RequiresApproval bool   `json:"requires_approval"`
	Capacity         int    `json:"capacity"`
	EnrolledCount    int    `json:"enrolled_count"`
}

// HasCapacity reports whether the course can admit one more learner.
// Capacity zero means unlimited.
func (c *Course) HasCapacity() bool {
	return c.Capacity == 0 || c.EnrolledCount < c.Capacity
}

// describeSource fetches a course description; implemented by the HTTP
// client and by the redis cache wrapping it.
type describeSource interface {
	Describe(ctx context.Context, tenantID, courseID string) (*Course, error)
}

// DirectoryClient adapts a describe source to the Directory interface.
type DirectoryClient struct {
	source describeSource
}

// NewDirectory creates a Directory over a course source.
func NewDirectory(source describeSource) *DirectoryClient {
	return &DirectoryClient{source: source}
}

// Exists reports whether the course is known to the catalog.
func (d *DirectoryClient) Exists(ctx context.Context, tenantID, courseID string) (bool, error) {
	_, err := d.source.Describe(ctx, tenantID, courseID)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// IsPublished reports whether the course is visible for enrollment.
func (d *DirectoryClient) IsPublished(ctx context.Context, tenantID, courseID string) (bool, error) {
	c, err := d.source.Describe(ctx, tenantID, courseID)
	if err != nil {
		return false, err
	}
	return c.Published, nil
}

// RequiresApproval reports whether admission is gatekept.
func (d *DirectoryClient) RequiresApproval(ctx context.Context, tenantID, courseID string) (bool, error) {
	c, err := d.source.Describe(ctx, tenantID, courseID)
	if err != nil {
		return false, err
	}
	return c.RequiresApproval, nil
}

// HasCapacity reports whether the course can admit one more learner.
func (d *DirectoryClient) HasCapacity(ctx context.Context, tenantID, courseID string) (bool, error) {
	c, err := d.source.Describe(ctx, tenantID, courseID)
	if err != nil {
		return false, err
	}
	return c.HasCapacity(), nil
}
