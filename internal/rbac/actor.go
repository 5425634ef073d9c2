package rbac

// Actor is the authenticated principal performing an operation, as carried
// by the bearer token. Every domain operation authorizes against it.
type Actor struct {
	ID       string
	TenantID string
	Role     string
}

// IsAdmin reports whether the actor holds the admin role.
func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin
}

// CanReview reports whether the actor may review requests and mutate
// records owned by other learners in the tenant.
func (a Actor) CanReview() bool {
	return CanReview(a.Role)
}

// Owns reports whether the actor is the learner a record belongs to.
func (a Actor) Owns(learnerID string) bool {
	return a.ID == learnerID
}
