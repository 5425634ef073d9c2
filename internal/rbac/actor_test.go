package rbac

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsValid(t *testing.T) {
	assert.True(t, IsValid(RoleLearner))
	assert.True(t, IsValid(RoleInstructor))
	assert.True(t, IsValid(RoleAdmin))
	assert.False(t, IsValid(""))
	assert.False(t, IsValid("superuser"))
}

func TestActor_CanReview(t *testing.T) {
	assert.False(t, Actor{Role: RoleLearner}.CanReview())
	assert.True(t, Actor{Role: RoleInstructor}.CanReview())
	assert.True(t, Actor{Role: RoleAdmin}.CanReview())
}

func TestActor_IsAdmin(t *testing.T) {
	assert.False(t, Actor{Role: RoleLearner}.IsAdmin())
	assert.False(t, Actor{Role: RoleInstructor}.IsAdmin())
	assert.True(t, Actor{Role: RoleAdmin}.IsAdmin())
}

func TestActor_Owns(t *testing.T) {
	a := Actor{ID: "lrn-1", TenantID: "ten-1", Role: RoleLearner}
	assert.True(t, a.Owns("lrn-1"))
	assert.False(t, a.Owns("lrn-2"))
	assert.False(t, a.Owns(""))
}
