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

package rbac

// Roles carried in bearer tokens. Authorization is three-way: a learner may
// only touch their own records, an instructor may review and mutate any
// record within the tenant, an admin additionally may delete records.
const (
	// RoleLearner is the default role for end users.
	RoleLearner = "learner"

	// RoleInstructor reviews enrollment requests and manages enrollments
	// within the tenant.
	RoleInstructor = "instructor"

	// RoleAdmin holds instructor privileges plus destructive operations
	// (administrative delete, expiration sweeps).
	RoleAdmin = "admin"
)

// IsValid reports whether role is one of the known roles.
func IsValid(role string) bool {
	return role == RoleLearner || role == RoleInstructor || role == RoleAdmin
}

// CanReview reports whether the role may approve or reject enrollment
// requests and mutate records it does not own.
func CanReview(role string) bool {
	return role == RoleInstructor || role == RoleAdmin
}
