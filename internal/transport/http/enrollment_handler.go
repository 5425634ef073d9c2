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

package http

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/enrolld/enrolld/internal/enrollment"
)

// CreateEnrollmentRequest represents a direct enrollment
type CreateEnrollmentRequest struct {
	CourseID  string     `json:"course_id" example:"crs_01"`
	LearnerID string     `json:"learner_id,omitempty"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

// CreateEnrollment enrolls a learner into a course that needs no approval
// @Summary Enroll in a course
// @Tags Enrollments
// @Accept json
// @Produce json
// @Param request body CreateEnrollmentRequest true "Enrollment data"
// @Success 201 {object} enrollment.Enrollment
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Failure 422 {object} map[string]string
// @Security BearerAuth
// @Router /enrollments [post]
func (h *Handler) CreateEnrollment(w http.ResponseWriter, r *http.Request) {
	actor, ok := GetActor(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	var req CreateEnrollmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.CourseID == "" {
		respondError(w, http.StatusBadRequest, "course_id is required")
		return
	}

	e, err := h.approvals.Enroll(r.Context(), actor, req.LearnerID, req.CourseID, req.ExpiresAt)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}

	respondJSON(w, http.StatusCreated, e)
}

// ListEnrollments returns a page of enrollments. Learners see only their own.
// @Summary List enrollments
// @Tags Enrollments
// @Produce json
// @Security BearerAuth
// @Router /enrollments [get]
func (h *Handler) ListEnrollments(w http.ResponseWriter, r *http.Request) {
	actor, ok := GetActor(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	q := r.URL.Query()
	f := enrollment.Filter{
		LearnerID: q.Get("learner_id"),
		CourseID:  q.Get("course_id"),
		Status:    enrollment.Status(q.Get("status")),
	}
	if f.Status != "" && !f.Status.IsValid() {
		respondError(w, http.StatusBadRequest, "unknown status filter")
		return
	}
	p := parsePage(q.Get("limit"), q.Get("offset"))

	items, total, err := h.enrollments.List(r.Context(), actor, f, p)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	if items == nil {
		items = []*enrollment.Enrollment{}
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"enrollments": items,
		"total":       total,
		"limit":       p.Limit,
		"offset":      p.Offset,
	})
}

// EnrollmentStats returns the tenant-wide aggregate. Reviewer only.
func (h *Handler) EnrollmentStats(w http.ResponseWriter, r *http.Request) {
	actor, ok := GetActor(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	stats, err := h.enrollments.Statistics(r.Context(), actor)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, stats)
}

// GetEnrollment returns a single enrollment with its derived access fields
func (h *Handler) GetEnrollment(w http.ResponseWriter, r *http.Request) {
	actor, ok := GetActor(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	e, err := h.enrollments.Get(r.Context(), actor, chi.URLParam(r, "enrollmentID"))
	if err != nil {
		respondDomainError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, enrollmentView(h, e))
}

// DeleteEnrollment removes a record permanently. Admin only.
func (h *Handler) DeleteEnrollment(w http.ResponseWriter, r *http.Request) {
	actor, ok := GetActor(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	if err := h.enrollments.Delete(r.Context(), actor, chi.URLParam(r, "enrollmentID")); err != nil {
		respondDomainError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// RecordAccess marks course content access
func (h *Handler) RecordAccess(w http.ResponseWriter, r *http.Request) {
	actor, ok := GetActor(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	e, err := h.enrollments.RecordAccess(r.Context(), actor, chi.URLParam(r, "enrollmentID"))
	if err != nil {
		respondDomainError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, enrollmentView(h, e))
}

// UpdateProgressRequest carries a progress percentage
type UpdateProgressRequest struct {
	Progress int `json:"progress" example:"45"`
}

// UpdateProgress sets the progress percentage, clamped to [0,100]
func (h *Handler) UpdateProgress(w http.ResponseWriter, r *http.Request) {
	actor, ok := GetActor(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	var req UpdateProgressRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	e, err := h.enrollments.UpdateProgress(r.Context(), actor, chi.URLParam(r, "enrollmentID"), req.Progress)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, enrollmentView(h, e))
}

// CompleteEnrollmentRequest optionally carries a pre-issued certificate
type CompleteEnrollmentRequest struct {
	CertificateID string `json:"certificate_id,omitempty"`
}

// CompleteEnrollment finishes the enrollment
// @Summary Complete an enrollment
// @Tags Enrollments
// @Accept json
// @Produce json
// @Param enrollmentID path string true "Enrollment ID"
// @Success 200 {object} enrollment.Enrollment
// @Failure 409 {object} map[string]string
// @Security BearerAuth
// @Router /enrollments/{enrollmentID}/complete [post]
func (h *Handler) CompleteEnrollment(w http.ResponseWriter, r *http.Request) {
	actor, ok := GetActor(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	var req CompleteEnrollmentRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}

	e, err := h.enrollments.Complete(r.Context(), actor, chi.URLParam(r, "enrollmentID"), req.CertificateID)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, enrollmentView(h, e))
}

// CancelEnrollmentRequest carries an optional cancellation reason
type CancelEnrollmentRequest struct {
	Reason string `json:"reason,omitempty"`
}

// CancelEnrollment terminates the enrollment
func (h *Handler) CancelEnrollment(w http.ResponseWriter, r *http.Request) {
	actor, ok := GetActor(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	var req CancelEnrollmentRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}

	e, err := h.enrollments.Cancel(r.Context(), actor, chi.URLParam(r, "enrollmentID"), req.Reason)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, enrollmentView(h, e))
}

// ExtendEnrollmentRequest carries the new expiry date
type ExtendEnrollmentRequest struct {
	ExpiresAt time.Time `json:"expires_at"`
}

// ExtendEnrollment moves the expiry forward, reviving an expired record
func (h *Handler) ExtendEnrollment(w http.ResponseWriter, r *http.Request) {
	actor, ok := GetActor(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	var req ExtendEnrollmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.ExpiresAt.IsZero() {
		respondError(w, http.StatusBadRequest, "expires_at is required")
		return
	}

	e, err := h.enrollments.Extend(r.Context(), actor, chi.URLParam(r, "enrollmentID"), req.ExpiresAt)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, enrollmentView(h, e))
}

// enrollmentView decorates a record with its derived access fields so clients
// never have to re-implement the expiry rules.
func enrollmentView(h *Handler, e *enrollment.Enrollment) map[string]any {
	return map[string]any{
		"enrollment": e,
		"expired":    h.enrollments.IsExpired(e),
		"can_access": h.enrollments.CanAccess(e),
	}
}

func parsePage(limitStr, offsetStr string) enrollment.Page {
	p := enrollment.Page{Limit: 50}
	if limitStr != "" {
		if n, err := strconv.Atoi(limitStr); err == nil && n > 0 && n <= 200 {
			p.Limit = n
		}
	}
	if offsetStr != "" {
		if n, err := strconv.Atoi(offsetStr); err == nil && n >= 0 {
			p.Offset = n
		}
	}
	return p
}
