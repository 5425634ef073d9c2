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

	"github.com/go-chi/chi/v5"

	"github.com/enrolld/enrolld/internal/approval"
)

// CreateRequestRequest files an enrollment request for an approval-gated course
type CreateRequestRequest struct {
	CourseID string `json:"course_id" example:"crs_01"`
	Message  string `json:"message,omitempty"`
}

// CreateRequest files a pending enrollment request
// @Summary Request enrollment
// @Tags EnrollmentRequests
// @Accept json
// @Produce json
// @Param request body CreateRequestRequest true "Request data"
// @Success 201 {object} approval.Request
// @Failure 409 {object} map[string]string
// @Failure 422 {object} map[string]string
// @Security BearerAuth
// @Router /enrollment-requests [post]
func (h *Handler) CreateRequest(w http.ResponseWriter, r *http.Request) {
	actor, ok := GetActor(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	var req CreateRequestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.CourseID == "" {
		respondError(w, http.StatusBadRequest, "course_id is required")
		return
	}

	created, err := h.approvals.RequestEnrollment(r.Context(), actor, req.CourseID, req.Message)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}

	respondJSON(w, http.StatusCreated, created)
}

// ListRequests returns a page of requests. Learners see only their own.
func (h *Handler) ListRequests(w http.ResponseWriter, r *http.Request) {
	actor, ok := GetActor(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	q := r.URL.Query()
	f := approval.Filter{
		LearnerID: q.Get("learner_id"),
		CourseID:  q.Get("course_id"),
		Status:    approval.Status(q.Get("status")),
	}
	if f.Status != "" && !f.Status.IsValid() {
		respondError(w, http.StatusBadRequest, "unknown status filter")
		return
	}
	page := parsePage(q.Get("limit"), q.Get("offset"))
	p := approval.Page{Limit: page.Limit, Offset: page.Offset}

	items, total, err := h.approvals.ListRequests(r.Context(), actor, f, p)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	if items == nil {
		items = []*approval.Request{}
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"requests": items,
		"total":    total,
		"limit":    p.Limit,
		"offset":   p.Offset,
	})
}

// GetRequest returns a single enrollment request
func (h *Handler) GetRequest(w http.ResponseWriter, r *http.Request) {
	actor, ok := GetActor(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	req, err := h.approvals.GetRequest(r.Context(), actor, chi.URLParam(r, "requestID"))
	if err != nil {
		respondDomainError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, req)
}

// WithdrawRequest deletes a pending request at the learner's initiative
func (h *Handler) WithdrawRequest(w http.ResponseWriter, r *http.Request) {
	actor, ok := GetActor(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	if err := h.approvals.Withdraw(r.Context(), actor, chi.URLParam(r, "requestID")); err != nil {
		respondDomainError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ApproveRequest approves a pending request and creates the enrollment
// @Summary Approve an enrollment request
// @Tags EnrollmentRequests
// @Produce json
// @Param requestID path string true "Request ID"
// @Success 201 {object} enrollment.Enrollment
// @Failure 403 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Security BearerAuth
// @Router /enrollment-requests/{requestID}/approve [post]
func (h *Handler) ApproveRequest(w http.ResponseWriter, r *http.Request) {
	actor, ok := GetActor(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	e, err := h.approvals.Approve(r.Context(), actor, chi.URLParam(r, "requestID"))
	if err != nil {
		respondDomainError(w, r, err)
		return
	}

	respondJSON(w, http.StatusCreated, e)
}

// RejectRequestRequest carries the rejection reason
type RejectRequestRequest struct {
	Reason string `json:"reason" example:"prerequisites not met"`
}

// RejectRequest rejects a pending request with a reason
func (h *Handler) RejectRequest(w http.ResponseWriter, r *http.Request) {
	actor, ok := GetActor(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	var req RejectRequestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	rejected, err := h.approvals.Reject(r.Context(), actor, chi.URLParam(r, "requestID"), req.Reason)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, rejected)
}
