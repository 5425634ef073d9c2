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
	"errors"
	"log/slog"
	"net/http"

	"github.com/enrolld/enrolld/internal/approval"
	"github.com/enrolld/enrolld/internal/course"
	"github.com/enrolld/enrolld/internal/enrollment"
	"github.com/enrolld/enrolld/internal/observability/logger"
	"github.com/enrolld/enrolld/internal/tenant"
)

// respondDomainError maps a domain error to an HTTP status. Unknown errors
// are logged and masked as a 500.
func respondDomainError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, enrollment.ErrNotFound),
		errors.Is(err, approval.ErrRequestNotFound),
		errors.Is(err, course.ErrNotFound),
		errors.Is(err, tenant.ErrNotFound):
		respondError(w, http.StatusNotFound, err.Error())

	case errors.Is(err, enrollment.ErrUnauthorized),
		errors.Is(err, approval.ErrUnauthorized),
		errors.Is(err, tenant.ErrSuspended):
		respondError(w, http.StatusForbidden, err.Error())

	case errors.Is(err, enrollment.ErrAlreadyEnrolled),
		errors.Is(err, enrollment.ErrInvalidTransition),
		errors.Is(err, approval.ErrRequestAlreadyExists),
		errors.Is(err, approval.ErrAlreadyProcessed),
		errors.Is(err, course.ErrFull):
		respondError(w, http.StatusConflict, err.Error())

	case errors.Is(err, enrollment.ErrPastExpiry),
		errors.Is(err, approval.ErrRejectionReasonTooShort),
		errors.Is(err, approval.ErrApprovalNotRequired),
		errors.Is(err, course.ErrApprovalRequired),
		errors.Is(err, course.ErrNotPublished):
		respondError(w, http.StatusUnprocessableEntity, err.Error())

	default:
		slog.ErrorContext(r.Context(), "request failed",
			logger.Error(err),
			logger.Method(r.Method),
			logger.Path(r.URL.Path),
		)
		respondError(w, http.StatusInternalServerError, "internal server error")
	}
}
