// @title Enrolld API
// @version 1.0.0
// @description Multi-tenant course enrollment lifecycle service
// @host localhost:8080
// @BasePath /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/enrolld/enrolld/internal/approval"
	"github.com/enrolld/enrolld/internal/audit"
	"github.com/enrolld/enrolld/internal/auth"
	"github.com/enrolld/enrolld/internal/enrollment"
	"github.com/enrolld/enrolld/internal/tenant"
)

// Handler holds HTTP handlers and dependencies
type Handler struct {
	enrollments  *enrollment.Service
	approvals    *approval.Coordinator
	sweeper      *enrollment.Sweeper
	tenants      tenant.Repository
	verifier     *auth.TokenVerifier
	apiKeys      *auth.APIKeyHasher
	sweepKeyHash string
	auditLogger  audit.Logger
}

// NewHandler creates a new HTTP handler
func NewHandler(
	enrollments *enrollment.Service,
	approvals *approval.Coordinator,
	sweeper *enrollment.Sweeper,
	tenants tenant.Repository,
	verifier *auth.TokenVerifier,
	apiKeys *auth.APIKeyHasher,
	sweepKeyHash string,
	auditLogger audit.Logger,
) *Handler {
	return &Handler{
		enrollments:  enrollments,
		approvals:    approvals,
		sweeper:      sweeper,
		tenants:      tenants,
		verifier:     verifier,
		apiKeys:      apiKeys,
		sweepKeyHash: sweepKeyHash,
		auditLogger:  auditLogger,
	}
}

// NewRouter creates a new HTTP router
func NewRouter(h *Handler, rateLimiter *RateLimiter) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(RateLimitMiddleware(rateLimiter))
	r.Use(func(handler http.Handler) http.Handler {
		return otelhttp.NewHandler(handler, "http_request",
			otelhttp.WithSpanNameFormatter(func(operation string, r *http.Request) string {
				return r.Method + " " + r.URL.Path
			}),
		)
	})
	r.Use(LoggingMiddleware())
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	// Health check
	r.Get("/health", h.HealthCheck)

	// API routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(h.AuthMiddleware)

			r.Route("/enrollments", func(r chi.Router) {
				r.Post("/", h.CreateEnrollment)
				r.Get("/", h.ListEnrollments)
				r.Get("/stats", h.EnrollmentStats)

				r.Route("/{enrollmentID}", func(r chi.Router) {
					r.Get("/", h.GetEnrollment)
					r.Delete("/", h.DeleteEnrollment)
					r.Post("/access", h.RecordAccess)
					r.Post("/progress", h.UpdateProgress)
					r.Post("/complete", h.CompleteEnrollment)
					r.Post("/cancel", h.CancelEnrollment)
					r.Post("/extend", h.ExtendEnrollment)
				})
			})

			r.Route("/enrollment-requests", func(r chi.Router) {
				r.Post("/", h.CreateRequest)
				r.Get("/", h.ListRequests)

				r.Route("/{requestID}", func(r chi.Router) {
					r.Get("/", h.GetRequest)
					r.Delete("/", h.WithdrawRequest)
					r.Post("/approve", h.ApproveRequest)
					r.Post("/reject", h.RejectRequest)
				})
			})
		})
	})

	// Internal service-to-service routes
	r.Route("/internal", func(r chi.Router) {
		r.Use(h.SweepAuthMiddleware)
		r.Post("/process-expired", h.ProcessExpired)
	})

	return r
}

// HealthCheck returns the health status
// @Summary Health Check
// @Tags System
// @Produce json
// @Success 200 {object} map[string]string
// @Router /health [get]
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "enrolld",
	})
}

// ProcessExpired runs an expiration sweep. With a tenant_id query parameter
// only that tenant is swept, otherwise every active tenant is.
func (h *Handler) ProcessExpired(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var tenantIDs []string
	if tid := r.URL.Query().Get("tenant_id"); tid != "" {
		tenantIDs = []string{tid}
	} else {
		all, err := h.tenants.List(ctx)
		if err != nil {
			respondDomainError(w, r, err)
			return
		}
		for _, t := range all {
			if t.IsActive() {
				tenantIDs = append(tenantIDs, t.ID)
			}
		}
	}

	totalExpired := 0
	totalErrors := 0
	perTenant := make(map[string]int, len(tenantIDs))
	for _, tid := range tenantIDs {
		expired, errs := h.sweeper.ProcessExpired(ctx, tid)
		if expired > 0 {
			perTenant[tid] = expired
		}
		totalExpired += expired
		totalErrors += len(errs)

		if ctx.Err() != nil {
			break
		}
	}

	h.auditLogger.Log(ctx, audit.Event{
		Type:     audit.TypeSweepCompleted,
		ActorID:  "sweep-endpoint",
		Resource: "enrollments",
		Metadata: map[string]any{
			"tenants": len(tenantIDs),
			"expired": totalExpired,
			"errors":  totalErrors,
		},
	})

	respondJSON(w, http.StatusOK, map[string]any{
		"tenants":    len(tenantIDs),
		"expired":    totalExpired,
		"errors":     totalErrors,
		"per_tenant": perTenant,
	})
}
