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

package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/enrolld/enrolld/internal/approval"
	"github.com/enrolld/enrolld/internal/audit"
	"github.com/enrolld/enrolld/internal/auth"
	"github.com/enrolld/enrolld/internal/certificate"
	"github.com/enrolld/enrolld/internal/clock"
	"github.com/enrolld/enrolld/internal/config"
	"github.com/enrolld/enrolld/internal/course"
	"github.com/enrolld/enrolld/internal/enrollment"
	"github.com/enrolld/enrolld/internal/notify"
	"github.com/enrolld/enrolld/internal/observability/logger"
	"github.com/enrolld/enrolld/internal/observability/metrics"
	"github.com/enrolld/enrolld/internal/observability/tracing"
	"github.com/enrolld/enrolld/internal/store/postgres"
	transportHTTP "github.com/enrolld/enrolld/internal/transport/http"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger.InitLogger(logger.Config{
		Level:       cfg.Observability.LogLevel,
		Format:      cfg.Observability.LogFormat,
		ServiceName: cfg.Observability.ServiceName,
	})
	slog.Info("starting enrolld enrollment service")

	if len(os.Args) > 1 && os.Args[1] == "migrate" {
		if err := runMigrate(cfg); err != nil {
			fmt.Printf("Migration failed: %v\n", err)
			os.Exit(1)
		}
		os.Exit(0)
	}

	ctx := context.Background()

	// Initialize tracer
	tracer, err := tracing.New(ctx, tracing.Config{
		Enabled:        cfg.Observability.OTELEnabled,
		ServiceName:    cfg.Observability.ServiceName,
		ServiceVersion: cfg.Observability.ServiceVersion,
		SamplingRate:   1.0,
	})
	if err != nil {
		slog.Error("failed to initialize tracer", logger.Error(err))
	}
	defer tracer.Shutdown(ctx)

	// Initialize meter and domain instruments
	meter, err := metrics.New(ctx, metrics.Config{
		Enabled: cfg.Observability.OTELEnabled,
	}, cfg.Observability.ServiceName)
	if err != nil {
		slog.Error("failed to initialize meter", logger.Error(err))
	}
	instruments, err := meter.NewInstruments()
	if err != nil {
		slog.Error("failed to register metric instruments", logger.Error(err))
	}

	// Control-plane database and tenant resolution
	db, err := postgres.New(ctx, postgres.Config{
		Host:         cfg.Database.Host,
		Port:         cfg.Database.Port,
		User:         cfg.Database.User,
		Password:     cfg.Database.Password,
		Database:     cfg.Database.Database,
		SSLMode:      cfg.Database.SSLMode,
		MaxOpenConns: cfg.Database.MaxOpenConns,
		MaxIdleConns: cfg.Database.MaxIdleConns,
	})
	if err != nil {
		slog.Error("failed to connect to database", logger.Error(err))
		os.Exit(1)
	}
	defer db.Close()
	slog.Info("connected to control database")

	tenantRepo := postgres.NewTenantRepository(db)
	resolver := postgres.NewResolver(tenantRepo)
	defer resolver.Close()

	// Repositories
	enrollmentRepo := postgres.NewEnrollmentRepository(resolver)
	requestRepo := postgres.NewRequestRepository(resolver)
	gateway := postgres.NewApprovalGateway(resolver)

	// Helpers
	auditLogger := audit.NewSlogLogger()
	notifier := notify.NewSlogNotifier()
	clk := clock.System()

	// Course directory, optionally fronted by redis
	directoryClient := course.NewClient(course.ClientConfig{
		BaseURL: cfg.Courses.BaseURL,
		APIKey:  cfg.Courses.APIKey,
		Timeout: cfg.Courses.Timeout,
	})
	var directory *course.DirectoryClient
	if cfg.Redis.Enabled {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		directory = course.NewDirectory(course.NewCache(directoryClient, rdb, cfg.Courses.CacheTTL))
	} else {
		directory = course.NewDirectory(directoryClient)
	}

	// Certificate issuance
	issuer := certificate.NewHTTPIssuer(certificate.ClientConfig{
		BaseURL: cfg.Certificates.BaseURL,
		APIKey:  cfg.Certificates.APIKey,
		Timeout: cfg.Certificates.Timeout,
	})
	dispatcher := certificate.NewDispatcher(issuer, enrollmentRepo, cfg.Certificates.Timeout)

	// Services
	enrollmentService := enrollment.NewService(enrollmentRepo, dispatcher, notifier, auditLogger, clk)
	sweeper := enrollment.NewSweeper(enrollmentRepo, auditLogger, clk, cfg.Sweeper.BatchSize)
	coordinator := approval.NewCoordinator(
		requestRepo,
		enrollmentRepo,
		gateway,
		directory,
		notifier,
		auditLogger,
		instruments,
		clk,
	)

	// Auth
	verifier := auth.NewTokenVerifier([]byte(cfg.Auth.JWTSecret), cfg.Auth.JWTIssuer)
	apiKeys := auth.NewAPIKeyHasher()

	// Rate Limiter
	rateLimiter := transportHTTP.NewRateLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst)

	// HTTP handler and router
	handler := transportHTTP.NewHandler(
		enrollmentService,
		coordinator,
		sweeper,
		tenantRepo,
		verifier,
		apiKeys,
		cfg.Auth.SweepAPIKeyHash,
		auditLogger,
	)
	router := transportHTTP.NewRouter(handler, rateLimiter)

	addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start server
	go func() {
		slog.Info("starting http server", logger.Component("server"), logger.Operation("listen"))
		slog.Info(fmt.Sprintf("listening on %s", addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", logger.Error(err))
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown error", logger.Error(err))
	}

	// Let in-flight certificate issuance land before the pools close
	dispatcher.Wait()

	slog.Info("server stopped")
}

func runMigrate(cfg *config.Config) error {
	ctx := context.Background()
	db, err := postgres.New(ctx, postgres.Config{
		Host:         cfg.Database.Host,
		Port:         cfg.Database.Port,
		User:         cfg.Database.User,
		Password:     cfg.Database.Password,
		Database:     cfg.Database.Database,
		SSLMode:      cfg.Database.SSLMode,
		MaxOpenConns: cfg.Database.MaxOpenConns,
		MaxIdleConns: cfg.Database.MaxIdleConns,
	})
	if err != nil {
		return err
	}
	defer db.Close()

	fmt.Println("Applying control schema...")
	if err := db.Migrate(ctx, postgres.ControlSchema); err != nil {
		return err
	}
	fmt.Println("Migration successful.")
	return nil
}
