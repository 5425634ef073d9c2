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

// The sweeper runs the enrollment expiration sweep across every active
// tenant, either once (with the "once" argument) or on a cron schedule.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/enrolld/enrolld/internal/audit"
	"github.com/enrolld/enrolld/internal/clock"
	"github.com/enrolld/enrolld/internal/config"
	"github.com/enrolld/enrolld/internal/enrollment"
	"github.com/enrolld/enrolld/internal/observability/logger"
	"github.com/enrolld/enrolld/internal/observability/metrics"
	"github.com/enrolld/enrolld/internal/store/postgres"
	"github.com/enrolld/enrolld/internal/tenant"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger.InitLogger(logger.Config{
		Level:       cfg.Observability.LogLevel,
		Format:      cfg.Observability.LogFormat,
		ServiceName: cfg.Observability.ServiceName + "-sweeper",
	})
	slog.Info("starting enrolld expiration sweeper")

	ctx := context.Background()

	meter, err := metrics.New(ctx, metrics.Config{
		Enabled: cfg.Observability.OTELEnabled,
	}, cfg.Observability.ServiceName+"-sweeper")
	if err != nil {
		slog.Error("failed to initialize meter", logger.Error(err))
		os.Exit(1)
	}
	instruments, err := meter.NewInstruments()
	if err != nil {
		slog.Error("failed to register instruments", logger.Error(err))
		os.Exit(1)
	}

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

	tenantRepo := postgres.NewTenantRepository(db)
	resolver := postgres.NewResolver(tenantRepo)
	defer resolver.Close()

	enrollmentRepo := postgres.NewEnrollmentRepository(resolver)
	sweeper := enrollment.NewSweeper(
		enrollmentRepo,
		audit.NewSlogLogger(),
		clock.System(),
		cfg.Sweeper.BatchSize,
	)

	run := func() {
		sweepAll(ctx, tenantRepo, sweeper, instruments)
	}

	if len(os.Args) > 1 && os.Args[1] == "once" {
		run()
		return
	}

	c := cron.New()
	if _, err := c.AddFunc(cfg.Sweeper.Schedule, run); err != nil {
		slog.Error("invalid sweep schedule", logger.Error(err),
			logger.String("schedule", cfg.Sweeper.Schedule))
		os.Exit(1)
	}
	c.Start()
	slog.Info("sweep scheduled", logger.String("schedule", cfg.Sweeper.Schedule))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down sweeper")
	stopCtx := c.Stop()
	<-stopCtx.Done()
	slog.Info("sweeper stopped")
}

func sweepAll(ctx context.Context, tenants tenant.Repository, sweeper *enrollment.Sweeper, instruments *metrics.Instruments) {
	start := time.Now()

	all, err := tenants.List(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "failed to list tenants", logger.Error(err))
		return
	}

	totalExpired := 0
	totalErrors := 0
	for _, t := range all {
		if !t.IsActive() {
			continue
		}

		expired, errs := sweeper.ProcessExpired(ctx, t.ID)
		totalExpired += expired
		totalErrors += len(errs)
		for _, err := range errs {
			slog.ErrorContext(ctx, "sweep error",
				logger.Error(err),
				logger.TenantID(t.ID),
			)
		}

		if expired > 0 {
			instruments.EnrollmentsExpired.Add(ctx, int64(expired))
		}
	}

	instruments.SweepDurationSecs.Record(ctx, time.Since(start).Seconds())
	slog.InfoContext(ctx, "sweep run finished",
		slog.Int("tenants", len(all)),
		slog.Int("expired", totalExpired),
		slog.Int("errors", totalErrors),
		logger.Duration(time.Since(start).Milliseconds()),
	)
}
