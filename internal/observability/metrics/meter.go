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

package metrics

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

// Config holds metrics configuration
type Config struct {
	Enabled bool
}

// Meter wraps OpenTelemetry meter
type Meter struct {
	meter metric.Meter
}

// New creates a new meter instance
func New(ctx context.Context, cfg Config, serviceName string) (*Meter, error) {
	if !cfg.Enabled {
		return &Meter{
			meter: otel.Meter("noop"),
		}, nil
	}

	// Instruments come from the global meter provider; production deployments
	// configure an exporter via the OTel SDK.
	meter := otel.Meter(serviceName)

	return &Meter{
		meter: meter,
	}, nil
}

// GetMeter returns the underlying meter
func (m *Meter) GetMeter() metric.Meter {
	return m.meter
}

// CreateCounter creates a new counter metric
func (m *Meter) CreateCounter(name, description string) (metric.Int64Counter, error) {
	counter, err := m.meter.Int64Counter(
		name,
		metric.WithDescription(description),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create counter %s: %w", name, err)
	}
	return counter, nil
}

// CreateHistogram creates a new histogram metric
func (m *Meter) CreateHistogram(name, description, unit string) (metric.Float64Histogram, error) {
	histogram, err := m.meter.Float64Histogram(
		name,
		metric.WithDescription(description),
		metric.WithUnit(unit),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create histogram %s: %w", name, err)
	}
	return histogram, nil
}

// Instruments bundles the service's domain metrics.
type Instruments struct {
	EnrollmentsCreated metric.Int64Counter
	EnrollmentsExpired metric.Int64Counter
	RequestsReviewed   metric.Int64Counter
	SweepDurationSecs  metric.Float64Histogram
}

// NewInstruments registers the domain instruments on the meter.
func (m *Meter) NewInstruments() (*Instruments, error) {
	created, err := m.CreateCounter("enrolld_enrollments_created_total", "Enrollments created across all tenants")
	if err != nil {
		return nil, err
	}
	expired, err := m.CreateCounter("enrolld_enrollments_expired_total", "Enrollments transitioned to expired by the sweeper")
	if err != nil {
		return nil, err
	}
	reviewed, err := m.CreateCounter("enrolld_requests_reviewed_total", "Enrollment requests approved or rejected")
	if err != nil {
		return nil, err
	}
	sweepDur, err := m.CreateHistogram("enrolld_sweep_duration_seconds", "Wall time of a full expiration sweep", "s")
	if err != nil {
		return nil, err
	}
	return &Instruments{
		EnrollmentsCreated: created,
		EnrollmentsExpired: expired,
		RequestsReviewed:   reviewed,
		SweepDurationSecs:  sweepDur,
	}, nil
}
