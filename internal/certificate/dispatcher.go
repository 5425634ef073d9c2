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

package certificate

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/enrolld/enrolld/internal/enrollment"
)

// Dispatcher runs certificate issuance off the request path. The completion
// transition has already committed when IssueAsync is called; a failed or
// slow issuance leaves the enrollment completed without a certificate id,
// which a later retry or manual issue can fill in.
type Dispatcher struct {
	issuer  Issuer
	repo    enrollment.Repository
	timeout time.Duration
	wg      sync.WaitGroup
}

// NewDispatcher creates a dispatcher writing issued ids back through repo.
func NewDispatcher(issuer Issuer, repo enrollment.Repository, timeout time.Duration) *Dispatcher {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Dispatcher{issuer: issuer, repo: repo, timeout: timeout}
}

// IssueAsync requests a certificate in the background and records the id on
// success. Errors are logged and swallowed.
func (d *Dispatcher) IssueAsync(e *enrollment.Enrollment) {
	snapshot := *e
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()

		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		defer cancel()

		certID, err := d.issuer.Issue(ctx, &snapshot)
		if err != nil {
			slog.Warn("certificate issuance failed",
				slog.String("enrollment_id", snapshot.ID),
				slog.String("tenant_id", snapshot.TenantID),
				slog.String("error", err.Error()),
			)
			return
		}

		if err := d.repo.SetCertificateID(ctx, snapshot.TenantID, snapshot.ID, certID); err != nil {
			slog.Error("failed to record issued certificate",
				slog.String("enrollment_id", snapshot.ID),
				slog.String("certificate_id", certID),
				slog.String("error", err.Error()),
			)
			return
		}

		slog.Info("certificate issued",
			slog.String("enrollment_id", snapshot.ID),
			slog.String("certificate_id", certID),
		)
	}()
}

// Wait blocks until in-flight issuances finish. Used on shutdown and in tests.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}
