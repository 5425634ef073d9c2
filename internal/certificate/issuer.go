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

// Package certificate is the consumed boundary to the certificate issuer.
// Issuance is fire and forget: it runs after a completion has committed and
// its failure is logged, never surfaced to the caller of complete.
package certificate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/enrolld/enrolld/internal/enrollment"
)

// Issuer produces a certificate for a completed enrollment.
type Issuer interface {
	Issue(ctx context.Context, e *enrollment.Enrollment) (certificateID string, err error)
}

// ClientConfig configures the issuer HTTP client.
type ClientConfig struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// HTTPIssuer requests certificates from the issuer service.
type HTTPIssuer struct {
	cfg        ClientConfig
	httpClient *http.Client
}

// NewHTTPIssuer creates a new issuer client.
func NewHTTPIssuer(cfg ClientConfig) *HTTPIssuer {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	return &HTTPIssuer{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

type issueRequest struct {
	EnrollmentID string     `json:"enrollment_id"`
	TenantID     string     `json:"tenant_id"`
	LearnerID    string     `json:"learner_id"`
	CourseID     string     `json:"course_id"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
}

type issueResponse struct {
	CertificateID string `json:"certificate_id"`
}

// Issue asks the issuer service for a certificate identifier.
func (i *HTTPIssuer) Issue(ctx context.Context, e *enrollment.Enrollment) (string, error) {
	body, err := json.Marshal(issueRequest{
		EnrollmentID: e.ID,
		TenantID:     e.TenantID,
		LearnerID:    e.LearnerID,
		CourseID:     e.CourseID,
		CompletedAt:  e.CompletedAt,
	})
	if err != nil {
		return "", fmt.Errorf("failed to encode issue request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, i.cfg.BaseURL+"/certificates", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to build issue request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if i.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+i.cfg.APIKey)
	}

	resp, err := i.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("issuer request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return "", fmt.Errorf("issuer returned status %d for enrollment %s", resp.StatusCode, e.ID)
	}

	var out issueResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("failed to decode issuer response: %w", err)
	}
	if out.CertificateID == "" {
		return "", fmt.Errorf("issuer returned empty certificate id for enrollment %s", e.ID)
	}
	return out.CertificateID, nil
}
