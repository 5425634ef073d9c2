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

package course

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// ClientConfig configures the catalog HTTP client.
type ClientConfig struct {
	// BaseURL of the course directory service.
	BaseURL string

	// APIKey sent as a bearer token, if the directory requires one.
	APIKey string

	// Timeout for directory requests.
	Timeout time.Duration
}

// Client fetches course descriptions from the directory service over HTTP.
type Client struct {
	cfg        ClientConfig
	httpClient *http.Client
}

// NewClient creates a new directory client.
func NewClient(cfg ClientConfig) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

// Describe fetches the course description for a tenant's course.
// A 404 from the directory maps to ErrNotFound.
func (c *Client) Describe(ctx context.Context, tenantID, courseID string) (*Course, error) {
	endpoint := fmt.Sprintf("%s/tenants/%s/courses/%s",
		c.cfg.BaseURL, url.PathEscape(tenantID), url.PathEscape(courseID))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build directory request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("directory request failed: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		// fallthrough to decode
	case http.StatusNotFound:
		return nil, ErrNotFound
	default:
		return nil, fmt.Errorf("directory returned status %d for course %s", resp.StatusCode, courseID)
	}

	var course Course
	if err := json.NewDecoder(resp.Body).Decode(&course); err != nil {
		return nil, fmt.Errorf("failed to decode directory response: %w", err)
	}
	if course.ID == "" {
		course.ID = courseID
	}
	return &course, nil
}
