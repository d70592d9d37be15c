/*
 * Copyright 2025 Carver Automation Corporation.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package api is the HTTP client for the hosted identity and project services.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// AnonymousUsername is the account name used for manifests that are not
// linked to a logged-in user.
const AnonymousUsername = "anonymous"

const defaultRequestTimeout = 15 * time.Second

// User is the logged-in account, when one exists.
type User struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

// Project is the remote record of a cloud-linked project.
type Project struct {
	ID       string `json:"id"`
	ScopeKey string `json:"scopeKey"`
}

// SDKVersion describes one released SDK and its companion package versions.
type SDKVersion struct {
	ExpoGoVersion   string            `json:"expoGoVersion,omitempty"`
	RelatedPackages map[string]string `json:"relatedPackages,omitempty"`
}

// Client talks to the hosted API. A zero session token means "not logged in".
type Client struct {
	baseURL      string
	sessionToken string
	httpClient   *http.Client
}

func NewClient(baseURL, sessionToken string) *Client {
	return &Client{
		baseURL:      baseURL,
		sessionToken: sessionToken,
		httpClient:   &http.Client{Timeout: defaultRequestTimeout},
	}
}

// GetUserAsync returns the logged-in user, or nil when there is no session.
func (c *Client) GetUserAsync(ctx context.Context) (*User, error) {
	if c.sessionToken == "" {
		return nil, nil
	}

	var user User
	if err := c.getJSON(ctx, "/v2/auth/user", &user); err != nil {
		return nil, fmt.Errorf("failed to fetch user: %w", err)
	}

	return &user, nil
}

// GetProjectAsync fetches the remote project record by cloud project ID.
func (c *Client) GetProjectAsync(ctx context.Context, projectID string) (*Project, error) {
	var project Project
	if err := c.getJSON(ctx, "/v2/projects/"+projectID, &project); err != nil {
		return nil, fmt.Errorf("failed to fetch project %s: %w", projectID, err)
	}

	return &project, nil
}

// GetReleasedVersionsAsync fetches the released SDK versions index.
func (c *Client) GetReleasedVersionsAsync(ctx context.Context) (map[string]SDKVersion, error) {
	var payload struct {
		SDKVersions map[string]SDKVersion `json:"sdkVersions"`
	}

	if err := c.getJSON(ctx, "/v2/versions/latest", &payload); err != nil {
		return nil, fmt.Errorf("failed to fetch released versions: %w", err)
	}

	return payload.SDKVersions, nil
}

// SignManifestAsync signs a serialized manifest and returns the signature.
func (c *Client) SignManifestAsync(ctx context.Context, manifest interface{}) (string, error) {
	body, err := json.Marshal(map[string]interface{}{"manifest": manifest})
	if err != nil {
		return "", fmt.Errorf("failed to serialize manifest for signing: %w", err)
	}

	req, err := http.NewRequestWithContext(
		ctx, http.MethodPost, c.baseURL+"/v2/manifest/sign", bytes.NewReader(body))
	if err != nil {
		return "", err
	}

	req.Header.Set("Content-Type", "application/json")
	c.authorize(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("manifest signing request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: status %d", ErrRequestFailed, resp.StatusCode)
	}

	var payload struct {
		Data struct {
			Signature string `json:"signature"`
		} `json:"data"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("failed to decode signature response: %w", err)
	}

	return payload.Data.Signature, nil
}

func (c *Client) getJSON(ctx context.Context, path string, dst interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, http.NoBody)
	if err != nil {
		return err
	}

	c.authorize(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: GET %s: status %d", ErrRequestFailed, path, resp.StatusCode)
	}

	// Responses wrap the payload in a "data" envelope.
	var envelope struct {
		Data json.RawMessage `json:"data"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return fmt.Errorf("failed to decode response for %s: %w", path, err)
	}

	if err := json.Unmarshal(envelope.Data, dst); err != nil {
		return fmt.Errorf("failed to unmarshal payload for %s: %w", path, err)
	}

	return nil
}

func (c *Client) authorize(req *http.Request) {
	if c.sessionToken != "" {
		req.Header.Set("expo-session", c.sessionToken)
	}
}
