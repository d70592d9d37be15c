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

// Package manifest answers manifest requests with a correctly scoped,
// optionally signed runtime descriptor.
package manifest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/orbitlabs/orbit/pkg/api"
	"github.com/orbitlabs/orbit/pkg/config"
	"github.com/orbitlabs/orbit/pkg/logger"
	"github.com/orbitlabs/orbit/pkg/models"
	"github.com/orbitlabs/orbit/pkg/settings"
	"github.com/orbitlabs/orbit/pkg/telemetry"
)

// SettingsResolver resolves per-request project settings.
type SettingsResolver interface {
	ResolveProjectSettingsAsync(
		ctx context.Context, platform models.Platform, hostname string) (*config.ProjectSettings, error)
}

// UserResolver looks up the logged-in user; nil without error means nobody
// is logged in.
type UserResolver interface {
	GetUserAsync(ctx context.Context) (*api.User, error)
}

// ProjectResolver fetches the remote project record by cloud project ID.
type ProjectResolver interface {
	GetProjectAsync(ctx context.Context, projectID string) (*api.Project, error)
}

// Signer computes a manifest signature.
type Signer interface {
	SignManifestAsync(ctx context.Context, manifest interface{}) (string, error)
}

// AnonymousIDStore reads the persisted anonymous identifier.
type AnonymousIDStore interface {
	AnonymousIdentifier() (string, error)
}

// Response is one computed manifest reply.
type Response struct {
	Body []byte
	// Version is the computed runtime version, exposed for telemetry.
	Version string
	Headers http.Header
}

// Middleware turns a manifest request into a signed or anonymous manifest
// response. It is fully request-scoped and mutates no session state.
type Middleware struct {
	resolver SettingsResolver
	users    UserResolver
	projects ProjectResolver
	signer   Signer
	store    AnonymousIDStore
	session  *settings.Session
	events   telemetry.Tracker
	logger   logger.Logger
}

func NewMiddleware(
	resolver SettingsResolver,
	users UserResolver,
	projects ProjectResolver,
	signer Signer,
	store AnonymousIDStore,
	session *settings.Session,
	events telemetry.Tracker,
	log logger.Logger,
) *Middleware {
	if session == nil {
		session = &settings.Session{}
	}

	if events == nil {
		events = telemetry.NopTracker{}
	}

	return &Middleware{
		resolver: resolver,
		users:    users,
		projects: projects,
		signer:   signer,
		store:    store,
		session:  session,
		events:   events,
		logger:   log,
	}
}

// GetManifestResponseAsync runs the full request pipeline.
func (m *Middleware) GetManifestResponseAsync(req *http.Request) (*Response, error) {
	ctx := req.Context()

	parsed, err := ParseRequestHeaders(req)
	if err != nil {
		return nil, err
	}

	projectSettings, err := m.resolver.ResolveProjectSettingsAsync(ctx, parsed.Platform, parsed.Hostname)
	if err != nil {
		return nil, err
	}

	exp := projectSettings.Exp

	runtimeVersion, err := exp.ResolveRuntimeVersion(parsed.Platform)
	if err != nil {
		return nil, err
	}

	// The event is independent of whether signing below succeeds.
	m.events.Track("Serve Expo Updates Manifest", map[string]interface{}{
		"runtimeVersion": runtimeVersion,
	})

	projectID := exp.EASProjectID()

	anonymous, err := m.shouldUseAnonymousManifestAsync(ctx, projectID)
	if err != nil {
		return nil, err
	}

	scopeKey, err := m.resolveScopeKeyAsync(ctx, exp, projectID, anonymous)
	if err != nil {
		return nil, err
	}

	record, err := m.buildManifest(exp, projectSettings, runtimeVersion, projectID, scopeKey)
	if err != nil {
		return nil, err
	}

	headers := defaultResponseHeaders()

	if parsed.AcceptSignature && !anonymous {
		signature, err := m.signer.SignManifestAsync(ctx, record)
		if err != nil {
			return nil, fmt.Errorf("failed to sign manifest: %w", err)
		}

		headers.Set("expo-manifest-signature", signature)
	}

	body, err := json.Marshal(record)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize manifest: %w", err)
	}

	return &Response{Body: body, Version: runtimeVersion, Headers: headers}, nil
}

// ServeHTTP exposes the pipeline as an http.Handler.
func (m *Middleware) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	response, err := m.GetManifestResponseAsync(req)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, ErrMissingPlatform) || errors.Is(err, ErrInvalidPlatform) {
			status = http.StatusBadRequest
		}

		m.logger.Error().Err(err).Msg("Manifest request failed")
		http.Error(w, err.Error(), status)

		return
	}

	for key, values := range response.Headers {
		for _, value := range values {
			w.Header().Add(key, value)
		}
	}

	_, _ = w.Write(response.Body)
}

// shouldUseAnonymousManifestAsync reports whether the anonymous scope
// applies: no cloud project ID, offline, or nobody logged in.
func (m *Middleware) shouldUseAnonymousManifestAsync(
	ctx context.Context, projectID string) (bool, error) {
	if projectID == "" || m.session.Offline {
		return true, nil
	}

	user, err := m.users.GetUserAsync(ctx)
	if err != nil {
		return false, err
	}

	return user == nil, nil
}

func (m *Middleware) resolveScopeKeyAsync(
	ctx context.Context, exp *models.ExpConfig, projectID string, anonymous bool) (string, error) {
	if anonymous {
		anonymousID, err := m.store.AnonymousIdentifier()
		if err != nil {
			return "", err
		}

		return fmt.Sprintf("@%s/%s-%s", api.AnonymousUsername, exp.Slug, anonymousID), nil
	}

	if projectID == "" {
		// Guarded by the anonymous branch above; reaching here without a
		// project ID is an implementation bug.
		panic("manifest: non-anonymous scope without a project ID")
	}

	project, err := m.projects.GetProjectAsync(ctx, projectID)
	if err != nil {
		return "", err
	}

	return project.ScopeKey, nil
}

func (m *Middleware) buildManifest(
	exp *models.ExpConfig,
	projectSettings *config.ProjectSettings,
	runtimeVersion, projectID, scopeKey string,
) (*models.Manifest, error) {
	clientConfig, err := expConfigAsMap(exp)
	if err != nil {
		return nil, err
	}

	clientConfig["hostUri"] = projectSettings.HostURI

	var eas *models.EASConfig
	if projectID != "" {
		eas = &models.EASConfig{ProjectID: projectID}
	}

	return &models.Manifest{
		ID:             uuid.NewString(),
		CreatedAt:      time.Now().UTC().Format(time.RFC3339),
		RuntimeVersion: runtimeVersion,
		LaunchAsset: models.ManifestAsset{
			Key:         "bundle",
			ContentType: "application/javascript",
			URL:         projectSettings.BundleURL,
		},
		Assets:   []models.ManifestAsset{},
		Metadata: map[string]interface{}{},
		Extra: models.ManifestExtra{
			EAS:        eas,
			ExpoClient: clientConfig,
			ExpoGo:     projectSettings.ExpoGoConfig,
			ScopeKey:   scopeKey,
		},
	}, nil
}

func defaultResponseHeaders() http.Header {
	headers := http.Header{}
	// Required by the updates manifest specification.
	headers.Set("expo-protocol-version", "0")
	headers.Set("expo-sfv-version", "0")
	headers.Set("cache-control", "private, max-age=0")
	headers.Set("content-type", "application/json")

	return headers
}

func expConfigAsMap(exp *models.ExpConfig) (map[string]interface{}, error) {
	raw, err := json.Marshal(exp)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize client config: %w", err)
	}

	var out map[string]interface{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("failed to reshape client config: %w", err)
	}

	return out, nil
}
