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

// Package platforms drives launching the current build on a device.
package platforms

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/orbitlabs/orbit/pkg/config"
	"github.com/orbitlabs/orbit/pkg/logger"
	"github.com/orbitlabs/orbit/pkg/models"
	"github.com/orbitlabs/orbit/pkg/settings"
	"github.com/orbitlabs/orbit/pkg/telemetry"
)

const devLauncherPackageFile = "expo-dev-launcher/package.json"

// OpenOptions selects the launch mode for one OpenAsync call.
type OpenOptions struct {
	Runtime models.Runtime
	// Props applies to the custom runtime only.
	Props OpenCustomProps
}

// OpenResult reports the URL (or launch target) that was opened.
type OpenResult struct {
	URL string
}

// Manager is the device-family-agnostic launch orchestrator. Family
// behavior is injected via Props and a LaunchStrategy; calls retain no
// state between them.
type Manager struct {
	projectRoot string
	props       Props
	strategy    LaunchStrategy
	session     *settings.Session
	events      telemetry.Tracker
	logger      logger.Logger

	// isDevLauncherInstalled reports whether the dev-launcher module is
	// resolvable in the project. Overridable in tests.
	isDevLauncherInstalled func(projectRoot string) bool
}

func NewManager(
	projectRoot string,
	props Props,
	strategy LaunchStrategy,
	session *settings.Session,
	events telemetry.Tracker,
	log logger.Logger,
) *Manager {
	if strategy == nil {
		strategy = UnimplementedLaunchStrategy{}
	}

	if session == nil {
		session = &settings.Session{}
	}

	if events == nil {
		events = telemetry.NopTracker{}
	}

	return &Manager{
		projectRoot:            projectRoot,
		props:                  props,
		strategy:               strategy,
		session:                session,
		events:                 events,
		logger:                 log,
		isDevLauncherInstalled: hasDevLauncherModule,
	}
}

// OpenAsync opens the project on a device using the selected runtime.
func (m *Manager) OpenAsync(
	ctx context.Context, options OpenOptions, resolve ResolveOptions) (*OpenResult, error) {
	switch options.Runtime {
	case models.RuntimeExpoGo:
		return m.openProjectInExpoGoAsync(ctx, resolve)
	case models.RuntimeWeb:
		return m.openWebProjectAsync(ctx, resolve)
	case models.RuntimeCustom:
		return m.openProjectInCustomRuntimeAsync(ctx, resolve, options.Props)
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidRuntime, options.Runtime)
	}
}

func (m *Manager) openProjectInExpoGoAsync(
	ctx context.Context, resolve ResolveOptions) (*OpenResult, error) {
	// The interstitial page never applies to Expo Go launches.
	url, err := m.props.GetManifestURL("exp")
	if err != nil {
		return nil, err
	}

	if url == "" {
		// Unreachable with the non-empty exp scheme. Crash loudly instead
		// of masking an implementation bug.
		panic("platforms: no URL was constructed for an Expo Go launch")
	}

	device, err := m.props.ResolveDevice(ctx, resolve)
	if err != nil {
		return nil, err
	}

	device.LogOpeningURL(url)

	installed, err := m.ensureDeviceHasValidExpoGoAsync(ctx, device)
	if err != nil {
		return nil, err
	}

	if err := device.ActivateWindowAsync(ctx); err != nil {
		return nil, err
	}

	if err := device.OpenURLAsync(ctx, url); err != nil {
		return nil, err
	}

	m.events.Track("Open Url on Device", map[string]interface{}{
		"platform":      string(m.props.Platform),
		"installedExpo": installed,
	})

	return &OpenResult{URL: url}, nil
}

func (m *Manager) openWebProjectAsync(
	ctx context.Context, resolve ResolveOptions) (*OpenResult, error) {
	url := m.props.GetDevServerURL()
	if url == "" {
		return nil, ErrDevServerNotRunning
	}

	device, err := m.props.ResolveDevice(ctx, resolve)
	if err != nil {
		return nil, err
	}

	device.LogOpeningURL(url)

	if err := device.ActivateWindowAsync(ctx); err != nil {
		return nil, err
	}

	if err := device.OpenURLAsync(ctx, url); err != nil {
		return nil, err
	}

	return &OpenResult{URL: url}, nil
}

func (m *Manager) openProjectInCustomRuntimeAsync(
	ctx context.Context, resolve ResolveOptions, props OpenCustomProps) (*OpenResult, error) {
	url, err := m.constructDeepLink(props.Scheme, props.DevClient)
	if err != nil {
		return nil, err
	}

	applicationID := props.ApplicationID
	if applicationID == "" {
		applicationID, err = m.strategy.ResolveExistingAppIDAsync(ctx)
		if err != nil {
			return nil, err
		}
	}

	device, err := m.props.ResolveDevice(ctx, resolve)
	if err != nil {
		return nil, err
	}

	installed, err := device.IsAppInstalledAsync(ctx, applicationID)
	if err != nil {
		return nil, err
	}

	if !installed {
		return nil, fmt.Errorf(
			"%w: the development client (%s) for this project is not installed. "+
				"Build and install it on the device first: https://docs.expo.dev/development/build/",
			ErrAppNotInstalled, applicationID)
	}

	m.events.Track("Open Url on Device", map[string]interface{}{
		"platform":      string(m.props.Platform),
		"installedExpo": false,
	})

	if url == "" {
		url, err = m.strategy.ResolveAlternativeLaunchURL(applicationID, props)
		if err != nil {
			return nil, err
		}
	}

	device.LogOpeningURL(url)

	if err := device.ActivateWindowAsync(ctx); err != nil {
		return nil, err
	}

	if err := device.OpenURLAsync(ctx, url); err != nil {
		return nil, err
	}

	return &OpenResult{URL: url}, nil
}

// constructDeepLink picks the launch URL. The interstitial page only
// applies when a dev client was not explicitly requested; manifest-URL
// failures on the dev-client path degrade to "no URL" since those launches
// can proceed by application identifier instead.
func (m *Manager) constructDeepLink(scheme string, devClient bool) (string, error) {
	if !devClient && m.shouldUseInterstitialPage() {
		return m.props.GetLoadingURL(), nil
	}

	url, err := m.props.GetManifestURL(scheme)
	if err != nil {
		if devClient {
			return "", nil
		}

		return "", err
	}

	return url, nil
}

// shouldUseInterstitialPage reports whether the runtime-selection loading
// page should replace the direct manifest URL.
func (m *Manager) shouldUseInterstitialPage() bool {
	return m.session.InterstitialEnabled && m.isDevLauncherInstalled(m.projectRoot)
}

func (m *Manager) ensureDeviceHasValidExpoGoAsync(
	ctx context.Context, device Device) (bool, error) {
	exp, err := config.LoadProjectConfig(ctx, m.projectRoot)
	if err != nil {
		return false, err
	}

	return device.EnsureExpoGoAsync(ctx, exp.SDKVersion)
}

func hasDevLauncherModule(projectRoot string) bool {
	_, err := os.Stat(filepath.Join(projectRoot, "node_modules", devLauncherPackageFile))
	return err == nil
}
