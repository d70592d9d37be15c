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

package platforms

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orbitlabs/orbit/pkg/logger"
	"github.com/orbitlabs/orbit/pkg/models"
	"github.com/orbitlabs/orbit/pkg/settings"
)

var errNoScheme = errors.New("no scheme configured")

// fakeDevice records the launch protocol calls in order.
type fakeDevice struct {
	name      string
	installed bool
	calls     []string
}

func (d *fakeDevice) Name() string { return d.name }

func (d *fakeDevice) LogOpeningURL(url string) {
	d.calls = append(d.calls, "log:"+url)
}

func (d *fakeDevice) ActivateWindowAsync(_ context.Context) error {
	d.calls = append(d.calls, "activate")
	return nil
}

func (d *fakeDevice) OpenURLAsync(_ context.Context, url string) error {
	d.calls = append(d.calls, "open:"+url)
	return nil
}

func (d *fakeDevice) IsAppInstalledAsync(_ context.Context, applicationID string) (bool, error) {
	d.calls = append(d.calls, "installed?:"+applicationID)
	return d.installed, nil
}

func (d *fakeDevice) EnsureExpoGoAsync(_ context.Context, sdkVersion string) (bool, error) {
	d.calls = append(d.calls, "ensureExpoGo:"+sdkVersion)
	return true, nil
}

type fakeStrategy struct {
	appID    string
	altURL   string
	altCalls int
}

func (s *fakeStrategy) ResolveExistingAppIDAsync(_ context.Context) (string, error) {
	return s.appID, nil
}

func (s *fakeStrategy) ResolveAlternativeLaunchURL(applicationID string, _ OpenCustomProps) (string, error) {
	s.altCalls++

	if s.altURL != "" {
		return s.altURL, nil
	}

	return applicationID, nil
}

type harness struct {
	manager      *Manager
	device       *fakeDevice
	strategy     *fakeStrategy
	resolveCalls int
}

type harnessOptions struct {
	customURL    string
	manifestErr  error
	devServerURL string
	isInstalled  bool
}

func writeAppConfig(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	data := `{"expo":{"name":"my-app","slug":"my-app","sdkVersion":"45.0.0"}}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "app.json"), []byte(data), 0o600))

	return dir
}

func newHarness(t *testing.T, opts harnessOptions) *harness {
	t.Helper()

	h := &harness{
		device:   &fakeDevice{name: "Pixel 7", installed: opts.isInstalled},
		strategy: &fakeStrategy{appID: "dev.orbit.app"},
	}

	props := Props{
		Platform:        models.PlatformAndroid,
		GetDevServerURL: func() string { return opts.devServerURL },
		GetLoadingURL:   func() string { return "http://localhost:8081/_expo/loading" },
		GetManifestURL: func(scheme string) (string, error) {
			if opts.manifestErr != nil {
				return "", opts.manifestErr
			}

			if scheme == "exp" {
				return "exp://localhost:8081", nil
			}

			return opts.customURL, nil
		},
		ResolveDevice: func(_ context.Context, _ ResolveOptions) (Device, error) {
			h.resolveCalls++
			return h.device, nil
		},
	}

	h.manager = NewManager(
		writeAppConfig(t), props, h.strategy, &settings.Session{}, nil, logger.NewTestLogger())

	return h
}

func TestOpenAsyncInvalidRuntime(t *testing.T) {
	h := newHarness(t, harnessOptions{})

	_, err := h.manager.OpenAsync(
		context.Background(), OpenOptions{Runtime: models.Runtime("invalid")}, ResolveOptions{})

	require.ErrorIs(t, err, ErrInvalidRuntime)
	assert.Zero(t, h.resolveCalls, "no device resolution on invalid runtime")
	assert.Empty(t, h.device.calls)
}

func TestOpenAsyncExpoGo(t *testing.T) {
	h := newHarness(t, harnessOptions{})

	result, err := h.manager.OpenAsync(
		context.Background(), OpenOptions{Runtime: models.RuntimeExpoGo}, ResolveOptions{})

	require.NoError(t, err)
	assert.Equal(t, "exp://localhost:8081", result.URL)
	assert.Equal(t, 1, h.resolveCalls)

	// The URL is logged first, the client is verified before the window is
	// activated, and the open comes last.
	assert.Equal(t, []string{
		"log:exp://localhost:8081",
		"ensureExpoGo:45.0.0",
		"activate",
		"open:exp://localhost:8081",
	}, h.device.calls)
}

func TestOpenAsyncWeb(t *testing.T) {
	h := newHarness(t, harnessOptions{devServerURL: "http://localhost:19006"})

	result, err := h.manager.OpenAsync(
		context.Background(), OpenOptions{Runtime: models.RuntimeWeb}, ResolveOptions{})

	require.NoError(t, err)
	assert.Equal(t, "http://localhost:19006", result.URL)
	assert.Equal(t, 1, h.resolveCalls)
	assert.Equal(t, []string{
		"log:http://localhost:19006",
		"activate",
		"open:http://localhost:19006",
	}, h.device.calls)
}

func TestOpenAsyncWebWithoutDevServer(t *testing.T) {
	h := newHarness(t, harnessOptions{})

	_, err := h.manager.OpenAsync(
		context.Background(), OpenOptions{Runtime: models.RuntimeWeb}, ResolveOptions{})

	require.ErrorIs(t, err, ErrDevServerNotRunning)
	assert.Zero(t, h.resolveCalls, "no device resolution without a dev server URL")
}

func TestOpenAsyncCustomRuntime(t *testing.T) {
	h := newHarness(t, harnessOptions{customURL: "custom://path", isInstalled: true})

	result, err := h.manager.OpenAsync(
		context.Background(),
		OpenOptions{Runtime: models.RuntimeCustom, Props: OpenCustomProps{Scheme: "custom"}},
		ResolveOptions{})

	require.NoError(t, err)
	assert.Equal(t, "custom://path", result.URL)
	assert.Equal(t, 1, h.resolveCalls)
	assert.Equal(t, []string{
		"installed?:dev.orbit.app",
		"log:custom://path",
		"activate",
		"open:custom://path",
	}, h.device.calls)
	assert.Zero(t, h.strategy.altCalls)
}

func TestOpenAsyncCustomRuntimeNotInstalled(t *testing.T) {
	h := newHarness(t, harnessOptions{customURL: "custom://path", isInstalled: false})

	_, err := h.manager.OpenAsync(
		context.Background(),
		OpenOptions{Runtime: models.RuntimeCustom, Props: OpenCustomProps{Scheme: "custom"}},
		ResolveOptions{})

	require.ErrorIs(t, err, ErrAppNotInstalled)
	assert.Contains(t, err.Error(), "dev.orbit.app")

	// The install check happened; nothing was activated or opened.
	assert.Equal(t, []string{"installed?:dev.orbit.app"}, h.device.calls)
}

func TestOpenAsyncCustomRuntimeAlternativeLaunch(t *testing.T) {
	// A dev-client launch with no resolvable manifest URL falls back to the
	// device family's alternative launch path.
	h := newHarness(t, harnessOptions{manifestErr: errNoScheme, isInstalled: true})
	h.strategy.altURL = "dev.orbit.app"

	result, err := h.manager.OpenAsync(
		context.Background(),
		OpenOptions{Runtime: models.RuntimeCustom, Props: OpenCustomProps{DevClient: true}},
		ResolveOptions{})

	require.NoError(t, err)
	assert.Equal(t, "dev.orbit.app", result.URL)
	assert.Equal(t, 1, h.strategy.altCalls)
	assert.Equal(t, []string{
		"installed?:dev.orbit.app",
		"log:dev.orbit.app",
		"activate",
		"open:dev.orbit.app",
	}, h.device.calls)
}

func TestOpenAsyncCustomRuntimeManifestErrorPropagates(t *testing.T) {
	// Without an explicit dev-client request, manifest-URL failures are
	// user-facing.
	h := newHarness(t, harnessOptions{manifestErr: errNoScheme, isInstalled: true})

	_, err := h.manager.OpenAsync(
		context.Background(),
		OpenOptions{Runtime: models.RuntimeCustom}, ResolveOptions{})

	require.ErrorIs(t, err, errNoScheme)
	assert.Zero(t, h.resolveCalls)
}

func TestOpenAsyncCustomRuntimeInterstitial(t *testing.T) {
	h := newHarness(t, harnessOptions{customURL: "custom://path", isInstalled: true})
	h.manager.session = &settings.Session{InterstitialEnabled: true}
	h.manager.isDevLauncherInstalled = func(string) bool { return true }

	result, err := h.manager.OpenAsync(
		context.Background(),
		OpenOptions{Runtime: models.RuntimeCustom, Props: OpenCustomProps{Scheme: "custom"}},
		ResolveOptions{})

	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8081/_expo/loading", result.URL)
}

func TestOpenAsyncExpoGoIgnoresInterstitial(t *testing.T) {
	h := newHarness(t, harnessOptions{})
	h.manager.session = &settings.Session{InterstitialEnabled: true}
	h.manager.isDevLauncherInstalled = func(string) bool { return true }

	result, err := h.manager.OpenAsync(
		context.Background(), OpenOptions{Runtime: models.RuntimeExpoGo}, ResolveOptions{})

	require.NoError(t, err)
	assert.Equal(t, "exp://localhost:8081", result.URL)
}
