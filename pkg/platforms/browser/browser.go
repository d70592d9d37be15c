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

// Package browser opens web projects in the user's default browser.
package browser

import (
	"context"
	"fmt"
	"os/exec"
	"runtime"

	"github.com/orbitlabs/orbit/pkg/logger"
	"github.com/orbitlabs/orbit/pkg/platforms"
)

// opener launches a URL with the system's default handler. Swappable in
// tests.
type opener func(ctx context.Context, url string) error

func openSystemBrowser(ctx context.Context, url string) error {
	var cmd *exec.Cmd

	switch runtime.GOOS {
	case "darwin":
		cmd = exec.CommandContext(ctx, "open", url)
	case "windows":
		cmd = exec.CommandContext(ctx, "rundll32", "url.dll,FileProtocolHandler", url)
	default:
		cmd = exec.CommandContext(ctx, "xdg-open", url)
	}

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to open browser for %s: %w", url, err)
	}

	return nil
}

// DeviceManager treats the default browser as the target device of web
// launches. The browser has no install or foreground protocol of its own:
// opening a URL raises the window, and there is never a client to verify.
type DeviceManager struct {
	open   opener
	logger logger.Logger
}

// NewResolver returns a DeviceResolver for the default browser. Resolution
// never fails and ignores device hints.
func NewResolver(log logger.Logger) platforms.DeviceResolver {
	return func(_ context.Context, _ platforms.ResolveOptions) (platforms.Device, error) {
		return &DeviceManager{open: openSystemBrowser, logger: log}, nil
	}
}

func (*DeviceManager) Name() string {
	return "browser"
}

func (d *DeviceManager) LogOpeningURL(url string) {
	d.logger.Info().Str("url", url).Msg("Opening URL in browser")
}

// ActivateWindowAsync is a no-op: opening the URL raises the window.
func (*DeviceManager) ActivateWindowAsync(_ context.Context) error {
	return nil
}

func (d *DeviceManager) OpenURLAsync(ctx context.Context, url string) error {
	return d.open(ctx, url)
}

// IsAppInstalledAsync always reports true; a default browser is assumed.
func (*DeviceManager) IsAppInstalledAsync(_ context.Context, _ string) (bool, error) {
	return true, nil
}

// EnsureExpoGoAsync reports no client without error; web launches never
// reach this step.
func (*DeviceManager) EnsureExpoGoAsync(_ context.Context, _ string) (bool, error) {
	return false, nil
}
