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

package android

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/orbitlabs/orbit/pkg/config"
	"github.com/orbitlabs/orbit/pkg/logger"
	"github.com/orbitlabs/orbit/pkg/platforms"
)

const expoGoApplicationID = "host.exp.exponent"

var (
	ErrNoDevices        = errors.New("no connected Android devices or emulators")
	ErrNoPackageName    = errors.New("android.package is not configured in the app config")
	ErrExpoGoNotPresent = errors.New("Expo Go is not installed on the device")
)

// DeviceManager drives one attached Android device through adb.
type DeviceManager struct {
	serial string
	run    runner
	logger logger.Logger
}

// NewResolver returns a DeviceResolver picking an attached device. A
// DeviceName hint selects by serial; otherwise the first device wins.
func NewResolver(log logger.Logger) platforms.DeviceResolver {
	return func(ctx context.Context, options platforms.ResolveOptions) (platforms.Device, error) {
		serials, err := listAttachedSerials(ctx, runADB)
		if err != nil {
			return nil, err
		}

		if len(serials) == 0 {
			return nil, ErrNoDevices
		}

		serial := serials[0]

		if options.DeviceName != "" {
			found := false

			for _, s := range serials {
				if s == options.DeviceName {
					serial = s
					found = true

					break
				}
			}

			if !found {
				return nil, fmt.Errorf("%w: %q not attached", ErrNoDevices, options.DeviceName)
			}
		}

		return &DeviceManager{serial: serial, run: runADB, logger: log}, nil
	}
}

func (d *DeviceManager) Name() string {
	return d.serial
}

func (d *DeviceManager) LogOpeningURL(url string) {
	d.logger.Info().Str("device", d.serial).Str("url", url).Msg("Opening URL on device")
}

// ActivateWindowAsync is a no-op on Android: opening an intent brings the
// target activity forward.
func (*DeviceManager) ActivateWindowAsync(_ context.Context) error {
	return nil
}

func (d *DeviceManager) OpenURLAsync(ctx context.Context, url string) error {
	_, err := d.run(ctx, "-s", d.serial, "shell", "am", "start",
		"-a", "android.intent.action.VIEW", "-d", url)

	return err
}

func (d *DeviceManager) IsAppInstalledAsync(ctx context.Context, applicationID string) (bool, error) {
	out, err := d.run(ctx, "-s", d.serial, "shell", "pm", "list", "packages", applicationID)
	if err != nil {
		return false, err
	}

	return strings.Contains(out, "package:"+applicationID), nil
}

// EnsureExpoGoAsync verifies Expo Go is present. Installation is left to
// the user; the error names the store client to install.
func (d *DeviceManager) EnsureExpoGoAsync(ctx context.Context, sdkVersion string) (bool, error) {
	installed, err := d.IsAppInstalledAsync(ctx, expoGoApplicationID)
	if err != nil {
		return false, err
	}

	if !installed {
		return false, fmt.Errorf("%w: install Expo Go for SDK %s on %s first",
			ErrExpoGoNotPresent, sdkVersion, d.serial)
	}

	return true, nil
}

// LaunchStrategy is the Android side of custom launches.
type LaunchStrategy struct {
	projectRoot string
}

func NewLaunchStrategy(projectRoot string) *LaunchStrategy {
	return &LaunchStrategy{projectRoot: projectRoot}
}

// ResolveExistingAppIDAsync reads the application identifier from the
// android.package config value.
func (s *LaunchStrategy) ResolveExistingAppIDAsync(ctx context.Context) (string, error) {
	exp, err := config.LoadProjectConfig(ctx, s.projectRoot)
	if err != nil {
		return "", err
	}

	if exp.Android == nil || exp.Android.Package == "" {
		return "", ErrNoPackageName
	}

	return exp.Android.Package, nil
}

// ResolveAlternativeLaunchURL launches the client by its main activity
// component when no deep link exists.
func (*LaunchStrategy) ResolveAlternativeLaunchURL(
	applicationID string, _ platforms.OpenCustomProps) (string, error) {
	return applicationID + "/.MainActivity", nil
}
