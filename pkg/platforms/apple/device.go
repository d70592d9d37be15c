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

// Package apple launches projects on iOS simulators through simctl.
package apple

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/orbitlabs/orbit/pkg/config"
	"github.com/orbitlabs/orbit/pkg/logger"
	"github.com/orbitlabs/orbit/pkg/platforms"
)

const expoGoBundleID = "host.exp.Exponent"

var (
	ErrNoSimulators     = errors.New("no booted iOS simulators")
	ErrNoBundleID       = errors.New("ios.bundleIdentifier is not configured in the app config")
	ErrExpoGoNotPresent = errors.New("Expo Go is not installed on the simulator")
)

type runner func(ctx context.Context, args ...string) (string, error)

func runXcrun(ctx context.Context, args ...string) (string, error) {
	out, err := exec.CommandContext(ctx, "xcrun", args...).Output()
	if err != nil {
		return "", fmt.Errorf("xcrun %s: %w", strings.Join(args, " "), err)
	}

	return string(out), nil
}

type simDevice struct {
	UDID  string `json:"udid"`
	Name  string `json:"name"`
	State string `json:"state"`
}

func listBootedSimulators(ctx context.Context, run runner) ([]simDevice, error) {
	out, err := run(ctx, "simctl", "list", "devices", "booted", "--json")
	if err != nil {
		return nil, err
	}

	var payload struct {
		Devices map[string][]simDevice `json:"devices"`
	}

	if err := json.Unmarshal([]byte(out), &payload); err != nil {
		return nil, fmt.Errorf("failed to parse simctl device list: %w", err)
	}

	var booted []simDevice

	for _, devices := range payload.Devices {
		for _, device := range devices {
			if device.State == "Booted" {
				booted = append(booted, device)
			}
		}
	}

	return booted, nil
}

// DeviceManager drives one booted simulator through simctl.
type DeviceManager struct {
	udid   string
	name   string
	run    runner
	logger logger.Logger
}

// NewResolver returns a DeviceResolver picking a booted simulator, by name
// when hinted.
func NewResolver(log logger.Logger) platforms.DeviceResolver {
	return func(ctx context.Context, options platforms.ResolveOptions) (platforms.Device, error) {
		booted, err := listBootedSimulators(ctx, runXcrun)
		if err != nil {
			return nil, err
		}

		if len(booted) == 0 {
			return nil, ErrNoSimulators
		}

		pick := booted[0]

		if options.DeviceName != "" {
			found := false

			for _, device := range booted {
				if device.Name == options.DeviceName {
					pick = device
					found = true

					break
				}
			}

			if !found {
				return nil, fmt.Errorf("%w: %q is not booted", ErrNoSimulators, options.DeviceName)
			}
		}

		return &DeviceManager{udid: pick.UDID, name: pick.Name, run: runXcrun, logger: log}, nil
	}
}

func (d *DeviceManager) Name() string {
	return d.name
}

func (d *DeviceManager) LogOpeningURL(url string) {
	d.logger.Info().Str("device", d.name).Str("url", url).Msg("Opening URL on simulator")
}

// ActivateWindowAsync brings the Simulator app to the foreground.
func (d *DeviceManager) ActivateWindowAsync(ctx context.Context) error {
	if err := exec.CommandContext(ctx, "open", "-a", "Simulator").Run(); err != nil {
		return fmt.Errorf("failed to activate Simulator window: %w", err)
	}

	return nil
}

func (d *DeviceManager) OpenURLAsync(ctx context.Context, url string) error {
	_, err := d.run(ctx, "simctl", "openurl", d.udid, url)
	return err
}

func (d *DeviceManager) IsAppInstalledAsync(ctx context.Context, applicationID string) (bool, error) {
	// get_app_container exits non-zero when the app is absent.
	_, err := d.run(ctx, "simctl", "get_app_container", d.udid, applicationID)
	if err != nil {
		return false, nil
	}

	return true, nil
}

// EnsureExpoGoAsync verifies Expo Go is present on the simulator.
func (d *DeviceManager) EnsureExpoGoAsync(ctx context.Context, sdkVersion string) (bool, error) {
	installed, err := d.IsAppInstalledAsync(ctx, expoGoBundleID)
	if err != nil {
		return false, err
	}

	if !installed {
		return false, fmt.Errorf("%w: install Expo Go for SDK %s on %s first",
			ErrExpoGoNotPresent, sdkVersion, d.name)
	}

	return true, nil
}

// LaunchStrategy is the iOS side of custom launches.
type LaunchStrategy struct {
	projectRoot string
}

func NewLaunchStrategy(projectRoot string) *LaunchStrategy {
	return &LaunchStrategy{projectRoot: projectRoot}
}

// ResolveExistingAppIDAsync reads the bundle identifier from the app config.
func (s *LaunchStrategy) ResolveExistingAppIDAsync(ctx context.Context) (string, error) {
	exp, err := config.LoadProjectConfig(ctx, s.projectRoot)
	if err != nil {
		return "", err
	}

	if exp.IOS == nil || exp.IOS.BundleIdentifier == "" {
		return "", ErrNoBundleID
	}

	return exp.IOS.BundleIdentifier, nil
}

// ResolveAlternativeLaunchURL launches by bundle identifier directly.
func (*LaunchStrategy) ResolveAlternativeLaunchURL(
	applicationID string, _ platforms.OpenCustomProps) (string, error) {
	return applicationID, nil
}
