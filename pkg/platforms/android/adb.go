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

// Package android launches projects on Android devices and emulators
// through the Android debug bridge.
package android

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// runner executes an adb invocation and returns its stdout. Swappable in
// tests.
type runner func(ctx context.Context, args ...string) (string, error)

func runADB(ctx context.Context, args ...string) (string, error) {
	out, err := exec.CommandContext(ctx, "adb", args...).Output()
	if err != nil {
		return "", fmt.Errorf("adb %s: %w", strings.Join(args, " "), err)
	}

	return string(out), nil
}

// Bridge controls the adb server daemon. The supervisor starts it
// implicitly through device use and stops it with the dev servers.
type Bridge struct {
	run runner
}

func NewBridge() *Bridge {
	return &Bridge{run: runADB}
}

func (*Bridge) Name() string {
	return "adb"
}

// StopAsync kills the adb server daemon.
func (b *Bridge) StopAsync(ctx context.Context) error {
	_, err := b.run(ctx, "kill-server")
	return err
}

// listAttachedSerials parses `adb devices` output into device serials.
func listAttachedSerials(ctx context.Context, run runner) ([]string, error) {
	out, err := run(ctx, "devices")
	if err != nil {
		return nil, err
	}

	var serials []string

	for _, line := range strings.Split(out, "\n")[1:] {
		fields := strings.Fields(line)
		if len(fields) == 2 && fields[1] == "device" {
			serials = append(serials, fields[0])
		}
	}

	return serials, nil
}
