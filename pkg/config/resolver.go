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

package config

import (
	"context"
	"fmt"

	"github.com/orbitlabs/orbit/pkg/models"
)

// ProjectSettings is everything the manifest pipeline needs to describe the
// current build to one client request.
type ProjectSettings struct {
	Exp          *models.ExpConfig
	HostURI      string
	ExpoGoConfig map[string]interface{}
	BundleURL    string
}

// ProjectSettingsResolver resolves per-request project settings.
type ProjectSettingsResolver struct {
	projectRoot string
	// devServerHost reports the host:port of the server handling the request.
	devServerHost func() string
}

func NewProjectSettingsResolver(projectRoot string, devServerHost func() string) *ProjectSettingsResolver {
	return &ProjectSettingsResolver{
		projectRoot:   projectRoot,
		devServerHost: devServerHost,
	}
}

// ResolveProjectSettingsAsync reads the project config and derives the
// host URI and bundle URL for the requested platform. The hostname, when
// present, overrides the dev server's own notion of its address so that
// LAN and tunnel clients get links they can reach.
func (r *ProjectSettingsResolver) ResolveProjectSettingsAsync(
	ctx context.Context, platform models.Platform, hostname string) (*ProjectSettings, error) {
	exp, err := LoadProjectConfig(ctx, r.projectRoot)
	if err != nil {
		return nil, err
	}

	host := r.devServerHost()
	if hostname != "" {
		host = hostname
	}

	bundleURL := fmt.Sprintf(
		"http://%s/index.bundle?platform=%s&dev=true&hot=false", host, platform)

	return &ProjectSettings{
		Exp:     exp,
		HostURI: host,
		ExpoGoConfig: map[string]interface{}{
			"debuggerHost":   host,
			"developer":      map[string]interface{}{"tool": "orbit-cli", "projectRoot": r.projectRoot},
			"packagerOpts":   map[string]interface{}{"dev": true},
			"mainModuleName": "index",
			"__flipperHack":  "React Native packager is running",
		},
		BundleURL: bundleURL,
	}, nil
}
