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

// Package models holds the shared types of the dev-session supervisor.
package models

import (
	"encoding/json"
	"fmt"
)

// Platform identifies the native runtime a request targets.
type Platform string

const (
	PlatformAndroid Platform = "android"
	PlatformIOS     Platform = "ios"
)

// Runtime selects how a project is launched on a device.
type Runtime string

const (
	// RuntimeExpoGo launches the project in the sandboxed Expo Go client.
	RuntimeExpoGo Runtime = "expo"
	// RuntimeWeb opens the web dev server in a browser.
	RuntimeWeb Runtime = "web"
	// RuntimeCustom launches a custom development client build.
	RuntimeCustom Runtime = "custom"
)

const runtimeVersionPolicySDK = "sdkVersion"

// RuntimeVersion is either a fixed version string or a derivation policy.
// The app config may express it as either form, so both are accepted on
// unmarshal.
type RuntimeVersion struct {
	Version string `json:"-"`
	Policy  string `json:"policy,omitempty"`
}

func (r *RuntimeVersion) UnmarshalJSON(data []byte) error {
	var version string
	if err := json.Unmarshal(data, &version); err == nil {
		r.Version = version
		return nil
	}

	type alias RuntimeVersion

	var policy alias
	if err := json.Unmarshal(data, &policy); err != nil {
		return fmt.Errorf("invalid runtimeVersion value: %w", err)
	}

	*r = RuntimeVersion(policy)

	return nil
}

// EASConfig carries the cloud project linkage from the app config.
type EASConfig struct {
	ProjectID string `json:"projectId,omitempty"`
}

// ExtraConfig is the free-form extra block of the app config.
type ExtraConfig struct {
	EAS *EASConfig `json:"eas,omitempty"`
}

// AndroidConfig is the android-specific app config block.
type AndroidConfig struct {
	Package string `json:"package,omitempty"`
}

// IOSConfig is the ios-specific app config block.
type IOSConfig struct {
	BundleIdentifier string `json:"bundleIdentifier,omitempty"`
}

// WebConfig is the web-specific app config block.
type WebConfig struct {
	// Bundler selects which bundler serves the web build ("metro" or
	// "webpack", the default).
	Bundler string `json:"bundler,omitempty"`
}

// ExpConfig is the resolved project configuration (the `expo` block of
// app.json).
type ExpConfig struct {
	Name           string          `json:"name"`
	Slug           string          `json:"slug"`
	SDKVersion     string          `json:"sdkVersion,omitempty"`
	Scheme         string          `json:"scheme,omitempty"`
	RuntimeVersion *RuntimeVersion `json:"runtimeVersion,omitempty"`
	Android        *AndroidConfig  `json:"android,omitempty"`
	IOS            *IOSConfig      `json:"ios,omitempty"`
	Web            *WebConfig      `json:"web,omitempty"`
	Extra          *ExtraConfig    `json:"extra,omitempty"`
}

// WebUsesMetro reports whether the project serves web through metro instead
// of a separate webpack server.
func (c *ExpConfig) WebUsesMetro() bool {
	return c.Web != nil && c.Web.Bundler == "metro"
}

// EASProjectID returns the configured cloud project ID, or empty.
func (c *ExpConfig) EASProjectID() string {
	if c.Extra == nil || c.Extra.EAS == nil {
		return ""
	}

	return c.Extra.EAS.ProjectID
}

// ResolveRuntimeVersion derives the effective runtime version for a platform.
// An unset runtime-version policy defaults to the sdkVersion policy.
func (c *ExpConfig) ResolveRuntimeVersion(_ Platform) (string, error) {
	rv := c.RuntimeVersion
	if rv == nil {
		rv = &RuntimeVersion{Policy: runtimeVersionPolicySDK}
	}

	if rv.Version != "" {
		return rv.Version, nil
	}

	switch rv.Policy {
	case runtimeVersionPolicySDK, "":
		return fmt.Sprintf("exposdk:%s", c.SDKVersion), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedRuntimePolicy, rv.Policy)
	}
}
