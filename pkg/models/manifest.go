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

package models

// ManifestAsset references one loadable artifact of a build.
type ManifestAsset struct {
	Key         string `json:"key"`
	ContentType string `json:"contentType"`
	URL         string `json:"url"`
}

// ManifestExtra is the identity and client-config block of a manifest.
type ManifestExtra struct {
	EAS        *EASConfig             `json:"eas,omitempty"`
	ExpoClient map[string]interface{} `json:"expoClient"`
	ExpoGo     map[string]interface{} `json:"expoGo"`
	ScopeKey   string                 `json:"scopeKey"`
}

// Manifest is the per-request runtime descriptor served to clients. It is
// built fresh for every request and never persisted.
type Manifest struct {
	ID             string        `json:"id"`
	CreatedAt      string        `json:"createdAt"`
	RuntimeVersion string        `json:"runtimeVersion"`
	LaunchAsset    ManifestAsset `json:"launchAsset"`
	// Assets are not used in development.
	Assets []ManifestAsset `json:"assets"`
	// Metadata must be present (even empty) for clients to detect the format.
	Metadata map[string]interface{} `json:"metadata"`
	Extra    ManifestExtra          `json:"extra"`
}
