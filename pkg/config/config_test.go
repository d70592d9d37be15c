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
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orbitlabs/orbit/pkg/models"
)

func writeAppJSON(t *testing.T, content string) string {
	t.Helper()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "app.json"), []byte(content), 0o600))

	return dir
}

func TestLoadProjectConfig(t *testing.T) {
	root := writeAppJSON(t, `{
		"expo": {
			"name": "my-app",
			"slug": "my-app",
			"sdkVersion": "45.0.0",
			"extra": {"eas": {"projectId": "proj-1"}}
		}
	}`)

	exp, err := LoadProjectConfig(context.Background(), root)

	require.NoError(t, err)
	assert.Equal(t, "my-app", exp.Slug)
	assert.Equal(t, "45.0.0", exp.SDKVersion)
	assert.Equal(t, "proj-1", exp.EASProjectID())
}

func TestLoadProjectConfigObservesEdits(t *testing.T) {
	root := writeAppJSON(t, `{"expo": {"name": "a", "slug": "a"}}`)

	exp, err := LoadProjectConfig(context.Background(), root)
	require.NoError(t, err)
	assert.Equal(t, "a", exp.Slug)

	require.NoError(t, os.WriteFile(
		filepath.Join(root, "app.json"), []byte(`{"expo": {"name": "b", "slug": "b"}}`), 0o600))

	exp, err = LoadProjectConfig(context.Background(), root)
	require.NoError(t, err)
	assert.Equal(t, "b", exp.Slug)
}

func TestLoadProjectConfigInvalid(t *testing.T) {
	cases := []struct {
		name    string
		content string
	}{
		{name: "no expo block", content: `{"name": "my-app"}`},
		{name: "no slug", content: `{"expo": {"name": "my-app"}}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			root := writeAppJSON(t, tc.content)

			_, err := LoadProjectConfig(context.Background(), root)

			require.ErrorIs(t, err, ErrInvalidAppConfig)
		})
	}
}

func TestLoadProjectConfigMissingFile(t *testing.T) {
	_, err := LoadProjectConfig(context.Background(), t.TempDir())

	require.Error(t, err)
}

func TestResolveProjectSettingsAsync(t *testing.T) {
	root := writeAppJSON(t, `{"expo": {"name": "my-app", "slug": "my-app"}}`)

	resolver := NewProjectSettingsResolver(root, func() string { return "127.0.0.1:8081" })

	projectSettings, err := resolver.ResolveProjectSettingsAsync(
		context.Background(), models.PlatformAndroid, "")

	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:8081", projectSettings.HostURI)
	assert.Equal(t,
		"http://127.0.0.1:8081/index.bundle?platform=android&dev=true&hot=false",
		projectSettings.BundleURL)
	assert.Equal(t, "127.0.0.1:8081", projectSettings.ExpoGoConfig["debuggerHost"])
}

func TestResolveProjectSettingsAsyncHostnameOverride(t *testing.T) {
	root := writeAppJSON(t, `{"expo": {"name": "my-app", "slug": "my-app"}}`)

	resolver := NewProjectSettingsResolver(root, func() string { return "127.0.0.1:8081" })

	projectSettings, err := resolver.ResolveProjectSettingsAsync(
		context.Background(), models.PlatformIOS, "192.168.1.20")

	require.NoError(t, err)

	// LAN clients get links built from the address they reached us on.
	assert.Equal(t, "192.168.1.20", projectSettings.HostURI)
	assert.Contains(t, projectSettings.BundleURL, "http://192.168.1.20/")
}
