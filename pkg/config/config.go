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

// Package config resolves project configuration for a dev session.
package config

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/orbitlabs/orbit/pkg/models"
)

const appConfigFileName = "app.json"

// appConfig is the on-disk shape of app.json.
type appConfig struct {
	Expo *models.ExpConfig `json:"expo"`
}

// FileConfigLoader loads configuration from a local JSON file.
type FileConfigLoader struct{}

// Load implements ConfigLoader by reading and unmarshaling a JSON file.
func (*FileConfigLoader) Load(_ context.Context, path string, dst interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read file '%s': %w", path, err)
	}

	err = json.Unmarshal(data, dst)
	if err != nil {
		return fmt.Errorf("failed to unmarshal JSON from '%s': %w", path, err)
	}

	return nil
}

// LoadProjectConfig reads and validates the project's app config. The config
// is read fresh on every call so edits between calls are observed.
func LoadProjectConfig(ctx context.Context, projectRoot string) (*models.ExpConfig, error) {
	loader := &FileConfigLoader{}

	var cfg appConfig

	path := filepath.Join(projectRoot, appConfigFileName)
	if err := loader.Load(ctx, path, &cfg); err != nil {
		return nil, err
	}

	if cfg.Expo == nil {
		return nil, fmt.Errorf("%w: %s has no \"expo\" block", ErrInvalidAppConfig, path)
	}

	if cfg.Expo.Slug == "" {
		return nil, fmt.Errorf("%w: missing \"slug\"", ErrInvalidAppConfig)
	}

	return cfg.Expo, nil
}
