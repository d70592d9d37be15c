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

// Package settings persists process-local user state between sessions.
package settings

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
	"github.com/spf13/viper"
)

const (
	stateFileName = "state.json"

	keyAnonymousID = "uuid"
)

// Store is a small write-through settings store backed by a JSON state file.
// The anonymous identifier it holds is created once and is stable across
// runs and sessions.
type Store struct {
	mu   sync.Mutex
	v    *viper.Viper
	path string
}

// NewStore opens (or lazily creates) the state file under dir.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create settings directory: %w", err)
	}

	path := filepath.Join(dir, stateFileName)

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("json")

	if err := v.ReadInConfig(); err != nil && !os.IsNotExist(err) {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read settings file: %w", err)
		}
	}

	return &Store{v: v, path: path}, nil
}

// AnonymousIdentifier returns the persisted anonymous identifier, creating
// and saving one on first use.
func (s *Store) AnonymousIdentifier() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if id := s.v.GetString(keyAnonymousID); id != "" {
		return id, nil
	}

	id := uuid.NewString()
	s.v.Set(keyAnonymousID, id)

	if err := s.v.WriteConfigAs(s.path); err != nil {
		return "", fmt.Errorf("failed to persist anonymous identifier: %w", err)
	}

	return id, nil
}

// GetString reads an arbitrary persisted value.
func (s *Store) GetString(key string) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.v.GetString(key)
}

// SetString writes and persists an arbitrary value.
func (s *Store) SetString(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.v.Set(key, value)

	if err := s.v.WriteConfigAs(s.path); err != nil {
		return fmt.Errorf("failed to persist settings: %w", err)
	}

	return nil
}
