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

package settings

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnonymousIdentifierIsStable(t *testing.T) {
	dir := t.TempDir()

	store, err := NewStore(dir)
	require.NoError(t, err)

	first, err := store.AnonymousIdentifier()
	require.NoError(t, err)
	require.NoError(t, uuid.Validate(first))

	second, err := store.AnonymousIdentifier()
	require.NoError(t, err)
	assert.Equal(t, first, second)

	// A fresh store over the same directory reads the same identifier back.
	reopened, err := NewStore(dir)
	require.NoError(t, err)

	again, err := reopened.AnonymousIdentifier()
	require.NoError(t, err)
	assert.Equal(t, first, again)
}

func TestStoreRoundTrip(t *testing.T) {
	dir := t.TempDir()

	store, err := NewStore(dir)
	require.NoError(t, err)

	assert.Empty(t, store.GetString("channel"))

	require.NoError(t, store.SetString("channel", "beta"))
	assert.Equal(t, "beta", store.GetString("channel"))

	reopened, err := NewStore(dir)
	require.NoError(t, err)
	assert.Equal(t, "beta", reopened.GetString("channel"))
}
