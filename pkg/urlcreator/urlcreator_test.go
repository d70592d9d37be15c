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

package urlcreator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orbitlabs/orbit/pkg/models"
)

func TestDevServerURL(t *testing.T) {
	c := New("127.0.0.1", 8081)

	assert.Equal(t, "http://127.0.0.1:8081", c.DevServerURL())
}

func TestLoadingURL(t *testing.T) {
	c := New("127.0.0.1", 8081)

	assert.Equal(t,
		"http://127.0.0.1:8081/_expo/loading?platform=android",
		c.LoadingURL(models.PlatformAndroid))
}

func TestManifestURL(t *testing.T) {
	c := New("127.0.0.1", 8081)

	url, err := c.ManifestURL("exp")
	require.NoError(t, err)
	assert.Equal(t, "exp://127.0.0.1:8081", url)

	url, err = c.ManifestURL("myapp")
	require.NoError(t, err)
	assert.Equal(t,
		"myapp://expo-development-client/?url=http%3A%2F%2F127.0.0.1%3A8081", url)
}

func TestManifestURLWithoutScheme(t *testing.T) {
	c := New("127.0.0.1", 8081)

	_, err := c.ManifestURL("")

	require.ErrorIs(t, err, ErrNoScheme)
}
