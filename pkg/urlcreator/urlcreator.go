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

// Package urlcreator builds the URLs a device launch needs from the
// location of a running dev server.
package urlcreator

import (
	"errors"
	"fmt"
	"net/url"

	"github.com/orbitlabs/orbit/pkg/models"
)

const expoGoScheme = "exp"

var ErrNoScheme = errors.New("no custom scheme is configured")

// Creator derives launch and manifest URLs for one dev server location.
type Creator struct {
	host string
	port int
}

func New(host string, port int) *Creator {
	return &Creator{host: host, port: port}
}

// DevServerURL is the plain HTTP URL of the dev server.
func (c *Creator) DevServerURL() string {
	return fmt.Sprintf("http://%s:%d", c.host, c.port)
}

// LoadingURL is the interstitial runtime-selection page.
func (c *Creator) LoadingURL(platform models.Platform) string {
	return fmt.Sprintf("%s/_expo/loading?platform=%s", c.DevServerURL(), platform)
}

// ManifestURL builds the deep link a client uses to fetch the manifest.
// Expo Go uses its fixed scheme directly; custom clients get a
// development-client link wrapping the dev server URL.
func (c *Creator) ManifestURL(scheme string) (string, error) {
	if scheme == "" {
		return "", ErrNoScheme
	}

	if scheme == expoGoScheme {
		return fmt.Sprintf("%s://%s:%d", expoGoScheme, c.host, c.port), nil
	}

	return fmt.Sprintf("%s://expo-development-client/?url=%s",
		scheme, url.QueryEscape(c.DevServerURL())), nil
}
