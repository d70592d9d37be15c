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

package manifest

import (
	"fmt"
	"net"
	"net/http"
	"strings"

	"github.com/orbitlabs/orbit/pkg/models"
)

// ParsedHeaders is the request envelope the manifest pipeline works from.
type ParsedHeaders struct {
	Platform        models.Platform
	AcceptSignature bool
	// Hostname is the client-facing host with any port stripped.
	Hostname string
}

// ParseRequestHeaders validates the inbound manifest request headers. The
// platform header is mandatory and must name a known platform.
func ParseRequestHeaders(req *http.Request) (*ParsedHeaders, error) {
	raw := req.Header.Get("expo-platform")
	if raw == "" {
		raw = req.URL.Query().Get("platform")
	}

	if raw == "" {
		return nil, ErrMissingPlatform
	}

	platform := models.Platform(raw)
	if platform != models.PlatformAndroid && platform != models.PlatformIOS {
		return nil, fmt.Errorf("%w: %q", ErrInvalidPlatform, raw)
	}

	return &ParsedHeaders{
		Platform:        platform,
		AcceptSignature: req.Header.Get("expo-accept-signature") != "",
		Hostname:        stripPort(req.Host),
	}, nil
}

func stripPort(host string) string {
	if host == "" {
		return ""
	}

	if hostname, _, err := net.SplitHostPort(host); err == nil {
		return hostname
	}

	host = strings.TrimSuffix(host, ":")

	// A bracketed IPv6 host with no port never satisfies SplitHostPort.
	if strings.HasPrefix(host, "[") && strings.HasSuffix(host, "]") {
		return host[1 : len(host)-1]
	}

	return host
}
