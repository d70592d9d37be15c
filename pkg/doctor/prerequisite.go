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

// Package doctor checks that a project satisfies the prerequisites of the
// session features it uses.
package doctor

import (
	"context"
	"fmt"
	"strings"
)

// Prerequisite kinds understood by the supervisor.
const (
	KindWebSupport = "web-support"
)

// Prerequisite is one lazily constructed project-level check. The check
// itself runs on every Assert call; only the instance is cached.
type Prerequisite interface {
	// Assert returns nil when the prerequisite is satisfied.
	Assert(ctx context.Context) error
}

// Factory constructs a prerequisite checker for a project.
type Factory func(projectRoot string) Prerequisite

// Factories maps kinds to constructors. The set is closed; asking for an
// unknown kind is a caller bug surfaced as an error by the manager.
func Factories(versions VersionsClient) map[string]Factory {
	return map[string]Factory{
		KindWebSupport: func(projectRoot string) Prerequisite {
			return NewWebSupportPrerequisite(projectRoot, versions)
		},
	}
}

// WebSupportPrerequisite verifies that the packages required to serve the
// project for web are installed.
type WebSupportPrerequisite struct {
	projectRoot string
	versions    VersionsClient
}

func NewWebSupportPrerequisite(projectRoot string, versions VersionsClient) *WebSupportPrerequisite {
	return &WebSupportPrerequisite{projectRoot: projectRoot, versions: versions}
}

func (p *WebSupportPrerequisite) Assert(ctx context.Context) error {
	required := []ResolvedPackage{
		{File: "react-dom/package.json", Pkg: "react-dom"},
		{File: "react-native-web/package.json", Pkg: "react-native-web"},
	}

	result, err := GetMissingPackagesAsync(ctx, p.projectRoot, p.versions, required)
	if err != nil {
		return err
	}

	if len(result.Missing) == 0 {
		return nil
	}

	names := make([]string, 0, len(result.Missing))

	for _, pkg := range result.Missing {
		name := pkg.Pkg
		if pkg.Version != "" {
			name += "@" + pkg.Version
		}

		names = append(names, name)
	}

	return fmt.Errorf("%w: install %s to use web features",
		ErrMissingPackages, strings.Join(names, ", "))
}
