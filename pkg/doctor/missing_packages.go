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

package doctor

import (
	"context"
	"os"
	"path/filepath"

	"github.com/orbitlabs/orbit/pkg/api"
	"github.com/orbitlabs/orbit/pkg/config"
)

// VersionsClient looks up the released SDK versions index.
type VersionsClient interface {
	GetReleasedVersionsAsync(ctx context.Context) (map[string]api.SDKVersion, error)
}

// ResolvedPackage names a package dependency and the file proving its
// installation.
type ResolvedPackage struct {
	// File is the path resolved relative to the project's node_modules.
	File string
	// Pkg is the package name.
	Pkg string
	// Version is the wanted version, filled from the SDK index when known.
	Version string
}

// MissingPackagesResult lists missing packages and the resolution paths of
// the present ones.
type MissingPackagesResult struct {
	Missing     []ResolvedPackage
	Resolutions map[string]string
}

// CollectMissingPackages splits required packages into present and missing
// by resolving each package file relative to the project root.
func CollectMissingPackages(projectRoot string, required []ResolvedPackage) *MissingPackagesResult {
	result := &MissingPackagesResult{Resolutions: map[string]string{}}

	for _, pkg := range required {
		path := filepath.Join(projectRoot, "node_modules", pkg.File)
		if _, err := os.Stat(path); err != nil {
			result.Missing = append(result.Missing, pkg)
			continue
		}

		result.Resolutions[pkg.Pkg] = path
	}

	return result
}

// GetMissingPackagesAsync collects missing packages and versions them to the
// releases known for the project's current SDK. The version lookup is a
// convenience and must not halt the check when it fails.
func GetMissingPackagesAsync(
	ctx context.Context,
	projectRoot string,
	versions VersionsClient,
	required []ResolvedPackage,
) (*MissingPackagesResult, error) {
	result := CollectMissingPackages(projectRoot, required)
	if len(result.Missing) == 0 {
		return result, nil
	}

	exp, err := config.LoadProjectConfig(ctx, projectRoot)
	if err != nil {
		return nil, err
	}

	mutatePackagesWithKnownVersions(ctx, exp.SDKVersion, versions, result.Missing)

	return result, nil
}

func mutatePackagesWithKnownVersions(
	ctx context.Context, sdkVersion string, versions VersionsClient, packages []ResolvedPackage) {
	if sdkVersion == "" || versions == nil {
		return
	}

	index, err := versions.GetReleasedVersionsAsync(ctx)
	if err != nil {
		// Version pinning is best-effort.
		return
	}

	sdk, ok := index[sdkVersion]
	if !ok {
		return
	}

	for i := range packages {
		if v, ok := sdk.RelatedPackages[packages[i].Pkg]; ok {
			packages[i].Version = v
		}
	}
}
