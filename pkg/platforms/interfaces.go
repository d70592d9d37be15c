package platforms

import (
	"context"

	"github.com/orbitlabs/orbit/pkg/models"
)

// Device is one resolved device or simulator session. Implementations wrap
// the platform tooling (adb, simctl, a browser opener).
type Device interface {
	// Name is a human-readable device name for logs.
	Name() string
	// LogOpeningURL announces the URL about to be opened.
	LogOpeningURL(url string)
	// ActivateWindowAsync brings the device window to the foreground.
	ActivateWindowAsync(ctx context.Context) error
	// OpenURLAsync opens a deep link or web URL on the device.
	OpenURLAsync(ctx context.Context, url string) error
	// IsAppInstalledAsync reports whether the application is present.
	IsAppInstalledAsync(ctx context.Context, applicationID string) (bool, error)
	// EnsureExpoGoAsync verifies (and installs when possible) a client
	// compatible with the given SDK version. It reports whether the client
	// was already installed.
	EnsureExpoGoAsync(ctx context.Context, sdkVersion string) (bool, error)
}

// ResolveOptions hints device resolution.
type ResolveOptions struct {
	// ShouldPrompt asks the resolver to let the user pick a device.
	ShouldPrompt bool
	// DeviceName selects a specific device.
	DeviceName string
	// OSType selects a device class (tv, watch, ...).
	OSType string
}

// DeviceResolver resolves a device for one launch call.
type DeviceResolver func(ctx context.Context, options ResolveOptions) (Device, error)

// OpenCustomProps customizes a custom-runtime launch.
type OpenCustomProps struct {
	// Scheme is the deep-link scheme of the development client.
	Scheme string
	// ApplicationID overrides the application identifier to launch.
	ApplicationID string
	// DevClient marks a dev-client runtime as explicitly requested, which
	// rules out the interstitial page and makes manifest-URL failures
	// non-fatal.
	DevClient bool
}

// LaunchStrategy is the device-family-specific part of a launch: how to
// find the project's application identifier and how to launch when no deep
// link could be built.
type LaunchStrategy interface {
	// ResolveExistingAppIDAsync returns the project's application
	// identifier for this device family.
	ResolveExistingAppIDAsync(ctx context.Context) (string, error)
	// ResolveAlternativeLaunchURL returns the launch target used when no
	// deep-link URL exists (for example the bare application identifier).
	ResolveAlternativeLaunchURL(applicationID string, props OpenCustomProps) (string, error)
}

// Props are the injected accessors a PlatformManager drives launches with.
type Props struct {
	Platform models.Platform
	// GetDevServerURL returns the web dev server URL, or empty when no web
	// server is running.
	GetDevServerURL func() string
	// GetLoadingURL returns the interstitial loading page URL.
	GetLoadingURL func() string
	// GetManifestURL builds the manifest deep link for a scheme.
	GetManifestURL func(scheme string) (string, error)
	// ResolveDevice resolves the target device.
	ResolveDevice DeviceResolver
}

// UnimplementedLaunchStrategy is the base strategy; both hooks fail.
type UnimplementedLaunchStrategy struct{}

func (UnimplementedLaunchStrategy) ResolveExistingAppIDAsync(_ context.Context) (string, error) {
	return "", ErrUnimplemented
}

func (UnimplementedLaunchStrategy) ResolveAlternativeLaunchURL(_ string, _ OpenCustomProps) (string, error) {
	return "", ErrUnimplemented
}
