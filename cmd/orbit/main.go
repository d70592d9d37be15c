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

package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"

	"github.com/orbitlabs/orbit/pkg/api"
	"github.com/orbitlabs/orbit/pkg/bundler"
	"github.com/orbitlabs/orbit/pkg/config"
	"github.com/orbitlabs/orbit/pkg/doctor"
	"github.com/orbitlabs/orbit/pkg/lifecycle"
	"github.com/orbitlabs/orbit/pkg/logger"
	"github.com/orbitlabs/orbit/pkg/manifest"
	"github.com/orbitlabs/orbit/pkg/models"
	"github.com/orbitlabs/orbit/pkg/platforms"
	"github.com/orbitlabs/orbit/pkg/platforms/android"
	"github.com/orbitlabs/orbit/pkg/platforms/apple"
	"github.com/orbitlabs/orbit/pkg/platforms/browser"
	"github.com/orbitlabs/orbit/pkg/settings"
	"github.com/orbitlabs/orbit/pkg/telemetry"
	"github.com/orbitlabs/orbit/pkg/urlcreator"
)

const defaultAPIBaseURL = "https://exp.host/--/api"

var errNoDevServerInstance = fmt.Errorf("default dev server has no instance")

func main() {
	if err := run(); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	projectRoot := flag.String("project-root", ".", "Path to the app project")
	port := flag.Int("port", 0, "Dev server port (0 uses the bundler default)")
	web := flag.Bool("web", false, "Also start the web dev server")
	devClient := flag.Bool("dev-client", false, "Target a custom development client")
	offline := flag.Bool("offline", false, "Skip all remote lookups, serve anonymous manifests")
	openOn := flag.String("open", "", "Open the project after start: android, ios or web")
	scheme := flag.String("scheme", "", "Custom deep-link scheme for dev-client launches")
	telemetryURL := flag.String("telemetry-endpoint", "", "Usage event collector (empty disables)")
	flag.Parse()

	ctx := context.Background()

	root, err := filepath.Abs(*projectRoot)
	if err != nil {
		return err
	}

	sessionLogger, err := lifecycle.CreateComponentLogger("orbit", logger.DefaultConfig())
	if err != nil {
		return err
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return err
	}

	store, err := settings.NewStore(filepath.Join(home, ".orbit"))
	if err != nil {
		return err
	}

	session := &settings.Session{
		Offline:             *offline,
		InterstitialEnabled: os.Getenv("ORBIT_ENABLE_INTERSTITIAL_PAGE") != "",
	}

	apiClient := api.NewClient(defaultAPIBaseURL, os.Getenv("EXPO_SESSION"))

	var events telemetry.Tracker = telemetry.NopTracker{}
	if *telemetryURL != "" && !session.Offline {
		events = telemetry.NewHTTPTracker(*telemetryURL, sessionLogger)
	}

	manager := bundler.NewManager(root,
		bundler.StartOptions{Port: *port, DevClient: *devClient},
		sessionLogger,
		bundler.WithBridge(android.NewBridge()),
		bundler.WithTracker(events),
		bundler.WithPrerequisiteFactories(doctor.Factories(apiClient)),
	)

	requests := []bundler.StartRequest{{Type: bundler.TypeMetro}}

	exp, err := manager.StartAsync(ctx, requests)
	if err != nil {
		return err
	}

	if *web {
		if err := manager.EnsureProjectPrerequisiteAsync(ctx, doctor.KindWebSupport); err != nil {
			return err
		}

		if err := manager.EnsureWebDevServerRunningAsync(ctx); err != nil {
			return err
		}
	}

	server, err := manager.GetDefaultDevServer()
	if err != nil {
		return err
	}

	instance := server.Instance()
	if instance == nil {
		return errNoDevServerInstance
	}

	resolver := config.NewProjectSettingsResolver(root, func() string {
		return fmt.Sprintf("%s:%d", instance.Location.Host, instance.Location.Port)
	})

	middleware := manifest.NewMiddleware(
		resolver, apiClient, apiClient, apiClient, store, session, events, sessionLogger)

	type mounter interface {
		Mount(pattern string, handler http.Handler) error
	}

	if m, ok := server.(mounter); ok {
		if err := m.Mount("/", middleware); err != nil {
			return err
		}
	}

	sessionLogger.Info().
		Str("project", exp.Slug).
		Str("url", instance.Location.URL).
		Msg("Session ready")

	if *openOn != "" {
		if err := openProject(ctx, *openOn, root, *devClient, *scheme,
			manager, instance, session, events, sessionLogger); err != nil {
			return err
		}
	}

	return lifecycle.Run(ctx, sessionLogger, func(shutdownCtx context.Context) error {
		for _, result := range manager.StopAsync(shutdownCtx) {
			event := sessionLogger.Debug().Str("target", result.Name).Str("outcome", string(result.Outcome))
			if result.Err != nil {
				event = event.Err(result.Err)
			}

			event.Msg("Stop result")
		}

		return nil
	})
}

func openProject(
	ctx context.Context,
	target, root string,
	devClient bool,
	scheme string,
	manager *bundler.Manager,
	instance *bundler.Instance,
	session *settings.Session,
	events telemetry.Tracker,
	log logger.Logger,
) error {
	creator := urlcreator.New(instance.Location.Host, instance.Location.Port)

	webServerURL := func() string {
		server := manager.GetWebDevServer()
		if server == nil {
			return ""
		}

		if inst := server.Instance(); inst != nil {
			return inst.Location.URL
		}

		return ""
	}

	var (
		platform models.Platform
		resolve  platforms.DeviceResolver
		strategy platforms.LaunchStrategy
		runtime  models.Runtime
	)

	switch target {
	case "android":
		platform = models.PlatformAndroid
		resolve = android.NewResolver(log)
		strategy = android.NewLaunchStrategy(root)
		runtime = models.RuntimeExpoGo
	case "ios":
		platform = models.PlatformIOS
		resolve = apple.NewResolver(log)
		strategy = apple.NewLaunchStrategy(root)
		runtime = models.RuntimeExpoGo
	case "web":
		platform = models.PlatformIOS
		resolve = browser.NewResolver(log)
		strategy = platforms.UnimplementedLaunchStrategy{}
		runtime = models.RuntimeWeb
	default:
		return fmt.Errorf("%w: %q", platforms.ErrInvalidRuntime, target)
	}

	if devClient && runtime != models.RuntimeWeb {
		runtime = models.RuntimeCustom
	}

	pm := platforms.NewManager(root, platforms.Props{
		Platform:        platform,
		GetDevServerURL: webServerURL,
		GetLoadingURL:   func() string { return creator.LoadingURL(platform) },
		GetManifestURL:  creator.ManifestURL,
		ResolveDevice:   resolve,
	}, strategy, session, events, log)

	result, err := pm.OpenAsync(ctx,
		platforms.OpenOptions{
			Runtime: runtime,
			Props:   platforms.OpenCustomProps{Scheme: scheme, DevClient: devClient},
		},
		platforms.ResolveOptions{})
	if err != nil {
		return err
	}

	log.Info().Str("url", result.URL).Msg("Opened project")

	return nil
}
