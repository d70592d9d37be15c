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

// Package bundler manages the set of bundler dev servers of one session.
package bundler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/orbitlabs/orbit/pkg/config"
	"github.com/orbitlabs/orbit/pkg/doctor"
	"github.com/orbitlabs/orbit/pkg/logger"
	"github.com/orbitlabs/orbit/pkg/models"
	"github.com/orbitlabs/orbit/pkg/telemetry"
	"github.com/orbitlabs/orbit/pkg/watcher"
)

// stopTimeout bounds StopAsync. Shutdown is best-effort: when the bound
// elapses, resources may still be held by servers that did not finish.
const stopTimeout = 2000 * time.Millisecond

var buildConfigFiles = []string{"babel.config.js", ".babelrc", ".babelrc.js"}

// StartRequest asks for one bundler backend to be started.
type StartRequest struct {
	Type Type
	// Options, when set, replaces the manager's stored default options for
	// this server.
	Options *StartOptions
}

// StopOutcome classifies how one stop target fared within the bound.
type StopOutcome string

const (
	StopOutcomeStopped  StopOutcome = "stopped"
	StopOutcomeFailed   StopOutcome = "failed"
	StopOutcomeTimedOut StopOutcome = "timed_out"
)

// StopResult reports the fate of one server (or the device bridge) during
// StopAsync.
type StopResult struct {
	Name    string
	Outcome StopOutcome
	Err     error
}

// Manager owns the registry of running dev servers and provides a uniform
// control surface over them. All registry mutation happens here.
type Manager struct {
	projectRoot     string
	defaults        StartOptions
	registry        Registry
	bridge          Stopper
	prereqFactories map[string]doctor.Factory
	events          telemetry.Tracker
	logger          logger.Logger
	notifier        *watcher.Notifier

	mu      sync.Mutex
	servers []BundlerDevServer
	prereqs map[string]doctor.Prerequisite
}

// ManagerOption customizes a Manager.
type ManagerOption func(*Manager)

// WithRegistry replaces the bundler constructor registry.
func WithRegistry(registry Registry) ManagerOption {
	return func(m *Manager) { m.registry = registry }
}

// WithBridge attaches the device-bridge daemon stopped alongside servers.
func WithBridge(bridge Stopper) ManagerOption {
	return func(m *Manager) { m.bridge = bridge }
}

// WithTracker replaces the telemetry sink.
func WithTracker(events telemetry.Tracker) ManagerOption {
	return func(m *Manager) { m.events = events }
}

// WithPrerequisiteFactories replaces the prerequisite checker constructors.
func WithPrerequisiteFactories(factories map[string]doctor.Factory) ManagerOption {
	return func(m *Manager) { m.prereqFactories = factories }
}

// NewManager creates a manager and starts watching the project's build
// configuration files. The watcher outlives individual servers.
func NewManager(projectRoot string, defaults StartOptions, log logger.Logger, opts ...ManagerOption) *Manager {
	m := &Manager{
		projectRoot:     projectRoot,
		defaults:        defaults,
		registry:        DefaultRegistry(log),
		prereqFactories: map[string]doctor.Factory{},
		events:          telemetry.NopTracker{},
		logger:          log,
		prereqs:         map[string]doctor.Prerequisite{},
	}

	for _, opt := range opts {
		opt(m)
	}

	m.notifier = watcher.NewNotifier(projectRoot, buildConfigFiles, log)
	if err := m.notifier.StartObserving(); err != nil {
		log.Debug().Err(err).Msg("Build config watcher unavailable")
	}

	return m
}

// StartAsync starts the requested bundler backends sequentially so later
// servers can rely on ports and state established by earlier ones. On
// failure, servers already started stay registered and running; there is no
// rollback. The project config is read fresh and returned.
func (m *Manager) StartAsync(ctx context.Context, requests []StartRequest) (*models.ExpConfig, error) {
	exp, err := config.LoadProjectConfig(ctx, m.projectRoot)
	if err != nil {
		return nil, err
	}

	m.events.Track("Start Project", map[string]interface{}{
		"sdkVersion": exp.SDKVersion,
	})

	for _, req := range requests {
		constructor, ok := m.registry[req.Type]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownBundler, req.Type)
		}

		options := m.defaults
		if req.Options != nil {
			options = *req.Options
		}

		server := constructor(m.projectRoot, options.DevClient)
		if err := server.StartAsync(ctx, options); err != nil {
			return nil, fmt.Errorf("failed to start %s dev server: %w", req.Type, err)
		}

		m.mu.Lock()
		m.servers = append(m.servers, server)
		m.mu.Unlock()
	}

	return exp, nil
}

// StopAsync stops every registered server and the device bridge
// concurrently, bounded by a fixed timeout. It never fails: individual
// errors and timeouts are reported per target in the result, and targets
// still stopping when the bound elapses are marked timed out.
func (m *Manager) StopAsync(ctx context.Context) []StopResult {
	m.notifier.Stop()

	type target struct {
		name string
		stop func(context.Context) error
	}

	m.mu.Lock()
	targets := make([]target, 0, len(m.servers)+1)

	for _, server := range m.servers {
		targets = append(targets, target{name: server.Name(), stop: server.StopAsync})
	}
	m.mu.Unlock()

	if m.bridge != nil {
		targets = append(targets, target{name: m.bridge.Name(), stop: m.bridge.StopAsync})
	}

	results := make([]StopResult, len(targets))

	var (
		resMu sync.Mutex
		wg    sync.WaitGroup
	)

	stopCtx, cancel := context.WithTimeout(ctx, stopTimeout)
	defer cancel()

	for i, tgt := range targets {
		wg.Add(1)

		go func(i int, tgt target) {
			defer wg.Done()

			err := tgt.stop(stopCtx)

			resMu.Lock()
			defer resMu.Unlock()

			if err != nil {
				results[i] = StopResult{Name: tgt.name, Outcome: StopOutcomeFailed, Err: err}
				m.logger.Debug().Err(err).Str("target", tgt.name).Msg("Stop failed")
			} else {
				results[i] = StopResult{Name: tgt.name, Outcome: StopOutcomeStopped}
			}
		}(i, tgt)
	}

	done := make(chan struct{})

	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(stopTimeout):
	}

	resMu.Lock()
	defer resMu.Unlock()

	final := make([]StopResult, len(targets))

	for i, res := range results {
		if res.Outcome == "" {
			final[i] = StopResult{Name: targets[i].name, Outcome: StopOutcomeTimedOut}
			continue
		}

		final[i] = res
	}

	return final
}

// BroadcastMessage sends the same message to every registered server.
// Delivery is fire-and-forget per server.
func (m *Manager) BroadcastMessage(method string, params map[string]interface{}) {
	m.mu.Lock()
	servers := make([]BundlerDevServer, len(m.servers))
	copy(servers, m.servers)
	m.mu.Unlock()

	for _, server := range servers {
		server.BroadcastMessage(method, params)
	}
}

// GetNativeDevServerPort returns the port of the first native-targeting
// server, or 0 when none is registered.
func (m *Manager) GetNativeDevServerPort() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, server := range m.servers {
		if server.IsTargetingNative() {
			if instance := server.Instance(); instance != nil {
				return instance.Location.Port
			}
		}
	}

	return 0
}

// GetWebDevServer returns the first web-targeting server, or nil.
func (m *Manager) GetWebDevServer() BundlerDevServer {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, server := range m.servers {
		if server.IsTargetingWeb() {
			return server
		}
	}

	return nil
}

// GetDefaultDevServer returns the first native-targeting server if any,
// otherwise the first registered server.
func (m *Manager) GetDefaultDevServer() (BundlerDevServer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, server := range m.servers {
		if server.IsTargetingNative() {
			return server, nil
		}
	}

	if len(m.servers) > 0 {
		return m.servers[0], nil
	}

	return nil, ErrNoDevServers
}

// EnsureWebDevServerRunningAsync starts a web-targeting server with the
// manager's default options unless one is already registered.
func (m *Manager) EnsureWebDevServerRunningAsync(ctx context.Context) error {
	if m.GetWebDevServer() != nil {
		return nil
	}

	m.logger.Debug().Msg("Starting webpack dev server")

	_, err := m.StartAsync(ctx, []StartRequest{{Type: TypeWebpack}})

	return err
}

// EnsureProjectPrerequisiteAsync lazily constructs and caches the checker
// for kind, then runs its assertion. The assertion itself is never cached.
func (m *Manager) EnsureProjectPrerequisiteAsync(ctx context.Context, kind string) error {
	m.mu.Lock()

	prereq, ok := m.prereqs[kind]
	if !ok {
		factory, exists := m.prereqFactories[kind]
		if !exists {
			m.mu.Unlock()
			return fmt.Errorf("%w: %q", ErrUnknownPrerequisite, kind)
		}

		prereq = factory(m.projectRoot)
		m.prereqs[kind] = prereq
	}
	m.mu.Unlock()

	return prereq.Assert(ctx)
}
