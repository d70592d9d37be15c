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

package bundler

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orbitlabs/orbit/pkg/doctor"
	"github.com/orbitlabs/orbit/pkg/logger"
)

var (
	errStartBoom = errors.New("start boom")
	errStopBoom  = errors.New("stop boom")
)

type fakeDevServer struct {
	mu sync.Mutex

	name     string
	native   bool
	web      bool
	startErr error
	stopErr  error
	// block, when set, makes StopAsync hang until the context is done.
	block bool

	starts   int
	stops    int
	instance *Instance
	messages []string
}

func (s *fakeDevServer) Name() string { return s.name }

func (s *fakeDevServer) StartAsync(_ context.Context, options StartOptions) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.startErr != nil {
		return s.startErr
	}

	s.starts++
	s.instance = &Instance{Location: Location{Host: "127.0.0.1", Port: options.Port, URL: "http://127.0.0.1"}}

	return nil
}

func (s *fakeDevServer) StopAsync(ctx context.Context) error {
	if s.block {
		<-ctx.Done()
		return ctx.Err()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.stops++

	return s.stopErr
}

func (s *fakeDevServer) BroadcastMessage(method string, _ map[string]interface{}) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.messages = append(s.messages, method)
}

func (s *fakeDevServer) IsTargetingNative() bool { return s.native }
func (s *fakeDevServer) IsTargetingWeb() bool    { return s.web }

func (s *fakeDevServer) Instance() *Instance {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.instance
}

func writeProject(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	data := `{"expo":{"name":"my-app","slug":"my-app","sdkVersion":"45.0.0"}}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "app.json"), []byte(data), 0o600))

	return dir
}

func newTestManager(t *testing.T, servers map[Type]*fakeDevServer, opts ...ManagerOption) *Manager {
	t.Helper()

	registry := Registry{}
	for typ, server := range servers {
		server := server
		registry[typ] = func(string, bool) BundlerDevServer { return server }
	}

	opts = append([]ManagerOption{WithRegistry(registry)}, opts...)
	m := NewManager(writeProject(t), StartOptions{Port: 8081}, logger.NewTestLogger(), opts...)
	t.Cleanup(func() { m.StopAsync(context.Background()) })

	return m
}

func TestStartAsyncRegistersServers(t *testing.T) {
	metro := &fakeDevServer{name: "metro", native: true}
	webpack := &fakeDevServer{name: "webpack", web: true}
	m := newTestManager(t, map[Type]*fakeDevServer{TypeMetro: metro, TypeWebpack: webpack})

	exp, err := m.StartAsync(context.Background(),
		[]StartRequest{{Type: TypeMetro}, {Type: TypeWebpack}})

	require.NoError(t, err)
	assert.Equal(t, "my-app", exp.Slug)
	assert.Equal(t, 1, metro.starts)
	assert.Equal(t, 1, webpack.starts)
}

func TestStartAsyncUnknownBundler(t *testing.T) {
	m := newTestManager(t, nil)

	_, err := m.StartAsync(context.Background(), []StartRequest{{Type: Type("vite")}})

	require.ErrorIs(t, err, ErrUnknownBundler)
}

func TestStartAsyncPartialFailureKeepsStartedServers(t *testing.T) {
	metro := &fakeDevServer{name: "metro", native: true}
	webpack := &fakeDevServer{name: "webpack", web: true, startErr: errStartBoom}
	m := newTestManager(t, map[Type]*fakeDevServer{TypeMetro: metro, TypeWebpack: webpack})

	_, err := m.StartAsync(context.Background(),
		[]StartRequest{{Type: TypeMetro}, {Type: TypeWebpack}})

	require.ErrorIs(t, err, errStartBoom)

	// The metro server stays registered and reachable after the failure.
	server, err := m.GetDefaultDevServer()
	require.NoError(t, err)
	assert.Equal(t, "metro", server.Name())
	assert.Nil(t, m.GetWebDevServer())
}

func TestStartAsyncRequestOptionsOverrideDefaults(t *testing.T) {
	metro := &fakeDevServer{name: "metro", native: true}
	m := newTestManager(t, map[Type]*fakeDevServer{TypeMetro: metro})

	_, err := m.StartAsync(context.Background(),
		[]StartRequest{{Type: TypeMetro, Options: &StartOptions{Port: 9000}}})

	require.NoError(t, err)
	assert.Equal(t, 9000, metro.Instance().Location.Port)
}

func TestStopAsyncReportsPerTargetOutcomes(t *testing.T) {
	metro := &fakeDevServer{name: "metro", native: true}
	webpack := &fakeDevServer{name: "webpack", web: true, stopErr: errStopBoom}
	m := newTestManager(t, map[Type]*fakeDevServer{TypeMetro: metro, TypeWebpack: webpack})

	_, err := m.StartAsync(context.Background(),
		[]StartRequest{{Type: TypeMetro}, {Type: TypeWebpack}})
	require.NoError(t, err)

	outcomes := map[string]StopOutcome{}
	for _, result := range m.StopAsync(context.Background()) {
		outcomes[result.Name] = result.Outcome
	}

	assert.Equal(t, StopOutcomeStopped, outcomes["metro"])
	assert.Equal(t, StopOutcomeFailed, outcomes["webpack"])
}

func TestStopAsyncBoundedByTimeout(t *testing.T) {
	metro := &fakeDevServer{name: "metro", native: true, block: true}
	m := newTestManager(t, map[Type]*fakeDevServer{TypeMetro: metro})

	_, err := m.StartAsync(context.Background(), []StartRequest{{Type: TypeMetro}})
	require.NoError(t, err)

	start := time.Now()
	results := m.StopAsync(context.Background())
	elapsed := time.Since(start)

	assert.Less(t, elapsed, 2*stopTimeout, "stop must return near the bound")

	require.Len(t, results, 1)
	assert.Equal(t, "metro", results[0].Name)
	assert.NotEqual(t, StopOutcomeStopped, results[0].Outcome)
}

func TestStopAsyncIncludesBridge(t *testing.T) {
	bridge := &fakeDevServer{name: "adb"}
	m := newTestManager(t, nil, WithBridge(bridge))

	outcomes := map[string]StopOutcome{}
	for _, result := range m.StopAsync(context.Background()) {
		outcomes[result.Name] = result.Outcome
	}

	assert.Equal(t, StopOutcomeStopped, outcomes["adb"])
	assert.Equal(t, 1, bridge.stops)
}

func TestBroadcastMessageFansOut(t *testing.T) {
	metro := &fakeDevServer{name: "metro", native: true}
	webpack := &fakeDevServer{name: "webpack", web: true}
	m := newTestManager(t, map[Type]*fakeDevServer{TypeMetro: metro, TypeWebpack: webpack})

	_, err := m.StartAsync(context.Background(),
		[]StartRequest{{Type: TypeMetro}, {Type: TypeWebpack}})
	require.NoError(t, err)

	m.BroadcastMessage("reload", nil)

	assert.Equal(t, []string{"reload"}, metro.messages)
	assert.Equal(t, []string{"reload"}, webpack.messages)
}

func TestGetNativeDevServerPort(t *testing.T) {
	metro := &fakeDevServer{name: "metro", native: true}
	m := newTestManager(t, map[Type]*fakeDevServer{TypeMetro: metro})

	assert.Zero(t, m.GetNativeDevServerPort(), "no port before start")

	_, err := m.StartAsync(context.Background(), []StartRequest{{Type: TypeMetro}})
	require.NoError(t, err)

	assert.Equal(t, 8081, m.GetNativeDevServerPort())
}

func TestGetDefaultDevServerPrefersNative(t *testing.T) {
	metro := &fakeDevServer{name: "metro", native: true}
	webpack := &fakeDevServer{name: "webpack", web: true}
	m := newTestManager(t, map[Type]*fakeDevServer{TypeMetro: metro, TypeWebpack: webpack})

	_, err := m.GetDefaultDevServer()
	require.ErrorIs(t, err, ErrNoDevServers)

	_, err = m.StartAsync(context.Background(),
		[]StartRequest{{Type: TypeWebpack}, {Type: TypeMetro}})
	require.NoError(t, err)

	server, err := m.GetDefaultDevServer()
	require.NoError(t, err)
	assert.Equal(t, "metro", server.Name())
}

func TestEnsureWebDevServerRunningAsyncIsIdempotent(t *testing.T) {
	webpack := &fakeDevServer{name: "webpack", web: true}
	m := newTestManager(t, map[Type]*fakeDevServer{TypeWebpack: webpack})

	require.NoError(t, m.EnsureWebDevServerRunningAsync(context.Background()))
	require.NoError(t, m.EnsureWebDevServerRunningAsync(context.Background()))
	require.NoError(t, m.EnsureWebDevServerRunningAsync(context.Background()))

	assert.Equal(t, 1, webpack.starts, "only one web server is ever started")
}

type fakePrereq struct {
	asserts int
	err     error
}

func (p *fakePrereq) Assert(context.Context) error {
	p.asserts++
	return p.err
}

func TestEnsureProjectPrerequisiteAsync(t *testing.T) {
	prereq := &fakePrereq{}
	built := 0

	factories := map[string]doctor.Factory{
		doctor.KindWebSupport: func(string) doctor.Prerequisite {
			built++
			return prereq
		},
	}

	m := newTestManager(t, nil, WithPrerequisiteFactories(factories))

	require.NoError(t, m.EnsureProjectPrerequisiteAsync(context.Background(), doctor.KindWebSupport))
	require.NoError(t, m.EnsureProjectPrerequisiteAsync(context.Background(), doctor.KindWebSupport))

	// The checker is constructed once but asserted on every call.
	assert.Equal(t, 1, built)
	assert.Equal(t, 2, prereq.asserts)
}

func TestEnsureProjectPrerequisiteAsyncUnknownKind(t *testing.T) {
	m := newTestManager(t, nil)

	err := m.EnsureProjectPrerequisiteAsync(context.Background(), "nope")

	require.ErrorIs(t, err, ErrUnknownPrerequisite)
}
