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
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/orbitlabs/orbit/pkg/config"
	"github.com/orbitlabs/orbit/pkg/logger"
)

const (
	defaultHost        = "127.0.0.1"
	defaultMetroPort   = 8081
	defaultWebpackPort = 19006

	readHeaderTimeout = 10 * time.Second
)

// devServer is the in-process HTTP face of one bundler backend. It owns the
// listener, the websocket message hub, and any mounted middleware (the
// manifest handler in native sessions).
type devServer struct {
	typ           Type
	projectRoot   string
	devClient     bool
	targetsNative bool
	targetsWeb    bool
	logger        logger.Logger

	hub *messageHub
	mux *http.ServeMux

	mu       sync.Mutex
	srv      *http.Server
	listener net.Listener
	instance *Instance
}

// NewMetroDevServer serves code for native runtimes (and web when the
// project uses metro for web).
func NewMetroDevServer(projectRoot string, devClient bool, log logger.Logger) BundlerDevServer {
	return newDevServer(TypeMetro, projectRoot, devClient, true, false, log)
}

// NewWebpackDevServer serves code for web runtimes only.
func NewWebpackDevServer(projectRoot string, devClient bool, log logger.Logger) BundlerDevServer {
	return newDevServer(TypeWebpack, projectRoot, devClient, false, true, log)
}

func newDevServer(
	typ Type, projectRoot string, devClient, native, web bool, log logger.Logger) *devServer {
	s := &devServer{
		typ:           typ,
		projectRoot:   projectRoot,
		devClient:     devClient,
		targetsNative: native,
		targetsWeb:    web,
		logger:        log,
		hub:           newMessageHub(log),
		mux:           http.NewServeMux(),
	}

	s.mux.Handle("/message", s.hub)
	s.mux.HandleFunc("/status", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write([]byte("packager-status:running"))
	})

	return s
}

// Mount attaches a handler to the server's mux. http.ServeMux.Handle is
// safe while the server is serving, so middleware can be mounted after the
// listener is up; it panics on a duplicate pattern, which is surfaced as an
// error instead.
func (s *devServer) Mount(pattern string, handler http.Handler) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("failed to mount %q on the %s dev server: %v", pattern, s.typ, r)
		}
	}()

	s.mux.Handle(pattern, handler)

	return nil
}

func (s *devServer) Name() string {
	return string(s.typ)
}

func (s *devServer) StartAsync(ctx context.Context, options StartOptions) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.srv != nil {
		return fmt.Errorf("%w: %s", ErrAlreadyStarted, s.typ)
	}

	// Metro serves the web build too when the project opts in; the check is
	// best-effort since a missing config already failed the session earlier.
	if s.typ == TypeMetro {
		if exp, err := config.LoadProjectConfig(ctx, s.projectRoot); err == nil {
			s.targetsWeb = exp.WebUsesMetro()
		}
	}

	host := options.Host
	if host == "" {
		host = defaultHost
	}

	port := options.Port
	if port == 0 {
		port = s.defaultPort()
	}

	listener, err := net.Listen("tcp", fmt.Sprintf("%s:%d", host, port))
	if err != nil {
		return fmt.Errorf("failed to bind %s dev server on port %d: %w", s.typ, port, err)
	}

	boundPort := listener.Addr().(*net.TCPAddr).Port

	s.listener = listener
	s.srv = &http.Server{
		Handler:           s.mux,
		ReadHeaderTimeout: readHeaderTimeout,
	}
	s.instance = &Instance{
		Location: Location{
			Host: host,
			Port: boundPort,
			URL:  fmt.Sprintf("http://%s:%d", host, boundPort),
		},
	}

	srv := s.srv

	go func() {
		if err := srv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error().Err(err).Str("bundler", string(s.typ)).Msg("Dev server exited")
		}
	}()

	s.logger.Info().
		Str("bundler", string(s.typ)).
		Str("url", s.instance.Location.URL).
		Bool("dev_client", s.devClient).
		Msg("Dev server started")

	return nil
}

func (s *devServer) StopAsync(ctx context.Context) error {
	s.mu.Lock()
	srv := s.srv
	listener := s.listener
	s.srv = nil
	s.listener = nil
	s.mu.Unlock()

	if srv == nil {
		return nil
	}

	s.hub.Close()

	// Shutdown only closes listeners that Serve has registered; if the serve
	// goroutine has not run yet, the listener must be closed here or the port
	// stays bound.
	if listener != nil {
		_ = listener.Close()
	}

	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to stop %s dev server: %w", s.typ, err)
	}

	return nil
}

func (s *devServer) BroadcastMessage(method string, params map[string]interface{}) {
	s.hub.Broadcast(method, params)
}

func (s *devServer) IsTargetingNative() bool {
	return s.targetsNative
}

func (s *devServer) IsTargetingWeb() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.targetsWeb
}

func (s *devServer) Instance() *Instance {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.instance
}

func (s *devServer) defaultPort() int {
	if s.typ == TypeWebpack {
		return defaultWebpackPort
	}

	return defaultMetroPort
}
