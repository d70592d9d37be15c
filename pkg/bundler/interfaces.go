package bundler

import (
	"context"
)

// Type identifies a bundler backend kind.
type Type string

const (
	TypeMetro   Type = "metro"
	TypeWebpack Type = "webpack"
)

// StartOptions configures one bundler dev server start.
type StartOptions struct {
	// Host to bind, defaults to 127.0.0.1.
	Host string `json:"host,omitempty"`
	// Port to bind, defaults to the bundler's conventional port.
	Port int `json:"port,omitempty"`
	// DevClient marks the session as targeting a custom development client.
	DevClient bool `json:"dev_client,omitempty"`
	// HTTPS serves the bundle over TLS (web only).
	HTTPS bool `json:"https,omitempty"`
}

// Location describes where a running dev server listens.
type Location struct {
	Host string
	Port int
	URL  string
}

// Instance is the introspection record of a started server.
type Instance struct {
	Location Location
}

// BundlerDevServer is one running bundler backend.
type BundlerDevServer interface {
	// Name identifies the server for logs and stop reports.
	Name() string
	StartAsync(ctx context.Context, options StartOptions) error
	StopAsync(ctx context.Context) error
	// BroadcastMessage sends a message to connected clients, fire-and-forget.
	BroadcastMessage(method string, params map[string]interface{})
	IsTargetingNative() bool
	IsTargetingWeb() bool
	// Instance returns nil until the server has started.
	Instance() *Instance
}

// Stopper is the device-bridge daemon surface the manager shuts down with
// the servers.
type Stopper interface {
	Name() string
	StopAsync(ctx context.Context) error
}

// Constructor builds an unstarted dev server for a project.
type Constructor func(projectRoot string, devClient bool) BundlerDevServer

// Registry maps bundler types to constructors.
type Registry map[Type]Constructor
