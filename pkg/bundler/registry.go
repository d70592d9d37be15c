package bundler

import "github.com/orbitlabs/orbit/pkg/logger"

// DefaultRegistry returns the closed set of bundler backends the supervisor
// can start.
func DefaultRegistry(log logger.Logger) Registry {
	return Registry{
		TypeMetro: func(projectRoot string, devClient bool) BundlerDevServer {
			return NewMetroDevServer(projectRoot, devClient, log)
		},
		TypeWebpack: func(projectRoot string, devClient bool) BundlerDevServer {
			return NewWebpackDevServer(projectRoot, devClient, log)
		},
	}
}
