package platforms

import "errors"

var (
	ErrInvalidRuntime      = errors.New("invalid runtime target")
	ErrDevServerNotRunning = errors.New("dev server is not running")
	ErrAppNotInstalled     = errors.New("development client is not installed")
	ErrUnimplemented       = errors.New("not implemented for this device family")
)
