package models

import "errors"

var (
	ErrUnsupportedRuntimePolicy = errors.New("unsupported runtime version policy")
)
