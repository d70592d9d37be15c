package config

import "errors"

var (
	ErrInvalidAppConfig = errors.New("invalid app config")
)
