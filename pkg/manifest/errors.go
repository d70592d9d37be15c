package manifest

import "errors"

var (
	ErrMissingPlatform = errors.New("missing expo-platform header")
	ErrInvalidPlatform = errors.New("unsupported platform")
)
