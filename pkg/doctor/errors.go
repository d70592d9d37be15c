package doctor

import "errors"

var (
	ErrMissingPackages = errors.New("required packages are not installed")
)
