package api

import "errors"

var (
	ErrRequestFailed = errors.New("api request failed")
)
