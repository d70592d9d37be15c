package bundler

import "errors"

var (
	ErrNoDevServers        = errors.New("no dev servers are running")
	ErrUnknownBundler      = errors.New("unknown bundler type")
	ErrUnknownPrerequisite = errors.New("unknown project prerequisite")
	ErrAlreadyStarted      = errors.New("dev server already started")
)
