package server

import "errors"

// Error taxonomy for the server's boundary APIs (spec.md §7). These are
// thrown — returned, in Go — with the strong guarantee: on error the
// caller's request is untouched and no server state changed.
var (
	ErrNotRegistered     = errors.New("server: no client registered")
	ErrNotReady          = errors.New("server: connection not ready")
	ErrAlreadyRunning    = errors.New("server: already running")
	ErrAlreadyStopped    = errors.New("server: already stopped")
	ErrAlreadyRegistered = errors.New("server: a client is already registered")
)
