package mux

import "errors"

var (
	ErrAlreadyConnected     = errors.New("mux: already connected")
	ErrNotConnected         = errors.New("mux: not connected to an upstream connection")
	ErrNoFreePort           = errors.New("mux: no free port slot (256 already created)")
	ErrPortAlreadyRegistered = errors.New("mux: port already has a registered client")
	ErrPortNotReady         = errors.New("mux: port not ready")
	ErrNoSessionIDAvailable = errors.New("mux: no session id available, ring exhausted")
)
