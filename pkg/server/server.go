// Package server implements RemoteAccessServer, the single-worker-thread
// dispatch loop that answers RODA requests against an OD adapter and
// delivers RODAN notifications, grounded in the teacher's SDO server
// (pkg/sdo/server.go) and node controller (pkg/node/controller.go) for
// its locking/logging texture.
package server

import (
	"log/slog"
	"sync"

	"github.com/canroda/roda/pkg/od"
	"github.com/canroda/roda/pkg/roda"
)

// RemoteAccessServer answers RODA requests against an Adapter, driven by
// single-step Work() calls from a WorkHook (spec.md §4.1).
type RemoteAccessServer struct {
	logger  *slog.Logger
	adapter od.Adapter
	hook    WorkHook

	maxRequestSize  uint32
	maxResponseSize uint32

	// clientMu serializes delivery of RODAN callbacks and is held for the
	// entire body of Work() and of Unregister(), giving Unregister the
	// spec's "blocks until any in-flight callback returns" guarantee for
	// free, without a separate unregister_pending signal.
	clientMu sync.Mutex

	// apiMu guards every field below; it is only ever held briefly.
	apiMu         sync.Mutex
	st            serverState
	client        roda.RODAN
	queue         []roda.Request
	loanRequested bool
}

// New builds a server bound to adapter, with the given request/response
// size ceilings (spec.md §6.2 "Size bounds").
func New(adapter od.Adapter, hook WorkHook, maxRequestSize, maxResponseSize uint32, logger *slog.Logger) *RemoteAccessServer {
	if logger == nil {
		logger = slog.Default()
	}
	return &RemoteAccessServer{
		logger:          logger.With("service", "[RODA]"),
		adapter:         adapter,
		hook:            hook,
		maxRequestSize:  maxRequestSize,
		maxResponseSize: maxResponseSize,
		st:              stateUnregisteredAndOff,
	}
}

// SetHook binds the WorkHook that drives this server's worker thread.
// Split from New so a hook that needs a reference to the server it
// drives (e.g. workhook.OwnThread) can be constructed afterward.
func (s *RemoteAccessServer) SetHook(hook WorkHook) {
	s.apiMu.Lock()
	defer s.apiMu.Unlock()
	s.hook = hook
}

// Register installs rodan as this server's sole client (spec.md §4.1
// register event).
func (s *RemoteAccessServer) Register(rodan roda.RODAN) error {
	s.apiMu.Lock()
	defer s.apiMu.Unlock()

	switch s.st {
	case stateUnregisteredAndOff:
		s.client = rodan
		s.st = stateOff
		return nil
	case stateUnregisteredAndIdle:
		s.client = rodan
		s.st = stateJustRegistered
		s.apiMu.Unlock()
		s.hook.RequestWorkInvocation()
		s.apiMu.Lock()
		return nil
	default:
		return ErrAlreadyRegistered
	}
}

// Unregister removes the current client, blocking until any in-flight
// RODAN callback returns; no callback fires after Unregister returns
// (spec.md §8 invariant #4).
func (s *RemoteAccessServer) Unregister() {
	s.clientMu.Lock()
	defer s.clientMu.Unlock()

	s.apiMu.Lock()
	defer s.apiMu.Unlock()

	switch s.st {
	case stateUnregisteredAndOff, stateUnregisteredAndIdle:
		return
	case stateOff:
		s.client = nil
		s.queue = nil
		s.st = stateUnregisteredAndOff
	default: // JustRegistered, Idle, Processing
		s.client = nil
		s.queue = nil
		s.loanRequested = false
		s.st = stateUnregisteredAndIdle
	}
}

// Send enqueues req for dispatch (spec.md §4.1 send event).
func (s *RemoteAccessServer) Send(req roda.Request) error {
	s.apiMu.Lock()
	defer s.apiMu.Unlock()

	switch s.st {
	case stateUnregisteredAndOff, stateUnregisteredAndIdle:
		return ErrNotRegistered
	case stateOff, stateJustRegistered:
		return ErrNotReady
	}

	if err := s.sanityCheck(req); err != nil {
		return err
	}

	s.queue = append(s.queue, req)
	if s.st == stateIdle {
		s.st = stateProcessing
		s.apiMu.Unlock()
		s.hook.RequestWorkInvocation()
		s.apiMu.Lock()
	}
	return nil
}

// RequestExecutionContext asks for a future LoanExecutionContext callback
// (spec.md §4.1 request_execution_context event).
func (s *RemoteAccessServer) RequestExecutionContext() error {
	s.apiMu.Lock()
	defer s.apiMu.Unlock()

	switch s.st {
	case stateUnregisteredAndOff, stateUnregisteredAndIdle:
		return ErrNotRegistered
	case stateOff, stateJustRegistered:
		return ErrNotReady
	}

	s.loanRequested = true
	if s.st == stateIdle {
		s.apiMu.Unlock()
		s.hook.RequestWorkInvocation()
		s.apiMu.Lock()
	}
	return nil
}

// OnStart is called by the hook's owner on the worker thread to start the
// server (spec.md §4.1 on_start event).
func (s *RemoteAccessServer) OnStart() error {
	s.clientMu.Lock()
	defer s.clientMu.Unlock()

	s.apiMu.Lock()
	switch s.st {
	case stateUnregisteredAndOff:
		s.st = stateUnregisteredAndIdle
		s.apiMu.Unlock()
		return nil
	case stateOff:
		client := s.client
		s.st = stateIdle
		s.apiMu.Unlock()
		client.OnReady(s.maxRequestSize, s.maxResponseSize)
		return nil
	default:
		s.apiMu.Unlock()
		return ErrAlreadyRunning
	}
}

// OnStop is called by the hook's owner on the worker thread to stop the
// server (spec.md §4.1 on_stop event).
func (s *RemoteAccessServer) OnStop() error {
	s.clientMu.Lock()
	defer s.clientMu.Unlock()

	s.apiMu.Lock()
	switch s.st {
	case stateUnregisteredAndOff, stateOff:
		s.apiMu.Unlock()
		return ErrAlreadyStopped
	case stateUnregisteredAndIdle:
		s.st = stateUnregisteredAndOff
		s.apiMu.Unlock()
		return nil
	case stateJustRegistered:
		s.st = stateOff
		s.apiMu.Unlock()
		return nil
	case stateIdle:
		client := s.client
		s.loanRequested = false
		s.st = stateOff
		s.apiMu.Unlock()
		client.OnDisconnected()
		return nil
	default: // Processing
		client := s.client
		s.queue = nil
		s.loanRequested = false
		s.st = stateOff
		s.apiMu.Unlock()
		client.OnDisconnected()
		return nil
	}
}

// Work performs exactly one unit of progress, then returns so the
// WorkHook may loan the worker thread elsewhere (spec.md §4.1 "Worker
// step").
func (s *RemoteAccessServer) Work() {
	s.clientMu.Lock()
	defer s.clientMu.Unlock()

	s.apiMu.Lock()

	if s.client == nil {
		s.apiMu.Unlock()
		return
	}

	if s.st == stateJustRegistered && len(s.queue) == 0 && !s.loanRequested {
		client := s.client
		s.st = stateIdle
		s.apiMu.Unlock()
		client.OnReady(s.maxRequestSize, s.maxResponseSize)
		return
	}

	if s.loanRequested {
		s.loanRequested = false
		rearm := s.st == stateProcessing
		client := s.client
		s.apiMu.Unlock()
		if rearm {
			s.hook.RequestWorkInvocation()
		}
		client.LoanExecutionContext()
		return
	}

	if s.st == stateProcessing {
		req := s.queue[0]
		rest := s.queue[1:]
		client := s.client
		s.apiMu.Unlock()

		resp, transient := s.dispatch(req)
		if transient != nil {
			s.logger.Warn("dispatch failed transiently, re-queuing", "error", transient)
			s.apiMu.Lock()
			s.queue = append([]roda.Request{req}, rest...)
			s.st = stateProcessing
			s.apiMu.Unlock()
			s.hook.RequestWorkInvocation()
			return
		}

		s.apiMu.Lock()
		s.queue = rest
		if len(s.queue) > 0 {
			s.apiMu.Unlock()
			s.hook.RequestWorkInvocation()
		} else {
			s.st = stateIdle
			s.apiMu.Unlock()
		}
		client.OnRequestProcessed(resp)
		return
	}

	s.apiMu.Unlock()
}

// sanityCheck implements spec.md §4.1's per-request admission check.
func (s *RemoteAccessServer) sanityCheck(req roda.Request) error {
	size, err := roda.SerializedSize(req)
	if err != nil {
		return err
	}
	if uint32(size) > s.maxRequestSize {
		return roda.ErrRequestTooLarge
	}
	if req.MaxResponseSize() > s.maxResponseSize {
		return roda.ErrResponseTooLarge
	}
	rsiSize := uint32(req.RSIs().WireSize())
	if req.MaxResponseSize() < rsiSize || req.MaxResponseSize()-rsiSize < roda.MinUsefulResponseSize {
		return roda.ErrMinResponseSizeNotMet
	}
	return nil
}
