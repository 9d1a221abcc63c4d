package roda

// RODAN is implemented by the client of a remote OD access connection to
// receive asynchronous notifications (spec.md §2, §6.3). Every method
// must be noexcept: an implementation must never panic except to signal
// an unrecoverable protocol violation, and must never block for long —
// the calling worker thread is shared (spec.md §5 "noexcept contract").
type RODAN interface {
	// OnReady announces the connection is usable and the request/
	// response size ceilings currently in effect.
	OnReady(maxRequestSize, maxResponseSize uint32)
	// OnDisconnected announces the connection is no longer usable; no
	// further notification fires until a subsequent OnReady.
	OnDisconnected()
	// OnRequestProcessed delivers the response to a previously sent
	// request, with its RSI stack moved across from the request.
	OnRequestProcessed(resp Response)
	// LoanExecutionContext is delivered once per RequestExecutionContext
	// call (calls may coalesce); it grants the client a turn on the
	// worker thread to perform bookkeeping that needs it.
	LoanExecutionContext()
}

// RODA is implemented by a remote OD access server (RemoteAccessServer,
// or a Multiplexer Port) and consumed by clients (spec.md §6.3).
type RODA interface {
	// Register installs rodan as the sole client of this connection.
	Register(rodan RODAN) error
	// Unregister removes the current client, blocking until any
	// in-flight RODAN callback to it returns. No callback fires after
	// Unregister returns.
	Unregister()
	// Send enqueues req for dispatch. On success the caller must treat
	// req as consumed (ownership transferred); on error req is
	// untouched and may be retried or discarded.
	Send(req Request) error
	// RequestExecutionContext asks for a future LoanExecutionContext
	// callback.
	RequestExecutionContext() error
}
