package mux

import (
	"sync"

	"github.com/canroda/roda/pkg/roda"
)

// myPingBit marks the high bit of an RSI's info word that a port's
// flush-ping stamps on itself, so OnRequestProcessed can tell a
// session-flush ping's own response apart from an ordinary forwarded
// response (spec.md §4.3 "the high myPing bit marks it").
const myPingBit = 1 << 23

// Port is one of a Multiplexer's downstream connection points,
// presenting the full roda.RODA surface to its own client (spec.md
// §4.3). A Port is jointly owned by its Multiplexer and by whichever
// external holder keeps a reference to it; once created it stays in its
// Multiplexer slot, and no operation removes or destroys it.
type Port struct {
	mu  sync.Mutex
	mux *Multiplexer

	index uint8

	state               portState
	client              roda.RODAN
	sessionID           uint8
	oldestUsedSessionID uint8
	sessionIDUsed       bool
	loanRequested       bool
}

var _ roda.RODA = (*Port)(nil)

// Register installs rodan as this port's client, stamping a fresh
// session id if the mux is Ready (spec.md §4.3 "Session-ID stamping on
// registration").
func (p *Port) Register(rodan roda.RODAN) error {
	p.mux.muxMu.Lock()
	p.mu.Lock()

	if p.client != nil {
		p.mu.Unlock()
		p.mux.muxMu.Unlock()
		return ErrPortAlreadyRegistered
	}
	p.client = rodan

	if p.mux.state != muxReady {
		p.state = portNotReady
		p.mu.Unlock()
		p.mux.muxMu.Unlock()
		return nil
	}

	next := p.sessionID + 1
	if next == p.oldestUsedSessionID {
		p.client = nil
		p.mu.Unlock()
		p.mux.muxMu.Unlock()
		return ErrNoSessionIDAvailable
	}

	upstream := p.mux.upstream
	owner := p.mux.ownerID
	needPing := p.sessionIDUsed
	idx := p.index

	p.sessionID = next
	p.sessionIDUsed = false
	p.state = portNotReady

	p.mu.Unlock()
	p.mux.muxMu.Unlock()

	_ = upstream.RequestExecutionContext()

	if needPing {
		// Room for the response floor plus this ping's own RSI stack
		// (count byte and one entry), which the server subtracts first.
		ping := roda.NewPingRequest(roda.MinUsefulResponseSize + 1 + roda.RSISize)
		_ = ping.RSIs().Push(roda.RSI{
			ID:   owner,
			Info: uint32(idx)<<24 | myPingBit | uint32(next),
		})
		_ = upstream.Send(ping)
	}

	return nil
}

// Unregister drops this port's client.
func (p *Port) Unregister() {
	p.mux.muxMu.Lock()
	p.mu.Lock()
	defer p.mu.Unlock()
	defer p.mux.muxMu.Unlock()

	p.client = nil
	p.state = portNoClient
	p.loanRequested = false
}

// Send forwards req upstream with an RSI stamped identifying this port
// and session (spec.md §4.3 "Forwarding a request from port i"). Locking
// here takes only port_mutex, per the discipline that keeps
// client-to-server calls deadlock-free against server-to-client
// callbacks (which hold mux_mutex).
func (p *Port) Send(req roda.Request) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state != portReady {
		return ErrPortNotReady
	}

	rsi := roda.RSI{ID: p.mux.ownerID, Info: uint32(p.index)<<24 | uint32(p.sessionID)}
	if err := req.RSIs().Push(rsi); err != nil {
		return err
	}

	if err := p.mux.upstream.Send(req); err != nil {
		_, _ = req.RSIs().Pop() // undo the push: strong exception guarantee
		return err
	}
	p.sessionIDUsed = true
	return nil
}

// RequestExecutionContext forwards the loan request upstream and flags
// this port for LoanExecutionContext fan-out (spec.md §4.3 "On upstream
// loan_execution_context").
func (p *Port) RequestExecutionContext() error {
	p.mu.Lock()
	if p.state != portReady {
		p.mu.Unlock()
		return ErrPortNotReady
	}
	p.loanRequested = true
	upstream := p.mux.upstream
	p.mu.Unlock()

	return upstream.RequestExecutionContext()
}
