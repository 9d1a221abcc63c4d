// Package mux implements Multiplexer, which fans one upstream RODA
// connection out to up to 256 downstream ports, each presenting the full
// RODA surface to its own client. Grounded in the teacher's gateway
// layer (pkg/gateway/http and pkg/gateway/amqp share a single upstream
// CANopen network across many downstream sessions) for the
// one-upstream/many-downstream shape, adapted onto RODA/RODAN instead of
// the teacher's SDO client pool.
package mux

import (
	"log/slog"
	"sync"

	"github.com/canroda/roda/pkg/roda"
)

// maxPorts is the hard cap from the 8-bit port-index field packed into an
// RSI's info word (spec.md §4.3).
const maxPorts = 256

// Multiplexer fans one upstream roda.RODA connection out to up to 256
// Ports (spec.md §4.3). Locking order is strict: connectMu -> muxMu ->
// a Port's own mutex (never the reverse).
type Multiplexer struct {
	logger  *slog.Logger
	ownerID uint32

	connectMu sync.Mutex

	muxMu           sync.Mutex
	state           muxState
	upstream        roda.RODA
	ports           [maxPorts]*Port
	maxRequestSize  uint32
	maxResponseSize uint32
}

// New builds a Multiplexer. ownerID must be unique among RSI-pushing
// forwarders sharing the same upstream connection, since it is what lets
// OnRequestProcessed recognize its own stamped RSIs (spec.md §4.3
// demultiplexing).
func New(ownerID uint32, logger *slog.Logger) *Multiplexer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Multiplexer{
		logger:  logger.With("service", "[MUX]", "owner", ownerID),
		ownerID: ownerID,
		state:   muxNotConnected,
	}
}

// Connect registers this multiplexer as the sole client of upstream.
func (m *Multiplexer) Connect(upstream roda.RODA) error {
	m.connectMu.Lock()
	defer m.connectMu.Unlock()

	m.muxMu.Lock()
	if m.state != muxNotConnected {
		m.muxMu.Unlock()
		return ErrAlreadyConnected
	}
	m.upstream = upstream
	m.state = muxNotReady
	m.muxMu.Unlock()

	if err := upstream.Register(m); err != nil {
		m.muxMu.Lock()
		m.upstream = nil
		m.state = muxNotConnected
		m.muxMu.Unlock()
		return err
	}
	return nil
}

// Disconnect tears down the upstream connection and drops every port to
// NotReady (spec.md §4.3 "On upstream on_disconnected" has the same
// shape; Disconnect performs it eagerly rather than waiting for the
// callback since the caller initiated the teardown).
func (m *Multiplexer) Disconnect() {
	m.connectMu.Lock()
	defer m.connectMu.Unlock()

	m.muxMu.Lock()
	if m.state == muxNotConnected {
		m.muxMu.Unlock()
		return
	}
	upstream := m.upstream
	m.state = muxDisconnecting
	m.muxMu.Unlock()

	if upstream != nil {
		upstream.Unregister()
	}
	m.OnDisconnected()

	m.muxMu.Lock()
	m.upstream = nil
	m.state = muxNotConnected
	m.muxMu.Unlock()
}

// CreatePort allocates a new Port in the first free slot.
func (m *Multiplexer) CreatePort() (*Port, error) {
	m.muxMu.Lock()
	defer m.muxMu.Unlock()

	for i := 0; i < maxPorts; i++ {
		if m.ports[i] == nil {
			p := &Port{mux: m, index: uint8(i), state: portNoClient}
			m.ports[i] = p
			return p, nil
		}
	}
	return nil, ErrNoFreePort
}

func (m *Multiplexer) livePorts() []*Port {
	out := make([]*Port, 0, maxPorts)
	for _, p := range m.ports {
		if p != nil {
			out = append(out, p)
		}
	}
	return out
}

func subtractRSISize(size uint32) uint32 {
	if size < roda.RSISize {
		return 0
	}
	return size - roda.RSISize
}

// OnReady implements roda.RODAN for the upstream connection (spec.md §4.3
// "On upstream on_ready").
func (m *Multiplexer) OnReady(maxRequestSize, maxResponseSize uint32) {
	adjReq := subtractRSISize(maxRequestSize)
	adjResp := subtractRSISize(maxResponseSize)

	m.muxMu.Lock()
	m.maxRequestSize = adjReq
	m.maxResponseSize = adjResp
	m.state = muxReady
	ports := m.livePorts()
	m.muxMu.Unlock()

	for _, p := range ports {
		p.mu.Lock()
		transition := p.client != nil && p.state == portNotReady
		if transition {
			p.state = portReady
		}
		client := p.client
		p.mu.Unlock()
		if transition {
			client.OnReady(adjReq, adjResp)
		}
	}
}

// OnDisconnected implements roda.RODAN for the upstream connection
// (spec.md §4.3 "On upstream on_disconnected").
func (m *Multiplexer) OnDisconnected() {
	m.muxMu.Lock()
	m.state = muxNotReady
	ports := m.livePorts()
	m.muxMu.Unlock()

	for _, p := range ports {
		p.mu.Lock()
		wasReady := p.state == portReady
		if wasReady {
			p.state = portNotReady
		}
		p.loanRequested = false
		client := p.client
		p.mu.Unlock()
		if wasReady && client != nil {
			client.OnDisconnected()
		}
	}
}

// OnRequestProcessed implements roda.RODAN for the upstream connection,
// demultiplexing the response to the port it belongs to (spec.md §4.3
// "Demultiplexing a response").
func (m *Multiplexer) OnRequestProcessed(resp roda.Response) {
	rsi, err := resp.RSIs().Pop()
	if err != nil {
		panic("mux: response delivered with no RSI to demultiplex")
	}
	if rsi.ID != m.ownerID {
		panic("mux: response carries a foreign RSI, protocol fault")
	}

	i := uint8(rsi.Info >> 24)
	sid := uint8(rsi.Info & 0xFF)
	myPing := (rsi.Info>>23)&1 != 0

	m.muxMu.Lock()
	p := m.ports[i]
	m.muxMu.Unlock()
	if p == nil {
		m.logger.Warn("response for unknown port, dropping", "port", i)
		return
	}

	p.mu.Lock()
	if myPing {
		p.oldestUsedSessionID = sid
		p.mu.Unlock()
		return
	}
	deliver := p.state == portReady && sid == p.sessionID
	client := p.client
	p.mu.Unlock()

	if deliver {
		client.OnRequestProcessed(resp)
	}
}

// LoanExecutionContext implements roda.RODAN for the upstream connection,
// fanning one inbound loan out to every port with a pending loan request
// (spec.md §4.3 "On upstream loan_execution_context").
func (m *Multiplexer) LoanExecutionContext() {
	m.muxMu.Lock()
	ports := m.livePorts()
	m.muxMu.Unlock()

	rearm := false
	for _, p := range ports {
		p.mu.Lock()
		fire := p.loanRequested
		if fire {
			p.loanRequested = false
		}
		client := p.client
		p.mu.Unlock()
		if !fire || client == nil {
			continue
		}

		client.LoanExecutionContext()

		p.mu.Lock()
		if p.loanRequested {
			rearm = true
		}
		p.mu.Unlock()
	}

	if rearm {
		m.muxMu.Lock()
		upstream := m.upstream
		m.muxMu.Unlock()
		if upstream != nil {
			_ = upstream.RequestExecutionContext()
		}
	}
}
