package mux

import (
	"sync"
	"testing"

	"github.com/canroda/roda/pkg/roda"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeUpstream is a roda.RODA stand-in for the mux's upstream connection,
// recording every call so tests can assert on them directly instead of
// going through a second real server.
type fakeUpstream struct {
	mu          sync.Mutex
	registered  roda.RODAN
	sent        []roda.Request
	loanReqCalls int
}

func (f *fakeUpstream) Register(rodan roda.RODAN) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.registered = rodan
	return nil
}

func (f *fakeUpstream) Unregister() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.registered = nil
}

func (f *fakeUpstream) Send(req roda.Request) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, req)
	return nil
}

func (f *fakeUpstream) RequestExecutionContext() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.loanReqCalls++
	return nil
}

func (f *fakeUpstream) snapshot() (sent []roda.Request, loanCalls int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]roda.Request(nil), f.sent...), f.loanReqCalls
}

// fakeDownstreamClient is a roda.RODAN stand-in for a port's client.
type fakeDownstreamClient struct {
	mu         sync.Mutex
	readyCount int
	discCount  int
	loanCount  int
	responses  []roda.Response
}

func (c *fakeDownstreamClient) OnReady(maxReq, maxResp uint32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.readyCount++
}

func (c *fakeDownstreamClient) OnDisconnected() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.discCount++
}

func (c *fakeDownstreamClient) OnRequestProcessed(resp roda.Response) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.responses = append(c.responses, resp)
}

func (c *fakeDownstreamClient) LoanExecutionContext() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.loanCount++
}

func (c *fakeDownstreamClient) snapshot() (ready, disc, loan int, responses []roda.Response) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.readyCount, c.discCount, c.loanCount, append([]roda.Response(nil), c.responses...)
}

func connectedMux(t *testing.T) (*Multiplexer, *fakeUpstream) {
	t.Helper()
	m := New(42, nil)
	upstream := &fakeUpstream{}
	require.NoError(t, m.Connect(upstream))
	return m, upstream
}

func TestMuxConnectRegistersWithUpstream(t *testing.T) {
	m, upstream := connectedMux(t)
	upstream.mu.Lock()
	registered := upstream.registered
	upstream.mu.Unlock()
	assert.Same(t, m, registered)
}

func TestMuxConnectTwiceFails(t *testing.T) {
	m, _ := connectedMux(t)
	err := m.Connect(&fakeUpstream{})
	assert.ErrorIs(t, err, ErrAlreadyConnected)
}

func TestMuxCreatePortExhaustion(t *testing.T) {
	m := New(1, nil)
	for i := 0; i < maxPorts; i++ {
		_, err := m.CreatePort()
		require.NoError(t, err)
	}
	_, err := m.CreatePort()
	assert.ErrorIs(t, err, ErrNoFreePort)
}

func TestPortRegisterBeforeMuxReady(t *testing.T) {
	m, _ := connectedMux(t)
	port, err := m.CreatePort()
	require.NoError(t, err)

	client := &fakeDownstreamClient{}
	require.NoError(t, port.Register(client))

	ready, _, _, _ := client.snapshot()
	assert.Equal(t, 0, ready) // mux not ready yet, no OnReady delivered
}

func TestMuxOnReadyPropagatesToRegisteredPorts(t *testing.T) {
	m, _ := connectedMux(t)
	port, err := m.CreatePort()
	require.NoError(t, err)

	client := &fakeDownstreamClient{}
	require.NoError(t, port.Register(client))

	m.OnReady(4096, 4096)

	ready, _, _, _ := client.snapshot()
	assert.Equal(t, 1, ready)
}

func TestMuxOnReadyDoesNotDoubleDeliverToAlreadyReadyPort(t *testing.T) {
	m, _ := connectedMux(t)
	port, err := m.CreatePort()
	require.NoError(t, err)
	client := &fakeDownstreamClient{}
	require.NoError(t, port.Register(client))

	m.OnReady(4096, 4096)
	m.OnReady(4096, 4096) // a second upstream ready shouldn't re-fire for a port already Ready

	ready, _, _, _ := client.snapshot()
	assert.Equal(t, 1, ready)
}

func TestPortSendStampsRSIAndForwards(t *testing.T) {
	m, upstream := connectedMux(t)
	port, err := m.CreatePort()
	require.NoError(t, err)
	client := &fakeDownstreamClient{}
	require.NoError(t, port.Register(client))
	m.OnReady(4096, 4096)

	req, err := roda.NewReadRequest(256, 0x1000, 0, 1, roda.AccessSingleSubindex)
	require.NoError(t, err)
	require.NoError(t, port.Send(req))

	sent, _ := upstream.snapshot()
	require.Len(t, sent, 1)
	rsi, ok := sent[0].RSIs().Top()
	require.True(t, ok)
	assert.Equal(t, uint32(42), rsi.ID)
	assert.Equal(t, uint8(0), uint8(rsi.Info>>24)) // first port allocated is index 0
}

func TestPortSendBeforeReadyFails(t *testing.T) {
	m, _ := connectedMux(t)
	port, err := m.CreatePort()
	require.NoError(t, err)
	client := &fakeDownstreamClient{}
	require.NoError(t, port.Register(client))
	// mux never made Ready

	req, err := roda.NewReadRequest(256, 0x1000, 0, 1, roda.AccessSingleSubindex)
	require.NoError(t, err)
	err = port.Send(req)
	assert.ErrorIs(t, err, ErrPortNotReady)
}

func TestMuxDemultiplexesResponseToCorrectPort(t *testing.T) {
	m, upstream := connectedMux(t)
	portA, err := m.CreatePort()
	require.NoError(t, err)
	portB, err := m.CreatePort()
	require.NoError(t, err)
	clientA := &fakeDownstreamClient{}
	clientB := &fakeDownstreamClient{}
	require.NoError(t, portA.Register(clientA))
	require.NoError(t, portB.Register(clientB))
	m.OnReady(4096, 4096)

	reqA, err := roda.NewReadRequest(256, 0x1000, 0, 1, roda.AccessSingleSubindex)
	require.NoError(t, err)
	require.NoError(t, portA.Send(reqA))

	sent, _ := upstream.snapshot()
	require.Len(t, sent, 1)

	resp := roda.NewPingResponse()
	*resp.RSIs() = sent[0].RSIs().Clone()
	m.OnRequestProcessed(resp)

	_, _, _, respA := clientA.snapshot()
	_, _, _, respB := clientB.snapshot()
	assert.Len(t, respA, 1)
	assert.Empty(t, respB)
}

func TestMuxOnRequestProcessedDropsStaleSession(t *testing.T) {
	m, upstream := connectedMux(t)
	port, err := m.CreatePort()
	require.NoError(t, err)
	client := &fakeDownstreamClient{}
	require.NoError(t, port.Register(client))
	m.OnReady(4096, 4096)

	req, err := roda.NewReadRequest(256, 0x1000, 0, 1, roda.AccessSingleSubindex)
	require.NoError(t, err)
	require.NoError(t, port.Send(req))
	sent, _ := upstream.snapshot()
	stale := sent[0].RSIs().Clone()

	port.Unregister()
	require.NoError(t, port.Register(client))
	m.OnReady(4096, 4096) // Register re-stamped the session (mux already Ready); this makes the port Ready again

	resp := roda.NewPingResponse()
	*resp.RSIs() = stale
	m.OnRequestProcessed(resp)

	_, _, _, responses := client.snapshot()
	assert.Empty(t, responses) // stale session id, dropped silently
}

func TestMuxOnDisconnectedNotifiesOnlyReadyPorts(t *testing.T) {
	m, _ := connectedMux(t)
	port, err := m.CreatePort()
	require.NoError(t, err)
	client := &fakeDownstreamClient{}
	require.NoError(t, port.Register(client))
	m.OnReady(4096, 4096)

	m.OnDisconnected()

	_, disc, _, _ := client.snapshot()
	assert.Equal(t, 1, disc)
}

func TestMuxLoanExecutionContextFansOutToRequestingPorts(t *testing.T) {
	m, _ := connectedMux(t)
	portA, err := m.CreatePort()
	require.NoError(t, err)
	portB, err := m.CreatePort()
	require.NoError(t, err)
	clientA := &fakeDownstreamClient{}
	clientB := &fakeDownstreamClient{}
	require.NoError(t, portA.Register(clientA))
	require.NoError(t, portB.Register(clientB))
	m.OnReady(4096, 4096)

	require.NoError(t, portA.RequestExecutionContext())

	m.LoanExecutionContext()

	_, _, loanA, _ := clientA.snapshot()
	_, _, loanB, _ := clientB.snapshot()
	assert.Equal(t, 1, loanA)
	assert.Equal(t, 0, loanB)
}

func TestMuxDisconnectTearsDownUpstream(t *testing.T) {
	m, upstream := connectedMux(t)
	m.Disconnect()

	upstream.mu.Lock()
	registered := upstream.registered
	upstream.mu.Unlock()
	assert.Nil(t, registered)

	err := m.Connect(&fakeUpstream{})
	assert.NoError(t, err)
}
