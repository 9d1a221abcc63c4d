package main

import (
	"sync"
	"time"

	"github.com/canroda/roda/pkg/roda"
)

// demoClient is a minimal roda.RODAN implementation that records
// notifications for the demo binary to poll, rather than doing anything
// with them itself.
type demoClient struct {
	mu        sync.Mutex
	ready     chan struct{}
	responses []roda.Response
	gotResp   chan struct{}
}

func newDemoClient() *demoClient {
	return &demoClient{
		ready:   make(chan struct{}),
		gotResp: make(chan struct{}, 64),
	}
}

func (c *demoClient) OnReady(maxRequestSize, maxResponseSize uint32) {
	close(c.ready)
}

func (c *demoClient) OnDisconnected() {}

func (c *demoClient) OnRequestProcessed(resp roda.Response) {
	c.mu.Lock()
	c.responses = append(c.responses, resp)
	c.mu.Unlock()
	select {
	case c.gotResp <- struct{}{}:
	default:
	}
}

func (c *demoClient) LoanExecutionContext() {}

func (c *demoClient) waitReady(timeout time.Duration) {
	select {
	case <-c.ready:
	case <-time.After(timeout):
	}
}

func (c *demoClient) waitResponses(n int, timeout time.Duration) {
	deadline := time.After(timeout)
	for {
		c.mu.Lock()
		have := len(c.responses)
		c.mu.Unlock()
		if have >= n {
			return
		}
		select {
		case <-c.gotResp:
		case <-deadline:
			return
		}
	}
}

func (c *demoClient) drain() []roda.Response {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := c.responses
	c.responses = nil
	return out
}
