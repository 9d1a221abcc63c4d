// Package workhook provides concrete WorkHook drivers for
// pkg/server.RemoteAccessServer: OwnThread gives a server a dedicated
// goroutine, SharedQueue lets many servers share one (spec.md §9 "Work
// hook abstraction" — these drivers are deliberately outside the core
// server package). Grounded on the teacher's pkg/node/controller.go
// NodeProcessor, which drives periodic processing on a dedicated
// goroutine with context cancellation; adapted here to an event-driven
// wakeup since server work is request-triggered, not cyclic.
package workhook

import (
	"context"
	"log/slog"
	"sync"
)

// Worker is implemented by anything a WorkHook drives. One Work() call
// performs exactly one unit of progress;
// *pkg/server.RemoteAccessServer satisfies this.
type Worker interface {
	Work()
}

// OwnThread drives a single Worker on a dedicated goroutine, woken by a
// one-slot buffered channel whenever RequestWorkInvocation is called.
// Coalescing multiple unprocessed calls into that one slot is exactly
// the hook contract's "multiple unprocessed calls may coalesce"
// (spec.md §4.2).
type OwnThread struct {
	logger *slog.Logger
	worker Worker

	wake   chan struct{}
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewOwnThread builds a hook bound to worker.
func NewOwnThread(worker Worker, logger *slog.Logger) *OwnThread {
	if logger == nil {
		logger = slog.Default()
	}
	return &OwnThread{
		logger: logger.With("service", "[WORKHOOK]", "driver", "own-thread"),
		worker: worker,
		wake:   make(chan struct{}, 1),
	}
}

// RequestWorkInvocation implements server.WorkHook.
func (t *OwnThread) RequestWorkInvocation() {
	select {
	case t.wake <- struct{}{}:
	default:
	}
}

// Start launches the background goroutine; it runs until ctx is done or
// Stop is called.
func (t *OwnThread) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	t.cancel = cancel
	t.wg.Add(1)
	go t.run(ctx)
}

func (t *OwnThread) run(ctx context.Context) {
	defer t.wg.Done()
	t.logger.Info("starting work loop")
	for {
		select {
		case <-ctx.Done():
			t.logger.Info("exited work loop")
			return
		case <-t.wake:
			t.worker.Work()
		}
	}
}

// Stop cancels the background goroutine and waits for it to exit.
func (t *OwnThread) Stop() {
	if t.cancel != nil {
		t.cancel()
	}
	t.wg.Wait()
}

// SharedQueue lets many Workers share one background goroutine instead of
// each getting a dedicated thread (spec.md §5 "or one logical worker
// provided by a shared queue"). Call HookFor once per Worker to obtain
// the WorkHook to register with it.
type SharedQueue struct {
	logger *slog.Logger

	mu      sync.Mutex
	pending map[Worker]struct{}
	wake    chan struct{}
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewSharedQueue builds an empty shared queue.
func NewSharedQueue(logger *slog.Logger) *SharedQueue {
	if logger == nil {
		logger = slog.Default()
	}
	return &SharedQueue{
		logger:  logger.With("service", "[WORKHOOK]", "driver", "shared-queue"),
		pending: make(map[Worker]struct{}),
		wake:    make(chan struct{}, 1),
	}
}

// HookFor returns a WorkHook bound to worker on this shared queue.
func (q *SharedQueue) HookFor(worker Worker) *SharedQueueHook {
	return &SharedQueueHook{queue: q, worker: worker}
}

// SharedQueueHook is the per-Worker handle handed to a server as its
// WorkHook.
type SharedQueueHook struct {
	queue  *SharedQueue
	worker Worker
}

// RequestWorkInvocation implements server.WorkHook.
func (h *SharedQueueHook) RequestWorkInvocation() {
	h.queue.mu.Lock()
	h.queue.pending[h.worker] = struct{}{}
	h.queue.mu.Unlock()

	select {
	case h.queue.wake <- struct{}{}:
	default:
	}
}

// Start launches the queue's background goroutine.
func (q *SharedQueue) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	q.cancel = cancel
	q.wg.Add(1)
	go q.run(ctx)
}

func (q *SharedQueue) run(ctx context.Context) {
	defer q.wg.Done()
	q.logger.Info("starting shared work loop")
	for {
		select {
		case <-ctx.Done():
			q.logger.Info("exited shared work loop")
			return
		case <-q.wake:
			q.drain()
		}
	}
}

// drain calls Work() on every worker that had a pending request at the
// time it's picked, re-checking pending after each call so a worker that
// re-arms itself (e.g. a multi-request queue) is served again without
// waiting for a fresh wake.
func (q *SharedQueue) drain() {
	for {
		q.mu.Lock()
		if len(q.pending) == 0 {
			q.mu.Unlock()
			return
		}
		var worker Worker
		for w := range q.pending {
			worker = w
			break
		}
		delete(q.pending, worker)
		q.mu.Unlock()

		worker.Work()
	}
}

// Stop cancels the background goroutine and waits for it to exit.
func (q *SharedQueue) Stop() {
	if q.cancel != nil {
		q.cancel()
	}
	q.wg.Wait()
}
