package engine

import (
	"context"
	"sync"
	"time"

	"github.com/dmitrijs2005/mediminder/internal/client/remote"
	"github.com/dmitrijs2005/mediminder/internal/logging"
)

type jobKey struct {
	userID string
	target string
}

type pushJob struct {
	key jobKey
	id  remote.Identity
	run func(ctx context.Context, id remote.Identity) error
}

// writer pushes local saves to the remote on one background goroutine.
// Jobs are coalesced per (identity, target): a full-replace save supersedes
// any queued save of the same collection, so only the latest payload is sent.
type writer struct {
	mu      sync.Mutex
	cond    *sync.Cond
	pending map[jobKey]pushJob
	order   []jobKey
	busy    bool
	current jobKey
	closed  bool
	done    chan struct{}

	timeout time.Duration
	logger  logging.Logger
}

func newWriter(timeout time.Duration, logger logging.Logger) *writer {
	w := &writer{
		pending: make(map[jobKey]pushJob),
		done:    make(chan struct{}),
		timeout: timeout,
		logger:  logger,
	}
	w.cond = sync.NewCond(&w.mu)
	go w.loop()
	return w
}

func (w *writer) enqueue(j pushJob) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return
	}
	if _, queued := w.pending[j.key]; !queued {
		w.order = append(w.order, j.key)
	}
	w.pending[j.key] = j
	w.cond.Broadcast()
}

func (w *writer) next() (pushJob, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	for len(w.order) == 0 {
		if w.closed {
			return pushJob{}, false
		}
		w.cond.Wait()
	}
	key := w.order[0]
	w.order = w.order[1:]
	j := w.pending[key]
	delete(w.pending, key)
	w.busy = true
	w.current = key
	return j, true
}

func (w *writer) loop() {
	defer close(w.done)
	for {
		j, ok := w.next()
		if !ok {
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), w.timeout)
		if err := j.run(ctx, j.id); err != nil {
			// The local value stays; it already is the caller's intent.
			w.logger.Warn(ctx, "remote push failed",
				"user", j.key.userID, "target", j.key.target, "error", err)
		}
		cancel()

		w.mu.Lock()
		w.busy = false
		w.cond.Broadcast()
		w.mu.Unlock()
	}
}

// pendingFor reports whether a push for key is queued or running.
func (w *writer) pendingFor(key jobKey) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.busy && w.current == key {
		return true
	}
	_, ok := w.pending[key]
	return ok
}

// flush blocks until the queue is empty and no push is running.
func (w *writer) flush() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for len(w.order) > 0 || w.busy {
		w.cond.Wait()
	}
}

// close drains the queue and stops the goroutine.
func (w *writer) close() {
	w.mu.Lock()
	w.closed = true
	w.cond.Broadcast()
	w.mu.Unlock()
	<-w.done
}
