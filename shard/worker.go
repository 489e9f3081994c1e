package shard

import (
	"sync"

	"go.trai.ch/zerr"
)

/*
Worker runs submitted functions one at a time, in submission order, on a single
background goroutine.

The queue is unbounded: Submit never blocks. That matters because the two
workers of a shard feed each other (the loop hands deliveries to the dispatcher,
observers on the dispatcher call back into the loop), and a bounded queue in
either direction could deadlock.
*/
type Worker struct {
	mu     sync.Mutex
	queue  []func()
	closed bool

	// wake is a one-slot doorbell. A pending ring is enough to drain everything queued.
	wake chan struct{}

	// onPanic receives panics recovered from submitted functions.
	onPanic func(error)

	wg sync.WaitGroup
}

// NewWorker starts a worker. onPanic may be nil.
func NewWorker(onPanic func(error)) *Worker {
	w := &Worker{
		wake:    make(chan struct{}, 1),
		onPanic: onPanic,
	}

	w.wg.Add(1)
	go w.run()

	return w
}

// Submit queues fn. It returns false once the worker is closed.
func (w *Worker) Submit(fn func()) bool {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return false
	}
	w.queue = append(w.queue, fn)
	w.mu.Unlock()

	w.ring()
	return true
}

/*
Close stops accepting work, runs everything already queued, and waits for the
goroutine to exit. It must not be called from a function running on this worker.
*/
func (w *Worker) Close() {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		w.wg.Wait()
		return
	}
	w.closed = true
	w.mu.Unlock()

	w.ring()
	w.wg.Wait()
}

func (w *Worker) ring() {
	select {
	case w.wake <- struct{}{}:
	default:
	}
}

func (w *Worker) run() {
	defer w.wg.Done()

	for {
		w.mu.Lock()
		batch := w.queue
		w.queue = nil
		closed := w.closed
		w.mu.Unlock()

		for _, fn := range batch {
			w.exec(fn)
		}

		if len(batch) > 0 {
			continue
		}
		if closed {
			return
		}
		<-w.wake
	}
}

func (w *Worker) exec(fn func()) {
	defer zerr.Defer(func(err error) {
		if w.onPanic != nil {
			w.onPanic(err)
		}
	})
	fn()
}
