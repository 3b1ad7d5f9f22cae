package internal

import (
	"context"
	"sync"
	"time"
)

// DefaultSaveDelay is how long the persister waits for further changes
// before writing a scheduled snapshot
const DefaultSaveDelay = 200 * time.Millisecond

// SaveFunc writes a full transcript snapshot
type SaveFunc func(ctx context.Context, t Transcript) error

// Persister writes transcript snapshots on a background goroutine. Only the
// newest scheduled snapshot is kept, so bursts of changes collapse into one
// write.
type Persister struct {
	save  SaveFunc
	delay time.Duration

	mu       sync.Mutex
	pending  Transcript
	hasWork  bool
	gen      uint64 // generation of the newest scheduled snapshot
	doneGen  uint64 // generation of the last attempted write
	lastErr  error  // result of the last attempted write
	settled  chan struct{}
	closed   bool
	kick     chan struct{}
	urgent   chan struct{}
	quit     chan struct{}
	finished chan struct{}
}

// NewPersister starts the background writer. A delay <= 0 writes as soon as
// a snapshot is scheduled.
func NewPersister(save SaveFunc, delay time.Duration) *Persister {
	p := &Persister{
		save:     save,
		delay:    delay,
		settled:  make(chan struct{}),
		kick:     make(chan struct{}, 1),
		urgent:   make(chan struct{}, 1),
		quit:     make(chan struct{}),
		finished: make(chan struct{}),
	}
	go p.run()
	return p
}

// Schedule queues t to be written. It never blocks on I/O.
func (p *Persister) Schedule(t Transcript) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		LogWarn("Dropping transcript snapshot of %d message(s): persister closed", len(t))
		return
	}
	p.pending = t.Clone()
	p.hasWork = true
	p.gen++
	p.mu.Unlock()

	signal(p.kick)
}

// Flush blocks until every snapshot scheduled before the call has been
// written, returning the error of the write that covered it.
func (p *Persister) Flush(ctx context.Context) error {
	p.mu.Lock()
	target := p.gen
	p.mu.Unlock()

	for {
		p.mu.Lock()
		if p.doneGen >= target {
			err := p.lastErr
			p.mu.Unlock()
			return err
		}
		if p.closed && !p.hasWork {
			p.mu.Unlock()
			return ErrPersisterClosed
		}
		settled := p.settled
		p.mu.Unlock()

		signal(p.urgent)
		signal(p.kick)

		select {
		case <-settled:
		case <-p.finished:
			p.mu.Lock()
			done := p.doneGen >= target
			err := p.lastErr
			p.mu.Unlock()
			if done {
				return err
			}
			return ErrPersisterClosed
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Close writes any pending snapshot and stops the background goroutine
func (p *Persister) Close(ctx context.Context) error {
	p.mu.Lock()
	if !p.closed {
		p.closed = true
		close(p.quit)
	}
	p.mu.Unlock()

	select {
	case <-p.finished:
	case <-ctx.Done():
		return ctx.Err()
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastErr
}

func (p *Persister) run() {
	defer close(p.finished)
	for {
		select {
		case <-p.kick:
		case <-p.quit:
			p.write()
			return
		}

		if p.delay > 0 {
			timer := time.NewTimer(p.delay)
			select {
			case <-timer.C:
			case <-p.urgent:
				timer.Stop()
			case <-p.quit:
				timer.Stop()
				p.write()
				return
			}
		}

		p.write()

		// a Flush that arrived during the write is already served
		select {
		case <-p.urgent:
		default:
		}
	}
}

func (p *Persister) write() {
	p.mu.Lock()
	if !p.hasWork {
		p.mu.Unlock()
		return
	}
	snapshot := p.pending
	gen := p.gen
	p.pending = nil
	p.hasWork = false
	p.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	err := p.save(ctx, snapshot)
	cancel()

	if err != nil {
		LogError("Failed to save transcript (%d message(s)): %v", len(snapshot), err)
	} else {
		LogDebug("Saved transcript (%d message(s))", len(snapshot))
	}

	p.mu.Lock()
	p.doneGen = gen
	p.lastErr = err
	close(p.settled)
	p.settled = make(chan struct{})
	p.mu.Unlock()
}

// signal does a non-blocking send on a 1-buffered channel
func signal(ch chan struct{}) {
	select {
	case ch <- struct{}{}:
	default:
	}
}
