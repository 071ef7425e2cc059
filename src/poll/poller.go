package poll

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	logger "github.com/sirupsen/logrus"
)

type State int

const (
	StateIdle State = iota
	StateLoading
	StateReady
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	case StateFailed:
		return "failed"
	}
	return "unknown"
}

// Status is a point-in-time view of a poller. HasValue stays true across
// failed ticks: the last good snapshot is retained for display and Err is
// raised alongside it.
type Status[T any] struct {
	State    State
	Value    T
	HasValue bool
	Err      error
	LastSync time.Time
}

type Fetch[T any] func(ctx context.Context) (T, error)

// Poller repeatedly fetches one resource on a fixed interval and folds the
// results into a guarded snapshot. Fetches never overlap: the loop issues the
// next one only after the previous settled. Applied results are monotonic in
// fetch start order, enforced by a sequence token, so a slow tick can never
// clobber a newer one.
type Poller[T any] struct {
	name     string
	interval time.Duration
	fetch    Fetch[T]

	seq atomic.Uint64

	mu       sync.Mutex
	applied  uint64
	value    T
	hasValue bool
	err      error
	loading  bool
	lastSync time.Time
	running  bool
	cancel   context.CancelFunc
	onUpdate func(Status[T])

	kick chan struct{}
}

func NewPoller[T any](name string, interval time.Duration, fetch Fetch[T]) *Poller[T] {
	return &Poller[T]{
		name:     name,
		interval: interval,
		fetch:    fetch,
		kick:     make(chan struct{}, 1),
	}
}

// OnUpdate registers a callback invoked after every applied result, outside
// the poller lock. At most one callback is supported.
func (p *Poller[T]) OnUpdate(fn func(Status[T])) *Poller[T] {
	p.mu.Lock()
	p.onUpdate = fn
	p.mu.Unlock()
	return p
}

// Start begins the poll loop and returns its release handle. Consumers must
// call the handle (or Stop) symmetrically with Start; a result resolving
// after Stop is discarded without touching the snapshot.
func (p *Poller[T]) Start(ctx context.Context) (stop func()) {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return p.Stop
	}
	runCtx, cancel := context.WithCancel(ctx)
	p.running = true
	p.cancel = cancel
	p.mu.Unlock()

	logger.WithField("poller", p.name).Debug("poll loop started")
	go p.run(runCtx)
	return p.Stop
}

func (p *Poller[T]) Stop() {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return
	}
	p.running = false
	// discard every in-flight fetch
	p.applied = p.seq.Load()
	p.loading = false
	cancel := p.cancel
	p.cancel = nil
	p.mu.Unlock()

	cancel()
	logger.WithField("poller", p.name).Debug("poll loop stopped")
}

// Kick requests an immediate out-of-band fetch, used by mutation controllers
// to reconcile right after a write. Coalesces if one is already pending.
func (p *Poller[T]) Kick() {
	select {
	case p.kick <- struct{}{}:
	default:
	}
}

// Invalidate drops the current snapshot and every in-flight fetch, returning
// the poller to a loading state. The paged view uses it when page parameters
// change and the cached page no longer means anything.
func (p *Poller[T]) Invalidate() {
	p.mu.Lock()
	p.applied = p.seq.Load()
	var zero T
	p.value = zero
	p.hasValue = false
	p.err = nil
	p.loading = true
	p.mu.Unlock()
}

func (p *Poller[T]) Status() Status[T] {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.statusLocked()
}

func (p *Poller[T]) statusLocked() Status[T] {
	st := Status[T]{
		Value:    p.value,
		HasValue: p.hasValue,
		Err:      p.err,
		LastSync: p.lastSync,
	}
	switch {
	case p.err != nil:
		st.State = StateFailed
	case p.hasValue:
		st.State = StateReady
	case p.loading:
		st.State = StateLoading
	default:
		st.State = StateIdle
	}
	return st
}

func (p *Poller[T]) run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.runFetch(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.runFetch(ctx)
		case <-p.kick:
			p.runFetch(ctx)
		}
	}
}

// runFetch issues exactly one fetch and applies its result under the
// sequence guard. It runs on the loop goroutine, so ticks cannot overlap and
// the next tick is scheduled strictly after this one settles.
func (p *Poller[T]) runFetch(ctx context.Context) {
	seq := p.seq.Add(1)

	p.mu.Lock()
	p.loading = true
	p.mu.Unlock()

	value, err := p.fetch(ctx)
	if ctx.Err() != nil {
		return
	}
	p.apply(seq, value, err)
}

func (p *Poller[T]) apply(seq uint64, value T, err error) {
	p.mu.Lock()
	if seq <= p.applied {
		p.mu.Unlock()
		return
	}
	p.applied = seq
	p.loading = false
	if err != nil {
		// keep the previous snapshot, surface the failure alongside it
		p.err = err
	} else {
		p.err = nil
		p.value = value
		p.hasValue = true
		p.lastSync = time.Now()
	}
	st := p.statusLocked()
	fn := p.onUpdate
	p.mu.Unlock()

	if err != nil {
		logger.WithError(err).WithField("poller", p.name).Warn("poll tick failed")
	}
	if fn != nil {
		fn(st)
	}
}
