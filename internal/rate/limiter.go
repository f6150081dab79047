package rate

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	xrate "golang.org/x/time/rate"
)

// Category names one class of outgoing RPC call. Waits never cross
// categories.
type Category string

const (
	// CategoryAuth covers the login handshake and session validation calls.
	CategoryAuth Category = "auth"
	// CategoryJoin covers invite import and channel join calls.
	CategoryJoin Category = "join"
	// CategoryResolve covers username resolution calls.
	CategoryResolve Category = "resolve"
	// CategoryDialogs covers dialog-list pagination calls.
	CategoryDialogs Category = "dialogs"
)

// Clock abstracts time so wait scenarios are testable without sleeping.
type Clock interface {
	Now() time.Time
	After(d time.Duration) <-chan time.Time
}

// WaitError reports that a category is closed until RetryAfter elapses. It is
// returned before the transport is contacted.
type WaitError struct {
	Category   Category
	RetryAfter time.Duration
}

func (e *WaitError) Error() string {
	return fmt.Sprintf("category %s closed for %s", e.Category, e.RetryAfter)
}

// Config tunes limiter behavior.
type Config struct {
	// NonBlocking returns a WaitError instead of sleeping until the category
	// reopens.
	NonBlocking bool
	// MaxWait refuses to block on waits longer than this even in blocking
	// mode; the WaitError is returned instead. Zero means no cap.
	MaxWait time.Duration
	// Pace configures proactive steady-state pacing per category, in events
	// per second. Categories without an entry are unpaced.
	Pace map[Category]float64
}

// Limiter is the process-wide rate gate wrapped around every outgoing call.
// It is safe for concurrent use across accounts and categories.
type Limiter struct {
	state  State
	config Config
	clock  Clock

	pacers map[Category]*xrate.Limiter
}

// New builds a limiter over the given wait state.
func New(state State, cfg Config, clock Clock) *Limiter {
	pacers := make(map[Category]*xrate.Limiter, len(cfg.Pace))
	for category, perSecond := range cfg.Pace {
		if perSecond > 0 {
			pacers[category] = xrate.NewLimiter(xrate.Limit(perSecond), 1)
		}
	}
	return &Limiter{state: state, config: cfg, clock: clock, pacers: pacers}
}

// Acquire admits one call in the category. If a recorded flood wait is still
// running it either blocks until the category reopens (default) or fails
// immediately with a [*WaitError]; the configured pacer is applied afterwards.
// After each blocking sleep the deadline is re-read, so a flood wait recorded
// by another goroutine mid-sleep is still honored. Context cancellation aborts
// any blocking with the context's error.
func (l *Limiter) Acquire(ctx context.Context, category Category) error {
	for {
		until, err := l.state.NextAllowed(ctx, category)
		if err != nil {
			return err
		}
		wait := until.Sub(l.clock.Now())
		if wait <= 0 {
			break
		}
		if l.config.NonBlocking || (l.config.MaxWait > 0 && wait > l.config.MaxWait) {
			return &WaitError{Category: category, RetryAfter: wait}
		}
		select {
		case <-l.clock.After(wait):
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	if pacer := l.pacers[category]; pacer != nil {
		if l.config.NonBlocking {
			reservation := pacer.Reserve()
			if delay := reservation.Delay(); delay > 0 {
				reservation.Cancel()
				return &WaitError{Category: category, RetryAfter: delay}
			}
			return nil
		}
		if err := pacer.Wait(ctx); err != nil {
			return err
		}
	}
	return nil
}

// RecordFloodWait stores now+duration as the category's next-allowed time.
// Later calls in the category fail or block locally until it passes; other
// categories are unaffected.
func (l *Limiter) RecordFloodWait(ctx context.Context, category Category, duration time.Duration) error {
	if duration <= 0 {
		return nil
	}
	return l.state.RecordWait(ctx, category, l.clock.Now().Add(duration))
}

// State is the per-category next-allowed-timestamp table. Implementations
// must be safe for concurrent use and must never move a recorded time
// backwards.
type State interface {
	NextAllowed(ctx context.Context, category Category) (time.Time, error)
	RecordWait(ctx context.Context, category Category, until time.Time) error
}

// MemoryState is the default process-wide [State]: one atomic unix-nano
// timestamp per category, updated by compare-and-set so concurrent flood
// waits keep the furthest deadline.
type MemoryState struct {
	mu    sync.Mutex
	cells map[Category]*atomic.Int64
}

// NewMemoryState returns an empty in-process wait table.
func NewMemoryState() *MemoryState {
	return &MemoryState{cells: make(map[Category]*atomic.Int64)}
}

func (m *MemoryState) cell(category Category) *atomic.Int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.cells[category]
	if !ok {
		c = &atomic.Int64{}
		m.cells[category] = c
	}
	return c
}

// NextAllowed implements [State].
func (m *MemoryState) NextAllowed(_ context.Context, category Category) (time.Time, error) {
	nanos := m.cell(category).Load()
	if nanos == 0 {
		return time.Time{}, nil
	}
	return time.Unix(0, nanos), nil
}

// RecordWait implements [State].
func (m *MemoryState) RecordWait(_ context.Context, category Category, until time.Time) error {
	cell := m.cell(category)
	target := until.UnixNano()
	for {
		current := cell.Load()
		if current >= target {
			return nil
		}
		if cell.CompareAndSwap(current, target) {
			return nil
		}
	}
}
