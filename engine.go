package goUserbot

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/MrEthical07/goUserbot/internal/rate"
	"github.com/MrEthical07/goUserbot/internal/rpc"
	"github.com/MrEthical07/goUserbot/session"
)

// Engine is the userbot core: the authentication state machine, the
// rate-limited RPC gate, and the channel join/listing operations. Build one
// through [Builder.Build]; methods are safe for concurrent use afterwards.
// Operations against the same account identity are serialized internally.
type Engine struct {
	config    Config
	transport Transport
	sessions  session.Store
	limiter   *rate.Limiter
	clock     Clock
	audit     *auditDispatcher
	metrics   *Metrics

	identityLocks sync.Map // identity -> *sync.Mutex
}

// Close flushes and stops the audit dispatcher. The engine must not be used
// afterwards.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	if e.audit != nil {
		e.audit.Close()
	}
}

// MetricsSnapshot copies the current counter values.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{Counters: map[MetricID]uint64{}}
	}
	return e.metrics.Snapshot()
}

// AuditDropped reports how many audit events were discarded because the
// buffer was full.
func (e *Engine) AuditDropped() uint64 {
	if e == nil || e.audit == nil {
		return 0
	}
	return e.audit.Dropped()
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(id)
}

// identityLock returns the mutex serializing all operations for one account
// identity, creating it on first use. Locks are never removed; the set of
// identities a process drives is small and stable.
func (e *Engine) identityLock(identity string) *sync.Mutex {
	if actual, ok := e.identityLocks.Load(identity); ok {
		return actual.(*sync.Mutex)
	}
	actual, _ := e.identityLocks.LoadOrStore(identity, &sync.Mutex{})
	return actual.(*sync.Mutex)
}

// loadOrInitSession loads the persisted session for the identity, or returns
// a fresh Unauthenticated one when none exists. The caller must hold the
// identity lock.
func (e *Engine) loadOrInitSession(ctx context.Context, identity string) (*session.Session, error) {
	s, err := e.sessions.Load(ctx, identity)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			now := e.clock.Now().Unix()
			return &session.Session{Identity: identity, CreatedAt: now, UpdatedAt: now}, nil
		}
		return nil, fmt.Errorf("%w: %v", ErrPersistenceFailure, err)
	}
	return s, nil
}

// persist writes the session through the store, stamping UpdatedAt. Every
// state transition goes through here before success is reported.
func (e *Engine) persist(ctx context.Context, s *session.Session) error {
	s.UpdatedAt = e.clock.Now().Unix()
	if err := e.sessions.Save(ctx, s.Identity, s); err != nil {
		return fmt.Errorf("%w: %v", ErrPersistenceFailure, err)
	}
	return nil
}

// invoke is the single path for outgoing RPC calls: rate gate, per-call
// timeout, transport call, flood-wait capture. Remote rejections with codes
// the flows interpret are returned as *RemoteError; everything else is mapped
// into the taxonomy here.
func (e *Engine) invoke(ctx context.Context, category rate.Category, method string, params map[string]any) (rpc.Object, error) {
	if err := e.limiter.Acquire(ctx, category); err != nil {
		var wait *rate.WaitError
		if errors.As(err, &wait) {
			e.metricInc(MetricThrottled)
			return nil, &RateLimitedError{
				Category:   string(wait.Category),
				RetryAfter: wait.RetryAfter,
				Local:      true,
			}
		}
		if errors.Is(err, rate.ErrBackendUnavailable) {
			return nil, fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
		}
		return nil, err
	}

	callCtx := ctx
	if timeout := e.config.Transport.CallTimeout; timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	resp, err := e.transport.Call(callCtx, method, params)
	if err != nil {
		return nil, e.mapCallError(ctx, category, err)
	}
	return resp, nil
}

func (e *Engine) mapCallError(ctx context.Context, category rate.Category, err error) error {
	var remote *RemoteError
	if errors.As(err, &remote) {
		if wait, ok := rpc.FloodWait(remote.Code); ok {
			// Record first so the category stays closed even if the caller
			// ignores the error.
			_ = e.limiter.RecordFloodWait(ctx, category, wait)
			e.metricInc(MetricFloodWait)
			return &RateLimitedError{Category: string(category), RetryAfter: wait}
		}
		return remote
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%w: %v", ErrTransportTimeout, err)
	case errors.Is(err, context.Canceled):
		return err
	}
	return fmt.Errorf("%w: %v", ErrTransportFailure, err)
}

// remoteCode extracts the machine-readable code when err is a remote
// rejection the flows still need to interpret.
func remoteCode(err error) (string, bool) {
	var remote *RemoteError
	if errors.As(err, &remote) {
		return remote.Code, true
	}
	return "", false
}

// asTransportFailure folds an uninterpreted remote rejection into the
// generic transport-failure class.
func asTransportFailure(err error) error {
	if _, ok := remoteCode(err); ok {
		return fmt.Errorf("%w: %v", ErrTransportFailure, err)
	}
	return err
}

func (e *Engine) emitAudit(ctx context.Context, eventType, identity string, channelID int64, err error, metadata map[string]string) {
	if e.audit == nil {
		return
	}
	event := newAuditEvent(eventType, identity, err == nil)
	event.ChannelID = channelID
	if err != nil {
		event.Error = err.Error()
	}
	event.Metadata = metadata
	e.audit.Emit(ctx, event)
}
