package goUserbot

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/MrEthical07/goUserbot/session"
)

// testClock is a fixed, manually advanced time source. After fires
// immediately so blocking waits resolve without sleeping.
type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func (c *testClock) After(d time.Duration) <-chan time.Time {
	c.mu.Lock()
	c.now = c.now.Add(d)
	now := c.now
	c.mu.Unlock()
	ch := make(chan time.Time, 1)
	ch <- now
	return ch
}

type scriptedCall struct {
	method string
	resp   map[string]any
	err    error
}

// fakeTransport replays a scripted sequence of responses and records every
// call it receives. Out-of-script calls fail loudly.
type fakeTransport struct {
	mu      sync.Mutex
	script  []scriptedCall
	calls   []string
	params  []map[string]any
	auth    []byte
	authErr error

	exportErr error
	importErr error
	imported  [][]byte
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{auth: []byte("exported-auth-key")}
}

func (f *fakeTransport) expect(method string, resp map[string]any, err error) {
	f.mu.Lock()
	f.script = append(f.script, scriptedCall{method: method, resp: resp, err: err})
	f.mu.Unlock()
}

func (f *fakeTransport) Call(_ context.Context, method string, params map[string]any) (map[string]any, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, method)
	f.params = append(f.params, params)
	if len(f.script) == 0 {
		return nil, fmt.Errorf("unexpected call %s", method)
	}
	next := f.script[0]
	f.script = f.script[1:]
	if next.method != method {
		return nil, fmt.Errorf("call %s arrived, script expected %s", method, next.method)
	}
	return next.resp, next.err
}

func (f *fakeTransport) ExportAuth() ([]byte, error) {
	if f.exportErr != nil {
		return nil, f.exportErr
	}
	return f.auth, nil
}

func (f *fakeTransport) ImportAuth(data []byte) error {
	f.mu.Lock()
	f.imported = append(f.imported, data)
	f.mu.Unlock()
	return f.importErr
}

func (f *fakeTransport) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func testConfig() Config {
	cfg := defaultConfig()
	cfg.API.ID = 94017
	cfg.API.Hash = "test-api-hash"
	// Proactive pacing off: these tests drive many calls back to back.
	cfg.Rate.JoinsPerMinute = 0
	cfg.Rate.DialogPagesPerSecond = 0
	return cfg
}

func newTestEngine(t *testing.T, transport Transport) (*Engine, *testClock) {
	t.Helper()
	return newTestEngineWithStore(t, transport, session.NewMemoryStore())
}

func newTestEngineWithStore(t *testing.T, transport Transport, store session.Store) (*Engine, *testClock) {
	t.Helper()
	clock := newTestClock()
	engine, err := New().
		WithConfig(testConfig()).
		WithTransport(transport).
		WithSessionStore(store).
		WithClock(clock).
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	t.Cleanup(engine.Close)
	return engine, clock
}

// authenticate walks the identity through code request and submission so
// join/listing tests start from Authenticated.
func authenticate(t *testing.T, engine *Engine, transport *fakeTransport, identity string) {
	t.Helper()
	ctx := context.Background()

	transport.expect("auth.sendCode", map[string]any{"phone_code_hash": "pch-1"}, nil)
	if state, err := engine.RequestCode(ctx, identity); err != nil || state != session.StateCodeRequested {
		t.Fatalf("RequestCode = %v, %v", state, err)
	}
	transport.expect("auth.signIn", map[string]any{"user": map[string]any{"id": int64(7)}}, nil)
	if state, err := engine.SubmitCode(ctx, identity, "12345"); err != nil || state != session.StateAuthenticated {
		t.Fatalf("SubmitCode = %v, %v", state, err)
	}
}

func TestBuilderRequiresTransport(t *testing.T) {
	if _, err := New().WithConfig(testConfig()).Build(); err == nil {
		t.Fatal("expected Build to fail without a transport")
	}
}

func TestBuilderRejectsInvalidConfig(t *testing.T) {
	cfg := testConfig()
	cfg.API.Hash = ""
	if _, err := New().WithConfig(cfg).WithTransport(newFakeTransport()).Build(); err == nil {
		t.Fatal("expected Build to reject a config without API hash")
	}
}

func TestBuilderIsSingleUse(t *testing.T) {
	b := New().WithConfig(testConfig()).WithTransport(newFakeTransport())
	engine, err := b.Build()
	if err != nil {
		t.Fatalf("first Build failed: %v", err)
	}
	defer engine.Close()
	if _, err := b.Build(); err == nil {
		t.Fatal("expected second Build on the same builder to fail")
	}
}

func TestNilEngineReturnsNotReady(t *testing.T) {
	var engine *Engine
	ctx := context.Background()

	if _, err := engine.RequestCode(ctx, "acct"); !errors.Is(err, ErrEngineNotReady) {
		t.Fatalf("expected ErrEngineNotReady, got %v", err)
	}
	if _, err := engine.Join(ctx, "acct", "@name"); !errors.Is(err, ErrEngineNotReady) {
		t.Fatalf("expected ErrEngineNotReady, got %v", err)
	}
	for _, err := range engine.Channels(ctx, "acct") {
		if !errors.Is(err, ErrEngineNotReady) {
			t.Fatalf("expected ErrEngineNotReady from iterator, got %v", err)
		}
	}
}

func TestRateBackendOutageMapsIntoTaxonomy(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis start: %v", err)
	}
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	transport := newFakeTransport()
	engine, err := New().
		WithConfig(testConfig()).
		WithTransport(transport).
		WithSessionStore(session.NewMemoryStore()).
		WithRedis(rdb).
		WithClock(newTestClock()).
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	t.Cleanup(engine.Close)

	// Shared wait state gone: the call must fail with the exported sentinel,
	// not a raw driver error, and must never reach the transport.
	mr.Close()

	_, err = engine.RequestCode(context.Background(), "15551234")
	if !errors.Is(err, ErrBackendUnavailable) {
		t.Fatalf("expected ErrBackendUnavailable, got %v", err)
	}
	if !Retryable(err) {
		t.Fatalf("backend outage must classify as retryable: %v", err)
	}
	if transport.callCount() != 0 {
		t.Fatal("backend outage must not contact the transport")
	}
}

// hangingTransport never answers; it waits for the per-call deadline.
type hangingTransport struct{}

func (hangingTransport) Call(ctx context.Context, _ string, _ map[string]any) (map[string]any, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func (hangingTransport) ExportAuth() ([]byte, error) { return nil, nil }

func (hangingTransport) ImportAuth([]byte) error { return nil }

func TestCallTimeoutMapsToTransportTimeout(t *testing.T) {
	cfg := testConfig()
	cfg.Transport.CallTimeout = 20 * time.Millisecond
	store := session.NewMemoryStore()
	engine, err := New().
		WithConfig(cfg).
		WithTransport(hangingTransport{}).
		WithSessionStore(store).
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	t.Cleanup(engine.Close)
	ctx := context.Background()

	_, err = engine.RequestCode(ctx, "15551234")
	if !errors.Is(err, ErrTransportTimeout) {
		t.Fatalf("expected ErrTransportTimeout, got %v", err)
	}

	// A timed-out call commits nothing: no persisted session, state unchanged.
	if state, err := engine.AuthState(ctx, "15551234"); err != nil || state != session.StateUnauthenticated {
		t.Fatalf("AuthState after timeout = %v, %v, want Unauthenticated", state, err)
	}
	if _, err := store.Load(ctx, "15551234"); !errors.Is(err, session.ErrNotFound) {
		t.Fatalf("timed-out handshake must not persist a session, Load = %v", err)
	}
}

func TestRetryableClassification(t *testing.T) {
	cases := []struct {
		err  error
		want bool
	}{
		{ErrRateLimited, true},
		{&RateLimitedError{Category: "join", RetryAfter: time.Second}, true},
		{ErrTransportTimeout, true},
		{ErrTransportFailure, true},
		{ErrCodeIncorrect, true},
		{ErrPasswordIncorrect, true},
		{ErrBackendUnavailable, true},
		{ErrInviteExpired, false},
		{ErrInvalidStateTransition, false},
		{ErrNotAuthenticated, false},
		{nil, false},
	}
	for _, tc := range cases {
		if got := Retryable(tc.err); got != tc.want {
			t.Fatalf("Retryable(%v) = %v, want %v", tc.err, got, tc.want)
		}
	}
}
