package goUserbot

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrInvalidCredentials indicates the API credentials or account phone
	// number were rejected by the remote service. The authentication flow
	// moves to the Failed state; restart from Unauthenticated.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInvalidStateTransition indicates an authentication action was
	// attempted from a state that does not permit it. No side effect occurs.
	ErrInvalidStateTransition = errors.New("invalid state transition")
	// ErrNotAuthenticated indicates a channel operation was attempted before
	// the session reached the Authenticated state.
	ErrNotAuthenticated = errors.New("not authenticated")
	// ErrCodeIncorrect indicates the submitted login code was wrong. The flow
	// stays in CodeRequested; submit a corrected code.
	ErrCodeIncorrect = errors.New("login code incorrect")
	// ErrCodeExpired indicates the login code expired remotely. The flow
	// drops back to Unauthenticated; request a fresh code.
	ErrCodeExpired = errors.New("login code expired")
	// ErrPasswordIncorrect indicates the two-factor password was wrong. The
	// flow stays in AwaitingTwoFactor until the attempt cap is reached.
	ErrPasswordIncorrect = errors.New("two-factor password incorrect")
	// ErrTooManyAttempts indicates the two-factor attempt cap was exhausted.
	// The flow moves to the Failed state.
	ErrTooManyAttempts = errors.New("too many two-factor attempts")
	// ErrRateLimited indicates a call was blocked by a mandatory wait, either
	// a remote flood wait or the local throttle derived from one. Errors of
	// this kind are always a [*RateLimitedError] carrying the wait duration.
	ErrRateLimited = errors.New("rate limited")
	// ErrTransportTimeout indicates the per-call timeout elapsed before the
	// transport responded. No state transition was committed.
	ErrTransportTimeout = errors.New("transport timeout")
	// ErrTransportFailure indicates a generic transport-level failure. The
	// operation may be retried by the caller; state is unchanged.
	ErrTransportFailure = errors.New("transport failure")
	// ErrInviteInvalid indicates a channel reference that is malformed or
	// names a hash/username the remote service does not recognize.
	ErrInviteInvalid = errors.New("invite invalid")
	// ErrInviteExpired indicates an invite hash that was valid once but has
	// been revoked or has expired.
	ErrInviteExpired = errors.New("invite expired")
	// ErrAlreadyMember indicates the account already belongs to the target
	// channel. Join resolves this internally and returns the existing record;
	// the sentinel is exported for callers of lower-level mappings.
	ErrAlreadyMember = errors.New("already a member")
	// ErrPendingApproval indicates the target channel requires join approval.
	// Join converts this into a record with StatusPending.
	ErrPendingApproval = errors.New("join pending approval")
	// ErrPersistenceFailure indicates the session store rejected a write or
	// read. The attempted transition was not committed.
	ErrPersistenceFailure = errors.New("session persistence failure")
	// ErrPersistenceDegraded is the warning-class variant of
	// [ErrPersistenceFailure]: the remote authentication succeeded and the
	// in-memory state is Authenticated, but the session could not be saved,
	// so re-authentication will be required after the next process start.
	ErrPersistenceDegraded = errors.New("authenticated but session not persisted")
	// ErrSessionNotFound indicates no persisted session exists for the
	// account identity.
	ErrSessionNotFound = errors.New("session not found")
	// ErrBackendUnavailable indicates the shared-state backend (the
	// Redis-backed flood-wait table) could not be reached. No call was
	// issued and no state transition was committed; retry once the backend
	// is back. Session-store outages surface as [ErrPersistenceFailure]
	// instead.
	ErrBackendUnavailable = errors.New("state backend unavailable")
	// ErrEngineNotReady indicates the engine was used before a successful
	// [Builder.Build].
	ErrEngineNotReady = errors.New("engine not initialized")
)

// RateLimitedError reports a mandatory wait on one call category. Local is
// true when the call was rejected by the process-wide throttle without
// contacting the transport, false when the remote service signaled a fresh
// flood wait for this call.
type RateLimitedError struct {
	Category   string
	RetryAfter time.Duration
	Local      bool
}

func (e *RateLimitedError) Error() string {
	if e.Local {
		return fmt.Sprintf("rate limited: category %s throttled for %s", e.Category, e.RetryAfter)
	}
	return fmt.Sprintf("rate limited: category %s flood wait %s", e.Category, e.RetryAfter)
}

// Unwrap makes errors.Is(err, ErrRateLimited) hold for every rate-limit error.
func (e *RateLimitedError) Unwrap() error { return ErrRateLimited }

// Retryable reports whether the caller may usefully retry the operation after
// correcting nothing: transport hiccups, timeouts, wrong codes/passwords, and
// elapsed rate-limit waits. Guard violations and invalid input are not
// retryable without corrected input.
func Retryable(err error) bool {
	switch {
	case errors.Is(err, ErrTransportFailure),
		errors.Is(err, ErrTransportTimeout),
		errors.Is(err, ErrRateLimited),
		errors.Is(err, ErrBackendUnavailable),
		errors.Is(err, ErrCodeIncorrect),
		errors.Is(err, ErrPasswordIncorrect):
		return true
	}
	return false
}
