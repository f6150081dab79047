package session

// State is the authentication state machine position persisted with each
// session. StateAuthenticated and StateFailed are terminal; a failed flow
// restarts from StateUnauthenticated.
type State uint8

const (
	// StateUnauthenticated is the initial state; no handshake in progress.
	StateUnauthenticated State = iota
	// StateCodeRequested means a login code was sent and the continuation
	// token (PhoneCodeHash) is held.
	StateCodeRequested
	// StateAwaitingTwoFactor means the code was accepted and the account's
	// cloud password is required.
	StateAwaitingTwoFactor
	// StateAuthenticated means the session holds valid credential material.
	StateAuthenticated
	// StateFailed means the handshake failed terminally; see FailureReason.
	StateFailed
)

// String reports the lowercase name of the state.
func (s State) String() string {
	switch s {
	case StateUnauthenticated:
		return "unauthenticated"
	case StateCodeRequested:
		return "code_requested"
	case StateAwaitingTwoFactor:
		return "awaiting_two_factor"
	case StateAuthenticated:
		return "authenticated"
	case StateFailed:
		return "failed"
	}
	return "unknown"
}

// FailureReason records why a session reached StateFailed.
type FailureReason uint8

const (
	// FailureNone is the zero value for non-failed sessions.
	FailureNone FailureReason = iota
	// FailureInvalidCredentials means the API credentials or phone number
	// were rejected.
	FailureInvalidCredentials
	// FailureTooManyAttempts means the two-factor attempt cap was exhausted.
	FailureTooManyAttempts
)

// String reports the lowercase name of the reason.
func (r FailureReason) String() string {
	switch r {
	case FailureNone:
		return "none"
	case FailureInvalidCredentials:
		return "invalid_credentials"
	case FailureTooManyAttempts:
		return "too_many_attempts"
	}
	return "unknown"
}

// Session is the persisted authentication record for one account identity.
// At most one live session exists per identity; the engine serializes all
// mutation. AuthKey is the transport's exported credential material and is
// opaque to this package; AppID records which API registration produced it.
type Session struct {
	Identity string
	State    State
	Failure  FailureReason

	// PhoneCodeHash is the call-specific continuation token issued by the
	// code-request call and consumed by code submission. Cleared on every
	// exit from StateCodeRequested.
	PhoneCodeHash string
	// TwoFactorAttempts counts wrong-password submissions since entering
	// StateAwaitingTwoFactor.
	TwoFactorAttempts uint16

	AuthKey []byte
	AppID   int32

	CreatedAt int64
	UpdatedAt int64
}

// Clone returns a deep copy so callers can hand sessions across goroutines
// without aliasing AuthKey.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	out := *s
	if s.AuthKey != nil {
		out.AuthKey = make([]byte, len(s.AuthKey))
		copy(out.AuthKey, s.AuthKey)
	}
	return &out
}
