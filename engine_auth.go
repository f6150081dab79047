package goUserbot

import (
	"context"
	"errors"
	"fmt"

	"github.com/MrEthical07/goUserbot/internal/rate"
	"github.com/MrEthical07/goUserbot/internal/rpc"
	"github.com/MrEthical07/goUserbot/session"
)

// RequestCode starts the login handshake for the account identity (its phone
// number): it asks the remote service to send a login code and stores the
// returned continuation token. Valid only from Unauthenticated.
//
// Invalid API credentials or a rejected phone number move the flow to Failed;
// transport errors leave it in Unauthenticated and may be retried.
func (e *Engine) RequestCode(ctx context.Context, identity string) (session.State, error) {
	if e == nil {
		return session.StateUnauthenticated, ErrEngineNotReady
	}
	lock := e.identityLock(identity)
	lock.Lock()
	defer lock.Unlock()

	s, err := e.loadOrInitSession(ctx, identity)
	if err != nil {
		return session.StateUnauthenticated, err
	}
	if s.State != session.StateUnauthenticated {
		return s.State, fmt.Errorf("%w: request code from %s", ErrInvalidStateTransition, s.State)
	}

	cfg := e.config
	resp, err := e.invoke(ctx, rate.CategoryAuth, rpc.MethodSendCode, rpc.SendCodeParams(
		identity, cfg.API.ID, cfg.API.Hash,
		cfg.Device.Model, cfg.Device.SystemVersion, cfg.Device.AppVersion,
		cfg.Device.LangCode, cfg.Device.SystemLangCode,
	))
	if err != nil {
		switch code, _ := remoteCode(err); code {
		case rpc.CodePhoneNumberInvalid, rpc.CodePhoneNumberBanned, rpc.CodeAPIIDInvalid:
			s.State = session.StateFailed
			s.Failure = session.FailureInvalidCredentials
			if persistErr := e.persist(ctx, s); persistErr != nil {
				return s.State, persistErr
			}
			e.metricInc(MetricAuthFailure)
			e.emitAudit(ctx, auditEventCodeRequested, identity, 0, ErrInvalidCredentials, nil)
			return session.StateFailed, fmt.Errorf("%w: %s", ErrInvalidCredentials, code)
		}
		e.metricInc(MetricAuthFailure)
		e.emitAudit(ctx, auditEventCodeRequested, identity, 0, err, nil)
		return s.State, asTransportFailure(err)
	}

	codeHash := rpc.Str(resp, "phone_code_hash")
	if codeHash == "" {
		return s.State, fmt.Errorf("%w: code request response missing phone_code_hash", ErrTransportFailure)
	}

	s.State = session.StateCodeRequested
	s.PhoneCodeHash = codeHash
	s.AppID = cfg.API.ID
	if err := e.persist(ctx, s); err != nil {
		return session.StateUnauthenticated, err
	}

	e.metricInc(MetricCodeRequested)
	e.emitAudit(ctx, auditEventCodeRequested, identity, 0, nil, nil)
	return session.StateCodeRequested, nil
}

// SubmitCode submits the login code the user received. Valid only from
// CodeRequested.
//
// A wrong code keeps the flow in CodeRequested ([ErrCodeIncorrect],
// retryable); an expired code drops it back to Unauthenticated
// ([ErrCodeExpired], restart); an account with a cloud password moves to
// AwaitingTwoFactor with no error.
func (e *Engine) SubmitCode(ctx context.Context, identity, code string) (session.State, error) {
	if e == nil {
		return session.StateUnauthenticated, ErrEngineNotReady
	}
	lock := e.identityLock(identity)
	lock.Lock()
	defer lock.Unlock()

	s, err := e.loadOrInitSession(ctx, identity)
	if err != nil {
		return session.StateUnauthenticated, err
	}
	if s.State != session.StateCodeRequested {
		return s.State, fmt.Errorf("%w: submit code from %s", ErrInvalidStateTransition, s.State)
	}

	_, err = e.invoke(ctx, rate.CategoryAuth, rpc.MethodSignIn,
		rpc.SignInParams(identity, s.PhoneCodeHash, code))
	if err != nil {
		switch remote, _ := remoteCode(err); remote {
		case rpc.CodeSessionPasswordNeeded:
			s.State = session.StateAwaitingTwoFactor
			s.PhoneCodeHash = ""
			s.TwoFactorAttempts = 0
			if persistErr := e.persist(ctx, s); persistErr != nil {
				return session.StateCodeRequested, persistErr
			}
			e.metricInc(MetricTwoFactorRequired)
			e.emitAudit(ctx, auditEventSignIn, identity, 0, nil,
				map[string]string{"two_factor": "required"})
			return session.StateAwaitingTwoFactor, nil
		case rpc.CodePhoneCodeInvalid:
			e.metricInc(MetricAuthFailure)
			e.emitAudit(ctx, auditEventSignIn, identity, 0, ErrCodeIncorrect, nil)
			return session.StateCodeRequested, ErrCodeIncorrect
		case rpc.CodePhoneCodeExpired:
			s.State = session.StateUnauthenticated
			s.PhoneCodeHash = ""
			if persistErr := e.persist(ctx, s); persistErr != nil {
				return session.StateCodeRequested, persistErr
			}
			e.metricInc(MetricAuthFailure)
			e.emitAudit(ctx, auditEventSignIn, identity, 0, ErrCodeExpired, nil)
			return session.StateUnauthenticated, ErrCodeExpired
		}
		e.metricInc(MetricAuthFailure)
		e.emitAudit(ctx, auditEventSignIn, identity, 0, err, nil)
		return session.StateCodeRequested, asTransportFailure(err)
	}

	return e.completeAuthentication(ctx, auditEventSignIn, s)
}

// SubmitTwoFactor submits the account's cloud password. Valid only from
// AwaitingTwoFactor.
//
// A wrong password keeps the flow in AwaitingTwoFactor until the configured
// attempt cap, after which it moves to Failed ([ErrTooManyAttempts]).
func (e *Engine) SubmitTwoFactor(ctx context.Context, identity, password string) (session.State, error) {
	if e == nil {
		return session.StateUnauthenticated, ErrEngineNotReady
	}
	lock := e.identityLock(identity)
	lock.Lock()
	defer lock.Unlock()

	s, err := e.loadOrInitSession(ctx, identity)
	if err != nil {
		return session.StateUnauthenticated, err
	}
	if s.State != session.StateAwaitingTwoFactor {
		return s.State, fmt.Errorf("%w: submit two-factor from %s", ErrInvalidStateTransition, s.State)
	}

	_, err = e.invoke(ctx, rate.CategoryAuth, rpc.MethodCheckPassword,
		rpc.CheckPasswordParams(password))
	if err != nil {
		if code, _ := remoteCode(err); code == rpc.CodePasswordHashInvalid {
			s.TwoFactorAttempts++
			if int(s.TwoFactorAttempts) >= e.config.Auth.TwoFactorMaxAttempts {
				s.State = session.StateFailed
				s.Failure = session.FailureTooManyAttempts
				if persistErr := e.persist(ctx, s); persistErr != nil {
					return session.StateAwaitingTwoFactor, persistErr
				}
				e.metricInc(MetricAuthFailure)
				e.emitAudit(ctx, auditEventTwoFactor, identity, 0, ErrTooManyAttempts, nil)
				return session.StateFailed, ErrTooManyAttempts
			}
			if persistErr := e.persist(ctx, s); persistErr != nil {
				return session.StateAwaitingTwoFactor, persistErr
			}
			e.metricInc(MetricAuthFailure)
			e.emitAudit(ctx, auditEventTwoFactor, identity, 0, ErrPasswordIncorrect, nil)
			return session.StateAwaitingTwoFactor, ErrPasswordIncorrect
		}
		e.metricInc(MetricAuthFailure)
		e.emitAudit(ctx, auditEventTwoFactor, identity, 0, err, nil)
		return session.StateAwaitingTwoFactor, asTransportFailure(err)
	}

	return e.completeAuthentication(ctx, auditEventTwoFactor, s)
}

// completeAuthentication moves a session into Authenticated after the remote
// side accepted the handshake, capturing the transport's credential material
// and persisting. The remote state is already correct when this runs, so a
// local persistence problem is surfaced as warning-class
// [ErrPersistenceDegraded] while the in-memory result stays Authenticated.
func (e *Engine) completeAuthentication(ctx context.Context, eventType string, s *session.Session) (session.State, error) {
	key, err := e.transport.ExportAuth()
	if err != nil {
		e.emitAudit(ctx, eventType, s.Identity, 0, err, nil)
		return session.StateAuthenticated, fmt.Errorf("%w: exporting credentials: %v", ErrPersistenceDegraded, err)
	}

	s.State = session.StateAuthenticated
	s.Failure = session.FailureNone
	s.PhoneCodeHash = ""
	s.TwoFactorAttempts = 0
	s.AuthKey = key

	e.metricInc(MetricAuthSuccess)
	if err := e.persist(ctx, s); err != nil {
		e.emitAudit(ctx, eventType, s.Identity, 0, err, nil)
		return session.StateAuthenticated, fmt.Errorf("%w: %v", ErrPersistenceDegraded, err)
	}

	e.emitAudit(ctx, eventType, s.Identity, 0, nil, nil)
	return session.StateAuthenticated, nil
}

// Restore resumes from a persisted session at process start. A session in
// Authenticated state is seeded into the transport and validated remotely;
// if the remote revoked it, the stale session is deleted and the result is
// Unauthenticated. A mid-handshake session is returned as-is so the caller
// can continue from that step. Transport errors leave everything unchanged.
func (e *Engine) Restore(ctx context.Context, identity string) (session.State, error) {
	if e == nil {
		return session.StateUnauthenticated, ErrEngineNotReady
	}
	lock := e.identityLock(identity)
	lock.Lock()
	defer lock.Unlock()

	s, err := e.sessions.Load(ctx, identity)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			return session.StateUnauthenticated, nil
		}
		return session.StateUnauthenticated, fmt.Errorf("%w: %v", ErrPersistenceFailure, err)
	}
	if s.State != session.StateAuthenticated {
		return s.State, nil
	}

	if err := e.transport.ImportAuth(s.AuthKey); err != nil {
		// Credential blob the transport no longer accepts: same treatment
		// as a remote rejection.
		return e.discardStale(ctx, identity, err)
	}

	// getState is the cheapest authenticated call, so it serves as the
	// liveness check without pulling profile data.
	_, err = e.invoke(ctx, rate.CategoryAuth, rpc.MethodGetState, nil)
	if err != nil {
		switch code, _ := remoteCode(err); code {
		case rpc.CodeAuthKeyUnregistered, rpc.CodeSessionRevoked:
			return e.discardStale(ctx, identity, err)
		}
		e.emitAudit(ctx, auditEventRestore, identity, 0, err, nil)
		return s.State, asTransportFailure(err)
	}

	e.metricInc(MetricRestoreSuccess)
	e.emitAudit(ctx, auditEventRestore, identity, 0, nil, nil)
	return session.StateAuthenticated, nil
}

func (e *Engine) discardStale(ctx context.Context, identity string, cause error) (session.State, error) {
	if err := e.sessions.Delete(ctx, identity); err != nil {
		return session.StateUnauthenticated, fmt.Errorf("%w: %v", ErrPersistenceFailure, err)
	}
	e.metricInc(MetricRestoreRejected)
	e.emitAudit(ctx, auditEventRestore, identity, 0, cause,
		map[string]string{"stale_session": "deleted"})
	return session.StateUnauthenticated, nil
}

// AuthState reports the persisted state for the identity without contacting
// the remote service. Missing sessions read as Unauthenticated.
func (e *Engine) AuthState(ctx context.Context, identity string) (session.State, error) {
	if e == nil {
		return session.StateUnauthenticated, ErrEngineNotReady
	}
	s, err := e.sessions.Load(ctx, identity)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			return session.StateUnauthenticated, nil
		}
		return session.StateUnauthenticated, fmt.Errorf("%w: %v", ErrPersistenceFailure, err)
	}
	return s.State, nil
}

// Reset discards the identity's session, returning the flow to
// Unauthenticated. This is the restart path out of the Failed state; no
// remote call is made.
func (e *Engine) Reset(ctx context.Context, identity string) error {
	if e == nil {
		return ErrEngineNotReady
	}
	lock := e.identityLock(identity)
	lock.Lock()
	defer lock.Unlock()

	if err := e.sessions.Delete(ctx, identity); err != nil {
		return fmt.Errorf("%w: %v", ErrPersistenceFailure, err)
	}
	return nil
}

// Logout terminates the remote authorization and deletes the persisted
// session. Valid only from Authenticated; a remote report that the key is
// already unregistered is treated as success.
func (e *Engine) Logout(ctx context.Context, identity string) error {
	if e == nil {
		return ErrEngineNotReady
	}
	lock := e.identityLock(identity)
	lock.Lock()
	defer lock.Unlock()

	s, err := e.loadOrInitSession(ctx, identity)
	if err != nil {
		return err
	}
	if s.State != session.StateAuthenticated {
		return fmt.Errorf("%w: logout from %s", ErrInvalidStateTransition, s.State)
	}

	if _, err := e.invoke(ctx, rate.CategoryAuth, rpc.MethodLogOut, nil); err != nil {
		if code, _ := remoteCode(err); code != rpc.CodeAuthKeyUnregistered {
			e.emitAudit(ctx, auditEventLogout, identity, 0, err, nil)
			return asTransportFailure(err)
		}
	}

	if err := e.sessions.Delete(ctx, identity); err != nil {
		return fmt.Errorf("%w: %v", ErrPersistenceFailure, err)
	}
	e.emitAudit(ctx, auditEventLogout, identity, 0, nil, nil)
	return nil
}

// Me fetches the authenticated account's own profile.
func (e *Engine) Me(ctx context.Context, identity string) (UserProfile, error) {
	if e == nil {
		return UserProfile{}, ErrEngineNotReady
	}
	lock := e.identityLock(identity)
	lock.Lock()
	defer lock.Unlock()

	s, err := e.loadOrInitSession(ctx, identity)
	if err != nil {
		return UserProfile{}, err
	}
	if s.State != session.StateAuthenticated {
		return UserProfile{}, ErrNotAuthenticated
	}

	resp, err := e.invoke(ctx, rate.CategoryAuth, rpc.MethodGetSelf, nil)
	if err != nil {
		return UserProfile{}, asTransportFailure(err)
	}
	return userProfileFrom(resp), nil
}

func userProfileFrom(resp rpc.Object) UserProfile {
	user := rpc.Map(resp, "user")
	if user == nil {
		user = resp
	}
	return UserProfile{
		ID:        rpc.Int64(user, "id"),
		Username:  rpc.Str(user, "username"),
		FirstName: rpc.Str(user, "first_name"),
		LastName:  rpc.Str(user, "last_name"),
		Phone:     rpc.Str(user, "phone"),
	}
}
