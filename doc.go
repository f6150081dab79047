// Package goUserbot manages an automated user account ("userbot") against a
// Telegram-style RPC service: it drives the phone/code/optional-2FA login
// handshake as an explicit state machine, persists reusable session material so
// re-login is unnecessary, paces every outgoing call against remote flood-wait
// limits, and joins/enumerates channels while extracting the account's own
// administrative role.
//
// The package is designed for concurrent callers: Engine methods are safe to
// call from multiple goroutines after initialization through [Builder.Build].
// Operations against the same account identity are serialized internally; a
// flood wait recorded for one call category never blocks unrelated categories.
//
// # Architecture boundaries
//
// goUserbot is the public surface. It exposes [Engine], [Builder], [Config],
// the error taxonomy, and value types (ChannelRecord, AdminRights, UserProfile,
// MetricsSnapshot). Session persistence lives in the session subpackage, invite
// parsing in the invite subpackage. Flood-wait bookkeeping and RPC plumbing
// live under internal/ and are never exported.
//
// # What this package must NOT do
//
//   - Retry a flood-waited or failed call on its own. Retry policy belongs to
//     the caller; every rate-limit error carries the mandatory wait duration.
//   - Commit a partial state transition. An authentication step either
//     completes and persists, or reports failure with the prior persisted
//     state still authoritative.
//   - Interpret transport wire formats. The [Transport] collaborator is an
//     opaque method-call interface; credential material round-trips through
//     it as opaque bytes.
package goUserbot
