// Package session provides durable persistence and compact binary encoding of
// userbot authentication sessions.
//
// # Binary encoding
//
// Sessions round-trip through an append-only versioned binary format. New
// schema versions may add fields but never reinterpret old ones; decode
// accepts every known version. [Session.EncodeString] wraps the same bytes in
// base64 for copy-paste portability between hosts.
//
// # Store backends
//
// [Store] is satisfied by [BoltStore] (single-file bbolt database, the
// default durable backend), [RedisStore] (shared deployments), and
// [MemoryStore] (tests and ephemeral runs). All three guarantee that a
// partially written session is never observed: writes are whole-value
// replaces inside the backend's atomicity unit.
//
// # What this package must NOT do
//
//   - Import the root package (no upward imports).
//   - Interpret credential material; AuthKey bytes are opaque to this layer.
//   - Drive state transitions; only the engine mutates State.
package session
