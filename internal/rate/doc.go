// Package rate enforces the mandatory wait intervals the remote service
// signals through flood-wait errors, and proactively paces call categories
// that are known to throttle early.
//
// # Category scoping
//
// Waits are tracked per call category, never globally: a flood wait recorded
// for channel joins must not delay authentication calls. The default state is
// a process-wide in-memory table with compare-and-set updates; a Redis-backed
// state shares the table across processes using one PX-expiring key per
// category.
//
// # What this package must NOT do
//
//   - Retry anything. A flood wait is recorded and surfaced; retrying is the
//     caller's decision.
//   - Be imported outside the goUserbot module.
package rate
