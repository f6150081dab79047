// Package rpc holds the method names, parameter shapes, and response-map
// helpers for the calls the engine issues, plus parsing of machine-readable
// remote error codes.
//
// Responses are plain map[string]any trees as produced by the opaque
// transport; the helpers here do tolerant typed extraction so the engine
// never type-asserts inline.
//
// # What this package must NOT do
//
//   - Import the root package (no upward imports).
//   - Issue calls or hold transport state; it is pure data plumbing.
package rpc
