// Package invite parses channel-reference strings into normalized targets.
//
// Parse is a pure function: no I/O, deterministic, and idempotent over raw
// input strings. It never accepts a prior parse result; parsing always takes
// the raw reference as typed or pasted by a user.
package invite
