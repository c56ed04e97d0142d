// Package conv provides safe integer type conversion utilities.
//
// These functions perform bounds checking when converting between Go's
// platform-dependent int and the fixed-width types used on the wire.
// They guard untrusted data read from snapshots (counts, lengths, node
// indices); for conversions that are provably safe by domain constraints,
// use direct casts instead.
package conv
