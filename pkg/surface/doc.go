// Package surface extracts services and methods from raw proto text using
// regular expressions, without resolving any types. It populates the UI
// catalog before the descriptor compiler runs and serves as a fallback
// when descriptor compilation fails; it is never treated as authoritative.
package surface
