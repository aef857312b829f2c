// Package runtimeconfig supplies the defaults a standalone host (the CLI,
// a test harness) loads once at startup: default import roots, a default
// TlsConfig, and a protoc binary override path. The library core never
// reads this file itself; callexec, schema, and friends take their
// configuration as explicit arguments.
package runtimeconfig
