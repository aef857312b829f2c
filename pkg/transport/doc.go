// Package transport builds the HTTP/2 client used to speak the gRPC wire
// protocol: TLS/mTLS policy, h2c plaintext fallback, auth/metadata header
// assembly, and the endpoint URI construction rule.
package transport
