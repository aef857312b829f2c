package transport

import (
	"encoding/base64"
	"net/http"
)

// BuildHeaders assembles request headers in the order §4.F mandates:
// content-type, te, the auth header (if any), then user-supplied metadata.
// Later entries win on duplicate keys.
func BuildHeaders(auth AuthConfig, metadata map[string]string) http.Header {
	h := make(http.Header)
	h.Set("content-type", "application/grpc")
	h.Set("te", "trailers")

	if name, value, ok := authHeader(auth); ok {
		h.Set(name, value)
	}

	for k, v := range metadata {
		h.Set(k, v)
	}

	return h
}

// authHeader renders the single header an AuthConfig contributes, if any.
func authHeader(auth AuthConfig) (name, value string, ok bool) {
	switch auth.Kind {
	case AuthBearer:
		return "authorization", "Bearer " + auth.Token, true
	case AuthBasic:
		encoded := base64.StdEncoding.EncodeToString([]byte(auth.Username + ":" + auth.Password))
		return "authorization", "Basic " + encoded, true
	case AuthAPIKey:
		return auth.HeaderName, auth.Value, true
	default:
		return "", "", false
	}
}
