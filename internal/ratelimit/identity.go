// Package ratelimit throttles abusive traffic before it reaches credential
// verification or business logic. Buckets are keyed by a best-effort client
// identity so callers behind shared NAT are not punished for each other when
// a stronger signal (a payload email) is available.
package ratelimit

import (
	"bytes"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"strings"
)

// maxKeyPayload bounds how much of the body the resolver will read while
// looking for an email field.
const maxKeyPayload = 64 << 10

type keyPayload struct {
	Email string `json:"email"`
	User  struct {
		Email string `json:"email"`
	} `json:"user"`
}

// ClientKey derives the throttling bucket for a request. Signals are tried
// in priority order and the first usable one wins:
//
//  1. an email field in the JSON payload (top-level or under "user"),
//     lowercased,
//  2. the first entry of X-Forwarded-For,
//  3. the transport remote address,
//  4. the empty string.
//
// Resolution never fails the request: malformed bodies and unparsable
// addresses fall through to the next signal. The forwarded header is only
// meaningful behind a trusted reverse proxy that strips or overwrites it;
// this function does not verify that.
func ClientKey(r *http.Request) (string, error) {
	if email := payloadEmail(r); email != "" {
		return email, nil
	}
	if fwd := forwardedAddr(r); fwd != "" {
		return fwd, nil
	}
	return remoteAddr(r), nil
}

func payloadEmail(r *http.Request) string {
	if r.Body == nil {
		return ""
	}
	body, err := io.ReadAll(io.LimitReader(r.Body, maxKeyPayload))
	_ = r.Body.Close()
	// Hand the body back regardless of what we found so the handler can
	// decode it again.
	r.Body = io.NopCloser(bytes.NewReader(body))
	if err != nil || len(body) == 0 {
		return ""
	}

	var payload keyPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	email := strings.TrimSpace(payload.Email)
	if email == "" {
		email = strings.TrimSpace(payload.User.Email)
	}
	return strings.ToLower(email)
}

func forwardedAddr(r *http.Request) string {
	header := r.Header.Get("X-Forwarded-For")
	if header == "" {
		return ""
	}
	first, _, _ := strings.Cut(header, ",")
	return strings.TrimSpace(first)
}

func remoteAddr(r *http.Request) string {
	if r.RemoteAddr == "" {
		return ""
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
