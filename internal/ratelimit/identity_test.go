package ratelimit

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestClientKeyPrefersPayloadEmail(t *testing.T) {
	req := httptest.NewRequest("POST", "/api/admin/otp", strings.NewReader(`{"email":"Admin@Example.COM"}`))
	req.Header.Set("X-Forwarded-For", "1.2.3.4, 5.6.7.8")
	req.RemoteAddr = "9.9.9.9:4242"

	key, err := ClientKey(req)
	require.NoError(t, err)
	require.Equal(t, "admin@example.com", key)
}

func TestClientKeyNestedEmail(t *testing.T) {
	req := httptest.NewRequest("POST", "/", strings.NewReader(`{"user":{"email":"X@Y.com"}}`))

	key, err := ClientKey(req)
	require.NoError(t, err)
	require.Equal(t, "x@y.com", key)
}

func TestClientKeyForwardedHeader(t *testing.T) {
	req := httptest.NewRequest("POST", "/", strings.NewReader(`{"code":"123456"}`))
	req.Header.Set("X-Forwarded-For", "1.2.3.4, 5.6.7.8")
	req.RemoteAddr = "9.9.9.9:4242"

	key, err := ClientKey(req)
	require.NoError(t, err)
	require.Equal(t, "1.2.3.4", key)
}

func TestClientKeyRemoteAddrFallback(t *testing.T) {
	req := httptest.NewRequest("POST", "/", nil)
	req.RemoteAddr = "9.9.9.9:4242"

	key, err := ClientKey(req)
	require.NoError(t, err)
	require.Equal(t, "9.9.9.9", key)
}

func TestClientKeyEmptyFallback(t *testing.T) {
	req := httptest.NewRequest("POST", "/", nil)
	req.RemoteAddr = ""

	key, err := ClientKey(req)
	require.NoError(t, err)
	require.Equal(t, "", key)
}

func TestClientKeyMalformedBodyFallsThrough(t *testing.T) {
	req := httptest.NewRequest("POST", "/", strings.NewReader(`{"email": not-json`))
	req.Header.Set("x-forwarded-for", "10.0.0.1")

	key, err := ClientKey(req)
	require.NoError(t, err)
	require.Equal(t, "10.0.0.1", key)
}

func TestClientKeyRestoresBody(t *testing.T) {
	const payload = `{"email":"reader@example.com","code":"123456"}`
	req := httptest.NewRequest("POST", "/", strings.NewReader(payload))

	_, err := ClientKey(req)
	require.NoError(t, err)

	body, err := io.ReadAll(req.Body)
	require.NoError(t, err)
	require.Equal(t, payload, string(body))
}
