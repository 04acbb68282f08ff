package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func protectedHandler(invoked *bool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*invoked = true
		if PrincipalFromContext(r.Context()) == nil {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
	})
}

func TestRequireAuthMissingHeader(t *testing.T) {
	service := newService(t, &stubRepo{})
	var invoked bool
	handler := RequireAuth(service, nil)(protectedHandler(&invoked))

	req := httptest.NewRequest("GET", "/api/admin/admins", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Contains(t, rec.Body.String(), `"success":false`)
	require.False(t, invoked)
}

func TestRequireAuthRejectsExpiredBeforeHandler(t *testing.T) {
	admin := testAdmin(t, 1, RoleAdmin, true)
	service := newService(t, &stubRepo{admins: map[int64]*Admin{1: admin}})
	var invoked bool
	handler := RequireAuth(service, nil)(protectedHandler(&invoked))

	req := httptest.NewRequest("GET", "/api/admin/admins", nil)
	req.Header.Set("Authorization", "Bearer "+signedToken(t, "test-secret", 1, -time.Minute))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.False(t, invoked, "downstream stages must not run for an expired credential")
}

func TestRequireAuthUniformBodyAcrossFailures(t *testing.T) {
	admin := testAdmin(t, 1, RoleAdmin, false)
	service := newService(t, &stubRepo{admins: map[int64]*Admin{1: admin}})
	var invoked bool
	handler := RequireAuth(service, nil)(protectedHandler(&invoked))

	bodies := map[string]string{}
	for name, token := range map[string]string{
		"garbage":  "Bearer not.a.token",
		"expired":  "Bearer " + signedToken(t, "test-secret", 1, -time.Minute),
		"disabled": "Bearer " + signedToken(t, "test-secret", 1, time.Hour),
		"unknown":  "Bearer " + signedToken(t, "test-secret", 99, time.Hour),
	} {
		req := httptest.NewRequest("GET", "/", nil)
		req.Header.Set("Authorization", token)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		require.Equal(t, http.StatusUnauthorized, rec.Code, name)
		bodies[name] = rec.Body.String()
	}
	for name, body := range bodies {
		require.Equal(t, bodies["garbage"], body, "response for %s must not be distinguishable", name)
	}
	require.False(t, invoked)
}

func TestRequireAuthAttachesPrincipal(t *testing.T) {
	admin := testAdmin(t, 1, RoleAdmin, true)
	service := newService(t, &stubRepo{admins: map[int64]*Admin{1: admin}})

	var seen *Principal
	handler := RequireAuth(service, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = PrincipalFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	token, _, err := service.Login(context.Background(), "admin@example.com", "correct-horse")
	require.NoError(t, err)

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, seen)
	require.Equal(t, int64(1), seen.ID)
}

func TestRequireAuthStoreFailureIsServerError(t *testing.T) {
	service := newService(t, &stubRepo{admins: map[int64]*Admin{1: testAdmin(t, 1, RoleAdmin, true)}})
	token, _, err := service.Login(context.Background(), "admin@example.com", "correct-horse")
	require.NoError(t, err)

	failing := newService(t, &stubRepo{err: context.DeadlineExceeded})
	var invoked bool
	handler := RequireAuth(failing, nil)(protectedHandler(&invoked))

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.False(t, invoked)
}
