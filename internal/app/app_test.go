package app_test

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/arbor-commerce/arbor/internal/app"
	_ "github.com/arbor-commerce/arbor/internal/testing/guard"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	cfg, err := app.LoadConfig()
	require.NoError(t, err)
	require.Equal(t, ":8080", cfg.AppAddr)
	require.Equal(t, 24*time.Hour, cfg.TokenTTL)
	require.Equal(t, "127.0.0.1:6379", cfg.RedisAddr)
	require.False(t, cfg.IsProduction())
}

func TestLoadConfigRequiresJWTSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")

	_, err := app.LoadConfig()
	require.Error(t, err)
}

func TestNewLoggerFormat(t *testing.T) {
	jsonLogger := app.NewLogger(&app.Config{LogFormat: "json"})
	_, ok := jsonLogger.Handler().(*slog.JSONHandler)
	require.True(t, ok)

	textLogger := app.NewLogger(&app.Config{LogFormat: "pretty"})
	_, ok = textLogger.Handler().(*slog.TextHandler)
	require.True(t, ok)
}

func TestInTestMode(t *testing.T) {
	require.Equal(t, "1", os.Getenv("ARBOR_TEST_MODE"))
	app.RefreshTestMode()
	require.True(t, app.InTestMode())
}

func TestMiddlewareStackSetsSecurityHeaders(t *testing.T) {
	stack := app.MiddlewareStack(app.MiddlewareConfig{
		Logger: slog.New(slog.NewTextHandler(os.Stderr, nil)),
		Config: &app.Config{AppRequestTimeout: 5 * time.Second},
	})

	var handler http.Handler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	for i := len(stack) - 1; i >= 0; i-- {
		handler = stack[i](handler)
	}

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/products", nil)
	req.RemoteAddr = "203.0.113.9:1234"
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	require.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
}
