package ratelimit

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/arbor-commerce/arbor/internal/platform/httpx"
)

// Config describes one named guard.
type Config struct {
	// Name partitions counters between guards sharing a Store.
	Name string
	// Max requests admitted per Window for one key.
	Max    int
	Window time.Duration
	// Message returned with the 429 envelope.
	Message string
	// Headers controls emission of X-RateLimit-* response headers.
	Headers bool
}

// Strict admits a single request per minute per key. Used for OTP issuance
// and other single-use triggers.
var Strict = Config{
	Name:    "strict",
	Max:     1,
	Window:  time.Minute,
	Message: "Too many requests. Please try again after a minute.",
	Headers: true,
}

// General is the broad abuse shield for sensitive but repeatable traffic
// such as login and partner registration.
var General = Config{
	Name:    "general",
	Max:     100,
	Window:  15 * time.Minute,
	Message: "Too many requests. Please try again later.",
	Headers: true,
}

// Guard applies one Config against a Store, keyed by ClientKey.
type Guard struct {
	store  Store
	logger *slog.Logger

	// OnDeny, when set, is called with the guard name for every denied
	// request. The router wires this to the denial counter.
	OnDeny func(guard string)
}

// NewGuard constructs a Guard.
func NewGuard(store Store, logger *slog.Logger) *Guard {
	return &Guard{store: store, logger: logger}
}

// Limit returns a middleware enforcing cfg. Store failures deny: a guard
// that cannot count must not wave traffic through.
func (g *Guard) Limit(cfg Config) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key, _ := ClientKey(r)
			if key == "" && g.logger != nil {
				g.logger.Debug("rate limit key unresolved", slog.String("path", r.URL.Path))
			}

			result, err := g.store.Admit(r.Context(), cfg.Name+":"+key, cfg.Window, cfg.Max)
			if err != nil {
				if g.logger != nil {
					g.logger.Error("rate limit store", slog.String("guard", cfg.Name), slog.Any("error", err))
				}
				g.denied(cfg.Name)
				httpx.Fail(w, http.StatusTooManyRequests, cfg.Message)
				return
			}

			if cfg.Headers {
				w.Header().Set("X-RateLimit-Limit", strconv.Itoa(cfg.Max))
				w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
				w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(result.ResetAt.Unix(), 10))
			}
			if !result.Allowed {
				if cfg.Headers {
					w.Header().Set("Retry-After", strconv.Itoa(int(time.Until(result.ResetAt).Seconds())+1))
				}
				g.denied(cfg.Name)
				httpx.Fail(w, http.StatusTooManyRequests, cfg.Message)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (g *Guard) denied(name string) {
	if g.OnDeny != nil {
		g.OnDeny(name)
	}
}
