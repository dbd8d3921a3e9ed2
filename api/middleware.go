package api

import (
	"context"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/substrat-dev/ragd/internal/log"
)

// Verifier authenticates a bearer token and resolves its tenant.
type Verifier interface {
	Verify(ctx context.Context, token string) (tenantID string, err error)
}

// TokenVerifier is a static token-to-tenant map. Satisfies Verifier.
type TokenVerifier map[string]string

var errUnknownToken = &authError{"unknown token"}

type authError struct{ msg string }

func (e *authError) Error() string { return e.msg }

func (v TokenVerifier) Verify(_ context.Context, token string) (string, error) {
	tenant, ok := v[token]
	if !ok {
		return "", errUnknownToken
	}
	return tenant, nil
}

type contextKey string

const tenantKey contextKey = "tenant"

// tenantFrom returns the authenticated tenant id set by authMiddleware.
func tenantFrom(r *http.Request) string {
	tenant, _ := r.Context().Value(tenantKey).(string)
	return tenant
}

// authMiddleware resolves the tenant for the request. With a verifier,
// the Authorization bearer token decides; without one, the X-Tenant-ID
// header is trusted as-is (development only). Either way the tenant
// lands in the request context and handlers never read it from bodies.
func authMiddleware(verifier Verifier, logger log.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var tenant string

			if verifier != nil {
				token, ok := bearerToken(r)
				if !ok {
					writeError(w, http.StatusUnauthorized, "unauthorized", "missing bearer token")
					return
				}
				resolved, err := verifier.Verify(r.Context(), token)
				if err != nil {
					logger.Warn("rejected token", "path", r.URL.Path)
					writeError(w, http.StatusUnauthorized, "unauthorized", "invalid token")
					return
				}
				tenant = resolved
			} else {
				tenant = strings.TrimSpace(r.Header.Get("X-Tenant-ID"))
				if tenant == "" {
					writeError(w, http.StatusUnauthorized, "unauthorized", "missing X-Tenant-ID header")
					return
				}
			}

			ctx := context.WithValue(r.Context(), tenantKey, tenant)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	auth := r.Header.Get("Authorization")
	token, ok := strings.CutPrefix(auth, "Bearer ")
	if !ok || token == "" {
		return "", false
	}
	return token, true
}

const (
	// requestsPerSecond is the steady per-client rate.
	requestsPerSecond = 10

	// requestBurst is the per-client burst allowance.
	requestBurst = 20

	// limiterIdleEviction drops limiters not seen for this long.
	limiterIdleEviction = 10 * time.Minute
)

type clientLimiter struct {
	mu      sync.Mutex
	clients map[string]*clientEntry
}

type clientEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func newClientLimiter() *clientLimiter {
	return &clientLimiter{clients: make(map[string]*clientEntry)}
}

// middleware throttles per client ip. Over-limit requests get 429.
func (c *clientLimiter) middleware(next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !c.allow(clientIP(r)) {
			writeError(w, http.StatusTooManyRequests, "rate_limited", "too many requests")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (c *clientLimiter) allow(client string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	entry, ok := c.clients[client]
	if !ok {
		entry = &clientEntry{limiter: rate.NewLimiter(rate.Limit(requestsPerSecond), requestBurst)}
		c.clients[client] = entry
	}
	entry.lastSeen = now

	if len(c.clients) > 1024 {
		for key, e := range c.clients {
			if now.Sub(e.lastSeen) > limiterIdleEviction {
				delete(c.clients, key)
			}
		}
	}

	return entry.limiter.Allow()
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// loggingMiddleware logs every request with method, path and duration.
func loggingMiddleware(logger log.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			next.ServeHTTP(w, r)
			logger.Debug("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"duration", time.Since(start))
		})
	}
}

// recoveryMiddleware recovers from handler panics with a 500.
func recoveryMiddleware(logger log.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					logger.Error("panic recovered", "error", err, "path", r.URL.Path)
					http.Error(w, "internal server error", http.StatusInternalServerError)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// chain applies middleware in order: first middleware wraps outermost.
func chain(h http.Handler, middlewares ...func(http.Handler) http.Handler) http.Handler {
	for i := len(middlewares) - 1; i >= 0; i-- {
		h = middlewares[i](h)
	}
	return h
}
