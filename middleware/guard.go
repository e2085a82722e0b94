package middleware

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"

	shield "github.com/ericalber/shield"
	"github.com/ericalber/shield/firewall"
	"github.com/ericalber/shield/session"
)

type sessionContextKey struct{}

// SessionFromContext returns the session injected by Guard.
func SessionFromContext(ctx context.Context) (session.Session, bool) {
	sess, ok := ctx.Value(sessionContextKey{}).(session.Session)
	return sess, ok
}

// Options tunes the middleware adapters.
type Options struct {
	// Class is the rate-limit action class charged per request.
	Class string
	// TrustForwarded uses the first X-Forwarded-For hop as the client IP.
	// Enable only behind a proxy that strips inbound values.
	TrustForwarded bool
}

// Perimeter runs the firewall and rate limiter against every request.
// Blocked actors get 403, exhausted budgets 429. No session is required.
func Perimeter(sh *shield.Shield, opts Options) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if sh == nil {
				http.Error(w, "service unavailable", http.StatusServiceUnavailable)
				return
			}
			if err := sh.Guard(requestOf(r, opts), opts.Class); err != nil {
				http.Error(w, statusText(err), statusFor(err))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// Guard runs the perimeter checks and then validates the bearer credential
// against the session store, binding the result into the request context.
func Guard(sh *shield.Shield, opts Options) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if sh == nil {
				http.Error(w, "service unavailable", http.StatusServiceUnavailable)
				return
			}
			if err := sh.Guard(requestOf(r, opts), opts.Class); err != nil {
				http.Error(w, statusText(err), statusFor(err))
				return
			}

			bearer, ok := bearerToken(r.Header.Get("Authorization"))
			if !ok {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
			sess, err := sh.ValidateBearer(bearer, fingerprintOf(r, opts))
			if err != nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), sessionContextKey{}, sess)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func requestOf(r *http.Request, opts Options) firewall.Request {
	ip := clientIP(r, opts.TrustForwarded)
	return firewall.Request{
		ActorID:   ip,
		UserAgent: r.UserAgent(),
		URL:       r.URL.RequestURI(),
		IP:        ip,
	}
}

func fingerprintOf(r *http.Request, opts Options) session.Fingerprint {
	return session.Fingerprint{
		UserAgent: r.UserAgent(),
		IP:        clientIP(r, opts.TrustForwarded),
	}
}

func clientIP(r *http.Request, trustForwarded bool) string {
	if trustForwarded {
		if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
			first, _, _ := strings.Cut(fwd, ",")
			if ip := strings.TrimSpace(first); ip != "" {
				return ip
			}
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func bearerToken(value string) (string, bool) {
	const bearer = "Bearer "
	if !strings.HasPrefix(value, bearer) {
		return "", false
	}

	token := value[len(bearer):]
	if token == "" {
		return "", false
	}

	return token, true
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, shield.ErrBlocked):
		return http.StatusForbidden
	case errors.Is(err, shield.ErrRateLimited):
		return http.StatusTooManyRequests
	default:
		return http.StatusUnauthorized
	}
}

func statusText(err error) string {
	switch {
	case errors.Is(err, shield.ErrBlocked):
		return "forbidden"
	case errors.Is(err, shield.ErrRateLimited):
		return "rate limit exceeded"
	default:
		return "unauthorized"
	}
}
