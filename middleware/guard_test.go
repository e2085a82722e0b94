package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	shield "github.com/ericalber/shield"
)

func newTestShield(t *testing.T) *shield.Shield {
	t.Helper()
	cfg := shield.DefaultConfig()
	cfg.Cipher.RootSecret = []byte("0123456789abcdef0123456789abcdef")
	cfg.Cipher.Iterations = 10_000
	cfg.Session.SweepInterval = 0
	cfg.RateLimit.CleanupInterval = 0
	cfg.Backup.Interval = 0
	cfg.RateLimit.Policies = map[string]shield.RatePolicy{
		shield.ActionLogin: {Limit: 2, Window: time.Minute},
	}
	cfg.Token.Enabled = true
	cfg.Token.Secret = []byte("handle-secret-must-be-32-bytes!!")

	sh, err := shield.New().WithConfig(cfg).Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	t.Cleanup(sh.Close)
	return sh
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func newRequest(ip, ua string) *http.Request {
	r := httptest.NewRequest(http.MethodPost, "/login", nil)
	r.RemoteAddr = ip + ":5112"
	r.Header.Set("User-Agent", ua)
	return r
}

func TestPerimeterRateLimits(t *testing.T) {
	sh := newTestShield(t)
	handler := Perimeter(sh, Options{Class: shield.ActionLogin})(okHandler())

	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, newRequest("203.0.113.7", "Mozilla/5.0"))
		if rec.Code != http.StatusOK {
			t.Fatalf("attempt %d: status %d", i+1, rec.Code)
		}
	}

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, newRequest("203.0.113.7", "Mozilla/5.0"))
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("3rd attempt: status %d, want 429", rec.Code)
	}

	// A different client keeps its own budget.
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, newRequest("198.51.100.1", "Mozilla/5.0"))
	if rec.Code != http.StatusOK {
		t.Fatalf("other client: status %d", rec.Code)
	}
}

func TestPerimeterBlocksActors(t *testing.T) {
	sh := newTestShield(t)
	handler := Perimeter(sh, Options{Class: shield.ActionAPI})(okHandler())

	sh.BlockActor("203.0.113.7")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, newRequest("203.0.113.7", "Mozilla/5.0"))
	if rec.Code != http.StatusForbidden {
		t.Fatalf("status %d, want 403", rec.Code)
	}
}

func TestPerimeterRejectsSuspiciousUserAgent(t *testing.T) {
	sh := newTestShield(t)
	handler := Perimeter(sh, Options{Class: shield.ActionAPI})(okHandler())

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, newRequest("192.0.2.1", "curl/8.0"))
	if rec.Code != http.StatusForbidden {
		t.Fatalf("status %d, want 403", rec.Code)
	}
}

func TestGuardValidatesSession(t *testing.T) {
	sh := newTestShield(t)
	var gotUser string
	handler := Guard(sh, Options{Class: shield.ActionAPI})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, ok := SessionFromContext(r.Context())
		if !ok {
			t.Fatal("no session in context")
		}
		gotUser = sess.UserID
		w.WriteHeader(http.StatusOK)
	}))

	fp := fingerprintOf(newRequest("203.0.113.7", "Mozilla/5.0"), Options{})
	sess, err := sh.CreateSession("user-1", fp)
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	handle, err := sh.IssueSessionHandle(sess)
	if err != nil {
		t.Fatalf("IssueSessionHandle: %v", err)
	}

	r := newRequest("203.0.113.7", "Mozilla/5.0")
	r.Header.Set("Authorization", "Bearer "+handle)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, r)
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
	}
	if gotUser != "user-1" {
		t.Fatalf("UserID = %q, want user-1", gotUser)
	}

	// Same handle from a different client fails closed.
	r = newRequest("198.51.100.1", "Mozilla/5.0")
	r.Header.Set("Authorization", "Bearer "+handle)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, r)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("foreign client: status %d, want 401", rec.Code)
	}
}

func TestGuardRequiresBearer(t *testing.T) {
	sh := newTestShield(t)
	handler := Guard(sh, Options{Class: shield.ActionAPI})(okHandler())

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, newRequest("203.0.113.7", "Mozilla/5.0"))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status %d, want 401", rec.Code)
	}
}

func TestClientIPTrustForwarded(t *testing.T) {
	r := newRequest("10.0.0.1", "Mozilla/5.0")
	r.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")

	if got := clientIP(r, false); got != "10.0.0.1" {
		t.Fatalf("untrusted: %q", got)
	}
	if got := clientIP(r, true); got != "203.0.113.7" {
		t.Fatalf("trusted: %q", got)
	}
}
