package test

import (
	"net/http"
	"testing"

	shield "github.com/ericalber/shield"
	"github.com/ericalber/shield/firewall"
	"github.com/ericalber/shield/middleware"
	"github.com/ericalber/shield/session"
)

// This test intentionally guards public API compile-compat for consumers.
func TestPublicAPISurfaceCompile(t *testing.T) {
	_ = shield.New

	var _ *shield.Shield
	var _ shield.Config
	var _ shield.Builder
	var _ shield.SecurityReport
	var _ shield.AuditEntry
	var _ shield.AuditSink

	var _ error = shield.ErrRateLimited
	var _ error = shield.ErrBlocked
	var _ error = shield.ErrSessionNotFound
	var _ error = shield.ErrSessionExpired
	var _ error = shield.ErrFingerprintMismatch
	var _ error = shield.ErrDecryptionFailed
	var _ error = shield.ErrBackupIntegrity

	var _ func(*shield.Shield, middleware.Options) func(http.Handler) http.Handler = middleware.Guard
	var _ func(*shield.Shield, middleware.Options) func(http.Handler) http.Handler = middleware.Perimeter

	var _ func(*shield.Shield, string, session.Fingerprint) (session.Session, error) = (*shield.Shield).CreateSession
	var _ func(*shield.Shield, string, session.Fingerprint) (session.Session, error) = (*shield.Shield).ValidateSession
	var _ func(*shield.Shield, string, string) error = (*shield.Shield).CheckLimit
	var _ func(*shield.Shield, firewall.Request) firewall.Decision = (*shield.Shield).CheckRequest
	var _ func(*shield.Shield, firewall.Request, string) error = (*shield.Shield).Guard
}
