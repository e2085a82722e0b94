package session

import (
	"errors"
	"testing"
	"time"
)

func newTestStore(cfg Config) (*Store, *time.Time) {
	current := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	store := NewStore(cfg)
	store.now = func() time.Time { return current }
	return store, &current
}

var testFP = Fingerprint{UserAgent: "ua-1", IP: "10.0.0.1"}

func TestCreateAndValidate(t *testing.T) {
	store, _ := newTestStore(Config{Timeout: time.Hour, BindFingerprint: true})

	created, err := store.Create("user-1", testFP)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if created.ID == "" {
		t.Fatal("empty session ID")
	}

	got, err := store.Validate(created.ID, testFP)
	if err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if got.UserID != "user-1" {
		t.Fatalf("unexpected user %q", got.UserID)
	}
}

func TestConcurrencyCapEvictsOldest(t *testing.T) {
	store, now := newTestStore(Config{Timeout: time.Hour, MaxPerUser: 3})

	var ids []string
	for i := 0; i < 3; i++ {
		sess, err := store.Create("user-1", testFP)
		if err != nil {
			t.Fatalf("Create failed: %v", err)
		}
		ids = append(ids, sess.ID)
		*now = now.Add(time.Minute)
	}

	if _, err := store.Create("user-1", testFP); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if _, err := store.Validate(ids[0], testFP); !errors.Is(err, ErrNotFound) {
		t.Fatalf("oldest session should be evicted, got %v", err)
	}
	if _, err := store.Validate(ids[1], testFP); err != nil {
		t.Fatalf("second-oldest session should survive, got %v", err)
	}
	if got := store.Count(); got != 3 {
		t.Fatalf("expected 3 sessions after eviction, got %d", got)
	}
}

func TestExpiredSessionPurgedOnValidate(t *testing.T) {
	store, now := newTestStore(Config{Timeout: time.Hour})

	sess, err := store.Create("user-1", testFP)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	*now = now.Add(2 * time.Hour)
	if _, err := store.Validate(sess.ID, testFP); !errors.Is(err, ErrExpired) {
		t.Fatalf("expected ErrExpired, got %v", err)
	}
	for _, live := range store.ListActive() {
		if live.ID == sess.ID {
			t.Fatal("expired session still listed as active")
		}
	}
	if got := store.Count(); got != 0 {
		t.Fatalf("expired session not purged, count %d", got)
	}
}

func TestFingerprintMismatchDoesNotDestroy(t *testing.T) {
	store, _ := newTestStore(Config{Timeout: time.Hour, BindFingerprint: true})

	sess, err := store.Create("user-1", testFP)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	spoofed := Fingerprint{UserAgent: "ua-other", IP: "10.9.9.9"}
	if _, err := store.Validate(sess.ID, spoofed); !errors.Is(err, ErrFingerprintMismatch) {
		t.Fatalf("expected ErrFingerprintMismatch, got %v", err)
	}

	// The genuine client must still be able to validate.
	if _, err := store.Validate(sess.ID, testFP); err != nil {
		t.Fatalf("legitimate client rejected after spoof attempt: %v", err)
	}
}

func TestFingerprintIgnoredWhenBindingDisabled(t *testing.T) {
	store, _ := newTestStore(Config{Timeout: time.Hour, BindFingerprint: false})

	sess, err := store.Create("user-1", testFP)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if _, err := store.Validate(sess.ID, Fingerprint{UserAgent: "other"}); err != nil {
		t.Fatalf("binding disabled, mismatch should pass: %v", err)
	}
}

func TestRenewOnlyInsideThreshold(t *testing.T) {
	store, now := newTestStore(Config{Timeout: time.Hour, RenewThreshold: 10 * time.Minute})

	sess, err := store.Create("user-1", testFP)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	originalDeadline := sess.ExpiresAt

	// Well before the threshold: no renewal.
	*now = now.Add(10 * time.Minute)
	got, err := store.Validate(sess.ID, testFP)
	if err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if !got.ExpiresAt.Equal(originalDeadline) {
		t.Fatal("session renewed outside the renew threshold")
	}

	// Inside the threshold: deadline slides forward.
	*now = now.Add(45 * time.Minute)
	got, err = store.Validate(sess.ID, testFP)
	if err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if !got.ExpiresAt.After(originalDeadline) {
		t.Fatal("session not renewed inside the renew threshold")
	}
	if got.LastActivity.Before(*now) {
		t.Fatal("LastActivity not advanced")
	}
}

func TestDestroyIdempotent(t *testing.T) {
	store, _ := newTestStore(Config{Timeout: time.Hour})

	sess, err := store.Create("user-1", testFP)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	store.Destroy(sess.ID)
	store.Destroy(sess.ID)
	store.Destroy("unknown")

	if got := store.Count(); got != 0 {
		t.Fatalf("expected empty store, got %d", got)
	}
}

func TestSweepReclaimsExpired(t *testing.T) {
	store, now := newTestStore(Config{Timeout: time.Hour})

	if _, err := store.Create("user-1", testFP); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	*now = now.Add(30 * time.Minute)
	if _, err := store.Create("user-2", testFP); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	*now = now.Add(45 * time.Minute)
	if removed := store.Sweep(); removed != 1 {
		t.Fatalf("expected 1 swept session, got %d", removed)
	}
	if got := store.Count(); got != 1 {
		t.Fatalf("expected 1 surviving session, got %d", got)
	}
}

func TestSnapshotReplaceRoundTrip(t *testing.T) {
	store, _ := newTestStore(Config{Timeout: time.Hour})

	for _, user := range []string{"user-1", "user-2"} {
		if _, err := store.Create(user, testFP); err != nil {
			t.Fatalf("Create failed: %v", err)
		}
	}

	snapshot := store.Snapshot()
	restored, _ := newTestStore(Config{Timeout: time.Hour})
	restored.Replace(snapshot)

	if got := restored.Count(); got != 2 {
		t.Fatalf("expected 2 restored sessions, got %d", got)
	}
	for _, sess := range snapshot {
		if _, err := restored.Validate(sess.ID, testFP); err != nil {
			t.Fatalf("restored session invalid: %v", err)
		}
	}
}
