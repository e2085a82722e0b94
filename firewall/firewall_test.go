package firewall

import (
	"testing"
	"time"
)

func newTestFirewall(t *testing.T, cfg Config) (*Firewall, *time.Time) {
	t.Helper()

	fw, err := New(cfg)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	current := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	fw.now = func() time.Time { return current }
	return fw, &current
}

func cleanRequest(actor string) Request {
	return Request{
		ActorID:   actor,
		UserAgent: "Mozilla/5.0 (X11; Linux x86_64) Firefox/140.0",
		URL:       "/videos/genesis-01",
		IP:        "10.0.0.1",
	}
}

func TestCleanRequestAllowed(t *testing.T) {
	fw, _ := newTestFirewall(t, Config{})

	decision := fw.CheckRequest(cleanRequest("actor-1"))
	if !decision.Allowed {
		t.Fatalf("clean request rejected: %s", decision.Reason)
	}
}

func TestBlockedActorRejected(t *testing.T) {
	fw, _ := newTestFirewall(t, Config{})

	fw.Block("actor-1")
	decision := fw.CheckRequest(cleanRequest("actor-1"))
	if decision.Allowed || decision.Reason != ReasonBlocked {
		t.Fatalf("expected BLOCKED, got %+v", decision)
	}

	fw.Unblock("actor-1")
	if decision := fw.CheckRequest(cleanRequest("actor-1")); !decision.Allowed {
		t.Fatalf("unblocked actor still rejected: %s", decision.Reason)
	}
}

func TestSuspiciousUserAgentRejectedAndRecorded(t *testing.T) {
	fw, _ := newTestFirewall(t, Config{})

	req := cleanRequest("actor-1")
	req.UserAgent = "curl/8.5.0"

	decision := fw.CheckRequest(req)
	if decision.Allowed || decision.Reason != ReasonSuspiciousPattern {
		t.Fatalf("expected SUSPICIOUS_PATTERN, got %+v", decision)
	}
	if got := fw.ActivityCount("actor-1"); got != 1 {
		t.Fatalf("pattern match not recorded, count %d", got)
	}
}

func TestScriptInjectionURLRejected(t *testing.T) {
	fw, _ := newTestFirewall(t, Config{})

	req := cleanRequest("actor-1")
	req.URL = "/search?q=<script>alert(1)</script>"

	if decision := fw.CheckRequest(req); decision.Allowed || decision.Reason != ReasonSuspiciousPattern {
		t.Fatalf("expected SUSPICIOUS_PATTERN, got %+v", decision)
	}
}

func TestAutoBlockWithinWindow(t *testing.T) {
	fw, now := newTestFirewall(t, Config{AutoBlockThreshold: 10, AlertThreshold: 5})

	var blocked bool
	for i := 0; i < 11; i++ {
		blocked = fw.RecordSuspicious("actor-1", "probe")
		*now = now.Add(time.Second)
	}
	if !blocked {
		t.Fatal("11 events within 5 minutes should auto-block")
	}
	if !fw.IsBlocked("actor-1") {
		t.Fatal("actor missing from blocked set")
	}
}

func TestNoAutoBlockWhenSpreadOut(t *testing.T) {
	fw, now := newTestFirewall(t, Config{AutoBlockThreshold: 10, AlertThreshold: 5})

	// 11 events across 20 minutes never put 11 inside any 5-minute span.
	for i := 0; i < 11; i++ {
		fw.RecordSuspicious("actor-1", "probe")
		*now = now.Add(2 * time.Minute)
	}
	if fw.IsBlocked("actor-1") {
		t.Fatal("events spread across 20 minutes must not auto-block")
	}
}

func TestAlertThresholdRejectsWithoutBlocking(t *testing.T) {
	fw, _ := newTestFirewall(t, Config{AutoBlockThreshold: 10, AlertThreshold: 3})

	for i := 0; i < 4; i++ {
		fw.RecordSuspicious("actor-1", "probe")
	}

	decision := fw.CheckRequest(cleanRequest("actor-1"))
	if decision.Allowed || decision.Reason != ReasonSuspiciousActivity {
		t.Fatalf("expected SUSPICIOUS_ACTIVITY, got %+v", decision)
	}
	if fw.IsBlocked("actor-1") {
		t.Fatal("alert threshold must not block")
	}
}

func TestActivityLogBounded(t *testing.T) {
	fw, now := newTestFirewall(t, Config{MaxActivityPerActor: 100, AutoBlockThreshold: 1000, AlertThreshold: 999})

	for i := 0; i < 150; i++ {
		fw.RecordSuspicious("actor-1", "probe")
	}
	if got := len(fw.activity["actor-1"]); got != 100 {
		t.Fatalf("activity log not bounded to 100, got %d", got)
	}
	_ = now
}

func TestSnapshotRestoreRoundTrip(t *testing.T) {
	fw, _ := newTestFirewall(t, Config{})
	fw.Block("actor-1")
	fw.RecordSuspicious("actor-2", "probe")

	state := fw.Snapshot()

	restored, _ := newTestFirewall(t, Config{})
	restored.Restore(state)

	if !restored.IsBlocked("actor-1") {
		t.Fatal("blocked set lost in round trip")
	}
	if got := restored.ActivityCount("actor-2"); got != 1 {
		t.Fatalf("activity lost in round trip, count %d", got)
	}
}
