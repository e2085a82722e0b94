package firewall

import "testing"

func TestThreatLogAppendAndResolve(t *testing.T) {
	log := NewThreatLog(10)

	threat := log.Append("brute_force", "repeated login failures", SeverityHigh)
	if threat.ID == "" || threat.Status != ThreatActive {
		t.Fatalf("unexpected threat record: %+v", threat)
	}
	if got := log.ActiveCount(); got != 1 {
		t.Fatalf("expected 1 active threat, got %d", got)
	}

	if !log.Resolve(threat.ID) {
		t.Fatal("Resolve reported unknown ID for existing threat")
	}
	if log.Resolve("missing") {
		t.Fatal("Resolve reported success for unknown ID")
	}
	if got := log.ActiveCount(); got != 0 {
		t.Fatalf("expected 0 active threats, got %d", got)
	}
}

func TestThreatLogEvictsOldest(t *testing.T) {
	log := NewThreatLog(3)

	first := log.Append("a", "", SeverityLow)
	for _, name := range []string{"b", "c", "d"} {
		log.Append(name, "", SeverityLow)
	}

	if got := log.Len(); got != 3 {
		t.Fatalf("ring not bounded, len %d", got)
	}
	for _, threat := range log.Snapshot() {
		if threat.ID == first.ID {
			t.Fatal("oldest record not evicted")
		}
	}
}

func TestThreatLogRecentNewestFirst(t *testing.T) {
	log := NewThreatLog(10)
	log.Append("a", "", SeverityLow)
	log.Append("b", "", SeverityLow)
	log.Append("c", "", SeverityLow)

	recent := log.Recent(2)
	if len(recent) != 2 || recent[0].Type != "c" || recent[1].Type != "b" {
		t.Fatalf("unexpected recent order: %+v", recent)
	}
}

func TestScorerFloors(t *testing.T) {
	scorer := NewScorer(ScorerConfig{})

	checks := []Check{
		{Name: "has_referrer", Passed: true},
		{Name: "human_interval", Passed: true},
		{Name: "known_agent", Passed: false},
		{Name: "ip_reputation", Passed: false},
	}

	// Two failures at penalty 20: score 60. Click floor 60 accepts,
	// conversion floor 70 does not.
	click := scorer.Score(UseCaseClick, checks)
	if click.Score != 60 || !click.Accepted {
		t.Fatalf("unexpected click result: %+v", click)
	}

	conversion := scorer.Score(UseCaseConversion, checks)
	if conversion.Score != 60 || conversion.Accepted {
		t.Fatalf("unexpected conversion result: %+v", conversion)
	}
	if len(conversion.Failed) != 2 {
		t.Fatalf("expected 2 failed checks, got %v", conversion.Failed)
	}
}

func TestScoreNeverNegative(t *testing.T) {
	scorer := NewScorer(ScorerConfig{PenaltyPerFailure: 30})

	checks := make([]Check, 6)
	for i := range checks {
		checks[i] = Check{Name: "c", Passed: false}
	}

	if result := scorer.Score(UseCaseClick, checks); result.Score != 0 || result.Accepted {
		t.Fatalf("expected floor at zero, got %+v", result)
	}
}

func TestAllChecksPassing(t *testing.T) {
	scorer := NewScorer(ScorerConfig{})

	result := scorer.Score(UseCaseConversion, []Check{{Name: "a", Passed: true}})
	if result.Score != 100 || !result.Accepted {
		t.Fatalf("expected full score, got %+v", result)
	}
}
