package shield

import (
	"fmt"

	"github.com/ericalber/shield/firewall"
)

// CheckRequest screens one request against the block list and the
// suspicious-pattern set. A pattern hit is recorded as suspicious activity
// and may push the actor over the alert or auto-block thresholds.
func (s *Shield) CheckRequest(req firewall.Request) firewall.Decision {
	if s == nil {
		return firewall.Decision{Allowed: false, Reason: firewall.ReasonBlocked}
	}
	decision := s.fw.CheckRequest(req)
	if decision.Allowed {
		s.metrics.inc(MetricRequestAllowed)
		return decision
	}
	s.metrics.inc(MetricRequestBlocked)
	switch decision.Reason {
	case firewall.ReasonSuspiciousPattern:
		s.metrics.inc(MetricSuspiciousPattern)
		s.threats.Append("suspicious_pattern", fmt.Sprintf("pattern hit from %s on %s", req.IP, req.URL), firewall.SeverityMedium)
		s.emitAudit(auditEventRequestBlocked, req.ActorID, func() map[string]string {
			return map[string]string{"reason": string(decision.Reason), "ip": req.IP, "url": req.URL}
		})
	case firewall.ReasonSuspiciousActivity:
		s.threats.Append("suspicious_activity", fmt.Sprintf("activity threshold exceeded by %s", req.ActorID), firewall.SeverityHigh)
		s.emitAudit(auditEventRequestBlocked, req.ActorID, func() map[string]string {
			return map[string]string{"reason": string(decision.Reason)}
		})
	default:
		s.emitAudit(auditEventRequestBlocked, req.ActorID, func() map[string]string {
			return map[string]string{"reason": string(decision.Reason)}
		})
	}
	return decision
}

// CheckLimit admits or rejects one event for an actor within an action
// class. Rejected events do not consume budget.
func (s *Shield) CheckLimit(actorID, class string) error {
	if s == nil {
		return ErrNotReady
	}
	if !s.limiter.Allow(actorID, class) {
		s.metrics.inc(MetricRateLimited)
		s.emitAudit(auditEventRateLimited, actorID, func() map[string]string {
			return map[string]string{"class": class}
		})
		return ErrRateLimited
	}
	return nil
}

// Attempts reports how many events an actor has inside the current window
// for the given class.
func (s *Shield) Attempts(actorID, class string) int {
	if s == nil {
		return 0
	}
	return s.limiter.Attempts(actorID, class)
}

// Guard composes the perimeter checks in decision order: firewall first,
// then the rate limiter. Session validation stays separate so anonymous
// endpoints can share the same perimeter.
func (s *Shield) Guard(req firewall.Request, class string) error {
	if s == nil {
		return ErrNotReady
	}
	if decision := s.CheckRequest(req); !decision.Allowed {
		return ErrBlocked
	}
	return s.CheckLimit(req.ActorID, class)
}

// RecordSuspicious notes one suspicious event for an actor and reports
// whether the event tripped the auto-block threshold.
func (s *Shield) RecordSuspicious(actorID, eventType string) bool {
	if s == nil {
		return false
	}
	blocked := s.fw.RecordSuspicious(actorID, eventType)
	s.emitAudit(auditEventSuspicious, actorID, func() map[string]string {
		return map[string]string{"type": eventType}
	})
	if blocked {
		s.metrics.inc(MetricActorBlocked)
		s.threats.Append("auto_block", fmt.Sprintf("actor %s auto-blocked after repeated %s", actorID, eventType), firewall.SeverityCritical)
		s.emitAudit(auditEventActorBlocked, actorID, func() map[string]string {
			return map[string]string{"trigger": eventType, "mode": "auto"}
		})
	}
	return blocked
}

// BlockActor adds an actor to the block list.
func (s *Shield) BlockActor(actorID string) {
	if s == nil {
		return
	}
	s.fw.Block(actorID)
	s.metrics.inc(MetricActorBlocked)
	s.emitAudit(auditEventActorBlocked, actorID, func() map[string]string {
		return map[string]string{"mode": "manual"}
	})
}

// UnblockActor removes an actor from the block list. Unknown actors are a
// no-op.
func (s *Shield) UnblockActor(actorID string) {
	if s == nil {
		return
	}
	s.fw.Unblock(actorID)
	s.emitAudit(auditEventActorUnblocked, actorID, nil)
}

// IsBlocked reports whether an actor is currently on the block list.
func (s *Shield) IsBlocked(actorID string) bool {
	if s == nil {
		return false
	}
	return s.fw.IsBlocked(actorID)
}

// BlockedActors returns the current block list, sorted.
func (s *Shield) BlockedActors() []string {
	if s == nil {
		return nil
	}
	return s.fw.BlockedActors()
}

// ReportThreat records a threat observed outside the firewall path.
func (s *Shield) ReportThreat(threatType, description string, severity firewall.Severity) firewall.Threat {
	if s == nil {
		return firewall.Threat{}
	}
	return s.threats.Append(threatType, description, severity)
}

// ResolveThreat marks a threat as handled. It reports whether the ID was
// found.
func (s *Shield) ResolveThreat(id string) bool {
	if s == nil {
		return false
	}
	return s.threats.Resolve(id)
}

// RecentThreats returns up to n most recent threats, newest first.
func (s *Shield) RecentThreats(n int) []firewall.Threat {
	if s == nil {
		return nil
	}
	return s.threats.Recent(n)
}

// Score evaluates traffic-quality checks for a use case against its
// configured floor.
func (s *Shield) Score(useCase firewall.UseCase, checks []firewall.Check) firewall.ScoreResult {
	if s == nil {
		return firewall.ScoreResult{}
	}
	return s.scorer.Score(useCase, checks)
}
