package firewall

// UseCase defines a public type used by shield APIs.
//
// UseCase selects the acceptance floor applied when scoring a validation.
// Conversions are held to a stricter bar than clicks because they carry
// monetary consequence.
type UseCase string

const (
	// UseCaseClick is an exported constant or variable used by the security engine.
	UseCaseClick UseCase = "click"
	// UseCaseConversion is an exported constant or variable used by the security engine.
	UseCaseConversion UseCase = "conversion"
)

// Check is one independent boolean validation signal.
type Check struct {
	Name   string
	Passed bool
}

// ScoreResult defines a public type used by shield APIs.
type ScoreResult struct {
	Score    int
	Accepted bool
	Failed   []string
}

// ScorerConfig holds quality scoring parameters.
type ScorerConfig struct {
	// PenaltyPerFailure is subtracted from 100 for each failed check.
	PenaltyPerFailure int
	// Floors maps use cases to their minimum accepted score.
	Floors map[UseCase]int
}

// Scorer computes quality scores for click and conversion validation. It is
// stateless and safe for concurrent use.
type Scorer struct {
	config ScorerConfig
}

// NewScorer applies defaults (penalty 20, click floor 60, conversion floor
// 70) for any zero field and returns a [Scorer].
func NewScorer(cfg ScorerConfig) *Scorer {
	if cfg.PenaltyPerFailure <= 0 {
		cfg.PenaltyPerFailure = 20
	}
	if cfg.Floors == nil {
		cfg.Floors = map[UseCase]int{}
	}
	if _, ok := cfg.Floors[UseCaseClick]; !ok {
		cfg.Floors[UseCaseClick] = 60
	}
	if _, ok := cfg.Floors[UseCaseConversion]; !ok {
		cfg.Floors[UseCaseConversion] = 70
	}
	return &Scorer{config: cfg}
}

// Score runs the checks and accepts the action when the quality score meets
// the use case's floor. score = max(0, 100 - penalty * failures).
func (s *Scorer) Score(useCase UseCase, checks []Check) ScoreResult {
	result := ScoreResult{Score: 100}
	for _, check := range checks {
		if !check.Passed {
			result.Failed = append(result.Failed, check.Name)
		}
	}

	result.Score -= s.config.PenaltyPerFailure * len(result.Failed)
	if result.Score < 0 {
		result.Score = 0
	}

	floor, ok := s.config.Floors[useCase]
	if !ok {
		floor = s.config.Floors[UseCaseClick]
	}
	result.Accepted = result.Score >= floor
	return result
}
