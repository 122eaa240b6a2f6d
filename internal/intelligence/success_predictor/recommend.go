package success_predictor

import (
	"github.com/turtacn/TreatIQ-Intelligence/pkg/types/prediction"
)

// RuleID tags a recommendation rule.
type RuleID string

const (
	RuleExcellentCandidate   RuleID = "excellent_candidate"
	RuleGoodCandidate        RuleID = "good_candidate"
	RuleConsiderAlternatives RuleID = "consider_alternatives"
	RuleHigherRisk           RuleID = "higher_risk"
	RuleStressManagement     RuleID = "stress_management"
	RuleSleepRecovery        RuleID = "sleep_recovery"
	RuleSunProtection        RuleID = "sun_protection"
)

// RuleInput is everything a recommendation rule may inspect.
type RuleInput struct {
	Score     float64
	Risks     prediction.RiskDistribution
	Profile   *prediction.PatientProfile
	Treatment *prediction.TreatmentRecord
}

// RecommendationRule appends Message when Applies holds.
type RecommendationRule struct {
	ID      RuleID
	Applies func(in *RuleInput) bool
	Message string
}

const (
	highRiskThreshold = 0.2
	excellentScore    = 0.8
	goodScore         = 0.6
)

// DefaultRecommendationRules returns the standard rule list in evaluation
// order.  A fresh slice is returned on every call.
func DefaultRecommendationRules() []RecommendationRule {
	return []RecommendationRule{
		{
			ID:      RuleExcellentCandidate,
			Applies: func(in *RuleInput) bool { return in.Score > excellentScore },
			Message: "Excellent candidate for this treatment.",
		},
		{
			ID:      RuleGoodCandidate,
			Applies: func(in *RuleInput) bool { return in.Score >= goodScore && in.Score <= excellentScore },
			Message: "Good candidate for this treatment.",
		},
		{
			ID:      RuleConsiderAlternatives,
			Applies: func(in *RuleInput) bool { return in.Score < goodScore },
			Message: "Consider alternative treatments with a higher predicted success.",
		},
		{
			ID:      RuleHigherRisk,
			Applies: func(in *RuleInput) bool { return in.Risks.High > highRiskThreshold },
			Message: "Higher risk profile: ensure a thorough consultation before proceeding.",
		},
		{
			ID:      RuleStressManagement,
			Applies: func(in *RuleInput) bool { return in.Profile.Lifestyle.Stress == prediction.LevelHigh },
			Message: "Reduce stress and prioritise sleep in the weeks around treatment to support results.",
		},
		{
			ID:      RuleSleepRecovery,
			Applies: func(in *RuleInput) bool { return in.Profile.Lifestyle.Sleep == prediction.QualityPoor },
			Message: "Improve sleep quality to support recovery after treatment.",
		},
		{
			ID: RuleSunProtection,
			Applies: func(in *RuleInput) bool {
				return in.Treatment.Category == prediction.CategoryLaser &&
					in.Profile.Environment.SunExposure == prediction.LevelHigh
			},
			Message: "Avoid direct sun and use broad-spectrum SPF 50 before and after laser sessions.",
		},
	}
}

// Recommend evaluates rules in order; each contributes at most one message.
func Recommend(rules []RecommendationRule, in *RuleInput) []string {
	out := make([]string, 0, len(rules))
	for _, r := range rules {
		if r.Applies != nil && r.Applies(in) {
			out = append(out, r.Message)
		}
	}
	return out
}

// Alternatives returns competing suggestions for the treatment.  Sibling
// re-scoring is not implemented, so the list is always empty.
func Alternatives(_ *RuleInput) []prediction.Alternative {
	return []prediction.Alternative{}
}

//Personal.AI order the ending
