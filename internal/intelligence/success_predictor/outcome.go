package success_predictor

import (
	"math"

	"github.com/turtacn/TreatIQ-Intelligence/pkg/types/prediction"
)

const (
	minSatisfaction = 1
	maxSatisfaction = 5
)

// ProjectOutcome scales the category baselines by the success score.
// Satisfaction stays on its 1 to 5 scale.
func (m *ModelConfig) ProjectOutcome(c prediction.Category, score float64) prediction.ExpectedResults {
	b := m.Baseline(c)
	s := clamp01(score)

	satisfaction := int(math.Round(b.Satisfaction * s))
	if satisfaction < minSatisfaction {
		satisfaction = minSatisfaction
	}
	if satisfaction > maxSatisfaction {
		satisfaction = maxSatisfaction
	}

	return prediction.ExpectedResults{
		Improvement:  int(math.Round(b.Improvement * s)),
		Satisfaction: satisfaction,
		Longevity:    int(math.Round(b.Longevity * (0.8 + 0.4*s))),
	}
}

//Personal.AI order the ending
