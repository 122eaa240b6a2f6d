package success_predictor

import (
	"fmt"
	"math"

	"github.com/turtacn/TreatIQ-Intelligence/pkg/errors"
	"github.com/turtacn/TreatIQ-Intelligence/pkg/types/prediction"
)

// riskSumTolerance is the permitted drift of a normalised distribution.
const riskSumTolerance = 1e-6

// riskAgeThreshold is the age above which the age adjustment applies.
const riskAgeThreshold = 50

var (
	baselineRisk = prediction.RiskDistribution{Low: 0.70, Medium: 0.25, High: 0.05}

	ageRiskShift       = prediction.RiskDistribution{Low: -0.10, Medium: 0.05, High: 0.05}
	smokingRiskShift   = prediction.RiskDistribution{Low: -0.10, Medium: 0.05, High: 0.05}
	intensityRiskShift = prediction.RiskDistribution{Low: -0.20, Medium: 0.10, High: 0.10}
)

// StratifyRisk shifts the baseline distribution for age over 50, smoking and
// high-intensity treatments, then renormalises it to sum to 1.
func StratifyRisk(p *prediction.PatientProfile, t *prediction.TreatmentRecord) (prediction.RiskDistribution, error) {
	r := baselineRisk
	if age, ok := p.KnownAge(); ok && age > riskAgeThreshold {
		r = shiftRisk(r, ageRiskShift)
	}
	if p.Lifestyle.Smoking {
		r = shiftRisk(r, smokingRiskShift)
	}
	if t.Intensity == prediction.LevelHigh {
		r = shiftRisk(r, intensityRiskShift)
	}
	return normaliseRisk(t.ID, r)
}

func shiftRisk(r, d prediction.RiskDistribution) prediction.RiskDistribution {
	return prediction.RiskDistribution{Low: r.Low + d.Low, Medium: r.Medium + d.Medium, High: r.High + d.High}
}

func normaliseRisk(treatmentID string, r prediction.RiskDistribution) (prediction.RiskDistribution, error) {
	r.Low, r.Medium, r.High = math.Max(r.Low, 0), math.Max(r.Medium, 0), math.Max(r.High, 0)

	sum := r.Sum()
	if sum <= 0 || math.IsNaN(sum) || math.IsInf(sum, 0) {
		return prediction.RiskDistribution{}, errors.NewComputationError(treatmentID, "risk buckets cannot be normalised").
			WithDetail(fmt.Sprintf("treatment_id=%s sum=%v", treatmentID, sum))
	}
	out := prediction.RiskDistribution{Low: r.Low / sum, Medium: r.Medium / sum, High: r.High / sum}
	if math.Abs(out.Sum()-1) > riskSumTolerance {
		return prediction.RiskDistribution{}, errors.NewComputationError(treatmentID, "risk buckets do not sum to 1").
			WithDetail(fmt.Sprintf("treatment_id=%s sum=%v", treatmentID, out.Sum()))
	}
	return out, nil
}

//Personal.AI order the ending
