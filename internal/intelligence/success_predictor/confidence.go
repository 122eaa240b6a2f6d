package success_predictor

import (
	"math"

	"github.com/turtacn/TreatIQ-Intelligence/pkg/types/prediction"
)

const (
	confidenceBase         = 0.5
	confidencePerCase      = 0.05
	confidenceCaseCap      = 0.3
	confidenceCompleteness = 0.2
)

// Confidence grows with the number of similar historical patients (capped)
// and with profile completeness.
func Confidence(similarPatients int, completeness float64) float64 {
	if similarPatients < 0 {
		similarPatients = 0
	}
	volume := math.Min(confidenceCaseCap, float64(similarPatients)*confidencePerCase)
	return clamp01(confidenceBase + volume + confidenceCompleteness*clamp01(completeness))
}

// ConfidenceScore is the reported integer confidence in [0,100].
func ConfidenceScore(p *prediction.PatientProfile, h HistoricalMatch) int {
	return int(math.Round(Confidence(h.SimilarCount, p.Completeness()) * 100))
}

//Personal.AI order the ending
