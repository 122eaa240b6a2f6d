package success_predictor

import (
	"math"

	"github.com/turtacn/TreatIQ-Intelligence/pkg/types/prediction"
)

const (
	// similarAgeDelta is the exclusive age distance for a similar patient.
	similarAgeDelta = 10

	historyMultiplierFloor = 0.7
	historyMultiplierRange = 0.6
)

// BaseScore combines the feature scores: 0.5 + Σ wᵢ(sᵢ − 0.5), clamped.
func (m *ModelConfig) BaseScore(f FeatureScores) float64 {
	w := m.weights
	sum := w.Age*(f.Age-neutralScore) +
		w.SkinType*(f.SkinType-neutralScore) +
		w.Conditions*(f.Conditions-neutralScore) +
		w.PriorTreatments*(f.PriorTreatments-neutralScore) +
		w.Lifestyle*(f.Lifestyle-neutralScore) +
		w.Environmental*(f.Environmental-neutralScore) +
		w.TreatmentMatch*(f.TreatmentMatch-neutralScore)
	return clamp01(neutralScore + sum)
}

// HistoricalMatch summarises the historical cases for one treatment.
// SimilarCount counts every similar patient whatever treatment they received;
// Count and AverageSuccess cover only those who received the treatment.
type HistoricalMatch struct {
	SimilarCount   int     `json:"similar_count"`
	Count          int     `json:"count"`
	AverageSuccess float64 `json:"average_success"`
	Multiplier     float64 `json:"multiplier"`
}

// SimilarPatient reports whether a historical record describes a patient
// similar to p.  Only age is compared; a profile without an age matches
// nothing.
func SimilarPatient(p *prediction.PatientProfile, h *prediction.HistoricalRecord) bool {
	age, ok := p.KnownAge()
	if !ok || h == nil {
		return false
	}
	delta := age - h.PatientAge
	if delta < 0 {
		delta = -delta
	}
	return delta < similarAgeDelta
}

// MatchHistory filters records to similar patients, then to those who
// received treatmentID, and derives the adjustment multiplier, 1.0 when no
// similar patient received it.
func MatchHistory(p *prediction.PatientProfile, treatmentID string, records []*prediction.HistoricalRecord) HistoricalMatch {
	var total float64
	similar, n := 0, 0
	for _, h := range records {
		if !SimilarPatient(p, h) {
			continue
		}
		similar++
		if h.TreatmentID != treatmentID {
			continue
		}
		total += clamp01(h.SuccessRate)
		n++
	}
	if n == 0 {
		return HistoricalMatch{SimilarCount: similar, Multiplier: 1}
	}
	avg := total / float64(n)
	return HistoricalMatch{
		SimilarCount:   similar,
		Count:          n,
		AverageSuccess: avg,
		Multiplier:     historyMultiplierFloor + historyMultiplierRange*avg,
	}
}

// AdjustScore applies the historical multiplier and re-clamps to [0,1].
func AdjustScore(base float64, h HistoricalMatch) float64 {
	mult := h.Multiplier
	if mult == 0 || math.IsNaN(mult) {
		mult = 1
	}
	return clamp01(base * mult)
}

// SuccessProbability renders a score as an integer percentage in [5,95].
func SuccessProbability(score float64) int {
	return int(math.Round(clamp(score, 0.05, 0.95) * 100))
}

//Personal.AI order the ending
