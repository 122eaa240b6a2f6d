package success_predictor

import (
	"math"
	"strings"

	"github.com/turtacn/TreatIQ-Intelligence/pkg/types/prediction"
)

// Scorer constants.  0.5 is the neutral "no information" value.
const (
	neutralScore = 0.5

	outOfWindowAgeScore = 0.3
	noConditionsScore   = 0.7
	noPriorScore        = 0.6
	similarPriorScore   = 0.8
	unrelatedPriorScore = 0.5

	contraindicationPenalty = 0.2
	bestForBonus            = 0.15
)

// FeatureScores are the seven per-factor affinities, each in [0,1].
type FeatureScores struct {
	Age             float64 `json:"age"`
	SkinType        float64 `json:"skin_type"`
	Conditions      float64 `json:"conditions"`
	PriorTreatments float64 `json:"prior_treatments"`
	Lifestyle       float64 `json:"lifestyle"`
	Environmental   float64 `json:"environmental"`
	TreatmentMatch  float64 `json:"treatment_match"`
}

// ScoreFeatures runs all seven scorers and clamps each result to [0,1].
func (m *ModelConfig) ScoreFeatures(p *prediction.PatientProfile, t *prediction.TreatmentRecord) FeatureScores {
	return FeatureScores{
		Age:             clamp01(m.AgeFit(p, t)),
		SkinType:        clamp01(m.SkinTypeCompatibility(p, t)),
		Conditions:      clamp01(m.ConditionMatch(p, t)),
		PriorTreatments: clamp01(PriorTreatmentExperience(p, t)),
		Lifestyle:       clamp01(LifestyleFitness(p)),
		Environmental:   clamp01(EnvironmentalFitness(p, t)),
		TreatmentMatch:  clamp01(CriteriaMatch(p, t)),
	}
}

// AgeFit peaks at the optimal age of the treatment's window and decays
// linearly to 0.3 at the window edge.  Ages outside the window score 0.3 and
// a profile without an age is neutral.
func (m *ModelConfig) AgeFit(p *prediction.PatientProfile, t *prediction.TreatmentRecord) float64 {
	age, ok := p.KnownAge()
	if !ok {
		return neutralScore
	}
	w := m.AgeWindowFor(t)
	if age < w.Min || age > w.Max {
		return outOfWindowAgeScore
	}
	span := math.Max(float64(w.Optimal-w.Min), float64(w.Max-w.Optimal))
	if span <= 0 {
		return 1
	}
	distance := math.Abs(float64(age - w.Optimal))
	return outOfWindowAgeScore + (1-outOfWindowAgeScore)*(1-distance/span)
}

// SkinTypeCompatibility looks up {skin type × category}.
func (m *ModelConfig) SkinTypeCompatibility(p *prediction.PatientProfile, t *prediction.TreatmentRecord) float64 {
	if row, ok := m.skinAffinity[p.SkinType]; ok {
		if v, ok := row[t.Category]; ok {
			return v
		}
	}
	return neutralScore
}

// ConditionMatch averages {condition × category} over declared conditions.
func (m *ModelConfig) ConditionMatch(p *prediction.PatientProfile, t *prediction.TreatmentRecord) float64 {
	if len(p.SkinConditions) == 0 {
		return noConditionsScore
	}
	var total float64
	for _, c := range p.SkinConditions {
		v := neutralScore
		if row, ok := m.conditionAffinity[prediction.NormalizeTerm(c)]; ok {
			if a, ok := row[t.Category]; ok {
				v = a
			}
		}
		total += v
	}
	return total / float64(len(p.SkinConditions))
}

// PriorTreatmentExperience rewards experience with a similar treatment.
func PriorTreatmentExperience(p *prediction.PatientProfile, t *prediction.TreatmentRecord) float64 {
	if len(p.PreviousTreatments) == 0 {
		return noPriorScore
	}
	for _, prev := range p.PreviousTreatments {
		if SimilarTreatment(prev, t.ID) {
			return similarPriorScore
		}
	}
	return unrelatedPriorScore
}

// SimilarTreatment reports whether two treatment ids are identical or share
// a non-empty prefix, the prefix being the text before the first '-' or '_'.
// Ids without a separator are their own prefix.
func SimilarTreatment(a, b string) bool {
	a, b = prediction.NormalizeTerm(a), prediction.NormalizeTerm(b)
	if a == "" || b == "" {
		return false
	}
	if a == b {
		return true
	}
	pa, pb := idPrefix(a), idPrefix(b)
	return pa != "" && pa == pb
}

func idPrefix(id string) string {
	if i := strings.IndexAny(id, "-_"); i >= 0 {
		return id[:i]
	}
	return id
}

// LifestyleFitness scores recovery-relevant habits.
func LifestyleFitness(p *prediction.PatientProfile) float64 {
	l := p.Lifestyle
	s := neutralScore

	switch l.Sleep {
	case prediction.QualityGood:
		s += 0.1
	case prediction.QualityPoor:
		s -= 0.1
	}
	switch l.Diet {
	case prediction.QualityGood:
		s += 0.1
	case prediction.QualityPoor:
		s -= 0.1
	}
	switch l.Stress {
	case prediction.LevelLow:
		s += 0.1
	case prediction.LevelHigh:
		s -= 0.1
	}
	if l.Smoking {
		s -= 0.15
	}
	switch l.Alcohol {
	case prediction.AlcoholRegular:
		s -= 0.1
	case prediction.AlcoholNone:
		s += 0.05
	}
	return clamp01(s)
}

// EnvironmentalFitness scores pollution, sun exposure and climate against the
// treatment category.
func EnvironmentalFitness(p *prediction.PatientProfile, t *prediction.TreatmentRecord) float64 {
	e := p.Environment
	s := neutralScore

	switch e.Pollution {
	case prediction.LevelHigh:
		s -= 0.1
	case prediction.LevelLow:
		s += 0.05
	}
	if t.Category == prediction.CategoryLaser && e.SunExposure == prediction.LevelHigh {
		s -= 0.15
	}
	if t.Category == prediction.CategoryFacial && e.Climate == prediction.ClimateDry {
		s -= 0.1
	}
	return clamp01(s)
}

// CriteriaMatch penalises matched contraindications and rewards matched
// best-for criteria.  Patient traits are the declared skin conditions, the
// skin type and "smoking" for smokers, compared case-insensitively.  Each
// distinct criterion counts once.
func CriteriaMatch(p *prediction.PatientProfile, t *prediction.TreatmentRecord) float64 {
	traits := patientTraits(p)
	s := neutralScore
	s -= contraindicationPenalty * float64(countMatches(t.Contraindications, traits))
	s += bestForBonus * float64(countMatches(t.BestFor, traits))
	return clamp01(s)
}

func patientTraits(p *prediction.PatientProfile) map[string]struct{} {
	traits := make(map[string]struct{}, len(p.SkinConditions)+2)
	for _, c := range p.SkinConditions {
		traits[prediction.NormalizeTerm(c)] = struct{}{}
	}
	if p.SkinType != "" {
		traits[string(p.SkinType)] = struct{}{}
	}
	if p.Lifestyle.Smoking {
		traits["smoking"] = struct{}{}
	}
	return traits
}

func countMatches(criteria []string, traits map[string]struct{}) int {
	seen := make(map[string]struct{}, len(criteria))
	n := 0
	for _, c := range criteria {
		term := prediction.NormalizeTerm(c)
		if _, dup := seen[term]; dup {
			continue
		}
		seen[term] = struct{}{}
		if _, ok := traits[term]; ok {
			n++
		}
	}
	return n
}

func clamp01(v float64) float64 {
	return clamp(v, 0, 1)
}

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

//Personal.AI order the ending
