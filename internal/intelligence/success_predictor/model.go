package success_predictor

import (
	"fmt"
	"math"

	"github.com/turtacn/TreatIQ-Intelligence/pkg/errors"
	"github.com/turtacn/TreatIQ-Intelligence/pkg/types/prediction"
)

// ---------------------------------------------------------------------------
// Weights
// ---------------------------------------------------------------------------

// weightSumTolerance bounds floating-point drift when validating a weight set.
const weightSumTolerance = 1e-9

// Weights are the aggregation coefficients of the seven feature scorers.
type Weights struct {
	Age             float64 `json:"age" mapstructure:"age"`
	SkinType        float64 `json:"skin_type" mapstructure:"skin_type"`
	Conditions      float64 `json:"conditions" mapstructure:"conditions"`
	PriorTreatments float64 `json:"prior_treatments" mapstructure:"prior_treatments"`
	Lifestyle       float64 `json:"lifestyle" mapstructure:"lifestyle"`
	Environmental   float64 `json:"environmental" mapstructure:"environmental"`
	TreatmentMatch  float64 `json:"treatment_match" mapstructure:"treatment_match"`
}

// DefaultWeights returns the production weight set.
func DefaultWeights() Weights {
	return Weights{
		Age:             0.15,
		SkinType:        0.20,
		Conditions:      0.18,
		PriorTreatments: 0.12,
		Lifestyle:       0.15,
		Environmental:   0.10,
		TreatmentMatch:  0.10,
	}
}

// Sum returns the total of all seven weights.
func (w Weights) Sum() float64 {
	return w.Age + w.SkinType + w.Conditions + w.PriorTreatments + w.Lifestyle + w.Environmental + w.TreatmentMatch
}

func (w Weights) values() []float64 {
	return []float64{w.Age, w.SkinType, w.Conditions, w.PriorTreatments, w.Lifestyle, w.Environmental, w.TreatmentMatch}
}

// Validate requires every weight in [0,1] and a total of exactly 1.
func (w Weights) Validate() error {
	for _, v := range w.values() {
		if math.IsNaN(v) || v < 0 || v > 1 {
			return errors.New(errors.ErrCodeInvalidModelConfig, "weights must lie within [0,1]").
				WithDetail(fmt.Sprintf("%+v", w))
		}
	}
	if math.Abs(w.Sum()-1) > weightSumTolerance {
		return errors.New(errors.ErrCodeInvalidModelConfig, "weights must sum to 1").
			WithDetail(fmt.Sprintf("sum=%.12f", w.Sum()))
	}
	return nil
}

// DTO converts the weights to the public wire type.
func (w Weights) DTO() prediction.ModelWeights {
	return prediction.ModelWeights{
		Age:             w.Age,
		SkinType:        w.SkinType,
		Conditions:      w.Conditions,
		PriorTreatments: w.PriorTreatments,
		Lifestyle:       w.Lifestyle,
		Environmental:   w.Environmental,
		TreatmentMatch:  w.TreatmentMatch,
	}
}

// ---------------------------------------------------------------------------
// Lookup tables
// ---------------------------------------------------------------------------

// AgeWindow is an optimal age band [Min, Optimal, Max].
type AgeWindow struct {
	Min     int
	Optimal int
	Max     int
}

// Focus names an age window.
const (
	FocusAntiAging    = "anti-aging"
	FocusAcne         = "acne"
	FocusPigmentation = "pigmentation"
)

// OutcomeBaseline holds the per-category outcome constants.
type OutcomeBaseline struct {
	Improvement  float64
	Satisfaction float64
	Longevity    float64
}

func defaultAgeWindows() map[string]AgeWindow {
	return map[string]AgeWindow{
		FocusAntiAging:    {Min: 30, Optimal: 45, Max: 60},
		FocusAcne:         {Min: 15, Optimal: 25, Max: 35},
		FocusPigmentation: {Min: 25, Optimal: 40, Max: 55},
	}
}

var fallbackAgeWindow = AgeWindow{Min: 20, Optimal: 35, Max: 65}

func defaultFocusAliases() map[string]string {
	return map[string]string{
		"anti-aging":        FocusAntiAging,
		"anti aging":        FocusAntiAging,
		"aging":             FocusAntiAging,
		"wrinkles":          FocusAntiAging,
		"fine lines":        FocusAntiAging,
		"acne":              FocusAcne,
		"acne scars":        FocusAcne,
		"pigmentation":      FocusPigmentation,
		"hyperpigmentation": FocusPigmentation,
		"melasma":           FocusPigmentation,
		"sun spots":         FocusPigmentation,
	}
}

func defaultSkinAffinity() map[prediction.SkinType]map[prediction.Category]float64 {
	return map[prediction.SkinType]map[prediction.Category]float64{
		prediction.SkinOily: {
			prediction.CategoryFacial: 0.8, prediction.CategoryLaser: 0.7, prediction.CategoryInjectable: 0.7,
			prediction.CategoryBody: 0.6, prediction.CategoryWellness: 0.6,
		},
		prediction.SkinDry: {
			prediction.CategoryFacial: 0.7, prediction.CategoryLaser: 0.6, prediction.CategoryInjectable: 0.8,
			prediction.CategoryBody: 0.6, prediction.CategoryWellness: 0.7,
		},
		prediction.SkinCombination: {
			prediction.CategoryFacial: 0.75, prediction.CategoryLaser: 0.7, prediction.CategoryInjectable: 0.75,
			prediction.CategoryBody: 0.65, prediction.CategoryWellness: 0.65,
		},
		prediction.SkinSensitive: {
			prediction.CategoryFacial: 0.5, prediction.CategoryLaser: 0.4, prediction.CategoryInjectable: 0.6,
			prediction.CategoryBody: 0.5, prediction.CategoryWellness: 0.9,
		},
	}
}

func defaultConditionAffinity() map[string]map[prediction.Category]float64 {
	return map[string]map[prediction.Category]float64{
		"acne": {
			prediction.CategoryFacial: 0.85, prediction.CategoryLaser: 0.7, prediction.CategoryInjectable: 0.4,
			prediction.CategoryBody: 0.5, prediction.CategoryWellness: 0.6,
		},
		"wrinkles": {
			prediction.CategoryFacial: 0.6, prediction.CategoryLaser: 0.75, prediction.CategoryInjectable: 0.9,
			prediction.CategoryBody: 0.5, prediction.CategoryWellness: 0.5,
		},
		"pigmentation": {
			prediction.CategoryFacial: 0.7, prediction.CategoryLaser: 0.85, prediction.CategoryInjectable: 0.4,
			prediction.CategoryBody: 0.5, prediction.CategoryWellness: 0.5,
		},
		"rosacea": {
			prediction.CategoryFacial: 0.6, prediction.CategoryLaser: 0.75, prediction.CategoryInjectable: 0.4,
			prediction.CategoryBody: 0.5, prediction.CategoryWellness: 0.6,
		},
	}
}

func defaultBaselines() map[prediction.Category]OutcomeBaseline {
	return map[prediction.Category]OutcomeBaseline{
		prediction.CategoryFacial:     {Improvement: 65, Satisfaction: 4.2, Longevity: 3},
		prediction.CategoryLaser:      {Improvement: 75, Satisfaction: 4.5, Longevity: 12},
		prediction.CategoryInjectable: {Improvement: 80, Satisfaction: 4.7, Longevity: 9},
		prediction.CategoryBody:       {Improvement: 60, Satisfaction: 4.0, Longevity: 6},
		prediction.CategoryWellness:   {Improvement: 50, Satisfaction: 4.3, Longevity: 4},
	}
}

var fallbackBaseline = OutcomeBaseline{Improvement: 60, Satisfaction: 4.2, Longevity: 6}

// ---------------------------------------------------------------------------
// ModelConfig
// ---------------------------------------------------------------------------

// ModelConfig is the immutable scoring model: weights plus every lookup table
// the scorers consult.  It is built once at startup and shared read-only by
// all predictions; no method mutates it.
type ModelConfig struct {
	weights           Weights
	ageWindows        map[string]AgeWindow
	focusAliases      map[string]string
	skinAffinity      map[prediction.SkinType]map[prediction.Category]float64
	conditionAffinity map[string]map[prediction.Category]float64
	baselines         map[prediction.Category]OutcomeBaseline
}

// NewModelConfig validates w and returns a model with the standard tables.
func NewModelConfig(w Weights) (*ModelConfig, error) {
	if err := w.Validate(); err != nil {
		return nil, err
	}
	return &ModelConfig{
		weights:           w,
		ageWindows:        defaultAgeWindows(),
		focusAliases:      defaultFocusAliases(),
		skinAffinity:      defaultSkinAffinity(),
		conditionAffinity: defaultConditionAffinity(),
		baselines:         defaultBaselines(),
	}, nil
}

// DefaultModelConfig returns the production model.
func DefaultModelConfig() *ModelConfig {
	m, err := NewModelConfig(DefaultWeights())
	if err != nil {
		panic(err)
	}
	return m
}

// Weights returns a copy of the aggregation weights.
func (m *ModelConfig) Weights() Weights {
	return m.weights
}

// AgeWindowFor resolves the optimal age window of t: a window registered under
// its category, then the first best-for entry naming a known focus, then the
// default window.
func (m *ModelConfig) AgeWindowFor(t *prediction.TreatmentRecord) AgeWindow {
	if w, ok := m.ageWindows[prediction.NormalizeTerm(string(t.Category))]; ok {
		return w
	}
	for _, b := range t.BestFor {
		term := prediction.NormalizeTerm(b)
		if w, ok := m.ageWindows[term]; ok {
			return w
		}
		if focus, ok := m.focusAliases[term]; ok {
			return m.ageWindows[focus]
		}
	}
	return fallbackAgeWindow
}

// Baseline returns the outcome baseline of category c.
func (m *ModelConfig) Baseline(c prediction.Category) OutcomeBaseline {
	if b, ok := m.baselines[c]; ok {
		return b
	}
	return fallbackBaseline
}

//Personal.AI order the ending
