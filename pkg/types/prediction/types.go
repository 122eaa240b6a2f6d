// Package prediction defines the treatment-success Data Transfer Objects,
// enumerations and request/response structures shared by the engine, the record
// store, every delivery surface and the Go SDK.  Beyond input validation no
// domain logic lives here.
package prediction

import (
	"strings"
	"time"
)

// ─────────────────────────────────────────────────────────────────────────────
// Enumerations
// ─────────────────────────────────────────────────────────────────────────────

// Gender of the patient.
type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
	GenderOther  Gender = "other"
)

// SkinType of the patient.
type SkinType string

const (
	SkinOily        SkinType = "oily"
	SkinDry         SkinType = "dry"
	SkinCombination SkinType = "combination"
	SkinSensitive   SkinType = "sensitive"
)

// Level is the shared low/medium/high scale used for stress, pollution, sun
// exposure and treatment intensity.
type Level string

const (
	LevelLow    Level = "low"
	LevelMedium Level = "medium"
	LevelHigh   Level = "high"
)

// Quality is the poor/average/good scale used for sleep and diet.
type Quality string

const (
	QualityPoor    Quality = "poor"
	QualityAverage Quality = "average"
	QualityGood    Quality = "good"
)

// AlcoholUse frequency.
type AlcoholUse string

const (
	AlcoholNone       AlcoholUse = "none"
	AlcoholOccasional AlcoholUse = "occasional"
	AlcoholRegular    AlcoholUse = "regular"
)

// Climate the patient lives in.
type Climate string

const (
	ClimateDry       Climate = "dry"
	ClimateHumid     Climate = "humid"
	ClimateTemperate Climate = "temperate"
)

// Category groups treatments by modality.
type Category string

const (
	CategoryFacial     Category = "facial"
	CategoryLaser      Category = "laser"
	CategoryInjectable Category = "injectable"
	CategoryBody       Category = "body"
	CategoryWellness   Category = "wellness"
)

// IsValid reports whether g is one of the declared genders.
func (g Gender) IsValid() bool {
	switch g {
	case GenderMale, GenderFemale, GenderOther:
		return true
	}
	return false
}

// IsValid reports whether s is one of the declared skin types.
func (s SkinType) IsValid() bool {
	switch s {
	case SkinOily, SkinDry, SkinCombination, SkinSensitive:
		return true
	}
	return false
}

// IsValid reports whether l is low, medium or high.
func (l Level) IsValid() bool {
	switch l {
	case LevelLow, LevelMedium, LevelHigh:
		return true
	}
	return false
}

// IsValid reports whether q is poor, average or good.
func (q Quality) IsValid() bool {
	switch q {
	case QualityPoor, QualityAverage, QualityGood:
		return true
	}
	return false
}

// IsValid reports whether a is a declared alcohol frequency.
func (a AlcoholUse) IsValid() bool {
	switch a {
	case AlcoholNone, AlcoholOccasional, AlcoholRegular:
		return true
	}
	return false
}

// IsValid reports whether c is a declared climate.
func (c Climate) IsValid() bool {
	switch c {
	case ClimateDry, ClimateHumid, ClimateTemperate:
		return true
	}
	return false
}

// IsValid reports whether c is a declared treatment category.
func (c Category) IsValid() bool {
	switch c {
	case CategoryFacial, CategoryLaser, CategoryInjectable, CategoryBody, CategoryWellness:
		return true
	}
	return false
}

// ─────────────────────────────────────────────────────────────────────────────
// Input entities
// ─────────────────────────────────────────────────────────────────────────────

// LifestyleFactors describes habits that influence recovery.
type LifestyleFactors struct {
	Stress  Level      `json:"stress,omitempty" yaml:"stress"`
	Sleep   Quality    `json:"sleep,omitempty" yaml:"sleep"`
	Diet    Quality    `json:"diet,omitempty" yaml:"diet"`
	Smoking bool       `json:"smoking" yaml:"smoking"`
	Alcohol AlcoholUse `json:"alcohol,omitempty" yaml:"alcohol"`
}

// EnvironmentalFactors describes the patient's surroundings.
type EnvironmentalFactors struct {
	Pollution   Level   `json:"pollution,omitempty" yaml:"pollution"`
	SunExposure Level   `json:"sun_exposure,omitempty" yaml:"sun_exposure"`
	Climate     Climate `json:"climate,omitempty" yaml:"climate"`
}

// PatientProfile is the read-only input of a prediction batch.  A nil Age
// and empty enum values mean "not provided"; an Age of 0 is a real age.
type PatientProfile struct {
	Age                *int                 `json:"age,omitempty" yaml:"age"`
	Gender             Gender               `json:"gender,omitempty" yaml:"gender"`
	SkinType           SkinType             `json:"skin_type,omitempty" yaml:"skin_type"`
	SkinConditions     []string             `json:"skin_conditions,omitempty" yaml:"skin_conditions"`
	PreviousTreatments []string             `json:"previous_treatments,omitempty" yaml:"previous_treatments"`
	Lifestyle          LifestyleFactors     `json:"lifestyle" yaml:"lifestyle"`
	Environment        EnvironmentalFactors `json:"environment" yaml:"environment"`
}

// LocalizedName is a treatment display name in English plus the clinic's
// local language.
type LocalizedName struct {
	EN    string `json:"en" yaml:"en"`
	Local string `json:"local,omitempty" yaml:"local"`
}

// TreatmentRecord is a catalog entry.
type TreatmentRecord struct {
	ID                string        `json:"id" yaml:"id"`
	Name              LocalizedName `json:"name" yaml:"name"`
	Category          Category      `json:"category" yaml:"category"`
	Intensity         Level         `json:"intensity" yaml:"intensity"`
	Contraindications []string      `json:"contraindications,omitempty" yaml:"contraindications"`
	BestFor           []string      `json:"best_for,omitempty" yaml:"best_for"`
}

// DisplayName returns the English name, falling back to the local name and
// then the identifier.
func (t *TreatmentRecord) DisplayName() string {
	switch {
	case t.Name.EN != "":
		return t.Name.EN
	case t.Name.Local != "":
		return t.Name.Local
	default:
		return t.ID
	}
}

// HistoricalRecord is one observed outcome of a past treatment.
type HistoricalRecord struct {
	PatientAge  int       `json:"patient_age" yaml:"patient_age"`
	SkinType    SkinType  `json:"skin_type,omitempty" yaml:"skin_type"`
	TreatmentID string    `json:"treatment_id" yaml:"treatment_id"`
	SuccessRate float64   `json:"success_rate" yaml:"success_rate"`
	RecordedAt  time.Time `json:"recorded_at,omitempty" yaml:"recorded_at"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Output entities
// ─────────────────────────────────────────────────────────────────────────────

// ExpectedResults is the projected outcome of a treatment.
type ExpectedResults struct {
	Improvement  int `json:"improvement"`
	Satisfaction int `json:"satisfaction"`
	Longevity    int `json:"longevity"`
}

// RiskDistribution partitions outcome risk into three buckets summing to 1.
type RiskDistribution struct {
	Low    float64 `json:"low"`
	Medium float64 `json:"medium"`
	High   float64 `json:"high"`
}

// Sum returns Low+Medium+High.
func (r RiskDistribution) Sum() float64 {
	return r.Low + r.Medium + r.High
}

// Alternative is a competing treatment suggestion.
type Alternative struct {
	TreatmentID        string `json:"treatment_id"`
	TreatmentName      string `json:"treatment_name"`
	SuccessProbability int    `json:"success_probability"`
	Reason             string `json:"reason"`
}

// SuccessPrediction is the engine's verdict for one treatment.
type SuccessPrediction struct {
	TreatmentID        string           `json:"treatment_id"`
	TreatmentName      string           `json:"treatment_name"`
	SuccessProbability int              `json:"success_probability"`
	ConfidenceScore    int              `json:"confidence_score"`
	ExpectedResults    ExpectedResults  `json:"expected_results"`
	Risks              RiskDistribution `json:"risks"`
	Recommendations    []string         `json:"recommendations"`
	Alternatives       []Alternative    `json:"alternatives"`
	ProcessingTimeMs   int64            `json:"processing_time_ms"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Request / response
// ─────────────────────────────────────────────────────────────────────────────

// PredictRequest is the payload accepted by the HTTP API, the worker and the SDK.
type PredictRequest struct {
	RequestID    string          `json:"request_id,omitempty"`
	Profile      *PatientProfile `json:"profile"`
	TreatmentIDs []string        `json:"treatment_ids"`
}

// FailedPrediction names a treatment whose computation failed in isolation.
type FailedPrediction struct {
	TreatmentID string `json:"treatment_id"`
	Code        string `json:"code"`
	Message     string `json:"message"`
}

// PredictResponse is the result of a prediction batch.
type PredictResponse struct {
	RequestID        string               `json:"request_id"`
	Predictions      []*SuccessPrediction `json:"predictions"`
	Failures         []FailedPrediction   `json:"failures,omitempty"`
	ProcessingTimeMs int64                `json:"processing_time_ms"`
	CompletedAt      time.Time            `json:"completed_at"`
}

// ModelWeights exposes the active aggregation weights.
type ModelWeights struct {
	Age             float64 `json:"age"`
	SkinType        float64 `json:"skin_type"`
	Conditions      float64 `json:"conditions"`
	PriorTreatments float64 `json:"prior_treatments"`
	Lifestyle       float64 `json:"lifestyle"`
	Environmental   float64 `json:"environmental"`
	TreatmentMatch  float64 `json:"treatment_match"`
}

// NormalizeTerm lowercases and trims a free-text condition or criterion so
// that "Acne " and "acne" compare equal.
func NormalizeTerm(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// AgeOf returns a profile age.
func AgeOf(years int) *int { return &years }

// KnownAge returns the patient's age and whether it was provided.
func (p *PatientProfile) KnownAge() (int, bool) {
	if p == nil || p.Age == nil {
		return 0, false
	}
	return *p.Age, true
}

//Personal.AI order the ending
