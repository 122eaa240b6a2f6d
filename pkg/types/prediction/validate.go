package prediction

import (
	"fmt"
	"strings"

	"github.com/turtacn/TreatIQ-Intelligence/pkg/errors"
)

// MaxAge bounds plausible patient ages.
const MaxAge = 130

// Validate checks the profile for malformed values.  Empty enum values are
// accepted as "not provided"; anything else must be a declared member.
func (p *PatientProfile) Validate() error {
	if p == nil {
		return errors.NewValidationError("patient profile is required")
	}
	if age, ok := p.KnownAge(); ok {
		if age < 0 {
			return errors.NewValidationError("age must not be negative").WithDetail(fmt.Sprintf("age=%d", age))
		}
		if age > MaxAge {
			return errors.NewValidationError("age is out of range").WithDetail(fmt.Sprintf("age=%d", age))
		}
	}

	checks := []struct {
		field string
		value string
		ok    bool
	}{
		{"gender", string(p.Gender), p.Gender == "" || p.Gender.IsValid()},
		{"skin_type", string(p.SkinType), p.SkinType == "" || p.SkinType.IsValid()},
		{"lifestyle.stress", string(p.Lifestyle.Stress), p.Lifestyle.Stress == "" || p.Lifestyle.Stress.IsValid()},
		{"lifestyle.sleep", string(p.Lifestyle.Sleep), p.Lifestyle.Sleep == "" || p.Lifestyle.Sleep.IsValid()},
		{"lifestyle.diet", string(p.Lifestyle.Diet), p.Lifestyle.Diet == "" || p.Lifestyle.Diet.IsValid()},
		{"lifestyle.alcohol", string(p.Lifestyle.Alcohol), p.Lifestyle.Alcohol == "" || p.Lifestyle.Alcohol.IsValid()},
		{"environment.pollution", string(p.Environment.Pollution), p.Environment.Pollution == "" || p.Environment.Pollution.IsValid()},
		{"environment.sun_exposure", string(p.Environment.SunExposure), p.Environment.SunExposure == "" || p.Environment.SunExposure.IsValid()},
		{"environment.climate", string(p.Environment.Climate), p.Environment.Climate == "" || p.Environment.Climate.IsValid()},
	}
	for _, c := range checks {
		if !c.ok {
			return errors.NewValidationError("unsupported value for " + c.field).WithDetail(fmt.Sprintf("%s=%q", c.field, c.value))
		}
	}

	for i, c := range p.SkinConditions {
		if strings.TrimSpace(c) == "" {
			return errors.NewValidationError("skin condition must not be blank").WithDetail(fmt.Sprintf("skin_conditions[%d]", i))
		}
	}
	for i, t := range p.PreviousTreatments {
		if strings.TrimSpace(t) == "" {
			return errors.NewValidationError("previous treatment id must not be blank").WithDetail(fmt.Sprintf("previous_treatments[%d]", i))
		}
	}
	return nil
}

// Completeness is the populated fraction of {age, gender, skin type, skin
// conditions}, in steps of 0.25.
func (p *PatientProfile) Completeness() float64 {
	if p == nil {
		return 0
	}
	filled := 0
	if p.Age != nil {
		filled++
	}
	if p.Gender != "" {
		filled++
	}
	if p.SkinType != "" {
		filled++
	}
	if len(p.SkinConditions) > 0 {
		filled++
	}
	return float64(filled) / 4
}

// NormalizeTreatmentIDs trims ids, rejects an empty list or blank entries and
// drops duplicates while keeping first-occurrence order.
func NormalizeTreatmentIDs(ids []string) ([]string, error) {
	if len(ids) == 0 {
		return nil, errors.NewInvalidTreatmentIDsError("at least one treatment id is required")
	}
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for i, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			return nil, errors.NewInvalidTreatmentIDsError("treatment id must not be blank").WithDetail(fmt.Sprintf("treatment_ids[%d]", i))
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out, nil
}

// Validate checks a catalog entry loaded from a store.
func (t *TreatmentRecord) Validate() error {
	if t == nil || strings.TrimSpace(t.ID) == "" {
		return errors.New(errors.ErrCodeCatalogInvalid, "treatment id is required")
	}
	if t.Category != "" && !t.Category.IsValid() {
		return errors.New(errors.ErrCodeCatalogInvalid, "unsupported treatment category").
			WithDetail(fmt.Sprintf("id=%s category=%s", t.ID, t.Category))
	}
	if t.Intensity != "" && !t.Intensity.IsValid() {
		return errors.New(errors.ErrCodeCatalogInvalid, "unsupported treatment intensity").
			WithDetail(fmt.Sprintf("id=%s intensity=%s", t.ID, t.Intensity))
	}
	return nil
}

//Personal.AI order the ending
