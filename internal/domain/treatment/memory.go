package treatment

import (
	"context"
	"fmt"
	"os"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/turtacn/TreatIQ-Intelligence/pkg/errors"
	"github.com/turtacn/TreatIQ-Intelligence/pkg/types/prediction"
)

// Catalog is the on-disk YAML layout:
//
//	treatments:
//	  - id: laser-co2
//	    name: {en: CO2 Laser Resurfacing}
//	    category: laser
//	    intensity: high
//	historical_outcomes:
//	  - {patient_age: 42, treatment_id: laser-co2, success_rate: 0.8}
type Catalog struct {
	Treatments         []*prediction.TreatmentRecord  `yaml:"treatments"`
	HistoricalOutcomes []*prediction.HistoricalRecord `yaml:"historical_outcomes"`
}

// MemoryRepository serves a Catalog from memory.  Returned records are copies
// so callers can never mutate the store.
type MemoryRepository struct {
	mu         sync.RWMutex
	treatments map[string]prediction.TreatmentRecord
	outcomes   []prediction.HistoricalRecord
}

// NewMemoryRepository validates the catalog and indexes it by treatment id.
func NewMemoryRepository(c *Catalog) (*MemoryRepository, error) {
	r := &MemoryRepository{treatments: make(map[string]prediction.TreatmentRecord)}
	if c == nil {
		return r, nil
	}
	for _, t := range c.Treatments {
		if err := t.Validate(); err != nil {
			return nil, err
		}
		if _, dup := r.treatments[t.ID]; dup {
			return nil, errors.New(errors.ErrCodeCatalogInvalid, "duplicate treatment id").WithDetail("id=" + t.ID)
		}
		r.treatments[t.ID] = cloneTreatment(*t)
	}
	for i, h := range c.HistoricalOutcomes {
		if h == nil || h.TreatmentID == "" {
			return nil, errors.New(errors.ErrCodeCatalogInvalid, "historical outcome needs a treatment id").
				WithDetail(fmt.Sprintf("historical_outcomes[%d]", i))
		}
		if h.SuccessRate < 0 || h.SuccessRate > 1 {
			return nil, errors.New(errors.ErrCodeCatalogInvalid, "success rate must be within [0,1]").
				WithDetail(fmt.Sprintf("historical_outcomes[%d]=%v", i, h.SuccessRate))
		}
		r.outcomes = append(r.outcomes, *h)
	}
	return r, nil
}

// ReadCatalogFile parses the YAML catalog at path without validating it.
func ReadCatalogFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeStoreUnavailable, "read catalog file").WithDetail(path)
	}
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeCatalogInvalid, "parse catalog file").WithDetail(path)
	}
	return &c, nil
}

// LoadCatalogFile reads a YAML catalog from path.
func LoadCatalogFile(path string) (*MemoryRepository, error) {
	c, err := ReadCatalogFile(path)
	if err != nil {
		return nil, err
	}
	return NewMemoryRepository(c)
}

// FetchTreatments implements Repository.
func (r *MemoryRepository) FetchTreatments(ctx context.Context, ids []string) ([]*prediction.TreatmentRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*prediction.TreatmentRecord, 0, len(ids))
	for _, id := range ids {
		if t, ok := r.treatments[id]; ok {
			c := cloneTreatment(t)
			out = append(out, &c)
		}
	}
	return out, nil
}

// FetchHistoricalOutcomes implements Repository.  All outcomes are returned;
// similarity filtering belongs to the engine.
func (r *MemoryRepository) FetchHistoricalOutcomes(ctx context.Context, _ *prediction.PatientProfile) ([]*prediction.HistoricalRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*prediction.HistoricalRecord, 0, len(r.outcomes))
	for i := range r.outcomes {
		h := r.outcomes[i]
		out = append(out, &h)
	}
	return out, nil
}

// ListTreatments implements CatalogLister, sorted by id.
func (r *MemoryRepository) ListTreatments(ctx context.Context) ([]*prediction.TreatmentRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*prediction.TreatmentRecord, 0, len(r.treatments))
	for _, t := range r.treatments {
		c := cloneTreatment(t)
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func cloneTreatment(t prediction.TreatmentRecord) prediction.TreatmentRecord {
	t.Contraindications = append([]string(nil), t.Contraindications...)
	t.BestFor = append([]string(nil), t.BestFor...)
	return t
}

var (
	_ Repository    = (*MemoryRepository)(nil)
	_ CatalogLister = (*MemoryRepository)(nil)
)

//Personal.AI order the ending
