// Package treatment holds the record-store contract consumed by the prediction
// engine and an in-memory implementation backed by a YAML catalog file.
package treatment

import (
	"context"

	"github.com/turtacn/TreatIQ-Intelligence/pkg/types/prediction"
)

// Repository is the read-only record store the engine fetches from.
//
// FetchTreatments may return records in any order and silently omit ids it
// cannot resolve; the caller matches by ID.  FetchHistoricalOutcomes may
// pre-filter by profile and may return an empty slice.
type Repository interface {
	FetchTreatments(ctx context.Context, ids []string) ([]*prediction.TreatmentRecord, error)
	FetchHistoricalOutcomes(ctx context.Context, profile *prediction.PatientProfile) ([]*prediction.HistoricalRecord, error)
}

// CatalogLister is implemented by stores that can enumerate their catalog.
type CatalogLister interface {
	ListTreatments(ctx context.Context) ([]*prediction.TreatmentRecord, error)
}

//Personal.AI order the ending
