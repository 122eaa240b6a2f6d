package client

import (
	"context"
	"net/http"

	"github.com/turtacn/TreatIQ-Intelligence/pkg/errors"
	"github.com/turtacn/TreatIQ-Intelligence/pkg/types/prediction"
)

const (
	predictionsPath = "/api/v1/predictions"
	modelPath       = "/api/v1/model"
	treatmentsPath  = "/api/v1/treatments"
)

// PredictionsClient calls the prediction endpoints.
type PredictionsClient struct {
	client *Client
}

// TreatmentList is the catalog listing returned by Treatments.
type TreatmentList struct {
	Treatments []*prediction.TreatmentRecord `json:"treatments"`
	Total      int                           `json:"total"`
}

// Predict scores the requested treatments for a patient.  The profile is
// checked locally first so invalid requests never leave the process.  A
// request id set on req is sent as the request header on every attempt.
func (p *PredictionsClient) Predict(ctx context.Context, req *prediction.PredictRequest) (*prediction.PredictResponse, error) {
	if req == nil || req.Profile == nil {
		return nil, errors.NewValidationError("profile is required")
	}
	if err := req.Profile.Validate(); err != nil {
		return nil, err
	}
	if _, err := prediction.NormalizeTreatmentIDs(req.TreatmentIDs); err != nil {
		return nil, err
	}

	var resp prediction.PredictResponse
	if err := p.client.do(ctx, http.MethodPost, predictionsPath, req.RequestID, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Model returns the factor weights the server scores with.
func (p *PredictionsClient) Model(ctx context.Context) (*prediction.ModelWeights, error) {
	var w prediction.ModelWeights
	if err := p.client.do(ctx, http.MethodGet, modelPath, "", nil, &w); err != nil {
		return nil, err
	}
	return &w, nil
}

// Treatments lists the server's treatment catalog.
func (p *PredictionsClient) Treatments(ctx context.Context) (*TreatmentList, error) {
	var list TreatmentList
	if err := p.client.do(ctx, http.MethodGet, treatmentsPath, "", nil, &list); err != nil {
		return nil, err
	}
	return &list, nil
}

//Personal.AI order the ending
