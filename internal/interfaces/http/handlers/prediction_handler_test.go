package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/TreatIQ-Intelligence/pkg/errors"
	ptypes "github.com/turtacn/TreatIQ-Intelligence/pkg/types/prediction"
)

// MockService is a mock implementation of the prediction application service.
type MockService struct {
	mock.Mock
}

func (m *MockService) Predict(ctx context.Context, req *ptypes.PredictRequest) (*ptypes.PredictResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ptypes.PredictResponse), args.Error(1)
}

func (m *MockService) Model() ptypes.ModelWeights {
	return m.Called().Get(0).(ptypes.ModelWeights)
}

func (m *MockService) Treatments(ctx context.Context) ([]*ptypes.TreatmentRecord, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*ptypes.TreatmentRecord), args.Error(1)
}

func serve(h http.HandlerFunc, method, body string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(method, "/", strings.NewReader(body))
	chimw.RequestID(h).ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestPredict_Success(t *testing.T) {
	svc := new(MockService)
	svc.On("Predict", mock.Anything, mock.MatchedBy(func(r *ptypes.PredictRequest) bool {
		return r.RequestID != "" && r.Profile.Age != nil && *r.Profile.Age == 40 && len(r.TreatmentIDs) == 1
	})).Return(&ptypes.PredictResponse{
		RequestID:   "rid",
		Predictions: []*ptypes.SuccessPrediction{{TreatmentID: "inj-botox", SuccessProbability: 80}},
	}, nil)

	h := NewPredictionHandler(svc, 0, nil)
	rec := serve(h.Predict, http.MethodPost, `{"profile":{"age":40},"treatment_ids":["inj-botox"]}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	var resp ptypes.PredictResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 80, resp.Predictions[0].SuccessProbability)
	svc.AssertExpectations(t)
}

func TestPredict_ErrorEnvelope(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
		wantMsg    string
		wantDetail string
	}{
		{"invalid profile", errors.NewValidationError("age is out of range").WithDetail("age=200"), http.StatusBadRequest, "PRED_001", "age is out of range", "age=200"},
		{"unknown treatment", errors.NewNotFoundError([]string{"ghost"}), http.StatusNotFound, "PRED_003", "one or more treatments could not be resolved", "missing=ghost"},
		{"store down", errors.Wrap(assert.AnError, errors.ErrCodeStoreUnavailable, "ping failed"), http.StatusServiceUnavailable, "STORE_001", "record store unavailable", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockService)
			svc.On("Predict", mock.Anything, mock.Anything).Return(nil, tt.err)

			rec := serve(NewPredictionHandler(svc, 0, nil).Predict, http.MethodPost, `{"treatment_ids":["x"]}`)
			assert.Equal(t, tt.wantStatus, rec.Code)
			resp := decodeError(t, rec)
			assert.Equal(t, tt.wantCode, resp.Code)
			assert.Equal(t, tt.wantMsg, resp.Message)
			assert.Equal(t, tt.wantDetail, resp.Detail)
			assert.NotEmpty(t, resp.RequestID)
		})
	}
}

func TestPredict_BadBodies(t *testing.T) {
	svc := new(MockService)
	h := NewPredictionHandler(svc, 64, nil)

	for name, body := range map[string]string{
		"malformed":     `{"profile":`,
		"unknown field": `{"patient":{}}`,
		"two objects":   `{} {}`,
		"too large":     `{"treatment_ids":["` + strings.Repeat("a", 100) + `"]}`,
	} {
		t.Run(name, func(t *testing.T) {
			rec := serve(h.Predict, http.MethodPost, body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, "COMMON_002", decodeError(t, rec).Code)
		})
	}
	svc.AssertNotCalled(t, "Predict", mock.Anything, mock.Anything)
}

func TestModel(t *testing.T) {
	svc := new(MockService)
	svc.On("Model").Return(ptypes.ModelWeights{Age: 0.15, SkinType: 0.2})

	rec := serve(NewPredictionHandler(svc, 0, nil).Model, http.MethodGet, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"age":0.15,"skin_type":0.2,"conditions":0,"prior_treatments":0,"lifestyle":0,"environmental":0,"treatment_match":0}`, rec.Body.String())
}

func TestTreatments(t *testing.T) {
	svc := new(MockService)
	svc.On("Treatments", mock.Anything).Return([]*ptypes.TreatmentRecord{{ID: "inj-botox"}}, nil).Once()
	svc.On("Treatments", mock.Anything).Return(nil, errors.New(errors.ErrCodeNotImplemented, "record store cannot list treatments")).Once()
	h := NewPredictionHandler(svc, 0, nil)

	rec := serve(h.Treatments, http.MethodGet, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	var list TreatmentList
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Equal(t, 1, list.Total)

	rec = serve(h.Treatments, http.MethodGet, "")
	assert.Equal(t, http.StatusNotImplemented, rec.Code)
}

//Personal.AI order the ending
