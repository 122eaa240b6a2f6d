package handlers

import (
	"net/http"

	chimw "github.com/go-chi/chi/v5/middleware"

	appprediction "github.com/turtacn/TreatIQ-Intelligence/internal/application/prediction"
	"github.com/turtacn/TreatIQ-Intelligence/internal/infrastructure/monitoring/logging"
	ptypes "github.com/turtacn/TreatIQ-Intelligence/pkg/types/prediction"
)

// DefaultMaxBodyBytes caps prediction request bodies when no limit is configured.
const DefaultMaxBodyBytes = 1 << 20

// PredictionHandler serves the prediction endpoints.
type PredictionHandler struct {
	service  appprediction.Service
	maxBytes int64
	logger   logging.Logger
}

// NewPredictionHandler creates a new PredictionHandler.
func NewPredictionHandler(service appprediction.Service, maxBodyBytes int64, logger logging.Logger) *PredictionHandler {
	if maxBodyBytes <= 0 {
		maxBodyBytes = DefaultMaxBodyBytes
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &PredictionHandler{service: service, maxBytes: maxBodyBytes, logger: logger.Named("prediction_handler")}
}

// Predict handles POST /api/v1/predictions.  The router's request id is used
// when the body carries none.
func (h *PredictionHandler) Predict(w http.ResponseWriter, r *http.Request) {
	var req ptypes.PredictRequest
	if err := decodeJSON(w, r, h.maxBytes, &req); err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}
	if req.RequestID == "" {
		req.RequestID = chimw.GetReqID(r.Context())
	}

	resp, err := h.service.Predict(r.Context(), &req)
	if err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// Model handles GET /api/v1/model.
func (h *PredictionHandler) Model(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.service.Model())
}

// TreatmentList is the body of GET /api/v1/treatments.
type TreatmentList struct {
	Treatments []*ptypes.TreatmentRecord `json:"treatments"`
	Total      int                       `json:"total"`
}

// Treatments handles GET /api/v1/treatments.
func (h *PredictionHandler) Treatments(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.Treatments(r.Context())
	if err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}
	if list == nil {
		list = []*ptypes.TreatmentRecord{}
	}
	writeJSON(w, http.StatusOK, TreatmentList{Treatments: list, Total: len(list)})
}

//Personal.AI order the ending
