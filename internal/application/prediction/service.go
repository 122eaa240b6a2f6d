// Package prediction provides the application-level prediction service shared
// by the HTTP API, the CLI and the Kafka worker.  It sits between the delivery
// surfaces and the success prediction engine.
package prediction

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/turtacn/TreatIQ-Intelligence/internal/domain/treatment"
	"github.com/turtacn/TreatIQ-Intelligence/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/TreatIQ-Intelligence/internal/intelligence/success_predictor"
	"github.com/turtacn/TreatIQ-Intelligence/pkg/errors"
	ptypes "github.com/turtacn/TreatIQ-Intelligence/pkg/types/prediction"
)

// Service defines the prediction use cases.
type Service interface {
	// Predict scores every requested treatment for the profile.
	Predict(ctx context.Context, req *ptypes.PredictRequest) (*ptypes.PredictResponse, error)
	// Model returns the active aggregation weights.
	Model() ptypes.ModelWeights
	// Treatments lists the catalog when the record store can enumerate it.
	Treatments(ctx context.Context) ([]*ptypes.TreatmentRecord, error)
}

// ServiceConfig tunes the service.
type ServiceConfig struct {
	// RequestTimeout bounds a single Predict call.  Zero leaves the caller's
	// deadline untouched.
	RequestTimeout time.Duration
	Clock          func() time.Time
	NewRequestID   func() string
}

type serviceImpl struct {
	engine  success_predictor.Predictor
	catalog treatment.CatalogLister
	cfg     ServiceConfig
	logger  logging.Logger
}

// NewService wires the engine.  catalog may be nil.
func NewService(engine success_predictor.Predictor, catalog treatment.CatalogLister, cfg ServiceConfig, logger logging.Logger) Service {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	if cfg.NewRequestID == nil {
		cfg.NewRequestID = func() string { return uuid.New().String() }
	}
	return &serviceImpl{
		engine:  engine,
		catalog: catalog,
		cfg:     cfg,
		logger:  logger.Named("prediction_service"),
	}
}

func (s *serviceImpl) Predict(ctx context.Context, req *ptypes.PredictRequest) (*ptypes.PredictResponse, error) {
	if req == nil {
		return nil, errors.New(errors.ErrCodeBadRequest, "prediction request is required")
	}
	requestID := req.RequestID
	if requestID == "" {
		requestID = s.cfg.NewRequestID()
	}
	log := s.logger.With(logging.RequestID(requestID))

	if s.cfg.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.RequestTimeout)
		defer cancel()
	}

	log.Debug("prediction requested", logging.Strings("treatment_ids", req.TreatmentIDs))
	result, err := s.engine.PredictBatch(ctx, req.Profile, req.TreatmentIDs)
	if err != nil {
		if errors.IsValidation(err) || errors.IsNotFound(err) {
			log.Info("prediction rejected", logging.String("code", errors.GetCode(err).String()), logging.Err(err))
		} else {
			log.Error("prediction failed", logging.Err(err))
		}
		return nil, err
	}

	resp := &ptypes.PredictResponse{
		RequestID:        requestID,
		Predictions:      result.Predictions,
		ProcessingTimeMs: result.ProcessingTime.Milliseconds(),
		CompletedAt:      s.cfg.Clock().UTC(),
	}
	if resp.Predictions == nil {
		resp.Predictions = []*ptypes.SuccessPrediction{}
	}
	for _, f := range result.Failures {
		resp.Failures = append(resp.Failures, toFailedPrediction(f))
	}
	if len(resp.Failures) > 0 {
		log.Warn("prediction completed with failures", logging.Int("failed", len(resp.Failures)))
	}
	return resp, nil
}

func toFailedPrediction(f success_predictor.Failure) ptypes.FailedPrediction {
	out := ptypes.FailedPrediction{
		TreatmentID: f.TreatmentID,
		Code:        errors.GetCode(f.Err).String(),
	}
	var ae *errors.AppError
	if errors.As(f.Err, &ae) {
		out.Message = ae.Message
	} else if f.Err != nil {
		out.Message = f.Err.Error()
	}
	return out
}

func (s *serviceImpl) Model() ptypes.ModelWeights {
	return s.engine.Model().Weights().DTO()
}

func (s *serviceImpl) Treatments(ctx context.Context) ([]*ptypes.TreatmentRecord, error) {
	if s.catalog == nil {
		return nil, errors.New(errors.ErrCodeNotImplemented, "record store cannot list treatments")
	}
	return s.catalog.ListTreatments(ctx)
}

//Personal.AI order the ending
