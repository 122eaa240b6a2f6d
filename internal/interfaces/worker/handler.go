// Package worker turns prediction request events consumed from Kafka into
// prediction result events.
package worker

import (
	"context"
	"time"

	appprediction "github.com/turtacn/TreatIQ-Intelligence/internal/application/prediction"
	"github.com/turtacn/TreatIQ-Intelligence/internal/infrastructure/messaging/kafka"
	"github.com/turtacn/TreatIQ-Intelligence/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/TreatIQ-Intelligence/pkg/errors"
	ptypes "github.com/turtacn/TreatIQ-Intelligence/pkg/types/prediction"
)

// SourceName identifies the worker in published envelopes.
const SourceName = "treatiq-worker"

// PredictionHandler answers prediction.requested events.
//
// Undecodable messages are returned as MSG_003 errors so the consumer parks
// them on the dead-letter topic.  Requests the engine rejects (invalid profile,
// unknown treatments) are answered with a prediction.failed event.  Any other
// failure is returned for retry.
type PredictionHandler struct {
	service     appprediction.Service
	publisher   kafka.Publisher
	resultTopic string
	logger      logging.Logger
	now         func() time.Time
}

// NewPredictionHandler creates a handler that publishes to resultTopic.
func NewPredictionHandler(service appprediction.Service, publisher kafka.Publisher, resultTopic string, logger logging.Logger) *PredictionHandler {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &PredictionHandler{
		service:     service,
		publisher:   publisher,
		resultTopic: resultTopic,
		logger:      logger.Named("prediction_handler"),
		now:         time.Now,
	}
}

// Handle is a kafka.MessageHandler.
func (h *PredictionHandler) Handle(ctx context.Context, msg *kafka.Message) error {
	env, err := kafka.DecodeEnvelope(msg)
	if err != nil {
		return err
	}
	if env.EventType != kafka.EventPredictionRequested {
		return errors.Newf(errors.ErrCodeMessageInvalid, "unexpected event type %q", env.EventType).
			WithDetail("event_id=" + env.EventID)
	}
	var req ptypes.PredictRequest
	if err := env.DecodePayload(&req); err != nil {
		return err
	}
	if req.RequestID == "" {
		req.RequestID = env.EventID
	}
	log := h.logger.With(
		logging.RequestID(req.RequestID),
		logging.String("event_id", env.EventID),
	)

	resp, err := h.service.Predict(ctx, &req)
	if err != nil {
		if !errors.IsClientError(errors.GetCode(err)) {
			return err
		}
		log.Info("prediction request rejected", logging.Err(err))
		return h.publish(ctx, env, kafka.EventPredictionFailed, req.RequestID, failedPayload(req.RequestID, err, h.now()))
	}

	log.Debug("prediction request answered", logging.Int("predictions", len(resp.Predictions)))
	return h.publish(ctx, env, kafka.EventPredictionCompleted, resp.RequestID, resp)
}

func (h *PredictionHandler) publish(ctx context.Context, cause *kafka.EventEnvelope, eventType, key string, payload interface{}) error {
	out, err := kafka.NewEventEnvelope(eventType, SourceName, payload)
	if err != nil {
		return err
	}
	out.TraceID = cause.TraceID
	out.Metadata = map[string]string{"caused_by": cause.EventID}

	msg, err := out.ToMessage(h.resultTopic, key)
	if err != nil {
		return err
	}
	return h.publisher.Publish(ctx, msg)
}

func failedPayload(requestID string, err error, at time.Time) kafka.PredictionFailedPayload {
	p := kafka.PredictionFailedPayload{
		RequestID: requestID,
		Code:      errors.GetCode(err).String(),
		Message:   err.Error(),
		FailedAt:  at.UTC(),
	}
	var ae *errors.AppError
	if errors.As(err, &ae) {
		p.Message = ae.Message
		p.Detail = ae.Detail
	}
	return p
}

//Personal.AI order the ending
