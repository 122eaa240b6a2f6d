package worker

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/TreatIQ-Intelligence/internal/infrastructure/messaging/kafka"
	"github.com/turtacn/TreatIQ-Intelligence/internal/testutil"
	"github.com/turtacn/TreatIQ-Intelligence/pkg/errors"
	ptypes "github.com/turtacn/TreatIQ-Intelligence/pkg/types/prediction"
)

type stubService struct {
	got  *ptypes.PredictRequest
	resp *ptypes.PredictResponse
	err  error
}

func (s *stubService) Predict(_ context.Context, req *ptypes.PredictRequest) (*ptypes.PredictResponse, error) {
	s.got = req
	return s.resp, s.err
}

func (s *stubService) Model() ptypes.ModelWeights { return ptypes.ModelWeights{} }

func (s *stubService) Treatments(context.Context) ([]*ptypes.TreatmentRecord, error) {
	return nil, nil
}

type capturePublisher struct {
	msgs []*kafka.ProducerMessage
	err  error
}

func (c *capturePublisher) Publish(_ context.Context, msg *kafka.ProducerMessage) error {
	if c.err != nil {
		return c.err
	}
	c.msgs = append(c.msgs, msg)
	return nil
}

func requestMessage(t *testing.T, eventType string, req interface{}) *kafka.Message {
	t.Helper()
	env, err := kafka.NewEventEnvelope(eventType, "test", req)
	require.NoError(t, err)
	env.TraceID = "trace-1"
	pm, err := env.ToMessage("requests", "")
	require.NoError(t, err)
	return &kafka.Message{Topic: "requests", Value: pm.Value}
}

func decodeResult(t *testing.T, msg *kafka.ProducerMessage, into interface{}) *kafka.EventEnvelope {
	t.Helper()
	env, err := kafka.DecodeEnvelope(&kafka.Message{Value: msg.Value})
	require.NoError(t, err)
	require.NoError(t, env.DecodePayload(into))
	return env
}

func TestHandle_PublishesCompletedEvent(t *testing.T) {
	svc := &stubService{resp: &ptypes.PredictResponse{
		RequestID:   "req-1",
		Predictions: []*ptypes.SuccessPrediction{{TreatmentID: "inj-botox", SuccessProbability: 77}},
	}}
	pub := &capturePublisher{}
	h := NewPredictionHandler(svc, pub, "results", nil)

	msg := requestMessage(t, kafka.EventPredictionRequested, ptypes.PredictRequest{
		RequestID:    "req-1",
		Profile:      &ptypes.PatientProfile{Age: ptypes.AgeOf(40)},
		TreatmentIDs: []string{"inj-botox"},
	})
	require.NoError(t, h.Handle(context.Background(), msg))

	assert.Equal(t, []string{"inj-botox"}, svc.got.TreatmentIDs)
	require.Len(t, pub.msgs, 1)
	assert.Equal(t, "results", pub.msgs[0].Topic)
	assert.Equal(t, []byte("req-1"), pub.msgs[0].Key)

	var resp ptypes.PredictResponse
	env := decodeResult(t, pub.msgs[0], &resp)
	assert.Equal(t, kafka.EventPredictionCompleted, env.EventType)
	assert.Equal(t, SourceName, env.Source)
	assert.Equal(t, "trace-1", env.TraceID)
	assert.Equal(t, 77, resp.Predictions[0].SuccessProbability)
}

func TestHandle_DefaultsRequestIDToEventID(t *testing.T) {
	svc := &stubService{resp: &ptypes.PredictResponse{}}
	h := NewPredictionHandler(svc, &capturePublisher{}, "results", nil)

	msg := requestMessage(t, kafka.EventPredictionRequested, ptypes.PredictRequest{TreatmentIDs: []string{"a"}})
	require.NoError(t, h.Handle(context.Background(), msg))

	env, err := kafka.DecodeEnvelope(msg)
	require.NoError(t, err)
	assert.Equal(t, env.EventID, svc.got.RequestID)
}

func TestHandle_RejectedRequestPublishesFailure(t *testing.T) {
	svc := &stubService{err: errors.NewNotFoundError([]string{"ghost"})}
	pub := &capturePublisher{}
	rec := testutil.NewRecordingLogger()
	h := NewPredictionHandler(svc, pub, "results", rec)
	h.now = func() time.Time { return time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC) }

	msg := requestMessage(t, kafka.EventPredictionRequested, ptypes.PredictRequest{RequestID: "req-2", TreatmentIDs: []string{"ghost"}})
	require.NoError(t, h.Handle(context.Background(), msg))

	require.Len(t, pub.msgs, 1)
	var failed kafka.PredictionFailedPayload
	env := decodeResult(t, pub.msgs[0], &failed)
	assert.Equal(t, kafka.EventPredictionFailed, env.EventType)
	assert.Equal(t, "req-2", failed.RequestID)
	assert.Equal(t, "PRED_003", failed.Code)
	assert.Equal(t, "missing=ghost", failed.Detail)

	entry, ok := rec.Find("info", "rejected")
	require.True(t, ok)
	assert.Equal(t, "prediction_handler", entry.Logger)
	assert.Equal(t, "req-2", entry.Fields["request_id"])
}

func TestHandle_ServerErrorIsReturnedForRetry(t *testing.T) {
	storeDown := errors.New(errors.ErrCodeStoreUnavailable, "store down")
	pub := &capturePublisher{}
	h := NewPredictionHandler(&stubService{err: storeDown}, pub, "results", nil)

	err := h.Handle(context.Background(), requestMessage(t, kafka.EventPredictionRequested, ptypes.PredictRequest{}))
	assert.Same(t, storeDown, err)
	assert.Empty(t, pub.msgs)
}

func TestHandle_InvalidMessages(t *testing.T) {
	h := NewPredictionHandler(&stubService{}, &capturePublisher{}, "results", nil)
	ctx := context.Background()

	tests := []struct {
		name string
		msg  *kafka.Message
	}{
		{"not json", &kafka.Message{Value: []byte("nope")}},
		{"wrong event type", requestMessage(t, kafka.EventPredictionCompleted, ptypes.PredictResponse{})},
		{"bad payload", requestMessage(t, kafka.EventPredictionRequested, json.RawMessage(`{"treatment_ids":7}`))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := h.Handle(ctx, tt.msg)
			assert.True(t, errors.IsCode(err, errors.ErrCodeMessageInvalid))
		})
	}
}

//Personal.AI order the ending
