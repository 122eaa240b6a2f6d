// Package success_predictor implements the treatment success prediction
// engine: seven feature scorers, a weighted base score, a historical-outcome
// adjustment, confidence, outcome projection, risk stratification and
// rule-based recommendations, orchestrated per treatment and ranked.
//
// The engine is stateless.  Everything it knows comes from the immutable
// ModelConfig and the records fetched from the treatment.Repository for the
// current call.
package success_predictor

import (
	"context"
	"fmt"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/turtacn/TreatIQ-Intelligence/internal/domain/treatment"
	"github.com/turtacn/TreatIQ-Intelligence/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/TreatIQ-Intelligence/pkg/errors"
	"github.com/turtacn/TreatIQ-Intelligence/pkg/types/prediction"
)

// ---------------------------------------------------------------------------
// Metrics hook
// ---------------------------------------------------------------------------

// Batch outcomes reported to Metrics.ObserveBatch.
const (
	OutcomeSuccess    = "success"
	OutcomePartial    = "partial"
	OutcomeInvalid    = "invalid"
	OutcomeNotFound   = "not_found"
	OutcomeStoreError = "store_error"
	OutcomeCancelled  = "cancelled"
)

// Metrics receives engine telemetry.  Implementations must be safe for
// concurrent use.
type Metrics interface {
	ObservePrediction(category string, successProbability, confidence int)
	ObserveBatch(outcome string, size int, duration time.Duration)
	IncComputationFailure(category string)
}

type noopMetrics struct{}

func (noopMetrics) ObservePrediction(string, int, int)      {}
func (noopMetrics) ObserveBatch(string, int, time.Duration) {}
func (noopMetrics) IncComputationFailure(string)            {}

// NewNoopMetrics returns a Metrics that discards everything.
func NewNoopMetrics() Metrics { return noopMetrics{} }

// ---------------------------------------------------------------------------
// Options (functional option pattern)
// ---------------------------------------------------------------------------

// PredictorOptions holds tunables of the orchestrator.
type PredictorOptions struct {
	MaxConcurrency int
	Rules          []RecommendationRule
	Clock          func() time.Time
}

// DefaultPredictorOptions returns production defaults.
func DefaultPredictorOptions() *PredictorOptions {
	return &PredictorOptions{
		MaxConcurrency: 8,
		Rules:          DefaultRecommendationRules(),
		Clock:          time.Now,
	}
}

// PredictorOption mutates PredictorOptions.
type PredictorOption func(*PredictorOptions)

// WithMaxConcurrency caps parallel per-treatment evaluations.
func WithMaxConcurrency(n int) PredictorOption {
	return func(o *PredictorOptions) {
		if n > 0 {
			o.MaxConcurrency = n
		}
	}
}

// WithRecommendationRules replaces the recommendation rule list.
func WithRecommendationRules(rules []RecommendationRule) PredictorOption {
	return func(o *PredictorOptions) {
		if rules != nil {
			o.Rules = rules
		}
	}
}

// WithClock overrides the wall clock used for processing time.
func WithClock(now func() time.Time) PredictorOption {
	return func(o *PredictorOptions) {
		if now != nil {
			o.Clock = now
		}
	}
}

func applyOptions(opts []PredictorOption) *PredictorOptions {
	o := DefaultPredictorOptions()
	for _, fn := range opts {
		fn(o)
	}
	return o
}

// ---------------------------------------------------------------------------
// Results
// ---------------------------------------------------------------------------

// Failure records a treatment dropped from the batch by a ComputationError.
type Failure struct {
	TreatmentID string
	Err         error
}

// BatchResult is the full outcome of one prediction call.
type BatchResult struct {
	Predictions    []*prediction.SuccessPrediction
	Failures       []Failure
	ProcessingTime time.Duration
}

// ---------------------------------------------------------------------------
// Predictor
// ---------------------------------------------------------------------------

// Predictor is the engine's public contract.
type Predictor interface {
	// Predict returns the ranked predictions for treatmentIDs.
	Predict(ctx context.Context, profile *prediction.PatientProfile, treatmentIDs []string) ([]*prediction.SuccessPrediction, error)

	// PredictBatch is Predict plus the per-treatment failures and timing.
	PredictBatch(ctx context.Context, profile *prediction.PatientProfile, treatmentIDs []string) (*BatchResult, error)

	// Model returns the scoring model in use.
	Model() *ModelConfig
}

type successPredictor struct {
	repo    treatment.Repository
	model   *ModelConfig
	metrics Metrics
	logger  logging.Logger
	opts    *PredictorOptions
}

// NewPredictor wires the engine.  repo and model are required.
func NewPredictor(
	repo treatment.Repository,
	model *ModelConfig,
	metrics Metrics,
	logger logging.Logger,
	opts ...PredictorOption,
) (Predictor, error) {
	if repo == nil {
		return nil, errors.New(errors.ErrCodeInvalidConfig, "treatment repository is required")
	}
	if model == nil {
		return nil, errors.New(errors.ErrCodeInvalidModelConfig, "model config is required")
	}
	if metrics == nil {
		metrics = NewNoopMetrics()
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &successPredictor{
		repo:    repo,
		model:   model,
		metrics: metrics,
		logger:  logger.Named("success_predictor"),
		opts:    applyOptions(opts),
	}, nil
}

func (p *successPredictor) Model() *ModelConfig { return p.model }

func (p *successPredictor) Predict(ctx context.Context, profile *prediction.PatientProfile, treatmentIDs []string) ([]*prediction.SuccessPrediction, error) {
	res, err := p.PredictBatch(ctx, profile, treatmentIDs)
	if err != nil {
		return nil, err
	}
	return res.Predictions, nil
}

func (p *successPredictor) PredictBatch(ctx context.Context, profile *prediction.PatientProfile, treatmentIDs []string) (*BatchResult, error) {
	start := p.opts.Clock()

	if err := profile.Validate(); err != nil {
		p.metrics.ObserveBatch(OutcomeInvalid, len(treatmentIDs), 0)
		return nil, err
	}
	ids, err := prediction.NormalizeTreatmentIDs(treatmentIDs)
	if err != nil {
		p.metrics.ObserveBatch(OutcomeInvalid, len(treatmentIDs), 0)
		return nil, err
	}

	records, history, err := p.fetch(ctx, profile, ids)
	if err != nil {
		outcome := OutcomeStoreError
		if ctx.Err() != nil {
			outcome = OutcomeCancelled
		}
		p.metrics.ObserveBatch(outcome, len(ids), p.opts.Clock().Sub(start))
		p.logger.Error("treatment store fetch failed", logging.Int("requested", len(ids)), logging.Err(err))
		return nil, err
	}

	resolved, missing := resolveTreatments(ids, records)
	if len(missing) > 0 {
		p.metrics.ObserveBatch(OutcomeNotFound, len(ids), p.opts.Clock().Sub(start))
		p.logger.Warn("treatments not found", logging.Strings("missing", missing))
		return nil, errors.NewNotFoundError(missing)
	}

	preds, failures, err := p.evaluateAll(ctx, profile, resolved, history)
	if err != nil {
		p.metrics.ObserveBatch(OutcomeCancelled, len(ids), p.opts.Clock().Sub(start))
		return nil, err
	}

	SortPredictions(preds)

	elapsed := p.opts.Clock().Sub(start)
	for _, pr := range preds {
		pr.ProcessingTimeMs = elapsed.Milliseconds()
	}

	outcome := OutcomeSuccess
	if len(failures) > 0 {
		outcome = OutcomePartial
	}
	p.metrics.ObserveBatch(outcome, len(ids), elapsed)
	p.logger.Info("prediction batch completed",
		logging.Int("requested", len(ids)),
		logging.Int("predicted", len(preds)),
		logging.Int("failed", len(failures)),
		logging.Int("historical_records", len(history)),
		logging.Duration("elapsed", elapsed),
	)

	return &BatchResult{Predictions: preds, Failures: failures, ProcessingTime: elapsed}, nil
}

// fetch issues both store reads concurrently and returns the first error
// unchanged.
func (p *successPredictor) fetch(ctx context.Context, profile *prediction.PatientProfile, ids []string) ([]*prediction.TreatmentRecord, []*prediction.HistoricalRecord, error) {
	var (
		records []*prediction.TreatmentRecord
		history []*prediction.HistoricalRecord
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		records, err = p.repo.FetchTreatments(gctx, ids)
		return err
	})
	g.Go(func() error {
		var err error
		history, err = p.repo.FetchHistoricalOutcomes(gctx, profile)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return records, history, nil
}

// resolveTreatments matches store records to the requested ids, preserving
// request order.  Unrequested or nil records are ignored.
func resolveTreatments(ids []string, records []*prediction.TreatmentRecord) ([]*prediction.TreatmentRecord, []string) {
	byID := make(map[string]*prediction.TreatmentRecord, len(records))
	for _, r := range records {
		if r != nil {
			byID[r.ID] = r
		}
	}
	resolved := make([]*prediction.TreatmentRecord, 0, len(ids))
	var missing []string
	for _, id := range ids {
		if r, ok := byID[id]; ok {
			resolved = append(resolved, r)
		} else {
			missing = append(missing, id)
		}
	}
	return resolved, missing
}

// evaluateAll scores every treatment concurrently.  A ComputationError only
// drops its own treatment; context cancellation aborts the batch.
func (p *successPredictor) evaluateAll(
	ctx context.Context,
	profile *prediction.PatientProfile,
	records []*prediction.TreatmentRecord,
	history []*prediction.HistoricalRecord,
) ([]*prediction.SuccessPrediction, []Failure, error) {
	results := make([]*prediction.SuccessPrediction, len(records))
	errs := make([]error, len(records))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.opts.MaxConcurrency)
	for i, rec := range records {
		i, rec := i, rec
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i], errs[i] = p.evaluate(profile, rec, history)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	preds := make([]*prediction.SuccessPrediction, 0, len(records))
	var failures []Failure
	for i, rec := range records {
		if errs[i] != nil {
			p.metrics.IncComputationFailure(string(rec.Category))
			p.logger.Error("treatment prediction failed",
				logging.TreatmentID(rec.ID), logging.Err(errs[i]))
			failures = append(failures, Failure{TreatmentID: rec.ID, Err: errs[i]})
			continue
		}
		p.metrics.ObservePrediction(string(rec.Category), results[i].SuccessProbability, results[i].ConfidenceScore)
		preds = append(preds, results[i])
	}
	sort.Slice(failures, func(i, j int) bool { return failures[i].TreatmentID < failures[j].TreatmentID })
	return preds, failures, nil
}

// evaluate runs the full per-treatment pipeline.  A panic is converted into a
// ComputationError for that treatment.
func (p *successPredictor) evaluate(
	profile *prediction.PatientProfile,
	t *prediction.TreatmentRecord,
	history []*prediction.HistoricalRecord,
) (pred *prediction.SuccessPrediction, err error) {
	defer func() {
		if r := recover(); r != nil {
			pred = nil
			err = errors.NewComputationError(t.ID, fmt.Sprintf("panic during scoring: %v", r))
		}
	}()

	features := p.model.ScoreFeatures(profile, t)
	base := p.model.BaseScore(features)
	match := MatchHistory(profile, t.ID, history)
	score := AdjustScore(base, match)

	risks, err := StratifyRisk(profile, t)
	if err != nil {
		return nil, err
	}

	in := &RuleInput{Score: score, Risks: risks, Profile: profile, Treatment: t}
	pred = &prediction.SuccessPrediction{
		TreatmentID:        t.ID,
		TreatmentName:      t.DisplayName(),
		SuccessProbability: SuccessProbability(score),
		ConfidenceScore:    ConfidenceScore(profile, match),
		ExpectedResults:    p.model.ProjectOutcome(t.Category, score),
		Risks:              risks,
		Recommendations:    Recommend(p.opts.Rules, in),
		Alternatives:       Alternatives(in),
	}

	p.logger.Debug("treatment scored",
		logging.TreatmentID(t.ID),
		logging.Any("features", features),
		logging.Float64("base_score", base),
		logging.Float64("history_multiplier", match.Multiplier),
		logging.Float64("adjusted_score", score),
	)
	return pred, nil
}

// SortPredictions orders by success probability desc, confidence desc, then
// treatment id asc.
func SortPredictions(preds []*prediction.SuccessPrediction) {
	sort.SliceStable(preds, func(i, j int) bool {
		a, b := preds[i], preds[j]
		if a.SuccessProbability != b.SuccessProbability {
			return a.SuccessProbability > b.SuccessProbability
		}
		if a.ConfidenceScore != b.ConfidenceScore {
			return a.ConfidenceScore > b.ConfidenceScore
		}
		return a.TreatmentID < b.TreatmentID
	})
}

//Personal.AI order the ending
