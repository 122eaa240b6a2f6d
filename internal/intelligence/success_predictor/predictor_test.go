package success_predictor

import (
	"context"
	stderrors "errors"
	"math/rand"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/turtacn/TreatIQ-Intelligence/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/TreatIQ-Intelligence/pkg/errors"
	"github.com/turtacn/TreatIQ-Intelligence/pkg/types/prediction"
)

// ---------------------------------------------------------------------------
// Fixtures
// ---------------------------------------------------------------------------

func goldenProfile() *prediction.PatientProfile {
	return &prediction.PatientProfile{
		Age:            prediction.AgeOf(45),
		Gender:         prediction.GenderFemale,
		SkinType:       prediction.SkinOily,
		SkinConditions: []string{"wrinkles"},
		Lifestyle: prediction.LifestyleFactors{
			Sleep:   prediction.QualityGood,
			Diet:    prediction.QualityAverage,
			Stress:  prediction.LevelMedium,
			Alcohol: prediction.AlcoholOccasional,
		},
		Environment: prediction.EnvironmentalFactors{
			Pollution:   prediction.LevelLow,
			SunExposure: prediction.LevelMedium,
			Climate:     prediction.ClimateHumid,
		},
	}
}

func sampleTreatments() []*prediction.TreatmentRecord {
	return []*prediction.TreatmentRecord{
		{
			ID:                "inj-botox",
			Name:              prediction.LocalizedName{EN: "Botox", Local: "ボトックス"},
			Category:          prediction.CategoryInjectable,
			Intensity:         prediction.LevelMedium,
			Contraindications: []string{"pregnancy"},
			BestFor:           []string{"wrinkles"},
		},
		{
			ID:                "laser-co2",
			Name:              prediction.LocalizedName{EN: "CO2 Fractional Laser"},
			Category:          prediction.CategoryLaser,
			Intensity:         prediction.LevelHigh,
			Contraindications: []string{"sensitive"},
			BestFor:           []string{"wrinkles", "acne scars"},
		},
		{
			ID:        "facial-hydra",
			Name:      prediction.LocalizedName{Local: "ハイドラフェイシャル"},
			Category:  prediction.CategoryFacial,
			Intensity: prediction.LevelLow,
			BestFor:   []string{"hydration", "acne"},
		},
		{
			ID:        "body-sculpt",
			Category:  prediction.CategoryBody,
			Intensity: prediction.LevelMedium,
		},
		{
			ID:                "wellness-massage",
			Category:          prediction.CategoryWellness,
			Intensity:         prediction.LevelLow,
			Contraindications: []string{"pregnancy", "rosacea"},
		},
	}
}

func sampleProfiles() []*prediction.PatientProfile {
	return []*prediction.PatientProfile{
		goldenProfile(),
		{},
		{
			Age:                prediction.AgeOf(67),
			Gender:             prediction.GenderMale,
			SkinType:           prediction.SkinSensitive,
			SkinConditions:     []string{"rosacea", "pigmentation", "eczema"},
			PreviousTreatments: []string{"laser_ipl"},
			Lifestyle: prediction.LifestyleFactors{
				Sleep: prediction.QualityPoor, Diet: prediction.QualityPoor, Stress: prediction.LevelHigh,
				Smoking: true, Alcohol: prediction.AlcoholRegular,
			},
			Environment: prediction.EnvironmentalFactors{
				Pollution: prediction.LevelHigh, SunExposure: prediction.LevelHigh, Climate: prediction.ClimateDry,
			},
		},
		{
			Age:            prediction.AgeOf(19),
			Gender:         prediction.GenderOther,
			SkinType:       prediction.SkinCombination,
			SkinConditions: []string{"acne"},
			Lifestyle: prediction.LifestyleFactors{
				Sleep: prediction.QualityGood, Diet: prediction.QualityGood, Stress: prediction.LevelLow, Alcohol: prediction.AlcoholNone,
			},
		},
	}
}

// ---------------------------------------------------------------------------
// Fakes
// ---------------------------------------------------------------------------

type fakeRepository struct {
	treatments []*prediction.TreatmentRecord
	history    []*prediction.HistoricalRecord

	treatmentsErr error
	historyErr    error

	treatmentCalls atomic.Int32
	historyCalls   atomic.Int32

	mu      sync.Mutex
	lastIDs []string
}

func newFakeRepository(treatments []*prediction.TreatmentRecord, history ...*prediction.HistoricalRecord) *fakeRepository {
	return &fakeRepository{treatments: treatments, history: history}
}

func (r *fakeRepository) FetchTreatments(ctx context.Context, ids []string) ([]*prediction.TreatmentRecord, error) {
	r.treatmentCalls.Add(1)
	r.mu.Lock()
	r.lastIDs = append([]string(nil), ids...)
	r.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if r.treatmentsErr != nil {
		return nil, r.treatmentsErr
	}
	want := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		want[id] = struct{}{}
	}
	var out []*prediction.TreatmentRecord
	for _, t := range r.treatments {
		if _, ok := want[t.ID]; ok {
			out = append(out, t)
		}
	}
	return out, nil
}

func (r *fakeRepository) FetchHistoricalOutcomes(ctx context.Context, _ *prediction.PatientProfile) ([]*prediction.HistoricalRecord, error) {
	r.historyCalls.Add(1)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if r.historyErr != nil {
		return nil, r.historyErr
	}
	return r.history, nil
}

type batchObservation struct {
	outcome string
	size    int
}

type recordingMetrics struct {
	mu          sync.Mutex
	predictions map[string]int
	batches     []batchObservation
	failures    map[string]int
}

func newRecordingMetrics() *recordingMetrics {
	return &recordingMetrics{predictions: map[string]int{}, failures: map[string]int{}}
}

func (m *recordingMetrics) ObservePrediction(category string, _, _ int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.predictions[category]++
}

func (m *recordingMetrics) ObserveBatch(outcome string, size int, _ time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.batches = append(m.batches, batchObservation{outcome: outcome, size: size})
}

func (m *recordingMetrics) IncComputationFailure(category string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures[category]++
}

// steppingClock advances by step on every call.
func steppingClock(step time.Duration) func() time.Time {
	var n atomic.Int64
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	return func() time.Time {
		return base.Add(time.Duration(n.Add(1)) * step)
	}
}

func frozenClock() func() time.Time {
	at := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	return func() time.Time { return at }
}

func newTestPredictor(t *testing.T, repo *fakeRepository, opts ...PredictorOption) Predictor {
	t.Helper()
	p, err := NewPredictor(repo, DefaultModelConfig(), nil, nil, opts...)
	require.NoError(t, err)
	return p
}

func predictionByID(preds []*prediction.SuccessPrediction, id string) *prediction.SuccessPrediction {
	for _, p := range preds {
		if p.TreatmentID == id {
			return p
		}
	}
	return nil
}

// ---------------------------------------------------------------------------
// Construction
// ---------------------------------------------------------------------------

func TestNewPredictor_RequiresDependencies(t *testing.T) {
	_, err := NewPredictor(nil, DefaultModelConfig(), nil, nil)
	assert.True(t, errors.IsCode(err, errors.ErrCodeInvalidConfig))

	_, err = NewPredictor(newFakeRepository(nil), nil, nil, nil)
	assert.True(t, errors.IsCode(err, errors.ErrCodeInvalidModelConfig))

	p, err := NewPredictor(newFakeRepository(nil), DefaultModelConfig(), nil, nil, WithMaxConcurrency(0))
	require.NoError(t, err)
	assert.NotNil(t, p.Model())
	assert.Equal(t, 8, p.(*successPredictor).opts.MaxConcurrency)
}

// ---------------------------------------------------------------------------
// Golden values
// ---------------------------------------------------------------------------

func TestPredict_GoldenWithoutHistory(t *testing.T) {
	repo := newFakeRepository(sampleTreatments())
	p := newTestPredictor(t, repo, WithClock(frozenClock()))

	preds, err := p.Predict(context.Background(), goldenProfile(), []string{"laser-co2", "inj-botox"})
	require.NoError(t, err)
	require.Len(t, preds, 2)

	botox, co2 := preds[0], preds[1]
	assert.Equal(t, "inj-botox", botox.TreatmentID)
	assert.Equal(t, "Botox", botox.TreatmentName)
	assert.Equal(t, 73, botox.SuccessProbability)
	assert.Equal(t, 70, botox.ConfidenceScore)

	assert.Equal(t, "laser-co2", co2.TreatmentID)
	assert.Equal(t, 71, co2.SuccessProbability)
	assert.Equal(t, 70, co2.ConfidenceScore)
	assert.Equal(t, []string{"Good candidate for this treatment."}, co2.Recommendations)
	assert.InDelta(t, 0.50, co2.Risks.Low, eps)
	assert.InDelta(t, 0.35, co2.Risks.Medium, eps)
	assert.InDelta(t, 0.15, co2.Risks.High, eps)
}

func TestPredict_GoldenWithHistory(t *testing.T) {
	repo := newFakeRepository(sampleTreatments(),
		&prediction.HistoricalRecord{PatientAge: 40, SkinType: prediction.SkinOily, TreatmentID: "inj-botox", SuccessRate: 0.9},
		&prediction.HistoricalRecord{PatientAge: 50, SkinType: prediction.SkinDry, TreatmentID: "inj-botox", SuccessRate: 0.7},
		&prediction.HistoricalRecord{PatientAge: 20, TreatmentID: "inj-botox", SuccessRate: 0.1},
	)
	p := newTestPredictor(t, repo, WithClock(frozenClock()))

	preds, err := p.Predict(context.Background(), goldenProfile(), []string{"inj-botox", "laser-co2"})
	require.NoError(t, err)
	require.Len(t, preds, 2)

	botox := preds[0]
	assert.Equal(t, "inj-botox", botox.TreatmentID)
	assert.Equal(t, 87, botox.SuccessProbability)
	assert.Equal(t, 80, botox.ConfidenceScore)
	assert.Equal(t, prediction.ExpectedResults{Improvement: 69, Satisfaction: 4, Longevity: 10}, botox.ExpectedResults)
	assert.InDelta(t, 0.70, botox.Risks.Low, eps)
	assert.InDelta(t, 0.25, botox.Risks.Medium, eps)
	assert.InDelta(t, 0.05, botox.Risks.High, eps)
	assert.Equal(t, []string{"Excellent candidate for this treatment."}, botox.Recommendations)
	assert.NotNil(t, botox.Alternatives)
	assert.Empty(t, botox.Alternatives)

	// botox history leaves the laser score alone, but the two similar
	// patients still count towards its confidence
	assert.Equal(t, 71, preds[1].SuccessProbability)
	assert.Equal(t, 80, preds[1].ConfidenceScore)
}

func TestPredict_ConfidenceCountsSimilarPatientsOnAnyTreatment(t *testing.T) {
	var history []*prediction.HistoricalRecord
	for i := 0; i < 6; i++ {
		history = append(history, &prediction.HistoricalRecord{PatientAge: 46, TreatmentID: "facial-hydra", SuccessRate: 0.9})
	}
	p := newTestPredictor(t, newFakeRepository(sampleTreatments(), history...))

	preds, err := p.Predict(context.Background(), goldenProfile(), []string{"laser-co2"})
	require.NoError(t, err)
	require.Len(t, preds, 1)
	assert.Equal(t, 71, preds[0].SuccessProbability)
	assert.Equal(t, 100, preds[0].ConfidenceScore)
}

// ---------------------------------------------------------------------------
// Profiles
// ---------------------------------------------------------------------------

// A smoker with high stress asking for a high-intensity laser.
func TestPredict_SmokerHighIntensityLaser(t *testing.T) {
	profile := goldenProfile()
	profile.Lifestyle.Smoking = true
	profile.Lifestyle.Stress = prediction.LevelHigh

	p := newTestPredictor(t, newFakeRepository(sampleTreatments()))
	preds, err := p.Predict(context.Background(), profile, []string{"laser-co2"})
	require.NoError(t, err)
	require.Len(t, preds, 1)

	co2 := preds[0]
	assert.Greater(t, co2.Risks.High, 0.05)
	assert.InDelta(t, 0.2, co2.Risks.High, eps)
	assert.InDelta(t, 1.0, co2.Risks.Sum(), 1e-6)
	assert.Contains(t, co2.Recommendations, "Reduce stress and prioritise sleep in the weeks around treatment to support results.")
}

func TestPredict_ContraindicationLowersScore(t *testing.T) {
	p := newTestPredictor(t, newFakeRepository(sampleTreatments()))

	oily := goldenProfile()
	sensitive := goldenProfile()
	sensitive.SkinType = prediction.SkinSensitive

	a, err := p.Predict(context.Background(), oily, []string{"laser-co2"})
	require.NoError(t, err)
	b, err := p.Predict(context.Background(), sensitive, []string{"laser-co2"})
	require.NoError(t, err)

	assert.Less(t, b[0].SuccessProbability, a[0].SuccessProbability)
}

func TestPredict_NoPriorTreatmentsScoresBaselineForEveryTreatment(t *testing.T) {
	ids := []string{"inj-botox", "laser-co2", "facial-hydra", "body-sculpt", "wellness-massage"}
	byID := make(map[string]*prediction.TreatmentRecord)
	for _, tr := range sampleTreatments() {
		byID[tr.ID] = tr
	}

	profile := goldenProfile()
	require.Empty(t, profile.PreviousTreatments)
	p := newTestPredictor(t, newFakeRepository(sampleTreatments()))

	preds, err := p.Predict(context.Background(), profile, ids)
	require.NoError(t, err)
	require.Len(t, preds, len(ids))
	for _, pr := range preds {
		f := p.Model().ScoreFeatures(profile, byID[pr.TreatmentID])
		assert.Equal(t, 0.6, f.PriorTreatments, pr.TreatmentID)
	}

	// any prior treatment moves the factor off the baseline
	experienced := goldenProfile()
	experienced.PreviousTreatments = []string{"laser-ipl"}
	assert.Equal(t, 0.8, p.Model().ScoreFeatures(experienced, byID["laser-co2"]).PriorTreatments)
	assert.Equal(t, 0.5, p.Model().ScoreFeatures(experienced, byID["inj-botox"]).PriorTreatments)
}

// Equal scores fall back to ascending treatment id.
func TestPredict_TieBreakByTreatmentID(t *testing.T) {
	twin := func(id string) *prediction.TreatmentRecord {
		return &prediction.TreatmentRecord{ID: id, Category: prediction.CategoryFacial, Intensity: prediction.LevelLow}
	}
	p := newTestPredictor(t, newFakeRepository([]*prediction.TreatmentRecord{twin("t2"), twin("t1")}))

	preds, err := p.Predict(context.Background(), goldenProfile(), []string{"t2", "t1"})
	require.NoError(t, err)
	require.Len(t, preds, 2)
	assert.Equal(t, preds[0].SuccessProbability, preds[1].SuccessProbability)
	assert.Equal(t, "t1", preds[0].TreatmentID)
	assert.Equal(t, "t2", preds[1].TreatmentID)
}

func TestSortPredictions(t *testing.T) {
	preds := []*prediction.SuccessPrediction{
		{TreatmentID: "c", SuccessProbability: 60, ConfidenceScore: 70},
		{TreatmentID: "b", SuccessProbability: 80, ConfidenceScore: 50},
		{TreatmentID: "a", SuccessProbability: 60, ConfidenceScore: 70},
		{TreatmentID: "d", SuccessProbability: 60, ConfidenceScore: 90},
	}
	SortPredictions(preds)

	var ids []string
	for _, p := range preds {
		ids = append(ids, p.TreatmentID)
	}
	assert.Equal(t, []string{"b", "d", "a", "c"}, ids)
}

// ---------------------------------------------------------------------------
// Errors
// ---------------------------------------------------------------------------

func TestPredict_ValidationSkipsStore(t *testing.T) {
	tests := []struct {
		name    string
		profile *prediction.PatientProfile
		ids     []string
		code    errors.ErrorCode
	}{
		{"nil profile", nil, []string{"inj-botox"}, errors.ErrCodeInvalidProfile},
		{"negative age", &prediction.PatientProfile{Age: prediction.AgeOf(-1)}, []string{"inj-botox"}, errors.ErrCodeInvalidProfile},
		{"unknown skin type", &prediction.PatientProfile{SkinType: "scaly"}, []string{"inj-botox"}, errors.ErrCodeInvalidProfile},
		{"no ids", goldenProfile(), nil, errors.ErrCodeInvalidTreatmentIDs},
		{"blank id", goldenProfile(), []string{"inj-botox", "  "}, errors.ErrCodeInvalidTreatmentIDs},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newFakeRepository(sampleTreatments())
			metrics := newRecordingMetrics()
			p, err := NewPredictor(repo, DefaultModelConfig(), metrics, nil)
			require.NoError(t, err)

			_, err = p.Predict(context.Background(), tt.profile, tt.ids)
			require.Error(t, err)
			assert.True(t, errors.IsCode(err, tt.code), "got %v", err)
			assert.True(t, errors.IsValidation(err))
			assert.Zero(t, repo.treatmentCalls.Load())
			assert.Zero(t, repo.historyCalls.Load())
			require.Len(t, metrics.batches, 1)
			assert.Equal(t, OutcomeInvalid, metrics.batches[0].outcome)
		})
	}
}

func TestPredict_MissingTreatmentFailsWholeBatch(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	repo := newFakeRepository(sampleTreatments())
	p, err := NewPredictor(repo, DefaultModelConfig(), nil, logging.NewLoggerFromCore(core))
	require.NoError(t, err)

	_, err = p.Predict(context.Background(), goldenProfile(), []string{"inj-botox", "ghost", "zombie"})
	require.Error(t, err)
	assert.True(t, errors.IsNotFound(err))
	assert.Contains(t, err.Error(), "missing=ghost,zombie")

	require.Equal(t, 1, logs.FilterMessage("treatments not found").Len())
}

func TestPredict_StoreErrorPassesThroughUnchanged(t *testing.T) {
	sentinel := stderrors.New("connection refused")

	repo := newFakeRepository(sampleTreatments())
	repo.historyErr = sentinel
	p := newTestPredictor(t, repo)

	_, err := p.Predict(context.Background(), goldenProfile(), []string{"inj-botox"})
	assert.Equal(t, sentinel, err)

	repo = newFakeRepository(sampleTreatments())
	repo.treatmentsErr = errors.New(errors.ErrCodeStoreUnavailable, "down")
	p = newTestPredictor(t, repo)

	_, err = p.Predict(context.Background(), goldenProfile(), []string{"inj-botox"})
	assert.True(t, errors.IsCode(err, errors.ErrCodeStoreUnavailable))
}

func TestPredict_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	metrics := newRecordingMetrics()
	p, err := NewPredictor(newFakeRepository(sampleTreatments()), DefaultModelConfig(), metrics, nil)
	require.NoError(t, err)

	_, err = p.Predict(ctx, goldenProfile(), []string{"inj-botox"})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	require.Len(t, metrics.batches, 1)
	assert.Equal(t, OutcomeCancelled, metrics.batches[0].outcome)
}

func TestPredictBatch_ComputationFailureIsIsolated(t *testing.T) {
	rules := append(DefaultRecommendationRules(), RecommendationRule{
		ID: "exploding",
		Applies: func(in *RuleInput) bool {
			if in.Treatment.ID == "laser-co2" {
				panic("boom")
			}
			return false
		},
	})
	metrics := newRecordingMetrics()
	p, err := NewPredictor(newFakeRepository(sampleTreatments()), DefaultModelConfig(), metrics, nil,
		WithRecommendationRules(rules))
	require.NoError(t, err)

	res, err := p.PredictBatch(context.Background(), goldenProfile(), []string{"laser-co2", "inj-botox"})
	require.NoError(t, err)

	require.Len(t, res.Predictions, 1)
	assert.Equal(t, "inj-botox", res.Predictions[0].TreatmentID)

	require.Len(t, res.Failures, 1)
	assert.Equal(t, "laser-co2", res.Failures[0].TreatmentID)
	assert.True(t, errors.IsComputation(res.Failures[0].Err))
	assert.Contains(t, res.Failures[0].Err.Error(), "boom")

	assert.Equal(t, 1, metrics.failures[string(prediction.CategoryLaser)])
	assert.Equal(t, 1, metrics.predictions[string(prediction.CategoryInjectable)])
	require.Len(t, metrics.batches, 1)
	assert.Equal(t, OutcomePartial, metrics.batches[0].outcome)
}

// ---------------------------------------------------------------------------
// Orchestration
// ---------------------------------------------------------------------------

func TestPredict_DeduplicatesRequestedIDs(t *testing.T) {
	repo := newFakeRepository(sampleTreatments())
	p := newTestPredictor(t, repo)

	preds, err := p.Predict(context.Background(), goldenProfile(), []string{" inj-botox", "inj-botox", "laser-co2"})
	require.NoError(t, err)
	assert.Len(t, preds, 2)
	assert.Equal(t, []string{"inj-botox", "laser-co2"}, repo.lastIDs)
	assert.Equal(t, int32(1), repo.treatmentCalls.Load())
	assert.Equal(t, int32(1), repo.historyCalls.Load())
}

func TestPredictBatch_ProcessingTimeFromClock(t *testing.T) {
	metrics := newRecordingMetrics()
	p, err := NewPredictor(newFakeRepository(sampleTreatments()), DefaultModelConfig(), metrics, nil,
		WithClock(steppingClock(5*time.Millisecond)))
	require.NoError(t, err)

	res, err := p.PredictBatch(context.Background(), goldenProfile(), []string{"inj-botox", "laser-co2", "facial-hydra"})
	require.NoError(t, err)
	assert.Equal(t, 5*time.Millisecond, res.ProcessingTime)
	for _, pr := range res.Predictions {
		assert.Equal(t, int64(5), pr.ProcessingTimeMs)
	}
	require.Len(t, metrics.batches, 1)
	assert.Equal(t, batchObservation{outcome: OutcomeSuccess, size: 3}, metrics.batches[0])
}

func TestPredict_IsDeterministic(t *testing.T) {
	ids := []string{"wellness-massage", "inj-botox", "body-sculpt", "laser-co2", "facial-hydra"}
	history := []*prediction.HistoricalRecord{
		{PatientAge: 44, TreatmentID: "laser-co2", SuccessRate: 0.4},
		{PatientAge: 47, TreatmentID: "facial-hydra", SuccessRate: 0.95},
	}

	run := func() []*prediction.SuccessPrediction {
		p := newTestPredictor(t, newFakeRepository(sampleTreatments(), history...),
			WithClock(frozenClock()), WithMaxConcurrency(3))
		preds, err := p.Predict(context.Background(), goldenProfile(), ids)
		require.NoError(t, err)
		return preds
	}

	first := run()
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, run())
	}
}

func TestPredict_DoesNotMutateInputs(t *testing.T) {
	treatments := sampleTreatments()
	profile := goldenProfile()
	p := newTestPredictor(t, newFakeRepository(treatments))

	_, err := p.Predict(context.Background(), profile, []string{"inj-botox", "laser-co2", "body-sculpt"})
	require.NoError(t, err)

	assert.Equal(t, sampleTreatments(), treatments)
	assert.Equal(t, goldenProfile(), profile)
}

func TestPredict_RangesHoldForRandomProfiles(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	pick := func(n int) int { return rng.Intn(n) }

	genders := []prediction.Gender{"", prediction.GenderMale, prediction.GenderFemale, prediction.GenderOther}
	skins := []prediction.SkinType{"", prediction.SkinOily, prediction.SkinDry, prediction.SkinCombination, prediction.SkinSensitive}
	levels := []prediction.Level{"", prediction.LevelLow, prediction.LevelMedium, prediction.LevelHigh}
	qualities := []prediction.Quality{"", prediction.QualityPoor, prediction.QualityAverage, prediction.QualityGood}
	alcohol := []prediction.AlcoholUse{"", prediction.AlcoholNone, prediction.AlcoholOccasional, prediction.AlcoholRegular}
	climates := []prediction.Climate{"", prediction.ClimateDry, prediction.ClimateHumid, prediction.ClimateTemperate}
	conditions := []string{"acne", "wrinkles", "pigmentation", "rosacea", "eczema"}
	previous := []string{"laser-ipl", "inj-filler", "facial-peel", "massage"}

	var history []*prediction.HistoricalRecord
	for i := 0; i < 40; i++ {
		history = append(history, &prediction.HistoricalRecord{
			PatientAge:  pick(90),
			TreatmentID: sampleTreatments()[pick(5)].ID,
			SuccessRate: rng.Float64(),
		})
	}

	p := newTestPredictor(t, newFakeRepository(sampleTreatments(), history...))
	ids := []string{"inj-botox", "laser-co2", "facial-hydra", "body-sculpt", "wellness-massage"}

	for i := 0; i < 200; i++ {
		profile := &prediction.PatientProfile{
			Age:      prediction.AgeOf(pick(prediction.MaxAge + 1)),
			Gender:   genders[pick(len(genders))],
			SkinType: skins[pick(len(skins))],
			Lifestyle: prediction.LifestyleFactors{
				Sleep:   qualities[pick(len(qualities))],
				Diet:    qualities[pick(len(qualities))],
				Stress:  levels[pick(len(levels))],
				Smoking: pick(2) == 1,
				Alcohol: alcohol[pick(len(alcohol))],
			},
			Environment: prediction.EnvironmentalFactors{
				Pollution:   levels[pick(len(levels))],
				SunExposure: levels[pick(len(levels))],
				Climate:     climates[pick(len(climates))],
			},
		}
		for j := pick(4); j > 0; j-- {
			profile.SkinConditions = append(profile.SkinConditions, conditions[pick(len(conditions))])
		}
		for j := pick(3); j > 0; j-- {
			profile.PreviousTreatments = append(profile.PreviousTreatments, previous[pick(len(previous))])
		}

		preds, err := p.Predict(context.Background(), profile, ids)
		require.NoError(t, err)
		require.Len(t, preds, len(ids))

		for k, pr := range preds {
			assert.GreaterOrEqual(t, pr.SuccessProbability, 5)
			assert.LessOrEqual(t, pr.SuccessProbability, 95)
			assert.GreaterOrEqual(t, pr.ConfidenceScore, 50)
			assert.LessOrEqual(t, pr.ConfidenceScore, 100)
			assert.GreaterOrEqual(t, pr.ExpectedResults.Satisfaction, 1)
			assert.LessOrEqual(t, pr.ExpectedResults.Satisfaction, 5)
			assert.GreaterOrEqual(t, pr.ExpectedResults.Improvement, 0)
			assert.InDelta(t, 1.0, pr.Risks.Sum(), 1e-6)
			assert.GreaterOrEqual(t, pr.Risks.High, 0.0)
			assert.NotEmpty(t, pr.Recommendations)
			if k > 0 {
				assert.GreaterOrEqual(t, preds[k-1].SuccessProbability, pr.SuccessProbability)
			}
		}
		assert.NotNil(t, predictionByID(preds, "inj-botox"))
	}
}

//Personal.AI order the ending
