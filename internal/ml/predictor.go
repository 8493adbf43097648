package ml

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"math/rand"
	"os"
	"sync"
	"time"

	"github.com/ledgerline/copytrade-analytics/internal/models"
	"github.com/sirupsen/logrus"
)

// TradeSource is the slice of the ledger the predictor needs.
type TradeSource interface {
	LeaderTrades(ctx context.Context, leaderAddress string, days, limit int) ([]models.Trade, error)
}

// TrainingSample is one (features, realized forward return) pair.
type TrainingSample struct {
	Features     *Features
	TargetReturn float64
}

// SampleSource supplies historical training pairs. A nil or empty result
// sends training down the synthetic fallback path.
type SampleSource interface {
	TrainingSamples(ctx context.Context) ([]TrainingSample, error)
}

// Config tunes the prediction pipeline.
type Config struct {
	MinPredictionTrades int
	MinTrainingSamples  int
	FeatureWindowDays   int
}

// DefaultConfig returns the standard pipeline settings.
func DefaultConfig() Config {
	return Config{
		MinPredictionTrades: 20,
		MinTrainingSamples:  100,
		FeatureWindowDays:   90,
	}
}

// modelBundle is the complete, immutable set of fitted artifacts. It is
// always published as a whole so readers never observe a half-trained model.
type modelBundle struct {
	Regression *RidgeRegression    `json:"regression"`
	Classifier *LogisticClassifier `json:"classifier"`
	Scaler     *StandardScaler     `json:"scaler"`
	Importance map[string]float64  `json:"feature_importance"`
	Version    string              `json:"model_version"`
	TrainedAt  time.Time           `json:"trained_at"`
}

// Predictor produces horizon-adjusted performance forecasts for leaders.
// The model bundle is process-wide shared state; training publishes a fully
// formed replacement atomically.
type Predictor struct {
	source  TradeSource
	samples SampleSource
	cfg     Config

	mu     sync.RWMutex
	bundle *modelBundle

	trainMu sync.Mutex
}

// NewPredictor creates an untrained predictor. The sample source may be nil,
// in which case training always uses the synthetic fallback fit.
func NewPredictor(source TradeSource, samples SampleSource, cfg Config) *Predictor {
	if cfg.MinPredictionTrades <= 0 {
		cfg.MinPredictionTrades = 20
	}
	if cfg.MinTrainingSamples <= 0 {
		cfg.MinTrainingSamples = 100
	}
	if cfg.FeatureWindowDays <= 0 {
		cfg.FeatureWindowDays = 90
	}
	return &Predictor{
		source:  source,
		samples: samples,
		cfg:     cfg,
	}
}

// Predict forecasts a leader's performance over horizonDays. It returns
// (nil, nil) when there is too little history or the forecast's confidence
// falls below confidenceThreshold; prediction is suppressed, not flagged.
func (p *Predictor) Predict(ctx context.Context, leaderAddress string, horizonDays int, confidenceThreshold float64) (*models.PredictionResult, error) {
	trades, err := p.source.LeaderTrades(ctx, leaderAddress, p.cfg.FeatureWindowDays, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch trades for prediction: %w", err)
	}
	if len(trades) < p.cfg.MinPredictionTrades {
		return nil, nil
	}

	features := ExtractFeatures(trades)
	if features == nil {
		return nil, nil
	}

	bundle := p.ensureTrained(ctx)

	scaled := bundle.Scaler.Transform(features.Vector())
	predictedReturn := bundle.Regression.Predict(scaled)
	profitProbability := bundle.Classifier.PredictProba(scaled)

	// Scale the weekly base prediction to the requested horizon.
	adjustedReturn := predictedReturn * float64(horizonDays) / 7

	// Coarse drawdown estimate from prediction magnitude and volatility.
	expectedDrawdown := 0.3*math.Abs(adjustedReturn) + 0.1*features.Volatility

	confidence := predictionConfidence(features, profitProbability)
	if confidence < confidenceThreshold {
		return nil, nil
	}

	return &models.PredictionResult{
		LeaderAddress:          leaderAddress,
		HorizonDays:            horizonDays,
		PredictedReturnPct:     adjustedReturn,
		ProbabilityOfProfit:    profitProbability,
		ExpectedMaxDrawdownPct: expectedDrawdown,
		Confidence:             confidence,
		FeatureImportance:      bundle.Importance,
		ModelVersion:           bundle.Version,
		PredictionTimestamp:    time.Now().UTC(),
	}, nil
}

// predictionConfidence scores how much the forecast should be trusted based
// on data quantity and prediction decisiveness, clamped to [0,1].
func predictionConfidence(f *Features, profitProbability float64) float64 {
	confidence := 0.5

	if f.TotalTrades > 50 {
		confidence += 0.1
	}
	if f.TotalTrades > 100 {
		confidence += 0.1
	}
	if f.TradingDays > 30 {
		confidence += 0.1
	}
	if f.TradingDays > 60 {
		confidence += 0.1
	}
	// Decisive probabilities deserve more trust than coin flips.
	if profitProbability > 0.7 || profitProbability < 0.3 {
		confidence += 0.1
	}
	if f.Volatility > 10 {
		confidence -= 0.1
	}

	return math.Max(0, math.Min(confidence, 1))
}

// ensureTrained returns the current bundle, training first if none has been
// published yet. Concurrent callers during training all end up with the same
// complete bundle.
func (p *Predictor) ensureTrained(ctx context.Context) *modelBundle {
	p.mu.RLock()
	bundle := p.bundle
	p.mu.RUnlock()
	if bundle != nil {
		return bundle
	}

	p.trainMu.Lock()
	defer p.trainMu.Unlock()

	// Another caller may have finished training while we waited.
	p.mu.RLock()
	bundle = p.bundle
	p.mu.RUnlock()
	if bundle != nil {
		return bundle
	}

	bundle = p.train(ctx)
	p.publish(bundle)
	return bundle
}

// Retrain drops the published bundle and fits a fresh one. Concurrent
// Predict calls observe either the old or the new bundle, never a mix.
func (p *Predictor) Retrain(ctx context.Context) {
	p.trainMu.Lock()
	defer p.trainMu.Unlock()

	logrus.Info("Retraining prediction models")
	bundle := p.train(ctx)
	p.publish(bundle)
}

// IsTrained reports whether a model bundle has been published.
func (p *Predictor) IsTrained() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.bundle != nil
}

// ModelInfo describes the currently published bundle.
type ModelInfo struct {
	IsTrained         bool               `json:"is_trained"`
	ModelVersion      string             `json:"model_version"`
	FeatureImportance map[string]float64 `json:"feature_importance"`
	TrainedAt         time.Time          `json:"trained_at"`
}

// Info returns metadata about the published bundle.
func (p *Predictor) Info() ModelInfo {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.bundle == nil {
		return ModelInfo{}
	}
	return ModelInfo{
		IsTrained:         true,
		ModelVersion:      p.bundle.Version,
		FeatureImportance: p.bundle.Importance,
		TrainedAt:         p.bundle.TrainedAt,
	}
}

// Healthy reports whether the published models produce usable output for a
// probe vector.
func (p *Predictor) Healthy() bool {
	p.mu.RLock()
	bundle := p.bundle
	p.mu.RUnlock()
	if bundle == nil {
		return false
	}

	probe := make([]float64, FeatureCount)
	for i := range probe {
		probe[i] = 1
	}
	scaled := bundle.Scaler.Transform(probe)
	ret := bundle.Regression.Predict(scaled)
	proba := bundle.Classifier.PredictProba(scaled)

	return !math.IsNaN(ret) && !math.IsInf(ret, 0) && proba >= 0 && proba <= 1
}

func (p *Predictor) publish(bundle *modelBundle) {
	p.mu.Lock()
	p.bundle = bundle
	p.mu.Unlock()
}

// train fits models from historical samples, falling back to a synthetic fit
// when data is insufficient or fitting fails. It always returns a usable
// bundle.
func (p *Predictor) train(ctx context.Context) *modelBundle {
	var samples []TrainingSample
	if p.samples != nil {
		var err error
		samples, err = p.samples.TrainingSamples(ctx)
		if err != nil {
			logrus.WithError(err).Warn("Failed to load training samples, using fallback models")
			return fallbackBundle()
		}
	}

	if len(samples) < p.cfg.MinTrainingSamples {
		logrus.WithField("samples", len(samples)).Warn("Insufficient training data, using fallback models")
		return fallbackBundle()
	}

	X := make([][]float64, len(samples))
	yReturn := make([]float64, len(samples))
	yProfit := make([]int, len(samples))
	for i, sample := range samples {
		X[i] = sample.Features.Vector()
		yReturn[i] = sample.TargetReturn
		if sample.TargetReturn > 0 {
			yProfit[i] = 1
		}
	}

	bundle, err := fitBundle(X, yReturn, yProfit, "1.0")
	if err != nil {
		logrus.WithError(err).Error("Model training failed, using fallback models")
		return fallbackBundle()
	}

	logrus.WithField("samples", len(samples)).Info("Prediction models trained")
	return bundle
}

func fitBundle(X [][]float64, yReturn []float64, yProfit []int, version string) (*modelBundle, error) {
	scaler := &StandardScaler{}
	if err := scaler.Fit(X); err != nil {
		return nil, err
	}
	scaled := scaler.TransformAll(X)

	regression := NewRidgeRegression()
	if err := regression.Fit(scaled, yReturn); err != nil {
		return nil, err
	}

	classifier := NewLogisticClassifier()
	if err := classifier.Fit(scaled, yProfit); err != nil {
		return nil, err
	}

	return &modelBundle{
		Regression: regression,
		Classifier: classifier,
		Scaler:     scaler,
		Importance: regression.Importances(FeatureNames),
		Version:    version,
		TrainedAt:  time.Now().UTC(),
	}, nil
}

// fallbackBundle fits the models on deterministic synthetic data whose
// targets are a fixed linear function of the features, so the fallback is
// internally consistent and always usable.
func fallbackBundle() *modelBundle {
	rng := rand.New(rand.NewSource(42))

	const samples = 100
	X := make([][]float64, samples)
	yReturn := make([]float64, samples)
	yProfit := make([]int, samples)

	for i := 0; i < samples; i++ {
		row := make([]float64, FeatureCount)
		for j := range row {
			row[j] = rng.NormFloat64()
		}
		X[i] = row

		// Target tied to win rate, profit factor and momentum so the fit
		// recovers a sensible relationship instead of noise.
		target := 2*row[1] + 1.5*row[4] + row[6] - 0.5*row[5] + 0.2*rng.NormFloat64()
		yReturn[i] = target
		if target > 0 {
			yProfit[i] = 1
		}
	}

	bundle, err := fitBundle(X, yReturn, yProfit, "fallback-1.0")
	if err != nil {
		// Fitting synthetic data of fixed shape cannot fail; guard anyway
		// with an identity-ish bundle.
		scaler := &StandardScaler{Mean: make([]float64, FeatureCount), Std: onesVector(FeatureCount)}
		regression := NewRidgeRegression()
		regression.Weights = make([]float64, FeatureCount)
		classifier := NewLogisticClassifier()
		classifier.Weights = make([]float64, FeatureCount)
		bundle = &modelBundle{
			Regression: regression,
			Classifier: classifier,
			Scaler:     scaler,
			Importance: regression.Importances(FeatureNames),
			Version:    "fallback-1.0",
			TrainedAt:  time.Now().UTC(),
		}
	}
	return bundle
}

func onesVector(n int) []float64 {
	v := make([]float64, n)
	for i := range v {
		v[i] = 1
	}
	return v
}

// SaveModels writes the published bundle to disk as an opaque JSON blob for
// warm restarts. It is a no-op error when nothing is trained yet.
func (p *Predictor) SaveModels(path string) error {
	p.mu.RLock()
	bundle := p.bundle
	p.mu.RUnlock()
	if bundle == nil {
		return fmt.Errorf("no trained models to save")
	}

	data, err := json.Marshal(bundle)
	if err != nil {
		return fmt.Errorf("failed to serialize models: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write models: %w", err)
	}

	logrus.WithField("path", path).Info("Prediction models saved")
	return nil
}

// LoadModels reads a previously saved bundle and publishes it.
func (p *Predictor) LoadModels(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read models: %w", err)
	}

	var bundle modelBundle
	if err := json.Unmarshal(data, &bundle); err != nil {
		return fmt.Errorf("failed to deserialize models: %w", err)
	}
	if bundle.Regression == nil || bundle.Classifier == nil || bundle.Scaler == nil {
		return fmt.Errorf("model file %s is incomplete", path)
	}

	p.publish(&bundle)
	logrus.WithField("path", path).Info("Prediction models loaded")
	return nil
}
