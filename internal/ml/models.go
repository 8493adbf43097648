package ml

import (
	"errors"
	"math"
)

// StandardScaler normalizes features to zero mean and unit variance using
// statistics fitted once on training data.
type StandardScaler struct {
	Mean []float64 `json:"mean"`
	Std  []float64 `json:"std"`
}

// Fit computes per-column mean and standard deviation. Columns with no
// spread get a standard deviation of 1 so Transform is always defined.
func (s *StandardScaler) Fit(X [][]float64) error {
	if len(X) == 0 || len(X[0]) == 0 {
		return errors.New("scaler: empty training matrix")
	}
	cols := len(X[0])
	s.Mean = make([]float64, cols)
	s.Std = make([]float64, cols)

	for j := 0; j < cols; j++ {
		var sum float64
		for i := range X {
			sum += X[i][j]
		}
		s.Mean[j] = sum / float64(len(X))

		var sumSq float64
		for i := range X {
			d := X[i][j] - s.Mean[j]
			sumSq += d * d
		}
		s.Std[j] = math.Sqrt(sumSq / float64(len(X)))
		if s.Std[j] == 0 {
			s.Std[j] = 1
		}
	}
	return nil
}

// Transform scales a single feature vector with the fitted statistics.
func (s *StandardScaler) Transform(v []float64) []float64 {
	out := make([]float64, len(v))
	for j := range v {
		out[j] = (v[j] - s.Mean[j]) / s.Std[j]
	}
	return out
}

// TransformAll scales a whole matrix.
func (s *StandardScaler) TransformAll(X [][]float64) [][]float64 {
	out := make([][]float64, len(X))
	for i := range X {
		out[i] = s.Transform(X[i])
	}
	return out
}

// RidgeRegression is a linear model fit by batch gradient descent with L2
// regularization. It predicts the next-period return percentage.
type RidgeRegression struct {
	Weights []float64 `json:"weights"`
	Bias    float64   `json:"bias"`

	LearningRate   float64 `json:"learning_rate"`
	Regularization float64 `json:"regularization"`
	Epochs         int     `json:"epochs"`
}

// NewRidgeRegression creates a regression model with standard training
// hyperparameters.
func NewRidgeRegression() *RidgeRegression {
	return &RidgeRegression{
		LearningRate:   0.01,
		Regularization: 0.1,
		Epochs:         500,
	}
}

// Fit trains on scaled features X against targets y.
func (m *RidgeRegression) Fit(X [][]float64, y []float64) error {
	if len(X) == 0 || len(X) != len(y) {
		return errors.New("regression: feature/target size mismatch")
	}

	cols := len(X[0])
	m.Weights = make([]float64, cols)
	m.Bias = 0
	n := float64(len(X))

	for epoch := 0; epoch < m.Epochs; epoch++ {
		gradW := make([]float64, cols)
		var gradB float64
		for i := range X {
			residual := m.Predict(X[i]) - y[i]
			for j := 0; j < cols; j++ {
				gradW[j] += residual * X[i][j]
			}
			gradB += residual
		}
		for j := 0; j < cols; j++ {
			gradW[j] = gradW[j]/n + m.Regularization*m.Weights[j]
			m.Weights[j] -= m.LearningRate * gradW[j]
		}
		m.Bias -= m.LearningRate * gradB / n
	}
	return nil
}

// Predict returns the model output for one scaled feature vector.
func (m *RidgeRegression) Predict(v []float64) float64 {
	out := m.Bias
	for j := range m.Weights {
		out += m.Weights[j] * v[j]
	}
	return out
}

// Importances returns the normalized absolute weight per feature name.
func (m *RidgeRegression) Importances(names []string) map[string]float64 {
	importance := make(map[string]float64, len(names))
	var total float64
	for j := range m.Weights {
		total += math.Abs(m.Weights[j])
	}
	for j, name := range names {
		if j >= len(m.Weights) {
			break
		}
		if total > 0 {
			importance[name] = math.Abs(m.Weights[j]) / total
		} else {
			importance[name] = 0
		}
	}
	return importance
}

// LogisticClassifier is a binary classifier fit by gradient descent. It
// predicts the probability the next period is profitable.
type LogisticClassifier struct {
	Weights []float64 `json:"weights"`
	Bias    float64   `json:"bias"`

	LearningRate float64 `json:"learning_rate"`
	Epochs       int     `json:"epochs"`
}

// NewLogisticClassifier creates a classifier with standard training
// hyperparameters.
func NewLogisticClassifier() *LogisticClassifier {
	return &LogisticClassifier{
		LearningRate: 0.05,
		Epochs:       500,
	}
}

// Fit trains on scaled features X against binary labels y (0 or 1).
func (m *LogisticClassifier) Fit(X [][]float64, y []int) error {
	if len(X) == 0 || len(X) != len(y) {
		return errors.New("classifier: feature/label size mismatch")
	}

	cols := len(X[0])
	m.Weights = make([]float64, cols)
	m.Bias = 0
	n := float64(len(X))

	for epoch := 0; epoch < m.Epochs; epoch++ {
		gradW := make([]float64, cols)
		var gradB float64
		for i := range X {
			residual := m.PredictProba(X[i]) - float64(y[i])
			for j := 0; j < cols; j++ {
				gradW[j] += residual * X[i][j]
			}
			gradB += residual
		}
		for j := 0; j < cols; j++ {
			m.Weights[j] -= m.LearningRate * gradW[j] / n
		}
		m.Bias -= m.LearningRate * gradB / n
	}
	return nil
}

// PredictProba returns P(profit) for one scaled feature vector.
func (m *LogisticClassifier) PredictProba(v []float64) float64 {
	z := m.Bias
	for j := range m.Weights {
		z += m.Weights[j] * v[j]
	}
	return sigmoid(z)
}

func sigmoid(z float64) float64 {
	// Clamp to keep Exp well-behaved for extreme inputs.
	if z > 35 {
		return 1
	}
	if z < -35 {
		return 0
	}
	return 1 / (1 + math.Exp(-z))
}
