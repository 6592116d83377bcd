// Package risk converts a one step ahead variance forecast into Value-at-Risk and expected
// shortfall.
package risk

import (
	"fmt"
	"math"

	"github.com/volforecast/go-volatility/distribution"
	"github.com/volforecast/go-volatility/errkind"
)

var (
	ErrInvalidConfidence = fmt.Errorf("confidence level must be in (0, 1), %w", errkind.ErrInput)
	ErrInvalidVariance   = fmt.Errorf("variance must be positive and finite, %w", errkind.ErrInput)
)

// Result is a one period Value-at-Risk estimate. Value and ExpectedShortfall are losses
// expressed as positive numbers in return units.
type Result struct {
	ConfidenceLevel   float64 `json:"confidence_level"`
	Value             float64 `json:"value"`
	ExpectedShortfall float64 `json:"expected_shortfall"`
	Volatility        float64 `json:"volatility"`
	Mean              float64 `json:"mean"`
}

// ValueAtRisk computes VaR = -(mu + z * sigma) where sigma is the square root of the one step
// variance and z the (1 - confidence) quantile of the innovation distribution. mu should be
// zero for zero mean models.
func ValueAtRisk(dist distribution.Distribution, mu, variance, confidence float64) (*Result, error) {
	if dist == nil {
		return nil, fmt.Errorf("no distribution, %w", errkind.ErrUnsupportedDistribution)
	}
	if !(confidence > 0 && confidence < 1) {
		return nil, fmt.Errorf("got %g, %w", confidence, ErrInvalidConfidence)
	}
	if !(variance > 0) || math.IsInf(variance, 0) {
		return nil, fmt.Errorf("got %g, %w", variance, ErrInvalidVariance)
	}
	if math.IsNaN(mu) || math.IsInf(mu, 0) {
		return nil, fmt.Errorf("mean %g is not finite, %w", mu, errkind.ErrInput)
	}

	tail := 1 - confidence
	sigma := math.Sqrt(variance)
	z := dist.Quantile(tail)
	return &Result{
		ConfidenceLevel:   confidence,
		Value:             -(mu + z*sigma),
		ExpectedShortfall: -(mu + dist.TailMean(tail)*sigma),
		Volatility:        sigma,
		Mean:              mu,
	}, nil
}

// ValueAtRiskFor resolves the distribution kind before computing the VaR. Kinds without an
// implementation fail with errkind.ErrUnsupportedDistribution.
func ValueAtRiskFor(kind distribution.Kind, mu, variance, confidence float64) (*Result, error) {
	dist, err := distribution.New(kind)
	if err != nil {
		return nil, err
	}
	return ValueAtRisk(dist, mu, variance, confidence)
}

// Scale returns the VaR of the aggregate return over a horizon from its cumulative variance,
// scaling the mean by the number of periods.
func Scale(dist distribution.Distribution, mu, cumulativeVariance float64, periods int, confidence float64) (*Result, error) {
	if periods < 1 {
		return nil, fmt.Errorf("periods must be at least 1, got %d, %w", periods, errkind.ErrInput)
	}
	return ValueAtRisk(dist, mu*float64(periods), cumulativeVariance, confidence)
}
