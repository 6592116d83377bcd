package stats

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
)

// ArchLM is Engle's Lagrange multiplier test for conditional heteroskedasticity. x_t^2 is
// regressed on a constant and x_{t-1}^2 .. x_{t-lags}^2, and n * R^2 of that regression is
// compared against a chi-squared distribution with lags degrees of freedom.
func ArchLM(x []float64, lags int) (*TestResult, error) {
	if lags < 1 || lags >= len(x) {
		return nil, fmt.Errorf("lag %d with %d samples, %w", lags, len(x), ErrInvalidLag)
	}
	n := len(x) - lags
	if n <= lags+1 {
		return nil, fmt.Errorf("%d regression rows for %d lags, %w", n, lags, ErrInsufficientSamples)
	}

	design := make([]float64, 0, n*lags)
	target := make([]float64, n)
	for t := lags; t < len(x); t++ {
		target[t-lags] = x[t] * x[t]
		for k := 1; k <= lags; k++ {
			design = append(design, x[t-k]*x[t-k])
		}
	}
	dx := mat.NewDense(n, lags, design)
	dy := mat.NewDense(n, 1, target)

	ols := NewOLSRegression(nil)
	if err := ols.Fit(dx, dy); err != nil {
		return nil, err
	}
	r2, err := ols.Score(dx, dy)
	if err != nil {
		return nil, err
	}
	if math.IsNaN(r2) {
		return nil, fmt.Errorf("squared series has no variance, %w", ErrSingularDesign)
	}

	lm := float64(n) * r2
	return &TestResult{
		Statistic: lm,
		PValue:    distuv.ChiSquared{K: float64(lags)}.Survival(lm),
	}, nil
}
