// Package stats contains residual diagnostics, information criteria and forecast scores for
// fitted volatility models.
package stats

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/volforecast/go-volatility/errkind"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

var (
	ErrInsufficientSamples = fmt.Errorf("insufficient samples, %w", errkind.ErrInput)
	ErrInvalidLag          = errors.New("lag must be positive and smaller than the number of samples")
)

// DetectOutliers returns the indexes of values outside the Tukey fence built from the given
// lower and upper percentiles.
func DetectOutliers(y []float64, lowerPerc, upperPerc, tukeyFactor float64) []int {
	if len(y) == 0 {
		return nil
	}
	lowerPerc = math.Max(lowerPerc, 0.0)
	upperPerc = math.Min(upperPerc, 1.0)
	tukeyFactor = math.Max(tukeyFactor, 0.0)

	yCopy := make([]float64, len(y))
	copy(yCopy, y)
	sort.Float64s(yCopy)
	lowerIdx := int(math.Floor(float64(len(yCopy)) * lowerPerc))
	upperIdx := min(int(math.Ceil(float64(len(yCopy))*upperPerc)), len(yCopy)-1)

	lower := yCopy[lowerIdx]
	upper := yCopy[upperIdx]
	innerRange := upper - lower
	lower -= innerRange * tukeyFactor
	upper += innerRange * tukeyFactor

	var outlierIdx []int
	for i := 0; i < len(y); i++ {
		if y[i] >= upper || y[i] <= lower {
			outlierIdx = append(outlierIdx, i)
		}
	}
	return outlierIdx
}

// Moments summarizes the shape of a sample. A well specified normal GARCH model leaves
// standardized residuals with zero skew and zero excess kurtosis.
type Moments struct {
	Mean           float64 `json:"mean"`
	StdDev         float64 `json:"std_dev"`
	Skewness       float64 `json:"skewness"`
	ExcessKurtosis float64 `json:"excess_kurtosis"`
}

// NewMoments computes the sample moments of x
func NewMoments(x []float64) (*Moments, error) {
	if len(x) < 4 {
		return nil, fmt.Errorf("need at least 4 samples for moments, got %d, %w", len(x), ErrInsufficientSamples)
	}
	mean, std := stat.MeanStdDev(x, nil)
	return &Moments{
		Mean:           mean,
		StdDev:         std,
		Skewness:       stat.Skew(x, nil),
		ExcessKurtosis: stat.ExKurtosis(x, nil),
	}, nil
}

// TestResult is a test statistic along with its p-value
type TestResult struct {
	Statistic float64 `json:"statistic"`
	PValue    float64 `json:"p_value"`
}

// JarqueBera tests x for normality using its skewness and excess kurtosis.
func JarqueBera(x []float64) (*TestResult, error) {
	m, err := NewMoments(x)
	if err != nil {
		return nil, err
	}
	n := float64(len(x))
	jb := n / 6 * (m.Skewness*m.Skewness + m.ExcessKurtosis*m.ExcessKurtosis/4)
	return &TestResult{
		Statistic: jb,
		PValue:    distuv.ChiSquared{K: 2}.Survival(jb),
	}, nil
}

// Autocorrelation returns the sample autocorrelation of x at lags 1..maxLag.
func Autocorrelation(x []float64, maxLag int) ([]float64, error) {
	if maxLag < 1 || maxLag >= len(x) {
		return nil, fmt.Errorf("lag %d with %d samples, %w", maxLag, len(x), ErrInvalidLag)
	}
	mean := stat.Mean(x, nil)
	centered := make([]float64, len(x))
	copy(centered, x)
	floats.AddConst(-mean, centered)
	denom := floats.Dot(centered, centered)

	acf := make([]float64, maxLag)
	for k := 1; k <= maxLag; k++ {
		if denom == 0 {
			continue
		}
		acf[k-1] = floats.Dot(centered[k:], centered[:len(centered)-k]) / denom
	}
	return acf, nil
}

// LjungBox tests x for autocorrelation up to maxLag. Applied to squared standardized
// residuals it checks whether the model left any volatility clustering unexplained.
func LjungBox(x []float64, maxLag int) (*TestResult, error) {
	acf, err := Autocorrelation(x, maxLag)
	if err != nil {
		return nil, err
	}
	n := float64(len(x))
	var q float64
	for k, r := range acf {
		q += r * r / (n - float64(k+1))
	}
	q *= n * (n + 2)
	return &TestResult{
		Statistic: q,
		PValue:    distuv.ChiSquared{K: float64(maxLag)}.Survival(q),
	}, nil
}
