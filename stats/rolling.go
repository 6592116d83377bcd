package stats

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"
)

const (
	DefaultRollingWindow = 21
	TradingDaysPerYear   = 252
	minRollingWindowSize = 2
)

// RollingVolatility is the sample standard deviation of returns over a trailing window,
// scaled by sqrt(periods). The first window-1 entries are NaN.
func RollingVolatility(returns []float64, window int, periods float64) ([]float64, error) {
	if window < minRollingWindowSize {
		return nil, fmt.Errorf("window must be at least %d, got %d, %w", minRollingWindowSize, window, ErrInsufficientSamples)
	}
	if periods <= 0 {
		periods = 1
	}
	scale := math.Sqrt(periods)

	vol := make([]float64, len(returns))
	for i := range vol {
		if i < window-1 {
			vol[i] = math.NaN()
			continue
		}
		vol[i] = stat.StdDev(returns[i-window+1:i+1], nil) * scale
	}
	return vol, nil
}
