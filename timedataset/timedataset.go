package timedataset

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/volforecast/go-volatility/errkind"
)

var (
	ErrNoTrainingData     = fmt.Errorf("no training data, %w", errkind.ErrInput)
	ErrNonMontonic        = fmt.Errorf("time feature is not monotonic, %w", errkind.ErrInput)
	ErrDatasetLenMismatch = fmt.Errorf("time feature has a different length than observations, %w", errkind.ErrInput)
	ErrNonFinite          = fmt.Errorf("observation is not finite, %w", errkind.ErrInput)
	ErrInsufficientData   = fmt.Errorf("insufficient observations, %w", errkind.ErrInput)
	ErrNonPositivePrice   = fmt.Errorf("price must be positive, %w", errkind.ErrInput)
	ErrCannotInferFreq    = errors.New("cannot infer frequency from time slice")
)

// TimeDataset represents a return series storing a slice of time points and values.
// Both must be of the same length and the time points must be strictly increasing.
type TimeDataset struct {
	T []time.Time `json:"time"`
	Y []float64   `json:"values"`
}

// NewUnivariateDataset returns an instance of a TimeDataset given a time and value slice.
// The inputs are copied so the caller keeps ownership of its slices.
func NewUnivariateDataset(t []time.Time, y []float64) (*TimeDataset, error) {
	if len(y) == 0 {
		return nil, ErrNoTrainingData
	}
	if len(t) != len(y) {
		return nil, fmt.Errorf(
			"time feature has length of %d, but values has a length of %d, %w",
			len(t), len(y), ErrDatasetLenMismatch,
		)
	}

	for i := 1; i < len(t); i++ {
		if !t[i].After(t[i-1]) {
			return nil, fmt.Errorf("non-monotonic at %d, %w", i, ErrNonMontonic)
		}
	}

	tSeries := make([]time.Time, len(t))
	ySeries := make([]float64, len(t))
	copy(tSeries, t)
	copy(ySeries, y)
	td := &TimeDataset{
		T: tSeries,
		Y: ySeries,
	}

	return td, nil
}

// NewLogReturns converts a price series into log returns ln(p_t / p_{t-1}). The first
// time point is consumed since it has no previous price.
func NewLogReturns(t []time.Time, prices []float64) (*TimeDataset, error) {
	if len(prices) < 2 {
		return nil, fmt.Errorf("need at least 2 prices, got %d, %w", len(prices), ErrInsufficientData)
	}
	if len(t) != len(prices) {
		return nil, fmt.Errorf(
			"time feature has length of %d, but prices has a length of %d, %w",
			len(t), len(prices), ErrDatasetLenMismatch,
		)
	}
	for i, p := range prices {
		if !(p > 0) || math.IsInf(p, 0) {
			return nil, fmt.Errorf("price %g at %d, %w", p, i, ErrNonPositivePrice)
		}
	}

	returns := make([]float64, len(prices)-1)
	for i := 1; i < len(prices); i++ {
		returns[i-1] = math.Log(prices[i] / prices[i-1])
	}
	return NewUnivariateDataset(t[1:], returns)
}

// Len returns the number of observations
func (td *TimeDataset) Len() int {
	if td == nil {
		return 0
	}
	return len(td.Y)
}

// Validate checks that every observation is finite and that there are at least minLen of them.
func (td *TimeDataset) Validate(minLen int) error {
	if td == nil || len(td.Y) == 0 {
		return ErrNoTrainingData
	}
	if len(td.T) != len(td.Y) {
		return fmt.Errorf(
			"time feature has length of %d, but values has a length of %d, %w",
			len(td.T), len(td.Y), ErrDatasetLenMismatch,
		)
	}
	if len(td.Y) < minLen {
		return fmt.Errorf("got %d observations, but need at least %d, %w", len(td.Y), minLen, ErrInsufficientData)
	}
	for i, y := range td.Y {
		if math.IsNaN(y) || math.IsInf(y, 0) {
			return fmt.Errorf("value %g at %d, %w", y, i, ErrNonFinite)
		}
	}
	return nil
}

func (td *TimeDataset) Copy() *TimeDataset {
	if td == nil {
		return nil
	}
	tSeries := make([]time.Time, len(td.T))
	ySeries := make([]float64, len(td.Y))
	copy(tSeries, td.T)
	copy(ySeries, td.Y)
	return &TimeDataset{
		T: tSeries,
		Y: ySeries,
	}
}

// DropNan returns a copy of the dataset without any NaN or infinite observations
func (td *TimeDataset) DropNan() *TimeDataset {
	if td == nil {
		return nil
	}
	tSeries := make([]time.Time, 0, len(td.T))
	ySeries := make([]float64, 0, len(td.Y))
	for i := 0; i < len(td.Y); i++ {
		if math.IsNaN(td.Y[i]) || math.IsInf(td.Y[i], 0) {
			continue
		}
		tSeries = append(tSeries, td.T[i])
		ySeries = append(ySeries, td.Y[i])
	}
	return &TimeDataset{
		T: tSeries,
		Y: ySeries,
	}
}
