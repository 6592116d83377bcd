// Package forecast produces the multi-step conditional variance term structure of a fitted
// GARCH model.
package forecast

import (
	"fmt"
	"math"
	"time"

	"github.com/rickar/cal/v2"
	"github.com/volforecast/go-volatility/errkind"
	"github.com/volforecast/go-volatility/params"
	"github.com/volforecast/go-volatility/timedataset"
)

var (
	ErrInvalidHorizon      = fmt.Errorf("horizon must be at least 1, %w", errkind.ErrInput)
	ErrInsufficientHistory = fmt.Errorf("not enough history to seed the forecast recursion, %w", errkind.ErrInput)
)

// Result is an h step ahead variance forecast. T is only populated when timestamps are
// attached with WithTimes.
type Result struct {
	T        []time.Time `json:"time,omitempty"`
	Variance []float64   `json:"variance"`
}

// Horizon is the number of forecast steps
func (r *Result) Horizon() int {
	if r == nil {
		return 0
	}
	return len(r.Variance)
}

// Volatility returns the square root of every forecast variance
func (r *Result) Volatility() []float64 {
	if r == nil {
		return nil
	}
	vol := make([]float64, len(r.Variance))
	for i, v := range r.Variance {
		vol[i] = math.Sqrt(v)
	}
	return vol
}

// Annualized scales the forecast volatility by sqrt(periods), e.g. 252 for daily returns.
func (r *Result) Annualized(periods float64) []float64 {
	vol := r.Volatility()
	scale := math.Sqrt(periods)
	for i := range vol {
		vol[i] *= scale
	}
	return vol
}

// Cumulative returns the variance of the aggregate return over the first h steps.
func (r *Result) Cumulative(h int) (float64, error) {
	if h < 1 || h > r.Horizon() {
		return 0, fmt.Errorf("cumulative horizon %d outside [1, %d], %w", h, r.Horizon(), errkind.ErrInput)
	}
	var total float64
	for _, v := range r.Variance[:h] {
		total += v
	}
	return total, nil
}

// StepFunc generates the n timestamps following last.
type StepFunc func(last time.Time, n int) []time.Time

// TradingDays steps through business days of the calendar. A nil calendar uses the US
// market holidays.
func TradingDays(c *cal.BusinessCalendar) StepFunc {
	return func(last time.Time, n int) []time.Time {
		return timedataset.NextTradingDays(c, last, n)
	}
}

// Interval steps by a fixed duration.
func Interval(d time.Duration) StepFunc {
	return func(last time.Time, n int) []time.Time {
		return timedataset.NextIntervals(last, d, n)
	}
}

// WithTimes attaches a timestamp to every forecast step starting after last.
func (r *Result) WithTimes(last time.Time, step StepFunc) *Result {
	if r == nil || step == nil {
		return r
	}
	r.T = step(last, len(r.Variance))
	return r
}

// Variance forecasts horizon steps of conditional variance from the squared residuals and
// variances observed so far. The first step uses only observed history. Later steps replace
// every squared residual that falls inside the horizon with its expectation, the forecast
// variance of that step, so the path reverts to omega / (1 - persistence).
func Variance(p params.Params, residuals2, variance []float64, horizon int) (*Result, error) {
	if horizon < 1 {
		return nil, fmt.Errorf("got %d, %w", horizon, ErrInvalidHorizon)
	}
	spec := params.ModelSpec{P: len(p.Alpha), Q: len(p.Beta)}
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	if err := p.Validate(spec); err != nil {
		return nil, err
	}
	if len(residuals2) < spec.P || len(variance) < spec.Q {
		return nil, fmt.Errorf(
			"got %d squared residuals and %d variances for %d arch and %d garch lags, %w",
			len(residuals2), len(variance), spec.P, spec.Q, ErrInsufficientHistory,
		)
	}

	ne := len(residuals2)
	nv := len(variance)
	fcst := make([]float64, horizon)
	for h := 1; h <= horizon; h++ {
		s2 := p.Omega
		for i, a := range p.Alpha {
			if k := h - (i + 1); k >= 1 {
				s2 += a * fcst[k-1]
			} else {
				s2 += a * residuals2[ne+k-1]
			}
		}
		for j, b := range p.Beta {
			if k := h - (j + 1); k >= 1 {
				s2 += b * fcst[k-1]
			} else {
				s2 += b * variance[nv+k-1]
			}
		}
		if !(s2 > 0) || math.IsInf(s2, 0) {
			return nil, fmt.Errorf("forecast variance %g at step %d, %w", s2, h, errkind.ErrNumericalInstability)
		}
		fcst[h-1] = s2
	}
	return &Result{Variance: fcst}, nil
}
