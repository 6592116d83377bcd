package forecast

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/volforecast/go-volatility/errkind"
	"github.com/volforecast/go-volatility/params"
	"github.com/volforecast/go-volatility/timedataset"
)

func TestVariance(t *testing.T) {
	testData := map[string]struct {
		p          params.Params
		residuals2 []float64
		variance   []float64
		horizon    int
		expected   []float64
	}{
		"garch 1 1": {
			p:          params.Params{Omega: 0.1, Alpha: []float64{0.1}, Beta: []float64{0.8}},
			residuals2: []float64{0.5, 2.0},
			variance:   []float64{0.7, 1.5},
			horizon:    3,
			expected: func() []float64 {
				s1 := 0.1 + 0.1*2.0 + 0.8*1.5
				s2 := 0.1 + 0.9*s1
				s3 := 0.1 + 0.9*s2
				return []float64{s1, s2, s3}
			}(),
		},
		"garch 2 1": {
			p:          params.Params{Omega: 0.1, Alpha: []float64{0.1, 0.05}, Beta: []float64{0.7}},
			residuals2: []float64{0.5, 2.0},
			variance:   []float64{0.7, 1.5},
			horizon:    3,
			expected: func() []float64 {
				s1 := 0.1 + 0.1*2.0 + 0.05*0.5 + 0.7*1.5
				s2 := 0.1 + 0.1*s1 + 0.05*2.0 + 0.7*s1
				s3 := 0.1 + 0.1*s2 + 0.05*s1 + 0.7*s2
				return []float64{s1, s2, s3}
			}(),
		},
		"garch 1 2": {
			p:          params.Params{Omega: 0.1, Alpha: []float64{0.1}, Beta: []float64{0.5, 0.2}},
			residuals2: []float64{0.5, 2.0},
			variance:   []float64{0.7, 1.5},
			horizon:    3,
			expected: func() []float64 {
				s1 := 0.1 + 0.1*2.0 + 0.5*1.5 + 0.2*0.7
				s2 := 0.1 + 0.1*s1 + 0.5*s1 + 0.2*1.5
				s3 := 0.1 + 0.1*s2 + 0.5*s2 + 0.2*s1
				return []float64{s1, s2, s3}
			}(),
		},
		"arch 1": {
			p:          params.Params{Omega: 0.2, Alpha: []float64{0.5}},
			residuals2: []float64{4.0},
			horizon:    2,
			expected:   []float64{2.2, 0.2 + 0.5*2.2},
		},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			res, err := Variance(td.p, td.residuals2, td.variance, td.horizon)
			require.NoError(t, err)
			assert.Equal(t, td.horizon, res.Horizon())
			assert.InDeltaSlice(t, td.expected, res.Variance, 1e-12)
			assert.Nil(t, res.T)
		})
	}
}

func TestVarianceConvergence(t *testing.T) {
	testData := map[string]params.Params{
		"garch 1 1": {Omega: 0.01, Alpha: []float64{0.1}, Beta: []float64{0.85}},
		"garch 2 2": {Omega: 0.02, Alpha: []float64{0.05, 0.1}, Beta: []float64{0.4, 0.3}},
		"arch 3":    {Omega: 0.3, Alpha: []float64{0.2, 0.2, 0.1}},
	}

	residuals2 := []float64{0.3, 1.7, 0.01}
	variance := []float64{0.9, 1.1, 0.4}
	for name, p := range testData {
		t.Run(name, func(t *testing.T) {
			uncond := p.UnconditionalVariance()
			res, err := Variance(p, residuals2, variance, 2000)
			require.NoError(t, err)

			for _, v := range res.Variance {
				require.Greater(t, v, 0.0)
				require.False(t, math.IsInf(v, 0))
			}

			prevDev := math.Inf(1)
			for _, h := range []int{10, 50, 100, 500, 2000} {
				dev := math.Abs(res.Variance[h-1] - uncond)
				assert.LessOrEqual(t, dev, prevDev+1e-12, "h=%d", h)
				prevDev = dev
			}
			assert.InDelta(t, uncond, res.Variance[len(res.Variance)-1], 1e-9)
		})
	}
}

func TestVarianceInvalid(t *testing.T) {
	p := params.Params{Omega: 0.1, Alpha: []float64{0.1}, Beta: []float64{0.8}}
	testData := map[string]struct {
		p          params.Params
		residuals2 []float64
		variance   []float64
		horizon    int
		err        error
	}{
		"zero horizon": {
			p: p, residuals2: []float64{1}, variance: []float64{1}, horizon: 0,
			err: ErrInvalidHorizon,
		},
		"missing history": {
			p: p, residuals2: []float64{1}, horizon: 1,
			err: ErrInsufficientHistory,
		},
		"non-stationary": {
			p:          params.Params{Omega: 0.1, Alpha: []float64{0.3}, Beta: []float64{0.8}},
			residuals2: []float64{1}, variance: []float64{1}, horizon: 1,
			err: errkind.ErrInput,
		},
		"no orders": {
			p:       params.Params{Omega: 0.1},
			horizon: 1,
			err:     errkind.ErrInput,
		},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			_, err := Variance(td.p, td.residuals2, td.variance, td.horizon)
			assert.ErrorIs(t, err, td.err)
			assert.ErrorIs(t, err, errkind.ErrInput)
		})
	}
}

func TestResultHelpers(t *testing.T) {
	res := &Result{Variance: []float64{0.04, 0.09, 0.16}}
	assert.InDeltaSlice(t, []float64{0.2, 0.3, 0.4}, res.Volatility(), 1e-12)
	assert.InDeltaSlice(t, []float64{0.2 * 2, 0.3 * 2, 0.4 * 2}, res.Annualized(4), 1e-12)

	total, err := res.Cumulative(2)
	require.NoError(t, err)
	assert.InDelta(t, 0.13, total, 1e-12)

	_, err = res.Cumulative(4)
	assert.ErrorIs(t, err, errkind.ErrInput)

	var empty *Result
	assert.Equal(t, 0, empty.Horizon())
	assert.Nil(t, empty.Volatility())
}

func TestWithTimes(t *testing.T) {
	last := time.Date(2024, 12, 24, 0, 0, 0, 0, time.UTC)
	testData := map[string]struct {
		step     StepFunc
		expected []time.Time
	}{
		"trading days": {
			step: TradingDays(timedataset.NewTradingCalendar()),
			expected: []time.Time{
				time.Date(2024, 12, 26, 0, 0, 0, 0, time.UTC),
				time.Date(2024, 12, 27, 0, 0, 0, 0, time.UTC),
				time.Date(2024, 12, 30, 0, 0, 0, 0, time.UTC),
			},
		},
		"hourly": {
			step: Interval(time.Hour),
			expected: []time.Time{
				time.Date(2024, 12, 24, 1, 0, 0, 0, time.UTC),
				time.Date(2024, 12, 24, 2, 0, 0, 0, time.UTC),
				time.Date(2024, 12, 24, 3, 0, 0, 0, time.UTC),
			},
		},
		"no step": {},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			res := &Result{Variance: []float64{1, 2, 3}}
			res = res.WithTimes(last, td.step)
			assert.Equal(t, td.expected, res.T)
		})
	}
}
