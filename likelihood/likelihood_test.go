package likelihood

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/volforecast/go-volatility/distribution"
	"github.com/volforecast/go-volatility/errkind"
	"github.com/volforecast/go-volatility/params"
)

func normalNLL(eps, variance []float64) float64 {
	var nll float64
	for i := range eps {
		nll += 0.5*math.Log(2*math.Pi) + 0.5*math.Log(variance[i]) + 0.5*eps[i]*eps[i]/variance[i]
	}
	return nll
}

func TestEvaluate(t *testing.T) {
	returns := []float64{0.1, -0.2, 0.3}
	backcast := (math.Pow(0.1-0.2/3, 2) + math.Pow(-0.2-0.2/3, 2) + math.Pow(0.3-0.2/3, 2)) / 2

	testData := map[string]struct {
		p           params.Params
		spec        params.ModelSpec
		expectedEps []float64
		expectedVar []float64
	}{
		"garch 1 1 zero mean": {
			p:           params.Params{Omega: 0.1, Alpha: []float64{0.2}, Beta: []float64{0.5}},
			spec:        params.ModelSpec{P: 1, Q: 1, Mean: params.MeanZero},
			expectedEps: []float64{0.1, -0.2, 0.3},
			expectedVar: func() []float64 {
				s0 := 0.1 + 0.2*backcast + 0.5*backcast
				s1 := 0.1 + 0.2*0.01 + 0.5*s0
				s2 := 0.1 + 0.2*0.04 + 0.5*s1
				return []float64{s0, s1, s2}
			}(),
		},
		"garch 1 1 constant mean": {
			p:           params.Params{Mu: 0.1, Omega: 0.1, Alpha: []float64{0.2}, Beta: []float64{0.5}},
			spec:        params.ModelSpec{P: 1, Q: 1, Mean: params.MeanConstant},
			expectedEps: []float64{0, -0.3, 0.2},
			expectedVar: func() []float64 {
				s0 := 0.1 + 0.2*backcast + 0.5*backcast
				s1 := 0.1 + 0.2*0 + 0.5*s0
				s2 := 0.1 + 0.2*0.09 + 0.5*s1
				return []float64{s0, s1, s2}
			}(),
		},
		"mu ignored for zero mean": {
			p:           params.Params{Mu: 5, Omega: 0.1, Alpha: []float64{0.2}, Beta: []float64{0.5}},
			spec:        params.ModelSpec{P: 1, Q: 1},
			expectedEps: []float64{0.1, -0.2, 0.3},
			expectedVar: func() []float64 {
				s0 := 0.1 + 0.7*backcast
				s1 := 0.1 + 0.2*0.01 + 0.5*s0
				s2 := 0.1 + 0.2*0.04 + 0.5*s1
				return []float64{s0, s1, s2}
			}(),
		},
		"arch 2": {
			p:           params.Params{Omega: 0.05, Alpha: []float64{0.3, 0.1}},
			spec:        params.ModelSpec{P: 2, Q: 0},
			expectedEps: []float64{0.1, -0.2, 0.3},
			expectedVar: []float64{
				0.05 + 0.3*backcast + 0.1*backcast,
				0.05 + 0.3*0.01 + 0.1*backcast,
				0.05 + 0.3*0.04 + 0.1*0.01,
			},
		},
		"garch 1 2": {
			p:           params.Params{Omega: 0.05, Alpha: []float64{0.1}, Beta: []float64{0.4, 0.3}},
			spec:        params.ModelSpec{P: 1, Q: 2},
			expectedEps: []float64{0.1, -0.2, 0.3},
			expectedVar: func() []float64 {
				s0 := 0.05 + 0.1*backcast + 0.4*backcast + 0.3*backcast
				s1 := 0.05 + 0.1*0.01 + 0.4*s0 + 0.3*backcast
				s2 := 0.05 + 0.1*0.04 + 0.4*s1 + 0.3*s0
				return []float64{s0, s1, s2}
			}(),
		},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			res, err := Evaluate(returns, td.p, td.spec)
			require.NoError(t, err)
			assert.InDeltaSlice(t, td.expectedEps, res.Residuals, 1e-12)
			assert.InDeltaSlice(t, td.expectedVar, res.Variance, 1e-12)
			assert.InDelta(t, normalNLL(td.expectedEps, td.expectedVar), res.NLL, 1e-10)
		})
	}
}

func TestEvaluateDeterministic(t *testing.T) {
	rng := rand.New(rand.NewPCG(11, 12))
	returns := make([]float64, 500)
	for i := range returns {
		returns[i] = 0.01 * rng.NormFloat64()
	}
	p := params.Params{Omega: 1e-6, Alpha: []float64{0.08}, Beta: []float64{0.9}}
	spec := params.NewDefaultModelSpec()

	first, err := Evaluate(returns, p, spec)
	require.NoError(t, err)
	second, err := Evaluate(returns, p, spec)
	require.NoError(t, err)

	assert.Equal(t, math.Float64bits(first.NLL), math.Float64bits(second.NLL))
	assert.Equal(t, first.Variance, second.Variance)

	ev, err := NewEvaluator(returns, spec)
	require.NoError(t, err)
	third, err := ev.Evaluate(p)
	require.NoError(t, err)
	assert.Equal(t, first, third)
	assert.Equal(t, first.NLL, ev.NLL(p))

	for _, v := range first.Variance {
		assert.Greater(t, v, 0.0)
		assert.False(t, math.IsInf(v, 0))
	}
}

func TestEvaluateInstability(t *testing.T) {
	testData := map[string]struct {
		returns []float64
		p       params.Params
		index   int
	}{
		"negative omega": {
			returns: []float64{0.1, -0.2, 0.3},
			p:       params.Params{Omega: -1, Alpha: []float64{0.1}, Beta: []float64{0.1}},
			index:   0,
		},
		"zero variance": {
			returns: []float64{0.1, -0.2, 0.3},
			p:       params.Params{Omega: 0, Alpha: []float64{0}, Beta: []float64{0}},
			index:   0,
		},
		"negative alpha after first step": {
			returns: []float64{1, 0, 0},
			p:       params.Params{Omega: 0.5, Alpha: []float64{-1}, Beta: []float64{0}},
			index:   1,
		},
		"overflow": {
			returns: []float64{0.1, -0.2, 0.3},
			p:       params.Params{Omega: math.MaxFloat64, Alpha: []float64{0}, Beta: []float64{2}},
			index:   1,
		},
	}

	spec := params.ModelSpec{P: 1, Q: 1}
	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			_, err := Evaluate(td.returns, td.p, spec)
			require.Error(t, err)
			assert.ErrorIs(t, err, errkind.ErrNumericalInstability)

			var instErr *InstabilityError
			require.ErrorAs(t, err, &instErr)
			assert.Equal(t, td.index, instErr.Index)

			ev, err := NewEvaluator(td.returns, spec)
			require.NoError(t, err)
			assert.True(t, math.IsInf(ev.NLL(td.p), 1))
		})
	}
}

func TestEvaluateInvalid(t *testing.T) {
	p := params.Params{Omega: 0.1, Alpha: []float64{0.1}, Beta: []float64{0.8}}
	testData := map[string]struct {
		returns []float64
		p       params.Params
		spec    params.ModelSpec
		err     error
	}{
		"no returns": {
			p:    p,
			spec: params.ModelSpec{P: 1, Q: 1},
			err:  errkind.ErrInput,
		},
		"order mismatch": {
			returns: []float64{0.1, 0.2},
			p:       p,
			spec:    params.ModelSpec{P: 2, Q: 1},
			err:     errkind.ErrInput,
		},
		"students t": {
			returns: []float64{0.1, 0.2},
			p:       p,
			spec:    params.ModelSpec{P: 1, Q: 1, Distribution: distribution.StudentsT},
			err:     errkind.ErrUnsupportedDistribution,
		},
		"unknown distribution": {
			returns: []float64{0.1, 0.2},
			p:       p,
			spec:    params.ModelSpec{P: 1, Q: 1, Distribution: "cauchy"},
			err:     errkind.ErrInput,
		},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			_, err := Evaluate(td.returns, td.p, td.spec)
			assert.ErrorIs(t, err, td.err)
		})
	}
}

func TestBackcast(t *testing.T) {
	assert.Equal(t, 0.0, Backcast(nil))
	assert.InDelta(t, 0.04, Backcast([]float64{0.2}), 1e-15)
	assert.InDelta(t, 0.5, Backcast([]float64{1, 2}), 1e-15)
}

func TestStandardizedResiduals(t *testing.T) {
	res := &Result{
		Residuals: []float64{0.2, -0.3},
		Variance:  []float64{0.04, 0.09},
	}
	assert.InDeltaSlice(t, []float64{1, -1}, StandardizedResiduals(res), 1e-12)
	assert.Nil(t, StandardizedResiduals(nil))
}
