package garch

import (
	"bytes"
	"math"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/volforecast/go-volatility/errkind"
	"github.com/volforecast/go-volatility/params"
	"github.com/volforecast/go-volatility/stats"
	"github.com/volforecast/go-volatility/timedataset"
)

func TestModelRoundTrip(t *testing.T) {
	spec := params.ModelSpec{P: 2, Q: 1, Mean: params.MeanConstant}
	g := fittedModel(t, spec, 31)

	m, err := g.Model()
	require.NoError(t, err)
	assert.Len(t, m.LastResiduals2, 2)
	assert.Len(t, m.LastVariance, 1)

	out, err := json.Marshal(m)
	require.NoError(t, err)

	var loaded Model
	require.NoError(t, json.Unmarshal(out, &loaded))

	restored, err := NewFromModel(loaded)
	require.NoError(t, err)
	assert.Equal(t, Fitted, restored.State())
	assert.Equal(t, g.Spec(), restored.Spec())

	expectedParams, err := g.ParamsMap()
	require.NoError(t, err)
	restoredParams, err := restored.ParamsMap()
	require.NoError(t, err)
	for label, v := range expectedParams {
		assert.InDelta(t, v, restoredParams[label], 1e-15, label)
	}

	expected, err := g.Predict(20)
	require.NoError(t, err)
	res, err := restored.Predict(20)
	require.NoError(t, err)
	assert.InDeltaSlice(t, expected.Variance, res.Variance, 1e-15)
	assert.Equal(t, len(expected.T), len(res.T))
	for i := range expected.T {
		assert.True(t, expected.T[i].Equal(res.T[i]))
	}

	expectedVaR, err := g.CalculateVaR(0.99)
	require.NoError(t, err)
	resVaR, err := restored.CalculateVaR(0.99)
	require.NoError(t, err)
	assert.InDelta(t, expectedVaR.Value, resVaR.Value, 1e-15)

	ll, err := g.LogLikelihood()
	require.NoError(t, err)
	restoredLL, err := restored.LogLikelihood()
	require.NoError(t, err)
	assert.InDelta(t, ll, restoredLL, 1e-9)

	_, err = restored.ConditionalVariance()
	assert.ErrorIs(t, err, ErrNoFitHistory)
	assert.ErrorIs(t, err, errkind.ErrNotFitted)
	_, err = restored.Residuals()
	assert.ErrorIs(t, err, ErrNoFitHistory)
	_, err = restored.RealizedVolatility(21, 252)
	assert.ErrorIs(t, err, ErrNoFitHistory)

	d, err := restored.Diagnostics()
	require.NoError(t, err)
	assert.Equal(t, 1000, d.NumObservations)
}

func TestModelRoundTripDegenerateSeries(t *testing.T) {
	opt := NewDefaultOptions()
	opt.AcceptConvergenceFailure = true

	testData := map[string]struct {
		spec params.ModelSpec
		y    []float64
	}{
		"garch(1,1) alternating": {
			spec: params.NewDefaultModelSpec(),
			y:    []float64{0.1, -0.1, 0.1, -0.1},
		},
		"garch(0,1) alternating": {
			spec: params.ModelSpec{P: 0, Q: 1},
			y:    []float64{0.1, -0.1, 0.1, -0.1},
		},
		"garch(1,1) odd length": {
			spec: params.NewDefaultModelSpec(),
			y:    []float64{0.1, -0.1, 0.1, -0.1, 0.1},
		},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			ds, err := timedataset.NewUnivariateDataset(timedataset.GenerateT(len(td.y), 24*time.Hour, nowFunc), td.y)
			require.NoError(t, err)

			g, err := New(td.spec, opt)
			require.NoError(t, err)
			require.NoError(t, g.Fit(ds))

			m, err := g.Model()
			require.NoError(t, err)
			require.NotNil(t, m.Diagnostics)
			assert.Nil(t, m.Diagnostics.Scores)

			out, err := json.Marshal(m)
			require.NoError(t, err)

			var loaded Model
			require.NoError(t, json.Unmarshal(out, &loaded))
			restored, err := NewFromModel(loaded)
			require.NoError(t, err)

			res, err := restored.Predict(5)
			require.NoError(t, err)
			assert.Len(t, res.Variance, 5)
		})
	}
}

func TestDiagnosticsDropNonFinite(t *testing.T) {
	d := &Diagnostics{
		Scores:     &stats.Scores{MSE: 1, RMSE: 1, MAE: 1, QLIKE: 1, R2: math.Inf(-1)},
		Moments:    &stats.Moments{Mean: 0, StdDev: 0, Skewness: math.NaN()},
		JarqueBera: &stats.TestResult{Statistic: math.NaN(), PValue: math.NaN()},
		LjungBox:   &stats.TestResult{Statistic: 1.5, PValue: 0.2},
		ArchLM:     &stats.TestResult{Statistic: math.Inf(1), PValue: 0},
	}
	d.dropNonFinite()

	assert.Nil(t, d.Scores)
	assert.Nil(t, d.Moments)
	assert.Nil(t, d.JarqueBera)
	assert.Nil(t, d.ArchLM)
	require.NotNil(t, d.LjungBox)
	assert.Equal(t, 1.5, d.LjungBox.Statistic)

	_, err := json.Marshal(d)
	assert.NoError(t, err)
}

func TestNewFromModelInvalid(t *testing.T) {
	spec := params.NewDefaultModelSpec()
	valid := params.Params{Omega: 0.01, Alpha: []float64{0.1}, Beta: []float64{0.85}}

	testData := map[string]struct {
		model Model
		err   error
	}{
		"no spec": {
			model: Model{Params: valid},
			err:   ErrNoSpecInModel,
		},
		"non-stationary params": {
			model: Model{
				Spec:           &spec,
				Params:         params.Params{Omega: 0.01, Alpha: []float64{0.5}, Beta: []float64{0.6}},
				LastResiduals2: []float64{0.1},
				LastVariance:   []float64{0.1},
			},
			err: errkind.ErrInput,
		},
		"missing recursion state": {
			model: Model{Spec: &spec, Params: valid},
			err:   errkind.ErrInput,
		},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			_, err := NewFromModel(td.model)
			assert.ErrorIs(t, err, td.err)
		})
	}
}

func TestModelTablePrint(t *testing.T) {
	g := fittedModel(t, params.NewDefaultModelSpec(), 41)
	m, err := g.Model()
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, m.TablePrint(&buf, "", "  "))
	out := buf.String()

	assert.Contains(t, out, "GARCH:")
	assert.Contains(t, out, "Spec: GARCH(1,1) mean=Zero dist=normal")
	assert.Contains(t, out, "Parameters:")
	assert.Contains(t, out, "omega")
	assert.Contains(t, out, "alpha[1]")
	assert.Contains(t, out, "beta[1]")
	assert.Contains(t, out, "Diagnostics:")
	assert.Contains(t, out, "AIC")
	assert.NotContains(t, out, "mu")
}
