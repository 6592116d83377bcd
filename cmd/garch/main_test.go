package main

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/volforecast/go-volatility/params"
	"github.com/volforecast/go-volatility/timedataset"
)

func writeSeries(t *testing.T, dir, name string, seed uint64, prices bool) string {
	t.Helper()
	p := params.Params{Omega: 0.01, Alpha: []float64{0.1}, Beta: []float64{0.85}}
	now := func() time.Time { return time.Date(2024, 7, 4, 0, 0, 0, 0, time.UTC) }
	td, err := timedataset.SimulateDataset(p, 750, rand.New(rand.NewPCG(seed, seed)), now)
	require.NoError(t, err)

	var sb strings.Builder
	sb.WriteString("date,value\n")
	price := 100.0
	for i := range td.Y {
		v := td.Y[i]
		if prices {
			price *= math.Exp(v / 100)
			v = price
		}
		fmt.Fprintf(&sb, "%s,%.10f\n", td.T[i].Format("2006-01-02"), v)
	}
	path := filepath.Join(dir, name+".csv")
	require.NoError(t, os.WriteFile(path, []byte(sb.String()), 0o644))
	return path
}

func TestRun(t *testing.T) {
	dir := t.TempDir()
	spy := writeSeries(t, dir, "spy", 1, false)
	qqq := writeSeries(t, dir, "qqq", 2, false)

	var stdout, stderr bytes.Buffer
	err := run(context.Background(), []string{"-horizon", "5", "-confidence", "0.95", spy, qqq}, &stdout, &stderr)
	require.NoError(t, err, stderr.String())

	var report Report
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &report))
	assert.Equal(t, params.NewDefaultModelSpec(), report.Spec)
	assert.Equal(t, 5, report.Horizon)
	require.Len(t, report.Series, 2)
	assert.Equal(t, "spy", report.Series[0].Name)
	assert.Equal(t, "qqq", report.Series[1].Name)

	for _, s := range report.Series {
		require.NotNil(t, s.Forecast)
		assert.Len(t, s.Forecast.Variance, 5)
		assert.Len(t, s.AnnualizedVolatility, 5)
		require.NotNil(t, s.ValueAtRisk)
		assert.Equal(t, 0.95, s.ValueAtRisk.ConfidenceLevel)
		assert.Greater(t, s.ValueAtRisk.Value, 0.0)
		assert.Contains(t, s.Model.GARCH.StdErrors, params.LabelOmega)
	}

	out := stderr.String()
	assert.Contains(t, out, "== spy ==")
	assert.Contains(t, out, "== qqq ==")
	assert.Contains(t, out, "Parameters:")
}

func TestRunWithConfig(t *testing.T) {
	dir := t.TempDir()
	path := writeSeries(t, dir, "prices", 3, true)

	cfgPath := filepath.Join(dir, "garch.yaml")
	cfg := fmt.Sprintf(`
log:
  level: warn
input:
  prices: true
  series:
    - name: index
      path: %s
model:
  mean: constant
forecast:
  horizon: 3
  var_horizon: 10
`, path)
	require.NoError(t, os.WriteFile(cfgPath, []byte(cfg), 0o644))

	var stdout, stderr bytes.Buffer
	require.NoError(t, run(context.Background(), []string{"-config", cfgPath}, &stdout, &stderr), stderr.String())

	var report Report
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &report))
	assert.Equal(t, params.MeanConstant, report.Spec.Mean)
	assert.Equal(t, 10, report.VaRHorizon)
	require.Len(t, report.Series, 1)
	assert.Equal(t, "index", report.Series[0].Name)
	assert.Len(t, report.Series[0].Forecast.Variance, 3)
	assert.Contains(t, report.Series[0].Model.GARCH.Params.Map(report.Spec), params.LabelMu)
}

func TestRunErrors(t *testing.T) {
	dir := t.TempDir()
	spy := writeSeries(t, dir, "spy", 4, false)

	testData := map[string]struct {
		args   []string
		errMsg string
	}{
		"no series": {
			errMsg: "no input series",
		},
		"missing file": {
			args:   []string{filepath.Join(dir, "missing.csv")},
			errMsg: "unable to open",
		},
		"duplicate names": {
			args:   []string{spy, spy},
			errMsg: "used more than once",
		},
		"invalid order": {
			args:   []string{"-p", "0", "-q", "0", spy},
			errMsg: "p and q cannot both be zero",
		},
		"missing config": {
			args:   []string{"-config", filepath.Join(dir, "missing.yaml"), spy},
			errMsg: "read config",
		},
		"unknown flag": {
			args:   []string{"-nope"},
			errMsg: "flag provided but not defined",
		},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			var stdout, stderr bytes.Buffer
			err := run(context.Background(), td.args, &stdout, &stderr)
			assert.ErrorContains(t, err, td.errMsg)
			assert.Empty(t, stdout.String())
		})
	}
}
