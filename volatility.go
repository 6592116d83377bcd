// Package volatility estimates GARCH(p,q) conditional variance models on return series and uses
// them to forecast variance and compute Value-at-Risk.
package volatility

import (
	"fmt"

	"github.com/volforecast/go-volatility/errkind"
	"github.com/volforecast/go-volatility/forecast"
	"github.com/volforecast/go-volatility/garch"
	"github.com/volforecast/go-volatility/params"
	"github.com/volforecast/go-volatility/risk"
	"github.com/volforecast/go-volatility/timedataset"
)

var (
	ErrInput                   = errkind.ErrInput
	ErrNumericalInstability    = errkind.ErrNumericalInstability
	ErrConvergenceFailure      = errkind.ErrConvergenceFailure
	ErrNotFitted               = errkind.ErrNotFitted
	ErrUnsupportedDistribution = errkind.ErrUnsupportedDistribution
)

var ErrNilModel = fmt.Errorf("nil volatility model, %w", errkind.ErrInput)

// VolatilityModel is a conditional variance model that can be fit on returns and queried for
// variance forecasts and Value-at-Risk.
type VolatilityModel interface {
	Fit(td *timedataset.TimeDataset) error
	Predict(horizon int) (*forecast.Result, error)
	CalculateVaR(confidence float64) (*risk.Result, error)
	ParamsMap() (map[string]float64, error)
}

var _ VolatilityModel = (*garch.GARCH)(nil)

// Fit creates a GARCH model for spec and fits it on the returns in td.
func Fit(td *timedataset.TimeDataset, spec params.ModelSpec, opt *Options) (*garch.GARCH, error) {
	opt, err := opt.Validate()
	if err != nil {
		return nil, err
	}
	g, err := garch.New(spec, opt.ModelOptions)
	if err != nil {
		return nil, err
	}
	if err := g.Fit(td); err != nil {
		return nil, err
	}
	return g, nil
}

// Forecast returns the variance forecast of a fitted model over horizon steps
func Forecast(m VolatilityModel, horizon int) (*forecast.Result, error) {
	if m == nil {
		return nil, ErrNilModel
	}
	return m.Predict(horizon)
}

// CalculateVaR returns the one step Value-at-Risk of a fitted model
func CalculateVaR(m VolatilityModel, confidence float64) (*risk.Result, error) {
	if m == nil {
		return nil, ErrNilModel
	}
	return m.CalculateVaR(confidence)
}
