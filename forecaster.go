package volatility

import (
	"fmt"
	"math"
	"time"

	"github.com/volforecast/go-volatility/distribution"
	"github.com/volforecast/go-volatility/errkind"
	"github.com/volforecast/go-volatility/garch"
	"github.com/volforecast/go-volatility/params"
	"github.com/volforecast/go-volatility/risk"
	"github.com/volforecast/go-volatility/timedataset"
	"github.com/volforecast/go-volatility/util"
)

var ErrNoOptionsInModel = fmt.Errorf("no options set in model, %w", errkind.ErrInput)

// Forecaster fits a GARCH model on a return series and generates volatility forecasts with
// return bands
type Forecaster struct {
	opt  *Options
	spec params.ModelSpec

	model *garch.GARCH

	fitTrainingData *timedataset.TimeDataset
	fitResults      *Results
}

// New creates a new instance of a Forecaster for spec using the provided options. If no options
// are provided a default is used.
func New(spec params.ModelSpec, opt *Options) (*Forecaster, error) {
	opt, err := opt.Validate()
	if err != nil {
		return nil, err
	}
	model, err := garch.New(spec, opt.ModelOptions)
	if err != nil {
		return nil, fmt.Errorf("unable to initialize garch model, %w", err)
	}
	return &Forecaster{
		opt:   opt,
		spec:  model.Spec(),
		model: model,
	}, nil
}

// NewFromModel creates a new instance of Forecaster from a pre-existing model. This should be generated
// from a previous forecaster call to Model().
func NewFromModel(m Model) (*Forecaster, error) {
	if m.Options == nil {
		return nil, ErrNoOptionsInModel
	}
	opt, err := m.Options.Validate()
	if err != nil {
		return nil, err
	}
	model, err := garch.NewFromModel(m.GARCH)
	if err != nil {
		return nil, fmt.Errorf("unable to load garch model, %w", err)
	}
	return &Forecaster{
		opt:   opt,
		spec:  model.Spec(),
		model: model,
	}, nil
}

// Fit fits the model on a return series observed at times t
func (f *Forecaster) Fit(t []time.Time, y []float64) error {
	td, err := timedataset.NewUnivariateDataset(t, y)
	if err != nil {
		return fmt.Errorf("unable to create training dataset, %w", err)
	}
	return f.FitDataset(td)
}

// FitPrices converts a price series into log returns and fits the model on them
func (f *Forecaster) FitPrices(t []time.Time, prices []float64) error {
	td, err := timedataset.NewLogReturns(t, prices)
	if err != nil {
		return fmt.Errorf("unable to compute log returns, %w", err)
	}
	return f.FitDataset(td)
}

// FitDataset fits the model on a prepared return dataset
func (f *Forecaster) FitDataset(td *timedataset.TimeDataset) error {
	if err := f.model.Fit(td); err != nil {
		return err
	}
	variance, err := f.model.ConditionalVariance()
	if err != nil {
		return err
	}
	res, err := f.bands(td.T, variance)
	if err != nil {
		return fmt.Errorf("unable to compute in sample bands, %w", err)
	}
	f.fitTrainingData = td.Copy()
	f.fitResults = res
	return nil
}

// Predict forecasts the conditional variance horizon steps past the end of the training data
func (f *Forecaster) Predict(horizon int) (*Results, error) {
	fc, err := f.model.Predict(horizon)
	if err != nil {
		return nil, fmt.Errorf("unable to predict variance, %w", err)
	}
	return f.bands(fc.T, fc.Variance)
}

// CalculateVaR returns the one step Value-at-Risk at the given confidence level
func (f *Forecaster) CalculateVaR(confidence float64) (*risk.Result, error) {
	return f.model.CalculateVaR(confidence)
}

// CalculateVaRHorizon returns the Value-at-Risk of the aggregate return over horizon steps
func (f *Forecaster) CalculateVaRHorizon(horizon int, confidence float64) (*risk.Result, error) {
	return f.model.CalculateVaRHorizon(horizon, confidence)
}

func (f *Forecaster) bands(t []time.Time, variance []float64) (*Results, error) {
	dist, err := distribution.New(f.spec.Distribution)
	if err != nil {
		return nil, err
	}
	p, err := f.model.Params()
	if err != nil {
		return nil, err
	}
	z := dist.Quantile(0.5 + f.opt.BandConfidence/2)

	r := &Results{
		T:          t,
		Variance:   util.CopySlice(variance),
		Volatility: make([]float64, len(variance)),
		Upper:      make([]float64, len(variance)),
		Lower:      make([]float64, len(variance)),
	}
	for i, v := range variance {
		vol := math.Sqrt(v)
		r.Volatility[i] = vol
		r.Upper[i] = p.Mu + z*vol
		r.Lower[i] = p.Mu - z*vol
	}
	return r, nil
}

// GARCH returns the underlying fitted model
func (f *Forecaster) GARCH() *garch.GARCH {
	return f.model
}

// ParamsMap returns the fitted parameters keyed by label
func (f *Forecaster) ParamsMap() (map[string]float64, error) {
	return f.model.ParamsMap()
}

// Model generates a serializeable representation of the options and fitted GARCH model. This
// can be used to initialize a new Forecaster for immediate predictions skipping the training step.
func (f *Forecaster) Model() (Model, error) {
	m, err := f.model.Model()
	if err != nil {
		return Model{}, fmt.Errorf("unable to fetch garch model, %w", err)
	}
	return Model{
		Options: f.opt,
		GARCH:   m,
	}, nil
}

// TrainingData returns the training data used to fit the current forecaster model
func (f *Forecaster) TrainingData() *timedataset.TimeDataset {
	return f.fitTrainingData
}

// FitResults returns the in sample conditional variance and return bands of the last fit
func (f *Forecaster) FitResults() (*Results, error) {
	if f.fitResults == nil {
		if f.model.State() == garch.Fitted {
			return nil, garch.ErrNoFitHistory
		}
		return nil, errkind.ErrNotFitted
	}
	return f.fitResults, nil
}
