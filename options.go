package volatility

import (
	"fmt"

	"github.com/volforecast/go-volatility/errkind"
	"github.com/volforecast/go-volatility/garch"
)

const DefaultBandConfidence = 0.95

var (
	ErrInvalidBandConfidence   = fmt.Errorf("band confidence must be in (0, 1), %w", errkind.ErrInput)
	ErrNegativeParallelization = fmt.Errorf("negative parallelization, %w", errkind.ErrInput)
)

// Options configures the Forecaster and FitMany
type Options struct {
	ModelOptions *garch.Options `json:"model_options" yaml:"model_options"`

	// BandConfidence is the two sided coverage of the Upper and Lower return bands in Results.
	BandConfidence float64 `json:"band_confidence" yaml:"band_confidence"`

	// Parallelization sets how many series FitMany fits at once. Zero fits every series at once.
	Parallelization int `json:"parallelization" yaml:"parallelization"`
}

func NewDefaultOptions() *Options {
	return &Options{
		ModelOptions:   garch.NewDefaultOptions(),
		BandConfidence: DefaultBandConfidence,
	}
}

// Validate returns a copy of the options with unset values replaced by their defaults
func (o *Options) Validate() (*Options, error) {
	if o == nil {
		return NewDefaultOptions(), nil
	}
	opt := *o

	modelOpt, err := opt.ModelOptions.Validate()
	if err != nil {
		return nil, fmt.Errorf("invalid model options, %w", err)
	}
	opt.ModelOptions = modelOpt

	if opt.BandConfidence == 0 {
		opt.BandConfidence = DefaultBandConfidence
	}
	if opt.BandConfidence < 0 || opt.BandConfidence >= 1 {
		return nil, fmt.Errorf("got %g, %w", opt.BandConfidence, ErrInvalidBandConfidence)
	}
	if opt.Parallelization < 0 {
		return nil, ErrNegativeParallelization
	}
	return &opt, nil
}
