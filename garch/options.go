package garch

import (
	"fmt"
	"io"

	"github.com/volforecast/go-volatility/errkind"
	"github.com/volforecast/go-volatility/mle"
	"github.com/volforecast/go-volatility/util"
)

const DefaultLjungBoxLags = 10

var (
	ErrInvalidPercentile    = fmt.Errorf("outlier percentiles must satisfy 0 <= lower < upper <= 1, %w", errkind.ErrInput)
	ErrNegativeTukey        = fmt.Errorf("negative tukey factor, %w", errkind.ErrInput)
	ErrNegativeLjungBoxLags = fmt.Errorf("negative ljung-box lags, %w", errkind.ErrInput)
)

// OutlierOptions flags standardized residuals outside a Tukey fence after fitting
type OutlierOptions struct {
	UpperPercentile float64 `json:"upper_percentile" yaml:"upper_percentile"`
	LowerPercentile float64 `json:"lower_percentile" yaml:"lower_percentile"`
	TukeyFactor     float64 `json:"tukey_factor" yaml:"tukey_factor"`
}

// NewDefaultOutlierOptions returns an outlier fence of 3 interquartile ranges
func NewDefaultOutlierOptions() *OutlierOptions {
	return &OutlierOptions{
		UpperPercentile: 0.75,
		LowerPercentile: 0.25,
		TukeyFactor:     3.0,
	}
}

// Options configures how a GARCH model is fit
type Options struct {
	Optimizer *mle.Options `json:"optimizer" yaml:"optimizer"`

	// AcceptConvergenceFailure stores the best parameters found when the optimizer reaches its
	// iteration cap instead of returning the convergence error.
	AcceptConvergenceFailure bool `json:"accept_convergence_failure" yaml:"accept_convergence_failure"`

	OutlierOptions *OutlierOptions `json:"outlier_options" yaml:"outlier_options"`
	LjungBoxLags   int             `json:"ljung_box_lags" yaml:"ljung_box_lags"`
}

// NewDefaultOptions returns the default model options
func NewDefaultOptions() *Options {
	return &Options{
		Optimizer:      mle.NewDefaultOptions(),
		OutlierOptions: NewDefaultOutlierOptions(),
		LjungBoxLags:   DefaultLjungBoxLags,
	}
}

// Validate fills in unset sections with defaults and checks the remaining values
func (o *Options) Validate() (*Options, error) {
	if o == nil {
		return NewDefaultOptions(), nil
	}
	opt := *o

	optimizer, err := opt.Optimizer.Validate()
	if err != nil {
		return nil, fmt.Errorf("invalid optimizer options, %w", err)
	}
	opt.Optimizer = optimizer

	if opt.OutlierOptions == nil {
		opt.OutlierOptions = NewDefaultOutlierOptions()
	}
	oo := opt.OutlierOptions
	if oo.LowerPercentile < 0 || oo.UpperPercentile > 1 || oo.LowerPercentile >= oo.UpperPercentile {
		return nil, fmt.Errorf("got lower %g and upper %g, %w", oo.LowerPercentile, oo.UpperPercentile, ErrInvalidPercentile)
	}
	if oo.TukeyFactor < 0 {
		return nil, ErrNegativeTukey
	}

	if opt.LjungBoxLags < 0 {
		return nil, fmt.Errorf("got %d, %w", opt.LjungBoxLags, ErrNegativeLjungBoxLags)
	}
	if opt.LjungBoxLags == 0 {
		opt.LjungBoxLags = DefaultLjungBoxLags
	}
	return &opt, nil
}

func (o *Options) TablePrint(w io.Writer, prefix, indent string, indentGrowth int) error {
	if o == nil {
		return nil
	}
	if _, err := fmt.Fprintf(w, "%s%sOptimizer:\n", prefix, util.IndentExpand(indent, indentGrowth)); err != nil {
		return err
	}
	if o.Optimizer != nil {
		if _, err := fmt.Fprintf(w, "%s%sMax Iterations: %d    Tolerance: %.1e    Simplex Size: %.3f\n",
			prefix, util.IndentExpand(indent, indentGrowth+1),
			o.Optimizer.MaxIterations, o.Optimizer.Tolerance, o.Optimizer.SimplexSize,
		); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintf(w, "%s%sAccept Convergence Failure: %t\n",
		prefix, util.IndentExpand(indent, indentGrowth+1), o.AcceptConvergenceFailure); err != nil {
		return err
	}
	return nil
}
