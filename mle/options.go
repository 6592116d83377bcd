package mle

import (
	"fmt"

	"github.com/volforecast/go-volatility/errkind"
)

const (
	DefaultMaxIterations         = 1000
	DefaultTolerance             = 1e-8
	DefaultConvergenceIterations = 50
	DefaultSimplexSize           = 0.25
)

var (
	ErrNegativeIterations  = fmt.Errorf("negative iterations, %w", errkind.ErrInput)
	ErrNegativeTolerance   = fmt.Errorf("negative tolerance, %w", errkind.ErrInput)
	ErrNegativeSimplexSize = fmt.Errorf("negative simplex size, %w", errkind.ErrInput)
)

// Options configures the maximum likelihood search.
type Options struct {
	// MaxIterations is the hard cap on optimizer iterations. Reaching it without converging is
	// reported as a convergence failure.
	MaxIterations int `json:"max_iterations" yaml:"max_iterations"`

	// Tolerance is the relative decrease in negative log-likelihood below which an iteration
	// is considered to make no progress.
	Tolerance float64 `json:"tolerance" yaml:"tolerance"`

	// ConvergenceIterations is the number of consecutive iterations without progress needed
	// to declare convergence.
	ConvergenceIterations int `json:"convergence_iterations" yaml:"convergence_iterations"`

	// SimplexSize is the edge length of the initial Nelder-Mead simplex in the unconstrained space.
	SimplexSize float64 `json:"simplex_size" yaml:"simplex_size"`

	// ComputeStdErrors estimates parameter standard errors from the numerical Hessian at the optimum.
	ComputeStdErrors bool `json:"compute_std_errors" yaml:"compute_std_errors"`
}

// NewDefaultOptions returns the default optimizer settings
func NewDefaultOptions() *Options {
	return &Options{
		MaxIterations:         DefaultMaxIterations,
		Tolerance:             DefaultTolerance,
		ConvergenceIterations: DefaultConvergenceIterations,
		SimplexSize:           DefaultSimplexSize,
		ComputeStdErrors:      true,
	}
}

// Validate runs basic validation on the optimizer options. Zero values are replaced with
// defaults and a nil receiver returns the default options.
func (o *Options) Validate() (*Options, error) {
	if o == nil {
		return NewDefaultOptions(), nil
	}
	if o.MaxIterations < 0 || o.ConvergenceIterations < 0 {
		return nil, ErrNegativeIterations
	}
	if o.Tolerance < 0 {
		return nil, ErrNegativeTolerance
	}
	if o.SimplexSize < 0 {
		return nil, ErrNegativeSimplexSize
	}

	opt := *o
	if opt.MaxIterations == 0 {
		opt.MaxIterations = DefaultMaxIterations
	}
	if opt.Tolerance == 0 {
		opt.Tolerance = DefaultTolerance
	}
	if opt.ConvergenceIterations == 0 {
		opt.ConvergenceIterations = DefaultConvergenceIterations
	}
	if opt.SimplexSize == 0 {
		opt.SimplexSize = DefaultSimplexSize
	}
	return &opt, nil
}
