// Package likelihood evaluates the GARCH(p,q) conditional variance recursion and the
// negative log-likelihood of a return series for a candidate parameter set.
package likelihood

import (
	"fmt"
	"math"

	"github.com/volforecast/go-volatility/distribution"
	"github.com/volforecast/go-volatility/errkind"
	"github.com/volforecast/go-volatility/params"
	"gonum.org/v1/gonum/stat"
)

// InstabilityError is returned when the recursion produces a non-positive or non-finite
// conditional variance. Index is the offending observation.
type InstabilityError struct {
	Index    int
	Variance float64
	Params   params.Params
}

func (e *InstabilityError) Error() string {
	return fmt.Sprintf(
		"conditional variance %g at index %d with omega=%g alpha=%v beta=%v",
		e.Variance, e.Index, e.Params.Omega, e.Params.Alpha, e.Params.Beta,
	)
}

func (e *InstabilityError) Unwrap() error {
	return errkind.ErrNumericalInstability
}

// Result holds the output of a single likelihood evaluation. Residuals are the demeaned
// returns and Variance the conditional variance of each observation.
type Result struct {
	NLL       float64
	Variance  []float64
	Residuals []float64
}

// Backcast returns the value used for every pre-sample squared residual and variance, the
// sample variance of the full series.
func Backcast(returns []float64) float64 {
	if len(returns) < 2 {
		if len(returns) == 1 {
			return returns[0] * returns[0]
		}
		return 0
	}
	return stat.Variance(returns, nil)
}

// Evaluate runs the variance recursion over returns and sums the negative log density of
// every residual. It holds no state, so identical inputs give bit-identical results.
func Evaluate(returns []float64, p params.Params, spec params.ModelSpec) (*Result, error) {
	dist, err := distribution.New(spec.Distribution)
	if err != nil {
		return nil, err
	}
	if len(p.Alpha) != spec.P || len(p.Beta) != spec.Q {
		return nil, fmt.Errorf(
			"parameters have %d alpha and %d beta terms for %s, %w",
			len(p.Alpha), len(p.Beta), spec, errkind.ErrInput,
		)
	}
	if len(returns) == 0 {
		return nil, fmt.Errorf("no returns to evaluate, %w", errkind.ErrInput)
	}
	return evaluate(returns, p, spec.HasMean(), Backcast(returns), dist)
}

func evaluate(returns []float64, p params.Params, hasMean bool, backcast float64, dist distribution.Distribution) (*Result, error) {
	n := len(returns)
	mu := 0.0
	if hasMean {
		mu = p.Mu
	}

	res := &Result{
		Variance:  make([]float64, n),
		Residuals: make([]float64, n),
	}
	eps2 := make([]float64, n)

	var nll float64
	for t := 0; t < n; t++ {
		eps := returns[t] - mu
		res.Residuals[t] = eps

		s2 := p.Omega
		for i, a := range p.Alpha {
			lag := backcast
			if k := t - i - 1; k >= 0 {
				lag = eps2[k]
			}
			s2 += a * lag
		}
		for j, b := range p.Beta {
			lag := backcast
			if k := t - j - 1; k >= 0 {
				lag = res.Variance[k]
			}
			s2 += b * lag
		}
		if !(s2 > 0) || math.IsInf(s2, 0) {
			return nil, &InstabilityError{Index: t, Variance: s2, Params: p}
		}

		res.Variance[t] = s2
		eps2[t] = eps * eps

		ll := dist.LogPDF(eps, s2)
		if math.IsNaN(ll) || math.IsInf(ll, 0) {
			return nil, &InstabilityError{Index: t, Variance: s2, Params: p}
		}
		nll -= ll
	}
	res.NLL = nll
	return res, nil
}

// Evaluator caches the distribution and backcast of a series so repeated evaluations
// during optimization skip the setup work. It is not safe for concurrent use.
type Evaluator struct {
	returns  []float64
	spec     params.ModelSpec
	dist     distribution.Distribution
	backcast float64
}

// NewEvaluator validates the spec and distribution once for a series.
func NewEvaluator(returns []float64, spec params.ModelSpec) (*Evaluator, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	dist, err := distribution.New(spec.Distribution)
	if err != nil {
		return nil, err
	}
	if len(returns) == 0 {
		return nil, fmt.Errorf("no returns to evaluate, %w", errkind.ErrInput)
	}
	return &Evaluator{
		returns:  returns,
		spec:     spec,
		dist:     dist,
		backcast: Backcast(returns),
	}, nil
}

// Backcast is the pre-sample value used by the recursion
func (e *Evaluator) Backcast() float64 {
	return e.backcast
}

// Evaluate is equivalent to the package level Evaluate for the evaluator's series.
func (e *Evaluator) Evaluate(p params.Params) (*Result, error) {
	if len(p.Alpha) != e.spec.P || len(p.Beta) != e.spec.Q {
		return nil, fmt.Errorf(
			"parameters have %d alpha and %d beta terms for %s, %w",
			len(p.Alpha), len(p.Beta), e.spec, errkind.ErrInput,
		)
	}
	return evaluate(e.returns, p, e.spec.HasMean(), e.backcast, e.dist)
}

// NLL returns only the negative log-likelihood, or +Inf when p is infeasible.
func (e *Evaluator) NLL(p params.Params) float64 {
	res, err := e.Evaluate(p)
	if err != nil {
		return math.Inf(1)
	}
	return res.NLL
}

// StandardizedResiduals divides every residual by its conditional volatility.
func StandardizedResiduals(res *Result) []float64 {
	if res == nil {
		return nil
	}
	z := make([]float64, len(res.Residuals))
	for i, eps := range res.Residuals {
		z[i] = eps / math.Sqrt(res.Variance[i])
	}
	return z
}
