// Package mle estimates GARCH parameters by maximum likelihood using a Nelder-Mead search
// over a reparameterized space where positivity and stationarity always hold.
package mle

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/volforecast/go-volatility/errkind"
	"github.com/volforecast/go-volatility/likelihood"
	"github.com/volforecast/go-volatility/params"
	"gonum.org/v1/gonum/optimize"
	"gonum.org/v1/gonum/stat"
)

// Result is a converged maximum likelihood fit
type Result struct {
	Params          params.Params
	NLL             float64
	Iterations      int
	FuncEvaluations int
	Status          optimize.Status

	// StdErrors maps each parameter label to its standard error. Entries are NaN when the
	// Hessian at the optimum is not positive definite.
	StdErrors map[string]float64
}

// ConvergenceError is returned when the iteration cap is reached before the convergence
// test passes. It carries the best parameters found so the caller can decide whether to
// accept an approximate fit.
type ConvergenceError struct {
	Params          params.Params
	NLL             float64
	Iterations      int
	FuncEvaluations int
	Status          optimize.Status
}

func (e *ConvergenceError) Error() string {
	return fmt.Sprintf(
		"stopped with status %s after %d iterations and %d evaluations, best nll %g",
		e.Status, e.Iterations, e.FuncEvaluations, e.NLL,
	)
}

func (e *ConvergenceError) Unwrap() error {
	return errkind.ErrConvergenceFailure
}

// Fit searches for the parameters minimizing the negative log-likelihood of returns. It
// holds no state between calls so independent fits may run concurrently.
func Fit(returns []float64, spec params.ModelSpec, opt *Options) (*Result, error) {
	opt, err := opt.Validate()
	if err != nil {
		return nil, err
	}
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	if len(returns) < spec.MinObservations() {
		return nil, fmt.Errorf(
			"got %d observations, but %s needs at least %d, %w",
			len(returns), spec, spec.MinObservations(), errkind.ErrInput,
		)
	}
	for i, r := range returns {
		if math.IsNaN(r) || math.IsInf(r, 0) {
			return nil, fmt.Errorf("return %g at %d is not finite, %w", r, i, errkind.ErrInput)
		}
	}

	ev, err := likelihood.NewEvaluator(returns, spec)
	if err != nil {
		return nil, err
	}

	mean, variance := stat.MeanVariance(returns, nil)
	if !(variance > 0) {
		return nil, fmt.Errorf("return series has zero variance, %w", errkind.ErrInput)
	}

	tr := newTransform(spec, mean, math.Sqrt(variance))
	init := InitialGuess(spec, mean, variance)
	x0 := tr.unconstrained(init)

	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			return ev.NLL(tr.params(x))
		},
	}
	settings := &optimize.Settings{
		MajorIterations: opt.MaxIterations,
		Converger: &optimize.FunctionConverge{
			Relative:   opt.Tolerance,
			Iterations: opt.ConvergenceIterations,
		},
	}
	method := &optimize.NelderMead{SimplexSize: opt.SimplexSize}

	res, err := optimize.Minimize(problem, x0, settings, method)
	if res == nil {
		return nil, fmt.Errorf("unable to minimize negative log-likelihood, %v, %w", err, errkind.ErrConvergenceFailure)
	}

	best := tr.params(res.X)
	if math.IsInf(res.F, 1) || math.IsNaN(res.F) {
		return nil, fmt.Errorf("no feasible parameters found from %v, %w", init, errkind.ErrNumericalInstability)
	}

	if err != nil || !converged(res.Status) {
		convErr := &ConvergenceError{
			Params:          best,
			NLL:             res.F,
			Iterations:      res.MajorIterations,
			FuncEvaluations: res.FuncEvaluations,
			Status:          res.Status,
		}
		slog.Warn("garch likelihood search did not converge",
			"spec", spec.String(),
			"status", res.Status.String(),
			"iterations", res.MajorIterations,
			"nll", res.F,
		)
		return nil, convErr
	}

	out := &Result{
		Params:          best,
		NLL:             res.F,
		Iterations:      res.MajorIterations,
		FuncEvaluations: res.FuncEvaluations,
		Status:          res.Status,
	}
	if opt.ComputeStdErrors {
		out.StdErrors = StandardErrors(ev, spec, best)
	}
	slog.Debug("garch likelihood search converged",
		"spec", spec.String(),
		"iterations", out.Iterations,
		"evaluations", out.FuncEvaluations,
		"nll", out.NLL,
	)
	return out, nil
}

func converged(status optimize.Status) bool {
	switch status {
	case optimize.FunctionConvergence, optimize.MethodConverge, optimize.Success, optimize.GradientThreshold:
		return true
	}
	return false
}
