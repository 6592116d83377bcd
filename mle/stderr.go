package mle

import (
	"log/slog"
	"math"

	"github.com/volforecast/go-volatility/likelihood"
	"github.com/volforecast/go-volatility/params"
	"gonum.org/v1/gonum/diff/fd"
	"gonum.org/v1/gonum/mat"
)

const minStdErrScale = 1e-8

// StandardErrors estimates the standard error of every parameter from the inverse of the
// central difference Hessian of the negative log-likelihood at p. The Hessian is taken in
// coordinates scaled by each parameter's magnitude so one step size suits every term.
func StandardErrors(ev *likelihood.Evaluator, spec params.ModelSpec, p params.Params) map[string]float64 {
	labels := spec.Labels()
	se := make(map[string]float64, len(labels))
	for _, label := range labels {
		se[label] = math.NaN()
	}

	theta := p.Vector(spec)
	scale := make([]float64, len(theta))
	for i, v := range theta {
		scale[i] = math.Max(math.Abs(v), minStdErrScale)
	}
	if spec.HasMean() {
		scale[0] = math.Max(scale[0], math.Sqrt(ev.Backcast()))
	}

	nll := func(u []float64) float64 {
		v := make([]float64, len(u))
		for i := range u {
			v[i] = theta[i] + u[i]*scale[i]
		}
		cand, err := params.FromVector(spec, v)
		if err != nil {
			return math.Inf(1)
		}
		return ev.NLL(cand)
	}

	var hess mat.SymDense
	fd.Hessian(&hess, nll, make([]float64, len(theta)), &fd.Settings{Formula: fd.Central})

	n := hess.SymmetricDim()
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			if v := hess.At(i, j); math.IsNaN(v) || math.IsInf(v, 0) {
				slog.Debug("hessian is not finite, skipping standard errors", "spec", spec.String())
				return se
			}
		}
	}

	var chol mat.Cholesky
	if ok := chol.Factorize(&hess); !ok {
		slog.Debug("hessian is not positive definite, skipping standard errors", "spec", spec.String())
		return se
	}
	var cov mat.SymDense
	if err := chol.InverseTo(&cov); err != nil {
		slog.Debug("unable to invert hessian", "spec", spec.String(), "error", err.Error())
		return se
	}

	for i, label := range labels {
		if v := cov.At(i, i); v >= 0 {
			se[label] = scale[i] * math.Sqrt(v)
		}
	}
	return se
}
