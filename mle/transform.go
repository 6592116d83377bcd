package mle

import (
	"math"

	"github.com/volforecast/go-volatility/params"
)

const (
	initialAlpha     = 0.05
	initialBetaTotal = 0.85
	maxInitialTotal  = 0.99
	rescaledTotal    = 0.95

	// MaxPersistence bounds alpha+beta so the unconditional variance stays finite and
	// forecasts keep reverting toward it.
	MaxPersistence = 1 - 1e-6
)

// InitialGuess returns the starting point of the search: alpha_i = 0.05, beta_j = 0.85/q,
// omega = variance * (1 - persistence) and mu = mean. Orders high enough to push the
// persistence to 0.99 or above are rescaled to a total of 0.95.
func InitialGuess(spec params.ModelSpec, mean, variance float64) params.Params {
	p := params.Params{
		Alpha: make([]float64, spec.P),
		Beta:  make([]float64, spec.Q),
	}
	for i := range p.Alpha {
		p.Alpha[i] = initialAlpha
	}
	for j := range p.Beta {
		p.Beta[j] = initialBetaTotal / float64(spec.Q)
	}

	if total := p.Persistence(); total >= maxInitialTotal {
		scale := rescaledTotal / total
		for i := range p.Alpha {
			p.Alpha[i] *= scale
		}
		for j := range p.Beta {
			p.Beta[j] *= scale
		}
	}

	p.Omega = variance * (1 - p.Persistence())
	if spec.HasMean() {
		p.Mu = mean
	}
	return p
}

// transform maps the unconstrained search space onto valid parameters. omega is the
// exponential of its coordinate and the alpha and beta terms share a logistic map
// c_k = MaxPersistence * exp(x_k) / (1 + sum_j exp(x_j)), so every coefficient is positive
// and their sum stays below MaxPersistence for any point the optimizer visits.
type transform struct {
	spec      params.ModelSpec
	meanShift float64
	meanScale float64
}

func newTransform(spec params.ModelSpec, mean, std float64) transform {
	if !(std > 0) {
		std = 1
	}
	return transform{spec: spec, meanShift: mean, meanScale: std}
}

func (tr transform) dim() int {
	return tr.spec.NumParams()
}

func (tr transform) params(x []float64) params.Params {
	idx := 0
	var p params.Params
	if tr.spec.HasMean() {
		p.Mu = tr.meanShift + x[idx]*tr.meanScale
		idx++
	}
	p.Omega = math.Exp(x[idx])
	idx++

	coef := x[idx:]
	shift := 0.0
	for _, v := range coef {
		shift = math.Max(shift, v)
	}
	denom := math.Exp(-shift)
	weights := make([]float64, len(coef))
	for k, v := range coef {
		weights[k] = math.Exp(v - shift)
		denom += weights[k]
	}

	p.Alpha = make([]float64, tr.spec.P)
	p.Beta = make([]float64, tr.spec.Q)
	for i := range p.Alpha {
		p.Alpha[i] = MaxPersistence * weights[i] / denom
	}
	for j := range p.Beta {
		p.Beta[j] = MaxPersistence * weights[tr.spec.P+j] / denom
	}
	return p
}

// unconstrained is the inverse of params. p must have positive coefficients with a
// persistence below MaxPersistence.
func (tr transform) unconstrained(p params.Params) []float64 {
	x := make([]float64, 0, tr.dim())
	if tr.spec.HasMean() {
		x = append(x, (p.Mu-tr.meanShift)/tr.meanScale)
	}
	x = append(x, math.Log(p.Omega))

	slack := MaxPersistence - p.Persistence()
	for _, a := range p.Alpha {
		x = append(x, math.Log(a/slack))
	}
	for _, b := range p.Beta {
		x = append(x, math.Log(b/slack))
	}
	return x
}
