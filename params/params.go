package params

import (
	"fmt"
	"math"
	"strconv"

	"github.com/volforecast/go-volatility/errkind"
	"gonum.org/v1/gonum/floats"
)

const (
	LabelMu    = "mu"
	LabelOmega = "omega"
)

// AlphaLabel names the i-th (1-based) arch coefficient
func AlphaLabel(i int) string {
	return "alpha[" + strconv.Itoa(i) + "]"
}

// BetaLabel names the j-th (1-based) garch coefficient
func BetaLabel(j int) string {
	return "beta[" + strconv.Itoa(j) + "]"
}

// Params is a fitted GARCH parameter set. Alpha[i] multiplies the squared residual at lag
// i+1 and Beta[j] the conditional variance at lag j+1. Mu is zero for zero mean models.
type Params struct {
	Mu    float64   `json:"mu"`
	Omega float64   `json:"omega"`
	Alpha []float64 `json:"alpha"`
	Beta  []float64 `json:"beta"`
}

// Copy returns a deep copy so the receiver can be shared without aliasing its slices.
func (p Params) Copy() Params {
	alpha := make([]float64, len(p.Alpha))
	beta := make([]float64, len(p.Beta))
	copy(alpha, p.Alpha)
	copy(beta, p.Beta)
	return Params{
		Mu:    p.Mu,
		Omega: p.Omega,
		Alpha: alpha,
		Beta:  beta,
	}
}

// Persistence is sum(alpha) + sum(beta)
func (p Params) Persistence() float64 {
	return floats.Sum(p.Alpha) + floats.Sum(p.Beta)
}

// UnconditionalVariance is the long run variance omega / (1 - persistence). It is +Inf
// when the parameters are not stationary.
func (p Params) UnconditionalVariance() float64 {
	rho := p.Persistence()
	if rho >= 1 {
		return math.Inf(1)
	}
	return p.Omega / (1 - rho)
}

// Validate checks the parameter set against the spec orders, positivity and stationarity.
func (p Params) Validate(spec ModelSpec) error {
	if len(p.Alpha) != spec.P {
		return fmt.Errorf("expected %d alpha terms, but got %d, %w", spec.P, len(p.Alpha), errkind.ErrInput)
	}
	if len(p.Beta) != spec.Q {
		return fmt.Errorf("expected %d beta terms, but got %d, %w", spec.Q, len(p.Beta), errkind.ErrInput)
	}
	if !(p.Omega > 0) || math.IsInf(p.Omega, 0) {
		return fmt.Errorf("omega must be positive and finite, got %g, %w", p.Omega, errkind.ErrInput)
	}
	if math.IsNaN(p.Mu) || math.IsInf(p.Mu, 0) {
		return fmt.Errorf("mu must be finite, got %g, %w", p.Mu, errkind.ErrInput)
	}
	for i, a := range p.Alpha {
		if !(a >= 0) || math.IsInf(a, 0) {
			return fmt.Errorf("%s must be non-negative, got %g, %w", AlphaLabel(i+1), a, errkind.ErrInput)
		}
	}
	for j, b := range p.Beta {
		if !(b >= 0) || math.IsInf(b, 0) {
			return fmt.Errorf("%s must be non-negative, got %g, %w", BetaLabel(j+1), b, errkind.ErrInput)
		}
	}
	if rho := p.Persistence(); rho >= 1 {
		return fmt.Errorf("non-stationary parameters, persistence %g >= 1, %w", rho, errkind.ErrInput)
	}
	return nil
}

// Map returns the parameters keyed by name. mu is only included for constant mean models.
func (p Params) Map(spec ModelSpec) map[string]float64 {
	m := make(map[string]float64, spec.NumParams())
	if spec.HasMean() {
		m[LabelMu] = p.Mu
	}
	m[LabelOmega] = p.Omega
	for i, a := range p.Alpha {
		m[AlphaLabel(i+1)] = a
	}
	for j, b := range p.Beta {
		m[BetaLabel(j+1)] = b
	}
	return m
}

// Vector flattens the parameters in the order of spec.Labels()
func (p Params) Vector(spec ModelSpec) []float64 {
	v := make([]float64, 0, spec.NumParams())
	if spec.HasMean() {
		v = append(v, p.Mu)
	}
	v = append(v, p.Omega)
	v = append(v, p.Alpha...)
	v = append(v, p.Beta...)
	return v
}

// FromVector is the inverse of Vector
func FromVector(spec ModelSpec, v []float64) (Params, error) {
	if len(v) != spec.NumParams() {
		return Params{}, fmt.Errorf("expected %d values, but got %d, %w", spec.NumParams(), len(v), errkind.ErrInput)
	}
	var p Params
	idx := 0
	if spec.HasMean() {
		p.Mu = v[idx]
		idx++
	}
	p.Omega = v[idx]
	idx++
	p.Alpha = make([]float64, spec.P)
	copy(p.Alpha, v[idx:idx+spec.P])
	idx += spec.P
	p.Beta = make([]float64, spec.Q)
	copy(p.Beta, v[idx:idx+spec.Q])
	return p, nil
}
