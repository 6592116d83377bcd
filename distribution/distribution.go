// Package distribution contains the innovation distributions a GARCH model can be fit with.
package distribution

import (
	"fmt"
	"math"
	"strings"

	"github.com/volforecast/go-volatility/errkind"
	"gonum.org/v1/gonum/stat/distuv"
)

// Kind names an error distribution. Only Normal is implemented, the remaining kinds are
// recognized so that requesting them fails loudly instead of falling back to Normal.
type Kind string

const (
	Normal      Kind = "normal"
	StudentsT   Kind = "t"
	SkewStudent Kind = "skewt"
	GED         Kind = "ged"
)

// Kinds lists every recognized distribution name.
var Kinds = []Kind{Normal, StudentsT, SkewStudent, GED}

// ParseKind maps a user supplied name onto a Kind. An empty name resolves to Normal.
func ParseKind(name string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "normal", "gaussian":
		return Normal, nil
	case "t", "studentst", "students_t":
		return StudentsT, nil
	case "skewt", "skewstudent", "skew_t":
		return SkewStudent, nil
	case "ged", "generalized_error":
		return GED, nil
	}
	return "", fmt.Errorf("unknown distribution %q, %w", name, errkind.ErrInput)
}

// Valid reports whether k is one of the recognized kinds.
func (k Kind) Valid() bool {
	for _, known := range Kinds {
		if k == known {
			return true
		}
	}
	return false
}

// Distribution evaluates the density of a residual given its conditional variance and
// the quantiles of the standardized innovation.
type Distribution interface {
	Kind() Kind

	// LogPDF returns the log density of residual eps with conditional variance sigma2.
	LogPDF(eps, sigma2 float64) float64

	// Quantile returns the p-quantile of the standardized (unit variance) innovation.
	Quantile(p float64) float64

	// TailMean returns E[z | z <= Quantile(p)] for the standardized innovation.
	TailMean(p float64) float64
}

// New returns the implementation of kind or an error wrapping errkind.ErrUnsupportedDistribution.
func New(kind Kind) (Distribution, error) {
	switch kind {
	case Normal, "":
		return NormalDist{}, nil
	}
	if !kind.Valid() {
		return nil, fmt.Errorf("unknown distribution %q, %w", kind, errkind.ErrInput)
	}
	return nil, fmt.Errorf("distribution %q, %w", kind, errkind.ErrUnsupportedDistribution)
}

var halfLog2Pi = 0.5 * math.Log(2*math.Pi)

// NormalDist is the standard normal innovation.
type NormalDist struct{}

func (NormalDist) Kind() Kind {
	return Normal
}

func (NormalDist) LogPDF(eps, sigma2 float64) float64 {
	return -halfLog2Pi - 0.5*math.Log(sigma2) - 0.5*eps*eps/sigma2
}

func (NormalDist) Quantile(p float64) float64 {
	return distuv.UnitNormal.Quantile(p)
}

func (NormalDist) TailMean(p float64) float64 {
	z := distuv.UnitNormal.Quantile(p)
	return -distuv.UnitNormal.Prob(z) / p
}
