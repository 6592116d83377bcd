// Package params holds the GARCH model specification and the fitted parameter set.
package params

import (
	"fmt"
	"strings"

	"github.com/volforecast/go-volatility/distribution"
	"github.com/volforecast/go-volatility/errkind"
)

// MeanType selects the conditional mean of the return series.
type MeanType string

const (
	MeanZero     MeanType = "Zero"
	MeanConstant MeanType = "Constant"
)

// ParseMeanType maps a user supplied name onto a MeanType. An empty name resolves to MeanZero.
func ParseMeanType(name string) (MeanType, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "zero":
		return MeanZero, nil
	case "constant", "const":
		return MeanConstant, nil
	}
	return "", fmt.Errorf("unknown mean type %q, %w", name, errkind.ErrInput)
}

// ModelSpec describes a GARCH(p,q) model. P is the number of lagged squared residuals
// (alpha terms) and Q is the number of lagged conditional variances (beta terms).
type ModelSpec struct {
	P            int               `json:"p" yaml:"p"`
	Q            int               `json:"q" yaml:"q"`
	Mean         MeanType          `json:"mean" yaml:"mean"`
	Distribution distribution.Kind `json:"distribution" yaml:"distribution"`
}

// NewDefaultModelSpec returns a GARCH(1,1) with zero mean and normal innovations
func NewDefaultModelSpec() ModelSpec {
	return ModelSpec{
		P:            1,
		Q:            1,
		Mean:         MeanZero,
		Distribution: distribution.Normal,
	}
}

// Validate checks the orders, mean and distribution names. Unset mean and distribution
// fields are treated as Zero and normal respectively.
func (s ModelSpec) Validate() error {
	if s.P < 0 {
		return fmt.Errorf("negative arch order p=%d, %w", s.P, errkind.ErrInput)
	}
	if s.Q < 0 {
		return fmt.Errorf("negative garch order q=%d, %w", s.Q, errkind.ErrInput)
	}
	if s.P == 0 && s.Q == 0 {
		return fmt.Errorf("p and q cannot both be zero, %w", errkind.ErrInput)
	}
	switch s.Mean {
	case "", MeanZero, MeanConstant:
	default:
		return fmt.Errorf("unknown mean type %q, %w", s.Mean, errkind.ErrInput)
	}
	if s.Distribution != "" && !s.Distribution.Valid() {
		return fmt.Errorf("unknown distribution %q, %w", s.Distribution, errkind.ErrInput)
	}
	return nil
}

// HasMean reports whether a constant mean is estimated
func (s ModelSpec) HasMean() bool {
	return s.Mean == MeanConstant
}

// MinObservations is the smallest series length the model can be fit on
func (s ModelSpec) MinObservations() int {
	return s.P + s.Q + 1
}

// NumParams is the number of estimated parameters
func (s ModelSpec) NumParams() int {
	n := 1 + s.P + s.Q
	if s.HasMean() {
		n++
	}
	return n
}

// Labels returns the parameter names in the order used by Params.Vector.
func (s ModelSpec) Labels() []string {
	labels := make([]string, 0, s.NumParams())
	if s.HasMean() {
		labels = append(labels, LabelMu)
	}
	labels = append(labels, LabelOmega)
	for i := 1; i <= s.P; i++ {
		labels = append(labels, AlphaLabel(i))
	}
	for j := 1; j <= s.Q; j++ {
		labels = append(labels, BetaLabel(j))
	}
	return labels
}

func (s ModelSpec) String() string {
	mean := s.Mean
	if mean == "" {
		mean = MeanZero
	}
	dist := s.Distribution
	if dist == "" {
		dist = distribution.Normal
	}
	return fmt.Sprintf("GARCH(%d,%d) mean=%s dist=%s", s.P, s.Q, mean, dist)
}
