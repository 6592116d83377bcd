package timedataset

import (
	"fmt"
	"math"
	"math/rand/v2"
	"time"

	"github.com/volforecast/go-volatility/errkind"
	"github.com/volforecast/go-volatility/params"
)

// DefaultSimulationBurn is the number of leading draws discarded so the simulated path
// no longer depends on its starting variance.
const DefaultSimulationBurn = 500

func GenerateT(n int, interval time.Duration, nowFunc func() time.Time) []time.Time {
	t := make([]time.Time, 0, n)
	ct := time.Unix(nowFunc().Unix()/60*60, 0).Add(-time.Duration(n) * interval).UTC()
	for i := 0; i < n; i++ {
		t = append(t, ct.Add(interval*time.Duration(i)))
	}
	return t
}

// Simulation is a synthetic GARCH path along with the conditional variance that generated it.
type Simulation struct {
	Returns  []float64
	Variance []float64
}

// SimulateGARCH draws n returns from a GARCH process with normal innovations. The
// recursion starts at the unconditional variance and the first burn draws are dropped.
func SimulateGARCH(p params.Params, n, burn int, rng *rand.Rand) (*Simulation, error) {
	spec := params.ModelSpec{P: len(p.Alpha), Q: len(p.Beta), Mean: params.MeanConstant}
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	if err := p.Validate(spec); err != nil {
		return nil, err
	}
	if n <= 0 {
		return nil, fmt.Errorf("simulation length must be positive, got %d, %w", n, errkind.ErrInput)
	}
	if burn < 0 {
		burn = 0
	}
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}

	total := n + burn
	uncond := p.UnconditionalVariance()
	eps2 := make([]float64, total)
	sigma2 := make([]float64, total)
	returns := make([]float64, total)

	for t := 0; t < total; t++ {
		s2 := p.Omega
		for i, a := range p.Alpha {
			lag := uncond
			if t-i-1 >= 0 {
				lag = eps2[t-i-1]
			}
			s2 += a * lag
		}
		for j, b := range p.Beta {
			lag := uncond
			if t-j-1 >= 0 {
				lag = sigma2[t-j-1]
			}
			s2 += b * lag
		}
		eps := math.Sqrt(s2) * rng.NormFloat64()
		sigma2[t] = s2
		eps2[t] = eps * eps
		returns[t] = p.Mu + eps
	}

	return &Simulation{
		Returns:  returns[burn:],
		Variance: sigma2[burn:],
	}, nil
}

// SimulateDataset wraps SimulateGARCH into a daily TimeDataset ending at nowFunc.
func SimulateDataset(p params.Params, n int, rng *rand.Rand, nowFunc func() time.Time) (*TimeDataset, error) {
	sim, err := SimulateGARCH(p, n, DefaultSimulationBurn, rng)
	if err != nil {
		return nil, err
	}
	return NewUnivariateDataset(GenerateT(n, 24*time.Hour, nowFunc), sim.Returns)
}
