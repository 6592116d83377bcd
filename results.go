package volatility

import "time"

// Results holds a conditional variance path and the return band implied by it. Upper and Lower
// are mu +/- z * volatility where z is the band quantile of the innovation distribution.
type Results struct {
	T          []time.Time `json:"time"`
	Variance   []float64   `json:"variance"`
	Volatility []float64   `json:"volatility"`
	Upper      []float64   `json:"upper"`
	Lower      []float64   `json:"lower"`
}
