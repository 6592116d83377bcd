package stats

import "math"

// InformationCriteria are penalized likelihood scores where lower is better
type InformationCriteria struct {
	LogLikelihood float64 `json:"log_likelihood"`
	AIC           float64 `json:"aic"`
	BIC           float64 `json:"bic"`
}

// NewInformationCriteria computes AIC and BIC for a model with k parameters fit on n observations.
func NewInformationCriteria(logLikelihood float64, k, n int) InformationCriteria {
	return InformationCriteria{
		LogLikelihood: logLikelihood,
		AIC:           2*float64(k) - 2*logLikelihood,
		BIC:           float64(k)*math.Log(float64(n)) - 2*logLikelihood,
	}
}
