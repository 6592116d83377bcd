package stats

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

var (
	ErrResLenMismatch    = errors.New("predicted and actual have different lengths")
	ErrNonPositiveSample = errors.New("predicted variance must be positive")
	ErrConstantActual    = errors.New("actual values are constant, r-squared is undefined")
)

// Scores evaluates a variance series against realized squared returns
type Scores struct {
	MSE   float64 `json:"mean_squared_error"`
	RMSE  float64 `json:"root_mean_squared_error"`
	MAE   float64 `json:"mean_absolute_error"`
	QLIKE float64 `json:"qlike"`
	R2    float64 `json:"r_squared"`
}

// NewScores calculates the fit scores given the predicted variances and the realized squared residuals
func NewScores(predicted, actual []float64) (*Scores, error) {
	mse, err := MSE(predicted, actual)
	if err != nil {
		return nil, fmt.Errorf("unable to compute mean squared error, %w", err)
	}
	mae, err := MAE(predicted, actual)
	if err != nil {
		return nil, fmt.Errorf("unable to compute mean absolute error, %w", err)
	}
	qlike, err := QLIKE(predicted, actual)
	if err != nil {
		return nil, fmt.Errorf("unable to compute qlike loss, %w", err)
	}
	rs, err := RSquared(predicted, actual)
	if err != nil {
		return nil, fmt.Errorf("unable to compute r-squared, %w", err)
	}

	return &Scores{
		MSE:   mse,
		RMSE:  math.Sqrt(mse),
		MAE:   mae,
		QLIKE: qlike,
		R2:    rs,
	}, nil
}

// MSE computes the mean squared error. This is the same as sum((y-yhat)^2) / n.
// A score of 0 means a perfect match with no errors.
func MSE(predicted, actual []float64) (float64, error) {
	if len(predicted) != len(actual) {
		return 0, fmt.Errorf("expected %d, but got %d, %w", len(actual), len(predicted), ErrResLenMismatch)
	}

	mse := 0.0
	for i := 0; i < len(actual); i++ {
		if math.IsNaN(actual[i]) || math.IsNaN(predicted[i]) {
			continue
		}
		mse += math.Pow(actual[i]-predicted[i], 2.0)
	}
	mse /= float64(len(actual))
	return mse, nil
}

// MAE computes the mean absolute error
func MAE(predicted, actual []float64) (float64, error) {
	if len(predicted) != len(actual) {
		return 0, fmt.Errorf("expected %d, but got %d, %w", len(actual), len(predicted), ErrResLenMismatch)
	}

	mae := 0.0
	for i := 0; i < len(actual); i++ {
		if math.IsNaN(actual[i]) || math.IsNaN(predicted[i]) {
			continue
		}
		mae += math.Abs(actual[i] - predicted[i])
	}
	mae /= float64(len(actual))
	return mae, nil
}

// QLIKE is the quasi-likelihood loss mean(ln(sigma2) + eps2/sigma2). It is robust to the
// noise in squared returns as a proxy for the true variance.
func QLIKE(predicted, actual []float64) (float64, error) {
	if len(predicted) != len(actual) {
		return 0, fmt.Errorf("expected %d, but got %d, %w", len(actual), len(predicted), ErrResLenMismatch)
	}

	loss := 0.0
	for i := 0; i < len(actual); i++ {
		if math.IsNaN(actual[i]) || math.IsNaN(predicted[i]) {
			continue
		}
		if predicted[i] <= 0 {
			return 0, fmt.Errorf("got %g at %d, %w", predicted[i], i, ErrNonPositiveSample)
		}
		loss += math.Log(predicted[i]) + actual[i]/predicted[i]
	}
	loss /= float64(len(actual))
	return loss, nil
}

// RSquared computes the r squared value between the predicted and actual where 1.0 means perfect
// fit and 0 represents no relationship. It is undefined when actual has no variance.
func RSquared(predicted, actual []float64) (float64, error) {
	if len(predicted) != len(actual) {
		return 0, fmt.Errorf("expected %d, but got %d, %w", len(actual), len(predicted), ErrResLenMismatch)
	}

	predictCopy := make([]float64, 0, len(predicted))
	actualCopy := make([]float64, 0, len(actual))
	for i := 0; i < len(predicted); i++ {
		if math.IsNaN(actual[i]) || math.IsNaN(predicted[i]) {
			continue
		}
		predictCopy = append(predictCopy, predicted[i])
		actualCopy = append(actualCopy, actual[i])
	}
	if len(actualCopy) < 2 || floats.Max(actualCopy) == floats.Min(actualCopy) {
		return 0, fmt.Errorf("got %d samples, %w", len(actualCopy), ErrConstantActual)
	}
	r2 := stat.RSquaredFrom(predictCopy, actualCopy, nil)
	if math.IsNaN(r2) || math.IsInf(r2, 0) {
		return 0, fmt.Errorf("got %g, %w", r2, ErrConstantActual)
	}
	return r2, nil
}
