// Package errkind defines the error kinds shared by every volatility package. Errors
// returned from this module wrap exactly one of these so callers can branch with errors.Is.
package errkind

import "errors"

var (
	// ErrInput covers malformed series, invalid model specs and out of range query arguments.
	ErrInput = errors.New("invalid input")

	// ErrNumericalInstability is raised when a conditional variance is non-positive or not finite.
	ErrNumericalInstability = errors.New("numerical instability")

	// ErrConvergenceFailure is raised when the optimizer exhausts its iteration budget.
	ErrConvergenceFailure = errors.New("optimizer did not converge")

	// ErrNotFitted is raised by queries made against a model that has not been fit.
	ErrNotFitted = errors.New("model has not been fitted")

	// ErrUnsupportedDistribution is raised for error distributions with no implementation.
	ErrUnsupportedDistribution = errors.New("unsupported distribution")
)
