package stats

import (
	"errors"
	"fmt"

	"github.com/volforecast/go-volatility/errkind"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

var (
	ErrNoDesignMatrix     = fmt.Errorf("no design matrix, %w", errkind.ErrInput)
	ErrNoTargetMatrix     = fmt.Errorf("no target matrix, %w", errkind.ErrInput)
	ErrTargetLenMismatch  = fmt.Errorf("target length does not match design rows, %w", errkind.ErrInput)
	ErrFeatureLenMismatch = fmt.Errorf("number of features does not match number of model coefficients, %w", errkind.ErrInput)
	ErrSingularDesign     = errors.New("design matrix is singular")
)

type OLSOptions struct {
	FitIntercept bool
}

func NewDefaultOLSOptions() *OLSOptions {
	return &OLSOptions{
		FitIntercept: true,
	}
}

// OLSRegression computes ordinary least squares using QR factorization
type OLSRegression struct {
	opt       *OLSOptions
	coef      []float64
	intercept float64
}

func NewOLSRegression(opt *OLSOptions) *OLSRegression {
	if opt == nil {
		opt = NewDefaultOLSOptions()
	}
	return &OLSRegression{
		opt: opt,
	}
}

func (o *OLSRegression) withIntercept(x mat.Matrix) mat.Matrix {
	if !o.opt.FitIntercept {
		return x
	}
	m, _ := x.Dims()
	ones := make([]float64, m)
	floats.AddConst(1.0, ones)
	onesMx := mat.NewDense(1, m, ones)

	var xWithOnes mat.Dense
	xWithOnes.Stack(onesMx, x.T())
	return xWithOnes.T()
}

// Fit solves min ||x*c - y|| for a single column target y
func (o *OLSRegression) Fit(x, y mat.Matrix) error {
	if x == nil {
		return ErrNoDesignMatrix
	}
	if y == nil {
		return ErrNoTargetMatrix
	}
	m, _ := x.Dims()
	ym, _ := y.Dims()
	if ym != m {
		return fmt.Errorf("design matrix has %d rows and target has %d rows, %w", m, ym, ErrTargetLenMismatch)
	}

	x = o.withIntercept(x)
	_, n := x.Dims()
	if m < n {
		return fmt.Errorf("got %d rows for %d coefficients, %w", m, n, ErrInsufficientSamples)
	}

	qr := new(mat.QR)
	qr.Factorize(x)

	var c mat.VecDense
	if err := qr.SolveVecTo(&c, false, mat.NewVecDense(m, mat.Col(nil, 0, y))); err != nil {
		return fmt.Errorf("%v, %w", err, ErrSingularDesign)
	}

	coef := make([]float64, n)
	for i := range coef {
		coef[i] = c.AtVec(i)
	}
	if o.opt.FitIntercept {
		o.intercept = coef[0]
		o.coef = coef[1:]
	} else {
		o.intercept = 0
		o.coef = coef
	}
	return nil
}

func (o *OLSRegression) Predict(x mat.Matrix) ([]float64, error) {
	if x == nil {
		return nil, ErrNoDesignMatrix
	}
	_, n := x.Dims()
	if n != len(o.coef) {
		return nil, fmt.Errorf("got %d features in design matrix, but expected %d, %w", n, len(o.coef), ErrFeatureLenMismatch)
	}

	var res mat.VecDense
	res.MulVec(x, mat.NewVecDense(n, o.Coef()))
	out := make([]float64, res.Len())
	for i := range out {
		out[i] = res.AtVec(i) + o.intercept
	}
	return out, nil
}

// Score returns the coefficient of determination of the fit on x and y
func (o *OLSRegression) Score(x, y mat.Matrix) (float64, error) {
	if x == nil {
		return 0.0, ErrNoDesignMatrix
	}
	if y == nil {
		return 0.0, ErrNoTargetMatrix
	}
	m, _ := x.Dims()
	ym, _ := y.Dims()
	if m != ym {
		return 0.0, fmt.Errorf("design matrix has %d rows and target has %d rows, %w", m, ym, ErrTargetLenMismatch)
	}

	res, err := o.Predict(x)
	if err != nil {
		return 0.0, err
	}
	return stat.RSquaredFrom(res, mat.Col(nil, 0, y), nil), nil
}

func (o *OLSRegression) Intercept() float64 {
	return o.intercept
}

func (o *OLSRegression) Coef() []float64 {
	c := make([]float64, len(o.coef))
	copy(c, o.coef)
	return c
}
