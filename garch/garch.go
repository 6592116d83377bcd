// Package garch fits GARCH(p,q) models and answers variance, forecast and risk queries on
// the fitted result.
package garch

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/rickar/cal/v2"
	"github.com/volforecast/go-volatility/distribution"
	"github.com/volforecast/go-volatility/errkind"
	"github.com/volforecast/go-volatility/forecast"
	"github.com/volforecast/go-volatility/likelihood"
	"github.com/volforecast/go-volatility/mle"
	"github.com/volforecast/go-volatility/params"
	"github.com/volforecast/go-volatility/risk"
	"github.com/volforecast/go-volatility/stats"
	"github.com/volforecast/go-volatility/timedataset"
	"github.com/volforecast/go-volatility/util"
)

// nearUnitRoot is the persistence above which a fit is reported as integrated
const nearUnitRoot = 0.9999

var (
	ErrNoSpecInModel = fmt.Errorf("no model spec in serialized model, %w", errkind.ErrInput)
	ErrNoFitHistory  = fmt.Errorf("fit history is not kept by models restored from a serialized form, %w", errkind.ErrNotFitted)
)

// fit is an immutable snapshot of a successful fit. It is replaced as a whole on re-fit
// and never modified after being published.
type fit struct {
	params    params.Params
	stdErrors map[string]float64
	nll       float64

	// full paths are nil for models restored from a serialized form
	returns   []float64
	variance  []float64
	residuals []float64

	// recursion state needed to forecast
	lastResiduals2 []float64
	lastVariance   []float64

	trainEndTime time.Time
	interval     time.Duration
	daily        bool

	diagnostics *Diagnostics
}

// GARCH is a GARCH(p,q) volatility model. It starts Unfit and moves to Fitted after the first
// successful Fit. Queries are safe to call concurrently, but Fit must not run concurrently
// with another Fit on the same instance.
type GARCH struct {
	spec     params.ModelSpec
	opt      *Options
	calendar *cal.BusinessCalendar

	mu  sync.RWMutex
	fit *fit
}

// New creates an Unfit model for the given spec. If no options are provided a default is used.
func New(spec params.ModelSpec, opt *Options) (*GARCH, error) {
	if err := spec.Validate(); err != nil {
		return nil, fmt.Errorf("invalid model spec, %w", err)
	}
	opt, err := opt.Validate()
	if err != nil {
		return nil, err
	}
	if spec.Mean == "" {
		spec.Mean = params.MeanZero
	}
	if spec.Distribution == "" {
		spec.Distribution = distribution.Normal
	}
	return &GARCH{
		spec:     spec,
		opt:      opt,
		calendar: timedataset.NewTradingCalendar(),
	}, nil
}

// Spec returns the model specification
func (g *GARCH) Spec() params.ModelSpec {
	return g.spec
}

// State reports whether the model has been fit
func (g *GARCH) State() State {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if g.fit == nil {
		return Unfit
	}
	return Fitted
}

// SetCalendar replaces the business calendar used to timestamp forecasts of daily series.
func (g *GARCH) SetCalendar(c *cal.BusinessCalendar) {
	if c == nil {
		return
	}
	g.mu.Lock()
	g.calendar = c
	g.mu.Unlock()
}

func (g *GARCH) snapshot() (*fit, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if g.fit == nil {
		return nil, errkind.ErrNotFitted
	}
	return g.fit, nil
}

// Fit estimates the model parameters on the return series. On success the previous fit, if
// any, is replaced atomically. On failure the model is left exactly as it was.
func (g *GARCH) Fit(td *timedataset.TimeDataset) error {
	if err := td.Validate(g.spec.MinObservations()); err != nil {
		return fmt.Errorf("invalid training data for %s, %w", g.spec, err)
	}
	if _, err := distribution.New(g.spec.Distribution); err != nil {
		return err
	}

	res, err := mle.Fit(td.Y, g.spec, g.opt.Optimizer)
	converged := true
	if err != nil {
		var convErr *mle.ConvergenceError
		if !g.opt.AcceptConvergenceFailure || !errors.As(err, &convErr) {
			return fmt.Errorf("unable to fit %s, %w", g.spec, err)
		}
		slog.Warn("accepting garch fit that did not converge",
			"spec", g.spec.String(),
			"iterations", convErr.Iterations,
			"nll", convErr.NLL,
		)
		res = &mle.Result{
			Params:          convErr.Params,
			NLL:             convErr.NLL,
			Iterations:      convErr.Iterations,
			FuncEvaluations: convErr.FuncEvaluations,
			Status:          convErr.Status,
		}
		converged = false
	}

	if err := res.Params.Validate(g.spec); err != nil {
		return fmt.Errorf("optimizer returned invalid parameters, %v, %w", err, errkind.ErrNumericalInstability)
	}
	eval, err := likelihood.Evaluate(td.Y, res.Params, g.spec)
	if err != nil {
		return fmt.Errorf("fitted parameters are unstable, %w", err)
	}
	if rho := res.Params.Persistence(); rho > nearUnitRoot {
		slog.Warn("fitted persistence is close to one, variance forecasts revert very slowly",
			"spec", g.spec.String(),
			"persistence", rho,
			"unconditional_variance", res.Params.UnconditionalVariance(),
		)
	}

	eps2 := make([]float64, len(eval.Residuals))
	for i, eps := range eval.Residuals {
		eps2[i] = eps * eps
	}

	ts := timedataset.TimeSlice(td.T)
	interval, err := ts.EstimateFreq()
	if err != nil {
		slog.Debug("unable to infer series interval", "error", err.Error())
	}

	f := &fit{
		params:         res.Params.Copy(),
		stdErrors:      res.StdErrors,
		nll:            eval.NLL,
		returns:        util.CopySlice(td.Y),
		variance:       eval.Variance,
		residuals:      eval.Residuals,
		lastResiduals2: util.Tail(eps2, g.spec.P),
		lastVariance:   util.Tail(eval.Variance, g.spec.Q),
		trainEndTime:   ts.EndTime(),
		interval:       interval,
		daily:          ts.IsDaily(),
	}
	f.diagnostics = newDiagnostics(g.spec, g.opt, eval, eps2, res, converged)

	g.mu.Lock()
	g.fit = f
	g.mu.Unlock()
	return nil
}

// Params returns a copy of the fitted parameters
func (g *GARCH) Params() (params.Params, error) {
	f, err := g.snapshot()
	if err != nil {
		return params.Params{}, err
	}
	return f.params.Copy(), nil
}

// ParamsMap returns the fitted parameters keyed by name, e.g. omega, alpha[1], beta[1]
func (g *GARCH) ParamsMap() (map[string]float64, error) {
	f, err := g.snapshot()
	if err != nil {
		return nil, err
	}
	return f.params.Map(g.spec), nil
}

// StdErrors returns the standard error of every parameter keyed by name. Entries are NaN
// when they could not be estimated.
func (g *GARCH) StdErrors() (map[string]float64, error) {
	f, err := g.snapshot()
	if err != nil {
		return nil, err
	}
	se := make(map[string]float64, g.spec.NumParams())
	for _, label := range g.spec.Labels() {
		v, ok := f.stdErrors[label]
		if !ok {
			v = math.NaN()
		}
		se[label] = v
	}
	return se, nil
}

// ConditionalVariance returns the fitted variance of every training observation
func (g *GARCH) ConditionalVariance() ([]float64, error) {
	f, err := g.snapshot()
	if err != nil {
		return nil, err
	}
	if f.variance == nil {
		return nil, ErrNoFitHistory
	}
	return util.CopySlice(f.variance), nil
}

// ConditionalVolatility is the square root of ConditionalVariance
func (g *GARCH) ConditionalVolatility() ([]float64, error) {
	variance, err := g.ConditionalVariance()
	if err != nil {
		return nil, err
	}
	return util.SliceMap(variance, math.Sqrt), nil
}

// Residuals returns the demeaned training returns
func (g *GARCH) Residuals() ([]float64, error) {
	f, err := g.snapshot()
	if err != nil {
		return nil, err
	}
	if f.residuals == nil {
		return nil, ErrNoFitHistory
	}
	return util.CopySlice(f.residuals), nil
}

// StandardizedResiduals divides every residual by its conditional volatility
func (g *GARCH) StandardizedResiduals() ([]float64, error) {
	f, err := g.snapshot()
	if err != nil {
		return nil, err
	}
	if f.residuals == nil {
		return nil, ErrNoFitHistory
	}
	return likelihood.StandardizedResiduals(&likelihood.Result{
		Residuals: f.residuals,
		Variance:  f.variance,
	}), nil
}

// LogLikelihood of the training series at the fitted parameters
func (g *GARCH) LogLikelihood() (float64, error) {
	f, err := g.snapshot()
	if err != nil {
		return 0, err
	}
	return -f.nll, nil
}

// RealizedVolatility is the rolling standard deviation of the training returns over window
// observations, scaled by sqrt(periods). It is the benchmark the conditional volatility is
// usually plotted against.
func (g *GARCH) RealizedVolatility(window int, periods float64) ([]float64, error) {
	f, err := g.snapshot()
	if err != nil {
		return nil, err
	}
	if f.returns == nil {
		return nil, ErrNoFitHistory
	}
	return stats.RollingVolatility(f.returns, window, periods)
}

// Diagnostics returns the fit statistics computed at fit time
func (g *GARCH) Diagnostics() (*Diagnostics, error) {
	f, err := g.snapshot()
	if err != nil {
		return nil, err
	}
	if f.diagnostics == nil {
		return nil, ErrNoFitHistory
	}
	d := *f.diagnostics
	return &d, nil
}

// Predict forecasts the conditional variance for the next horizon steps after the training
// series. Daily series are timestamped with trading days, others with the inferred interval.
func (g *GARCH) Predict(horizon int) (*forecast.Result, error) {
	f, err := g.snapshot()
	if err != nil {
		return nil, err
	}
	return g.predict(f, horizon)
}

func (g *GARCH) predict(f *fit, horizon int) (*forecast.Result, error) {
	res, err := forecast.Variance(f.params, f.lastResiduals2, f.lastVariance, horizon)
	if err != nil {
		return nil, err
	}

	var step forecast.StepFunc
	switch {
	case f.daily:
		g.mu.RLock()
		c := g.calendar
		g.mu.RUnlock()
		step = forecast.TradingDays(c)
	case f.interval > 0:
		step = forecast.Interval(f.interval)
	}
	return res.WithTimes(f.trainEndTime, step), nil
}

// CalculateVaR computes the one step ahead Value-at-Risk at the given confidence level. The
// fitted mean is added back for constant mean models.
func (g *GARCH) CalculateVaR(confidence float64) (*risk.Result, error) {
	return g.CalculateVaRHorizon(1, confidence)
}

// CalculateVaRHorizon computes the Value-at-Risk of the aggregate return over the next
// horizon steps from the cumulative variance forecast.
func (g *GARCH) CalculateVaRHorizon(horizon int, confidence float64) (*risk.Result, error) {
	f, err := g.snapshot()
	if err != nil {
		return nil, err
	}
	dist, err := distribution.New(g.spec.Distribution)
	if err != nil {
		return nil, err
	}
	fcst, err := g.predict(f, horizon)
	if err != nil {
		return nil, err
	}
	cumulative, err := fcst.Cumulative(horizon)
	if err != nil {
		return nil, err
	}

	mu := 0.0
	if g.spec.HasMean() {
		mu = f.params.Mu
	}
	return risk.Scale(dist, mu, cumulative, horizon, confidence)
}
