package garch

import (
	"fmt"
	"io"
	"log/slog"
	"math"

	"github.com/volforecast/go-volatility/likelihood"
	"github.com/volforecast/go-volatility/mle"
	"github.com/volforecast/go-volatility/params"
	"github.com/volforecast/go-volatility/stats"
	"github.com/volforecast/go-volatility/util"
)

// Diagnostics summarizes the quality of a fit
type Diagnostics struct {
	NumObservations int                       `json:"num_observations"`
	Criteria        stats.InformationCriteria `json:"information_criteria"`
	Iterations      int                       `json:"iterations"`
	FuncEvaluations int                       `json:"func_evaluations"`
	Converged       bool                      `json:"converged"`
	Persistence     float64                   `json:"persistence"`

	// Scores compares the conditional variance against the squared residuals
	Scores *stats.Scores `json:"scores,omitempty"`

	// Residual diagnostics on the standardized residuals
	Moments    *stats.Moments    `json:"moments,omitempty"`
	JarqueBera *stats.TestResult `json:"jarque_bera,omitempty"`
	LjungBox   *stats.TestResult `json:"ljung_box_squared,omitempty"`
	ArchLM     *stats.TestResult `json:"arch_lm,omitempty"`
	Outliers   []int             `json:"outliers,omitempty"`
}

func newDiagnostics(spec params.ModelSpec, opt *Options, eval *likelihood.Result, eps2 []float64, res *mle.Result, converged bool) *Diagnostics {
	n := len(eval.Residuals)
	d := &Diagnostics{
		NumObservations: n,
		Criteria:        stats.NewInformationCriteria(-eval.NLL, spec.NumParams(), n),
		Iterations:      res.Iterations,
		FuncEvaluations: res.FuncEvaluations,
		Converged:       converged,
		Persistence:     res.Params.Persistence(),
	}

	var err error
	if d.Scores, err = stats.NewScores(eval.Variance, eps2); err != nil {
		slog.Debug("unable to score conditional variance", "error", err.Error())
	}

	z := likelihood.StandardizedResiduals(eval)
	if d.Moments, err = stats.NewMoments(z); err != nil {
		slog.Debug("unable to compute residual moments", "error", err.Error())
	}
	if d.JarqueBera, err = stats.JarqueBera(z); err != nil {
		slog.Debug("unable to compute jarque-bera test", "error", err.Error())
	}

	z2 := make([]float64, len(z))
	for i, v := range z {
		z2[i] = v * v
	}
	lags := min(opt.LjungBoxLags, n-1)
	if d.LjungBox, err = stats.LjungBox(z2, lags); err != nil {
		slog.Debug("unable to compute ljung-box test", "lags", lags, "error", err.Error())
	}
	if d.ArchLM, err = stats.ArchLM(z, lags); err != nil {
		slog.Debug("unable to compute arch-lm test", "lags", lags, "error", err.Error())
	}

	if oo := opt.OutlierOptions; oo != nil {
		d.Outliers = stats.DetectOutliers(z, oo.LowerPercentile, oo.UpperPercentile, oo.TukeyFactor)
		if len(d.Outliers) > 0 {
			slog.Debug("standardized residual outliers", "count", len(d.Outliers))
		}
	}
	d.dropNonFinite()
	return d
}

func finite(vals ...float64) bool {
	for _, v := range vals {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// dropNonFinite removes statistics that have no JSON representation, as happens on
// degenerate series such as constant magnitude returns.
func (d *Diagnostics) dropNonFinite() {
	if s := d.Scores; s != nil && !finite(s.MSE, s.RMSE, s.MAE, s.QLIKE, s.R2) {
		slog.Debug("dropping non-finite fit scores")
		d.Scores = nil
	}
	if m := d.Moments; m != nil && !finite(m.Mean, m.StdDev, m.Skewness, m.ExcessKurtosis) {
		slog.Debug("dropping non-finite residual moments")
		d.Moments = nil
	}
	for name, tr := range map[string]**stats.TestResult{
		"jarque-bera": &d.JarqueBera,
		"ljung-box":   &d.LjungBox,
		"arch-lm":     &d.ArchLM,
	} {
		if *tr != nil && !finite((*tr).Statistic, (*tr).PValue) {
			slog.Debug("dropping non-finite test result", "test", name)
			*tr = nil
		}
	}
}

func (d *Diagnostics) TablePrint(w io.Writer, prefix, indent string, indentGrowth int) error {
	if d == nil {
		return nil
	}
	if _, err := fmt.Fprintf(w, "%s%sDiagnostics:\n", prefix, util.IndentExpand(indent, indentGrowth)); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "%s%sObservations: %d    Iterations: %d    Converged: %t    Persistence: %.4f\n",
		prefix, util.IndentExpand(indent, indentGrowth+1),
		d.NumObservations, d.Iterations, d.Converged, d.Persistence,
	); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "%s%sLog-Likelihood: %.3f    AIC: %.3f    BIC: %.3f\n",
		prefix, util.IndentExpand(indent, indentGrowth+1),
		d.Criteria.LogLikelihood, d.Criteria.AIC, d.Criteria.BIC,
	); err != nil {
		return err
	}
	if d.Scores != nil {
		if _, err := fmt.Fprintf(w, "%s%sMSE: %.3e    MAE: %.3e    QLIKE: %.4f\n",
			prefix, util.IndentExpand(indent, indentGrowth+1),
			d.Scores.MSE, d.Scores.MAE, d.Scores.QLIKE,
		); err != nil {
			return err
		}
	}
	if d.Moments != nil {
		if _, err := fmt.Fprintf(w, "%s%sStd Resid Skew: %.3f    Excess Kurtosis: %.3f\n",
			prefix, util.IndentExpand(indent, indentGrowth+1),
			d.Moments.Skewness, d.Moments.ExcessKurtosis,
		); err != nil {
			return err
		}
	}
	if d.LjungBox != nil {
		if _, err := fmt.Fprintf(w, "%s%sLjung-Box (squared): %.3f    p-value: %.3f\n",
			prefix, util.IndentExpand(indent, indentGrowth+1),
			d.LjungBox.Statistic, d.LjungBox.PValue,
		); err != nil {
			return err
		}
	}
	if d.ArchLM != nil {
		if _, err := fmt.Fprintf(w, "%s%sARCH-LM: %.3f    p-value: %.3f\n",
			prefix, util.IndentExpand(indent, indentGrowth+1),
			d.ArchLM.Statistic, d.ArchLM.PValue,
		); err != nil {
			return err
		}
	}
	if len(d.Outliers) > 0 {
		if _, err := fmt.Fprintf(w, "%s%sOutliers: %d\n", prefix, util.IndentExpand(indent, indentGrowth+1), len(d.Outliers)); err != nil {
			return err
		}
	}
	return nil
}
