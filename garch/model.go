package garch

import (
	"fmt"
	"io"
	"math"
	"text/tabwriter"
	"time"

	"github.com/volforecast/go-volatility/errkind"
	"github.com/volforecast/go-volatility/params"
	"github.com/volforecast/go-volatility/util"
)

// Model represents a serializable format of a fitted GARCH model storing the spec, options,
// parameters and the recursion state needed to keep forecasting without the training data.
type Model struct {
	Spec      *params.ModelSpec  `json:"spec"`
	Options   *Options           `json:"options"`
	Params    params.Params      `json:"params"`
	StdErrors map[string]float64 `json:"std_errors,omitempty"`

	TrainEndTime time.Time     `json:"train_end_time"`
	Interval     time.Duration `json:"interval"`
	Daily        bool          `json:"daily"`

	LastResiduals2 []float64 `json:"last_residuals2"`
	LastVariance   []float64 `json:"last_variance"`

	Diagnostics *Diagnostics `json:"diagnostics,omitempty"`
}

// Model returns the serializable form of the fitted model
func (g *GARCH) Model() (Model, error) {
	f, err := g.snapshot()
	if err != nil {
		return Model{}, err
	}

	spec := g.spec
	m := Model{
		Spec:           &spec,
		Options:        g.opt,
		Params:         f.params.Copy(),
		TrainEndTime:   f.trainEndTime,
		Interval:       f.interval,
		Daily:          f.daily,
		LastResiduals2: util.CopySlice(f.lastResiduals2),
		LastVariance:   util.CopySlice(f.lastVariance),
		Diagnostics:    f.diagnostics,
	}

	// NaN has no JSON representation, so inestimable standard errors are left out
	for label, se := range f.stdErrors {
		if math.IsNaN(se) || math.IsInf(se, 0) {
			continue
		}
		if m.StdErrors == nil {
			m.StdErrors = make(map[string]float64, len(f.stdErrors))
		}
		m.StdErrors[label] = se
	}
	return m, nil
}

// NewFromModel creates a Fitted model from a previously serialized Model. It can forecast and
// compute VaR immediately, but does not carry the training variance path.
func NewFromModel(model Model) (*GARCH, error) {
	if model.Spec == nil {
		return nil, ErrNoSpecInModel
	}
	g, err := New(*model.Spec, model.Options)
	if err != nil {
		return nil, err
	}
	if err := model.Params.Validate(g.spec); err != nil {
		return nil, fmt.Errorf("invalid model parameters, %w", err)
	}
	if len(model.LastResiduals2) != g.spec.P || len(model.LastVariance) != g.spec.Q {
		return nil, fmt.Errorf(
			"model stores %d squared residuals and %d variances for %s, %w",
			len(model.LastResiduals2), len(model.LastVariance), g.spec, errkind.ErrInput,
		)
	}

	var diagnostics *Diagnostics
	if model.Diagnostics != nil {
		d := *model.Diagnostics
		diagnostics = &d
	}
	nll := math.NaN()
	if diagnostics != nil {
		nll = -diagnostics.Criteria.LogLikelihood
	}

	g.fit = &fit{
		params:         model.Params.Copy(),
		stdErrors:      model.StdErrors,
		nll:            nll,
		lastResiduals2: util.CopySlice(model.LastResiduals2),
		lastVariance:   util.CopySlice(model.LastVariance),
		trainEndTime:   model.TrainEndTime,
		interval:       model.Interval,
		daily:          model.Daily,
		diagnostics:    diagnostics,
	}
	return g, nil
}

func (m Model) TablePrint(w io.Writer, prefix, indent string) error {
	if _, err := fmt.Fprintf(w, "%s%sGARCH:\n", prefix, util.IndentExpand(indent, 0)); err != nil {
		return err
	}
	if m.Spec != nil {
		if _, err := fmt.Fprintf(w, "%s%sSpec: %s\n", prefix, util.IndentExpand(indent, 1), m.Spec); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintf(w, "%s%sTraining End Time: %s\n", prefix, util.IndentExpand(indent, 1), m.TrainEndTime); err != nil {
		return err
	}
	if err := m.Options.TablePrint(w, prefix, indent, 1); err != nil {
		return err
	}
	if err := m.Diagnostics.TablePrint(w, prefix, indent, 0); err != nil {
		return err
	}
	return m.paramsTablePrint(w, prefix, indent, 0)
}

func (m Model) paramsTablePrint(w io.Writer, prefix, indent string, indentGrowth int) error {
	if _, err := fmt.Fprintf(w, "%s%sParameters:\n", prefix, util.IndentExpand(indent, indentGrowth)); err != nil {
		return err
	}
	if m.Spec == nil {
		return nil
	}

	values := m.Params.Map(*m.Spec)
	labels := m.Spec.Labels()

	tbl := tabwriter.NewWriter(w, 0, 0, 1, ' ', tabwriter.AlignRight)
	if _, err := fmt.Fprintf(tbl, "%s%sName\tValue\tStd Err\t\n", prefix, util.IndentExpand(indent, indentGrowth+1)); err != nil {
		return err
	}
	for _, label := range labels {
		se := "..."
		if v, ok := m.StdErrors[label]; ok {
			se = fmt.Sprintf("%.6f", v)
		}
		if _, err := fmt.Fprintf(tbl, "%s%s%s\t%.6f\t%s\t\n",
			prefix, util.IndentExpand(indent, indentGrowth+1),
			label, values[label], se); err != nil {
			return err
		}
	}
	return tbl.Flush()
}
