package volatility

import (
	"fmt"
	"io"

	"github.com/volforecast/go-volatility/garch"
)

// Model is a serializable representation of a fitted Forecaster
type Model struct {
	Options *Options    `json:"options"`
	GARCH   garch.Model `json:"garch_model"`
}

// TablePrint writes a human readable summary of the model options, fit diagnostics and parameters
func (m Model) TablePrint(w io.Writer) error {
	if m.Options != nil {
		if _, err := fmt.Fprintf(w, "Options:\n  Band Confidence: %.3f    Parallelization: %d\n",
			m.Options.BandConfidence, m.Options.Parallelization); err != nil {
			return err
		}
	}
	return m.GARCH.TablePrint(w, "", "  ")
}
