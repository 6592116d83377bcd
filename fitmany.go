package volatility

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/volforecast/go-volatility/garch"
	"github.com/volforecast/go-volatility/params"
	"github.com/volforecast/go-volatility/timedataset"
	"golang.org/x/sync/errgroup"
)

// FitMany fits one GARCH model per named series with at most Options.Parallelization fits
// running at once. The first failure cancels ctx for the series not yet started and is returned
// wrapped with the series name.
func FitMany(ctx context.Context, series map[string]*timedataset.TimeDataset, spec params.ModelSpec, opt *Options) (map[string]*garch.GARCH, error) {
	opt, err := opt.Validate()
	if err != nil {
		return nil, err
	}
	if err := spec.Validate(); err != nil {
		return nil, err
	}

	limit := opt.Parallelization
	if limit == 0 || limit > len(series) {
		limit = len(series)
	}

	models := make(map[string]*garch.GARCH, len(series))
	if len(series) == 0 {
		return models, nil
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for name, td := range series {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			m, err := garch.New(spec, opt.ModelOptions)
			if err != nil {
				return fmt.Errorf("unable to initialize model for series %q, %w", name, err)
			}
			if err := m.Fit(td); err != nil {
				return fmt.Errorf("unable to fit series %q, %w", name, err)
			}
			slog.Debug("fit series", "name", name, "observations", td.Len())

			mu.Lock()
			models[name] = m
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return models, nil
}
