// Command garch fits GARCH(p,q) models to return or price series read from CSV files and reports
// the fitted parameters, variance forecasts and Value-at-Risk.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-json"
	volatility "github.com/volforecast/go-volatility"
	"github.com/volforecast/go-volatility/forecast"
	"github.com/volforecast/go-volatility/internal/config"
	"github.com/volforecast/go-volatility/internal/returnsio"
	"github.com/volforecast/go-volatility/params"
	"github.com/volforecast/go-volatility/risk"
	"github.com/volforecast/go-volatility/timedataset"
)

var ErrNoSeries = errors.New("no input series, pass csv files as arguments or list them in the config")

// SeriesReport is the fit and forecast summary of one input series
type SeriesReport struct {
	Name                 string           `json:"name"`
	Path                 string           `json:"path"`
	Model                volatility.Model `json:"model"`
	Forecast             *forecast.Result `json:"forecast"`
	AnnualizedVolatility []float64        `json:"annualized_volatility"`
	ValueAtRisk          *risk.Result     `json:"value_at_risk"`
}

type Report struct {
	Spec       params.ModelSpec `json:"spec"`
	Horizon    int              `json:"horizon"`
	VaRHorizon int              `json:"var_horizon"`
	Series     []SeriesReport   `json:"series"`
}

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdout, os.Stderr); err != nil {
		slog.Error("garch failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("garch", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "", "yaml config file")
	prices := fs.Bool("prices", false, "input values are prices, fit on their log returns")
	p := fs.Int("p", 1, "arch order")
	q := fs.Int("q", 1, "garch order")
	mean := fs.String("mean", "zero", "zero | constant")
	horizon := fs.Int("horizon", 10, "forecast horizon in periods")
	confidence := fs.Float64("confidence", 0.99, "value at risk confidence level")
	logLevel := fs.String("log-level", "info", "debug | info | warn | error")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		return err
	}
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "prices":
			cfg.Input.Prices = *prices
		case "p":
			cfg.Model.P = *p
		case "q":
			cfg.Model.Q = *q
		case "mean":
			cfg.Model.Mean = strings.ToLower(*mean)
		case "horizon":
			cfg.Forecast.Horizon = *horizon
		case "confidence":
			cfg.Forecast.Confidence = *confidence
		case "log-level":
			cfg.Log.Level = strings.ToLower(*logLevel)
		}
	})
	for _, path := range fs.Args() {
		cfg.Input.Series = append(cfg.Input.Series, config.Series{Path: path})
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration, %w", err)
	}
	if len(cfg.Input.Series) == 0 {
		return ErrNoSeries
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: cfg.SlogLevel()})))

	report, err := fitReport(ctx, cfg)
	if err != nil {
		return err
	}
	for _, s := range report.Series {
		if _, err := fmt.Fprintf(stderr, "== %s ==\n", s.Name); err != nil {
			return err
		}
		if err := s.Model.TablePrint(stderr); err != nil {
			return err
		}
	}

	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Default()
	}
	return config.LoadWithEnv(path)
}

func seriesName(s config.Series) string {
	if s.Name != "" {
		return s.Name
	}
	return strings.TrimSuffix(filepath.Base(s.Path), filepath.Ext(s.Path))
}

func fitReport(ctx context.Context, cfg *config.Config) (*Report, error) {
	spec, err := cfg.ModelSpec()
	if err != nil {
		return nil, err
	}
	opt := cfg.Options()
	readOpt := &returnsio.Options{
		DateLayout: cfg.Input.DateLayout,
		Prices:     cfg.Input.Prices,
	}

	series := make(map[string]*timedataset.TimeDataset, len(cfg.Input.Series))
	for _, s := range cfg.Input.Series {
		name := seriesName(s)
		if _, exists := series[name]; exists {
			return nil, fmt.Errorf("series name %q is used more than once, %w", name, volatility.ErrInput)
		}
		td, err := returnsio.ReadFile(s.Path, readOpt)
		if err != nil {
			return nil, err
		}
		slog.Info("loaded series", "name", name, "observations", td.Len(), "prices", cfg.Input.Prices)
		series[name] = td
	}

	models, err := volatility.FitMany(ctx, series, spec, opt)
	if err != nil {
		return nil, err
	}

	report := &Report{
		Spec:       spec,
		Horizon:    cfg.Forecast.Horizon,
		VaRHorizon: cfg.Forecast.VaRHorizon,
		Series:     make([]SeriesReport, 0, len(cfg.Input.Series)),
	}
	for _, s := range cfg.Input.Series {
		name := seriesName(s)
		g := models[name]

		fc, err := volatility.Forecast(g, cfg.Forecast.Horizon)
		if err != nil {
			return nil, fmt.Errorf("unable to forecast %s, %w", name, err)
		}
		v, err := g.CalculateVaRHorizon(cfg.Forecast.VaRHorizon, cfg.Forecast.Confidence)
		if err != nil {
			return nil, fmt.Errorf("unable to compute value at risk for %s, %w", name, err)
		}
		gm, err := g.Model()
		if err != nil {
			return nil, err
		}
		report.Series = append(report.Series, SeriesReport{
			Name:                 name,
			Path:                 s.Path,
			Model:                volatility.Model{Options: opt, GARCH: gm},
			Forecast:             fc,
			AnnualizedVolatility: fc.Annualized(cfg.Forecast.PeriodsPerYear),
			ValueAtRisk:          v,
		})
	}
	return report, nil
}
