// Package config loads the YAML configuration of the garch command.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	volatility "github.com/volforecast/go-volatility"
	"github.com/volforecast/go-volatility/distribution"
	"github.com/volforecast/go-volatility/garch"
	"github.com/volforecast/go-volatility/mle"
	"github.com/volforecast/go-volatility/params"
	"gopkg.in/yaml.v3"
)

var validate = validator.New()

// Series names a CSV file of returns or prices
type Series struct {
	Name string `yaml:"name"`
	Path string `yaml:"path" validate:"required"`
}

type Config struct {
	Log struct {
		Level string `yaml:"level" default:"info" validate:"oneof=debug info warn error"`
	} `yaml:"log"`

	Input struct {
		Series     []Series `yaml:"series" validate:"dive"`
		Prices     bool     `yaml:"prices"`
		DateLayout string   `yaml:"date_layout" default:"2006-01-02" validate:"required"`
	} `yaml:"input"`

	Model struct {
		P            int    `yaml:"p" default:"1" validate:"gte=0,lte=20"`
		Q            int    `yaml:"q" default:"1" validate:"gte=0,lte=20"`
		Mean         string `yaml:"mean" default:"zero" validate:"oneof=zero constant"`
		Distribution string `yaml:"distribution" default:"normal" validate:"oneof=normal t skewt ged"`
	} `yaml:"model"`

	Optimizer struct {
		MaxIterations            int     `yaml:"max_iterations" default:"1000" validate:"gte=1"`
		Tolerance                float64 `yaml:"tolerance" default:"1e-8" validate:"gt=0"`
		ConvergenceIterations    int     `yaml:"convergence_iterations" default:"50" validate:"gte=1"`
		SimplexSize              float64 `yaml:"simplex_size" default:"0.25" validate:"gt=0"`
		SkipStdErrors            bool    `yaml:"skip_std_errors"`
		AcceptConvergenceFailure bool    `yaml:"accept_convergence_failure"`
	} `yaml:"optimizer"`

	Forecast struct {
		Horizon         int     `yaml:"horizon" default:"10" validate:"gte=1,lte=10000"`
		Confidence      float64 `yaml:"confidence" default:"0.99" validate:"gt=0,lt=1"`
		VaRHorizon      int     `yaml:"var_horizon" default:"1" validate:"gte=1"`
		PeriodsPerYear  float64 `yaml:"periods_per_year" default:"252" validate:"gt=0"`
		BandConfidence  float64 `yaml:"band_confidence" default:"0.95" validate:"gt=0,lt=1"`
		Parallelization int     `yaml:"parallelization" validate:"gte=0"`
	} `yaml:"forecast"`
}

// Default returns a configuration with every default applied
func Default() (*Config, error) {
	var c Config
	if err := defaults.Set(&c); err != nil {
		return nil, fmt.Errorf("set defaults: %w", err)
	}
	return &c, nil
}

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(b)
}

// Parse decodes YAML on top of the defaults and validates the result. Keys absent from b keep
// their default values, so an explicit zero such as q: 0 is preserved.
func Parse(b []byte) (*Config, error) {
	c, err := Default()
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(b, c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment variables.
func LoadWithEnv(path string) (*Config, error) {
	c, err := Load(path)
	if err != nil {
		return nil, err
	}
	if v := os.Getenv("GARCH_LOG_LEVEL"); v != "" {
		c.Log.Level = strings.ToLower(v)
		if err := c.Validate(); err != nil {
			return nil, fmt.Errorf("validate config: %w", err)
		}
	}
	return c, nil
}

// Validate checks the field constraints and the model specification they describe.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return validationError(err)
	}
	spec, err := c.ModelSpec()
	if err != nil {
		return err
	}
	return spec.Validate()
}

func validationError(err error) error {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return err
	}
	msgs := make([]string, 0, len(validationErrors))
	for _, e := range validationErrors {
		msgs = append(msgs, errorMessage(e))
	}
	return errors.New(strings.Join(msgs, "; "))
}

func errorMessage(fe validator.FieldError) string {
	field := fe.Namespace()
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, strings.ReplaceAll(fe.Param(), " ", ", "))
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be greater than or equal to %s", field, fe.Param())
	case "lt":
		return fmt.Sprintf("%s must be less than %s", field, fe.Param())
	case "lte":
		return fmt.Sprintf("%s must be less than or equal to %s", field, fe.Param())
	default:
		return fmt.Sprintf("%s failed validation: %s", field, fe.Tag())
	}
}

// ModelSpec converts the model section into a params.ModelSpec
func (c *Config) ModelSpec() (params.ModelSpec, error) {
	mean, err := params.ParseMeanType(c.Model.Mean)
	if err != nil {
		return params.ModelSpec{}, err
	}
	dist, err := distribution.ParseKind(c.Model.Distribution)
	if err != nil {
		return params.ModelSpec{}, err
	}
	return params.ModelSpec{
		P:            c.Model.P,
		Q:            c.Model.Q,
		Mean:         mean,
		Distribution: dist,
	}, nil
}

// Options converts the optimizer and forecast sections into forecaster options
func (c *Config) Options() *volatility.Options {
	modelOpt := garch.NewDefaultOptions()
	modelOpt.Optimizer = &mle.Options{
		MaxIterations:         c.Optimizer.MaxIterations,
		Tolerance:             c.Optimizer.Tolerance,
		ConvergenceIterations: c.Optimizer.ConvergenceIterations,
		SimplexSize:           c.Optimizer.SimplexSize,
		ComputeStdErrors:      !c.Optimizer.SkipStdErrors,
	}
	modelOpt.AcceptConvergenceFailure = c.Optimizer.AcceptConvergenceFailure

	return &volatility.Options{
		ModelOptions:    modelOpt,
		BandConfidence:  c.Forecast.BandConfidence,
		Parallelization: c.Forecast.Parallelization,
	}
}

// SlogLevel maps the configured log level onto a slog.Level
func (c *Config) SlogLevel() slog.Level {
	switch c.Log.Level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}
