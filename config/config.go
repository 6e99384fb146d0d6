// Package config loads the YAML configuration of the locator tools.
package config

import (
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"locator-go/locate"
	"locator-go/trilat"
)

// ConfigurationError names the parameter that is missing or invalid.
type ConfigurationError = locate.ConfigurationError

const (
	ParamDistanceAlgorithm     = "distance_algorithm"
	ParamLeastSquaresAlgorithm = "least_squares_algorithm"
	ParamPathLossExponent      = "path_loss_exponent"
)

// Config represents the structure of the configuration file.
type Config struct {
	Dataset               string  `yaml:"dataset"`                 // Directory holding installation.txt and x<N>y<N>.txt recordings
	DistanceAlgorithm     string  `yaml:"distance_algorithm"`      // Linear | Accuracy | PathLoss
	PathLossExponent      float64 `yaml:"path_loss_exponent"`      // Exponent of the PathLoss model, 2 when unset
	LeastSquaresAlgorithm string  `yaml:"least_squares_algorithm"` // Linear | NonLinear

	// Engine parameters have no defaults; a missing key is a configuration error.
	Location struct {
		RetentionTime   *int64   `yaml:"retention_time"`   // How long events are kept in live mode (ms)
		PublicationRate *int64   `yaml:"publication_rate"` // Poll period (ms)
		Delay           *int64   `yaml:"delay"`            // Processing lag subtracted from now (ms)
		ScanningWindow  *int64   `yaml:"scanning_window"`  // Width of history per fix (ms)
		Attenuation     *float64 `yaml:"attenuation"`      // Recency weighting exponent
		CutoffRate      *float64 `yaml:"cutoff_rate"`      // Outlier rejection in standard deviations
	} `yaml:"location"`

	Log struct {
		Level  string `yaml:"level"`  // trace, debug, info, warn, error
		Pretty bool   `yaml:"pretty"` // Human readable console output
	} `yaml:"log"`

	Live struct {
		HTTPPort int     `yaml:"http_port"` // Port of the HTTP/websocket server
		Speed    float64 `yaml:"speed"`     // Replay speed multiplier, <= 0 replays as fast as possible
		Beacon   string  `yaml:"beacon"`    // Beacon identifier replayed recordings are stored under
	} `yaml:"live"`
}

// LoadConfig reads and validates the YAML configuration at filename.
func LoadConfig(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, errors.Wrapf(err, "read config %s", filename)
	}
	return Parse(data)
}

// Parse decodes a YAML document and validates it.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.Wrap(err, "parse config")
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyDefaults fills the ambient settings only.
func (c *Config) applyDefaults() {
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Live.HTTPPort == 0 {
		c.Live.HTTPPort = 8080
	}
	if c.Live.Beacon == "" {
		c.Live.Beacon = "TEST"
	}
}

func (c *Config) Validate() error {
	if _, err := trilat.ParseDistanceModel(c.DistanceAlgorithm); err != nil {
		return &ConfigurationError{Param: ParamDistanceAlgorithm, Reason: err.Error()}
	}
	if c.PathLossExponent < 0 {
		return &ConfigurationError{Param: ParamPathLossExponent, Reason: "must not be negative"}
	}
	if _, err := trilat.ParseSolver(c.LeastSquaresAlgorithm); err != nil {
		return &ConfigurationError{Param: ParamLeastSquaresAlgorithm, Reason: err.Error()}
	}
	_, err := c.Params()
	return err
}

// Params converts the location section into validated engine parameters.
func (c *Config) Params() (locate.Params, error) {
	l := c.Location
	missing := func(param string) error {
		return &ConfigurationError{Param: param, Reason: "missing"}
	}
	switch {
	case l.RetentionTime == nil:
		return locate.Params{}, missing(locate.ParamRetentionTime)
	case l.PublicationRate == nil:
		return locate.Params{}, missing(locate.ParamPublicationRate)
	case l.Delay == nil:
		return locate.Params{}, missing(locate.ParamDelay)
	case l.ScanningWindow == nil:
		return locate.Params{}, missing(locate.ParamScanningWindow)
	case l.Attenuation == nil:
		return locate.Params{}, missing(locate.ParamAttenuation)
	case l.CutoffRate == nil:
		return locate.Params{}, missing(locate.ParamCutoffRate)
	}

	p := locate.Params{
		RetentionTime:   *l.RetentionTime,
		PublicationRate: *l.PublicationRate,
		Delay:           *l.Delay,
		ScanningWindow:  *l.ScanningWindow,
		Attenuation:     *l.Attenuation,
		CutoffRate:      *l.CutoffRate,
	}
	if err := p.Validate(); err != nil {
		return locate.Params{}, err
	}
	return p, nil
}

// DistanceModel returns the configured distance model.
func (c *Config) DistanceModel() (trilat.DistanceModel, error) {
	m, err := trilat.ParseDistanceModel(c.DistanceAlgorithm)
	if err != nil {
		return nil, &ConfigurationError{Param: ParamDistanceAlgorithm, Reason: err.Error()}
	}
	if pl, ok := m.(trilat.PathLoss); ok && c.PathLossExponent > 0 {
		pl.Exponent = c.PathLossExponent
		return pl, nil
	}
	return m, nil
}

func (c *Config) Solver() (trilat.Solver, error) {
	s, err := trilat.ParseSolver(c.LeastSquaresAlgorithm)
	if err != nil {
		return nil, &ConfigurationError{Param: ParamLeastSquaresAlgorithm, Reason: err.Error()}
	}
	return s, nil
}
