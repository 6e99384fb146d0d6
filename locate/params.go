package locate

import (
	"fmt"
	"math"
)

// Params drives the location engine. Times are milliseconds.
type Params struct {
	RetentionTime   int64
	PublicationRate int64
	Delay           int64
	ScanningWindow  int64
	Attenuation     float64
	CutoffRate      float64
}

// ConfigurationError names a missing or invalid engine parameter.
type ConfigurationError struct {
	Param  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration: %s: %s", e.Param, e.Reason)
}

const (
	ParamRetentionTime   = "location.retention_time"
	ParamPublicationRate = "location.publication_rate"
	ParamDelay           = "location.delay"
	ParamScanningWindow  = "location.scanning_window"
	ParamAttenuation     = "location.attenuation"
	ParamCutoffRate      = "location.cutoff_rate"
)

func (p Params) Validate() error {
	switch {
	case p.RetentionTime < 0:
		return &ConfigurationError{ParamRetentionTime, "must not be negative"}
	case p.PublicationRate <= 0:
		return &ConfigurationError{ParamPublicationRate, "must be positive"}
	case p.Delay < 0:
		return &ConfigurationError{ParamDelay, "must not be negative"}
	case p.ScanningWindow <= 0:
		return &ConfigurationError{ParamScanningWindow, "must be positive"}
	case p.Attenuation < 0 || math.IsNaN(p.Attenuation) || math.IsInf(p.Attenuation, 0):
		return &ConfigurationError{ParamAttenuation, "must be a finite number >= 0"}
	case p.CutoffRate <= 0 || math.IsNaN(p.CutoffRate) || math.IsInf(p.CutoffRate, 0):
		return &ConfigurationError{ParamCutoffRate, "must be a finite number > 0"}
	}
	return nil
}
