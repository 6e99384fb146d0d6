package trilat

import (
	"math"

	"github.com/pkg/errors"
)

// DistanceModel turns an RSSI reading and the beacon's calibrated power into metres.
type DistanceModel interface {
	Name() string
	Distance(rssi, txpower float64) float64
}

// Linear inverts the free-space path-loss equation.
type Linear struct{}

func (Linear) Name() string { return "Linear" }

func (Linear) Distance(rssi, txpower float64) float64 {
	ratioDB := txpower - rssi
	return math.Sqrt(math.Pow(10, ratioDB/10))
}

// Accuracy is the empirical curve used by common BLE SDKs. The constants are
// calibration values and must not be changed.
type Accuracy struct{}

func (Accuracy) Name() string { return "Accuracy" }

func (Accuracy) Distance(rssi, txpower float64) float64 {
	ratio := rssi / txpower
	if ratio < 1 {
		return math.Pow(ratio, 10)
	}
	return 0.89976*math.Pow(ratio, 7.7095) + 0.111
}

// DefaultPathLossExponent is the free-space exponent; PathLoss then matches Linear.
const DefaultPathLossExponent = 2.0

// PathLoss is the log-distance model d = 10^((txpower - rssi) / (10 n)) with an
// environment dependent exponent n, typically 2 to 4 indoors.
type PathLoss struct {
	Exponent float64
}

func (PathLoss) Name() string { return "PathLoss" }

func (m PathLoss) Distance(rssi, txpower float64) float64 {
	n := m.Exponent
	if n <= 0 {
		n = DefaultPathLossExponent
	}
	return math.Pow(10, (txpower-rssi)/(10*n))
}

// ParseDistanceModel maps a configured name to its model.
func ParseDistanceModel(name string) (DistanceModel, error) {
	switch name {
	case Linear{}.Name():
		return Linear{}, nil
	case Accuracy{}.Name():
		return Accuracy{}, nil
	case PathLoss{}.Name():
		return PathLoss{Exponent: DefaultPathLossExponent}, nil
	}
	return nil, errors.Errorf("unknown distance algorithm %q", name)
}
