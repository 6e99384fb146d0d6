package trilat

import (
	"locator-go/model"
)

// Unit is a length unit expressed as its size in metres.
type Unit float64

const (
	Meters      Unit = 1
	Centimeters Unit = 1e-2
	Millimeters Unit = 1e-3
)

func (u Unit) String() string {
	switch u {
	case Meters:
		return "m"
	case Centimeters:
		return "cm"
	case Millimeters:
		return "mm"
	}
	return "unit"
}

// Convert rescales v from one unit to another.
func Convert(v float64, from, to Unit) float64 {
	return v * float64(from) / float64(to)
}

// EventDistance estimates the distance to the beacon of ev, expressed in unit.
func EventDistance(m DistanceModel, ev model.BeaconEvent, unit Unit) float64 {
	d := m.Distance(float64(ev.Beacon.RSSI), float64(ev.Beacon.TxPower))
	return Convert(d, Meters, unit)
}
