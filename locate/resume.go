package locate

import (
	"math"

	"locator-go/model"
)

// Resume condenses the events one scanner produced within [start, end] into a
// single reading. Outliers are discarded first; the remaining RSSI values are
// combined with recency weights. It returns nil when nothing survives.
func Resume(events []model.BeaconEvent, start, end int64, cutoffRate, attenuation float64) *model.BeaconEvent {
	if len(events) == 0 {
		return nil
	}
	rssis := make([]float64, len(events))
	for i, ev := range events {
		rssis[i] = float64(ev.Beacon.RSSI)
	}

	kept := KeepInliers(rssis, cutoffRate)
	var retained []model.BeaconEvent
	for i, ok := range kept {
		if ok {
			retained = append(retained, events[i])
		}
	}
	if len(retained) == 0 {
		return nil
	}

	times := make([]int64, len(retained))
	for i, ev := range retained {
		times[i] = ev.Time
	}
	var rssi float64
	for i, w := range RecencyWeights(times, start, end, attenuation) {
		rssi += w * float64(retained[i].Beacon.RSSI)
	}

	out := retained[0].WithRSSI(int(rssi))
	return &out
}

// KeepInliers marks the values within cutoffRate population standard deviations
// of the mean of the retained set. Rejection repeats until a pass rejects nothing.
func KeepInliers(values []float64, cutoffRate float64) []bool {
	kept := make([]bool, len(values))
	for i := range kept {
		kept[i] = true
	}

	for {
		var n int
		var sum float64
		for i, v := range values {
			if kept[i] {
				n++
				sum += v
			}
		}
		if n == 0 {
			return kept
		}
		mean := sum / float64(n)
		var sq float64
		for i, v := range values {
			if kept[i] {
				sq += (v - mean) * (v - mean)
			}
		}
		margin := math.Sqrt(sq/float64(n)) * cutoffRate
		lo, hi := mean-margin, mean+margin

		rejected := 0
		for i, v := range values {
			if kept[i] && (v < lo || v > hi) {
				kept[i] = false
				rejected++
			}
		}
		if rejected == 0 {
			return kept
		}
	}
}

// RecencyWeights gives each time the weight (1 - (end-t)/(end-start))^attenuation,
// normalised to sum to one. Degenerate windows or weight sums fall back to equal weights.
func RecencyWeights(times []int64, start, end int64, attenuation float64) []float64 {
	weights := make([]float64, len(times))
	if len(times) == 0 {
		return weights
	}

	width := float64(end - start)
	var sum float64
	if width > 0 {
		for i, t := range times {
			weights[i] = math.Pow(1-float64(end-t)/width, attenuation)
			sum += weights[i]
		}
	}
	if width <= 0 || sum <= 0 || math.IsNaN(sum) || math.IsInf(sum, 0) {
		for i := range weights {
			weights[i] = 1 / float64(len(weights))
		}
		return weights
	}
	for i := range weights {
		weights[i] /= sum
	}
	return weights
}
