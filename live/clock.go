// Package live runs the location engine continuously: a replayer feeds recorded
// detections into the store in real time and a scheduler publishes fixes.
package live

import "time"

// Clock returns the current time in epoch milliseconds.
type Clock func() int64

func WallClock() int64 {
	return time.Now().UnixMilli()
}

// VirtualClock starts at origin and advances speed times faster than the wall clock.
func VirtualClock(origin int64, speed float64) Clock {
	wall := time.Now()
	return func() int64 {
		return origin + int64(float64(time.Since(wall).Milliseconds())*speed)
	}
}
