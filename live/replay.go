package live

import (
	"context"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"locator-go/model"
)

// Sink receives replayed detections.
type Sink interface {
	SaveEvents(scanner, beacon string, events []model.BeaconEvent)
}

// Replayer feeds a recording into a sink, pacing events by their timestamps.
type Replayer struct {
	sink   Sink
	beacon string
	speed  float64
	logger zerolog.Logger
}

// NewReplayer paces events at speed times real time; speed <= 0 replays as fast as possible.
func NewReplayer(sink Sink, beacon string, speed float64, logger zerolog.Logger) *Replayer {
	return &Replayer{
		sink:   sink,
		beacon: beacon,
		speed:  speed,
		logger: logger.With().Str("component", "replay").Str("beacon", beacon).Logger(),
	}
}

type timedEvent struct {
	scanner string
	event   model.BeaconEvent
}

// Replay stores every event of rec shifted by offset and returns how many were fed.
// It stops early with ctx.Err() when ctx is cancelled.
func (r *Replayer) Replay(ctx context.Context, rec *model.Recording, offset int64) (int, error) {
	var queue []timedEvent
	for _, scanner := range rec.Scanners() {
		for _, ev := range rec.ScannerEvents(scanner) {
			ev.Time += offset
			queue = append(queue, timedEvent{scanner: scanner, event: ev})
		}
	}
	sort.SliceStable(queue, func(i, j int) bool { return queue[i].event.Time < queue[j].event.Time })

	r.logger.Info().Str("topic", rec.Topic).Int("events", len(queue)).Float64("speed", r.speed).Msg("replay started")

	var firstTs int64
	startReal := time.Now()
	for i, te := range queue {
		if i == 0 {
			firstTs = te.event.Time
			startReal = time.Now()
		} else if r.speed > 0 {
			targetDelay := time.Duration(float64(te.event.Time-firstTs) / r.speed * float64(time.Millisecond))
			if err := sleepUntil(ctx, startReal.Add(targetDelay)); err != nil {
				r.logger.Info().Int("events", i).Msg("replay cancelled")
				return i, err
			}
		} else if err := ctx.Err(); err != nil {
			return i, err
		}
		r.sink.SaveEvents(te.scanner, r.beacon, []model.BeaconEvent{te.event})
	}

	r.logger.Info().Int("events", len(queue)).Msg("replay ended")
	return len(queue), nil
}

func sleepUntil(ctx context.Context, deadline time.Time) error {
	d := time.Until(deadline)
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
