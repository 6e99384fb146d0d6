// Package locate computes periodic position fixes from the events held in the store.
package locate

import (
	"sort"
	"sync"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"locator-go/model"
	"locator-go/store"
	"locator-go/trilat"
)

// WindowReader is the part of the store the engine polls.
type WindowReader interface {
	Window(start, end int64) store.Window
}

type Positioner interface {
	Position(installationID string, scannerAddrs []string, events []model.BeaconEvent) (*model.Point, error)
}

// Fix is one position estimate of a beacon at a publication instant.
type Fix struct {
	Time         int64       `json:"time"`
	Installation string      `json:"installation"`
	Beacon       string      `json:"beacon"`
	Point        model.Point `json:"point"`
}

// Stats counts what happened to the (installation, beacon) pairs seen by the engine.
type Stats struct {
	Iterations   int `json:"iterations"`
	Fixes        int `json:"fixes"`
	Insufficient int `json:"insufficient"`
	Degenerate   int `json:"degenerate"`
	Failed       int `json:"failed"`
}

type Engine struct {
	windows     WindowReader
	positioning Positioner
	params      Params
	logger      zerolog.Logger

	mu    sync.Mutex
	stats Stats
}

func NewEngine(windows WindowReader, positioning Positioner, params Params, logger zerolog.Logger) (*Engine, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	return &Engine{
		windows:     windows,
		positioning: positioning,
		params:      params,
		logger:      logger.With().Str("component", "locate").Logger(),
	}, nil
}

func (e *Engine) Params() Params { return e.params }

// Localize polls from current until finish and returns one point per publication
// instant that produced a fix. When several beacons are located in the same window
// the last one in (installation, beacon) order is reported.
func (e *Engine) Localize(current, finish int64) []model.Point {
	var out []model.Point
	e.run(current, finish, func(fixes []Fix) {
		if len(fixes) > 0 {
			out = append(out, fixes[len(fixes)-1].Point)
		}
	})
	if out == nil {
		out = []model.Point{}
	}
	return out
}

// Track is Localize keeping every beacon's fix.
func (e *Engine) Track(current, finish int64) []Fix {
	out := []Fix{}
	e.run(current, finish, func(fixes []Fix) {
		out = append(out, fixes...)
	})
	return out
}

func (e *Engine) run(current, finish int64, emit func([]Fix)) {
	e.mu.Lock()
	e.stats = Stats{}
	e.mu.Unlock()

	for ; current < finish; current += e.params.PublicationRate {
		emit(e.FixAt(current))
	}
}

// FixAt computes the fixes for the publication instant now, in (installation, beacon) order.
func (e *Engine) FixAt(now int64) []Fix {
	end := now - e.params.Delay
	start := end - e.params.ScanningWindow
	window := e.windows.Window(start, end)

	var stats Stats
	stats.Iterations = 1
	var fixes []Fix
	for _, installation := range sortedKeys(window) {
		detections := window[installation]
		for _, beacon := range sortedKeys(detections) {
			log := e.logger.With().
				Str("installation", installation).
				Str("beacon", beacon).
				Int64("window_start", start).
				Int64("window_end", end).
				Logger()

			p, err := e.position(installation, detections[beacon], start, end)
			switch {
			case errors.Is(err, trilat.ErrDegenerateGeometry):
				stats.Degenerate++
				log.Warn().Err(err).Msg("degenerate geometry, fix skipped")
			case err != nil:
				stats.Failed++
				log.Error().Err(err).Msg("positioning failed")
			case p == nil:
				stats.Insufficient++
				log.Debug().Msg("not enough scanners")
			default:
				stats.Fixes++
				log.Debug().Stringer("point", p).Msg("fix")
				fixes = append(fixes, Fix{Time: now, Installation: installation, Beacon: beacon, Point: *p})
			}
		}
	}

	e.mu.Lock()
	e.stats.Iterations += stats.Iterations
	e.stats.Fixes += stats.Fixes
	e.stats.Insufficient += stats.Insufficient
	e.stats.Degenerate += stats.Degenerate
	e.stats.Failed += stats.Failed
	e.mu.Unlock()
	return fixes
}

func (e *Engine) position(installation string, events store.Events, start, end int64) (*model.Point, error) {
	var addrs []string
	var resumed []model.BeaconEvent
	for _, scanner := range sortedKeys(events) {
		r := Resume(events[scanner], start, end, e.params.CutoffRate, e.params.Attenuation)
		if r == nil {
			continue
		}
		addrs = append(addrs, scanner)
		resumed = append(resumed, *r)
	}
	return e.positioning.Position(installation, addrs, resumed)
}

// Stats returns the counters accumulated since the last Localize or Track call.
func (e *Engine) Stats() Stats {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.stats
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
