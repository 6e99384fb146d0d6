// Package simulation replays dataset recordings through the location engine and
// measures the error of the fixes against the recorded ground truth.
package simulation

import (
	"math"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"locator-go/locate"
	"locator-go/model"
	"locator-go/store"
	"locator-go/trilat"
)

// Beacon is the identity replayed recordings are stored under.
const Beacon = "TEST"

// mmPerMetre turns the millimetre error into metres.
const mmPerMetre = 1000

// EngineFactory builds an engine reading from st.
type EngineFactory func(st *store.Store) (*locate.Engine, error)

// NewEngineFactory wires a positioning service with the given strategies to every store.
func NewEngineFactory(params locate.Params, distance trilat.DistanceModel, solver trilat.Solver, logger zerolog.Logger) EngineFactory {
	return func(st *store.Store) (*locate.Engine, error) {
		ps := locate.NewPositioningService(st, distance, solver)
		return locate.NewEngine(st, ps, params, logger)
	}
}

// Result is the outcome of one simulation.
type Result struct {
	Truth     model.Point   `json:"truth"`
	Start     int64         `json:"start"`
	End       int64         `json:"end"`
	Positions []model.Point `json:"positions"`
	Error     float64       `json:"error_m"` // mean euclidean error in metres, 0 without fixes
	Stats     locate.Stats  `json:"stats"`
}

// Fixes is the number of positions computed.
func (r Result) Fixes() int { return len(r.Positions) }

// Simulation owns its store so simulations never share state.
type Simulation struct {
	installation model.Installation
	truth        model.Point
	recording    *model.Recording
	factory      EngineFactory
	logger       zerolog.Logger
}

func New(installation model.Installation, truth model.Point, recording *model.Recording, factory EngineFactory, logger zerolog.Logger) *Simulation {
	return &Simulation{
		installation: installation,
		truth:        truth,
		recording:    recording,
		factory:      factory,
		logger:       logger.With().Stringer("truth", truth).Logger(),
	}
}

// Execute stores the recording with every event shifted by start, localises from
// start to the latest shifted event and scores the fixes.
func (s *Simulation) Execute(start int64) (Result, error) {
	st := store.New(s.logger)
	st.AddInstallation(s.installation)

	end := start
	for _, scanner := range s.recording.Scanners() {
		src := s.recording.ScannerEvents(scanner)
		shifted := make([]model.BeaconEvent, len(src))
		for i, ev := range src {
			ev.Time += start
			shifted[i] = ev
			if ev.Time > end {
				end = ev.Time
			}
		}
		st.SaveEvents(scanner, Beacon, shifted)
	}

	engine, err := s.factory(st)
	if err != nil {
		return Result{}, errors.Wrap(err, "build engine")
	}
	positions := engine.Localize(start, end)

	res := Result{
		Truth:     s.truth,
		Start:     start,
		End:       end,
		Positions: positions,
		Error:     MeanError(s.truth, positions),
		Stats:     engine.Stats(),
	}
	s.logger.Info().
		Int("fixes", res.Fixes()).
		Int("events", st.Len()).
		Float64("error_m", res.Error).
		Msg("simulation done")
	return res, nil
}

// MeanError is the mean distance in metres between truth and the millimetre positions.
func MeanError(truth model.Point, positions []model.Point) float64 {
	if len(positions) == 0 {
		return 0
	}
	var sum float64
	for _, p := range positions {
		sum += truth.Distance(p)
	}
	mean := sum / float64(len(positions)) / mmPerMetre
	if math.IsNaN(mean) {
		return 0
	}
	return mean
}
