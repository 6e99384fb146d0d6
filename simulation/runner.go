package simulation

import (
	"sort"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"locator-go/dataset"
	"locator-go/model"
)

// Options tune Run.
type Options struct {
	Workers int
	// Clock gives the session start in epoch milliseconds; defaults to the wall clock.
	Clock func() int64
}

// Run executes one simulation per ground-truth point of ds on a worker pool.
func Run(ds *dataset.Dataset, factory EngineFactory, opts Options, logger zerolog.Logger) (*Report, error) {
	clock := opts.Clock
	if clock == nil {
		clock = func() int64 { return time.Now().UnixMilli() }
	}

	points := ds.Points()
	results := make([]Result, len(points))
	errs := make([]error, len(points))

	pool := newWorkerPool(opts.Workers)
	for i, p := range points {
		sim := New(ds.Installation, p, ds.Recordings[p], factory, logger)
		pool.submit(func() {
			results[i], errs[i] = sim.Execute(clock())
		})
	}
	pool.shutdown()

	for i, err := range errs {
		if err != nil {
			return nil, errors.Wrapf(err, "simulation %s", points[i])
		}
	}
	return NewReport(ds.Installation, results), nil
}

// Report gathers the simulation results ordered by ground-truth point.
type Report struct {
	Installation model.Installation `json:"installation"`
	Results      []Result           `json:"results"`
	MeanError    float64            `json:"mean_error_m"`
}

func NewReport(installation model.Installation, results []Result) *Report {
	sorted := append([]Result(nil), results...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Truth.Less(sorted[j].Truth) })

	r := &Report{Installation: installation, Results: sorted}
	if len(sorted) > 0 {
		var sum float64
		for _, res := range sorted {
			sum += res.Error
		}
		r.MeanError = sum / float64(len(sorted))
	}
	return r
}
