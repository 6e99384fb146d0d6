package simulation

import (
	"bytes"
	"encoding/csv"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"locator-go/dataset"
	"locator-go/locate"
	"locator-go/model"
	"locator-go/trilat"
)

var params = locate.Params{
	RetentionTime:   60000,
	PublicationRate: 1000,
	Delay:           0,
	ScanningWindow:  2000,
	Attenuation:     1,
	CutoffRate:      2,
}

var hall = model.Installation{ID: "hall", Scanners: []model.Scanner{
	{Addr: "s1", Position: model.NewPoint(0, 0)},
	{Addr: "s2", Position: model.NewPoint(0, 10000)},
	{Addr: "s3", Position: model.NewPoint(10000, 0)},
	{Addr: "s4", Position: model.NewPoint(10000, 10000)},
}}

// synthetic records a reading every 100ms for 10s, with the RSSI the linear
// model maps to each scanner's true distance.
func synthetic(truth model.Point, scanners []model.Scanner) *model.Recording {
	rec := model.NewRecording("synthetic-"+truth.String(), 0, 10000)
	for _, s := range scanners {
		d := s.Position.Distance(truth) / 1000
		rssi := int(math.Round(-59 - 20*math.Log10(d)))
		for t := int64(0); t <= 10000; t += 100 {
			rec.Add(s.Addr, model.BeaconEvent{Time: t, Beacon: model.BluetoothLeBeacon{RSSI: rssi, TxPower: -59}})
		}
	}
	return rec
}

func factory() EngineFactory {
	return NewEngineFactory(params, trilat.Linear{}, trilat.NewNonLinear(), zerolog.Nop())
}

func TestExecuteCentre(t *testing.T) {
	truth := model.NewPoint(5000, 5000)
	sim := New(hall, truth, synthetic(truth, hall.Scanners), factory(), zerolog.Nop())

	res, err := sim.Execute(1_700_000_000_000)
	require.NoError(t, err)
	assert.Equal(t, int64(1_700_000_010_000), res.End)
	assert.Equal(t, 10, res.Fixes())
	assert.Zero(t, res.Error)
	assert.Equal(t, 10, res.Stats.Iterations)
}

func TestExecuteWithoutEnoughScanners(t *testing.T) {
	truth := model.NewPoint(2000, 3000)
	sim := New(hall, truth, synthetic(truth, hall.Scanners[:3]), factory(), zerolog.Nop())

	res, err := sim.Execute(0)
	require.NoError(t, err)
	assert.Zero(t, res.Fixes())
	assert.Zero(t, res.Error)
	assert.Equal(t, 10, res.Stats.Insufficient)
}

func TestRun(t *testing.T) {
	centre := model.NewPoint(5000, 5000)
	corner := model.NewPoint(2000, 3000)
	ds := &dataset.Dataset{
		Installation: hall,
		Recordings: map[model.Point]*model.Recording{
			corner: synthetic(corner, hall.Scanners),
			centre: synthetic(centre, hall.Scanners),
		},
	}

	report, err := Run(ds, factory(), Options{Workers: 2, Clock: func() int64 { return 1000 }}, zerolog.Nop())
	require.NoError(t, err)
	require.Len(t, report.Results, 2)
	assert.Equal(t, corner, report.Results[0].Truth)
	assert.Equal(t, centre, report.Results[1].Truth)

	assert.Zero(t, report.Results[1].Error)
	assert.Less(t, report.Results[0].Error, 1.0)
	assert.Equal(t, 10, report.Results[0].Fixes())
	assert.InDelta(t, report.Results[0].Error/2, report.MeanError, 1e-12)
}

func TestMeanError(t *testing.T) {
	truth := model.NewPoint(0, 0)
	assert.Zero(t, MeanError(truth, nil))
	assert.InDelta(t, 4.0, MeanError(truth, []model.Point{model.NewPoint(3000, 4000), model.NewPoint(0, 3000)}), 1e-12)
}

func TestReportOutputs(t *testing.T) {
	report := NewReport(hall, []Result{
		{Truth: model.NewPoint(4000, 0), Positions: []model.Point{model.NewPoint(4000, 1500)}, Error: 1.5},
		{Truth: model.NewPoint(1000, 2000), Positions: []model.Point{model.NewPoint(1000, 2250), model.NewPoint(1000, 1750)}, Error: 0.25},
		{Truth: model.NewPoint(1000, 9000)},
	})

	var buf bytes.Buffer
	require.NoError(t, report.Format(&buf))
	assert.Equal(t, "x1000y2000: 0.250 m.\nx1000y9000: 0.000 m.\nx4000y0: 1.500 m.\nMean error: 0.583 m.\n", buf.String())

	path := filepath.Join(t.TempDir(), "fixes.csv")
	require.NoError(t, report.WriteCSV(path))
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		csvHeader,
		{"1000", "2000", "0", "1000", "2250", "0.250"},
		{"1000", "2000", "1", "1000", "1750", "0.250"},
		{"4000", "0", "0", "4000", "1500", "1.500"},
	}, rows)

	png := filepath.Join(t.TempDir(), "fixes.png")
	require.NoError(t, report.Plot(png))
	info, err := os.Stat(png)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))
}
