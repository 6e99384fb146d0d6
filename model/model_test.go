package model

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPointOrderingAndString(t *testing.T) {
	a := NewPoint(1000, 2000)
	b := NewPoint(1000, 3000)
	c := NewPoint(2000, 0)

	assert.True(t, a.Less(b))
	assert.True(t, b.Less(c))
	assert.False(t, c.Less(a))
	assert.False(t, a.Less(a))
	assert.Equal(t, "x1000y2000", a.String())
	assert.InDelta(t, 5.0, NewPoint(0, 0).Distance(NewPoint(3, 4)), 1e-12)

	m := map[Point]int{a: 1}
	assert.Equal(t, 1, m[NewPoint(1000, 2000)])
}

func TestInstallationValidate(t *testing.T) {
	in := Installation{ID: "site", Scanners: []Scanner{
		{Addr: "a", Position: NewPoint(0, 0)},
		{Addr: "b", Position: NewPoint(0, 10)},
	}}
	require.NoError(t, in.Validate())
	assert.True(t, in.HasScanner("b"))
	assert.False(t, in.HasScanner("c"))

	s, ok := in.Scanner("b")
	require.True(t, ok)
	assert.Equal(t, NewPoint(0, 10), s.Position)

	dup := Installation{ID: "site", Scanners: []Scanner{{Addr: "a"}, {Addr: "a"}}}
	assert.Error(t, dup.Validate())
	assert.Error(t, Installation{}.Validate())
}

func TestParseBeacon(t *testing.T) {
	b, err := ParseBeacon("rssi: -67; txpower: -59")
	require.NoError(t, err)
	assert.Equal(t, BluetoothLeBeacon{RSSI: -67, TxPower: -59}, b)

	b, err = ParseBeacon("txpower: -60; mac: aa:bb; rssi: -70")
	require.NoError(t, err)
	assert.Equal(t, BluetoothLeBeacon{RSSI: -70, TxPower: -60}, b)

	_, err = ParseBeacon("rssi: loud; txpower: -59")
	assert.Error(t, err)

	assert.Equal(t, "rssi: -67; txpower: -59", BluetoothLeBeacon{RSSI: -67, TxPower: -59}.String())
}

func TestBeaconEventJSON(t *testing.T) {
	ev := BeaconEvent{Time: 1500000000123, Beacon: BluetoothLeBeacon{RSSI: -71, TxPower: -59}}

	data, err := json.Marshal(ev)
	require.NoError(t, err)
	assert.JSONEq(t, `{"time":1500000000123,"beacon":"rssi: -71; txpower: -59"}`, string(data))

	var back BeaconEvent
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, ev, back)

	var structured BeaconEvent
	require.NoError(t, json.Unmarshal([]byte(`{"time":7,"beacon":{"rssi":-80,"txpower":-60}}`), &structured))
	assert.Equal(t, BeaconEvent{Time: 7, Beacon: BluetoothLeBeacon{RSSI: -80, TxPower: -60}}, structured)

	assert.Error(t, json.Unmarshal([]byte(`{"time":7}`), &structured))
	assert.Error(t, json.Unmarshal([]byte(`{"time":7,"beacon":12}`), &structured))
}

func TestEncodeDecodeEvents(t *testing.T) {
	events := []BeaconEvent{
		{Time: 10, Beacon: BluetoothLeBeacon{RSSI: -60, TxPower: -59}},
		{Time: 20, Beacon: BluetoothLeBeacon{RSSI: -62, TxPower: -59}},
	}
	data, err := EncodeEvents(events)
	require.NoError(t, err)

	back, err := DecodeEvents(data)
	require.NoError(t, err)
	if diff := cmp.Diff(events, back); diff != "" {
		t.Errorf("events mismatch (-want +got):\n%s", diff)
	}

	empty, err := DecodeEvents(nil)
	require.NoError(t, err)
	assert.Empty(t, empty)

	data, err = EncodeEvents(nil)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(data))
}

func TestBeaconEventCopyIsIndependent(t *testing.T) {
	ev := BeaconEvent{Time: 1, Beacon: BluetoothLeBeacon{RSSI: -60, TxPower: -59}}
	cp := ev.WithRSSI(-75)

	assert.Equal(t, -60, ev.Beacon.RSSI)
	assert.Equal(t, -75, cp.Beacon.RSSI)
	assert.Equal(t, ev.Time, cp.Time)
	assert.Equal(t, ev.Beacon.TxPower, cp.Beacon.TxPower)
}

func TestRecordingOrdering(t *testing.T) {
	rec := NewRecording("session", 100, 5000)
	assert.Empty(t, rec.ScannerEvents("a"))

	rec.Add("a", BeaconEvent{Time: 30, Beacon: BluetoothLeBeacon{RSSI: -1}})
	rec.Add("a", BeaconEvent{Time: 10, Beacon: BluetoothLeBeacon{RSSI: -2}})
	rec.Add("a", BeaconEvent{Time: 30, Beacon: BluetoothLeBeacon{RSSI: -3}})
	rec.Add("b", BeaconEvent{Time: 5})

	got := rec.ScannerEvents("a")
	require.Len(t, got, 3)
	assert.Equal(t, []int64{10, 30, 30}, []int64{got[0].Time, got[1].Time, got[2].Time})
	assert.Equal(t, -1, got[1].Beacon.RSSI)
	assert.Equal(t, -3, got[2].Beacon.RSSI)
	assert.Equal(t, []string{"a", "b"}, rec.Scanners())
	assert.Equal(t, 4, rec.Len())
}

func TestRecordingRoundTrip(t *testing.T) {
	rec := NewRecording("beacons/TEST", 1520000000000, 60000)
	rec.Add("scanner-2", BeaconEvent{Time: 200, Beacon: BluetoothLeBeacon{RSSI: -70, TxPower: -59}})
	rec.Add("scanner-1", BeaconEvent{Time: 100, Beacon: BluetoothLeBeacon{RSSI: -65, TxPower: -59}})
	rec.Add("scanner-1", BeaconEvent{Time: 150, Beacon: BluetoothLeBeacon{RSSI: -66, TxPower: -58}})
	rec.ScannerEvents("scanner-3")

	data, err := json.Marshal(rec)
	require.NoError(t, err)

	back, err := ParseRecording(data)
	require.NoError(t, err)
	if diff := cmp.Diff(rec, back, cmp.AllowUnexported(Recording{})); diff != "" {
		t.Errorf("recording mismatch (-want +got):\n%s", diff)
	}

	_, err = ParseRecording([]byte(`{"topic":"t","events":[{"scannerEvents":[]}]}`))
	assert.Error(t, err)
}
