package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

const (
	keyRSSI    = "rssi"
	keyTxPower = "txpower"
)

// BluetoothLeBeacon is one advertisement reading: measured RSSI and the calibrated
// power at one metre, both in dBm.
type BluetoothLeBeacon struct {
	RSSI    int `json:"rssi"`
	TxPower int `json:"txpower"`
}

func (b BluetoothLeBeacon) String() string {
	return fmt.Sprintf("%s: %d; %s: %d", keyRSSI, b.RSSI, keyTxPower, b.TxPower)
}

// ParseBeacon reads the "rssi: <n>; txpower: <n>" form. Unknown tokens are skipped.
func ParseBeacon(s string) (BluetoothLeBeacon, error) {
	var b BluetoothLeBeacon
	for _, token := range strings.Split(s, "; ") {
		key, value, ok := strings.Cut(strings.TrimSpace(token), ": ")
		if !ok {
			continue
		}
		var dst *int
		switch {
		case strings.HasPrefix(key, keyTxPower):
			dst = &b.TxPower
		case strings.HasPrefix(key, keyRSSI):
			dst = &b.RSSI
		default:
			continue
		}
		n, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			return BluetoothLeBeacon{}, errors.Wrapf(err, "beacon %q: bad %s", s, key)
		}
		*dst = n
	}
	return b, nil
}

// BeaconEvent is a dated beacon reading. Time is epoch milliseconds.
type BeaconEvent struct {
	Time   int64
	Beacon BluetoothLeBeacon
}

type beaconEventJSON struct {
	Time   int64           `json:"time"`
	Beacon json.RawMessage `json:"beacon"`
}

func (e BeaconEvent) MarshalJSON() ([]byte, error) {
	beacon, err := json.Marshal(e.Beacon.String())
	if err != nil {
		return nil, err
	}
	return json.Marshal(beaconEventJSON{Time: e.Time, Beacon: beacon})
}

// UnmarshalJSON accepts the beacon either as the formatted string or as an
// object with rssi/txpower members.
func (e *BeaconEvent) UnmarshalJSON(data []byte) error {
	var raw beaconEventJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return errors.Wrap(err, "beacon event")
	}
	if len(raw.Beacon) == 0 {
		return errors.New("beacon event: missing beacon")
	}

	var beacon BluetoothLeBeacon
	switch raw.Beacon[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw.Beacon, &s); err != nil {
			return errors.Wrap(err, "beacon event")
		}
		b, err := ParseBeacon(s)
		if err != nil {
			return err
		}
		beacon = b
	case '{':
		if err := json.Unmarshal(raw.Beacon, &beacon); err != nil {
			return errors.Wrap(err, "beacon event")
		}
	default:
		return errors.Errorf("beacon event: unexpected beacon %s", raw.Beacon)
	}

	e.Time = raw.Time
	e.Beacon = beacon
	return nil
}

func (e BeaconEvent) String() string {
	return fmt.Sprintf("%d %s", e.Time, e.Beacon)
}

// WithRSSI returns a copy of the event carrying rssi.
func (e BeaconEvent) WithRSSI(rssi int) BeaconEvent {
	e.Beacon.RSSI = rssi
	return e
}

// SortEvents orders events by time, keeping the relative order of equal times.
func SortEvents(events []BeaconEvent) {
	sort.SliceStable(events, func(i, j int) bool { return events[i].Time < events[j].Time })
}

// EncodeEvents serialises a list of events as a JSON array. DecodeEvents is its inverse.
func EncodeEvents(events []BeaconEvent) ([]byte, error) {
	if events == nil {
		events = []BeaconEvent{}
	}
	return json.Marshal(events)
}

func DecodeEvents(data []byte) ([]BeaconEvent, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return []BeaconEvent{}, nil
	}
	var events []BeaconEvent
	if err := json.Unmarshal(data, &events); err != nil {
		return nil, errors.Wrap(err, "decode events")
	}
	if events == nil {
		events = []BeaconEvent{}
	}
	return events, nil
}
