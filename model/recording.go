package model

import (
	"encoding/json"
	"sort"

	"github.com/pkg/errors"
)

// Recording is one scanning session: per scanner, the events it produced in time order.
type Recording struct {
	Topic     string
	StartTime int64
	Duration  int64

	events map[string][]BeaconEvent
}

func NewRecording(topic string, startTime, duration int64) *Recording {
	return &Recording{
		Topic:     topic,
		StartTime: startTime,
		Duration:  duration,
		events:    make(map[string][]BeaconEvent),
	}
}

// ScannerEvents returns the events of scanner, creating an empty entry on first access.
func (r *Recording) ScannerEvents(scanner string) []BeaconEvent {
	if r.events == nil {
		r.events = make(map[string][]BeaconEvent)
	}
	evs, ok := r.events[scanner]
	if !ok {
		evs = []BeaconEvent{}
		r.events[scanner] = evs
	}
	return evs
}

// Add inserts ev keeping the scanner list ordered; equal times keep arrival order.
func (r *Recording) Add(scanner string, ev BeaconEvent) {
	evs := r.ScannerEvents(scanner)
	i := sort.Search(len(evs), func(i int) bool { return evs[i].Time > ev.Time })
	evs = append(evs, BeaconEvent{})
	copy(evs[i+1:], evs[i:])
	evs[i] = ev
	r.events[scanner] = evs
}

// Scanners returns the scanner addresses in sorted order.
func (r *Recording) Scanners() []string {
	out := make([]string, 0, len(r.events))
	for s := range r.events {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// Len is the total number of events across scanners.
func (r *Recording) Len() int {
	n := 0
	for _, evs := range r.events {
		n += len(evs)
	}
	return n
}

type scannerEventsJSON struct {
	Scanner       string        `json:"scanner"`
	ScannerEvents []BeaconEvent `json:"scannerEvents"`
}

type recordingJSON struct {
	Topic     string              `json:"topic"`
	StartTime int64               `json:"startTime"`
	Duration  int64               `json:"duration"`
	Events    []scannerEventsJSON `json:"events"`
}

func (r *Recording) MarshalJSON() ([]byte, error) {
	out := recordingJSON{
		Topic:     r.Topic,
		StartTime: r.StartTime,
		Duration:  r.Duration,
		Events:    make([]scannerEventsJSON, 0, len(r.events)),
	}
	for _, s := range r.Scanners() {
		out.Events = append(out.Events, scannerEventsJSON{Scanner: s, ScannerEvents: r.events[s]})
	}
	return json.Marshal(out)
}

func (r *Recording) UnmarshalJSON(data []byte) error {
	var in recordingJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return errors.Wrap(err, "recording")
	}
	rec := NewRecording(in.Topic, in.StartTime, in.Duration)
	for _, se := range in.Events {
		if se.Scanner == "" {
			return errors.Errorf("recording %s: events without scanner", in.Topic)
		}
		rec.ScannerEvents(se.Scanner)
		for _, ev := range se.ScannerEvents {
			rec.Add(se.Scanner, ev)
		}
	}
	*r = *rec
	return nil
}

// ParseRecording decodes the recording JSON document.
func ParseRecording(data []byte) (*Recording, error) {
	rec := &Recording{}
	if err := json.Unmarshal(data, rec); err != nil {
		return nil, err
	}
	return rec, nil
}
