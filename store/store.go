// Package store keeps the installation registry and the time-indexed archive of
// beacon detections that the location engine reads windows from.
package store

import (
	"sort"
	"sync"

	cmap "github.com/orcaman/concurrent-map/v2"
	"github.com/rs/zerolog"

	"locator-go/model"
)

// Events groups detections by scanner address.
type Events map[string][]model.BeaconEvent

// Window is installation -> beacon -> scanner -> events in time order.
type Window map[string]map[string]Events

type beaconLog struct {
	times   []int64 // ascending, unique
	buckets map[int64]map[string]model.BeaconEvent
}

func newBeaconLog() *beaconLog {
	return &beaconLog{buckets: make(map[int64]map[string]model.BeaconEvent)}
}

func (l *beaconLog) put(scanner string, ev model.BeaconEvent) {
	bucket, ok := l.buckets[ev.Time]
	if !ok {
		i := sort.Search(len(l.times), func(i int) bool { return l.times[i] >= ev.Time })
		l.times = append(l.times, 0)
		copy(l.times[i+1:], l.times[i:])
		l.times[i] = ev.Time
		bucket = make(map[string]model.BeaconEvent)
		l.buckets[ev.Time] = bucket
	}
	bucket[scanner] = ev
}

// span returns the index range of times within [start, end].
func (l *beaconLog) span(start, end int64) (int, int) {
	lo := sort.Search(len(l.times), func(i int) bool { return l.times[i] >= start })
	hi := sort.Search(len(l.times), func(i int) bool { return l.times[i] > end })
	return lo, hi
}

// Store is safe for concurrent use. Writers are serialised; window reads share a read lock.
type Store struct {
	logger        zerolog.Logger
	installations cmap.ConcurrentMap[string, model.Installation]

	mu      sync.RWMutex
	beacons map[string]*beaconLog
}

func New(logger zerolog.Logger) *Store {
	return &Store{
		logger:        logger.With().Str("component", "store").Logger(),
		installations: cmap.New[model.Installation](),
		beacons:       make(map[string]*beaconLog),
	}
}

// AddInstallation registers inst, replacing any installation with the same id.
func (s *Store) AddInstallation(inst model.Installation) {
	s.installations.Set(inst.ID, inst)
	s.logger.Debug().Str("installation", inst.ID).Int("scanners", len(inst.Scanners)).Msg("installation registered")
}

func (s *Store) ModifyInstallation(inst model.Installation) {
	s.AddInstallation(inst)
}

// RemoveInstallation is a no-op for unknown ids.
func (s *Store) RemoveInstallation(id string) {
	s.installations.Remove(id)
}

func (s *Store) Installation(id string) (model.Installation, bool) {
	return s.installations.Get(id)
}

// Installations returns the registered installations ordered by id.
func (s *Store) Installations() []model.Installation {
	items := s.installations.Items()
	out := make([]model.Installation, 0, len(items))
	for _, inst := range items {
		out = append(out, inst)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *Store) HasScanner(installationID, addr string) bool {
	inst, ok := s.installations.Get(installationID)
	return ok && inst.HasScanner(addr)
}

// SaveEvents archives the events of beacon seen by scanner. An event at an
// already stored (beacon, time, scanner) replaces the previous one.
func (s *Store) SaveEvents(scanner, beacon string, events []model.BeaconEvent) {
	if len(events) == 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	l, ok := s.beacons[beacon]
	if !ok {
		l = newBeaconLog()
		s.beacons[beacon] = l
	}
	for _, ev := range events {
		l.put(scanner, ev)
	}
}

// Window returns the events with start <= time <= end, grouped by installation,
// beacon and scanner. Scanners that belong to no installation are dropped and
// empty groups are omitted.
func (s *Store) Window(start, end int64) Window {
	byBeacon := s.collect(start, end)

	out := make(Window)
	for _, inst := range s.installations.Items() {
		for beacon, scanners := range byBeacon {
			var matched Events
			for scanner, evs := range scanners {
				if !inst.HasScanner(scanner) {
					continue
				}
				if matched == nil {
					matched = make(Events)
				}
				matched[scanner] = evs
			}
			if matched == nil {
				continue
			}
			if out[inst.ID] == nil {
				out[inst.ID] = make(map[string]Events)
			}
			out[inst.ID][beacon] = matched
		}
	}
	return out
}

// collect groups the window by beacon and scanner, in time order.
func (s *Store) collect(start, end int64) map[string]Events {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]Events)
	if start > end {
		return out
	}
	for beacon, l := range s.beacons {
		lo, hi := l.span(start, end)
		if lo >= hi {
			continue
		}
		scanners := make(Events)
		for _, t := range l.times[lo:hi] {
			for scanner, ev := range l.buckets[t] {
				scanners[scanner] = append(scanners[scanner], ev)
			}
		}
		out[beacon] = scanners
	}
	return out
}

// Evict drops every time bucket older than before and returns how many were removed.
func (s *Store) Evict(before int64) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for beacon, l := range s.beacons {
		n := sort.Search(len(l.times), func(i int) bool { return l.times[i] >= before })
		for _, t := range l.times[:n] {
			delete(l.buckets, t)
		}
		l.times = append(l.times[:0], l.times[n:]...)
		removed += n
		if len(l.times) == 0 {
			delete(s.beacons, beacon)
		}
	}
	if removed > 0 {
		s.logger.Debug().Int64("before", before).Int("buckets", removed).Msg("events evicted")
	}
	return removed
}

// Beacons lists the beacon identifiers with stored events, sorted.
func (s *Store) Beacons() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]string, 0, len(s.beacons))
	for b := range s.beacons {
		out = append(out, b)
	}
	sort.Strings(out)
	return out
}

// Len is the number of stored events across beacons.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, l := range s.beacons {
		for _, bucket := range l.buckets {
			n += len(bucket)
		}
	}
	return n
}
