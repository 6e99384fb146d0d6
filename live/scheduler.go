package live

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"locator-go/locate"
)

// FixSource computes the fixes of one publication instant.
type FixSource interface {
	FixAt(now int64) []locate.Fix
}

// Evicter drops events older than a timestamp.
type Evicter interface {
	Evict(before int64) int
}

// Publisher receives the fixes of every tick.
type Publisher interface {
	Publish(session string, fixes []locate.Fix)
}

// Scheduler polls the engine every publication period and keeps the latest fix per beacon.
type Scheduler struct {
	engine    FixSource
	events    Evicter
	publisher Publisher
	params    locate.Params
	clock     Clock
	period    time.Duration
	session   string
	logger    zerolog.Logger

	mu     sync.RWMutex
	latest map[string]locate.Fix
	ticks  int
}

// NewScheduler ticks every publication rate of clock time; speed scales the wall
// period for clocks that run faster than real time. publisher may be nil.
func NewScheduler(engine FixSource, events Evicter, publisher Publisher, params locate.Params, clock Clock, speed float64, logger zerolog.Logger) (*Scheduler, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if params.RetentionTime < params.Delay+params.ScanningWindow {
		return nil, &locate.ConfigurationError{
			Param:  locate.ParamRetentionTime,
			Reason: "must cover delay plus scanning window in live mode",
		}
	}
	if speed <= 0 {
		speed = 1
	}
	if clock == nil {
		clock = WallClock
	}
	session := uuid.NewString()
	return &Scheduler{
		engine:    engine,
		events:    events,
		publisher: publisher,
		params:    params,
		clock:     clock,
		period:    time.Duration(float64(params.PublicationRate) / speed * float64(time.Millisecond)),
		session:   session,
		logger:    logger.With().Str("component", "scheduler").Str("session", session).Logger(),
		latest:    make(map[string]locate.Fix),
	}, nil
}

func (s *Scheduler) Session() string { return s.session }

// Run ticks until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.period)
	defer ticker.Stop()

	s.logger.Info().Dur("period", s.period).Msg("scheduler started")
	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Int("ticks", s.Ticks()).Msg("scheduler stopped")
			return ctx.Err()
		case <-ticker.C:
			s.Tick()
		}
	}
}

// Tick computes and publishes the fixes for the current clock time, then evicts
// events that fell out of the retention period.
func (s *Scheduler) Tick() []locate.Fix {
	now := s.clock()
	fixes := s.engine.FixAt(now)
	evicted := s.events.Evict(now - s.params.RetentionTime)

	s.mu.Lock()
	s.ticks++
	for _, f := range fixes {
		s.latest[key(f)] = f
	}
	s.mu.Unlock()

	if len(fixes) > 0 && s.publisher != nil {
		s.publisher.Publish(s.session, fixes)
	}
	s.logger.Debug().Int64("now", now).Int("fixes", len(fixes)).Int("evicted", evicted).Msg("tick")
	return fixes
}

// Latest returns the most recent fix of every (installation, beacon) seen so far.
func (s *Scheduler) Latest() []locate.Fix {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]locate.Fix, 0, len(s.latest))
	for _, f := range s.latest {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return key(out[i]) < key(out[j]) })
	return out
}

func (s *Scheduler) Ticks() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ticks
}

func key(f locate.Fix) string {
	return f.Installation + "/" + f.Beacon
}
