// Package briefing ties the station directory, report fetching and decoding
// together into one request: which station, and what is the weather there.
package briefing

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
	"k8s.io/utils/ptr"

	"github.com/rmitchellscott/nimbus/internal/fetch"
	"github.com/rmitchellscott/nimbus/internal/metrics"
	"github.com/rmitchellscott/nimbus/metar"
	"github.com/rmitchellscott/nimbus/station"
)

// ErrNoStation is returned when the directory has no stations to choose from.
var ErrNoStation = errors.New("no station available")

// Briefing is a station plus its decoded, classified conditions.
type Briefing struct {
	Station           station.Record   `json:"station"`
	Manual            bool             `json:"manual"`
	DistanceMiles     float64          `json:"distance_miles"`
	MagneticVariation *float64         `json:"magnetic_variation,omitempty"`
	Conditions        metar.Conditions `json:"conditions"`
	FetchedAt         time.Time        `json:"fetched_at"`
}

// Outcome is delivered by Async.
type Outcome struct {
	Briefing Briefing
	Err      error
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithMetrics records lookups and decodes.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithClock sets the time source for FetchedAt and magnetic variation.
func WithClock(c clockwork.Clock) Option {
	return func(s *Service) {
		if c != nil {
			s.clock = c
		}
	}
}

// Service answers briefing requests. It is safe for concurrent use.
type Service struct {
	dir     atomic.Pointer[station.Directory]
	fetcher fetch.Fetcher
	clock   clockwork.Clock
	logger  *zap.Logger
	metrics *metrics.Metrics
}

// New creates a Service over dir. A nil dir behaves as an empty directory.
func New(dir *station.Directory, f fetch.Fetcher, opts ...Option) *Service {
	s := &Service{
		fetcher: f,
		clock:   clockwork.NewRealClock(),
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.Named("briefing")
	s.SetDirectory(dir)
	return s
}

// Directory returns the active directory.
func (s *Service) Directory() *station.Directory {
	return s.dir.Load()
}

// SetDirectory replaces the active directory. Requests already running keep
// the directory they started with.
func (s *Service) SetDirectory(dir *station.Directory) {
	if dir == nil {
		dir = station.Load("")
	}
	s.dir.Store(dir)
	s.metrics.SetDirectory(dir.Len(), dir.Rejected())
	s.logger.Info("Station directory active",
		zap.Int("stations", dir.Len()),
		zap.Int("rejected_rows", dir.Rejected()))
}

// Nearest returns the closest station to pos and its distance in miles.
func (s *Service) Nearest(pos station.Position) (station.Record, float64, error) {
	r, ok := s.Directory().Nearest(pos)
	s.metrics.ObserveNearest(ok)
	if !ok {
		return station.Record{}, 0, ErrNoStation
	}
	return r, station.Distance(pos, r.Location), nil
}

// ForStation fetches and decodes the report for a station identifier. An
// identifier missing from the directory is still fetched and is marked Manual.
func (s *Service) ForStation(ctx context.Context, id string) (Briefing, error) {
	id = strings.ToUpper(strings.TrimSpace(id))

	r, known := s.Directory().Lookup(id)
	if !known {
		r = station.Record{ID: id, Name: id}
	}

	b, err := s.brief(ctx, r)
	if err != nil {
		return Briefing{}, err
	}
	b.Manual = !known
	if known {
		s.attachVariation(&b)
	}
	return b, nil
}

// ForPosition briefs the station nearest to pos.
func (s *Service) ForPosition(ctx context.Context, pos station.Position) (Briefing, error) {
	r, distance, err := s.Nearest(pos)
	if err != nil {
		return Briefing{}, err
	}

	s.logger.Debug("Nearest station",
		zap.String("station", r.ID),
		zap.Float64("distance_miles", distance))

	b, err := s.brief(ctx, r)
	if err != nil {
		return Briefing{}, err
	}
	b.DistanceMiles = distance
	s.attachVariation(&b)
	return b, nil
}

// Async runs ForPosition in a goroutine. The returned channel receives
// exactly one Outcome and is then closed.
func (s *Service) Async(ctx context.Context, pos station.Position) <-chan Outcome {
	ch := make(chan Outcome, 1)
	go func() {
		defer close(ch)
		b, err := s.ForPosition(ctx, pos)
		ch <- Outcome{Briefing: b, Err: err}
	}()
	return ch
}

// Decode classifies raw report text without fetching.
func (s *Service) Decode(raw string) metar.Conditions {
	c := metar.Decode(raw)
	s.metrics.ObserveDecode(c.Category.String())
	return c
}

func (s *Service) brief(ctx context.Context, r station.Record) (Briefing, error) {
	raw, err := s.fetcher.FetchMETAR(ctx, r.ID)
	if err != nil {
		return Briefing{}, fmt.Errorf("briefing %s: %w", r.ID, err)
	}

	return Briefing{
		Station:    r,
		Conditions: s.Decode(raw),
		FetchedAt:  s.clock.Now(),
	}, nil
}

func (s *Service) attachVariation(b *Briefing) {
	variation, err := station.MagneticVariation(b.Station.Location, b.FetchedAt)
	if err != nil {
		s.logger.Debug("Magnetic variation unavailable",
			zap.String("station", b.Station.ID),
			zap.Error(err))
		return
	}
	b.MagneticVariation = ptr.To(variation)
}
