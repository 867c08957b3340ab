package application

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Kilat-Pet-Delivery/service-mapsearch/internal/domain/geo"
	"github.com/Kilat-Pet-Delivery/service-mapsearch/internal/domain/mapview"
	"github.com/Kilat-Pet-Delivery/service-mapsearch/internal/events"
	"github.com/Kilat-Pet-Delivery/service-mapsearch/internal/metrics"
	"github.com/Kilat-Pet-Delivery/service-mapsearch/internal/platform/domain"
	"github.com/Kilat-Pet-Delivery/service-mapsearch/internal/platform/kafka"
)

const (
	defaultCallTimeout    = 10 * time.Second
	publishTimeout        = 5 * time.Second
	eventSource           = "service-mapsearch"
	defaultProviderMetric = "unknown"
)

// ErrSessionClosed is returned by operations on a session after Close.
var ErrSessionClosed = domain.NewConflictError("session is closed")

// EventPublisher publishes workflow CloudEvents. *kafka.Producer satisfies it.
type EventPublisher interface {
	PublishEvent(ctx context.Context, topic string, event kafka.CloudEvent) error
}

// SessionOptions configures a single map session.
type SessionOptions struct {
	Origin     geo.Coordinate
	BiasRegion geo.Region
	// GuardStaleResponses drops a search or route response when a newer
	// request of the same kind has been issued since.
	GuardStaleResponses bool
	// CallTimeout bounds each provider invocation.
	CallTimeout time.Duration
	// Provider labels metrics.
	Provider string
}

// Session is one map screen. All ViewState mutations run on a single
// event-loop goroutine; provider calls run on their own goroutines and post
// their results back to the loop, which applies them in arrival order.
type Session struct {
	id        uuid.UUID
	searcher  mapview.Searcher
	router    mapview.Router
	publisher EventPublisher
	logger    *zap.Logger
	opts      SessionOptions

	ctx       context.Context
	cancel    context.CancelFunc
	loop      chan func()
	done      chan struct{}
	closeOnce sync.Once
	touched   atomic.Int64

	// Owned by the loop goroutine.
	state     *mapview.ViewState
	searchGen uint64
	routeGen  uint64
	pending   int
	idle      []chan struct{}
}

// NewSession creates a session and starts its event loop. publisher may be nil.
func NewSession(
	id uuid.UUID,
	searcher mapview.Searcher,
	router mapview.Router,
	publisher EventPublisher,
	opts SessionOptions,
	logger *zap.Logger,
) *Session {
	if opts.CallTimeout <= 0 {
		opts.CallTimeout = defaultCallTimeout
	}
	if opts.Provider == "" {
		opts.Provider = defaultProviderMetric
	}
	ctx, cancel := context.WithCancel(context.Background())
	s := &Session{
		id:        id,
		searcher:  searcher,
		router:    router,
		publisher: publisher,
		logger:    logger.With(zap.String("session_id", id.String())),
		opts:      opts,
		ctx:       ctx,
		cancel:    cancel,
		loop:      make(chan func()),
		done:      make(chan struct{}),
		state:     mapview.NewViewState(opts.Origin, opts.BiasRegion),
	}
	s.touch()
	go s.run()
	return s
}

// ID returns the session identifier.
func (s *Session) ID() uuid.UUID { return s.id }

// LastActive returns when the session was last used.
func (s *Session) LastActive() time.Time {
	return time.Unix(0, s.touched.Load())
}

func (s *Session) touch() {
	s.touched.Store(time.Now().UnixNano())
}

func (s *Session) run() {
	for {
		select {
		case fn := <-s.loop:
			fn()
		case <-s.done:
			return
		}
	}
}

// do runs fn on the event loop and waits for it to finish.
func (s *Session) do(ctx context.Context, fn func()) error {
	finished := make(chan struct{})
	task := func() {
		defer close(finished)
		fn()
	}
	select {
	case s.loop <- task:
	case <-s.done:
		return ErrSessionClosed
	case <-ctx.Done():
		return ctx.Err()
	}
	<-finished
	return nil
}

// post hands a provider response to the event loop. It reports false when
// the session closed before the response could be delivered.
func (s *Session) post(fn func()) bool {
	return s.do(context.Background(), fn) == nil
}

// SubmitSearch replaces the search text and starts a search. A blank query
// applies an empty result list without calling the provider.
func (s *Session) SubmitSearch(ctx context.Context, text string) error {
	s.touch()
	var (
		query string
		bias  geo.Region
		gen   uint64
	)
	err := s.do(ctx, func() {
		s.state.SetSearchText(text)
		query = s.state.BeginSearch()
		s.searchGen++
		gen = s.searchGen
		// A new search supersedes any route still in flight.
		s.routeGen++
		if query == "" {
			s.state.ApplySearchResults(nil)
			return
		}
		bias = s.state.BiasRegion()
		s.pending++
	})
	if err != nil {
		return err
	}
	if query == "" {
		metrics.SearchesTotal.WithLabelValues(s.opts.Provider, metrics.OutcomeSkipped).Inc()
		return nil
	}
	go s.runSearch(query, bias, gen)
	return nil
}

func (s *Session) runSearch(query string, bias geo.Region, gen uint64) {
	defer s.post(s.finishRequest)
	ctx, cancel := context.WithTimeout(s.ctx, s.opts.CallTimeout)
	defer cancel()

	start := time.Now()
	results, err := s.searcher.Search(ctx, query, bias)
	metrics.SearchDuration.WithLabelValues(s.opts.Provider).Observe(time.Since(start).Seconds())

	outcome := metrics.OutcomeOK
	switch {
	case err != nil:
		outcome = metrics.OutcomeError
		s.logger.Warn("search failed, showing no results",
			zap.String("query", query),
			zap.Error(err),
		)
		results = nil
	case len(results) == 0:
		outcome = metrics.OutcomeEmpty
	}

	applied := false
	delivered := s.post(func() {
		if s.opts.GuardStaleResponses && gen != s.searchGen {
			return
		}
		s.state.ApplySearchResults(results)
		applied = true
	})
	if !delivered {
		return
	}
	if !applied {
		outcome = metrics.OutcomeStale
		s.logger.Debug("dropped stale search response", zap.String("query", query))
	}
	metrics.SearchesTotal.WithLabelValues(s.opts.Provider, outcome).Inc()
	if applied {
		s.publishEvent(events.SearchCompleted, events.SearchCompletedEvent{
			SessionID:   s.id,
			Query:       query,
			ResultCount: len(results),
			Failed:      err != nil,
			OccurredAt:  time.Now().UTC(),
		})
	}
}

// Select selects the i-th search result.
func (s *Session) Select(ctx context.Context, index int) error {
	s.touch()
	var selErr error
	if err := s.do(ctx, func() { selErr = s.state.SelectIndex(index) }); err != nil {
		return err
	}
	return selErr
}

// SelectCurrentLocation selects the current-location pseudo-item.
func (s *Session) SelectCurrentLocation(ctx context.Context) error {
	s.touch()
	return s.do(ctx, s.state.SelectCurrentLocation)
}

// Dismiss clears the selection, hiding the detail sheet.
func (s *Session) Dismiss(ctx context.Context) error {
	s.touch()
	return s.do(ctx, s.state.ClearSelection)
}

// RequestDirections starts a route to the current selection. It reports
// whether a route invocation was started; without a selection nothing happens.
func (s *Session) RequestDirections(ctx context.Context) (bool, error) {
	s.touch()
	var (
		dest   mapview.PlaceResult
		ok     bool
		origin geo.Coordinate
		gen    uint64
	)
	err := s.do(ctx, func() {
		dest, ok = s.state.RequestDirections()
		if !ok {
			return
		}
		origin = s.state.Origin()
		s.routeGen++
		gen = s.routeGen
		s.pending++
	})
	if err != nil || !ok {
		return false, err
	}
	go s.runRoute(origin, dest, gen)
	return true, nil
}

func (s *Session) runRoute(origin geo.Coordinate, dest mapview.PlaceResult, gen uint64) {
	defer s.post(s.finishRequest)
	ctx, cancel := context.WithTimeout(s.ctx, s.opts.CallTimeout)
	defer cancel()

	start := time.Now()
	route, err := s.router.Route(ctx, origin, dest.Coordinate)
	metrics.RouteDuration.WithLabelValues(s.opts.Provider).Observe(time.Since(start).Seconds())

	outcome := metrics.OutcomeOK
	switch {
	case err != nil:
		outcome = metrics.OutcomeError
		s.logger.Warn("route failed, keeping current view",
			zap.String("destination", dest.Label()),
			zap.Error(err),
		)
		route = nil
	case route == nil:
		outcome = metrics.OutcomeEmpty
	default:
		route.Destination = dest
	}

	applied := false
	delivered := s.post(func() {
		if s.opts.GuardStaleResponses && gen != s.routeGen {
			return
		}
		s.state.ApplyRoute(route)
		applied = true
	})
	if !delivered {
		return
	}
	if !applied {
		outcome = metrics.OutcomeStale
		s.logger.Debug("dropped stale route response", zap.String("destination", dest.Label()))
	}
	metrics.RoutesTotal.WithLabelValues(s.opts.Provider, outcome).Inc()
	if !applied {
		return
	}

	now := time.Now().UTC()
	if route == nil {
		s.publishEvent(events.RouteFailed, events.RouteFailedEvent{
			SessionID:       s.id,
			DestinationName: dest.Label(),
			DestinationLat:  dest.Coordinate.Latitude,
			DestinationLon:  dest.Coordinate.Longitude,
			OccurredAt:      now,
		})
		return
	}
	s.publishEvent(events.RouteComputed, events.RouteComputedEvent{
		SessionID:             s.id,
		DestinationName:       dest.Label(),
		DestinationLat:        dest.Coordinate.Latitude,
		DestinationLon:        dest.Coordinate.Longitude,
		DistanceMeters:        route.DistanceMeters,
		ExpectedTravelSeconds: int64(route.ExpectedTravel / time.Second),
		PolylinePoints:        len(route.Polyline),
		OccurredAt:            now,
	})
}

// ResetCamera frames the bias region again.
func (s *Session) ResetCamera(ctx context.Context) error {
	s.touch()
	return s.do(ctx, s.state.ResetCamera)
}

// Snapshot returns a copy of the current view state.
func (s *Session) Snapshot(ctx context.Context) (mapview.Snapshot, error) {
	s.touch()
	var snap mapview.Snapshot
	err := s.do(ctx, func() { snap = s.state.Snapshot() })
	return snap, err
}

// Settle blocks until every search and route started so far has been applied
// and its workflow event published, or ctx is done.
func (s *Session) Settle(ctx context.Context) error {
	ch := make(chan struct{})
	err := s.do(ctx, func() {
		if s.pending == 0 {
			close(ch)
			return
		}
		s.idle = append(s.idle, ch)
	})
	if err != nil {
		return err
	}
	select {
	case <-ch:
		return nil
	case <-s.done:
		return ErrSessionClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Session) finishRequest() {
	s.pending--
	if s.pending > 0 {
		return
	}
	for _, ch := range s.idle {
		close(ch)
	}
	s.idle = nil
}

// Close stops the event loop and cancels in-flight provider calls.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		s.cancel()
		close(s.done)
	})
}

func (s *Session) publishEvent(eventType string, data interface{}) {
	if s.publisher == nil {
		return
	}
	cloudEvent, err := kafka.NewCloudEvent(eventSource, eventType, data)
	if err != nil {
		s.logger.Error("failed to create cloud event",
			zap.String("event_type", eventType),
			zap.Error(err),
		)
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(s.ctx), publishTimeout)
	defer cancel()
	if err := s.publisher.PublishEvent(ctx, events.TopicMapSearchEvents, cloudEvent.WithSubject(s.id.String())); err != nil {
		metrics.EventsPublishFailures.WithLabelValues(eventType).Inc()
		s.logger.Error("failed to publish event",
			zap.String("topic", events.TopicMapSearchEvents),
			zap.String("event_type", eventType),
			zap.Error(err),
		)
	}
}
