package application

import (
	"context"
	"sync"
	"time"

	"github.com/paulmach/orb"

	"github.com/Kilat-Pet-Delivery/service-mapsearch/internal/domain/geo"
	"github.com/Kilat-Pet-Delivery/service-mapsearch/internal/domain/mapview"
	"github.com/Kilat-Pet-Delivery/service-mapsearch/internal/platform/kafka"
)

type fakeSearcher struct {
	mu      sync.Mutex
	calls   []string
	results map[string][]mapview.PlaceResult
	errs    map[string]error
	gates   map[string]chan struct{}
}

func newFakeSearcher() *fakeSearcher {
	return &fakeSearcher{
		results: make(map[string][]mapview.PlaceResult),
		errs:    make(map[string]error),
		gates:   make(map[string]chan struct{}),
	}
}

func (f *fakeSearcher) Search(ctx context.Context, query string, _ geo.Region) ([]mapview.PlaceResult, error) {
	f.mu.Lock()
	f.calls = append(f.calls, query)
	res, err, gate := f.results[query], f.errs[query], f.gates[query]
	f.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return res, err
}

func (f *fakeSearcher) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

type fakeRouter struct {
	mu    sync.Mutex
	calls []geo.Coordinate
	fn    func(ctx context.Context, origin, dest geo.Coordinate) (*mapview.RouteResult, error)
}

func (f *fakeRouter) Route(ctx context.Context, origin, dest geo.Coordinate) (*mapview.RouteResult, error) {
	f.mu.Lock()
	f.calls = append(f.calls, dest)
	fn := f.fn
	f.mu.Unlock()
	return fn(ctx, origin, dest)
}

func (f *fakeRouter) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type fakePublisher struct {
	mu     sync.Mutex
	events []kafka.CloudEvent
	err    error
}

func (p *fakePublisher) PublishEvent(_ context.Context, _ string, evt kafka.CloudEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, evt)
	return p.err
}

func (p *fakePublisher) Types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	types := make([]string, len(p.events))
	for i, e := range p.events {
		types[i] = e.Type
	}
	return types
}

func (p *fakePublisher) Last() kafka.CloudEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.events[len(p.events)-1]
}

var (
	cafeA = mapview.PlaceResult{Name: "Cafe A", Title: "1 Main St", Coordinate: geo.Coordinate{Latitude: 25.78, Longitude: -80.19}}
	cafeB = mapview.PlaceResult{Name: "Cafe B", Title: "2 Main St", Coordinate: geo.Coordinate{Latitude: 25.79, Longitude: -80.20}}
)

// threePointRoute runs from the default origin to dest.
func threePointRoute(dest geo.Coordinate) *mapview.RouteResult {
	line := orb.LineString{
		geo.DefaultOrigin().Point(),
		{-80.189, 25.7805},
		dest.Point(),
	}
	return mapview.NewRouteResult(line, mapview.PlaceResult{}, 350, 2*time.Minute)
}

func routeTo(_ context.Context, origin, dest geo.Coordinate) (*mapview.RouteResult, error) {
	return threePointRoute(dest), nil
}
