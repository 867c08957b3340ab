package tui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Kilat-Pet-Delivery/service-mapsearch/internal/domain/geo"
	"github.com/Kilat-Pet-Delivery/service-mapsearch/internal/domain/mapview"
)

const (
	animationFrames   = 8
	animationInterval = 40 * time.Millisecond
)

type searchResultMsg struct {
	gen     uint64
	query   string
	results []mapview.PlaceResult
	err     error
}

type routeResultMsg struct {
	gen   uint64
	dest  mapview.PlaceResult
	route *mapview.RouteResult
	err   error
}

type animationTickMsg struct {
	id int
}

func searchCmd(searcher mapview.Searcher, query string, bias geo.Region, gen uint64, timeout time.Duration) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		results, err := searcher.Search(ctx, query, bias)
		return searchResultMsg{gen: gen, query: query, results: results, err: err}
	}
}

func routeCmd(router mapview.Router, origin geo.Coordinate, dest mapview.PlaceResult, gen uint64, timeout time.Duration) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		route, err := router.Route(ctx, origin, dest.Coordinate)
		return routeResultMsg{gen: gen, dest: dest, route: route, err: err}
	}
}

func animationTick(id int) tea.Cmd {
	return tea.Tick(animationInterval, func(time.Time) tea.Msg {
		return animationTickMsg{id: id}
	})
}
