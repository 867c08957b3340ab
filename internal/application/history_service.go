package application

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Kilat-Pet-Delivery/service-mapsearch/internal/domain/history"
	"github.com/Kilat-Pet-Delivery/service-mapsearch/internal/events"
	"github.com/Kilat-Pet-Delivery/service-mapsearch/internal/platform/domain"
)

// HistoryEntryDTO is the response representation of a history entry.
type HistoryEntryDTO struct {
	ID                    uuid.UUID `json:"id"`
	SessionID             uuid.UUID `json:"session_id"`
	Kind                  string    `json:"kind"`
	Query                 string    `json:"query,omitempty"`
	ResultCount           int       `json:"result_count"`
	DestinationName       string    `json:"destination_name,omitempty"`
	DestinationLat        float64   `json:"destination_lat,omitempty"`
	DestinationLon        float64   `json:"destination_lon,omitempty"`
	DistanceMeters        float64   `json:"distance_meters,omitempty"`
	ExpectedTravelSeconds int64     `json:"expected_travel_seconds,omitempty"`
	OccurredAt            time.Time `json:"occurred_at"`
}

// HistoryStatsDTO holds aggregate workflow statistics.
type HistoryStatsDTO struct {
	Total  int64            `json:"total"`
	ByKind map[string]int64 `json:"by_kind"`
}

// HistoryService records workflow events and serves them to admins.
type HistoryService struct {
	repo   history.Repository
	logger *zap.Logger
}

// NewHistoryService creates a new HistoryService.
func NewHistoryService(repo history.Repository, logger *zap.Logger) *HistoryService {
	return &HistoryService{repo: repo, logger: logger}
}

var _ events.HistoryRecorder = (*HistoryService)(nil)

// RecordSearch stores a completed search. Provider failures are kept apart
// from searches that matched nothing.
func (s *HistoryService) RecordSearch(ctx context.Context, eventID string, evt events.SearchCompletedEvent) error {
	entry, err := history.NewSearchEntry(eventID, evt.SessionID, !evt.Failed, evt.Query, evt.ResultCount, evt.OccurredAt)
	if err != nil {
		s.logger.Error("invalid search event", zap.String("event_id", eventID), zap.Error(err))
		return nil
	}
	if err := s.repo.Save(ctx, entry); err != nil {
		return fmt.Errorf("failed to save search history: %w", err)
	}
	s.logger.Debug("search recorded",
		zap.String("session_id", evt.SessionID.String()),
		zap.Int("result_count", evt.ResultCount),
		zap.Bool("failed", evt.Failed),
	)
	return nil
}

// RecordRoute stores a computed route.
func (s *HistoryService) RecordRoute(ctx context.Context, eventID string, evt events.RouteComputedEvent) error {
	entry, err := history.NewRouteEntry(eventID, evt.SessionID, true,
		evt.DestinationName, evt.DestinationLat, evt.DestinationLon,
		evt.DistanceMeters, evt.ExpectedTravelSeconds, evt.OccurredAt)
	if err != nil {
		s.logger.Error("invalid route event", zap.String("event_id", eventID), zap.Error(err))
		return nil
	}
	if err := s.repo.Save(ctx, entry); err != nil {
		return fmt.Errorf("failed to save route history: %w", err)
	}
	return nil
}

// RecordRouteFailure stores a route that could not be computed.
func (s *HistoryService) RecordRouteFailure(ctx context.Context, eventID string, evt events.RouteFailedEvent) error {
	entry, err := history.NewRouteEntry(eventID, evt.SessionID, false,
		evt.DestinationName, evt.DestinationLat, evt.DestinationLon, 0, 0, evt.OccurredAt)
	if err != nil {
		s.logger.Error("invalid route failure event", zap.String("event_id", eventID), zap.Error(err))
		return nil
	}
	if err := s.repo.Save(ctx, entry); err != nil {
		return fmt.Errorf("failed to save route failure history: %w", err)
	}
	return nil
}

// ListRecent returns a page of history, newest first. An empty kind lists everything.
func (s *HistoryService) ListRecent(ctx context.Context, kind string, page, limit int) (*domain.PaginatedResult[HistoryEntryDTO], error) {
	var k history.Kind
	if kind != "" {
		parsed, err := history.ParseKind(kind)
		if err != nil {
			return nil, domain.NewValidationError(err.Error())
		}
		k = parsed
	}

	entries, total, err := s.repo.ListRecent(ctx, k, page, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list history: %w", err)
	}

	dtos := make([]HistoryEntryDTO, len(entries))
	for i, e := range entries {
		dtos[i] = toHistoryEntryDTO(e)
	}
	result := domain.NewPaginatedResult(dtos, total, page, limit)
	return &result, nil
}

// Stats returns entry counts by kind.
func (s *HistoryService) Stats(ctx context.Context) (*HistoryStatsDTO, error) {
	counts, err := s.repo.CountByKind(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get history stats: %w", err)
	}

	var total int64
	for _, c := range counts {
		total += c
	}
	return &HistoryStatsDTO{Total: total, ByKind: counts}, nil
}

// TopQueries returns the most frequent search queries.
func (s *HistoryService) TopQueries(ctx context.Context, limit int) ([]history.QueryCount, error) {
	if limit < 1 || limit > 100 {
		limit = 10
	}
	queries, err := s.repo.TopQueries(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get top queries: %w", err)
	}
	return queries, nil
}

func toHistoryEntryDTO(e *history.Entry) HistoryEntryDTO {
	return HistoryEntryDTO{
		ID:                    e.ID(),
		SessionID:             e.SessionID(),
		Kind:                  string(e.Kind()),
		Query:                 e.Query(),
		ResultCount:           e.ResultCount(),
		DestinationName:       e.DestinationName(),
		DestinationLat:        e.DestinationLat(),
		DestinationLon:        e.DestinationLon(),
		DistanceMeters:        e.DistanceMeters(),
		ExpectedTravelSeconds: e.TravelSeconds(),
		OccurredAt:            e.OccurredAt(),
	}
}
