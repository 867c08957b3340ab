package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Kilat-Pet-Delivery/service-mapsearch/internal/domain/history"
)

// HistoryModel is the GORM model for the workflow_history table.
type HistoryModel struct {
	ID              uuid.UUID `gorm:"type:uuid;primaryKey"`
	EventID         string    `gorm:"uniqueIndex;not null;size:64"`
	SessionID       uuid.UUID `gorm:"type:uuid;index;not null"`
	Kind            string    `gorm:"not null;size:20;index"`
	Query           string    `gorm:"size:500"`
	ResultCount     int       `gorm:"not null;default:0"`
	DestinationName string    `gorm:"size:255"`
	DestinationLat  float64   `gorm:""`
	DestinationLon  float64   `gorm:""`
	DistanceMeters  float64   `gorm:""`
	TravelSeconds   int64     `gorm:""`
	OccurredAt      time.Time `gorm:"not null;index"`
	CreatedAt       time.Time `gorm:"not null"`
}

// TableName returns the table name for the GORM model.
func (HistoryModel) TableName() string {
	return "workflow_history"
}

// GormHistoryRepository is the GORM-based implementation of history.Repository.
type GormHistoryRepository struct {
	db *gorm.DB
}

// NewGormHistoryRepository creates a new GormHistoryRepository.
func NewGormHistoryRepository(db *gorm.DB) *GormHistoryRepository {
	return &GormHistoryRepository{db: db}
}

// Save inserts an entry, ignoring duplicates of an already recorded event.
func (r *GormHistoryRepository) Save(ctx context.Context, entry *history.Entry) error {
	model := toHistoryModel(entry)
	if err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "event_id"}}, DoNothing: true}).
		Create(model).Error; err != nil {
		return fmt.Errorf("failed to save history entry: %w", err)
	}
	return nil
}

// ListRecent returns entries newest first. An empty kind matches every kind.
func (r *GormHistoryRepository) ListRecent(ctx context.Context, kind history.Kind, page, limit int) ([]*history.Entry, int64, error) {
	query := r.db.WithContext(ctx).Model(&HistoryModel{})
	if kind != "" {
		query = query.Where("kind = ?", string(kind))
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count history: %w", err)
	}

	var models []HistoryModel
	offset := (page - 1) * limit
	if err := query.
		Order("occurred_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&models).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list history: %w", err)
	}

	entries := make([]*history.Entry, len(models))
	for i := range models {
		entries[i] = toDomainHistory(&models[i])
	}
	return entries, total, nil
}

// CountByKind returns entry counts grouped by kind.
func (r *GormHistoryRepository) CountByKind(ctx context.Context) (map[string]int64, error) {
	type kindCount struct {
		Kind  string
		Count int64
	}
	var results []kindCount
	if err := r.db.WithContext(ctx).Model(&HistoryModel{}).
		Select("kind, count(*) as count").
		Group("kind").
		Find(&results).Error; err != nil {
		return nil, fmt.Errorf("failed to count by kind: %w", err)
	}

	counts := make(map[string]int64)
	for _, kc := range results {
		counts[kc.Kind] = kc.Count
	}
	return counts, nil
}

// TopQueries returns the most frequent non-empty search queries, failed or not.
func (r *GormHistoryRepository) TopQueries(ctx context.Context, limit int) ([]history.QueryCount, error) {
	var results []history.QueryCount
	if err := r.db.WithContext(ctx).Model(&HistoryModel{}).
		Select("query, count(*) as count").
		Where("kind IN ? AND query <> ''", []string{string(history.KindSearch), string(history.KindSearchFailed)}).
		Group("query").
		Order("count DESC, query ASC").
		Limit(limit).
		Find(&results).Error; err != nil {
		return nil, fmt.Errorf("failed to get top queries: %w", err)
	}
	return results, nil
}

func toHistoryModel(e *history.Entry) *HistoryModel {
	return &HistoryModel{
		ID:              e.ID(),
		EventID:         e.EventID(),
		SessionID:       e.SessionID(),
		Kind:            string(e.Kind()),
		Query:           e.Query(),
		ResultCount:     e.ResultCount(),
		DestinationName: e.DestinationName(),
		DestinationLat:  e.DestinationLat(),
		DestinationLon:  e.DestinationLon(),
		DistanceMeters:  e.DistanceMeters(),
		TravelSeconds:   e.TravelSeconds(),
		OccurredAt:      e.OccurredAt(),
		CreatedAt:       e.CreatedAt(),
	}
}

func toDomainHistory(m *HistoryModel) *history.Entry {
	return history.Reconstruct(
		m.ID,
		m.EventID,
		m.SessionID,
		history.Kind(m.Kind),
		m.Query,
		m.ResultCount,
		m.DestinationName,
		m.DestinationLat,
		m.DestinationLon,
		m.DistanceMeters,
		m.TravelSeconds,
		m.OccurredAt,
		m.CreatedAt,
	)
}
