package events

import (
	"context"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/Kilat-Pet-Delivery/service-mapsearch/internal/platform/kafka"
)

// HistoryRecorder persists workflow events. eventID makes recording idempotent.
type HistoryRecorder interface {
	RecordSearch(ctx context.Context, eventID string, evt SearchCompletedEvent) error
	RecordRoute(ctx context.Context, eventID string, evt RouteComputedEvent) error
	RecordRouteFailure(ctx context.Context, eventID string, evt RouteFailedEvent) error
}

// HistoryEventConsumer projects workflow events into the history store.
type HistoryEventConsumer struct {
	consumer *kafka.Consumer
	recorder HistoryRecorder
	logger   *zap.Logger
}

// NewHistoryEventConsumer creates a new HistoryEventConsumer.
func NewHistoryEventConsumer(
	brokers []string,
	groupID string,
	recorder HistoryRecorder,
	logger *zap.Logger,
) *HistoryEventConsumer {
	consumer := kafka.NewConsumer(brokers, groupID, TopicMapSearchEvents, logger)
	return &HistoryEventConsumer{
		consumer: consumer,
		recorder: recorder,
		logger:   logger,
	}
}

// Start begins consuming workflow events. This blocks until the context is cancelled.
func (c *HistoryEventConsumer) Start(ctx context.Context) error {
	return c.consumer.Consume(ctx, c.handleMessage)
}

// Close closes the underlying Kafka consumer.
func (c *HistoryEventConsumer) Close() error {
	return c.consumer.Close()
}

func (c *HistoryEventConsumer) handleMessage(ctx context.Context, msg kafkago.Message) error {
	cloudEvent, err := kafka.ParseCloudEvent(msg.Value)
	if err != nil {
		c.logger.Error("failed to parse cloud event from mapsearch topic",
			zap.Error(err),
			zap.String("raw", string(msg.Value)),
		)
		return nil // Don't retry malformed messages
	}
	return c.dispatch(ctx, cloudEvent)
}

func (c *HistoryEventConsumer) dispatch(ctx context.Context, cloudEvent kafka.CloudEvent) error {
	switch cloudEvent.Type {
	case SearchCompleted:
		var evt SearchCompletedEvent
		if err := cloudEvent.ParseData(&evt); err != nil {
			c.logger.Error("failed to parse SearchCompletedEvent data", zap.Error(err))
			return nil
		}
		return c.recorder.RecordSearch(ctx, cloudEvent.ID, evt)

	case RouteComputed:
		var evt RouteComputedEvent
		if err := cloudEvent.ParseData(&evt); err != nil {
			c.logger.Error("failed to parse RouteComputedEvent data", zap.Error(err))
			return nil
		}
		return c.recorder.RecordRoute(ctx, cloudEvent.ID, evt)

	case RouteFailed:
		var evt RouteFailedEvent
		if err := cloudEvent.ParseData(&evt); err != nil {
			c.logger.Error("failed to parse RouteFailedEvent data", zap.Error(err))
			return nil
		}
		return c.recorder.RecordRouteFailure(ctx, cloudEvent.ID, evt)

	default:
		c.logger.Debug("ignoring unhandled mapsearch event type",
			zap.String("type", cloudEvent.Type),
		)
		return nil
	}
}
