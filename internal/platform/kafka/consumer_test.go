package kafka

import (
	"context"
	"errors"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestHandleWithRetry_NoDelayAfterLastAttempt(t *testing.T) {
	c := &Consumer{logger: zap.NewNop(), retryDelay: 50 * time.Millisecond}
	calls := 0
	handler := func(context.Context, kafkago.Message) error {
		calls++
		return errors.New("boom")
	}

	start := time.Now()
	c.handleWithRetry(context.Background(), kafkago.Message{Offset: 7}, handler)
	elapsed := time.Since(start)

	assert.Equal(t, maxHandlerAttempts, calls)
	// Waits happen only between attempts: 50ms + 100ms.
	assert.GreaterOrEqual(t, elapsed, 150*time.Millisecond)
	assert.Less(t, elapsed, 290*time.Millisecond)
}

func TestHandleWithRetry_StopsOnSuccess(t *testing.T) {
	c := &Consumer{logger: zap.NewNop(), retryDelay: time.Millisecond}
	calls := 0
	handler := func(context.Context, kafkago.Message) error {
		calls++
		if calls < 2 {
			return errors.New("transient")
		}
		return nil
	}

	c.handleWithRetry(context.Background(), kafkago.Message{}, handler)

	assert.Equal(t, 2, calls)
}

func TestHandleWithRetry_CancelledContextStopsRetrying(t *testing.T) {
	c := &Consumer{logger: zap.NewNop(), retryDelay: time.Hour}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	calls := 0

	c.handleWithRetry(ctx, kafkago.Message{}, func(context.Context, kafkago.Message) error {
		calls++
		return errors.New("boom")
	})

	assert.Equal(t, 1, calls)
}
