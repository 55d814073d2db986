package queue_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/retail-core/internal/application/ports"
	"github.com/jhoicas/retail-core/internal/infrastructure/queue"
	"github.com/jhoicas/retail-core/pkg/logger"
)

func sampleEvent() ports.LowStockEvent {
	return ports.LowStockEvent{
		OrgID: "org-a", ProductID: "p-1", SKU: "ARROZ-1", Name: "Arroz",
		Quantity: 2, MinStockLevel: 5, OccurredAt: time.Date(2024, 5, 10, 9, 30, 0, 0, time.UTC),
	}
}

func TestNewLowStockTask(t *testing.T) {
	task, err := queue.NewLowStockTask(sampleEvent(), "")
	require.NoError(t, err)
	assert.Equal(t, queue.TaskLowStock, task.Type())

	var got ports.LowStockEvent
	require.NoError(t, json.Unmarshal(task.Payload(), &got))
	assert.Equal(t, "p-1", got.ProductID)
	assert.Equal(t, int64(5), got.MinStockLevel)

	_, err = queue.NewLowStockTask(ports.LowStockEvent{ProductID: "p-1"}, "")
	assert.Error(t, err)
}

func TestLowStockHandler(t *testing.T) {
	h := queue.NewLowStockHandler(logger.Nop())
	ctx := context.Background()

	task, err := queue.NewLowStockTask(sampleEvent(), "")
	require.NoError(t, err)
	assert.NoError(t, h.Handle(ctx, task))

	err = h.Handle(ctx, asynq.NewTask(queue.TaskLowStock, []byte("{no-json")))
	assert.True(t, errors.Is(err, asynq.SkipRetry))

	err = h.Handle(ctx, asynq.NewTask(queue.TaskLowStock, []byte(`{"sku":"x"}`)))
	assert.True(t, errors.Is(err, asynq.SkipRetry))
}

func TestNotifier_EncolaUnaVezPorMinuto(t *testing.T) {
	mr := miniredis.RunT(t)
	client := asynq.NewClient(asynq.RedisClientOpt{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	n := queue.NewNotifier(client, "alerts")
	ctx := context.Background()
	require.NoError(t, n.NotifyLowStock(ctx, sampleEvent()))
	require.NoError(t, n.NotifyLowStock(ctx, sampleEvent()), "misma alerta en el mismo minuto no es error")

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	pending, err := rdb.LLen(ctx, "asynq:{alerts}:pending").Result()
	require.NoError(t, err)
	assert.Equal(t, int64(1), pending)
}
