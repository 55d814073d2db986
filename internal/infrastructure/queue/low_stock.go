// Package queue publica y consume eventos del núcleo en colas asynq (Redis).
package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/hibiken/asynq"

	"github.com/jhoicas/retail-core/internal/application/ports"
	"github.com/jhoicas/retail-core/pkg/logger"
)

const (
	// QueueDefault cola por defecto.
	QueueDefault = "default"
	// TaskLowStock alerta de producto por debajo del stock mínimo.
	TaskLowStock = "inventory:low_stock"
)

// NewLowStockTask serializa el evento. El id de tarea agrupa por producto y minuto
// para que varias salidas seguidas no disparen alertas duplicadas.
func NewLowStockTask(evt ports.LowStockEvent, queue string) (*asynq.Task, error) {
	if evt.OrgID == "" || evt.ProductID == "" {
		return nil, fmt.Errorf("low stock task: org y producto son obligatorios")
	}
	body, err := json.Marshal(evt)
	if err != nil {
		return nil, err
	}
	if queue == "" {
		queue = QueueDefault
	}
	id := fmt.Sprintf("low_stock:%s:%s:%s", evt.OrgID, evt.ProductID, evt.OccurredAt.UTC().Format("200601021504"))
	return asynq.NewTask(TaskLowStock, body,
		asynq.Queue(queue), asynq.TaskID(id), asynq.MaxRetry(5), asynq.Retention(24*time.Hour)), nil
}

// Notifier implementa ports.LowStockNotifier encolando en asynq.
type Notifier struct {
	client *asynq.Client
	queue  string
}

var _ ports.LowStockNotifier = (*Notifier)(nil)

// NewNotifier construye el publicador sobre un cliente asynq existente.
func NewNotifier(client *asynq.Client, queue string) *Notifier {
	return &Notifier{client: client, queue: queue}
}

// NotifyLowStock encola la alerta. Una alerta ya encolada para el mismo minuto no es error.
func (n *Notifier) NotifyLowStock(ctx context.Context, evt ports.LowStockEvent) error {
	task, err := NewLowStockTask(evt, n.queue)
	if err != nil {
		return err
	}
	if _, err := n.client.EnqueueContext(ctx, task); err != nil {
		if errors.Is(err, asynq.ErrTaskIDConflict) || errors.Is(err, asynq.ErrDuplicateTask) {
			return nil
		}
		return fmt.Errorf("encolar alerta de stock bajo: %w", err)
	}
	return nil
}

// LowStockHandler consume TaskLowStock. La entrega real (email, SMS) queda fuera del núcleo:
// aquí se registra la alerta para que un colector la reenvíe.
type LowStockHandler struct {
	log *logger.Logger
}

// NewLowStockHandler construye el consumidor.
func NewLowStockHandler(log *logger.Logger) *LowStockHandler {
	if log == nil {
		log = logger.Nop()
	}
	return &LowStockHandler{log: log.Named("low_stock_worker")}
}

// Handle procesa una tarea; payload inválido -> SkipRetry.
func (h *LowStockHandler) Handle(_ context.Context, t *asynq.Task) error {
	var evt ports.LowStockEvent
	if err := json.Unmarshal(t.Payload(), &evt); err != nil {
		return fmt.Errorf("payload inválido: %v: %w", err, asynq.SkipRetry)
	}
	if evt.OrgID == "" || evt.ProductID == "" {
		return fmt.Errorf("payload incompleto: %w", asynq.SkipRetry)
	}
	h.log.Warn().
		Str("org_id", evt.OrgID).
		Str("product_id", evt.ProductID).
		Str("sku", evt.SKU).
		Int64("quantity", evt.Quantity).
		Int64("min_stock_level", evt.MinStockLevel).
		Msg("alerta de stock bajo")
	return nil
}

// Worker servidor asynq con los handlers del núcleo registrados.
type Worker struct {
	server *asynq.Server
	mux    *asynq.ServeMux
}

// NewWorker registra TaskLowStock sobre la cola indicada.
func NewWorker(redisOpt asynq.RedisClientOpt, queue string, log *logger.Logger) *Worker {
	if queue == "" {
		queue = QueueDefault
	}
	srv := asynq.NewServer(redisOpt, asynq.Config{
		Concurrency: 2,
		Queues:      map[string]int{queue: 1},
	})
	mux := asynq.NewServeMux()
	mux.HandleFunc(TaskLowStock, NewLowStockHandler(log).Handle)
	return &Worker{server: srv, mux: mux}
}

// Run procesa tareas hasta que ctx se cancele.
func (w *Worker) Run(ctx context.Context) error {
	if err := w.server.Start(w.mux); err != nil {
		return fmt.Errorf("iniciar worker: %w", err)
	}
	<-ctx.Done()
	w.server.Shutdown()
	return nil
}
