package http

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/retail-core/internal/domain/tenant"
	"github.com/jhoicas/retail-core/internal/infrastructure/cache"
)

// HeaderIdempotencyKey cabecera enviada por la cola offline del cliente.
const HeaderIdempotencyKey = "Idempotency-Key"

// IdempotencyStore reserva llaves y guarda respuestas (Redis en producción).
type IdempotencyStore interface {
	Begin(ctx context.Context, org tenant.ID, key string) (*cache.StoredResponse, error)
	Complete(ctx context.Context, org tenant.ID, key string, resp cache.StoredResponse) error
	Release(ctx context.Context, org tenant.ID, key string) error
}

// Idempotency repite la respuesta guardada cuando una mutación llega otra vez con la misma llave.
// Respuestas 5xx liberan la llave para que el cliente pueda reintentar.
// Sin store o sin cabecera la petición pasa directo.
func Idempotency(store IdempotencyStore) fiber.Handler {
	return func(c *fiber.Ctx) error {
		clientKey := c.Get(HeaderIdempotencyKey)
		if store == nil || clientKey == "" || c.Method() == fiber.MethodGet {
			return c.Next()
		}
		key := endpointKey(c, clientKey)
		org, err := OrgID(c)
		if err != nil {
			return writeError(c, err)
		}
		ctx := c.UserContext()
		stored, err := store.Begin(ctx, org, key)
		if err != nil {
			return writeError(c, err)
		}
		if stored != nil {
			c.Set("Idempotent-Replayed", "true")
			if stored.ContentType != "" {
				c.Set(fiber.HeaderContentType, stored.ContentType)
			}
			return c.Status(stored.Status).Send(stored.Body)
		}

		if err := c.Next(); err != nil {
			releaseKey(store, org, key)
			return err
		}
		status := c.Response().StatusCode()
		if status >= fiber.StatusInternalServerError {
			releaseKey(store, org, key)
			return nil
		}
		resp := cache.StoredResponse{
			Status:      status,
			ContentType: string(c.Response().Header.ContentType()),
			Body:        append([]byte(nil), c.Response().Body()...),
		}
		if err := store.Complete(ctx, org, key, resp); err != nil {
			releaseKey(store, org, key)
		}
		return nil
	}
}

// endpointKey ata la llave del cliente al método y la ruta: la misma llave en otro endpoint es otra petición.
func endpointKey(c *fiber.Ctx, clientKey string) string {
	return c.Method() + ":" + c.Path() + ":" + clientKey
}

// releaseKey usa un contexto propio: la petición puede haberse cancelado.
func releaseKey(store IdempotencyStore, org tenant.ID, key string) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_ = store.Release(ctx, org, key)
}
