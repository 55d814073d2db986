// Package cache guarda en Redis las respuestas de peticiones con Idempotency-Key.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jhoicas/retail-core/internal/domain"
	"github.com/jhoicas/retail-core/internal/domain/tenant"
)

const pendingMarker = "pending"

// StoredResponse respuesta guardada para repetirla ante un reintento con la misma llave.
type StoredResponse struct {
	Status      int    `json:"status"`
	ContentType string `json:"content_type"`
	Body        []byte `json:"body"`
}

// IdempotencyStore reserva llaves con SET NX y guarda la respuesta final con TTL.
type IdempotencyStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewIdempotencyStore construye el store; ttl <= 0 usa 24h.
func NewIdempotencyStore(client *redis.Client, ttl time.Duration) *IdempotencyStore {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &IdempotencyStore{client: client, ttl: ttl}
}

func key(org tenant.ID, k string) string {
	return fmt.Sprintf("idem:%s:%s", org, k)
}

// Begin reserva la llave. Devuelve:
//   - (nil, nil) si la reserva es nueva y el llamador debe procesar la petición;
//   - (resp, nil) si ya hay una respuesta guardada para repetir;
//   - ErrIdempotencyConflict si otra petición con la misma llave sigue en curso.
func (s *IdempotencyStore) Begin(ctx context.Context, org tenant.ID, k string) (*StoredResponse, error) {
	if err := tenant.Require(org); err != nil {
		return nil, err
	}
	if k == "" {
		return nil, domain.ErrInvalidInput
	}
	ok, err := s.client.SetNX(ctx, key(org, k), pendingMarker, s.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: idempotency: %v", domain.ErrTransientStorage, err)
	}
	if ok {
		return nil, nil
	}
	raw, err := s.client.Get(ctx, key(org, k)).Bytes()
	if errors.Is(err, redis.Nil) {
		// Expiró entre SETNX y GET: se reintenta una vez.
		return s.Begin(ctx, org, k)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: idempotency: %v", domain.ErrTransientStorage, err)
	}
	if string(raw) == pendingMarker {
		return nil, domain.ErrIdempotencyConflict
	}
	var resp StoredResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("idempotency: respuesta guardada inválida: %w", err)
	}
	return &resp, nil
}

// Complete guarda la respuesta final para la llave reservada.
func (s *IdempotencyStore) Complete(ctx context.Context, org tenant.ID, k string, resp StoredResponse) error {
	raw, err := json.Marshal(resp)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, key(org, k), raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("%w: idempotency: %v", domain.ErrTransientStorage, err)
	}
	return nil
}

// Release libera la llave (la petición falló de forma reintentable).
func (s *IdempotencyStore) Release(ctx context.Context, org tenant.ID, k string) error {
	return s.client.Del(ctx, key(org, k)).Err()
}
