package http_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/retail-core/internal/application/dto"
	"github.com/jhoicas/retail-core/internal/domain"
	apphttp "github.com/jhoicas/retail-core/internal/interfaces/http"
)

func TestErrorHandler_MapeoEstable(t *testing.T) {
	cases := []struct {
		err    error
		status int
		code   string
	}{
		{domain.ErrNotFound, http.StatusNotFound, "NOT_FOUND"},
		{fmt.Errorf("get product: %w", domain.ErrNotFound), http.StatusNotFound, "NOT_FOUND"},
		{domain.ErrInsufficientStock, http.StatusConflict, "INSUFFICIENT_STOCK"},
		{domain.ErrBillFinalized, http.StatusConflict, "BILL_FINALIZED"},
		{domain.ErrInvalidInput, http.StatusBadRequest, "VALIDATION"},
		{domain.ErrMissingTenantContext, http.StatusUnauthorized, "MISSING_TENANT"},
		{domain.ErrIdempotencyConflict, http.StatusConflict, "IDEMPOTENCY_IN_PROGRESS"},
		{fmt.Errorf("%w: lock timeout", domain.ErrTransientStorage), http.StatusServiceUnavailable, "TRANSIENT"},
		{fmt.Errorf("pq: tabla rota"), http.StatusInternalServerError, "INTERNAL"},
		{&domain.StockValidationError{ProductID: "p-9", Requested: 3, Available: 1}, http.StatusConflict, "STOCK_VALIDATION_FAILED"},
	}
	for _, tc := range cases {
		t.Run(tc.code, func(t *testing.T) {
			app := fiber.New(fiber.Config{ErrorHandler: apphttp.ErrorHandler})
			app.Get("/", func(*fiber.Ctx) error { return tc.err })

			resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil), -1)
			require.NoError(t, err)
			defer resp.Body.Close()

			assert.Equal(t, tc.status, resp.StatusCode)
			var body dto.ErrorResponse
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
			assert.Equal(t, tc.code, body.Code)
			assert.NotContains(t, body.Message, "tabla rota", "no se filtran detalles internos")

			switch tc.code {
			case "TRANSIENT":
				assert.True(t, body.Retryable)
				assert.Equal(t, "1", resp.Header.Get("Retry-After"))
			case "STOCK_VALIDATION_FAILED":
				assert.Equal(t, "p-9", body.ProductID)
			}
		})
	}
}
