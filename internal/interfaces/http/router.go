package http

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/retail-core/internal/application/billing"
	"github.com/jhoicas/retail-core/internal/application/inventory"
	"github.com/jhoicas/retail-core/internal/application/usecase"
	"github.com/jhoicas/retail-core/pkg/logger"
)

// HealthChecker lo implementa el almacenamiento (ping a la base).
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// RouterDeps dependencias para el router.
type RouterDeps struct {
	ProductUC    *usecase.ProductUseCase
	CustomerUC   *usecase.CustomerUseCase
	Ledger       *inventory.LedgerUseCase
	BillUC       *billing.BillUseCase
	CreditNoteUC *billing.CreditNoteUseCase
	ReceiptUC    *billing.ReceiptUseCase
	Idempotency  IdempotencyStore // nil desactiva la deduplicación
	Health       HealthChecker    // nil = siempre ok
	Log          *logger.Logger
	JWTSecret    string
	JWTIssuer    string
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	if deps.Log == nil {
		deps.Log = logger.Nop()
	}
	app.Use(RequestLogger(deps.Log))
	app.Get("/health", healthHandler(deps.Health))

	api := app.Group("/api", AuthMiddleware(deps.JWTSecret, deps.JWTIssuer), Idempotency(deps.Idempotency))

	products := api.Group("/products")
	productHandler := NewProductHandler(deps.ProductUC, deps.Ledger)
	products.Post("/", productHandler.Create)
	products.Get("/", productHandler.List)
	products.Get("/low-stock", productHandler.LowStock)
	products.Get("/near-expiry", productHandler.NearExpiry)
	products.Get("/sku/:sku", productHandler.GetBySKU)
	products.Get("/:id", productHandler.GetByID)
	products.Delete("/:id", productHandler.Archive)

	inv := api.Group("/inventory")
	inventoryHandler := NewInventoryHandler(deps.Ledger)
	inv.Post("/:productId/in", inventoryHandler.StockIn)
	inv.Post("/:productId/out", inventoryHandler.StockOut)
	inv.Post("/:productId/adjust", inventoryHandler.Adjust)
	inv.Get("/:productId/transactions", inventoryHandler.Transactions)

	customers := api.Group("/customers")
	customerHandler := NewCustomerHandler(deps.CustomerUC)
	customers.Post("/", customerHandler.Create)
	customers.Get("/", customerHandler.List)
	customers.Get("/:id", customerHandler.GetByID)

	bills := api.Group("/bills")
	billHandler := NewBillHandler(deps.BillUC, deps.CreditNoteUC, deps.ReceiptUC)
	bills.Post("/", billHandler.Create)
	bills.Get("/", billHandler.List)
	bills.Get("/:id", billHandler.GetByID)
	bills.Patch("/:id", billHandler.Update)
	bills.Delete("/:id", billHandler.Delete)
	bills.Post("/:id/items", billHandler.AddItem)
	bills.Delete("/:id/items/:itemId", billHandler.RemoveItem)
	bills.Post("/:id/finalize", billHandler.Finalize)
	bills.Get("/:id/receipt.pdf", billHandler.Receipt)
	bills.Post("/:id/credit-notes", billHandler.CreateCreditNote)
	bills.Get("/:id/credit-notes", billHandler.ListCreditNotes)
}

func healthHandler(hc HealthChecker) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if hc != nil {
			ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
			defer cancel()
			if err := hc.Ping(ctx); err != nil {
				return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "degraded"})
			}
		}
		return c.JSON(fiber.Map{"status": "ok"})
	}
}
