package inventory

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/retail-core/internal/application/dto"
	"github.com/jhoicas/retail-core/internal/application/ports"
	"github.com/jhoicas/retail-core/internal/domain"
	"github.com/jhoicas/retail-core/internal/domain/entity"
	"github.com/jhoicas/retail-core/internal/domain/repository"
	"github.com/jhoicas/retail-core/internal/domain/tenant"
	"github.com/jhoicas/retail-core/pkg/logger"
)

// LedgerUseCase es el libro de stock: única vía para mutar quantity_in_stock.
// Cada mutación bloquea la fila del producto (SELECT FOR UPDATE), valida, aplica el delta
// con guarda (quantity + delta >= 0) y agrega el registro de auditoría, todo en la misma transacción.
type LedgerUseCase struct {
	store    ports.Store
	notifier ports.LowStockNotifier
	log      *logger.Logger
	now      func() time.Time
}

// NewLedgerUseCase construye el caso de uso. notifier puede ser nil.
func NewLedgerUseCase(store ports.Store, notifier ports.LowStockNotifier, log *logger.Logger) *LedgerUseCase {
	if log == nil {
		log = logger.Nop()
	}
	return &LedgerUseCase{
		store:    store,
		notifier: notifier,
		log:      log.Named("stock_ledger"),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// StockInput entrada para StockIn / StockOut.
type StockInput struct {
	ProductID     string
	Quantity      int64
	ReferenceType string
	ReferenceID   string
	Notes         string
}

// AdjustInput entrada para Adjust. Delta con signo, distinto de cero.
type AdjustInput struct {
	ProductID string
	Delta     int64
	Reason    string
}

// StockIn suma quantity al stock y registra una transacción "in".
func (uc *LedgerUseCase) StockIn(ctx context.Context, org tenant.ID, in StockInput) (*dto.StockMovementResponse, error) {
	if in.ProductID == "" {
		return nil, domain.ErrInvalidInput
	}
	if in.Quantity <= 0 {
		return nil, domain.ErrInvalidQuantity
	}
	refType := referenceOrDefault(in.ReferenceType, entity.ReferenceManual)

	var product *entity.Product
	var rec *entity.InventoryTransaction
	err := uc.store.RunInTx(ctx, org, func(ctx context.Context, repos repository.Repositories) error {
		p, err := repos.Products.GetForUpdate(ctx, in.ProductID)
		if err != nil {
			return err
		}
		rec, err = uc.apply(ctx, repos, p, entity.TransactionTypeIn, in.Quantity, refType, in.ReferenceID, in.Notes)
		product = p
		return err
	})
	if err != nil {
		return nil, err
	}
	uc.log.Debug().Str("org_id", org.String()).Str("product_id", product.ID).
		Int64("qty", in.Quantity).Int64("balance", product.QuantityInStock).Msg("stock in")
	return movementResponse(product, rec), nil
}

// StockOut resta quantity del stock. Falla con ErrInsufficientStock si quantity > stock actual.
func (uc *LedgerUseCase) StockOut(ctx context.Context, org tenant.ID, in StockInput) (*dto.StockMovementResponse, error) {
	if in.ProductID == "" {
		return nil, domain.ErrInvalidInput
	}
	if in.Quantity <= 0 {
		return nil, domain.ErrInvalidQuantity
	}
	refType := referenceOrDefault(in.ReferenceType, entity.ReferenceManual)

	var product *entity.Product
	var rec *entity.InventoryTransaction
	err := uc.store.RunInTx(ctx, org, func(ctx context.Context, repos repository.Repositories) error {
		p, err := repos.Products.GetForUpdate(ctx, in.ProductID)
		if err != nil {
			return err
		}
		rec, err = uc.StockOutInTx(ctx, repos, p, in.Quantity, refType, in.ReferenceID, in.Notes)
		product = p
		return err
	})
	if err != nil {
		return nil, err
	}
	uc.log.Debug().Str("org_id", org.String()).Str("product_id", product.ID).
		Int64("qty", in.Quantity).Int64("balance", product.QuantityInStock).Msg("stock out")
	uc.NotifyIfLow(ctx, org, product)
	return movementResponse(product, rec), nil
}

// StockInInTx ejecuta una entrada dentro de la transacción del caller (ej: stock inicial al crear el producto).
func (uc *LedgerUseCase) StockInInTx(
	ctx context.Context,
	repos repository.Repositories,
	product *entity.Product,
	quantity int64,
	referenceType, referenceID, notes string,
) (*entity.InventoryTransaction, error) {
	if quantity <= 0 {
		return nil, domain.ErrInvalidQuantity
	}
	return uc.apply(ctx, repos, product, entity.TransactionTypeIn, quantity, referenceType, referenceID, notes)
}

// StockOutInTx ejecuta una salida usando los repositorios del caller (misma transacción).
// product debe haberse obtenido con GetForUpdate/LockForUpdate en esa transacción; se actualiza en sitio.
// Si retorna error el caller debe hacer rollback.
func (uc *LedgerUseCase) StockOutInTx(
	ctx context.Context,
	repos repository.Repositories,
	product *entity.Product,
	quantity int64,
	referenceType, referenceID, notes string,
) (*entity.InventoryTransaction, error) {
	if quantity <= 0 {
		return nil, domain.ErrInvalidQuantity
	}
	if quantity > product.QuantityInStock {
		return nil, domain.ErrInsufficientStock
	}
	rec, err := uc.apply(ctx, repos, product, entity.TransactionTypeOut, -quantity, referenceType, referenceID, notes)
	if errors.Is(err, domain.ErrNegativeStockViolation) {
		// La guarda del UPDATE detectó una carrera que el lock debió impedir.
		return nil, domain.ErrInsufficientStock
	}
	return rec, err
}

// Adjust aplica un delta con signo. delta == 0 -> ErrInvalidAdjustment; stock + delta < 0 -> ErrNegativeStockViolation.
func (uc *LedgerUseCase) Adjust(ctx context.Context, org tenant.ID, in AdjustInput) (*dto.StockMovementResponse, error) {
	if in.Delta == 0 || in.Delta == math.MinInt64 {
		return nil, domain.ErrInvalidAdjustment
	}
	if in.ProductID == "" || strings.TrimSpace(in.Reason) == "" {
		return nil, domain.ErrInvalidInput
	}

	var product *entity.Product
	var rec *entity.InventoryTransaction
	err := uc.store.RunInTx(ctx, org, func(ctx context.Context, repos repository.Repositories) error {
		p, err := repos.Products.GetForUpdate(ctx, in.ProductID)
		if err != nil {
			return err
		}
		after, ok := p.StockAfter(in.Delta)
		if !ok {
			return fmt.Errorf("%w: el saldo resultante excede el máximo", domain.ErrInvalidAdjustment)
		}
		if after < 0 {
			return domain.ErrNegativeStockViolation
		}
		rec, err = uc.apply(ctx, repos, p, entity.TransactionTypeAdjustment, in.Delta, entity.ReferenceAdjustment, "", in.Reason)
		product = p
		return err
	})
	if err != nil {
		return nil, err
	}
	uc.log.Info().Str("org_id", org.String()).Str("product_id", product.ID).
		Int64("delta", in.Delta).Int64("balance", product.QuantityInStock).Str("reason", in.Reason).Msg("ajuste de stock")
	if in.Delta < 0 {
		uc.NotifyIfLow(ctx, org, product)
	}
	return movementResponse(product, rec), nil
}

// apply es el único punto que escribe stock: UPDATE con guarda + registro append-only.
func (uc *LedgerUseCase) apply(
	ctx context.Context,
	repos repository.Repositories,
	product *entity.Product,
	txType entity.TransactionType,
	delta int64,
	referenceType, referenceID, notes string,
) (*entity.InventoryTransaction, error) {
	if _, ok := product.StockAfter(delta); !ok {
		return nil, fmt.Errorf("%w: el saldo resultante excede el máximo", domain.ErrInvalidQuantity)
	}
	newQty, err := repos.Products.ApplyStockDelta(ctx, product.ID, delta)
	if err != nil {
		return nil, err
	}
	now := uc.now()
	product.QuantityInStock = newQty
	product.UpdatedAt = now

	qty := delta
	if qty < 0 {
		qty = -qty
	}
	rec := &entity.InventoryTransaction{
		ID:            uuid.New().String(),
		OrgID:         product.OrgID,
		ProductID:     product.ID,
		Type:          txType,
		Quantity:      qty,
		Delta:         delta,
		BalanceAfter:  newQty,
		ReferenceType: referenceType,
		ReferenceID:   referenceID,
		Notes:         notes,
		CreatedAt:     now,
	}
	if err := repos.Transactions.Append(ctx, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// NotifyIfLow encola una alerta por cada producto bajo mínimo. Best effort: solo registra fallos.
// Debe llamarse después del commit.
func (uc *LedgerUseCase) NotifyIfLow(ctx context.Context, org tenant.ID, products ...*entity.Product) {
	if uc.notifier == nil {
		return
	}
	for _, p := range products {
		if p == nil || !p.IsLowStock() {
			continue
		}
		evt := ports.LowStockEvent{
			OrgID:         org.String(),
			ProductID:     p.ID,
			SKU:           p.SKU,
			Name:          p.Name,
			Quantity:      p.QuantityInStock,
			MinStockLevel: p.MinStockLevel,
			OccurredAt:    uc.now(),
		}
		if err := uc.notifier.NotifyLowStock(ctx, evt); err != nil {
			uc.log.Warn().Err(err).Str("org_id", org.String()).Str("product_id", p.ID).Msg("no se pudo encolar alerta de stock bajo")
		}
	}
}

// IsLowStock indica si el producto está por debajo de su stock mínimo.
func (uc *LedgerUseCase) IsLowStock(ctx context.Context, org tenant.ID, productID string) (bool, error) {
	repos, err := uc.store.Scope(org)
	if err != nil {
		return false, err
	}
	p, err := repos.Products.GetByID(ctx, productID)
	if err != nil {
		return false, err
	}
	return p.IsLowStock(), nil
}

// FindNearExpiry lista productos activos que vencen dentro de los próximos days días.
func (uc *LedgerUseCase) FindNearExpiry(ctx context.Context, org tenant.ID, days int) ([]dto.ProductResponse, error) {
	if days < 0 {
		return nil, domain.ErrInvalidInput
	}
	repos, err := uc.store.Scope(org)
	if err != nil {
		return nil, err
	}
	from := uc.now()
	list, err := repos.Products.ListExpiringBetween(ctx, from, from.AddDate(0, 0, days))
	if err != nil {
		return nil, err
	}
	return dto.NewProductResponses(list), nil
}

// ListTransactions devuelve el log de auditoría de un producto (más reciente primero).
func (uc *LedgerUseCase) ListTransactions(ctx context.Context, org tenant.ID, productID string, page dto.PageRequest) ([]dto.InventoryTransactionResponse, error) {
	page.DefaultPage()
	repos, err := uc.store.Scope(org)
	if err != nil {
		return nil, err
	}
	// El producto debe existir en la organización; si no, NotFound (no lista vacía).
	if _, err := repos.Products.GetByID(ctx, productID); err != nil {
		return nil, err
	}
	list, err := repos.Transactions.ListByProduct(ctx, productID, page.Limit, page.Offset)
	if err != nil {
		return nil, err
	}
	out := make([]dto.InventoryTransactionResponse, 0, len(list))
	for _, t := range list {
		out = append(out, dto.NewInventoryTransactionResponse(t))
	}
	return out, nil
}

func movementResponse(p *entity.Product, rec *entity.InventoryTransaction) *dto.StockMovementResponse {
	return &dto.StockMovementResponse{
		ProductID:       p.ID,
		QuantityInStock: p.QuantityInStock,
		LowStock:        p.IsLowStock(),
		Transaction:     dto.NewInventoryTransactionResponse(rec),
	}
}

func referenceOrDefault(ref, def string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return def
	}
	return ref
}
