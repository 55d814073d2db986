package billing

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/retail-core/internal/application/dto"
	"github.com/jhoicas/retail-core/internal/application/ports"
	"github.com/jhoicas/retail-core/internal/domain"
	"github.com/jhoicas/retail-core/internal/domain/entity"
	"github.com/jhoicas/retail-core/internal/domain/repository"
	"github.com/jhoicas/retail-core/internal/domain/tenant"
	"github.com/jhoicas/retail-core/pkg/logger"
)

// CreditNoteUseCase correcciones financieras sobre facturas finalizadas. No toca stock:
// una devolución física se registra aparte como StockIn con referencia "return".
type CreditNoteUseCase struct {
	store ports.Store
	log   *logger.Logger
	now   func() time.Time
}

// NewCreditNoteUseCase construye el caso de uso.
func NewCreditNoteUseCase(store ports.Store, log *logger.Logger) *CreditNoteUseCase {
	if log == nil {
		log = logger.Nop()
	}
	return &CreditNoteUseCase{
		store: store,
		log:   log.Named("credit_notes"),
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// CreateCreditNote agrega una nota crédito. La suma de notas nunca supera final_amount (límite inclusivo).
func (uc *CreditNoteUseCase) CreateCreditNote(ctx context.Context, org tenant.ID, billID string, amount decimal.Decimal, reason string) (*dto.CreditNoteResponse, error) {
	reason = strings.TrimSpace(reason)
	if !amount.IsPositive() || !entity.ValidAmount(amount) || reason == "" {
		return nil, domain.ErrInvalidInput
	}

	var note *entity.CreditNote
	err := uc.store.RunInTx(ctx, org, func(ctx context.Context, repos repository.Repositories) error {
		// El lock de la cabecera evita que dos notas concurrentes pasen ambas el límite.
		bill, err := repos.Bills.GetForUpdate(ctx, billID)
		if err != nil {
			return err
		}
		if !bill.IsFinalized() {
			return domain.ErrBillNotFinalized
		}
		credited, err := repos.CreditNotes.SumByBill(ctx, bill.ID)
		if err != nil {
			return err
		}
		if credited.Add(amount).GreaterThan(bill.FinalAmount) {
			return domain.ErrCreditExceedsBill
		}
		note = &entity.CreditNote{
			ID:        uuid.New().String(),
			OrgID:     org.String(),
			BillID:    bill.ID,
			Amount:    amount,
			Reason:    reason,
			CreatedAt: uc.now(),
		}
		return repos.CreditNotes.Create(ctx, note)
	})
	if err != nil {
		return nil, err
	}
	uc.log.Info().Str("org_id", org.String()).Str("bill_id", billID).
		Str("amount", amount.StringFixed(2)).Msg("nota crédito registrada")
	resp := dto.NewCreditNoteResponse(note)
	return &resp, nil
}

// ListCreditNotes notas de la factura con el acumulado y el saldo restante.
func (uc *CreditNoteUseCase) ListCreditNotes(ctx context.Context, org tenant.ID, billID string) (*dto.CreditNoteListResponse, error) {
	repos, err := uc.store.Scope(org)
	if err != nil {
		return nil, err
	}
	bill, err := repos.Bills.GetByID(ctx, billID)
	if err != nil {
		return nil, err
	}
	notes, err := repos.CreditNotes.ListByBill(ctx, bill.ID)
	if err != nil {
		return nil, err
	}
	credited := decimal.Zero
	items := make([]dto.CreditNoteResponse, 0, len(notes))
	for _, n := range notes {
		credited = credited.Add(n.Amount)
		items = append(items, dto.NewCreditNoteResponse(n))
	}
	return &dto.CreditNoteListResponse{
		BillID:        bill.ID,
		FinalAmount:   bill.FinalAmount,
		CreditedTotal: credited,
		Remaining:     creditedRemaining(bill.FinalAmount, credited),
		Items:         items,
	}, nil
}

// creditedRemaining saldo acreditable: final - acumulado, nunca negativo.
func creditedRemaining(final, credited decimal.Decimal) decimal.Decimal {
	r := final.Sub(credited)
	if r.IsNegative() {
		return decimal.Zero
	}
	return r
}
