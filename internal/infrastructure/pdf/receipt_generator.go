// Package pdf genera el comprobante de venta de una factura finalizada.
//
// Layout de la página A4:
//
//	┌─────────────────────────────────────────────────────────────┐
//	│  HEADER: Nombre del comercio │  N° Factura + Fecha          │
//	│  CLIENTE: Nombre + código + contacto (o consumidor final)    │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TABLA: Cant | SKU | Descripción | P.Unit | Total            │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TOTALES: Subtotal / Descuento / Impuesto / TOTAL            │
//	│  NOTAS CRÉDITO: una fila por nota + saldo                    │
//	│  FOOTER: QR de verificación + método de pago                 │
//	└─────────────────────────────────────────────────────────────┘
package pdf

import (
	"context"
	"fmt"
	"strings"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/code"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
	"github.com/shopspring/decimal"

	appbilling "github.com/jhoicas/retail-core/internal/application/billing"
	"github.com/jhoicas/retail-core/internal/domain/entity"
)

// ── Paleta de colores ─────────────────────────────────────────────────────────

var (
	colorPrimary = &props.Color{Red: 0, Green: 70, Blue: 127}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
	colorWhite   = &props.Color{Red: 255, Green: 255, Blue: 255}
)

// ── Generator ─────────────────────────────────────────────────────────────────

// ReceiptGenerator implementa billing.ReceiptRenderer usando Maroto v2.
type ReceiptGenerator struct {
	storeName string
}

// NewReceiptGenerator construye el generador. storeName se imprime en la cabecera.
func NewReceiptGenerator(storeName string) *ReceiptGenerator {
	return &ReceiptGenerator{storeName: nonEmpty(storeName, "Comprobante de venta")}
}

// RenderReceipt genera el PDF y devuelve sus bytes.
func (g *ReceiptGenerator) RenderReceipt(_ context.Context, data appbilling.ReceiptData) ([]byte, error) {
	if data.Bill == nil {
		return nil, fmt.Errorf("pdf: factura nula")
	}
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 9}).
		WithTitle("Comprobante "+data.Bill.BillNumber, true).
		WithAuthor(g.storeName, true).
		Build()

	m := maroto.New(cfg)

	m.AddRows(headerRow(g.storeName, data.Bill))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))
	m.AddRows(customerRow(data.Customer))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))

	m.AddRows(tableHeaderRow())
	m.AddRows(tableLineRows(data.Lines)...)

	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))
	m.AddRows(totalsRow(data.Bill))

	if len(data.CreditNotes) > 0 {
		m.AddRows(line.NewRow(3))
		m.AddRows(creditNoteRows(data)...)
	}

	m.AddRows(line.NewRow(3))
	m.AddRows(line.NewRow(1, props.Line{Color: colorGray, Thickness: 0.3}))
	m.AddRows(footerRow(data.Bill))

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generar documento: %w", err)
	}
	return doc.GetBytes(), nil
}

// ── Secciones ─────────────────────────────────────────────────────────────────

// headerRow: nombre del comercio (izq) y N° factura + fecha de cierre (der).
func headerRow(storeName string, bill *entity.Bill) core.Row {
	fecha := bill.CreatedAt.Format("02/01/2006 15:04")
	if bill.FinalizedAt != nil {
		fecha = bill.FinalizedAt.Format("02/01/2006 15:04")
	}

	return row.New(18).Add(
		col.New(7).Add(
			text.New(storeName, props.Text{
				Style: fontstyle.Bold, Size: 13, Color: colorPrimary, Top: 1,
			}),
			text.New("Atendido por: "+nonEmpty(bill.FinalizedBy, "-"), props.Text{
				Size: 9, Top: 9, Color: colorGray,
			}),
		),
		col.New(5).Add(
			text.New("COMPROBANTE DE VENTA", props.Text{
				Style: fontstyle.Bold, Size: 8, Align: align.Right,
				Color: colorPrimary, Top: 1,
			}),
			text.New(bill.BillNumber, props.Text{
				Style: fontstyle.Bold, Size: 12, Align: align.Right, Top: 7,
			}),
			text.New("Fecha: "+fecha, props.Text{
				Size: 8, Align: align.Right, Top: 14, Color: colorGray,
			}),
		),
	)
}

// customerRow: datos del cliente; sin cliente se imprime consumidor final.
func customerRow(customer *entity.Customer) core.Row {
	if customer == nil {
		return row.New(8).Add(col.New(12).Add(
			text.New("CLIENTE: Consumidor final", props.Text{
				Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 2,
			}),
		))
	}
	return row.New(14).Add(
		col.New(12).Add(
			text.New("CLIENTE", props.Text{
				Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 1,
			}),
			text.New(customer.Name, props.Text{
				Style: fontstyle.Bold, Size: 10, Top: 6,
			}),
			text.New(fmt.Sprintf("Código: %s   |   Email: %s   |   Tel: %s",
				customer.Code,
				nonEmpty(customer.Email, "-"),
				nonEmpty(customer.Phone, "-"),
			), props.Text{Size: 8, Top: 12, Color: colorGray}),
		),
	)
}

// tableHeaderRow: cabecera de la tabla de líneas.
func tableHeaderRow() core.Row {
	h := func(label string, size int, a align.Type) core.Col {
		return col.New(size).Add(text.New(label, props.Text{
			Style: fontstyle.Bold, Size: 8, Align: a,
			Color: colorWhite, Top: 2, Left: 1, Right: 1,
		}))
	}
	return row.New(8).Add(
		h("Cant.", 1, align.Center),
		h("SKU", 2, align.Left),
		h("Descripción", 4, align.Left),
		h("Precio Unit.", 2, align.Right),
		h("Total", 3, align.Right),
	).WithStyle(&props.Cell{BackgroundColor: colorPrimary})
}

// tableLineRows: una fila por línea de la factura.
func tableLineRows(lines []appbilling.ReceiptLine) []core.Row {
	result := make([]core.Row, 0, len(lines))
	for _, l := range lines {
		result = append(result, row.New(7).Add(
			col.New(1).Add(text.New(
				fmt.Sprintf("%d", l.Quantity),
				props.Text{Size: 8, Align: align.Center, Top: 1},
			)),
			col.New(2).Add(text.New(
				l.SKU,
				props.Text{Size: 8, Align: align.Left, Top: 1, Left: 1},
			)),
			col.New(4).Add(text.New(
				l.ProductName,
				props.Text{Size: 8, Align: align.Left, Top: 1, Left: 1},
			)),
			col.New(2).Add(text.New(
				"$"+formatMoney(l.UnitPrice),
				props.Text{Size: 8, Align: align.Right, Top: 1, Right: 1},
			)),
			col.New(3).Add(text.New(
				"$"+formatMoney(l.TotalPrice),
				props.Text{Size: 8, Align: align.Right, Top: 1, Right: 1},
			)),
		))
	}
	return result
}

// totalsRow: bloque de totales alineado a la derecha.
func totalsRow(bill *entity.Bill) core.Row {
	label := func(s string, top float64) core.Component {
		return text.New(s, props.Text{
			Style: fontstyle.Bold, Size: 9, Align: align.Right, Right: 2, Top: top,
		})
	}
	value := func(s string, top float64) core.Component {
		return text.New(s, props.Text{Size: 9, Align: align.Right, Right: 1, Top: top})
	}
	grand := func(s string, top float64) core.Component {
		return text.New(s, props.Text{
			Style: fontstyle.Bold, Size: 10, Align: align.Right,
			Color: colorPrimary, Right: 1, Top: top,
		})
	}

	return row.New(26).Add(
		col.New(6),
		col.New(3).Add(
			label("Subtotal:", 1),
			label("Descuento:", 6),
			label("Impuesto:", 11),
			grand("TOTAL:", 17),
		),
		col.New(3).Add(
			value("$"+formatMoney(bill.TotalAmount), 1),
			value("-$"+formatMoney(bill.DiscountAmount), 6),
			value("$"+formatMoney(bill.TaxAmount), 11),
			grand("$"+formatMoney(bill.FinalAmount), 17),
		),
	)
}

// creditNoteRows: notas crédito emitidas y saldo neto.
func creditNoteRows(data appbilling.ReceiptData) []core.Row {
	rows := []core.Row{
		row.New(6).Add(col.New(12).Add(
			text.New("NOTAS CRÉDITO", props.Text{
				Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 1,
			}),
		)),
	}
	for _, n := range data.CreditNotes {
		rows = append(rows, row.New(5).Add(
			col.New(3).Add(text.New(n.CreatedAt.Format("02/01/2006"), props.Text{Size: 8, Color: colorGray})),
			col.New(6).Add(text.New(n.Reason, props.Text{Size: 8})),
			col.New(3).Add(text.New("-$"+formatMoney(n.Amount), props.Text{Size: 8, Align: align.Right, Right: 1})),
		))
	}
	net := data.Bill.FinalAmount.Sub(data.CreditedTotal)
	rows = append(rows, row.New(7).Add(
		col.New(9).Add(text.New("NETO DESPUÉS DE NOTAS:", props.Text{
			Style: fontstyle.Bold, Size: 9, Align: align.Right, Right: 2, Top: 1,
		})),
		col.New(3).Add(text.New("$"+formatMoney(net), props.Text{
			Style: fontstyle.Bold, Size: 9, Align: align.Right, Right: 1, Top: 1,
		})),
	))
	return rows
}

// footerRow: QR con la referencia de la factura + método de pago.
func footerRow(bill *entity.Bill) core.Row {
	qr := strings.Join([]string{bill.OrgID, bill.BillNumber, bill.ID, bill.FinalAmount.StringFixed(2)}, "|")
	return row.New(40).Add(
		col.New(4).Add(code.NewQr(qr, props.Rect{
			Percent: 95,
			Center:  true,
		})),
		col.New(8).Add(
			text.New("Método de pago: "+strings.ToUpper(bill.PaymentMethod), props.Text{
				Style: fontstyle.Bold, Size: 9, Top: 4, Left: 3,
			}),
			text.New("Escanea el código para verificar este comprobante.", props.Text{
				Size: 8, Top: 12, Left: 3, Color: colorGray,
			}),
			text.New("Las devoluciones se registran con nota crédito.", props.Text{
				Size: 7, Top: 20, Left: 3, Color: colorGray,
			}),
		),
	)
}

// ── helpers ───────────────────────────────────────────────────────────────────

func nonEmpty(s, fallback string) string {
	if s != "" {
		return s
	}
	return fallback
}

// formatMoney formatea con puntos de miles y coma decimal.
// Ej: 25000 -> "25.000,00", 1234.5 -> "1.234,50"
func formatMoney(d decimal.Decimal) string {
	s := d.Abs().StringFixed(2)
	intPart, frac := s, ""
	if i := strings.IndexByte(s, '.'); i >= 0 {
		intPart, frac = s[:i], s[i+1:]
	}
	n := len(intPart)
	buf := make([]byte, 0, n+n/3+3)
	for i, c := range []byte(intPart) {
		if i > 0 && (n-i)%3 == 0 {
			buf = append(buf, '.')
		}
		buf = append(buf, c)
	}
	out := string(buf) + "," + frac
	if d.IsNegative() {
		return "-" + out
	}
	return out
}
