package entity

import "github.com/shopspring/decimal"

// MoneyScale decimales de los montos; igual a las columnas NUMERIC(14,2).
const MoneyScale = 2

// ValidAmount monto no negativo sin decimales más allá de MoneyScale ("10.50" sí, "10.505" no).
func ValidAmount(d decimal.Decimal) bool {
	return !d.IsNegative() && d.Equal(d.Truncate(MoneyScale))
}
