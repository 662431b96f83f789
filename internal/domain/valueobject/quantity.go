package valueobject

import (
	"encoding/json"
	"strings"

	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/shopspring/decimal"
)

// Escalas canónicas: 4 decimales para almacenamiento, 8 para cálculos intermedios
// (conversión de UOM × costo unitario) antes del redondeo final.
const (
	QuantityScale     int32 = 4
	IntermediateScale int32 = 8
)

// Quantity es una cantidad decimal exacta con escala fija de 4 decimales.
// Inmutable: toda operación devuelve un valor nuevo. Nunca usa float.
type Quantity struct {
	d decimal.Decimal
}

// ZeroQuantity es el cero canónico ("0.0000").
var ZeroQuantity = Quantity{}

// NewQuantity parsea una cadena numérica y la normaliza a la escala canónica.
func NewQuantity(s string) (Quantity, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Quantity{}, domain.InvalidArgument("quantity", "quantity must not be empty")
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Quantity{}, domain.InvalidArgument("quantity", "quantity must be numeric: "+s)
	}
	return QuantityFromDecimal(d), nil
}

// MustQuantity es NewQuantity para literales en código y tests; entra en pánico si s no es numérico.
func MustQuantity(s string) Quantity {
	q, err := NewQuantity(s)
	if err != nil {
		panic(err)
	}
	return q
}

// QuantityFromDecimal redondea (half-up) a la escala canónica.
func QuantityFromDecimal(d decimal.Decimal) Quantity {
	return Quantity{d: d.Round(QuantityScale)}
}

// QuantityFromInt construye una cantidad entera.
func QuantityFromInt(n int64) Quantity {
	return Quantity{d: decimal.NewFromInt(n)}
}

func (q Quantity) Add(o Quantity) Quantity { return Quantity{d: q.d.Add(o.d)} }

// Sub puede producir un valor negativo (ajustes, devoluciones).
func (q Quantity) Sub(o Quantity) Quantity { return Quantity{d: q.d.Sub(o.d)} }

func (q Quantity) Neg() Quantity { return Quantity{d: q.d.Neg()} }

// Mul multiplica por un factor escalar pasando por la escala intermedia.
func (q Quantity) Mul(factor decimal.Decimal) Quantity {
	return q.MulScaled(factor)
}

// MulScaled encadena multiplicaciones redondeando cada paso a 8 decimales
// y el resultado final a 4.
func (q Quantity) MulScaled(factors ...decimal.Decimal) Quantity {
	acc := q.d
	for _, f := range factors {
		acc = acc.Mul(f).Round(IntermediateScale)
	}
	return QuantityFromDecimal(acc)
}

func (q Quantity) IsNegative() bool { return q.d.IsNegative() }
func (q Quantity) IsZero() bool     { return q.d.IsZero() }
func (q Quantity) IsPositive() bool { return q.d.IsPositive() }

func (q Quantity) GreaterThan(o Quantity) bool        { return q.d.GreaterThan(o.d) }
func (q Quantity) GreaterThanOrEqual(o Quantity) bool { return q.d.GreaterThanOrEqual(o.d) }
func (q Quantity) LessThan(o Quantity) bool           { return q.d.LessThan(o.d) }
func (q Quantity) Equal(o Quantity) bool              { return q.d.Equal(o.d) }
func (q Quantity) Cmp(o Quantity) int                 { return q.d.Cmp(o.d) }

// Decimal expone el valor para persistencia y cálculos de costo.
func (q Quantity) Decimal() decimal.Decimal { return q.d }

// String siempre lleva exactamente 4 decimales ("5" -> "5.0000").
func (q Quantity) String() string { return q.d.StringFixed(QuantityScale) }

// MinQuantity devuelve el menor de dos valores.
func MinQuantity(a, b Quantity) Quantity {
	if a.LessThan(b) {
		return a
	}
	return b
}

// SumQuantities suma exacta de una lista.
func SumQuantities(qs ...Quantity) Quantity {
	total := ZeroQuantity
	for _, q := range qs {
		total = total.Add(q)
	}
	return total
}

// MarshalJSON serializa como cadena con escala canónica.
func (q Quantity) MarshalJSON() ([]byte, error) {
	return json.Marshal(q.String())
}

// UnmarshalJSON acepta "12.5" o 12.5 (el número se lee como texto, nunca como float).
func (q *Quantity) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "null" {
		*q = ZeroQuantity
		return nil
	}
	parsed, err := NewQuantity(s)
	if err != nil {
		return err
	}
	*q = parsed
	return nil
}
