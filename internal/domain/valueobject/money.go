package valueobject

import (
	"encoding/json"
	"strings"

	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var upper = cases.Upper(language.Und)

// Money es un importe decimal exacto ligado a un código de moneda (3-4 letras, mayúsculas).
type Money struct {
	amount   decimal.Decimal
	currency string
}

// NormalizeCurrency valida y pasa a mayúsculas el código de moneda.
func NormalizeCurrency(code string) (string, error) {
	c := upper.String(strings.TrimSpace(code))
	if len(c) < 3 || len(c) > 4 {
		return "", domain.InvalidArgument("currency", "currency must be a 3-4 letter code")
	}
	for _, r := range c {
		if r < 'A' || r > 'Z' {
			return "", domain.InvalidArgument("currency", "currency must be a 3-4 letter code")
		}
	}
	return c, nil
}

// NewMoney parsea el importe y valida la moneda.
func NewMoney(amount, currency string) (Money, error) {
	amount = strings.TrimSpace(amount)
	if amount == "" {
		return Money{}, domain.InvalidArgument("amount", "amount must not be empty")
	}
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return Money{}, domain.InvalidArgument("amount", "amount must be numeric: "+amount)
	}
	return MoneyFromDecimal(d, currency)
}

// MoneyFromDecimal construye Money redondeando a la escala de almacenamiento.
func MoneyFromDecimal(amount decimal.Decimal, currency string) (Money, error) {
	c, err := NormalizeCurrency(currency)
	if err != nil {
		return Money{}, err
	}
	return Money{amount: amount.Round(QuantityScale), currency: c}, nil
}

// ZeroMoney devuelve cero en la moneda indicada (se asume ya normalizada).
func ZeroMoney(currency string) Money {
	return Money{amount: decimal.Zero, currency: currency}
}

func (m Money) Amount() decimal.Decimal { return m.amount }
func (m Money) Currency() string        { return m.currency }
func (m Money) IsZero() bool            { return m.amount.IsZero() }
func (m Money) IsNegative() bool        { return m.amount.IsNegative() }

func (m Money) sameCurrency(o Money) error {
	if m.currency != o.currency {
		return domain.InvalidArgument("currency", "currency mismatch: "+m.currency+" vs "+o.currency)
	}
	return nil
}

func (m Money) Add(o Money) (Money, error) {
	if err := m.sameCurrency(o); err != nil {
		return Money{}, err
	}
	return Money{amount: m.amount.Add(o.amount), currency: m.currency}, nil
}

func (m Money) Sub(o Money) (Money, error) {
	if err := m.sameCurrency(o); err != nil {
		return Money{}, err
	}
	return Money{amount: m.amount.Sub(o.amount), currency: m.currency}, nil
}

// MulQuantity calcula importe × cantidad (× factores opcionales, ej. conversión UOM)
// a 8 decimales y redondea el resultado a 4.
func (m Money) MulQuantity(q Quantity, factors ...decimal.Decimal) Money {
	acc := m.amount.Mul(q.Decimal()).Round(IntermediateScale)
	for _, f := range factors {
		acc = acc.Mul(f).Round(IntermediateScale)
	}
	return Money{amount: acc.Round(QuantityScale), currency: m.currency}
}

// DivQuantity divide el importe por una cantidad (costo unitario a partir de un total).
func (m Money) DivQuantity(q Quantity) (Money, error) {
	if q.IsZero() {
		return Money{}, domain.InvalidArgument("quantity", "division by zero quantity")
	}
	return Money{amount: m.amount.DivRound(q.Decimal(), IntermediateScale).Round(QuantityScale), currency: m.currency}, nil
}

func (m Money) Equal(o Money) bool {
	return m.currency == o.currency && m.amount.Equal(o.amount)
}

func (m Money) String() string {
	return m.amount.StringFixed(QuantityScale) + " " + m.currency
}

type moneyJSON struct {
	Amount   string `json:"amount"`
	Currency string `json:"currency"`
}

func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(moneyJSON{Amount: m.amount.StringFixed(QuantityScale), Currency: m.currency})
}

func (m *Money) UnmarshalJSON(b []byte) error {
	var raw moneyJSON
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	parsed, err := NewMoney(raw.Amount, raw.Currency)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
