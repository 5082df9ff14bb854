package dashboard

import "github.com/shopspring/decimal"

// Money is a monetary amount that renders as a JSON number rounded to two
// decimals. Arithmetic is done on the underlying decimal at full precision.
type Money decimal.Decimal

func (m Money) String() string {
	return decimal.Decimal(m).StringFixed(2)
}

func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.String()), nil
}

func (m *Money) UnmarshalJSON(data []byte) error {
	var d decimal.Decimal
	if err := d.UnmarshalJSON(data); err != nil {
		return err
	}
	*m = Money(d)
	return nil
}
