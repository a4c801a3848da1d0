package coinbase

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// OptionalDecimal is a decimal field the API sometimes returns as "", null,
// or garbage when no data is available (e.g. Product.Price on an illiquid
// pair). Such values decode as not Valid instead of failing the whole
// response.
type OptionalDecimal struct {
	Decimal decimal.Decimal
	Valid   bool
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *OptionalDecimal) UnmarshalJSON(data []byte) error {
	d.Decimal = decimal.Decimal{}
	d.Valid = false

	if string(data) == "null" {
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		// Bare numeric literal.
		s = string(data)
	}
	if s == "" {
		return nil
	}

	v, err := decimal.NewFromString(s)
	if err != nil {
		// The API occasionally sends unparseable placeholders; treat them
		// the same as missing data.
		return nil
	}

	d.Decimal = v
	d.Valid = true
	return nil
}

// MarshalJSON implements json.Marshaler.
func (d OptionalDecimal) MarshalJSON() ([]byte, error) {
	if !d.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(d.Decimal)
}

func (d OptionalDecimal) String() string {
	if !d.Valid {
		return ""
	}
	return d.Decimal.String()
}
