package entities

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// Ratio is the result of a guarded division. Defined is false when the
// denominator was zero; Value is then meaningless and reported as null.
type Ratio struct {
	Value   decimal.Decimal
	Defined bool
}

// SafeDivide returns num/den, undefined when den is zero
func SafeDivide(num, den decimal.Decimal) Ratio {
	if den.IsZero() {
		return Ratio{}
	}
	return Ratio{Value: num.Div(den), Defined: true}
}

// Percent returns num/den*100, undefined when den is zero
func Percent(num, den decimal.Decimal) Ratio {
	r := SafeDivide(num, den)
	if r.Defined {
		r.Value = r.Value.Mul(hundred)
	}
	return r
}

// Round rounds a defined value to places
func (r Ratio) Round(places int32) Ratio {
	if !r.Defined {
		return r
	}
	return Ratio{Value: r.Value.Round(places), Defined: true}
}

func (r Ratio) String() string {
	if !r.Defined {
		return "undefined"
	}
	return r.Value.String()
}

// StringFixed renders a defined value with a fixed number of decimals
func (r Ratio) StringFixed(places int32) string {
	if !r.Defined {
		return "undefined"
	}
	return r.Value.StringFixed(places)
}

func (r Ratio) MarshalJSON() ([]byte, error) {
	if !r.Defined {
		return []byte("null"), nil
	}
	return json.Marshal(r.Value)
}

func (r *Ratio) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*r = Ratio{}
		return nil
	}
	var v decimal.Decimal
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*r = Ratio{Value: v, Defined: true}
	return nil
}
