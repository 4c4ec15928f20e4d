package core

import (
	"bytes"
	"strconv"
	"strings"
)

type (
	// Amount is a decimal money value. Clients send it as either a JSON
	// number or a numeric string; both coerce to the same float value.
	Amount float64

	// Percent is an integer percentage. Accepts JSON numbers and numeric
	// strings; fractional input is truncated toward zero.
	Percent int
)

func (a *Amount) UnmarshalJSON(data []byte) error {
	s := string(bytes.Trim(bytes.TrimSpace(data), `"`))
	if s == "" || s == "null" {
		*a = 0
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return ErrInvalidAmount
	}
	*a = Amount(f)
	return nil
}

func (a Amount) Float64() float64 { return float64(a) }

func (p *Percent) UnmarshalJSON(data []byte) error {
	s := string(bytes.Trim(bytes.TrimSpace(data), `"`))
	if s == "" || s == "null" {
		*p = 0
		return nil
	}
	// Integer first, then float truncation for values like "80.0".
	if i, err := strconv.Atoi(s); err == nil {
		*p = Percent(i)
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return ErrInvalidThreshold
	}
	*p = Percent(int(f))
	return nil
}

func (p Percent) Int() int { return int(p) }

// ParseAmount coerces a decimal string to an Amount.
func ParseAmount(s string) (Amount, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	return Amount(f), nil
}
