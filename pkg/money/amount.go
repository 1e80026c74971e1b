// Package money carries prices as integer minor units so that cart and
// order arithmetic never touches floating point.
package money

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Amount is a count of cents.
type Amount int64

// FromMajor converts a decimal major-unit value (12.5) to cents, rounding
// half away from zero.
func FromMajor(v float64) Amount {
	return Amount(math.Round(v * 100))
}

func (a Amount) Major() float64 { return float64(a) / 100 }

// Times multiplies by a quantity.
func (a Amount) Times(qty int) Amount { return a * Amount(qty) }

// ApplyBasisPoints returns a*bps/10000 rounded half-up to the cent.
// 500 bps is 5%.
func (a Amount) ApplyBasisPoints(bps int64) Amount {
	n := int64(a) * bps
	q, r := n/10000, n%10000
	if r < 0 {
		r = -r
	}
	if r*2 >= 10000 {
		if n < 0 {
			q--
		} else {
			q++
		}
	}
	return Amount(q)
}

// String renders two decimals, e.g. "262.50".
func (a Amount) String() string {
	sign := ""
	v := int64(a)
	if v < 0 {
		sign = "-"
		v = -v
	}
	return fmt.Sprintf("%s%d.%02d", sign, v/100, v%100)
}

// MarshalJSON emits a JSON number in major units with no trailing zeros.
func (a Amount) MarshalJSON() ([]byte, error) {
	s := a.String()
	s = strings.TrimRight(strings.TrimRight(s, "0"), ".")
	if s == "" || s == "-" {
		s = "0"
	}
	return []byte(s), nil
}

func (a *Amount) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "null" || s == "" {
		*a = 0
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("money: invalid amount %q: %w", s, err)
	}
	*a = FromMajor(v)
	return nil
}
