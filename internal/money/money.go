// Package money holds every currency calculation the booking flow performs.
// Amounts are int64 minor units; the only rounding rule is half away from zero.
package money

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/Domenick1991/alphatravel/internal/domain"
	"golang.org/x/text/currency"
)

var ErrOverflow = errors.New("amount out of range")

// Exponent returns the number of minor-unit digits of an ISO 4217 code.
func Exponent(code string) (int, error) {
	unit, err := currency.ParseISO(code)
	if err != nil {
		return 0, fmt.Errorf("unknown currency %q: %w", code, err)
	}
	scale, _ := currency.Standard.Rounding(unit)
	return scale, nil
}

// ParseMinor converts a decimal string such as "300.00" into minor units.
// Fraction digits beyond exponent are rounded half-up.
func ParseMinor(value string, exponent int) (int64, error) {
	s := strings.TrimSpace(value)
	if s == "" {
		return 0, fmt.Errorf("empty amount")
	}
	neg := false
	if s[0] == '-' || s[0] == '+' {
		neg = s[0] == '-'
		s = s[1:]
	}

	intPart, fracPart, _ := strings.Cut(s, ".")
	if intPart == "" && fracPart == "" {
		return 0, fmt.Errorf("invalid amount %q", value)
	}

	var (
		result int64
		err    error
	)
	for _, r := range intPart {
		if r < '0' || r > '9' {
			return 0, fmt.Errorf("invalid amount %q", value)
		}
		if result, err = shift(result, int64(r-'0')); err != nil {
			return 0, fmt.Errorf("amount %q: %w", value, err)
		}
	}

	roundUp := false
	for i, r := range fracPart {
		if r < '0' || r > '9' {
			return 0, fmt.Errorf("invalid amount %q", value)
		}
		switch {
		case i < exponent:
			if result, err = shift(result, int64(r-'0')); err != nil {
				return 0, fmt.Errorf("amount %q: %w", value, err)
			}
		case i == exponent:
			roundUp = r >= '5'
		}
	}
	for i := len(fracPart); i < exponent; i++ {
		if result, err = shift(result, 0); err != nil {
			return 0, fmt.Errorf("amount %q: %w", value, err)
		}
	}
	if roundUp {
		if result == math.MaxInt64 {
			return 0, fmt.Errorf("amount %q: %w", value, ErrOverflow)
		}
		result++
	}
	if neg {
		result = -result
	}
	return result, nil
}

// shift appends one decimal digit to n.
func shift(n, digit int64) (int64, error) {
	if n > (math.MaxInt64-digit)/10 {
		return 0, ErrOverflow
	}
	return n*10 + digit, nil
}

// Percent applies a rate expressed in basis points (1500 = 15%).
func Percent(amount, basisPoints int64) int64 {
	return divRound(amount*basisPoints, 10_000)
}

// Commission is the platform fee on amount at ratePercent (5 = 5%).
func Commission(amount, ratePercent int64) int64 {
	return Percent(amount, ratePercent*100)
}

func divRound(n, d int64) int64 {
	if n < 0 {
		return -((-n + d/2) / d)
	}
	return (n + d/2) / d
}

// Policy is the checkout fee schedule.
type Policy struct {
	Currency       string
	ServiceFee     int64
	TaxBasisPoints int64
}

// DefaultPolicy is ₦25,000 flat fee plus 15% tax on the base fare.
var DefaultPolicy = Policy{Currency: "NGN", ServiceFee: 2_500_000, TaxBasisPoints: 1500}

// Checkout computes total = base + tax(base) + fee. Tax never applies to the fee.
func Checkout(base int64, p Policy) domain.Breakdown {
	tax := Percent(base, p.TaxBasisPoints)
	return domain.Breakdown{
		Currency:   p.Currency,
		Base:       base,
		Tax:        tax,
		ServiceFee: p.ServiceFee,
		Total:      base + tax + p.ServiceFee,
	}
}

// Converter turns foreign amounts into the base currency. Rates are whole
// base-currency units per one unit of the foreign currency.
type Converter struct {
	Base  string
	Rates map[string]int64
}

func NewConverter(base string, rates map[string]int64) Converter {
	normalized := make(map[string]int64, len(rates))
	for code, rate := range rates {
		normalized[strings.ToUpper(code)] = rate
	}
	return Converter{Base: strings.ToUpper(base), Rates: normalized}
}

// ToBase converts amount (minor units of from) into minor units of the base currency.
func (c Converter) ToBase(amount int64, from string) (int64, error) {
	from = strings.ToUpper(from)
	if from == c.Base {
		return amount, nil
	}
	rate, ok := c.Rates[from]
	if !ok || rate <= 0 {
		return 0, fmt.Errorf("no exchange rate %s->%s", from, c.Base)
	}
	fromExp, err := Exponent(from)
	if err != nil {
		return 0, err
	}
	toExp, err := Exponent(c.Base)
	if err != nil {
		return 0, err
	}

	scale := rate * pow10(toExp)
	if amount > math.MaxInt64/scale || amount < math.MinInt64/scale {
		return 0, fmt.Errorf("convert %d %s: %w", amount, from, ErrOverflow)
	}
	n := amount * scale
	return divRound(n, pow10(fromExp)), nil
}

// OfferTotal parses an offer's price and converts it to the base currency.
func (c Converter) OfferTotal(price domain.Price) (int64, error) {
	exp, err := Exponent(price.Currency)
	if err != nil {
		return 0, err
	}
	amount, err := ParseMinor(price.Total, exp)
	if err != nil {
		return 0, err
	}
	return c.ToBase(amount, price.Currency)
}

func pow10(n int) int64 {
	p := int64(1)
	for i := 0; i < n; i++ {
		p *= 10
	}
	return p
}
