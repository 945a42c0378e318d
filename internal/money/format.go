package money

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var symbols = map[string]string{
	"NGN": "₦",
	"USD": "$",
	"EUR": "€",
	"GBP": "£",
}

var printer = message.NewPrinter(language.English)

// Format renders minor units with grouping, e.g. Format(45000000, "NGN") = "₦450,000.00".
func Format(amount int64, code string) string {
	code = strings.ToUpper(code)
	symbol, ok := symbols[code]
	if !ok {
		symbol = code + " "
	}
	return format(amount, code, symbol)
}

// FormatCode is Format with the ISO code instead of a symbol, e.g. "NGN 450,000.00".
func FormatCode(amount int64, code string) string {
	code = strings.ToUpper(code)
	return format(amount, code, code+" ")
}

func format(amount int64, code, symbol string) string {
	exp, err := Exponent(code)
	if err != nil {
		exp = 2
	}

	sign := ""
	if amount < 0 {
		sign = "-"
		amount = -amount
	}
	unit := pow10(exp)
	major := printer.Sprintf("%d", amount/unit)

	if exp == 0 {
		return sign + symbol + major
	}
	return fmt.Sprintf("%s%s%s.%0*d", sign, symbol, major, exp, amount%unit)
}

// FormatDuration renders an ISO-8601 duration such as "PT2H35M" as "2h 35m".
func FormatDuration(iso string) string {
	s := strings.TrimPrefix(strings.ToUpper(iso), "P")
	var days, hours, minutes int
	datePart, timePart, _ := strings.Cut(s, "T")
	if d, ok := strings.CutSuffix(datePart, "D"); ok {
		days, _ = strconv.Atoi(d)
	}
	rest := timePart
	if h, after, ok := strings.Cut(rest, "H"); ok {
		hours, _ = strconv.Atoi(h)
		rest = after
	}
	if m, _, ok := strings.Cut(rest, "M"); ok {
		minutes, _ = strconv.Atoi(m)
	}

	hours += days * 24
	switch {
	case hours > 0 && minutes > 0:
		return fmt.Sprintf("%dh %dm", hours, minutes)
	case hours > 0:
		return fmt.Sprintf("%dh", hours)
	default:
		return fmt.Sprintf("%dm", minutes)
	}
}

func FormatClock(t time.Time) string {
	return t.Format("15:04")
}
