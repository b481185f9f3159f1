package notify

import (
	"strings"

	"github.com/shopspring/decimal"
)

// FormatBRL renders an amount as Brazilian currency: R$ 1.234,56
func FormatBRL(amount decimal.Decimal) string {
	fixed := amount.Abs().StringFixed(2)
	whole, cents, _ := strings.Cut(fixed, ".")

	var grouped strings.Builder
	for i, r := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			grouped.WriteByte('.')
		}
		grouped.WriteRune(r)
	}

	sign := ""
	if amount.IsNegative() {
		sign = "-"
	}
	return sign + "R$ " + grouped.String() + "," + cents
}
