package orders

import (
	"fmt"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.English)

// FormatMoney renders d with thousands separators and two decimals, e.g. 1,250.00.
func FormatMoney(d decimal.Decimal) string {
	neg := d.IsNegative()
	d = d.Abs().Round(2)
	whole := d.IntPart()
	frac := d.Sub(decimal.NewFromInt(whole)).StringFixed(2) // "0.xx"
	s := printer.Sprintf("%d", whole) + frac[1:]
	if neg {
		return "-" + s
	}
	return s
}

// ItemFraction renders partial progress such as "2/3 items".
func ItemFraction(n, total int) string {
	return fmt.Sprintf("%d/%d items", n, total)
}
