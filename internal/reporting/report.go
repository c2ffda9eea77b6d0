// Package reporting renders an analyzed position as JSON, a sectioned text
// report, an executive summary or a CSV action dump. Renderers are pure
// functions over domain.Metrics; all decimal-to-float conversion happens
// here, at display time.
package reporting

import (
	"fmt"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// printer groups thousands in dollar amounts. Percentages stay ungrouped.
var printer = message.NewPrinter(language.English)

// xirrMisleadingAbove is the percent threshold past which an XIRR figure
// says more about rebalance cadence than about returns. Sub-daily
// compounding inflates the annualized rate beyond any useful reading.
var xirrMisleadingAbove = decimal.NewFromInt(10000)

// money renders a grouped dollar amount with cents.
func money(d decimal.Decimal) string {
	return printer.Sprintf("$%.2f", d.InexactFloat64())
}

// money0 renders a grouped whole-dollar amount.
func money0(d decimal.Decimal) string {
	return printer.Sprintf("$%.0f", d.InexactFloat64())
}

// signedMoney renders a grouped dollar amount with cents and an explicit
// sign ahead of the dollar mark.
func signedMoney(d decimal.Decimal) string {
	f := d.InexactFloat64()
	if f < 0 {
		return printer.Sprintf("-$%.2f", -f)
	}
	return printer.Sprintf("+$%.2f", f)
}

// signedDollars renders an ungrouped whole-dollar amount with an explicit
// sign, rounding to the nearest dollar.
func signedDollars(d decimal.Decimal) string {
	f := d.InexactFloat64()
	if f < 0 {
		return fmt.Sprintf("-$%.0f", -f)
	}
	return fmt.Sprintf("+$%.0f", f)
}

// truncDollars renders an amount truncated toward zero, without a sign.
func truncDollars(d decimal.Decimal) string {
	return fmt.Sprintf("$%d", d.Abs().IntPart())
}

// signedTruncDollars renders an amount truncated toward zero with an
// explicit sign.
func signedTruncDollars(d decimal.Decimal) string {
	if d.Sign() < 0 {
		return fmt.Sprintf("-$%d", d.Abs().IntPart())
	}
	return fmt.Sprintf("+$%d", d.IntPart())
}

// pct0 renders a rate rounded to whole percent.
func pct0(d decimal.Decimal) string {
	return fmt.Sprintf("%.0f%%", d.InexactFloat64())
}

// pct2 renders a rate with two decimals.
func pct2(d decimal.Decimal) string {
	return fmt.Sprintf("%.2f%%", d.InexactFloat64())
}

// signedPct0 renders a rate rounded to whole percent with an explicit sign.
func signedPct0(d decimal.Decimal) string {
	return fmt.Sprintf("%+.0f%%", d.InexactFloat64())
}

// changePct returns the percent change from start to end, zero when the
// start value is zero.
func changePct(start, end decimal.Decimal) float64 {
	s := start.InexactFloat64()
	if s == 0 {
		return 0
	}
	return (end.InexactFloat64()/s - 1) * 100
}
