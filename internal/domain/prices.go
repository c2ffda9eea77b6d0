package domain

import "github.com/shopspring/decimal"

// PriceSeries holds the cbBTC prices implied by a position's cash flows,
// in USDC per cbBTC.
type PriceSeries struct {
	First   decimal.Decimal // implied price of the first qualifying action
	Last    decimal.Decimal // implied price of the last qualifying action
	Average decimal.Decimal // arithmetic mean over all qualifying actions
}
