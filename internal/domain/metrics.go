package domain

import "github.com/shopspring/decimal"

// XIRR is an optional internal rate of return. High-frequency rebalancing
// routinely produces cash-flow sequences with no findable root, so absence
// is an expected outcome, not an error. Rate is meaningless when Valid is
// false; Note says why.
type XIRR struct {
	Rate  decimal.Decimal // annualized rate in percent
	Valid bool            // whether the root-finder converged
	Note  string          // "converged" or the reason it did not
}

// Metrics is the result of one position analysis. Computed once per run and
// never mutated. Rates are percentages, monetary values USD.
type Metrics struct {
	Wallet         string          // display label for the wallet
	Blocks         string          // block range or date range label
	InitialCapital decimal.Decimal // |cash flow| of the first action
	FinalCapital   decimal.Decimal // total withdrawn incl. collected fees
	NetProfit      decimal.Decimal // withdrawn minus deployed
	XIRR           XIRR            // internal rate of return, optional
	TWR            decimal.Decimal // time-weighted return over rebalance periods
	APR            decimal.Decimal // simple annualized rate
	APY            decimal.Decimal // daily-compounded annual yield
	DivergenceLoss decimal.Decimal // terminal-price divergence proxy, positive = unfavorable
	VsHodl         decimal.Decimal // net profit minus buy-and-hold return, USD
	VsHodlAPR      decimal.Decimal // LP APR minus HODL APR
	HodlAPR        decimal.Decimal // annualized buy-and-hold rate
	RebalanceCount int             // withdraw-then-redeploy pairs under 5 minutes
	DaysActive     int             // whole days between first and last action, min 1
	BTCPriceStart  decimal.Decimal // implied cbBTC price at the first action
	BTCPriceEnd    decimal.Decimal // implied cbBTC price at the last action
}
