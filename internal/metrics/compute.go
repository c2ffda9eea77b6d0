package metrics

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"aerodrome-lp-lab/internal/domain"
)

// rebalanceWindow is the maximum gap between a withdraw and the next
// deposit for the pair to count as one repositioning of the range.
const rebalanceWindow = 5 * time.Minute

// dateRange holds the analysis period boundaries. days is floored to whole
// days and never less than one, so same-day histories still annualize.
type dateRange struct {
	first time.Time
	last  time.Time
	days  int
}

func computeDateRange(actions []domain.Action) dateRange {
	first := actions[0].Timestamp
	last := actions[len(actions)-1].Timestamp
	days := int(last.Sub(first) / (24 * time.Hour))
	if days < 1 {
		days = 1
	}
	return dateRange{first: first, last: last, days: days}
}

// tokenFlows aggregates per-asset token movement across the history.
type tokenFlows struct {
	cbbtcIn   decimal.Decimal // cbBTC deposited into the position
	usdcIn    decimal.Decimal // USDC deposited into the position
	cbbtcOut  decimal.Decimal // cbBTC withdrawn
	usdcOut   decimal.Decimal // USDC withdrawn
	cbbtcFees decimal.Decimal // cbBTC received as collected fees
	usdcFees  decimal.Decimal // USDC received as collected fees
	cbbtcNet  decimal.Decimal // out minus in; negative while tokens remain deployed
	usdcNet   decimal.Decimal // out minus in
}

func computeTokenFlows(actions []domain.Action) tokenFlows {
	var f tokenFlows
	for _, act := range actions {
		switch {
		case act.Event.IsDeposit():
			f.cbbtcIn = f.cbbtcIn.Add(act.CbBTC)
			f.usdcIn = f.usdcIn.Add(act.USDC)
		case act.Event.IsWithdraw():
			f.cbbtcOut = f.cbbtcOut.Add(act.CbBTC)
			f.usdcOut = f.usdcOut.Add(act.USDC)
		case act.Event.IsFeeCollect():
			f.cbbtcFees = f.cbbtcFees.Add(act.CbBTC)
			f.usdcFees = f.usdcFees.Add(act.USDC)
		}
	}
	f.cbbtcNet = f.cbbtcOut.Sub(f.cbbtcIn)
	f.usdcNet = f.usdcOut.Sub(f.usdcIn)
	return f
}

// cashFlows aggregates USD-denominated capital movement. Fee collections
// count toward withdrawn: collected fees are capital returned to the
// wallet.
type cashFlows struct {
	initial   decimal.Decimal // absolute cash flow of the very first action
	deployed  decimal.Decimal // total absolute cash flow across deposits
	withdrawn decimal.Decimal // withdraws plus fee collections
	net       decimal.Decimal // withdrawn minus deployed
}

func computeCashFlows(actions []domain.Action) cashFlows {
	c := cashFlows{initial: actions[0].CashFlow.Abs()}
	for _, act := range actions {
		switch {
		case act.Event.IsDeposit():
			c.deployed = c.deployed.Add(act.CashFlow.Abs())
		case act.Event.IsWithdraw(), act.Event.IsFeeCollect():
			c.withdrawn = c.withdrawn.Add(act.CashFlow)
		}
	}
	c.net = c.withdrawn.Sub(c.deployed)
	return c
}

// isRebalancePair reports whether curr withdrawing and next depositing
// within the rebalance window form one repositioning. The window bound is
// strict: a gap of exactly five minutes does not qualify.
func isRebalancePair(curr, next domain.Action) bool {
	if !curr.Event.IsWithdraw() || !next.Event.IsDeposit() {
		return false
	}
	return next.Timestamp.Sub(curr.Timestamp) < rebalanceWindow
}

func countRebalances(actions []domain.Action) int {
	count := 0
	for i := 0; i < len(actions)-1; i++ {
		if isRebalancePair(actions[i], actions[i+1]) {
			count++
		}
	}
	return count
}

// computeTWR compounds the period return of every rebalance pair into a
// time-weighted return percentage. A pair that redeployed nothing
// contributes no period.
func computeTWR(actions []domain.Action) decimal.Decimal {
	twr := one
	for i := 0; i < len(actions)-1; i++ {
		if !isRebalancePair(actions[i], actions[i+1]) {
			continue
		}
		withdrawn := actions[i].CashFlow
		redeployed := actions[i+1].CashFlow.Abs()
		if !redeployed.IsPositive() {
			continue
		}
		periodReturn := withdrawn.Sub(redeployed).DivRound(redeployed, divPrecision)
		twr = twr.Mul(one.Add(periodReturn))
	}
	return twr.Sub(one).Mul(hundred)
}

// computeAPRAPY derives simple and compounded annualized rates from the
// net cash flow. Zero initial capital yields zeros rather than a division
// error.
func computeAPRAPY(c cashFlows, days int) (apr, apy decimal.Decimal, err error) {
	if c.initial.IsZero() || days == 0 {
		return decimal.Zero, decimal.Zero, nil
	}
	daily := c.net.DivRound(c.initial, divPrecision).DivRound(decimal.NewFromInt(int64(days)), divPrecision)
	apr = daily.Mul(daysPerYear).Mul(hundred)

	compounded, err := one.Add(daily).PowWithPrecision(daysPerYear, divPrecision)
	if err != nil {
		return decimal.Zero, decimal.Zero, fmt.Errorf("compound daily return: %w", err)
	}
	apy = compounded.Sub(one).Mul(hundred)
	return apr, apy, nil
}

// computeDivergenceLoss values the net cbBTC movement at the final implied
// price against the net USDC movement. Positive means the pool's internal
// rebalancing converted tokens unfavorably compared to holding them.
func computeDivergenceLoss(f tokenFlows, prices domain.PriceSeries) decimal.Decimal {
	return f.cbbtcNet.Abs().Mul(prices.Last).Sub(f.usdcNet)
}

// computeVsHodl compares realized net profit with leaving the first
// deposit's tokens untouched between the first and last implied prices.
func computeVsHodl(actions []domain.Action, c cashFlows, prices domain.PriceSeries) decimal.Decimal {
	first := actions[0]
	initialValue := first.CbBTC.Mul(prices.First).Add(first.USDC)
	hodlValue := first.CbBTC.Mul(prices.Last).Add(first.USDC)
	return c.net.Sub(hodlValue.Sub(initialValue))
}

// computeHodlMetrics annualizes the buy-and-hold return of the first
// deposit and the LP-minus-hodl APR spread.
func computeHodlMetrics(actions []domain.Action, c cashFlows, prices domain.PriceSeries, days int) (hodlAPR, vsHodlAPR decimal.Decimal) {
	if days == 0 {
		return decimal.Zero, decimal.Zero
	}
	first := actions[0]
	initialValue := first.CbBTC.Mul(prices.First).Add(first.USDC)
	hodlValue := first.CbBTC.Mul(prices.Last).Add(first.USDC)
	hodlReturn := hodlValue.Sub(initialValue)

	daysDec := decimal.NewFromInt(int64(days))
	hodlAPR = decimal.Zero
	if initialValue.IsPositive() {
		hodlAPR = hodlReturn.DivRound(initialValue, divPrecision).
			DivRound(daysDec, divPrecision).
			Mul(daysPerYear).Mul(hundred)
	}
	lpAPR := decimal.Zero
	if c.initial.IsPositive() {
		lpAPR = c.net.DivRound(c.initial, divPrecision).
			DivRound(daysDec, divPrecision).
			Mul(daysPerYear).Mul(hundred)
	}
	return hodlAPR, lpAPR.Sub(hodlAPR)
}
