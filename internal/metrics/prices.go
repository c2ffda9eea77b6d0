package metrics

import (
	"github.com/shopspring/decimal"

	"aerodrome-lp-lab/internal/domain"
)

// ExtractPrices derives the implied cbBTC/USD price series from action
// cash flows. For every action that moves a nonzero cbBTC amount, the
// absolute cash flow minus the USDC leg divided by the cbBTC amount is the
// price the pool effectively assigned at that moment. Returns
// ErrNoPriceData when no action qualifies.
func ExtractPrices(actions []domain.Action) (domain.PriceSeries, error) {
	var prices []decimal.Decimal
	for _, act := range actions {
		if !act.CbBTC.IsPositive() {
			continue
		}
		implied := act.CashFlow.Abs().Sub(act.USDC).DivRound(act.CbBTC, divPrecision)
		prices = append(prices, implied)
	}
	if len(prices) == 0 {
		return domain.PriceSeries{}, ErrNoPriceData
	}

	sum := decimal.Zero
	for _, p := range prices {
		sum = sum.Add(p)
	}
	return domain.PriceSeries{
		First:   prices[0],
		Last:    prices[len(prices)-1],
		Average: sum.DivRound(decimal.NewFromInt(int64(len(prices))), divPrecision),
	}, nil
}
