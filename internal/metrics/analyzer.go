// Package metrics turns a position's action history into a performance
// record: capital totals, annualized rates, divergence loss and the
// hold-versus-provide comparison. Everything here is a pure function of
// already-loaded inputs, so analyses of different positions can run
// concurrently without coordination.
package metrics

import (
	"fmt"

	"github.com/shopspring/decimal"

	"aerodrome-lp-lab/internal/domain"
)

// divPrecision is the decimal-place budget for divisions and powers.
// Histories chain hundreds of small flows; per-step rounding has to stay
// far below reporting precision.
const divPrecision int32 = 50

var (
	one         = decimal.NewFromInt(1)
	two         = decimal.NewFromInt(2)
	negOne      = decimal.NewFromInt(-1)
	hundred     = decimal.NewFromInt(100)
	daysPerYear = decimal.NewFromInt(365)
)

// Analyzer computes the full metrics record for one position history.
type Analyzer struct {
	data           *domain.PositionData
	walletOverride string
	bracket        BracketPolicy
}

// AnalyzerOption configures an Analyzer.
type AnalyzerOption func(*Analyzer)

// WithWalletLabel sets the wallet label used when the dataset does not
// carry one.
func WithWalletLabel(wallet string) AnalyzerOption {
	return func(a *Analyzer) {
		a.walletOverride = wallet
	}
}

// WithBracketPolicy replaces the default XIRR bracket search policy.
func WithBracketPolicy(p BracketPolicy) AnalyzerOption {
	return func(a *Analyzer) {
		a.bracket = p
	}
}

// NewAnalyzer creates an Analyzer over a loaded position history.
func NewAnalyzer(data *domain.PositionData, opts ...AnalyzerOption) *Analyzer {
	a := &Analyzer{
		data:    data,
		bracket: DefaultBracketPolicy(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Analyze runs price extraction and every metric over the action history.
// Actions must be in chronological order. The input is never mutated; the
// returned record is complete or the error is fatal to the run.
func (a *Analyzer) Analyze() (*domain.Metrics, error) {
	actions := a.data.Actions
	if len(actions) == 0 {
		return nil, ErrNoActions
	}

	prices, err := ExtractPrices(actions)
	if err != nil {
		return nil, err
	}

	dates := computeDateRange(actions)
	tokens := computeTokenFlows(actions)
	cash := computeCashFlows(actions)

	apr, apy, err := computeAPRAPY(cash, dates.days)
	if err != nil {
		return nil, err
	}
	hodlAPR, vsHodlAPR := computeHodlMetrics(actions, cash, prices, dates.days)

	return &domain.Metrics{
		Wallet:         a.walletLabel(),
		Blocks:         a.blocksLabel(dates),
		InitialCapital: cash.initial,
		FinalCapital:   cash.withdrawn,
		NetProfit:      cash.net,
		XIRR:           SolveXIRR(cashFlowsOf(actions), a.bracket),
		TWR:            computeTWR(actions),
		APR:            apr,
		APY:            apy,
		DivergenceLoss: computeDivergenceLoss(tokens, prices),
		VsHodl:         computeVsHodl(actions, cash, prices),
		VsHodlAPR:      vsHodlAPR,
		HodlAPR:        hodlAPR,
		RebalanceCount: countRebalances(actions),
		DaysActive:     dates.days,
		BTCPriceStart:  prices.First,
		BTCPriceEnd:    prices.Last,
	}, nil
}

// cashFlowsOf projects actions onto dated cash flows for the XIRR solver.
func cashFlowsOf(actions []domain.Action) []CashFlow {
	flows := make([]CashFlow, len(actions))
	for i, act := range actions {
		flows[i] = CashFlow{Amount: act.CashFlow, At: act.Timestamp}
	}
	return flows
}

// walletLabel picks the display label: the dataset's recorded wallet wins,
// then the configured override, then a generic placeholder.
func (a *Analyzer) walletLabel() string {
	if a.data.Wallet != "" {
		return a.data.Wallet
	}
	if a.walletOverride != "" {
		return a.walletOverride
	}
	return "LP Position"
}

// blocksLabel renders the analyzed block range, falling back to the date
// range when block numbers were not recorded with the dataset.
func (a *Analyzer) blocksLabel(dates dateRange) string {
	if a.data.StartBlock > 0 && a.data.EndBlock > 0 {
		return fmt.Sprintf("%d-%d", a.data.StartBlock, a.data.EndBlock)
	}
	return fmt.Sprintf("%s to %s", dates.first.Format("2006-01-02"), dates.last.Format("2006-01-02"))
}
