package metrics

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"aerodrome-lp-lab/internal/domain"
)

// CashFlow is one dated cash movement fed to the XIRR solver. Negative
// amounts are money leaving the wallet, positive amounts money returning.
type CashFlow struct {
	Amount decimal.Decimal
	At     time.Time
}

// BracketPolicy controls the XIRR root search range. When the initial
// [Low, High] bounds do not straddle a sign change in NPV, HighCandidates
// and then LowCandidates are tried in order; the first bound producing
// opposite NPV signs stops the scan. A scan that never finds a sign change
// leaves the bound at its last candidate.
type BracketPolicy struct {
	Low            decimal.Decimal
	High           decimal.Decimal
	HighCandidates []decimal.Decimal
	LowCandidates  []decimal.Decimal
}

// DefaultBracketPolicy spans -99.9% to 100,000% annualized. The widening
// steps cover LP histories whose roots land anywhere from near-total loss
// to five-digit rates under sub-daily rebalancing.
func DefaultBracketPolicy() BracketPolicy {
	return BracketPolicy{
		Low:            decimal.RequireFromString("-0.999"),
		High:           decimal.NewFromInt(1000),
		HighCandidates: decimalsFromInts(100, 500, 1000, 5000, 10000, 50000),
		LowCandidates:  decimalsFromStrings("-0.5", "-0.9", "-0.95", "-0.99", "-0.995", "-0.999"),
	}
}

const xirrMaxIterations = 200

// Convergence notes carried on domain.XIRR.
const (
	noteConverged         = "converged"
	noteInsufficientFlows = "insufficient cash flows"
	noteNoSignChange      = "no sign change found"
	noteNoConvergence     = "did not converge"
	noteArithmeticFailure = "arithmetic failure"
)

var (
	npvRootTolerance = decimal.RequireFromString("0.01")     // USD distance from zero treated as a root
	npvResidualLimit = decimal.NewFromInt(100)               // acceptable residual after the iteration cap
	bracketEpsilon   = decimal.RequireFromString("0.000001") // bracket width considered collapsed
)

// npv is one NPV evaluation. Rates at or below -100% produce a signed
// infinity, carried as a flag rather than a numeric value.
type npv struct {
	value decimal.Decimal
	inf   int // 0 finite, +1 positive infinity, -1 negative infinity
}

func (v npv) sign() int {
	if v.inf != 0 {
		return v.inf
	}
	return v.value.Sign()
}

// within reports |value| < limit. Infinities are never within any limit.
func (v npv) within(limit decimal.Decimal) bool {
	return v.inf == 0 && v.value.Abs().LessThan(limit)
}

// npvAt evaluates the net present value of flows at an annual rate, with
// day offsets counted from the first flow. A rate at or below -1 would put
// a non-positive base under a fractional exponent, so it short-circuits to
// a signed infinity keyed off the sign of the flow under evaluation.
func npvAt(flows []CashFlow, rate decimal.Decimal) (npv, error) {
	start := flows[0].At
	total := decimal.Zero
	for _, f := range flows {
		if rate.LessThanOrEqual(negOne) {
			if f.Amount.IsNegative() {
				return npv{inf: 1}, nil
			}
			return npv{inf: -1}, nil
		}
		years := decimal.NewFromInt(daysBetween(start, f.At)).DivRound(daysPerYear, divPrecision)
		discount, err := one.Add(rate).PowWithPrecision(years, divPrecision)
		if err != nil {
			return npv{}, fmt.Errorf("discount factor at rate %s: %w", rate, err)
		}
		if discount.IsZero() {
			return npv{}, fmt.Errorf("discount factor vanished at rate %s", rate)
		}
		total = total.Add(f.Amount.DivRound(discount, divPrecision))
	}
	return npv{value: total}, nil
}

// daysBetween counts whole days from one timestamp to a later one.
func daysBetween(from, to time.Time) int64 {
	return int64(to.Sub(from) / (24 * time.Hour))
}

// SolveXIRR finds the annualized internal rate of return of dated cash
// flows by bisection and reports it in percent. Histories shorter than two
// flows, brackets with no NPV sign change, and arithmetic blowups yield an
// invalid result carrying the reason instead of an error: callers fall
// back to TWR and APR.
func SolveXIRR(flows []CashFlow, policy BracketPolicy) domain.XIRR {
	if len(flows) < 2 {
		return domain.XIRR{Note: noteInsufficientFlows}
	}

	low, high := policy.Low, policy.High
	npvLow, err := npvAt(flows, low)
	if err != nil {
		return domain.XIRR{Note: noteArithmeticFailure}
	}
	npvHigh, err := npvAt(flows, high)
	if err != nil {
		return domain.XIRR{Note: noteArithmeticFailure}
	}

	if npvLow.sign()*npvHigh.sign() > 0 {
		for _, candidate := range policy.HighCandidates {
			high = candidate
			if npvHigh, err = npvAt(flows, high); err != nil {
				return domain.XIRR{Note: noteArithmeticFailure}
			}
			if npvLow.sign()*npvHigh.sign() < 0 {
				break
			}
		}
	}
	if npvLow.sign()*npvHigh.sign() > 0 {
		for _, candidate := range policy.LowCandidates {
			low = candidate
			if npvLow, err = npvAt(flows, low); err != nil {
				return domain.XIRR{Note: noteArithmeticFailure}
			}
			if npvLow.sign()*npvHigh.sign() < 0 {
				break
			}
		}
	}
	if npvLow.sign()*npvHigh.sign() > 0 {
		return domain.XIRR{Note: noteNoSignChange}
	}

	eval := func(rate decimal.Decimal) (npv, error) { return npvAt(flows, rate) }
	rate, converged, err := bisect(eval, low, high, npvLow.sign())
	if err != nil {
		return domain.XIRR{Note: noteArithmeticFailure}
	}
	if !converged {
		return domain.XIRR{Note: noteNoConvergence}
	}
	return domain.XIRR{Rate: rate, Valid: true, Note: noteConverged}
}

// bisect narrows [low, high] around a root of eval and returns the rate in
// percent. The replacement side is decided against lowSign, the NPV sign
// of the low bound as it stood when bisection began; the sign is not
// re-evaluated as the bracket moves. After the iteration cap, a midpoint
// whose residual NPV stays under npvResidualLimit is still accepted.
func bisect(eval func(decimal.Decimal) (npv, error), low, high decimal.Decimal, lowSign int) (decimal.Decimal, bool, error) {
	for i := 0; i < xirrMaxIterations; i++ {
		if high.Sub(low).Abs().LessThan(bracketEpsilon) {
			break
		}
		mid := low.Add(high).DivRound(two, divPrecision)
		npvMid, err := eval(mid)
		if err != nil {
			return decimal.Decimal{}, false, err
		}
		if npvMid.within(npvRootTolerance) {
			return mid.Mul(hundred), true, nil
		}
		if lowSign*npvMid.sign() < 0 {
			high = mid
		} else {
			low = mid
		}
	}

	final := low.Add(high).DivRound(two, divPrecision)
	residual, err := eval(final)
	if err != nil {
		return decimal.Decimal{}, false, err
	}
	if residual.within(npvResidualLimit) {
		return final.Mul(hundred), true, nil
	}
	return decimal.Decimal{}, false, nil
}

func decimalsFromInts(vals ...int64) []decimal.Decimal {
	out := make([]decimal.Decimal, len(vals))
	for i, v := range vals {
		out[i] = decimal.NewFromInt(v)
	}
	return out
}

func decimalsFromStrings(vals ...string) []decimal.Decimal {
	out := make([]decimal.Decimal, len(vals))
	for i, v := range vals {
		out[i] = decimal.RequireFromString(v)
	}
	return out
}
