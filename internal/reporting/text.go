package reporting

import (
	"fmt"
	"strings"

	"aerodrome-lp-lab/internal/domain"
)

// RenderText renders the full sectioned report.
func RenderText(m *domain.Metrics) string {
	var sb strings.Builder

	rule := strings.Repeat("=", 60)
	sb.WriteString(rule + "\n")
	sb.WriteString("AERODROME LP PERFORMANCE ANALYSIS\n")
	sb.WriteString(rule + "\n")
	sb.WriteString(fmt.Sprintf("Wallet: %s\n", m.Wallet))
	sb.WriteString(fmt.Sprintf("Blocks: %s\n", m.Blocks))

	sb.WriteString("\nBTC Price Movement:\n")
	sb.WriteString(fmt.Sprintf("  Start: %s\n", money(m.BTCPriceStart)))
	sb.WriteString(fmt.Sprintf("  End: %s\n", money(m.BTCPriceEnd)))
	sb.WriteString(fmt.Sprintf("  Change: %.1f%%\n", changePct(m.BTCPriceStart, m.BTCPriceEnd)))

	sb.WriteString("\nCapital:\n")
	sb.WriteString(fmt.Sprintf("  Initial: %s\n", money(m.InitialCapital)))
	sb.WriteString(fmt.Sprintf("  Final: %s\n", money(m.FinalCapital)))
	sb.WriteString(fmt.Sprintf("  Net Profit: %s\n", money(m.NetProfit)))

	sb.WriteString("\nActivity:\n")
	sb.WriteString(fmt.Sprintf("  Days Active: %d\n", m.DaysActive))
	sb.WriteString(fmt.Sprintf("  Rebalances: %d\n", m.RebalanceCount))
	if m.RebalanceCount > 0 {
		sb.WriteString(fmt.Sprintf("  Frequency: Every %.1f days\n", float64(m.DaysActive)/float64(m.RebalanceCount)))
	} else {
		sb.WriteString("  Frequency: No rebalances\n")
	}

	sb.WriteString("\nReturns:\n")
	if m.XIRR.Valid {
		if m.XIRR.Rate.GreaterThan(xirrMisleadingAbove) {
			sb.WriteString(fmt.Sprintf("  XIRR: %s\n", pct0(m.XIRR.Rate)))
		} else {
			sb.WriteString(fmt.Sprintf("  XIRR: %s\n", pct2(m.XIRR.Rate)))
		}
	}
	sb.WriteString(fmt.Sprintf("  TWR: %s\n", pct2(m.TWR)))
	sb.WriteString(fmt.Sprintf("  LP APR: %s\n", pct0(m.APR)))
	sb.WriteString(fmt.Sprintf("  LP APY: %s\n", pct0(m.APY)))
	sb.WriteString(fmt.Sprintf("  HODL APR: %s\n", pct0(m.HodlAPR)))
	sb.WriteString(fmt.Sprintf("  Outperformance: %s APR\n", signedPct0(m.VsHodlAPR)))

	sb.WriteString("\nRisk Metrics:\n")
	sb.WriteString(fmt.Sprintf("  Divergence Loss: %s\n", money(m.DivergenceLoss)))
	sb.WriteString(fmt.Sprintf("  vs HODL: %s\n", signedMoney(m.VsHodl)))

	if m.VsHodl.IsPositive() {
		sb.WriteString(fmt.Sprintf("\nLP outperformed HODL by $%.2f\n", m.VsHodl.InexactFloat64()))
	} else {
		sb.WriteString(fmt.Sprintf("\nLP underperformed HODL by $%.2f\n", m.VsHodl.Abs().InexactFloat64()))
	}

	sb.WriteString("\nXIRR Status:\n")
	switch {
	case m.XIRR.Valid && m.XIRR.Rate.GreaterThan(xirrMisleadingAbove):
		sb.WriteString(fmt.Sprintf("  WARNING: XIRR: %s (misleading due to sub-daily rebalancing)\n", pct0(m.XIRR.Rate)))
		sb.WriteString(fmt.Sprintf("  NOTE: With %d rebalances in %d days, XIRR compounds hourly\n", m.RebalanceCount, m.DaysActive))
		sb.WriteString(fmt.Sprintf("  Use APR (%s) or TWR (%s) instead\n", pct0(m.APR), pct2(m.TWR)))
	case m.XIRR.Valid:
		sb.WriteString(fmt.Sprintf("  XIRR calculated successfully: %s\n", pct2(m.XIRR.Rate)))
	default:
		sb.WriteString(fmt.Sprintf("  WARNING: XIRR failed to converge with %d rebalances\n", m.RebalanceCount))
		sb.WriteString(fmt.Sprintf("  Use TWR (%s) or APR (%s) as alternatives\n", pct2(m.TWR), pct0(m.APR)))
	}

	return sb.String()
}

// RenderSummary renders the executive summary.
func RenderSummary(m *domain.Metrics) string {
	var sb strings.Builder

	sb.WriteString("\nEXECUTIVE SUMMARY\n")
	sb.WriteString("================\n")
	sb.WriteString(fmt.Sprintf("Wallet: %s\n", m.Wallet))
	sb.WriteString(fmt.Sprintf("Blocks: %s\n", m.Blocks))
	sb.WriteString(fmt.Sprintf("Period: %d days\n", m.DaysActive))

	sb.WriteString(fmt.Sprintf("\nCapital: %s -> %s profit\n", money0(m.InitialCapital), signedDollars(m.NetProfit)))
	sb.WriteString(fmt.Sprintf("Return: %.0f%% (%s APR)\n", overallReturnPct(m), pct0(m.APR)))
	sb.WriteString(fmt.Sprintf("Activity: %d rebalances\n", m.RebalanceCount))
	sb.WriteString(fmt.Sprintf("vs HODL: %s\n", signedTruncDollars(m.VsHodl)))

	sb.WriteString(fmt.Sprintf("\nBTC moved: %s -> %s (%+.0f%%)\n",
		money0(m.BTCPriceStart), money0(m.BTCPriceEnd), changePct(m.BTCPriceStart, m.BTCPriceEnd)))

	sb.WriteString("\nReturns:\n")
	switch {
	case m.XIRR.Valid && m.XIRR.Rate.GreaterThan(xirrMisleadingAbove):
		sb.WriteString(fmt.Sprintf("  XIRR: %d%% (misleading)\n", m.XIRR.Rate.IntPart()))
	case m.XIRR.Valid:
		sb.WriteString(fmt.Sprintf("  XIRR: %d%%\n", m.XIRR.Rate.IntPart()))
	default:
		sb.WriteString("  XIRR: Failed to converge\n")
	}
	sb.WriteString(fmt.Sprintf("  LP APR: %s\n", pct0(m.APR)))
	sb.WriteString(fmt.Sprintf("  HODL APR: %s\n", pct0(m.HodlAPR)))
	sb.WriteString(fmt.Sprintf("  Outperformance: %s APR\n", signedPct0(m.VsHodlAPR)))

	if m.VsHodl.IsPositive() {
		sb.WriteString(fmt.Sprintf("\nResult: Beat HODL by %s\n", truncDollars(m.VsHodl)))
	} else {
		sb.WriteString(fmt.Sprintf("\nResult: Lost to HODL by %s\n", truncDollars(m.VsHodl)))
	}

	return sb.String()
}

// overallReturnPct is net profit over initial capital in percent, zero when
// nothing was deployed.
func overallReturnPct(m *domain.Metrics) float64 {
	initial := m.InitialCapital.InexactFloat64()
	if initial == 0 {
		return 0
	}
	return m.NetProfit.InexactFloat64() / initial * 100
}
