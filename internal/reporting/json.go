package reporting

import (
	"encoding/json"
	"fmt"

	"aerodrome-lp-lab/internal/domain"
)

// jsonReport fixes the machine-readable key set and order. xirr_pct is null
// when the solver found no rate; consumers branch on can_calculate_xirr.
type jsonReport struct {
	Wallet           string   `json:"wallet"`
	Blocks           string   `json:"blocks"`
	InitialCapital   float64  `json:"initial_capital"`
	NetProfit        float64  `json:"net_profit"`
	TWRPct           float64  `json:"twr_pct"`
	APRPct           float64  `json:"apr_pct"`
	APYPct           float64  `json:"apy_pct"`
	DivergenceLoss   float64  `json:"divergence_loss"`
	VsHodl           float64  `json:"vs_hodl"`
	HodlAPRPct       float64  `json:"hodl_apr_pct"`
	VsHodlAPRPct     float64  `json:"vs_hodl_apr_pct"`
	RebalanceCount   int      `json:"rebalance_count"`
	DaysActive       int      `json:"days_active"`
	BTCPriceStart    float64  `json:"btc_price_start"`
	BTCPriceEnd      float64  `json:"btc_price_end"`
	XIRRPct          *float64 `json:"xirr_pct"`
	CanCalculateXIRR bool     `json:"can_calculate_xirr"`
	XIRRNote         string   `json:"xirr_note"`
}

// RenderJSON renders metrics as indented JSON.
func RenderJSON(m *domain.Metrics) (string, error) {
	report := jsonReport{
		Wallet:           m.Wallet,
		Blocks:           m.Blocks,
		InitialCapital:   m.InitialCapital.InexactFloat64(),
		NetProfit:        m.NetProfit.InexactFloat64(),
		TWRPct:           m.TWR.InexactFloat64(),
		APRPct:           m.APR.InexactFloat64(),
		APYPct:           m.APY.InexactFloat64(),
		DivergenceLoss:   m.DivergenceLoss.InexactFloat64(),
		VsHodl:           m.VsHodl.InexactFloat64(),
		HodlAPRPct:       m.HodlAPR.InexactFloat64(),
		VsHodlAPRPct:     m.VsHodlAPR.InexactFloat64(),
		RebalanceCount:   m.RebalanceCount,
		DaysActive:       m.DaysActive,
		BTCPriceStart:    m.BTCPriceStart.InexactFloat64(),
		BTCPriceEnd:      m.BTCPriceEnd.InexactFloat64(),
		CanCalculateXIRR: m.XIRR.Valid,
		XIRRNote:         fmt.Sprintf("Failed to converge with %d rebalances", m.RebalanceCount),
	}

	if m.XIRR.Valid {
		rate := m.XIRR.Rate.InexactFloat64()
		report.XIRRPct = &rate
		report.XIRRNote = "XIRR converged successfully"
	}

	raw, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode report: %w", err)
	}
	return string(raw), nil
}
