package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ActionType identifies the NFT position manager operation behind an action.
type ActionType string

// Position manager operations emitted by the Slipstream NFT manager.
const (
	ActionMint              ActionType = "Mint"
	ActionIncreaseLiquidity ActionType = "IncreaseLiquidity"
	ActionDecreaseLiquidity ActionType = "DecreaseLiquidity"
	ActionCollect           ActionType = "Collect"
	ActionBurn              ActionType = "Burn"
)

// IsDeposit reports whether the action adds liquidity to the position.
func (t ActionType) IsDeposit() bool {
	return t == ActionMint || t == ActionIncreaseLiquidity
}

// IsWithdraw reports whether the action removes liquidity from the position.
func (t ActionType) IsWithdraw() bool {
	return t == ActionBurn || t == ActionDecreaseLiquidity
}

// IsFeeCollect reports whether the action collects accrued fees.
func (t ActionType) IsFeeCollect() bool {
	return t == ActionCollect
}

// Action represents one on-chain LP operation with its token amounts and
// USD cash flow. JSON tags match the dataset files written by the fetcher;
// Wallet is carried for archival keys only and never serialized, dataset
// files record it once at the top level.
type Action struct {
	Wallet    string          `json:"-"`                  // owning wallet, set by the fetcher
	Timestamp time.Time       `json:"timestamp"`          // block time of the transaction
	Event     ActionType      `json:"event"`              // position manager operation
	TokenID   *int64          `json:"token_id,omitempty"` // position NFT id, traceability only
	CbBTC     decimal.Decimal `json:"cbbtc"`              // cbBTC amount moved (8 decimals on chain)
	USDC      decimal.Decimal `json:"usdc"`               // USDC amount moved (6 decimals on chain)
	CashFlow  decimal.Decimal `json:"cash_flow"`          // signed USD value: negative = deployed, positive = returned
	TxHash    string          `json:"tx"`                 // transaction hash, traceability only
}

// PositionData is one wallet's LP history as fetched from the explorer
// or loaded from a dataset file.
type PositionData struct {
	Wallet     string   `json:"wallet,omitempty"`
	StartBlock int64    `json:"start_block,omitempty"`
	EndBlock   int64    `json:"end_block,omitempty"`
	Actions    []Action `json:"actions"`
}
