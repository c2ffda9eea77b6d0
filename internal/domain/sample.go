package domain

import "github.com/shopspring/decimal"

// SwapSample is one pool swap observation used to price an action's block.
// Corresponds to the swap_samples table in ClickHouse.
type SwapSample struct {
	Pool         string          // pool contract address
	BlockNumber  int64           // block the swap landed in
	TxHash       string          // swap transaction hash
	SqrtPriceX96 string          // raw Q64.96 sqrt price from the event data
	Price        decimal.Decimal // decoded cbBTC price in USDC
	TimestampMs  int64           // block timestamp in milliseconds
}
