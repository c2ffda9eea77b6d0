package slipstream

import (
	"math/big"
	"strings"

	"github.com/shopspring/decimal"
)

// swapPrecision is the decimal precision used when inverting the pool's
// fixed-point price ratio.
const swapPrecision int32 = 50

var (
	one = decimal.NewFromInt(1)

	// q96 is 2^96, the fixed-point scale of sqrtPriceX96.
	q96 = decimal.NewFromBigInt(new(big.Int).Lsh(big.NewInt(1), 96), 0)

	// priceAdjustment rescales the raw token1/token0 ratio into whole-token
	// terms: 10^(CbBTCDecimals - USDCDecimals).
	priceAdjustment = decimal.New(1, CbBTCDecimals-USDCDecimals)

	// Sane price bounds for the pool, in USDC per cbBTC. Swap logs whose
	// decoded price falls outside this open window are noise and skipped.
	minSanePrice = decimal.NewFromInt(10000)
	maxSanePrice = decimal.NewFromInt(1000000)
)

// LiquidityAmounts is the decoded payload of one position lifecycle log.
type LiquidityAmounts struct {
	// TokenID is the position NFT id from the first indexed topic, nil when
	// the event carries no indexed id.
	TokenID *int64
	USDC    decimal.Decimal // amount0 in whole USDC
	CbBTC   decimal.Decimal // amount1 in whole cbBTC
}

// Swap is the price-bearing slice of a pool Swap log.
type Swap struct {
	SqrtPriceX96 *big.Int
	Price        decimal.Decimal // USDC per whole cbBTC
}

// DecodeLiquidityLog decodes the token amounts of a position lifecycle log.
// All five lifecycle events place amount0 in the second 32-byte data word
// and amount1 in the third; the indexed position id, when present, is
// topics[1]. Returns false when topic0 is not a lifecycle signature or the
// data is short or malformed.
func DecodeLiquidityLog(topics []string, data string) (LiquidityAmounts, bool) {
	if len(topics) == 0 || !IsLiquidityTopic(topics[0]) {
		return LiquidityAmounts{}, false
	}

	hexData := strings.TrimPrefix(data, "0x")
	amount0, ok := hexWord(hexData, 1)
	if !ok {
		return LiquidityAmounts{}, false
	}
	amount1, ok := hexWord(hexData, 2)
	if !ok {
		return LiquidityAmounts{}, false
	}

	var out LiquidityAmounts
	if len(topics) > 1 {
		id, ok := new(big.Int).SetString(strings.TrimPrefix(topics[1], "0x"), 16)
		if !ok || !id.IsInt64() {
			return LiquidityAmounts{}, false
		}
		v := id.Int64()
		out.TokenID = &v
	}
	out.USDC = decimal.NewFromBigInt(amount0, -USDCDecimals)
	out.CbBTC = decimal.NewFromBigInt(amount1, -CbBTCDecimals)
	return out, true
}

// DecodeSwap extracts the post-swap pool price from a Swap log's data. The
// event packs five words (amount0, amount1, sqrtPriceX96, liquidity, tick);
// sqrtPriceX96, the third word, carries the price:
//
//	token1/token0 = (sqrtPriceX96 / 2^96)^2
//
// which is inverted and rescaled by the token decimals into USDC per whole
// cbBTC. Returns false for short or malformed data and for prices outside
// the sane window.
func DecodeSwap(data string) (Swap, bool) {
	sqrtRaw, ok := hexWord(strings.TrimPrefix(data, "0x"), 2)
	if !ok || sqrtRaw.Sign() == 0 {
		return Swap{}, false
	}

	sqrt := decimal.NewFromBigInt(sqrtRaw, 0).DivRound(q96, swapPrecision)
	ratio := sqrt.Mul(sqrt)
	price := one.DivRound(ratio, swapPrecision).Mul(priceAdjustment)
	if price.LessThanOrEqual(minSanePrice) || price.GreaterThanOrEqual(maxSanePrice) {
		return Swap{}, false
	}
	return Swap{SqrtPriceX96: sqrtRaw, Price: price}, true
}

// DecodeSwapPrice is the price-only form of DecodeSwap.
func DecodeSwapPrice(data string) (decimal.Decimal, bool) {
	s, ok := DecodeSwap(data)
	return s.Price, ok
}

// hexWord parses the 256-bit big-endian word at index i of ABI-encoded
// event data (hex chars, no 0x prefix).
func hexWord(data string, i int) (*big.Int, bool) {
	start, end := i*64, (i+1)*64
	if len(data) < end {
		return nil, false
	}
	v, ok := new(big.Int).SetString(data[start:end], 16)
	if !ok {
		return nil, false
	}
	return v, true
}
