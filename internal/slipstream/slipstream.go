// Package slipstream holds the protocol knowledge for the Aerodrome
// Slipstream cbBTC/USDC pool on Base: contract addresses, the calldata
// selectors and event signatures of the NFT position manager, and decoders
// for position lifecycle logs and pool Swap logs.
//
// Decoders are pure functions over the primitive log fields (topic strings
// and hex data) so they can be exercised without an RPC connection.
package slipstream

import "aerodrome-lp-lab/internal/domain"

// Base mainnet contract addresses.
const (
	// NFTManagerAddress is the Slipstream NonfungiblePositionManager.
	// Position lifecycle transactions are sent here.
	NFTManagerAddress = "0x827922686190790b37229fd06084350e74485b72"

	// PoolAddress is the cbBTC/USDC Slipstream pool. Token0 is USDC,
	// token1 is cbBTC.
	PoolAddress = "0x4e962BB3889Bf030368F56810A9c96B83CB3E778"
)

// Token decimal scales for the pool pair.
const (
	USDCDecimals  = 6
	CbBTCDecimals = 8
)

// Calldata selectors (first four bytes of tx input) on the position manager.
const (
	MethodMint              = "0x88316456"
	MethodIncreaseLiquidity = "0x219f5d17"
	MethodDecreaseLiquidity = "0x0c49ccbe"
	MethodCollect           = "0xfc6f7865"
	MethodBurn              = "0x42966c68"
)

// Event signature topics emitted by the position manager for lifecycle
// events, plus the pool's Swap topic used for price sampling.
const (
	TopicMint              = "0x7a53080ba414158be7ec69b987b5fb7d07dee101bff85ac3f90d5c68ca679f40"
	TopicBurn              = "0xdccd412f0b1252819cb1fd330b93224ca42612892bb3f4f789976e6d81936496"
	TopicIncreaseLiquidity = "0x3067048beee31b25b2f1681f88dac838c8bba36af25bfb2b7cf7473a5847e35f"
	TopicDecreaseLiquidity = "0x26f6a048ee9138f2c0ce266f322cb99228e8d619ae2bff30c67f8dcf9d2377b4"
	TopicCollect           = "0x40d0efd1a53d60ecbf40971b9daf7dc90178c3aadc7aab1765632738fa8b8f01"
	TopicSwap              = "0xc42079f94a6350d7e6235f29174924f928cc2ac818eb64fed8004e115fbcca67"
)

// liquidityTopics indexes the lifecycle signatures for log scanning.
var liquidityTopics = map[string]struct{}{
	TopicMint:              {},
	TopicBurn:              {},
	TopicIncreaseLiquidity: {},
	TopicDecreaseLiquidity: {},
	TopicCollect:           {},
}

// ClassifyMethod maps a transaction's calldata selector to the position
// action it performs. The second return is false for selectors that are not
// position lifecycle calls.
func ClassifyMethod(methodID string) (domain.ActionType, bool) {
	switch methodID {
	case MethodMint:
		return domain.ActionMint, true
	case MethodIncreaseLiquidity:
		return domain.ActionIncreaseLiquidity, true
	case MethodDecreaseLiquidity:
		return domain.ActionDecreaseLiquidity, true
	case MethodCollect:
		return domain.ActionCollect, true
	case MethodBurn:
		return domain.ActionBurn, true
	}
	return "", false
}

// IsLiquidityTopic reports whether topic0 is one of the position lifecycle
// event signatures.
func IsLiquidityTopic(topic0 string) bool {
	_, ok := liquidityTopics[topic0]
	return ok
}
