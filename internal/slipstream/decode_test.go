package slipstream

import (
	"fmt"
	"math/big"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"aerodrome-lp-lab/internal/domain"
)

// word64 renders v as one 64-char ABI data word.
func word64(v int64) string {
	return fmt.Sprintf("%064x", v)
}

func TestClassifyMethod(t *testing.T) {
	cases := []struct {
		method string
		want   domain.ActionType
		ok     bool
	}{
		{MethodMint, domain.ActionMint, true},
		{MethodIncreaseLiquidity, domain.ActionIncreaseLiquidity, true},
		{MethodDecreaseLiquidity, domain.ActionDecreaseLiquidity, true},
		{MethodCollect, domain.ActionCollect, true},
		{MethodBurn, domain.ActionBurn, true},
		{"0xdeadbeef", "", false},
		{"0xa9059cbb", "", false}, // plain ERC-20 transfer
		{"", "", false},
	}
	for _, tc := range cases {
		got, ok := ClassifyMethod(tc.method)
		if ok != tc.ok || got != tc.want {
			t.Errorf("ClassifyMethod(%q) = (%q, %v), want (%q, %v)",
				tc.method, got, ok, tc.want, tc.ok)
		}
	}
}

func TestIsLiquidityTopic(t *testing.T) {
	for _, topic := range []string{
		TopicMint, TopicBurn, TopicIncreaseLiquidity, TopicDecreaseLiquidity, TopicCollect,
	} {
		if !IsLiquidityTopic(topic) {
			t.Errorf("IsLiquidityTopic(%s) = false, want true", topic)
		}
	}
	if IsLiquidityTopic(TopicSwap) {
		t.Error("IsLiquidityTopic(TopicSwap) = true, want false")
	}
	if IsLiquidityTopic("") {
		t.Error("IsLiquidityTopic(\"\") = true, want false")
	}
}

func TestDecodeLiquidityLog(t *testing.T) {
	// Mint of 1.5 cbBTC (8 decimals) and 52500 USDC (6 decimals) for
	// position 12345. The first data word is the liquidity delta, which the
	// decoder ignores.
	data := "0x" + word64(987654321) + word64(52500000000) + word64(150000000)
	topics := []string{TopicMint, "0x" + word64(12345)}

	got, ok := DecodeLiquidityLog(topics, data)
	if !ok {
		t.Fatal("expected decode to succeed")
	}
	if got.TokenID == nil || *got.TokenID != 12345 {
		t.Errorf("TokenID = %v, want 12345", got.TokenID)
	}
	if want := decimal.RequireFromString("52500"); !got.USDC.Equal(want) {
		t.Errorf("USDC = %s, want %s", got.USDC, want)
	}
	if want := decimal.RequireFromString("1.5"); !got.CbBTC.Equal(want) {
		t.Errorf("CbBTC = %s, want %s", got.CbBTC, want)
	}
}

func TestDecodeLiquidityLog_AllSignatures(t *testing.T) {
	data := "0x" + word64(1) + word64(1000000) + word64(100000000)
	for _, topic := range []string{
		TopicMint, TopicBurn, TopicIncreaseLiquidity, TopicDecreaseLiquidity, TopicCollect,
	} {
		got, ok := DecodeLiquidityLog([]string{topic, "0x" + word64(7)}, data)
		if !ok {
			t.Errorf("topic %s: expected decode to succeed", topic)
			continue
		}
		if !got.USDC.Equal(decimal.NewFromInt(1)) || !got.CbBTC.Equal(decimal.NewFromInt(1)) {
			t.Errorf("topic %s: amounts = (%s USDC, %s cbBTC), want (1, 1)", topic, got.USDC, got.CbBTC)
		}
	}
}

func TestDecodeLiquidityLog_NoTokenIDTopic(t *testing.T) {
	data := "0x" + word64(0) + word64(1200000000) + word64(1000000)
	got, ok := DecodeLiquidityLog([]string{TopicCollect}, data)
	if !ok {
		t.Fatal("expected decode to succeed")
	}
	if got.TokenID != nil {
		t.Errorf("TokenID = %d, want nil", *got.TokenID)
	}
	if want := decimal.RequireFromString("1200"); !got.USDC.Equal(want) {
		t.Errorf("USDC = %s, want %s", got.USDC, want)
	}
	if want := decimal.RequireFromString("0.01"); !got.CbBTC.Equal(want) {
		t.Errorf("CbBTC = %s, want %s", got.CbBTC, want)
	}
}

func TestDecodeLiquidityLog_ZeroAmounts(t *testing.T) {
	data := "0x" + word64(0) + word64(0) + word64(0)
	got, ok := DecodeLiquidityLog([]string{TopicBurn, "0x" + word64(1)}, data)
	if !ok {
		t.Fatal("expected decode to succeed")
	}
	if !got.USDC.IsZero() || !got.CbBTC.IsZero() {
		t.Errorf("amounts = (%s, %s), want (0, 0)", got.USDC, got.CbBTC)
	}
}

func TestDecodeLiquidityLog_Rejects(t *testing.T) {
	goodData := "0x" + word64(1) + word64(2) + word64(3)
	cases := []struct {
		name   string
		topics []string
		data   string
	}{
		{"no topics", nil, goodData},
		{"foreign topic", []string{TopicSwap, "0x" + word64(1)}, goodData},
		{"short data", []string{TopicMint, "0x" + word64(1)}, "0x" + word64(1) + word64(2)},
		{"malformed amount word", []string{TopicMint, "0x" + word64(1)}, "0x" + word64(1) + strings.Repeat("z", 64) + word64(3)},
		{"malformed token id", []string{TopicMint, "0xzz"}, goodData},
		{"token id overflows int64", []string{TopicMint, "0x" + strings.Repeat("f", 64)}, goodData},
	}
	for _, tc := range cases {
		if _, ok := DecodeLiquidityLog(tc.topics, tc.data); ok {
			t.Errorf("%s: expected decode to fail", tc.name)
		}
	}
}

func TestDecodeSwap(t *testing.T) {
	// sqrtPriceX96 = 2^91 gives a raw ratio of (2^91/2^96)^2 = 1/1024 and
	// therefore a price of exactly 1024 * 100 = 102400 USDC per cbBTC.
	sqrt := new(big.Int).Lsh(big.NewInt(1), 91)
	data := "0x" + word64(1000) + word64(2000) + fmt.Sprintf("%064x", sqrt) + word64(77) + word64(100)

	got, ok := DecodeSwap(data)
	if !ok {
		t.Fatal("expected decode to succeed")
	}
	if want := decimal.NewFromInt(102400); !got.Price.Equal(want) {
		t.Errorf("Price = %s, want %s", got.Price, want)
	}
	if got.SqrtPriceX96.Cmp(sqrt) != 0 {
		t.Errorf("SqrtPriceX96 = %s, want %s", got.SqrtPriceX96, sqrt)
	}
}

func TestDecodeSwap_RejectsOutOfRangePrices(t *testing.T) {
	cases := []struct {
		name  string
		shift uint
	}{
		// 2^93 -> ratio 1/64 -> price 6400, below the sane floor.
		{"price below window", 93},
		// 2^89 -> ratio 1/16384 -> price 1638400, above the sane ceiling.
		{"price above window", 89},
	}
	for _, tc := range cases {
		sqrt := new(big.Int).Lsh(big.NewInt(1), tc.shift)
		data := "0x" + word64(0) + word64(0) + fmt.Sprintf("%064x", sqrt)
		if _, ok := DecodeSwap(data); ok {
			t.Errorf("%s: expected decode to fail", tc.name)
		}
	}
}

func TestDecodeSwap_Rejects(t *testing.T) {
	cases := []struct {
		name string
		data string
	}{
		{"empty data", ""},
		{"short data", "0x" + word64(1) + word64(2)},
		{"zero sqrt price", "0x" + word64(1) + word64(2) + word64(0)},
		{"malformed sqrt word", "0x" + word64(1) + word64(2) + strings.Repeat("z", 64)},
	}
	for _, tc := range cases {
		if _, ok := DecodeSwap(tc.data); ok {
			t.Errorf("%s: expected decode to fail", tc.name)
		}
	}
}

func TestDecodeSwapPrice(t *testing.T) {
	// Same layout without the 0x prefix.
	sqrt := new(big.Int).Lsh(big.NewInt(1), 91)
	data := word64(1000) + word64(2000) + fmt.Sprintf("%064x", sqrt)

	price, ok := DecodeSwapPrice(data)
	if !ok {
		t.Fatal("expected decode to succeed")
	}
	if want := decimal.NewFromInt(102400); !price.Equal(want) {
		t.Errorf("price = %s, want %s", price, want)
	}
}
