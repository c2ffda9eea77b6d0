package ingestion

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"math/big"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"aerodrome-lp-lab/internal/basescan"
	"aerodrome-lp-lab/internal/domain"
	"aerodrome-lp-lab/internal/slipstream"
	"aerodrome-lp-lab/internal/storage/memory"
)

const testWallet = "0xAbCd000000000000000000000000000000001234"

// transferLogJSON is an ERC-20 Transfer log that must be ignored when
// scanning receipts for lifecycle events.
const transferLogJSON = `{
	"address": "0x1111111111111111111111111111111111111111",
	"topics": ["0xddf252ad1be2c89b69c2b068fc378daa952ba7f163c4a11628f55a4df523b3ef"],
	"data": "0x00",
	"blockNumber": "0x64",
	"transactionHash": "0xabc"
}`

// word64 renders v as one 64-char ABI data word.
func word64(v int64) string {
	return fmt.Sprintf("%064x", v)
}

func sqrtWord(shift uint) string {
	return fmt.Sprintf("%064x", new(big.Int).Lsh(big.NewInt(1), shift))
}

// swapData builds Swap event data with the given sqrtPriceX96 word. A shift
// of 91 decodes to 102400, 92 to 25600, 93 to 6400 (outside the sane window).
func swapData(shift uint) string {
	return "0x" + word64(0) + word64(0) + sqrtWord(shift)
}

func txJSON(hash, to, methodID string, block int64, timestamp int64) string {
	return fmt.Sprintf(`{
		"hash": "%s",
		"from": "%s",
		"to": "%s",
		"input": "%sffffffff",
		"blockNumber": "%d",
		"timeStamp": "%d"
	}`, hash, testWallet, to, methodID, block, timestamp)
}

func receiptJSON(logs ...string) string {
	return fmt.Sprintf(`{"jsonrpc":"2.0","id":1,"result":{"status":"0x1","logs":[%s]}}`,
		strings.Join(logs, ","))
}

func lifecycleLogJSON(topic0 string, tokenID int64, data string) string {
	return fmt.Sprintf(`{
		"address": "%s",
		"topics": ["%s", "0x%s"],
		"data": "%s",
		"blockNumber": "0x64",
		"transactionHash": "0xabc"
	}`, slipstream.NFTManagerAddress, topic0, word64(tokenID), data)
}

func swapLogJSON(blockHex, txHash, data string) string {
	return fmt.Sprintf(`{
		"address": "%s",
		"topics": ["%s"],
		"data": "%s",
		"blockNumber": "%s",
		"transactionHash": "%s",
		"timeStamp": "0x665b1a40"
	}`, slipstream.PoolAddress, slipstream.TopicSwap, data, blockHex, txHash)
}

// newExplorerServer wires a canned Basescan API. Unknown requests fail the test.
func newExplorerServer(t *testing.T, txlist string, receipts map[string]string, logsByToBlock map[string]string) *httptest.Server {
	t.Helper()

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		switch {
		case q.Get("module") == "account" && q.Get("action") == "txlist":
			fmt.Fprint(w, txlist)
		case q.Get("module") == "proxy" && q.Get("action") == "eth_getTransactionReceipt":
			body, ok := receipts[q.Get("txhash")]
			if !ok {
				t.Errorf("unexpected receipt request for %s", q.Get("txhash"))
				http.Error(w, "unexpected", http.StatusBadRequest)
				return
			}
			fmt.Fprint(w, body)
		case q.Get("module") == "logs" && q.Get("action") == "getLogs":
			if topic := q.Get("topic0"); topic != slipstream.TopicSwap {
				t.Errorf("unexpected topic0 %s", topic)
			}
			body, ok := logsByToBlock[q.Get("toBlock")]
			if !ok {
				t.Errorf("unexpected getLogs request toBlock=%s", q.Get("toBlock"))
				http.Error(w, "unexpected", http.StatusBadRequest)
				return
			}
			fmt.Fprint(w, body)
		default:
			t.Errorf("unexpected request: %s", r.URL.RawQuery)
			http.Error(w, "unexpected", http.StatusBadRequest)
		}
	}))
}

func newTestClient(t *testing.T, srv *httptest.Server) *basescan.Client {
	t.Helper()
	return basescan.NewClient("test-key",
		basescan.WithBaseURL(srv.URL),
		basescan.WithMaxRetries(1),
		basescan.WithRetryDelay(time.Millisecond),
	)
}

func TestFetchPosition(t *testing.T) {
	// Four manager-bound transactions: a Mint and an IncreaseLiquidity in
	// block 100, an unrecognized method in block 250 and a Burn in block 200.
	// One transaction to an unrelated contract must be ignored entirely.
	txlist := fmt.Sprintf(`{"status":"1","message":"OK","result":[%s]}`, strings.Join([]string{
		txJSON("0xtx1", slipstream.NFTManagerAddress, slipstream.MethodMint, 100, 1717243200),
		txJSON("0xtx5", slipstream.NFTManagerAddress, slipstream.MethodIncreaseLiquidity, 100, 1717243260),
		txJSON("0xtx2", "0x1111111111111111111111111111111111111111", slipstream.MethodMint, 120, 1717243300),
		txJSON("0xtx4", slipstream.NFTManagerAddress, slipstream.MethodBurn, 200, 1719835200),
		txJSON("0xtx3", slipstream.NFTManagerAddress, "0xdeadbeef", 250, 1719835300),
	}, ","))

	receipts := map[string]string{
		// An unrelated transfer log precedes the lifecycle log.
		"0xtx1": receiptJSON(
			transferLogJSON,
			lifecycleLogJSON(slipstream.TopicMint, 999, "0x"+word64(1)+word64(52500000000)+word64(150000000)),
		),
		"0xtx5": receiptJSON(
			lifecycleLogJSON(slipstream.TopicIncreaseLiquidity, 999, "0x"+word64(1)+word64(17500000000)+word64(50000000)),
		),
		"0xtx4": receiptJSON(
			lifecycleLogJSON(slipstream.TopicBurn, 999, "0x"+word64(1)+word64(97000000000)+word64(150000000)),
		),
	}

	// Actions in block 100 scan [0, 100]: newest log is insane (6400) and
	// must be skipped in favor of the one before it (102400). The Burn in
	// block 200 scans [100, 200].
	logsByToBlock := map[string]string{
		"100": fmt.Sprintf(`{"status":"1","message":"OK","result":[%s]}`, strings.Join([]string{
			swapLogJSON("0x5f", "0xswapA", swapData(92)),
			swapLogJSON("0x61", "0xswapB", swapData(91)),
			swapLogJSON("0x63", "0xswapC", swapData(93)),
		}, ",")),
		"200": fmt.Sprintf(`{"status":"1","message":"OK","result":[%s]}`,
			swapLogJSON("0xc3", "0xswapD", swapData(91))),
	}

	srv := newExplorerServer(t, txlist, receipts, logsByToBlock)
	defer srv.Close()

	actionStore := memory.NewActionStore()
	sampleStore := memory.NewSwapSampleStore()
	fetcher := NewFetcher(FetcherOptions{
		Client:      newTestClient(t, srv),
		ActionStore: actionStore,
		SampleStore: sampleStore,
		Pause:       -1,
		Logger:      log.New(io.Discard, "", 0),
	})

	data, result, err := fetcher.FetchPosition(context.Background(), testWallet, 0, 0)
	if err != nil {
		t.Fatalf("FetchPosition failed: %v", err)
	}

	if data.Wallet != testWallet {
		t.Errorf("Wallet = %s, want %s", data.Wallet, testWallet)
	}
	// Block bounds span every manager-bound transaction, including the
	// unrecognized method in block 250.
	if data.StartBlock != 100 || data.EndBlock != 250 {
		t.Errorf("Blocks = %d-%d, want 100-250", data.StartBlock, data.EndBlock)
	}

	if len(data.Actions) != 3 {
		t.Fatalf("Expected 3 actions, got %d", len(data.Actions))
	}

	mint := data.Actions[0]
	if mint.Event != domain.ActionMint {
		t.Errorf("Actions[0].Event = %s, want Mint", mint.Event)
	}
	if mint.TokenID == nil || *mint.TokenID != 999 {
		t.Errorf("Actions[0].TokenID = %v, want 999", mint.TokenID)
	}
	if want := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC); !mint.Timestamp.Equal(want) {
		t.Errorf("Actions[0].Timestamp = %s, want %s", mint.Timestamp, want)
	}
	// 1.5 cbBTC at 102400 plus 52500 USDC, negated for a deposit.
	if want := decimal.RequireFromString("-206100"); !mint.CashFlow.Equal(want) {
		t.Errorf("Mint cash flow = %s, want %s", mint.CashFlow, want)
	}

	if want := decimal.RequireFromString("-68700"); !data.Actions[1].CashFlow.Equal(want) {
		t.Errorf("Increase cash flow = %s, want %s", data.Actions[1].CashFlow, want)
	}

	burn := data.Actions[2]
	if want := decimal.RequireFromString("250600"); !burn.CashFlow.Equal(want) {
		t.Errorf("Burn cash flow = %s, want %s", burn.CashFlow, want)
	}

	if result.TransactionsSeen != 4 {
		t.Errorf("TransactionsSeen = %d, want 4", result.TransactionsSeen)
	}
	if result.ActionsDecoded != 3 {
		t.Errorf("ActionsDecoded = %d, want 3", result.ActionsDecoded)
	}
	// Both block-100 actions resolve to the same swap, so one sample is a
	// duplicate and only two distinct rows land.
	if result.SamplesStored != 2 {
		t.Errorf("SamplesStored = %d, want 2", result.SamplesStored)
	}
	if result.DuplicatesSkipped != 1 {
		t.Errorf("DuplicatesSkipped = %d, want 1", result.DuplicatesSkipped)
	}
	if result.Errors != 0 {
		t.Errorf("Errors = %d, want 0", result.Errors)
	}

	stored, err := actionStore.GetByWallet(context.Background(), testWallet)
	if err != nil {
		t.Fatalf("GetByWallet failed: %v", err)
	}
	if len(stored) != 3 {
		t.Errorf("Expected 3 archived actions, got %d", len(stored))
	}

	samples, err := sampleStore.GetByPool(context.Background(), slipstream.PoolAddress)
	if err != nil {
		t.Fatalf("GetByPool failed: %v", err)
	}
	if len(samples) != 2 {
		t.Fatalf("Expected 2 archived samples, got %d", len(samples))
	}
	if samples[0].BlockNumber != 97 || samples[1].BlockNumber != 195 {
		t.Errorf("Sample blocks = %d, %d, want 97, 195", samples[0].BlockNumber, samples[1].BlockNumber)
	}
	if !samples[0].Price.Equal(decimal.NewFromInt(102400)) {
		t.Errorf("Sample price = %s, want 102400", samples[0].Price)
	}
}

func TestFetchPosition_SkipsUndecodableActions(t *testing.T) {
	txlist := fmt.Sprintf(`{"status":"1","message":"OK","result":[%s]}`, strings.Join([]string{
		txJSON("0xtxA", slipstream.NFTManagerAddress, slipstream.MethodCollect, 100, 1717243200),
		txJSON("0xtxB", slipstream.NFTManagerAddress, slipstream.MethodMint, 110, 1717243300),
	}, ","))

	receipts := map[string]string{
		// Collect with a zero USDC leg: decodes but is not recorded.
		"0xtxA": receiptJSON(
			lifecycleLogJSON(slipstream.TopicCollect, 999, "0x"+word64(0)+word64(0)+word64(100000)),
		),
		// Mint whose receipt carries no lifecycle log at all.
		"0xtxB": receiptJSON(transferLogJSON),
	}

	srv := newExplorerServer(t, txlist, receipts, map[string]string{})
	defer srv.Close()

	fetcher := NewFetcher(FetcherOptions{
		Client: newTestClient(t, srv),
		Pause:  -1,
		Logger: log.New(io.Discard, "", 0),
	})

	_, result, err := fetcher.FetchPosition(context.Background(), testWallet, 0, 0)
	if !errors.Is(err, ErrNoPositionActions) {
		t.Fatalf("Expected ErrNoPositionActions, got %v", err)
	}
	if result.TransactionsSeen != 2 {
		t.Errorf("TransactionsSeen = %d, want 2", result.TransactionsSeen)
	}
	if result.ActionsDecoded != 0 {
		t.Errorf("ActionsDecoded = %d, want 0", result.ActionsDecoded)
	}
}

func TestFetchPosition_NoManagerTransactions(t *testing.T) {
	txlist := fmt.Sprintf(`{"status":"1","message":"OK","result":[%s]}`,
		txJSON("0xtx1", "0x1111111111111111111111111111111111111111", slipstream.MethodMint, 100, 1717243200))

	srv := newExplorerServer(t, txlist, map[string]string{}, map[string]string{})
	defer srv.Close()

	fetcher := NewFetcher(FetcherOptions{
		Client: newTestClient(t, srv),
		Pause:  -1,
		Logger: log.New(io.Discard, "", 0),
	})

	_, _, err := fetcher.FetchPosition(context.Background(), testWallet, 0, 0)
	if !errors.Is(err, ErrNoPositionActions) {
		t.Fatalf("Expected ErrNoPositionActions, got %v", err)
	}
}

func TestFetchPosition_MissingPriceAborts(t *testing.T) {
	txlist := fmt.Sprintf(`{"status":"1","message":"OK","result":[%s]}`,
		txJSON("0xtx1", slipstream.NFTManagerAddress, slipstream.MethodMint, 100, 1717243200))

	receipts := map[string]string{
		"0xtx1": receiptJSON(
			lifecycleLogJSON(slipstream.TopicMint, 999, "0x"+word64(1)+word64(52500000000)+word64(150000000)),
		),
	}

	// No swaps anywhere near the action's block.
	logsByToBlock := map[string]string{
		"100": `{"status":"0","message":"No records found","result":[]}`,
	}

	srv := newExplorerServer(t, txlist, receipts, logsByToBlock)
	defer srv.Close()

	fetcher := NewFetcher(FetcherOptions{
		Client: newTestClient(t, srv),
		Pause:  -1,
		Logger: log.New(io.Discard, "", 0),
	})

	_, _, err := fetcher.FetchPosition(context.Background(), testWallet, 0, 0)
	if err == nil {
		t.Fatal("Expected an error for an unpriceable block")
	}
	if !strings.Contains(err.Error(), "block 100") || !strings.Contains(err.Error(), "0xtx1") {
		t.Errorf("Error should name the block and tx: %v", err)
	}
}

func TestFetchPosition_ReceiptErrorsAreCounted(t *testing.T) {
	txlist := fmt.Sprintf(`{"status":"1","message":"OK","result":[%s]}`, strings.Join([]string{
		txJSON("0xtx1", slipstream.NFTManagerAddress, slipstream.MethodMint, 100, 1717243200),
		txJSON("0xtx4", slipstream.NFTManagerAddress, slipstream.MethodBurn, 200, 1719835200),
	}, ","))

	receipts := map[string]string{
		// Null receipt for the first transaction; a real one for the second.
		"0xtx1": `{"jsonrpc":"2.0","id":1,"result":null}`,
		"0xtx4": receiptJSON(
			lifecycleLogJSON(slipstream.TopicBurn, 999, "0x"+word64(1)+word64(97000000000)+word64(150000000)),
		),
	}

	logsByToBlock := map[string]string{
		"200": fmt.Sprintf(`{"status":"1","message":"OK","result":[%s]}`,
			swapLogJSON("0xc3", "0xswapD", swapData(91))),
	}

	srv := newExplorerServer(t, txlist, receipts, logsByToBlock)
	defer srv.Close()

	fetcher := NewFetcher(FetcherOptions{
		Client: newTestClient(t, srv),
		Pause:  -1,
		Logger: log.New(io.Discard, "", 0),
	})

	data, result, err := fetcher.FetchPosition(context.Background(), testWallet, 0, 0)
	if err != nil {
		t.Fatalf("FetchPosition failed: %v", err)
	}

	if result.Errors != 1 {
		t.Errorf("Errors = %d, want 1", result.Errors)
	}
	if len(data.Actions) != 1 {
		t.Fatalf("Expected 1 action, got %d", len(data.Actions))
	}
	if data.Actions[0].Event != domain.ActionBurn {
		t.Errorf("Event = %s, want Burn", data.Actions[0].Event)
	}
}
