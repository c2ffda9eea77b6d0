// Package ingestion reconstructs LP position histories from the Base
// explorer API: it lists a wallet's position manager transactions, decodes
// the lifecycle logs behind each one, prices every action from nearby pool
// swaps and optionally archives the results.
package ingestion

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"aerodrome-lp-lab/internal/basescan"
	"aerodrome-lp-lab/internal/domain"
	"aerodrome-lp-lab/internal/observability"
	"aerodrome-lp-lab/internal/slipstream"
	"aerodrome-lp-lab/internal/storage"
)

// latestBlock is the endblock sentinel the explorer treats as "latest".
const latestBlock = 99999999

// ErrNoPositionActions means the block range held no transactions that
// decode into position actions.
var ErrNoPositionActions = errors.New("no position actions decoded in the block range")

// Fetcher rebuilds a wallet's position history from explorer data.
type Fetcher struct {
	client      *basescan.Client
	actionStore storage.ActionStore
	sampleStore storage.SwapSampleStore
	pause       time.Duration
	priceWindow int64
	logger      *log.Logger
}

// FetcherOptions contains configuration for creating a Fetcher.
type FetcherOptions struct {
	Client *basescan.Client

	// ActionStore, when set, archives decoded actions.
	ActionStore storage.ActionStore

	// SampleStore, when set, archives the swap observations used to price
	// actions.
	SampleStore storage.SwapSampleStore

	// Pause is the wait before each transaction's receipt lookup, honoring
	// explorer rate limits. Zero means the 200ms default, negative disables
	// pacing.
	Pause time.Duration

	// PriceWindow is how many blocks before an action to scan for a swap
	// when pricing it. Defaults to 100.
	PriceWindow int64

	Logger *log.Logger
}

// NewFetcher creates a new position history fetcher.
func NewFetcher(opts FetcherOptions) *Fetcher {
	pause := opts.Pause
	if pause == 0 {
		pause = 200 * time.Millisecond
	}

	priceWindow := opts.PriceWindow
	if priceWindow == 0 {
		priceWindow = 100
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}

	return &Fetcher{
		client:      opts.Client,
		actionStore: opts.ActionStore,
		sampleStore: opts.SampleStore,
		pause:       pause,
		priceWindow: priceWindow,
		logger:      logger,
	}
}

// FetchResult contains statistics from one fetch operation.
type FetchResult struct {
	TransactionsSeen  int // transactions addressed to the position manager
	ActionsDecoded    int
	SamplesStored     int
	DuplicatesSkipped int
	Errors            int
	Duration          time.Duration
}

// FetchPosition rebuilds the position history of a wallet between two
// blocks. An endBlock of zero means the latest block. Every decoded action
// is priced from the pool's swap logs at its block; an action whose block
// cannot be priced aborts the whole fetch.
func (f *Fetcher) FetchPosition(ctx context.Context, wallet string, startBlock, endBlock int64) (*domain.PositionData, *FetchResult, error) {
	start := time.Now()
	result := &FetchResult{}

	if endBlock == 0 {
		endBlock = latestBlock
	}

	f.logger.Printf("Fetching transactions for %s, blocks %d to %d", wallet, startBlock, endBlock)

	txs, err := f.client.ListTransactions(ctx, wallet, startBlock, endBlock)
	if err != nil {
		return nil, result, fmt.Errorf("list wallet transactions: %w", err)
	}

	var lpTxs []basescan.Transaction
	for _, tx := range txs {
		if strings.EqualFold(tx.To, slipstream.NFTManagerAddress) {
			lpTxs = append(lpTxs, tx)
		}
	}
	result.TransactionsSeen = len(lpTxs)
	observability.RecordTransactionsFetched(len(lpTxs))
	f.logger.Printf("Found %d position manager transactions", len(lpTxs))

	if len(lpTxs) == 0 {
		return nil, result, ErrNoPositionActions
	}

	var (
		actions []domain.Action
		samples []*domain.SwapSample
	)
	for _, tx := range lpTxs {
		event, ok := slipstream.ClassifyMethod(tx.MethodID())
		if !ok {
			continue
		}

		if f.pause > 0 {
			select {
			case <-ctx.Done():
				return nil, result, ctx.Err()
			case <-time.After(f.pause):
			}
		}

		receipt, err := f.client.GetTransactionReceipt(ctx, tx.Hash)
		if err != nil {
			f.logger.Printf("Error fetching receipt %s: %v", tx.Hash, err)
			result.Errors++
			observability.RecordFetchError()
			continue
		}
		if receipt == nil {
			result.Errors++
			observability.RecordFetchError()
			continue
		}

		amounts, ok := decodeFirstLiquidityLog(receipt.Logs)
		if !ok || !amounts.CbBTC.IsPositive() || !amounts.USDC.IsPositive() {
			continue
		}

		price, sample, err := f.priceForBlock(ctx, tx.BlockNumber)
		if err != nil {
			return nil, result, err
		}
		if sample == nil {
			return nil, result, fmt.Errorf("no pool price for block %d (tx %s): no decodable swap in the %d preceding blocks",
				tx.BlockNumber, tx.Hash, f.priceWindow)
		}
		samples = append(samples, sample)
		observability.RecordSwapSampleTaken()

		cashFlow := amounts.CbBTC.Mul(price).Add(amounts.USDC)
		if event.IsDeposit() {
			cashFlow = cashFlow.Neg()
		}
		cashFlow = cashFlow.Round(2)

		actions = append(actions, domain.Action{
			Wallet:    wallet,
			Timestamp: tx.Timestamp,
			Event:     event,
			TokenID:   amounts.TokenID,
			CbBTC:     amounts.CbBTC,
			USDC:      amounts.USDC,
			CashFlow:  cashFlow,
			TxHash:    tx.Hash,
		})
		result.ActionsDecoded++
		observability.RecordActionDecoded(string(event))
		f.logger.Printf("Decoded %s %s: %s cbBTC, %s USDC, cash flow %s", event, tx.Hash, amounts.CbBTC, amounts.USDC, cashFlow)
	}

	if len(actions) == 0 {
		return nil, result, ErrNoPositionActions
	}

	data := &domain.PositionData{
		Wallet:     wallet,
		StartBlock: lpTxs[0].BlockNumber,
		EndBlock:   lpTxs[0].BlockNumber,
		Actions:    actions,
	}
	for _, tx := range lpTxs[1:] {
		if tx.BlockNumber < data.StartBlock {
			data.StartBlock = tx.BlockNumber
		}
		if tx.BlockNumber > data.EndBlock {
			data.EndBlock = tx.BlockNumber
		}
	}

	f.archive(ctx, actions, samples, result)

	result.Duration = time.Since(start)
	observability.RecordFetchCompleted(time.Now().Unix())
	f.logger.Printf("Fetch complete: %d actions, %d samples, %d dupes, %d errors in %v",
		result.ActionsDecoded, result.SamplesStored, result.DuplicatesSkipped, result.Errors, result.Duration)

	return data, result, nil
}

// priceForBlock finds the cbBTC price in force at a block by scanning the
// pool's Swap logs over the preceding window, newest first. A nil sample
// with nil error means no swap in the window decoded to a sane price.
func (f *Fetcher) priceForBlock(ctx context.Context, block int64) (decimal.Decimal, *domain.SwapSample, error) {
	from := block - f.priceWindow
	if from < 0 {
		from = 0
	}

	logs, err := f.client.GetLogs(ctx, slipstream.PoolAddress, from, block, slipstream.TopicSwap)
	if err != nil {
		return decimal.Decimal{}, nil, fmt.Errorf("pool swap logs for block %d: %w", block, err)
	}

	for i := len(logs) - 1; i >= 0; i-- {
		swap, ok := slipstream.DecodeSwap(logs[i].Data)
		if !ok {
			continue
		}
		return swap.Price, &domain.SwapSample{
			Pool:         slipstream.PoolAddress,
			BlockNumber:  logs[i].BlockNumber,
			TxHash:       logs[i].TxHash,
			SqrtPriceX96: swap.SqrtPriceX96.String(),
			Price:        swap.Price,
			TimestampMs:  logs[i].TimestampMs,
		}, nil
	}

	return decimal.Decimal{}, nil, nil
}

// decodeFirstLiquidityLog scans a receipt's logs for the first position
// lifecycle event that decodes.
func decodeFirstLiquidityLog(logs []basescan.Log) (slipstream.LiquidityAmounts, bool) {
	for _, lg := range logs {
		if amounts, ok := slipstream.DecodeLiquidityLog(lg.Topics, lg.Data); ok {
			return amounts, true
		}
	}
	return slipstream.LiquidityAmounts{}, false
}

// archive stores decoded actions and price samples when stores are
// configured, falling back to row-by-row inserts to count duplicates.
func (f *Fetcher) archive(ctx context.Context, actions []domain.Action, samples []*domain.SwapSample, result *FetchResult) {
	if f.actionStore != nil {
		ptrs := make([]*domain.Action, len(actions))
		for i := range actions {
			ptrs[i] = &actions[i]
		}

		if err := f.actionStore.InsertBulk(ctx, ptrs); err != nil {
			if errors.Is(err, storage.ErrDuplicateKey) {
				for _, a := range ptrs {
					if err := f.actionStore.Insert(ctx, a); err != nil {
						if errors.Is(err, storage.ErrDuplicateKey) {
							result.DuplicatesSkipped++
							observability.RecordDuplicateSkipped()
						} else {
							result.Errors++
						}
					}
				}
			} else {
				result.Errors += len(ptrs)
				f.logger.Printf("Error archiving actions: %v", err)
			}
		}
	}

	if f.sampleStore != nil {
		if err := f.sampleStore.InsertBulk(ctx, samples); err != nil {
			if errors.Is(err, storage.ErrDuplicateKey) {
				for _, s := range samples {
					if err := f.sampleStore.Insert(ctx, s); err != nil {
						if errors.Is(err, storage.ErrDuplicateKey) {
							result.DuplicatesSkipped++
							observability.RecordDuplicateSkipped()
						} else {
							result.Errors++
						}
					} else {
						result.SamplesStored++
					}
				}
			} else {
				result.Errors += len(samples)
				f.logger.Printf("Error archiving samples: %v", err)
			}
		} else {
			result.SamplesStored += len(samples)
		}
	}
}
