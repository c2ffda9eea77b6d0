package basescan

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Transaction is one account transaction from the txlist endpoint.
type Transaction struct {
	Hash        string
	From        string
	To          string
	Input       string // calldata; the leading four bytes select the method
	BlockNumber int64
	Timestamp   time.Time
}

// MethodID returns the four-byte selector prefix of the calldata, or the
// empty string when the input is too short to carry one.
func (t Transaction) MethodID() string {
	if len(t.Input) < 10 {
		return ""
	}
	return t.Input[:10]
}

// Receipt is the log-bearing part of a transaction receipt.
type Receipt struct {
	Status string // "0x1" success, "0x0" reverted
	Logs   []Log
}

// Log is one emitted event log. TimestampMs is only populated by the logs
// module; receipt logs do not carry a timestamp.
type Log struct {
	Address     string
	Topics      []string
	Data        string
	BlockNumber int64
	TxHash      string
	TimestampMs int64
}

// txWire is the all-strings wire form of a txlist entry.
type txWire struct {
	Hash        string `json:"hash"`
	From        string `json:"from"`
	To          string `json:"to"`
	Input       string `json:"input"`
	BlockNumber string `json:"blockNumber"`
	TimeStamp   string `json:"timeStamp"`
}

func (w txWire) toTransaction() (Transaction, error) {
	block, err := strconv.ParseInt(w.BlockNumber, 10, 64)
	if err != nil {
		return Transaction{}, fmt.Errorf("parse block number %q: %w", w.BlockNumber, err)
	}
	ts, err := strconv.ParseInt(w.TimeStamp, 10, 64)
	if err != nil {
		return Transaction{}, fmt.Errorf("parse timestamp %q: %w", w.TimeStamp, err)
	}
	return Transaction{
		Hash:        w.Hash,
		From:        w.From,
		To:          w.To,
		Input:       w.Input,
		BlockNumber: block,
		Timestamp:   time.Unix(ts, 0).UTC(),
	}, nil
}

// receiptWire is the raw proxy response for eth_getTransactionReceipt.
// Quantity fields are 0x-prefixed hex.
type receiptWire struct {
	Status string    `json:"status"`
	Logs   []logWire `json:"logs"`
}

type logWire struct {
	Address         string   `json:"address"`
	Topics          []string `json:"topics"`
	Data            string   `json:"data"`
	BlockNumber     string   `json:"blockNumber"`
	TransactionHash string   `json:"transactionHash"`
	TimeStamp       string   `json:"timeStamp"`
}

func (w logWire) toLog() (Log, error) {
	block, err := parseHexInt(w.BlockNumber)
	if err != nil {
		return Log{}, fmt.Errorf("parse log block number %q: %w", w.BlockNumber, err)
	}
	l := Log{
		Address:     w.Address,
		Topics:      w.Topics,
		Data:        w.Data,
		BlockNumber: block,
		TxHash:      w.TransactionHash,
	}
	if w.TimeStamp != "" {
		sec, err := parseHexInt(w.TimeStamp)
		if err != nil {
			return Log{}, fmt.Errorf("parse log timestamp %q: %w", w.TimeStamp, err)
		}
		l.TimestampMs = sec * 1000
	}
	return l, nil
}

// parseHexInt parses a 0x-prefixed hex quantity.
func parseHexInt(s string) (int64, error) {
	return strconv.ParseInt(strings.TrimPrefix(s, "0x"), 16, 64)
}
