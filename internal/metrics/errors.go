package metrics

import "errors"

// Domain errors fatal to an analysis run. No partial result is produced.
var (
	// ErrNoActions is returned when the position history holds no actions.
	ErrNoActions = errors.New("position history is empty")

	// ErrNoPriceData is returned when no action moves a nonzero cbBTC
	// amount, leaving no cash flow to imply a reference price from.
	ErrNoPriceData = errors.New("cannot derive reference price: no action has a nonzero cbbtc amount")
)
