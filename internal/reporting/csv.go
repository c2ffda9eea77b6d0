package reporting

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"aerodrome-lp-lab/internal/domain"
)

// WriteActionsCSV writes the raw action history as CSV, one row per action
// in input order. Decimal fields keep their exact digits.
func WriteActionsCSV(w io.Writer, actions []domain.Action) error {
	if _, err := fmt.Fprintln(w, "timestamp,event,token_id,cbbtc,usdc,cash_flow,tx"); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}

	for _, a := range actions {
		tokenID := ""
		if a.TokenID != nil {
			tokenID = strconv.FormatInt(*a.TokenID, 10)
		}

		_, err := fmt.Fprintf(w, "%s,%s,%s,%s,%s,%s,%s\n",
			a.Timestamp.UTC().Format(time.RFC3339),
			a.Event,
			tokenID,
			a.CbBTC,
			a.USDC,
			a.CashFlow,
			a.TxHash,
		)
		if err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}

	return nil
}
