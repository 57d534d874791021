package publish

import (
	"context"

	"github.com/rs/zerolog"
)

// Confirmer polls receipts for a status list in order and classifies
// the outcome.
type Confirmer struct {
	chain ChainClient
	cfg   Config
	in    *Interrupter
	log   zerolog.Logger
}

// NewConfirmer constructs a Confirmer.
func NewConfirmer(chain ChainClient, cfg Config, in *Interrupter, log zerolog.Logger) *Confirmer {
	return &Confirmer{
		chain: chain,
		cfg:   cfg,
		in:    in,
		log:   log.With().Str("component", "publish.confirmer").Logger(),
	}
}

// Confirm walks statuses in order, polling a receipt for each
// not-yet-confirmed entry. It returns allConfirmed once every entry is
// confirmed, abortBatch on a receipt timeout or a fatal
// INCORRECT_STATE_HASH revert, or retryBatch after sleeping on any
// other non-fatal revert.
func (c *Confirmer) Confirm(ctx context.Context, statuses []*TxStatus) confirmOutcome {
	for _, st := range statuses {
		if st.Confirmed {
			continue
		}
		if st.TxHash == nil {
			// Should not happen: the submitter guarantees every entry it
			// did not abandon on interrupt has a hash before Confirm runs.
			return abortBatch
		}

		receipt, err := c.chain.TransactionReceiptSafe(ctx, *st.TxHash, c.cfg.ReceiptTimeout)
		if err != nil {
			c.log.Error().Err(err).Str("tx_name", st.Name).Str("tx_hash", st.TxHash.Hex()).
				Msg("receipt fetch errored, aborting publish")
			return abortBatch
		}
		if receipt == nil {
			c.log.Error().Str("tx_name", st.Name).Str("tx_hash", st.TxHash.Hex()).
				Msg("receipt not returned within budget, aborting publish")
			return abortBatch
		}

		if receipt.Status {
			st.Confirmed = true
			c.log.Info().Str("tx_name", st.Name).Str("tx_hash", st.TxHash.Hex()).
				Msg("transaction confirmed")
			continue
		}

		if receipt.Revert != nil && receipt.Revert.Name == incorrectStateHashRevert {
			c.log.Error().
				Str("tx_name", st.Name).
				Str("tx_hash", st.TxHash.Hex()).
				Str("revert", receipt.Revert.Name).
				Interface("params", receipt.Revert.Params).
				Msg("fatal revert: rollup contract state changed under us")
			return abortBatch
		}

		revertName := "unknown"
		var params []interface{}
		if receipt.Revert != nil {
			revertName = receipt.Revert.Name
			params = receipt.Revert.Params
		}
		c.log.Warn().
			Str("tx_name", st.Name).
			Str("tx_hash", st.TxHash.Hex()).
			Str("revert", revertName).
			Interface("params", params).
			Msg("non-fatal revert, will retry outer iteration")

		c.in.SleepOrInterrupted(ctx, c.cfg.RevertRetryInterval)
		return retryBatch
	}

	return allConfirmed
}
