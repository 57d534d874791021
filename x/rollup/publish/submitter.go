package publish

import (
	"context"

	"github.com/rs/zerolog"
)

// Submitter assigns a contiguous strictly-increasing nonce sequence to
// every not-yet-confirmed entry in a status list and sends it, in list order.
// Already-confirmed entries are skipped and do not consume a nonce.
type Submitter struct {
	chain ChainClient
	cfg   Config
	in    *Interrupter
	log   zerolog.Logger
}

// NewSubmitter constructs a Submitter.
func NewSubmitter(chain ChainClient, cfg Config, in *Interrupter, log zerolog.Logger) *Submitter {
	return &Submitter{
		chain: chain,
		cfg:   cfg,
		in:    in,
		log:   log.With().Str("component", "publish.submitter").Logger(),
	}
}

// Submit sends every not-yet-confirmed status entry, assigning
// startNonce, startNonce+1, ... in list order; a confirmed entry keeps
// its nonce out of the new sequence entirely. An entry that was sent
// but never confirmed in a prior iteration (e.g. a non-fatal revert) is
// resent here under a fresh nonce, overwriting its stored hash. On a
// send error the submitter sleeps and retries the same entry with the
// same nonce; it does not advance until that entry obtains a hash or
// the interrupt fires. Returns false if interrupted before every entry
// has a hash.
func (s *Submitter) Submit(ctx context.Context, statuses []*TxStatus, startNonce uint64) bool {
	nonce := startNonce

	for _, st := range statuses {
		if st.Confirmed {
			continue
		}

		for {
			if s.in.IsSet() {
				return false
			}

			opts := TxOpts{
				Nonce:                nonce,
				GasLimit:             s.cfg.GasLimit,
				MaxFeePerGas:         s.cfg.MaxFeePerGas,
				MaxPriorityFeePerGas: s.cfg.MaxPriorityFeePerGas,
			}

			s.log.Info().
				Str("tx_name", st.Name).
				Int("size_bytes", len(st.Payload)).
				Uint64("nonce", nonce).
				Msg("sending transaction")

			hash, err := s.chain.SendTx(ctx, st.Payload, opts)
			if err != nil {
				s.log.Error().
					Err(err).
					Str("tx_name", st.Name).
					Uint64("nonce", nonce).
					Msg("send failed, retrying")
				if s.in.SleepOrInterrupted(ctx, s.cfg.SendRetryInterval) {
					return false
				}
				continue
			}

			st.TxHash = &hash
			break
		}

		nonce++
	}

	return true
}
