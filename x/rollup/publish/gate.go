package publish

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/params"
	"github.com/rs/zerolog"
)

// Gate is the pre-submission fee/balance gate. It blocks
// publishing while the predicted effective fee exceeds the configured
// ceiling, or the signer's balance is insufficient to cover a full
// batch at the ceiling price.
type Gate struct {
	chain   ChainClient
	cfg     Config
	in      *Interrupter
	metrics MetricsRecorder
	log     zerolog.Logger
}

// NewGate constructs a Gate over the given chain client and config.
func NewGate(chain ChainClient, cfg Config, in *Interrupter, metrics MetricsRecorder, log zerolog.Logger) *Gate {
	return &Gate{
		chain:   chain,
		cfg:     cfg,
		in:      in,
		metrics: metrics,
		log:     log.With().Str("component", "publish.gate").Logger(),
	}
}

// AwaitClear blocks until both the fee condition and the balance
// condition hold, or the interrupt flag is raised. estimatedGas sizes
// the required balance; required spend is always computed against
// MaxFeePerGas, not the currently observed fee, so a mid-batch fee
// spike cannot strand a partially-submitted batch.
func (g *Gate) AwaitClear(ctx context.Context, signer common.Address, estimatedGas uint64) bool {
	for {
		if g.in.IsSet() {
			return false
		}

		header, err := g.chain.LatestBlock(ctx)
		if err != nil {
			g.log.Error().Err(err).Msg("failed to fetch latest block for fee gate")
			g.metrics.RecordGateWait("chain_error")
			if g.in.SleepOrInterrupted(ctx, g.cfg.GateRetryInterval) {
				return false
			}
			continue
		}

		baseFee := header.BaseFee
		if baseFee == nil {
			baseFee = big.NewInt(0)
		}
		predicted := new(big.Int).Add(baseFee, g.cfg.MaxPriorityFeePerGas)

		if predicted.Cmp(g.cfg.MaxFeePerGas) > 0 {
			g.log.Warn().
				Str("predicted_fee_gwei", weiToGwei(predicted)).
				Str("max_fee_per_gas_gwei", weiToGwei(g.cfg.MaxFeePerGas)).
				Msg("predicted fee exceeds ceiling, waiting")
			g.metrics.RecordGateWait("fee_ceiling")
			if g.in.SleepOrInterrupted(ctx, g.cfg.GateRetryInterval) {
				return false
			}
			continue
		}

		balance, err := g.chain.BalanceAt(ctx, signer)
		if err != nil {
			g.log.Error().Err(err).Msg("failed to fetch signer balance for balance gate")
			g.metrics.RecordGateWait("chain_error")
			if g.in.SleepOrInterrupted(ctx, g.cfg.GateRetryInterval) {
				return false
			}
			continue
		}

		required := new(big.Int).Mul(g.cfg.MaxFeePerGas, new(big.Int).SetUint64(estimatedGas))

		if balance.Cmp(required) < 0 {
			g.log.Warn().
				Str("signer", signer.Hex()).
				Str("balance_eth", weiToEth(balance)).
				Str("required_eth", weiToEth(required)).
				Msg("signer balance insufficient, waiting")
			g.metrics.RecordGateWait("insufficient_balance")
			if g.in.SleepOrInterrupted(ctx, g.cfg.GateRetryInterval) {
				return false
			}
			continue
		}

		g.log.Info().
			Str("signer", signer.Hex()).
			Str("balance_eth", weiToEth(balance)).
			Str("predicted_fee_gwei", weiToGwei(predicted)).
			Str("max_fee_per_gas_gwei", weiToGwei(g.cfg.MaxFeePerGas)).
			Msg("gate cleared")
		return true
	}
}

// weiToGwei formats a wei amount in Gwei for human-readable logging.
// Comparisons in the gate itself always stay in native wei.
func weiToGwei(wei *big.Int) string {
	if wei == nil {
		return "0"
	}
	gwei := new(big.Float).Quo(new(big.Float).SetInt(wei), big.NewFloat(params.GWei))
	return gwei.Text('f', 4)
}

// weiToEth formats a wei amount in ETH for human-readable logging.
func weiToEth(wei *big.Int) string {
	if wei == nil {
		return "0"
	}
	eth := new(big.Float).Quo(new(big.Float).SetInt(wei), big.NewFloat(params.Ether))
	return eth.Text('f', 6)
}
