package publish

import (
	"context"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// ChainClient is the upstream collaborator the publisher drives to land
// transactions on L1. Construction of the proof and transaction-data
// encoding live behind BuildBatch; the publisher only ever sees opaque
// payload bytes and hashes.
type ChainClient interface {
	// BuildBatch packages the rollup's proof and off-chain blobs into
	// signable transaction byte sequences, in send order.
	BuildBatch(ctx context.Context, rollup Rollup) (RollupSubmissionUnit, error)

	// Accounts returns the signer addresses known to the client; the
	// default signer is the first entry.
	Accounts(ctx context.Context) ([]common.Address, error)

	// LatestBlock returns the most recently sealed block's header.
	LatestBlock(ctx context.Context) (*types.Header, error)

	// BalanceAt returns the signer's current balance, in wei.
	BalanceAt(ctx context.Context, addr common.Address) (*big.Int, error)

	// NonceAt returns the next-to-use nonce for addr at its latest state.
	NonceAt(ctx context.Context, addr common.Address) (uint64, error)

	// SendTx signs and sends payload with the given options, returning
	// the assigned transaction hash. It may fail with a node error.
	SendTx(ctx context.Context, payload []byte, opts TxOpts) (common.Hash, error)

	// TransactionReceiptSafe polls for a receipt until it is mined or
	// timeout elapses. A nil receipt (with a nil error) means "not mined
	// within budget".
	TransactionReceiptSafe(ctx context.Context, hash common.Hash, timeout time.Duration) (*TxReceipt, error)

	// UserProofApproved reports whether addr's signature approval for
	// txID is already recorded on-chain. Nothing in this module calls it:
	// the publisher does not, and ethchain.Client.BuildBatch encodes only
	// the proof and the off-chain blobs, so Rollup.Signatures never reach
	// the batch and no signature is omitted on the strength of it.
	UserProofApproved(ctx context.Context, addr common.Address, txID string) (bool, error)
}

// RollupDatabase is the downstream collaborator the publisher persists
// progress to, so a restarting process can reconstruct in-flight state.
type RollupDatabase interface {
	// SetCallData persists the built rollup-proof transaction payload
	// before any on-chain attempt.
	SetCallData(ctx context.Context, rollupID string, rollupProofTxBytes []byte) error

	// ConfirmSent persists the hash of the rollup-proof transaction once
	// it has been dispatched.
	ConfirmSent(ctx context.Context, rollupID string, finalTxHash common.Hash) error
}

// MetricsRecorder is the metrics collaborator: publish-duration
// measurement plus attempt/retry counters.
type MetricsRecorder interface {
	// PublishTimer starts a publish-duration measurement and returns a
	// function that stops it.
	PublishTimer() func()
	RecordOutcome(outcome Outcome)
	RecordGateWait(reason string)
	RecordRetry(reason string)
}
