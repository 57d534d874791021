package publish

import (
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// Rollup is the locally-aggregated unit the publisher is asked to land on L1:
// a proof plus the off-chain broadcast blobs that must accompany it.
type Rollup struct {
	ID            string
	Proof         []byte
	Signatures    [][]byte
	OffchainBlobs [][]byte
	BuiltAt       time.Time
}

// RollupSubmissionUnit is the result of ChainClient.BuildBatch: opaque,
// signable transaction payloads in send order (broadcast transactions
// first, rollup-proof transaction last).
type RollupSubmissionUnit struct {
	RollupProofTx []byte
	BroadcastTxs  [][]byte
}

// TxStatus tracks one transaction's progress through a single publish
// attempt. The order of a TxStatus slice is invariant for the lifetime
// of the attempt: broadcast transactions first in original order, then
// the rollup-proof transaction last.
type TxStatus struct {
	Name      string
	Payload   []byte
	TxHash    *common.Hash
	Confirmed bool
}

// TxOpts carries the per-send gas parameters, uniform across one batch.
type TxOpts struct {
	Nonce                uint64
	GasLimit             uint64
	MaxFeePerGas         *big.Int
	MaxPriorityFeePerGas *big.Int
}

// TxReceipt is the narrow receipt shape the publisher needs: whether the
// transaction succeeded on-chain, and if not, the decoded revert reason.
type TxReceipt struct {
	Status bool
	Revert *RevertError
}

// RevertError is a decoded custom-error revert: a name and its ABI-packed
// parameters, exactly as surfaced by the chain client's revert decoding.
type RevertError struct {
	Name   string
	Params []interface{}
}

// Outcome is the only thing Publish ever returns to its caller, per the
// "no exceptions across the boundary" design.
type Outcome int

const (
	// ABORTED indicates the publish attempt did not complete: a fatal
	// revert, a receipt timeout or receipt fetch error, an observed
	// interrupt, or a failure to build the batch, persist its call data,
	// or read the signer account.
	ABORTED Outcome = iota
	// PUBLISHED indicates every transaction in the batch is confirmed.
	PUBLISHED
)

func (o Outcome) String() string {
	switch o {
	case PUBLISHED:
		return "PUBLISHED"
	case ABORTED:
		return "ABORTED"
	default:
		return "UNKNOWN"
	}
}

// incorrectStateHashRevert is the one fatal revert name: the rollup
// contract's state advanced since this proof was built, so retrying with
// the same payload can never succeed.
const incorrectStateHashRevert = "INCORRECT_STATE_HASH"

// confirmOutcome is the Receipt Confirmer's internal verdict for one pass
// over the status list.
type confirmOutcome int

const (
	allConfirmed confirmOutcome = iota
	retryBatch
	abortBatch
)
