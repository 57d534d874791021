package contracts

import (
	"context"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

// RollupProofBinding knows how to encode a call that submits a rollup
// proof to its verifying contract, and how to decode that contract's
// revert reasons out of failed-call return data.
type RollupProofBinding interface {
	// Address returns the L1 contract address the proof transaction is
	// sent to.
	Address() common.Address

	// ABI returns the parsed contract ABI, used by the confirmer to
	// decode revert reasons out of receipt/call data.
	ABI() abi.ABI

	// BuildSubmitCalldata encodes the calldata to submit proof for the
	// given rollup ID.
	BuildSubmitCalldata(ctx context.Context, rollupID string, proof []byte) ([]byte, error)
}

// BroadcastBinding knows how to encode a call that publishes a single
// off-chain broadcast blob to its discovery contract.
type BroadcastBinding interface {
	// Address returns the L1 contract address broadcast transactions
	// are sent to.
	Address() common.Address

	// BuildPublishCalldata encodes the calldata to publish one blob.
	BuildPublishCalldata(ctx context.Context, rollupID string, blob []byte) ([]byte, error)
}
