package contracts

import (
	"context"
	_ "embed"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

//go:embed abi/rollup_verifier.json
var rollupVerifierABIJSON string

var _ RollupProofBinding = (*RollupVerifierBinding)(nil)

// RollupVerifierBinding encodes calls to the on-chain rollup proof
// verifier contract, and decodes its custom-error revert reasons.
type RollupVerifierBinding struct {
	address common.Address
	abi     abi.ABI
}

// NewRollupVerifierBinding parses the embedded ABI and validates the
// contract address.
func NewRollupVerifierBinding(contractAddr string) (*RollupVerifierBinding, error) {
	if strings.TrimSpace(contractAddr) == "" {
		return nil, fmt.Errorf("contract address cannot be empty")
	}

	parsedABI, err := abi.JSON(strings.NewReader(rollupVerifierABIJSON))
	if err != nil {
		return nil, fmt.Errorf("failed to parse rollup verifier ABI: %w", err)
	}

	return &RollupVerifierBinding{
		address: common.HexToAddress(contractAddr),
		abi:     parsedABI,
	}, nil
}

// Address returns the rollup verifier contract address.
func (b *RollupVerifierBinding) Address() common.Address {
	return b.address
}

// ABI returns the parsed rollup verifier ABI.
func (b *RollupVerifierBinding) ABI() abi.ABI {
	return b.abi
}

// BuildSubmitCalldata encodes submitRollup(rollupId, proof).
func (b *RollupVerifierBinding) BuildSubmitCalldata(_ context.Context, rollupID string, proof []byte) ([]byte, error) {
	if len(proof) == 0 {
		return nil, fmt.Errorf("proof cannot be empty")
	}

	id := rollupIDToBytes32(rollupID)
	data, err := b.abi.Pack("submitRollup", id, proof)
	if err != nil {
		return nil, fmt.Errorf("failed to pack submitRollup calldata: %w", err)
	}
	return data, nil
}

// rollupIDToBytes32 hashes an opaque rollup ID string into the bytes32
// the verifier contract keys its state by.
func rollupIDToBytes32(rollupID string) [32]byte {
	var out [32]byte
	copy(out[:], crypto.Keccak256([]byte(rollupID)))
	return out
}
