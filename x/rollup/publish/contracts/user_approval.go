package contracts

import (
	"context"
	_ "embed"
	"fmt"
	"math/big"
	"strings"

	ethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

//go:embed abi/user_approval_registry.json
var userApprovalRegistryABIJSON string

// ContractCaller is the minimal read-only surface the user approval
// binding needs from an RPC connection.
type ContractCaller interface {
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
}

// UserApprovalBinding encodes calls to the on-chain registry that records
// which accounts have already approved a given rollup transaction's
// inclusion. It answers the lookup only; the batch builder does not use
// the answer to omit signatures.
type UserApprovalBinding struct {
	address common.Address
	abi     abi.ABI
}

// NewUserApprovalBinding parses the embedded ABI and validates the
// contract address.
func NewUserApprovalBinding(contractAddr string) (*UserApprovalBinding, error) {
	if strings.TrimSpace(contractAddr) == "" {
		return nil, fmt.Errorf("contract address cannot be empty")
	}

	parsedABI, err := abi.JSON(strings.NewReader(userApprovalRegistryABIJSON))
	if err != nil {
		return nil, fmt.Errorf("failed to parse user approval registry ABI: %w", err)
	}

	return &UserApprovalBinding{
		address: common.HexToAddress(contractAddr),
		abi:     parsedABI,
	}, nil
}

// Address returns the user approval registry contract address.
func (b *UserApprovalBinding) Address() common.Address {
	return b.address
}

// IsApproved calls isApproved(account, txId) at the latest block.
func (b *UserApprovalBinding) IsApproved(ctx context.Context, caller ContractCaller, account common.Address, txID string) (bool, error) {
	id := txIDToBytes32(txID)
	calldata, err := b.abi.Pack("isApproved", account, id)
	if err != nil {
		return false, fmt.Errorf("failed to pack isApproved calldata: %w", err)
	}

	to := b.address
	result, err := caller.CallContract(ctx, ethereum.CallMsg{To: &to, Data: calldata}, nil)
	if err != nil {
		return false, fmt.Errorf("isApproved call failed: %w", err)
	}

	unpacked, err := b.abi.Methods["isApproved"].Outputs.Unpack(result)
	if err != nil {
		return false, fmt.Errorf("failed to unpack isApproved result: %w", err)
	}
	if len(unpacked) != 1 {
		return false, fmt.Errorf("unexpected isApproved output arity: %d", len(unpacked))
	}

	approved, ok := unpacked[0].(bool)
	if !ok {
		return false, fmt.Errorf("unexpected isApproved output type: %T", unpacked[0])
	}
	return approved, nil
}

// txIDToBytes32 hashes an opaque transaction ID string into the bytes32
// the registry keys approvals by.
func txIDToBytes32(txID string) [32]byte {
	var out [32]byte
	copy(out[:], crypto.Keccak256([]byte(txID)))
	return out
}
