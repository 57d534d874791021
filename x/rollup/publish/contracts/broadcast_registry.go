package contracts

import (
	"context"
	_ "embed"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

//go:embed abi/broadcast_registry.json
var broadcastRegistryABIJSON string

var _ BroadcastBinding = (*BroadcastRegistryBinding)(nil)

// BroadcastRegistryBinding encodes calls to the on-chain broadcast-data
// discovery contract.
type BroadcastRegistryBinding struct {
	address common.Address
	abi     abi.ABI
}

// NewBroadcastRegistryBinding parses the embedded ABI and validates the
// contract address.
func NewBroadcastRegistryBinding(contractAddr string) (*BroadcastRegistryBinding, error) {
	if strings.TrimSpace(contractAddr) == "" {
		return nil, fmt.Errorf("contract address cannot be empty")
	}

	parsedABI, err := abi.JSON(strings.NewReader(broadcastRegistryABIJSON))
	if err != nil {
		return nil, fmt.Errorf("failed to parse broadcast registry ABI: %w", err)
	}

	return &BroadcastRegistryBinding{
		address: common.HexToAddress(contractAddr),
		abi:     parsedABI,
	}, nil
}

// Address returns the broadcast registry contract address.
func (b *BroadcastRegistryBinding) Address() common.Address {
	return b.address
}

// BuildPublishCalldata encodes publishBlob(rollupId, blob).
func (b *BroadcastRegistryBinding) BuildPublishCalldata(_ context.Context, rollupID string, blob []byte) ([]byte, error) {
	if len(blob) == 0 {
		return nil, fmt.Errorf("blob cannot be empty")
	}

	id := rollupIDToBytes32(rollupID)
	data, err := b.abi.Pack("publishBlob", id, blob)
	if err != nil {
		return nil, fmt.Errorf("failed to pack publishBlob calldata: %w", err)
	}
	return data, nil
}
