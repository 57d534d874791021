package ethchain

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
)

// Signer abstracts transaction signing away from the chain client, so the
// client never holds a private key directly.
type Signer interface {
	From() common.Address
	SignTx(ctx context.Context, tx *types.Transaction) (*types.Transaction, error)
}

// LocalECDSASigner signs transactions with a local secp256k1 private key.
type LocalECDSASigner struct {
	chainID *big.Int
	key     *ecdsa.PrivateKey
	from    common.Address
}

// NewLocalECDSASigner derives the signing account from key and binds it to
// chainID for EIP-155 replay protection.
func NewLocalECDSASigner(chainID *big.Int, key *ecdsa.PrivateKey) *LocalECDSASigner {
	return &LocalECDSASigner{
		chainID: chainID,
		key:     key,
		from:    crypto.PubkeyToAddress(key.PublicKey),
	}
}

// From returns the account this signer signs on behalf of.
func (s *LocalECDSASigner) From() common.Address {
	return s.from
}

// SignTx signs tx with the latest signer for the signer's chain ID.
func (s *LocalECDSASigner) SignTx(_ context.Context, tx *types.Transaction) (*types.Transaction, error) {
	if s.chainID == nil {
		return nil, fmt.Errorf("signer chain id not set")
	}
	return types.SignTx(tx, types.LatestSignerForChainID(s.chainID), s.key)
}
