package store

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// Record tracks one rollup's publish progress across restarts: the call
// data staged before any on-chain attempt, and the hash of whichever
// rollup-proof transaction is the latest one dispatched for it.
type Record struct {
	RollupID           string
	RollupProofTxBytes []byte
	LastSentHash       *common.Hash
	UpdatedAt          time.Time
}
