package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/aztec-labs/rollup-publisher/x/rollup/publish"
)

var _ publish.RollupDatabase = (*MemoryDatabase)(nil)

// MemoryDatabase is an in-memory RollupDatabase, useful for tests and for
// single-process deployments that tolerate losing in-flight state across a
// restart.
type MemoryDatabase struct {
	mu      sync.RWMutex
	records map[string]*Record
}

// NewMemoryDatabase constructs an empty MemoryDatabase.
func NewMemoryDatabase() *MemoryDatabase {
	return &MemoryDatabase{
		records: make(map[string]*Record),
	}
}

// SetCallData stages rollupProofTxBytes for rollupID, overwriting any prior
// staged payload for the same ID.
func (m *MemoryDatabase) SetCallData(_ context.Context, rollupID string, rollupProofTxBytes []byte) error {
	if rollupID == "" {
		return fmt.Errorf("rollup id cannot be empty")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.records[rollupID]
	if !ok {
		rec = &Record{RollupID: rollupID}
		m.records[rollupID] = rec
	}
	rec.RollupProofTxBytes = rollupProofTxBytes
	rec.UpdatedAt = time.Now()
	return nil
}

// ConfirmSent records finalTxHash as the latest dispatched hash for
// rollupID's rollup-proof transaction.
func (m *MemoryDatabase) ConfirmSent(_ context.Context, rollupID string, finalTxHash common.Hash) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.records[rollupID]
	if !ok {
		return fmt.Errorf("no call data staged for rollup %q", rollupID)
	}
	hash := finalTxHash
	rec.LastSentHash = &hash
	rec.UpdatedAt = time.Now()
	return nil
}

// Get returns a copy of the record stored for rollupID, if any.
func (m *MemoryDatabase) Get(rollupID string) (Record, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rec, ok := m.records[rollupID]
	if !ok {
		return Record{}, false
	}
	return *rec, true
}
