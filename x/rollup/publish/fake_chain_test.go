package publish

import (
	"context"
	"errors"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// fakeChainClient is a hand-built ChainClient double, grounded in the same
// scripted-response style as a mock RPC client: each method's behavior is
// driven by a small set of pre-set fields and counters, rather than a real
// network connection.
type fakeChainClient struct {
	mu sync.Mutex

	signer common.Address

	latestBlockFn func() (*types.Header, error)
	balanceFn     func() (*big.Int, error)
	nonceFn       func() (uint64, error)
	sendTxFn      func(payload []byte, opts TxOpts) (common.Hash, error)
	receiptFn     func(hash common.Hash) (*TxReceipt, error)
	buildBatchFn  func(rollup Rollup) (RollupSubmissionUnit, error)
	accountsFn    func() ([]common.Address, error)

	sentTxs []sentTx
}

type sentTx struct {
	payload []byte
	opts    TxOpts
}

func newFakeChainClient(signer common.Address) *fakeChainClient {
	return &fakeChainClient{signer: signer}
}

func (f *fakeChainClient) BuildBatch(_ context.Context, rollup Rollup) (RollupSubmissionUnit, error) {
	if f.buildBatchFn != nil {
		return f.buildBatchFn(rollup)
	}
	broadcastTxs := make([][]byte, len(rollup.OffchainBlobs))
	copy(broadcastTxs, rollup.OffchainBlobs)
	return RollupSubmissionUnit{RollupProofTx: rollup.Proof, BroadcastTxs: broadcastTxs}, nil
}

func (f *fakeChainClient) Accounts(_ context.Context) ([]common.Address, error) {
	if f.accountsFn != nil {
		return f.accountsFn()
	}
	return []common.Address{f.signer}, nil
}

func (f *fakeChainClient) LatestBlock(_ context.Context) (*types.Header, error) {
	if f.latestBlockFn != nil {
		return f.latestBlockFn()
	}
	return &types.Header{BaseFee: big.NewInt(0)}, nil
}

func (f *fakeChainClient) BalanceAt(_ context.Context, _ common.Address) (*big.Int, error) {
	if f.balanceFn != nil {
		return f.balanceFn()
	}
	return big.NewInt(0), nil
}

func (f *fakeChainClient) NonceAt(_ context.Context, _ common.Address) (uint64, error) {
	if f.nonceFn != nil {
		return f.nonceFn()
	}
	return 0, nil
}

func (f *fakeChainClient) SendTx(_ context.Context, payload []byte, opts TxOpts) (common.Hash, error) {
	f.mu.Lock()
	f.sentTxs = append(f.sentTxs, sentTx{payload: payload, opts: opts})
	f.mu.Unlock()

	if f.sendTxFn != nil {
		return f.sendTxFn(payload, opts)
	}
	return fakeHash(opts.Nonce), nil
}

func (f *fakeChainClient) TransactionReceiptSafe(_ context.Context, hash common.Hash, _ time.Duration) (*TxReceipt, error) {
	if f.receiptFn != nil {
		return f.receiptFn(hash)
	}
	return &TxReceipt{Status: true}, nil
}

func (f *fakeChainClient) UserProofApproved(_ context.Context, _ common.Address, _ string) (bool, error) {
	return false, nil
}

func (f *fakeChainClient) sendCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sentTxs)
}

// fakeHash deterministically derives a distinct hash per nonce, so tests
// can tell sends apart without depending on real signing.
func fakeHash(nonce uint64) common.Hash {
	var h common.Hash
	h[31] = byte(nonce)
	h[30] = byte(nonce >> 8)
	return h
}

// fakeDatabase is an in-memory RollupDatabase double for tests that don't
// need the full store package.
type fakeDatabase struct {
	mu          sync.Mutex
	callData    map[string][]byte
	confirmed   map[string]common.Hash
	confirmFail bool
}

func newFakeDatabase() *fakeDatabase {
	return &fakeDatabase{
		callData:  make(map[string][]byte),
		confirmed: make(map[string]common.Hash),
	}
}

func (d *fakeDatabase) SetCallData(_ context.Context, rollupID string, data []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.callData[rollupID] = data
	return nil
}

func (d *fakeDatabase) ConfirmSent(_ context.Context, rollupID string, hash common.Hash) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.confirmFail {
		return errConfirmFailed
	}
	d.confirmed[rollupID] = hash
	return nil
}

var errConfirmFailed = errors.New("forced test failure")
