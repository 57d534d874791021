package publish

import (
	"context"
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/require"
)

func testPublisherConfig() Config {
	return Config{
		MaxFeePerGas:         big.NewInt(100),
		MaxPriorityFeePerGas: big.NewInt(10),
		GasLimit:             21000,
		GateRetryInterval:    5 * time.Millisecond,
		SendRetryInterval:    5 * time.Millisecond,
		RevertRetryInterval:  5 * time.Millisecond,
		ReceiptTimeout:       time.Second,
	}
}

func newTestPublisher(t *testing.T, chain *fakeChainClient, db *fakeDatabase) *Publisher {
	pub, err := NewPublisher(testPublisherConfig(),
		WithChainClient(chain),
		WithRollupDatabase(db),
	)
	require.NoError(t, err)
	return pub
}

func testRollup() Rollup {
	return Rollup{
		ID:            "rollup-1",
		Proof:         []byte{0xAA},
		OffchainBlobs: [][]byte{{0x01}, {0x02}},
	}
}

func healthyChain() *fakeChainClient {
	chain := newFakeChainClient(common.HexToAddress("0x01"))
	chain.latestBlockFn = func() (*types.Header, error) {
		return &types.Header{BaseFee: big.NewInt(50)}, nil
	}
	chain.balanceFn = func() (*big.Int, error) {
		return big.NewInt(1_000_000_000), nil
	}
	return chain
}

func TestPublishHappyPath(t *testing.T) {
	chain := healthyChain()
	db := newFakeDatabase()
	pub := newTestPublisher(t, chain, db)

	outcome, err := pub.Publish(context.Background(), testRollup(), 21000)
	require.NoError(t, err)
	require.Equal(t, PUBLISHED, outcome)
	require.Equal(t, 3, chain.sendCount())
	require.Contains(t, db.callData, "rollup-1")
	require.Contains(t, db.confirmed, "rollup-1")
}

func TestPublishClearsFeeSpikeBeforeSubmitting(t *testing.T) {
	chain := newFakeChainClient(common.HexToAddress("0x01"))
	calls := 0
	chain.latestBlockFn = func() (*types.Header, error) {
		calls++
		if calls == 1 {
			return &types.Header{BaseFee: big.NewInt(1_000_000)}, nil
		}
		return &types.Header{BaseFee: big.NewInt(50)}, nil
	}
	chain.balanceFn = func() (*big.Int, error) {
		return big.NewInt(1_000_000_000), nil
	}
	db := newFakeDatabase()
	pub := newTestPublisher(t, chain, db)

	outcome, err := pub.Publish(context.Background(), testRollup(), 21000)
	require.NoError(t, err)
	require.Equal(t, PUBLISHED, outcome)
	require.GreaterOrEqual(t, calls, 2)
}

func TestPublishWaitsOutInsufficientBalance(t *testing.T) {
	chain := newFakeChainClient(common.HexToAddress("0x01"))
	chain.latestBlockFn = func() (*types.Header, error) {
		return &types.Header{BaseFee: big.NewInt(50)}, nil
	}
	calls := 0
	chain.balanceFn = func() (*big.Int, error) {
		calls++
		if calls == 1 {
			return big.NewInt(1), nil
		}
		return big.NewInt(1_000_000_000), nil
	}
	db := newFakeDatabase()
	pub := newTestPublisher(t, chain, db)

	outcome, err := pub.Publish(context.Background(), testRollup(), 21000)
	require.NoError(t, err)
	require.Equal(t, PUBLISHED, outcome)
	require.GreaterOrEqual(t, calls, 2)
}

func TestPublishRetriesThroughTransientSendError(t *testing.T) {
	chain := healthyChain()
	sendAttempts := 0
	chain.sendTxFn = func(_ []byte, opts TxOpts) (common.Hash, error) {
		sendAttempts++
		if sendAttempts == 1 {
			return common.Hash{}, errSendFailed
		}
		return fakeHash(opts.Nonce), nil
	}
	db := newFakeDatabase()
	pub := newTestPublisher(t, chain, db)

	outcome, err := pub.Publish(context.Background(), testRollup(), 21000)
	require.NoError(t, err)
	require.Equal(t, PUBLISHED, outcome)
	require.Greater(t, sendAttempts, 3)
}

func TestPublishRetriesOuterLoopOnNonFatalRevertOfProofTx(t *testing.T) {
	chain := healthyChain()

	receiptCalls := 0
	chain.receiptFn = func(hash common.Hash) (*TxReceipt, error) {
		receiptCalls++
		// Fail the proof tx's first receipt check with a non-fatal
		// revert; every subsequent receipt check (including the resend)
		// succeeds.
		if receiptCalls == 3 {
			return &TxReceipt{Status: false, Revert: &RevertError{Name: "TRANSIENT_VALIDATION_FAILURE"}}, nil
		}
		return &TxReceipt{Status: true}, nil
	}

	db := newFakeDatabase()
	pub := newTestPublisher(t, chain, db)

	outcome, err := pub.Publish(context.Background(), testRollup(), 21000)
	require.NoError(t, err)
	require.Equal(t, PUBLISHED, outcome)

	// Two broadcast sends plus two attempts at the proof tx (the
	// original and the resend after the non-fatal revert).
	require.Equal(t, 4, chain.sendCount())
}

func TestPublishAbortsOnFatalIncorrectStateHashRevert(t *testing.T) {
	chain := healthyChain()
	chain.receiptFn = func(_ common.Hash) (*TxReceipt, error) {
		return &TxReceipt{Status: false, Revert: &RevertError{Name: incorrectStateHashRevert}}, nil
	}
	db := newFakeDatabase()
	pub := newTestPublisher(t, chain, db)

	outcome, err := pub.Publish(context.Background(), testRollup(), 21000)
	require.NoError(t, err)
	require.Equal(t, ABORTED, outcome)
}

func TestPublishInterruptedDuringGateReturnsAborted(t *testing.T) {
	chain := newFakeChainClient(common.HexToAddress("0x01"))
	chain.latestBlockFn = func() (*types.Header, error) {
		return &types.Header{BaseFee: big.NewInt(1_000_000)}, nil
	}
	db := newFakeDatabase()
	pub := newTestPublisher(t, chain, db)

	done := make(chan Outcome, 1)
	go func() {
		outcome, _ := pub.Publish(context.Background(), testRollup(), 21000)
		done <- outcome
	}()

	time.Sleep(10 * time.Millisecond)
	pub.Interrupt()

	select {
	case outcome := <-done:
		require.Equal(t, ABORTED, outcome)
	case <-time.After(time.Second):
		t.Fatal("Publish did not return after interrupt")
	}

	require.Equal(t, 0, chain.sendCount())
}

func TestPublishReturnsAbortedWithNilErrorOnBuildBatchFailure(t *testing.T) {
	chain := healthyChain()
	chain.buildBatchFn = func(Rollup) (RollupSubmissionUnit, error) {
		return RollupSubmissionUnit{}, errors.New("encode failure")
	}
	db := newFakeDatabase()
	pub := newTestPublisher(t, chain, db)

	outcome, err := pub.Publish(context.Background(), testRollup(), 21000)
	require.NoError(t, err)
	require.Equal(t, ABORTED, outcome)
}

func TestPublishReturnsAbortedWithNilErrorOnAccountsFailure(t *testing.T) {
	chain := healthyChain()
	chain.accountsFn = func() ([]common.Address, error) {
		return nil, errors.New("rpc unavailable")
	}
	db := newFakeDatabase()
	pub := newTestPublisher(t, chain, db)

	outcome, err := pub.Publish(context.Background(), testRollup(), 21000)
	require.NoError(t, err)
	require.Equal(t, ABORTED, outcome)
}

func TestPublishRejectsConcurrentCalls(t *testing.T) {
	chain := newFakeChainClient(common.HexToAddress("0x01"))
	chain.latestBlockFn = func() (*types.Header, error) {
		return &types.Header{BaseFee: big.NewInt(1_000_000)}, nil
	}
	db := newFakeDatabase()
	pub := newTestPublisher(t, chain, db)

	started := make(chan struct{})
	firstDone := make(chan struct{})
	go func() {
		close(started)
		_, _ = pub.Publish(context.Background(), testRollup(), 21000)
		close(firstDone)
	}()
	<-started
	time.Sleep(10 * time.Millisecond)

	outcome, err := pub.Publish(context.Background(), testRollup(), 21000)
	require.Error(t, err)
	require.Equal(t, ABORTED, outcome)

	pub.Interrupt()
	<-firstDone
}
