package publish

import (
	"context"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func testGateConfig() Config {
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

func TestAwaitClearSucceedsImmediatelyWhenHealthy(t *testing.T) {
	chain := newFakeChainClient(common.HexToAddress("0x01"))
	chain.latestBlockFn = func() (*types.Header, error) {
		return &types.Header{BaseFee: big.NewInt(50)}, nil
	}
	chain.balanceFn = func() (*big.Int, error) {
		return big.NewInt(1_000_000_000), nil
	}

	cfg := testGateConfig()
	gate := NewGate(chain, cfg, NewInterrupter(), noopMetrics{}, zerolog.Nop())

	cleared := gate.AwaitClear(context.Background(), chain.signer, 21000)
	require.True(t, cleared)
}

func TestAwaitClearWaitsOutFeeSpikeThenClears(t *testing.T) {
	chain := newFakeChainClient(common.HexToAddress("0x01"))

	calls := 0
	chain.latestBlockFn = func() (*types.Header, error) {
		calls++
		if calls == 1 {
			return &types.Header{BaseFee: big.NewInt(1000)}, nil
		}
		return &types.Header{BaseFee: big.NewInt(50)}, nil
	}
	chain.balanceFn = func() (*big.Int, error) {
		return big.NewInt(1_000_000_000), nil
	}

	cfg := testGateConfig()
	gate := NewGate(chain, cfg, NewInterrupter(), noopMetrics{}, zerolog.Nop())

	cleared := gate.AwaitClear(context.Background(), chain.signer, 21000)
	require.True(t, cleared)
	require.GreaterOrEqual(t, calls, 2)
}

func TestAwaitClearWaitsOutInsufficientBalanceThenClears(t *testing.T) {
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

	cfg := testGateConfig()
	gate := NewGate(chain, cfg, NewInterrupter(), noopMetrics{}, zerolog.Nop())

	cleared := gate.AwaitClear(context.Background(), chain.signer, 21000)
	require.True(t, cleared)
	require.GreaterOrEqual(t, calls, 2)
}

func TestAwaitClearReturnsFalseOnInterrupt(t *testing.T) {
	chain := newFakeChainClient(common.HexToAddress("0x01"))
	chain.latestBlockFn = func() (*types.Header, error) {
		return &types.Header{BaseFee: big.NewInt(1000)}, nil
	}

	in := NewInterrupter()
	cfg := testGateConfig()
	gate := NewGate(chain, cfg, in, noopMetrics{}, zerolog.Nop())

	done := make(chan bool, 1)
	go func() {
		done <- gate.AwaitClear(context.Background(), chain.signer, 21000)
	}()

	time.Sleep(10 * time.Millisecond)
	in.Interrupt()

	select {
	case cleared := <-done:
		require.False(t, cleared)
	case <-time.After(time.Second):
		t.Fatal("AwaitClear did not return after interrupt")
	}
}
