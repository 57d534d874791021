package ethchain

import (
	"context"
	"fmt"
	"math/big"
	"time"

	ethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/rs/zerolog"

	"github.com/aztec-labs/rollup-publisher/x/rollup/publish"
	"github.com/aztec-labs/rollup-publisher/x/rollup/publish/contracts"
)

// receiptPollInterval is how often TransactionReceiptSafe re-checks for a
// mined receipt while waiting out its timeout budget.
const receiptPollInterval = 2 * time.Second

// Client adapts a go-ethereum JSON-RPC connection, a local signer, and the
// rollup contract bindings into publish.ChainClient.
type Client struct {
	rpc               rpcClient
	chainID           *big.Int
	signer            Signer
	rollupVerifier    *contracts.RollupVerifierBinding
	broadcastRegistry *contracts.BroadcastRegistryBinding
	userApprovals     *contracts.UserApprovalBinding
	log               zerolog.Logger
}

var _ publish.ChainClient = (*Client)(nil)

// Dial connects to rpcEndpoint and resolves the chain ID, failing fast if
// the connection or the chain ID query fails. The contract bindings are
// taken as given; their addresses are not checked against the chain.
func Dial(
	ctx context.Context,
	rpcEndpoint string,
	signer Signer,
	rollupVerifier *contracts.RollupVerifierBinding,
	broadcastRegistry *contracts.BroadcastRegistryBinding,
	userApprovals *contracts.UserApprovalBinding,
	log zerolog.Logger,
) (*Client, error) {
	conn, err := rpc.DialContext(ctx, rpcEndpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to dial L1 RPC endpoint: %w", err)
	}
	gethClient := ethclient.NewClient(conn)

	chainID, err := gethClient.ChainID(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch chain id: %w", err)
	}

	return &Client{
		rpc:               gethClient,
		chainID:           chainID,
		signer:            signer,
		rollupVerifier:    rollupVerifier,
		broadcastRegistry: broadcastRegistry,
		userApprovals:     userApprovals,
		log:               log.With().Str("component", "ethchain.client").Logger(),
	}, nil
}

// BuildBatch encodes the proof and every off-chain blob into calldata
// against their respective contracts, in broadcast-then-proof send order.
// Each payload is the target contract address followed by its calldata;
// SendTx splits the two back apart before signing.
func (c *Client) BuildBatch(ctx context.Context, rollup publish.Rollup) (publish.RollupSubmissionUnit, error) {
	broadcastTxs := make([][]byte, 0, len(rollup.OffchainBlobs))
	for _, blob := range rollup.OffchainBlobs {
		calldata, err := c.broadcastRegistry.BuildPublishCalldata(ctx, rollup.ID, blob)
		if err != nil {
			return publish.RollupSubmissionUnit{}, fmt.Errorf("build broadcast calldata: %w", err)
		}
		broadcastTxs = append(broadcastTxs, encodeTarget(c.broadcastRegistry.Address(), calldata))
	}

	proofCalldata, err := c.rollupVerifier.BuildSubmitCalldata(ctx, rollup.ID, rollup.Proof)
	if err != nil {
		return publish.RollupSubmissionUnit{}, fmt.Errorf("build proof calldata: %w", err)
	}

	return publish.RollupSubmissionUnit{
		RollupProofTx: encodeTarget(c.rollupVerifier.Address(), proofCalldata),
		BroadcastTxs:  broadcastTxs,
	}, nil
}

// Accounts returns the single local signer account; the publisher always
// uses accounts[0] as its signer.
func (c *Client) Accounts(_ context.Context) ([]common.Address, error) {
	return []common.Address{c.signer.From()}, nil
}

// LatestBlock returns the chain head header.
func (c *Client) LatestBlock(ctx context.Context) (*types.Header, error) {
	header, err := c.rpc.HeaderByNumber(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("fetch latest block header: %w", err)
	}
	return header, nil
}

// BalanceAt returns addr's balance at the latest block.
func (c *Client) BalanceAt(ctx context.Context, addr common.Address) (*big.Int, error) {
	balance, err := c.rpc.BalanceAt(ctx, addr, nil)
	if err != nil {
		return nil, fmt.Errorf("fetch balance: %w", err)
	}
	return balance, nil
}

// NonceAt returns addr's pending nonce, so a batch queued behind an
// already-sent-but-unmined transaction still gets a correctly ordered
// nonce sequence.
func (c *Client) NonceAt(ctx context.Context, addr common.Address) (uint64, error) {
	nonce, err := c.rpc.PendingNonceAt(ctx, addr)
	if err != nil {
		return 0, fmt.Errorf("fetch pending nonce: %w", err)
	}
	return nonce, nil
}

// SendTx decodes payload's target contract and calldata, builds an EIP-1559
// transaction with opts, signs it, and broadcasts it.
func (c *Client) SendTx(ctx context.Context, payload []byte, opts publish.TxOpts) (common.Hash, error) {
	to, calldata, err := decodeTarget(payload)
	if err != nil {
		return common.Hash{}, err
	}

	txData := &types.DynamicFeeTx{
		ChainID:   c.chainID,
		Nonce:     opts.Nonce,
		To:        &to,
		Value:     big.NewInt(0),
		Gas:       opts.GasLimit,
		GasTipCap: opts.MaxPriorityFeePerGas,
		GasFeeCap: opts.MaxFeePerGas,
		Data:      calldata,
	}
	unsigned := types.NewTx(txData)

	signed, err := c.signer.SignTx(ctx, unsigned)
	if err != nil {
		return common.Hash{}, fmt.Errorf("sign transaction: %w", err)
	}

	if err := c.rpc.SendTransaction(ctx, signed); err != nil {
		return common.Hash{}, fmt.Errorf("send transaction: %w", err)
	}

	return signed.Hash(), nil
}

// TransactionReceiptSafe polls for hash's receipt until it mines or timeout
// elapses, returning a nil receipt (nil error) on timeout rather than an
// error, so the caller can distinguish "not yet mined" from "node error".
func (c *Client) TransactionReceiptSafe(ctx context.Context, hash common.Hash, timeout time.Duration) (*publish.TxReceipt, error) {
	deadline := time.Now().Add(timeout)
	ticker := time.NewTicker(receiptPollInterval)
	defer ticker.Stop()

	for {
		receipt, err := c.rpc.TransactionReceipt(ctx, hash)
		switch {
		case err == nil:
			return c.toTxReceipt(ctx, hash, receipt)
		case err == ethereum.NotFound:
			// not yet mined, fall through to the wait below
		default:
			return nil, fmt.Errorf("fetch receipt: %w", err)
		}

		if time.Now().After(deadline) {
			return nil, nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

// toTxReceipt translates a mined receipt into the narrow TxReceipt shape,
// decoding the revert reason by replaying the transaction's call when the
// receipt reports failure.
func (c *Client) toTxReceipt(ctx context.Context, hash common.Hash, receipt *types.Receipt) (*publish.TxReceipt, error) {
	if receipt.Status == types.ReceiptStatusSuccessful {
		return &publish.TxReceipt{Status: true}, nil
	}

	revert, err := c.decodeRevert(ctx, hash, receipt.BlockNumber)
	if err != nil {
		c.log.Warn().Err(err).Str("tx_hash", hash.Hex()).Msg("failed to decode revert reason")
	}
	return &publish.TxReceipt{Status: false, Revert: revert}, nil
}

// decodeRevert replays the reverted transaction at the block it was mined
// in to recover its revert data, then matches that data against the
// rollup verifier binding's declared custom errors before falling back to
// a plain Error(string) reason.
func (c *Client) decodeRevert(ctx context.Context, hash common.Hash, blockNumber *big.Int) (*publish.RevertError, error) {
	tx, _, err := c.rpc.TransactionByHash(ctx, hash)
	if err != nil {
		return nil, fmt.Errorf("fetch transaction for revert replay: %w", err)
	}

	msg := ethereum.CallMsg{
		From:  c.signer.From(),
		To:    tx.To(),
		Value: tx.Value(),
		Gas:   tx.Gas(),
		Data:  tx.Data(),
	}

	_, callErr := c.rpc.CallContract(ctx, msg, blockNumber)
	if callErr == nil {
		return nil, nil
	}

	dataErr, ok := callErr.(rpc.DataError)
	if !ok {
		return nil, fmt.Errorf("revert replay error carried no data: %w", callErr)
	}

	revertData, ok := decodeRevertData(dataErr.ErrorData())
	if !ok {
		return nil, fmt.Errorf("revert replay error data was not hex bytes")
	}

	for _, contractABI := range []abi.ABI{c.rollupVerifier.ABI()} {
		if name, params, ok := contracts.DecodeRevert(contractABI, revertData); ok {
			return &publish.RevertError{Name: name, Params: params}, nil
		}
	}

	if reason, err := abi.UnpackRevert(revertData); err == nil {
		return &publish.RevertError{Name: "Error", Params: []interface{}{reason}}, nil
	}

	return nil, fmt.Errorf("revert data matched no known error")
}

// UserProofApproved reports whether addr's approval signature for txID is
// already recorded on-chain.
func (c *Client) UserProofApproved(ctx context.Context, addr common.Address, txID string) (bool, error) {
	if c.userApprovals == nil {
		return false, nil
	}
	return c.userApprovals.IsApproved(ctx, c.rpc, addr, txID)
}

// encodeTarget packs a contract address and its calldata into the single
// opaque payload the publisher core carries around.
func encodeTarget(addr common.Address, calldata []byte) []byte {
	out := make([]byte, 0, common.AddressLength+len(calldata))
	out = append(out, addr.Bytes()...)
	out = append(out, calldata...)
	return out
}

// decodeTarget reverses encodeTarget.
func decodeTarget(payload []byte) (common.Address, []byte, error) {
	if len(payload) < common.AddressLength {
		return common.Address{}, nil, fmt.Errorf("payload too short to carry a target address")
	}
	return common.BytesToAddress(payload[:common.AddressLength]), payload[common.AddressLength:], nil
}

// decodeRevertData normalizes the handful of shapes go-ethereum's RPC
// client surfaces DataError.ErrorData() as into raw revert bytes.
func decodeRevertData(data interface{}) ([]byte, bool) {
	switch v := data.(type) {
	case []byte:
		return v, true
	case string:
		b, err := hexutil.Decode(v)
		if err != nil {
			return nil, false
		}
		return b, true
	default:
		return nil, false
	}
}
