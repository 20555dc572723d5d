package client

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"swap_gateway/internal/app/port"
	"swap_gateway/internal/config"
	"swap_gateway/internal/domain/entity"
	"swap_gateway/internal/infrastructure/network/codec"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
	"golang.org/x/time/rate"
)

// EVMClient implements the port.ChainClient interface for EVM-compatible chains.
type EVMClient struct {
	ethClient      *ethclient.Client
	netDef         entity.NetworkDefinition
	rpcCallTimeout time.Duration
	maxRetries     int
	retryDelay     time.Duration
	limiter        *rate.Limiter
}

// NewEVMClient creates a new EVM client for the given network definition,
// trying the primary RPC endpoint first and each fallback in order.
func NewEVMClient(netDef entity.NetworkDefinition, rpcCfg config.RpcClientConfig, connectionTimeout time.Duration, limiter *rate.Limiter) (port.ChainClient, error) {
	rpcURLs := append([]string{netDef.PrimaryRPCURL}, netDef.FallbackRPCURLs...)
	var lastErr error

	for _, rpcURL := range rpcURLs {
		ctx, cancel := context.WithTimeout(context.Background(), connectionTimeout)

		ethClient, err := ethclient.DialContext(ctx, rpcURL)
		cancel()

		if err == nil {
			return &EVMClient{
				ethClient:      ethClient,
				netDef:         netDef,
				rpcCallTimeout: time.Duration(rpcCfg.DefaultTimeoutMs) * time.Millisecond,
				maxRetries:     rpcCfg.MaxRetries,
				retryDelay:     time.Duration(rpcCfg.RetryDelayMs) * time.Millisecond,
				limiter:        limiter,
			}, nil
		}
		lastErr = fmt.Errorf("failed to connect to RPC %s: %w", rpcURL, err)
	}

	return nil, fmt.Errorf("all RPC connection attempts failed for network %s: %w", netDef.Name, lastErr)
}

func (c *EVMClient) wait(ctx context.Context) error {
	if c.limiter == nil {
		return nil
	}
	return c.limiter.Wait(ctx)
}

// callWithRetry runs op with the per-call timeout, retrying transport failures
// up to maxRetries times with a fixed delay between attempts.
func (c *EVMClient) callWithRetry(ctx context.Context, op func(context.Context) error) error {
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(c.retryDelay):
			}
		}

		rpcCallCtx, cancel := context.WithTimeout(ctx, c.rpcCallTimeout)
		err := op(rpcCallCtx)
		cancel()

		if err == nil {
			return nil
		}
		lastErr = err
	}
	return lastErr
}

// SwapPrecheck batches the reads the executor needs before submitting a swap.
// When tokenIn is the native sentinel the allowance and token-balance reads
// are skipped and both report as unlimited/native respectively.
func (c *EVMClient) SwapPrecheck(ctx context.Context, owner, tokenIn, spender string) (entity.SwapPrecheck, error) {
	nativeLeg := tokenIn == "" || tokenIn == entity.ZeroAddress

	batchElems := make([]rpc.BatchElem, 0, 3)

	nativeResult := new(*hexutil.Big)
	batchElems = append(batchElems, rpc.BatchElem{
		Method: "eth_getBalance",
		Args:   []interface{}{common.HexToAddress(owner), "latest"},
		Result: nativeResult,
	})

	var balanceResult, allowanceResult *hexutil.Bytes
	if !nativeLeg {
		balanceData, err := codec.PackBalanceOf(owner)
		if err != nil {
			return entity.SwapPrecheck{}, fmt.Errorf("failed to encode balanceOf call: %w", err)
		}
		allowanceData, err := codec.PackAllowance(owner, spender)
		if err != nil {
			return entity.SwapPrecheck{}, fmt.Errorf("failed to encode allowance call: %w", err)
		}

		balanceResult = new(hexutil.Bytes)
		allowanceResult = new(hexutil.Bytes)
		batchElems = append(batchElems,
			rpc.BatchElem{
				Method: "eth_call",
				Args: []interface{}{map[string]interface{}{
					"to":   common.HexToAddress(tokenIn),
					"data": hexutil.Bytes(balanceData),
				}, "latest"},
				Result: balanceResult,
			},
			rpc.BatchElem{
				Method: "eth_call",
				Args: []interface{}{map[string]interface{}{
					"to":   common.HexToAddress(tokenIn),
					"data": hexutil.Bytes(allowanceData),
				}, "latest"},
				Result: allowanceResult,
			},
		)
	}

	if err := c.wait(ctx); err != nil {
		return entity.SwapPrecheck{}, err
	}

	err := c.callWithRetry(ctx, func(callCtx context.Context) error {
		return c.ethClient.Client().BatchCallContext(callCtx, batchElems)
	})
	if err != nil {
		return entity.SwapPrecheck{}, fmt.Errorf("RPC batch call failed: %w", err)
	}
	for _, elem := range batchElems {
		if elem.Error != nil {
			return entity.SwapPrecheck{}, fmt.Errorf("batched %s call failed: %w", elem.Method, elem.Error)
		}
	}

	precheck := entity.SwapPrecheck{
		NativeBalance: big.NewInt(0),
		TokenBalance:  big.NewInt(0),
		Allowance:     big.NewInt(0),
	}
	if *nativeResult != nil {
		precheck.NativeBalance = (*big.Int)(*nativeResult)
	}
	if nativeLeg {
		// No ERC-20 legs: the native balance doubles as the spendable input
		// and no allowance is involved.
		precheck.TokenBalance = new(big.Int).Set(precheck.NativeBalance)
		return precheck, nil
	}

	tokenBalance, err := codec.UnpackUint256("balanceOf", *balanceResult)
	if err != nil {
		return entity.SwapPrecheck{}, fmt.Errorf("failed to decode token balance for %s: %w", tokenIn, err)
	}
	allowance, err := codec.UnpackUint256("allowance", *allowanceResult)
	if err != nil {
		return entity.SwapPrecheck{}, fmt.Errorf("failed to decode allowance for %s: %w", tokenIn, err)
	}
	precheck.TokenBalance = tokenBalance
	precheck.Allowance = allowance
	return precheck, nil
}

// GetAmountsOut performs the router's getAmountsOut read for the given path.
func (c *EVMClient) GetAmountsOut(ctx context.Context, router string, amountIn *big.Int, path []string) ([]*big.Int, error) {
	callData, err := codec.PackGetAmountsOut(amountIn, path)
	if err != nil {
		return nil, fmt.Errorf("failed to encode getAmountsOut call: %w", err)
	}

	if err := c.wait(ctx); err != nil {
		return nil, err
	}

	routerAddr := common.HexToAddress(router)
	var raw []byte
	err = c.callWithRetry(ctx, func(callCtx context.Context) error {
		var callErr error
		raw, callErr = c.ethClient.CallContract(callCtx, ethereum.CallMsg{
			To:   &routerAddr,
			Data: callData,
		}, nil)
		return callErr
	})
	if err != nil {
		return nil, fmt.Errorf("getAmountsOut call to %s failed: %w", router, err)
	}

	amounts, err := codec.UnpackGetAmountsOut(raw)
	if err != nil {
		return nil, err
	}
	if len(amounts) != len(path) {
		return nil, fmt.Errorf("getAmountsOut returned %d amounts for a path of %d", len(amounts), len(path))
	}
	return amounts, nil
}

// TransactionReceipt returns the receipt state for a submitted hash. A nil
// info with nil error means the transaction is not yet mined.
func (c *EVMClient) TransactionReceipt(ctx context.Context, hash string) (*entity.ReceiptInfo, error) {
	if err := c.wait(ctx); err != nil {
		return nil, err
	}

	rpcCallCtx, cancel := context.WithTimeout(ctx, c.rpcCallTimeout)
	defer cancel()

	receipt, err := c.ethClient.TransactionReceipt(rpcCallCtx, common.HexToHash(hash))
	if err != nil {
		if errors.Is(err, ethereum.NotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to fetch receipt for %s: %w", hash, err)
	}

	info := &entity.ReceiptInfo{
		Success: receipt.Status == 1,
	}
	if receipt.BlockNumber != nil {
		info.BlockNumber = receipt.BlockNumber.Uint64()
	}
	if !info.Success {
		info.RevertReason = c.revertReason(ctx, common.HexToHash(hash), receipt.BlockNumber)
	}
	return info, nil
}

// revertReason replays a failed transaction as an eth_call at its block to
// recover the revert string. Any failure along the way yields an empty reason;
// the receipt's failed status stands on its own.
func (c *EVMClient) revertReason(ctx context.Context, hash common.Hash, blockNumber *big.Int) string {
	replayCtx, cancel := context.WithTimeout(ctx, c.rpcCallTimeout)
	defer cancel()

	tx, _, err := c.ethClient.TransactionByHash(replayCtx, hash)
	if err != nil || tx == nil {
		return ""
	}

	signer := types.LatestSignerForChainID(new(big.Int).SetUint64(c.netDef.ChainID))
	from, err := types.Sender(signer, tx)
	if err != nil {
		return ""
	}

	_, err = c.ethClient.CallContract(replayCtx, ethereum.CallMsg{
		From:     from,
		To:       tx.To(),
		Gas:      tx.Gas(),
		GasPrice: tx.GasPrice(),
		Value:    tx.Value(),
		Data:     tx.Data(),
	}, blockNumber)
	if err == nil {
		return ""
	}
	return revertReasonFromError(err)
}

// revertReasonFromError extracts the ABI-encoded Error(string) payload a node
// attaches to reverted eth_call errors.
func revertReasonFromError(err error) string {
	var dataErr rpc.DataError
	if !errors.As(err, &dataErr) {
		return ""
	}
	hexData, ok := dataErr.ErrorData().(string)
	if !ok {
		return ""
	}
	raw, decodeErr := hexutil.Decode(hexData)
	if decodeErr != nil {
		return ""
	}
	reason, unpackErr := abi.UnpackRevert(raw)
	if unpackErr != nil {
		return ""
	}
	return reason
}

// Definition returns the network definition for this client.
func (c *EVMClient) Definition() entity.NetworkDefinition {
	return c.netDef
}
