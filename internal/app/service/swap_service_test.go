package service

import (
	"context"
	"math/big"
	"testing"
	"time"

	"swap_gateway/internal/config"
	"swap_gateway/internal/domain/entity"
	"swap_gateway/internal/infrastructure/network/codec"
	"swap_gateway/internal/infrastructure/registry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testExecutorConfig() config.ExecutorConfig {
	return config.ExecutorConfig{
		SwapGasEstimate:        150000,
		ApprovalGasEstimate:    50000,
		DeadlineSeconds:        1200,
		ReceiptPollMillis:      10,
		ConfirmTimeoutSeconds:  1,
		QuoteMaxAgeSeconds:     60,
		DefaultSlippagePercent: 0.5,
	}
}

func newSwapFixture(t *testing.T, precheck entity.SwapPrecheck) (*SwapServiceImpl, *fakeChainClient, *fakeWallet, *recordingNotifier) {
	t.Helper()
	reg := newTestRegistry(t)
	chainClient := &fakeChainClient{def: registry.Base, precheck: precheck}
	notifier := &recordingNotifier{}
	svc := NewSwapService(reg, &fakeClientProvider{client: chainClient}, notifier, nopLogger{}, testExecutorConfig())
	w := &fakeWallet{
		status:  entity.StatusConnected,
		address: "0x00000000000000000000000000000000000000aa",
		chainID: 8453,
	}
	return svc, chainClient, w, notifier
}

func connectedPrecheck(allowance int64) entity.SwapPrecheck {
	return entity.SwapPrecheck{
		Allowance:     big.NewInt(allowance),
		TokenBalance:  big.NewInt(0).Mul(big.NewInt(1e9), big.NewInt(1e9)),
		NativeBalance: big.NewInt(0).Mul(big.NewInt(1e9), big.NewInt(1e9)),
	}
}

func estimateFor(params entity.SwapParams, amountOut string) entity.SwapEstimate {
	return entity.SwapEstimate{
		AmountOut:          amountOut,
		PriceImpactPercent: 0.5,
		GasEstimate:        150000,
		Source:             entity.SourceFallbackTable,
		QuoteID:            1,
		QuotedAt:           time.Now(),
		Params:             params,
	}
}

func waitTerminal(t *testing.T, svc *SwapServiceImpl, hash string) entity.SwapTransaction {
	t.Helper()
	var tx entity.SwapTransaction
	require.Eventually(t, func() bool {
		current, ok := svc.Transaction(hash)
		if !ok {
			return false
		}
		tx = current
		return current.Status.Terminal()
	}, 5*time.Second, 10*time.Millisecond)
	return tx
}

func TestExecute_RequiresConnectedWallet(t *testing.T) {
	svc, _, w, _ := newSwapFixture(t, connectedPrecheck(0))
	params := baseParams("1")

	_, err := svc.Execute(context.Background(), params, estimateFor(params, "4500.000000"), nil)
	require.ErrorIs(t, err, entity.ErrWalletNotConnected)

	w.status = entity.StatusDisconnected
	_, err = svc.Execute(context.Background(), params, estimateFor(params, "4500.000000"), w)
	require.ErrorIs(t, err, entity.ErrWalletNotConnected)
}

func TestExecute_RejectsEstimateForChangedParams(t *testing.T) {
	svc, _, w, _ := newSwapFixture(t, connectedPrecheck(0))
	params := baseParams("1")
	estimate := estimateFor(baseParams("2"), "9000.000000")

	_, err := svc.Execute(context.Background(), params, estimate, w)
	require.ErrorIs(t, err, entity.ErrStaleQuote)
	assert.Empty(t, w.requests())
}

func TestExecute_RejectsExpiredEstimate(t *testing.T) {
	svc, _, w, _ := newSwapFixture(t, connectedPrecheck(0))
	params := baseParams("1")
	estimate := estimateFor(params, "4500.000000")
	estimate.QuotedAt = time.Now().Add(-2 * time.Minute)

	_, err := svc.Execute(context.Background(), params, estimate, w)
	require.ErrorIs(t, err, entity.ErrStaleQuote)
	assert.Empty(t, w.requests())
}

func TestExecute_SubmitsApprovalWhenAllowanceInsufficient(t *testing.T) {
	svc, chainClient, w, notifier := newSwapFixture(t, connectedPrecheck(0))
	chainClient.receipts = []*entity.ReceiptInfo{nil, {Success: true}}

	// USDC -> ETH, so the input leg needs a router allowance.
	params := baseParams("100")
	params.TokenIn, params.TokenOut = params.TokenOut, params.TokenIn

	tx, err := svc.Execute(context.Background(), params, estimateFor(params, "0.022222"), w)
	require.NoError(t, err)
	assert.Equal(t, entity.TxKindApproval, tx.Kind)
	assert.Contains(t, tx.ExplorerURL, tx.Hash)

	requests := w.requests()
	require.Len(t, requests, 1)
	assert.Equal(t, baseUSDCAddress, requests[0].To)
	assert.Equal(t, uint64(50000), requests[0].GasLimit)
	assert.Nil(t, requests[0].Value)

	// approve(router, amountIn) with USDC's 6 decimals.
	expected, err := codec.PackApprove(registry.Base.RouterAddress, big.NewInt(100000000))
	require.NoError(t, err)
	assert.Equal(t, expected, requests[0].Data)

	assert.Equal(t, 1, notifier.counts().approving)

	final := waitTerminal(t, svc, tx.Hash)
	assert.Equal(t, entity.TxStatusSuccess, final.Status)
}

func TestExecute_ReportsPendingApprovalInsteadOfResubmitting(t *testing.T) {
	svc, _, w, _ := newSwapFixture(t, connectedPrecheck(0))

	params := baseParams("100")
	params.TokenIn, params.TokenOut = params.TokenOut, params.TokenIn
	estimate := estimateFor(params, "0.022222")

	_, err := svc.Execute(context.Background(), params, estimate, w)
	require.NoError(t, err)

	_, err = svc.Execute(context.Background(), params, estimate, w)
	require.ErrorIs(t, err, entity.ErrInsufficientAllowance)
	assert.Len(t, w.requests(), 1)

	svc.CancelWatchers()
}

func TestExecute_PendingApprovalOnlyBlocksItsOwnToken(t *testing.T) {
	svc, _, w, _ := newSwapFixture(t, connectedPrecheck(0))

	// USDC -> ETH leaves a pending approval for USDC.
	usdcParams := baseParams("100")
	usdcParams.TokenIn, usdcParams.TokenOut = usdcParams.TokenOut, usdcParams.TokenIn
	_, err := svc.Execute(context.Background(), usdcParams, estimateFor(usdcParams, "0.022222"), w)
	require.NoError(t, err)

	// A WETH swap needs its own approval and must get one, not a pending error.
	wethParams := baseParams("1")
	wethParams.TokenIn = registry.Base.WrappedNativeAddress
	tx, err := svc.Execute(context.Background(), wethParams, estimateFor(wethParams, "4500.000000"), w)
	require.NoError(t, err)
	assert.Equal(t, entity.TxKindApproval, tx.Kind)

	requests := w.requests()
	require.Len(t, requests, 2)
	assert.Equal(t, registry.Base.WrappedNativeAddress, requests[1].To)

	svc.CancelWatchers()
}

func TestExecute_RejectsOutOfRangeSlippage(t *testing.T) {
	svc, _, w, _ := newSwapFixture(t, connectedPrecheck(0))

	// slippage above 100 would turn amountOutMin negative, which abi encoding
	// wraps into a huge uint256 and the router always reverts on.
	for _, slippage := range []float64{0, -1, 150} {
		params := baseParams("1")
		params.Slippage = slippage
		_, err := svc.Execute(context.Background(), params, estimateFor(params, "4500.000000"), w)
		require.ErrorIs(t, err, entity.ErrValidation, "slippage=%v", slippage)
	}
	assert.Empty(t, w.requests())
}

func TestExecute_NativeInputAttachesValueAndSkipsApproval(t *testing.T) {
	svc, chainClient, w, notifier := newSwapFixture(t, connectedPrecheck(0))
	chainClient.receipts = []*entity.ReceiptInfo{{Success: true}}

	params := baseParams("1") // ETH -> USDC
	tx, err := svc.Execute(context.Background(), params, estimateFor(params, "4500.000000"), w)
	require.NoError(t, err)
	assert.Equal(t, entity.TxKindSwap, tx.Kind)

	requests := w.requests()
	require.Len(t, requests, 1)
	assert.Equal(t, registry.Base.RouterAddress, requests[0].To)
	assert.Equal(t, uint64(150000), requests[0].GasLimit)
	require.NotNil(t, requests[0].Value)
	assert.Equal(t, "1000000000000000000", requests[0].Value.String())

	// swapExactETHForTokens selector.
	selector, err := codec.PackSwapExactETHForTokens(big.NewInt(1), []string{registry.Base.WrappedNativeAddress, baseUSDCAddress}, w.address, big.NewInt(1))
	require.NoError(t, err)
	assert.Equal(t, selector[:4], requests[0].Data[:4])

	assert.Equal(t, 1, notifier.counts().swapping)

	final := waitTerminal(t, svc, tx.Hash)
	assert.Equal(t, entity.TxStatusSuccess, final.Status)
	assert.Equal(t, 1, notifier.counts().success)
}

func TestExecute_TokenToNativeUsesTokensForETHEntryPoint(t *testing.T) {
	svc, chainClient, w, _ := newSwapFixture(t, connectedPrecheck(1<<40))
	chainClient.receipts = []*entity.ReceiptInfo{{Success: true}}

	params := baseParams("100")
	params.TokenIn, params.TokenOut = params.TokenOut, params.TokenIn

	tx, err := svc.Execute(context.Background(), params, estimateFor(params, "0.022222"), w)
	require.NoError(t, err)
	assert.Equal(t, entity.TxKindSwap, tx.Kind)

	requests := w.requests()
	require.Len(t, requests, 1)
	assert.Nil(t, requests[0].Value)

	selector, err := codec.PackSwapExactTokensForETH(big.NewInt(1), big.NewInt(1), []string{baseUSDCAddress, registry.Base.WrappedNativeAddress}, w.address, big.NewInt(1))
	require.NoError(t, err)
	assert.Equal(t, selector[:4], requests[0].Data[:4])

	waitTerminal(t, svc, tx.Hash)
}

func TestExecute_RefusesSecondSwapWhileOneInFlight(t *testing.T) {
	svc, _, w, _ := newSwapFixture(t, connectedPrecheck(0))
	// No receipts scripted: the first swap stays unconfirmed.

	params := baseParams("1")
	estimate := estimateFor(params, "4500.000000")

	_, err := svc.Execute(context.Background(), params, estimate, w)
	require.NoError(t, err)

	_, err = svc.Execute(context.Background(), params, estimate, w)
	require.ErrorIs(t, err, entity.ErrSwapInFlight)

	svc.CancelWatchers()
}

func TestWatcher_RevertedTransactionFailsWithReason(t *testing.T) {
	svc, chainClient, w, notifier := newSwapFixture(t, connectedPrecheck(0))
	chainClient.receipts = []*entity.ReceiptInfo{{Success: false, RevertReason: "UniswapV2: K"}}

	params := baseParams("1")
	tx, err := svc.Execute(context.Background(), params, estimateFor(params, "4500.000000"), w)
	require.NoError(t, err)

	final := waitTerminal(t, svc, tx.Hash)
	assert.Equal(t, entity.TxStatusFailed, final.Status)
	assert.Equal(t, "UniswapV2: K", final.FailReason)
	assert.Equal(t, 1, notifier.counts().failed)

	// The in-flight guard releases on a terminal state.
	_, err = svc.Execute(context.Background(), params, estimateFor(params, "4500.000000"), w)
	require.NoError(t, err)
	svc.CancelWatchers()
}

func TestWatcher_CancelledWatcherEmitsNothing(t *testing.T) {
	svc, _, w, notifier := newSwapFixture(t, connectedPrecheck(0))
	// No receipts: the watcher would time out on its own if not cancelled.

	params := baseParams("1")
	tx, err := svc.Execute(context.Background(), params, estimateFor(params, "4500.000000"), w)
	require.NoError(t, err)

	svc.CancelWatchers()

	// Past the confirmation timeout: a cancelled watcher must stay silent.
	time.Sleep(1200 * time.Millisecond)

	counts := notifier.counts()
	assert.Zero(t, counts.success)
	assert.Zero(t, counts.failed)
	assert.Zero(t, counts.timedOut)

	current, ok := svc.Transaction(tx.Hash)
	require.True(t, ok)
	assert.False(t, current.Status.Terminal())
}

func TestWatcher_TimesOutIntoDistinctTerminalState(t *testing.T) {
	svc, _, w, notifier := newSwapFixture(t, connectedPrecheck(0))
	// No receipts ever: confirmation must give up client-side.

	params := baseParams("1")
	tx, err := svc.Execute(context.Background(), params, estimateFor(params, "4500.000000"), w)
	require.NoError(t, err)

	final := waitTerminal(t, svc, tx.Hash)
	assert.Equal(t, entity.TxStatusTimedOut, final.Status)
	assert.Equal(t, 1, notifier.counts().timedOut)
	assert.Zero(t, notifier.counts().success)
	assert.Zero(t, notifier.counts().failed)
}
