package service

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"time"

	"swap_gateway/internal/app/port"
	"swap_gateway/internal/config"
	"swap_gateway/internal/domain/entity"
	"swap_gateway/internal/infrastructure/network/codec"
	"swap_gateway/internal/pkg/metrics"
	"swap_gateway/internal/pkg/utils"
)

// SwapServiceImpl implements port.SwapService. It owns the approval state
// machine, transaction submission and the confirmation watchers.
type SwapServiceImpl struct {
	registry       port.ChainRegistry
	clientProvider port.ChainClientProvider
	notifier       port.Notifier
	logger         port.Logger
	cfg            config.ExecutorConfig

	mu           sync.Mutex
	transactions map[string]*entity.SwapTransaction
	swapInFlight bool
	watchCancels map[string]context.CancelFunc
	watchWG      sync.WaitGroup
}

// NewSwapService creates a new SwapServiceImpl.
func NewSwapService(
	registry port.ChainRegistry,
	clientProvider port.ChainClientProvider,
	notifier port.Notifier,
	log port.Logger,
	cfg config.ExecutorConfig,
) *SwapServiceImpl {
	return &SwapServiceImpl{
		registry:       registry,
		clientProvider: clientProvider,
		notifier:       notifier,
		logger:         log,
		cfg:            cfg,
		transactions:   make(map[string]*entity.SwapTransaction),
		watchCancels:   make(map[string]context.CancelFunc),
	}
}

// Execute runs the pre-submit checks and submits either the approval leg or
// the swap. A returned transaction of Kind approval means the caller must
// re-invoke Execute once the approval mines.
func (s *SwapServiceImpl) Execute(ctx context.Context, params entity.SwapParams, estimate entity.SwapEstimate, wallet port.Wallet) (*entity.SwapTransaction, error) {
	if wallet == nil || wallet.Status() != entity.StatusConnected {
		return nil, entity.ErrWalletNotConnected
	}

	// An out-of-range slippage must never reach the minimum-output math: a
	// value above 100 yields a negative minimum that abi encoding would wrap
	// into a huge uint256 and the router would always revert on.
	if params.Slippage <= 0 || params.Slippage > 100 {
		return nil, fmt.Errorf("%w: slippage must be in (0, 100], got %v", entity.ErrValidation, params.Slippage)
	}
	if estimate.Params != params {
		return nil, fmt.Errorf("%w: estimate was produced for different params", entity.ErrStaleQuote)
	}
	if s.cfg.QuoteMaxAgeSeconds > 0 && time.Since(estimate.QuotedAt) > time.Duration(s.cfg.QuoteMaxAgeSeconds)*time.Second {
		return nil, fmt.Errorf("%w: estimate is older than %ds", entity.ErrStaleQuote, s.cfg.QuoteMaxAgeSeconds)
	}

	def, exact := s.registry.ByChainID(params.ChainID)
	if !exact {
		s.notifier.NetworkMismatch(params.ChainID, def.ChainID)
	}
	if def.RouterAddress == "" {
		return nil, fmt.Errorf("%w: chain %d", entity.ErrRouterUnsupportedChain, def.ChainID)
	}

	symbolIn, okIn := s.registry.SymbolByAddress(def, params.TokenIn)
	symbolOut, okOut := s.registry.SymbolByAddress(def, params.TokenOut)
	if !okIn || !okOut {
		return nil, fmt.Errorf("%w: %s -> %s on chain %d", entity.ErrUnknownTokenPair, params.TokenIn, params.TokenOut, def.ChainID)
	}
	mdIn, _ := s.registry.TokenMetadata(symbolIn)
	mdOut, _ := s.registry.TokenMetadata(symbolOut)

	amountInWei, err := utils.ParseUnits(params.AmountIn, mdIn.Decimals)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", entity.ErrValidation, err)
	}

	chainClient, err := s.clientProvider.GetClient(def)
	if err != nil {
		return nil, fmt.Errorf("failed to obtain chain client for %s: %w", def.Name, err)
	}

	precheck, err := chainClient.SwapPrecheck(ctx, wallet.Address(), params.TokenIn, def.RouterAddress)
	if err != nil {
		return nil, fmt.Errorf("pre-submit checks failed: %w", err)
	}

	nativeIn := params.TokenIn == entity.ZeroAddress

	if !nativeIn && precheck.Allowance.Cmp(amountInWei) < 0 {
		if s.approvalPending(params.TokenIn, def.ChainID) {
			// The earlier approval has not mined yet; the shortfall heals on
			// its own once it does.
			return nil, entity.ErrInsufficientAllowance
		}
		return s.submitApproval(ctx, def, params, wallet, amountInWei)
	}

	return s.submitSwap(ctx, def, params, estimate, wallet, amountInWei, mdOut.Decimals, nativeIn)
}

// submitApproval sends approve(router, amountIn) for the input token and
// stops there. Re-submitting an identical approval is harmless, so no
// in-flight guard applies to approvals.
func (s *SwapServiceImpl) submitApproval(ctx context.Context, def entity.NetworkDefinition, params entity.SwapParams, wallet port.Wallet, amountInWei *big.Int) (*entity.SwapTransaction, error) {
	callData, err := codec.PackApprove(def.RouterAddress, amountInWei)
	if err != nil {
		return nil, fmt.Errorf("failed to encode approval: %w", err)
	}

	hash, err := wallet.SubmitTransaction(ctx, entity.TxRequest{
		To:       params.TokenIn,
		Data:     callData,
		GasLimit: s.cfg.ApprovalGasEstimate,
	})
	if err != nil {
		metrics.SwapsTotal.WithLabelValues(string(entity.TxKindApproval), "submit_error").Inc()
		return nil, err
	}

	tx := s.track(hash, entity.TxKindApproval, def, params.TokenIn)
	s.notifier.Approving(hash, def.ChainID)
	s.logger.Info("Approval submitted", "hash", hash, "token", params.TokenIn, "network", def.Name)
	s.startWatcher(tx, def)
	return tx, nil
}

// submitSwap builds and sends the swap itself. Only one swap may be in flight
// at a time; a second submission would double-spend into two transactions.
func (s *SwapServiceImpl) submitSwap(
	ctx context.Context,
	def entity.NetworkDefinition,
	params entity.SwapParams,
	estimate entity.SwapEstimate,
	wallet port.Wallet,
	amountInWei *big.Int,
	decimalsOut uint8,
	nativeIn bool,
) (*entity.SwapTransaction, error) {
	s.mu.Lock()
	if s.swapInFlight {
		s.mu.Unlock()
		return nil, entity.ErrSwapInFlight
	}
	s.swapInFlight = true
	s.mu.Unlock()

	amountOutWei, err := utils.ParseUnits(estimate.AmountOut, decimalsOut)
	if err != nil {
		s.clearInFlight()
		return nil, fmt.Errorf("%w: bad estimate amountOut: %v", entity.ErrStaleQuote, err)
	}
	amountOutMin := utils.AmountOutMin(amountOutWei, params.Slippage)
	deadline := big.NewInt(time.Now().Unix() + s.cfg.DeadlineSeconds)
	path := swapPath(def, params.TokenIn, params.TokenOut)
	nativeOut := params.TokenOut == entity.ZeroAddress

	var callData []byte
	var value *big.Int
	switch {
	case nativeIn:
		callData, err = codec.PackSwapExactETHForTokens(amountOutMin, path, wallet.Address(), deadline)
		value = amountInWei
	case nativeOut:
		callData, err = codec.PackSwapExactTokensForETH(amountInWei, amountOutMin, path, wallet.Address(), deadline)
	default:
		callData, err = codec.PackSwapExactTokensForTokens(amountInWei, amountOutMin, path, wallet.Address(), deadline)
	}
	if err != nil {
		s.clearInFlight()
		return nil, fmt.Errorf("failed to encode swap: %w", err)
	}

	s.notifier.Swapping()

	hash, err := wallet.SubmitTransaction(ctx, entity.TxRequest{
		To:       def.RouterAddress,
		Data:     callData,
		Value:    value,
		GasLimit: s.cfg.SwapGasEstimate,
	})
	if err != nil {
		s.clearInFlight()
		metrics.SwapsTotal.WithLabelValues(string(entity.TxKindSwap), "submit_error").Inc()
		return nil, err
	}

	tx := s.track(hash, entity.TxKindSwap, def, params.TokenIn)
	s.notifier.Confirming(hash, def.ChainID)
	s.logger.Info("Swap submitted",
		"hash", hash,
		"network", def.Name,
		"amountIn", params.AmountIn,
		"amountOutMin", amountOutMin.String())
	s.startWatcher(tx, def)
	return tx, nil
}

func (s *SwapServiceImpl) track(hash string, kind entity.TxKind, def entity.NetworkDefinition, tokenIn string) *entity.SwapTransaction {
	tx := &entity.SwapTransaction{
		Hash:        hash,
		Kind:        kind,
		ChainID:     def.ChainID,
		TokenIn:     tokenIn,
		Status:      entity.TxStatusPending,
		ExplorerURL: def.ExplorerTxURL(hash),
		SubmittedAt: time.Now(),
	}
	s.mu.Lock()
	s.transactions[hash] = tx
	s.mu.Unlock()
	return tx
}

// approvalPending reports whether a submitted approval for this token on this
// chain has not yet reached a terminal state. Approvals for other tokens or
// chains never block a swap.
func (s *SwapServiceImpl) approvalPending(tokenIn string, chainID uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, tx := range s.transactions {
		if tx.Kind == entity.TxKindApproval && !tx.Status.Terminal() &&
			tx.ChainID == chainID && strings.EqualFold(tx.TokenIn, tokenIn) {
			return true
		}
	}
	return false
}

func (s *SwapServiceImpl) clearInFlight() {
	s.mu.Lock()
	s.swapInFlight = false
	s.mu.Unlock()
}

// Transaction returns a copy of the tracked state for a hash.
func (s *SwapServiceImpl) Transaction(hash string) (entity.SwapTransaction, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tx, ok := s.transactions[hash]
	if !ok {
		return entity.SwapTransaction{}, false
	}
	return *tx, true
}

// CancelWatchers stops every in-flight watcher. Cancelled watchers finish
// without emitting notifications or touching transaction state.
func (s *SwapServiceImpl) CancelWatchers() {
	s.mu.Lock()
	for hash, cancel := range s.watchCancels {
		cancel()
		delete(s.watchCancels, hash)
	}
	s.swapInFlight = false
	s.mu.Unlock()
	s.watchWG.Wait()
}

// startWatcher begins polling the receipt for a submitted transaction.
func (s *SwapServiceImpl) startWatcher(tx *entity.SwapTransaction, def entity.NetworkDefinition) {
	watchCtx, cancel := context.WithTimeout(context.Background(), time.Duration(s.cfg.ConfirmTimeoutSeconds)*time.Second)

	s.mu.Lock()
	s.watchCancels[tx.Hash] = cancel
	s.mu.Unlock()

	s.watchWG.Add(1)
	go s.watch(watchCtx, cancel, tx, def)
}

// watch polls the transaction receipt until a terminal state or cancellation.
// A cancelled watcher returns silently: no notification, no state change.
func (s *SwapServiceImpl) watch(ctx context.Context, cancel context.CancelFunc, tx *entity.SwapTransaction, def entity.NetworkDefinition) {
	defer s.watchWG.Done()
	defer cancel()
	defer func() {
		s.mu.Lock()
		delete(s.watchCancels, tx.Hash)
		s.mu.Unlock()
	}()

	chainClient, err := s.clientProvider.GetClient(def)
	if err != nil {
		s.logger.Error("Watcher has no chain client", "hash", tx.Hash, "error", err)
		s.finish(ctx, tx, entity.TxStatusFailed, fmt.Sprintf("no chain client: %v", err))
		return
	}

	ticker := time.NewTicker(time.Duration(s.cfg.ReceiptPollMillis) * time.Millisecond)
	defer ticker.Stop()

	s.setStatus(tx, entity.TxStatusConfirming)

	for {
		select {
		case <-ctx.Done():
			if ctx.Err() == context.DeadlineExceeded {
				s.finish(ctx, tx, entity.TxStatusTimedOut, "")
			}
			return
		case <-ticker.C:
			receipt, err := chainClient.TransactionReceipt(ctx, tx.Hash)
			if err != nil {
				s.logger.Warn("Receipt poll failed", "hash", tx.Hash, "error", err)
				continue
			}
			if receipt == nil {
				continue
			}
			if receipt.Success {
				s.finish(ctx, tx, entity.TxStatusSuccess, "")
			} else {
				s.finish(ctx, tx, entity.TxStatusFailed, receipt.RevertReason)
			}
			return
		}
	}
}

// finish records the terminal state and emits the matching notification,
// unless the watcher was cancelled in the meantime.
func (s *SwapServiceImpl) finish(ctx context.Context, tx *entity.SwapTransaction, status entity.TxStatus, failReason string) {
	if ctx.Err() == context.Canceled {
		return
	}

	s.mu.Lock()
	tx.Status = status
	tx.FailReason = failReason
	if tx.Kind == entity.TxKindSwap {
		s.swapInFlight = false
	}
	elapsed := time.Since(tx.SubmittedAt).Seconds()
	s.mu.Unlock()

	metrics.SwapsTotal.WithLabelValues(string(tx.Kind), string(status)).Inc()
	metrics.ReceiptPollDuration.WithLabelValues(string(status)).Observe(elapsed)

	switch status {
	case entity.TxStatusSuccess:
		s.notifier.Success(tx.Hash, tx.ChainID)
	case entity.TxStatusFailed:
		s.notifier.Failed(entity.RevertedError(failReason).Error())
	case entity.TxStatusTimedOut:
		s.notifier.TimedOut(tx.Hash, tx.ChainID)
	}
	s.logger.Info("Transaction reached terminal state", "hash", tx.Hash, "kind", tx.Kind, "status", status)
}

func (s *SwapServiceImpl) setStatus(tx *entity.SwapTransaction, status entity.TxStatus) {
	s.mu.Lock()
	tx.Status = status
	s.mu.Unlock()
}
