package restapi

import (
	"errors"
	"net/http"
	"strconv"

	"swap_gateway/internal/app/port"
	"swap_gateway/internal/domain/entity"

	"github.com/gin-gonic/gin"
)

// SwapHandler serves the swap-flow endpoints.
type SwapHandler struct {
	registry        port.ChainRegistry
	quotes          port.QuoteService
	swaps           port.SwapService
	session         port.SessionService
	prices          port.PriceProvider
	notifier        port.Notifier
	wallet          port.Wallet
	defaultSlippage float64
	logger          port.Logger
}

// NewSwapHandler creates a new SwapHandler.
func NewSwapHandler(
	registry port.ChainRegistry,
	quotes port.QuoteService,
	swaps port.SwapService,
	session port.SessionService,
	prices port.PriceProvider,
	notifier port.Notifier,
	wallet port.Wallet,
	defaultSlippage float64,
	log port.Logger,
) *SwapHandler {
	return &SwapHandler{
		registry:        registry,
		quotes:          quotes,
		swaps:           swaps,
		session:         session,
		prices:          prices,
		notifier:        notifier,
		wallet:          wallet,
		defaultSlippage: defaultSlippage,
		logger:          log,
	}
}

// swapParamsRequest is the wire shape of swap params. Slippage is a pointer
// so an omitted field is distinguishable from an explicit zero: omission takes
// the configured default, an explicit zero stays zero and is rejected
// downstream as a configuration error.
type swapParamsRequest struct {
	ChainID  uint64   `json:"chainId"`
	TokenIn  string   `json:"tokenIn"`
	TokenOut string   `json:"tokenOut"`
	AmountIn string   `json:"amountIn"`
	Slippage *float64 `json:"slippage"`
}

func (r swapParamsRequest) toParams(defaultSlippage float64) entity.SwapParams {
	slippage := defaultSlippage
	if r.Slippage != nil {
		slippage = *r.Slippage
	}
	return entity.SwapParams{
		ChainID:  r.ChainID,
		TokenIn:  r.TokenIn,
		TokenOut: r.TokenOut,
		AmountIn: r.AmountIn,
		Slippage: slippage,
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

// statusForError maps the error taxonomy to HTTP status codes.
func statusForError(err error) int {
	switch {
	case errors.Is(err, entity.ErrValidation),
		errors.Is(err, entity.ErrUnknownTokenPair),
		errors.Is(err, entity.ErrUserRejected):
		return http.StatusBadRequest
	case errors.Is(err, entity.ErrStaleQuote),
		errors.Is(err, entity.ErrSwapInFlight),
		errors.Is(err, entity.ErrInsufficientAllowance):
		return http.StatusConflict
	case errors.Is(err, entity.ErrWalletNotConnected):
		return http.StatusPreconditionFailed
	case errors.Is(err, entity.ErrUnsupportedToken),
		errors.Is(err, entity.ErrRouterUnsupportedChain):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// GetNetworksHandler returns the supported networks and the default chain.
func (h *SwapHandler) GetNetworksHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"networks":       h.registry.All(),
		"defaultChainId": h.registry.DefaultChainID(),
	})
}

// GetNetworkTokensHandler returns the token table with metadata for a chain.
// Unknown chain ids fall back to the default network with mismatch=true.
func (h *SwapHandler) GetNetworkTokensHandler(c *gin.Context) {
	chainID, err := strconv.ParseUint(c.Param("chainId"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "chainId must be a positive integer"})
		return
	}

	def, exact := h.registry.ByChainID(chainID)

	type tokenEntry struct {
		entity.TokenMetadata
		Address string `json:"address"`
	}
	tokens := make([]tokenEntry, 0, len(def.Tokens))
	for symbol, address := range def.Tokens {
		md, _ := h.registry.TokenMetadata(symbol)
		tokens = append(tokens, tokenEntry{TokenMetadata: md, Address: address})
	}

	c.JSON(http.StatusOK, gin.H{
		"chainId":  def.ChainID,
		"network":  def.Name,
		"tokens":   tokens,
		"mismatch": !exact,
	})
}

// GetPricesHandler returns the current price snapshot.
func (h *SwapHandler) GetPricesHandler(c *gin.Context) {
	c.JSON(http.StatusOK, h.prices.Snapshot())
}

// PostQuoteHandler computes a swap estimate for the posted params.
func (h *SwapHandler) PostQuoteHandler(c *gin.Context) {
	var req swapParamsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "malformed request body: " + err.Error()})
		return
	}
	params := req.toParams(h.defaultSlippage)

	estimate, mismatch, err := h.quotes.Estimate(c.Request.Context(), params)
	if err != nil {
		h.logger.Debug("Quote request failed", "chainId", params.ChainID, "error", err)
		c.JSON(statusForError(err), errorResponse{Error: err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"estimate": estimate,
		"mismatch": mismatch,
	})
}

type swapRequest struct {
	Params   swapParamsRequest   `json:"params"`
	Estimate entity.SwapEstimate `json:"estimate"`
}

// PostSwapHandler executes a swap. When the approval leg was submitted
// instead, the response is 202 and the caller re-posts after it mines.
func (h *SwapHandler) PostSwapHandler(c *gin.Context) {
	var req swapRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "malformed request body: " + err.Error()})
		return
	}
	params := req.Params.toParams(h.defaultSlippage)

	tx, err := h.swaps.Execute(c.Request.Context(), params, req.Estimate, h.wallet)
	if err != nil {
		h.logger.Warn("Swap execution rejected", "chainId", params.ChainID, "error", err)
		c.JSON(statusForError(err), errorResponse{Error: err.Error()})
		return
	}

	status := http.StatusOK
	if tx.Kind == entity.TxKindApproval {
		status = http.StatusAccepted
	}
	c.JSON(status, gin.H{"transaction": tx})
}

// GetSwapHandler returns the lifecycle state of a submitted transaction.
func (h *SwapHandler) GetSwapHandler(c *gin.Context) {
	hash := c.Param("hash")
	tx, ok := h.swaps.Transaction(hash)
	if !ok {
		c.JSON(http.StatusNotFound, errorResponse{Error: "unknown transaction hash"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"transaction": tx})
}

// GetSessionHandler returns the wallet session, confirmed and pending status
// both included.
func (h *SwapHandler) GetSessionHandler(c *gin.Context) {
	session := h.session.Session(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{
		"session":         session,
		"effectiveStatus": session.Effective(),
	})
}

// PostDisconnectHandler requests an optimistic disconnect.
func (h *SwapHandler) PostDisconnectHandler(c *gin.Context) {
	if err := h.session.Disconnect(c.Request.Context()); err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}
	session := h.session.Session(c.Request.Context())
	c.JSON(http.StatusAccepted, gin.H{
		"session":         session,
		"effectiveStatus": session.Effective(),
	})
}

// GetNotificationsHandler returns the active notices feed.
func (h *SwapHandler) GetNotificationsHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"notices": h.notifier.Active()})
}

// DeleteNotificationHandler dismisses a notice by id.
func (h *SwapHandler) DeleteNotificationHandler(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "id must be a positive integer"})
		return
	}
	h.notifier.Dismiss(id)
	c.Status(http.StatusNoContent)
}
