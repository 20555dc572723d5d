package entity

import (
	"math/big"
	"time"
)

// SwapParams are the user-supplied inputs of a swap. They are immutable once
// submitted for quoting; the executor rejects an estimate whose params differ.
type SwapParams struct {
	ChainID  uint64  `json:"chainId"`
	TokenIn  string  `json:"tokenIn"`  // contract address, ZeroAddress for the native asset
	TokenOut string  `json:"tokenOut"` // contract address, ZeroAddress for the native asset
	AmountIn string  `json:"amountIn"` // decimal string, e.g. "1.5"
	Slippage float64 `json:"slippage"` // percent, (0, 100]
}

// PriceSourceLevel identifies which price source produced an estimate.
type PriceSourceLevel string

const (
	SourceExchangeRates PriceSourceLevel = "exchange_rates"
	SourceSpotPrices    PriceSourceLevel = "spot_prices"
	SourceFallbackTable PriceSourceLevel = "fallback_table"
	SourceRouter        PriceSourceLevel = "router"
)

// SwapEstimate is a derived, ephemeral quote. It is recomputed per request and
// never persisted. Params carries the exact inputs the estimate was produced
// for, so stale quotes can be detected at execution time.
type SwapEstimate struct {
	AmountOut          string           `json:"amountOut"` // decimal string, 6 fractional digits
	PriceImpactPercent float64          `json:"priceImpactPercent"`
	GasEstimate        uint64           `json:"gasEstimate"`
	Source             PriceSourceLevel `json:"source"`
	QuoteID            uint64           `json:"quoteId"`
	QuotedAt           time.Time        `json:"quotedAt"`
	Params             SwapParams       `json:"params"`
}

// TxStatus is the lifecycle state of a submitted transaction.
type TxStatus string

const (
	TxStatusPending    TxStatus = "pending"
	TxStatusConfirming TxStatus = "confirming"
	TxStatusSuccess    TxStatus = "success"
	TxStatusFailed     TxStatus = "failed"
	// TxStatusTimedOut is a client-side terminal state: the receipt never
	// arrived within the configured wait window. The transaction may still
	// mine on-chain afterwards.
	TxStatusTimedOut TxStatus = "timed_out"
)

// Terminal reports whether the status can no longer change.
func (s TxStatus) Terminal() bool {
	return s == TxStatusSuccess || s == TxStatusFailed || s == TxStatusTimedOut
}

// TxKind distinguishes the approval leg from the swap itself.
type TxKind string

const (
	TxKindApproval TxKind = "approval"
	TxKindSwap     TxKind = "swap"
)

// SwapTransaction tracks one submitted transaction from submission to a
// terminal state.
type SwapTransaction struct {
	Hash        string    `json:"hash"`
	Kind        TxKind    `json:"kind"`
	ChainID     uint64    `json:"chainId"`
	TokenIn     string    `json:"tokenIn,omitempty"`
	Status      TxStatus  `json:"status"`
	ExplorerURL string    `json:"explorerUrl,omitempty"`
	SubmittedAt time.Time `json:"submittedAt"`
	FailReason  string    `json:"failReason,omitempty"`
}

// TxRequest is a chain-agnostic description of a transaction for the wallet
// to sign and submit. Value is attached as native currency (nil means zero).
type TxRequest struct {
	To       string
	Data     []byte
	Value    *big.Int
	GasLimit uint64
}
