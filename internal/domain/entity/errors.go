package entity

import (
	"errors"
	"fmt"
)

// Error taxonomy for the quote and execution flow. Validation failures are
// recovered locally before any network call; price-source misses fall through
// the source priority chain; everything else is surfaced to the user and
// returns control to the UI.
var (
	// ErrValidation marks bad user input (non-positive amount, slippage out
	// of range). No network call is made before validation passes.
	ErrValidation = errors.New("invalid swap input")

	// ErrUnknownTokenPair means one leg does not resolve to a known symbol in
	// the active chain's token table.
	ErrUnknownTokenPair = errors.New("unknown token pair")

	// ErrPriceUnavailable means the current price-source level is missing data
	// for a leg. The calculator retries at the next priority level.
	ErrPriceUnavailable = errors.New("price data unavailable")

	// ErrUnsupportedToken means a symbol is absent from the static fallback
	// table too. This is a configuration error, fatal to the quote.
	ErrUnsupportedToken = errors.New("unsupported token")

	// ErrStaleQuote means the supplied estimate was produced for different
	// params; the caller must obtain a fresh quote.
	ErrStaleQuote = errors.New("stale quote")

	ErrWalletNotConnected = errors.New("wallet not connected")

	// ErrUserRejected means the wallet holder declined to sign. Never retried
	// automatically.
	ErrUserRejected = errors.New("user rejected transaction")

	// ErrRouterUnsupportedChain means the active chain has no configured
	// router contract. Fatal to the operation.
	ErrRouterUnsupportedChain = errors.New("no router configured for chain")

	// ErrInsufficientAllowance is transient: it self-heals once the approval
	// transaction mines.
	ErrInsufficientAllowance = errors.New("insufficient router allowance")

	// ErrSwapInFlight guards against double submission: resubmitting a swap
	// while one is pending would double-spend into two transactions.
	ErrSwapInFlight = errors.New("swap already in flight")

	ErrTransactionReverted = errors.New("transaction reverted")
)

// RevertedError wraps ErrTransactionReverted with the on-chain revert reason
// when one is available; the reason is surfaced to the user verbatim.
func RevertedError(reason string) error {
	if reason == "" {
		return ErrTransactionReverted
	}
	return fmt.Errorf("%w: %s", ErrTransactionReverted, reason)
}
