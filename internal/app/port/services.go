package port

import (
	"context"

	"swap_gateway/internal/domain/entity"
)

// QuoteService produces swap estimates from the current price snapshot.
type QuoteService interface {
	// Estimate validates the params, resolves the network (mismatch=true when
	// the requested chain was unknown and the default was substituted) and
	// computes a quote from the first available price source.
	Estimate(ctx context.Context, params entity.SwapParams) (entity.SwapEstimate, bool, error)
}

// SwapService owns transaction submission and lifecycle tracking.
type SwapService interface {
	// Execute submits the approval leg or the swap itself, depending on the
	// current router allowance. The returned transaction's Kind tells the
	// caller which one was submitted.
	Execute(ctx context.Context, params entity.SwapParams, estimate entity.SwapEstimate, wallet Wallet) (*entity.SwapTransaction, error)

	// Transaction returns the tracked lifecycle state for a submitted hash.
	Transaction(hash string) (entity.SwapTransaction, bool)

	// CancelWatchers stops all in-flight confirmation watchers. Used on
	// disconnect; abandoned watchers emit no further notifications.
	CancelWatchers()
}

// SessionService mirrors the wallet connector state.
type SessionService interface {
	Session(ctx context.Context) entity.WalletSession
	Disconnect(ctx context.Context) error
}
