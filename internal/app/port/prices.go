package port

import (
	"context"

	"swap_gateway/internal/domain/entity"
)

// PriceAPIClient talks to the external price API. Implementations must not
// fall back themselves; degradation policy lives in the price service.
type PriceAPIClient interface {
	// GetExchangeRates fetches the currency exchange-rate table
	// (lower-cased symbol -> rate in a common unit).
	GetExchangeRates(ctx context.Context) (map[string]entity.ExchangeRate, error)

	// GetSpotPrices fetches USD spot prices for the given asset ids
	// (asset id -> price row).
	GetSpotPrices(ctx context.Context, assetIDs []string) (map[string]entity.SpotPrice, error)
}

// PriceProvider exposes the most recent price snapshot to the quote
// calculator. Snapshot never fails: exhausted sources leave the corresponding
// level empty and the static fallback table always remains.
type PriceProvider interface {
	Snapshot() entity.PriceSources
	Refresh(ctx context.Context) error
}
