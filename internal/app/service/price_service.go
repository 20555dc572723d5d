package service

import (
	"context"
	"strings"
	"time"

	"swap_gateway/internal/app/port"
	"swap_gateway/internal/domain/entity"

	gocache "github.com/patrickmn/go-cache"
	"golang.org/x/sync/errgroup"
)

const (
	exchangeRatesCacheKey = "exchange_rates"
	spotPricesCacheKey    = "spot_usd"
)

// coinGeckoAssetIDs maps token symbols to CoinGecko asset identifiers.
var coinGeckoAssetIDs = map[string]string{ //nolint:gochecknoglobals // Static mapping
	"ETH":  "ethereum",
	"USDC": "usd-coin",
	"WETH": "weth",
}

// fallbackUSD is the static last-resort price table. Quoting against it never
// fails for supported symbols.
var fallbackUSD = map[string]float64{ //nolint:gochecknoglobals // Static mapping
	"ETH":  4500,
	"WETH": 4500,
	"USDC": 1,
}

// PriceServiceImpl implements port.PriceProvider. It refreshes both upstream
// price tables on an interval and keeps the results in a TTL cache; an
// expired or never-populated level simply drops out of the snapshot and the
// static fallback table takes over.
type PriceServiceImpl struct {
	apiClient port.PriceAPIClient
	cache     *gocache.Cache
	logger    port.Logger
	ttl       time.Duration
}

// NewPriceService creates a new PriceServiceImpl.
func NewPriceService(apiClient port.PriceAPIClient, log port.Logger, ttl, cleanupInterval time.Duration) *PriceServiceImpl {
	return &PriceServiceImpl{
		apiClient: apiClient,
		cache:     gocache.New(ttl, cleanupInterval),
		logger:    log,
		ttl:       ttl,
	}
}

// Refresh fetches the exchange-rate table and the USD spot prices
// concurrently. A failure of one source does not discard the other; the error
// of the failed fetch is returned after the surviving table is cached.
func (s *PriceServiceImpl) Refresh(ctx context.Context) error {
	assetIDs := make([]string, 0, len(coinGeckoAssetIDs))
	idToSymbol := make(map[string]string, len(coinGeckoAssetIDs))
	for symbol, id := range coinGeckoAssetIDs {
		assetIDs = append(assetIDs, id)
		idToSymbol[id] = symbol
	}

	// A failing source must not cancel the surviving fetch.
	var g errgroup.Group

	g.Go(func() error {
		rates, err := s.apiClient.GetExchangeRates(ctx)
		if err != nil {
			s.logger.Warn("Exchange rate refresh failed, keeping previous snapshot", "error", err)
			return err
		}
		table := make(map[string]float64, len(rates))
		for symbol, rate := range rates {
			table[strings.ToLower(symbol)] = rate.Value
		}
		s.cache.Set(exchangeRatesCacheKey, table, s.ttl)
		s.logger.Debug("Exchange rates refreshed", "count", len(table))
		return nil
	})

	g.Go(func() error {
		prices, err := s.apiClient.GetSpotPrices(ctx, assetIDs)
		if err != nil {
			s.logger.Warn("Spot price refresh failed, keeping previous snapshot", "error", err)
			return err
		}
		table := make(map[string]float64, len(prices))
		for id, row := range prices {
			symbol, known := idToSymbol[id]
			if !known {
				continue
			}
			table[symbol] = row.USD
		}
		s.cache.Set(spotPricesCacheKey, table, s.ttl)
		s.logger.Debug("Spot prices refreshed", "count", len(table))
		return nil
	})

	return g.Wait()
}

// Snapshot assembles the current price sources. It never fails: missing
// upstream tables leave their level nil and the fallback table always remains.
func (s *PriceServiceImpl) Snapshot() entity.PriceSources {
	sources := entity.PriceSources{
		FallbackUSD: fallbackUSD,
	}
	if cached, found := s.cache.Get(exchangeRatesCacheKey); found {
		if table, ok := cached.(map[string]float64); ok {
			sources.ExchangeRates = table
		}
	}
	if cached, found := s.cache.Get(spotPricesCacheKey); found {
		if table, ok := cached.(map[string]float64); ok {
			sources.SpotUSD = table
		}
	}
	return sources
}

// Run refreshes prices on the given interval until the context is cancelled.
// Refresh errors are logged and the loop continues; stale data eventually
// expires from the cache and quoting degrades to the fallback table.
func (s *PriceServiceImpl) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	if err := s.Refresh(ctx); err != nil {
		s.logger.Warn("Initial price refresh incomplete", "error", err)
	}

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Price refresh loop stopped")
			return
		case <-ticker.C:
			if err := s.Refresh(ctx); err != nil {
				s.logger.Warn("Price refresh incomplete", "error", err)
			}
		}
	}
}
