package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"swap_gateway/internal/app/port"
	"swap_gateway/internal/config"
	"swap_gateway/internal/domain/entity"
	"swap_gateway/internal/pkg/metrics"
	"swap_gateway/internal/pkg/utils"
)

const (
	// estimateHaircut matches the 0.5% discount applied to table-derived
	// quotes. The static fallback table is already conservative and gets no
	// additional haircut.
	estimateHaircut = 0.995

	nominalPriceImpactPercent = 0.5
)

// QuoteServiceImpl implements port.QuoteService.
type QuoteServiceImpl struct {
	registry       port.ChainRegistry
	prices         port.PriceProvider
	clientProvider port.ChainClientProvider
	notifier       port.Notifier
	logger         port.Logger
	cfg            config.ExecutorConfig

	// quoteSeq hands out monotonically increasing quote ids. A response whose
	// id is no longer the latest issued is discarded so a slow early response
	// can never overwrite a newer one.
	quoteSeq atomic.Uint64
}

// NewQuoteService creates a new QuoteServiceImpl. clientProvider may be nil;
// live router quoting is then skipped and only the price tables are used.
func NewQuoteService(
	registry port.ChainRegistry,
	prices port.PriceProvider,
	clientProvider port.ChainClientProvider,
	notifier port.Notifier,
	log port.Logger,
	cfg config.ExecutorConfig,
) port.QuoteService {
	return &QuoteServiceImpl{
		registry:       registry,
		prices:         prices,
		clientProvider: clientProvider,
		notifier:       notifier,
		logger:         log,
		cfg:            cfg,
	}
}

// Estimate validates the params and computes a quote. Validation runs before
// any price lookup or network call. A zero slippage is a configuration error
// and is rejected, never rounded up to a minimum tolerance.
func (s *QuoteServiceImpl) Estimate(ctx context.Context, params entity.SwapParams) (entity.SwapEstimate, bool, error) {
	if !utils.IsPositiveDecimal(params.AmountIn) {
		metrics.QuoteFailuresTotal.WithLabelValues("validation").Inc()
		return entity.SwapEstimate{}, false, fmt.Errorf("%w: amountIn must be a positive decimal, got %q", entity.ErrValidation, params.AmountIn)
	}
	if params.Slippage <= 0 || params.Slippage > 100 {
		metrics.QuoteFailuresTotal.WithLabelValues("validation").Inc()
		return entity.SwapEstimate{}, false, fmt.Errorf("%w: slippage must be in (0, 100], got %v", entity.ErrValidation, params.Slippage)
	}

	def, exact := s.registry.ByChainID(params.ChainID)
	if !exact {
		s.notifier.NetworkMismatch(params.ChainID, def.ChainID)
	}

	symbolIn, okIn := s.registry.SymbolByAddress(def, params.TokenIn)
	symbolOut, okOut := s.registry.SymbolByAddress(def, params.TokenOut)
	if !okIn || !okOut {
		metrics.QuoteFailuresTotal.WithLabelValues("unknown_pair").Inc()
		return entity.SwapEstimate{}, !exact, fmt.Errorf("%w: %s -> %s on chain %d", entity.ErrUnknownTokenPair, params.TokenIn, params.TokenOut, def.ChainID)
	}

	quoteID := s.quoteSeq.Add(1)
	s.notifier.Estimating()

	amountIn, err := strconv.ParseFloat(strings.TrimSpace(params.AmountIn), 64)
	if err != nil {
		metrics.QuoteFailuresTotal.WithLabelValues("validation").Inc()
		return entity.SwapEstimate{}, !exact, fmt.Errorf("%w: %v", entity.ErrValidation, err)
	}

	amountOut, source, err := s.computeAmountOut(ctx, def, params, symbolIn, symbolOut, amountIn)
	if err != nil {
		s.notifier.EstimationFailed(err.Error())
		metrics.QuoteFailuresTotal.WithLabelValues("price").Inc()
		return entity.SwapEstimate{}, !exact, err
	}

	// Latest-wins: if a newer quote was requested while this one computed,
	// this response is already superseded and must not reach the caller.
	if s.quoteSeq.Load() != quoteID {
		s.logger.Debug("Discarding superseded quote", "quoteId", quoteID)
		return entity.SwapEstimate{}, !exact, entity.ErrStaleQuote
	}

	metrics.QuotesTotal.WithLabelValues(string(source)).Inc()
	return entity.SwapEstimate{
		AmountOut:          strconv.FormatFloat(amountOut, 'f', 6, 64),
		PriceImpactPercent: nominalPriceImpactPercent,
		GasEstimate:        s.cfg.SwapGasEstimate,
		Source:             source,
		QuoteID:            quoteID,
		QuotedAt:           time.Now(),
		Params:             params,
	}, !exact, nil
}

// computeAmountOut tries the live router read first when a chain client is
// wired, then walks the price-source priority chain: exchange rates, spot USD,
// static fallback.
func (s *QuoteServiceImpl) computeAmountOut(
	ctx context.Context,
	def entity.NetworkDefinition,
	params entity.SwapParams,
	symbolIn, symbolOut string,
	amountIn float64,
) (float64, entity.PriceSourceLevel, error) {
	if out, ok := s.routerQuote(ctx, def, params, symbolIn, symbolOut); ok {
		return out, entity.SourceRouter, nil
	}

	sources := s.prices.Snapshot()

	if out, err := quoteFromTable(sources.ExchangeRates, strings.ToLower(symbolIn), strings.ToLower(symbolOut), amountIn); err == nil {
		return out * estimateHaircut, entity.SourceExchangeRates, nil
	}
	if out, err := quoteFromTable(sources.SpotUSD, symbolIn, symbolOut, amountIn); err == nil {
		return out * estimateHaircut, entity.SourceSpotPrices, nil
	}
	out, err := quoteFromTable(sources.FallbackUSD, symbolIn, symbolOut, amountIn)
	if err != nil {
		return 0, "", fmt.Errorf("%w: %s or %s missing from every price source", entity.ErrUnsupportedToken, symbolIn, symbolOut)
	}
	return out, entity.SourceFallbackTable, nil
}

// quoteFromTable converts amountIn through a single price table where both
// legs are expressed in the same unit.
func quoteFromTable(table map[string]float64, keyIn, keyOut string, amountIn float64) (float64, error) {
	priceIn, okIn := table[keyIn]
	priceOut, okOut := table[keyOut]
	if !okIn || !okOut || priceIn <= 0 || priceOut <= 0 {
		return 0, entity.ErrPriceUnavailable
	}
	return amountIn * priceIn / priceOut, nil
}

// routerQuote attempts a live getAmountsOut read. Any failure degrades
// silently to the price tables.
func (s *QuoteServiceImpl) routerQuote(ctx context.Context, def entity.NetworkDefinition, params entity.SwapParams, symbolIn, symbolOut string) (float64, bool) {
	if s.clientProvider == nil || def.RouterAddress == "" {
		return 0, false
	}
	mdIn, okIn := s.registry.TokenMetadata(symbolIn)
	mdOut, okOut := s.registry.TokenMetadata(symbolOut)
	if !okIn || !okOut {
		return 0, false
	}

	chainClient, err := s.clientProvider.GetClient(def)
	if err != nil {
		s.logger.Debug("Live quote skipped, no chain client", "network", def.Name, "error", err)
		return 0, false
	}

	amountInWei, err := utils.ParseUnits(params.AmountIn, mdIn.Decimals)
	if err != nil {
		return 0, false
	}

	path := swapPath(def, params.TokenIn, params.TokenOut)
	amounts, err := chainClient.GetAmountsOut(ctx, def.RouterAddress, amountInWei, path)
	if err != nil {
		s.logger.Debug("Live quote failed, falling back to price tables", "network", def.Name, "error", err)
		return 0, false
	}

	outWei := amounts[len(amounts)-1]
	formatted, err := utils.FormatBigInt(outWei, mdOut.Decimals)
	if err != nil {
		return 0, false
	}
	out, err := strconv.ParseFloat(formatted, 64)
	if err != nil || out <= 0 {
		return 0, false
	}
	return out, true
}

// swapPath builds the router path, substituting the wrapped-native contract
// for native legs since the router only routes between ERC-20 pairs.
func swapPath(def entity.NetworkDefinition, tokenIn, tokenOut string) []string {
	in := tokenIn
	out := tokenOut
	if in == entity.ZeroAddress {
		in = def.WrappedNativeAddress
	}
	if out == entity.ZeroAddress {
		out = def.WrappedNativeAddress
	}
	return []string{in, out}
}
