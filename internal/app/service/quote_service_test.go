package service

import (
	"context"
	"strconv"
	"testing"

	"swap_gateway/internal/domain/entity"
	"swap_gateway/internal/infrastructure/registry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	baseUSDCAddress = "0x833589fCD6eDb6E08f4c7C32D4f71b54bdA02913"
)

func newTestRegistry(t *testing.T) *registry.ChainRegistryProvider {
	t.Helper()
	reg, err := registry.NewChainRegistryProvider(nopLogger{}, 8453)
	require.NoError(t, err)
	return reg
}

func baseParams(amountIn string) entity.SwapParams {
	return entity.SwapParams{
		ChainID:  8453,
		TokenIn:  entity.ZeroAddress,
		TokenOut: baseUSDCAddress,
		AmountIn: amountIn,
		Slippage: 0.5,
	}
}

func TestEstimate_RejectsInvalidInputBeforePriceLookup(t *testing.T) {
	prices := &stubPrices{}
	notifier := &recordingNotifier{}
	svc := NewQuoteService(newTestRegistry(t), prices, nil, notifier, nopLogger{}, testExecutorConfig())

	for _, amountIn := range []string{"0", "-1", "", "abc"} {
		_, _, err := svc.Estimate(context.Background(), baseParams(amountIn))
		require.ErrorIs(t, err, entity.ErrValidation, "amountIn=%q", amountIn)
	}

	// Zero slippage is a configuration error, never rounded up to a minimum.
	params := baseParams("1")
	for _, slippage := range []float64{0, -0.5, 101} {
		params.Slippage = slippage
		_, _, err := svc.Estimate(context.Background(), params)
		require.ErrorIs(t, err, entity.ErrValidation, "slippage=%v", slippage)
	}

	assert.Zero(t, prices.consulted(), "invalid input must be rejected before any price lookup")
}

func TestEstimate_UnknownTokenPair(t *testing.T) {
	prices := &stubPrices{}
	svc := NewQuoteService(newTestRegistry(t), prices, nil, &recordingNotifier{}, nopLogger{}, testExecutorConfig())

	params := baseParams("1")
	params.TokenOut = "0x1111111111111111111111111111111111111111"
	_, _, err := svc.Estimate(context.Background(), params)
	require.ErrorIs(t, err, entity.ErrUnknownTokenPair)
	assert.Zero(t, prices.consulted())
}

func TestEstimate_ExchangeRatesWinOverConflictingSpot(t *testing.T) {
	prices := &stubPrices{sources: entity.PriceSources{
		ExchangeRates: map[string]float64{"eth": 2, "usdc": 1},
		SpotUSD:       map[string]float64{"ETH": 1000, "USDC": 1},
		FallbackUSD:   map[string]float64{"ETH": 4500, "USDC": 1},
	}}
	svc := NewQuoteService(newTestRegistry(t), prices, nil, &recordingNotifier{}, nopLogger{}, testExecutorConfig())

	estimate, mismatch, err := svc.Estimate(context.Background(), baseParams("1"))
	require.NoError(t, err)
	assert.False(t, mismatch)
	assert.Equal(t, entity.SourceExchangeRates, estimate.Source)
	// 1 * 2/1 with the 0.5% haircut.
	assert.Equal(t, "1.990000", estimate.AmountOut)
	assert.Equal(t, 0.5, estimate.PriceImpactPercent)
	assert.Equal(t, uint64(150000), estimate.GasEstimate)
	assert.False(t, estimate.QuotedAt.IsZero())
}

func TestEstimate_SpotFallbackWhenRateLegMissing(t *testing.T) {
	prices := &stubPrices{sources: entity.PriceSources{
		ExchangeRates: map[string]float64{"eth": 2}, // usdc leg missing
		SpotUSD:       map[string]float64{"ETH": 4000, "USDC": 1},
		FallbackUSD:   map[string]float64{"ETH": 4500, "USDC": 1},
	}}
	svc := NewQuoteService(newTestRegistry(t), prices, nil, &recordingNotifier{}, nopLogger{}, testExecutorConfig())

	estimate, _, err := svc.Estimate(context.Background(), baseParams("1"))
	require.NoError(t, err)
	assert.Equal(t, entity.SourceSpotPrices, estimate.Source)
	assert.Equal(t, "3980.000000", estimate.AmountOut)
}

func TestEstimate_StaticFallbackTable(t *testing.T) {
	prices := &stubPrices{sources: entity.PriceSources{
		FallbackUSD: map[string]float64{"ETH": 4500, "USDC": 1},
	}}
	svc := NewQuoteService(newTestRegistry(t), prices, nil, &recordingNotifier{}, nopLogger{}, testExecutorConfig())

	estimate, _, err := svc.Estimate(context.Background(), baseParams("1"))
	require.NoError(t, err)
	assert.Equal(t, entity.SourceFallbackTable, estimate.Source)
	// No haircut at the fallback level.
	assert.Equal(t, "4500.000000", estimate.AmountOut)

	reverse := baseParams("100")
	reverse.TokenIn, reverse.TokenOut = reverse.TokenOut, reverse.TokenIn
	estimate, _, err = svc.Estimate(context.Background(), reverse)
	require.NoError(t, err)
	assert.Equal(t, "0.022222", estimate.AmountOut)
}

func TestEstimate_RoundTripApproximatelyInverts(t *testing.T) {
	prices := &stubPrices{sources: entity.PriceSources{
		ExchangeRates: map[string]float64{"eth": 0.023, "usdc": 0.0000051},
		FallbackUSD:   map[string]float64{"ETH": 4500, "USDC": 1},
	}}
	svc := NewQuoteService(newTestRegistry(t), prices, nil, &recordingNotifier{}, nopLogger{}, testExecutorConfig())

	forward, _, err := svc.Estimate(context.Background(), baseParams("1"))
	require.NoError(t, err)

	reverse := baseParams(forward.AmountOut)
	reverse.TokenIn, reverse.TokenOut = reverse.TokenOut, reverse.TokenIn
	back, _, err := svc.Estimate(context.Background(), reverse)
	require.NoError(t, err)

	got, err := strconv.ParseFloat(back.AmountOut, 64)
	require.NoError(t, err)
	// Two haircuts and toFixed rounding apart from perfect inversion.
	assert.InDelta(t, 1.0, got, 0.011)
}

func TestEstimate_UnsupportedTokenWhenAbsentEverywhere(t *testing.T) {
	prices := &stubPrices{sources: entity.PriceSources{
		FallbackUSD: map[string]float64{"ETH": 4500}, // no USDC anywhere
	}}
	svc := NewQuoteService(newTestRegistry(t), prices, nil, &recordingNotifier{}, nopLogger{}, testExecutorConfig())

	_, _, err := svc.Estimate(context.Background(), baseParams("1"))
	require.ErrorIs(t, err, entity.ErrUnsupportedToken)
}

func TestEstimate_UnknownChainFallsBackToDefaultWithMismatch(t *testing.T) {
	prices := &stubPrices{sources: entity.PriceSources{
		FallbackUSD: map[string]float64{"ETH": 4500, "USDC": 1},
	}}
	notifier := &recordingNotifier{}
	svc := NewQuoteService(newTestRegistry(t), prices, nil, notifier, nopLogger{}, testExecutorConfig())

	params := baseParams("1")
	params.ChainID = 999999
	estimate, mismatch, err := svc.Estimate(context.Background(), params)
	require.NoError(t, err)
	assert.True(t, mismatch)
	assert.Equal(t, "4500.000000", estimate.AmountOut)
	assert.Equal(t, 1, notifier.counts().mismatch)
}

func TestEstimate_QuoteIDsIncrease(t *testing.T) {
	prices := &stubPrices{sources: entity.PriceSources{
		FallbackUSD: map[string]float64{"ETH": 4500, "USDC": 1},
	}}
	svc := NewQuoteService(newTestRegistry(t), prices, nil, &recordingNotifier{}, nopLogger{}, testExecutorConfig())

	first, _, err := svc.Estimate(context.Background(), baseParams("1"))
	require.NoError(t, err)
	second, _, err := svc.Estimate(context.Background(), baseParams("2"))
	require.NoError(t, err)
	assert.Greater(t, second.QuoteID, first.QuoteID)
	assert.Equal(t, baseParams("2"), second.Params)
}
