package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"swap_gateway/internal/domain/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakePriceAPI scripts the upstream price API.
type fakePriceAPI struct {
	rates    map[string]entity.ExchangeRate
	ratesErr error
	spot     map[string]entity.SpotPrice
	spotErr  error
}

func (f *fakePriceAPI) GetExchangeRates(context.Context) (map[string]entity.ExchangeRate, error) {
	if f.ratesErr != nil {
		return nil, f.ratesErr
	}
	return f.rates, nil
}

func (f *fakePriceAPI) GetSpotPrices(context.Context, []string) (map[string]entity.SpotPrice, error) {
	if f.spotErr != nil {
		return nil, f.spotErr
	}
	return f.spot, nil
}

func TestPriceService_RefreshPopulatesSnapshot(t *testing.T) {
	api := &fakePriceAPI{
		rates: map[string]entity.ExchangeRate{
			"ETH": {Name: "Ether", Unit: "ETH", Value: 0.023, Type: "crypto"},
			"btc": {Name: "Bitcoin", Unit: "BTC", Value: 1, Type: "crypto"},
		},
		spot: map[string]entity.SpotPrice{
			"ethereum": {USD: 4321.5, Change24h: -1.2},
			"usd-coin": {USD: 1.0001},
			"unknown":  {USD: 99},
		},
	}
	svc := NewPriceService(api, nopLogger{}, time.Minute, time.Minute)

	require.NoError(t, svc.Refresh(context.Background()))
	snapshot := svc.Snapshot()

	// Exchange-rate keys are normalized to lower case.
	assert.Equal(t, 0.023, snapshot.ExchangeRates["eth"])
	assert.Equal(t, 1.0, snapshot.ExchangeRates["btc"])

	// Spot prices are re-keyed from asset id to symbol; unknown ids drop out.
	assert.Equal(t, 4321.5, snapshot.SpotUSD["ETH"])
	assert.Equal(t, 1.0001, snapshot.SpotUSD["USDC"])
	assert.NotContains(t, snapshot.SpotUSD, "unknown")

	assert.Equal(t, 4500.0, snapshot.FallbackUSD["ETH"])
	assert.Equal(t, 1.0, snapshot.FallbackUSD["USDC"])
}

func TestPriceService_SnapshotSurvivesUpstreamOutage(t *testing.T) {
	api := &fakePriceAPI{
		ratesErr: errors.New("upstream down"),
		spotErr:  errors.New("upstream down"),
	}
	svc := NewPriceService(api, nopLogger{}, time.Minute, time.Minute)

	require.Error(t, svc.Refresh(context.Background()))

	snapshot := svc.Snapshot()
	assert.Nil(t, snapshot.ExchangeRates)
	assert.Nil(t, snapshot.SpotUSD)
	// The static table keeps quoting alive.
	assert.Equal(t, 4500.0, snapshot.FallbackUSD["ETH"])
	assert.Equal(t, 1.0, snapshot.FallbackUSD["USDC"])
}

func TestPriceService_PartialFailureKeepsSurvivingTable(t *testing.T) {
	api := &fakePriceAPI{
		ratesErr: errors.New("rate limited"),
		spot: map[string]entity.SpotPrice{
			"ethereum": {USD: 4000},
		},
	}
	svc := NewPriceService(api, nopLogger{}, time.Minute, time.Minute)

	require.Error(t, svc.Refresh(context.Background()))

	snapshot := svc.Snapshot()
	assert.Nil(t, snapshot.ExchangeRates)
	assert.Equal(t, 4000.0, snapshot.SpotUSD["ETH"])
}
