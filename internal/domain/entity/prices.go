package entity

// ExchangeRate is one row of the price API's exchange-rate table. Values are
// expressed in a common unit (BTC for CoinGecko), so a pair rate is the
// quotient of the two legs.
type ExchangeRate struct {
	Name  string  `json:"name"`
	Unit  string  `json:"unit"`
	Value float64 `json:"value"`
	Type  string  `json:"type"`
}

// SpotPrice is one row of the price API's simple-price table.
type SpotPrice struct {
	USD       float64 `json:"usd"`
	Change24h float64 `json:"usd_24h_change"`
}

// PriceSources is the snapshot handed to the quote calculator. The calculator
// consumes the first populated level in priority order: ExchangeRates, then
// SpotUSD, then FallbackUSD. FallbackUSD is always populated for supported
// symbols, so quoting cannot exhaust all levels.
type PriceSources struct {
	ExchangeRates map[string]float64 `json:"exchangeRates,omitempty"` // lower-cased symbol -> value in common unit
	SpotUSD       map[string]float64 `json:"spotUsd,omitempty"`       // upper-cased symbol -> USD price
	FallbackUSD   map[string]float64 `json:"fallbackUsd"`             // upper-cased symbol -> USD price, static
}
