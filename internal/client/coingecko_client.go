package client

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"swap_gateway/internal/app/port"
	"swap_gateway/internal/domain/entity"
	"swap_gateway/internal/pkg/metrics"

	jsoniter "github.com/json-iterator/go"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// coinGeckoClientImpl talks to the CoinGecko REST API over fasthttp.
type coinGeckoClientImpl struct {
	client  *fasthttp.Client
	baseURL string
	apiKey  string
	timeout time.Duration
	logger  *zap.Logger
}

// NewCoinGeckoClient creates a new CoinGecko API client. An empty apiKey is
// valid and keeps requests on the public tier.
func NewCoinGeckoClient(baseURL, apiKey string, timeout time.Duration, logger *zap.Logger) port.PriceAPIClient {
	return &coinGeckoClientImpl{
		client:  &fasthttp.Client{},
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		timeout: timeout,
		logger:  logger.Named("CoinGeckoClient"),
	}
}

// GetExchangeRates fetches the BTC-denominated exchange rate table.
func (c *coinGeckoClientImpl) GetExchangeRates(ctx context.Context) (map[string]entity.ExchangeRate, error) {
	requestURL := c.baseURL + "/exchange_rates"

	rawBody, err := c.doGet(ctx, requestURL, "exchange_rates")
	if err != nil {
		return nil, err
	}

	var payload struct {
		Rates map[string]entity.ExchangeRate `json:"rates"`
	}
	if err := json.Unmarshal(rawBody, &payload); err != nil {
		c.logger.Error("Failed to unmarshal CoinGecko exchange rates response",
			zap.String("url", requestURL),
			zap.ByteString("responseBody", rawBody),
			zap.Error(err),
		)
		return nil, fmt.Errorf("failed to unmarshal exchange rates response from %s: %w", requestURL, err)
	}
	if len(payload.Rates) == 0 {
		c.logger.Warn("CoinGecko returned 200 OK with no exchange rates",
			zap.String("url", requestURL),
			zap.ByteString("responseBody", rawBody))
	}

	c.logger.Debug("Fetched CoinGecko exchange rates", zap.Int("rateCount", len(payload.Rates)))
	return payload.Rates, nil
}

// GetSpotPrices fetches USD spot prices with 24h change for the given asset
// identifiers, keyed by asset id (e.g. "ethereum", "usd-coin").
func (c *coinGeckoClientImpl) GetSpotPrices(ctx context.Context, assetIDs []string) (map[string]entity.SpotPrice, error) {
	if len(assetIDs) == 0 {
		return nil, fmt.Errorf("assetIDs cannot be empty")
	}

	query := url.Values{}
	query.Set("ids", strings.Join(assetIDs, ","))
	query.Set("vs_currencies", "usd")
	query.Set("include_24hr_change", "true")
	requestURL := c.baseURL + "/simple/price?" + query.Encode()

	rawBody, err := c.doGet(ctx, requestURL, "simple_price")
	if err != nil {
		return nil, err
	}

	var prices map[string]entity.SpotPrice
	if err := json.Unmarshal(rawBody, &prices); err != nil {
		c.logger.Error("Failed to unmarshal CoinGecko spot price response",
			zap.String("url", requestURL),
			zap.ByteString("responseBody", rawBody),
			zap.Error(err),
		)
		return nil, fmt.Errorf("failed to unmarshal spot price response from %s: %w", requestURL, err)
	}
	if len(prices) == 0 {
		c.logger.Warn("CoinGecko returned 200 OK with no spot prices",
			zap.String("url", requestURL),
			zap.ByteString("responseBody", rawBody))
	}

	c.logger.Debug("Fetched CoinGecko spot prices",
		zap.Strings("assetIDs", assetIDs),
		zap.Int("priceCount", len(prices)))
	return prices, nil
}

// doGet executes a GET request honoring the context deadline when one is set,
// otherwise the client default timeout.
func (c *coinGeckoClientImpl) doGet(ctx context.Context, requestURL, endpoint string) ([]byte, error) {
	c.logger.Debug("Requesting CoinGecko API", zap.String("url", requestURL))

	req := fasthttp.AcquireRequest()
	defer fasthttp.ReleaseRequest(req)
	req.SetRequestURI(requestURL)
	req.Header.SetMethod(fasthttp.MethodGet)
	req.Header.SetContentTypeBytes([]byte("application/json"))
	if c.apiKey != "" {
		req.Header.Set("x-cg-pro-api-key", c.apiKey)
	}

	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseResponse(resp)

	deadline, ok := ctx.Deadline()
	if ok {
		if err := c.client.DoDeadline(req, resp, deadline); err != nil {
			c.logger.Error("Failed to execute request to CoinGecko", zap.String("url", requestURL), zap.Error(err))
			metrics.PriceAPIRequestsTotal.WithLabelValues(endpoint, "error").Inc()
			return nil, fmt.Errorf("failed to execute request to %s: %w", requestURL, err)
		}
	} else {
		if err := c.client.DoTimeout(req, resp, c.timeout); err != nil {
			c.logger.Error("Failed to execute request to CoinGecko (with default timeout)", zap.String("url", requestURL), zap.Error(err))
			metrics.PriceAPIRequestsTotal.WithLabelValues(endpoint, "error").Inc()
			return nil, fmt.Errorf("failed to execute request to %s with default timeout: %w", requestURL, err)
		}
	}

	rawBody := resp.Body()

	if resp.StatusCode() != fasthttp.StatusOK {
		c.logger.Error("CoinGecko API request failed",
			zap.String("url", requestURL),
			zap.Int("statusCode", resp.StatusCode()),
			zap.ByteString("responseBody", rawBody),
		)
		metrics.PriceAPIRequestsTotal.WithLabelValues(endpoint, "error").Inc()
		return nil, fmt.Errorf("CoinGecko API request to %s failed with status %d: %s", requestURL, resp.StatusCode(), string(rawBody))
	}

	metrics.PriceAPIRequestsTotal.WithLabelValues(endpoint, "ok").Inc()

	body := make([]byte, len(rawBody))
	copy(body, rawBody)
	return body, nil
}
