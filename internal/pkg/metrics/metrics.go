package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// QuotesTotal counts produced quotes by the price source that backed them.
	QuotesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "swap_gateway",
			Name:      "quotes_total",
			Help:      "Number of swap quotes produced, labelled by price source.",
		},
		[]string{"source"},
	)

	// QuoteFailuresTotal counts quote requests that ended in an error.
	QuoteFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "swap_gateway",
			Name:      "quote_failures_total",
			Help:      "Number of quote requests that failed, labelled by reason.",
		},
		[]string{"reason"},
	)

	// SwapsTotal counts submitted transactions by kind and final outcome.
	SwapsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "swap_gateway",
			Name:      "swaps_total",
			Help:      "Number of swap and approval transactions, labelled by kind and outcome.",
		},
		[]string{"kind", "outcome"},
	)

	// PriceAPIRequestsTotal counts upstream price API calls by endpoint and result.
	PriceAPIRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "swap_gateway",
			Name:      "price_api_requests_total",
			Help:      "Number of upstream price API requests, labelled by endpoint and result.",
		},
		[]string{"endpoint", "result"},
	)

	// ReceiptPollDuration observes how long transactions took from submission
	// to a terminal status.
	ReceiptPollDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "swap_gateway",
			Name:      "receipt_confirmation_seconds",
			Help:      "Seconds between transaction submission and terminal status.",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 10),
		},
		[]string{"outcome"},
	)
)

// MustRegisterMetrics registers all collectors with the default registry.
// Call it once at startup before serving /metrics.
func MustRegisterMetrics() {
	prometheus.MustRegister(
		QuotesTotal,
		QuoteFailuresTotal,
		SwapsTotal,
		PriceAPIRequestsTotal,
		ReceiptPollDuration,
	)
}
