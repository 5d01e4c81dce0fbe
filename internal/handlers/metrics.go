package handlers

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsHandler returns the Prometheus scrape handler. Process calls
// can hold connections for minutes, so scrapes are capped at three in
// flight and cut off after ten seconds instead of queueing behind them.
func (h *Handlers) MetricsHandler() http.Handler {
	return promhttp.InstrumentMetricHandler(
		prometheus.DefaultRegisterer,
		promhttp.HandlerFor(prometheus.DefaultGatherer, promhttp.HandlerOpts{
			MaxRequestsInFlight: 3,
			Timeout:             10 * time.Second,
		}),
	)
}
