package monitor

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

// Config structure
type Config struct {
	Enabled bool
	Host    string
	Port    int
}

var (
	server *http.Server
	lock   sync.Mutex
)

var (
	// PaymentsSubmitted counts payments that entered the submitted state
	PaymentsSubmitted = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "card_api",
		Name:      "payments_submitted_total",
		Help:      "Payments submitted on-chain, by purpose and origin",
	}, []string{"purpose", "origin"})
	// PaymentsConfirmed counts payments with a successful receipt
	PaymentsConfirmed = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "card_api",
		Name:      "payments_confirmed_total",
		Help:      "Payments confirmed on-chain, by purpose",
	}, []string{"purpose"})
	// PaymentsFailed counts payments that reverted or could not be verified
	PaymentsFailed = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "card_api",
		Name:      "payments_failed_total",
		Help:      "Payments failed, by purpose and reason",
	}, []string{"purpose", "reason"})
	// PaymentsWatching is the number of receipts being waited on
	PaymentsWatching = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "card_api",
		Name:      "payments_watching",
		Help:      "Transactions currently waiting for a receipt",
	})
	// Reconciliations counts side effects fired after confirmation
	Reconciliations = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "card_api",
		Name:      "reconciliations_total",
		Help:      "Reconciliation side effects, by purpose and result",
	}, []string{"purpose", "result"})
	// Notifications counts operator notifications
	Notifications = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "card_api",
		Name:      "notifications_total",
		Help:      "Operator notifications, by sink and result",
	}, []string{"sink", "result"})
	// GatewayRequestDelay measures calls to the card issuer
	GatewayRequestDelay = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "card_api",
		Name:      "gateway_request_duration_seconds",
		Help:      "Duration of card issuer requests",
		Buckets:   prometheus.ExponentialBuckets(0.05, 2, 10),
	}, []string{"endpoint", "result"})
	// TokenPrice is the last token price used for quoting
	TokenPrice = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "card_api",
		Name:      "token_price_usd",
		Help:      "Token price used for quoting, by source",
	}, []string{"source"})
	// ProvisioningWaits is the number of open provisioning waits
	ProvisioningWaits = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "card_api",
		Name:      "provisioning_waits",
		Help:      "Clients currently waiting for a card to be provisioned",
	})
	// RequestDelay measures the HTTP API
	RequestDelay = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "card_api",
		Name:      "http_request_duration_seconds",
		Help:      "Duration of API requests, by route, method and status",
		Buckets:   prometheus.DefBuckets,
	}, []string{"route", "method", "status"})
)

func init() {
	prometheus.MustRegister(
		PaymentsSubmitted,
		PaymentsConfirmed,
		PaymentsFailed,
		PaymentsWatching,
		Reconciliations,
		Notifications,
		GatewayRequestDelay,
		TokenPrice,
		ProvisioningWaits,
		RequestDelay,
	)
}

// LoopProfilingServer starts the metrics listener when monitoring is enabled
func LoopProfilingServer(cfg Config) {
	if !cfg.Enabled {
		return
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler: mux,
	}
	lock.Lock()
	server = srv
	lock.Unlock()

	log.Info().Str("worker", "monitoring").Str("action", "start").Str("addr", srv.Addr).Msg("Monitoring server - started")
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error().Err(err).Str("worker", "monitoring").Msg("Unable to start monitoring server")
	}
}

// ShutdownServer stops the metrics listener
func ShutdownServer() {
	lock.Lock()
	srv := server
	lock.Unlock()
	if srv == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Str("worker", "monitoring").Str("action", "stop").Msg("Unable to shutdown monitoring server")
		return
	}
	log.Info().Str("worker", "monitoring").Str("action", "stop").Msg("Monitoring server - stopped")
}
