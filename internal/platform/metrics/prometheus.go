package metrics

import (
	"net/http"

	"github.com/AlphaIsYour/creanomic-sub002/internal/platform/logger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsManager holds custom Prometheus metrics.
type MetricsManager struct {
	Registry               *prometheus.Registry
	RegistrationsTotal     prometheus.Counter
	OTPCodesIssuedTotal    prometheus.Counter
	OffersCreatedTotal     prometheus.Counter
	OfferTransitionsTotal  *prometheus.CounterVec
	NotificationsSentTotal prometheus.Counter
	APIErrorsTotal         *prometheus.CounterVec
	APILatency             *prometheus.HistogramVec
}

// NewMetricsManager initializes and registers custom Prometheus metrics on a
// dedicated registry.
func NewMetricsManager(serviceName string) *MetricsManager {
	registry := prometheus.NewRegistry()

	registrationsTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: serviceName,
		Name:      "registrations_total",
		Help:      "Total number of completed registrations.",
	})
	otpCodesIssuedTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: serviceName,
		Name:      "otp_codes_issued_total",
		Help:      "Total number of OTP verification codes issued.",
	})
	offersCreatedTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: serviceName,
		Name:      "offers_created_total",
		Help:      "Total number of waste offers created.",
	})
	offerTransitionsTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: serviceName,
		Name:      "offer_transitions_total",
		Help:      "Total number of offer status transitions by target status.",
	}, []string{"status"})
	notificationsSentTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: serviceName,
		Name:      "notifications_sent_total",
		Help:      "Total number of notifications emitted.",
	})
	apiErrorsTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: serviceName,
		Name:      "api_errors_total",
		Help:      "Total number of API errors by operation and kind.",
	}, []string{"operation", "kind"})
	apiLatency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: serviceName,
		Name:      "api_request_latency_seconds",
		Help:      "Latency of API requests by operation.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"operation"})

	registry.MustRegister(
		registrationsTotal,
		otpCodesIssuedTotal,
		offersCreatedTotal,
		offerTransitionsTotal,
		notificationsSentTotal,
		apiErrorsTotal,
		apiLatency,
		prometheus.NewGoCollector(),
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
	)

	return &MetricsManager{
		Registry:               registry,
		RegistrationsTotal:     registrationsTotal,
		OTPCodesIssuedTotal:    otpCodesIssuedTotal,
		OffersCreatedTotal:     offersCreatedTotal,
		OfferTransitionsTotal:  offerTransitionsTotal,
		NotificationsSentTotal: notificationsSentTotal,
		APIErrorsTotal:         apiErrorsTotal,
		APILatency:             apiLatency,
	}
}

// StartMetricsServer exposes the registry on /metrics on its own port.
func StartMetricsServer(port string, log logger.Logger, registry *prometheus.Registry) error {
	if port == "" {
		log.Info("Prometheus metrics server port not configured, server will not start.")
		return nil
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	log.Infof("Prometheus metrics server starting on port %s", port)

	server := &http.Server{
		Addr:    ":" + port,
		Handler: mux,
	}

	return server.ListenAndServe()
}
