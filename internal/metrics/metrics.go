package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry holds the console's client-side metrics. A nil *Registry is valid
// and records nothing.
type Registry struct {
	reg             *prometheus.Registry
	Requests        *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	TokenRefreshes  *prometheus.CounterVec
	VinValidations  *prometheus.CounterVec
	Shipments       *prometheus.CounterVec
}

func NewRegistry() *Registry {
	r := prometheus.NewRegistry()
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "evm_client_requests_total",
		Help: "Backend requests by service, method and status code.",
	}, []string{"service", "method", "code"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "evm_client_request_duration_seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"service"})
	refreshes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "evm_client_token_refreshes_total",
	}, []string{"outcome"})
	validations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "evm_shipment_vin_validations_total",
	}, []string{"outcome"})
	shipments := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "evm_shipment_submissions_total",
	}, []string{"outcome"})

	r.MustRegister(requests, duration, refreshes, validations, shipments)
	return &Registry{
		reg:             r,
		Requests:        requests,
		RequestDuration: duration,
		TokenRefreshes:  refreshes,
		VinValidations:  validations,
		Shipments:       shipments,
	}
}

// ObserveRequest records one HTTP exchange; code 0 means no response.
func (r *Registry) ObserveRequest(service, method string, code int, d time.Duration) {
	if r == nil {
		return
	}
	r.Requests.WithLabelValues(service, method, strconv.Itoa(code)).Inc()
	r.RequestDuration.WithLabelValues(service).Observe(d.Seconds())
}

func (r *Registry) ObserveRefresh(ok bool) {
	if r == nil {
		return
	}
	r.TokenRefreshes.WithLabelValues(outcome(ok)).Inc()
}

func (r *Registry) ObserveValidation(ok bool) {
	if r == nil {
		return
	}
	r.VinValidations.WithLabelValues(outcome(ok)).Inc()
}

func (r *Registry) ObserveShipment(ok bool) {
	if r == nil {
		return
	}
	r.Shipments.WithLabelValues(outcome(ok)).Inc()
}

func (r *Registry) Handler() http.Handler { return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{}) }

func outcome(ok bool) string {
	if ok {
		return "ok"
	}
	return "error"
}
