// Package metrics exposes Prometheus counters for access control and
// settlement outcomes.
package metrics

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder is the metrics surface used by middleware and services.
type Recorder interface {
	RecordAuthDenial(reason string)
	RecordChargeIntent(outcome string)
	RecordSettlement(phase string)
	RecordCleanup(outcome string)
}

// Collector records metrics into a Prometheus registry.
type Collector struct {
	authDenials   *prometheus.CounterVec
	chargeIntents *prometheus.CounterVec
	settlements   *prometheus.CounterVec
	cleanups      *prometheus.CounterVec
}

// NewCollector creates a Collector and registers its metrics on reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		authDenials: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "buildwise_auth_denials_total",
			Help: "Requests rejected by the authorization guard, by reason.",
		}, []string{"reason"}),
		chargeIntents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "buildwise_charge_intents_total",
			Help: "Charge intent requests, by outcome.",
		}, []string{"outcome"}),
		settlements: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "buildwise_settlements_total",
			Help: "Settlement attempts, by resulting phase.",
		}, []string{"phase"}),
		cleanups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "buildwise_cart_cleanups_total",
			Help: "Deferred cart cleanup attempts, by outcome.",
		}, []string{"outcome"}),
	}

	reg.MustRegister(c.authDenials, c.chargeIntents, c.settlements, c.cleanups)
	return c
}

func (c *Collector) RecordAuthDenial(reason string) {
	c.authDenials.WithLabelValues(reason).Inc()
}

func (c *Collector) RecordChargeIntent(outcome string) {
	c.chargeIntents.WithLabelValues(outcome).Inc()
}

func (c *Collector) RecordSettlement(phase string) {
	c.settlements.WithLabelValues(phase).Inc()
}

func (c *Collector) RecordCleanup(outcome string) {
	c.cleanups.WithLabelValues(outcome).Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func Handler(gatherer prometheus.Gatherer) fiber.Handler {
	return adaptor.HTTPHandler(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
}

// Noop discards every measurement.
type Noop struct{}

func (Noop) RecordAuthDenial(string)   {}
func (Noop) RecordChargeIntent(string) {}
func (Noop) RecordSettlement(string)   {}
func (Noop) RecordCleanup(string)      {}
