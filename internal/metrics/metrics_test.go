package metrics

import (
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func counterValue(t *testing.T, reg *prometheus.Registry, name, label, value string) float64 {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.GetMetric() {
			for _, lp := range m.GetLabel() {
				if lp.GetName() == label && lp.GetValue() == value {
					return m.GetCounter().GetValue()
				}
			}
		}
	}
	return 0
}

func TestCollectorCounts(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordSettlement("settled")
	c.RecordSettlement("settled")
	c.RecordSettlement("cleanup_pending")
	c.RecordAuthDenial("forbidden")
	c.RecordChargeIntent("created")
	c.RecordCleanup("requeued")

	assert.Equal(t, 2.0, counterValue(t, reg, "buildwise_settlements_total", "phase", "settled"))
	assert.Equal(t, 1.0, counterValue(t, reg, "buildwise_settlements_total", "phase", "cleanup_pending"))
	assert.Equal(t, 1.0, counterValue(t, reg, "buildwise_auth_denials_total", "reason", "forbidden"))
	assert.Equal(t, 1.0, counterValue(t, reg, "buildwise_charge_intents_total", "outcome", "created"))
	assert.Equal(t, 1.0, counterValue(t, reg, "buildwise_cart_cleanups_total", "outcome", "requeued"))
}

func TestHandlerExposesMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	NewCollector(reg).RecordAuthDenial("unauthenticated")

	app := fiber.New()
	app.Get("/metrics", Handler(reg))

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/metrics", nil))
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `buildwise_auth_denials_total{reason="unauthenticated"} 1`)
}
