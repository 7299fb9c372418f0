package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDisabledCollectorIsNoop(t *testing.T) {
	c, err := New(Config{Enabled: false})
	require.NoError(t, err)
	assert.Nil(t, c)
	assert.Nil(t, c.Registry())

	assert.NotPanics(t, func() {
		c.ObserveExchange(0x11, 10, OutcomeOK)
		c.ObserveResultParts(0x11, 2)
		c.ObserveOperation("dkg_round1", OutcomeOK, time.Second)
	})

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCollectorCounts(t *testing.T) {
	c, err := New(Config{Enabled: true})
	require.NoError(t, err)

	c.ObserveExchange(0x11, 250, OutcomeOK)
	c.ObserveExchange(0x11, 12, OutcomeOK)
	c.ObserveExchange(0x11, 0, OutcomeStatus)
	c.ObserveResultParts(0x11, 3)
	c.ObserveOperation("dkg_round1", OutcomeOK, 20*time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(c.exchangesTotal.WithLabelValues("0x11", OutcomeOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.exchangesTotal.WithLabelValues("0x11", OutcomeStatus)))
	assert.Equal(t, 262.0, testutil.ToFloat64(c.frameBytes.WithLabelValues("0x11")))
	assert.Equal(t, 3.0, testutil.ToFloat64(c.resultParts.WithLabelValues("0x11")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.operationsTotal.WithLabelValues("dkg_round1", OutcomeOK)))

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "frost_ledger_device_exchanges_total"))
}
