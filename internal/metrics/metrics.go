package metrics

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome labels.
const (
	OutcomeOK        = "ok"
	OutcomeStatus    = "status_error"
	OutcomeTransport = "transport_error"
	OutcomeDecode    = "decode_error"
	OutcomeEncoding  = "encoding_error"
)

// Config holds configuration for the collector.
type Config struct {
	Enabled   bool   `json:"enabled" mapstructure:"enabled"`
	Namespace string `json:"namespace" mapstructure:"namespace"`
}

// Collector records device traffic. A nil or disabled Collector accepts
// every call and records nothing.
type Collector struct {
	registry *prometheus.Registry

	exchangesTotal  *prometheus.CounterVec
	frameBytes      *prometheus.CounterVec
	resultParts     *prometheus.CounterVec
	operationsTotal *prometheus.CounterVec

	operationDuration *prometheus.HistogramVec
}

// New creates a collector with its own registry.
func New(cfg Config) (*Collector, error) {
	if !cfg.Enabled {
		return nil, nil
	}
	namespace := cfg.Namespace
	if namespace == "" {
		namespace = "frost_ledger"
	}

	c := &Collector{registry: prometheus.NewRegistry()}

	c.exchangesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "device",
			Name:      "exchanges_total",
			Help:      "Device exchanges by instruction and outcome.",
		},
		[]string{"instruction", "outcome"},
	)
	c.frameBytes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "device",
			Name:      "frame_bytes_total",
			Help:      "Payload bytes sent in request frames.",
		},
		[]string{"instruction"},
	)
	c.resultParts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "device",
			Name:      "result_parts_total",
			Help:      "Result parts retrieved after a command.",
		},
		[]string{"instruction"},
	)
	c.operationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "operations_total",
			Help:      "Logical device operations by outcome.",
		},
		[]string{"operation", "outcome"},
	)
	c.operationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "operation_duration_seconds",
			Help:      "Wall time of logical device operations.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"operation"},
	)

	for _, col := range []prometheus.Collector{
		c.exchangesTotal, c.frameBytes, c.resultParts, c.operationsTotal, c.operationDuration,
	} {
		if err := c.registry.Register(col); err != nil {
			return nil, fmt.Errorf("metrics: register: %w", err)
		}
	}
	return c, nil
}

// Registry returns the underlying registry, nil when disabled.
func (c *Collector) Registry() *prometheus.Registry {
	if c == nil {
		return nil
	}
	return c.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	if c == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

func instructionLabel(ins byte) string {
	return fmt.Sprintf("0x%02x", ins)
}

// ObserveExchange counts one request/response pair.
func (c *Collector) ObserveExchange(ins byte, payloadLen int, outcome string) {
	if c == nil {
		return
	}
	label := instructionLabel(ins)
	c.exchangesTotal.WithLabelValues(label, outcome).Inc()
	c.frameBytes.WithLabelValues(label).Add(float64(payloadLen))
}

// ObserveResultParts counts retrieved result parts.
func (c *Collector) ObserveResultParts(ins byte, parts int) {
	if c == nil {
		return
	}
	c.resultParts.WithLabelValues(instructionLabel(ins)).Add(float64(parts))
}

// ObserveOperation records the outcome and duration of an operation.
func (c *Collector) ObserveOperation(name, outcome string, d time.Duration) {
	if c == nil {
		return
	}
	c.operationsTotal.WithLabelValues(name, outcome).Inc()
	c.operationDuration.WithLabelValues(name).Observe(d.Seconds())
}
