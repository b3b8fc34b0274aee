package store

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// metrics holds Prometheus metrics for store operations. A nil *metrics
// records nothing.
type metrics struct {
	operations     *prometheus.CounterVec
	duration       *prometheus.HistogramVec
	triplesWritten prometheus.Counter
}

func newMetrics(reg prometheus.Registerer) (*metrics, error) {
	if reg == nil {
		return nil, nil // Metrics disabled
	}
	m := &metrics{
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ldgraph",
			Subsystem: "store",
			Name:      "operations_total",
			Help:      "Total store operations by operation and result",
		}, []string{"op", "result"}),

		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "ldgraph",
			Subsystem: "store",
			Name:      "operation_duration_seconds",
			Help:      "Store operation latency",
			Buckets:   prometheus.DefBuckets,
		}, []string{"op"}),

		triplesWritten: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "ldgraph",
			Subsystem: "store",
			Name:      "triples_written_total",
			Help:      "Total triples written by put",
		}),
	}

	var err error
	if m.operations, err = register(reg, m.operations); err != nil {
		return nil, err
	}
	if m.duration, err = register(reg, m.duration); err != nil {
		return nil, err
	}
	if m.triplesWritten, err = register(reg, m.triplesWritten); err != nil {
		return nil, err
	}
	return m, nil
}

// register adds c to reg, reusing an identical collector registered by
// another store on the same registry.
func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

func (m *metrics) observe(op string, start time.Time, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.operations.WithLabelValues(op, result).Inc()
	m.duration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}

func (m *metrics) wrote(n int) {
	if m == nil {
		return
	}
	m.triplesWritten.Add(float64(n))
}
