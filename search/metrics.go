package search

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

// metrics holds Prometheus metrics for the search engine. A nil *metrics
// records nothing.
type metrics struct {
	rowsAppended prometheus.Counter
	queries      *prometheus.CounterVec
}

func newMetrics(reg prometheus.Registerer) (*metrics, error) {
	if reg == nil {
		return nil, nil // Metrics disabled
	}
	m := &metrics{
		rowsAppended: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "ldgraph",
			Subsystem: "search",
			Name:      "index_rows_appended_total",
			Help:      "Total rows appended to the full-text index",
		}),
		queries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ldgraph",
			Subsystem: "search",
			Name:      "queries_total",
			Help:      "Total search queries by entry point",
		}, []string{"entry"}),
	}
	var err error
	if m.rowsAppended, err = register(reg, m.rowsAppended); err != nil {
		return nil, err
	}
	if m.queries, err = register(reg, m.queries); err != nil {
		return nil, err
	}
	return m, nil
}

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

func (m *metrics) appended() {
	if m == nil {
		return
	}
	m.rowsAppended.Inc()
}

func (m *metrics) queried(entry string) {
	if m == nil {
		return
	}
	m.queries.WithLabelValues(entry).Inc()
}
