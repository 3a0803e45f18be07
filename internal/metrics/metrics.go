// Package metrics holds the Prometheus collectors of the server.
package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "flint"

// OtherMethod labels requests whose method isn't a standard one. Client-supplied tokens
// must never become label values as is, otherwise the number of series is unbounded.
const OtherMethod = "other"

var knownMethods = map[string]struct{}{
	"GET": {}, "HEAD": {}, "POST": {}, "PUT": {}, "PATCH": {},
	"DELETE": {}, "OPTIONS": {}, "CONNECT": {}, "TRACE": {},
}

// Metrics holds all the server collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	ConnectionsTotal  prometheus.Counter
	ActiveConnections prometheus.Gauge
	RequestsTotal     *prometheus.CounterVec
	ParseErrorsTotal  *prometheus.CounterVec
	ResponsesTotal    *prometheus.CounterVec
}

// New creates the metrics and registers them with the given registry. If the registry
// already holds identical collectors, e.g. New was called twice with it, those are
// reused, so the counts are shared. Any other registration error is returned.
func New(reg prometheus.Registerer) (*Metrics, error) {
	var err error
	m := new(Metrics)

	m.ConnectionsTotal, err = register(reg, prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "connections_total",
			Help:      "Total number of accepted connections",
		},
	), err)
	m.ActiveConnections, err = register(reg, prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_connections",
			Help:      "Number of connections being served",
		},
	), err)
	m.RequestsTotal, err = register(reg, prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_total",
			Help:      "Total number of successfully parsed requests",
		},
		[]string{"method"}, // standard methods or "other"
	), err)
	m.ParseErrorsTotal, err = register(reg, prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "parse_errors_total",
			Help:      "Total number of connections closed without a parsed request",
		},
		[]string{"reason"}, // incomplete, request_line, header_line, too_large, read
	), err)
	m.ResponsesTotal, err = register(reg, prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "responses_total",
			Help:      "Total number of responses by body framing",
		},
		[]string{"framing"}, // fixed, chunked
	), err)

	if err != nil {
		return nil, err
	}

	return m, nil
}

// register stops at the first error, so the calls can be chained.
func register[C prometheus.Collector](reg prometheus.Registerer, c C, prev error) (C, error) {
	if prev != nil {
		return c, prev
	}

	err := reg.Register(c)
	if err == nil {
		return c, nil
	}

	var are prometheus.AlreadyRegisteredError
	if errors.As(err, &are) {
		if existing, ok := are.ExistingCollector.(C); ok {
			return existing, nil
		}
	}

	return c, err
}

func (m *Metrics) ConnectionOpened() {
	if m == nil {
		return
	}

	m.ConnectionsTotal.Inc()
	m.ActiveConnections.Inc()
}

func (m *Metrics) ConnectionClosed() {
	if m == nil {
		return
	}

	m.ActiveConnections.Dec()
}

// Request counts a parsed request. Non-standard methods are all counted as OtherMethod.
func (m *Metrics) Request(method string) {
	if m == nil {
		return
	}

	m.RequestsTotal.WithLabelValues(methodLabel(method)).Inc()
}

func (m *Metrics) ParseError(reason string) {
	if m == nil {
		return
	}

	m.ParseErrorsTotal.WithLabelValues(reason).Inc()
}

func (m *Metrics) Response(framing string) {
	if m == nil {
		return
	}

	m.ResponsesTotal.WithLabelValues(framing).Inc()
}

func methodLabel(method string) string {
	if _, ok := knownMethods[method]; ok {
		return method
	}

	return OtherMethod
}
