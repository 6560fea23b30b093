// Package metrics holds the Prometheus collectors of the campaign engine.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "promoraffle"

var (
	// Registrations counts registration attempts by outcome kind ("ok" on success).
	Registrations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "registrations_total",
		Help:      "Registration attempts by outcome.",
	}, []string{"outcome"})

	// TicketsIssued counts tickets created by committed registrations.
	TicketsIssued = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "tickets_issued_total",
		Help:      "Tickets created by committed registrations.",
	})

	// RegisterRetries counts registration transactions retried after a conflict.
	RegisterRetries = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "register_retries_total",
		Help:      "Registration transactions retried after lock contention.",
	})

	// SerialChecks counts validator lookups by status.
	SerialChecks = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "serial_checks_total",
		Help:      "Serial validator lookups by status.",
	}, []string{"status"})

	// Draws counts raffle draws.
	Draws = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "draws_total",
		Help:      "Winners drawn.",
	})

	// ImportedCodes counts inventory rows written by imports.
	ImportedCodes = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "inventory_imported_codes_total",
		Help:      "Inventory rows upserted by imports.",
	})

	// NotifyFailures counts notifier errors after a committed registration.
	NotifyFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "notify_failures_total",
		Help:      "Notifier failures after committed registrations.",
	})

	// RequestDuration observes HTTP handling time by route pattern.
	RequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request duration by route.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route", "status"})
)
