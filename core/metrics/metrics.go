// Package metrics exposes prometheus counters for the bot and serves them
// together with a health check on the ops listener.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const namespace = "partybot"

var (
	// Registry holds every bot collector plus Go runtime and process collectors.
	Registry = prometheus.NewRegistry()

	// Updates counts inbound Telegram updates by kind (message, callback, other).
	Updates = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "updates_total",
		Help:      "Inbound Telegram updates by kind.",
	}, []string{"kind"})

	// Handled counts handler runs by handler name and outcome.
	Handled = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "handler_runs_total",
		Help:      "Handler executions by handler and outcome.",
	}, []string{"handler", "outcome"})

	// Sends counts outbound Telegram calls by result (ok, fail).
	Sends = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "outbound_sends_total",
		Help:      "Outbound Telegram calls by result.",
	}, []string{"result"})

	// Orders counts committed orders.
	Orders = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "orders_committed_total",
		Help:      "Orders confirmed by guests.",
	})

	// BillsSent counts bills delivered to guests.
	BillsSent = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "bills_sent_total",
		Help:      "Bills sent to guests.",
	})

	// BillsPaid counts bills marked paid.
	BillsPaid = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "bills_paid_total",
		Help:      "Bills marked as paid.",
	})
)

func init() {
	Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		Updates, Handled, Sends, Orders, BillsSent, BillsPaid,
	)
}
