// Package metrics exposes the lobby's Prometheus collectors. Every
// Metrics value carries its own registry so servers and tests never
// collide on global registration.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics bundles all collectors for one lobby instance.
type Metrics struct {
	registry *prometheus.Registry

	ConnectionsAccepted prometheus.Counter
	ConnectionsRejected *prometheus.CounterVec
	LoginsTotal         prometheus.Counter
	EventsProcessed     prometheus.Counter
	MessagesDropped     prometheus.Counter

	UsersOnline    prometheus.Gauge
	ChannelsActive prometheus.Gauge
	GamesTotal     prometheus.Gauge
	GamesOpen      prometheus.Gauge
}

// New creates and registers all lobby collectors on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		ConnectionsAccepted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "ienet",
			Name:      "connections_accepted_total",
			Help:      "TCP connections accepted by the lobby listener.",
		}),
		ConnectionsRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ienet",
			Name:      "connections_rejected_total",
			Help:      "Connections dropped before login, by reason.",
		}, []string{"reason"}),
		LoginsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "ienet",
			Name:      "logins_total",
			Help:      "Successful logins since start.",
		}),
		EventsProcessed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "ienet",
			Name:      "events_processed_total",
			Help:      "Events consumed by the broker loop.",
		}),
		MessagesDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "ienet",
			Name:      "messages_dropped_total",
			Help:      "Outbound messages dropped because a client queue was full.",
		}),
		UsersOnline: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "ienet",
			Name:      "users_online",
			Help:      "Users currently logged in.",
		}),
		ChannelsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "ienet",
			Name:      "channels_active",
			Help:      "Channels currently occupied.",
		}),
		GamesTotal: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "ienet",
			Name:      "games_total",
			Help:      "Game records currently tracked, any status.",
		}),
		GamesOpen: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "ienet",
			Name:      "games_open",
			Help:      "Games currently advertised as joinable.",
		}),
	}

	m.registry.MustRegister(
		m.ConnectionsAccepted,
		m.ConnectionsRejected,
		m.LoginsTotal,
		m.EventsProcessed,
		m.MessagesDropped,
		m.UsersOnline,
		m.ChannelsActive,
		m.GamesTotal,
		m.GamesOpen,
	)
	return m
}

// Rejection reasons used with ConnectionsRejected.
const (
	RejectIPv6      = "ipv6"
	RejectHandshake = "handshake"
	RejectVersion   = "version"
	RejectUsername  = "username"
	RejectDuplicate = "duplicate"
)

// Handler serves this instance's registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
