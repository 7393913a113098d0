package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "http_requests_total", Help: "Total HTTP requests"},
		[]string{"route", "method", "status"},
	)
	ReqDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Request duration seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route", "method"},
	)
	InFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{Name: "http_in_flight_requests", Help: "In-flight HTTP requests"},
	)

	ListingsCreated = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "listings_created_total", Help: "Listings created"},
	)
	ListingsAccepted = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "listings_accepted_total", Help: "Listings accepted"},
	)
	ListingsExpired = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "listings_expired_total", Help: "Listings expired (sweep or lazy)"},
	)
	Subscribers = prometheus.NewGauge(
		prometheus.GaugeOpts{Name: "hub_subscribers", Help: "Connected event subscribers"},
	)
	EventsBroadcast = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "hub_events_broadcast_total", Help: "Events fanned out"},
		[]string{"type"},
	)
	EventsDropped = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "hub_events_dropped_total", Help: "Events dropped for slow subscribers"},
	)
)

func MustRegister() {
	prometheus.MustRegister(
		RequestsTotal, ReqDuration, InFlight,
		ListingsCreated, ListingsAccepted, ListingsExpired,
		Subscribers, EventsBroadcast, EventsDropped,
	)
}
