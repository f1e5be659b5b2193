package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// PrometheusCollector implements the services metrics sink on top of
// prometheus. Register it once per process; promauto registers the metrics
// globally.
type PrometheusCollector struct {
	roomsActive        prometheus.Gauge
	participantsActive prometheus.Gauge

	roomsCreatedTotal   prometheus.Counter
	roomsDissolvedTotal prometheus.Counter
	messagesPostedTotal prometheus.Counter
	joinsRejectedTotal  *prometheus.CounterVec
}

func NewPrometheusCollector() *PrometheusCollector {
	return &PrometheusCollector{
		roomsActive: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "watchparty_rooms_active",
			Help: "Number of rooms currently in the registry",
		}),
		participantsActive: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "watchparty_participants_active",
			Help: "Number of participants across all rooms",
		}),
		roomsCreatedTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "watchparty_rooms_created_total",
			Help: "Total number of rooms created",
		}),
		roomsDissolvedTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "watchparty_rooms_dissolved_total",
			Help: "Total number of rooms dissolved by their creator",
		}),
		messagesPostedTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "watchparty_messages_posted_total",
			Help: "Total number of chat messages relayed",
		}),
		joinsRejectedTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "watchparty_joins_rejected_total",
			Help: "Total number of rejected join attempts",
		}, []string{"reason"}),
	}
}

func (c *PrometheusCollector) RoomCreated() {
	c.roomsCreatedTotal.Inc()
	c.roomsActive.Inc()
	c.participantsActive.Inc() // creator is admitted with the room
}

func (c *PrometheusCollector) RoomDissolved() {
	c.roomsDissolvedTotal.Inc()
	c.roomsActive.Dec()
}

func (c *PrometheusCollector) ParticipantJoined() {
	c.participantsActive.Inc()
}

func (c *PrometheusCollector) ParticipantLeft() {
	c.participantsActive.Dec()
}

func (c *PrometheusCollector) JoinRejected(reason string) {
	c.joinsRejectedTotal.WithLabelValues(reason).Inc()
}

func (c *PrometheusCollector) MessagePosted() {
	c.messagesPostedTotal.Inc()
}
