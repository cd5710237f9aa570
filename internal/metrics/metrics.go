package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	GiftsSent = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "nego_gifts_sent_total",
			Help: "Gifts successfully sent",
		},
	)
	GiftCoins = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "nego_gift_coins_total",
			Help: "Coins moved by gifts",
		},
	)
	Bookings = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nego_bookings_total",
			Help: "Booking state changes",
		},
		[]string{"status"},
	)
	PaymentsCredited = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nego_payments_credited_total",
			Help: "Payments credited to wallets",
		},
		[]string{"provider"},
	)
	MediaUnlocks = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "nego_media_unlocks_total",
			Help: "Premium media unlocks",
		},
	)
	RealtimeConnections = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "nego_realtime_connections",
			Help: "Open realtime websocket connections",
		},
	)
	RealtimeEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nego_realtime_events_total",
			Help: "Change events received from Postgres",
		},
		[]string{"table"},
	)
)

func init() {
	prometheus.MustRegister(GiftsSent)
	prometheus.MustRegister(GiftCoins)
	prometheus.MustRegister(Bookings)
	prometheus.MustRegister(PaymentsCredited)
	prometheus.MustRegister(MediaUnlocks)
	prometheus.MustRegister(RealtimeConnections)
	prometheus.MustRegister(RealtimeEvents)
}
