package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ReservationAttempts counts reserve calls by outcome
	// (reserved, already_held, conflict, blocked, rate_limited, error).
	ReservationAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reservation_attempts_total",
			Help: "Reservation attempts by outcome",
		},
		[]string{"outcome"},
	)

	TicketsExpired = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tickets_expired_total",
			Help: "Reservations reclaimed by the expiration sweeper",
		},
	)

	RafflesClosed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "raffles_closed_total",
			Help: "Raffles closed by the closer job",
		},
	)

	SettlementRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "settlement_runs_total",
			Help: "Settlement runs by result (success, rejected, error)",
		},
		[]string{"result"},
	)

	EntitiesBlocked = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fraud_entities_blocked_total",
			Help: "Denylist entries inserted by the fraud analyzer",
		},
		[]string{"kind"},
	)
)
