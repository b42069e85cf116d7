package http

import "github.com/prometheus/client_golang/prometheus"

// Métricas Prometheus do fluxo de apostas. Registradas uma única vez
// pelo main do market-service.
var (
	stakesPlaced = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "market_stakes_placed_total",
		Help: "Apostas aceitas",
	})
	stakeVolumeCents = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "market_stake_volume_cents_total",
		Help: "Volume apostado em centavos",
	})
	marketsResolved = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "market_resolutions_total",
		Help: "Mercados liquidados",
	})
	payoutsPaidCents = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "market_payouts_paid_cents_total",
		Help: "Total pago a vencedores em centavos",
	})
	cashoutsExecuted = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "market_cashouts_total",
		Help: "Cashouts executados",
	})
	stakeRejections = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "market_stake_rejections_total",
		Help: "Apostas rejeitadas por motivo",
	}, []string{"reason"})
)

func MustRegisterMetrics() {
	prometheus.MustRegister(
		stakesPlaced,
		stakeVolumeCents,
		marketsResolved,
		payoutsPaidCents,
		cashoutsExecuted,
		stakeRejections,
	)
}
