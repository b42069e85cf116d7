package topics

const (
	// Mercados
	StakePlaced       = "stake_placed"
	MarketResolved    = "market_resolved"
	PositionCashedOut = "position_cashed_out"

	// Pagamentos (PIX)
	PaymentConfirmed = "payment_confirmed"
	DepositCredited  = "deposit_credited"

	// DLQs
	PaymentConfirmedDLQ = "payment_confirmed_dlq"
)
