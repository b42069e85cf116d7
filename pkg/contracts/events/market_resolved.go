package events

import "time"

// Evento emitido pelo market-service após a liquidação de um mercado.
type MarketResolved struct {
	MarketID       string    `json:"market_id"`
	Result         string    `json:"result"`
	WinnersPaid    int       `json:"winners_paid"`
	LosersSettled  int       `json:"losers_settled"`
	TotalPaidCents int64     `json:"total_paid_cents"`
	TotalPoolCents int64     `json:"total_pool_cents"`
	Ts             time.Time `json:"ts"`
}

type PositionCashedOut struct {
	PositionID string    `json:"position_id"`
	UserID     string    `json:"user_id"`
	MarketID   string    `json:"market_id"`
	ValueCents int64     `json:"value_cents"`
	Ts         time.Time `json:"ts"`
}
