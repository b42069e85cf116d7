package dto

import "time"

// OutcomeQuote é o preço corrente de um lado do mercado.
type OutcomeQuote struct {
	Label          string  `json:"label"`
	PoolCents      int64   `json:"pool_cents"`
	Probability    float64 `json:"probability"`
	OddsMultiplier float64 `json:"odds_multiplier"`
}

type MarketResponse struct {
	ID               string         `json:"id"`
	Title            string         `json:"title"`
	Status           string         `json:"status"`
	TotalPoolCents   int64          `json:"total_pool_cents"`
	ResolutionResult string         `json:"resolution_result,omitempty"`
	Outcomes         []OutcomeQuote `json:"outcomes,omitempty"`
	CreatedAt        time.Time      `json:"created_at"`
}

type PlaceStakeResponse struct {
	PositionID           string  `json:"positionId"`
	Status               string  `json:"status"` // ACTIVE
	OddsAtEntry          float64 `json:"odds_at_entry"`
	PotentialPayoutCents int64   `json:"potential_payout_cents"`
	NewBalanceCents      int64   `json:"new_balance_cents"`
}

type PositionResponse struct {
	PositionID           string    `json:"positionId"`
	MarketID             string    `json:"marketId"`
	Outcome              string    `json:"outcome"`
	AmountCents          int64     `json:"amount_cents"`
	OddsAtEntry          float64   `json:"odds_at_entry"`
	PotentialPayoutCents int64     `json:"potential_payout_cents"`
	Status               string    `json:"status"`
	CreatedAt            time.Time `json:"created_at"`
}

type CashoutResponse struct {
	PositionID      string `json:"positionId"`
	Status          string `json:"status"` // CASHED_OUT
	ValueCents      int64  `json:"value_cents"`
	NewBalanceCents int64  `json:"new_balance_cents"`
}

type ResolveMarketResponse struct {
	MarketID       string `json:"marketId"`
	Result         string `json:"result"`
	WinnersPaid    int    `json:"winners_paid"`
	LosersSettled  int    `json:"losers_settled"`
	TotalPaidCents int64  `json:"total_paid_cents"`
	TotalPoolCents int64  `json:"total_pool_cents"`
}
