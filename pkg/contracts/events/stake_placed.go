package events

type StakePlaced struct {
	PositionID      string  `json:"position_id"`
	UserID          string  `json:"user_id"`
	MarketID        string  `json:"market_id"`
	Outcome         string  `json:"outcome"`
	AmountCents     int64   `json:"amount_cents"`
	OddsAtEntry     float64 `json:"odds_at_entry"`
	PotentialCents  int64   `json:"potential_payout_cents"`
	NewBalanceCents int64   `json:"new_balance_cents"`
	TsUnixMs        int64   `json:"ts_unix_ms"`
}
