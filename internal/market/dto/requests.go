package dto

type CreateMarketRequest struct {
	Title    string   `json:"title"`
	Outcomes []string `json:"outcomes"` // ex: ["YES","NO"]
}

type PlaceStakeRequest struct {
	UserID      string `json:"userId"`
	MarketID    string `json:"marketId"`
	Outcome     string `json:"outcome"`
	AmountCents int64  `json:"amount_cents"`
}

type ResolveMarketRequest struct {
	Outcome string `json:"outcome"` // resultado vencedor
}
