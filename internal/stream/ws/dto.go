package ws

import "encoding/json"

// ClientMsg é o protocolo dos clientes WS: subscribe/unsubscribe por
// mercado, mais ping.
type ClientMsg struct {
	Type     string `json:"type"` // "subscribe" | "unsubscribe" | "ping"
	MarketID string `json:"marketId,omitempty"`
}

// MarketUpdate é o snapshot repassado aos clientes inscritos. Payload
// é o MarketResponse publicado pelo market-service; o stream não
// interpreta, só roteia.
type MarketUpdate struct {
	MarketID string          `json:"marketId"`
	Payload  json.RawMessage `json:"payload"`
}
