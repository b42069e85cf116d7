package events

import "time"

// Evento publicado pelo provedor PIX (ou pelo pix-simulator) quando
// uma cobrança é liquidada. Faz o papel do webhook de confirmação.
type PaymentConfirmed struct {
	ChargeID    string    `json:"charge_id"`
	UserID      string    `json:"user_id"`
	AmountCents int64     `json:"amount_cents"`
	PaidAt      time.Time `json:"paid_at"`
	Provider    string    `json:"provider"` // "pix-simulator"
}

// Evento emitido pelo payment-confirmation-worker após creditar o depósito.
type DepositCredited struct {
	ChargeID        string    `json:"charge_id"`
	UserID          string    `json:"user_id"`
	AmountCents     int64     `json:"amount_cents"`
	NewBalanceCents int64     `json:"new_balance_cents"`
	Ts              time.Time `json:"ts"`
}
