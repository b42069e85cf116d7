package dto

import "time"

type WalletResponse struct {
	UserID       string `json:"userId"`
	WalletID     string `json:"walletId"`
	BalanceCents int64  `json:"balance_cents"`
}

// PixChargeResponse devolve o payload copia-e-cola pro cliente pagar.
type PixChargeResponse struct {
	ChargeID    string `json:"charge_id"`
	QRPayload   string `json:"qr_payload"`
	AmountCents int64  `json:"amount_cents"`
	Status      string `json:"status"` // PENDING
}

type WithdrawResponse struct {
	UserID          string `json:"userId"`
	NewBalanceCents int64  `json:"new_balance_cents"`
}

type LedgerEntryResponse struct {
	ID            int64     `json:"id"`
	OperationType string    `json:"operation_type"`
	AmountCents   int64     `json:"amount_cents"`
	Reference     string    `json:"reference,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}
