package pix

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Client é o adaptador do provedor PIX: cria cobranças e devolve o
// payload do QR. A confirmação chega de forma assíncrona (evento
// payment_confirmed), nunca por aqui.
type Client struct {
	BaseURL string
	HTTP    *http.Client
}

func New(base string) *Client {
	return &Client{
		BaseURL: base,
		HTTP:    &http.Client{Timeout: 3 * time.Second},
	}
}

type CreateChargeRequest struct {
	UserID      string `json:"userId"`
	AmountCents int64  `json:"amount_cents"`
}

type Charge struct {
	ChargeID    string `json:"charge_id"`
	QRPayload   string `json:"qr_payload"` // copia-e-cola
	AmountCents int64  `json:"amount_cents"`
}

func (c *Client) CreateCharge(ctx context.Context, userID string, amountCents int64) (Charge, error) {
	body, _ := json.Marshal(CreateChargeRequest{UserID: userID, AmountCents: amountCents})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/pix/charges", bytes.NewReader(body))
	if err != nil {
		return Charge{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := c.HTTP.Do(req)
	if err != nil {
		return Charge{}, err
	}
	defer res.Body.Close()
	if res.StatusCode >= 300 {
		return Charge{}, fmt.Errorf("pix create charge http %d", res.StatusCode)
	}

	var out Charge
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return Charge{}, err
	}
	return out, nil
}
