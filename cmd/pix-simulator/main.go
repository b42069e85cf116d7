package main

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/radieske/prediction-market-platform-poc/internal/shared/config"
	"github.com/radieske/prediction-market-platform-poc/internal/shared/kafka"
	"github.com/radieske/prediction-market-platform-poc/internal/shared/logger"
	"github.com/radieske/prediction-market-platform-poc/internal/shared/metrics"
	"github.com/radieske/prediction-market-platform-poc/pkg/contracts/events"
)

// Métricas Prometheus do gateway simulado
var (
	chargesCreated = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "pix_charges_created_total",
		Help: "Cobranças PIX criadas",
	})
	chargesConfirmed = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "pix_charges_confirmed_total",
		Help: "Cobranças PIX confirmadas (pagas)",
	})
	chargesExpired = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "pix_charges_expired_total",
		Help: "Cobranças PIX nunca pagas",
	})
)

type createChargeReq struct {
	UserID      string `json:"userId"`
	AmountCents int64  `json:"amount_cents"`
}

type chargeResp struct {
	ChargeID    string `json:"charge_id"`
	QRPayload   string `json:"qr_payload"`
	AmountCents int64  `json:"amount_cents"`
}

// qrPayload monta um copia-e-cola fake no formato do BR Code
func qrPayload(chargeID string, amountCents int64) string {
	return fmt.Sprintf("00020126BR.GOV.BCB.PIX|%s|%d.%02d|predict-poc", chargeID, amountCents/100, amountCents%100)
}

type server struct {
	log    *zap.Logger
	writer *kafka.Writer
}

// createCharge cria a cobrança e agenda a confirmação assíncrona.
// 90% das cobranças são "pagas" depois de 2-8s; o resto expira sem
// pagamento, exatamente como um cliente que abandona o QR.
func (s *server) createCharge(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	defer r.Body.Close()

	var req createChargeReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	if req.UserID == "" || req.AmountCents <= 0 {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}

	chargeID := "PIX-" + uuid.NewString()
	chargesCreated.Inc()

	go s.settleLater(chargeID, req.UserID, req.AmountCents)

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(chargeResp{
		ChargeID:    chargeID,
		QRPayload:   qrPayload(chargeID, req.AmountCents),
		AmountCents: req.AmountCents,
	})
}

// settleLater simula o pagamento do QR e publica payment_confirmed
func (s *server) settleLater(chargeID, userID string, amountCents int64) {
	delay := time.Duration(2000+rand.Intn(6000)) * time.Millisecond
	time.Sleep(delay)

	if rand.Intn(100) >= 90 {
		chargesExpired.Inc()
		s.log.Info("charge expired unpaid", zap.String("chargeId", chargeID))
		return
	}

	evt := events.PaymentConfirmed{
		ChargeID:    chargeID,
		UserID:      userID,
		AmountCents: amountCents,
		PaidAt:      time.Now().UTC(),
		Provider:    "pix-simulator",
	}
	b, _ := json.Marshal(evt)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := kafka.WriteJSON(ctx, s.writer, chargeID, b); err != nil {
		s.log.Error("publish payment_confirmed", zap.String("chargeId", chargeID), zap.Error(err))
		return
	}
	chargesConfirmed.Inc()
	s.log.Info("charge paid", zap.String("chargeId", chargeID), zap.Int64("amount_cents", amountCents))
}

func main() {
	cfg := config.Load()
	log, err := logger.New(cfg.ServiceName, cfg.Env)
	if err != nil {
		panic(err)
	}
	defer log.Sync()
	rand.Seed(time.Now().UnixNano())

	prometheus.MustRegister(chargesCreated, chargesConfirmed, chargesExpired)

	writer := kafka.NewWriter(cfg.KafkaBrokers, cfg.TopicPaymentConfirmed)
	defer writer.Close()

	s := &server{log: log, writer: writer}

	// ==== MUX PÚBLICO (HTTP principal): /pix/charges
	appMux := http.NewServeMux()
	appMux.HandleFunc("/pix/charges", s.createCharge)

	// metrics/health
	metrics.StartMetricsServer(cfg.MetricsPort, func(context.Context) error { return nil })
	log.Info("metrics/health", zap.String("addr", ":"+cfg.MetricsPort))

	addr := ":" + cfg.HTTPPort
	log.Info("pix-simulator listening", zap.String("addr", addr))
	if err := http.ListenAndServe(addr, appMux); err != nil && err != http.ErrServerClosed {
		log.Fatal("api", zap.Error(err))
	}
}
