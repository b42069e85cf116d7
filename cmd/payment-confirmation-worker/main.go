package main

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/radieske/prediction-market-platform-poc/internal/shared/config"
	"github.com/radieske/prediction-market-platform-poc/internal/shared/db"
	"github.com/radieske/prediction-market-platform-poc/internal/shared/kafka"
	"github.com/radieske/prediction-market-platform-poc/internal/shared/logger"
	"github.com/radieske/prediction-market-platform-poc/internal/shared/metrics"
	wrepo "github.com/radieske/prediction-market-platform-poc/internal/wallet/repo"
	ev "github.com/radieske/prediction-market-platform-poc/pkg/contracts/events"
)

func main() {
	cfg := config.Load()
	log, err := logger.New(cfg.ServiceName, cfg.Env)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	// Conexão com banco de dados Postgres para crédito dos depósitos
	pg, err := db.ConnectPostgres(cfg.PostgresDSN)
	if err != nil {
		log.Fatal("pg connect", zap.Error(err))
	}
	defer pg.Close()

	repo := wrepo.NewPostgres(pg)

	// Kafka consumer: consome eventos payment_confirmed do provedor PIX
	reader := kafka.NewReader(cfg.KafkaBrokers, cfg.TopicPaymentConfirmed, "payment-confirmation")
	defer reader.Close()

	// Kafka producer: publica deposit_credited e, opcionalmente, envia para DLQ
	creditedWriter := kafka.NewWriter(cfg.KafkaBrokers, cfg.TopicDepositCredited)
	defer creditedWriter.Close()

	var dlqWriter *kafka.Writer
	if cfg.TopicPaymentConfirmedDLQ != "" {
		dlqWriter = kafka.NewWriter(cfg.KafkaBrokers, cfg.TopicPaymentConfirmedDLQ)
		defer dlqWriter.Close()
	}

	// Servidor HTTP para métricas Prometheus e healthcheck
	metrics.StartMetricsServer(cfg.MetricsPort, func(ctx context.Context) error {
		return pg.PingContext(ctx)
	})
	log.Info("metrics/health", zap.String("addr", ":"+cfg.MetricsPort))

	log.Info("payment-confirmation-worker started",
		zap.String("consume", cfg.TopicPaymentConfirmed),
		zap.String("publish", cfg.TopicDepositCredited),
	)

	ctx := context.Background()

	// Loop principal: consome confirmações PIX, credita e publica resultado
	for {
		_, value, err := kafka.ReadNext(ctx, reader)
		if err != nil {
			log.Warn("kafka read", zap.Error(err))
			time.Sleep(time.Second)
			continue
		}
		var confirmed ev.PaymentConfirmed
		if jerr := json.Unmarshal(value, &confirmed); jerr != nil {
			log.Error("unmarshal payment_confirmed", zap.Error(jerr))
			continue
		}

		if err := processOne(ctx, log, repo, creditedWriter, dlqWriter, &confirmed); err != nil {
			log.Error("process payment", zap.String("chargeId", confirmed.ChargeID), zap.Error(err))
			// Backoff simples para evitar flood em caso de erro
			time.Sleep(500 * time.Millisecond)
		}
	}
}

// processOne executa o fluxo de crédito de um depósito confirmado:
// 1. Credita a carteira via ConfirmDeposit (idempotente por charge_id)
// 2. Publica evento deposit_credited no Kafka
// Cobrança desconhecida ou falha repetida vai pra DLQ em vez de travar
// o consumo.
func processOne(
	ctx context.Context,
	log *zap.Logger,
	repo *wrepo.Postgres,
	creditedWriter *kafka.Writer,
	dlqWriter *kafka.Writer,
	confirmed *ev.PaymentConfirmed,
) error {
	userID, amount, newBalance, err := repo.ConfirmDeposit(ctx, confirmed.ChargeID)
	if err != nil {
		if errors.Is(err, wrepo.ErrNotFound) {
			log.Warn("unknown charge", zap.String("chargeId", confirmed.ChargeID))
			if dlqWriter != nil {
				_ = kafka.WriteJSON(ctx, dlqWriter, confirmed.ChargeID, mustJSON(confirmed))
			}
			return nil
		}
		// Retry simples: tenta mais 3 vezes antes de enviar para DLQ
		const retries = 3
		for i := 0; i < retries; i++ {
			time.Sleep(time.Duration(300*(i+1)) * time.Millisecond)
			if userID, amount, newBalance, err = repo.ConfirmDeposit(ctx, confirmed.ChargeID); err == nil {
				break
			}
		}
		if err != nil {
			if dlqWriter != nil {
				_ = kafka.WriteJSON(ctx, dlqWriter, confirmed.ChargeID, mustJSON(confirmed))
			}
			return err
		}
	}

	log.Info("deposit credited",
		zap.String("chargeId", confirmed.ChargeID),
		zap.String("userId", userID),
		zap.Int64("amount_cents", amount),
	)

	evc := ev.DepositCredited{
		ChargeID:        confirmed.ChargeID,
		UserID:          userID,
		AmountCents:     amount,
		NewBalanceCents: newBalance,
		Ts:              time.Now(),
	}
	return kafka.WriteJSON(ctx, creditedWriter, confirmed.ChargeID, mustJSON(evc))
}

func mustJSON(v any) []byte {
	b, _ := json.Marshal(v)
	return b
}
