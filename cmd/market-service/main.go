package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	mcache "github.com/radieske/prediction-market-platform-poc/internal/market/cache"
	mhttp "github.com/radieske/prediction-market-platform-poc/internal/market/http"
	"github.com/radieske/prediction-market-platform-poc/internal/market/producer"
	"github.com/radieske/prediction-market-platform-poc/internal/market/repo"
	"github.com/radieske/prediction-market-platform-poc/internal/market/settle"
	"github.com/radieske/prediction-market-platform-poc/internal/shared/cache"
	"github.com/radieske/prediction-market-platform-poc/internal/shared/config"
	"github.com/radieske/prediction-market-platform-poc/internal/shared/db"
	"github.com/radieske/prediction-market-platform-poc/internal/shared/kafka"
	"github.com/radieske/prediction-market-platform-poc/internal/shared/logger"
	"github.com/radieske/prediction-market-platform-poc/internal/shared/metrics"
)

func main() {
	cfg := config.Load()
	log, _ := logger.New(cfg.ServiceName, cfg.Env)
	defer log.Sync()

	// Postgres
	pg, err := db.ConnectPostgres(cfg.PostgresDSN)
	if err != nil {
		log.Fatal("pg", zap.Error(err))
	}
	defer pg.Close()

	// Redis (cache de snapshots + pub/sub read-side)
	rdb, err := cache.ConnectRedis(cfg.RedisAddr)
	if err != nil {
		log.Fatal("redis", zap.Error(err))
	}
	defer rdb.Close()

	// Kafka writers (um por tópico de domínio)
	stakeWriter := kafka.NewWriter(cfg.KafkaBrokers, cfg.TopicStakePlaced)
	defer stakeWriter.Close()
	resolvedWriter := kafka.NewWriter(cfg.KafkaBrokers, cfg.TopicMarketResolved)
	defer resolvedWriter.Close()
	cashoutWriter := kafka.NewWriter(cfg.KafkaBrokers, cfg.TopicPositionCashedOut)
	defer cashoutWriter.Close()

	// deps
	store := repo.NewPostgres(pg)
	svc := settle.New(store)
	snapshots := mcache.NewMarketCache(rdb, 30*time.Second, cfg.RedisPubSubChannel)
	publ := producer.NewKafkaPublisher(stakeWriter, resolvedWriter, cashoutWriter)

	mhttp.MustRegisterMetrics()

	// HTTP público
	api := mhttp.NewServer(log, svc, store, snapshots, publ)
	apiSrv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.HTTPPort),
		Handler: api.Router(),
	}

	// metrics/health
	metrics.StartMetricsServer(cfg.MetricsPort, func(ctx context.Context) error {
		if err := pg.PingContext(ctx); err != nil {
			return err
		}
		return rdb.Ping(ctx).Err()
	})
	log.Info("metrics/health", zap.String("addr", ":"+cfg.MetricsPort))

	log.Info("market-service listening", zap.String("addr", fmt.Sprintf(":%s", cfg.HTTPPort)))
	if err := apiSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal("api", zap.Error(err))
	}
}
