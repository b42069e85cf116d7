package producer

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/radieske/prediction-market-platform-poc/pkg/contracts/events"
)

// KafkaPublisher publica os eventos do fluxo de mercado. Um writer por
// tópico; mensagens chaveadas por marketID pra preservar ordem por
// mercado na partição.
type KafkaPublisher struct {
	StakeWriter    *kafka.Writer
	ResolvedWriter *kafka.Writer
	CashoutWriter  *kafka.Writer
}

func NewKafkaPublisher(stake, resolved, cashout *kafka.Writer) *KafkaPublisher {
	return &KafkaPublisher{StakeWriter: stake, ResolvedWriter: resolved, CashoutWriter: cashout}
}

func (p *KafkaPublisher) PublishStakePlaced(ctx context.Context, e events.StakePlaced) error {
	e.TsUnixMs = time.Now().UnixMilli()
	b, _ := json.Marshal(e)
	return p.StakeWriter.WriteMessages(ctx, kafka.Message{Key: []byte(e.MarketID), Value: b})
}

func (p *KafkaPublisher) PublishMarketResolved(ctx context.Context, e events.MarketResolved) error {
	e.Ts = time.Now().UTC()
	b, _ := json.Marshal(e)
	return p.ResolvedWriter.WriteMessages(ctx, kafka.Message{Key: []byte(e.MarketID), Value: b})
}

func (p *KafkaPublisher) PublishPositionCashedOut(ctx context.Context, e events.PositionCashedOut) error {
	e.Ts = time.Now().UTC()
	b, _ := json.Marshal(e)
	return p.CashoutWriter.WriteMessages(ctx, kafka.Message{Key: []byte(e.MarketID), Value: b})
}
