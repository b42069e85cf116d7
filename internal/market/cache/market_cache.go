package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

// MarketCache guarda snapshots de mercado (pools + cotações) no Redis
// com TTL curto e publica os mesmos snapshots num canal pub/sub pro
// market-stream-service. O Redis aqui é só read-side: a fonte de
// verdade é sempre o Postgres.
type MarketCache struct {
	Client  *redis.Client
	TTL     time.Duration
	Channel string
}

func NewMarketCache(c *redis.Client, ttl time.Duration, channel string) *MarketCache {
	return &MarketCache{Client: c, TTL: ttl, Channel: channel}
}

// key gera a chave Redis pro snapshot corrente de um mercado
func key(marketID string) string { return "market:current:" + marketID }

func (c *MarketCache) SetSnapshot(ctx context.Context, marketID string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.Client.Set(ctx, key(marketID), b, c.TTL).Err()
}

// GetSnapshot tenta ler o snapshot do cache; ok=false em cache miss.
func (c *MarketCache) GetSnapshot(ctx context.Context, marketID string, dest any) (bool, error) {
	b, err := c.Client.Get(ctx, key(marketID)).Bytes()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, json.Unmarshal(b, dest)
}

// Invalidate remove o snapshot após uma mutação comitada.
func (c *MarketCache) Invalidate(ctx context.Context, marketID string) error {
	return c.Client.Del(ctx, key(marketID)).Err()
}

// Payload padrão pro WS do market-stream-service
type WSUpdate struct {
	MarketID string      `json:"marketId"`
	Payload  interface{} `json:"payload"`
}

// Broadcast publica o snapshot no canal pub/sub. Falha aqui não pode
// derrubar a operação que já comitou — o chamador só loga.
func (c *MarketCache) Broadcast(ctx context.Context, marketID string, payload any) error {
	b, err := json.Marshal(WSUpdate{MarketID: marketID, Payload: payload})
	if err != nil {
		return err
	}
	return c.Client.Publish(ctx, c.Channel, b).Err()
}
