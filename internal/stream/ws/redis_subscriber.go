package ws

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// StartRedisSubscriber inicia uma goroutine que escuta o canal Redis Pub/Sub
// e repassa os snapshots recebidos para os clientes WebSocket inscritos via Hub
//
// Funcionamento:
// - Recebe mensagens JSON do canal Redis (publicadas pelo market-service pós-commit)
// - Desserializa para MarketUpdate
// - Chama hub.Broadcast para enviar aos clientes inscritos no mercado
//
// O canal é só notificação read-side: perder uma mensagem aqui nunca
// afeta o estado autorizado, que vive no Postgres.
func StartRedisSubscriber(ctx context.Context, r *redis.Client, channel string, hub *Hub, log *zap.Logger) {
	sub := r.Subscribe(ctx, channel)
	ch := sub.Channel()
	go func() {
		for {
			select {
			case <-ctx.Done():
				_ = sub.Close() // encerra a inscrição ao finalizar o contexto
				return
			case msg := <-ch:
				if msg == nil {
					continue
				}
				var upd MarketUpdate
				if err := json.Unmarshal([]byte(msg.Payload), &upd); err != nil {
					log.Warn("ws subscriber unmarshal", zap.Error(err))
					continue
				}
				hub.Broadcast(upd) // envia snapshot para os clientes inscritos
			}
		}
	}()
}
