package realtime

import (
	"context"
	"encoding/json"

	"painel/logger"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type envelope struct {
	Origin string `json:"origin"`
	Change Change `json:"change"`
}

// RedisBridge replica as mudanças entre instâncias via pub/sub. Mudanças
// locais vão para o hub local na hora e para o redis; as recebidas de outras
// instâncias entram só no hub.
type RedisBridge struct {
	client  *redis.Client
	channel string
	hub     *Hub
	origin  string
}

func NewRedisBridge(client *redis.Client, channel string, hub *Hub) *RedisBridge {
	return &RedisBridge{
		client:  client,
		channel: channel,
		hub:     hub,
		origin:  uuid.NewString(),
	}
}

func (b *RedisBridge) Publish(c Change) {
	b.hub.Publish(c)

	body, err := json.Marshal(envelope{Origin: b.origin, Change: c})
	if err != nil {
		logger.Log.Error("realtime: serializar mudança", zap.Error(err))
		return
	}
	if err := b.client.Publish(context.Background(), b.channel, body).Err(); err != nil {
		logger.Log.Warn("realtime: publicar no redis", zap.Error(err))
	}
}

// Run consome o canal redis até ctx acabar.
func (b *RedisBridge) Run(ctx context.Context) error {
	sub := b.client.Subscribe(ctx, b.channel)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return err
	}
	logger.Log.Info("realtime: ponte redis ativa", zap.String("channel", b.channel))

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			b.handle(msg.Payload)
		}
	}
}

func (b *RedisBridge) handle(payload string) {
	var env envelope
	if err := json.Unmarshal([]byte(payload), &env); err != nil {
		logger.Log.Warn("realtime: mensagem redis inválida", zap.Error(err))
		return
	}
	if env.Origin == b.origin {
		return
	}
	b.hub.Publish(env.Change)
}
