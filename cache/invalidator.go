package cache

import (
	"context"
	"time"

	"painel/logger"
	"painel/realtime"

	"go.uber.org/zap"
)

// Invalidator limpa chaves do cache quando chega mudança nas tabelas de origem.
type Invalidator struct {
	hub   *realtime.Hub
	cache Cache
	stops []func()
}

func NewInvalidator(hub *realtime.Hub, c Cache) *Invalidator {
	return &Invalidator{hub: hub, cache: c}
}

// Watch remove tudo sob prefix a cada INSERT/UPDATE/DELETE em table.
func (i *Invalidator) Watch(prefix string, table string) error {
	stop, err := i.hub.Subscribe("cache:"+prefix+table, realtime.Filter{Table: table}, func(c realtime.Change) {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := i.cache.DeletePrefix(ctx, prefix); err != nil {
			logger.Log.Warn("cache: invalidação falhou",
				zap.String("prefix", prefix),
				zap.String("table", table),
				zap.Error(err))
			return
		}
		logger.Log.Debug("cache: invalidado", zap.String("prefix", prefix), zap.String("table", c.Table))
	})
	if err != nil {
		return err
	}
	i.stops = append(i.stops, stop)
	return nil
}

func (i *Invalidator) Stop() {
	for _, stop := range i.stops {
		stop()
	}
	i.stops = nil
}
