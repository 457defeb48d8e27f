package realtime

import (
	"sync"

	"painel/logger"
	"painel/metrics"

	"go.uber.org/zap"
)

const subscriptionBuffer = 64

// Handler recebe as mudanças de uma assinatura, sempre na mesma goroutine.
type Handler func(Change)

type subscription struct {
	id      uint64
	channel string
	filter  Filter
	queue   chan Change
}

// Hub mantém as assinaturas por canal e distribui as mudanças publicadas.
// A entrega é no máximo uma vez: assinantes com fila cheia perdem a mensagem.
type Hub struct {
	mu     sync.RWMutex
	subs   map[uint64]*subscription
	nextID uint64
	buffer int
	closed bool
	wg     sync.WaitGroup
}

func NewHub() *Hub {
	return &Hub{
		subs:   make(map[uint64]*subscription),
		buffer: subscriptionBuffer,
	}
}

// Subscribe registra fn para as mudanças que casam com o filtro. A função
// devolvida cancela a assinatura e pode ser chamada mais de uma vez.
func (h *Hub) Subscribe(channel string, filter Filter, fn Handler) (func(), error) {
	f, err := filter.Normalize()
	if err != nil {
		return nil, err
	}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return func() {}, nil
	}
	h.nextID++
	sub := &subscription{
		id:      h.nextID,
		channel: channel,
		filter:  f,
		queue:   make(chan Change, h.buffer),
	}
	h.subs[sub.id] = sub
	h.wg.Add(1)
	h.mu.Unlock()

	go func() {
		defer h.wg.Done()
		for c := range sub.queue {
			h.deliver(sub, fn, c)
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() { h.remove(sub.id) })
	}, nil
}

func (h *Hub) deliver(sub *subscription, fn Handler, c Change) {
	defer func() {
		if r := recover(); r != nil {
			logger.Log.Error("realtime: handler panic",
				zap.String("channel", sub.channel),
				zap.Any("panic", r))
		}
	}()
	fn(c)
}

func (h *Hub) remove(id uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if sub, ok := h.subs[id]; ok {
		delete(h.subs, id)
		close(sub.queue)
	}
}

// Publish nunca bloqueia.
func (h *Hub) Publish(c Change) {
	m := metrics.Get()

	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, sub := range h.subs {
		if !sub.filter.Matches(c) {
			continue
		}
		select {
		case sub.queue <- c:
			m.RealtimeDelivered.WithLabelValues(c.Table).Inc()
		default:
			m.RealtimeDropped.WithLabelValues(c.Table).Inc()
			logger.Log.Warn("realtime: assinante lento, mudança descartada",
				zap.String("channel", sub.channel),
				zap.String("table", c.Table))
		}
	}
}

// Count devolve o número de assinaturas ativas.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// Close encerra todas as assinaturas e espera os handlers em andamento.
func (h *Hub) Close() {
	h.mu.Lock()
	h.closed = true
	for id, sub := range h.subs {
		delete(h.subs, id)
		close(sub.queue)
	}
	h.mu.Unlock()
	h.wg.Wait()
}
