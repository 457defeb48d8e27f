package realtime

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"painel/logger"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"go.uber.org/zap"
)

// RefetchFunc relê a visão agregada a partir da fonte de verdade.
type RefetchFunc func(ctx context.Context) error

// NotifyFunc mostra um aviso passageiro ao usuário.
type NotifyFunc func(Change)

type watch struct {
	filter  Filter
	refetch RefetchFunc
	notify  NotifyFunc
}

// Subscriber é o lado cliente de /api/realtime: a cada mudança que casa com
// uma assinatura ele reexecuta a consulta correspondente.
type Subscriber struct {
	conn *websocket.Conn

	mu       sync.Mutex
	watches  map[string]watch
	lastPong atomic.Int64
}

// Dial conecta em baseURL (http(s) ou ws(s)) usando o token na query string.
func Dial(ctx context.Context, baseURL string, token string) (*Subscriber, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("realtime: url inválida: %w", err)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	}
	if !strings.HasSuffix(u.Path, "/api/realtime") {
		u.Path += "/api/realtime"
	}
	q := u.Query()
	q.Set("token", token)
	u.RawQuery = q.Encode()

	conn, resp, err := websocket.Dial(ctx, u.String(), nil)
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusUnauthorized {
			return nil, fmt.Errorf("realtime: token recusado: %w", err)
		}
		return nil, fmt.Errorf("realtime: dial: %w", err)
	}
	return &Subscriber{conn: conn, watches: map[string]watch{}}, nil
}

// Watch assina o canal. notify é opcional.
func (s *Subscriber) Watch(ctx context.Context, channel string, filter Filter, refetch RefetchFunc, notify NotifyFunc) error {
	if refetch == nil {
		return errors.New("realtime: refetch é obrigatório")
	}
	s.mu.Lock()
	s.watches[channel] = watch{filter: filter, refetch: refetch, notify: notify}
	s.mu.Unlock()

	return s.write(ctx, Message{Type: MSG_SUBSCRIBE, Channel: channel, Filter: &filter})
}

func (s *Subscriber) Unwatch(ctx context.Context, channel string) error {
	s.mu.Lock()
	delete(s.watches, channel)
	s.mu.Unlock()
	return s.write(ctx, Message{Type: MSG_UNSUBSCRIBE, Channel: channel})
}

func (s *Subscriber) Ping(ctx context.Context) error {
	return s.write(ctx, Message{Type: MSG_PING})
}

func (s *Subscriber) write(ctx context.Context, msg Message) error {
	wctx, cancel := context.WithTimeout(ctx, writeWait)
	defer cancel()
	return wsjson.Write(wctx, s.conn, msg)
}

// Run lê mensagens até ctx acabar ou a conexão cair. Falhas de refetch só
// são logadas: a visão fica desatualizada até a próxima mudança.
func (s *Subscriber) Run(ctx context.Context) error {
	for {
		var msg Message
		if err := wsjson.Read(ctx, s.conn, &msg); err != nil {
			if ctx.Err() != nil || websocket.CloseStatus(err) == websocket.StatusNormalClosure {
				return nil
			}
			return err
		}

		switch msg.Type {
		case MSG_CHANGE:
			if msg.Payload == nil {
				continue
			}
			s.mu.Lock()
			w, ok := s.watches[msg.Channel]
			s.mu.Unlock()
			if !ok {
				continue
			}
			if err := w.refetch(ctx); err != nil {
				logger.Log.Warn("realtime: refetch falhou",
					zap.String("channel", msg.Channel),
					zap.Error(err))
			}
			if w.notify != nil {
				w.notify(*msg.Payload)
			}
		case MSG_PONG:
			s.lastPong.Store(time.Now().UnixNano())
		case MSG_ERROR:
			logger.Log.Warn("realtime: erro do servidor",
				zap.String("channel", msg.Channel),
				zap.String("message", msg.Message))
		}
	}
}

func (s *Subscriber) Close() error {
	return s.conn.Close(websocket.StatusNormalClosure, "")
}

// LastPong devolve o instante do último pong recebido por Run, zero se nenhum.
func (s *Subscriber) LastPong() time.Time {
	n := s.lastPong.Load()
	if n == 0 {
		return time.Time{}
	}
	return time.Unix(0, n)
}

// KeepAlive envia ping periódico até ctx acabar.
func (s *Subscriber) KeepAlive(ctx context.Context, every time.Duration) {
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if err := s.Ping(ctx); err != nil {
				return
			}
		}
	}
}
