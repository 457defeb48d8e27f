package realtime

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"painel/logger"
	"painel/metrics"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

/************************************************
/**** MARK: PROTOCOLO ****/
/************************************************/
const MSG_SUBSCRIBE = "subscribe"
const MSG_UNSUBSCRIBE = "unsubscribe"
const MSG_PING = "ping"
const MSG_SUBSCRIBED = "subscribed"
const MSG_UNSUBSCRIBED = "unsubscribed"
const MSG_CHANGE = "change"
const MSG_PONG = "pong"
const MSG_ERROR = "error"

const (
	writeWait      = 10 * time.Second
	maxMessageSize = 64 * 1024
	outboxSize     = 64
)

// Message é o envelope trocado no websocket /api/realtime.
type Message struct {
	Type    string  `json:"type"`
	Channel string  `json:"channel,omitempty"`
	Filter  *Filter `json:"filter,omitempty"`
	Payload *Change `json:"payload,omitempty"`
	Message string  `json:"message,omitempty"`
}

// Authenticator valida o token da conexão e devolve o id do usuário.
type Authenticator func(ctx context.Context, token string) (int64, error)

type Server struct {
	hub     *Hub
	auth    Authenticator
	origins []string
}

// NewServer cria o endpoint websocket. Sem origens configuradas qualquer origem é aceita.
func NewServer(hub *Hub, auth Authenticator, origins []string) *Server {
	return &Server{hub: hub, auth: auth, origins: origins}
}

func tokenFrom(c *gin.Context) string {
	if t := strings.TrimSpace(c.Query("token")); t != "" {
		return t
	}
	h := c.GetHeader("Authorization")
	if strings.HasPrefix(strings.ToLower(h), "bearer ") {
		return strings.TrimSpace(h[len("Bearer "):])
	}
	return ""
}

// Handle é o gin.HandlerFunc de GET /api/realtime.
func (s *Server) Handle(c *gin.Context) {
	token := tokenFrom(c)
	if token == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "token é obrigatório"})
		return
	}
	userID, err := s.auth(c.Request.Context(), token)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "não autorizado"})
		return
	}

	opts := &websocket.AcceptOptions{OriginPatterns: s.origins}
	if len(s.origins) == 0 {
		opts.InsecureSkipVerify = true
	}
	// o writer do gin marca o header como escrito antes do hijack
	var w http.ResponseWriter = c.Writer
	if u, ok := w.(interface{ Unwrap() http.ResponseWriter }); ok {
		w = u.Unwrap()
	}
	conn, err := websocket.Accept(w, c.Request, opts)
	if err != nil {
		logger.Log.Warn("realtime: upgrade falhou", zap.Error(err))
		return
	}
	s.Serve(c.Request.Context(), conn, userID)
}

// Serve atende uma conexão já aceita até o cliente desconectar.
func (s *Server) Serve(ctx context.Context, conn *websocket.Conn, userID int64) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	defer conn.Close(websocket.StatusNormalClosure, "")

	m := metrics.Get()
	m.RealtimeClients.Inc()
	defer m.RealtimeClients.Dec()

	log := logger.Log.With(logger.WithUserID(userID))
	conn.SetReadLimit(maxMessageSize)

	out := make(chan Message, outboxSize)
	subs := map[string]func(){}
	defer func() {
		for _, unsubscribe := range subs {
			unsubscribe()
		}
	}()

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case msg := <-out:
				wctx, wcancel := context.WithTimeout(ctx, writeWait)
				err := wsjson.Write(wctx, conn, msg)
				wcancel()
				if err != nil {
					cancel()
					return
				}
			}
		}
	}()

	for {
		var msg Message
		if err := wsjson.Read(ctx, conn, &msg); err != nil {
			status := websocket.CloseStatus(err)
			if status != websocket.StatusNormalClosure && status != websocket.StatusGoingAway &&
				ctx.Err() == nil && !errors.Is(err, context.Canceled) {
				log.Debug("realtime: leitura encerrada", zap.Error(err))
			}
			return
		}

		switch msg.Type {
		case MSG_PING:
			enqueue(out, Message{Type: MSG_PONG})

		case MSG_SUBSCRIBE:
			if msg.Channel == "" || msg.Filter == nil {
				enqueue(out, Message{Type: MSG_ERROR, Message: "channel e filter são obrigatórios"})
				continue
			}
			channel := msg.Channel
			if old, ok := subs[channel]; ok {
				old()
				delete(subs, channel)
			}
			unsubscribe, err := s.hub.Subscribe(channel, *msg.Filter, func(ch Change) {
				change := ch
				enqueue(out, Message{Type: MSG_CHANGE, Channel: channel, Payload: &change})
			})
			if err != nil {
				enqueue(out, Message{Type: MSG_ERROR, Channel: channel, Message: err.Error()})
				continue
			}
			subs[channel] = unsubscribe
			enqueue(out, Message{Type: MSG_SUBSCRIBED, Channel: channel})

		case MSG_UNSUBSCRIBE:
			if unsubscribe, ok := subs[msg.Channel]; ok {
				unsubscribe()
				delete(subs, msg.Channel)
			}
			enqueue(out, Message{Type: MSG_UNSUBSCRIBED, Channel: msg.Channel})

		default:
			enqueue(out, Message{Type: MSG_ERROR, Message: "tipo de mensagem desconhecido: " + msg.Type})
		}
	}
}

// enqueue descarta a mensagem quando a fila de saída está cheia.
func enqueue(out chan<- Message, msg Message) {
	select {
	case out <- msg:
	default:
	}
}
