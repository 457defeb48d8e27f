package realtime

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"painel/logger"

	"github.com/lib/pq"
	"go.uber.org/zap"
)

//go:embed notify_trigger.sql
var notifyFunctionSQL string

// MAX_NOTIFY_PAYLOAD fica abaixo do limite de 8000 bytes do pg_notify.
const MAX_NOTIFY_PAYLOAD = 7900

// TriggerStatements devolve o SQL que instala a função de NOTIFY e um
// trigger AFTER INSERT/UPDATE/DELETE por tabela.
func TriggerStatements(channel string, tables []string) []string {
	fn := strings.NewReplacer(
		"{{channel}}", channel,
		"{{max_payload}}", strconv.Itoa(MAX_NOTIFY_PAYLOAD),
	).Replace(notifyFunctionSQL)
	stmts := []string{fn}
	for _, t := range tables {
		name := "painel_notify_" + t
		stmts = append(stmts,
			fmt.Sprintf("DROP TRIGGER IF EXISTS %s ON %s", name, pq.QuoteIdentifier(t)),
			fmt.Sprintf("CREATE TRIGGER %s AFTER INSERT OR UPDATE OR DELETE ON %s FOR EACH ROW EXECUTE PROCEDURE painel_notify_change()",
				name, pq.QuoteIdentifier(t)),
		)
	}
	return stmts
}

// PGListener escuta o canal LISTEN/NOTIFY e repassa as mudanças ao Publisher.
type PGListener struct {
	dsn     string
	channel string
	pub     Publisher
}

func NewPGListener(dsn string, channel string, pub Publisher) *PGListener {
	return &PGListener{dsn: dsn, channel: channel, pub: pub}
}

// Run bloqueia até ctx acabar. Reconexões são feitas pelo próprio pq.Listener.
func (l *PGListener) Run(ctx context.Context) error {
	listener := pq.NewListener(l.dsn, 2*time.Second, time.Minute, func(ev pq.ListenerEventType, err error) {
		if err != nil {
			logger.Log.Warn("realtime: listener postgres", zap.Int("event", int(ev)), zap.Error(err))
		}
	})
	defer listener.Close()

	if err := listener.Listen(l.channel); err != nil {
		return fmt.Errorf("listen %s: %w", l.channel, err)
	}
	logger.Log.Info("realtime: LISTEN ativo", zap.String("channel", l.channel))

	idle := time.NewTicker(90 * time.Second)
	defer idle.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case n := <-listener.Notify:
			// nil após reconexão: notificações do intervalo se perderam
			if n == nil {
				continue
			}
			c, err := DecodeNotification(n.Extra)
			if err != nil {
				logger.Log.Warn("realtime: payload NOTIFY inválido", zap.Error(err))
				continue
			}
			l.pub.Publish(c)
		case <-idle.C:
			go listener.Ping()
		}
	}
}

// DecodeNotification converte o payload gerado por painel_notify_change.
func DecodeNotification(payload string) (Change, error) {
	var c Change
	if err := json.Unmarshal([]byte(payload), &c); err != nil {
		return c, err
	}
	if c.Table == "" || c.Type == "" {
		return c, fmt.Errorf("payload sem table/type")
	}
	if c.CommitTimestamp.IsZero() {
		c.CommitTimestamp = time.Now().UTC()
	}
	return c, nil
}
