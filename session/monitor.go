package session

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"painel/logger"

	"go.uber.org/zap"
)

const DEFAULT_INTERVAL = 30 * time.Second
const DEFAULT_BEACON_TIMEOUT = 5 * time.Second

// Monitor mantém a sessão viva enquanto Run estiver rodando.
type Monitor struct {
	Client   *Client
	Interval time.Duration

	// Idle informa há quanto tempo não há interação do usuário. Opcional.
	Idle func() time.Duration

	// OnExpired é chamado uma vez, na primeira falha de heartbeat (logout forçado).
	OnExpired func(error)

	BeaconTimeout time.Duration

	live       atomic.Bool
	beaconOnce sync.Once
	beaconDone chan struct{}
}

// NewMonitor usa o intervalo recebido no login, ou DEFAULT_INTERVAL.
func NewMonitor(client *Client) *Monitor {
	interval := client.HeartbeatInterval()
	if interval <= 0 {
		interval = DEFAULT_INTERVAL
	}
	return &Monitor{
		Client:        client,
		Interval:      interval,
		BeaconTimeout: DEFAULT_BEACON_TIMEOUT,
		beaconDone:    make(chan struct{}),
	}
}

// Live é a flag em memória de sessão em andamento.
func (m *Monitor) Live() bool {
	return m.live.Load()
}

// Run envia um heartbeat a cada Interval. Não há retry: a primeira falha
// chama OnExpired e encerra o loop devolvendo o erro.
func (m *Monitor) Run(ctx context.Context) error {
	interval := m.Interval
	if interval <= 0 {
		interval = DEFAULT_INTERVAL
	}

	m.live.Store(true)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			var idle time.Duration
			if m.Idle != nil {
				idle = m.Idle()
			}
			if err := m.Client.Heartbeat(ctx, idle); err != nil {
				if ctx.Err() != nil {
					return nil
				}
				m.live.Store(false)
				logger.Log.Warn("session: heartbeat falhou, encerrando sessão local", zap.Error(err))
				if m.OnExpired != nil {
					m.OnExpired(err)
				}
				return err
			}
		}
	}
}

// Beacon dispara o aviso de fechamento numa goroutine própria com timeout
// próprio, então sobrevive ao cancelamento do contexto de quem chamou.
// Só o primeiro Beacon de cada monitor é enviado; o canal fecha ao terminar.
func (m *Monitor) Beacon(motivo string) <-chan struct{} {
	m.beaconOnce.Do(func() {
		if m.beaconDone == nil {
			m.beaconDone = make(chan struct{})
		}
		m.live.Store(false)
		timeout := m.BeaconTimeout
		if timeout <= 0 {
			timeout = DEFAULT_BEACON_TIMEOUT
		}
		go func() {
			defer close(m.beaconDone)
			ctx, cancel := context.WithTimeout(context.Background(), timeout)
			defer cancel()
			if err := m.Client.Close(ctx, motivo); err != nil {
				logger.Log.Info("session: beacon de fechamento falhou",
					zap.String("motivo", motivo),
					zap.Error(err))
			}
		}()
	})
	return m.beaconDone
}
