package workers

import (
	"context"
	"time"

	"painel/logger"
	"painel/metrics"
	"painel/models"

	"github.com/jinzhu/gorm"
	"go.uber.org/zap"
)

const REAPER_BATCH = 200

// StartSessionReaper encerra periodicamente as sessões cujo expires_at já passou.
func StartSessionReaper(ctx context.Context, db *gorm.DB, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if _, err := ReapExpiredSessions(db, time.Now()); err != nil {
					logger.Log.Error("session reaper: falha", zap.Error(err))
				}
			}
		}
	}()
}

// ReapExpiredSessions marca as sessões vencidas como "expirada" e atualiza o
// gauge de sessões ativas. Devolve quantas foram encerradas nesta passada.
func ReapExpiredSessions(db *gorm.DB, now time.Time) (int, error) {
	m := metrics.Get()
	closed := 0

	for {
		ids, err := models.ExpiredSessionIDs(db, now, REAPER_BATCH)
		if err != nil {
			return closed, err
		}
		if len(ids) == 0 {
			break
		}

		for _, id := range ids {
			// só encerra se ainda estiver ativa (heartbeat/logout concorrente pode ter chegado antes)
			ok, err := models.EncerrarSessao(db, id, models.MOTIVO_EXPIRADA, now)
			if err != nil {
				return closed, err
			}
			if ok {
				closed++
				m.SessionsClosed.WithLabelValues(models.MOTIVO_EXPIRADA).Inc()
				err := models.RegistrarMovimentacao(db, models.RegistroMovimentacao{
					UsuarioID: sessionOwner(db, id),
					Acao:      models.ACAO_SESSAO_ENCERRADA,
					Recurso:   "sessao",
					Detalhes:  models.MOTIVO_EXPIRADA,
				})
				if err != nil {
					logger.Log.Warn("session reaper: falha ao registrar movimentação",
						zap.Int64("sessao_id", id), zap.Error(err))
				}
			}
		}
		if len(ids) < REAPER_BATCH {
			break
		}
	}

	var active int64
	if err := db.Model(&models.SessaoAtiva{}).Where("ativa = ?", true).Count(&active).Error; err != nil {
		return closed, err
	}
	m.SessionsActive.Set(float64(active))

	if closed > 0 {
		logger.Log.Info("session reaper: sessões expiradas encerradas", zap.Int("total", closed))
	}
	return closed, nil
}

func sessionOwner(db *gorm.DB, id int64) int64 {
	var s models.SessaoAtiva
	if err := db.Select("usuario_id").First(&s, id).Error; err != nil {
		return 0
	}
	return s.UsuarioID
}
