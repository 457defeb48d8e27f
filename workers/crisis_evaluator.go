package workers

import (
	"context"
	"fmt"
	"time"

	"painel/config"
	"painel/logger"
	"painel/metrics"
	"painel/models"

	"github.com/jinzhu/gorm"
	"go.uber.org/zap"
)

// CrisisRule define quando o volume de comentários negativos vira alerta.
type CrisisRule struct {
	Window       time.Duration
	MinNegativos int
	Threshold    float64
}

func CrisisRuleFrom(conf config.Configuration) CrisisRule {
	return CrisisRule{
		Window:       time.Duration(conf.Crisis.WindowMinutes) * time.Minute,
		MinNegativos: conf.Crisis.MinNegativos,
		Threshold:    conf.Crisis.Threshold,
	}
}

// StartCrisisEvaluator avalia a janela de comentários a cada interval.
func StartCrisisEvaluator(ctx context.Context, db *gorm.DB, rule CrisisRule, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if _, err := EvaluateCrisis(db, rule, time.Now()); err != nil {
					logger.Log.Error("crisis evaluator: falha", zap.Error(err))
				}
			}
		}
	}()
}

// EvaluateCrisis cria um alerta automático quando, na janela [now-Window, now],
// há pelo menos MinNegativos negativos e a proporção negativa atinge Threshold.
// Não cria outro enquanto houver alerta ativo aberto na mesma janela.
func EvaluateCrisis(db *gorm.DB, rule CrisisRule, now time.Time) (*models.AlertaCriseNotificacao, error) {
	since := now.Add(-rule.Window)

	var total, negativos int64
	base := db.Model(&models.Comentario{}).Where("publicado_em >= ? AND publicado_em <= ?", since, now)
	if err := base.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("contar comentarios: %w", err)
	}
	if total == 0 {
		return nil, nil
	}
	if err := base.Where("sentimento = ?", models.SENTIMENTO_NEGATIVO).Count(&negativos).Error; err != nil {
		return nil, fmt.Errorf("contar negativos: %w", err)
	}

	proporcao := float64(negativos) / float64(total)
	if negativos < int64(rule.MinNegativos) || proporcao < rule.Threshold {
		return nil, nil
	}

	var abertos int64
	if err := db.Model(&models.AlertaCriseNotificacao{}).
		Where("status = ? AND created_at >= ?", models.ALERTA_STATUS_ATIVO, since).
		Count(&abertos).Error; err != nil {
		return nil, fmt.Errorf("contar alertas: %w", err)
	}
	if abertos > 0 {
		return nil, nil
	}

	nivel := models.NivelPorProporcao(proporcao)
	alerta := models.AlertaCriseNotificacao{
		Titulo: fmt.Sprintf("Possível crise: %.0f%% de comentários negativos", proporcao*100),
		Descricao: fmt.Sprintf("%d de %d comentários negativos nos últimos %s.",
			negativos, total, rule.Window),
		Nivel:         nivel,
		Status:        models.ALERTA_STATUS_ATIVO,
		Origem:        models.ALERTA_ORIGEM_AUTOMATICA,
		TotalNegativo: negativos,
		Proporcao:     proporcao,
		CreatedAt:     &now,
		UpdatedAt:     &now,
	}
	if err := db.Create(&alerta).Error; err != nil {
		return nil, fmt.Errorf("criar alerta: %w", err)
	}

	metrics.Get().CrisisAlerts.WithLabelValues(nivel).Inc()
	logger.Log.Warn("crisis evaluator: alerta criado",
		zap.Int64("alerta_id", alerta.ID),
		zap.String("nivel", nivel),
		zap.Int64("negativos", negativos),
		zap.Int64("total", total))
	return &alerta, nil
}
