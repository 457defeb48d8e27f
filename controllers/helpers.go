package controllers

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"painel/logger"
	"painel/models"

	"github.com/gin-gonic/gin"
	"github.com/jinzhu/gorm"
	"go.uber.org/zap"
)

func ParamID(c *gin.Context, name string) (int64, bool) {
	v := c.Param(name)
	if v == "" {
		RespondError(c, name+" é obrigatório", http.StatusBadRequest)
		return 0, false
	}
	id, err := strconv.ParseInt(v, 10, 64)
	if err != nil || id <= 0 {
		RespondError(c, name+" inválido", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

func queryInt(c *gin.Context, key string, def int) int {
	v := strings.TrimSpace(c.Query(key))
	if v == "" {
		return def
	}
	var n int
	_, err := fmt.Sscanf(v, "%d", &n)
	if err != nil {
		return def
	}
	return n
}

func clampInt(v, min, max int) int {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

// parseDateRange lê from/to (YYYY-MM-DD); padrão são os últimos 7 dias.
func parseDateRange(c *gin.Context) (time.Time, time.Time, bool) {
	ref := now()
	from := ref.AddDate(0, 0, -6)
	to := ref

	fromStr := strings.TrimSpace(c.Query("from"))
	toStr := strings.TrimSpace(c.Query("to"))

	var err error
	if fromStr != "" {
		from, err = time.ParseInLocation("2006-01-02", fromStr, time.Local)
		if err != nil {
			RespondError(c, "from inválido (use YYYY-MM-DD)", http.StatusBadRequest)
			return time.Time{}, time.Time{}, false
		}
	}
	if toStr != "" {
		to, err = time.ParseInLocation("2006-01-02", toStr, time.Local)
		if err != nil {
			RespondError(c, "to inválido (use YYYY-MM-DD)", http.StatusBadRequest)
			return time.Time{}, time.Time{}, false
		}
	}
	from = startOfDay(from)
	to = startOfDay(to)
	if from.After(to) {
		RespondError(c, "from não pode ser maior que to", http.StatusBadRequest)
		return time.Time{}, time.Time{}, false
	}
	return from, to, true
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.Local)
}

// dayExpr agrupa uma coluna de data por dia conforme o dialeto.
func dayExpr(db *gorm.DB, col string) string {
	dialect := strings.ToLower(db.Dialect().GetName())
	switch {
	case strings.Contains(dialect, "sqlite"):
		return fmt.Sprintf("strftime('%%Y-%%m-%%d', %s, 'localtime')", col)
	case strings.Contains(dialect, "postgres"):
		return fmt.Sprintf("to_char(date_trunc('day', %s), 'YYYY-MM-DD')", col)
	}
	return fmt.Sprintf("date(%s)", col)
}

// registrar grava uma linha em registro_movimentacoes; falha só vira log.
func registrar(c *gin.Context, db *gorm.DB, user models.UsuarioSistema, acao, recurso, detalhes string, status int) {
	r := models.RegistroMovimentacao{
		UsuarioID:    user.ID,
		UsuarioEmail: user.Email,
		Acao:         acao,
		Recurso:      recurso,
		Detalhes:     detalhes,
		Status:       status,
		IP:           c.ClientIP(),
		UserAgent:    c.Request.UserAgent(),
	}
	if err := models.RegistrarMovimentacao(db, r); err != nil {
		logger.Log.Warn("movimentacao: falha ao registrar", zap.String("acao", acao), zap.Error(err))
	}
}

func likeTerm(q string) string {
	return "%" + strings.ToLower(q) + "%"
}
