package controllers

import (
	"net/http"
	"strings"

	dbpkg "painel/db"
	"painel/models"

	"github.com/gin-gonic/gin"
)

// GET /api/movimentacoes
// Query params:
// - usuario_id, acao (optional)
// - from/to=YYYY-MM-DD (optional, default: últimos 7 dias)
// - limit (default 200, max 500), offset
func ListMovimentacoes(c *gin.Context) {
	db, ok := dbpkg.FromContext(c)
	if !ok {
		return
	}
	from, to, ok := parseDateRange(c)
	if !ok {
		return
	}

	limit := clampInt(queryInt(c, "limit", 200), 1, 500)
	offset := clampInt(queryInt(c, "offset", 0), 0, 1_000_000)

	query := db.Model(&models.RegistroMovimentacao{}).
		Where("created_at >= ? AND created_at < ?", from, to.AddDate(0, 0, 1))
	if uid := queryInt(c, "usuario_id", 0); uid > 0 {
		query = query.Where("usuario_id = ?", uid)
	}
	if acao := strings.TrimSpace(c.Query("acao")); acao != "" {
		query = query.Where("acao = ?", acao)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		RespondError(c, err.Error(), http.StatusBadRequest)
		return
	}

	var registros []models.RegistroMovimentacao
	if err := query.Order("created_at desc").Limit(limit).Offset(offset).Find(&registros).Error; err != nil {
		RespondError(c, err.Error(), http.StatusBadRequest)
		return
	}

	RespondSuccess(c, gin.H{
		"total":         total,
		"limit":         limit,
		"offset":        offset,
		"movimentacoes": registros,
	})
}
