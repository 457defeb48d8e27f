package controllers

import (
	"net/http"
	"strings"

	dbpkg "painel/db"
	"painel/metrics"
	"painel/models"

	"github.com/gin-gonic/gin"
)

// GET /api/alertas
// Query params: status=ativo|resolvido, nivel, lida=true|false, limit, offset
func ListAlertas(c *gin.Context) {
	db, ok := dbpkg.FromContext(c)
	if !ok {
		return
	}

	limit := clampInt(queryInt(c, "limit", 50), 1, 200)
	offset := clampInt(queryInt(c, "offset", 0), 0, 1_000_000)

	query := db.Model(&models.AlertaCriseNotificacao{})
	if status := strings.TrimSpace(c.Query("status")); status != "" {
		query = query.Where("status = ?", status)
	}
	if nivel := strings.TrimSpace(c.Query("nivel")); nivel != "" {
		query = query.Where("nivel = ?", nivel)
	}
	switch c.Query("lida") {
	case "true":
		query = query.Where("lida = ?", true)
	case "false":
		query = query.Where("lida = ?", false)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		RespondError(c, err.Error(), http.StatusBadRequest)
		return
	}

	var alertas []models.AlertaCriseNotificacao
	if err := query.Order("created_at desc").Limit(limit).Offset(offset).Find(&alertas).Error; err != nil {
		RespondError(c, err.Error(), http.StatusBadRequest)
		return
	}

	RespondSuccess(c, gin.H{
		"total":   total,
		"limit":   limit,
		"offset":  offset,
		"alertas": alertas,
	})
}

func CreateAlerta(c *gin.Context) {
	db, ok := dbpkg.FromContext(c)
	if !ok {
		return
	}
	user, _ := GetUserLogged(c)

	var alerta models.AlertaCriseNotificacao
	if err := c.ShouldBindJSON(&alerta); err != nil {
		RespondError(c, err.Error(), http.StatusBadRequest)
		return
	}
	alerta.Titulo = strings.TrimSpace(alerta.Titulo)
	if alerta.Titulo == "" {
		RespondError(c, "Faltando campo titulo", http.StatusBadRequest)
		return
	}
	if alerta.Nivel == "" {
		alerta.Nivel = models.ALERTA_NIVEL_MEDIO
	}
	if !models.NivelAlertaValido(alerta.Nivel) {
		RespondError(c, "nivel inválido", http.StatusBadRequest)
		return
	}

	alerta.ID = 0
	alerta.Status = models.ALERTA_STATUS_ATIVO
	alerta.Origem = models.ALERTA_ORIGEM_MANUAL
	alerta.Lida = false
	alerta.CriadoPor = user.ID
	alerta.ResolvidoPor = 0
	alerta.ResolvidoEm = nil

	if err := db.Create(&alerta).Error; err != nil {
		RespondError(c, err.Error(), http.StatusBadRequest)
		return
	}
	metrics.Get().CrisisAlerts.WithLabelValues(alerta.Nivel).Inc()
	c.JSON(http.StatusCreated, alerta)
}

// PATCH /api/alertas/:id/lida
func MarkAlertaLida(c *gin.Context) {
	id, ok := ParamID(c, "id")
	if !ok {
		return
	}
	db, ok := dbpkg.FromContext(c)
	if !ok {
		return
	}

	var alerta models.AlertaCriseNotificacao
	if err := db.First(&alerta, id).Error; err != nil {
		RespondError(c, "alerta não encontrado", http.StatusNotFound)
		return
	}
	if !alerta.Lida {
		if err := db.Model(&alerta).Update("lida", true).Error; err != nil {
			RespondError(c, err.Error(), http.StatusBadRequest)
			return
		}
	}
	RespondSuccess(c, alerta)
}

// PATCH /api/alertas/:id/resolver
func ResolveAlerta(c *gin.Context) {
	id, ok := ParamID(c, "id")
	if !ok {
		return
	}
	db, ok := dbpkg.FromContext(c)
	if !ok {
		return
	}
	user, _ := GetUserLogged(c)

	var alerta models.AlertaCriseNotificacao
	if err := db.First(&alerta, id).Error; err != nil {
		RespondError(c, "alerta não encontrado", http.StatusNotFound)
		return
	}
	if alerta.Status == models.ALERTA_STATUS_RESOLVIDO {
		RespondError(c, "alerta já resolvido", http.StatusConflict)
		return
	}

	at := now()
	if err := db.Model(&alerta).Updates(map[string]any{
		"status":        models.ALERTA_STATUS_RESOLVIDO,
		"resolvido_por": user.ID,
		"resolvido_em":  at,
		"lida":          true,
	}).Error; err != nil {
		RespondError(c, err.Error(), http.StatusBadRequest)
		return
	}
	RespondSuccess(c, alerta)
}
