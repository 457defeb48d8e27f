package controllers

import (
	"net/http"
	"strings"

	dbpkg "painel/db"
	"painel/models"

	"github.com/gin-gonic/gin"
)

// POST /api/comentarios
// Ingestão de um comentário já classificado pelo coletor.
func CreateComentario(c *gin.Context) {
	db, ok := dbpkg.FromContext(c)
	if !ok {
		return
	}

	var comentario models.Comentario
	if err := c.ShouldBindJSON(&comentario); err != nil {
		RespondError(c, err.Error(), http.StatusBadRequest)
		return
	}
	comentario.ID = 0
	comentario.Plataforma = strings.ToLower(strings.TrimSpace(comentario.Plataforma))
	comentario.Sentimento = strings.ToLower(strings.TrimSpace(comentario.Sentimento))
	if comentario.Sentimento == "" {
		comentario.Sentimento = models.SENTIMENTO_NEUTRO
	}
	if comentario.PublicadoEm == nil {
		t := now()
		comentario.PublicadoEm = &t
	}

	if missing := comentario.MissingFields(); missing != "" {
		RespondError(c, "Faltando campo "+missing, http.StatusBadRequest)
		return
	}

	if err := db.Create(&comentario).Error; err != nil {
		RespondError(c, err.Error(), http.StatusBadRequest)
		return
	}
	c.JSON(http.StatusCreated, comentario)
}

// GET /api/comentarios
// Query params:
// - plataforma, sentimento, tema (optional)
// - q=texto (optional) -> busca em texto + autor
// - from/to=YYYY-MM-DD (optional, default: últimos 7 dias)
// - limit (default 100, max 500), offset
func ListComentarios(c *gin.Context) {
	db, ok := dbpkg.FromContext(c)
	if !ok {
		return
	}

	from, to, ok := parseDateRange(c)
	if !ok {
		return
	}
	limit := clampInt(queryInt(c, "limit", 100), 1, 500)
	offset := clampInt(queryInt(c, "offset", 0), 0, 1_000_000)

	query := db.Model(&models.Comentario{}).
		Where("publicado_em >= ? AND publicado_em < ?", from, to.AddDate(0, 0, 1))
	if p := strings.TrimSpace(c.Query("plataforma")); p != "" {
		query = query.Where("plataforma = ?", strings.ToLower(p))
	}
	if s := strings.TrimSpace(c.Query("sentimento")); s != "" {
		query = query.Where("sentimento = ?", strings.ToLower(s))
	}
	if t := strings.TrimSpace(c.Query("tema")); t != "" {
		query = query.Where("tema = ?", t)
	}
	if q := strings.TrimSpace(c.Query("q")); q != "" {
		like := likeTerm(q)
		query = query.Where("lower(texto) LIKE ? OR lower(autor) LIKE ?", like, like)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		RespondError(c, err.Error(), http.StatusBadRequest)
		return
	}

	var comentarios []models.Comentario
	if err := query.Order("publicado_em desc").Limit(limit).Offset(offset).Find(&comentarios).Error; err != nil {
		RespondError(c, err.Error(), http.StatusBadRequest)
		return
	}

	RespondSuccess(c, gin.H{
		"total":       total,
		"limit":       limit,
		"offset":      offset,
		"comentarios": comentarios,
	})
}

type sentimentoUpdate struct {
	Sentimento string   `json:"sentimento"`
	Score      *float64 `json:"score"`
}

// PATCH /api/comentarios/:id/sentimento (reclassificação manual)
func UpdateSentimento(c *gin.Context) {
	id, ok := ParamID(c, "id")
	if !ok {
		return
	}
	db, ok := dbpkg.FromContext(c)
	if !ok {
		return
	}

	var in sentimentoUpdate
	if err := c.ShouldBindJSON(&in); err != nil {
		RespondError(c, err.Error(), http.StatusBadRequest)
		return
	}
	in.Sentimento = strings.ToLower(strings.TrimSpace(in.Sentimento))
	if !models.SentimentoValido(in.Sentimento) {
		RespondError(c, "sentimento inválido", http.StatusBadRequest)
		return
	}

	var comentario models.Comentario
	if err := db.First(&comentario, id).Error; err != nil {
		RespondError(c, "comentário não encontrado", http.StatusNotFound)
		return
	}

	updates := map[string]any{"sentimento": in.Sentimento}
	if in.Score != nil {
		updates["score"] = *in.Score
	}
	if err := db.Model(&comentario).Updates(updates).Error; err != nil {
		RespondError(c, err.Error(), http.StatusBadRequest)
		return
	}
	RespondSuccess(c, comentario)
}
