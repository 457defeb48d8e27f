package controllers

import (
	"net/http"
	"strings"
	"time"

	dbpkg "painel/db"
	"painel/models"

	"github.com/gin-gonic/gin"
)

// GET /api/campanhas
// Query params: status, secretaria, q, limit, offset
func ListCampanhas(c *gin.Context) {
	db, ok := dbpkg.FromContext(c)
	if !ok {
		return
	}

	limit := clampInt(queryInt(c, "limit", 50), 1, 200)
	offset := clampInt(queryInt(c, "offset", 0), 0, 1_000_000)

	query := db.Model(&models.MarketingCampanha{})
	if status := strings.TrimSpace(c.Query("status")); status != "" {
		query = query.Where("status = ?", status)
	}
	if sec := strings.TrimSpace(c.Query("secretaria")); sec != "" {
		query = query.Where("secretaria = ?", sec)
	}
	if q := strings.TrimSpace(c.Query("q")); q != "" {
		like := likeTerm(q)
		query = query.Where("lower(titulo) LIKE ? OR lower(cliente_nome) LIKE ?", like, like)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		RespondError(c, err.Error(), http.StatusBadRequest)
		return
	}

	var campanhas []models.MarketingCampanha
	if err := query.Order("created_at desc").Limit(limit).Offset(offset).Find(&campanhas).Error; err != nil {
		RespondError(c, err.Error(), http.StatusBadRequest)
		return
	}

	RespondSuccess(c, gin.H{
		"total":     total,
		"limit":     limit,
		"offset":    offset,
		"campanhas": campanhas,
	})
}

func GetCampanha(c *gin.Context) {
	id, ok := ParamID(c, "id")
	if !ok {
		return
	}
	db, ok := dbpkg.FromContext(c)
	if !ok {
		return
	}

	var campanha models.MarketingCampanha
	if err := db.Preload("Imagens").First(&campanha, id).Error; err != nil {
		RespondError(c, "campanha não encontrada", http.StatusNotFound)
		return
	}
	RespondSuccess(c, campanha)
}

func CreateCampanha(c *gin.Context) {
	db, ok := dbpkg.FromContext(c)
	if !ok {
		return
	}
	user, _ := GetUserLogged(c)

	var campanha models.MarketingCampanha
	if err := c.ShouldBindJSON(&campanha); err != nil {
		RespondError(c, err.Error(), http.StatusBadRequest)
		return
	}
	campanha.Titulo = strings.TrimSpace(campanha.Titulo)
	if missing := campanha.MissingFields(); missing != "" {
		RespondError(c, "Campo inválido: "+missing, http.StatusBadRequest)
		return
	}

	campanha.ID = 0
	campanha.Status = models.CAMPANHA_RASCUNHO
	campanha.CriadoPor = user.ID
	campanha.AprovadoPor = 0
	campanha.PublicadaEm = nil
	campanha.MotivoRejeicao = ""
	campanha.Imagens = nil

	if err := db.Create(&campanha).Error; err != nil {
		RespondError(c, err.Error(), http.StatusBadRequest)
		return
	}
	c.JSON(http.StatusCreated, campanha)
}

type campanhaUpdate struct {
	Titulo      *string    `json:"titulo"`
	Descricao   *string    `json:"descricao"`
	Secretaria  *string    `json:"secretaria"`
	Canal       *string    `json:"canal"`
	ClienteNome *string    `json:"cliente_nome"`
	DataInicio  *time.Time `json:"data_inicio"`
	DataFim     *time.Time `json:"data_fim"`
	Orcamento   *float64   `json:"orcamento"`
}

// PUT /api/campanhas/:id
// Status só muda pela rota de transição.
func UpdateCampanha(c *gin.Context) {
	id, ok := ParamID(c, "id")
	if !ok {
		return
	}
	db, ok := dbpkg.FromContext(c)
	if !ok {
		return
	}

	var in campanhaUpdate
	if err := c.ShouldBindJSON(&in); err != nil {
		RespondError(c, err.Error(), http.StatusBadRequest)
		return
	}

	var campanha models.MarketingCampanha
	if err := db.First(&campanha, id).Error; err != nil {
		RespondError(c, "campanha não encontrada", http.StatusNotFound)
		return
	}
	if campanha.Status == models.CAMPANHA_ARQUIVADA {
		RespondError(c, "campanha arquivada não pode ser alterada", http.StatusConflict)
		return
	}

	updates := map[string]any{}
	if in.Titulo != nil {
		campanha.Titulo = strings.TrimSpace(*in.Titulo)
		updates["titulo"] = campanha.Titulo
	}
	if in.Descricao != nil {
		updates["descricao"] = *in.Descricao
	}
	if in.Secretaria != nil {
		updates["secretaria"] = *in.Secretaria
	}
	if in.Canal != nil {
		updates["canal"] = *in.Canal
	}
	if in.ClienteNome != nil {
		updates["cliente_nome"] = *in.ClienteNome
	}
	if in.DataInicio != nil {
		campanha.DataInicio = in.DataInicio
		updates["data_inicio"] = *in.DataInicio
	}
	if in.DataFim != nil {
		campanha.DataFim = in.DataFim
		updates["data_fim"] = *in.DataFim
	}
	if in.Orcamento != nil {
		updates["orcamento"] = *in.Orcamento
	}

	if missing := campanha.MissingFields(); missing != "" {
		RespondError(c, "Campo inválido: "+missing, http.StatusBadRequest)
		return
	}
	if len(updates) > 0 {
		if err := db.Model(&campanha).Updates(updates).Error; err != nil {
			RespondError(c, err.Error(), http.StatusBadRequest)
			return
		}
	}
	RespondSuccess(c, campanha)
}

type transicaoRequest struct {
	Status string `json:"status"`
	Motivo string `json:"motivo"`
}

// POST /api/campanhas/:id/status
// rascunho -> em_aprovacao -> aprovada -> publicada; em_aprovacao -> rejeitada -> rascunho;
// qualquer status não arquivado -> arquivada. Transição inválida responde 409.
func TransitionCampanha(c *gin.Context) {
	id, ok := ParamID(c, "id")
	if !ok {
		return
	}
	db, ok := dbpkg.FromContext(c)
	if !ok {
		return
	}
	user, _ := GetUserLogged(c)

	var in transicaoRequest
	if err := c.ShouldBindJSON(&in); err != nil {
		RespondError(c, err.Error(), http.StatusBadRequest)
		return
	}
	in.Status = strings.TrimSpace(in.Status)
	if !models.StatusCampanhaValido(in.Status) {
		RespondError(c, "status inválido", http.StatusBadRequest)
		return
	}

	var campanha models.MarketingCampanha
	if err := db.First(&campanha, id).Error; err != nil {
		RespondError(c, "campanha não encontrada", http.StatusNotFound)
		return
	}
	if !models.PodeTransitar(campanha.Status, in.Status) {
		RespondError(c, models.ErrTransicaoInvalida.Error()+": "+campanha.Status+" -> "+in.Status, http.StatusConflict)
		return
	}

	decisao := in.Status == models.CAMPANHA_APROVADA || in.Status == models.CAMPANHA_REJEITADA
	if decisao && user.Perfil != models.PERFIL_ADMIN && user.Perfil != models.PERFIL_GESTOR {
		RespondError(c, "somente gestores podem aprovar ou rejeitar", http.StatusForbidden)
		return
	}

	updates := map[string]any{"status": in.Status}
	switch in.Status {
	case models.CAMPANHA_APROVADA:
		updates["aprovado_por"] = user.ID
		updates["motivo_rejeicao"] = ""
	case models.CAMPANHA_REJEITADA:
		updates["motivo_rejeicao"] = strings.TrimSpace(in.Motivo)
	case models.CAMPANHA_PUBLICADA:
		updates["publicada_em"] = now()
	}

	// o where no status anterior evita duas transições concorrentes
	res := db.Model(&campanha).Where("status = ?", campanha.Status).Updates(updates)
	if res.Error != nil {
		RespondError(c, res.Error.Error(), http.StatusBadRequest)
		return
	}
	if res.RowsAffected == 0 {
		RespondError(c, models.ErrTransicaoInvalida.Error(), http.StatusConflict)
		return
	}
	RespondSuccess(c, campanha)
}

// DELETE /api/campanhas/:id remove a campanha e suas imagens (Drive incluso).
func DeleteCampanha(c *gin.Context) {
	id, ok := ParamID(c, "id")
	if !ok {
		return
	}
	db, ok := dbpkg.FromContext(c)
	if !ok {
		return
	}

	var campanha models.MarketingCampanha
	if err := db.Preload("Imagens").First(&campanha, id).Error; err != nil {
		RespondError(c, "campanha não encontrada", http.StatusNotFound)
		return
	}

	tx := db.Begin()
	if err := tx.Where("campanha_id = ?", id).Delete(&models.MarketingImagem{}).Error; err != nil {
		tx.Rollback()
		RespondError(c, err.Error(), http.StatusBadRequest)
		return
	}
	if err := tx.Delete(&campanha).Error; err != nil {
		tx.Rollback()
		RespondError(c, err.Error(), http.StatusBadRequest)
		return
	}
	if err := tx.Commit().Error; err != nil {
		tx.Rollback()
		RespondError(c, err.Error(), http.StatusBadRequest)
		return
	}

	for _, img := range campanha.Imagens {
		deleteDriveFileBestEffort(c, img)
	}
	RespondSuccess(c, gin.H{"ok": true, "id": id})
}
