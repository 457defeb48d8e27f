package controllers

import (
	"net/http"
	"strings"

	dbpkg "painel/db"
	"painel/metrics"
	"painel/models"
	"painel/tools"

	"github.com/gin-gonic/gin"
)

// GET /api/usuarios
// Query params: q, perfil, ativo=true|false, limit, offset
func ListUsuarios(c *gin.Context) {
	db, ok := dbpkg.FromContext(c)
	if !ok {
		return
	}

	limit := clampInt(queryInt(c, "limit", 100), 1, 500)
	offset := clampInt(queryInt(c, "offset", 0), 0, 1_000_000)

	query := db.Model(&models.UsuarioSistema{})
	if q := strings.TrimSpace(c.Query("q")); q != "" {
		like := likeTerm(q)
		query = query.Where("lower(nome) LIKE ? OR lower(email) LIKE ?", like, like)
	}
	if perfil := strings.TrimSpace(c.Query("perfil")); perfil != "" {
		query = query.Where("perfil = ?", perfil)
	}
	switch c.Query("ativo") {
	case "true":
		query = query.Where("ativo = ?", true)
	case "false":
		query = query.Where("ativo = ?", false)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		RespondError(c, err.Error(), http.StatusBadRequest)
		return
	}

	var usuarios []models.UsuarioSistema
	if err := query.Order("nome asc").Limit(limit).Offset(offset).Find(&usuarios).Error; err != nil {
		RespondError(c, err.Error(), http.StatusBadRequest)
		return
	}

	RespondSuccess(c, gin.H{
		"total":    total,
		"limit":    limit,
		"offset":   offset,
		"usuarios": usuarios,
	})
}

func CreateUsuario(c *gin.Context) {
	db, ok := dbpkg.FromContext(c)
	if !ok {
		return
	}

	var in models.NovoUsuario
	if err := c.Bind(&in); err != nil {
		RespondError(c, err.Error(), http.StatusBadRequest)
		return
	}
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))

	if missing := in.MissingFields(); missing != "" {
		RespondError(c, "Faltando campo "+missing, http.StatusBadRequest)
		return
	}
	if !tools.ValidateEmail(in.Email) {
		RespondError(c, "E-mail inválido!", http.StatusBadRequest)
		return
	}
	if in.Perfil == "" {
		in.Perfil = models.PERFIL_OPERADOR
	}
	if !models.PerfilValido(in.Perfil) {
		RespondError(c, "perfil inválido", http.StatusBadRequest)
		return
	}

	var count int64
	db.Model(&models.UsuarioSistema{}).Where("email = ?", in.Email).Count(&count)
	if count > 0 {
		RespondError(c, "Usuário já existe", http.StatusConflict)
		return
	}

	hash, err := tools.HashPassword(in.Senha)
	if err != nil {
		RespondError(c, "erro ao gerar hash da senha", http.StatusInternalServerError)
		return
	}

	user := models.UsuarioSistema{
		Nome:       strings.TrimSpace(in.Nome),
		Email:      in.Email,
		SenhaHash:  hash,
		Perfil:     in.Perfil,
		Secretaria: in.Secretaria,
		Telefone:   tools.FormatPhone(in.Telefone),
		Ativo:      true,
	}
	if err := db.Create(&user).Error; err != nil {
		RespondError(c, err.Error(), http.StatusBadRequest)
		return
	}
	c.JSON(http.StatusCreated, user)
}

type usuarioUpdate struct {
	Nome       *string `json:"nome"`
	Perfil     *string `json:"perfil"`
	Secretaria *string `json:"secretaria"`
	Telefone   *string `json:"telefone"`
	Ativo      *bool   `json:"ativo"`
}

// PUT /api/usuarios/:id
func UpdateUsuario(c *gin.Context) {
	id, ok := ParamID(c, "id")
	if !ok {
		return
	}
	db, ok := dbpkg.FromContext(c)
	if !ok {
		return
	}

	var in usuarioUpdate
	if err := c.ShouldBindJSON(&in); err != nil {
		RespondError(c, err.Error(), http.StatusBadRequest)
		return
	}

	var user models.UsuarioSistema
	if err := db.First(&user, id).Error; err != nil {
		RespondError(c, "usuário não encontrado", http.StatusNotFound)
		return
	}

	updates := map[string]any{}
	if in.Nome != nil {
		updates["nome"] = strings.TrimSpace(*in.Nome)
	}
	if in.Perfil != nil {
		if !models.PerfilValido(*in.Perfil) {
			RespondError(c, "perfil inválido", http.StatusBadRequest)
			return
		}
		updates["perfil"] = *in.Perfil
	}
	if in.Secretaria != nil {
		updates["secretaria"] = *in.Secretaria
	}
	if in.Telefone != nil {
		updates["telefone"] = tools.FormatPhone(*in.Telefone)
	}
	if in.Ativo != nil {
		updates["ativo"] = *in.Ativo
	}

	if len(updates) > 0 {
		if err := db.Model(&user).Updates(updates).Error; err != nil {
			RespondError(c, err.Error(), http.StatusBadRequest)
			return
		}
	}
	if in.Ativo != nil && !*in.Ativo {
		encerrarSessoesDoUsuario(c, user)
	}

	db.First(&user, id)
	RespondSuccess(c, user)
}

// DELETE /api/usuarios/:id desativa o usuário e derruba suas sessões.
func DeactivateUsuario(c *gin.Context) {
	id, ok := ParamID(c, "id")
	if !ok {
		return
	}
	logged, _ := GetUserLogged(c)
	if logged.ID == id {
		RespondError(c, "não é possível desativar o próprio usuário", http.StatusBadRequest)
		return
	}

	db, ok := dbpkg.FromContext(c)
	if !ok {
		return
	}

	var user models.UsuarioSistema
	if err := db.First(&user, id).Error; err != nil {
		RespondError(c, "usuário não encontrado", http.StatusNotFound)
		return
	}
	if err := db.Model(&user).Update("ativo", false).Error; err != nil {
		RespondError(c, err.Error(), http.StatusBadRequest)
		return
	}
	encerrarSessoesDoUsuario(c, user)

	user.Ativo = false
	RespondSuccess(c, user)
}

func encerrarSessoesDoUsuario(c *gin.Context, user models.UsuarioSistema) {
	db := dbpkg.DBInstance(c)
	var ids []int64
	db.Model(&models.SessaoAtiva{}).Where("usuario_id = ? AND ativa = ?", user.ID, true).Pluck("id", &ids)
	m := metrics.Get()
	for _, id := range ids {
		if closed, err := models.EncerrarSessao(db, id, models.MOTIVO_LOGOUT, now()); err == nil && closed {
			m.SessionsClosed.WithLabelValues(models.MOTIVO_LOGOUT).Inc()
			m.SessionsActive.Dec()
		}
	}
}
