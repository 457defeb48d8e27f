package controllers

import (
	"net/http"
	"strings"

	dbpkg "painel/db"
	"painel/models"
	"painel/tools"

	"github.com/gin-gonic/gin"
)

func Me(c *gin.Context) {
	user, ok := GetUserLogged(c)
	if !ok {
		RespondError(c, "unauthorized", http.StatusUnauthorized)
		return
	}
	sessao, _ := GetSessionLogged(c)
	c.JSON(http.StatusOK, gin.H{"usuario": user, "sessao": sessao})
}

// UpdateMe atualiza o próprio cadastro.
// Route: PUT /api/me
//
// Campos proibidos: id, email, perfil, ativo, senha_hash, ultimo_acesso, created_at, updated_at.
// Troca de senha exige "senha" + "senha_atual".
func UpdateMe(c *gin.Context) {
	logged, ok := GetUserLogged(c)
	if !ok {
		RespondError(c, "unauthorized", http.StatusUnauthorized)
		return
	}

	db, ok := dbpkg.FromContext(c)
	if !ok {
		return
	}

	var payload map[string]any
	if err := c.ShouldBindJSON(&payload); err != nil {
		RespondError(c, err.Error(), http.StatusBadRequest)
		return
	}

	forbidden := map[string]struct{}{
		"id":            {},
		"email":         {},
		"perfil":        {},
		"ativo":         {},
		"senha_hash":    {},
		"ultimo_acesso": {},
		"created_at":    {},
		"updated_at":    {},
	}
	for k := range payload {
		if _, isForbidden := forbidden[strings.ToLower(k)]; isForbidden {
			delete(payload, k)
		}
	}

	if senha, ok := payload["senha"].(string); ok {
		atual, _ := payload["senha_atual"].(string)
		if !tools.CheckPasswordHash(logged.SenhaHash, atual) {
			RespondError(c, "senha atual incorreta", http.StatusForbidden)
			return
		}
		if msg := tools.CheckPassword(senha); msg != "" {
			RespondError(c, msg, http.StatusBadRequest)
			return
		}
		hash, err := tools.HashPassword(senha)
		if err != nil {
			RespondError(c, "erro ao gerar hash da senha", http.StatusInternalServerError)
			return
		}
		payload["senha_hash"] = hash
	}
	delete(payload, "senha")
	delete(payload, "senha_atual")

	updates := map[string]any{}
	for _, k := range []string{"nome", "secretaria", "telefone", "senha_hash"} {
		if v, ok := payload[k]; ok {
			updates[k] = v
		}
	}
	if tel, ok := updates["telefone"].(string); ok {
		updates["telefone"] = tools.FormatPhone(tel)
	}

	if len(updates) == 0 {
		RespondSuccess(c, logged)
		return
	}

	if err := db.Model(&models.UsuarioSistema{}).
		Where("id = ?", logged.ID).
		Updates(updates).Error; err != nil {
		RespondError(c, err.Error(), http.StatusBadRequest)
		return
	}

	var updated models.UsuarioSistema
	if err := db.Where("id = ?", logged.ID).First(&updated).Error; err != nil {
		RespondError(c, err.Error(), http.StatusInternalServerError)
		return
	}
	RespondSuccess(c, updated)
}
