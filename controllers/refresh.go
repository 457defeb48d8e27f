package controllers

import (
	"net/http"
	"time"

	dbpkg "painel/db"
	"painel/models"
	"painel/tools"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type RefreshResponse struct {
	Token        string    `json:"token"`
	ExpiresAt    time.Time `json:"expires_at"`
	ExpiresAtISO string    `json:"expires_at_iso"`
}

// Refresh troca o token da sessão atual por um novo.
// Rotação: o jti anterior deixa de valer porque o hash da sessão é substituído.
func Refresh(c *gin.Context) {
	user, ok := GetUserLogged(c)
	if !ok {
		RespondError(c, "unauthorized", http.StatusUnauthorized)
		return
	}
	sessao, _ := GetSessionLogged(c)

	db, ok := dbpkg.FromContext(c)
	if !ok {
		return
	}

	issued := now()
	jti := uuid.NewString()
	res := db.Model(&models.SessaoAtiva{ID: sessao.ID}).
		Where("ativa = ? AND chave_hash = ?", true, sessao.ChaveHash).
		Update("chave_hash", tools.EncryptTextSHA512(jti))
	if res.Error != nil {
		RespondError(c, "erro ao renovar sessão", http.StatusInternalServerError)
		return
	}
	if res.RowsAffected == 0 {
		RespondError(c, "sessão encerrada ou expirada", http.StatusUnauthorized)
		return
	}

	signed, err := signToken(user, sessao.ID, jti, issued)
	if err != nil {
		RespondError(c, "erro ao assinar token", http.StatusInternalServerError)
		return
	}

	exp := issued.Add(TOKEN_TTL)
	RespondSuccess(c, RefreshResponse{
		Token:        signed,
		ExpiresAt:    exp,
		ExpiresAtISO: exp.UTC().Format(time.RFC3339),
	})
}
