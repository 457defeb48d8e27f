package controllers

import (
	"net/http"
	"strings"
	"time"

	dbpkg "painel/db"
	"painel/logger"
	"painel/metrics"
	"painel/models"
	"painel/tools"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type LoginRequest struct {
	Email string `json:"email" form:"email"`
	Senha string `json:"senha" form:"senha"`
}

type LoginResponse struct {
	Token            string                `json:"token"`
	Usuario          models.UsuarioSistema `json:"usuario"`
	SessaoID         int64                 `json:"sessao_id"`
	ExpiresAt        time.Time             `json:"expires_at"`
	HeartbeatSeconds int                   `json:"heartbeat_seconds"`
}

func Login(c *gin.Context) {
	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		RespondError(c, err.Error(), http.StatusBadRequest)
		return
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || req.Senha == "" {
		RespondError(c, "email e senha são obrigatórios", http.StatusBadRequest)
		return
	}

	db, ok := dbpkg.FromContext(c)
	if !ok {
		return
	}

	var user models.UsuarioSistema
	if err := db.Where("email = ?", req.Email).First(&user).Error; err != nil ||
		!tools.CheckPasswordHash(user.SenhaHash, req.Senha) {
		registrar(c, db, models.UsuarioSistema{ID: user.ID, Email: req.Email},
			models.ACAO_LOGIN_FALHOU, "auth", "", http.StatusUnauthorized)
		RespondError(c, "usuário ou senha inválidos", http.StatusUnauthorized)
		return
	}
	if !user.Ativo {
		RespondError(c, "usuário desativado", http.StatusForbidden)
		return
	}

	issued := now()
	expires := issued.Add(services.Config.SessionTTL())
	jti := uuid.NewString()

	sessao := models.SessaoAtiva{
		UsuarioID:    user.ID,
		ChaveHash:    tools.EncryptTextSHA512(jti),
		IP:           c.ClientIP(),
		UserAgent:    c.Request.UserAgent(),
		Ativa:        true,
		LastActivity: &issued,
		ExpiresAt:    &expires,
	}
	if err := db.Create(&sessao).Error; err != nil {
		RespondError(c, "erro ao criar sessão", http.StatusInternalServerError)
		return
	}

	signed, err := signToken(user, sessao.ID, jti, issued)
	if err != nil {
		RespondError(c, "erro ao assinar token", http.StatusInternalServerError)
		return
	}

	if err := db.Model(&user).UpdateColumn("ultimo_acesso", issued).Error; err != nil {
		logger.Log.Warn("login: falha ao gravar ultimo_acesso", logger.WithUserID(user.ID), zap.Error(err))
	}
	user.UltimoAcesso = &issued

	metrics.Get().SessionsActive.Inc()
	registrar(c, db, user, models.ACAO_LOGIN, "auth", "", http.StatusOK)

	RespondSuccess(c, LoginResponse{
		Token:            signed,
		Usuario:          user,
		SessaoID:         sessao.ID,
		ExpiresAt:        expires,
		HeartbeatSeconds: int(services.Config.HeartbeatInterval().Seconds()),
	})
}

// Logout encerra a sessão do token atual.
func Logout(c *gin.Context) {
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

	closeSession(c, db, user, sessao.ID, models.MOTIVO_LOGOUT)
	RespondSuccess(c, gin.H{"ok": true})
}
