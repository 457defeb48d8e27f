package controllers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	dbpkg "painel/db"
	"painel/models"
	"painel/realtime"
	"painel/tools"

	"github.com/gin-gonic/gin"
	"github.com/jinzhu/gorm"
)

const ctxUserKey = "auth_user"
const ctxSessionKey = "auth_session"

var (
	ErrSessaoInvalida = errors.New("sessão encerrada ou expirada")
	ErrUsuarioInativo = errors.New("usuário desativado")
)

func bearerToken(c *gin.Context) string {
	h := c.GetHeader("Authorization")
	if !strings.HasPrefix(strings.ToLower(h), "bearer ") {
		return ""
	}
	return strings.TrimSpace(h[len("Bearer "):])
}

// loadSession carrega usuário e sessão do token e confere se ainda valem.
func loadSession(db *gorm.DB, claims *Claims, at time.Time) (models.UsuarioSistema, models.SessaoAtiva, error) {
	var sessao models.SessaoAtiva
	if err := db.First(&sessao, claims.SessionID).Error; err != nil {
		return models.UsuarioSistema{}, sessao, ErrSessaoInvalida
	}
	if sessao.UsuarioID != claims.UserID || sessao.ChaveHash != tools.EncryptTextSHA512(claims.ID) {
		return models.UsuarioSistema{}, sessao, ErrSessaoInvalida
	}
	if !sessao.Valida(at) {
		return models.UsuarioSistema{}, sessao, ErrSessaoInvalida
	}

	var user models.UsuarioSistema
	if err := db.First(&user, claims.UserID).Error; err != nil {
		return user, sessao, ErrSessaoInvalida
	}
	if !user.Ativo {
		return user, sessao, ErrUsuarioInativo
	}
	return user, sessao, nil
}

// AuthRequired valida o Bearer token e a sessão ativa correspondente.
// Sessão encerrada ou expirada responde 401, o que força logout no cliente.
func AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			RespondError(c, "token é obrigatório", http.StatusUnauthorized)
			c.Abort()
			return
		}
		claims, err := parseToken(token, true)
		if err != nil {
			RespondError(c, "token inválido", http.StatusUnauthorized)
			c.Abort()
			return
		}

		db, ok := dbpkg.FromContext(c)
		if !ok {
			return
		}

		user, sessao, err := loadSession(db, claims, now())
		switch {
		case errors.Is(err, ErrUsuarioInativo):
			RespondError(c, "usuário desativado", http.StatusForbidden)
			c.Abort()
			return
		case err != nil:
			RespondError(c, "sessão encerrada ou expirada", http.StatusUnauthorized)
			c.Abort()
			return
		}

		c.Set(ctxUserKey, user)
		c.Set(ctxSessionKey, sessao)
		c.Next()
	}
}

// GetUserLogged devolve o usuário carregado por AuthRequired.
func GetUserLogged(c *gin.Context) (models.UsuarioSistema, bool) {
	v, ok := c.Get(ctxUserKey)
	if !ok {
		return models.UsuarioSistema{}, false
	}
	user, ok := v.(models.UsuarioSistema)
	return user, ok
}

func GetSessionLogged(c *gin.Context) (models.SessaoAtiva, bool) {
	v, ok := c.Get(ctxSessionKey)
	if !ok {
		return models.SessaoAtiva{}, false
	}
	s, ok := v.(models.SessaoAtiva)
	return s, ok
}

// RealtimeAuthenticator aplica a mesma regra do AuthRequired ao websocket.
func RealtimeAuthenticator(db *gorm.DB) realtime.Authenticator {
	return func(ctx context.Context, token string) (int64, error) {
		claims, err := parseToken(token, true)
		if err != nil {
			return 0, err
		}
		user, _, err := loadSession(db, claims, now())
		if err != nil {
			return 0, err
		}
		return user.ID, nil
	}
}
