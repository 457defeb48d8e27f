package router

import (
	"painel/controllers"
	dbpkg "painel/db"
	"painel/logger"
	"painel/models"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Auditor grava em registro_movimentacoes toda escrita autenticada.
// Login, logout e encerramento de sessão são registrados pelos próprios handlers.
func Auditor() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if !isMutating(c.Request.Method) {
			return
		}
		user, ok := controllers.GetUserLogged(c)
		if !ok {
			return
		}
		route := c.FullPath()
		if _, skip := auditSkip[route]; skip {
			return
		}
		db := dbpkg.DBInstance(c)
		if db == nil {
			return
		}

		r := models.RegistroMovimentacao{
			UsuarioID:    user.ID,
			UsuarioEmail: user.Email,
			Acao:         c.Request.Method,
			Recurso:      route,
			Detalhes:     c.Request.URL.Path,
			Status:       c.Writer.Status(),
			IP:           c.ClientIP(),
			UserAgent:    c.Request.UserAgent(),
		}
		if err := models.RegistrarMovimentacao(db, r); err != nil {
			logger.Log.Warn("auditor: falha ao registrar", zap.String("recurso", route), zap.Error(err))
		}
	}
}

var auditSkip = map[string]struct{}{
	"/api/logout":             {},
	"/api/refresh":            {},
	"/api/sessions/heartbeat": {},
}
