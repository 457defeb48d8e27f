package router

import (
	"net/http"

	"painel/controllers"
	"painel/models"

	"github.com/gin-gonic/gin"
)

// Authorizer deixa o perfil visualizador só com leitura.
func Authorizer() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := controllers.GetUserLogged(c)
		if !ok {
			controllers.RespondError(c, "unauthorized", http.StatusUnauthorized)
			c.Abort()
			return
		}

		if user.Perfil == models.PERFIL_VISUALIZADOR && isMutating(c.Request.Method) {
			controllers.RespondError(c, "perfil sem permissão de escrita", http.StatusForbidden)
			c.Abort()
			return
		}

		c.Next()
	}
}

func isMutating(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}
