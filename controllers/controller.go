package controllers

import (
	"time"

	"painel/config"
	"painel/tools"

	"github.com/gin-gonic/gin"
)

func RespondError(c *gin.Context, msg string, code int) {
	c.JSON(code, gin.H{"error": msg})
}

func RespondSuccess(c *gin.Context, payload any) {
	c.JSON(200, payload)
}

// Services são as dependências externas dos handlers.
type Services struct {
	Config config.Configuration
	Images *tools.ImageFetcher
	Drive  tools.FileDeleter
	Now    func() time.Time
}

var services = Services{Now: time.Now}

func SetServices(s Services) {
	if s.Now == nil {
		s.Now = time.Now
	}
	services = s
}

func now() time.Time {
	return services.Now()
}
