package router

import (
	"painel/cache"
	"painel/config"
	"painel/controllers"
	dbpkg "painel/db"
	"painel/logger"
	"painel/middleware"
	"painel/realtime"
	"painel/telemetry"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/jinzhu/gorm"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

const DASHBOARD_CACHE_PREFIX = "dashboard:"

// Deps são as peças montadas no main e compartilhadas pelas rotas.
type Deps struct {
	Config   config.Configuration
	DB       *gorm.DB
	Realtime *realtime.Server
	Cache    cache.Cache
}

// Initialize wires all routes and middlewares.
// Public routes + authenticated routes + "validated" routes (Authorizer) + admin.
func Initialize(r *gin.Engine, d Deps) {
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.CORSMiddleware(d.Config.Origins()))
	r.Use(middleware.Metrics())
	if d.Config.Telemetry.Enabled {
		r.Use(otelgin.Middleware(telemetry.SERVICE_NAME))
	}
	// websocket e bytes de imagem não passam pelo gzip
	r.Use(gzip.Gzip(gzip.DefaultCompression,
		gzip.WithExcludedPaths([]string{"/api/realtime", "/api/image-proxy"})))
	r.Use(dbpkg.SetDBtoContext(d.DB))

	r.GET("/health", controllers.Health)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api")
	api.Use(Auditor())

	// Public (no auth)
	api.POST("/login", Logger(), controllers.Login)
	api.POST("/sessions/close", Logger(), controllers.CloseSession)
	api.POST("/sessions/orphan", Logger(), controllers.OrphanSession)
	api.GET("/image-proxy", Logger(), controllers.ImageProxy)
	if d.Realtime != nil {
		// token via ?token=, validado dentro do handler
		api.GET("/realtime", d.Realtime.Handle)
	}

	// Authenticated routes (token + sessão ativa)
	auth := api.Group("")
	auth.Use(controllers.AuthRequired())
	auth.POST("/logout", Logger(), controllers.Logout)
	auth.POST("/refresh", Logger(), controllers.Refresh)
	auth.POST("/sessions/heartbeat", controllers.Heartbeat)
	auth.GET("/me", Logger(), controllers.Me)
	auth.PUT("/me", Logger(), controllers.UpdateMe)

	// Validated routes (visualizador só lê)
	validated := auth.Group("")
	validated.Use(Authorizer())

	dashboardCache := middleware.ResponseCache(d.Cache, DASHBOARD_CACHE_PREFIX, d.Config.DashboardTTL())
	validated.GET("/dashboard/resumo", Logger(), dashboardCache, controllers.GetDashboardResumo)
	validated.GET("/dashboard/por-dia", Logger(), dashboardCache, controllers.GetDashboardPorDia)
	validated.GET("/dashboard/plataformas", Logger(), dashboardCache, controllers.GetDashboardPlataformas)

	validated.GET("/comentarios", Logger(), controllers.ListComentarios)
	validated.POST("/comentarios", Logger(), controllers.CreateComentario)
	validated.PATCH("/comentarios/:id/sentimento", Logger(), controllers.UpdateSentimento)

	validated.GET("/clientes", Logger(), controllers.ListClientes)
	validated.GET("/clientes/export.csv", Logger(), controllers.ExportClientesCSV)
	validated.GET("/clientes/:id", Logger(), controllers.GetCliente)
	validated.POST("/clientes", Logger(), controllers.CreateCliente)
	validated.PUT("/clientes/:id", Logger(), controllers.UpdateCliente)
	validated.DELETE("/clientes/:id", Logger(), controllers.DeleteCliente)

	validated.GET("/alertas", Logger(), controllers.ListAlertas)
	validated.POST("/alertas", Logger(), controllers.CreateAlerta)
	validated.PATCH("/alertas/:id/lida", Logger(), controllers.MarkAlertaLida)
	validated.PATCH("/alertas/:id/resolver", Logger(), controllers.ResolveAlerta)

	validated.GET("/campanhas", Logger(), controllers.ListCampanhas)
	validated.GET("/campanhas/:id", Logger(), controllers.GetCampanha)
	validated.POST("/campanhas", Logger(), controllers.CreateCampanha)
	validated.PUT("/campanhas/:id", Logger(), controllers.UpdateCampanha)
	validated.POST("/campanhas/:id/status", Logger(), controllers.TransitionCampanha)
	validated.DELETE("/campanhas/:id", Logger(), controllers.DeleteCampanha)
	validated.GET("/campanhas/:id/imagens", Logger(), controllers.ListImagens)
	validated.POST("/campanhas/:id/imagens", Logger(), controllers.CreateImagem)
	validated.DELETE("/imagens/:id", Logger(), controllers.DeleteImagem)

	validated.POST("/drive/delete-file", Logger(), controllers.DeleteDriveFile)

	// Admin routes
	admin := validated.Group("")
	admin.Use(Adminizer())

	admin.GET("/usuarios", Logger(), controllers.ListUsuarios)
	admin.POST("/usuarios", Logger(), controllers.CreateUsuario)
	admin.PUT("/usuarios/:id", Logger(), controllers.UpdateUsuario)
	admin.DELETE("/usuarios/:id", Logger(), controllers.DeactivateUsuario)
	admin.GET("/sessions", Logger(), controllers.ListSessions)
	admin.GET("/movimentacoes", Logger(), controllers.ListMovimentacoes)

	logger.Log.Info("Routes initialized")
}
