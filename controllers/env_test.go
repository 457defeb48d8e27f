package controllers

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"painel/config"
	dbpkg "painel/db"
	"painel/models"
	"painel/tools"

	"github.com/gin-gonic/gin"
	"github.com/jinzhu/gorm"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

const senhaTeste = "senha-forte-123"

type testEnv struct {
	t    *testing.T
	db   *gorm.DB
	r    *gin.Engine
	conf config.Configuration

	mu  sync.Mutex
	now time.Time
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	conf, err := config.Load("")
	require.NoError(t, err)
	conf.Database = "sqlite3"
	conf.DbPath = ":memory:"
	conf.Security.JwtSecret = "segredo-de-teste"
	conf.Security.SessionTTLMinutes = 30
	conf.Security.InactivityMinutes = 60

	dbpkg.SetConfigurations(conf)
	db, err := dbpkg.Connect()
	require.NoError(t, err)
	require.NoError(t, dbpkg.Migrate(db))
	t.Cleanup(func() { db.Close() })

	env := &testEnv{t: t, db: db, conf: conf, now: time.Now()}
	SetServices(Services{Config: conf, Now: env.clock})
	t.Cleanup(func() { SetServices(Services{}) })

	r := gin.New()
	r.Use(dbpkg.SetDBtoContext(db))
	r.GET("/health", Health)

	api := r.Group("/api")
	api.POST("/login", Login)
	api.POST("/sessions/close", CloseSession)
	api.POST("/sessions/orphan", OrphanSession)
	api.GET("/image-proxy", ImageProxy)

	auth := api.Group("")
	auth.Use(AuthRequired())
	auth.POST("/logout", Logout)
	auth.POST("/refresh", Refresh)
	auth.POST("/sessions/heartbeat", Heartbeat)
	auth.GET("/sessions", ListSessions)
	auth.GET("/me", Me)
	auth.PUT("/me", UpdateMe)

	auth.GET("/usuarios", ListUsuarios)
	auth.POST("/usuarios", CreateUsuario)
	auth.PUT("/usuarios/:id", UpdateUsuario)
	auth.DELETE("/usuarios/:id", DeactivateUsuario)

	auth.GET("/clientes", ListClientes)
	auth.GET("/clientes/export.csv", ExportClientesCSV)
	auth.GET("/clientes/:id", GetCliente)
	auth.POST("/clientes", CreateCliente)
	auth.PUT("/clientes/:id", UpdateCliente)
	auth.DELETE("/clientes/:id", DeleteCliente)

	auth.GET("/comentarios", ListComentarios)
	auth.POST("/comentarios", CreateComentario)
	auth.PATCH("/comentarios/:id/sentimento", UpdateSentimento)

	auth.GET("/dashboard/resumo", GetDashboardResumo)
	auth.GET("/dashboard/por-dia", GetDashboardPorDia)
	auth.GET("/dashboard/plataformas", GetDashboardPlataformas)

	auth.GET("/alertas", ListAlertas)
	auth.POST("/alertas", CreateAlerta)
	auth.PATCH("/alertas/:id/lida", MarkAlertaLida)
	auth.PATCH("/alertas/:id/resolver", ResolveAlerta)

	auth.GET("/campanhas", ListCampanhas)
	auth.GET("/campanhas/:id", GetCampanha)
	auth.POST("/campanhas", CreateCampanha)
	auth.PUT("/campanhas/:id", UpdateCampanha)
	auth.POST("/campanhas/:id/status", TransitionCampanha)
	auth.DELETE("/campanhas/:id", DeleteCampanha)
	auth.GET("/campanhas/:id/imagens", ListImagens)
	auth.POST("/campanhas/:id/imagens", CreateImagem)
	auth.DELETE("/imagens/:id", DeleteImagem)
	auth.POST("/drive/delete-file", DeleteDriveFile)

	auth.GET("/movimentacoes", ListMovimentacoes)

	env.r = r
	return env
}

func (e *testEnv) clock() time.Time {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.now
}

func (e *testEnv) advance(d time.Duration) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.now = e.now.Add(d)
}

// setServices troca dependências externas mantendo config e relógio.
func (e *testEnv) setServices(images *tools.ImageFetcher, drive tools.FileDeleter) {
	SetServices(Services{Config: e.conf, Now: e.clock, Images: images, Drive: drive})
}

func (e *testEnv) createUser(email, perfil string) models.UsuarioSistema {
	e.t.Helper()
	hash, err := tools.HashPassword(senhaTeste)
	require.NoError(e.t, err)
	u := models.UsuarioSistema{Nome: "Teste " + perfil, Email: email, SenhaHash: hash, Perfil: perfil, Ativo: true}
	require.NoError(e.t, e.db.Create(&u).Error)
	return u
}

func (e *testEnv) login(email string) LoginResponse {
	e.t.Helper()
	w := e.do(http.MethodPost, "/api/login", "", gin.H{"email": email, "senha": senhaTeste})
	require.Equal(e.t, http.StatusOK, w.Code, w.Body.String())
	var resp LoginResponse
	require.NoError(e.t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

// loginAs cria o usuário e devolve o token.
func (e *testEnv) loginAs(email, perfil string) string {
	e.createUser(email, perfil)
	return e.login(email).Token
}

func (e *testEnv) do(method, path, token string, body any) *httptest.ResponseRecorder {
	e.t.Helper()
	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(e.t, err)
		reader = bytes.NewBuffer(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if _, isString := body.(string); isString {
		req.Header.Set("Content-Type", "text/plain;charset=UTF-8")
	} else if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.r.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}
