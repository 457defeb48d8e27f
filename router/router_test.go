package router

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"painel/cache"
	"painel/config"
	"painel/controllers"
	dbpkg "painel/db"
	"painel/models"
	"painel/realtime"
	"painel/tools"

	"github.com/gin-gonic/gin"
	"github.com/jinzhu/gorm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type routerEnv struct {
	t     *testing.T
	db    *gorm.DB
	r     *gin.Engine
	store *cache.MemoryCache
	hub   *realtime.Hub
}

func newRouterEnv(t *testing.T) *routerEnv {
	t.Helper()
	conf, err := config.Load("")
	require.NoError(t, err)
	conf.Database = "sqlite3"
	conf.DbPath = ":memory:"
	conf.Security.JwtSecret = "segredo-router"
	conf.Telemetry.Enabled = false

	dbpkg.SetConfigurations(conf)
	db, err := dbpkg.Connect()
	require.NoError(t, err)
	require.NoError(t, dbpkg.Migrate(db))
	t.Cleanup(func() { db.Close() })

	controllers.SetServices(controllers.Services{Config: conf})
	t.Cleanup(func() { controllers.SetServices(controllers.Services{}) })

	store := cache.NewMemoryCache()
	hub := realtime.NewHub()
	t.Cleanup(hub.Close)
	rt := realtime.NewServer(hub, controllers.RealtimeAuthenticator(db), conf.Origins())

	r := gin.New()
	Initialize(r, Deps{Config: conf, DB: db, Cache: store, Realtime: rt})
	return &routerEnv{t: t, db: db, r: r, store: store, hub: hub}
}

func (e *routerEnv) do(method, path, token string, body any) *httptest.ResponseRecorder {
	e.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(e.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.r.ServeHTTP(w, req)
	return w
}

func (e *routerEnv) loginAs(email, perfil string) string {
	e.t.Helper()
	hash, err := tools.HashPassword("senha-forte-123")
	require.NoError(e.t, err)
	u := models.UsuarioSistema{Nome: perfil, Email: email, SenhaHash: hash, Perfil: perfil, Ativo: true}
	require.NoError(e.t, e.db.Create(&u).Error)

	w := e.do(http.MethodPost, "/api/login", "", gin.H{"email": email, "senha": "senha-forte-123"})
	require.Equal(e.t, http.StatusOK, w.Code, w.Body.String())
	var resp controllers.LoginResponse
	require.NoError(e.t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.Token
}

func TestHealthAndMetrics(t *testing.T) {
	env := newRouterEnv(t)

	w := env.do(http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	w = env.do(http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "painel_http_requests_total")
}

func TestCORSPreflight(t *testing.T) {
	env := newRouterEnv(t)
	req := httptest.NewRequest(http.MethodOptions, "/api/clientes", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	w := httptest.NewRecorder()
	env.r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.NotEmpty(t, w.Header().Get("Access-Control-Allow-Methods"))
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Headers"), "Authorization")
}

func TestRoleGating(t *testing.T) {
	env := newRouterEnv(t)
	admin := env.loginAs("admin@prefeitura.gov.br", models.PERFIL_ADMIN)
	op := env.loginAs("op@prefeitura.gov.br", models.PERFIL_OPERADOR)
	viewer := env.loginAs("ver@prefeitura.gov.br", models.PERFIL_VISUALIZADOR)

	assert.Equal(t, http.StatusUnauthorized, env.do(http.MethodGet, "/api/clientes", "", nil).Code)

	assert.Equal(t, http.StatusOK, env.do(http.MethodGet, "/api/clientes", viewer, nil).Code)
	w := env.do(http.MethodPost, "/api/alertas", viewer, gin.H{"titulo": "x"})
	assert.Equal(t, http.StatusForbidden, w.Code)
	// leitura e sessão própria continuam liberadas
	assert.Equal(t, http.StatusOK, env.do(http.MethodPost, "/api/sessions/heartbeat", viewer, nil).Code)

	assert.Equal(t, http.StatusForbidden, env.do(http.MethodGet, "/api/usuarios", op, nil).Code)
	assert.Equal(t, http.StatusForbidden, env.do(http.MethodGet, "/api/movimentacoes", op, nil).Code)
	assert.Equal(t, http.StatusOK, env.do(http.MethodGet, "/api/usuarios", admin, nil).Code)
	assert.Equal(t, http.StatusOK, env.do(http.MethodGet, "/api/sessions", admin, nil).Code)
}

func TestAuditorRecordsWrites(t *testing.T) {
	env := newRouterEnv(t)
	op := env.loginAs("op@prefeitura.gov.br", models.PERFIL_OPERADOR)

	w := env.do(http.MethodPost, "/api/alertas", op, gin.H{"titulo": "Fila no posto"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	env.do(http.MethodGet, "/api/alertas", op, nil)
	env.do(http.MethodPost, "/api/sessions/heartbeat", op, nil)

	var regs []models.RegistroMovimentacao
	require.NoError(t, env.db.Where("acao = ?", http.MethodPost).Find(&regs).Error)
	require.Len(t, regs, 1)
	assert.Equal(t, "/api/alertas", regs[0].Recurso)
	assert.Equal(t, http.StatusCreated, regs[0].Status)
	assert.Equal(t, "op@prefeitura.gov.br", regs[0].UsuarioEmail)
}

func TestDashboardIsCached(t *testing.T) {
	env := newRouterEnv(t)
	op := env.loginAs("op@prefeitura.gov.br", models.PERFIL_OPERADOR)

	w := env.do(http.MethodGet, "/api/dashboard/resumo", op, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "MISS", w.Header().Get("X-Cache"))

	now := time.Now()
	c := models.Comentario{Plataforma: "x", Texto: "t", Sentimento: models.SENTIMENTO_NEGATIVO, PublicadoEm: &now}
	require.NoError(t, env.db.Create(&c).Error)

	// sem invalidação registrada a resposta antiga continua servida
	w = env.do(http.MethodGet, "/api/dashboard/resumo", op, nil)
	assert.Equal(t, "HIT", w.Header().Get("X-Cache"))
	assert.Contains(t, w.Body.String(), `"total":0`)

	require.NoError(t, env.store.DeletePrefix(t.Context(), DASHBOARD_CACHE_PREFIX))
	w = env.do(http.MethodGet, "/api/dashboard/resumo", op, nil)
	assert.Equal(t, "MISS", w.Header().Get("X-Cache"))
	assert.Contains(t, w.Body.String(), `"total":1`)
}

func TestRealtimeThroughRouter(t *testing.T) {
	env := newRouterEnv(t)
	op := env.loginAs("op@prefeitura.gov.br", models.PERFIL_OPERADOR)
	srv := httptest.NewServer(env.r)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := realtime.Dial(ctx, srv.URL, "token-invalido")
	assert.Error(t, err)

	sub, err := realtime.Dial(ctx, srv.URL, op)
	require.NoError(t, err)
	defer sub.Close()

	got := make(chan realtime.Change, 1)
	err = sub.Watch(ctx, "alertas", realtime.Filter{Table: "alerta_crise_notificacao"},
		func(context.Context) error { return nil },
		func(c realtime.Change) { got <- c })
	require.NoError(t, err)
	go sub.Run(ctx)
	go sub.KeepAlive(ctx, 20*time.Millisecond)

	require.Eventually(t, func() bool { return env.hub.Count() == 1 }, 2*time.Second, 10*time.Millisecond)
	require.Eventually(t, func() bool { return !sub.LastPong().IsZero() }, 2*time.Second, 10*time.Millisecond)

	env.hub.Publish(realtime.Change{
		Schema: realtime.DEFAULT_SCHEMA, Table: "alerta_crise_notificacao", Type: realtime.EVENT_INSERT,
		Record: map[string]any{"id": float64(1)}, CommitTimestamp: time.Now(),
	})
	select {
	case c := <-got:
		assert.Equal(t, realtime.EVENT_INSERT, c.Type)
	case <-ctx.Done():
		t.Fatal("mudança não entregue pelo websocket")
	}
}
