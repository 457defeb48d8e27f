package controllers

import (
	"net/http"
	"strconv"
	"testing"
	"time"

	"painel/models"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (e *testEnv) comentario(plataforma, sentimento string, at time.Time) {
	e.t.Helper()
	c := models.Comentario{Plataforma: plataforma, Texto: "comentário " + sentimento, Sentimento: sentimento, PublicadoEm: &at}
	require.NoError(e.t, e.db.Create(&c).Error)
}

func itoa(id int64) string { return strconv.FormatInt(id, 10) }

func TestDashboard(t *testing.T) {
	env := newTestEnv(t)
	token := env.loginAs("op@prefeitura.gov.br", models.PERFIL_OPERADOR)

	meioDia := startOfDay(env.clock()).AddDate(0, 0, -2).Add(12 * time.Hour)
	ontem := meioDia.AddDate(0, 0, 1)
	env.comentario("instagram", models.SENTIMENTO_POSITIVO, meioDia)
	env.comentario("instagram", models.SENTIMENTO_NEGATIVO, meioDia)
	env.comentario("facebook", models.SENTIMENTO_NEGATIVO, ontem)
	env.comentario("facebook", models.SENTIMENTO_NEUTRO, ontem)
	// fora do período
	env.comentario("facebook", models.SENTIMENTO_NEGATIVO, meioDia.AddDate(0, 0, -30))

	require.NoError(t, env.db.Create(&models.AlertaCriseNotificacao{Titulo: "a", Nivel: "alto", Status: models.ALERTA_STATUS_ATIVO}).Error)

	from := meioDia.AddDate(0, 0, -1).Format("2006-01-02")
	to := ontem.Format("2006-01-02")
	period := "?from=" + from + "&to=" + to

	w := env.do(http.MethodGet, "/api/dashboard/resumo"+period, token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	resumo := decode[resumoResponse](t, w)
	assert.Equal(t, int64(4), resumo.Total)
	assert.Equal(t, int64(1), resumo.Positivo)
	assert.Equal(t, int64(1), resumo.Neutro)
	assert.Equal(t, int64(2), resumo.Negativo)
	assert.InDelta(t, 0.5, resumo.ProporcaoNegativa, 1e-9)
	assert.Equal(t, int64(1), resumo.AlertasAtivos)

	w = env.do(http.MethodGet, "/api/dashboard/resumo"+period+"&plataforma=Facebook", token, nil)
	assert.Equal(t, int64(2), decode[resumoResponse](t, w).Total)

	w = env.do(http.MethodGet, "/api/dashboard/por-dia"+period, token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	series := decode[struct {
		Series []perDayPoint `json:"series"`
	}](t, w).Series
	require.Len(t, series, 3)
	assert.Equal(t, perDayPoint{Day: from}, series[0])
	assert.Equal(t, perDayPoint{Day: meioDia.Format("2006-01-02"), Positivo: 1, Negativo: 1, Total: 2}, series[1])
	assert.Equal(t, perDayPoint{Day: to, Neutro: 1, Negativo: 1, Total: 2}, series[2])

	w = env.do(http.MethodGet, "/api/dashboard/plataformas"+period, token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	plats := decode[struct {
		Plataformas []plataformaResumo `json:"plataformas"`
	}](t, w).Plataformas
	require.Len(t, plats, 2)
	assert.Equal(t, plataformaResumo{Plataforma: "facebook", Neutro: 1, Negativo: 1, Total: 2}, plats[0])
	assert.Equal(t, plataformaResumo{Plataforma: "instagram", Positivo: 1, Negativo: 1, Total: 2}, plats[1])

	w = env.do(http.MethodGet, "/api/dashboard/resumo?from="+to+"&to="+from, token, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = env.do(http.MethodGet, "/api/dashboard/resumo?from=14/10/2026", token, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDashboardDefaultsToLastWeek(t *testing.T) {
	env := newTestEnv(t)
	token := env.loginAs("op@prefeitura.gov.br", models.PERFIL_OPERADOR)
	env.comentario("x", models.SENTIMENTO_NEGATIVO, env.clock().Add(-time.Minute))

	w := env.do(http.MethodGet, "/api/dashboard/por-dia", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	series := decode[struct {
		Series []perDayPoint `json:"series"`
	}](t, w).Series
	require.Len(t, series, 7)
	assert.Equal(t, int64(1), series[6].Total+series[5].Total)
}

func TestComentarios(t *testing.T) {
	env := newTestEnv(t)
	token := env.loginAs("op@prefeitura.gov.br", models.PERFIL_OPERADOR)

	w := env.do(http.MethodPost, "/api/comentarios", token, gin.H{
		"plataforma": "Instagram", "texto": "Buraco na rua da escola", "autor": "@morador", "tema": "obras",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode[models.Comentario](t, w)
	assert.Equal(t, "instagram", created.Plataforma)
	assert.Equal(t, models.SENTIMENTO_NEUTRO, created.Sentimento)
	require.NotNil(t, created.PublicadoEm)

	w = env.do(http.MethodPost, "/api/comentarios", token, gin.H{"plataforma": "x", "texto": "a", "sentimento": "bravo"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = env.do(http.MethodPost, "/api/comentarios", token, gin.H{"plataforma": "x"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	path := "/api/comentarios/" + itoa(created.ID) + "/sentimento"
	w = env.do(http.MethodPatch, path, token, gin.H{"sentimento": "NEGATIVO", "score": -0.8})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	updated := decode[models.Comentario](t, w)
	assert.Equal(t, models.SENTIMENTO_NEGATIVO, updated.Sentimento)
	assert.Equal(t, -0.8, updated.Score)

	assert.Equal(t, http.StatusBadRequest, env.do(http.MethodPatch, path, token, gin.H{"sentimento": "?"}).Code)
	assert.Equal(t, http.StatusNotFound, env.do(http.MethodPatch, "/api/comentarios/999/sentimento", token, gin.H{"sentimento": "neutro"}).Code)

	w = env.do(http.MethodGet, "/api/comentarios?sentimento=negativo&q=escola", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, int64(1), decode[struct {
		Total int64 `json:"total"`
	}](t, w).Total)

	w = env.do(http.MethodGet, "/api/comentarios?tema=saude", token, nil)
	assert.Equal(t, int64(0), decode[struct {
		Total int64 `json:"total"`
	}](t, w).Total)
}

func TestAlertas(t *testing.T) {
	env := newTestEnv(t)
	token := env.loginAs("gestor@prefeitura.gov.br", models.PERFIL_GESTOR)

	w := env.do(http.MethodPost, "/api/alertas", token, gin.H{"titulo": "Reclamações sobre coleta", "status": "resolvido"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	alerta := decode[models.AlertaCriseNotificacao](t, w)
	assert.Equal(t, models.ALERTA_NIVEL_MEDIO, alerta.Nivel)
	assert.Equal(t, models.ALERTA_STATUS_ATIVO, alerta.Status)
	assert.Equal(t, models.ALERTA_ORIGEM_MANUAL, alerta.Origem)

	assert.Equal(t, http.StatusBadRequest, env.do(http.MethodPost, "/api/alertas", token, gin.H{"titulo": ""}).Code)
	assert.Equal(t, http.StatusBadRequest, env.do(http.MethodPost, "/api/alertas", token, gin.H{"titulo": "x", "nivel": "enorme"}).Code)

	base := "/api/alertas/" + itoa(alerta.ID)
	w = env.do(http.MethodPatch, base+"/lida", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, decode[models.AlertaCriseNotificacao](t, w).Lida)

	w = env.do(http.MethodGet, "/api/alertas?status=ativo&lida=true", token, nil)
	assert.Equal(t, int64(1), decode[struct {
		Total int64 `json:"total"`
	}](t, w).Total)

	w = env.do(http.MethodPatch, base+"/resolver", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	resolved := decode[models.AlertaCriseNotificacao](t, w)
	assert.Equal(t, models.ALERTA_STATUS_RESOLVIDO, resolved.Status)
	assert.NotZero(t, resolved.ResolvidoPor)
	assert.NotNil(t, resolved.ResolvidoEm)

	assert.Equal(t, http.StatusConflict, env.do(http.MethodPatch, base+"/resolver", token, nil).Code)
	assert.Equal(t, http.StatusNotFound, env.do(http.MethodPatch, "/api/alertas/999/lida", token, nil).Code)
}
