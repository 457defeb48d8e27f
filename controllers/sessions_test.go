package controllers

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"painel/models"
	"painel/session"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (e *testEnv) sessao(id int64) models.SessaoAtiva {
	e.t.Helper()
	var s models.SessaoAtiva
	require.NoError(e.t, e.db.First(&s, id).Error)
	return s
}

func (e *testEnv) countAcao(acao string) int {
	var n int
	e.db.Model(&models.RegistroMovimentacao{}).Where("acao = ?", acao).Count(&n)
	return n
}

func TestLoginHeartbeatLogout(t *testing.T) {
	env := newTestEnv(t)
	env.createUser("ana@prefeitura.gov.br", models.PERFIL_OPERADOR)

	resp := env.login("ANA@prefeitura.gov.br ")
	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, "ana@prefeitura.gov.br", resp.Usuario.Email)
	assert.Equal(t, 30, resp.HeartbeatSeconds)

	s := env.sessao(resp.SessaoID)
	assert.True(t, s.Ativa)
	assert.NotEmpty(t, s.ChaveHash)
	assert.NotContains(t, env.do(http.MethodGet, "/api/me", resp.Token, nil).Body.String(), "senha_hash")

	env.advance(20 * time.Minute)
	w := env.do(http.MethodPost, "/api/sessions/heartbeat", resp.Token, gin.H{"idle_seconds": 10})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	s = env.sessao(resp.SessaoID)
	assert.WithinDuration(t, env.clock().Add(30*time.Minute), *s.ExpiresAt, time.Second)

	w = env.do(http.MethodPost, "/api/logout", resp.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	s = env.sessao(resp.SessaoID)
	assert.False(t, s.Ativa)
	assert.Equal(t, models.MOTIVO_LOGOUT, s.MotivoEncerramento)

	w = env.do(http.MethodGet, "/api/me", resp.Token, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	w = env.do(http.MethodPost, "/api/sessions/heartbeat", resp.Token, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	assert.Equal(t, 1, env.countAcao(models.ACAO_LOGIN))
	assert.Equal(t, 1, env.countAcao(models.ACAO_LOGOUT))
}

func TestMonitorUsesConfiguredHeartbeat(t *testing.T) {
	env := newTestEnv(t)
	env.conf.Sessions.HeartbeatSeconds = 12
	SetServices(Services{Config: env.conf, Now: env.clock})
	env.createUser("bia@prefeitura.gov.br", models.PERFIL_OPERADOR)

	srv := httptest.NewServer(env.r)
	defer srv.Close()

	client := session.NewClient(srv.URL, 2*time.Second)
	res, err := client.Login(context.Background(), "bia@prefeitura.gov.br", senhaTeste)
	require.NoError(t, err)
	assert.Equal(t, 12, res.HeartbeatSeconds)
	assert.Equal(t, 12*time.Second, session.NewMonitor(client).Interval)

	require.NoError(t, client.Heartbeat(context.Background(), time.Second))
	require.NoError(t, client.Close(context.Background(), "logout"))
	assert.False(t, env.sessao(res.SessaoID).Ativa)
}

func TestLoginRejections(t *testing.T) {
	env := newTestEnv(t)
	u := env.createUser("bia@prefeitura.gov.br", models.PERFIL_OPERADOR)

	w := env.do(http.MethodPost, "/api/login", "", gin.H{"email": "bia@prefeitura.gov.br", "senha": "errada"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	w = env.do(http.MethodPost, "/api/login", "", gin.H{"email": "ninguem@x.com", "senha": senhaTeste})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	w = env.do(http.MethodPost, "/api/login", "", gin.H{"email": ""})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, 2, env.countAcao(models.ACAO_LOGIN_FALHOU))

	require.NoError(t, env.db.Model(&u).Update("ativo", false).Error)
	w = env.do(http.MethodPost, "/api/login", "", gin.H{"email": "bia@prefeitura.gov.br", "senha": senhaTeste})
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestDeactivatedUserLosesAccess(t *testing.T) {
	env := newTestEnv(t)
	u := env.createUser("caio@prefeitura.gov.br", models.PERFIL_OPERADOR)
	token := env.login(u.Email).Token

	require.NoError(t, env.db.Model(&u).Update("ativo", false).Error)
	w := env.do(http.MethodGet, "/api/me", token, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestHeartbeatInactivityClosesSession(t *testing.T) {
	env := newTestEnv(t)
	env.createUser("davi@prefeitura.gov.br", models.PERFIL_OPERADOR)
	resp := env.login("davi@prefeitura.gov.br")

	w := env.do(http.MethodPost, "/api/sessions/heartbeat", resp.Token, gin.H{"idle_seconds": 2 * 3600})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	s := env.sessao(resp.SessaoID)
	assert.False(t, s.Ativa)
	assert.Equal(t, models.MOTIVO_INATIVIDADE, s.MotivoEncerramento)
}

func TestExpiredSessionIsRejected(t *testing.T) {
	env := newTestEnv(t)
	env.createUser("eva@prefeitura.gov.br", models.PERFIL_OPERADOR)
	resp := env.login("eva@prefeitura.gov.br")

	env.advance(31 * time.Minute)
	w := env.do(http.MethodGet, "/api/me", resp.Token, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	w = env.do(http.MethodPost, "/api/sessions/heartbeat", resp.Token, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCloseSessionBeacon(t *testing.T) {
	env := newTestEnv(t)
	env.createUser("fabio@prefeitura.gov.br", models.PERFIL_OPERADOR)
	resp := env.login("fabio@prefeitura.gov.br")

	// sendBeacon manda text/plain
	body := fmt.Sprintf(`{"token":%q,"motivo":"pagehide"}`, resp.Token)
	w := env.do(http.MethodPost, "/api/sessions/close", "", body)
	require.Equal(t, http.StatusNoContent, w.Code, w.Body.String())

	s := env.sessao(resp.SessaoID)
	assert.False(t, s.Ativa)
	assert.Equal(t, models.MOTIVO_PAGEHIDE, s.MotivoEncerramento)
	assert.Equal(t, 1, env.countAcao(models.ACAO_SESSAO_ENCERRADA))

	// repetido: continua 204, nada muda
	w = env.do(http.MethodPost, "/api/sessions/close", "", body)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, 1, env.countAcao(models.ACAO_SESSAO_ENCERRADA))

	w = env.do(http.MethodPost, "/api/sessions/close", "", `{"token":"nao-e-jwt"}`)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	w = env.do(http.MethodPost, "/api/sessions/close", "", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCloseSessionUnknownMotivoAndExpiredToken(t *testing.T) {
	env := newTestEnv(t)
	env.createUser("gil@prefeitura.gov.br", models.PERFIL_OPERADOR)
	resp := env.login("gil@prefeitura.gov.br")

	// token vencido ainda serve para avisar o fechamento
	env.advance(TOKEN_TTL + time.Hour)
	w := env.do(http.MethodPost, "/api/sessions/close?token="+resp.Token, "", `{"motivo":"qualquer"}`)
	require.Equal(t, http.StatusNoContent, w.Code)

	s := env.sessao(resp.SessaoID)
	assert.Equal(t, models.MOTIVO_UNLOAD, s.MotivoEncerramento)
}

func TestOrphanSession(t *testing.T) {
	env := newTestEnv(t)
	env.createUser("hugo@prefeitura.gov.br", models.PERFIL_OPERADOR)
	resp := env.login("hugo@prefeitura.gov.br")

	w := env.do(http.MethodPost, "/api/sessions/orphan?token="+resp.Token, "", nil)
	require.Equal(t, http.StatusNoContent, w.Code)

	s := env.sessao(resp.SessaoID)
	assert.False(t, s.Ativa)
	assert.Equal(t, models.MOTIVO_ORFA, s.MotivoEncerramento)
}

func TestRefreshRotatesToken(t *testing.T) {
	env := newTestEnv(t)
	env.createUser("iris@prefeitura.gov.br", models.PERFIL_OPERADOR)
	old := env.login("iris@prefeitura.gov.br").Token

	w := env.do(http.MethodPost, "/api/refresh", old, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	fresh := decode[RefreshResponse](t, w).Token
	require.NotEqual(t, old, fresh)

	assert.Equal(t, http.StatusUnauthorized, env.do(http.MethodGet, "/api/me", old, nil).Code)
	assert.Equal(t, http.StatusOK, env.do(http.MethodGet, "/api/me", fresh, nil).Code)
}

func TestRotatedTokenCannotCloseSession(t *testing.T) {
	env := newTestEnv(t)
	env.createUser("jade@prefeitura.gov.br", models.PERFIL_OPERADOR)
	resp := env.login("jade@prefeitura.gov.br")

	w := env.do(http.MethodPost, "/api/refresh", resp.Token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	fresh := decode[RefreshResponse](t, w).Token

	// token antigo guardado numa aba velha: 204, mas a sessão segue viva
	body := fmt.Sprintf(`{"token":%q,"motivo":"pagehide"}`, resp.Token)
	assert.Equal(t, http.StatusNoContent, env.do(http.MethodPost, "/api/sessions/close", "", body).Code)
	assert.Equal(t, http.StatusNoContent, env.do(http.MethodPost, "/api/sessions/orphan?token="+resp.Token, "", nil).Code)

	s := env.sessao(resp.SessaoID)
	assert.True(t, s.Ativa)
	assert.Empty(t, s.MotivoEncerramento)
	assert.Zero(t, env.countAcao(models.ACAO_SESSAO_ENCERRADA))
	assert.Equal(t, http.StatusOK, env.do(http.MethodGet, "/api/me", fresh, nil).Code)

	body = fmt.Sprintf(`{"token":%q,"motivo":"pagehide"}`, fresh)
	assert.Equal(t, http.StatusNoContent, env.do(http.MethodPost, "/api/sessions/close", "", body).Code)
	assert.False(t, env.sessao(resp.SessaoID).Ativa)
}

func TestListSessions(t *testing.T) {
	env := newTestEnv(t)
	admin := env.loginAs("admin@prefeitura.gov.br", models.PERFIL_ADMIN)
	env.loginAs("joao@prefeitura.gov.br", models.PERFIL_OPERADOR)

	w := env.do(http.MethodGet, "/api/sessions", admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode[struct {
		Total   int64                `json:"total"`
		Sessoes []models.SessaoAtiva `json:"sessoes"`
	}](t, w)
	assert.Equal(t, int64(2), body.Total)
	assert.Len(t, body.Sessoes, 2)
}
