package controllers

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	dbpkg "painel/db"
	"painel/logger"
	"painel/metrics"
	"painel/models"
	"painel/tools"

	"github.com/gin-gonic/gin"
	"github.com/jinzhu/gorm"
	"go.uber.org/zap"
)

type heartbeatRequest struct {
	IdleSeconds int64 `json:"idle_seconds"`
}

// closeRequest chega via sendBeacon, em geral como text/plain.
type closeRequest struct {
	Token  string `json:"token"`
	Motivo string `json:"motivo"`
}

// closeSession encerra e registra; devolve true só quando a sessão ainda estava ativa.
func closeSession(c *gin.Context, db *gorm.DB, user models.UsuarioSistema, sessaoID int64, motivo string) bool {
	closed, err := models.EncerrarSessao(db, sessaoID, motivo, now())
	if err != nil {
		logger.Log.Error("sessao: falha ao encerrar",
			logger.WithSessionID(sessaoID), zap.String("motivo", motivo), zap.Error(err))
		return false
	}
	if !closed {
		return false
	}

	m := metrics.Get()
	m.SessionsClosed.WithLabelValues(motivo).Inc()
	m.SessionsActive.Dec()

	acao := models.ACAO_SESSAO_ENCERRADA
	if motivo == models.MOTIVO_LOGOUT {
		acao = models.ACAO_LOGOUT
	}
	registrar(c, db, user, acao, "sessao", motivo, http.StatusOK)
	return true
}

// POST /api/sessions/heartbeat
func Heartbeat(c *gin.Context) {
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

	var req heartbeatRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			RespondError(c, "payload inválido", http.StatusBadRequest)
			return
		}
	}

	m := metrics.Get()
	idle := time.Duration(req.IdleSeconds) * time.Second
	if limit := services.Config.InactivityTimeout(); limit > 0 && idle > limit {
		closeSession(c, db, user, sessao.ID, models.MOTIVO_INATIVIDADE)
		m.HeartbeatsTotal.WithLabelValues("inatividade").Inc()
		RespondError(c, "sessão encerrada por inatividade", http.StatusUnauthorized)
		return
	}

	at := now()
	extended, err := models.RegistrarHeartbeat(db, sessao.ID, at, services.Config.SessionTTL())
	if err != nil {
		m.HeartbeatsTotal.WithLabelValues("erro").Inc()
		RespondError(c, "erro ao registrar heartbeat", http.StatusInternalServerError)
		return
	}
	if !extended {
		m.HeartbeatsTotal.WithLabelValues("encerrada").Inc()
		RespondError(c, "sessão encerrada ou expirada", http.StatusUnauthorized)
		return
	}

	m.HeartbeatsTotal.WithLabelValues("ok").Inc()
	RespondSuccess(c, gin.H{
		"ok":         true,
		"expires_at": at.Add(services.Config.SessionTTL()),
	})
}

// readCloseRequest aceita JSON em qualquer content-type e token via ?token= ou Bearer.
func readCloseRequest(c *gin.Context) closeRequest {
	var req closeRequest
	if raw, err := c.GetRawData(); err == nil && len(raw) > 0 {
		if err := json.Unmarshal(raw, &req); err != nil {
			logger.Log.Debug("sessao: corpo do beacon ignorado", zap.Error(err))
		}
	}
	if req.Token == "" {
		req.Token = strings.TrimSpace(c.Query("token"))
	}
	if req.Token == "" {
		req.Token = bearerToken(c)
	}
	if req.Motivo == "" {
		req.Motivo = c.Query("motivo")
	}
	return req
}

// endSessionFromToken trata os avisos do navegador. Vencimento do token é
// ignorado; só a assinatura e o vínculo com a sessão importam.
func endSessionFromToken(c *gin.Context, motivo func(closeRequest) string) {
	req := readCloseRequest(c)
	if req.Token == "" {
		RespondError(c, "token é obrigatório", http.StatusBadRequest)
		return
	}
	claims, err := parseToken(req.Token, false)
	if err != nil {
		RespondError(c, "token inválido", http.StatusUnauthorized)
		return
	}

	db, ok := dbpkg.FromContext(c)
	if !ok {
		return
	}

	var user models.UsuarioSistema
	if err := db.First(&user, claims.UserID).Error; err != nil {
		user = models.UsuarioSistema{ID: claims.UserID, Email: claims.Email}
	}

	// sessão de outro token, token já rotacionado ou sessão encerrada: nada a
	// fazer, mas o cliente não precisa saber
	var sessao models.SessaoAtiva
	if err := db.First(&sessao, claims.SessionID).Error; err == nil &&
		sessao.UsuarioID == claims.UserID &&
		sessao.ChaveHash == tools.EncryptTextSHA512(claims.ID) {
		closeSession(c, db, user, sessao.ID, motivo(req))
	}
	c.Status(http.StatusNoContent)
}

// POST /api/sessions/close
func CloseSession(c *gin.Context) {
	endSessionFromToken(c, func(r closeRequest) string { return models.MotivoCliente(r.Motivo) })
}

// POST /api/sessions/orphan
func OrphanSession(c *gin.Context) {
	endSessionFromToken(c, func(closeRequest) string { return models.MOTIVO_ORFA })
}

// GET /api/sessions
// Query params: usuario_id, limit, offset
func ListSessions(c *gin.Context) {
	db, ok := dbpkg.FromContext(c)
	if !ok {
		return
	}

	limit := clampInt(queryInt(c, "limit", 100), 1, 500)
	offset := clampInt(queryInt(c, "offset", 0), 0, 1_000_000)

	query := db.Model(&models.SessaoAtiva{}).Where("ativa = ? AND expires_at >= ?", true, now())
	if uid := queryInt(c, "usuario_id", 0); uid > 0 {
		query = query.Where("usuario_id = ?", uid)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		RespondError(c, err.Error(), http.StatusBadRequest)
		return
	}

	var sessoes []models.SessaoAtiva
	if err := query.Order("last_activity desc").Limit(limit).Offset(offset).Find(&sessoes).Error; err != nil {
		RespondError(c, err.Error(), http.StatusBadRequest)
		return
	}

	RespondSuccess(c, gin.H{
		"total":   total,
		"limit":   limit,
		"offset":  offset,
		"sessoes": sessoes,
	})
}
