package controllers

import (
	"errors"
	"net/http"
	"strings"

	"painel/logger"
	"painel/metrics"
	"painel/tools"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// GET /api/image-proxy?url=
// Busca a imagem no servidor de origem e devolve os bytes com cache de 1 dia.
func ImageProxy(c *gin.Context) {
	raw := strings.TrimSpace(c.Query("url"))
	if raw == "" {
		RespondError(c, "URL da imagem é obrigatória", http.StatusBadRequest)
		return
	}
	if services.Images == nil {
		RespondError(c, "proxy de imagens não configurado", http.StatusInternalServerError)
		return
	}

	m := metrics.Get()
	img, err := services.Images.Fetch(c.Request.Context(), raw)
	if err != nil {
		status := tools.StatusFor(err)
		m.ImageProxyFetches.WithLabelValues(http.StatusText(status)).Inc()
		if status == http.StatusBadGateway {
			// detalhes de rede ficam só no log
			logger.Log.Warn("image-proxy: falha no host de origem", zap.String("url", raw), zap.Error(err))
			RespondError(c, "falha ao buscar imagem no host de origem", status)
			return
		}
		logger.Log.Debug("image-proxy: recusada", zap.String("url", raw), zap.Int("status", status), zap.Error(err))
		RespondError(c, err.Error(), status)
		return
	}

	m.ImageProxyFetches.WithLabelValues(http.StatusText(http.StatusOK)).Inc()
	c.Header("Cache-Control", "public, max-age=86400")
	c.Data(http.StatusOK, img.ContentType, img.Body)
}

type deleteFileRequest struct {
	GoogleDriveURL string `json:"googleDriveUrl"`
	FileName       string `json:"fileName"`
	ClientName     string `json:"clientName"`
}

// POST /api/drive/delete-file
func DeleteDriveFile(c *gin.Context) {
	var req deleteFileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, "payload inválido", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.GoogleDriveURL) == "" {
		RespondError(c, "googleDriveUrl é obrigatório", http.StatusBadRequest)
		return
	}

	fileID, err := tools.ExtractDriveFileID(req.GoogleDriveURL)
	if err != nil {
		RespondError(c, err.Error(), http.StatusBadRequest)
		return
	}
	if services.Drive == nil {
		RespondError(c, tools.ErrCredenciais.Error(), http.StatusInternalServerError)
		return
	}

	err = services.Drive.DeleteFile(c.Request.Context(), fileID)
	metrics.Get().DriveDeletes.WithLabelValues(driveStatusLabel(err)).Inc()
	switch {
	case err == nil:
	case errors.Is(err, tools.ErrCredenciais):
		logger.Log.Error("drive: credenciais inválidas", zap.Error(err))
		RespondError(c, tools.ErrCredenciais.Error(), http.StatusInternalServerError)
		return
	case errors.Is(err, tools.ErrDriveNotFound):
		RespondError(c, err.Error(), http.StatusNotFound)
		return
	default:
		logger.Log.Warn("drive: falha ao apagar arquivo", zap.String("file_id", fileID), zap.Error(err))
		RespondError(c, "falha ao apagar arquivo no Google Drive", http.StatusBadGateway)
		return
	}

	logger.Log.Info("drive: arquivo apagado",
		zap.String("file_id", fileID), zap.String("file_name", req.FileName), zap.String("client_name", req.ClientName))
	RespondSuccess(c, gin.H{
		"success":    true,
		"fileId":     fileID,
		"fileName":   req.FileName,
		"clientName": req.ClientName,
	})
}

func Health(c *gin.Context) {
	RespondSuccess(c, gin.H{"status": "ok", "time": now()})
}
