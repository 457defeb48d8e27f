package controllers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	dbpkg "painel/db"
	"painel/logger"
	"painel/metrics"
	"painel/models"
	"painel/tools"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const DRIVE_DELETE_TIMEOUT = 30 * time.Second

// GET /api/campanhas/:id/imagens
func ListImagens(c *gin.Context) {
	id, ok := ParamID(c, "id")
	if !ok {
		return
	}
	db, ok := dbpkg.FromContext(c)
	if !ok {
		return
	}

	var imagens []models.MarketingImagem
	if err := db.Where("campanha_id = ?", id).Order("created_at asc").Find(&imagens).Error; err != nil {
		RespondError(c, err.Error(), http.StatusBadRequest)
		return
	}
	RespondSuccess(c, gin.H{"imagens": imagens})
}

// POST /api/campanhas/:id/imagens
// Body: {nome_arquivo, google_drive_url, cliente_nome}
func CreateImagem(c *gin.Context) {
	id, ok := ParamID(c, "id")
	if !ok {
		return
	}
	db, ok := dbpkg.FromContext(c)
	if !ok {
		return
	}
	user, _ := GetUserLogged(c)

	var campanha models.MarketingCampanha
	if err := db.First(&campanha, id).Error; err != nil {
		RespondError(c, "campanha não encontrada", http.StatusNotFound)
		return
	}
	if campanha.Status == models.CAMPANHA_ARQUIVADA {
		RespondError(c, "campanha arquivada não pode ser alterada", http.StatusConflict)
		return
	}

	var img models.MarketingImagem
	if err := c.ShouldBindJSON(&img); err != nil {
		RespondError(c, err.Error(), http.StatusBadRequest)
		return
	}
	img.NomeArquivo = strings.TrimSpace(img.NomeArquivo)
	if img.NomeArquivo == "" {
		RespondError(c, "Faltando campo nome_arquivo", http.StatusBadRequest)
		return
	}
	fileID, err := tools.ExtractDriveFileID(img.GoogleDriveURL)
	if err != nil {
		RespondError(c, err.Error(), http.StatusBadRequest)
		return
	}

	img.ID = 0
	img.CampanhaID = campanha.ID
	img.DriveFileID = fileID
	img.EnviadoPor = user.ID
	if img.ClienteNome == "" {
		img.ClienteNome = campanha.ClienteNome
	}

	if err := db.Create(&img).Error; err != nil {
		RespondError(c, err.Error(), http.StatusBadRequest)
		return
	}
	c.JSON(http.StatusCreated, img)
}

// DELETE /api/imagens/:id
// Apaga a linha e, em seguida, o arquivo no Drive (falha no Drive só vira log).
func DeleteImagem(c *gin.Context) {
	id, ok := ParamID(c, "id")
	if !ok {
		return
	}
	db, ok := dbpkg.FromContext(c)
	if !ok {
		return
	}

	var img models.MarketingImagem
	if err := db.First(&img, id).Error; err != nil {
		RespondError(c, "imagem não encontrada", http.StatusNotFound)
		return
	}
	if err := db.Delete(&img).Error; err != nil {
		RespondError(c, err.Error(), http.StatusBadRequest)
		return
	}

	driveErr := deleteDriveFileBestEffort(c, img)
	RespondSuccess(c, gin.H{
		"ok":            true,
		"id":            id,
		"drive_removed": driveErr == nil,
	})
}

// deleteDriveFileBestEffort roda com contexto próprio para não depender da requisição.
func deleteDriveFileBestEffort(c *gin.Context, img models.MarketingImagem) error {
	if services.Drive == nil {
		return errors.New("drive não configurado")
	}
	fileID := img.DriveFileID
	if fileID == "" {
		var err error
		if fileID, err = tools.ExtractDriveFileID(img.GoogleDriveURL); err != nil {
			return err
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), DRIVE_DELETE_TIMEOUT)
	defer cancel()

	err := services.Drive.DeleteFile(ctx, fileID)
	metrics.Get().DriveDeletes.WithLabelValues(driveStatusLabel(err)).Inc()
	if err != nil {
		logger.Log.Warn("imagem: falha ao apagar arquivo no Drive",
			zap.Int64("imagem_id", img.ID), zap.String("file_id", fileID), zap.Error(err))
	}
	return err
}

func driveStatusLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, tools.ErrDriveNotFound):
		return "not_found"
	case errors.Is(err, tools.ErrCredenciais):
		return "credenciais"
	}
	return "erro"
}
