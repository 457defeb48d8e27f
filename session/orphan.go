package session

import (
	"context"

	"painel/logger"

	"go.uber.org/zap"
)

// IsOrphaned: há credencial guardada mas nenhuma sessão viva em memória,
// ou seja, o processo anterior morreu sem avisar.
func IsOrphaned(storedToken string, live bool) bool {
	return storedToken != "" && !live
}

// RecoverOrphan encerra no servidor a sessão órfã. Erros só são logados.
// Devolve true quando havia órfã.
func RecoverOrphan(ctx context.Context, client *Client, storedToken string, live bool) bool {
	if !IsOrphaned(storedToken, live) {
		return false
	}
	if err := client.ReportOrphan(ctx, storedToken); err != nil {
		logger.Log.Info("session: falha ao encerrar sessão órfã", zap.Error(err))
	}
	return true
}
