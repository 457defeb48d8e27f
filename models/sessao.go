package models

import (
	"time"

	"github.com/jinzhu/gorm"
)

/************************************************
/**** MARK: MOTIVOS DE ENCERRAMENTO ****/
/************************************************/
const MOTIVO_LOGOUT = "logout"
const MOTIVO_BEFOREUNLOAD = "beforeunload"
const MOTIVO_VISIBILITYCHANGE = "visibilitychange"
const MOTIVO_PAGEHIDE = "pagehide"
const MOTIVO_UNLOAD = "unload"
const MOTIVO_ORFA = "orfa"
const MOTIVO_EXPIRADA = "expirada"
const MOTIVO_INATIVIDADE = "inatividade"

var motivosCliente = map[string]bool{
	MOTIVO_LOGOUT:           true,
	MOTIVO_BEFOREUNLOAD:     true,
	MOTIVO_VISIBILITYCHANGE: true,
	MOTIVO_PAGEHIDE:         true,
	MOTIVO_UNLOAD:           true,
}

// MotivoCliente normaliza o motivo enviado pelo navegador; desconhecido vira "unload".
func MotivoCliente(m string) string {
	if motivosCliente[m] {
		return m
	}
	return MOTIVO_UNLOAD
}

// SessaoAtiva é a linha de sessão mantida viva pelo heartbeat do cliente.
type SessaoAtiva struct {
	ID                 int64      `gorm:"primary_key;AUTO_INCREMENT" json:"id"`
	UsuarioID          int64      `gorm:"not null;index" json:"usuario_id"`
	ChaveHash          string     `gorm:"not null;index" json:"-"`
	IP                 string     `gorm:"column:ip;default:''" json:"ip"`
	UserAgent          string     `gorm:"default:''" json:"user_agent"`
	Ativa              bool       `gorm:"not null;default:true;index" json:"ativa"`
	LastActivity       *time.Time `gorm:"column:last_activity" json:"last_activity"`
	ExpiresAt          *time.Time `gorm:"column:expires_at;index" json:"expires_at"`
	EncerradaEm        *time.Time `json:"encerrada_em"`
	MotivoEncerramento string     `gorm:"default:''" json:"motivo_encerramento"`
	CreatedAt          *time.Time `json:"created_at"`
	UpdatedAt          *time.Time `json:"updated_at"`
}

func (SessaoAtiva) TableName() string { return "sessoes_ativas" }

func (s SessaoAtiva) IsExpired(now time.Time) bool {
	if s.ExpiresAt == nil {
		return false
	}
	return now.After(*s.ExpiresAt)
}

// Valida indica se a sessão ainda autoriza requisições.
func (s SessaoAtiva) Valida(now time.Time) bool {
	return s.Ativa && !s.IsExpired(now)
}

// RegistrarHeartbeat estende a sessão; devolve false se ela já não estava ativa.
func RegistrarHeartbeat(db *gorm.DB, id int64, now time.Time, ttl time.Duration) (bool, error) {
	exp := now.Add(ttl)
	res := db.Model(&SessaoAtiva{ID: id}).
		Where("ativa = ?", true).
		Updates(map[string]interface{}{
			"last_activity": now,
			"expires_at":    exp,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// EncerrarSessao marca a sessão como encerrada. Só afeta sessões ainda ativas,
// então chamadas repetidas (beacon + logout) são inofensivas.
func EncerrarSessao(db *gorm.DB, id int64, motivo string, now time.Time) (bool, error) {
	res := db.Model(&SessaoAtiva{ID: id}).
		Where("ativa = ?", true).
		Updates(map[string]interface{}{
			"ativa":               false,
			"encerrada_em":        now,
			"motivo_encerramento": motivo,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// ExpiredSessionIDs lista sessões ativas cujo expires_at já passou.
func ExpiredSessionIDs(db *gorm.DB, now time.Time, limit int) ([]int64, error) {
	var ids []int64
	err := db.Model(&SessaoAtiva{}).
		Where("ativa = ? AND expires_at IS NOT NULL AND expires_at < ?", true, now).
		Order("expires_at asc").
		Limit(limit).
		Pluck("id", &ids).Error
	return ids, err
}
