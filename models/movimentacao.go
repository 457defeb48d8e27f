package models

import (
	"time"

	"github.com/jinzhu/gorm"
)

const ACAO_LOGIN = "login"
const ACAO_LOGIN_FALHOU = "login_falhou"
const ACAO_LOGOUT = "logout"
const ACAO_SESSAO_ENCERRADA = "sessao_encerrada"

// RegistroMovimentacao é o log de acesso/atividade exibido na área administrativa.
type RegistroMovimentacao struct {
	ID           int64      `gorm:"primary_key;AUTO_INCREMENT" json:"id"`
	UsuarioID    int64      `gorm:"default:0;index" json:"usuario_id"`
	UsuarioEmail string     `gorm:"default:''" json:"usuario_email"`
	Acao         string     `gorm:"not null;index" json:"acao"`
	Recurso      string     `gorm:"default:''" json:"recurso"`
	Detalhes     string     `gorm:"type:text" json:"detalhes"`
	Status       int        `gorm:"default:0" json:"status"`
	IP           string     `gorm:"column:ip;default:''" json:"ip"`
	UserAgent    string     `gorm:"default:''" json:"user_agent"`
	CreatedAt    *time.Time `gorm:"index" json:"created_at"`
}

func (RegistroMovimentacao) TableName() string { return "registro_movimentacoes" }

// RegistrarMovimentacao grava o registro sem interromper o fluxo chamador.
func RegistrarMovimentacao(db *gorm.DB, r RegistroMovimentacao) error {
	return db.Create(&r).Error
}
