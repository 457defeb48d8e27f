package models

import (
	"strings"
	"time"

	"painel/tools"
)

/************************************************
/**** MARK: PERFIS ****/
/************************************************/
const PERFIL_ADMIN = "admin"
const PERFIL_GESTOR = "gestor"
const PERFIL_OPERADOR = "operador"
const PERFIL_VISUALIZADOR = "visualizador"

var perfis = map[string]bool{
	PERFIL_ADMIN:        true,
	PERFIL_GESTOR:       true,
	PERFIL_OPERADOR:     true,
	PERFIL_VISUALIZADOR: true,
}

func PerfilValido(p string) bool {
	return perfis[p]
}

// UsuarioSistema representa um servidor com acesso ao painel.
type UsuarioSistema struct {
	ID           int64      `gorm:"primary_key;AUTO_INCREMENT" json:"id"`
	Nome         string     `gorm:"not null" json:"nome" form:"nome"`
	Email        string     `gorm:"not null;unique_index" json:"email" form:"email"`
	SenhaHash    string     `gorm:"not null" json:"-"`
	Perfil       string     `gorm:"not null;default:'operador'" json:"perfil" form:"perfil"`
	Secretaria   string     `gorm:"default:''" json:"secretaria" form:"secretaria"`
	Telefone     string     `gorm:"default:''" json:"telefone" form:"telefone"`
	Ativo        bool       `gorm:"not null;default:true" json:"ativo"`
	UltimoAcesso *time.Time `json:"ultimo_acesso"`
	CreatedAt    *time.Time `json:"created_at"`
	UpdatedAt    *time.Time `json:"updated_at"`
}

func (UsuarioSistema) TableName() string { return "usuarios_sistema" }

func (u UsuarioSistema) IsAdmin() bool {
	return u.Perfil == PERFIL_ADMIN
}

// NovoUsuario é o payload de criação (a senha nunca volta na resposta).
type NovoUsuario struct {
	Nome       string `json:"nome" form:"nome"`
	Email      string `json:"email" form:"email"`
	Senha      string `json:"senha" form:"senha"`
	Perfil     string `json:"perfil" form:"perfil"`
	Secretaria string `json:"secretaria" form:"secretaria"`
	Telefone   string `json:"telefone" form:"telefone"`
}

func (n NovoUsuario) MissingFields() string {
	if strings.TrimSpace(n.Nome) == "" {
		return "nome"
	} else if n.Email == "" {
		return "email"
	} else if n.Senha == "" {
		return "senha"
	} else if tools.CheckPassword(n.Senha) != "" {
		return tools.CheckPassword(n.Senha)
	}
	return ""
}
