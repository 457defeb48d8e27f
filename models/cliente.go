package models

import (
	"strings"
	"time"

	"painel/tools"
)

const TIPO_PESSOA_FISICA = "PF"
const TIPO_PESSOA_JURIDICA = "PJ"

const CLIENTE_STATUS_ATIVO = "ativo"
const CLIENTE_STATUS_INATIVO = "inativo"

// CadastroCliente é um registro de munícipe (PF) ou empresa (PJ) atendido pela prefeitura.
type CadastroCliente struct {
	ID           int64      `gorm:"primary_key;AUTO_INCREMENT" json:"id"`
	TipoPessoa   string     `gorm:"not null;default:'PF'" json:"tipo_pessoa" form:"tipo_pessoa"`
	Nome         string     `gorm:"not null" json:"nome" form:"nome"`
	NomeFantasia string     `gorm:"default:''" json:"nome_fantasia" form:"nome_fantasia"`
	CPF          string     `gorm:"column:cpf;default:'';index" json:"cpf" form:"cpf"`
	CNPJ         string     `gorm:"column:cnpj;default:'';index" json:"cnpj" form:"cnpj"`
	Email        string     `gorm:"default:''" json:"email" form:"email"`
	Telefone     string     `gorm:"default:''" json:"telefone" form:"telefone"`
	CEP          string     `gorm:"column:cep;default:''" json:"cep" form:"cep"`
	Logradouro   string     `gorm:"default:''" json:"logradouro" form:"logradouro"`
	Numero       string     `gorm:"default:''" json:"numero" form:"numero"`
	Complemento  string     `gorm:"default:''" json:"complemento" form:"complemento"`
	Bairro       string     `gorm:"default:'';index" json:"bairro" form:"bairro"`
	Cidade       string     `gorm:"default:''" json:"cidade" form:"cidade"`
	UF           string     `gorm:"column:uf;default:''" json:"uf" form:"uf"`
	Observacoes  string     `gorm:"type:text" json:"observacoes" form:"observacoes"`
	Status       string     `gorm:"not null;default:'ativo';index" json:"status" form:"status"`
	CriadoPor    int64      `gorm:"default:0" json:"criado_por"`
	CreatedAt    *time.Time `json:"created_at"`
	UpdatedAt    *time.Time `json:"updated_at"`
}

func (CadastroCliente) TableName() string { return "cadastro_clientes" }

// Normalize guarda documentos só com dígitos e aplica as máscaras de telefone e CEP.
func (c *CadastroCliente) Normalize() {
	c.Nome = strings.TrimSpace(c.Nome)
	c.TipoPessoa = strings.ToUpper(strings.TrimSpace(c.TipoPessoa))
	if c.TipoPessoa == "" {
		c.TipoPessoa = TIPO_PESSOA_FISICA
	}
	c.CPF = tools.OnlyDigits(c.CPF)
	c.CNPJ = tools.OnlyDigits(c.CNPJ)
	c.Telefone = tools.FormatPhone(strings.TrimSpace(c.Telefone))
	c.CEP = tools.FormatCEP(strings.TrimSpace(c.CEP))
	c.UF = strings.ToUpper(strings.TrimSpace(c.UF))
	c.Email = strings.ToLower(strings.TrimSpace(c.Email))
	if c.Status == "" {
		c.Status = CLIENTE_STATUS_ATIVO
	}
}

// Invalid devolve o primeiro campo inválido ou "". Espera Normalize antes.
func (c CadastroCliente) Invalid() string {
	if c.Nome == "" {
		return "nome"
	}
	switch c.TipoPessoa {
	case TIPO_PESSOA_FISICA:
		if !tools.IsCPFValid(c.CPF) {
			return "cpf"
		}
	case TIPO_PESSOA_JURIDICA:
		if !tools.IsCNPJValid(c.CNPJ) {
			return "cnpj"
		}
	default:
		return "tipo_pessoa"
	}
	if c.Email != "" && !tools.ValidateEmail(c.Email) {
		return "email"
	}
	if c.CEP != "" && !tools.IsCEPValid(c.CEP) {
		return "cep"
	}
	if c.Status != CLIENTE_STATUS_ATIVO && c.Status != CLIENTE_STATUS_INATIVO {
		return "status"
	}
	return ""
}

// Documento devolve a coluna e o valor do documento principal.
func (c CadastroCliente) Documento() (string, string) {
	if c.TipoPessoa == TIPO_PESSOA_JURIDICA {
		return "cnpj", c.CNPJ
	}
	return "cpf", c.CPF
}
