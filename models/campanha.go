package models

import (
	"errors"
	"time"
)

/************************************************
/**** MARK: STATUS DE CAMPANHA ****/
/************************************************/
const CAMPANHA_RASCUNHO = "rascunho"
const CAMPANHA_EM_APROVACAO = "em_aprovacao"
const CAMPANHA_APROVADA = "aprovada"
const CAMPANHA_REJEITADA = "rejeitada"
const CAMPANHA_PUBLICADA = "publicada"
const CAMPANHA_ARQUIVADA = "arquivada"

var ErrTransicaoInvalida = errors.New("transição de status inválida")

var transicoesCampanha = map[string][]string{
	CAMPANHA_RASCUNHO:     {CAMPANHA_EM_APROVACAO},
	CAMPANHA_EM_APROVACAO: {CAMPANHA_APROVADA, CAMPANHA_REJEITADA},
	CAMPANHA_APROVADA:     {CAMPANHA_PUBLICADA},
	CAMPANHA_REJEITADA:    {CAMPANHA_RASCUNHO},
	CAMPANHA_PUBLICADA:    {},
}

func StatusCampanhaValido(s string) bool {
	if s == CAMPANHA_ARQUIVADA {
		return true
	}
	_, ok := transicoesCampanha[s]
	return ok
}

// PodeTransitar diz se a campanha pode ir de "de" para "para".
// Qualquer status não arquivado pode ser arquivado.
func PodeTransitar(de, para string) bool {
	if de == CAMPANHA_ARQUIVADA {
		return false
	}
	if para == CAMPANHA_ARQUIVADA {
		return StatusCampanhaValido(de)
	}
	for _, s := range transicoesCampanha[de] {
		if s == para {
			return true
		}
	}
	return false
}

// MarketingCampanha é uma campanha de comunicação da prefeitura.
type MarketingCampanha struct {
	ID             int64      `gorm:"primary_key;AUTO_INCREMENT" json:"id"`
	Titulo         string     `gorm:"not null" json:"titulo" form:"titulo"`
	Descricao      string     `gorm:"type:text" json:"descricao" form:"descricao"`
	Secretaria     string     `gorm:"default:''" json:"secretaria" form:"secretaria"`
	Canal          string     `gorm:"default:''" json:"canal" form:"canal"`
	ClienteNome    string     `gorm:"default:''" json:"cliente_nome" form:"cliente_nome"`
	Status         string     `gorm:"not null;default:'rascunho';index" json:"status"`
	DataInicio     *time.Time `json:"data_inicio" form:"data_inicio"`
	DataFim        *time.Time `json:"data_fim" form:"data_fim"`
	Orcamento      float64    `gorm:"default:0" json:"orcamento" form:"orcamento"`
	MotivoRejeicao string     `gorm:"default:''" json:"motivo_rejeicao"`
	CriadoPor      int64      `gorm:"default:0" json:"criado_por"`
	AprovadoPor    int64      `gorm:"default:0" json:"aprovado_por"`
	PublicadaEm    *time.Time `json:"publicada_em"`
	CreatedAt      *time.Time `json:"created_at"`
	UpdatedAt      *time.Time `json:"updated_at"`

	Imagens []MarketingImagem `gorm:"foreignkey:CampanhaID" json:"imagens,omitempty"`
}

func (MarketingCampanha) TableName() string { return "marketing_campanhas" }

func (m MarketingCampanha) MissingFields() string {
	if m.Titulo == "" {
		return "titulo"
	}
	if m.DataInicio != nil && m.DataFim != nil && m.DataFim.Before(*m.DataInicio) {
		return "data_fim"
	}
	return ""
}

// MarketingImagem é uma peça da campanha hospedada no Google Drive.
type MarketingImagem struct {
	ID             int64      `gorm:"primary_key;AUTO_INCREMENT" json:"id"`
	CampanhaID     int64      `gorm:"not null;index" json:"campanha_id"`
	NomeArquivo    string     `gorm:"not null" json:"nome_arquivo" form:"nome_arquivo"`
	GoogleDriveURL string     `gorm:"column:google_drive_url;not null" json:"google_drive_url" form:"google_drive_url"`
	DriveFileID    string     `gorm:"default:''" json:"drive_file_id"`
	ClienteNome    string     `gorm:"default:''" json:"cliente_nome" form:"cliente_nome"`
	EnviadoPor     int64      `gorm:"default:0" json:"enviado_por"`
	CreatedAt      *time.Time `json:"created_at"`
	UpdatedAt      *time.Time `json:"updated_at"`
}

func (MarketingImagem) TableName() string { return "marketing_imagens" }
