package models

import "time"

const SENTIMENTO_POSITIVO = "positivo"
const SENTIMENTO_NEUTRO = "neutro"
const SENTIMENTO_NEGATIVO = "negativo"

func SentimentoValido(s string) bool {
	switch s {
	case SENTIMENTO_POSITIVO, SENTIMENTO_NEUTRO, SENTIMENTO_NEGATIVO:
		return true
	}
	return false
}

// Comentario é um comentário coletado em rede social, já classificado.
type Comentario struct {
	ID          int64      `gorm:"primary_key;AUTO_INCREMENT" json:"id"`
	Plataforma  string     `gorm:"not null;index" json:"plataforma" form:"plataforma"`
	Autor       string     `gorm:"default:''" json:"autor" form:"autor"`
	Texto       string     `gorm:"type:text;not null" json:"texto" form:"texto"`
	Sentimento  string     `gorm:"not null;default:'neutro';index" json:"sentimento" form:"sentimento"`
	Score       float64    `gorm:"default:0" json:"score" form:"score"`
	URL         string     `gorm:"column:url;default:''" json:"url" form:"url"`
	Tema        string     `gorm:"default:''" json:"tema" form:"tema"`
	PublicadoEm *time.Time `gorm:"index" json:"publicado_em"`
	CreatedAt   *time.Time `json:"created_at"`
	UpdatedAt   *time.Time `json:"updated_at"`
}

func (Comentario) TableName() string { return "comentarios" }

func (c Comentario) MissingFields() string {
	if c.Plataforma == "" {
		return "plataforma"
	} else if c.Texto == "" {
		return "texto"
	} else if !SentimentoValido(c.Sentimento) {
		return "sentimento"
	}
	return ""
}
