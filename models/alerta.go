package models

import "time"

/************************************************
/**** MARK: ALERTA ****/
/************************************************/
const ALERTA_NIVEL_BAIXO = "baixo"
const ALERTA_NIVEL_MEDIO = "medio"
const ALERTA_NIVEL_ALTO = "alto"
const ALERTA_NIVEL_CRITICO = "critico"

const ALERTA_STATUS_ATIVO = "ativo"
const ALERTA_STATUS_RESOLVIDO = "resolvido"

const ALERTA_ORIGEM_MANUAL = "manual"
const ALERTA_ORIGEM_AUTOMATICA = "automatica"

func NivelAlertaValido(n string) bool {
	switch n {
	case ALERTA_NIVEL_BAIXO, ALERTA_NIVEL_MEDIO, ALERTA_NIVEL_ALTO, ALERTA_NIVEL_CRITICO:
		return true
	}
	return false
}

// NivelPorProporcao classifica a proporção de comentários negativos.
func NivelPorProporcao(p float64) string {
	switch {
	case p >= 0.85:
		return ALERTA_NIVEL_CRITICO
	case p >= 0.75:
		return ALERTA_NIVEL_ALTO
	case p >= 0.65:
		return ALERTA_NIVEL_MEDIO
	}
	return ALERTA_NIVEL_BAIXO
}

// AlertaCriseNotificacao sinaliza uma possível crise de imagem nas redes.
type AlertaCriseNotificacao struct {
	ID            int64      `gorm:"primary_key;AUTO_INCREMENT" json:"id"`
	Titulo        string     `gorm:"not null" json:"titulo" form:"titulo"`
	Descricao     string     `gorm:"type:text" json:"descricao" form:"descricao"`
	Nivel         string     `gorm:"not null;default:'medio'" json:"nivel" form:"nivel"`
	Status        string     `gorm:"not null;default:'ativo';index" json:"status"`
	Origem        string     `gorm:"not null;default:'manual'" json:"origem"`
	Plataforma    string     `gorm:"default:''" json:"plataforma" form:"plataforma"`
	TotalNegativo int64      `gorm:"default:0" json:"total_negativo"`
	Proporcao     float64    `gorm:"default:0" json:"proporcao"`
	Lida          bool       `gorm:"not null;default:false" json:"lida"`
	CriadoPor     int64      `gorm:"default:0" json:"criado_por"`
	ResolvidoPor  int64      `gorm:"default:0" json:"resolvido_por"`
	ResolvidoEm   *time.Time `json:"resolvido_em"`
	CreatedAt     *time.Time `json:"created_at"`
	UpdatedAt     *time.Time `json:"updated_at"`
}

func (AlertaCriseNotificacao) TableName() string { return "alerta_crise_notificacao" }
