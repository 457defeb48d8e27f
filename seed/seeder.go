package seed

import (
	"fmt"
	"strings"
	"time"

	"painel/logger"
	"painel/models"
	"painel/tools"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/jinzhu/gorm"
	"go.uber.org/zap"
)

var plataformas = []string{"instagram", "facebook", "x", "tiktok", "youtube"}
var temas = []string{"saude", "educacao", "transito", "obras", "seguranca", "limpeza"}
var bairros = []string{"Centro", "Jardim America", "Vila Nova", "Boa Vista", "Santa Luzia"}

// Seeder gera dados falsos para dashboards locais.
type Seeder struct {
	db *gorm.DB
}

func NewSeeder(db *gorm.DB) *Seeder {
	_ = gofakeit.Seed(time.Now().UnixNano())
	return &Seeder{db: db}
}

// SeedAdmin cria o administrador inicial se o e-mail ainda não existir.
func (s *Seeder) SeedAdmin(email, senha string) (models.UsuarioSistema, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	var user models.UsuarioSistema
	if err := s.db.Where("email = ?", email).First(&user).Error; err == nil {
		return user, nil
	}

	hash, err := tools.HashPassword(senha)
	if err != nil {
		return user, fmt.Errorf("hash da senha: %w", err)
	}
	user = models.UsuarioSistema{
		Nome:      "Administrador",
		Email:     email,
		SenhaHash: hash,
		Perfil:    models.PERFIL_ADMIN,
		Ativo:     true,
	}
	if err := s.db.Create(&user).Error; err != nil {
		return user, fmt.Errorf("criar admin: %w", err)
	}
	return user, nil
}

// SeedDev cria clientes e comentários dos últimos 30 dias.
func (s *Seeder) SeedDev(clientes, comentarios int) error {
	logger.Log.Info("seed: criando clientes", zap.Int("total", clientes))
	for i := 0; i < clientes; i++ {
		c := fakeCliente()
		if err := s.db.Create(&c).Error; err != nil {
			return fmt.Errorf("falha ao criar cliente: %w", err)
		}
	}

	logger.Log.Info("seed: criando comentarios", zap.Int("total", comentarios))
	start := time.Now().AddDate(0, 0, -30)
	for i := 0; i < comentarios; i++ {
		publicado := gofakeit.DateRange(start, time.Now())
		c := models.Comentario{
			Plataforma:  gofakeit.RandomString(plataformas),
			Autor:       gofakeit.Username(),
			Texto:       gofakeit.HipsterSentence(),
			Sentimento:  fakeSentimento(),
			Score:       gofakeit.Float64Range(-1, 1),
			Tema:        gofakeit.RandomString(temas),
			PublicadoEm: &publicado,
		}
		if err := s.db.Create(&c).Error; err != nil {
			return fmt.Errorf("falha ao criar comentario: %w", err)
		}
	}
	return nil
}

func fakeSentimento() string {
	switch n := gofakeit.Number(1, 10); {
	case n <= 4:
		return models.SENTIMENTO_POSITIVO
	case n <= 7:
		return models.SENTIMENTO_NEUTRO
	}
	return models.SENTIMENTO_NEGATIVO
}

func fakeCliente() models.CadastroCliente {
	c := models.CadastroCliente{
		Email:      gofakeit.Email(),
		Telefone:   fmt.Sprintf("11%09d", gofakeit.Number(900000000, 999999999)),
		CEP:        fmt.Sprintf("%08d", gofakeit.Number(1000000, 99999999)),
		Logradouro: gofakeit.Street(),
		Numero:     fmt.Sprint(gofakeit.Number(1, 3000)),
		Bairro:     gofakeit.RandomString(bairros),
		Cidade:     gofakeit.City(),
		UF:         "SP",
		Status:     models.CLIENTE_STATUS_ATIVO,
	}
	if gofakeit.Bool() {
		c.TipoPessoa = models.TIPO_PESSOA_FISICA
		c.Nome = gofakeit.Name()
		c.CPF = fakeDocumento(9, [][]int{
			{10, 9, 8, 7, 6, 5, 4, 3, 2},
			{11, 10, 9, 8, 7, 6, 5, 4, 3, 2},
		})
	} else {
		c.TipoPessoa = models.TIPO_PESSOA_JURIDICA
		c.Nome = gofakeit.Company()
		c.NomeFantasia = gofakeit.Company()
		c.CNPJ = fakeDocumento(12, [][]int{
			{5, 4, 3, 2, 9, 8, 7, 6, 5, 4, 3, 2},
			{6, 5, 4, 3, 2, 9, 8, 7, 6, 5, 4, 3, 2},
		})
	}
	c.Normalize()
	return c
}

// fakeDocumento sorteia a base e calcula os dígitos verificadores (mod 11).
func fakeDocumento(base int, weights [][]int) string {
	for {
		digits := make([]int, base, base+len(weights))
		for i := range digits {
			digits[i] = gofakeit.Number(0, 9)
		}
		for _, w := range weights {
			sum := 0
			for i, peso := range w {
				sum += digits[i] * peso
			}
			dv := sum % 11
			if dv < 2 {
				dv = 0
			} else {
				dv = 11 - dv
			}
			digits = append(digits, dv)
		}

		var b strings.Builder
		for _, d := range digits {
			b.WriteByte(byte('0' + d))
		}
		doc := b.String()
		if tools.IsCPFValid(doc) || tools.IsCNPJValid(doc) {
			return doc
		}
	}
}
