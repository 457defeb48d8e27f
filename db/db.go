package db

import (
	"fmt"
	"os"
	"path/filepath"

	"painel/config"
	"painel/logger"
	"painel/models"
	"painel/realtime"

	"github.com/jinzhu/gorm"
	_ "github.com/jinzhu/gorm/dialects/postgres"
	_ "github.com/jinzhu/gorm/dialects/sqlite"
	"go.uber.org/zap"
)

var conf config.Configuration

func SetConfigurations(configuration config.Configuration) {
	conf = configuration
}

// Tables são as tabelas do contrato externo, na ordem de criação.
var Tables = []string{
	"usuarios_sistema",
	"sessoes_ativas",
	"cadastro_clientes",
	"alerta_crise_notificacao",
	"registro_movimentacoes",
	"marketing_campanhas",
	"marketing_imagens",
	"comentarios",
}

// Connect abre conexão com DB (sqlite3 por padrão).
func Connect() (*gorm.DB, error) {
	var (
		db  *gorm.DB
		err error
	)

	if conf.IsPostgres() {
		logger.Log.Info("Utilizando conexão com o postgresql...", zap.String("host", conf.DbHost))
		db, err = gorm.Open("postgres", conf.PostgresDSN())
	} else {
		path := conf.DbPath
		if path == "" {
			path = "db/database.db"
		}
		if path != ":memory:" {
			if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
				return nil, fmt.Errorf("criar diretório do sqlite: %w", err)
			}
		}
		logger.Log.Info("Utilizando conexão com o sqlite3...", zap.String("path", path))
		db, err = gorm.Open("sqlite3", path)
		if err == nil {
			// sqlite não lida bem com escrita concorrente
			db.DB().SetMaxOpenConns(1)
		}
	}

	if err != nil {
		logger.Log.Error("Erro ao conectar no banco", zap.Error(err))
		return nil, err
	}

	db.LogMode(conf.LogLevel == "debug")
	db.SetLogger(gormLogger{})
	return db, nil
}

// Migrate cria/atualiza as tabelas e, no postgres com canal configurado,
// instala os triggers de NOTIFY.
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.UsuarioSistema{},
		&models.SessaoAtiva{},
		&models.CadastroCliente{},
		&models.AlertaCriseNotificacao{},
		&models.RegistroMovimentacao{},
		&models.MarketingCampanha{},
		&models.MarketingImagem{},
		&models.Comentario{},
	).Error
	if err != nil {
		return fmt.Errorf("automigrate: %w", err)
	}

	if conf.IsPostgres() && conf.Realtime.PgChannel != "" {
		for _, stmt := range realtime.TriggerStatements(conf.Realtime.PgChannel, Tables) {
			if err := db.Exec(stmt).Error; err != nil {
				return fmt.Errorf("instalar trigger: %w", err)
			}
		}
		logger.Log.Info("Triggers de realtime instalados", zap.String("channel", conf.Realtime.PgChannel))
	}
	return nil
}

type gormLogger struct{}

func (gormLogger) Print(v ...interface{}) {
	logger.Log.Debug("gorm", zap.Any("values", v))
}
