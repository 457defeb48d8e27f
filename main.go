package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"painel/cache"
	"painel/config"
	"painel/controllers"
	dbpkg "painel/db"
	"painel/logger"
	"painel/realtime"
	"painel/router"
	"painel/seed"
	"painel/telemetry"
	"painel/tools"
	"painel/workers"

	"github.com/gin-gonic/gin"
	"github.com/jinzhu/gorm"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	configPath string

	seedClientes    int
	seedComentarios int
	seedAdminEmail  string
	seedAdminSenha  string
)

var rootCmd = &cobra.Command{
	Use:   "painel",
	Short: "Painel de monitoramento municipal - backend",
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Sobe a API HTTP, o websocket de realtime e os workers",
	RunE:  runServe,
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Cria/atualiza as tabelas (e triggers NOTIFY no postgres)",
	RunE: func(cmd *cobra.Command, args []string) error {
		conf, database, err := bootstrap()
		if err != nil {
			return err
		}
		defer database.Close()
		defer logger.Close()

		if err := dbpkg.Migrate(database); err != nil {
			return err
		}
		logger.Log.Info("migrate: ok", zap.String("database", conf.Database))
		return nil
	},
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Gera clientes e comentários falsos para dashboards locais",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, database, err := bootstrap()
		if err != nil {
			return err
		}
		defer database.Close()
		defer logger.Close()

		if err := dbpkg.Migrate(database); err != nil {
			return err
		}
		s := seed.NewSeeder(database)
		if seedAdminEmail != "" {
			if _, err := s.SeedAdmin(seedAdminEmail, seedAdminSenha); err != nil {
				return err
			}
		}
		return s.SeedDev(seedClientes, seedComentarios)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "config.json", "Arquivo de configuração JSON")

	seedCmd.Flags().IntVar(&seedClientes, "clientes", 50, "Quantidade de clientes")
	seedCmd.Flags().IntVar(&seedComentarios, "comentarios", 500, "Quantidade de comentários")
	seedCmd.Flags().StringVar(&seedAdminEmail, "admin-email", "", "Cria um admin com este e-mail")
	seedCmd.Flags().StringVar(&seedAdminSenha, "admin-senha", "", "Senha do admin criado")

	rootCmd.AddCommand(serveCmd, migrateCmd, seedCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// bootstrap carrega config, logger e banco; usado por todos os comandos.
func bootstrap() (config.Configuration, *gorm.DB, error) {
	conf, err := config.Load(configPath)
	if err != nil {
		return conf, nil, err
	}
	if err := logger.Initialize(conf.LogLevel, conf.LogPath); err != nil {
		return conf, nil, fmt.Errorf("logger: %w", err)
	}

	dbpkg.SetConfigurations(conf)
	database, err := dbpkg.Connect()
	if err != nil {
		return conf, nil, fmt.Errorf("db: %w", err)
	}
	return conf, database, nil
}

func runServe(cmd *cobra.Command, args []string) error {
	conf, database, err := bootstrap()
	if err != nil {
		return err
	}
	defer database.Close()
	defer logger.Close()

	if err := dbpkg.Migrate(database); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tp, err := telemetry.InitTracer(ctx, conf)
	if err != nil {
		logger.Log.Warn("telemetry desabilitada", zap.Error(err))
	}
	if tp != nil {
		defer tp.Shutdown(context.Background())
	}

	hub := realtime.NewHub()
	defer hub.Close()

	var store cache.Cache = cache.NewMemoryCache()
	var publisher realtime.Publisher = hub

	if conf.Redis.URL != "" {
		client, err := cache.NewRedisClient(ctx, conf.Redis.URL)
		if err != nil {
			return fmt.Errorf("redis: %w", err)
		}
		defer client.Close()
		store = cache.NewRedisCache(client, "painel:")

		// com LISTEN/NOTIFY toda instância já recebe as mudanças direto do postgres
		if conf.Realtime.RedisChannel != "" && conf.Realtime.PgChannel == "" {
			bridge := realtime.NewRedisBridge(client, conf.Realtime.RedisChannel, hub)
			publisher = bridge
			go func() {
				if err := bridge.Run(ctx); err != nil {
					logger.Log.Error("realtime: ponte redis parou", zap.Error(err))
				}
			}()
		}
	}

	if conf.IsPostgres() && conf.Realtime.PgChannel != "" {
		listener := realtime.NewPGListener(conf.PostgresDSN(), conf.Realtime.PgChannel, publisher)
		go func() {
			if err := listener.Run(ctx); err != nil {
				logger.Log.Error("realtime: listener postgres parou", zap.Error(err))
			}
		}()
	} else {
		dbpkg.RegisterRealtimeCallbacks(database, publisher)
	}

	invalidator := cache.NewInvalidator(hub, store)
	defer invalidator.Stop()
	for _, table := range []string{"comentarios", "alerta_crise_notificacao"} {
		if err := invalidator.Watch(router.DASHBOARD_CACHE_PREFIX, table); err != nil {
			return fmt.Errorf("invalidator: %w", err)
		}
	}

	controllers.SetServices(controllers.Services{
		Config: conf,
		Images: tools.NewImageFetcher(
			time.Duration(conf.ImageProxy.TimeoutSeconds)*time.Second,
			conf.ImageProxy.AllowedHosts,
			conf.ImageProxy.MaxBytes,
		),
		Drive: tools.DriveClient{
			BaseURL: conf.Drive.BaseURL,
			Account: tools.ServiceAccount{
				JSON:        conf.Drive.ServiceAccountJSON,
				ClientEmail: conf.Drive.ClientEmail,
				PrivateKey:  conf.Drive.PrivateKey,
			},
		},
	})

	workers.StartSessionReaper(ctx, database, time.Duration(conf.Sessions.ReaperIntervalSecs)*time.Second)
	workers.StartCrisisEvaluator(ctx, database, workers.CrisisRuleFrom(conf),
		time.Duration(conf.Crisis.IntervalSeconds)*time.Second)

	if conf.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	router.Initialize(r, router.Deps{
		Config:   conf,
		DB:       database,
		Realtime: realtime.NewServer(hub, controllers.RealtimeAuthenticator(database), conf.Origins()),
		Cache:    store,
	})

	srv := &http.Server{
		Addr:              ":" + conf.ApiPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Log.Info("Painel listening", zap.String("port", conf.ApiPort))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Log.Error("http server", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
