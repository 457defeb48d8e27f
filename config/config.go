package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Configuration struct {
	ApiPort  string `json:"api_port"`
	LogPath  string `json:"log_path"`
	LogLevel string `json:"log_level"`

	Database string `json:"database"` // "sqlite3" ou "postgres"
	DbHost   string `json:"db_host"`
	DbPort   string `json:"db_port"`
	DbUser   string `json:"db_user"`
	DbName   string `json:"db_name"`
	DbPass   string `json:"db_pass"`
	DbSSL    string `json:"db_sslmode"`
	DbPath   string `json:"db_path"` // arquivo sqlite

	Security struct {
		JwtSecret         string `json:"jwt_secret"`
		SessionTTLMinutes int    `json:"session_ttl_minutes"`
		InactivityMinutes int    `json:"inactivity_minutes"`
		AllowedOrigins    string `json:"allowed_origins"`
	} `json:"security"`

	Sessions struct {
		HeartbeatSeconds   int `json:"heartbeat_seconds"`
		ReaperIntervalSecs int `json:"reaper_interval_seconds"`
	} `json:"sessions"`

	Realtime struct {
		PgChannel    string `json:"pg_channel"`    // canal LISTEN/NOTIFY; vazio desliga
		RedisChannel string `json:"redis_channel"` // fan-out entre instâncias
	} `json:"realtime"`

	Redis struct {
		URL string `json:"url"`
	} `json:"redis"`

	Cache struct {
		DashboardTTLSeconds int `json:"dashboard_ttl_seconds"`
	} `json:"cache"`

	ImageProxy struct {
		AllowedHosts   []string `json:"allowed_hosts"`
		TimeoutSeconds int      `json:"timeout_seconds"`
		MaxBytes       int64    `json:"max_bytes"`
	} `json:"image_proxy"`

	Drive struct {
		ServiceAccountJSON string `json:"service_account_json"`
		ClientEmail        string `json:"client_email"`
		PrivateKey         string `json:"private_key"`
		BaseURL            string `json:"base_url"`
	} `json:"drive"`

	Crisis struct {
		IntervalSeconds int     `json:"interval_seconds"`
		WindowMinutes   int     `json:"window_minutes"`
		MinNegativos    int     `json:"min_negativos"`
		Threshold       float64 `json:"threshold"`
	} `json:"crisis"`

	Telemetry struct {
		Enabled      bool    `json:"enabled"`
		Endpoint     string  `json:"endpoint"`
		SamplingRate float64 `json:"sampling_rate"`
		Environment  string  `json:"environment"`
	} `json:"telemetry"`
}

// Load lê o JSON (opcional), carrega o .env, aplica variáveis de ambiente e defaults.
func Load(path string) (Configuration, error) {
	var c Configuration

	// .env é opcional; variáveis já exportadas têm prioridade
	_ = godotenv.Load()

	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return c, fmt.Errorf("read config %s: %w", path, err)
		}
		if err == nil {
			if err := json.Unmarshal(b, &c); err != nil {
				return c, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}

	applyEnv(&c)
	applyDefaults(&c)
	return c, nil
}

func applyEnv(c *Configuration) {
	setString(&c.ApiPort, "PORT")
	setString(&c.LogLevel, "LOG_LEVEL")
	setString(&c.Database, "DATABASE")
	setString(&c.DbHost, "DB_HOST")
	setString(&c.DbPort, "DB_PORT")
	setString(&c.DbUser, "DB_USER")
	setString(&c.DbName, "DB_NAME")
	setString(&c.DbPass, "DB_PASS")
	setString(&c.Security.JwtSecret, "JWT_SECRET")
	setString(&c.Security.AllowedOrigins, "ALLOWED_ORIGINS")
	setString(&c.Redis.URL, "REDIS_URL")
	setString(&c.Drive.ServiceAccountJSON, "GOOGLE_SERVICE_ACCOUNT_JSON")
	setString(&c.Drive.ClientEmail, "GOOGLE_CLIENT_EMAIL")
	setString(&c.Drive.PrivateKey, "GOOGLE_PRIVATE_KEY")
	setString(&c.Telemetry.Endpoint, "OTEL_EXPORTER_OTLP_ENDPOINT")

	if v := strings.TrimSpace(os.Getenv("IMAGE_PROXY_ALLOWED_HOSTS")); v != "" {
		c.ImageProxy.AllowedHosts = splitList(v)
	}
	if v := strings.TrimSpace(os.Getenv("SESSION_TTL_MINUTES")); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Security.SessionTTLMinutes = n
		}
	}
}

func applyDefaults(c *Configuration) {
	// defaults (pra evitar nil/zero chato)
	if c.ApiPort == "" {
		c.ApiPort = "8080"
	}
	if c.LogPath == "" {
		c.LogPath = "logs/server.log"
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.Database == "" {
		c.Database = "sqlite3"
	}
	if c.DbPath == "" {
		c.DbPath = "db/database.db"
	}
	if c.DbSSL == "" {
		c.DbSSL = "disable"
	}
	if c.Security.JwtSecret == "" {
		c.Security.JwtSecret = "CHANGE_ME"
	}
	if c.Security.SessionTTLMinutes <= 0 {
		c.Security.SessionTTLMinutes = 30
	}
	if c.Security.InactivityMinutes <= 0 {
		c.Security.InactivityMinutes = 60
	}
	if c.Sessions.HeartbeatSeconds <= 0 {
		c.Sessions.HeartbeatSeconds = 30
	}
	if c.Sessions.ReaperIntervalSecs <= 0 {
		c.Sessions.ReaperIntervalSecs = 60
	}
	if c.Cache.DashboardTTLSeconds <= 0 {
		c.Cache.DashboardTTLSeconds = 300
	}
	if c.ImageProxy.TimeoutSeconds <= 0 {
		c.ImageProxy.TimeoutSeconds = 15
	}
	if c.ImageProxy.MaxBytes <= 0 {
		c.ImageProxy.MaxBytes = 10 << 20
	}
	if c.Drive.BaseURL == "" {
		c.Drive.BaseURL = "https://www.googleapis.com/drive/v3"
	}
	if c.Crisis.IntervalSeconds <= 0 {
		c.Crisis.IntervalSeconds = 120
	}
	if c.Crisis.WindowMinutes <= 0 {
		c.Crisis.WindowMinutes = 60
	}
	if c.Crisis.MinNegativos <= 0 {
		c.Crisis.MinNegativos = 20
	}
	if c.Crisis.Threshold <= 0 {
		c.Crisis.Threshold = 0.6
	}
	if c.Telemetry.SamplingRate <= 0 {
		c.Telemetry.SamplingRate = 1.0
	}
	if c.Telemetry.Environment == "" {
		c.Telemetry.Environment = "development"
	}
}

// SessionTTL é o quanto um heartbeat estende a sessão.
func (c Configuration) SessionTTL() time.Duration {
	return time.Duration(c.Security.SessionTTLMinutes) * time.Minute
}

func (c Configuration) InactivityTimeout() time.Duration {
	return time.Duration(c.Security.InactivityMinutes) * time.Minute
}

func (c Configuration) DashboardTTL() time.Duration {
	return time.Duration(c.Cache.DashboardTTLSeconds) * time.Second
}

// PostgresDSN monta a string de conexão no formato key=value usado pelo lib/pq.
func (c Configuration) PostgresDSN() string {
	path := "host=" + c.DbHost + " port=" + c.DbPort
	path += " user=" + c.DbUser + " dbname=" + c.DbName
	path += " password=" + c.DbPass + " sslmode=" + c.DbSSL
	return path
}

func (c Configuration) IsPostgres() bool {
	return c.Database == "postgres" || c.Database == "postgresql"
}

func setString(dst *string, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*dst = v
	}
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Origins devolve a lista de origens liberadas para CORS e websocket.
func (c Configuration) Origins() []string {
	return splitList(c.Security.AllowedOrigins)
}

func (c Configuration) HeartbeatInterval() time.Duration {
	return time.Duration(c.Sessions.HeartbeatSeconds) * time.Second
}
