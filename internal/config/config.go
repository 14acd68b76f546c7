package config

import (
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

type Mode string

const (
	ModeOffline Mode = "offline"
	ModeOnline  Mode = "online"
)

// EnvPrefix is prepended to every key when read from the environment.
const EnvPrefix = "EDUPULSE"

type Config struct {
	Env      string // dev, test, prod: selects config/.env.<env>
	Mode     Mode
	HTTPAddr string

	DBDriver string
	DBDSN    string

	// Remote spreadsheet store
	StoreURL          string
	StoreTimeout      time.Duration
	StoreTokenURL     string // optional OAuth2 client credentials
	StoreClientID     string
	StoreClientSecret string

	AuthHMACSecret string
	SessionTTL     time.Duration

	EnableLocalAuth bool
	AdminUser       string
	AdminPassHash   string // bcrypt; empty disables the local admin

	CORSOriginsOnline  []string
	CORSOriginsOffline []string

	SendGridAPIKey string
	MailFrom       string

	RollbarToken string
	LogLevel     string
	LogFormat    string // text|json
}

// FromEnv loads the configuration relative to the working directory and
// exits on a malformed .env file.
func FromEnv() Config {
	wd, err := os.Getwd()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	cfg, err := Load(wd)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	return cfg
}

// Load reads root/config/.env.<env> when present, then EDUPULSE_* variables.
// Variables already set in the environment win over the file.
func Load(root string) (Config, error) {
	env := strings.ToLower(os.Getenv(EnvPrefix + "_ENV"))
	if env == "" {
		env = "dev"
	}
	dotEnvPath := filepath.Join(root, "config", ".env."+env)
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			return Config{}, errors.Wrapf(err, "godotenv(%s)", dotEnvPath)
		}
	} else if !os.IsNotExist(err) {
		return Config{}, errors.Wrapf(err, "stat(%s)", dotEnvPath)
	}

	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	v.SetDefault("mode", string(ModeOffline))
	v.SetDefault("http_addr", ":8080")
	v.SetDefault("db_driver", "sqlite")
	v.SetDefault("db_dsn", "")
	v.SetDefault("store_timeout", 15*time.Second)
	v.SetDefault("auth_hmac_secret", "supersecret-dev-key")
	v.SetDefault("session_ttl", 8*time.Hour)
	v.SetDefault("enable_local_auth", true)
	v.SetDefault("admin_user", "admin")
	v.SetDefault("cors_origins_online", "https://edupulse.vn")
	v.SetDefault("cors_origins_offline", "http://localhost:3000,http://localhost:5173")
	v.SetDefault("mail_from", "EduPulse <noreply@edupulse.vn>")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")

	mode := Mode(strings.ToLower(v.GetString("mode")))
	if mode != ModeOnline {
		mode = ModeOffline
	}
	cfg := Config{
		Env:                env,
		Mode:               mode,
		HTTPAddr:           v.GetString("http_addr"),
		DBDriver:           v.GetString("db_driver"),
		DBDSN:              v.GetString("db_dsn"),
		StoreURL:           v.GetString("store_url"),
		StoreTimeout:       v.GetDuration("store_timeout"),
		StoreTokenURL:      v.GetString("store_token_url"),
		StoreClientID:      v.GetString("store_client_id"),
		StoreClientSecret:  v.GetString("store_client_secret"),
		AuthHMACSecret:     v.GetString("auth_hmac_secret"),
		SessionTTL:         v.GetDuration("session_ttl"),
		EnableLocalAuth:    v.GetBool("enable_local_auth"),
		AdminUser:          v.GetString("admin_user"),
		AdminPassHash:      v.GetString("admin_pass_hash"),
		CORSOriginsOnline:  csv(v.GetString("cors_origins_online")),
		CORSOriginsOffline: csv(v.GetString("cors_origins_offline")),
		SendGridAPIKey:     v.GetString("sendgrid_api_key"),
		MailFrom:           v.GetString("mail_from"),
		RollbarToken:       v.GetString("rollbar_token"),
		LogLevel:           v.GetString("log_level"),
		LogFormat:          v.GetString("log_format"),
	}
	if cfg.StoreURL == "" {
		return cfg, errors.New(EnvPrefix + "_STORE_URL is required")
	}
	return cfg, nil
}

// CORSOrigins picks the origin list for the configured mode.
func (c Config) CORSOrigins() []string {
	if c.Mode == ModeOnline {
		return c.CORSOriginsOnline
	}
	return c.CORSOriginsOffline
}

func csv(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
