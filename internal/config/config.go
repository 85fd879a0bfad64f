package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	// Bloque app (opcional en YAML). Si no está, queda vacío.
	App struct {
		// dev | staging | prod
		Env string `yaml:"app_env"`
	} `yaml:"app"`

	Server struct {
		Addr string `yaml:"addr"`
	} `yaml:"server"`

	Storage struct {
		DSN      string `yaml:"dsn"`
		Postgres struct {
			MaxConns        int    `yaml:"max_conns"`
			ConnMaxLifetime string `yaml:"conn_max_lifetime"`
		} `yaml:"postgres"`
	} `yaml:"storage"`

	Cache struct {
		Kind  string `yaml:"kind"` // memory | redis
		Redis struct {
			Addr   string `yaml:"addr"`
			DB     int    `yaml:"db"`
			Prefix string `yaml:"prefix"`
		} `yaml:"redis"`
		Memory struct {
			DefaultTTL string `yaml:"default_ttl"`
		} `yaml:"memory"`
	} `yaml:"cache"`

	JWT struct {
		Issuer   string `yaml:"issuer"`
		Audience string `yaml:"audience"`
		// Alg queda fijo en RS256 salvo override explícito.
		Alg string `yaml:"alg"`
		KID string `yaml:"kid"`
		// PEM en base64 (igual que el .env del servicio). Nunca van al YAML
		// en prod; se setean por JWT_PRIVATE_KEY / JWT_PUBLIC_KEY.
		PrivateKey string `yaml:"private_key"`
		PublicKey  string `yaml:"public_key"`
		// TTL del token de sesión (largo, días) y del token de registro
		// (corto, minutos).
		SessionTTL  string `yaml:"session_ttl"`
		RegisterTTL string `yaml:"register_ttl"`
	} `yaml:"jwt"`

	Directory struct {
		BaseURL string `yaml:"base_url"`
		Timeout string `yaml:"timeout"`
	} `yaml:"directory"`
}

// Load lee el YAML (opcional: path vacío ⇒ solo env), aplica defaults,
// pisa con variables de entorno y valida.
func Load(path string) (*Config, error) {
	var c Config
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(b, &c); err != nil {
			return nil, err
		}
	}

	// sane defaults
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Cache.Kind == "" {
		c.Cache.Kind = "memory"
	}
	if c.Cache.Memory.DefaultTTL == "" {
		c.Cache.Memory.DefaultTTL = "2m"
	}
	if c.JWT.Alg == "" {
		c.JWT.Alg = "RS256"
	}
	if c.JWT.SessionTTL == "" {
		c.JWT.SessionTTL = "168h" // 7d
	}
	if c.JWT.RegisterTTL == "" {
		c.JWT.RegisterTTL = "15m"
	}
	if c.Directory.Timeout == "" {
		c.Directory.Timeout = "10s"
	}

	c.applyEnvOverrides()

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// SessionTTL devuelve la duración parseada (Validate ya garantizó el formato).
func (c *Config) SessionTTL() time.Duration {
	d, _ := time.ParseDuration(c.JWT.SessionTTL)
	return d
}

func (c *Config) RegisterTTL() time.Duration {
	d, _ := time.ParseDuration(c.JWT.RegisterTTL)
	return d
}

func (c *Config) DirectoryTimeout() time.Duration {
	d, _ := time.ParseDuration(c.Directory.Timeout)
	return d
}

// ---- Helpers env ----

func getEnvStr(key string) (string, bool) {
	v := os.Getenv(key)
	return v, v != ""
}

func getEnvInt(key string) (int, bool) {
	if s, ok := getEnvStr(key); ok {
		if i, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
			return i, true
		}
	}
	return 0, false
}

// applyEnvOverrides: pisa config.yaml con variables de entorno.
func (c *Config) applyEnvOverrides() {
	// APP
	if v, ok := getEnvStr("APP_ENV"); ok {
		c.App.Env = strings.ToLower(v)
	}

	// SERVER
	if v, ok := getEnvStr("SERVER_ADDR"); ok {
		c.Server.Addr = v
	}

	// STORAGE
	if v, ok := getEnvStr("STORAGE_DSN"); ok {
		c.Storage.DSN = v
	}
	if v, ok := getEnvInt("POSTGRES_MAX_CONNS"); ok {
		c.Storage.Postgres.MaxConns = v
	}
	if v, ok := getEnvStr("POSTGRES_CONN_MAX_LIFETIME"); ok {
		c.Storage.Postgres.ConnMaxLifetime = v
	}

	// CACHE
	if v, ok := getEnvStr("CACHE_KIND"); ok {
		c.Cache.Kind = v
	}
	if v, ok := getEnvStr("REDIS_ADDR"); ok {
		c.Cache.Redis.Addr = v
	}
	if v, ok := getEnvInt("REDIS_DB"); ok {
		c.Cache.Redis.DB = v
	}
	if v, ok := getEnvStr("REDIS_PREFIX"); ok {
		c.Cache.Redis.Prefix = v
	}
	if v, ok := getEnvStr("CACHE_MEMORY_DEFAULT_TTL"); ok {
		c.Cache.Memory.DefaultTTL = v
	}

	// JWT
	if v, ok := getEnvStr("JWT_ISSUER"); ok {
		c.JWT.Issuer = v
	}
	if v, ok := getEnvStr("JWT_AUDIENCE"); ok {
		c.JWT.Audience = v
	}
	if v, ok := getEnvStr("JWT_ALG"); ok {
		c.JWT.Alg = v
	}
	if v, ok := getEnvStr("JWT_KID"); ok {
		c.JWT.KID = v
	}
	if v, ok := getEnvStr("JWT_PRIVATE_KEY"); ok {
		c.JWT.PrivateKey = v
	}
	if v, ok := getEnvStr("JWT_PUBLIC_KEY"); ok {
		c.JWT.PublicKey = v
	}
	if v, ok := getEnvStr("JWT_SESSION_TTL"); ok {
		c.JWT.SessionTTL = v
	}
	if v, ok := getEnvStr("JWT_REGISTER_TTL"); ok {
		c.JWT.RegisterTTL = v
	}

	// DIRECTORY
	if v, ok := getEnvStr("DIRECTORY_BASE_URL"); ok {
		c.Directory.BaseURL = v
	}
	if v, ok := getEnvStr("DIRECTORY_TIMEOUT"); ok {
		c.Directory.Timeout = v
	}
}

// Validate chequea los valores críticos: duraciones parseables y los campos
// sin los cuales el servicio no puede arrancar.
func (c *Config) Validate() error {
	for _, d := range []struct{ name, val string }{
		{"jwt.session_ttl", c.JWT.SessionTTL},
		{"jwt.register_ttl", c.JWT.RegisterTTL},
		{"directory.timeout", c.Directory.Timeout},
	} {
		if _, err := time.ParseDuration(d.val); err != nil {
			return fmt.Errorf("config: %s: %w", d.name, err)
		}
	}
	if c.Storage.Postgres.ConnMaxLifetime != "" {
		if _, err := time.ParseDuration(c.Storage.Postgres.ConnMaxLifetime); err != nil {
			return fmt.Errorf("config: storage.postgres.conn_max_lifetime: %w", err)
		}
	}
	if c.JWT.Issuer == "" {
		return fmt.Errorf("config: jwt.issuer requerido")
	}
	if c.JWT.Audience == "" {
		return fmt.Errorf("config: jwt.audience requerido")
	}
	if c.JWT.KID == "" {
		return fmt.Errorf("config: jwt.kid requerido")
	}
	return nil
}
