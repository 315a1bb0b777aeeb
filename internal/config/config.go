package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"restaurant-api/internal/domain"
)

const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
	StoreSupabase = "supabase"
)

type Config struct {
	Env         string `yaml:"env"`
	Port        int    `yaml:"port"`
	Store       string `yaml:"store"`
	DatabaseURL string `yaml:"database_url"`
	DBDriver    string `yaml:"db_driver"`
	AutoMigrate bool   `yaml:"auto_migrate"`
	MenuSeed    string `yaml:"menu_seed"`

	SupabaseURL        string `yaml:"supabase_url"`
	SupabaseAnonKey    string `yaml:"supabase_anon_key"`
	SupabaseServiceKey string `yaml:"supabase_service_role_key"`
	JWTSecret          string `yaml:"jwt_secret"`

	CORSOrigins []string `yaml:"cors_origins"`
	LogJSON     bool     `yaml:"log_json"`
	LogLevel    string   `yaml:"log_level"`

	RequestTimeout      time.Duration `yaml:"request_timeout"`
	CompensationTimeout time.Duration `yaml:"compensation_timeout"`

	AMQPURL      string `yaml:"amqp_url"`
	AMQPExchange string `yaml:"amqp_exchange"`
}

func Default() Config {
	return Config{
		Env:                 "development",
		Port:                5000,
		Store:               StoreMemory,
		DBDriver:            "postgres",
		CORSOrigins:         []string{"*"},
		LogJSON:             true,
		LogLevel:            "info",
		RequestTimeout:      15 * time.Second,
		CompensationTimeout: 5 * time.Second,
		AMQPExchange:        "restaurant.orders",
	}
}

func (c Config) IsDevelopment() bool {
	return c.Env == "development" || c.Env == "dev"
}

func EnvDefaults() Config {
	return fromEnv(Default())
}

// Load overlays the optional YAML file on the defaults, then the environment on top.
func Load(path string) (Config, error) {
	c, err := LoadFile(Default(), path)
	if err != nil {
		return c, err
	}
	return fromEnv(c), nil
}

// LoadFile overlays a YAML file on c. An empty path or a missing file leaves c unchanged.
func LoadFile(c Config, path string) (Config, error) {
	if path == "" {
		return c, nil
	}
	b, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return c, nil
	}
	if err != nil {
		return c, err
	}
	if err := yaml.Unmarshal(b, &c); err != nil {
		return c, fmt.Errorf("parse config %s: %w", path, err)
	}
	return c, nil
}

func fromEnv(c Config) Config {
	if v := os.Getenv("RESTAURANT_ENV"); v != "" {
		c.Env = v
	}
	if v := os.Getenv("RESTAURANT_PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			c.Port = p
		}
	}
	if v := os.Getenv("RESTAURANT_STORE"); v != "" {
		c.Store = v
	}
	if v := os.Getenv("RESTAURANT_DATABASE_URL"); v != "" {
		c.DatabaseURL = v
	}
	if v := os.Getenv("RESTAURANT_DB_DRIVER"); v != "" {
		c.DBDriver = v
	}
	if v := os.Getenv("RESTAURANT_AUTO_MIGRATE"); v != "" {
		c.AutoMigrate = parseBool(v, c.AutoMigrate)
	}
	if v := os.Getenv("RESTAURANT_MENU_SEED"); v != "" {
		c.MenuSeed = v
	}
	if v := os.Getenv("SUPABASE_URL"); v != "" {
		c.SupabaseURL = v
	}
	if v := os.Getenv("SUPABASE_ANON_KEY"); v != "" {
		c.SupabaseAnonKey = v
	}
	if v := os.Getenv("SUPABASE_SERVICE_ROLE_KEY"); v != "" {
		c.SupabaseServiceKey = v
	}
	if v := os.Getenv("SUPABASE_JWT_SECRET"); v != "" {
		c.JWTSecret = v
	}
	if v := os.Getenv("RESTAURANT_JWT_SECRET"); v != "" {
		c.JWTSecret = v
	}
	if v := os.Getenv("CORS_ORIGIN"); v != "" {
		c.CORSOrigins = splitList(v)
	}
	if v := os.Getenv("CORS_ORIGINS"); v != "" {
		c.CORSOrigins = splitList(v)
	}
	if v := os.Getenv("RESTAURANT_CORS_ORIGINS"); v != "" {
		c.CORSOrigins = splitList(v)
	}
	if v := os.Getenv("RESTAURANT_LOG_JSON"); v != "" {
		c.LogJSON = parseBool(v, c.LogJSON)
	}
	if v := os.Getenv("RESTAURANT_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv("RESTAURANT_REQUEST_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.RequestTimeout = d
		}
	}
	if v := os.Getenv("RESTAURANT_COMPENSATION_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.CompensationTimeout = d
		}
	}
	if v := os.Getenv("RESTAURANT_AMQP_URL"); v != "" {
		c.AMQPURL = v
	}
	if v := os.Getenv("RESTAURANT_AMQP_EXCHANGE"); v != "" {
		c.AMQPExchange = v
	}
	return c
}

// Validate checks that the selected store has what it needs to start.
func (c Config) Validate() error {
	switch c.Store {
	case StoreMemory:
	case StorePostgres:
		if c.DatabaseURL == "" {
			return errors.New("postgres store needs a database url")
		}
	case StoreSupabase:
		if c.SupabaseURL == "" || (c.SupabaseAnonKey == "" && c.SupabaseServiceKey == "") {
			return errors.New("supabase store needs SUPABASE_URL and an api key")
		}
	default:
		return fmt.Errorf("unknown store %q", c.Store)
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	return nil
}

// LoadMenuSeed reads a YAML list of menu items.
func LoadMenuSeed(path string) ([]domain.MenuItem, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var doc struct {
		Items []domain.MenuItem `yaml:"items"`
	}
	if err := yaml.Unmarshal(b, &doc); err != nil {
		return nil, fmt.Errorf("parse menu seed %s: %w", path, err)
	}
	for i, m := range doc.Items {
		if m.Name == "" {
			return nil, fmt.Errorf("menu seed %s: item %d has no name", path, i)
		}
		if m.Price.IsNegative() {
			return nil, fmt.Errorf("menu seed %s: %s has a negative price", path, m.Name)
		}
	}
	return doc.Items, nil
}

func parseBool(v string, def bool) bool {
	switch strings.ToLower(v) {
	case "1", "true", "yes":
		return true
	case "0", "false", "no":
		return false
	}
	return def
}

func splitList(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
