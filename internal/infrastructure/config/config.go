// Package config loads the API configuration from environment variables.
package config

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sethvargo/go-envconfig"

	"github.com/meditrack/meditrack-api/internal/core/domain"
)

// Storage backends.
const (
	BackendMemory   = "memory"
	BackendMongo    = "mongo"
	BackendPostgres = "postgres"
)

var (
	defaultRoles        = []string{"admin", "doctor", "nurse", "technician"}
	defaultDevOrigins   = []string{"http://localhost:3000"}
	errMissingSecret    = errors.New("JWT_SECRET is required")
	errRedisForDenylist = errors.New("REVOKE_ON_LOGOUT requires REDIS_ADDR")
)

type Config struct {
	Port     string `env:"PORT,      default=8080"`
	Env      string `env:"ENV,       default=development"`
	LogLevel string `env:"LOG_LEVEL, default=info"`

	Auth     AuthConfig
	CORS     CORSConfig
	Storage  StorageConfig
	Mongo    MongoConfig
	Postgres PostgresConfig
	Redis    RedisConfig
	Audit    AuditConfig
	Seed     SeedConfig
}

type AuthConfig struct {
	JWTSecret      string   `env:"JWT_SECRET"`
	JWTExpiresIn   int      `env:"JWT_EXPIRES_IN,   default=3600"`
	JWTIssuer      string   `env:"JWT_ISSUER,       default=meditrack-api"`
	BcryptCost     int      `env:"BCRYPT_COST,      default=10"`
	Roles          []string `env:"ROLES"`
	DefaultRole    string   `env:"DEFAULT_ROLE,     default=nurse"`
	RevokeOnLogout bool     `env:"REVOKE_ON_LOGOUT, default=false"`
}

type CORSConfig struct {
	Origins []string `env:"CORS_ORIGINS"`
}

type StorageConfig struct {
	Credentials string `env:"CREDENTIAL_STORE, default=memory"`
	Data        string `env:"DATA_STORE,       default=memory"`
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=meditrack"`
}

type PostgresConfig struct {
	DSN          string `env:"POSTGRES_DSN"`
	MaxOpenConns int    `env:"POSTGRES_MAX_OPEN_CONNS, default=10"`
}

type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB, default=0"`
}

type AuditConfig struct {
	Workers int `env:"AUDIT_WORKERS, default=4"`
}

type SeedConfig struct {
	AdminUsername string `env:"SEED_ADMIN_USERNAME"`
	AdminPassword string `env:"SEED_ADMIN_PASSWORD"`
}

// Load reads configuration from the process environment and validates it.
func Load(ctx context.Context) (*Config, error) {
	return LoadFrom(ctx, envconfig.OsLookuper())
}

// LoadFrom reads configuration through l and validates it.
func LoadFrom(ctx context.Context, l envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &cfg,
		Lookuper: l,
	}); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks cross-field constraints that struct tags cannot express.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Auth.JWTSecret) == "" {
		return fmt.Errorf("config: %w", errMissingSecret)
	}
	if c.Auth.JWTExpiresIn <= 0 {
		return fmt.Errorf("config: JWT_EXPIRES_IN must be positive, got %d", c.Auth.JWTExpiresIn)
	}

	roles, err := c.RoleSet()
	if err != nil {
		return fmt.Errorf("config: ROLES: %w", err)
	}
	if !roles.Contains(domain.Role(c.Auth.DefaultRole)) {
		return fmt.Errorf("config: DEFAULT_ROLE %q is not one of: %s", c.Auth.DefaultRole, roles)
	}

	switch c.Storage.Credentials {
	case BackendMemory, BackendMongo:
	case BackendPostgres:
		if c.Postgres.DSN == "" {
			return errors.New("config: CREDENTIAL_STORE=postgres requires POSTGRES_DSN")
		}
	default:
		return fmt.Errorf("config: unknown CREDENTIAL_STORE %q", c.Storage.Credentials)
	}
	switch c.Storage.Data {
	case BackendMemory, BackendMongo:
	default:
		return fmt.Errorf("config: unknown DATA_STORE %q", c.Storage.Data)
	}

	if c.Auth.RevokeOnLogout && c.Redis.Addr == "" {
		return fmt.Errorf("config: %w", errRedisForDenylist)
	}
	if (c.Seed.AdminUsername == "") != (c.Seed.AdminPassword == "") {
		return errors.New("config: SEED_ADMIN_USERNAME and SEED_ADMIN_PASSWORD must be set together")
	}
	return nil
}

// RoleSet returns the configured role enumeration.
func (c *Config) RoleSet() (domain.RoleSet, error) {
	names := c.Auth.Roles
	if len(names) == 0 {
		names = defaultRoles
	}
	return domain.NewRoleSet(names...)
}

// TokenTTL is the lifetime of issued tokens.
func (c *Config) TokenTTL() time.Duration {
	return time.Duration(c.Auth.JWTExpiresIn) * time.Second
}

// AllowedOrigins returns the CORS origins. Development falls back to the
// local frontend; other environments allow no cross-origin callers unless
// CORS_ORIGINS is set.
func (c *Config) AllowedOrigins() []string {
	if len(c.CORS.Origins) > 0 {
		return c.CORS.Origins
	}
	if c.IsDevelopment() {
		return defaultDevOrigins
	}
	return nil
}

func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// UsesMongo reports whether any store is backed by MongoDB.
func (c *Config) UsesMongo() bool {
	return c.Storage.Credentials == BackendMongo || c.Storage.Data == BackendMongo
}
