package config

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/sethvargo/go-envconfig"
)

func load(t *testing.T, env map[string]string) (*Config, error) {
	t.Helper()
	return LoadFrom(context.Background(), envconfig.MapLookuper(env))
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := load(t, map[string]string{"JWT_SECRET": "s3cret"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Port != "8080" || cfg.Env != "development" || cfg.LogLevel != "info" {
		t.Errorf("unexpected server defaults: %+v", cfg)
	}
	if cfg.TokenTTL() != time.Hour {
		t.Errorf("expected 1h token ttl, got %v", cfg.TokenTTL())
	}
	if cfg.Auth.BcryptCost != 10 || cfg.Auth.DefaultRole != "nurse" || cfg.Auth.RevokeOnLogout {
		t.Errorf("unexpected auth defaults: %+v", cfg.Auth)
	}
	if cfg.Storage.Credentials != BackendMemory || cfg.Storage.Data != BackendMemory {
		t.Errorf("unexpected storage defaults: %+v", cfg.Storage)
	}
	if cfg.Audit.Workers != 4 {
		t.Errorf("expected 4 audit workers, got %d", cfg.Audit.Workers)
	}

	roles, err := cfg.RoleSet()
	if err != nil {
		t.Fatalf("unexpected role set error: %v", err)
	}
	want := []string{"admin", "doctor", "nurse", "technician"}
	if !reflect.DeepEqual(roles.Names(), want) {
		t.Errorf("expected roles %v, got %v", want, roles.Names())
	}
	if !reflect.DeepEqual(cfg.AllowedOrigins(), []string{"http://localhost:3000"}) {
		t.Errorf("unexpected dev origins: %v", cfg.AllowedOrigins())
	}
}

func TestLoad_MissingSecret(t *testing.T) {
	_, err := load(t, map[string]string{})
	if !errors.Is(err, errMissingSecret) {
		t.Fatalf("expected errMissingSecret, got %v", err)
	}

	_, err = load(t, map[string]string{"JWT_SECRET": "   "})
	if !errors.Is(err, errMissingSecret) {
		t.Fatalf("expected errMissingSecret for blank secret, got %v", err)
	}
}

func TestLoad_Overrides(t *testing.T) {
	cfg, err := load(t, map[string]string{
		"JWT_SECRET":       "s3cret",
		"JWT_EXPIRES_IN":   "60",
		"ROLES":            "admin,doctor,nurse,technician,superadmin",
		"DEFAULT_ROLE":     "technician",
		"ENV":              "production",
		"CORS_ORIGINS":     "https://a.example,https://b.example",
		"REVOKE_ON_LOGOUT": "true",
		"REDIS_ADDR":       "localhost:6379",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.TokenTTL() != time.Minute {
		t.Errorf("expected 1m, got %v", cfg.TokenTTL())
	}
	roles, _ := cfg.RoleSet()
	if !roles.Contains("superadmin") {
		t.Errorf("expected superadmin in %v", roles.Names())
	}
	if !reflect.DeepEqual(cfg.AllowedOrigins(), []string{"https://a.example", "https://b.example"}) {
		t.Errorf("unexpected origins: %v", cfg.AllowedOrigins())
	}
	if !cfg.Auth.RevokeOnLogout {
		t.Error("expected revoke on logout")
	}
}

func TestLoad_ProductionHasNoDefaultOrigins(t *testing.T) {
	cfg, err := load(t, map[string]string{"JWT_SECRET": "s", "ENV": "production"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := cfg.AllowedOrigins(); len(got) != 0 {
		t.Errorf("expected no origins, got %v", got)
	}
}

func TestLoad_InvalidCombinations(t *testing.T) {
	cases := []struct {
		name string
		env  map[string]string
	}{
		{"default role outside set", map[string]string{"DEFAULT_ROLE": "janitor"}},
		{"zero ttl", map[string]string{"JWT_EXPIRES_IN": "0"}},
		{"duplicate roles", map[string]string{"ROLES": "admin,admin"}},
		{"unknown credential store", map[string]string{"CREDENTIAL_STORE": "sqlite"}},
		{"postgres without dsn", map[string]string{"CREDENTIAL_STORE": "postgres"}},
		{"unknown data store", map[string]string{"DATA_STORE": "postgres"}},
		{"revoke without redis", map[string]string{"REVOKE_ON_LOGOUT": "true"}},
		{"half a seed account", map[string]string{"SEED_ADMIN_USERNAME": "root"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tc.env["JWT_SECRET"] = "s3cret"
			if _, err := load(t, tc.env); err == nil {
				t.Fatal("expected a validation error")
			}
		})
	}
}

func TestUsesMongo(t *testing.T) {
	cfg := &Config{Storage: StorageConfig{Credentials: BackendPostgres, Data: BackendMongo}}
	if !cfg.UsesMongo() {
		t.Error("expected mongo in use for data store")
	}
	cfg.Storage.Data = BackendMemory
	if cfg.UsesMongo() {
		t.Error("expected mongo unused")
	}
}
