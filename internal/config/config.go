// Package config provides runtime configuration for PhiGate.
// It uses Viper to load settings from files and environment variables.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all runtime configuration for PhiGate.
type Config struct {
	// ── Server ───────────────────────────────────────────────────────────────
	ServerHost string `mapstructure:"server_host"`
	// PublicPort: unified gateway surface (routing, passthrough, telemetry, UI)
	PublicPort int    `mapstructure:"public_port"`
	DBPath     string `mapstructure:"db_path"`

	// ── Backends ─────────────────────────────────────────────────────────────
	// Base URLs of the two inference services. No trailing slash.
	ReasoningURL  string `mapstructure:"reasoning_url"`
	MultimodalURL string `mapstructure:"multimodal_url"`

	// ── Model identities ─────────────────────────────────────────────────────
	// Canonical ids are what the backends themselves advertise; aliases are
	// short names accepted interchangeably on the gateway surface.
	ModelReasoningID     string `mapstructure:"model_reasoning_id"`
	ModelMultimodalID    string `mapstructure:"model_multimodal_id"`
	ModelReasoningAlias  string `mapstructure:"model_reasoning_alias"`
	ModelMultimodalAlias string `mapstructure:"model_multimodal_alias"`

	// ── Security ──────────────────────────────────────────────────────────────
	// JWTSecret: HS256 signing key for admin tokens issued by /api/login.
	// Change this in production — default is a random-looking placeholder.
	JWTSecret string `mapstructure:"jwt_secret"`
	// AdminUser / AdminPass: credentials for /api/login. The password is
	// bcrypt-hashed at startup by the server and compared on login.
	AdminUser string `mapstructure:"admin_user"`
	AdminPass string `mapstructure:"admin_pass"`
}

// Load reads config from file (./config.yaml or ~/.phigate/config.yaml)
// and falls back to smart defaults. Environment variables with prefix GATEWAY_
// override file values.
func Load() (*Config, error) {
	v := viper.New()

	// --- Smart Defaults ---
	v.SetDefault("server_host", "0.0.0.0")
	v.SetDefault("public_port", 8080)
	v.SetDefault("db_path", "phigate.db")

	v.SetDefault("reasoning_url", "http://127.0.0.1:8355")
	v.SetDefault("multimodal_url", "http://127.0.0.1:8356")

	v.SetDefault("model_reasoning_id", "nvidia/Phi-4-reasoning-plus-FP8")
	v.SetDefault("model_multimodal_id", "nvidia/Phi-4-multimodal-instruct-NVFP4")
	v.SetDefault("model_reasoning_alias", "phi-4-reasoning-plus")
	v.SetDefault("model_multimodal_alias", "phi-4-multimodal-instruct")

	// Security defaults — MUST be overridden in production via config.yaml or env vars.
	v.SetDefault("jwt_secret", "PhG8$Kq2@nW7!vZ4#sM9^bX1&cD6*hY") // random placeholder
	v.SetDefault("admin_user", "admin")
	v.SetDefault("admin_pass", "admin")

	// --- Config file ---
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.phigate")
	if err := v.ReadInConfig(); err != nil {
		// config file is optional; ignore "not found" errors
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	// --- Environment Variables ---
	v.SetEnvPrefix("GATEWAY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	return &cfg, nil
}
