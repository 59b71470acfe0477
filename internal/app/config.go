package app

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/adlnet/edlm-portal-backend/internal/data/db"
	"github.com/adlnet/edlm-portal-backend/internal/observability"
	"github.com/adlnet/edlm-portal-backend/internal/pkg/envutil"
	"github.com/adlnet/edlm-portal-backend/internal/platform/extapi"
	"github.com/adlnet/edlm-portal-backend/internal/platform/personcache"
)

// ExternalServices is the injected replacement for a process wide settings
// lookup: one extapi.Config per upstream.
type ExternalServices struct {
	ECCR extapi.Config
	XDS  extapi.Config
	ELRR extapi.Config
}

type Config struct {
	Port            string
	JWTSecretKey    string
	AllowedOrigins  []string
	ShutdownTimeout time.Duration

	DB          db.Config
	External    ExternalServices
	PersonCache personcache.Config
	Otel        observability.OtelConfig
}

// fileConfig is the optional CONFIG_FILE layout. Environment variables win
// over anything set here.
type fileConfig struct {
	ExternalServices struct {
		TimeoutSeconds int `yaml:"timeout_seconds"`
		ECCR           struct {
			BaseURL string `yaml:"base_url"`
			Token   string `yaml:"token"`
		} `yaml:"eccr"`
		XDS struct {
			BaseURL string `yaml:"base_url"`
			Token   string `yaml:"token"`
		} `yaml:"xds"`
		ELRR struct {
			BaseURL string `yaml:"base_url"`
			APIKey  string `yaml:"api_key"`
		} `yaml:"elrr"`
	} `yaml:"external_services"`
	CORS struct {
		AllowedOrigins []string `yaml:"allowed_origins"`
	} `yaml:"cors"`
}

func readFileConfig(path string) (fileConfig, error) {
	var fc fileConfig
	path = strings.TrimSpace(path)
	if path == "" {
		return fc, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return fc, fmt.Errorf("read config file: %w", err)
	}
	defer f.Close()
	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(&fc); err != nil {
		return fc, fmt.Errorf("parse config file %s: %w", path, err)
	}
	return fc, nil
}

// LoadConfig reads CONFIG_FILE when set, then the environment.
func LoadConfig() (Config, error) {
	fc, err := readFileConfig(os.Getenv("CONFIG_FILE"))
	if err != nil {
		return Config{}, err
	}
	ext := fc.ExternalServices
	timeoutDefault := extapi.DefaultTimeout
	if ext.TimeoutSeconds > 0 {
		timeoutDefault = time.Duration(ext.TimeoutSeconds) * time.Second
	}
	timeout := envutil.Seconds("EXTERNAL_TIMEOUT_SECONDS", timeoutDefault)

	cfg := Config{
		Port:            envutil.String("PORT", "8080"),
		JWTSecretKey:    envutil.String("JWT_SECRET_KEY", ""),
		AllowedOrigins:  envutil.List("CORS_ALLOWED_ORIGINS", fc.CORS.AllowedOrigins),
		ShutdownTimeout: envutil.Seconds("SHUTDOWN_TIMEOUT_SECONDS", 15*time.Second),
		DB:              db.ConfigFromEnv(),
		External: ExternalServices{
			ECCR: extapi.Config{
				BaseURL: envutil.String("ECCR_API_URL", ext.ECCR.BaseURL),
				Token:   envutil.String("ECCR_API_TOKEN", ext.ECCR.Token),
				Timeout: timeout,
			},
			XDS: extapi.Config{
				BaseURL: envutil.String("XDS_API_URL", ext.XDS.BaseURL),
				Token:   envutil.String("XDS_API_TOKEN", ext.XDS.Token),
				Timeout: timeout,
			},
			ELRR: extapi.Config{
				BaseURL: envutil.String("ELRR_API_URL", ext.ELRR.BaseURL),
				Token:   envutil.String("ELRR_API_KEY", ext.ELRR.APIKey),
				Timeout: timeout,
			},
		},
		PersonCache: personcache.Config{
			Addr:     envutil.String("REDIS_ADDR", ""),
			Password: envutil.String("REDIS_PASSWORD", ""),
			DB:       envutil.Int("REDIS_DB", 0),
			TTL:      envutil.Seconds("PERSON_CACHE_TTL_SECONDS", 24*time.Hour),
		},
		Otel: observability.OtelConfigFromEnv(),
	}
	return cfg, cfg.validate()
}

func (c Config) validate() error {
	var missing []string
	if strings.TrimSpace(c.JWTSecretKey) == "" {
		missing = append(missing, "JWT_SECRET_KEY")
	}
	if strings.TrimSpace(c.External.ECCR.BaseURL) == "" {
		missing = append(missing, "ECCR_API_URL")
	}
	if strings.TrimSpace(c.External.XDS.BaseURL) == "" {
		missing = append(missing, "XDS_API_URL")
	}
	if strings.TrimSpace(c.External.ELRR.BaseURL) == "" {
		missing = append(missing, "ELRR_API_URL")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}
	return nil
}
