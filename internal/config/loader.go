package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/unalkalkan/QuizForge/pkg/types"
	"gopkg.in/yaml.v3"
)

// Defaults applied by Validate when a value is left unset
const (
	DefaultUploadDir        = "uploads"
	DefaultMaxUploadBytes   = 10 << 20
	DefaultMaxBodyBytes     = 10 << 20
	DefaultQuestions        = 5
	DefaultMaxQuestions     = 20
	DefaultMinTextLength    = 50
	DefaultRequestTimeout   = 120
	DefaultProviderTimeout  = 60
	DefaultGeminiEndpoint   = "https://generativelanguage.googleapis.com/v1beta/openai/"
	DefaultGeminiModel      = "gemini-1.5-flash"
	ProviderTypeOpenAI      = "openai"
	ProviderTypeStub        = "stub"
	legacyGeminiKeyVariable = "GEMINI_API_KEY"
)

// Load reads and parses the configuration file
// It also supports environment variable overrides with QF_ prefix
func Load(configPath string) (*types.Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg types.Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	applyEnvOverrides(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// Validate checks if the configuration is valid and fills in defaults
func Validate(cfg *types.Config) error {
	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", cfg.Server.Port)
	}
	if cfg.Server.RequestTimeout <= 0 {
		cfg.Server.RequestTimeout = DefaultRequestTimeout
	}
	if cfg.Server.MaxBodyBytes <= 0 {
		cfg.Server.MaxBodyBytes = DefaultMaxBodyBytes
	}

	if err := validateStorage(&cfg.Storage); err != nil {
		return err
	}

	// Upload defaults
	if cfg.Upload.Dir == "" {
		cfg.Upload.Dir = DefaultUploadDir
	}
	if cfg.Upload.MaxSizeBytes <= 0 {
		cfg.Upload.MaxSizeBytes = DefaultMaxUploadBytes
	}
	if len(cfg.Upload.AllowedTypes) == 0 {
		cfg.Upload.AllowedTypes = []string{"application/pdf", "text/plain"}
	}

	if err := validateProviders(cfg); err != nil {
		return err
	}

	// Generation defaults
	if cfg.Generation.DefaultQuestions <= 0 {
		cfg.Generation.DefaultQuestions = DefaultQuestions
	}
	if cfg.Generation.MaxQuestions <= 0 {
		cfg.Generation.MaxQuestions = DefaultMaxQuestions
	}
	if cfg.Generation.DefaultQuestions > cfg.Generation.MaxQuestions {
		return fmt.Errorf("generation default_questions (%d) exceeds max_questions (%d)",
			cfg.Generation.DefaultQuestions, cfg.Generation.MaxQuestions)
	}
	if cfg.Generation.MinTextLength <= 0 {
		cfg.Generation.MinTextLength = DefaultMinTextLength
	}

	switch strings.ToLower(cfg.Logging.Level) {
	case "":
		cfg.Logging.Level = "info"
	case "debug", "info", "warn", "error":
		cfg.Logging.Level = strings.ToLower(cfg.Logging.Level)
	default:
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn or error)", cfg.Logging.Level)
	}

	return nil
}

func validateStorage(cfg *types.StorageConfig) error {
	if cfg.Adapter != "local" && cfg.Adapter != "s3" {
		return fmt.Errorf("invalid storage adapter: %s (must be 'local' or 's3')", cfg.Adapter)
	}

	if cfg.Adapter == "local" {
		if cfg.Local.BasePath == "" {
			return fmt.Errorf("local storage base_path is required")
		}
		if !filepath.IsAbs(cfg.Local.BasePath) {
			return fmt.Errorf("local storage base_path must be absolute: %s", cfg.Local.BasePath)
		}
	}

	if cfg.Adapter == "s3" {
		if cfg.S3.Bucket == "" {
			return fmt.Errorf("s3 bucket is required")
		}
		if cfg.S3.Region == "" {
			return fmt.Errorf("s3 region is required")
		}
	}

	return nil
}

// validateProviders is the startup check for provider credentials: an enabled
// OpenAI-compatible provider without an API key fails here instead of on the
// first generation request.
func validateProviders(cfg *types.Config) error {
	enabled := make(map[string]bool)
	for i := range cfg.Providers.LLM {
		p := &cfg.Providers.LLM[i]
		if p.Name == "" {
			return fmt.Errorf("llm provider %d: name is required", i)
		}
		if p.Type == "" {
			p.Type = ProviderTypeOpenAI
		}
		if p.Timeout <= 0 {
			p.Timeout = DefaultProviderTimeout
		}
		if p.MaxRetries < 0 {
			p.MaxRetries = 2
		}
		if !p.Enabled {
			continue
		}

		switch p.Type {
		case ProviderTypeOpenAI:
			if p.Endpoint == "" {
				return fmt.Errorf("llm provider %s: endpoint is required", p.Name)
			}
			if p.Model == "" {
				return fmt.Errorf("llm provider %s: model is required", p.Name)
			}
			if p.APIKey == "" {
				return fmt.Errorf("llm provider %s: api_key is not set (use QF_LLM_%s_API_KEY)", p.Name, envName(p.Name))
			}
		case ProviderTypeStub:
		default:
			return fmt.Errorf("llm provider %s: invalid type %s (must be 'openai' or 'stub')", p.Name, p.Type)
		}
		enabled[p.Name] = true
	}

	if len(enabled) == 0 {
		return fmt.Errorf("at least one llm provider must be enabled")
	}
	if cfg.Generation.Provider == "" {
		for _, p := range cfg.Providers.LLM {
			if p.Enabled {
				cfg.Generation.Provider = p.Name
				break
			}
		}
	}
	if !enabled[cfg.Generation.Provider] {
		return fmt.Errorf("generation provider %s is not an enabled llm provider", cfg.Generation.Provider)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides
// Environment variables should be prefixed with QF_ (QuizForge)
func applyEnvOverrides(cfg *types.Config) {
	// Server overrides
	if val := os.Getenv("QF_SERVER_HOST"); val != "" {
		cfg.Server.Host = val
	}
	if val := os.Getenv("PORT"); val != "" {
		fmt.Sscanf(val, "%d", &cfg.Server.Port)
	}
	if val := os.Getenv("QF_SERVER_PORT"); val != "" {
		fmt.Sscanf(val, "%d", &cfg.Server.Port)
	}

	// Storage overrides
	if val := os.Getenv("QF_STORAGE_ADAPTER"); val != "" {
		cfg.Storage.Adapter = val
	}
	if val := os.Getenv("QF_STORAGE_LOCAL_BASE_PATH"); val != "" {
		cfg.Storage.Local.BasePath = val
	}
	if val := os.Getenv("QF_STORAGE_S3_BUCKET"); val != "" {
		cfg.Storage.S3.Bucket = val
	}
	if val := os.Getenv("QF_STORAGE_S3_REGION"); val != "" {
		cfg.Storage.S3.Region = val
	}
	if val := os.Getenv("QF_STORAGE_S3_ENDPOINT"); val != "" {
		cfg.Storage.S3.Endpoint = val
	}
	if val := os.Getenv("QF_STORAGE_S3_ACCESS_KEY_ID"); val != "" {
		cfg.Storage.S3.AccessKeyID = val
	}
	if val := os.Getenv("QF_STORAGE_S3_SECRET_ACCESS_KEY"); val != "" {
		cfg.Storage.S3.SecretAccessKey = val
	}

	if val := os.Getenv("QF_LOG_LEVEL"); val != "" {
		cfg.Logging.Level = val
	}
	if val := os.Getenv("QF_GENERATION_PROVIDER"); val != "" {
		cfg.Generation.Provider = val
	}

	applyProviderEnvOverrides(cfg)
}

// applyProviderEnvOverrides applies provider-specific env vars
func applyProviderEnvOverrides(cfg *types.Config) {
	for i := range cfg.Providers.LLM {
		p := &cfg.Providers.LLM[i]
		prefix := fmt.Sprintf("QF_LLM_%s_", envName(p.Name))

		// GEMINI_API_KEY is kept for deployments that predate the QF_ prefix
		if strings.EqualFold(p.Name, "gemini") {
			if val := os.Getenv(legacyGeminiKeyVariable); val != "" {
				p.APIKey = val
			}
		}
		if val := os.Getenv(prefix + "API_KEY"); val != "" {
			p.APIKey = val
		}
		if val := os.Getenv(prefix + "ENDPOINT"); val != "" {
			p.Endpoint = val
		}
		if val := os.Getenv(prefix + "MODEL"); val != "" {
			p.Model = val
		}
	}
}

func envName(name string) string {
	return strings.ToUpper(strings.ReplaceAll(name, "-", "_"))
}

// GetDefault returns a default configuration
func GetDefault() *types.Config {
	return &types.Config{
		Server: types.ServerConfig{
			Host:           "0.0.0.0",
			Port:           3005,
			ReadTimeout:    15,
			WriteTimeout:   130,
			RequestTimeout: DefaultRequestTimeout,
			MaxBodyBytes:   DefaultMaxBodyBytes,
			CORSOrigins:    []string{"*"},
		},
		Storage: types.StorageConfig{
			Adapter: "local",
			Local: types.LocalStorageOpts{
				BasePath: "/var/lib/quizforge/storage",
			},
		},
		Upload: types.UploadConfig{
			Dir:          DefaultUploadDir,
			MaxSizeBytes: DefaultMaxUploadBytes,
			AllowedTypes: []string{"application/pdf", "text/plain"},
		},
		Providers: types.ProvidersConfig{
			LLM: []types.LLMProviderConfig{
				{
					Name:       "gemini",
					Type:       ProviderTypeOpenAI,
					Enabled:    false,
					Endpoint:   DefaultGeminiEndpoint,
					Model:      DefaultGeminiModel,
					MaxRetries: 2,
					Timeout:    DefaultProviderTimeout,
				},
				{
					Name:    "stub",
					Type:    ProviderTypeStub,
					Enabled: true,
				},
			},
		},
		Generation: types.GenerationConfig{
			Provider:         "stub",
			DefaultQuestions: DefaultQuestions,
			MaxQuestions:     DefaultMaxQuestions,
			MinTextLength:    DefaultMinTextLength,
		},
		Logging: types.LoggingConfig{
			Level: "info",
		},
	}
}
