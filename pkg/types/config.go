package types

// Config represents the overall application configuration
type Config struct {
	Server     ServerConfig     `yaml:"server" json:"server"`
	Storage    StorageConfig    `yaml:"storage" json:"storage"`
	Upload     UploadConfig     `yaml:"upload" json:"upload"`
	Providers  ProvidersConfig  `yaml:"providers" json:"providers"`
	Generation GenerationConfig `yaml:"generation" json:"generation"`
	Logging    LoggingConfig    `yaml:"logging" json:"logging"`
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Host           string   `yaml:"host" json:"host"`
	Port           int      `yaml:"port" json:"port"`
	ReadTimeout    int      `yaml:"read_timeout" json:"read_timeout"`       // seconds
	WriteTimeout   int      `yaml:"write_timeout" json:"write_timeout"`     // seconds
	RequestTimeout int      `yaml:"request_timeout" json:"request_timeout"` // seconds, covers LLM calls
	MaxBodyBytes   int64    `yaml:"max_body_bytes" json:"max_body_bytes"`   // JSON request bodies
	CORSOrigins    []string `yaml:"cors_origins" json:"cors_origins"`
}

// StorageConfig defines storage adapter settings
type StorageConfig struct {
	Adapter string           `yaml:"adapter" json:"adapter"` // "local" or "s3"
	Local   LocalStorageOpts `yaml:"local" json:"local"`
	S3      S3StorageOpts    `yaml:"s3" json:"s3"`
}

// LocalStorageOpts configures the local filesystem adapter
type LocalStorageOpts struct {
	BasePath string `yaml:"base_path" json:"base_path"`
}

// S3StorageOpts configures the S3-compatible adapter
type S3StorageOpts struct {
	Endpoint        string `yaml:"endpoint" json:"endpoint"`
	Region          string `yaml:"region" json:"region"`
	Bucket          string `yaml:"bucket" json:"bucket"`
	AccessKeyID     string `yaml:"access_key_id" json:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key" json:"secret_access_key"`
	UseSSL          bool   `yaml:"use_ssl" json:"use_ssl"`
}

// UploadConfig controls accepted source documents
type UploadConfig struct {
	Dir          string   `yaml:"dir" json:"dir"`                     // key prefix inside storage
	MaxSizeBytes int64    `yaml:"max_size_bytes" json:"max_size_bytes"`
	AllowedTypes []string `yaml:"allowed_types" json:"allowed_types"` // MIME types
}

// ProvidersConfig holds all provider configurations
type ProvidersConfig struct {
	LLM []LLMProviderConfig `yaml:"llm" json:"llm"`
}

// LLMProviderConfig configures an LLM provider
type LLMProviderConfig struct {
	Name        string            `yaml:"name" json:"name"`
	Type        string            `yaml:"type" json:"type"` // "openai" or "stub"
	Enabled     bool              `yaml:"enabled" json:"enabled"`
	Endpoint    string            `yaml:"endpoint" json:"endpoint"`
	APIKey      string            `yaml:"api_key" json:"-"`
	Model       string            `yaml:"model" json:"model"`
	Temperature *float64          `yaml:"temperature" json:"temperature,omitempty"`
	MaxRetries  int               `yaml:"max_retries" json:"max_retries"`
	Timeout     int               `yaml:"timeout" json:"timeout"` // seconds
	Options     map[string]string `yaml:"options" json:"options"`
}

// GenerationConfig holds quiz generation settings
type GenerationConfig struct {
	Provider         string `yaml:"provider" json:"provider"` // LLM provider name
	DefaultQuestions int    `yaml:"default_questions" json:"default_questions"`
	MaxQuestions     int    `yaml:"max_questions" json:"max_questions"`
	MinTextLength    int    `yaml:"min_text_length" json:"min_text_length"`
}

// LoggingConfig configures the zap logger
type LoggingConfig struct {
	Level       string `yaml:"level" json:"level"` // debug, info, warn, error
	Development bool   `yaml:"development" json:"development"`
}
