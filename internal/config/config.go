package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/xxxsen/common/logger"

	apperrors "github.com/chengAMS/hyperdoc/internal/pkg/errors"
)

type Config struct {
	Port          int              `json:"port"`
	LogConfig     logger.LogConfig `json:"log_config"`
	Store         StoreConfig      `json:"store"`
	AI            AIConfig         `json:"ai"`
	Chunking      ChunkingConfig   `json:"chunking"`
	Retrieval     RetrievalConfig  `json:"retrieval"`
	Upload        UploadConfig     `json:"upload"`
	Archive       ArchiveConfig    `json:"archive"`
	Jobs          JobsConfig       `json:"jobs"`
	CORSAllowlist []string         `json:"cors_allowlist"`
}

type StoreConfig struct {
	Type     string         `json:"type"` // sqlite | postgres
	Path     string         `json:"path"` // sqlite database file
	Postgres PostgresConfig `json:"postgres"`
}

type PostgresConfig struct {
	DSN      string `json:"dsn"`
	Host     string `json:"host"`
	Port     int    `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
	DBName   string `json:"db_name"`
	SSLMode  string `json:"ssl_mode"`
}

type AIConfig struct {
	Provider        string      `json:"provider"`
	Model           string      `json:"model"`
	Dim             int         `json:"dim"`
	Data            interface{} `json:"data"`
	CacheSize       int         `json:"cache_size"`
	CacheTTLMinutes int         `json:"cache_ttl_minutes"`
}

type ChunkingConfig struct {
	ChunkSize    int `json:"chunk_size"`
	ChunkOverlap int `json:"chunk_overlap"`
}

type RetrievalConfig struct {
	DefaultTopK int `json:"default_top_k"`
	MaxTopK     int `json:"max_top_k"`
}

type UploadConfig struct {
	MaxFileSize int64 `json:"max_file_size"`
}

type ArchiveConfig struct {
	Enable bool        `json:"enable"`
	Type   string      `json:"type"` // local | s3
	Data   interface{} `json:"data"`
}

type JobsConfig struct {
	DriftAuditSpec string `json:"drift_audit_spec"`
}

func Load(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	var cfg Config
	if err := json.NewDecoder(file).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.applyDefaults(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (cfg *Config) applyDefaults() error {
	if cfg.Port == 0 {
		cfg.Port = 8000
	}
	if cfg.LogConfig.Level == "" {
		cfg.LogConfig.Level = "info"
	}
	if cfg.Store.Type == "" {
		cfg.Store.Type = "sqlite"
	}
	if cfg.Store.Type == "sqlite" && cfg.Store.Path == "" {
		cfg.Store.Path = "documents.db"
	}
	if cfg.AI.Provider == "" {
		return fmt.Errorf("%w: ai.provider is required", apperrors.ErrConfig)
	}
	if cfg.AI.Model == "" {
		cfg.AI.Model = "embedding-3"
	}
	if cfg.AI.Dim == 0 {
		cfg.AI.Dim = 1024
	}
	if cfg.AI.Dim < 0 {
		return fmt.Errorf("%w: ai.dim must be > 0", apperrors.ErrConfig)
	}
	if cfg.AI.Data == nil {
		// API keys usually arrive via the environment (.env), keyed
		// by provider name, e.g. ZHIPU_API_KEY.
		envKey := strings.ToUpper(cfg.AI.Provider) + "_API_KEY"
		cfg.AI.Data = map[string]interface{}{"api_key": os.Getenv(envKey)}
	}
	if cfg.Chunking.ChunkSize == 0 {
		cfg.Chunking.ChunkSize = 1000
	}
	if cfg.Chunking.ChunkOverlap == 0 {
		cfg.Chunking.ChunkOverlap = 200
	}
	if cfg.Chunking.ChunkSize <= 0 {
		return fmt.Errorf("%w: chunking.chunk_size must be > 0", apperrors.ErrConfig)
	}
	if cfg.Chunking.ChunkOverlap < 0 || cfg.Chunking.ChunkOverlap >= cfg.Chunking.ChunkSize {
		return fmt.Errorf("%w: chunking.chunk_overlap must be in [0, chunk_size)", apperrors.ErrConfig)
	}
	if cfg.Retrieval.DefaultTopK == 0 {
		cfg.Retrieval.DefaultTopK = 10
	}
	if cfg.Retrieval.MaxTopK == 0 {
		cfg.Retrieval.MaxTopK = 100
	}
	if cfg.Retrieval.DefaultTopK < 1 || cfg.Retrieval.DefaultTopK > cfg.Retrieval.MaxTopK {
		return fmt.Errorf("%w: retrieval.default_top_k must be in [1, max_top_k]", apperrors.ErrConfig)
	}
	if cfg.Upload.MaxFileSize == 0 {
		cfg.Upload.MaxFileSize = 50 * 1024 * 1024
	}
	if cfg.Archive.Enable && cfg.Archive.Type == "" {
		return fmt.Errorf("%w: archive.type is required when archive is enabled", apperrors.ErrConfig)
	}
	if cfg.Jobs.DriftAuditSpec == "" {
		cfg.Jobs.DriftAuditSpec = "0 3 * * *"
	}
	return nil
}
