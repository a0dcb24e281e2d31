package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/xxxsen/common/logger"
)

type Config struct {
	Port        int              `json:"port"`
	JWTSecret   string           `json:"jwt_secret"`
	JWTTTLHours int              `json:"jwt_ttl_hours"`
	CORSOrigins []string         `json:"cors_origins"`
	LogConfig   logger.LogConfig `json:"log_config"`
	DB          DatabaseConfig   `json:"db"`
	Google      GoogleConfig     `json:"google"`
	AI          AIConfig         `json:"ai"`
	Voice       VoiceConfig      `json:"voice"`
	FileStore   FileStoreConfig  `json:"file_store"`
	Jobs        JobsConfig       `json:"jobs"`
}

type DatabaseConfig struct {
	DSN      string `json:"dsn"`
	Host     string `json:"host"`
	Port     int    `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
	DBName   string `json:"db_name"`
	SSLMode  string `json:"ssl_mode"`
}

type GoogleConfig struct {
	// ClientID is optional; when set, verified id tokens must carry it as
	// audience.
	ClientID string `json:"client_id"`
}

type AIConfig struct {
	// Provider names the generation backend, EmbedProvider the embedding
	// backend. glm has no native embedding endpoint and is substituted by
	// ollama at wiring time.
	Provider      string                 `json:"provider"`
	EmbedProvider string                 `json:"embed_provider"`
	LLMModel      string                 `json:"llm_model"`
	FallbackModel string                 `json:"fallback_model"`
	VisionModel   string                 `json:"vision_model"`
	EmbedModel    string                 `json:"embed_model"`
	Dimension     int                    `json:"dimension"`
	Providers     map[string]interface{} `json:"providers"`
	Cache         EmbedCacheConfig       `json:"cache"`
}

type EmbedCacheConfig struct {
	LRUSize       int `json:"lru_size"`
	LRUTTLMinutes int `json:"lru_ttl_minutes"`
	MaxAgeDays    int `json:"max_age_days"`
}

type VoiceConfig struct {
	APIKey  string `json:"api_key"`
	BaseURL string `json:"base_url"`
	Model   string `json:"model"`
}

type FileStoreConfig struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

type JobsConfig struct {
	EmbedCacheCleanupSpec string `json:"embed_cache_cleanup_spec"`
	QueryLogCleanupSpec   string `json:"query_log_cleanup_spec"`
	QueryLogKeepDays      int    `json:"query_log_keep_days"`
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
	if cfg.Port == 0 {
		return nil, fmt.Errorf("port is required")
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("jwt_secret is required")
	}
	if cfg.DB.DSN == "" && cfg.DB.Host == "" {
		return nil, fmt.Errorf("db.dsn or db.host is required")
	}
	if cfg.JWTTTLHours == 0 {
		cfg.JWTTTLHours = 72
	}
	if cfg.LogConfig.Level == "" {
		cfg.LogConfig.Level = "info"
	}
	if cfg.AI.Provider == "" {
		cfg.AI.Provider = "ollama"
	}
	if cfg.AI.EmbedProvider == "" {
		cfg.AI.EmbedProvider = cfg.AI.Provider
	}
	if cfg.AI.EmbedModel == "" {
		cfg.AI.EmbedModel = "nomic-embed-text"
	}
	if cfg.AI.LLMModel == "" {
		cfg.AI.LLMModel = "llama3.2:3b"
	}
	if cfg.AI.FallbackModel == "" {
		cfg.AI.FallbackModel = "llama3.2:3b"
	}
	if cfg.AI.Dimension == 0 {
		cfg.AI.Dimension = 768
	}
	if cfg.Voice.Model == "" {
		cfg.Voice.Model = "whisper-1"
	}
	if cfg.Jobs.EmbedCacheCleanupSpec == "" {
		cfg.Jobs.EmbedCacheCleanupSpec = "30 3 * * *"
	}
	if cfg.Jobs.QueryLogCleanupSpec == "" {
		cfg.Jobs.QueryLogCleanupSpec = "0 4 * * *"
	}
	return &cfg, nil
}
