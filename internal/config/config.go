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
	Database    DatabaseConfig   `json:"database"`
	FileStore   FileStoreConfig  `json:"file_store"`
	AI          AIConfig         `json:"ai"`
	RAG         RAGConfig        `json:"rag"`
	Jobs        JobsConfig       `json:"jobs"`
}

type DatabaseConfig struct {
	DSN      string `json:"dsn"`
	Host     string `json:"host"`
	Port     int    `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
	DBName   string `json:"dbname"`
	SSLMode  string `json:"sslmode"`
}

type FileStoreConfig struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

type AIConfig struct {
	Provider       string      `json:"provider"`
	Data           interface{} `json:"data"`
	GenerateModel  string      `json:"generate_model"`
	EmbedModel     string      `json:"embed_model"`
	EmbedDimension int         `json:"embed_dimension"`
	Timeout        int         `json:"timeout"`
}

type RAGConfig struct {
	ChunkSize       int `json:"chunk_size"`
	ChunkOverlap    int `json:"chunk_overlap"`
	TopK            int `json:"top_k"`
	UpsertBatchSize int `json:"upsert_batch_size"`
}

type JobsConfig struct {
	IngestRetrySpec   string `json:"ingest_retry_spec"`
	RetryAfterMinutes int    `json:"retry_after_minutes"`
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
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("jwt_secret is required")
	}
	if cfg.Port == 0 {
		return nil, fmt.Errorf("port is required")
	}
	if cfg.JWTTTLHours == 0 {
		cfg.JWTTTLHours = 72
	}
	if cfg.LogConfig.Level == "" {
		cfg.LogConfig.Level = "info"
	}
	if cfg.Database.DSN == "" && cfg.Database.Host == "" {
		return nil, fmt.Errorf("database.dsn or database.host is required")
	}
	if cfg.FileStore.Type == "" {
		cfg.FileStore.Type = "local"
	}
	if cfg.AI.Provider == "" {
		return nil, fmt.Errorf("ai.provider is required")
	}
	if cfg.AI.GenerateModel == "" {
		return nil, fmt.Errorf("ai.generate_model is required")
	}
	if cfg.AI.EmbedModel == "" {
		return nil, fmt.Errorf("ai.embed_model is required")
	}
	if cfg.RAG.ChunkSize == 0 {
		cfg.RAG.ChunkSize = 1000
	}
	if cfg.RAG.ChunkOverlap == 0 {
		cfg.RAG.ChunkOverlap = 150
	}
	if cfg.RAG.ChunkOverlap >= cfg.RAG.ChunkSize {
		return nil, fmt.Errorf("rag.chunk_overlap must be smaller than rag.chunk_size")
	}
	if cfg.RAG.TopK == 0 {
		cfg.RAG.TopK = 5
	}
	if cfg.RAG.UpsertBatchSize == 0 {
		cfg.RAG.UpsertBatchSize = 50
	}
	if cfg.Jobs.RetryAfterMinutes == 0 {
		cfg.Jobs.RetryAfterMinutes = 30
	}
	return &cfg, nil
}
