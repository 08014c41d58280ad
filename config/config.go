package config

import (
	"errors"
	"os"

	"gopkg.in/yaml.v3"
)

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Port       string `yaml:"port"`
	CORSOrigin string `yaml:"cors_origin"`
}

// StorageConfig configures on-disk locations.
type StorageConfig struct {
	UploadDir string `yaml:"upload_dir"`
	CacheDB   string `yaml:"cache_db"`
	// WatchDir, when set, is scanned by the fsnotify watcher for dropped
	// PDFs. Empty disables the watcher.
	WatchDir string `yaml:"watch_dir"`
}

// EmbedderConfig configures the Ollama embeddings client.
type EmbedderConfig struct {
	BaseURL     string `yaml:"base_url"`
	Model       string `yaml:"model"`
	TimeoutSecs int    `yaml:"timeout_secs"`
}

// ChunkerConfig configures how extracted text is split.
type ChunkerConfig struct {
	ChunkSize    int `yaml:"chunk_size"`
	ChunkOverlap int `yaml:"chunk_overlap"`
}

// RetrievalConfig configures the question-answering side.
type RetrievalConfig struct {
	TopK int `yaml:"top_k"`
}

// ComposerConfig selects the answer composer backend.
type ComposerConfig struct {
	// Backend is "template" or "gemini".
	Backend     string `yaml:"backend"`
	GeminiModel string `yaml:"gemini_model"`
}

// ArchiveConfig configures the optional Chroma chunk archive.
type ArchiveConfig struct {
	Enabled    bool   `yaml:"enabled"`
	Collection string `yaml:"collection"`
}

// AppConfig is the root application configuration.
type AppConfig struct {
	Server    ServerConfig    `yaml:"server"`
	Storage   StorageConfig   `yaml:"storage"`
	Embedder  EmbedderConfig  `yaml:"embedder"`
	Chunker   ChunkerConfig   `yaml:"chunker"`
	Retrieval RetrievalConfig `yaml:"retrieval"`
	Composer  ComposerConfig  `yaml:"composer"`
	Archive   ArchiveConfig   `yaml:"archive"`
}

// Load reads a config from the given path. A missing file returns defaults.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return defaultConfig(), nil
		}
		return nil, err
	}
	var cfg AppConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	applyDefaults(&cfg)
	return &cfg, nil
}

func defaultConfig() *AppConfig {
	cfg := &AppConfig{}
	applyDefaults(cfg)
	return cfg
}

func applyDefaults(cfg *AppConfig) {
	if cfg.Server.Port == "" {
		cfg.Server.Port = "8080"
	}
	if cfg.Server.CORSOrigin == "" {
		cfg.Server.CORSOrigin = "*"
	}
	if cfg.Storage.UploadDir == "" {
		cfg.Storage.UploadDir = "uploads"
	}
	if cfg.Storage.CacheDB == "" {
		cfg.Storage.CacheDB = "embeddings_cache/embeddings.db"
	}
	if cfg.Embedder.BaseURL == "" {
		cfg.Embedder.BaseURL = "http://localhost:11434"
	}
	if cfg.Embedder.Model == "" {
		cfg.Embedder.Model = "nomic-embed-text:v1.5"
	}
	if cfg.Embedder.TimeoutSecs == 0 {
		cfg.Embedder.TimeoutSecs = 30
	}
	if cfg.Chunker.ChunkSize == 0 {
		cfg.Chunker.ChunkSize = 1000
	}
	if cfg.Chunker.ChunkOverlap == 0 {
		cfg.Chunker.ChunkOverlap = 200
	}
	if cfg.Retrieval.TopK == 0 {
		cfg.Retrieval.TopK = 4
	}
	if cfg.Composer.Backend == "" {
		cfg.Composer.Backend = "template"
	}
	if cfg.Composer.GeminiModel == "" {
		cfg.Composer.GeminiModel = "gemini-2.5-flash"
	}
	if cfg.Archive.Collection == "" {
		cfg.Archive.Collection = "askpdf-chunks"
	}
}
