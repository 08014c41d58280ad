package main

import (
	"context"
	"net/http"
	"os"
	"time"

	chromago "github.com/amikos-tech/chroma-go/pkg/api/v2"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"google.golang.org/genai"

	"github.com/askpdf/backend/config"
	"github.com/askpdf/backend/controller"
	"github.com/askpdf/backend/logger"
	"github.com/askpdf/backend/metrics"
	"github.com/askpdf/backend/services"
)

func main() {
	log := logger.New(logger.Config{
		Level:  os.Getenv("LOG_LEVEL"),
		Pretty: os.Getenv("LOG_PRETTY") != "",
	})

	configPath := os.Getenv("ASKPDF_CONFIG")
	if configPath == "" {
		configPath = "config.yaml"
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", configPath).Msg("failed to load config")
	}

	promRegistry := prometheus.NewRegistry()
	appMetrics := metrics.New(promRegistry)

	// Embedding stack: Ollama client behind the content-addressed cache.
	httpClient := &http.Client{
		Timeout: time.Duration(cfg.Embedder.TimeoutSecs) * time.Second,
	}
	ollama := services.NewOllamaEmbedder(httpClient, cfg.Embedder.BaseURL, cfg.Embedder.Model)

	store, err := services.NewSQLiteEmbeddingStore(cfg.Storage.CacheDB)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open embedding cache store")
	}
	defer store.Close()

	embedder := services.NewCachedEmbedder(ollama, store, log, appMetrics)

	chunker, err := services.NewChunker(cfg.Chunker.ChunkSize, cfg.Chunker.ChunkOverlap)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid chunker configuration")
	}

	registry := services.NewDocumentRegistry(services.NeverEvict{})
	builder := services.NewMemoryIndexBuilder(embedder)
	extractor := services.NewUniPDFExtractor()

	composer, err := buildComposer(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create answer composer")
	}

	archive, closeArchive, err := buildArchive(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect chunk archive")
	}
	if closeArchive != nil {
		defer closeArchive()
	}
	if archive != nil {
		registry.OnEvict(func(id string) {
			if err := archive.DropDocument(context.Background(), id); err != nil {
				log.Warn().Err(err).Str("document_id", id).Msg("failed to drop archived chunks")
			}
		})
	}

	ragService, err := services.NewRAGService(services.RAGServiceDeps{
		Chunker:   chunker,
		Embedder:  embedder,
		Builder:   builder,
		Registry:  registry,
		Extractor: extractor,
		Composer:  composer,
		Archive:   archive,
		UploadDir: cfg.Storage.UploadDir,
		TopK:      cfg.Retrieval.TopK,
		Logger:    log,
		Metrics:   appMetrics,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create RAG service")
	}
	ragController := controller.NewRAGController(ragService, log)

	if cfg.Storage.WatchDir != "" {
		watcher := services.NewDirectoryWatcher(ragService, log)
		go watcher.Watch(context.Background(), cfg.Storage.WatchDir)
	}

	router := gin.Default()

	router.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", cfg.Server.CORSOrigin)
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "healthy",
			"service": "askpdf API",
			"version": "1.0.0",
		})
	})
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(promRegistry, promhttp.HandlerOpts{})))

	apiV1 := router.Group("/api/v1")
	{
		apiV1.POST("/documents", ragController.UploadDocument)       // Upload a PDF
		apiV1.POST("/ask", ragController.Ask)                        // Ask a question
		apiV1.GET("/documents/:id/chunks", ragController.ListChunks) // Browse archived chunks
	}

	log.Info().Str("port", cfg.Server.Port).Msg("askpdf backend starting")
	if err := router.Run(":" + cfg.Server.Port); err != nil {
		log.Fatal().Err(err).Msg("failed to start server")
	}
}

// buildComposer selects the answer composer backend. The template composer
// needs no external services; the Gemini composer requires GEMINI_API_KEY.
func buildComposer(cfg *config.AppConfig, log zerolog.Logger) (services.AnswerComposer, error) {
	switch cfg.Composer.Backend {
	case "gemini":
		client, err := genai.NewClient(context.Background(), &genai.ClientConfig{
			APIKey:  os.Getenv("GEMINI_API_KEY"),
			Backend: genai.BackendGeminiAPI,
		})
		if err != nil {
			return nil, err
		}
		log.Info().Str("model", cfg.Composer.GeminiModel).Msg("using Gemini answer composer")
		return services.NewGeminiComposer(client, cfg.Composer.GeminiModel), nil
	default:
		return services.NewTemplateComposer(), nil
	}
}

// buildArchive connects the optional Chroma chunk archive.
func buildArchive(cfg *config.AppConfig, log zerolog.Logger) (services.ChunkArchive, func(), error) {
	if !cfg.Archive.Enabled {
		return nil, nil, nil
	}
	chromaClient, err := chromago.NewHTTPClient()
	if err != nil {
		return nil, nil, err
	}
	closeFn := func() {
		if err := chromaClient.Close(); err != nil {
			log.Warn().Err(err).Msg("failed to close chroma client")
		}
	}
	collection, err := services.GetOrCreateArchiveCollection(context.Background(), chromaClient, cfg.Archive.Collection)
	if err != nil {
		closeFn()
		return nil, nil, err
	}
	log.Info().Str("collection", cfg.Archive.Collection).Msg("chunk archive enabled")
	return services.NewChromaArchive(collection, log), closeFn, nil
}
