package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/caredocs/docintel/internal/classifier"
	"github.com/caredocs/docintel/internal/config"
	"github.com/caredocs/docintel/internal/extraction"
	"github.com/caredocs/docintel/internal/llm"
	"github.com/caredocs/docintel/internal/logger"
	"github.com/caredocs/docintel/internal/ocr"
	"github.com/caredocs/docintel/internal/pipeline"
	"github.com/caredocs/docintel/internal/repository"
	"github.com/caredocs/docintel/internal/storage"
)

func main() {
	configPath := os.Getenv("CONFIG_PATH")
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	appLog := logger.NewFromEnv("docintel-worker")
	logger.SetDefaultLogger(appLog)
	defer logger.Sync()

	db, err := repository.InitDB(&cfg.Database)
	if err != nil {
		appLog.WithError(err).Fatal("Failed to initialize database")
	}

	documentRepo := repository.NewDocumentRepository(db)
	jobRepo := repository.NewJobRepository(db)
	resultRepo := repository.NewResultRepository(db)

	objectStorage, err := storage.NewStorage(cfg.Storage.Provider, &storage.S3Config{
		Endpoint:  cfg.Storage.Endpoint,
		AccessKey: cfg.Storage.AccessKey,
		SecretKey: cfg.Storage.SecretKey,
		UseSSL:    cfg.Storage.UseSSL,
		Bucket:    cfg.Storage.Bucket,
		Region:    cfg.Storage.Region,
		PublicURL: cfg.Storage.PublicURL,
	})
	if err != nil {
		appLog.WithError(err).Fatal("Failed to initialize storage")
	}

	// OCR engines
	textractEngine, err := ocr.NewTextractEngine(cfg.OCR.Textract, appLog)
	if err != nil {
		appLog.WithError(err).Fatal("Failed to initialize Textract engine")
	}
	azureEngine := ocr.NewAzureEngine(cfg.OCR.Azure, appLog)
	ocrOrchestrator := ocr.NewOrchestrator(cfg.OCR, []ocr.Engine{textractEngine, azureEngine}, appLog)

	// LLM provider shared by classification fallback and extraction
	provider, err := llm.NewProvider(&llm.Config{
		Provider:    cfg.LLM.Provider,
		Model:       cfg.LLM.Model,
		APIKey:      cfg.LLM.APIKey,
		BaseURL:     cfg.LLM.BaseURL,
		MaxTokens:   cfg.LLM.MaxTokens,
		Temperature: cfg.LLM.Temperature,
	})
	if err != nil {
		appLog.WithError(err).Fatal("Failed to initialize LLM provider")
	}

	docClassifier := classifier.New(cfg.Classification, classifier.NewLLMFallback(provider, appLog), appLog)
	extractor := extraction.NewExtractor(provider, cfg.Extraction, appLog)

	worker := pipeline.NewWorker(
		cfg.Pipeline,
		documentRepo,
		jobRepo,
		resultRepo,
		objectStorage,
		ocrOrchestrator,
		docClassifier,
		extractor,
		appLog,
	)

	server, err := pipeline.NewServer(cfg.Redis.URL, cfg.Pipeline, worker, appLog)
	if err != nil {
		appLog.WithError(err).Fatal("Failed to initialize queue server")
	}

	if err := server.Start(); err != nil {
		appLog.WithError(err).Fatal("Failed to start queue server")
	}
	appLog.WithField("concurrency", cfg.Pipeline.Concurrency).Info("Worker started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLog.Info("Shutting down worker...")
	server.Shutdown()
	appLog.Info("Worker exited")
}
