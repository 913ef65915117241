package api

import (
	"github.com/gin-gonic/gin"

	"github.com/caredocs/docintel/internal/api/handler"
	"github.com/caredocs/docintel/internal/api/middleware"
	"github.com/caredocs/docintel/internal/config"
	"github.com/caredocs/docintel/internal/logger"
	"github.com/caredocs/docintel/internal/pipeline"
	"github.com/caredocs/docintel/internal/repository"
	"github.com/caredocs/docintel/internal/storage"
)

// SetupRouter configures the Gin router with all routes
func SetupRouter(
	cfg *config.Config,
	documents *repository.DocumentRepository,
	jobs *repository.JobRepository,
	results *repository.ResultRepository,
	store storage.ObjectStorage,
	queue *pipeline.Queue,
	log *logger.Logger,
) *gin.Engine {
	switch cfg.Server.Mode {
	case "release":
		gin.SetMode(gin.ReleaseMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.DebugMode)
	}

	r := gin.New()

	r.Use(gin.Recovery())
	r.Use(middleware.LoggerMiddleware(log))
	r.Use(middleware.CORS(cfg.Server.CORS))

	healthHandler := handler.NewHealthHandler()
	documentHandler := handler.NewDocumentHandler(documents, jobs, results, store, queue)

	r.GET("/health", healthHandler.Health)

	v1 := r.Group("/api/v1")
	{
		v1.POST("/documents", documentHandler.Upload)
		v1.POST("/documents/:id/process", documentHandler.Process)
		v1.GET("/documents/:id/status", documentHandler.Status)
		v1.GET("/documents/:id", documentHandler.Get)
	}

	return r
}
