package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/hibiken/asynq"

	"github.com/caredocs/docintel/internal/config"
	"github.com/caredocs/docintel/internal/logger"
)

// TaskTypeProcessDocument is the asynq task type for the document pipeline.
const TaskTypeProcessDocument = "document:process"

// ErrAlreadyQueued means a processing task for this document is already
// pending or running. Enqueue is idempotent per document.
var ErrAlreadyQueued = errors.New("document already queued for processing")

// TaskPayload is the job body carried through Redis.
type TaskPayload struct {
	DocumentID string `json:"document_id"`
	StorageKey string `json:"storage_key"`
	FileName   string `json:"file_name"`
	MimeType   string `json:"mime_type"`
	UserHint   string `json:"user_hint,omitempty"`
}

// Queue enqueues document processing tasks.
type Queue struct {
	client *asynq.Client
	cfg    config.PipelineConfig
	log    *logger.Logger
}

// NewQueue creates the task producer side of the pipeline.
func NewQueue(redisURL string, cfg config.PipelineConfig, log *logger.Logger) (*Queue, error) {
	redisOpt, err := asynq.ParseRedisURI(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}
	return &Queue{
		client: asynq.NewClient(redisOpt),
		cfg:    cfg,
		log:    log.WithField(logger.FieldComponent, "queue"),
	}, nil
}

// Enqueue submits a processing task for a document. The task ID is the
// document ID, so a document can only ever have one pending task; a duplicate
// submit returns ErrAlreadyQueued.
func (q *Queue) Enqueue(ctx context.Context, payload *TaskPayload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal task payload: %w", err)
	}

	task := asynq.NewTask(TaskTypeProcessDocument, body)
	_, err = q.client.EnqueueContext(ctx, task,
		asynq.TaskID(payload.DocumentID),
		asynq.Queue(q.cfg.QueueName),
		asynq.MaxRetry(q.cfg.JobMaxRetries),
		asynq.Timeout(q.cfg.JobTimeout),
		asynq.Retention(24*time.Hour),
	)
	if err != nil {
		if errors.Is(err, asynq.ErrTaskIDConflict) {
			return ErrAlreadyQueued
		}
		return fmt.Errorf("failed to enqueue document task: %w", err)
	}

	q.log.WithField(logger.FieldDocumentID, payload.DocumentID).Info("document task enqueued")
	return nil
}

// Close releases the Redis connection.
func (q *Queue) Close() error {
	return q.client.Close()
}

// Server consumes document processing tasks.
type Server struct {
	server *asynq.Server
	mux    *asynq.ServeMux
	log    *logger.Logger
}

// NewServer creates the task consumer side of the pipeline. Task retries use
// exponential backoff (5s, 10s, 20s, capped at 60s) on top of the worker's
// own in-stage retries.
func NewServer(redisURL string, cfg config.PipelineConfig, worker *Worker, log *logger.Logger) (*Server, error) {
	redisOpt, err := asynq.ParseRedisURI(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}

	srvLog := log.WithField(logger.FieldComponent, "queue_server")
	server := asynq.NewServer(redisOpt, asynq.Config{
		Concurrency: cfg.Concurrency,
		Queues: map[string]int{
			cfg.QueueName: 10,
			"default":     1,
		},
		RetryDelayFunc: func(n int, err error, task *asynq.Task) time.Duration {
			delay := time.Duration(5*(1<<uint(n))) * time.Second
			if delay > 60*time.Second {
				delay = 60 * time.Second
			}
			return delay
		},
		ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
			srvLog.WithError(err).WithField("task_type", task.Type()).Error("task processing error")
		}),
	})

	mux := asynq.NewServeMux()
	mux.HandleFunc(TaskTypeProcessDocument, worker.HandleTask)

	return &Server{server: server, mux: mux, log: srvLog}, nil
}

// Start begins consuming tasks. It does not block.
func (s *Server) Start() error {
	if err := s.server.Start(s.mux); err != nil {
		return fmt.Errorf("failed to start queue server: %w", err)
	}
	return nil
}

// Shutdown waits for in-flight tasks and stops the server.
func (s *Server) Shutdown() {
	s.log.Info("shutting down queue server")
	s.server.Shutdown()
}
