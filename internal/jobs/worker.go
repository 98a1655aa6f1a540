package jobs

import (
	"context"
	"log/slog"

	"github.com/hibiken/asynq"
)

// Worker runs the background task loop that delivers scheduled reminder
// nudges. Handlers are registered per task type before Run.
type Worker interface {
	RegisterHandler(taskType string, handler asynq.Handler)
	Run() error
	Shutdown()
}

type worker struct {
	server *asynq.Server
	mux    *asynq.ServeMux
	log    *slog.Logger
}

var _ Worker = (*worker)(nil)

// NewWorker constructs a Worker backed by an asynq.Server over the shared
// Redis connection.
func NewWorker(redisOpt asynq.RedisConnOpt, queues map[string]int, log *slog.Logger) Worker {
	server := asynq.NewServer(redisOpt, asynq.Config{
		Queues:         queues,
		Concurrency:    10,
		RetryDelayFunc: asynq.DefaultRetryDelayFunc,
	})

	mux := asynq.NewServeMux()

	return &worker{
		server: server,
		mux:    mux,
		log:    log,
	}
}

// RegisterHandler binds a task type to its handler.
func (w *worker) RegisterHandler(taskType string, handler asynq.Handler) {
	w.mux.Handle(taskType, handler)
}

// Run starts the processing loop and blocks until Shutdown.
func (w *worker) Run() error {
	if w.log != nil {
		w.log.InfoContext(context.Background(), "reminder worker: starting processing loop")
	}

	return w.server.Run(w.mux)
}

// Shutdown drains in-flight tasks and stops the loop.
func (w *worker) Shutdown() {
	if w.log != nil {
		w.log.InfoContext(context.Background(), "reminder worker: shutting down")
	}

	w.server.Shutdown()
}
