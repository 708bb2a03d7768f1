package scheduler

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"outreach_backend/internal/events"
	"outreach_backend/platform/config"
	"outreach_backend/platform/logger"
)

// Worker consumes the task queue and runs leads through the processor.
type Worker struct {
	server *asynq.Server
	mux    *asynq.ServeMux
	proc   *Processor
	log    *logger.Logger
}

func NewWorker(cfg config.SchedulerConfig, proc *Processor, log *logger.Logger) (*Worker, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	queue := cfg.GetAsynqQueueName()
	if queue == "" {
		queue = "default"
	}

	concurrency := cfg.GetAsynqConcurrency()
	if concurrency < 1 {
		concurrency = 10
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			queue: 1,
		},
	})

	mux := asynq.NewServeMux()
	w := &Worker{
		server: server,
		mux:    mux,
		proc:   proc,
		log:    log,
	}

	mux.HandleFunc(TaskLeadProcess, w.handleLeadProcess)

	return w, nil
}

func (w *Worker) handleLeadProcess(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseLeadProcessPayload(task)
	if err != nil {
		return err
	}

	leadID, err := uuid.Parse(payload.LeadID)
	if err != nil {
		return err
	}

	w.log.WithLead(payload.LeadID).Debug("queued lead processing", "trigger", payload.Trigger)
	return w.proc.ProcessLead(ctx, leadID)
}

func (w *Worker) Run(ctx context.Context) {
	if w == nil || w.server == nil {
		return
	}

	go func() {
		<-ctx.Done()
		w.server.Shutdown()
	}()

	if err := w.server.Run(w.mux); err != nil {
		w.log.Error("scheduler worker stopped", "error", err)
	}
}

// RegisterHandlers wires bus events to queue enqueues: a detected
// acceptance gets the lead's first message scheduled immediately instead of
// waiting for the next poll tick.
func RegisterHandlers(bus events.Bus, client *Client, log *logger.Logger) {
	bus.Subscribe(events.LeadConnected{}.EventName(), events.HandlerFunc(func(ctx context.Context, event events.Event) error {
		connected, ok := event.(events.LeadConnected)
		if !ok {
			return nil
		}
		err := client.EnqueueLeadProcess(ctx, LeadProcessPayload{
			LeadID:  connected.LeadID.String(),
			Trigger: "connection_" + connected.Detection,
		})
		if err != nil {
			log.Error("enqueue lead process", "lead_id", connected.LeadID, "error", err)
		}
		return err
	}))
}
