package pipeline

import (
	"context"
	"log"
	"time"

	"github.com/SherClockHolmes/webpush-go"

	"fleet-maintenance-backend/config"
	"fleet-maintenance-backend/internal/classifier"
	"fleet-maintenance-backend/internal/features"
	"fleet-maintenance-backend/internal/model"
	"fleet-maintenance-backend/internal/notification"
	"fleet-maintenance-backend/internal/store"
)

// Service runs the pipeline on a schedule and pushes alerts for the urgent
// findings of each successful run.
type Service struct {
	cfg          *config.Config
	orchestrator *Orchestrator
	workerPool   *notification.WorkerPool
	trigger      chan chan *Result
}

// NewService creates and initializes a new pipeline service.
func NewService(cfg *config.Config, s store.Store,
	screening, prioritization classifier.BinaryClassifier, enc *features.Encoding) *Service {

	webpushOptions := webpush.Options{
		VAPIDPublicKey:  cfg.Push.PublicKey,
		VAPIDPrivateKey: cfg.Push.PrivateKey,
		Subscriber:      cfg.Push.Subject,
		TTL:             cfg.Push.TTL,
	}
	workerPool := notification.NewWorkerPool(cfg.WorkerPool.Size, s.DB(), &webpushOptions)

	return &Service{
		cfg:          cfg,
		orchestrator: NewOrchestrator(cfg, s, screening, prioritization, enc),
		workerPool:   workerPool,
		trigger:      make(chan chan *Result),
	}
}

// Run starts the pipeline loop. It blocks until ctx is cancelled.
func (s *Service) Run(ctx context.Context) {
	if !s.cfg.Pipeline.Enabled {
		log.Println("Pipeline is disabled. Not starting.")
		return
	}
	log.Println("Starting pipeline service...")

	s.workerPool.Start(ctx)

	s.runCycle(ctx)

	timer := time.NewTimer(s.cfg.Pipeline.Interval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Pipeline service shutting down.")
			return
		case reply := <-s.trigger:
			reply <- s.runCycle(ctx)
			timer.Reset(s.cfg.Pipeline.Interval)
		case <-timer.C:
			s.runCycle(ctx)
			timer.Reset(s.cfg.Pipeline.Interval)
		}
	}
}

// Trigger requests an out-of-schedule run and waits for its report. The API
// exposes this for operators who do not want to wait for the next tick.
func (s *Service) Trigger(ctx context.Context) (*Result, error) {
	reply := make(chan *Result, 1)
	select {
	case s.trigger <- reply:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	select {
	case res := <-reply:
		return res, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (s *Service) runCycle(ctx context.Context) *Result {
	log.Println("Executing pipeline cycle...")
	res, err := s.orchestrator.RunOnce(ctx)
	if err != nil {
		log.Printf("Pipeline run failed: %v", err)
		return res
	}
	s.dispatchAlerts(res)
	return res
}

// dispatchAlerts queues a push job for every urgent finding. Only the two
// top tiers are worth interrupting someone over; subscribers narrow this
// further with their own priority floor.
func (s *Service) dispatchAlerts(res *Result) {
	if res == nil {
		return
	}
	dispatched := 0
	for i, task := range res.Tasks {
		if !task.Priority.AtLeast(model.TierHigh) {
			continue
		}
		pred := res.Predictions[i]
		s.workerPool.Dispatch(notification.AlertFromTask(task, pred.EquipmentID, pred.RecommendedAction))
		dispatched++
	}
	if dispatched > 0 {
		log.Printf("Dispatching notifications for %d tasks", dispatched)
	}
}
