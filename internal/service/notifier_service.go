package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ZyrticX/youreditable-api/internal/models"
	"github.com/ZyrticX/youreditable-api/pkg/config"
	"github.com/ZyrticX/youreditable-api/pkg/jobs"
)

// EventSender delivers a notification event over an outbound channel such as
// email. Implementations must tolerate being retried.
type EventSender interface {
	Send(ctx context.Context, event models.NotificationEvent) error
}

// LogSender is the default sender; it writes the event to the log. Production
// deployments swap in an email-backed sender.
type LogSender struct {
	logger *zap.Logger
	from   string
}

// NewLogSender constructs a logging event sender.
func NewLogSender(logger *zap.Logger, from string) *LogSender {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogSender{logger: logger, from: from}
}

// Send logs the outbound notification.
func (s *LogSender) Send(_ context.Context, event models.NotificationEvent) error {
	s.logger.Info("notification dispatched",
		zap.String("type", event.Type),
		zap.String("from", s.from),
		zap.String("project_id", event.ProjectID),
		zap.String("project_name", event.ProjectName),
		zap.String("video_id", event.VideoID),
		zap.String("reviewer", event.ReviewerLabel),
		zap.Int("note_count", event.NoteCount),
	)
	return nil
}

// NotifierService publishes review events to a background worker queue.
// Publication is fire-and-forget: enqueue failures are logged and never
// propagate to the mutation that raised the event.
type NotifierService struct {
	queue   *jobs.Queue
	sender  EventSender
	logger  *zap.Logger
	enabled bool
}

// NewNotifierService wires the notifier and its delivery queue.
func NewNotifierService(cfg config.NotifyConfig, sender EventSender, logger *zap.Logger) *NotifierService {
	if logger == nil {
		logger = zap.NewNop()
	}
	svc := &NotifierService{sender: sender, logger: logger, enabled: cfg.Enabled}
	svc.queue = jobs.NewQueue("notifications", svc.handle, jobs.QueueConfig{
		Workers:    cfg.Workers,
		MaxRetries: cfg.MaxRetries,
		RetryDelay: cfg.RetryDelay,
		Logger:     logger,
	})
	return svc
}

// Start launches the delivery workers.
func (s *NotifierService) Start(ctx context.Context) {
	if s.enabled {
		s.queue.Start(ctx)
	}
}

// Stop drains the delivery workers.
func (s *NotifierService) Stop() {
	if s.enabled {
		s.queue.Stop()
	}
}

// Publish enqueues an event for delivery. It never returns an error.
func (s *NotifierService) Publish(event models.NotificationEvent) {
	if s == nil || !s.enabled {
		return
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}
	job := jobs.Job{ID: uuid.NewString(), Type: event.Type, Payload: event}
	if err := s.queue.Enqueue(job); err != nil {
		s.logger.Warn("failed to enqueue notification", zap.String("type", event.Type), zap.Error(err))
	}
}

func (s *NotifierService) handle(ctx context.Context, job jobs.Job) error {
	event, ok := job.Payload.(models.NotificationEvent)
	if !ok {
		s.logger.Warn("dropping notification with unexpected payload", zap.String("job_id", job.ID))
		return nil
	}
	return s.sender.Send(ctx, event)
}
