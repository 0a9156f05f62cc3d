package worker

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"github.com/acro-planner/backend/pkg/mailer"
	"github.com/acro-planner/backend/pkg/queue"
)

// EmailProcessor drains the email queue and delivers messages over SMTP.
// Failed jobs are retried with backoff and eventually dead-lettered.
type EmailProcessor struct {
	jobs   *queue.Queue
	mail   *mailer.Mailer
	logger *zap.Logger
}

// NewEmailProcessor creates an email processor.
func NewEmailProcessor(jobs *queue.Queue, mail *mailer.Mailer, logger *zap.Logger) *EmailProcessor {
	return &EmailProcessor{jobs: jobs, mail: mail, logger: logger}
}

// Process delivers one job. Malformed payloads are dropped rather than
// retried; delivery failures are returned so the caller can retry.
func (p *EmailProcessor) Process(ctx context.Context, job *queue.Job) error {
	if job.Type != queue.JobTypeEmail {
		p.logger.Warn("skipping job of unknown type",
			zap.String("job_id", job.ID), zap.String("type", string(job.Type)))
		return nil
	}

	var payload queue.EmailPayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		p.logger.Error("dropping job with malformed payload",
			zap.String("job_id", job.ID), zap.Error(err))
		return nil
	}

	if !p.mail.Enabled() {
		p.logger.Info("SMTP not configured, logging email instead",
			zap.String("kind", string(payload.Kind)),
			zap.String("recipient", payload.RecipientEmail),
			zap.String("subject", payload.Subject))
		return nil
	}

	if err := p.mail.Send(payload.RecipientEmail, payload.Subject, payload.Body); err != nil {
		return err
	}
	p.logger.Info("email delivered",
		zap.String("job_id", job.ID),
		zap.String("kind", string(payload.Kind)),
		zap.String("recipient", payload.RecipientEmail))
	return nil
}

// Run consumes jobs until ctx is cancelled.
func (p *EmailProcessor) Run(ctx context.Context) {
	p.logger.Info("email worker started")
	for {
		select {
		case <-ctx.Done():
			p.logger.Info("email worker stopping")
			return
		default:
		}

		job, _, err := p.jobs.Dequeue(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			p.logger.Error("dequeue failed", zap.Error(err))
			if !sleep(ctx, time.Second) {
				return
			}
			continue
		}
		if job == nil {
			continue
		}

		if err := p.Process(ctx, job); err != nil {
			p.logger.Error("job failed",
				zap.String("job_id", job.ID),
				zap.Int("attempt", job.Attempt),
				zap.Error(err))
			if !sleep(ctx, queue.RetryBackoff) {
				p.logger.Info("email worker stopping")
				return
			}
			if err := p.jobs.Retry(ctx, job); err != nil {
				p.logger.Error("retry failed", zap.String("job_id", job.ID), zap.Error(err))
			}
		}
	}
}

// sleep waits for d or until ctx is cancelled, reporting whether the full
// duration elapsed.
func sleep(ctx context.Context, d time.Duration) bool {
	select {
	case <-ctx.Done():
		return false
	case <-time.After(d):
		return true
	}
}
