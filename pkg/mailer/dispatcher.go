package mailer

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
)

// Dispatcher attempts delivery of one job and reports success or failure.
type Dispatcher interface {
	Dispatch(ctx context.Context, job EmailJob) error
}

// Publisher is satisfied by helpers.RabbitPublisher.
type Publisher interface {
	PublishJSON(ctx context.Context, msgType string, body any) error
}

// Sender is satisfied by *Mailgun.
type Sender interface {
	Send(ctx context.Context, to, subject, text, html string) error
}

// QueueDispatcher hands jobs to the email worker through RabbitMQ.
// Success means the broker accepted the job.
type QueueDispatcher struct {
	Publisher Publisher
}

func (d *QueueDispatcher) Dispatch(ctx context.Context, job EmailJob) error {
	if err := d.Publisher.PublishJSON(ctx, job.Template, job); err != nil {
		return fmt.Errorf("publish email job: %w", err)
	}
	return nil
}

// DirectDispatcher renders and sends in the caller's goroutine.
type DirectDispatcher struct {
	Sender Sender
}

func (d *DirectDispatcher) Dispatch(ctx context.Context, job EmailJob) error {
	subject, text, html, err := job.Render()
	if err != nil {
		return fmt.Errorf("render %s: %w", job.Template, err)
	}
	if err := d.Sender.Send(ctx, job.To, subject, text, html); err != nil {
		return fmt.Errorf("send %s: %w", job.Template, err)
	}
	return nil
}

// LogDispatcher is used when outbound mail is disabled. Jobs are rendered so
// template errors still surface, then written to the log instead of sent.
type LogDispatcher struct {
	Logger *logrus.Logger
}

func (d *LogDispatcher) Dispatch(_ context.Context, job EmailJob) error {
	subject, text, _, err := job.Render()
	if err != nil {
		return fmt.Errorf("render %s: %w", job.Template, err)
	}
	if d.Logger != nil {
		d.Logger.WithFields(logrus.Fields{
			"to":       job.To,
			"template": job.Template,
			"subject":  subject,
		}).Info("mail sending disabled; message logged")
		d.Logger.Debug(text)
	}
	return nil
}
