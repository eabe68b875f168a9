package main

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/resident-registration/config"
	"github.com/oksasatya/resident-registration/pkg/helpers"
	"github.com/oksasatya/resident-registration/pkg/mailer"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	logger := helpers.NewLogger(cfg.AppName+"-email-worker", cfg.Env)

	if !cfg.MailSendEnabled {
		logger.Info("MAIL_SEND_ENABLED=false; email worker disabled (no real emails will be sent)")
		return
	}
	if cfg.RabbitMQURL == "" || cfg.RabbitMQEmailQueue == "" {
		log.Fatal("RabbitMQ not configured")
	}
	if !cfg.MailgunConfigured() {
		log.Fatal("Mailgun not configured")
	}

	consumer, msgs, err := helpers.NewRabbitConsumer(cfg.RabbitMQURL, cfg.RabbitMQEmailQueue, 16)
	if err != nil {
		log.Fatalf("amqp consume: %v", err)
	}
	defer consumer.Close()

	mg := mailer.NewMailgun(cfg.MailgunDomain, cfg.MailgunAPIKey, cfg.MailgunSender)
	mg.Timeout = 15 * time.Second
	sender := &mailer.DirectDispatcher{Sender: mg}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	done := make(chan struct{})

	go func() {
		for msg := range msgs {
			handle(logger, sender, msg)
		}
		close(done)
	}()

	logger.WithField("queue", cfg.RabbitMQEmailQueue).Info("email worker listening")
	<-stop
	logger.Info("shutting down...")
	consumer.Close()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
	}
}

// handle acks delivered jobs, drops undecodable or unrenderable ones and
// requeues jobs the provider rejected.
func handle(logger *logrus.Logger, d mailer.Dispatcher, msg amqp.Delivery) {
	log := logger.WithField("message_id", msg.MessageId)

	var job mailer.EmailJob
	if err := json.Unmarshal(msg.Body, &job); err != nil {
		log.WithError(err).Error("bad message")
		_ = msg.Nack(false, false)
		return
	}
	log = log.WithFields(logrus.Fields{"to": job.To, "template": job.Template})

	if _, _, _, err := job.Render(); err != nil {
		log.WithError(err).Error("render failed")
		_ = msg.Nack(false, false)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()
	if err := d.Dispatch(ctx, job); err != nil {
		log.WithError(err).Warn("send failed; requeued")
		_ = msg.Nack(false, !msg.Redelivered)
		return
	}
	_ = msg.Ack(false)
	log.Info("email sent")
}
