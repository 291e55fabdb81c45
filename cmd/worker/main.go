package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"schoolattend/internal/config"
	"schoolattend/internal/notify"
	"schoolattend/internal/queue"
	"schoolattend/internal/store"
)

// Worker consumes notification events and emails guardians. Delivery stays
// best-effort: a failed send is logged and the event is dropped, never
// requeued.
func main() {
	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Println("shutdown signal received")
		cancel()
	}()

	redisClient := store.NewRedis(cfg.RedisAddr)

	var q queue.Queue
	if cfg.QueueBackend == "memory" {
		q = queue.NewInMemory(64)
	} else {
		q = queue.NewRedisQueue(redisClient.Client, "schoolattend:notifications")
	}

	var mailer notify.Mailer
	if cfg.SendGridKey != "" {
		mailer = notify.NewSendGridMailer(cfg.SendGridKey, cfg.MailName, cfg.MailFrom)
		log.Println("SendGrid mailer configured")
	} else {
		mailer = notify.ConsoleMailer{}
		log.Println("SENDGRID_API_KEY not set, logging notifications to console")
	}

	messages, err := q.Consume(ctx)
	if err != nil {
		log.Fatalf("queue consume init failed: %v", err)
	}

	log.Println("worker started, waiting for notifications...")
	for msg := range messages {
		if msg.Type != notify.MessageType {
			continue
		}

		ev, err := notify.DecodeEvent(msg.Body)
		if err != nil {
			log.Printf("bad notification payload: %v", err)
			continue
		}

		if ev.Guardian == "" {
			log.Printf("student %s has no guardian contact, skipping", ev.StudentID)
			continue
		}

		if err := mailer.Send(ctx, ev); err != nil {
			log.Printf("notification %s for student %s failed: %v", ev.ID, ev.StudentID, err)
			continue
		}
		log.Printf("notified guardian of %s (%s)", ev.Name, ev.Status)
	}

	log.Println("worker stopped")
}
