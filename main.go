package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/streadway/amqp"

	"shopfusion/internal/app"
	"shopfusion/internal/config"
	"shopfusion/internal/database"
	"shopfusion/internal/mail"
	"shopfusion/internal/notify"
	"shopfusion/pkg/rabbitmq"
)

func main() {
	// --- Configuration ---
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	// --- Database ---
	db, err := database.Open(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}

	// --- Email delivery ---
	renderer, err := mail.NewRenderer()
	if err != nil {
		log.Fatalf("Failed to load email templates: %v", err)
	}
	var sender mail.Sender = mail.LogSender{}
	if cfg.SMTPHost != "" {
		sender = mail.NewSMTPSender(mail.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
			From:     cfg.MailFrom,
		})
	}
	mailer := notify.NewMailNotifier(renderer, sender)

	deps := app.Dependencies{
		Config:   cfg,
		DB:       db,
		Notifier: mailer,
	}

	// --- RabbitMQ ---
	// Without a broker, emails are sent from the request goroutine and order
	// events are not published.
	if cfg.BrokerEnabled() {
		mqClient, err := rabbitmq.NewClient(rabbitmq.Config{
			URL:    cfg.RabbitMQURL,
			Queues: []string{cfg.NotifyQueue, cfg.OrderQueue},
		})
		if err != nil {
			log.Fatalf("Failed to initialize RabbitMQ client: %v", err)
		}
		defer mqClient.Close() // Ensure the connection is closed on exit

		deps.Notifier = notify.NewQueueNotifier(mqClient, cfg.NotifyQueue)
		deps.Events = mqClient

		if err := mqClient.Consume(cfg.NotifyQueue, func(msg amqp.Delivery) error {
			return mailer.HandleQueued(msg.Body)
		}); err != nil {
			log.Fatalf("Failed to start notification consumer: %v", err)
		}
		if err := mqClient.Consume(cfg.OrderQueue, func(msg amqp.Delivery) error {
			log.Printf("Received order event (Tag: %d): %s", msg.DeliveryTag, string(msg.Body))
			return nil
		}); err != nil {
			log.Fatalf("Failed to start order event consumer: %v", err)
		}
	} else {
		log.Println("RABBITMQ_URL is empty. Sending notifications directly.")
	}

	server := app.NewApp(deps)

	// --- Start HTTP Server ---
	log.Printf("Starting server on port %s", cfg.AppPort)

	// Graceful shutdown handling
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := server.Listen(cfg.AppPort); err != nil {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	<-quit
	log.Println("Shutting down server...")

	if err := server.Shutdown(); err != nil {
		log.Printf("Error during Fiber shutdown: %v", err)
	}

	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Close()
	}
	log.Println("Server gracefully stopped")
}
