package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"shopfusion/internal/mail"
)

// Email templates known to the mail renderer.
const (
	TemplateOrderReceived       = "order_received"
	TemplateAccountVerification = "account_verification"
	TemplatePasswordReset       = "password_reset"
)

// Message is one notification: who gets it, which template, and the
// template data. It is also the JSON body of queued notifications.
type Message struct {
	Recipient string                 `json:"recipient"`
	Template  string                 `json:"template"`
	Data      map[string]interface{} `json:"data"`
}

// Notifier delivers notifications. Delivery is best-effort; callers log the
// returned error and carry on.
type Notifier interface {
	Notify(ctx context.Context, msg Message) error
}

// MailNotifier renders and sends notifications synchronously.
type MailNotifier struct {
	renderer *mail.Renderer
	sender   mail.Sender
}

// NewMailNotifier creates a new MailNotifier.
func NewMailNotifier(renderer *mail.Renderer, sender mail.Sender) *MailNotifier {
	return &MailNotifier{
		renderer: renderer,
		sender:   sender,
	}
}

// Notify implements Notifier.
func (n *MailNotifier) Notify(ctx context.Context, msg Message) error {
	if msg.Recipient == "" {
		return fmt.Errorf("notification %s has no recipient", msg.Template)
	}
	subject, body, err := n.renderer.Render(msg.Template, msg.Data)
	if err != nil {
		return err
	}
	return n.sender.Send(msg.Recipient, subject, body)
}

// HandleQueued delivers a notification taken off the queue.
func (n *MailNotifier) HandleQueued(body []byte) error {
	var msg Message
	if err := json.Unmarshal(body, &msg); err != nil {
		return fmt.Errorf("failed to decode queued notification: %w", err)
	}
	if err := n.Notify(context.Background(), msg); err != nil {
		return err
	}
	log.Printf("Delivered %s notification to %s", msg.Template, msg.Recipient)
	return nil
}

// Publisher publishes a message body to a named queue.
type Publisher interface {
	Publish(queue string, body []byte) error
}

// QueueNotifier hands notifications to the message broker. A consumer
// running MailNotifier.HandleQueued delivers them.
type QueueNotifier struct {
	publisher Publisher
	queue     string
}

// NewQueueNotifier creates a new QueueNotifier.
func NewQueueNotifier(publisher Publisher, queue string) *QueueNotifier {
	return &QueueNotifier{
		publisher: publisher,
		queue:     queue,
	}
}

// Notify implements Notifier.
func (n *QueueNotifier) Notify(ctx context.Context, msg Message) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal notification to JSON: %w", err)
	}
	if err := n.publisher.Publish(n.queue, body); err != nil {
		return fmt.Errorf("failed to queue %s notification: %w", msg.Template, err)
	}
	return nil
}
