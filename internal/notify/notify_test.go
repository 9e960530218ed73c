package notify

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"shopfusion/internal/mail"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockSender struct {
	mock.Mock
}

func (m *MockSender) Send(to, subject, htmlBody string) error {
	args := m.Called(to, subject, htmlBody)
	return args.Error(0)
}

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(queue string, body []byte) error {
	args := m.Called(queue, body)
	return args.Error(0)
}

func newMailNotifier(t *testing.T, sender mail.Sender) *MailNotifier {
	renderer, err := mail.NewRenderer()
	require.NoError(t, err)
	return NewMailNotifier(renderer, sender)
}

func TestMailNotifier_Notify(t *testing.T) {
	sender := new(MockSender)
	sender.On("Send", "jane@example.com", "Reset your password", mock.MatchedBy(func(body string) bool {
		return strings.Contains(body, "http://shop/reset/x")
	})).Return(nil)

	n := newMailNotifier(t, sender)
	err := n.Notify(context.Background(), Message{
		Recipient: "jane@example.com",
		Template:  TemplatePasswordReset,
		Data:      map[string]interface{}{"name": "Jane", "reset_url": "http://shop/reset/x"},
	})

	assert.NoError(t, err)
	sender.AssertExpectations(t)
}

func TestMailNotifier_NoRecipient(t *testing.T) {
	sender := new(MockSender)
	n := newMailNotifier(t, sender)

	err := n.Notify(context.Background(), Message{Template: TemplatePasswordReset})

	assert.Error(t, err)
	sender.AssertNotCalled(t, "Send", mock.Anything, mock.Anything, mock.Anything)
}

func TestMailNotifier_HandleQueued(t *testing.T) {
	sender := new(MockSender)
	sender.On("Send", "jane@example.com", "Please activate your account", mock.Anything).Return(nil)
	n := newMailNotifier(t, sender)

	body, err := json.Marshal(Message{
		Recipient: "jane@example.com",
		Template:  TemplateAccountVerification,
		Data:      map[string]interface{}{"name": "Jane", "activation_url": "http://shop/activate/x"},
	})
	require.NoError(t, err)

	assert.NoError(t, n.HandleQueued(body))
	assert.Error(t, n.HandleQueued([]byte("not json")))
	sender.AssertExpectations(t)
}

func TestQueueNotifier_Notify(t *testing.T) {
	publisher := new(MockPublisher)
	publisher.On("Publish", "notifications", mock.Anything).Return(nil).Once()

	n := NewQueueNotifier(publisher, "notifications")
	msg := Message{Recipient: "jane@example.com", Template: TemplateOrderReceived, Data: map[string]interface{}{"order_number": "2024030542"}}
	require.NoError(t, n.Notify(context.Background(), msg))

	body := publisher.Calls[0].Arguments.Get(1).([]byte)
	var decoded Message
	require.NoError(t, json.Unmarshal(body, &decoded))
	assert.Equal(t, msg.Recipient, decoded.Recipient)
	assert.Equal(t, msg.Template, decoded.Template)
	assert.Equal(t, "2024030542", decoded.Data["order_number"])
}

func TestQueueNotifier_PublishError(t *testing.T) {
	publisher := new(MockPublisher)
	publisher.On("Publish", "notifications", mock.Anything).Return(errors.New("channel closed"))

	n := NewQueueNotifier(publisher, "notifications")
	err := n.Notify(context.Background(), Message{Recipient: "jane@example.com", Template: TemplateOrderReceived})

	assert.ErrorContains(t, err, "channel closed")
}
