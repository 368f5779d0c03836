package mailer

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// Message is a single transactional email.
type Message struct {
	ToName   string
	ToEmail  string
	Subject  string
	TextBody string
	HTMLBody string
}

// Mailer delivers transactional notifications. Delivery failures are the
// caller's to log and surface as soft flags; they never fail the state
// transition that triggered the send.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// LogMailer is the no-key local implementation: it logs messages instead of
// sending them. Also handy in tests via Sent().
type LogMailer struct {
	mu   sync.Mutex
	sent []Message
}

func NewLogMailer() *LogMailer {
	return &LogMailer{}
}

func (m *LogMailer) Send(_ context.Context, msg Message) error {
	m.mu.Lock()
	m.sent = append(m.sent, msg)
	m.mu.Unlock()

	zap.L().Info("mail (not sent, no sendgrid key)",
		zap.String("to", msg.ToEmail),
		zap.String("subject", msg.Subject))

	return nil
}

func (m *LogMailer) Sent() []Message {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]Message, len(m.sent))
	copy(out, m.sent)

	return out
}
