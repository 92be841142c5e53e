package notify

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// ===========================================================================
// Delivery channels
// A channel delivers a composed Message (email, sms, or log). The registry
// maps channel type to implementation so the processor does not care which
// providers are configured.
// ===========================================================================

const (
	ChannelEmail = "email"
	ChannelSMS   = "sms"
	ChannelLog   = "log"
)

// Message is a composed notification ready for delivery.
type Message struct {
	// Channel preferred channel type
	Channel string

	// To email addresses or E.164 phone numbers
	To []string

	// Subject is ignored by SMS
	Subject string

	Body string
}

// Sender delivers messages on one channel.
type Sender interface {
	Type() string
	Send(ctx context.Context, msg Message) error
}

// Registry holds the registered senders.
type Registry struct {
	mu      sync.RWMutex
	senders map[string]Sender
}

// NewRegistry creates a Registry.
func NewRegistry(senders ...Sender) *Registry {
	r := &Registry{senders: make(map[string]Sender)}
	for _, s := range senders {
		r.Register(s)
	}
	return r
}

// Register adds or replaces the sender for its type.
func (r *Registry) Register(sender Sender) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.senders[sender.Type()] = sender
}

// Get returns the sender of a channel type.
func (r *Registry) Get(channelType string) (Sender, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sender, ok := r.senders[channelType]
	if !ok {
		return nil, fmt.Errorf("channel type '%s' is not registered", channelType)
	}
	return sender, nil
}

// Has reports whether a channel type is registered.
func (r *Registry) Has(channelType string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.senders[channelType]
	return ok
}

// ===========================================================================
// Provider-backed senders
// ===========================================================================

// EmailAPI is implemented by provider.EmailClient.
type EmailAPI interface {
	SendEmail(ctx context.Context, to []string, subject, text string) (string, error)
}

// SMSAPI is implemented by provider.SMSClient.
type SMSAPI interface {
	SendSMS(ctx context.Context, to, body string) (string, error)
}

// EmailSender sends one email to all recipients.
type EmailSender struct {
	api    EmailAPI
	logger *zap.Logger
}

func NewEmailSender(api EmailAPI, logger *zap.Logger) *EmailSender {
	return &EmailSender{api: api, logger: logger}
}

func (s *EmailSender) Type() string { return ChannelEmail }

func (s *EmailSender) Send(ctx context.Context, msg Message) error {
	id, err := s.api.SendEmail(ctx, msg.To, msg.Subject, msg.Body)
	if err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	s.logger.Info("email sent", zap.String("message_id", id), zap.Int("recipients", len(msg.To)))
	return nil
}

// SMSSender sends one text per recipient.
type SMSSender struct {
	api    SMSAPI
	logger *zap.Logger
}

func NewSMSSender(api SMSAPI, logger *zap.Logger) *SMSSender {
	return &SMSSender{api: api, logger: logger}
}

func (s *SMSSender) Type() string { return ChannelSMS }

func (s *SMSSender) Send(ctx context.Context, msg Message) error {
	for _, to := range msg.To {
		id, err := s.api.SendSMS(ctx, to, msg.Body)
		if err != nil {
			return fmt.Errorf("send sms: %w", err)
		}
		s.logger.Info("sms sent", zap.String("message_id", id))
	}
	return nil
}

// ===========================================================================
// LogSender
// Writes messages to the log instead of delivering them. Registered for
// channels whose provider is not configured, and used by tests to inspect
// what would have been sent.
// ===========================================================================

// LogSender logs and records every message.
type LogSender struct {
	channelType string
	logger      *zap.Logger

	mu   sync.Mutex
	sent []Message
}

// NewLogSender creates a LogSender registered under channelType.
func NewLogSender(channelType string, logger *zap.Logger) *LogSender {
	return &LogSender{channelType: channelType, logger: logger}
}

func (s *LogSender) Type() string { return s.channelType }

func (s *LogSender) Send(ctx context.Context, msg Message) error {
	s.logger.Info("notification (not delivered)",
		zap.String("channel", msg.Channel),
		zap.Strings("to", msg.To),
		zap.String("subject", msg.Subject),
		zap.String("body", truncate(msg.Body, 200)),
	)

	s.mu.Lock()
	s.sent = append(s.sent, msg)
	s.mu.Unlock()
	return nil
}

// Sent returns a copy of the recorded messages.
func (s *LogSender) Sent() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Message, len(s.sent))
	copy(out, s.sent)
	return out
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
