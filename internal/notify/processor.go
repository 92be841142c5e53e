package notify

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"
)

// ===========================================================================
// Processor
// Turns a Job into messages and sends them: admins get an email for every
// job, the customer gets a text when a record is created or cancelled.
// A channel without a registered sender falls back to the log channel.
// ===========================================================================

// Processor composes and sends notifications.
type Processor struct {
	registry *Registry
	logger   *zap.Logger
}

// NewProcessor creates a Processor.
func NewProcessor(registry *Registry, logger *zap.Logger) *Processor {
	if !registry.Has(ChannelLog) {
		registry.Register(NewLogSender(ChannelLog, logger))
	}
	return &Processor{registry: registry, logger: logger.Named("processor")}
}

// Process handles one job. Every composed message is attempted; the returned
// error joins the failures.
func (p *Processor) Process(ctx context.Context, job Job) error {
	messages, err := Compose(job)
	if err != nil {
		return err
	}

	var errs []error
	for _, msg := range messages {
		if len(msg.To) == 0 {
			continue
		}
		if err := p.send(ctx, msg); err != nil {
			errs = append(errs, err)
		}
	}

	p.logger.Info("notification job processed",
		zap.String("job_id", job.ID.String()),
		zap.String("kind", string(job.Kind)),
		zap.Int("messages", len(messages)),
		zap.Int("failed", len(errs)),
	)
	return errors.Join(errs...)
}

func (p *Processor) send(ctx context.Context, msg Message) error {
	sender, err := p.registry.Get(msg.Channel)
	if err != nil {
		sender, err = p.registry.Get(ChannelLog)
		if err != nil {
			return err
		}
	}
	return sender.Send(ctx, msg)
}

// Compose builds the messages for a job without sending them.
func Compose(job Job) ([]Message, error) {
	switch {
	case job.Kind == KindCallAnalysis:
		n, err := job.DecodeCall()
		if err != nil {
			return nil, err
		}
		return []Message{composeCallSummary(n)}, nil
	case job.Kind.IsOrder():
		n, err := job.DecodeRecord()
		if err != nil {
			return nil, err
		}
		if n.Order == nil {
			return nil, fmt.Errorf("%s job %s has no order", job.Kind, job.ID)
		}
		return composeOrder(job.Kind, n), nil
	case job.Kind.IsReservation():
		n, err := job.DecodeRecord()
		if err != nil {
			return nil, err
		}
		if n.Reservation == nil {
			return nil, fmt.Errorf("%s job %s has no reservation", job.Kind, job.ID)
		}
		return composeReservation(job.Kind, n), nil
	default:
		return nil, fmt.Errorf("unknown notification kind %q", job.Kind)
	}
}

func composeOrder(kind Kind, n *RecordNotification) []Message {
	o := n.Order
	var b strings.Builder
	fmt.Fprintf(&b, "Customer: %s (%s)\n", n.Customer.Name, n.Customer.Phone)
	fmt.Fprintf(&b, "Pickup: %s at %s\n", o.PickupDate, o.PickupTime)
	fmt.Fprintf(&b, "Items: %s\n", o.Items.Describe())
	if o.Total > 0 {
		fmt.Fprintf(&b, "Total: $%.2f\n", o.Total)
	}
	if o.SpecialInstructions != "" {
		fmt.Fprintf(&b, "Special instructions: %s\n", o.SpecialInstructions)
	}

	var subject, sms string
	switch kind {
	case KindOrderCreated:
		subject = fmt.Sprintf("New order #%s at %s", n.Number, n.RestaurantName)
		sms = fmt.Sprintf("%s: your order #%s is confirmed for pickup on %s at %s.", n.RestaurantName, n.Number, o.PickupDate, o.PickupTime)
	case KindOrderUpdated:
		subject = fmt.Sprintf("Order #%s updated at %s", n.Number, n.RestaurantName)
		writeChanges(&b, n)
	case KindOrderCancelled:
		subject = fmt.Sprintf("Order #%s cancelled at %s", n.Number, n.RestaurantName)
		sms = fmt.Sprintf("%s: your order #%s has been cancelled.", n.RestaurantName, n.Number)
	}
	fmt.Fprintf(&b, "Modified by: %s\n", n.ModifiedBy)

	return withCustomerSMS([]Message{{Channel: ChannelEmail, To: n.Recipients, Subject: subject, Body: b.String()}}, n.Customer.Phone, sms)
}

func composeReservation(kind Kind, n *RecordNotification) []Message {
	r := n.Reservation
	var b strings.Builder
	fmt.Fprintf(&b, "Customer: %s (%s)\n", n.Customer.Name, n.Customer.Phone)
	fmt.Fprintf(&b, "When: %s at %s\n", r.Date, r.Time)
	fmt.Fprintf(&b, "Party size: %d\n", r.PartySize)
	if r.SpecialRequests != "" {
		fmt.Fprintf(&b, "Special requests: %s\n", r.SpecialRequests)
	}

	var subject, sms string
	switch kind {
	case KindReservationCreated:
		subject = fmt.Sprintf("New reservation #%s at %s", n.Number, n.RestaurantName)
		sms = fmt.Sprintf("%s: your reservation #%s for %d on %s at %s is confirmed.", n.RestaurantName, n.Number, r.PartySize, r.Date, r.Time)
	case KindReservationUpdated:
		subject = fmt.Sprintf("Reservation #%s updated at %s", n.Number, n.RestaurantName)
		writeChanges(&b, n)
	case KindReservationCancelled:
		subject = fmt.Sprintf("Reservation #%s cancelled at %s", n.Number, n.RestaurantName)
		sms = fmt.Sprintf("%s: your reservation #%s has been cancelled.", n.RestaurantName, n.Number)
	}
	fmt.Fprintf(&b, "Modified by: %s\n", n.ModifiedBy)

	return withCustomerSMS([]Message{{Channel: ChannelEmail, To: n.Recipients, Subject: subject, Body: b.String()}}, n.Customer.Phone, sms)
}

func withCustomerSMS(messages []Message, phone, body string) []Message {
	if phone == "" || body == "" {
		return messages
	}
	return append(messages, Message{Channel: ChannelSMS, To: []string{phone}, Body: body})
}

func writeChanges(b *strings.Builder, n *RecordNotification) {
	if len(n.Changes) == 0 {
		return
	}
	fields := make([]string, 0, len(n.Changes))
	for field := range n.Changes {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	b.WriteString("Changes:\n")
	for _, field := range fields {
		c := n.Changes[field]
		fmt.Fprintf(b, "  %s: %v -> %v\n", field, describeValue(c.From), describeValue(c.To))
	}
}

func describeValue(v any) string {
	switch val := v.(type) {
	case nil:
		return "(none)"
	case string:
		if val == "" {
			return "(none)"
		}
		return val
	case []any:
		parts := make([]string, 0, len(val))
		for _, item := range val {
			if m, ok := item.(map[string]any); ok {
				parts = append(parts, fmt.Sprintf("%v x %v", m["quantity"], m["name"]))
				continue
			}
			parts = append(parts, fmt.Sprint(item))
		}
		return strings.Join(parts, ", ")
	default:
		return fmt.Sprint(val)
	}
}

func composeCallSummary(n *CallNotification) Message {
	a := AnalyzeCall(n.Call)

	var b strings.Builder
	fmt.Fprintf(&b, "Caller: %s\n", a.Caller)
	if a.Duration > 0 {
		fmt.Fprintf(&b, "Duration: %s\n", a.Duration.Round(time.Second))
	}
	fmt.Fprintf(&b, "Outcome: %s\n", a.Outcome)
	fmt.Fprintf(&b, "Turns: %d agent, %d caller\n", a.AgentTurns, a.CallerTurns)
	if len(a.ReferencedNumbers) > 0 {
		fmt.Fprintf(&b, "Order/reservation numbers mentioned: %s\n", strings.Join(a.ReferencedNumbers, ", "))
	}
	if n.Call.RecordingURL != "" {
		fmt.Fprintf(&b, "Recording: %s\n", n.Call.RecordingURL)
	}
	if n.Call.Transcript != "" {
		fmt.Fprintf(&b, "\nTranscript:\n%s\n", n.Call.Transcript)
	}

	agent := n.AgentName
	if agent == "" {
		agent = "voice agent"
	}
	return Message{
		Channel: ChannelEmail,
		To:      n.Recipients,
		Subject: fmt.Sprintf("Call summary from %s (%s)", agent, n.RestaurantName),
		Body:    b.String(),
	}
}
