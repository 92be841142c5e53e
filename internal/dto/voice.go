package dto

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"tableline/internal/models"
	"tableline/internal/notify"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// ===========================================================================
// Voice webhook DTOs
// The provider posts either the tool arguments directly or wrapped as
// {"name": ..., "args": {...}, "call": {...}}. Both decode into the same
// typed argument structs, validated through their binding tags.
// ===========================================================================

func init() {
	// report JSON field names (customer_name) instead of Go names
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
		_ = v.RegisterValidation("email_or_empty", emailOrEmpty(v))
	}
}

// emailOrEmpty accepts a valid address or a blank string, so an edit can
// clear a stored email by sending "".
func emailOrEmpty(v *validator.Validate) validator.Func {
	return func(fl validator.FieldLevel) bool {
		field := fl.Field()
		if field.Kind() != reflect.String {
			return false
		}
		s := strings.TrimSpace(field.String())
		return s == "" || v.Var(s, "email") == nil
	}
}

// ErrMalformedBody is returned when the body is not JSON of the expected shape.
var ErrMalformedBody = errors.New("malformed request body")

// ValidationError lists the fields that failed validation.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return "invalid fields: " + strings.Join(e.Fields, ", ")
}

// CallInfo is the call context the provider attaches to tool calls.
type CallInfo struct {
	CallID     string `json:"call_id"`
	AgentID    string `json:"agent_id"`
	FromNumber string `json:"from_number,omitempty"`
	ToNumber   string `json:"to_number,omitempty"`
}

type toolEnvelope struct {
	Name string          `json:"name"`
	Args json.RawMessage `json:"args"`
	Call *CallInfo       `json:"call"`
}

// DecodeToolArgs decodes body into out and validates it. The returned
// CallInfo is nil when the body was not wrapped.
func DecodeToolArgs(body []byte, out any) (*CallInfo, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		body = []byte("{}")
	}

	var env toolEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedBody, err)
	}

	args := body
	if raw := bytes.TrimSpace(env.Args); len(raw) > 0 && !bytes.Equal(raw, []byte("null")) {
		args = raw
	}
	if err := json.Unmarshal(args, out); err != nil {
		return env.Call, fmt.Errorf("%w: %v", ErrMalformedBody, err)
	}

	return env.Call, Validate(out)
}

// Validate runs the binding validator on v and converts failures into a
// ValidationError.
func Validate(v any) error {
	err := binding.Validator.ValidateStruct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := make([]string, 0, len(verrs))
		seen := make(map[string]bool, len(verrs))
		for _, fe := range verrs {
			name := fe.Field()
			if !seen[name] {
				seen[name] = true
				fields = append(fields, name)
			}
		}
		return &ValidationError{Fields: fields}
	}
	return fmt.Errorf("%w: %v", ErrMalformedBody, err)
}

// ===========================================================================
// Tool arguments
// ===========================================================================

// CreateReservationArgs books a table.
type CreateReservationArgs struct {
	CustomerName    string `json:"customer_name" binding:"required,max=255"`
	CustomerPhone   string `json:"customer_phone" binding:"required,max=50"`
	CustomerEmail   string `json:"customer_email" binding:"omitempty,email"`
	Date            string `json:"date" binding:"required,datetime=2006-01-02"`
	Time            string `json:"time" binding:"required,datetime=15:04"`
	PartySize       int    `json:"party_size" binding:"required,min=1,max=100"`
	SpecialRequests string `json:"special_requests" binding:"max=2000"`
}

// EditReservationArgs changes the supplied fields of a reservation.
type EditReservationArgs struct {
	ReservationNumber string  `json:"reservation_number" binding:"required,len=4,numeric"`
	CustomerName      *string `json:"customer_name" binding:"omitempty,min=1,max=255"`
	CustomerPhone     *string `json:"customer_phone" binding:"omitempty,min=1,max=50"`
	CustomerEmail     *string `json:"customer_email" binding:"omitempty,email_or_empty"`
	Date              *string `json:"date" binding:"omitempty,datetime=2006-01-02"`
	Time              *string `json:"time" binding:"omitempty,datetime=15:04"`
	PartySize         *int    `json:"party_size" binding:"omitempty,min=1,max=100"`
	SpecialRequests   *string `json:"special_requests" binding:"omitempty,max=2000"`
}

// CancelReservationArgs cancels a reservation.
type CancelReservationArgs struct {
	ReservationNumber string `json:"reservation_number" binding:"required,len=4,numeric"`
}

// CreateOrderArgs places a to-go order.
type CreateOrderArgs struct {
	CustomerName        string             `json:"customer_name" binding:"required,max=255"`
	CustomerPhone       string             `json:"customer_phone" binding:"required,max=50"`
	CustomerEmail       string             `json:"customer_email" binding:"omitempty,email"`
	Items               []models.OrderItem `json:"items" binding:"required,min=1,dive"`
	PickupDate          string             `json:"pickup_date" binding:"required,datetime=2006-01-02"`
	PickupTime          string             `json:"pickup_time" binding:"required,datetime=15:04"`
	SpecialInstructions string             `json:"special_instructions" binding:"max=2000"`
}

// EditOrderArgs changes the supplied fields of an order.
type EditOrderArgs struct {
	OrderNumber         string             `json:"order_number" binding:"required,len=4,numeric"`
	CustomerName        *string            `json:"customer_name" binding:"omitempty,min=1,max=255"`
	CustomerPhone       *string            `json:"customer_phone" binding:"omitempty,min=1,max=50"`
	CustomerEmail       *string            `json:"customer_email" binding:"omitempty,email_or_empty"`
	Items               []models.OrderItem `json:"items" binding:"omitempty,min=1,dive"`
	PickupDate          *string            `json:"pickup_date" binding:"omitempty,datetime=2006-01-02"`
	PickupTime          *string            `json:"pickup_time" binding:"omitempty,datetime=15:04"`
	SpecialInstructions *string            `json:"special_instructions" binding:"omitempty,max=2000"`
}

// CancelOrderArgs cancels an order.
type CancelOrderArgs struct {
	OrderNumber string `json:"order_number" binding:"required,len=4,numeric"`
}

// SearchArgs finds records by name, phone or date.
type SearchArgs struct {
	Name  string `json:"name" binding:"max=255"`
	Phone string `json:"phone" binding:"max=50"`
	Date  string `json:"date" binding:"omitempty,datetime=2006-01-02"`
}

// SendSMSArgs texts the caller.
type SendSMSArgs struct {
	To      string `json:"to" binding:"required,max=50"`
	Message string `json:"message" binding:"required,max=1600"`
}

// ===========================================================================
// Voice responses
// Message is read aloud by the agent; the other fields echo what was done.
// ===========================================================================

// VoiceResponse is the envelope of every voice webhook.
type VoiceResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`

	ReservationNumber string  `json:"reservation_number,omitempty"`
	OrderNumber       string  `json:"order_number,omitempty"`
	Status            string  `json:"status,omitempty"`
	Date              string  `json:"date,omitempty"`
	Time              string  `json:"time,omitempty"`
	PartySize         int     `json:"party_size,omitempty"`
	PickupDate        string  `json:"pickup_date,omitempty"`
	PickupTime        string  `json:"pickup_time,omitempty"`
	Total             float64 `json:"total,omitempty"`

	// Results search matches
	Results interface{} `json:"results,omitempty"`

	// Current date and time (datetime tool)
	CurrentDate string `json:"current_date,omitempty"`
	CurrentTime string `json:"current_time,omitempty"`
	Timezone    string `json:"timezone,omitempty"`

	// Fields failed validation
	Fields []string `json:"fields,omitempty"`
}

// VoiceOK is a successful reply.
func VoiceOK(message string) VoiceResponse {
	return VoiceResponse{Success: true, Message: message}
}

// VoiceFail is a failed reply.
func VoiceFail(message string) VoiceResponse {
	return VoiceResponse{Success: false, Message: message}
}

// ReservationReply echoes a reservation.
func ReservationReply(r *models.Reservation, message string) VoiceResponse {
	return VoiceResponse{
		Success:           true,
		Message:           message,
		ReservationNumber: r.ReservationNumber,
		Status:            string(r.Status),
		Date:              r.Date,
		Time:              r.Time,
		PartySize:         r.PartySize,
	}
}

// OrderReply echoes an order.
func OrderReply(o *models.Order, message string) VoiceResponse {
	return VoiceResponse{
		Success:     true,
		Message:     message,
		OrderNumber: o.OrderNumber,
		Status:      string(o.Status),
		PickupDate:  o.PickupDate,
		PickupTime:  o.PickupTime,
		Total:       o.Total,
	}
}

// PostCallRequest is the provider's call lifecycle webhook.
type PostCallRequest struct {
	Event string             `json:"event"`
	Call  notify.CallDetails `json:"call"`
}
