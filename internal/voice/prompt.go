package voice

import (
	"fmt"
	"strings"

	"tableline/internal/models"
	"tableline/internal/provider"

	"github.com/google/uuid"
)

// ===========================================================================
// Agent prompt and tools
// The prompt embeds the restaurant's operating hours, so it is rebuilt and
// pushed to the provider whenever the hours change.
// ===========================================================================

// BuildPrompt renders the system prompt of a restaurant's agent.
func BuildPrompt(restaurant *models.Restaurant, agent *models.Agent) string {
	name := agent.Name
	if name == "" {
		name = "the host"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "You are %s, answering the phone for %s", name, restaurant.Name)
	if restaurant.Address != "" {
		fmt.Fprintf(&b, ", located at %s", restaurant.Address)
	}
	b.WriteString(".\n\n")

	fmt.Fprintf(&b, "All dates and times are in the %s timezone. ", restaurant.Location().String())
	b.WriteString("Call get_current_datetime before working out relative dates such as \"tomorrow\" or \"this Friday\".\n\n")

	b.WriteString("## Opening hours\n")
	b.WriteString(restaurant.OperatingHours.Describe())
	b.WriteString("\n\nDo not book reservations or pickups outside these hours.\n\n")

	b.WriteString("## What you can do\n")
	b.WriteString("- Book, change, cancel and look up table reservations.\n")
	b.WriteString("- Take, change, cancel and look up to-go orders. Use get_menu for dishes and prices.\n")
	b.WriteString("- Text the caller a confirmation with send_sms when they ask for one.\n\n")

	b.WriteString("## Rules\n")
	b.WriteString("- Always collect the caller's name and phone number before creating anything.\n")
	b.WriteString("- Read back the details and get a yes before calling a create, edit or cancel tool.\n")
	b.WriteString("- Every reservation and order has a 4-digit number. Read it to the caller digit by digit.\n")
	b.WriteString("- To change or cancel, ask for the 4-digit number; if the caller doesn't have it, search by name or phone.\n")
	b.WriteString("- Read tool results to the caller as they are; never invent numbers or confirmations.\n")

	return b.String()
}

// webhookPath is the path of a voice tool endpoint.
func webhookPath(tool string) string {
	return "/api/v1/webhooks/voice/" + tool
}

// ToolURL builds the callback URL the provider calls for a tool.
func ToolURL(baseURL string, restaurantID uuid.UUID, tool string) string {
	return strings.TrimRight(baseURL, "/") + webhookPath(tool) + "?restaurantId=" + restaurantID.String()
}

// PostCallURL is the provider's post-call webhook target.
func PostCallURL(baseURL string) string {
	return strings.TrimRight(baseURL, "/") + webhookPath("post-call")
}

func object(required []string, props map[string]any) map[string]any {
	schema := map[string]any{
		"type":       "object",
		"properties": props,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}

func str(description string) map[string]any {
	return map[string]any{"type": "string", "description": description}
}

func integer(description string) map[string]any {
	return map[string]any{"type": "integer", "description": description}
}

var (
	customerProps = map[string]any{
		"customer_name":  str("Caller's full name"),
		"customer_phone": str("Caller's phone number"),
		"customer_email": str("Caller's email, optional"),
	}
	itemsProp = map[string]any{
		"type":        "array",
		"description": "Ordered dishes",
		"items": object([]string{"name", "quantity"}, map[string]any{
			"name":     str("Dish name as on the menu"),
			"quantity": integer("How many"),
			"notes":    str("Modifications, optional"),
		}),
	}
)

func merge(maps ...map[string]any) map[string]any {
	out := map[string]any{}
	for _, m := range maps {
		for k, v := range m {
			out[k] = v
		}
	}
	return out
}

// Tools returns the custom tools registered with the provider for a
// restaurant's agent.
func Tools(baseURL string, restaurantID uuid.UUID) []provider.Tool {
	tool := func(name, path, description string, params map[string]any) provider.Tool {
		return provider.Tool{
			Type:                 "custom",
			Name:                 name,
			Description:          description,
			URL:                  ToolURL(baseURL, restaurantID, path),
			Parameters:           params,
			SpeakDuringExecution: true,
		}
	}

	reservationFields := map[string]any{
		"date":             str("YYYY-MM-DD"),
		"time":             str("HH:MM, 24-hour"),
		"party_size":       integer("Number of guests"),
		"special_requests": str("Optional"),
	}
	orderFields := map[string]any{
		"items":                itemsProp,
		"pickup_date":          str("YYYY-MM-DD"),
		"pickup_time":          str("HH:MM, 24-hour"),
		"special_instructions": str("Optional"),
	}
	search := object(nil, map[string]any{
		"name":  str("Part of the customer's name"),
		"phone": str("Customer's phone number"),
		"date":  str("YYYY-MM-DD"),
	})

	return []provider.Tool{
		tool("create_reservation", "reservations/create", "Book a table.",
			object([]string{"customer_name", "customer_phone", "date", "time", "party_size"}, merge(customerProps, reservationFields))),
		tool("edit_reservation", "reservations/edit", "Change an existing reservation. Send only the fields that change.",
			object([]string{"reservation_number"}, merge(map[string]any{"reservation_number": str("4-digit reservation number")}, customerProps, reservationFields))),
		tool("cancel_reservation", "reservations/cancel", "Cancel a reservation.",
			object([]string{"reservation_number"}, map[string]any{"reservation_number": str("4-digit reservation number")})),
		tool("search_reservations", "reservations/search", "Find reservations by name, phone or date.", search),

		tool("create_order", "orders/create", "Place a to-go order.",
			object([]string{"customer_name", "customer_phone", "items", "pickup_date", "pickup_time"}, merge(customerProps, orderFields))),
		tool("edit_order", "orders/edit", "Change an existing order. Send only the fields that change; items replace the whole list.",
			object([]string{"order_number"}, merge(map[string]any{"order_number": str("4-digit order number")}, customerProps, orderFields))),
		tool("cancel_order", "orders/cancel", "Cancel an order.",
			object([]string{"order_number"}, map[string]any{"order_number": str("4-digit order number")})),
		tool("search_orders", "orders/search", "Find orders by name, phone or pickup date.", search),

		tool("get_current_datetime", "datetime", "Current date and time at the restaurant.", object(nil, map[string]any{})),
		tool("get_menu", "menu", "The menu with prices.", object(nil, map[string]any{})),
		tool("send_sms", "sms", "Text the caller.",
			object([]string{"to", "message"}, map[string]any{
				"to":      str("Phone number to text"),
				"message": str("Text to send"),
			})),
	}
}
