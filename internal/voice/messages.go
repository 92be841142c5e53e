package voice

import (
	"fmt"
	"sort"
	"strings"

	"tableline/internal/models"
)

// ===========================================================================
// Tool result messages
// One sentence or two, written to be read aloud. Numbers the caller needs to
// remember are given as plain digits.
// ===========================================================================

const (
	MsgApology        = "I'm sorry, something went wrong on our side. Please try again in a moment."
	MsgMissingTenant  = "I couldn't tell which restaurant this call is for."
	MsgUnknownTenant  = "I couldn't find this restaurant's records."
	MsgNothingChanged = "Those details already match what we have, so nothing was changed."
	MsgBusy           = "I'm sorry, I couldn't assign a number right now. Please try again in a moment."
)

// ReservationConfirmed is read after a reservation is booked.
func ReservationConfirmed(r *models.Reservation) string {
	return fmt.Sprintf(
		"Your reservation for %s on %s at %s is confirmed. Your reservation number is %s.",
		people(r.PartySize), SpeakDate(r.Date), SpeakTime(r.Time), r.ReservationNumber,
	)
}

// ReservationUpdated is read after an edit.
func ReservationUpdated(r *models.Reservation) string {
	return fmt.Sprintf(
		"Reservation %s is updated. It is now for %s on %s at %s.",
		r.ReservationNumber, people(r.PartySize), SpeakDate(r.Date), SpeakTime(r.Time),
	)
}

// ReservationCancelled is read after a cancellation.
func ReservationCancelled(r *models.Reservation) string {
	return fmt.Sprintf("Reservation %s on %s has been cancelled.", r.ReservationNumber, SpeakDate(r.Date))
}

// OrderConfirmed is read after an order is placed.
func OrderConfirmed(o *models.Order) string {
	msg := fmt.Sprintf(
		"Your order of %s is confirmed for pickup on %s at %s. Your order number is %s.",
		o.Items.Describe(), SpeakDate(o.PickupDate), SpeakTime(o.PickupTime), o.OrderNumber,
	)
	if o.Total > 0 {
		msg += fmt.Sprintf(" The total is %s.", SpeakMoney(o.Total))
	}
	return msg
}

// OrderUpdated is read after an edit.
func OrderUpdated(o *models.Order) string {
	return fmt.Sprintf(
		"Order %s is updated: %s, for pickup on %s at %s.",
		o.OrderNumber, o.Items.Describe(), SpeakDate(o.PickupDate), SpeakTime(o.PickupTime),
	)
}

// OrderCancelled is read after a cancellation.
func OrderCancelled(o *models.Order) string {
	return fmt.Sprintf("Order %s has been cancelled.", o.OrderNumber)
}

// PastDate rejects a date before today, naming both.
func PastDate(date, today string) string {
	return fmt.Sprintf(
		"%s (%s) is in the past. Today is %s (%s). Please choose today or a later date.",
		SpeakDate(date), date, SpeakDate(today), today,
	)
}

// NotFound is read when no record has the given number.
func NotFound(kind, number string) string {
	return fmt.Sprintf("I couldn't find %s number %s. Could you double-check the number?", kind, number)
}

// AlreadyCancelled is read when mutating a cancelled record.
func AlreadyCancelled(kind, number string) string {
	return fmt.Sprintf("%s %s was already cancelled, so it can't be changed.", capitalize(kind), number)
}

// OrderCompleted is read when mutating an order that was picked up.
func OrderCompleted(number string) string {
	return fmt.Sprintf("Order %s was already picked up, so it can't be changed.", number)
}

// OrderInKitchen is read when editing an order the kitchen has started.
func OrderInKitchen(number string) string {
	return fmt.Sprintf(
		"Order %s is already being prepared, so it can't be changed anymore. I can cancel it if you like.",
		number,
	)
}

// InvalidField names the fields that failed validation.
func InvalidField(fields []string) string {
	if len(fields) == 0 {
		return "Some of the details were missing or invalid."
	}
	sort.Strings(fields)
	return fmt.Sprintf("I still need valid details for: %s.", strings.Join(fields, ", "))
}

// ReservationSearchResults lists matches.
func ReservationSearchResults(found []models.Reservation) string {
	if len(found) == 0 {
		return "I couldn't find any reservations matching that."
	}
	parts := make([]string, 0, len(found))
	for _, r := range found {
		status := ""
		if r.IsCancelled() {
			status = ", cancelled"
		}
		parts = append(parts, fmt.Sprintf("number %s for %s, %s on %s at %s%s",
			r.ReservationNumber, r.CustomerName, people(r.PartySize), SpeakDate(r.Date), SpeakTime(r.Time), status))
	}
	return fmt.Sprintf("I found %d %s: %s.", len(found), plural(len(found), "reservation"), strings.Join(parts, "; "))
}

// OrderSearchResults lists matches.
func OrderSearchResults(found []models.Order) string {
	if len(found) == 0 {
		return "I couldn't find any orders matching that."
	}
	parts := make([]string, 0, len(found))
	for _, o := range found {
		parts = append(parts, fmt.Sprintf("number %s for %s, pickup %s at %s, %s",
			o.OrderNumber, o.CustomerName, SpeakDate(o.PickupDate), SpeakTime(o.PickupTime), o.Status))
	}
	return fmt.Sprintf("I found %d %s: %s.", len(found), plural(len(found), "order"), strings.Join(parts, "; "))
}

func plural(n int, word string) string {
	if n == 1 {
		return word
	}
	return word + "s"
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
