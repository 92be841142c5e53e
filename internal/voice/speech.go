// Package voice renders everything the voice agent reads aloud: tool result
// messages, the current date and time, the menu, and the agent's system
// prompt.
package voice

import (
	"fmt"
	"strings"
	"time"

	"tableline/internal/models"
)

// SpeakDate renders "2025-12-24" as "Wednesday, December 24". Unparseable
// input is returned unchanged.
func SpeakDate(date string) string {
	t, err := time.Parse(models.DateLayout, date)
	if err != nil {
		return date
	}
	return t.Format("Monday, January 2")
}

// SpeakTime renders "19:00" as "7:00 PM".
func SpeakTime(clock string) string {
	t, err := time.Parse(models.TimeLayout, clock)
	if err != nil {
		return clock
	}
	return t.Format("3:04 PM")
}

// SpeakMoney renders 25.5 as "$25.50".
func SpeakMoney(amount float64) string {
	return fmt.Sprintf("$%.2f", amount)
}

// Now describes the current moment in loc, e.g.
// "Wednesday, December 24, 2025 at 6:05 PM".
func Now(now time.Time, loc *time.Location) string {
	return now.In(loc).Format("Monday, January 2, 2006 at 3:04 PM")
}

// people renders a party size.
func people(n int) string {
	if n == 1 {
		return "1 person"
	}
	return fmt.Sprintf("%d people", n)
}

// FormatMenu renders available items grouped by category, one line per
// category, in the order given.
func FormatMenu(items []models.MenuItem) string {
	if len(items) == 0 {
		return "The menu is not available right now."
	}

	var (
		b        strings.Builder
		category string
		first    = true
	)
	for _, item := range items {
		c := item.Category
		if c == "" {
			c = "Other"
		}
		if first || c != category {
			if !first {
				b.WriteString(".\n")
			}
			fmt.Fprintf(&b, "%s: ", c)
			category = c
			first = false
		} else {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%s (%s)", item.Name, SpeakMoney(item.Price))
		if item.Description != "" {
			fmt.Fprintf(&b, " - %s", item.Description)
		}
	}
	b.WriteString(".")
	return b.String()
}
