package models

import (
	"database/sql/driver"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ===========================================================================
// Order
// A to-go order placed over the phone or entered on the dashboard.
// OrderNumber is the 4-digit identifier read to the caller; it is unique per
// restaurant only.
// ===========================================================================

// OrderStatus is the lifecycle state of an order.
type OrderStatus string

const (
	OrderConfirmed OrderStatus = "confirmed"
	OrderPreparing OrderStatus = "preparing"
	OrderReady     OrderStatus = "ready"
	OrderCompleted OrderStatus = "completed"
	OrderCancelled OrderStatus = "cancelled"
)

// Source is the channel a record was created through.
type Source string

const (
	SourcePhone     Source = "phone"
	SourceDashboard Source = "dashboard"
)

// OrderItem is one line of an order.
type OrderItem struct {
	Name     string  `json:"name" binding:"required"`
	Quantity int     `json:"quantity" binding:"required,min=1"`
	Price    float64 `json:"price,omitempty" binding:"omitempty,min=0"`
	Notes    string  `json:"notes,omitempty"`
}

// OrderItems is stored as a jsonb array.
type OrderItems []OrderItem

// Value implements driver.Valuer.
func (it OrderItems) Value() (driver.Value, error) {
	if it == nil {
		return jsonValue([]OrderItem{})
	}
	return jsonValue([]OrderItem(it))
}

// Scan implements sql.Scanner.
func (it *OrderItems) Scan(value any) error {
	*it = OrderItems{}
	return scanJSON(value, (*[]OrderItem)(it))
}

// Equal compares item lists element-wise.
func (it OrderItems) Equal(other OrderItems) bool {
	if len(it) != len(other) {
		return false
	}
	for i := range it {
		if it[i] != other[i] {
			return false
		}
	}
	return true
}

// Total sums price * quantity over priced items.
func (it OrderItems) Total() float64 {
	var total float64
	for _, item := range it {
		total += item.Price * float64(item.Quantity)
	}
	return total
}

// Describe renders the items as "2 x Margherita, 1 x Tiramisu".
func (it OrderItems) Describe() string {
	s := ""
	for i, item := range it {
		if i > 0 {
			s += ", "
		}
		s += fmt.Sprintf("%d x %s", item.Quantity, item.Name)
	}
	return s
}

// Order is a to-go order.
type Order struct {
	BaseModel

	RestaurantID uuid.UUID `gorm:"type:uuid;not null;index:idx_orders_restaurant_number,priority:1" json:"restaurantId"`

	// OrderNumber 4-digit identifier, looked up by (restaurant, number)
	OrderNumber string `gorm:"size:4;not null;index:idx_orders_restaurant_number,priority:2" json:"orderNumber"`

	CustomerName  string `gorm:"size:255;not null" json:"customerName"`
	CustomerPhone string `gorm:"size:50;not null" json:"customerPhone"`
	CustomerEmail string `gorm:"size:255" json:"customerEmail,omitempty"`

	Items OrderItems `gorm:"type:jsonb" json:"items"`

	// PickupDate YYYY-MM-DD in the restaurant's timezone
	PickupDate string `gorm:"size:10;not null" json:"pickupDate"`

	// PickupTime HH:MM, 24h
	PickupTime string `gorm:"size:5;not null" json:"pickupTime"`

	SpecialInstructions string  `gorm:"type:text" json:"specialInstructions,omitempty"`
	Total               float64 `json:"total,omitempty"`

	Status OrderStatus `gorm:"size:20;not null;index" json:"status"`
	Source Source      `gorm:"size:20;not null" json:"source"`

	CancelledAt *time.Time `json:"cancelledAt,omitempty"`

	History History `gorm:"type:jsonb" json:"history"`
}

// TableName returns the table name.
func (Order) TableName() string {
	return "orders"
}

// IsCancelled reports whether the order is in its terminal cancelled state.
func (o *Order) IsCancelled() bool {
	return o.Status == OrderCancelled
}

// IsCompleted reports whether the order was picked up.
func (o *Order) IsCompleted() bool {
	return o.Status == OrderCompleted
}

// Editable reports whether customer and pickup details may still change.
// Once the kitchen starts, the order is fixed.
func (o *Order) Editable() bool {
	return o.Status == OrderConfirmed
}

// Cancellable reports whether the order may still be cancelled. An order
// that is preparing or ready can be called off until it is picked up.
func (o *Order) Cancellable() bool {
	return o.Status != OrderCancelled && o.Status != OrderCompleted
}

// ===========================================================================
// Order status transitions
// confirmed -> preparing -> ready -> completed. Cancellation has its own
// operation; cancelled and completed are terminal.
// ===========================================================================

var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderConfirmed: {OrderPreparing},
	OrderPreparing: {OrderReady},
	OrderReady:     {OrderCompleted},
}

// NextOrderStatuses returns the statuses reachable from s.
func NextOrderStatuses(s OrderStatus) []OrderStatus {
	return orderTransitions[s]
}

// CanTransitionOrder reports whether from -> to is allowed.
func CanTransitionOrder(from, to OrderStatus) bool {
	for _, next := range orderTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}
