package kafka

import "time"

const (
	EventFlightBookingCreated   = "flight_booking_created"
	EventFlightBookingCancelled = "flight_booking_cancelled"
	EventFlightBookingExpired   = "flight_booking_expired"
	EventOrderCreated           = "order_created"
	EventOrderStatusChanged     = "order_status_changed"
)

type BookingEvent struct {
	Type        string    `json:"type"`
	Reference   string    `json:"reference"`
	PNR         string    `json:"pnr,omitempty"`
	Status      string    `json:"status"`
	Email       string    `json:"email"`
	Destination string    `json:"destination,omitempty"`
	Total       int64     `json:"total"`
	Currency    string    `json:"currency"`
	OccurredAt  time.Time `json:"occurred_at"`
}

type OrderEvent struct {
	Type           string    `json:"type"`
	OrderID        string    `json:"order_id"`
	OrderType      string    `json:"order_type"`
	Status         string    `json:"status"`
	PreviousStatus string    `json:"previous_status,omitempty"`
	Source         string    `json:"source"`
	Total          int64     `json:"total"`
	Currency       string    `json:"currency"`
	OccurredAt     time.Time `json:"occurred_at"`
}

// Notification is what the worker turns into an email.
type Notification struct {
	Kind      string `json:"kind"`
	Email     string `json:"email"`
	Reference string `json:"reference"`
	Status    string `json:"status"`
	Summary   string `json:"summary"`
}
