package domain

import (
	"encoding/json"
	"time"
)

type OrderType string

const (
	OrderTypeHotel    OrderType = "hotel"
	OrderTypeCar      OrderType = "car"
	OrderTypeShortlet OrderType = "shortlet"
	OrderTypeFlight   OrderType = "flight"
)

func (t OrderType) Valid() bool {
	switch t {
	case OrderTypeHotel, OrderTypeCar, OrderTypeShortlet, OrderTypeFlight:
		return true
	}
	return false
}

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusConfirmed OrderStatus = "confirmed"
	OrderStatusCompleted OrderStatus = "completed"
	OrderStatusCancelled OrderStatus = "cancelled"
)

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusConfirmed, OrderStatusCompleted, OrderStatusCancelled:
		return true
	}
	return false
}

var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending:   {OrderStatusConfirmed, OrderStatusCancelled},
	OrderStatusConfirmed: {OrderStatusCompleted, OrderStatusCancelled},
}

// CanTransition reports whether an order may move from s to next.
func (s OrderStatus) CanTransition(next OrderStatus) bool {
	for _, allowed := range orderTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

type OrderSource string

const (
	OrderSourceWeb    OrderSource = "web"
	OrderSourceManual OrderSource = "manual"
)

type Order struct {
	ID           string          `json:"id"`
	Type         OrderType       `json:"type"`
	OrderData    json.RawMessage `json:"orderData"`
	CustomerInfo json.RawMessage `json:"customerInfo"`
	TotalPrice   int64           `json:"totalPrice"`
	Currency     string          `json:"currency"`
	Status       OrderStatus     `json:"status"`
	Source       OrderSource     `json:"source"`
	MerchantID   string          `json:"merchantId,omitempty"`
	CreatedAt    time.Time       `json:"createdAt"`
	UpdatedAt    time.Time       `json:"updatedAt"`
}
