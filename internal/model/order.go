package model

import (
	"time"
)

// Known order statuses. Other values are stored and reported verbatim.
const (
	OrderStatusProcessing     = "Processing"
	OrderStatusShipped        = "Shipped"
	OrderStatusOutForDelivery = "Out for delivery"
	OrderStatusDelivered      = "Delivered"
)

// DateLayout formats estimated delivery dates.
const DateLayout = "2006-01-02"

// Order is a customer order owned by exactly one user.
type Order struct {
	ID                uint       `json:"id"`
	OrderNumber       string     `json:"order_number"`
	Status            string     `json:"status"`
	EstimatedDelivery *time.Time `json:"estimated_delivery,omitempty"`
	CustomerName      string     `json:"customer_name,omitempty"`
	UserID            uint       `json:"user_id"`
}

// OrderSummary is the order view placed in a chat payload.
type OrderSummary struct {
	OrderNumber       string  `json:"order_number"`
	Status            string  `json:"status"`
	EstimatedDelivery *string `json:"estimated_delivery"`
}

// Summary builds the payload view of the order.
func (o *Order) Summary() OrderSummary {
	s := OrderSummary{
		OrderNumber: o.OrderNumber,
		Status:      o.Status,
	}
	if o.EstimatedDelivery != nil {
		eta := o.EstimatedDelivery.Format(DateLayout)
		s.EstimatedDelivery = &eta
	}
	return s
}
