package services

import "github.com/shopspring/decimal"

// PaymentEvent is what settlement code emits when a checkout or wallet
// transaction reaches a terminal state. The core only sees this narrow
// port; the websocket hub (or anything else) implements it. Durable state
// lives in the rows themselves, so delivery is fire-and-forget.
type PaymentEvent struct {
	Type         string          `json:"type"` // checkout.completed, checkout.failed, wallet.topup.completed, ...
	RestaurantID uint            `json:"restaurantId"`
	TxRef        string          `json:"txRef"`
	Status       string          `json:"status"`
	Amount       decimal.Decimal `json:"amount"`
	OrderID      *uint           `json:"orderId,omitempty"`
}

type EventPublisher interface {
	PublishPaymentEvent(evt PaymentEvent)
}

// NopPublisher is used in tests and when no hub is wired.
type NopPublisher struct{}

func (NopPublisher) PublishPaymentEvent(PaymentEvent) {}
