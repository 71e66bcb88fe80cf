package entity

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type PaymentMethod string

const (
	MethodMobileMoney  PaymentMethod = "MOBILE_MONEY"
	MethodCard         PaymentMethod = "CARD"
	MethodBankTransfer PaymentMethod = "BANK_TRANSFER"
	MethodCash         PaymentMethod = "CASH" // wallet-funded
)

type PaymentStatus string

const (
	PaymentPending    PaymentStatus = "PENDING"
	PaymentProcessing PaymentStatus = "PROCESSING"
	PaymentCompleted  PaymentStatus = "COMPLETED"
	PaymentFailed     PaymentStatus = "FAILED"
)

// Checkout represents one attempt to pay for a cart's contents.
// TxRef is the idempotency key against the gateway and webhooks.
type Checkout struct {
	gorm.Model
	CartID uint `gorm:"uniqueIndex;not null" json:"cartId"`
	Cart   Cart `json:"-"`

	RestaurantID uint       `json:"restaurantId"`
	Restaurant   Restaurant `json:"-"`

	BillingName  string `json:"billingName"`
	BillingEmail string `json:"billingEmail"`
	BillingPhone string `json:"billingPhone"`

	PaymentMethod PaymentMethod   `gorm:"size:20;not null" json:"paymentMethod"`
	PaymentStatus PaymentStatus   `gorm:"size:20;not null;default:PENDING" json:"paymentStatus"`
	TotalAmount   decimal.Decimal `gorm:"type:decimal(20,2)" json:"totalAmount"`

	TxRef         string     `gorm:"uniqueIndex;not null" json:"txRef"`
	ProviderRef   string     `gorm:"index" json:"providerRef"`
	FailureReason string     `json:"failureReason,omitempty"`
	PaidAt        *time.Time `json:"paidAt,omitempty"`

	// set exactly once when the order is materialized
	OrderID *uint  `json:"orderId,omitempty"`
	Order   *Order `json:"-"`
}
