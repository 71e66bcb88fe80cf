package entity

import (
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type OrderStatus string

const (
	OrderPending   OrderStatus = "PENDING"
	OrderConfirmed OrderStatus = "CONFIRMED"
	OrderPreparing OrderStatus = "PREPARING"
	OrderReady     OrderStatus = "READY"
	OrderInTransit OrderStatus = "IN_TRANSIT"
	OrderDelivered OrderStatus = "DELIVERED"
	OrderCancelled OrderStatus = "CANCELLED"
	OrderRefunded  OrderStatus = "REFUNDED"
)

type Order struct {
	gorm.Model
	OrderNumber string          `gorm:"uniqueIndex;not null" json:"orderNumber"`
	TotalAmount decimal.Decimal `gorm:"type:decimal(20,2)" json:"totalAmount"`
	Status      OrderStatus     `gorm:"size:20;not null;default:PENDING" json:"status"`

	RestaurantID uint       `json:"restaurantId"`
	Restaurant   Restaurant `json:"-"`

	// preload only on detail
	Items    []OrderItem `json:"-"`
	Checkout *Checkout   `gorm:"foreignKey:OrderID" json:"-"`
}
