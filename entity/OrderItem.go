package entity

import (
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type OrderItem struct {
	gorm.Model
	OrderID uint  `json:"orderId"`
	Order   Order `json:"-"`

	ProductID uint    `json:"productId"`
	Product   Product `json:"-"`

	Qty       int             `json:"qty"`
	UnitPrice decimal.Decimal `gorm:"type:decimal(20,2)" json:"unitPrice"` // immutable snapshot from the cart
	Subtotal  decimal.Decimal `gorm:"type:decimal(20,2)" json:"subtotal"`
}
