package entity

import (
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type CartItem struct {
	gorm.Model
	CartID uint `json:"cartId"`
	Cart   Cart `json:"-"`

	ProductID uint    `json:"productId"`
	Product   Product `json:"-"`

	Qty       int             `json:"qty"`
	UnitPrice decimal.Decimal `gorm:"type:decimal(20,2)" json:"unitPrice"` // snapshot at add time
	Subtotal  decimal.Decimal `gorm:"type:decimal(20,2)" json:"subtotal"`
}
