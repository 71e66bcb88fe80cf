package entity

import (
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type ProductStatus string

const (
	ProductActive     ProductStatus = "ACTIVE"
	ProductInactive   ProductStatus = "INACTIVE"
	ProductOutOfStock ProductStatus = "OUT_OF_STOCK"
)

// Product is farmer-submitted produce, priced per unit after aggregation.
type Product struct {
	gorm.Model
	Name      string          `json:"name"`
	Unit      string          `json:"unit"` // kg, crate, bunch
	UnitPrice decimal.Decimal `gorm:"type:decimal(20,2)" json:"unitPrice"`
	Stock     int             `gorm:"not null;default:0" json:"stock"`
	Status    ProductStatus   `gorm:"size:20;not null;default:ACTIVE" json:"status"`

	FarmerID uint `json:"farmerId"` // submitting user (users.id)
	Farmer   User `json:"-"`

	CartItems  []CartItem  `json:"-"`
	OrderItems []OrderItem `json:"-"`
}
