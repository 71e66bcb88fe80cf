package entity

import (
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type CartStatus string

const (
	CartActive    CartStatus = "ACTIVE"
	CartCompleted CartStatus = "COMPLETED"
)

type Cart struct {
	gorm.Model
	RestaurantID uint       `json:"restaurantId"`
	Restaurant   Restaurant `json:"-"`

	Status      CartStatus      `gorm:"size:20;not null;default:ACTIVE" json:"status"`
	TotalAmount decimal.Decimal `gorm:"type:decimal(20,2)" json:"totalAmount"`

	Items []CartItem `json:"items" gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
}
