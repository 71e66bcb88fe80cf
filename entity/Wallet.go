package entity

import (
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Wallet struct {
	gorm.Model
	RestaurantID uint       `gorm:"uniqueIndex;not null" json:"restaurantId"`
	Restaurant   Restaurant `json:"-"`

	Balance  decimal.Decimal `gorm:"type:decimal(20,2);not null" json:"balance"`
	Currency string          `gorm:"size:3;not null;default:RWF" json:"currency"`
	IsActive bool            `gorm:"not null;default:true" json:"isActive"`

	Transactions []WalletTransaction `json:"-"`
}
