package entity

import (
	"gorm.io/gorm"
)

type Restaurant struct {
	gorm.Model
	Name     string `json:"name"`
	Address  string `json:"address"`
	Province string `json:"province"`
	District string `json:"district"`

	UserID uint `json:"userId"` // owner (users.id)
	User   User `json:"-"`

	Carts  []Cart  `json:"-"`
	Orders []Order `json:"-"`
	Wallet *Wallet `gorm:"foreignKey:RestaurantID" json:"-"`
}
