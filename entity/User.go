package entity

import (
	"gorm.io/gorm"
)

type User struct {
	gorm.Model
	Email       string `gorm:"uniqueIndex;not null" json:"email"`
	Password    string `json:"-"`
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	PhoneNumber string `json:"phoneNumber"`
	Role        string `gorm:"not null;default:restaurant" json:"role"`

	// Relations — preload only when needed
	RestaurantsOwned []Restaurant `gorm:"foreignKey:UserID" json:"-"`
}
