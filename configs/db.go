package configs

import (
	"github.com/food-bundles/food-bundles-bn-sub000/entity"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

var db *gorm.DB

func DB() *gorm.DB {
	return db
}

func ConnectionDB(source string) {
	database, err := gorm.Open(sqlite.Open(source), &gorm.Config{})
	if err != nil {
		panic("failed to connect database")
	}
	db = database
}

func SetupDatabase() {

	// Migrate the schema
	db.AutoMigrate(
		&entity.User{}, &entity.Restaurant{},
		&entity.Product{},
		&entity.Cart{}, &entity.CartItem{},
		&entity.Checkout{},
		&entity.Order{}, &entity.OrderItem{},
		&entity.Wallet{}, &entity.WalletTransaction{},
	)
}
