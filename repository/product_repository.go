package repository

import (
	"github.com/food-bundles/food-bundles-bn-sub000/entity"
	"gorm.io/gorm"
)

type ProductRepository struct{ DB *gorm.DB }

func NewProductRepository(db *gorm.DB) *ProductRepository {
	return &ProductRepository{DB: db}
}

func (r *ProductRepository) Get(productID uint) (*entity.Product, error) {
	var p entity.Product
	var err error
	err = withRetry(func() error {
		return r.DB.First(&p, productID).Error
	})
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *ProductRepository) GetMany(ids []uint) ([]entity.Product, error) {
	var out []entity.Product
	err := withRetry(func() error {
		return r.DB.Where("id IN ?", ids).Find(&out).Error
	})
	return out, err
}

// DecrementStock takes stock only when the product is ACTIVE and has enough
// left; affected==0 means the guard failed. Always call inside the owning
// transaction.
func (r *ProductRepository) DecrementStock(tx *gorm.DB, productID uint, qty int) (int64, error) {
	res := tx.Model(&entity.Product{}).
		Where("id = ? AND status = ? AND stock >= ?", productID, entity.ProductActive, qty).
		Update("stock", gorm.Expr("stock - ?", qty))
	return res.RowsAffected, res.Error
}

func (r *ProductRepository) IncrementStock(tx *gorm.DB, productID uint, qty int) error {
	return tx.Model(&entity.Product{}).
		Where("id = ?", productID).
		Update("stock", gorm.Expr("stock + ?", qty)).Error
}
