package repository

import (
	"errors"

	"github.com/food-bundles/food-bundles-bn-sub000/entity"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type CartRepository struct{ DB *gorm.DB }

func NewCartRepository(db *gorm.DB) *CartRepository { return &CartRepository{DB: db} }

// GetActiveWithItems returns the restaurant's ACTIVE cart, or an empty
// unsaved cart so callers can render an empty basket without an error.
func (r *CartRepository) GetActiveWithItems(restaurantID uint) (*entity.Cart, error) {
	var c entity.Cart
	err := withRetry(func() error {
		return r.DB.Where("restaurant_id = ? AND status = ?", restaurantID, entity.CartActive).
			Preload("Items").
			Preload("Items.Product").
			First(&c).Error
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &entity.Cart{RestaurantID: restaurantID, Status: entity.CartActive}, nil
	}
	return &c, err
}

func (r *CartRepository) GetWithItems(cartID uint) (*entity.Cart, error) {
	var c entity.Cart
	err := withRetry(func() error {
		return r.DB.Preload("Items").Preload("Items.Product").First(&c, cartID).Error
	})
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// GetOrCreateActive keeps the one-ACTIVE-cart-per-restaurant invariant.
func (r *CartRepository) GetOrCreateActive(restaurantID uint) (*entity.Cart, error) {
	var c entity.Cart
	err := r.DB.Where("restaurant_id = ? AND status = ?", restaurantID, entity.CartActive).First(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c = entity.Cart{RestaurantID: restaurantID, Status: entity.CartActive}
		if err := r.DB.Create(&c).Error; err != nil {
			return nil, err
		}
		return &c, nil
	}
	return &c, err
}

// UpsertItem merges same-product lines, otherwise appends a new line.
func (r *CartRepository) UpsertItem(tx *gorm.DB, cartID uint, row *entity.CartItem) error {
	var exist entity.CartItem
	err := tx.Where("cart_id = ? AND product_id = ?", cartID, row.ProductID).First(&exist).Error
	if err == nil {
		exist.Qty += row.Qty
		exist.Subtotal = exist.UnitPrice.Mul(decimal.NewFromInt(int64(exist.Qty)))
		if err := tx.Save(&exist).Error; err != nil {
			return err
		}
		return r.RecomputeTotal(tx, cartID)
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	row.CartID = cartID
	if err := tx.Create(row).Error; err != nil {
		return err
	}
	return r.RecomputeTotal(tx, cartID)
}

func (r *CartRepository) UpdateQty(tx *gorm.DB, cartID, itemID uint, qty int) error {
	if qty <= 0 {
		return r.RemoveItem(tx, cartID, itemID)
	}
	if err := tx.Exec(`
		UPDATE cart_items
		   SET qty = ?, subtotal = unit_price * ?
		 WHERE id = ? AND cart_id = ?
	`, qty, qty, itemID, cartID).Error; err != nil {
		return err
	}
	return r.RecomputeTotal(tx, cartID)
}

func (r *CartRepository) RemoveItem(tx *gorm.DB, cartID, itemID uint) error {
	if err := tx.Where("id = ? AND cart_id = ?", itemID, cartID).
		Delete(&entity.CartItem{}).Error; err != nil {
		return err
	}
	return r.RecomputeTotal(tx, cartID)
}

func (r *CartRepository) Clear(tx *gorm.DB, cartID uint) error {
	if err := tx.Where("cart_id = ?", cartID).Delete(&entity.CartItem{}).Error; err != nil {
		return err
	}
	return r.RecomputeTotal(tx, cartID)
}

// RecomputeTotal re-derives cart.total_amount from the line subtotals, the
// invariant every cart mutation must restore.
func (r *CartRepository) RecomputeTotal(tx *gorm.DB, cartID uint) error {
	return tx.Exec(`
		UPDATE carts
		   SET total_amount = (
		       SELECT COALESCE(SUM(subtotal), 0) FROM cart_items
		        WHERE cart_id = ? AND deleted_at IS NULL)
		 WHERE id = ?
	`, cartID, cartID).Error
}

// MarkCompleted locks the cart once its checkout settles; affected==0 means
// the cart was not ACTIVE anymore.
func (r *CartRepository) MarkCompleted(tx *gorm.DB, cartID uint) (int64, error) {
	res := tx.Model(&entity.Cart{}).
		Where("id = ? AND status = ?", cartID, entity.CartActive).
		Update("status", entity.CartCompleted)
	return res.RowsAffected, res.Error
}
