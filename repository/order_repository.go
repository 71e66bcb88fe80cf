package repository

import (
	"time"

	"github.com/food-bundles/food-bundles-bn-sub000/entity"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type OrderRepository struct{ DB *gorm.DB }

func NewOrderRepository(db *gorm.DB) *OrderRepository {
	return &OrderRepository{DB: db}
}

func (r *OrderRepository) CreateOrder(tx *gorm.DB, o *entity.Order) error {
	return tx.Create(o).Error
}

func (r *OrderRepository) CreateOrderItem(tx *gorm.DB, oi *entity.OrderItem) error {
	return tx.Create(oi).Error
}

func (r *OrderRepository) GetOrder(orderID uint) (*entity.Order, error) {
	var o entity.Order
	err := withRetry(func() error {
		return r.DB.First(&o, orderID).Error
	})
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *OrderRepository) GetOrderItems(orderID uint) ([]entity.OrderItem, error) {
	var items []entity.OrderItem
	err := withRetry(func() error {
		return r.DB.Where("order_id = ?", orderID).Find(&items).Error
	})
	return items, err
}

type OrderSummary struct {
	ID          uint               `json:"id"`
	OrderNumber string             `json:"orderNumber"`
	TotalAmount decimal.Decimal    `json:"totalAmount"`
	Status      entity.OrderStatus `json:"status"`
	CreatedAt   time.Time          `json:"createdAt"`
}

func (r *OrderRepository) ListForRestaurant(restaurantID uint, limit int) ([]OrderSummary, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	var out []OrderSummary
	err := withRetry(func() error {
		return r.DB.Model(&entity.Order{}).
			Select("id, order_number, total_amount, status, created_at").
			Where("restaurant_id = ?", restaurantID).
			Order("id DESC").Limit(limit).
			Scan(&out).Error
	})
	return out, err
}

// UpdateStatusGuard is the only way order status moves; affected==0 means
// the order was not in `from` anymore.
func (r *OrderRepository) UpdateStatusGuard(tx *gorm.DB, orderID uint, from, to entity.OrderStatus) (int64, error) {
	res := tx.Model(&entity.Order{}).
		Where("id = ? AND status = ?", orderID, from).
		Update("status", to)
	return res.RowsAffected, res.Error
}

// DeleteCancelled hard-deletes an order only while it is CANCELLED.
func (r *OrderRepository) DeleteCancelled(tx *gorm.DB, orderID uint) (int64, error) {
	res := tx.Unscoped().
		Where("id = ? AND status = ?", orderID, entity.OrderCancelled).
		Delete(&entity.Order{})
	if res.Error != nil || res.RowsAffected == 0 {
		return res.RowsAffected, res.Error
	}
	err := tx.Unscoped().
		Where("order_id = ?", orderID).
		Delete(&entity.OrderItem{}).Error
	return res.RowsAffected, err
}
