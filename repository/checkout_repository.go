package repository

import (
	"time"

	"github.com/food-bundles/food-bundles-bn-sub000/entity"
	"gorm.io/gorm"
)

type CheckoutRepository struct{ DB *gorm.DB }

func NewCheckoutRepository(db *gorm.DB) *CheckoutRepository {
	return &CheckoutRepository{DB: db}
}

func (r *CheckoutRepository) Create(tx *gorm.DB, ch *entity.Checkout) error {
	return tx.Create(ch).Error
}

func (r *CheckoutRepository) Save(tx *gorm.DB, ch *entity.Checkout) error {
	return tx.Save(ch).Error
}

func (r *CheckoutRepository) Get(checkoutID uint) (*entity.Checkout, error) {
	var ch entity.Checkout
	err := withRetry(func() error {
		return r.DB.First(&ch, checkoutID).Error
	})
	if err != nil {
		return nil, err
	}
	return &ch, nil
}

func (r *CheckoutRepository) GetByCartID(cartID uint) (*entity.Checkout, error) {
	var ch entity.Checkout
	err := withRetry(func() error {
		return r.DB.Where("cart_id = ?", cartID).First(&ch).Error
	})
	if err != nil {
		return nil, err
	}
	return &ch, nil
}

func (r *CheckoutRepository) GetByTxRef(txRef string) (*entity.Checkout, error) {
	var ch entity.Checkout
	err := withRetry(func() error {
		return r.DB.Where("tx_ref = ?", txRef).First(&ch).Error
	})
	if err != nil {
		return nil, err
	}
	return &ch, nil
}

func (r *CheckoutRepository) GetByProviderRef(ref string) (*entity.Checkout, error) {
	var ch entity.Checkout
	err := withRetry(func() error {
		return r.DB.Where("provider_ref = ?", ref).First(&ch).Error
	})
	if err != nil {
		return nil, err
	}
	return &ch, nil
}

// UpdateStatusGuard moves payment_status from one of `from` to `to` in a
// single conditional update; affected==0 means a conflicting writer won or
// the transition is illegal.
func (r *CheckoutRepository) UpdateStatusGuard(tx *gorm.DB, checkoutID uint, from []entity.PaymentStatus, to entity.PaymentStatus) (int64, error) {
	updates := map[string]any{"payment_status": to}
	if to == entity.PaymentCompleted {
		now := time.Now()
		updates["paid_at"] = &now
	}
	res := tx.Model(&entity.Checkout{}).
		Where("id = ? AND payment_status IN ?", checkoutID, from).
		Updates(updates)
	return res.RowsAffected, res.Error
}

func (r *CheckoutRepository) SetProviderRef(tx *gorm.DB, checkoutID uint, providerRef string) error {
	return tx.Model(&entity.Checkout{}).
		Where("id = ?", checkoutID).
		Update("provider_ref", providerRef).Error
}

// LinkOrder sets the order back-reference exactly once.
func (r *CheckoutRepository) LinkOrder(tx *gorm.DB, checkoutID, orderID uint) (int64, error) {
	res := tx.Model(&entity.Checkout{}).
		Where("id = ? AND order_id IS NULL", checkoutID).
		Update("order_id", orderID)
	return res.RowsAffected, res.Error
}
