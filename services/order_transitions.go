package services

import (
	"errors"

	"github.com/food-bundles/food-bundles-bn-sub000/entity"
	"gorm.io/gorm"
)

// Forward flow. CANCELLED is reachable from any status before IN_TRANSIT,
// REFUNDED only from DELIVERED, and both are terminal.
var orderFlow = map[entity.OrderStatus]entity.OrderStatus{
	entity.OrderConfirmed: entity.OrderPending,
	entity.OrderPreparing: entity.OrderConfirmed,
	entity.OrderReady:     entity.OrderPreparing,
	entity.OrderInTransit: entity.OrderReady,
	entity.OrderDelivered: entity.OrderInTransit,
}

var cancellable = []entity.OrderStatus{
	entity.OrderPending, entity.OrderConfirmed, entity.OrderPreparing, entity.OrderReady,
}

func (s *OrderService) loadOwned(userID, orderID uint) (*entity.Order, error) {
	o, err := s.Repo.GetOrder(orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	ok, err := s.RestRepo.IsOwnedBy(o.RestaurantID, userID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrForbidden
	}
	return o, nil
}

// Advance moves an order one step along the forward flow using a guarded
// update; a concurrent writer or an out-of-order request loses the guard
// and gets ErrInvalidTransition.
func (s *OrderService) Advance(userID, orderID uint, to entity.OrderStatus) error {
	from, ok := orderFlow[to]
	if !ok {
		return ErrInvalidTransition
	}

	o, err := s.loadOwned(userID, orderID)
	if err != nil {
		return err
	}

	return s.DB.Transaction(func(tx *gorm.DB) error {
		affected, err := s.Repo.UpdateStatusGuard(tx, o.ID, from, to)
		if err != nil {
			return err
		}
		if affected == 0 {
			return ErrInvalidTransition
		}
		return nil
	})
}

// Cancel stops an undelivered order and puts every decremented unit of
// stock back, all in one transaction.
func (s *OrderService) Cancel(userID, orderID uint) error {
	o, err := s.loadOwned(userID, orderID)
	if err != nil {
		return err
	}

	items, err := s.Repo.GetOrderItems(o.ID)
	if err != nil {
		return err
	}

	return s.DB.Transaction(func(tx *gorm.DB) error {
		var affected int64
		for _, from := range cancellable {
			affected, err = s.Repo.UpdateStatusGuard(tx, o.ID, from, entity.OrderCancelled)
			if err != nil {
				return err
			}
			if affected > 0 {
				break
			}
		}
		if affected == 0 {
			return ErrInvalidTransition
		}

		for _, it := range items {
			if err := s.ProductRepo.IncrementStock(tx, it.ProductID, it.Qty); err != nil {
				return err
			}
		}
		return nil
	})
}

// Refund moves a DELIVERED order to REFUNDED; admin only, enforced at the
// route layer and re-checked here.
func (s *OrderService) Refund(role string, orderID uint) error {
	if role != "admin" {
		return ErrForbidden
	}
	return s.DB.Transaction(func(tx *gorm.DB) error {
		affected, err := s.Repo.UpdateStatusGuard(tx, orderID, entity.OrderDelivered, entity.OrderRefunded)
		if err != nil {
			return err
		}
		if affected == 0 {
			return ErrInvalidTransition
		}
		return nil
	})
}

// Delete hard-deletes an order, allowed only once it is CANCELLED.
func (s *OrderService) Delete(userID, orderID uint) error {
	if _, err := s.loadOwned(userID, orderID); err != nil {
		return err
	}
	return s.DB.Transaction(func(tx *gorm.DB) error {
		affected, err := s.Repo.DeleteCancelled(tx, orderID)
		if err != nil {
			return err
		}
		if affected == 0 {
			return ErrInvalidTransition
		}
		return nil
	})
}
