package services

import (
	"errors"

	"github.com/food-bundles/food-bundles-bn-sub000/entity"
	"github.com/food-bundles/food-bundles-bn-sub000/repository"
	"github.com/food-bundles/food-bundles-bn-sub000/utils"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type OrderService struct {
	DB           *gorm.DB
	Repo         *repository.OrderRepository
	CartRepo     *repository.CartRepository
	CheckoutRepo *repository.CheckoutRepository
	ProductRepo  *repository.ProductRepository
	RestRepo     *repository.RestaurantRepository
	Log          *zap.Logger
}

func NewOrderService(
	db *gorm.DB,
	repo *repository.OrderRepository,
	cartRepo *repository.CartRepository,
	checkoutRepo *repository.CheckoutRepository,
	productRepo *repository.ProductRepository,
	restRepo *repository.RestaurantRepository,
	log *zap.Logger,
) *OrderService {
	return &OrderService{
		DB: db, Repo: repo, CartRepo: cartRepo, CheckoutRepo: checkoutRepo,
		ProductRepo: productRepo, RestRepo: restRepo, Log: log,
	}
}

// Materialize turns a paid checkout into an order: one transaction that
// re-checks stock, snapshots cart prices into order items, decrements stock
// and links the checkout. Stock may have moved since checkout creation, so
// every line re-validates here; any shortfall aborts the whole thing.
func (s *OrderService) Materialize(checkout *entity.Checkout) (*entity.Order, error) {
	if checkout.PaymentStatus != entity.PaymentCompleted {
		return nil, ErrInvalidTransition
	}
	if checkout.OrderID != nil {
		order, err := s.Repo.GetOrder(*checkout.OrderID)
		if err != nil {
			return nil, err
		}
		return order, nil // already materialized, idempotent
	}

	cart, err := s.CartRepo.GetWithItems(checkout.CartID)
	if err != nil {
		return nil, err
	}
	if len(cart.Items) == 0 {
		return nil, Validationf("cart has no items to materialize")
	}

	var order entity.Order
	err = s.DB.Transaction(func(tx *gorm.DB) error {
		order = entity.Order{
			OrderNumber:  utils.NewOrderNumber(),
			TotalAmount:  checkout.TotalAmount,
			Status:       entity.OrderPending,
			RestaurantID: checkout.RestaurantID,
		}
		if err := s.Repo.CreateOrder(tx, &order); err != nil {
			return err
		}

		for _, it := range cart.Items {
			affected, err := s.ProductRepo.DecrementStock(tx, it.ProductID, it.Qty)
			if err != nil {
				return err
			}
			if affected == 0 {
				return Validationf("product %d has insufficient stock", it.ProductID)
			}

			oi := entity.OrderItem{
				OrderID:   order.ID,
				ProductID: it.ProductID,
				Qty:       it.Qty,
				UnitPrice: it.UnitPrice, // snapshot from the cart, not current price
				Subtotal:  it.Subtotal,
			}
			if err := s.Repo.CreateOrderItem(tx, &oi); err != nil {
				return err
			}
		}

		if _, err := s.CartRepo.MarkCompleted(tx, cart.ID); err != nil {
			return err
		}

		affected, err := s.CheckoutRepo.LinkOrder(tx, checkout.ID, order.ID)
		if err != nil {
			return err
		}
		if affected == 0 {
			return Validationf("checkout %d is already linked to an order", checkout.ID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// ----- listing -----

func (s *OrderService) ListForUser(userID uint, limit int) ([]repository.OrderSummary, error) {
	rest, err := s.RestRepo.GetByOwner(userID)
	if err != nil {
		return nil, ErrNotFound
	}
	return s.Repo.ListForRestaurant(rest.ID, limit)
}

type OrderDetail struct {
	Order entity.Order       `json:"order"`
	Items []entity.OrderItem `json:"items"`
}

func (s *OrderService) DetailForUser(userID, orderID uint) (*OrderDetail, error) {
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

	items, err := s.Repo.GetOrderItems(o.ID)
	if err != nil {
		return nil, err
	}
	return &OrderDetail{Order: *o, Items: items}, nil
}
