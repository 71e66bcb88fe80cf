package services

import (
	"errors"

	"github.com/food-bundles/food-bundles-bn-sub000/entity"
	"github.com/food-bundles/food-bundles-bn-sub000/repository"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type CartService struct {
	DB          *gorm.DB
	CartRepo    *repository.CartRepository
	ProductRepo *repository.ProductRepository
	RestRepo    *repository.RestaurantRepository
}

func NewCartService(
	db *gorm.DB,
	cartRepo *repository.CartRepository,
	productRepo *repository.ProductRepository,
	restRepo *repository.RestaurantRepository,
) *CartService {
	return &CartService{DB: db, CartRepo: cartRepo, ProductRepo: productRepo, RestRepo: restRepo}
}

type AddToCartIn struct {
	ProductID uint `json:"productId" binding:"required"`
	Qty       int  `json:"qty" binding:"min=1"`
}

func (s *CartService) restaurantFor(userID uint) (*entity.Restaurant, error) {
	rest, err := s.RestRepo.GetByOwner(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return rest, nil
}

func (s *CartService) Get(userID uint) (*entity.Cart, error) {
	rest, err := s.restaurantFor(userID)
	if err != nil {
		return nil, err
	}
	return s.CartRepo.GetActiveWithItems(rest.ID)
}

// Add snapshots the product's current unit price onto the line; later price
// changes do not touch carts already holding the item.
func (s *CartService) Add(userID uint, in *AddToCartIn) error {
	if in.Qty <= 0 {
		in.Qty = 1
	}

	rest, err := s.restaurantFor(userID)
	if err != nil {
		return err
	}

	p, err := s.ProductRepo.Get(in.ProductID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}
	if p.Status != entity.ProductActive {
		return Validationf("product %q is not available", p.Name)
	}
	if p.Stock < in.Qty {
		return Validationf("product %q has only %d in stock", p.Name, p.Stock)
	}

	c, err := s.CartRepo.GetOrCreateActive(rest.ID)
	if err != nil {
		return err
	}

	line := &entity.CartItem{
		ProductID: p.ID,
		Qty:       in.Qty,
		UnitPrice: p.UnitPrice,
		Subtotal:  p.UnitPrice.Mul(decimal.NewFromInt(int64(in.Qty))),
	}

	return s.DB.Transaction(func(tx *gorm.DB) error {
		return s.CartRepo.UpsertItem(tx, c.ID, line)
	})
}

func (s *CartService) UpdateQty(userID, itemID uint, qty int) error {
	c, err := s.Get(userID)
	if err != nil {
		return err
	}
	if c.ID == 0 {
		return ErrNotFound
	}
	return s.DB.Transaction(func(tx *gorm.DB) error {
		return s.CartRepo.UpdateQty(tx, c.ID, itemID, qty)
	})
}

func (s *CartService) RemoveItem(userID, itemID uint) error {
	c, err := s.Get(userID)
	if err != nil {
		return err
	}
	if c.ID == 0 {
		return ErrNotFound
	}
	return s.DB.Transaction(func(tx *gorm.DB) error {
		return s.CartRepo.RemoveItem(tx, c.ID, itemID)
	})
}

func (s *CartService) Clear(userID uint) error {
	c, err := s.Get(userID)
	if err != nil {
		return err
	}
	if c.ID == 0 {
		return nil
	}
	return s.DB.Transaction(func(tx *gorm.DB) error {
		return s.CartRepo.Clear(tx, c.ID)
	})
}
