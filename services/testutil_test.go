package services

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/food-bundles/food-bundles-bn-sub000/entity"
	"github.com/food-bundles/food-bundles-bn-sub000/payments"
	"github.com/food-bundles/food-bundles-bn-sub000/repository"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&entity.User{}, &entity.Restaurant{},
		&entity.Product{},
		&entity.Cart{}, &entity.CartItem{},
		&entity.Checkout{},
		&entity.Order{}, &entity.OrderItem{},
		&entity.Wallet{}, &entity.WalletTransaction{},
	))
	return db
}

// testStack wires every service over one database, with a nop event
// publisher and whatever gateway the test provides.
type testStack struct {
	db *gorm.DB

	restRepo     *repository.RestaurantRepository
	productRepo  *repository.ProductRepository
	cartRepo     *repository.CartRepository
	checkoutRepo *repository.CheckoutRepository
	orderRepo    *repository.OrderRepository
	walletRepo   *repository.WalletRepository

	carts     *CartService
	wallets   *WalletService
	orders    *OrderService
	checkouts *CheckoutService
	webhooks  *WebhookService
}

func newTestStack(t *testing.T, gateway *payments.Gateway) *testStack {
	t.Helper()
	db := newTestDB(t)
	log := zap.NewNop()

	s := &testStack{
		db:           db,
		restRepo:     repository.NewRestaurantRepository(db),
		productRepo:  repository.NewProductRepository(db),
		cartRepo:     repository.NewCartRepository(db),
		checkoutRepo: repository.NewCheckoutRepository(db),
		orderRepo:    repository.NewOrderRepository(db),
		walletRepo:   repository.NewWalletRepository(db),
	}
	s.carts = NewCartService(db, s.cartRepo, s.productRepo, s.restRepo)
	s.wallets = NewWalletService(db, s.walletRepo, s.restRepo, gateway, NopPublisher{}, log)
	s.orders = NewOrderService(db, s.orderRepo, s.cartRepo, s.checkoutRepo, s.productRepo, s.restRepo, log)
	s.checkouts = NewCheckoutService(db, s.checkoutRepo, s.cartRepo, s.productRepo, s.restRepo,
		s.walletRepo, s.wallets, s.orders, gateway, NopPublisher{}, log)
	s.webhooks = NewWebhookService(s.checkoutRepo, s.walletRepo, s.checkouts, s.wallets, log)
	return s
}

func (s *testStack) seedRestaurant(t *testing.T) (*entity.User, *entity.Restaurant) {
	t.Helper()
	u := entity.User{Email: "owner@example.com", Role: "restaurant"}
	require.NoError(t, s.db.Create(&u).Error)
	r := entity.Restaurant{Name: "Kigali Bites", UserID: u.ID}
	require.NoError(t, s.db.Create(&r).Error)
	return &u, &r
}

func (s *testStack) seedProduct(t *testing.T, name string, price int64, stock int) *entity.Product {
	t.Helper()
	p := entity.Product{
		Name:      name,
		Unit:      "kg",
		UnitPrice: decimal.NewFromInt(price),
		Stock:     stock,
		Status:    entity.ProductActive,
	}
	require.NoError(t, s.db.Create(&p).Error)
	return &p
}

func (s *testStack) seedWallet(t *testing.T, restID uint, balance int64) *entity.Wallet {
	t.Helper()
	w := entity.Wallet{
		RestaurantID: restID,
		Balance:      decimal.NewFromInt(balance),
		Currency:     "RWF",
		IsActive:     true,
	}
	require.NoError(t, s.db.Create(&w).Error)
	return &w
}

// seedCart builds an ACTIVE cart holding the given (product, qty) lines
// with price snapshots and the recomputed total.
func (s *testStack) seedCart(t *testing.T, restID uint, lines ...cartLine) *entity.Cart {
	t.Helper()
	c := entity.Cart{RestaurantID: restID, Status: entity.CartActive}
	require.NoError(t, s.db.Create(&c).Error)

	total := decimal.Zero
	for _, l := range lines {
		sub := l.product.UnitPrice.Mul(decimal.NewFromInt(int64(l.qty)))
		item := entity.CartItem{
			CartID:    c.ID,
			ProductID: l.product.ID,
			Qty:       l.qty,
			UnitPrice: l.product.UnitPrice,
			Subtotal:  sub,
		}
		require.NoError(t, s.db.Create(&item).Error)
		total = total.Add(sub)
	}
	require.NoError(t, s.db.Model(&c).Update("total_amount", total).Error)
	c.TotalAmount = total
	return &c
}

type cartLine struct {
	product *entity.Product
	qty     int
}

func (s *testStack) walletBalance(t *testing.T, walletID uint) decimal.Decimal {
	t.Helper()
	w, err := s.walletRepo.Get(walletID)
	require.NoError(t, err)
	return w.Balance
}

func (s *testStack) productStock(t *testing.T, productID uint) int {
	t.Helper()
	p, err := s.productRepo.Get(productID)
	require.NoError(t, err)
	return p.Stock
}

// fakeGateway points a real gateway at an in-process provider.
func fakeGateway(t *testing.T, handler http.HandlerFunc) *payments.Gateway {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return payments.NewGateway(srv.URL, "sk_test", zap.NewNop())
}

// deadGateway answers every provider call with an error, for tests that
// must never reach the provider.
func deadGateway(t *testing.T) *payments.Gateway {
	t.Helper()
	return fakeGateway(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"status":"error","message":"provider should not be called"}`))
	})
}

func pendingChargeHandler(flwRef string, id int64) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"success","message":"Charge initiated","data":{"id":` +
			strconv.FormatInt(id, 10) + `,"tx_ref":"","flw_ref":"` + flwRef + `","status":"pending"}}`))
	}
}

func requireDecimalEqual(t *testing.T, want int64, got decimal.Decimal) {
	t.Helper()
	require.Truef(t, got.Equal(decimal.NewFromInt(want)),
		"expected %d, got %s", want, got.String())
}
