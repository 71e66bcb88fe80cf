package services

import (
	"context"
	"net/http"
	"testing"

	"github.com/food-bundles/food-bundles-bn-sub000/entity"
	"github.com/food-bundles/food-bundles-bn-sub000/payments"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testBilling = BillingIn{Name: "Owner", Email: "owner@example.com", Phone: "0781234567"}

// seedCheckoutFixture is the standard scenario: two products, a cart worth
// 3500 RWF and a wallet holding 5000.
func seedCheckoutFixture(t *testing.T, s *testStack) (*entity.User, *entity.Cart, *entity.Wallet, *entity.Product, *entity.Product) {
	t.Helper()
	u, r := s.seedRestaurant(t)
	tomatoes := s.seedProduct(t, "Tomatoes", 1000, 10)
	onions := s.seedProduct(t, "Onions", 500, 5)
	cart := s.seedCart(t, r.ID, cartLine{tomatoes, 3}, cartLine{onions, 1})
	w := s.seedWallet(t, r.ID, 5000)
	return u, cart, w, tomatoes, onions
}

func TestCreateCheckout_CashSettlesImmediately(t *testing.T) {
	s := newTestStack(t, deadGateway(t))
	u, cart, w, tomatoes, onions := seedCheckoutFixture(t, s)

	out, err := s.checkouts.CreateCheckout(context.Background(), u.ID, CreateCheckoutIn{
		CartID: cart.ID, Billing: testBilling, Method: payments.Cash{},
	})
	require.NoError(t, err)

	assert.Equal(t, entity.PaymentCompleted, out.PaymentStatus)
	requireDecimalEqual(t, 3500, out.Checkout.TotalAmount)
	require.NotNil(t, out.Checkout.OrderID)
	assert.NotNil(t, out.Checkout.PaidAt)

	requireDecimalEqual(t, 1500, s.walletBalance(t, w.ID))
	assert.Equal(t, 7, s.productStock(t, tomatoes.ID))
	assert.Equal(t, 4, s.productStock(t, onions.ID))

	got, err := s.cartRepo.GetWithItems(cart.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.CartCompleted, got.Status)

	order, err := s.orderRepo.GetOrder(*out.Checkout.OrderID)
	require.NoError(t, err)
	assert.Equal(t, entity.OrderPending, order.Status)
	requireDecimalEqual(t, 3500, order.TotalAmount)

	items, err := s.orderRepo.GetOrderItems(order.ID)
	require.NoError(t, err)
	require.Len(t, items, 2)

	// the debit is on the ledger under the checkout's tx ref
	txn, err := s.walletRepo.GetTransactionByReference(out.Checkout.TxRef)
	require.NoError(t, err)
	assert.Equal(t, entity.TxPayment, txn.Type)
	requireDecimalEqual(t, -3500, txn.Amount)
}

func TestCreateCheckout_CashInsufficientFunds(t *testing.T) {
	s := newTestStack(t, deadGateway(t))
	u, r := s.seedRestaurant(t)
	p := s.seedProduct(t, "Potatoes", 2000, 10)
	cart := s.seedCart(t, r.ID, cartLine{p, 3}) // 6000
	w := s.seedWallet(t, r.ID, 5000)

	_, err := s.checkouts.CreateCheckout(context.Background(), u.ID, CreateCheckoutIn{
		CartID: cart.ID, Billing: testBilling, Method: payments.Cash{},
	})
	assert.ErrorIs(t, err, ErrInsufficientFunds)

	// no partial settlement anywhere
	requireDecimalEqual(t, 5000, s.walletBalance(t, w.ID))
	assert.Equal(t, 10, s.productStock(t, p.ID))
	ch, err := s.checkoutRepo.GetByCartID(cart.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.PaymentPending, ch.PaymentStatus)
	assert.Nil(t, ch.OrderID)
}

func TestCreateCheckout_CashWithoutWallet(t *testing.T) {
	s := newTestStack(t, deadGateway(t))
	u, r := s.seedRestaurant(t)
	p := s.seedProduct(t, "Carrots", 300, 10)
	cart := s.seedCart(t, r.ID, cartLine{p, 1})

	_, err := s.checkouts.CreateCheckout(context.Background(), u.ID, CreateCheckoutIn{
		CartID: cart.ID, Billing: testBilling, Method: payments.Cash{},
	})
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Contains(t, ve.Msg, "no wallet")
}

func TestCreateCheckout_MobileMoneyGoesProcessing(t *testing.T) {
	s := newTestStack(t, fakeGateway(t, pendingChargeHandler("FLW-CHK-1", 50001)))
	u, cart, w, tomatoes, _ := seedCheckoutFixture(t, s)

	out, err := s.checkouts.CreateCheckout(context.Background(), u.ID, CreateCheckoutIn{
		CartID: cart.ID, Billing: testBilling, Method: payments.MobileMoney{Phone: "+250781234567"},
	})
	require.NoError(t, err)

	assert.Equal(t, entity.PaymentProcessing, out.PaymentStatus)
	assert.Equal(t, "FLW-CHK-1", out.Checkout.ProviderRef)
	assert.Nil(t, out.Checkout.OrderID)

	// nothing settles until the webhook
	requireDecimalEqual(t, 5000, s.walletBalance(t, w.ID))
	assert.Equal(t, 10, s.productStock(t, tomatoes.ID))
}

func TestCreateCheckout_CardRedirect(t *testing.T) {
	s := newTestStack(t, fakeGateway(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"success","message":"Charge initiated","data":{"id":50002,"tx_ref":"","flw_ref":"FLW-CARD-1","status":"pending","meta":{"authorization":{"mode":"redirect","redirect":"https://provider.test/3ds"}}}}`))
	}))
	u, cart, _, _, _ := seedCheckoutFixture(t, s)

	out, err := s.checkouts.CreateCheckout(context.Background(), u.ID, CreateCheckoutIn{
		CartID: cart.ID, Billing: testBilling,
		Method: payments.Card{Number: "4556052704172356", CVV: "899", ExpiryMonth: "01", ExpiryYear: "28"},
	})
	require.NoError(t, err)

	assert.Equal(t, entity.PaymentProcessing, out.PaymentStatus)
	assert.Equal(t, "https://provider.test/3ds", out.RedirectURL)
	assert.Nil(t, out.Checkout.OrderID)
}

func TestCreateCheckout_BankTransferDetails(t *testing.T) {
	s := newTestStack(t, fakeGateway(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"success","message":"Transfer initiated","data":{"id":50003,"tx_ref":"","flw_ref":"FLW-BT-1","status":"pending","meta":{"authorization":{"mode":"banktransfer","transfer_account":"7825397106","transfer_bank":"WEMA BANK","transfer_reference":"MockBTRef-1","transfer_note":"Pay to this account"}}}}`))
	}))
	u, cart, _, _, _ := seedCheckoutFixture(t, s)

	out, err := s.checkouts.CreateCheckout(context.Background(), u.ID, CreateCheckoutIn{
		CartID: cart.ID, Billing: testBilling, Method: payments.BankTransfer{},
	})
	require.NoError(t, err)

	assert.Equal(t, entity.PaymentProcessing, out.PaymentStatus)
	require.NotNil(t, out.Transfer)
	assert.Equal(t, "7825397106", out.Transfer.AccountNumber)
	assert.Equal(t, "WEMA BANK", out.Transfer.BankName)
	assert.False(t, out.Transfer.ExpiresAt.IsZero())
}

func TestCreateCheckout_ReusesExistingCheckout(t *testing.T) {
	s := newTestStack(t, fakeGateway(t, pendingChargeHandler("FLW-CHK-2", 50004)))
	u, cart, _, _, _ := seedCheckoutFixture(t, s)

	first, err := s.checkouts.CreateCheckout(context.Background(), u.ID, CreateCheckoutIn{
		CartID: cart.ID, Billing: testBilling, Method: payments.MobileMoney{Phone: "0781234567"},
	})
	require.NoError(t, err)

	second, err := s.checkouts.CreateCheckout(context.Background(), u.ID, CreateCheckoutIn{
		CartID: cart.ID, Billing: testBilling, Method: payments.MobileMoney{Phone: "0781234567"},
	})
	require.NoError(t, err)

	assert.Equal(t, first.Checkout.ID, second.Checkout.ID)
	assert.Equal(t, first.Checkout.TxRef, second.Checkout.TxRef)

	var count int64
	require.NoError(t, s.db.Model(&entity.Checkout{}).Where("cart_id = ?", cart.ID).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestCreateCheckout_Guards(t *testing.T) {
	s := newTestStack(t, deadGateway(t))
	u, r := s.seedRestaurant(t)
	s.seedWallet(t, r.ID, 100000)

	t.Run("missing cart", func(t *testing.T) {
		_, err := s.checkouts.CreateCheckout(context.Background(), u.ID, CreateCheckoutIn{
			CartID: 999, Billing: testBilling, Method: payments.Cash{},
		})
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("empty cart", func(t *testing.T) {
		cart := s.seedCart(t, r.ID)
		_, err := s.checkouts.CreateCheckout(context.Background(), u.ID, CreateCheckoutIn{
			CartID: cart.ID, Billing: testBilling, Method: payments.Cash{},
		})
		assert.ErrorIs(t, err, ErrCartEmpty)
	})

	t.Run("not the owner", func(t *testing.T) {
		p := s.seedProduct(t, "Beans", 800, 10)
		cart := s.seedCart(t, r.ID, cartLine{p, 1})
		stranger := entity.User{Email: "stranger@example.com", Role: "restaurant"}
		require.NoError(t, s.db.Create(&stranger).Error)

		_, err := s.checkouts.CreateCheckout(context.Background(), stranger.ID, CreateCheckoutIn{
			CartID: cart.ID, Billing: testBilling, Method: payments.Cash{},
		})
		assert.ErrorIs(t, err, ErrForbidden)
	})

	t.Run("stale stock", func(t *testing.T) {
		p := s.seedProduct(t, "Maize", 600, 2)
		cart := s.seedCart(t, r.ID, cartLine{p, 2})
		require.NoError(t, s.db.Model(p).Update("stock", 1).Error)

		_, err := s.checkouts.CreateCheckout(context.Background(), u.ID, CreateCheckoutIn{
			CartID: cart.ID, Billing: testBilling, Method: payments.Cash{},
		})
		var ve *ValidationError
		assert.ErrorAs(t, err, &ve)
	})

	t.Run("completed cart", func(t *testing.T) {
		p := s.seedProduct(t, "Rice", 1200, 10)
		cart := s.seedCart(t, r.ID, cartLine{p, 1})
		_, err := s.checkouts.CreateCheckout(context.Background(), u.ID, CreateCheckoutIn{
			CartID: cart.ID, Billing: testBilling, Method: payments.Cash{},
		})
		require.NoError(t, err)

		// the cart was consumed by the first settlement
		_, err = s.checkouts.CreateCheckout(context.Background(), u.ID, CreateCheckoutIn{
			CartID: cart.ID, Billing: testBilling, Method: payments.Cash{},
		})
		assert.ErrorIs(t, err, ErrCartNotActive)
	})
}

func TestProcessPayment_RejectsCompleted(t *testing.T) {
	s := newTestStack(t, deadGateway(t))
	u, cart, _, _, _ := seedCheckoutFixture(t, s)

	out, err := s.checkouts.CreateCheckout(context.Background(), u.ID, CreateCheckoutIn{
		CartID: cart.ID, Billing: testBilling, Method: payments.Cash{},
	})
	require.NoError(t, err)

	_, err = s.checkouts.ProcessPayment(context.Background(), u.ID, out.Checkout.ID, payments.Cash{})
	assert.ErrorIs(t, err, ErrAlreadyCompleted)
}

func TestProcessPayment_RetriesFailedCheckout(t *testing.T) {
	s := newTestStack(t, fakeGateway(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"status":"error","message":"momo timeout"}`))
	}))
	u, cart, w, _, _ := seedCheckoutFixture(t, s)

	out, err := s.checkouts.CreateCheckout(context.Background(), u.ID, CreateCheckoutIn{
		CartID: cart.ID, Billing: testBilling, Method: payments.MobileMoney{Phone: "0781234567"},
	})
	require.NoError(t, err)
	assert.Equal(t, entity.PaymentFailed, out.PaymentStatus)
	assert.Equal(t, "momo timeout", out.Checkout.FailureReason)

	// falling back to the wallet settles it
	retry, err := s.checkouts.ProcessPayment(context.Background(), u.ID, out.Checkout.ID, payments.Cash{})
	require.NoError(t, err)
	assert.Equal(t, entity.PaymentCompleted, retry.PaymentStatus)
	assert.Equal(t, entity.MethodCash, retry.Checkout.PaymentMethod)
	requireDecimalEqual(t, 1500, s.walletBalance(t, w.ID))
}

func TestVerifyPayment_CompletesFromProvider(t *testing.T) {
	var txRef string
	s := newTestStack(t, fakeGateway(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.Method == http.MethodPost {
			w.Write([]byte(`{"status":"success","message":"Charge initiated","data":{"id":50005,"tx_ref":"","flw_ref":"FLW-VER-1","status":"pending"}}`))
			return
		}
		w.Write([]byte(`{"status":"success","message":"verified","data":{"id":50005,"tx_ref":"` + txRef + `","flw_ref":"FLW-VER-1","status":"successful","amount":3500,"currency":"RWF"}}`))
	}))
	u, cart, _, tomatoes, _ := seedCheckoutFixture(t, s)

	out, err := s.checkouts.CreateCheckout(context.Background(), u.ID, CreateCheckoutIn{
		CartID: cart.ID, Billing: testBilling, Method: payments.MobileMoney{Phone: "0781234567"},
	})
	require.NoError(t, err)
	txRef = out.Checkout.TxRef

	verified, err := s.checkouts.VerifyPayment(context.Background(), u.ID, out.Checkout.ID, "FLW-VER-1")
	require.NoError(t, err)
	assert.Equal(t, entity.PaymentCompleted, verified.PaymentStatus)
	require.NotNil(t, verified.Checkout.OrderID)
	assert.Equal(t, 7, s.productStock(t, tomatoes.ID))
}

func TestVerifyPayment_RejectsForeignTransaction(t *testing.T) {
	s := newTestStack(t, fakeGateway(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.Method == http.MethodPost {
			w.Write([]byte(`{"status":"success","message":"Charge initiated","data":{"id":50006,"tx_ref":"","flw_ref":"FLW-VER-2","status":"pending"}}`))
			return
		}
		w.Write([]byte(`{"status":"success","message":"verified","data":{"id":99999,"tx_ref":"chk_somebody_else","flw_ref":"FLW-OTHER","status":"successful"}}`))
	}))
	u, cart, _, _, _ := seedCheckoutFixture(t, s)

	out, err := s.checkouts.CreateCheckout(context.Background(), u.ID, CreateCheckoutIn{
		CartID: cart.ID, Billing: testBilling, Method: payments.MobileMoney{Phone: "0781234567"},
	})
	require.NoError(t, err)

	_, err = s.checkouts.VerifyPayment(context.Background(), u.ID, out.Checkout.ID, "FLW-OTHER")
	var ve *ValidationError
	assert.ErrorAs(t, err, &ve)
}

// When stock is gone by the time a captured payment finalizes, the checkout
// stays COMPLETED and unlinked; money was taken and an operator has to step
// in, so the fault is surfaced rather than rolled back.
func TestFinalizePaid_StockRaceLeavesFault(t *testing.T) {
	s := newTestStack(t, fakeGateway(t, pendingChargeHandler("FLW-RACE-1", 50007)))
	u, cart, w, tomatoes, onions := seedCheckoutFixture(t, s)

	out, err := s.checkouts.CreateCheckout(context.Background(), u.ID, CreateCheckoutIn{
		CartID: cart.ID, Billing: testBilling, Method: payments.MobileMoney{Phone: "0781234567"},
	})
	require.NoError(t, err)

	// someone else takes the stock while the charge is in flight
	require.NoError(t, s.db.Model(&entity.Product{}).Where("id = ?", tomatoes.ID).Update("stock", 1).Error)

	err = s.checkouts.FinalizePaid(out.Checkout)
	var fault *ReconciliationFault
	require.ErrorAs(t, err, &fault)
	assert.Equal(t, out.Checkout.TxRef, fault.TxRef)

	ch, err := s.checkoutRepo.Get(out.Checkout.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.PaymentCompleted, ch.PaymentStatus)
	assert.Nil(t, ch.OrderID)

	// the aborted materialization took nothing
	assert.Equal(t, 1, s.productStock(t, tomatoes.ID))
	assert.Equal(t, 5, s.productStock(t, onions.ID))
	requireDecimalEqual(t, 5000, s.walletBalance(t, w.ID))
}

func TestFinalizePaid_DuplicateIsNoOp(t *testing.T) {
	s := newTestStack(t, deadGateway(t))
	u, cart, _, _, _ := seedCheckoutFixture(t, s)

	out, err := s.checkouts.CreateCheckout(context.Background(), u.ID, CreateCheckoutIn{
		CartID: cart.ID, Billing: testBilling, Method: payments.Cash{},
	})
	require.NoError(t, err)

	require.NoError(t, s.checkouts.FinalizePaid(out.Checkout))

	var orders int64
	require.NoError(t, s.db.Model(&entity.Order{}).Count(&orders).Error)
	assert.EqualValues(t, 1, orders)
}
