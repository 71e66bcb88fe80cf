package services

import (
	"context"
	"errors"

	"github.com/food-bundles/food-bundles-bn-sub000/entity"
	"github.com/food-bundles/food-bundles-bn-sub000/payments"
	"github.com/food-bundles/food-bundles-bn-sub000/repository"
	"github.com/food-bundles/food-bundles-bn-sub000/utils"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type CheckoutService struct {
	DB          *gorm.DB
	Repo        *repository.CheckoutRepository
	CartRepo    *repository.CartRepository
	ProductRepo *repository.ProductRepository
	RestRepo    *repository.RestaurantRepository
	WalletRepo  *repository.WalletRepository
	Wallets     *WalletService
	Orders      *OrderService
	Gateway     *payments.Gateway
	Events      EventPublisher
	Log         *zap.Logger
}

func NewCheckoutService(
	db *gorm.DB,
	repo *repository.CheckoutRepository,
	cartRepo *repository.CartRepository,
	productRepo *repository.ProductRepository,
	restRepo *repository.RestaurantRepository,
	walletRepo *repository.WalletRepository,
	wallets *WalletService,
	orders *OrderService,
	gateway *payments.Gateway,
	events EventPublisher,
	log *zap.Logger,
) *CheckoutService {
	return &CheckoutService{
		DB: db, Repo: repo, CartRepo: cartRepo, ProductRepo: productRepo,
		RestRepo: restRepo, WalletRepo: walletRepo, Wallets: wallets,
		Orders: orders, Gateway: gateway, Events: events, Log: log,
	}
}

type BillingIn struct {
	Name  string `json:"name" binding:"required"`
	Email string `json:"email" binding:"required,email"`
	Phone string `json:"phone"`
}

type CreateCheckoutIn struct {
	CartID  uint
	Billing BillingIn
	Method  payments.Method
}

// CheckoutOut is what the caller gets back: the checkout plus whatever the
// chosen method needs next (redirect, transfer account, or nothing).
type CheckoutOut struct {
	Checkout      *entity.Checkout          `json:"checkout"`
	TransactionID string                    `json:"transactionId"`
	PaymentStatus entity.PaymentStatus      `json:"paymentStatus"`
	RedirectURL   string                    `json:"redirectUrl,omitempty"`
	Transfer      *payments.TransferDetails `json:"transferDetails,omitempty"`
	Message       string                    `json:"message,omitempty"`
}

// CreateCheckout converts an active cart into a checkout and immediately
// drives payment. Re-entry for the same cart updates the existing checkout
// instead of duplicating it.
func (s *CheckoutService) CreateCheckout(ctx context.Context, userID uint, in CreateCheckoutIn) (*CheckoutOut, error) {
	cart, err := s.CartRepo.GetWithItems(in.CartID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if cart.Status != entity.CartActive {
		return nil, ErrCartNotActive
	}
	if len(cart.Items) == 0 {
		return nil, ErrCartEmpty
	}

	ok, err := s.RestRepo.IsOwnedBy(cart.RestaurantID, userID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrForbidden
	}

	// Never trust stock state from cart creation time.
	if err := s.revalidateItems(cart); err != nil {
		return nil, err
	}

	ch, err := s.Repo.GetByCartID(cart.ID)
	switch {
	case err == nil:
		if ch.PaymentStatus == entity.PaymentCompleted {
			return nil, ErrAlreadyCompleted
		}
		ch.BillingName = in.Billing.Name
		ch.BillingEmail = in.Billing.Email
		ch.BillingPhone = in.Billing.Phone
		ch.PaymentMethod = methodOf(in.Method)
		ch.TotalAmount = cart.TotalAmount
		if err := s.Repo.Save(s.DB, ch); err != nil {
			return nil, err
		}
	case errors.Is(err, gorm.ErrRecordNotFound):
		ch = &entity.Checkout{
			CartID:        cart.ID,
			RestaurantID:  cart.RestaurantID,
			BillingName:   in.Billing.Name,
			BillingEmail:  in.Billing.Email,
			BillingPhone:  in.Billing.Phone,
			PaymentMethod: methodOf(in.Method),
			PaymentStatus: entity.PaymentPending,
			TotalAmount:   cart.TotalAmount,
			TxRef:         utils.NewTxRef("chk", cart.ID),
		}
		if err := s.Repo.Create(s.DB, ch); err != nil {
			return nil, err
		}
	default:
		return nil, err
	}

	return s.initiatePayment(ctx, ch, in.Method)
}

// ProcessPayment retries or supplies payment for an existing checkout.
func (s *CheckoutService) ProcessPayment(ctx context.Context, userID, checkoutID uint, method payments.Method) (*CheckoutOut, error) {
	ch, err := s.loadOwned(userID, checkoutID)
	if err != nil {
		return nil, err
	}
	if ch.PaymentStatus == entity.PaymentCompleted {
		return nil, ErrAlreadyCompleted
	}

	cart, err := s.CartRepo.GetWithItems(ch.CartID)
	if err != nil {
		return nil, err
	}
	if err := s.revalidateItems(cart); err != nil {
		return nil, err
	}

	ch.PaymentMethod = methodOf(method)
	if err := s.Repo.Save(s.DB, ch); err != nil {
		return nil, err
	}
	return s.initiatePayment(ctx, ch, method)
}

// VerifyPayment polls the provider for the checkout's transaction, a manual
// fallback when a webhook never arrived.
func (s *CheckoutService) VerifyPayment(ctx context.Context, userID, checkoutID uint, transactionID string) (*CheckoutOut, error) {
	ch, err := s.loadOwned(userID, checkoutID)
	if err != nil {
		return nil, err
	}
	if ch.PaymentStatus == entity.PaymentCompleted {
		return s.resultFor(ch, "payment already completed"), nil
	}
	if transactionID == "" {
		transactionID = ch.ProviderRef
	}
	if transactionID == "" {
		return nil, Validationf("transactionId is required")
	}

	res, err := s.Gateway.Verify(ctx, transactionID)
	if err != nil {
		return nil, err
	}
	if res.TxRef != "" && res.TxRef != ch.TxRef {
		return nil, Validationf("transaction does not belong to this checkout")
	}

	switch res.Status {
	case payments.StatusSuccessful:
		if err := s.FinalizePaid(ch); err != nil {
			return nil, err
		}
	case payments.StatusFailed:
		if err := s.MarkFailed(ch, "provider reported failure on verification"); err != nil {
			return nil, err
		}
	}

	ch, err = s.Repo.Get(ch.ID)
	if err != nil {
		return nil, err
	}
	return s.resultFor(ch, ""), nil
}

// ----- internals -----

func (s *CheckoutService) loadOwned(userID, checkoutID uint) (*entity.Checkout, error) {
	ch, err := s.Repo.Get(checkoutID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	ok, err := s.RestRepo.IsOwnedBy(ch.RestaurantID, userID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrForbidden
	}
	return ch, nil
}

func (s *CheckoutService) revalidateItems(cart *entity.Cart) error {
	for _, it := range cart.Items {
		p, err := s.ProductRepo.Get(it.ProductID)
		if err != nil {
			return Validationf("product %d no longer exists", it.ProductID)
		}
		if p.Status != entity.ProductActive {
			return Validationf("product %q is not available", p.Name)
		}
		if p.Stock < it.Qty {
			return Validationf("product %q has only %d in stock", p.Name, p.Stock)
		}
	}
	return nil
}

func (s *CheckoutService) initiatePayment(ctx context.Context, ch *entity.Checkout, method payments.Method) (*CheckoutOut, error) {
	if method == nil {
		return s.resultFor(ch, "checkout created, awaiting payment"), nil
	}

	if method.Kind() == payments.KindCash {
		return s.payFromWallet(ch)
	}

	// Gateway-backed methods move to PROCESSING first; FAILED re-enters here
	// on retry.
	affected, err := s.Repo.UpdateStatusGuard(s.DB, ch.ID,
		[]entity.PaymentStatus{entity.PaymentPending, entity.PaymentFailed},
		entity.PaymentProcessing)
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		fresh, err := s.Repo.Get(ch.ID)
		if err != nil {
			return nil, err
		}
		if fresh.PaymentStatus == entity.PaymentCompleted {
			return nil, ErrAlreadyCompleted
		}
		// already PROCESSING: a re-drive of a pending charge is allowed
	}

	res := s.Gateway.Charge(ctx, payments.ChargeRequest{
		TxRef:    ch.TxRef,
		Amount:   ch.TotalAmount,
		Currency: "RWF",
		Email:    ch.BillingEmail,
		Name:     ch.BillingName,
		Method:   method,
	})

	if res.ProviderRef != "" {
		if err := s.Repo.SetProviderRef(s.DB, ch.ID, res.ProviderRef); err != nil {
			return nil, err
		}
	}

	switch res.Status {
	case payments.StatusSuccessful:
		if err := s.FinalizePaid(ch); err != nil {
			return nil, err
		}
	case payments.StatusFailed:
		if err := s.MarkFailed(ch, res.Message); err != nil {
			return nil, err
		}
	}

	ch, err = s.Repo.Get(ch.ID)
	if err != nil {
		return nil, err
	}

	out := s.resultFor(ch, res.Message)
	out.RedirectURL = res.RedirectURL
	out.Transfer = res.Transfer
	return out, nil
}

// payFromWallet settles a CASH checkout against the restaurant's prepaid
// wallet: a synchronous debit, then the usual completion path. A failed
// debit leaves the checkout untouched.
func (s *CheckoutService) payFromWallet(ch *entity.Checkout) (*CheckoutOut, error) {
	w, err := s.WalletRepo.GetByRestaurant(ch.RestaurantID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, Validationf("restaurant has no wallet")
		}
		return nil, err
	}

	if _, err := s.Wallets.Debit(w.ID, ch.TotalAmount, ch.TxRef, "checkout payment"); err != nil {
		return nil, err
	}

	if err := s.FinalizePaid(ch); err != nil {
		return nil, err
	}

	ch, err = s.Repo.Get(ch.ID)
	if err != nil {
		return nil, err
	}
	return s.resultFor(ch, "paid from wallet"), nil
}

// FinalizePaid flips the checkout to COMPLETED and materializes the order
// in the same logical operation. The flip commits before materialization:
// if the stock race loses, money is already captured, so the checkout is
// deliberately left COMPLETED and unlinked and the fault escalated instead
// of rolled back. FAILED is re-completable: a retry or a late success
// webhook means the provider did capture, and the provider wins.
func (s *CheckoutService) FinalizePaid(ch *entity.Checkout) error {
	affected, err := s.Repo.UpdateStatusGuard(s.DB, ch.ID,
		[]entity.PaymentStatus{entity.PaymentPending, entity.PaymentProcessing, entity.PaymentFailed},
		entity.PaymentCompleted)
	if err != nil {
		return err
	}
	if affected == 0 {
		fresh, err := s.Repo.Get(ch.ID)
		if err != nil {
			return err
		}
		if fresh.PaymentStatus == entity.PaymentCompleted {
			return nil // duplicate finalization, already settled
		}
		return ErrInvalidTransition
	}

	fresh, err := s.Repo.Get(ch.ID)
	if err != nil {
		return err
	}

	order, err := s.Orders.Materialize(fresh)
	if err != nil {
		fault := &ReconciliationFault{Reason: "paid checkout could not be materialized", TxRef: fresh.TxRef, Err: err}
		s.Log.Error("order materialization failed after payment capture",
			zap.Uint("checkoutId", fresh.ID),
			zap.String("txRef", fresh.TxRef),
			zap.Error(err))
		return fault
	}

	s.Events.PublishPaymentEvent(PaymentEvent{
		Type:         "checkout.completed",
		RestaurantID: fresh.RestaurantID,
		TxRef:        fresh.TxRef,
		Status:       string(entity.PaymentCompleted),
		Amount:       fresh.TotalAmount,
		OrderID:      &order.ID,
	})
	return nil
}

// MarkFailed persists a gateway failure onto the checkout so stored state
// never lags what the caller saw. COMPLETED rows are left alone.
func (s *CheckoutService) MarkFailed(ch *entity.Checkout, reason string) error {
	affected, err := s.Repo.UpdateStatusGuard(s.DB, ch.ID,
		[]entity.PaymentStatus{entity.PaymentPending, entity.PaymentProcessing},
		entity.PaymentFailed)
	if err != nil {
		return err
	}
	if affected > 0 && reason != "" {
		if err := s.DB.Model(&entity.Checkout{}).
			Where("id = ?", ch.ID).
			Update("failure_reason", reason).Error; err != nil {
			return err
		}
		s.Events.PublishPaymentEvent(PaymentEvent{
			Type:         "checkout.failed",
			RestaurantID: ch.RestaurantID,
			TxRef:        ch.TxRef,
			Status:       string(entity.PaymentFailed),
			Amount:       ch.TotalAmount,
		})
	}
	return nil
}

func (s *CheckoutService) resultFor(ch *entity.Checkout, msg string) *CheckoutOut {
	return &CheckoutOut{
		Checkout:      ch,
		TransactionID: ch.TxRef,
		PaymentStatus: ch.PaymentStatus,
		Message:       msg,
	}
}

func methodOf(m payments.Method) entity.PaymentMethod {
	if m == nil {
		return entity.MethodMobileMoney
	}
	switch m.Kind() {
	case payments.KindCard:
		return entity.MethodCard
	case payments.KindBankTransfer:
		return entity.MethodBankTransfer
	case payments.KindCash:
		return entity.MethodCash
	default:
		return entity.MethodMobileMoney
	}
}
