package services

import (
	"context"
	"errors"

	"github.com/food-bundles/food-bundles-bn-sub000/entity"
	"github.com/food-bundles/food-bundles-bn-sub000/payments"
	"github.com/food-bundles/food-bundles-bn-sub000/repository"
	"github.com/food-bundles/food-bundles-bn-sub000/utils"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// errAlreadyFinalized aborts a credit transaction when a concurrent writer
// finalized the same ledger row first; the rollback undoes the credit.
var errAlreadyFinalized = errors.New("transaction already finalized")

type WalletService struct {
	DB       *gorm.DB
	Repo     *repository.WalletRepository
	RestRepo *repository.RestaurantRepository
	Gateway  *payments.Gateway
	Events   EventPublisher
	Log      *zap.Logger
}

func NewWalletService(
	db *gorm.DB,
	repo *repository.WalletRepository,
	restRepo *repository.RestaurantRepository,
	gateway *payments.Gateway,
	events EventPublisher,
	log *zap.Logger,
) *WalletService {
	return &WalletService{DB: db, Repo: repo, RestRepo: restRepo, Gateway: gateway, Events: events, Log: log}
}

func (s *WalletService) CreateWallet(userID uint, currency string) (*entity.Wallet, error) {
	rest, err := s.RestRepo.GetByOwner(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	exists, err := s.Repo.Exists(rest.ID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrWalletExists
	}
	if currency == "" {
		currency = "RWF"
	}

	w := entity.Wallet{
		RestaurantID: rest.ID,
		Balance:      decimal.Zero,
		Currency:     currency,
		IsActive:     true,
	}
	if err := s.Repo.Create(&w); err != nil {
		return nil, err
	}
	return &w, nil
}

func (s *WalletService) MyWallet(userID uint) (*entity.Wallet, error) {
	rest, err := s.RestRepo.GetByOwner(userID)
	if err != nil {
		return nil, ErrNotFound
	}
	w, err := s.Repo.GetByRestaurant(rest.ID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	return w, err
}

func (s *WalletService) ListTransactions(userID uint, limit int) ([]entity.WalletTransaction, error) {
	w, err := s.MyWallet(userID)
	if err != nil {
		return nil, err
	}
	return s.Repo.ListTransactions(w.ID, limit)
}

type TopUpIn struct {
	Amount decimal.Decimal
	Email  string
	Name   string
	Method payments.Method
}

type TopUpOut struct {
	Transaction *entity.WalletTransaction `json:"transaction"`
	Result      *payments.ChargeResult    `json:"result"`
}

// TopUp persists a PENDING ledger row before touching the gateway, so a
// provider crash still leaves an auditable record. Only a synchronous
// success credits the balance here; pending results wait for the webhook.
func (s *WalletService) TopUp(ctx context.Context, userID uint, in TopUpIn) (*TopUpOut, error) {
	if !in.Amount.IsPositive() {
		return nil, Validationf("top-up amount must be greater than zero")
	}
	if in.Method == nil || in.Method.Kind() == payments.KindCash {
		return nil, Validationf("top-up requires a gateway payment method")
	}

	w, err := s.MyWallet(userID)
	if err != nil {
		return nil, err
	}
	if !w.IsActive {
		return nil, ErrWalletInactive
	}

	txn := entity.WalletTransaction{
		WalletID:    w.ID,
		Type:        entity.TxTopUp,
		Status:      entity.TxPending,
		Amount:      in.Amount,
		Reference:   utils.NewTxRef("tpu", w.ID),
		Description: "wallet top-up",
	}
	if err := s.Repo.CreateTransaction(s.DB, &txn); err != nil {
		return nil, err
	}

	res := s.Gateway.Charge(ctx, payments.ChargeRequest{
		TxRef:    txn.Reference,
		Amount:   in.Amount,
		Currency: w.Currency,
		Email:    in.Email,
		Name:     in.Name,
		Method:   in.Method,
	})

	switch res.Status {
	case payments.StatusSuccessful:
		if res.ProviderRef != "" {
			_ = s.Repo.SetTransactionProviderRef(s.DB, txn.ID, res.ProviderRef)
		}
		if err := s.CompleteTopUp(txn.ID, res.ProviderRef); err != nil {
			return nil, err
		}
	case payments.StatusPending:
		if res.ProviderRef != "" {
			_ = s.Repo.SetTransactionProviderRef(s.DB, txn.ID, res.ProviderRef)
		}
		if _, err := s.Repo.MarkProcessing(s.DB, txn.ID); err != nil {
			return nil, err
		}
	default:
		if _, err := s.Repo.FailTransaction(s.DB, txn.ID, res.Message); err != nil {
			return nil, err
		}
	}

	out, err := s.Repo.GetTransaction(txn.ID)
	if err != nil {
		return nil, err
	}
	return &TopUpOut{Transaction: out, Result: res}, nil
}

// CompleteTopUp applies the credit exactly once: the finalize guard inside
// the same transaction as the balance update makes a duplicate delivery a
// clean no-op.
func (s *WalletService) CompleteTopUp(txnID uint, providerRef string) error {
	txn, err := s.Repo.GetTransaction(txnID)
	if err != nil {
		return err
	}
	if txn.Status == entity.TxCompleted {
		return nil // duplicate webhook, nothing to do
	}
	if txn.Status == entity.TxFailed {
		return ErrInvalidTransition
	}

	err = s.DB.Transaction(func(tx *gorm.DB) error {
		affected, err := s.Repo.CreditBalance(tx, txn.WalletID, txn.Amount)
		if err != nil {
			return err
		}
		if affected == 0 {
			return ErrWalletInactive
		}

		w, err := s.Repo.GetTx(tx, txn.WalletID)
		if err != nil {
			return err
		}

		affected, err = s.Repo.FinalizeTransaction(tx, txn.ID, entity.TxCompleted,
			w.Balance.Sub(txn.Amount), w.Balance)
		if err != nil {
			return err
		}
		if affected == 0 {
			return errAlreadyFinalized
		}

		if providerRef != "" {
			return s.Repo.SetTransactionProviderRef(tx, txn.ID, providerRef)
		}
		return nil
	})
	if errors.Is(err, errAlreadyFinalized) {
		return nil
	}
	if err != nil {
		return err
	}

	s.Events.PublishPaymentEvent(PaymentEvent{
		Type:         "wallet.topup.completed",
		RestaurantID: s.restaurantOf(txn.WalletID),
		TxRef:        txn.Reference,
		Status:       string(entity.TxCompleted),
		Amount:       txn.Amount,
	})
	return nil
}

// FailTopUp finalizes a pending top-up as FAILED; terminal rows are left
// alone.
func (s *WalletService) FailTopUp(txnID uint, reason string) error {
	_, err := s.Repo.FailTransaction(s.DB, txnID, reason)
	return err
}

// Debit spends funds already confirmed on the ledger. Synchronous and
// terminal: the conditional balance update and the COMPLETED ledger row
// commit together or not at all.
func (s *WalletService) Debit(walletID uint, amount decimal.Decimal, reference, description string) (*entity.WalletTransaction, error) {
	if !amount.IsPositive() {
		return nil, Validationf("debit amount must be greater than zero")
	}

	var txn entity.WalletTransaction
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		affected, err := s.Repo.DebitBalance(tx, walletID, amount)
		if err != nil {
			return err
		}
		if affected == 0 {
			w, err := s.Repo.GetTx(tx, walletID)
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			if err != nil {
				return err
			}
			if !w.IsActive {
				return ErrWalletInactive
			}
			return ErrInsufficientFunds
		}

		w, err := s.Repo.GetTx(tx, walletID)
		if err != nil {
			return err
		}

		txn = entity.WalletTransaction{
			WalletID:        walletID,
			Type:            entity.TxPayment,
			Status:          entity.TxCompleted,
			Amount:          amount.Neg(),
			PreviousBalance: w.Balance.Add(amount),
			NewBalance:      w.Balance,
			Reference:       reference,
			Description:     description,
		}
		return s.Repo.CreateTransaction(tx, &txn)
	})
	if err != nil {
		return nil, err
	}
	return &txn, nil
}

// Refund is the symmetric credit, also synchronous and terminal.
func (s *WalletService) Refund(walletID uint, amount decimal.Decimal, reference, description string) (*entity.WalletTransaction, error) {
	if !amount.IsPositive() {
		return nil, Validationf("refund amount must be greater than zero")
	}

	var txn entity.WalletTransaction
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		affected, err := s.Repo.CreditBalance(tx, walletID, amount)
		if err != nil {
			return err
		}
		if affected == 0 {
			if _, err := s.Repo.GetTx(tx, walletID); errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return ErrWalletInactive
		}

		w, err := s.Repo.GetTx(tx, walletID)
		if err != nil {
			return err
		}

		txn = entity.WalletTransaction{
			WalletID:        walletID,
			Type:            entity.TxRefund,
			Status:          entity.TxCompleted,
			Amount:          amount,
			PreviousBalance: w.Balance.Sub(amount),
			NewBalance:      w.Balance,
			Reference:       reference,
			Description:     description,
		}
		return s.Repo.CreateTransaction(tx, &txn)
	})
	if err != nil {
		return nil, err
	}
	return &txn, nil
}

// Adjust is the admin credit/debit escape hatch; it rides the same ledger
// paths so the balance invariant holds.
func (s *WalletService) Adjust(walletID uint, amount decimal.Decimal, credit bool, reason string) (*entity.WalletTransaction, error) {
	ref := utils.NewTxRef("adj", walletID)
	if credit {
		return s.Refund(walletID, amount, ref, "admin adjustment: "+reason)
	}
	return s.Debit(walletID, amount, ref, "admin adjustment: "+reason)
}

// VerifyTopUp polls the provider as a fallback to webhooks and applies the
// outcome through the same idempotent completion path.
func (s *WalletService) VerifyTopUp(ctx context.Context, userID uint, reference string) (*entity.WalletTransaction, error) {
	w, err := s.MyWallet(userID)
	if err != nil {
		return nil, err
	}

	txn, err := s.Repo.GetTransactionByReference(reference)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if txn.WalletID != w.ID {
		return nil, ErrForbidden
	}
	if txn.Status == entity.TxCompleted || txn.Status == entity.TxFailed {
		return txn, nil
	}
	if txn.ProviderRef == "" {
		return txn, nil // nothing to verify against yet
	}

	res, err := s.Gateway.Verify(ctx, txn.ProviderRef)
	if err != nil {
		return nil, err
	}
	switch res.Status {
	case payments.StatusSuccessful:
		if err := s.CompleteTopUp(txn.ID, res.ProviderRef); err != nil {
			return nil, err
		}
	case payments.StatusFailed:
		if err := s.FailTopUp(txn.ID, "provider reported failure on verification"); err != nil {
			return nil, err
		}
	}
	return s.Repo.GetTransaction(txn.ID)
}

func (s *WalletService) restaurantOf(walletID uint) uint {
	w, err := s.Repo.Get(walletID)
	if err != nil {
		return 0
	}
	return w.RestaurantID
}
