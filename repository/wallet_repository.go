package repository

import (
	"github.com/food-bundles/food-bundles-bn-sub000/entity"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type WalletRepository struct{ DB *gorm.DB }

func NewWalletRepository(db *gorm.DB) *WalletRepository {
	return &WalletRepository{DB: db}
}

func (r *WalletRepository) Create(w *entity.Wallet) error {
	return r.DB.Create(w).Error
}

func (r *WalletRepository) Get(walletID uint) (*entity.Wallet, error) {
	var w entity.Wallet
	err := withRetry(func() error {
		return r.DB.First(&w, walletID).Error
	})
	if err != nil {
		return nil, err
	}
	return &w, nil
}

func (r *WalletRepository) GetTx(tx *gorm.DB, walletID uint) (*entity.Wallet, error) {
	var w entity.Wallet
	if err := tx.First(&w, walletID).Error; err != nil {
		return nil, err
	}
	return &w, nil
}

func (r *WalletRepository) GetByRestaurant(restaurantID uint) (*entity.Wallet, error) {
	var w entity.Wallet
	err := withRetry(func() error {
		return r.DB.Where("restaurant_id = ?", restaurantID).First(&w).Error
	})
	if err != nil {
		return nil, err
	}
	return &w, nil
}

func (r *WalletRepository) Exists(restaurantID uint) (bool, error) {
	var count int64
	err := r.DB.Model(&entity.Wallet{}).
		Where("restaurant_id = ?", restaurantID).
		Count(&count).Error
	return count > 0, err
}

// CreditBalance adds to an active wallet's balance atomically with respect
// to concurrent writers; affected==0 means missing or inactive wallet.
func (r *WalletRepository) CreditBalance(tx *gorm.DB, walletID uint, amount decimal.Decimal) (int64, error) {
	res := tx.Model(&entity.Wallet{}).
		Where("id = ? AND is_active = ?", walletID, true).
		Update("balance", gorm.Expr("balance + ?", amount))
	return res.RowsAffected, res.Error
}

// DebitBalance spends confirmed funds; the balance guard makes overdraft
// impossible no matter how requests interleave.
func (r *WalletRepository) DebitBalance(tx *gorm.DB, walletID uint, amount decimal.Decimal) (int64, error) {
	res := tx.Model(&entity.Wallet{}).
		Where("id = ? AND is_active = ? AND balance >= ?", walletID, true, amount).
		Update("balance", gorm.Expr("balance - ?", amount))
	return res.RowsAffected, res.Error
}

// ---------------- ledger rows ----------------

func (r *WalletRepository) CreateTransaction(tx *gorm.DB, t *entity.WalletTransaction) error {
	return tx.Create(t).Error
}

func (r *WalletRepository) GetTransaction(txnID uint) (*entity.WalletTransaction, error) {
	var t entity.WalletTransaction
	err := withRetry(func() error {
		return r.DB.First(&t, txnID).Error
	})
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *WalletRepository) GetTransactionByReference(ref string) (*entity.WalletTransaction, error) {
	var t entity.WalletTransaction
	err := withRetry(func() error {
		return r.DB.Where("reference = ?", ref).First(&t).Error
	})
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *WalletRepository) GetTransactionByProviderRef(ref string) (*entity.WalletTransaction, error) {
	var t entity.WalletTransaction
	err := withRetry(func() error {
		return r.DB.Where("provider_ref = ?", ref).First(&t).Error
	})
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// FinalizeTransaction is the single allowed mutation of a ledger row: the
// move out of PENDING/PROCESSING into a terminal status, recording the
// balances it observed. affected==0 means another writer already finalized.
func (r *WalletRepository) FinalizeTransaction(tx *gorm.DB, txnID uint, to entity.TransactionStatus, prev, next decimal.Decimal) (int64, error) {
	res := tx.Model(&entity.WalletTransaction{}).
		Where("id = ? AND status IN ?", txnID,
			[]entity.TransactionStatus{entity.TxPending, entity.TxProcessing}).
		Updates(map[string]any{
			"status":           to,
			"previous_balance": prev,
			"new_balance":      next,
		})
	return res.RowsAffected, res.Error
}

// FailTransaction abandons a non-terminal ledger row without touching
// balances.
func (r *WalletRepository) FailTransaction(tx *gorm.DB, txnID uint, reason string) (int64, error) {
	res := tx.Model(&entity.WalletTransaction{}).
		Where("id = ? AND status IN ?", txnID,
			[]entity.TransactionStatus{entity.TxPending, entity.TxProcessing}).
		Updates(map[string]any{
			"status":      entity.TxFailed,
			"description": reason,
		})
	return res.RowsAffected, res.Error
}

// MarkProcessing moves a PENDING row forward once the provider accepts the
// charge.
func (r *WalletRepository) MarkProcessing(tx *gorm.DB, txnID uint) (int64, error) {
	res := tx.Model(&entity.WalletTransaction{}).
		Where("id = ? AND status = ?", txnID, entity.TxPending).
		Update("status", entity.TxProcessing)
	return res.RowsAffected, res.Error
}

func (r *WalletRepository) SetTransactionProviderRef(tx *gorm.DB, txnID uint, providerRef string) error {
	return tx.Model(&entity.WalletTransaction{}).
		Where("id = ?", txnID).
		Update("provider_ref", providerRef).Error
}

func (r *WalletRepository) ListTransactions(walletID uint, limit int) ([]entity.WalletTransaction, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	var out []entity.WalletTransaction
	err := withRetry(func() error {
		return r.DB.Where("wallet_id = ?", walletID).
			Order("id DESC").Limit(limit).
			Find(&out).Error
	})
	return out, err
}

// SumCompleted re-derives the balance from the ledger, used by audits and
// tests to check the balance invariant.
func (r *WalletRepository) SumCompleted(walletID uint) (decimal.Decimal, error) {
	var sum decimal.Decimal
	err := r.DB.Model(&entity.WalletTransaction{}).
		Select("COALESCE(SUM(amount), 0)").
		Where("wallet_id = ? AND status = ?", walletID, entity.TxCompleted).
		Scan(&sum).Error
	return sum, err
}
