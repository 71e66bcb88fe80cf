package entity

import (
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type TransactionType string

const (
	TxTopUp   TransactionType = "TOP_UP"
	TxPayment TransactionType = "PAYMENT"
	TxRefund  TransactionType = "REFUND"
)

type TransactionStatus string

const (
	TxPending    TransactionStatus = "PENDING"
	TxProcessing TransactionStatus = "PROCESSING"
	TxCompleted  TransactionStatus = "COMPLETED"
	TxFailed     TransactionStatus = "FAILED"
)

// WalletTransaction is an append-only ledger row. Rows are never mutated
// except for the single finalizing update out of PENDING/PROCESSING.
// Amount is signed: credits positive, debits negative.
type WalletTransaction struct {
	gorm.Model
	WalletID uint   `gorm:"index;not null" json:"walletId"`
	Wallet   Wallet `json:"-"`

	Type   TransactionType   `gorm:"size:20;not null" json:"type"`
	Status TransactionStatus `gorm:"size:20;not null;default:PENDING" json:"status"`

	Amount          decimal.Decimal `gorm:"type:decimal(20,2);not null" json:"amount"`
	PreviousBalance decimal.Decimal `gorm:"type:decimal(20,2)" json:"previousBalance"`
	NewBalance      decimal.Decimal `gorm:"type:decimal(20,2)" json:"newBalance"`

	Reference   string `gorm:"uniqueIndex;not null" json:"reference"` // our tx ref
	ProviderRef string `gorm:"index" json:"providerRef"`              // gateway-side id
	Description string `json:"description"`
}
