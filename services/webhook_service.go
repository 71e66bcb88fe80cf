package services

import (
	"errors"
	"strconv"

	"github.com/food-bundles/food-bundles-bn-sub000/entity"
	"github.com/food-bundles/food-bundles-bn-sub000/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// WebhookEvent is the normalized provider callback. Different providers
// echo different fields back, so all three identifiers are carried.
type WebhookEvent struct {
	TxRef       string `json:"txRef"`
	ProviderRef string `json:"flwRef"`
	RecordID    int64  `json:"id"`
	Status      string `json:"status"`
	EventType   string `json:"event,omitempty"`
}

func successStatus(s string) bool {
	switch s {
	case "successful", "success", "completed":
		return true
	}
	return false
}

func failureStatus(s string) bool {
	switch s {
	case "failed", "error", "cancelled":
		return true
	}
	return false
}

type WebhookService struct {
	CheckoutRepo *repository.CheckoutRepository
	WalletRepo   *repository.WalletRepository
	Checkouts    *CheckoutService
	Wallets      *WalletService
	Log          *zap.Logger
}

func NewWebhookService(
	checkoutRepo *repository.CheckoutRepository,
	walletRepo *repository.WalletRepository,
	checkouts *CheckoutService,
	wallets *WalletService,
	log *zap.Logger,
) *WebhookService {
	return &WebhookService{
		CheckoutRepo: checkoutRepo, WalletRepo: walletRepo,
		Checkouts: checkouts, Wallets: wallets, Log: log,
	}
}

type matched struct {
	checkout *entity.Checkout
	txn      *entity.WalletTransaction
}

type lookupStrategy struct {
	name string
	find func(evt WebhookEvent) (*matched, error)
}

// Ordered lookup: checkout by our tx ref, wallet row by our tx ref, then the
// provider-side aliases. Which strategy matched is logged so reconciliation
// problems stay diagnosable.
func (s *WebhookService) strategies() []lookupStrategy {
	return []lookupStrategy{
		{"checkout_tx_ref", func(evt WebhookEvent) (*matched, error) {
			if evt.TxRef == "" {
				return nil, gorm.ErrRecordNotFound
			}
			ch, err := s.CheckoutRepo.GetByTxRef(evt.TxRef)
			if err != nil {
				return nil, err
			}
			return &matched{checkout: ch}, nil
		}},
		{"wallet_reference", func(evt WebhookEvent) (*matched, error) {
			if evt.TxRef == "" {
				return nil, gorm.ErrRecordNotFound
			}
			t, err := s.WalletRepo.GetTransactionByReference(evt.TxRef)
			if err != nil {
				return nil, err
			}
			return &matched{txn: t}, nil
		}},
		{"checkout_provider_ref", func(evt WebhookEvent) (*matched, error) {
			if evt.ProviderRef == "" {
				return nil, gorm.ErrRecordNotFound
			}
			ch, err := s.CheckoutRepo.GetByProviderRef(evt.ProviderRef)
			if err != nil {
				return nil, err
			}
			return &matched{checkout: ch}, nil
		}},
		{"wallet_provider_ref", func(evt WebhookEvent) (*matched, error) {
			if evt.ProviderRef == "" {
				return nil, gorm.ErrRecordNotFound
			}
			t, err := s.WalletRepo.GetTransactionByProviderRef(evt.ProviderRef)
			if err != nil {
				return nil, err
			}
			return &matched{txn: t}, nil
		}},
		{"provider_record_id", func(evt WebhookEvent) (*matched, error) {
			if evt.RecordID == 0 {
				return nil, gorm.ErrRecordNotFound
			}
			ref := strconv.FormatInt(evt.RecordID, 10)
			if ch, err := s.CheckoutRepo.GetByProviderRef(ref); err == nil {
				return &matched{checkout: ch}, nil
			}
			t, err := s.WalletRepo.GetTransactionByProviderRef(ref)
			if err != nil {
				return nil, err
			}
			return &matched{txn: t}, nil
		}},
	}
}

// ProcessEvent applies a provider callback to whichever entity the
// reference belongs to. Delivery is at-least-once and may race the
// synchronous response, so everything downstream is idempotent; an unknown
// reference is logged as a reconciliation fault but reported as handled so
// the provider stops retrying.
func (s *WebhookService) ProcessEvent(evt WebhookEvent) error {
	var m *matched
	var via string
	for _, st := range s.strategies() {
		found, err := st.find(evt)
		if err == nil {
			m, via = found, st.name
			break
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
	}

	if m == nil {
		fault := &ReconciliationFault{Reason: "webhook references unknown transaction", TxRef: evt.TxRef}
		s.Log.Error("unmatched webhook",
			zap.String("txRef", evt.TxRef),
			zap.String("providerRef", evt.ProviderRef),
			zap.Int64("recordId", evt.RecordID),
			zap.String("fault", fault.Error()))
		return nil
	}

	s.Log.Info("webhook matched",
		zap.String("strategy", via),
		zap.String("txRef", evt.TxRef),
		zap.String("status", evt.Status))

	if m.checkout != nil {
		return s.applyToCheckout(m.checkout, evt)
	}
	return s.applyToWalletTxn(m.txn, evt)
}

func (s *WebhookService) applyToCheckout(ch *entity.Checkout, evt WebhookEvent) error {
	switch {
	case successStatus(evt.Status):
		if ch.ProviderRef == "" && evt.ProviderRef != "" {
			_ = s.CheckoutRepo.SetProviderRef(s.Checkouts.DB, ch.ID, evt.ProviderRef)
		}
		return s.Checkouts.FinalizePaid(ch)
	case failureStatus(evt.Status):
		return s.Checkouts.MarkFailed(ch, "provider webhook reported "+evt.Status)
	default:
		s.Log.Info("ignoring webhook with non-terminal status",
			zap.String("txRef", evt.TxRef), zap.String("status", evt.Status))
		return nil
	}
}

func (s *WebhookService) applyToWalletTxn(txn *entity.WalletTransaction, evt WebhookEvent) error {
	switch {
	case successStatus(evt.Status):
		return s.Wallets.CompleteTopUp(txn.ID, evt.ProviderRef)
	case failureStatus(evt.Status):
		return s.Wallets.FailTopUp(txn.ID, "provider webhook reported "+evt.Status)
	default:
		s.Log.Info("ignoring webhook with non-terminal status",
			zap.String("reference", txn.Reference), zap.String("status", evt.Status))
		return nil
	}
}
