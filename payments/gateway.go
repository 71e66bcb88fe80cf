package payments

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	StatusSuccessful = "successful"
	StatusPending    = "pending"
	StatusFailed     = "failed"
)

type ChargeRequest struct {
	TxRef    string
	Amount   decimal.Decimal
	Currency string
	Email    string
	Name     string
	Method   Method
}

type TransferDetails struct {
	AccountNumber string    `json:"accountNumber"`
	BankName      string    `json:"bankName"`
	Reference     string    `json:"reference"`
	Note          string    `json:"note,omitempty"`
	ExpiresAt     time.Time `json:"expiresAt"`
}

// ChargeResult is the uniform shape every provider operation is translated
// into. Callers persist Status onto the owning checkout or wallet transaction.
type ChargeResult struct {
	Success     bool             `json:"success"`
	Status      string           `json:"status"` // successful | pending | failed
	Message     string           `json:"message,omitempty"`
	ProviderRef string           `json:"providerRef,omitempty"`
	ProviderID  int64            `json:"providerId,omitempty"`
	AuthMode    string           `json:"authMode,omitempty"` // pin | redirect | otp
	RedirectURL string           `json:"redirectUrl,omitempty"`
	Transfer    *TransferDetails `json:"transferDetails,omitempty"`
}

type VerifyResult struct {
	Status      string          `json:"status"`
	TxRef       string          `json:"txRef"`
	ProviderRef string          `json:"providerRef"`
	Amount      decimal.Decimal `json:"amount"`
	Currency    string          `json:"currency"`
}

type charger interface {
	charge(ctx context.Context, c *client, req ChargeRequest) (*ChargeResult, error)
}

// Gateway is the single capability surface over the provider. One charger
// per method kind; Cash never registers one.
type Gateway struct {
	client   *client
	chargers map[Kind]charger
	log      *zap.Logger
}

func NewGateway(baseURL, secretKey string, log *zap.Logger) *Gateway {
	return &Gateway{
		client: newClient(baseURL, secretKey),
		chargers: map[Kind]charger{
			KindMobileMoney:  mobileMoneyCharger{},
			KindCard:         cardCharger{},
			KindBankTransfer: bankTransferCharger{},
		},
		log: log,
	}
}

// Charge never surfaces a raw provider error: failures come back classified
// as {success:false, status:failed, message}.
func (g *Gateway) Charge(ctx context.Context, req ChargeRequest) *ChargeResult {
	h, ok := g.chargers[req.Method.Kind()]
	if !ok {
		return failed(fmt.Sprintf("payment method %s is not gateway-backed", req.Method.Kind()))
	}

	res, err := h.charge(ctx, g.client, req)
	if err != nil {
		g.log.Warn("gateway charge failed",
			zap.String("txRef", req.TxRef),
			zap.String("method", string(req.Method.Kind())),
			zap.Error(err))
		return failed(err.Error())
	}
	return res
}

// Verify polls the provider for a transaction's final status, used by the
// manual verification endpoints as a fallback to webhooks.
func (g *Gateway) Verify(ctx context.Context, providerID string) (*VerifyResult, error) {
	pr, err := g.client.get(ctx, fmt.Sprintf("/transactions/%s/verify", providerID))
	if err != nil {
		return nil, err
	}
	d, err := pr.charge()
	if err != nil {
		return nil, err
	}

	var amount struct {
		Amount   decimal.Decimal `json:"amount"`
		Currency string          `json:"currency"`
	}
	// amount fields live beside the common charge fields
	_ = unmarshalData(pr, &amount)

	return &VerifyResult{
		Status:      d.Status,
		TxRef:       d.TxRef,
		ProviderRef: d.FlwRef,
		Amount:      amount.Amount,
		Currency:    amount.Currency,
	}, nil
}

func failed(msg string) *ChargeResult {
	return &ChargeResult{Success: false, Status: StatusFailed, Message: msg}
}
