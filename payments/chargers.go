package payments

import (
	"context"
	"time"
)

// bankTransferExpiry is how long the provider's virtual account stays open.
const bankTransferExpiry = time.Hour

type mobileMoneyCharger struct{}

// Mobile money never completes synchronously: a successful initiation comes
// back pending and the webhook finalizes it.
func (mobileMoneyCharger) charge(ctx context.Context, c *client, req ChargeRequest) (*ChargeResult, error) {
	mm := req.Method.(MobileMoney)
	phone, err := NormalizeMSISDN(mm.Phone)
	if err != nil {
		return nil, err
	}

	pr, err := c.post(ctx, "/charges?type=mobile_money_rwanda", map[string]any{
		"tx_ref":       req.TxRef,
		"amount":       req.Amount,
		"currency":     req.Currency,
		"email":        req.Email,
		"fullname":     req.Name,
		"phone_number": phone,
	})
	if err != nil {
		return nil, err
	}
	d, err := pr.charge()
	if err != nil {
		return nil, err
	}

	return &ChargeResult{
		Success:     true,
		Status:      StatusPending,
		Message:     "charge initiated, awaiting confirmation",
		ProviderRef: d.FlwRef,
		ProviderID:  d.ID,
	}, nil
}

type cardCharger struct{}

func (cardCharger) charge(ctx context.Context, c *client, req ChargeRequest) (*ChargeResult, error) {
	card := req.Method.(Card)

	pr, err := c.post(ctx, "/charges?type=card", map[string]any{
		"tx_ref":       req.TxRef,
		"amount":       req.Amount,
		"currency":     req.Currency,
		"email":        req.Email,
		"fullname":     req.Name,
		"card_number":  card.Number,
		"cvv":          card.CVV,
		"expiry_month": card.ExpiryMonth,
		"expiry_year":  card.ExpiryYear,
		"pin":          card.Pin,
	})
	if err != nil {
		return nil, err
	}
	d, err := pr.charge()
	if err != nil {
		return nil, err
	}

	out := &ChargeResult{
		Success:     true,
		ProviderRef: d.FlwRef,
		ProviderID:  d.ID,
	}

	// When the provider demands an authorization step the charge is not done,
	// whatever d.Status claims.
	if mode := d.Meta.Authorization.Mode; mode != "" {
		out.Status = StatusPending
		out.AuthMode = mode
		out.RedirectURL = d.Meta.Authorization.Redirect
		out.Message = "authorization required"
		return out, nil
	}

	switch d.Status {
	case StatusSuccessful:
		out.Status = StatusSuccessful
	case "failed":
		out.Success = false
		out.Status = StatusFailed
		out.Message = "charge declined"
	default:
		out.Status = StatusPending
	}
	return out, nil
}

type bankTransferCharger struct{}

// Bank transfer is always asynchronous: the provider opens a virtual account
// and the webhook reports when funds land.
func (bankTransferCharger) charge(ctx context.Context, c *client, req ChargeRequest) (*ChargeResult, error) {
	pr, err := c.post(ctx, "/charges?type=bank_transfer", map[string]any{
		"tx_ref":   req.TxRef,
		"amount":   req.Amount,
		"currency": req.Currency,
		"email":    req.Email,
		"fullname": req.Name,
	})
	if err != nil {
		return nil, err
	}
	d, err := pr.charge()
	if err != nil {
		return nil, err
	}

	auth := d.Meta.Authorization
	expires := time.Now().Add(bankTransferExpiry)
	if auth.AccountExpiresAt != "" {
		if t, err := time.Parse(time.RFC3339, auth.AccountExpiresAt); err == nil {
			expires = t
		}
	}

	return &ChargeResult{
		Success:     true,
		Status:      StatusPending,
		Message:     "transfer account created",
		ProviderRef: d.FlwRef,
		ProviderID:  d.ID,
		Transfer: &TransferDetails{
			AccountNumber: auth.TransferAccount,
			BankName:      auth.TransferBank,
			Reference:     auth.TransferRef,
			Note:          auth.TransferNote,
			ExpiresAt:     expires,
		},
	}, nil
}
