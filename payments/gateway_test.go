package payments

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testGateway(t *testing.T, handler http.HandlerFunc) *Gateway {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewGateway(srv.URL, "sk_test", zap.NewNop())
}

func chargeReq(method Method) ChargeRequest {
	return ChargeRequest{
		TxRef:    "chk_1_1700000000abcd",
		Amount:   decimal.NewFromInt(3500),
		Currency: "RWF",
		Email:    "owner@example.com",
		Name:     "Owner",
		Method:   method,
	}
}

func TestCharge_MobileMoneyAlwaysPending(t *testing.T) {
	var gotBody map[string]any
	g := testGateway(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer sk_test", r.Header.Get("Authorization"))
		assert.Equal(t, "/charges", r.URL.Path)
		assert.Equal(t, "mobile_money_rwanda", r.URL.Query().Get("type"))
		raw, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(raw, &gotBody))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"success","message":"Charge initiated","data":{"id":40001,"tx_ref":"chk_1_1700000000abcd","flw_ref":"FLW-MM-1","status":"successful"}}`))
	})

	res := g.Charge(context.Background(), chargeReq(MobileMoney{Phone: "+250781234567"}))
	require.True(t, res.Success)
	// provider claims successful on initiation; the webhook is the truth
	assert.Equal(t, StatusPending, res.Status)
	assert.Equal(t, "FLW-MM-1", res.ProviderRef)
	assert.EqualValues(t, 40001, res.ProviderID)
	// the msisdn went out normalized
	assert.Equal(t, "0781234567", gotBody["phone_number"])
}

func TestCharge_MobileMoneyBadPhone(t *testing.T) {
	g := testGateway(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("provider must not be called for an invalid msisdn")
	})

	res := g.Charge(context.Background(), chargeReq(MobileMoney{Phone: "0711234567"}))
	assert.False(t, res.Success)
	assert.Equal(t, StatusFailed, res.Status)
	assert.Contains(t, res.Message, "phone")
}

func TestCharge_CardRedirect(t *testing.T) {
	g := testGateway(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "card", r.URL.Query().Get("type"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"success","message":"Charge initiated","data":{"id":40002,"tx_ref":"chk_1_1700000000abcd","flw_ref":"FLW-CARD-1","status":"successful","meta":{"authorization":{"mode":"redirect","redirect":"https://provider.test/3ds"}}}}`))
	})

	res := g.Charge(context.Background(), chargeReq(Card{Number: "4556052704172356", CVV: "899", ExpiryMonth: "01", ExpiryYear: "28"}))
	require.True(t, res.Success)
	// an authorization step trumps whatever status the payload claims
	assert.Equal(t, StatusPending, res.Status)
	assert.Equal(t, "redirect", res.AuthMode)
	assert.Equal(t, "https://provider.test/3ds", res.RedirectURL)
}

func TestCharge_CardImmediateSuccess(t *testing.T) {
	g := testGateway(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"success","message":"Charge successful","data":{"id":40003,"tx_ref":"chk_1_1700000000abcd","flw_ref":"FLW-CARD-2","status":"successful"}}`))
	})

	res := g.Charge(context.Background(), chargeReq(Card{Number: "5531886652142950", CVV: "564", ExpiryMonth: "09", ExpiryYear: "29", Pin: "3310"}))
	assert.True(t, res.Success)
	assert.Equal(t, StatusSuccessful, res.Status)
}

func TestCharge_CardDeclined(t *testing.T) {
	g := testGateway(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"success","message":"Charge was declined","data":{"id":40004,"tx_ref":"chk_1_1700000000abcd","flw_ref":"FLW-CARD-3","status":"failed"}}`))
	})

	res := g.Charge(context.Background(), chargeReq(Card{Number: "5258585922666506", CVV: "883", ExpiryMonth: "09", ExpiryYear: "31"}))
	assert.False(t, res.Success)
	assert.Equal(t, StatusFailed, res.Status)
}

func TestCharge_BankTransferDetails(t *testing.T) {
	g := testGateway(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "bank_transfer", r.URL.Query().Get("type"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"success","message":"Transfer initiated","data":{"id":40005,"tx_ref":"chk_1_1700000000abcd","flw_ref":"FLW-BT-1","status":"pending","meta":{"authorization":{"mode":"banktransfer","transfer_account":"7825397106","transfer_bank":"WEMA BANK","transfer_reference":"MockBTRef-1","transfer_note":"Pay to this account","account_expiration":"2026-09-01T12:00:00Z"}}}}`))
	})

	res := g.Charge(context.Background(), chargeReq(BankTransfer{}))
	require.True(t, res.Success)
	assert.Equal(t, StatusPending, res.Status)
	require.NotNil(t, res.Transfer)
	assert.Equal(t, "7825397106", res.Transfer.AccountNumber)
	assert.Equal(t, "WEMA BANK", res.Transfer.BankName)
	assert.Equal(t, "MockBTRef-1", res.Transfer.Reference)
	assert.Equal(t, 2026, res.Transfer.ExpiresAt.Year())
}

func TestCharge_ProviderErrorIsClassified(t *testing.T) {
	g := testGateway(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"status":"error","message":"Invalid currency"}`))
	})

	res := g.Charge(context.Background(), chargeReq(MobileMoney{Phone: "0781234567"}))
	assert.False(t, res.Success)
	assert.Equal(t, StatusFailed, res.Status)
	assert.Equal(t, "Invalid currency", res.Message)
}

func TestCharge_GarbageResponseIsClassified(t *testing.T) {
	g := testGateway(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte(`<html>upstream exploded</html>`))
	})

	res := g.Charge(context.Background(), chargeReq(MobileMoney{Phone: "0781234567"}))
	assert.False(t, res.Success)
	assert.Equal(t, StatusFailed, res.Status)
	assert.Contains(t, res.Message, "502")
}

func TestCharge_CashIsNotGatewayBacked(t *testing.T) {
	g := testGateway(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("provider must not be called for cash")
	})

	res := g.Charge(context.Background(), chargeReq(Cash{}))
	assert.False(t, res.Success)
	assert.Equal(t, StatusFailed, res.Status)
}

func TestVerify(t *testing.T) {
	g := testGateway(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/transactions/FLW-MM-1/verify", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"success","message":"verified","data":{"id":40001,"tx_ref":"chk_1_1700000000abcd","flw_ref":"FLW-MM-1","status":"successful","amount":3500,"currency":"RWF"}}`))
	})

	res, err := g.Verify(context.Background(), "FLW-MM-1")
	require.NoError(t, err)
	assert.Equal(t, StatusSuccessful, res.Status)
	assert.Equal(t, "chk_1_1700000000abcd", res.TxRef)
	assert.Equal(t, "FLW-MM-1", res.ProviderRef)
	assert.True(t, res.Amount.Equal(decimal.NewFromInt(3500)))
	assert.Equal(t, "RWF", res.Currency)
}

func TestVerify_ProviderError(t *testing.T) {
	g := testGateway(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"status":"error","message":"No transaction was found for this id"}`))
	})

	_, err := g.Verify(context.Background(), "FLW-NOPE")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "No transaction was found")
}
