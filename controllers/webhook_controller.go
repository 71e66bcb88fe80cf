package controllers

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/food-bundles/food-bundles-bn-sub000/services"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type WebhookController struct {
	Svc        *services.WebhookService
	SharedHash string // value expected in the verif-hash header
	HMACSecret string // key for the signed-payload endpoint
	Log        *zap.Logger
}

func NewWebhookController(svc *services.WebhookService, sharedHash, hmacSecret string, log *zap.Logger) *WebhookController {
	return &WebhookController{Svc: svc, SharedHash: sharedHash, HMACSecret: hmacSecret, Log: log}
}

// webhookPayload tolerates both flat payloads and the event/data envelope;
// providers are not consistent about either the nesting or the field names.
type webhookPayload struct {
	Event  string `json:"event"`
	Status string `json:"status"`
	TxRef  string `json:"tx_ref"`
	FlwRef string `json:"flw_ref"`
	ID     int64  `json:"id"`
	Data   *struct {
		ID     int64  `json:"id"`
		TxRef  string `json:"tx_ref"`
		FlwRef string `json:"flw_ref"`
		Status string `json:"status"`
	} `json:"data"`
}

func (p *webhookPayload) event(evtType string) services.WebhookEvent {
	evt := services.WebhookEvent{
		TxRef:       p.TxRef,
		ProviderRef: p.FlwRef,
		RecordID:    p.ID,
		Status:      p.Status,
		EventType:   evtType,
	}
	if p.Data != nil {
		if p.Data.TxRef != "" {
			evt.TxRef = p.Data.TxRef
		}
		if p.Data.FlwRef != "" {
			evt.ProviderRef = p.Data.FlwRef
		}
		if p.Data.ID != 0 {
			evt.RecordID = p.Data.ID
		}
		if p.Data.Status != "" {
			evt.Status = p.Data.Status
		}
	}
	return evt
}

// POST /webhooks/payment — shared-secret header check.
func (ctl *WebhookController) HandleHash(c *gin.Context) {
	sig := c.GetHeader("verif-hash")
	if ctl.SharedHash == "" || subtle.ConstantTimeCompare([]byte(sig), []byte(ctl.SharedHash)) != 1 {
		c.JSON(http.StatusUnauthorized, gin.H{"ok": false, "error": "invalid signature"})
		return
	}
	ctl.process(c)
}

// POST /webhooks/payment/hmac — HMAC-SHA256 over the raw body, base64,
// compared against the vendor's signature header.
func (ctl *WebhookController) HandleHMAC(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "unreadable body"})
		return
	}

	mac := hmac.New(sha256.New, []byte(ctl.HMACSecret))
	mac.Write(body)
	expected := base64.StdEncoding.EncodeToString(mac.Sum(nil))

	sig := c.GetHeader("x-webhook-signature")
	if ctl.HMACSecret == "" || !hmac.Equal([]byte(sig), []byte(expected)) {
		c.JSON(http.StatusUnauthorized, gin.H{"ok": false, "error": "invalid signature"})
		return
	}

	ctl.handle(c, body)
}

func (ctl *WebhookController) process(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "unreadable body"})
		return
	}
	ctl.handle(c, body)
}

// handle always answers 200 once the signature checked out — a 4xx/5xx here
// would only make the provider hammer retries at an unknown reference, and
// reconciliation faults are already alerted through the logs.
func (ctl *WebhookController) handle(c *gin.Context, body []byte) {
	var payload webhookPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		ctl.Log.Warn("webhook with malformed body", zap.Error(err))
		c.JSON(http.StatusOK, gin.H{"ok": true})
		return
	}

	if err := ctl.Svc.ProcessEvent(payload.event(payload.Event)); err != nil {
		var rf *services.ReconciliationFault
		if errors.As(err, &rf) {
			// money-level mismatch: alerted by the service, acknowledged here
			c.JSON(http.StatusOK, gin.H{"ok": true})
			return
		}
		ctl.Log.Error("webhook processing failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}
