package payments

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// client is the thin HTTP layer against the provider. Provider errors are
// returned as-is here; classification happens in Gateway.
type client struct {
	baseURL   string
	secretKey string
	http      *http.Client
}

func newClient(baseURL, secretKey string) *client {
	return &client{
		baseURL:   baseURL,
		secretKey: secretKey,
		http:      &http.Client{Timeout: 30 * time.Second},
	}
}

// providerResponse is the provider's common envelope.
type providerResponse struct {
	Status  string          `json:"status"` // success | error
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type chargeData struct {
	ID     int64  `json:"id"`
	TxRef  string `json:"tx_ref"`
	FlwRef string `json:"flw_ref"`
	Status string `json:"status"` // successful | pending | failed

	Meta struct {
		Authorization struct {
			Mode             string `json:"mode"` // pin | redirect | otp
			Redirect         string `json:"redirect"`
			TransferAccount  string `json:"transfer_account"`
			TransferBank     string `json:"transfer_bank"`
			TransferRef      string `json:"transfer_reference"`
			TransferNote     string `json:"transfer_note"`
			AccountExpiresAt string `json:"account_expiration"`
		} `json:"authorization"`
	} `json:"meta"`
}

func (c *client) post(ctx context.Context, path string, body any) (*providerResponse, error) {
	buf, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(buf))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.secretKey)

	return c.do(req)
}

func (c *client) get(ctx context.Context, path string) (*providerResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.secretKey)

	return c.do(req)
}

func (c *client) do(req *http.Request) (*providerResponse, error) {
	res, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	raw, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, err
	}

	var pr providerResponse
	if err := json.Unmarshal(raw, &pr); err != nil {
		return nil, fmt.Errorf("provider returned %d: %s", res.StatusCode, string(raw))
	}
	if res.StatusCode >= 400 || pr.Status == "error" {
		msg := pr.Message
		if msg == "" {
			msg = fmt.Sprintf("provider returned %d", res.StatusCode)
		}
		return nil, fmt.Errorf("%s", msg)
	}
	return &pr, nil
}

func unmarshalData(pr *providerResponse, out any) error {
	return json.Unmarshal(pr.Data, out)
}

func (pr *providerResponse) charge() (*chargeData, error) {
	var d chargeData
	if err := json.Unmarshal(pr.Data, &d); err != nil {
		return nil, err
	}
	return &d, nil
}
