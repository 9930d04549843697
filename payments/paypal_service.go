package payments

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
)

const (
	ProviderPayPal = "paypal"

	OrderCompleted = "COMPLETED"
)

var (
	// ErrProviderRejected is a business rejection of the order. Retrying will not help.
	ErrProviderRejected = errors.New("checkout provider rejected the request")
	// ErrProviderUnavailable covers outages, throttling and credential failures. The
	// order itself may still succeed later.
	ErrProviderUnavailable = errors.New("checkout provider unavailable")
)

type OrderRequest struct {
	// ReferenceID is echoed back by the provider and carries our payment id.
	ReferenceID string
	Amount      float64
	Currency    string
	Description string
}

type Order struct {
	ID         string
	Status     string
	ApproveURL string
	CaptureID  string
}

// Provider is a hosted checkout. Card data never passes through this service.
type Provider interface {
	Name() string
	CreateOrder(ctx context.Context, req OrderRequest) (*Order, error)
	CaptureOrder(ctx context.Context, orderID string) (*Order, error)
}

type PayPalConfig struct {
	BaseURL      string
	ClientID     string
	ClientSecret string
	ReturnURL    string
	CancelURL    string
}

type PayPalClient struct {
	http   *resty.Client
	cfg    PayPalConfig
	tokens *tokenCache
}

func NewPayPalClient(cfg PayPalConfig) *PayPalClient {
	c := &PayPalClient{
		http: resty.New().
			SetBaseURL(cfg.BaseURL).
			SetTimeout(15 * time.Second).
			SetHeader("Accept", "application/json"),
		cfg: cfg,
	}
	c.tokens = &tokenCache{now: time.Now, fetch: c.fetchToken}
	return c
}

func (c *PayPalClient) Name() string { return ProviderPayPal }

type paypalToken struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
}

type paypalLink struct {
	Href string `json:"href"`
	Rel  string `json:"rel"`
}

type paypalOrder struct {
	ID            string       `json:"id"`
	Status        string       `json:"status"`
	Links         []paypalLink `json:"links"`
	PurchaseUnits []struct {
		Payments struct {
			Captures []struct {
				ID     string `json:"id"`
				Status string `json:"status"`
			} `json:"captures"`
		} `json:"payments"`
	} `json:"purchase_units"`
}

func (o paypalOrder) toOrder() *Order {
	order := &Order{ID: o.ID, Status: o.Status}
	for _, l := range o.Links {
		if l.Rel == "approve" || l.Rel == "payer-action" {
			order.ApproveURL = l.Href
		}
	}
	for _, pu := range o.PurchaseUnits {
		for _, capture := range pu.Payments.Captures {
			order.CaptureID = capture.ID
		}
	}
	return order
}

func (c *PayPalClient) fetchToken(ctx context.Context) (string, time.Duration, error) {
	var out paypalToken
	resp, err := c.http.R().
		SetContext(ctx).
		SetBasicAuth(c.cfg.ClientID, c.cfg.ClientSecret).
		SetFormData(map[string]string{"grant_type": "client_credentials"}).
		SetResult(&out).
		Post("/v1/oauth2/token")
	if err != nil {
		return "", 0, fmt.Errorf("%w: token request: %w", ErrProviderUnavailable, err)
	}
	if resp.StatusCode() != http.StatusOK || out.AccessToken == "" {
		return "", 0, fmt.Errorf("%w: token status %d: %s", ErrProviderUnavailable, resp.StatusCode(), resp.String())
	}
	return out.AccessToken, time.Duration(out.ExpiresIn) * time.Second, nil
}

func (c *PayPalClient) CreateOrder(ctx context.Context, req OrderRequest) (*Order, error) {
	payload := map[string]interface{}{
		"intent": "CAPTURE",
		"purchase_units": []map[string]interface{}{
			{
				"reference_id": req.ReferenceID,
				"description":  req.Description,
				"amount": map[string]string{
					"currency_code": req.Currency,
					"value":         fmt.Sprintf("%.2f", req.Amount),
				},
			},
		},
		"application_context": map[string]string{
			"return_url":  c.cfg.ReturnURL,
			"cancel_url":  c.cfg.CancelURL,
			"user_action": "PAY_NOW",
		},
	}

	var out paypalOrder
	if err := c.do(ctx, "/v2/checkout/orders", payload, &out); err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}
	return out.toOrder(), nil
}

func (c *PayPalClient) CaptureOrder(ctx context.Context, orderID string) (*Order, error) {
	var out paypalOrder
	if err := c.do(ctx, "/v2/checkout/orders/"+orderID+"/capture", map[string]interface{}{}, &out); err != nil {
		return nil, fmt.Errorf("capture order %s: %w", orderID, err)
	}
	return out.toOrder(), nil
}

func (c *PayPalClient) do(ctx context.Context, path string, body interface{}, out *paypalOrder) error {
	resp, err := c.post(ctx, path, body, out)
	if err == nil && resp.StatusCode() == http.StatusUnauthorized {
		// the cached token was revoked before its expiry
		c.tokens.invalidate()
		resp, err = c.post(ctx, path, body, out)
	}
	if err != nil {
		return err
	}
	return classify(resp)
}

func (c *PayPalClient) post(ctx context.Context, path string, body interface{}, out *paypalOrder) (*resty.Response, error) {
	token, err := c.tokens.get(ctx)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.R().
		SetContext(ctx).
		SetAuthToken(token).
		SetHeader("Content-Type", "application/json").
		SetBody(body).
		SetResult(out).
		Post(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrProviderUnavailable, err)
	}
	return resp, nil
}

// classify separates rejections of the order from failures worth retrying.
func classify(resp *resty.Response) error {
	code := resp.StatusCode()
	switch {
	case resp.IsSuccess():
		return nil
	case code == http.StatusUnauthorized, code == http.StatusTooManyRequests, code >= http.StatusInternalServerError:
		return fmt.Errorf("%w: status %d: %s", ErrProviderUnavailable, code, resp.String())
	default:
		return fmt.Errorf("%w: status %d: %s", ErrProviderRejected, code, resp.String())
	}
}
