// Package paymentprovider реализует HTTP-клиент PayPal Orders API v2.
// Токен доступа получается по client credentials и кэшируется до истечения.
package paymentprovider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/magabrotheeeer/biteplans/internal/config"
	"github.com/magabrotheeeer/biteplans/internal/models"
)

const defaultCurrency = "USD"

type Client struct {
	apiURL     string
	returnURL  string
	cancelURL  string
	timeout    time.Duration
	httpClient *http.Client
	tokens     oauth2.TokenSource
}

// NewClient создаёт клиент PayPal
func NewClient(cfg config.PayPal) *Client {
	timeout := cfg.TimeoutPayPal
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	httpClient := &http.Client{Timeout: timeout}

	cc := &clientcredentials.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		TokenURL:     cfg.BaseURL + "/v1/oauth2/token",
		AuthStyle:    oauth2.AuthStyleInHeader,
	}
	tokenCtx := context.WithValue(context.Background(), oauth2.HTTPClient, httpClient)

	return &Client{
		apiURL:     cfg.BaseURL,
		returnURL:  cfg.ReturnURL,
		cancelURL:  cfg.CancelURL,
		timeout:    timeout,
		httpClient: httpClient,
		tokens:     cc.TokenSource(tokenCtx),
	}
}

// CreateOrder создаёт заказ с intent CAPTURE и возвращает ссылку approve.
func (c *Client) CreateOrder(ctx context.Context, r OrderRequest) (*Order, error) {
	const op = "paymentprovider.CreateOrder"

	currency := r.Currency
	if currency == "" {
		currency = defaultCurrency
	}
	body := createOrderRequest{
		Intent: "CAPTURE",
		PurchaseUnits: []purchaseUnit{{
			Amount: amount{
				CurrencyCode: currency,
				Value:        strconv.FormatFloat(r.Amount, 'f', 2, 64),
			},
			Description: r.Description,
		}},
		ApplicationContext: applicationContext{
			ReturnURL: c.returnURL + "?planId=" + url.QueryEscape(r.PlanID),
			CancelURL: c.cancelURL,
		},
	}

	var resp orderResponse
	status, err := c.do(ctx, http.MethodPost, "/v2/checkout/orders", "", body, &resp)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if status != http.StatusOK && status != http.StatusCreated {
		return nil, fmt.Errorf("%s: unexpected status %d: %w", op, status, models.ErrProcessorOrderFailed)
	}

	for _, l := range resp.Links {
		if l.Rel == "approve" {
			return &Order{ID: resp.ID, Status: resp.Status, ApprovalURL: l.Href}, nil
		}
	}
	return nil, fmt.Errorf("%s: no approval link: %w", op, models.ErrProcessorOrderFailed)
}

// CaptureOrder списывает средства по одобренному заказу.
// Успехом считается только статус COMPLETED.
func (c *Client) CaptureOrder(ctx context.Context, orderID string) (*Capture, error) {
	const op = "paymentprovider.CaptureOrder"

	var resp captureResponse
	path := "/v2/checkout/orders/" + url.PathEscape(orderID) + "/capture"
	status, err := c.do(ctx, http.MethodPost, path, orderID, struct{}{}, &resp)
	if err != nil {
		if errors.Is(err, models.ErrProcessorTimeout) || errors.Is(err, models.ErrProcessorAuthFailed) {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		return nil, fmt.Errorf("%s: %w: %w", op, models.ErrCaptureFailed, err)
	}
	if status != http.StatusOK && status != http.StatusCreated {
		return nil, fmt.Errorf("%s: unexpected status %d: %w", op, status, models.ErrCaptureFailed)
	}
	if resp.Status != StatusCompleted {
		return nil, fmt.Errorf("%s: order status %q: %w", op, resp.Status, models.ErrCaptureFailed)
	}
	if len(resp.PurchaseUnits) == 0 || len(resp.PurchaseUnits[0].Payments.Captures) == 0 {
		return nil, fmt.Errorf("%s: no captures in response: %w", op, models.ErrCaptureFailed)
	}
	captured := resp.PurchaseUnits[0].Payments.Captures[0].Amount
	value, err := strconv.ParseFloat(captured.Value, 64)
	if err != nil {
		return nil, fmt.Errorf("%s: bad capture amount %q: %w", op, captured.Value, models.ErrCaptureFailed)
	}
	return &Capture{OrderID: resp.ID, Status: resp.Status, Amount: value, Currency: captured.CurrencyCode}, nil
}

// do выполняет авторизованный запрос. requestID передаётся в PayPal-Request-Id,
// чтобы повторный capture того же заказа не списал деньги дважды.
func (c *Client) do(ctx context.Context, method, path, requestID string, in, out any) (int, error) {
	token, err := c.tokens.Token()
	if err != nil {
		if isTimeout(err) {
			return 0, fmt.Errorf("%w: %w", models.ErrProcessorTimeout, err)
		}
		return 0, fmt.Errorf("%w: %w", models.ErrProcessorAuthFailed, err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var buf bytes.Buffer
	if in != nil {
		if err := json.NewEncoder(&buf).Encode(in); err != nil {
			return 0, err
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, c.apiURL+path, &buf)
	if err != nil {
		return 0, err
	}
	token.SetAuthHeader(req)
	req.Header.Set("Content-Type", "application/json")
	if requestID != "" {
		req.Header.Set("PayPal-Request-Id", requestID)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if isTimeout(err) {
			return 0, fmt.Errorf("%w: %w", models.ErrProcessorTimeout, err)
		}
		return 0, fmt.Errorf("%w: %w", models.ErrProcessorOrderFailed, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode == http.StatusUnauthorized {
		return resp.StatusCode, models.ErrProcessorAuthFailed
	}
	if resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return resp.StatusCode, nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return resp.StatusCode, fmt.Errorf("%w: decode response: %w", models.ErrProcessorOrderFailed, err)
	}
	return resp.StatusCode, nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
