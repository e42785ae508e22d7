// internal/adapters/out/http/cart_service_client.go
package httpout

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	usecase "atelier/internal/application/usecase"
	cartdom "atelier/internal/domain/cart"
)

// TokenSource supplies a bearer token for authenticated calls.
// Optional; when nil, requests go out unauthenticated.
type TokenSource func(ctx context.Context) (string, error)

// CartServiceClient implements usecase.CartService over the backend cart
// HTTP API.
//
// baseURL example:
// - Cloud Run: https://xxxxx.asia-northeast1.run.app
// - local: http://localhost:8080
type CartServiceClient struct {
	baseURL string
	client  *http.Client
	token   TokenSource
}

func NewCartServiceClient(baseURL string, token TokenSource) *CartServiceClient {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	return &CartServiceClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 10 * time.Second},
		token:   token,
	}
}

// Sync pushes the current item list to the backend cart.
func (c *CartServiceClient) Sync(ctx context.Context, items []usecase.SyncItem) error {
	payload := struct {
		Items []usecase.SyncItem `json:"items"`
	}{Items: items}

	res, err := c.do(ctx, http.MethodPost, "/cart/sync", payload)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusNoContent || res.StatusCode == http.StatusOK {
		return nil
	}
	return fmt.Errorf("cart_service_client: sync failed status=%d body=%s", res.StatusCode, readBody(res))
}

// Get fetches the server-held cart items.
func (c *CartServiceClient) Get(ctx context.Context) ([]cartdom.Item, error) {
	res, err := c.do(ctx, http.MethodGet, "/cart", nil)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("cart_service_client: get failed status=%d body=%s", res.StatusCode, readBody(res))
	}

	var out struct {
		Items []cartdom.Item `json:"items"`
	}
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("cart_service_client: decode cart: %w", err)
	}
	return cartdom.Normalize(out.Items), nil
}

// ApplyPromoCode validates a discount code against the given items.
// Backend rejections come back as *cart.PromoInvalidError.
func (c *CartServiceClient) ApplyPromoCode(ctx context.Context, code string, items []usecase.SyncItem) (usecase.PromoResult, error) {
	payload := struct {
		Code  string             `json:"code"`
		Items []usecase.SyncItem `json:"items"`
	}{Code: code, Items: items}

	res, err := c.do(ctx, http.MethodPost, "/cart/promo", payload)
	if err != nil {
		return usecase.PromoResult{}, err
	}
	defer res.Body.Close()

	if res.StatusCode >= 400 && res.StatusCode < 500 {
		reason := ""
		var body struct {
			Message string `json:"message"`
		}
		if err := json.NewDecoder(res.Body).Decode(&body); err == nil {
			reason = strings.TrimSpace(body.Message)
		}
		return usecase.PromoResult{}, &cartdom.PromoInvalidError{Code: code, Reason: reason}
	}
	if res.StatusCode != http.StatusOK {
		return usecase.PromoResult{}, fmt.Errorf("cart_service_client: promo failed status=%d body=%s", res.StatusCode, readBody(res))
	}

	var out usecase.PromoResult
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return usecase.PromoResult{}, fmt.Errorf("cart_service_client: decode promo result: %w", err)
	}
	return out, nil
}

// CalculateShipping asks the backend rate calculator.
func (c *CartServiceClient) CalculateShipping(ctx context.Context, addr usecase.Address, items []usecase.SyncItem) (int64, error) {
	payload := struct {
		Address usecase.Address    `json:"address"`
		Items   []usecase.SyncItem `json:"items"`
	}{Address: addr, Items: items}

	res, err := c.do(ctx, http.MethodPost, "/cart/shipping", payload)
	if err != nil {
		return 0, err
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("cart_service_client: shipping failed status=%d body=%s", res.StatusCode, readBody(res))
	}

	var out struct {
		Cost int64 `json:"cost"`
	}
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return 0, fmt.Errorf("cart_service_client: decode shipping: %w", err)
	}
	return out.Cost, nil
}

func (c *CartServiceClient) do(ctx context.Context, method, path string, payload any) (*http.Response, error) {
	if c == nil || c.baseURL == "" {
		return nil, fmt.Errorf("cart_service_client: baseURL is empty")
	}

	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != nil {
		tok, err := c.token(ctx)
		if err != nil {
			return nil, fmt.Errorf("cart_service_client: token: %w", err)
		}
		if tok != "" {
			req.Header.Set("Authorization", "Bearer "+tok)
		}
	}

	return c.client.Do(req)
}

func readBody(res *http.Response) string {
	b, _ := io.ReadAll(io.LimitReader(res.Body, 1<<20))
	return strings.TrimSpace(string(b))
}
