// internal/adapters/out/http/catalog_client.go
package httpout

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	catalogdom "atelier/internal/domain/catalog"
)

// CatalogClient implements catalog.Reader over the product catalog HTTP API.
type CatalogClient struct {
	baseURL string
	client  *http.Client
}

func NewCatalogClient(baseURL string) *CatalogClient {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	return &CatalogClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

// GetProduct fetches live price/stock/title for productID.
func (c *CatalogClient) GetProduct(ctx context.Context, productID string) (catalogdom.ProductSnapshot, error) {
	if c == nil || c.baseURL == "" {
		return catalogdom.ProductSnapshot{}, fmt.Errorf("catalog_client: baseURL is empty")
	}
	pid := strings.TrimSpace(productID)
	if pid == "" {
		return catalogdom.ProductSnapshot{}, fmt.Errorf("catalog_client: productID is empty")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"/products/"+url.PathEscape(pid), nil)
	if err != nil {
		return catalogdom.ProductSnapshot{}, err
	}

	res, err := c.client.Do(req)
	if err != nil {
		return catalogdom.ProductSnapshot{}, err
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusNotFound {
		return catalogdom.ProductSnapshot{}, catalogdom.ErrProductNotFound
	}
	if res.StatusCode != http.StatusOK {
		return catalogdom.ProductSnapshot{}, fmt.Errorf("catalog_client: get product failed status=%d", res.StatusCode)
	}

	var out catalogdom.ProductSnapshot
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return catalogdom.ProductSnapshot{}, fmt.Errorf("catalog_client: decode product: %w", err)
	}
	if strings.TrimSpace(out.ProductID) == "" {
		out.ProductID = pid
	}
	return out, nil
}
