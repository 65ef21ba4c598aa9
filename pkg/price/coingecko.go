package price

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"nodemonitor/pkg/config"
	"nodemonitor/pkg/jsonx"

	"github.com/shopspring/decimal"
)

// CoinGecko fetches USD spot prices from the CoinGecko simple price API.
type CoinGecko struct {
	baseURL    string
	httpClient *http.Client
}

// NewCoinGecko creates a CoinGecko client
func NewCoinGecko(cfg config.PriceConfig) *CoinGecko {
	return &CoinGecko{
		baseURL: cfg.BaseURL,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

// Quote returns the USD price of tokenID (e.g. "nosana").
func (c *CoinGecko) Quote(ctx context.Context, tokenID string) (decimal.Decimal, error) {
	q := url.Values{}
	q.Set("ids", tokenID)
	q.Set("vs_currencies", "usd")
	endpoint := c.baseURL + "/simple/price?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to fetch price: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to read price response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return decimal.Zero, fmt.Errorf("price API returned status code %d", resp.StatusCode)
	}

	var prices map[string]map[string]decimal.Decimal
	if err := jsonx.Unmarshal(body, &prices); err != nil {
		return decimal.Zero, fmt.Errorf("failed to parse price response: %w", err)
	}

	usd, ok := prices[tokenID]["usd"]
	if !ok {
		return decimal.Zero, fmt.Errorf("price for %s not found in response", tokenID)
	}
	if !usd.IsPositive() {
		return decimal.Zero, fmt.Errorf("non-positive price %s for %s", usd, tokenID)
	}
	return usd, nil
}
