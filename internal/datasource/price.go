package datasource

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"

	"github.com/seenimoa/marketlyst/pkg/models"
)

// PriceSource returns a spot quote for a symbol of a given asset class.
type PriceSource interface {
	Name() string
	GetQuote(ctx context.Context, symbol string, class models.AssetClass) (*models.Quote, error)
}

// TwelveDataClient fetches spot prices from the Twelve Data /price
// endpoint. One endpoint serves stocks, crypto, and forex; only the
// symbol format differs per class.
type TwelveDataClient struct {
	client *resty.Client
	apiKey string
}

// NewTwelveDataClient creates a Twelve Data price client.
func NewTwelveDataClient(apiKey string, timeout time.Duration) *TwelveDataClient {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	client := resty.New()
	client.SetBaseURL("https://api.twelvedata.com")
	client.SetTimeout(timeout)

	return &TwelveDataClient{
		client: client,
		apiKey: apiKey,
	}
}

// Name returns the source identifier.
func (c *TwelveDataClient) Name() string { return "twelvedata" }

type twelveDataPrice struct {
	Price   string `json:"price"`
	Code    int    `json:"code"`
	Message string `json:"message"`
	Status  string `json:"status"`
}

// GetQuote fetches the current price for symbol. Crypto and forex symbols
// are reformatted with a slash (BTCUSD becomes BTC/USD) as the API
// expects pair notation for those classes.
func (c *TwelveDataClient) GetQuote(ctx context.Context, symbol string, class models.AssetClass) (*models.Quote, error) {
	if c.apiKey == "" {
		return nil, ErrNoAPIKey
	}

	apiSymbol := FormatPairSymbol(symbol, class)

	var result twelveDataPrice
	resp, err := c.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"symbol": apiSymbol,
			"apikey": c.apiKey,
		}).
		SetResult(&result).
		Get("/price")
	if err != nil {
		return nil, fmt.Errorf("twelvedata request: %w", err)
	}
	if resp.StatusCode() == 429 {
		return nil, ErrRateLimited
	}
	if resp.StatusCode() >= 400 {
		return nil, &ErrHTTP{StatusCode: resp.StatusCode(), Body: string(resp.Body())}
	}
	if result.Price == "" {
		if result.Message != "" {
			return nil, fmt.Errorf("%w: %s", ErrSymbolNotFound, result.Message)
		}
		return nil, ErrSymbolNotFound
	}

	price, err := decimal.NewFromString(result.Price)
	if err != nil {
		return nil, fmt.Errorf("twelvedata price %q: %w", result.Price, err)
	}

	return &models.Quote{
		Symbol:   strings.ToUpper(symbol),
		Price:    price,
		Currency: "USD",
	}, nil
}

// FormatPairSymbol converts a flat pair symbol to the slash notation the
// price API expects for crypto and forex (BTCUSD -> BTC/USD, EURUSD ->
// EUR/USD). Stock symbols pass through upper-cased.
func FormatPairSymbol(symbol string, class models.AssetClass) string {
	upper := strings.ToUpper(symbol)
	switch class {
	case models.AssetCrypto:
		if strings.HasSuffix(upper, "USD") && len(upper) > 3 {
			return upper[:len(upper)-3] + "/USD"
		}
	case models.AssetForex:
		if len(upper) == 6 {
			return upper[:3] + "/" + upper[3:]
		}
	}
	return upper
}
