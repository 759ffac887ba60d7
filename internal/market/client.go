// Package market polls a CoinGecko-compatible API for the asset's price in
// the configured quote currencies.
package market

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/tidwall/gjson"

	"github.com/kostyay/kaspamon/internal/config"
	"github.com/kostyay/kaspamon/internal/model"
)

// maxBodySize caps how much of a response is read. The catalog is a few MB.
const maxBodySize = 32 << 20

// ErrorKind classifies a failed fetch.
type ErrorKind int

const (
	ErrNetwork ErrorKind = iota // transport failure or timeout
	ErrStatus                   // non-2xx response
	ErrDecode                   // malformed or unexpected payload
)

// String returns a human-readable name for the ErrorKind.
func (k ErrorKind) String() string {
	switch k {
	case ErrStatus:
		return "status"
	case ErrDecode:
		return "decode"
	default:
		return "network"
	}
}

// FetchError is returned by every Client call that fails.
type FetchError struct {
	Kind       ErrorKind
	StatusCode int // set for ErrStatus
	Err        error
}

func (e *FetchError) Error() string {
	if e.Kind == ErrStatus {
		return fmt.Sprintf("market %s error: http %d", e.Kind, e.StatusCode)
	}
	return fmt.Sprintf("market %s error: %v", e.Kind, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// Client talks to the market data HTTP API.
type Client struct {
	http            *http.Client
	asset           string
	priceEndpoint   string
	catalogEndpoint string
	timeout         time.Duration
}

// NewClient creates a client from the market settings. A nil httpClient uses
// http.DefaultClient.
func NewClient(cfg config.MarketSettings, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		http:            httpClient,
		asset:           strings.ToLower(cfg.Asset),
		priceEndpoint:   cfg.PriceEndpoint,
		catalogEndpoint: cfg.CatalogEndpoint,
		timeout:         cfg.Timeout,
	}
}

// PriceURL builds the simple price request for currencies.
func (c *Client) PriceURL(currencies []string) (string, error) {
	u, err := url.Parse(c.priceEndpoint)
	if err != nil {
		return "", fmt.Errorf("parse price endpoint: %w", err)
	}
	codes := make([]string, 0, len(currencies))
	for _, cur := range currencies {
		codes = append(codes, strings.ToLower(strings.TrimSpace(cur)))
	}

	q := u.Query()
	q.Set("ids", c.asset)
	q.Set("vs_currencies", strings.Join(codes, ","))
	q.Set("include_market_cap", "true")
	q.Set("include_24hr_vol", "true")
	q.Set("include_24hr_change", "true")
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// Prices fetches the current figures for currencies.
func (c *Client) Prices(ctx context.Context, currencies []string) (model.CurrencyPriceMap, error) {
	reqURL, err := c.PriceURL(currencies)
	if err != nil {
		return nil, &FetchError{Kind: ErrNetwork, Err: err}
	}

	body, err := c.get(ctx, reqURL)
	if err != nil {
		return nil, err
	}
	return c.decodePrices(body)
}

// decodePrices accepts the nested {"<asset>": {...}} shape and the flat
// {"<asset>_<currency>...": n} shape. Non-numeric values are skipped. A body
// that yields no currency at all is a decode failure.
func (c *Client) decodePrices(body []byte) (model.CurrencyPriceMap, error) {
	if !gjson.ValidBytes(body) {
		return nil, &FetchError{Kind: ErrDecode, Err: errors.New("invalid json")}
	}
	root := gjson.ParseBytes(body)
	if !root.IsObject() {
		return nil, &FetchError{Kind: ErrDecode, Err: fmt.Errorf("expected object, got %s", root.Type)}
	}

	source := root
	root.ForEach(func(key, value gjson.Result) bool {
		if strings.EqualFold(key.String(), c.asset) && value.IsObject() {
			source = value
			return false
		}
		return true
	})

	flat := make(map[string]float64)
	source.ForEach(func(key, value gjson.Result) bool {
		if value.Type == gjson.Number {
			flat[key.String()] = value.Float()
		}
		return true
	})

	prices := GroupByCurrencyPrefix(c.asset, flat)
	if len(prices) == 0 {
		return nil, &FetchError{Kind: ErrDecode, Err: fmt.Errorf("no prices for %q in response", c.asset)}
	}
	return prices, nil
}

// ListAvailableCurrencies fetches the provider's asset catalog.
func (c *Client) ListAvailableCurrencies(ctx context.Context) ([]model.CurrencyDescriptor, error) {
	body, err := c.get(ctx, c.catalogEndpoint)
	if err != nil {
		return nil, err
	}

	var list []model.CurrencyDescriptor
	if err := jsoniter.ConfigCompatibleWithStandardLibrary.Unmarshal(body, &list); err != nil {
		return nil, &FetchError{Kind: ErrDecode, Err: err}
	}
	return list, nil
}

func (c *Client) get(ctx context.Context, reqURL string) ([]byte, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, &FetchError{Kind: ErrNetwork, Err: err}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &FetchError{Kind: ErrNetwork, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &FetchError{Kind: ErrStatus, StatusCode: resp.StatusCode, Err: fmt.Errorf("unexpected status %s", resp.Status)}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, &FetchError{Kind: ErrNetwork, Err: err}
	}
	return body, nil
}
