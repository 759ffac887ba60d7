package market

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kostyay/kaspamon/internal/config"
	"github.com/kostyay/kaspamon/internal/model"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := config.DefaultSettings().Market
	cfg.PriceEndpoint = srv.URL + "/simple/price"
	cfg.CatalogEndpoint = srv.URL + "/coins/list"
	cfg.Timeout = time.Second
	return NewClient(cfg, srv.Client()), srv
}

func TestClient_PriceURL(t *testing.T) {
	c := NewClient(config.DefaultSettings().Market, nil)
	got, err := c.PriceURL([]string{"USD", " cny "})
	require.NoError(t, err)
	assert.Equal(t, "https://api.coingecko.com/api/v3/simple/price?ids=kaspa"+
		"&include_24hr_change=true&include_24hr_vol=true&include_market_cap=true"+
		"&vs_currencies=usd%2Ccny", got)
}

func TestClient_Prices_Nested(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/simple/price", r.URL.Path)
		assert.Equal(t, "kaspa", r.URL.Query().Get("ids"))
		assert.Equal(t, "usd,btc", r.URL.Query().Get("vs_currencies"))
		_, _ = w.Write([]byte(`{"kaspa":{"usd":0.137,"usd_market_cap":2954668910,"usd_24h_change":null,"btc":0.0000031}}`))
	})

	prices, err := c.Prices(context.Background(), []string{"usd", "btc"})
	require.NoError(t, err)
	assert.Equal(t, model.CurrencyPriceMap{
		"usd": {Price: model.Ptr(0.137), MarketCap: model.Ptr(2954668910.0)},
		"btc": {Price: model.Ptr(0.0000031)},
	}, prices)
}

func TestClient_Prices_FlatPayload(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"kaspa_usd": 0.05, "kaspa_usd_market_cap": 1000000.0}`))
	})

	prices, err := c.Prices(context.Background(), []string{"usd"})
	require.NoError(t, err)
	assert.Equal(t, model.CurrencyPriceMap{
		"usd": {Price: model.Ptr(0.05), MarketCap: model.Ptr(1000000.0)},
	}, prices)
	assert.Nil(t, prices["usd"].Volume)
	assert.Nil(t, prices["usd"].Change)
}

func TestClient_Prices_Errors(t *testing.T) {
	tests := []struct {
		name       string
		handler    http.HandlerFunc
		wantKind   ErrorKind
		wantStatus int
	}{
		{
			name: "non-2xx",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusTooManyRequests)
			},
			wantKind:   ErrStatus,
			wantStatus: http.StatusTooManyRequests,
		},
		{
			name: "malformed json",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{"kaspa":`))
			},
			wantKind: ErrDecode,
		},
		{
			name: "object without asset",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{"status":{"error_code":429,"error_message":"rate limited"}}`))
			},
			wantKind: ErrDecode,
		},
		{
			name: "asset without prices",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{"kaspa":{}}`))
			},
			wantKind: ErrDecode,
		},
		{
			name: "array payload",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`[1,2,3]`))
			},
			wantKind: ErrDecode,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newTestClient(t, tt.handler)
			_, err := c.Prices(context.Background(), []string{"usd"})
			require.Error(t, err)

			var fe *FetchError
			require.True(t, errors.As(err, &fe))
			assert.Equal(t, tt.wantKind, fe.Kind)
			assert.Equal(t, tt.wantStatus, fe.StatusCode)
		})
	}
}

func TestClient_Prices_NetworkError(t *testing.T) {
	c, srv := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {})
	srv.Close()

	_, err := c.Prices(context.Background(), []string{"usd"})
	var fe *FetchError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, ErrNetwork, fe.Kind)
}

func TestClient_Prices_Timeout(t *testing.T) {
	release := make(chan struct{})
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	})
	defer close(release)
	c.timeout = 50 * time.Millisecond

	_, err := c.Prices(context.Background(), []string{"usd"})
	var fe *FetchError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, ErrNetwork, fe.Kind)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestClient_ListAvailableCurrencies(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/coins/list", r.URL.Path)
		_, _ = w.Write([]byte(`[{"id":"01coin","symbol":"zoc","name":"01coin"},{"id":"kaspa","symbol":"kas","name":"Kaspa"}]`))
	})

	list, err := c.ListAvailableCurrencies(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []model.CurrencyDescriptor{
		{ID: "01coin", Symbol: "zoc", Name: "01coin"},
		{ID: "kaspa", Symbol: "kas", Name: "Kaspa"},
	}, list)
}

func TestClient_ListAvailableCurrencies_Decode(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"error":"nope"}`))
	})

	_, err := c.ListAvailableCurrencies(context.Background())
	var fe *FetchError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, ErrDecode, fe.Kind)
}
