package alphavantage

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dipwatch/dipwatch/pkg/config"
	"github.com/dipwatch/dipwatch/pkg/httputil"
	"github.com/dipwatch/dipwatch/pkg/logger"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	cfg := &config.Config{Env: "test", LogLevel: "error"}
	log := logger.New(cfg)

	client := NewClient(config.AlphaVantageConfig{
		APIKey:            "test-key",
		BaseURL:           server.URL,
		RequestsPerMinute: 600,
	}, httputil.New(cfg, log).DisableRetry(), log)

	return client, server
}

func TestRequestsHitTheQueryPath(t *testing.T) {
	var paths []string
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		w.Write([]byte(`{}`))
	})

	_, err := client.Fetch(context.Background(), "TEST")
	require.NoError(t, err)

	require.Len(t, paths, 2)
	for _, p := range paths {
		assert.Equal(t, "/query", p)
	}
}

func TestFetchParsesQuoteAndOverview(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("function") {
		case "GLOBAL_QUOTE":
			w.Write([]byte(`{"Global Quote": {"05. price": "70.0000"}}`))
		case "OVERVIEW":
			w.Write([]byte(`{
				"Name": "Test Corp",
				"Sector": "Technology",
				"PERatio": "8.2",
				"ReturnOnEquityTTM": "0.28",
				"ProfitMargin": "0.22",
				"DebtToEquityRatio": "0.4",
				"52WeekHigh": "100.00",
				"52WeekLow": "65.00"
			}`))
		}
	})

	quote, err := client.Fetch(context.Background(), "TEST")
	require.NoError(t, err)
	require.NotNil(t, quote)

	assert.Equal(t, "TEST", quote.Ticker)
	require.NotNil(t, quote.LastPrice)
	assert.Equal(t, 70.0, *quote.LastPrice)
	require.NotNil(t, quote.High52W)
	assert.Equal(t, 100.0, *quote.High52W)
	require.NotNil(t, quote.PERatio)
	assert.Equal(t, 8.2, *quote.PERatio)
	require.NotNil(t, quote.DebtToEquity)
	assert.Equal(t, 0.4, *quote.DebtToEquity)
	require.NotNil(t, quote.CompanyName)
	assert.Equal(t, "Test Corp", *quote.CompanyName)
	assert.Nil(t, quote.WeeklyChange)
}

func TestFetchUnknownSymbolReturnsNil(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("function") {
		case "GLOBAL_QUOTE":
			w.Write([]byte(`{"Global Quote": {}}`))
		case "OVERVIEW":
			w.Write([]byte(`{}`))
		}
	})

	quote, err := client.Fetch(context.Background(), "NOPE")
	require.NoError(t, err)
	assert.Nil(t, quote)
}

func TestFetchThrottleNoteIsAnError(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("function") {
		case "GLOBAL_QUOTE":
			w.Write([]byte(`{"Global Quote": {"05. price": "70.0000"}}`))
		case "OVERVIEW":
			w.Write([]byte(`{"Note": "Thank you for using Alpha Vantage! Our standard API rate limit is 5 requests per minute."}`))
		}
	})

	_, err := client.Fetch(context.Background(), "TEST")
	assert.Error(t, err)
}

func TestParseFloatHandlesSentinels(t *testing.T) {
	assert.Nil(t, parseFloat("None"))
	assert.Nil(t, parseFloat("-"))
	assert.Nil(t, parseFloat(""))
	assert.Nil(t, parseFloat("not a number"))

	v := parseFloat("12.5")
	require.NotNil(t, v)
	assert.Equal(t, 12.5, *v)
}

func TestDebtToEquityPercentageNormalized(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("function") {
		case "GLOBAL_QUOTE":
			w.Write([]byte(`{"Global Quote": {"05. price": "50.00"}}`))
		case "OVERVIEW":
			w.Write([]byte(`{"Name": "Leveraged Inc", "DebtToEquityRatio": "145.0"}`))
		}
	})

	quote, err := client.Fetch(context.Background(), "LEV")
	require.NoError(t, err)
	require.NotNil(t, quote.DebtToEquity)
	assert.InDelta(t, 1.45, *quote.DebtToEquity, 1e-9)
}
