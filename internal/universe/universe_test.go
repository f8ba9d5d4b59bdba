package universe

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassOf(t *testing.T) {
	tests := []struct {
		ticker string
		want   AssetClass
	}{
		{"SPY", ClassETF},
		{"GLD", ClassCommodity},
		{"BTC-USD", ClassCrypto},
		{"AAPL", ClassStock},
		{"ZZZZ", ClassStock}, // unregistered tickers default to equity
	}

	for _, tt := range tests {
		t.Run(tt.ticker, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassOf(tt.ticker))
		})
	}
}

func TestAllStocksDeduplicated(t *testing.T) {
	stocks := AllStocks()

	seen := make(map[string]bool)
	for _, ticker := range stocks {
		assert.False(t, seen[ticker], "duplicate ticker %s", ticker)
		seen[ticker] = true
	}

	// META appears in both Technology and Communication Services
	assert.True(t, seen["META"])
}

func TestStocksForIndustries(t *testing.T) {
	stocks := StocksForIndustries([]string{"Energy"})
	assert.Contains(t, stocks, "XOM")
	assert.NotContains(t, stocks, "AAPL")

	// Unknown industries contribute nothing
	assert.Empty(t, StocksForIndustries([]string{"Alchemy"}))
}

func TestForPreferences(t *testing.T) {
	t.Run("industries restrict equities only", func(t *testing.T) {
		tickers := ForPreferences(
			[]AssetClass{ClassStock, ClassCrypto},
			[]string{"Technology"},
		)

		assert.Contains(t, tickers, "AAPL")
		assert.Contains(t, tickers, "BTC-USD") // crypto survives the industry filter
		assert.NotContains(t, tickers, "XOM")  // non-tech equity excluded
	})

	t.Run("all classes no industries", func(t *testing.T) {
		tickers := ForPreferences(AllClasses, nil)
		assert.Contains(t, tickers, "AAPL")
		assert.Contains(t, tickers, "SPY")
		assert.Contains(t, tickers, "GLD")
		assert.Contains(t, tickers, "ETH-USD")
	})

	t.Run("empty selection falls back to default equities", func(t *testing.T) {
		tickers := ForPreferences(nil, nil)
		assert.Equal(t, AllStocks(), tickers)
	})

	t.Run("result is sorted for stable scan order", func(t *testing.T) {
		tickers := ForPreferences(AllClasses, nil)
		assert.IsIncreasing(t, tickers)
	})
}
