package yahoo

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/dipwatch/dipwatch/internal/market"
	"github.com/dipwatch/dipwatch/pkg/config"
	"github.com/dipwatch/dipwatch/pkg/httputil"
	"github.com/dipwatch/dipwatch/pkg/logger"
)

// Client scrapes quote and key-statistics pages from Yahoo Finance.
// It is the fallback provider for deployments without an Alpha Vantage
// key; page markup changes can silently drop individual metrics, which
// downstream code tolerates as missing fields.
type Client struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	baseURL    string
}

func NewClient(cfg config.YahooConfig, httpClient *httputil.Client, log *logger.Logger) *Client {
	return &Client{
		httpClient: httpClient,
		logger:     log.WithField("component", "yahoo"),
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
	}
}

// Fetch implements market.Provider.
func (c *Client) Fetch(ctx context.Context, ticker string) (*market.Quote, error) {
	quoteDoc, err := c.fetchPage(ctx, fmt.Sprintf("%s/quote/%s", c.baseURL, ticker))
	if err != nil {
		return nil, err
	}

	quote := &market.Quote{Ticker: ticker}
	c.parseQuotePage(quoteDoc, ticker, quote)

	if quote.LastPrice == nil {
		// Delisted or unknown tickers render a lookup page with no
		// price streamer.
		c.logger.WithField("ticker", ticker).Debug("no price on quote page, skipping")
		return nil, nil
	}

	statsDoc, err := c.fetchPage(ctx, fmt.Sprintf("%s/quote/%s/key-statistics", c.baseURL, ticker))
	if err != nil {
		c.logger.WithError(err).WithField("ticker", ticker).Warn("key statistics unavailable, keeping price-only quote")
		return quote, nil
	}
	c.parseStatistics(statsDoc, quote)

	if change, err := c.fetchWeeklyChange(ctx, ticker); err != nil {
		c.logger.WithError(err).WithField("ticker", ticker).Debug("weekly change unavailable")
	} else {
		quote.WeeklyChange = change
	}

	return quote, nil
}

// chartResponse is the subset of the chart API payload needed to
// compute a trailing-week price change.
type chartResponse struct {
	Chart struct {
		Result []struct {
			Indicators struct {
				Quote []struct {
					Close []*float64 `json:"close"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
	} `json:"chart"`
}

// fetchWeeklyChange reads five trading days of closes and returns the
// fractional change from the oldest close to the newest.
func (c *Client) fetchWeeklyChange(ctx context.Context, ticker string) (*float64, error) {
	resp, err := c.httpClient.Get(ctx, fmt.Sprintf("%s/v8/finance/chart/%s?range=5d&interval=1d", c.baseURL, ticker))
	if err != nil {
		return nil, fmt.Errorf("yahoo chart request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		return nil, fmt.Errorf("yahoo chart returned status %d", resp.StatusCode)
	}

	var parsed chartResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("failed to parse yahoo chart response: %w", err)
	}

	if len(parsed.Chart.Result) == 0 || len(parsed.Chart.Result[0].Indicators.Quote) == 0 {
		return nil, nil
	}

	var closes []float64
	for _, v := range parsed.Chart.Result[0].Indicators.Quote[0].Close {
		if v != nil {
			closes = append(closes, *v)
		}
	}
	if len(closes) < 2 || closes[0] == 0 {
		return nil, nil
	}

	change := (closes[len(closes)-1] - closes[0]) / closes[0]
	return &change, nil
}

func (c *Client) fetchPage(ctx context.Context, pageURL string) (*goquery.Document, error) {
	resp, err := c.httpClient.Get(ctx, pageURL)
	if err != nil {
		return nil, fmt.Errorf("yahoo request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		return nil, fmt.Errorf("yahoo returned status %d for %s", resp.StatusCode, pageURL)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse yahoo page: %w", err)
	}

	return doc, nil
}

func (c *Client) parseQuotePage(doc *goquery.Document, ticker string, quote *market.Quote) {
	doc.Find(fmt.Sprintf(`fin-streamer[data-symbol="%s"]`, ticker)).Each(func(_ int, s *goquery.Selection) {
		field, _ := s.Attr("data-field")
		value, ok := s.Attr("value")
		if !ok {
			value = s.Text()
		}
		if field == "regularMarketPrice" {
			quote.LastPrice = parseNumber(value)
		}
	})

	if name := strings.TrimSpace(doc.Find("h1").First().Text()); name != "" {
		// The heading reads "Company Name (TICKER)".
		if idx := strings.LastIndex(name, "("); idx > 0 {
			name = strings.TrimSpace(name[:idx])
		}
		quote.CompanyName = &name
	}

	c.eachLabeledValue(doc, func(label, value string) {
		if strings.EqualFold(label, "52 Week Range") {
			low, high := parseRange(value)
			quote.Low52W = low
			quote.High52W = high
		}
	})
}

func (c *Client) parseStatistics(doc *goquery.Document, quote *market.Quote) {
	c.eachLabeledValue(doc, func(label, value string) {
		switch {
		case strings.HasPrefix(label, "Trailing P/E"), strings.HasPrefix(label, "PE Ratio"):
			if quote.PERatio == nil {
				quote.PERatio = parseNumber(value)
			}
		case strings.HasPrefix(label, "Price/Book"):
			if quote.PBRatio == nil {
				quote.PBRatio = parseNumber(value)
			}
		case strings.HasPrefix(label, "Return on Equity"):
			if quote.ROE == nil {
				quote.ROE = parsePercent(value)
			}
		case strings.HasPrefix(label, "Profit Margin"):
			if quote.ProfitMargin == nil {
				quote.ProfitMargin = parsePercent(value)
			}
		case strings.HasPrefix(label, "Total Debt/Equity"):
			if quote.DebtToEquity == nil {
				// Yahoo reports this as a percentage (e.g. 41.77%).
				quote.DebtToEquity = parsePercent(value)
			}
		}
	})
}

// eachLabeledValue walks every two-cell table row, yielding the label
// and value text. Both the quote summary and key-statistics pages use
// this layout.
func (c *Client) eachLabeledValue(doc *goquery.Document, fn func(label, value string)) {
	doc.Find("tr").Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() < 2 {
			return
		}
		label := strings.TrimSpace(cells.First().Text())
		value := strings.TrimSpace(cells.Eq(cells.Length() - 1).Text())
		if label != "" && value != "" {
			fn(label, value)
		}
	})
}

// parseNumber handles Yahoo's display formatting: thousands separators
// and "N/A" placeholders.
func parseNumber(s string) *float64 {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", ""))
	if s == "" || s == "N/A" || s == "--" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &v
}

// parsePercent converts "23.45%" to the fraction 0.2345.
func parsePercent(s string) *float64 {
	s = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "%"))
	v := parseNumber(s)
	if v == nil {
		return nil
	}
	frac := *v / 100
	return &frac
}

// parseRange splits "65.00 - 100.00" into its endpoints.
func parseRange(s string) (low, high *float64) {
	parts := strings.Split(s, "-")
	if len(parts) != 2 {
		return nil, nil
	}
	return parseNumber(parts[0]), parseNumber(parts[1])
}
