package alphavantage

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/dipwatch/dipwatch/internal/market"
	"github.com/dipwatch/dipwatch/pkg/config"
	"github.com/dipwatch/dipwatch/pkg/httputil"
	"github.com/dipwatch/dipwatch/pkg/logger"
)

// Client fetches quotes and fundamentals from the Alpha Vantage API.
// The free tier allows 5 requests per minute, so every call waits on a
// local limiter before going out.
type Client struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	apiKey     string
	baseURL    string
	limiter    *rate.Limiter
}

func NewClient(cfg config.AlphaVantageConfig, httpClient *httputil.Client, log *logger.Logger) *Client {
	rpm := cfg.RequestsPerMinute
	if rpm <= 0 {
		rpm = 5
	}
	return &Client{
		httpClient: httpClient,
		logger:     log.WithField("component", "alphavantage"),
		apiKey:     cfg.APIKey,
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		limiter:    rate.NewLimiter(rate.Every(time.Minute/time.Duration(rpm)), 1),
	}
}

// globalQuote mirrors the GLOBAL_QUOTE payload. All values arrive as
// strings and some are "None" or "-" when unknown.
type globalQuote struct {
	Quote struct {
		Price string `json:"05. price"`
	} `json:"Global Quote"`
}

type overview struct {
	Name             string `json:"Name"`
	Sector           string `json:"Sector"`
	Industry         string `json:"Industry"`
	PERatio          string `json:"PERatio"`
	PriceToBookRatio string `json:"PriceToBookRatio"`
	ReturnOnEquity   string `json:"ReturnOnEquityTTM"`
	ProfitMargin     string `json:"ProfitMargin"`
	DebtToEquity     string `json:"DebtToEquityRatio"`
	High52Week       string `json:"52WeekHigh"`
	Low52Week        string `json:"52WeekLow"`
	Note             string `json:"Note"`
}

// Fetch implements market.Provider. A ticker Alpha Vantage does not
// know yields (nil, nil) so the refresher can skip it without failing
// the run.
func (c *Client) Fetch(ctx context.Context, ticker string) (*market.Quote, error) {
	price, err := c.fetchQuote(ctx, ticker)
	if err != nil {
		return nil, err
	}

	ov, err := c.fetchOverview(ctx, ticker)
	if err != nil {
		return nil, err
	}

	if price == nil && ov == nil {
		c.logger.WithField("ticker", ticker).Debug("no data returned, skipping")
		return nil, nil
	}

	quote := &market.Quote{
		Ticker:    ticker,
		LastPrice: price,
	}
	if ov != nil {
		quote.CompanyName = optionalString(ov.Name)
		quote.Sector = optionalString(ov.Sector)
		quote.Industry = optionalString(ov.Industry)
		quote.PERatio = parseFloat(ov.PERatio)
		quote.PBRatio = parseFloat(ov.PriceToBookRatio)
		quote.ROE = parseFloat(ov.ReturnOnEquity)
		quote.ProfitMargin = parseFloat(ov.ProfitMargin)
		quote.High52W = parseFloat(ov.High52Week)
		quote.Low52W = parseFloat(ov.Low52Week)
		// Alpha Vantage reports debt/equity as a percentage-style ratio
		// on some listings; values above 10 are treated as percentages.
		if de := parseFloat(ov.DebtToEquity); de != nil {
			v := *de
			if v > 10 {
				v = v / 100
			}
			quote.DebtToEquity = &v
		}
	}

	return quote, nil
}

func (c *Client) fetchQuote(ctx context.Context, ticker string) (*float64, error) {
	body, err := c.get(ctx, url.Values{
		"function": {"GLOBAL_QUOTE"},
		"symbol":   {ticker},
		"apikey":   {c.apiKey},
	})
	if err != nil {
		return nil, err
	}

	var parsed globalQuote
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse GLOBAL_QUOTE for %s: %w", ticker, err)
	}

	return parseFloat(parsed.Quote.Price), nil
}

func (c *Client) fetchOverview(ctx context.Context, ticker string) (*overview, error) {
	body, err := c.get(ctx, url.Values{
		"function": {"OVERVIEW"},
		"symbol":   {ticker},
		"apikey":   {c.apiKey},
	})
	if err != nil {
		return nil, err
	}

	var parsed overview
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse OVERVIEW for %s: %w", ticker, err)
	}

	if parsed.Note != "" {
		return nil, fmt.Errorf("alpha vantage throttled the request: %s", parsed.Note)
	}
	if parsed.Name == "" {
		// Unknown symbols come back as an empty object.
		return nil, nil
	}

	return &parsed, nil
}

func (c *Client) get(ctx context.Context, params url.Values) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter wait failed: %w", err)
	}

	resp, err := c.httpClient.Get(ctx, c.baseURL+"/query?"+params.Encode())
	if err != nil {
		return nil, fmt.Errorf("alpha vantage request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		return nil, fmt.Errorf("alpha vantage returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read alpha vantage response: %w", err)
	}

	return body, nil
}

// parseFloat converts Alpha Vantage's stringly-typed numbers. "None",
// "-" and empty strings all mean the metric is unavailable.
func parseFloat(s string) *float64 {
	s = strings.TrimSpace(s)
	if s == "" || s == "None" || s == "-" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &v
}

func optionalString(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" || s == "None" {
		return nil
	}
	return &s
}
