// Package universe defines the tracked instrument universe: which
// tickers exist, what asset class each belongs to, and how a user's
// preferences carve out the subset they get scanned against.
package universe

import "sort"

// AssetClass identifies the investment type of a ticker.
type AssetClass string

const (
	ClassStock     AssetClass = "Stocks"
	ClassETF       AssetClass = "ETFs"
	ClassCommodity AssetClass = "Commodities"
	ClassCrypto    AssetClass = "Crypto"
)

// AllClasses lists every supported asset class.
var AllClasses = []AssetClass{ClassStock, ClassETF, ClassCommodity, ClassCrypto}

// StocksBySector maps industry sectors to the equities scanned for them.
var StocksBySector = map[string][]string{
	"Technology":             {"AAPL", "MSFT", "GOOGL", "NVDA", "META", "AMZN", "CRM", "ADBE", "INTC", "AMD"},
	"Healthcare":             {"JNJ", "UNH", "PFE", "MRK", "ABBV", "LLY", "TMO", "ABT", "BMY", "AMGN"},
	"Financial Services":     {"JPM", "BAC", "WFC", "GS", "MS", "C", "BLK", "SCHW", "AXP", "V"},
	"Consumer Discretionary": {"TSLA", "HD", "MCD", "NKE", "SBUX", "LOW", "TJX", "BKNG", "CMG", "LULU"},
	"Consumer Staples":       {"PG", "KO", "PEP", "COST", "WMT", "PM", "MO", "CL", "MDLZ", "KHC"},
	"Industrials":            {"CAT", "HON", "UNP", "UPS", "BA", "GE", "MMM", "LMT", "RTX", "DE"},
	"Energy":                 {"XOM", "CVX", "COP", "SLB", "EOG", "MPC", "PSX", "VLO", "OXY", "KMI"},
	"Utilities":              {"NEE", "DUK", "SO", "D", "AEP", "EXC", "SRE", "XEL", "ED", "WEC"},
	"Real Estate":            {"AMT", "PLD", "CCI", "EQIX", "PSA", "SPG", "O", "WELL", "DLR", "AVB"},
	"Materials":              {"LIN", "APD", "SHW", "ECL", "FCX", "NEM", "NUE", "DOW", "DD", "PPG"},
	"Communication Services": {"GOOG", "META", "DIS", "NFLX", "CMCSA", "VZ", "T", "CHTR", "TMUS", "EA"},
}

// MajorETFs lists the tracked exchange-traded funds.
var MajorETFs = []string{
	// Broad market
	"SPY", "QQQ", "VTI", "IWM", "DIA", "VOO", "IVV", "VTV", "VUG", "MDY",
	// Sector
	"XLK", "XLF", "XLV", "XLE", "XLI", "XLY", "XLP", "XLU", "XLB", "XLRE", "XLC",
	// Thematic
	"ARKK", "SOXX", "IBB", "XBI", "SMH", "HACK", "ICLN", "TAN",
	// International
	"VEA", "VWO", "EFA", "EEM", "IEMG",
	// Bonds
	"TLT", "IEF", "BND", "LQD", "HYG", "AGG",
}

// Commodities lists commodity-tracking tickers.
var Commodities = []string{
	"GLD", "SLV", "USO", "UNG", "DBA", "CORN", "WEAT", "CPER", "PALL", "PPLT",
}

// Crypto lists tracked crypto assets (Yahoo Finance ticker format).
var Crypto = []string{
	"BTC-USD", "ETH-USD", "SOL-USD", "XRP-USD", "ADA-USD",
	"DOGE-USD", "AVAX-USD", "DOT-USD", "MATIC-USD", "LINK-USD",
}

// Industries lists the sectors users can restrict equities to.
var Industries = sectorNames()

func sectorNames() []string {
	names := make([]string, 0, len(StocksBySector))
	for sector := range StocksBySector {
		names = append(names, sector)
	}
	sort.Strings(names)
	return names
}

// AllStocks returns every tracked equity ticker, deduplicated and sorted.
func AllStocks() []string {
	set := make(map[string]bool)
	for _, tickers := range StocksBySector {
		for _, t := range tickers {
			set[t] = true
		}
	}
	return sortedKeys(set)
}

// StocksForIndustries returns equities belonging to the given sectors.
// Unknown sector names are ignored.
func StocksForIndustries(industries []string) []string {
	set := make(map[string]bool)
	for _, industry := range industries {
		for _, t := range StocksBySector[industry] {
			set[t] = true
		}
	}
	return sortedKeys(set)
}

// TickersForClass returns the full ticker list for one asset class.
func TickersForClass(class AssetClass) []string {
	switch class {
	case ClassStock:
		return AllStocks()
	case ClassETF:
		return append([]string(nil), MajorETFs...)
	case ClassCommodity:
		return append([]string(nil), Commodities...)
	case ClassCrypto:
		return append([]string(nil), Crypto...)
	default:
		return nil
	}
}

// AllTickers returns the complete tracked universe across all classes.
func AllTickers() []string {
	set := make(map[string]bool)
	for _, class := range AllClasses {
		for _, t := range TickersForClass(class) {
			set[t] = true
		}
	}
	return sortedKeys(set)
}

// ClassOf resolves the asset class of a ticker. Anything not registered
// as an ETF, commodity or crypto asset counts as an equity.
func ClassOf(ticker string) AssetClass {
	if etfSet[ticker] {
		return ClassETF
	}
	if commoditySet[ticker] {
		return ClassCommodity
	}
	if cryptoSet[ticker] {
		return ClassCrypto
	}
	return ClassStock
}

// ForPreferences derives the ticker universe a user gets scanned
// against: the union of their enabled asset classes, with the equities
// subset restricted to their chosen industries. Industry restrictions
// never remove non-equity classes.
//
// An empty result falls back to the full default equities universe so a
// configuration gap never silences alerts entirely.
func ForPreferences(classes []AssetClass, industries []string) []string {
	set := make(map[string]bool)

	for _, class := range classes {
		if class == ClassStock {
			stocks := AllStocks()
			if len(industries) > 0 {
				stocks = StocksForIndustries(industries)
			}
			for _, t := range stocks {
				set[t] = true
			}
			continue
		}
		for _, t := range TickersForClass(class) {
			set[t] = true
		}
	}

	if len(set) == 0 {
		return AllStocks()
	}

	return sortedKeys(set)
}

var (
	etfSet       = toSet(MajorETFs)
	commoditySet = toSet(Commodities)
	cryptoSet    = toSet(Crypto)
)

func toSet(tickers []string) map[string]bool {
	set := make(map[string]bool, len(tickers))
	for _, t := range tickers {
		set[t] = true
	}
	return set
}

func sortedKeys(set map[string]bool) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
