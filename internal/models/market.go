package models

import "time"

// Source tags attached to aggregate fields
const (
	SourceFallback    = "fallback"
	SourceUnavailable = "unavailable"
)

// Indicator is a single economic series value with provenance
type Indicator struct {
	Value  *float64 `json:"value"`
	Date   string   `json:"date,omitempty"`
	Source string   `json:"source"`
}

// EconomicIndicators is a point-in-time macro snapshot
type EconomicIndicators struct {
	CPI              Indicator `json:"cpi"`
	InterestRate     Indicator `json:"interestRate"`
	UnemploymentRate Indicator `json:"unemploymentRate"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

// IndexQuote is a market index level with an optional sparkline
type IndexQuote struct {
	Value         *float64  `json:"value"`
	Change        *float64  `json:"change"`
	ChangePercent *float64  `json:"changePercent"`
	Sparkline     []float64 `json:"sparkline,omitempty"`
	Source        string    `json:"source"`
}

// MarketIndices is a point-in-time snapshot of the headline indices
type MarketIndices struct {
	SP500     IndexQuote `json:"sp500"`
	VIX       IndexQuote `json:"vix"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

// PricePoint is one end-of-day close
type PricePoint struct {
	Date   string  `json:"date"`
	Close  float64 `json:"close"`
	Volume int64   `json:"volume"`
}

// StockQuote is the live quote section of a stock bundle
type StockQuote struct {
	Price         *float64 `json:"price"`
	Change        *float64 `json:"change"`
	ChangePercent *float64 `json:"changePercent"`
	Volume        *float64 `json:"volume"`
	Source        string   `json:"source"`
}

// Technicals are indicators derived from daily closes
type Technicals struct {
	RSI14         *float64 `json:"rsi14"`
	SMA20         *float64 `json:"sma20"`
	SMA50         *float64 `json:"sma50"`
	MACD          *float64 `json:"macd"`
	MACDSignal    *float64 `json:"macdSignal"`
	MACDHistogram *float64 `json:"macdHistogram"`
	Volatility    *float64 `json:"volatility"` // annualised stddev of daily returns, percent
	Source        string   `json:"source"`
}

// StockEvaluation is the AI (or heuristic) read on a symbol
type StockEvaluation struct {
	Sentiment string `json:"sentiment" validate:"required,oneof=positive negative neutral"`
	Summary   string `json:"summary" validate:"required"`
	Source    string `json:"source"`
}

// StockBundle aggregates everything known about one symbol
type StockBundle struct {
	Symbol     string           `json:"symbol"`
	Quote      StockQuote       `json:"quote"`
	News       []NewsArticle    `json:"news"`
	NewsSource string           `json:"newsSource"`
	Evaluation *StockEvaluation `json:"evaluation"`
	Technicals Technicals       `json:"technicals"`
	UpdatedAt  time.Time        `json:"updatedAt"`
}
