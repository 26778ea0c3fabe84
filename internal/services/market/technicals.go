package market

import (
	"math"

	"github.com/markcheno/go-talib"
	"gonum.org/v1/gonum/stat"

	"github.com/ternarybob/marketpulse/internal/eodhd"
	"github.com/ternarybob/marketpulse/internal/models"
)

const (
	rsiPeriod     = 14
	macdFast      = 12
	macdSlow      = 26
	macdSignal    = 9
	tradingDays   = 252
	TechnicalDays = 120
)

// ComputeTechnicals derives indicators from daily closes, oldest first.
// An indicator without enough history is left nil.
func ComputeTechnicals(points []models.PricePoint) models.Technicals {
	out := models.Technicals{Source: eodhd.ProviderName}
	c := closes(points)

	if len(c) > rsiPeriod {
		out.RSI14 = last(talib.Rsi(c, rsiPeriod))
	}
	if len(c) >= 20 {
		out.SMA20 = last(talib.Sma(c, 20))
	}
	if len(c) >= 50 {
		out.SMA50 = last(talib.Sma(c, 50))
	}
	if len(c) >= macdSlow+macdSignal {
		macd, signal, hist := talib.Macd(c, macdFast, macdSlow, macdSignal)
		out.MACD = last(macd)
		out.MACDSignal = last(signal)
		out.MACDHistogram = last(hist)
	}
	out.Volatility = volatility(c)

	return out
}

// volatility is the annualised standard deviation of daily log returns, in percent
func volatility(c []float64) *float64 {
	if len(c) < 3 {
		return nil
	}
	returns := make([]float64, 0, len(c)-1)
	for i := 1; i < len(c); i++ {
		if c[i-1] <= 0 || c[i] <= 0 {
			continue
		}
		returns = append(returns, math.Log(c[i]/c[i-1]))
	}
	if len(returns) < 2 {
		return nil
	}
	v := round(stat.StdDev(returns, nil)*math.Sqrt(tradingDays)*100, 2)
	return &v
}

func last(values []float64) *float64 {
	if len(values) == 0 {
		return nil
	}
	v := values[len(values)-1]
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	v = round(v, 4)
	return &v
}

func round(value float64, places int) float64 {
	mult := math.Pow(10, float64(places))
	return math.Round(value*mult) / mult
}
