package metrics

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtract(t *testing.T) {
	t.Run("Backtesting Style Output", func(t *testing.T) {
		raw := `
Start                     2023-01-01 00:00:00
End                       2024-01-01 00:00:00
Return [%]                     42.51
Max. Drawdown [%]             -18.32
# Trades                          87
Win Rate [%]                   56.3
Sharpe Ratio                    1.85
`
		got := Extract(raw)
		assert.InDelta(t, 42.51, got[MetricReturn], 1e-9)
		assert.InDelta(t, -18.32, got[MetricMaxDrawdown], 1e-9)
		assert.InDelta(t, 87, got[MetricTrades], 1e-9)
		assert.InDelta(t, 56.3, got[MetricWinRate], 1e-9)
		assert.InDelta(t, 1.85, got[MetricSharpe], 1e-9)
	})

	t.Run("Empty Text", func(t *testing.T) {
		assert.Empty(t, Extract(""))
	})

	t.Run("Partial Match", func(t *testing.T) {
		got := Extract("Sharpe Ratio 2.10\nno other stats here")
		assert.Len(t, got, 1)
		assert.InDelta(t, 2.10, got[MetricSharpe], 1e-9)
		_, hasReturn := got[MetricReturn]
		assert.False(t, hasReturn)
	})

	t.Run("Case Insensitive", func(t *testing.T) {
		got := Extract("SHARPE RATIO 0.95")
		assert.InDelta(t, 0.95, got[MetricSharpe], 1e-9)
	})

	t.Run("Alternate Phrasings", func(t *testing.T) {
		got := Extract("Total Return was 12.5%\nNumber of trades executed: 31\nWin Rate came to 48.2%")
		assert.InDelta(t, 12.5, got[MetricReturn], 1e-9)
		assert.InDelta(t, 31, got[MetricTrades], 1e-9)
		assert.InDelta(t, 48.2, got[MetricWinRate], 1e-9)
	})

	t.Run("Negative Values", func(t *testing.T) {
		got := Extract("Return [%] -7.4\nSharpe Ratio -0.31")
		assert.InDelta(t, -7.4, got[MetricReturn], 1e-9)
		assert.InDelta(t, -0.31, got[MetricSharpe], 1e-9)
	})

	t.Run("Missing Metric Stays Absent", func(t *testing.T) {
		got := Extract("# Trades 12")
		_, ok := got[MetricWinRate]
		assert.False(t, ok)
		assert.InDelta(t, 12, got[MetricTrades], 1e-9)
	})
}

func TestNames(t *testing.T) {
	assert.Equal(t, []string{MetricReturn, MetricSharpe, MetricMaxDrawdown, MetricTrades, MetricWinRate}, Names())
}
