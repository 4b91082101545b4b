package analyze

import (
	"os"
	"path/filepath"
	"testing"

	"assetmatrix/internal/tester"

	"github.com/stretchr/testify/assert"
)

func writeJSON(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "results.json")
	assert.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	t.Run("Document With Results Key", func(t *testing.T) {
		path := writeJSON(t, `{
  "strategy": "momentum",
  "timestamp": "2026-08-30T10:00:00Z",
  "results": [
    {"strategy": "momentum", "asset": "BTC-USD", "status": "success",
     "metrics": {"sharpe": 1.85, "return": 42.5}},
    {"strategy": "momentum", "asset": "ETH-USD", "status": "failed", "error": "boom"}
  ]
}`)
		loaded, err := Load(path)
		assert.NoError(t, err)
		assert.Equal(t, "momentum", loaded.Strategy)
		assert.Equal(t, 2026, loaded.Timestamp.Year())
		assert.Len(t, loaded.Results, 2)
		assert.InDelta(t, 1.85, loaded.Results[0].Metrics["sharpe"], 1e-9)
		assert.Equal(t, tester.StatusFailed, loaded.Results[1].Status)
	})

	t.Run("Root Array Export", func(t *testing.T) {
		path := writeJSON(t, `[
  {"strategy_name": "breakout", "asset": "SOL-USD", "status": "success", "metrics": {"sharpe": 0.9}}
]`)
		loaded, err := Load(path)
		assert.NoError(t, err)
		assert.Len(t, loaded.Results, 1)
		assert.Equal(t, "breakout", loaded.Results[0].Strategy)
		assert.Equal(t, "breakout", loaded.Strategy)
	})

	t.Run("Missing Fields Tolerated", func(t *testing.T) {
		path := writeJSON(t, `{"results": [{"asset": "X"}]}`)
		loaded, err := Load(path)
		assert.NoError(t, err)
		assert.Len(t, loaded.Results, 1)
		assert.Equal(t, tester.StatusUnknown, loaded.Results[0].Status)
		assert.Empty(t, loaded.Results[0].Metrics)
	})

	t.Run("Non Numeric Metric Skipped", func(t *testing.T) {
		path := writeJSON(t, `{"results": [{"asset": "X", "status": "success", "metrics": {"sharpe": "oops", "return": 3.0}}]}`)
		loaded, err := Load(path)
		assert.NoError(t, err)
		m := loaded.Results[0].Metrics
		_, hasSharpe := m["sharpe"]
		assert.False(t, hasSharpe)
		assert.InDelta(t, 3.0, m["return"], 1e-9)
	})

	t.Run("Invalid JSON", func(t *testing.T) {
		path := writeJSON(t, `{not json`)
		_, err := Load(path)
		assert.Error(t, err)
	})

	t.Run("Missing File", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "nope.json"))
		assert.Error(t, err)
	})
}
