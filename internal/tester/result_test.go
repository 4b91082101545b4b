package tester

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDocument_Save(t *testing.T) {
	doc := &Document{
		ID:        "run-1",
		Timestamp: time.Now(),
		Strategy:  "momentum",
		Results: []Result{
			{Asset: "BTC-USD", Status: StatusSuccess, Metrics: map[string]float64{"sharpe": 1.5}},
		},
	}

	t.Run("Creates Parent Dirs", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "nested", "out.json")
		assert.NoError(t, doc.Save(path))

		raw, err := os.ReadFile(path)
		assert.NoError(t, err)
		var got Document
		assert.NoError(t, json.Unmarshal(raw, &got))
		assert.Equal(t, "run-1", got.ID)
		assert.Len(t, got.Results, 1)
		assert.InDelta(t, 1.5, got.Results[0].Metrics["sharpe"], 1e-9)
	})

	t.Run("Empty Output Fields Omitted", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "out.json")
		assert.NoError(t, doc.Save(path))
		raw, err := os.ReadFile(path)
		assert.NoError(t, err)
		assert.NotContains(t, string(raw), `"stdout"`)
		assert.NotContains(t, string(raw), `"error"`)
	})
}

func TestDefaultOutputPath(t *testing.T) {
	path := DefaultOutputPath("/out", "momentum")
	assert.True(t, filepath.IsAbs(path))
	base := filepath.Base(path)
	assert.Regexp(t, `^momentum_\d{8}_\d{6}\.json$`, base)
}

func TestResult_Sharpe(t *testing.T) {
	r := Result{Metrics: map[string]float64{"sharpe": 0.0}}
	v, ok := r.Sharpe()
	assert.True(t, ok)
	assert.Zero(t, v)

	_, ok = Result{Metrics: map[string]float64{}}.Sharpe()
	assert.False(t, ok)
}
