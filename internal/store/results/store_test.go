package results

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"assetmatrix/internal/tester"

	"github.com/stretchr/testify/assert"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	st, err := NewStore(filepath.Join(t.TempDir(), "history.db"))
	assert.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return st
}

func sampleDoc(id string) *tester.Document {
	now := time.Now()
	return &tester.Document{
		ID:             id,
		Timestamp:      now,
		Strategy:       "momentum",
		TotalTests:     2,
		AssetsTested:   []string{"BTC-USD", "ETH-USD"},
		MaxWorkers:     4,
		TimeoutSeconds: 300,
		CondaEnv:       "tflow",
		Results: []tester.Result{
			{
				Asset:         "BTC-USD",
				DataPath:      "/data/BTC-USD.csv",
				Status:        tester.StatusSuccess,
				Metrics:       map[string]float64{"sharpe": 1.85, "return": 42.5, "trades": 87},
				ExecutionTime: 12.3,
				Timestamp:     now,
			},
			{
				Asset:         "ETH-USD",
				DataPath:      "/data/ETH-USD.csv",
				Status:        tester.StatusFailed,
				Error:         "ValueError: bad input",
				Metrics:       map[string]float64{},
				ExecutionTime: 3.1,
				Stderr:        "Traceback...\nValueError: bad input",
				Timestamp:     now,
			},
		},
	}
}

func TestStore_SaveAndLoadRun(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	avg := 1.85
	assert.NoError(t, st.SaveRun(ctx, sampleDoc("run-1"), 1, 1, &avg, "BTC-USD"))

	t.Run("GetRun", func(t *testing.T) {
		row, err := st.GetRun(ctx, "run-1")
		assert.NoError(t, err)
		assert.Equal(t, "momentum", row.Strategy)
		assert.Equal(t, 2, row.TotalTests)
		assert.Equal(t, 1, row.Successful)
		assert.Equal(t, 1, row.Failed)
		assert.NotNil(t, row.AvgSharpe)
		assert.InDelta(t, 1.85, *row.AvgSharpe, 1e-9)
		assert.Equal(t, "BTC-USD", row.BestAsset)
		assert.Equal(t, []string{"BTC-USD", "ETH-USD"}, row.Assets)
	})

	t.Run("RunResults Round Trip", func(t *testing.T) {
		res, err := st.RunResults(ctx, "run-1")
		assert.NoError(t, err)
		assert.Len(t, res, 2)
		assert.Equal(t, "BTC-USD", res[0].Asset)
		// 策略名从运行表联回，结果行不丢上下文
		assert.Equal(t, "momentum", res[0].Strategy)
		assert.Equal(t, "momentum", res[1].Strategy)
		assert.InDelta(t, 1.85, res[0].Metrics["sharpe"], 1e-9)
		assert.InDelta(t, 42.5, res[0].Metrics["return"], 1e-9)
		// 失败行没有指标，读回时保持缺失
		assert.Empty(t, res[1].Metrics)
		assert.Equal(t, "ValueError: bad input", res[1].Error)
	})

	t.Run("Unknown Run Has No Results", func(t *testing.T) {
		res, err := st.RunResults(ctx, "nope")
		assert.NoError(t, err)
		assert.Empty(t, res)
	})
}

func TestStore_ListRuns(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	doc1 := sampleDoc("run-1")
	doc1.Timestamp = time.Now().Add(-time.Hour)
	doc2 := sampleDoc("run-2")
	assert.NoError(t, st.SaveRun(ctx, doc1, 1, 1, nil, ""))
	assert.NoError(t, st.SaveRun(ctx, doc2, 1, 1, nil, ""))

	rows, err := st.ListRuns(ctx, 10)
	assert.NoError(t, err)
	assert.Len(t, rows, 2)
	// 时间倒序
	assert.Equal(t, "run-2", rows[0].ID)
	assert.Equal(t, "run-1", rows[1].ID)
	// avg_sharpe 为空时读回 nil
	assert.Nil(t, rows[0].AvgSharpe)
}

func TestStore_GetRun_NotFound(t *testing.T) {
	st := newTestStore(t)
	_, err := st.GetRun(context.Background(), "missing")
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestStore_Closed(t *testing.T) {
	st := newTestStore(t)
	assert.NoError(t, st.Close())
	_, err := st.ListRuns(context.Background(), 1)
	assert.Error(t, err)
}
