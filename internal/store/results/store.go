// Package results 把每次运行的文档追加进本地 sqlite，供 analyze/serve 回查。
package results

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"assetmatrix/internal/metrics"
	"assetmatrix/internal/tester"

	_ "modernc.org/sqlite"
)

// Store 管理 matrix_runs/matrix_results 表。
type Store struct {
	mu   sync.Mutex
	db   *sql.DB
	path string
}

func NewStore(path string) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("store path 不能为空")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	dsn := fmt.Sprintf("file:%s?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&cache=shared", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	if err := ensureSchema(db); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db, path: path}, nil
}

func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func ensureSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS matrix_runs (
			id TEXT PRIMARY KEY,
			strategy TEXT NOT NULL,
			total_tests INTEGER NOT NULL,
			successful INTEGER NOT NULL DEFAULT 0,
			failed INTEGER NOT NULL DEFAULT 0,
			avg_sharpe REAL,
			best_asset TEXT,
			max_workers INTEGER NOT NULL,
			timeout_seconds INTEGER NOT NULL,
			conda_env TEXT,
			assets_json TEXT NOT NULL,
			created_at INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS matrix_results (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id TEXT NOT NULL,
			asset TEXT NOT NULL,
			data_path TEXT NOT NULL,
			status TEXT NOT NULL,
			error TEXT,
			sharpe REAL,
			return_pct REAL,
			max_drawdown REAL,
			trades REAL,
			win_rate REAL,
			execution_time REAL NOT NULL,
			stderr_tail TEXT,
			finished_at INTEGER NOT NULL,
			FOREIGN KEY(run_id) REFERENCES matrix_runs(id) ON DELETE CASCADE
		);`,
		`CREATE INDEX IF NOT EXISTS idx_results_run ON matrix_results(run_id);`,
		`CREATE INDEX IF NOT EXISTS idx_runs_strategy ON matrix_runs(strategy, created_at);`,
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// RunRow 是 matrix_runs 的一行。
type RunRow struct {
	ID             string    `json:"id"`
	Strategy       string    `json:"strategy"`
	TotalTests     int       `json:"total_tests"`
	Successful     int       `json:"successful"`
	Failed         int       `json:"failed"`
	AvgSharpe      *float64  `json:"avg_sharpe,omitempty"`
	BestAsset      string    `json:"best_asset,omitempty"`
	MaxWorkers     int       `json:"max_workers"`
	TimeoutSeconds int       `json:"timeout_seconds"`
	CondaEnv       string    `json:"conda_env,omitempty"`
	Assets         []string  `json:"assets"`
	CreatedAt      time.Time `json:"created_at"`
}

// SaveRun 在一个事务里写入运行记录与全部结果行。
// 结果行只保留数值指标与截断的 stderr，完整输出留在 JSON 文档里。
func (s *Store) SaveRun(ctx context.Context, doc *tester.Document, successful, failed int, avgSharpe *float64, bestAsset string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return fmt.Errorf("store 已关闭")
	}
	assetsJSON, err := json.Marshal(doc.AssetsTested)
	if err != nil {
		return err
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO matrix_runs
			(id, strategy, total_tests, successful, failed, avg_sharpe, best_asset,
			max_workers, timeout_seconds, conda_env, assets_json, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		doc.ID, doc.Strategy, doc.TotalTests, successful, failed, avgSharpe, nullableText(bestAsset),
		doc.MaxWorkers, doc.TimeoutSeconds, nullableText(doc.CondaEnv), string(assetsJSON),
		doc.Timestamp.UnixMilli())
	if err != nil {
		return err
	}
	for _, r := range doc.Results {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO matrix_results
				(run_id, asset, data_path, status, error, sharpe, return_pct, max_drawdown,
				trades, win_rate, execution_time, stderr_tail, finished_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			doc.ID, r.Asset, r.DataPath, r.Status, nullableText(r.Error),
			nullableMetric(r.Metrics, metrics.MetricSharpe),
			nullableMetric(r.Metrics, metrics.MetricReturn),
			nullableMetric(r.Metrics, metrics.MetricMaxDrawdown),
			nullableMetric(r.Metrics, metrics.MetricTrades),
			nullableMetric(r.Metrics, metrics.MetricWinRate),
			r.ExecutionTime, nullableText(tail(r.Stderr, 2000)), r.Timestamp.UnixMilli())
		if err != nil {
			return err
		}
	}
	return tx.Commit()
}

// ListRuns 按时间倒序列出运行记录。
func (s *Store) ListRuns(ctx context.Context, limit int) ([]RunRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil, fmt.Errorf("store 已关闭")
	}
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, strategy, total_tests, successful, failed, avg_sharpe, best_asset,
			max_workers, timeout_seconds, conda_env, assets_json, created_at
		FROM matrix_runs ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []RunRow
	for rows.Next() {
		row, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// GetRun 按 ID 取单条运行记录。
func (s *Store) GetRun(ctx context.Context, id string) (RunRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return RunRow{}, fmt.Errorf("store 已关闭")
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, strategy, total_tests, successful, failed, avg_sharpe, best_asset,
			max_workers, timeout_seconds, conda_env, assets_json, created_at
		FROM matrix_runs WHERE id = ?`, id)
	if err != nil {
		return RunRow{}, err
	}
	defer rows.Close()
	if !rows.Next() {
		return RunRow{}, sql.ErrNoRows
	}
	return scanRun(rows)
}

// RunResults 返回一次运行的全部结果行，按写入顺序。
// 结果表不重复存策略名，从运行表联回来，读出的行始终是完整的 Result。
func (s *Store) RunResults(ctx context.Context, runID string) ([]tester.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil, fmt.Errorf("store 已关闭")
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT runs.strategy, res.asset, res.data_path, res.status, res.error, res.sharpe,
			res.return_pct, res.max_drawdown, res.trades, res.win_rate,
			res.execution_time, res.stderr_tail, res.finished_at
		FROM matrix_results res
		JOIN matrix_runs runs ON runs.id = res.run_id
		WHERE res.run_id = ? ORDER BY res.id`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []tester.Result
	for rows.Next() {
		var (
			r        tester.Result
			errText  sql.NullString
			sharpe   sql.NullFloat64
			ret      sql.NullFloat64
			drawdown sql.NullFloat64
			trades   sql.NullFloat64
			winRate  sql.NullFloat64
			stderrT  sql.NullString
			finished int64
		)
		if err := rows.Scan(&r.Strategy, &r.Asset, &r.DataPath, &r.Status, &errText, &sharpe, &ret,
			&drawdown, &trades, &winRate, &r.ExecutionTime, &stderrT, &finished); err != nil {
			return nil, err
		}
		r.Error = errText.String
		r.Stderr = stderrT.String
		r.Timestamp = time.UnixMilli(finished)
		r.Metrics = map[string]float64{}
		putMetric(r.Metrics, metrics.MetricSharpe, sharpe)
		putMetric(r.Metrics, metrics.MetricReturn, ret)
		putMetric(r.Metrics, metrics.MetricMaxDrawdown, drawdown)
		putMetric(r.Metrics, metrics.MetricTrades, trades)
		putMetric(r.Metrics, metrics.MetricWinRate, winRate)
		out = append(out, r)
	}
	return out, rows.Err()
}

func scanRun(rows *sql.Rows) (RunRow, error) {
	var (
		row        RunRow
		avgSharpe  sql.NullFloat64
		bestAsset  sql.NullString
		condaEnv   sql.NullString
		assetsJSON string
		createdAt  int64
	)
	if err := rows.Scan(&row.ID, &row.Strategy, &row.TotalTests, &row.Successful, &row.Failed,
		&avgSharpe, &bestAsset, &row.MaxWorkers, &row.TimeoutSeconds, &condaEnv,
		&assetsJSON, &createdAt); err != nil {
		return RunRow{}, err
	}
	if avgSharpe.Valid {
		v := avgSharpe.Float64
		row.AvgSharpe = &v
	}
	row.BestAsset = bestAsset.String
	row.CondaEnv = condaEnv.String
	row.CreatedAt = time.UnixMilli(createdAt)
	if err := json.Unmarshal([]byte(assetsJSON), &row.Assets); err != nil {
		row.Assets = nil
	}
	return row, nil
}

func putMetric(m map[string]float64, name string, v sql.NullFloat64) {
	if v.Valid {
		m[name] = v.Float64
	}
}

func nullableText(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

func nullableMetric(m map[string]float64, name string) interface{} {
	if v, ok := m[name]; ok {
		return v
	}
	return nil
}

func tail(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[len(s)-max:]
}
