package tester

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

const (
	StatusUnknown = "unknown"
	StatusSuccess = "success"
	StatusFailed  = "failed"
	StatusError   = "error"
	StatusTimeout = "timeout"
)

// Result 记录一次 (策略, 资产) 测试的结论。任务开始时以 unknown 创建，
// 只被持有它的 worker 写入，任务结束即不再变更。
// 不变量：metrics 仅在 status=success 时非空。
type Result struct {
	Strategy      string             `json:"strategy"`
	Asset         string             `json:"asset"`
	DataPath      string             `json:"data_path"`
	Status        string             `json:"status"`
	Error         string             `json:"error,omitempty"`
	Metrics       map[string]float64 `json:"metrics"`
	ExecutionTime float64            `json:"execution_time"`
	Timestamp     time.Time          `json:"timestamp"`
	Stdout        string             `json:"stdout,omitempty"`
	Stderr        string             `json:"stderr,omitempty"`
}

// Sharpe 返回 sharpe 指标；第二个返回值区分“没有”与“为零”。
func (r Result) Sharpe() (float64, bool) {
	v, ok := r.Metrics["sharpe"]
	return v, ok
}

// Document 是一次完整运行的持久化工件，下游分析工具只消费它。
type Document struct {
	ID             string    `json:"id"`
	Timestamp      time.Time `json:"timestamp"`
	Strategy       string    `json:"strategy"`
	TotalTests     int       `json:"total_tests"`
	AssetsTested   []string  `json:"assets_tested"`
	MaxWorkers     int       `json:"max_workers"`
	TimeoutSeconds int       `json:"timeout"`
	CondaEnv       string    `json:"conda_env"`
	Results        []Result  `json:"results"`
}

// Save 以缩进 JSON 落盘，必要时建父目录。
func (d *Document) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("创建输出目录失败: %w", err)
	}
	raw, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return fmt.Errorf("写入结果文件失败: %w", err)
	}
	return nil
}

// DefaultOutputPath 生成 <dir>/<strategy>_<YYYYMMDD_HHMMSS>.json。
func DefaultOutputPath(dir, strategy string) string {
	return filepath.Join(dir, fmt.Sprintf("%s_%s.json", strategy, time.Now().Format("20060102_150405")))
}
