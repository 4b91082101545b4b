// Package analyze 读取运行产出的结果文档并生成统计报告。
// 文档可能来自不同版本的编排器，加载端用 gjson 做宽容解析：
// 字段缺了就缺了，不因格式差异拒绝整个文件。
package analyze

import (
	"fmt"
	"os"
	"time"

	"assetmatrix/internal/tester"

	"github.com/tidwall/gjson"
)

// Loaded 是一份结果文档的解析视图。
type Loaded struct {
	Path      string
	Strategy  string
	Timestamp time.Time
	Results   []tester.Result
}

// Load 解析结果 JSON 文件。results 数组既可以在根对象的 results 字段下，
// 也可以直接是根节点（兼容旧导出）。
func Load(path string) (*Loaded, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("读取结果文件失败: %w", err)
	}
	if !gjson.ValidBytes(raw) {
		return nil, fmt.Errorf("结果文件不是有效 JSON: %s", path)
	}
	root := gjson.ParseBytes(raw)

	loaded := &Loaded{Path: path}
	items := root.Get("results")
	if !items.Exists() && root.IsArray() {
		items = root
	}
	if !items.IsArray() {
		return loaded, nil
	}
	loaded.Strategy = root.Get("strategy").String()
	if ts := root.Get("timestamp").String(); ts != "" {
		if t, err := time.Parse(time.RFC3339, ts); err == nil {
			loaded.Timestamp = t
		}
	}
	items.ForEach(func(_, item gjson.Result) bool {
		loaded.Results = append(loaded.Results, parseResult(item))
		return true
	})
	if loaded.Strategy == "" && len(loaded.Results) > 0 {
		loaded.Strategy = loaded.Results[0].Strategy
	}
	return loaded, nil
}

func parseResult(item gjson.Result) tester.Result {
	r := tester.Result{
		Strategy:      firstString(item, "strategy", "strategy_name"),
		Asset:         item.Get("asset").String(),
		DataPath:      item.Get("data_path").String(),
		Status:        item.Get("status").String(),
		Error:         item.Get("error").String(),
		ExecutionTime: item.Get("execution_time").Float(),
		Metrics:       map[string]float64{},
	}
	if r.Status == "" {
		r.Status = tester.StatusUnknown
	}
	if ts := item.Get("timestamp").String(); ts != "" {
		if t, err := time.Parse(time.RFC3339, ts); err == nil {
			r.Timestamp = t
		}
	}
	item.Get("metrics").ForEach(func(key, value gjson.Result) bool {
		if value.Type == gjson.Number {
			r.Metrics[key.String()] = value.Float()
		}
		return true
	})
	return r
}

func firstString(item gjson.Result, keys ...string) string {
	for _, key := range keys {
		if v := item.Get(key); v.Exists() && v.String() != "" {
			return v.String()
		}
	}
	return ""
}
