package analyze

import (
	"sort"

	"assetmatrix/internal/metrics"
	"assetmatrix/internal/tester"
)

// Filter 描述成功结果的筛选条件，nil 字段表示不过滤。
type Filter struct {
	MinSharpe *float64
	MinReturn *float64
	MinTrades *float64
}

// Empty 表示没有任何条件。
func (f Filter) Empty() bool {
	return f.MinSharpe == nil && f.MinReturn == nil && f.MinTrades == nil
}

// FilterSuccessful 取出满足条件的成功结果，按 sharpe 降序。
// 设定了某个指标的下限而结果缺少该指标时，该结果被排除。
func FilterSuccessful(results []tester.Result, f Filter) []tester.Result {
	var out []tester.Result
	for _, r := range results {
		if r.Status != tester.StatusSuccess {
			continue
		}
		if !passes(r, metrics.MetricSharpe, f.MinSharpe) {
			continue
		}
		if !passes(r, metrics.MetricReturn, f.MinReturn) {
			continue
		}
		if !passes(r, metrics.MetricTrades, f.MinTrades) {
			continue
		}
		out = append(out, r)
	}
	sort.SliceStable(out, func(i, j int) bool {
		vi, oki := out[i].Metrics[metrics.MetricSharpe]
		vj, okj := out[j].Metrics[metrics.MetricSharpe]
		if oki != okj {
			return oki // 有 sharpe 的排在前面
		}
		return vi > vj
	})
	return out
}

// TopN 返回按指定指标排序的前 n 个成功结果。
func TopN(results []tester.Result, n int, sortBy string) []tester.Result {
	var out []tester.Result
	for _, r := range results {
		if r.Status != tester.StatusSuccess {
			continue
		}
		if _, ok := r.Metrics[sortBy]; !ok {
			continue
		}
		out = append(out, r)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Metrics[sortBy] > out[j].Metrics[sortBy]
	})
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

func passes(r tester.Result, metric string, min *float64) bool {
	if min == nil {
		return true
	}
	v, ok := r.Metrics[metric]
	return ok && v >= *min
}
