package report

import (
	"sort"

	"assetmatrix/internal/metrics"
	"assetmatrix/internal/tester"
)

// Summary 是一次运行的聚合视图，按需重算，不独立持久化。
type Summary struct {
	Strategy   string
	Total      int
	Successful int
	Failed     int
	Errors     int
	Timeouts   int

	// Ranked 只含带 sharpe 指标的成功结果，按 sharpe 降序，
	// 相同 sharpe 保持完成顺序（稳定排序）。
	Ranked    []tester.Result
	Best      *tester.Result
	Worst     *tester.Result
	AvgSharpe float64
	AvgReturn float64
}

// HasMetrics 表示排名列表非空。
func (s Summary) HasMetrics() bool {
	return len(s.Ranked) > 0
}

// Summarize 聚合全部结果。状态计数覆盖完整结果集，
// 均值只在排名列表（success 且有 sharpe）上计算。
func Summarize(results []tester.Result) Summary {
	s := Summary{Total: len(results)}
	if len(results) > 0 {
		s.Strategy = results[0].Strategy
	}
	for _, r := range results {
		switch r.Status {
		case tester.StatusSuccess:
			s.Successful++
		case tester.StatusFailed:
			s.Failed++
		case tester.StatusError:
			s.Errors++
		case tester.StatusTimeout:
			s.Timeouts++
		}
		if r.Status == tester.StatusSuccess {
			if _, ok := r.Sharpe(); ok {
				s.Ranked = append(s.Ranked, r)
			}
		}
	}
	if len(s.Ranked) == 0 {
		return s
	}

	sort.SliceStable(s.Ranked, func(i, j int) bool {
		vi, _ := s.Ranked[i].Sharpe()
		vj, _ := s.Ranked[j].Sharpe()
		return vi > vj
	})
	s.Best = &s.Ranked[0]
	s.Worst = &s.Ranked[len(s.Ranked)-1]

	var sharpeSum float64
	var returnSum float64
	returnCount := 0
	for _, r := range s.Ranked {
		v, _ := r.Sharpe()
		sharpeSum += v
		if ret, ok := r.Metrics[metrics.MetricReturn]; ok {
			returnSum += ret
			returnCount++
		}
	}
	s.AvgSharpe = sharpeSum / float64(len(s.Ranked))
	if returnCount > 0 {
		s.AvgReturn = returnSum / float64(returnCount)
	}
	return s
}
