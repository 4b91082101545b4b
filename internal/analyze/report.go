package analyze

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"assetmatrix/internal/metrics"
	"assetmatrix/internal/tester"
)

const lineWidth = 80

// Distribution 汇总一个指标在成功结果上的分布。
type Distribution struct {
	Count  int
	Mean   float64
	Median float64
	Max    float64
	Min    float64
	Std    float64
}

// Distribute 在 results 中收集指定指标的分布；缺该指标的结果被跳过。
func Distribute(results []tester.Result, metric string) Distribution {
	var values []float64
	for _, r := range results {
		if v, ok := r.Metrics[metric]; ok {
			values = append(values, v)
		}
	}
	d := Distribution{Count: len(values)}
	if len(values) == 0 {
		return d
	}
	sort.Float64s(values)
	d.Min = values[0]
	d.Max = values[len(values)-1]
	mid := len(values) / 2
	if len(values)%2 == 0 {
		d.Median = (values[mid-1] + values[mid]) / 2
	} else {
		d.Median = values[mid]
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	d.Mean = sum / float64(len(values))
	if len(values) > 1 {
		var sq float64
		for _, v := range values {
			sq += (v - d.Mean) * (v - d.Mean)
		}
		d.Std = math.Sqrt(sq / float64(len(values)-1))
	}
	return d
}

// ReportText 生成完整的文本分析报告：总体统计、指标分布、Top 20、优选列表。
func ReportText(loaded *Loaded) string {
	var b strings.Builder
	rule := strings.Repeat("=", lineWidth)
	thin := strings.Repeat("-", lineWidth)

	b.WriteString(rule + "\n")
	b.WriteString("回测结果分析报告\n")
	b.WriteString(rule + "\n")
	b.WriteString(fmt.Sprintf("生成时间: %s\n", time.Now().Format("2006-01-02 15:04:05")))
	b.WriteString(fmt.Sprintf("来源文件: %s\n", loaded.Path))
	b.WriteString(fmt.Sprintf("策略: %s\n\n", loaded.Strategy))

	total := len(loaded.Results)
	counts := map[string]int{}
	var successful []tester.Result
	for _, r := range loaded.Results {
		counts[r.Status]++
		if r.Status == tester.StatusSuccess {
			successful = append(successful, r)
		}
	}
	b.WriteString("总体统计\n")
	b.WriteString(thin + "\n")
	b.WriteString(fmt.Sprintf("总测试数: %d\n", total))
	if total > 0 {
		b.WriteString(fmt.Sprintf("成功: %d (%.1f%%)\n", counts[tester.StatusSuccess], float64(counts[tester.StatusSuccess])/float64(total)*100))
	} else {
		b.WriteString("成功: 0\n")
	}
	b.WriteString(fmt.Sprintf("失败: %d  异常: %d  超时: %d\n\n", counts[tester.StatusFailed], counts[tester.StatusError], counts[tester.StatusTimeout]))

	if len(successful) > 0 {
		b.WriteString("指标分布（仅成功结果）\n")
		b.WriteString(thin + "\n")
		writeDistribution(&b, "Sharpe Ratio", Distribute(successful, metrics.MetricSharpe), "")
		writeDistribution(&b, "Return", Distribute(successful, metrics.MetricReturn), "%")
		writeDistribution(&b, "Trades", Distribute(successful, metrics.MetricTrades), "")
	}

	top := TopN(loaded.Results, 20, metrics.MetricSharpe)
	if len(top) > 0 {
		b.WriteString("Top 20（按 Sharpe Ratio）\n")
		b.WriteString(thin + "\n")
		b.WriteString(fmt.Sprintf("%-6s %-15s %-10s %-12s %-10s\n", "Rank", "Asset", "Sharpe", "Return%", "Trades"))
		for i, r := range top {
			b.WriteString(fmt.Sprintf("%-6d %-15s %-10s %-12s %-10s\n", i+1, r.Asset,
				metricCell(r, metrics.MetricSharpe, "%.2f"),
				metricCell(r, metrics.MetricReturn, "%.2f"),
				metricCell(r, metrics.MetricTrades, "%.0f")))
		}
		b.WriteString("\n")
	}

	minSharpe, minReturn := 2.0, 0.0
	premium := FilterSuccessful(loaded.Results, Filter{MinSharpe: &minSharpe, MinReturn: &minReturn})
	if len(premium) > 0 {
		b.WriteString(fmt.Sprintf("优选结果（Sharpe > 2.0 且 Return > 0%%）: %d\n", len(premium)))
		b.WriteString(thin + "\n")
		for i, r := range premium {
			if i >= 10 {
				break
			}
			b.WriteString(fmt.Sprintf("  %d. %s - Sharpe: %s, Return: %s%%\n", i+1, r.Asset,
				metricCell(r, metrics.MetricSharpe, "%.2f"),
				metricCell(r, metrics.MetricReturn, "%.2f")))
		}
		b.WriteString("\n")
	}

	b.WriteString(rule + "\n")
	return b.String()
}

func writeDistribution(b *strings.Builder, title string, d Distribution, unit string) {
	if d.Count == 0 {
		return
	}
	b.WriteString(fmt.Sprintf("%s:\n", title))
	b.WriteString(fmt.Sprintf("  均值:   %.2f%s\n", d.Mean, unit))
	b.WriteString(fmt.Sprintf("  中位数: %.2f%s\n", d.Median, unit))
	b.WriteString(fmt.Sprintf("  最大:   %.2f%s\n", d.Max, unit))
	b.WriteString(fmt.Sprintf("  最小:   %.2f%s\n", d.Min, unit))
	b.WriteString(fmt.Sprintf("  标准差: %.2f%s\n\n", d.Std, unit))
}

func metricCell(r tester.Result, name, format string) string {
	if v, ok := r.Metrics[name]; ok {
		return fmt.Sprintf(format, v)
	}
	return "N/A"
}
