package report

import (
	"fmt"
	"strings"

	"assetmatrix/internal/metrics"
	"assetmatrix/internal/tester"
)

const lineWidth = 80

// Render 输出排名汇总的文本表格。
func Render(s Summary) string {
	var b strings.Builder
	rule := strings.Repeat("=", lineWidth)
	thin := strings.Repeat("-", lineWidth)

	b.WriteString(rule + "\n")
	b.WriteString("多资产测试汇总\n")
	b.WriteString(rule + "\n")
	b.WriteString(fmt.Sprintf("策略: %s\n", s.Strategy))
	b.WriteString(fmt.Sprintf("总测试数: %d\n", s.Total))
	if s.Total > 0 {
		b.WriteString(fmt.Sprintf("成功: %d (%.1f%%)\n", s.Successful, float64(s.Successful)/float64(s.Total)*100))
	} else {
		b.WriteString("成功: 0\n")
	}
	b.WriteString(fmt.Sprintf("失败: %d  异常: %d  超时: %d\n\n", s.Failed, s.Errors, s.Timeouts))

	if !s.HasMetrics() {
		b.WriteString("no successful tests with metrics\n")
		b.WriteString(rule + "\n")
		return b.String()
	}

	b.WriteString("资产排名（按 Sharpe Ratio）:\n")
	b.WriteString(thin + "\n")
	b.WriteString(fmt.Sprintf("%-6s %-15s %-10s %-12s %-10s %-10s\n", "Rank", "Asset", "Sharpe", "Return%", "Trades", "Win%"))
	b.WriteString(thin + "\n")
	for i, r := range s.Ranked {
		b.WriteString(fmt.Sprintf("%-6d %-15s %-10s %-12s %-10s %-10s\n",
			i+1, r.Asset,
			cell(r, metrics.MetricSharpe, "%.2f"),
			cell(r, metrics.MetricReturn, "%.2f"),
			cell(r, metrics.MetricTrades, "%.0f"),
			cell(r, metrics.MetricWinRate, "%.1f"),
		))
	}
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("最佳资产: %s (Sharpe: %s, Return: %s%%)\n",
		s.Best.Asset, cell(*s.Best, metrics.MetricSharpe, "%.2f"), cell(*s.Best, metrics.MetricReturn, "%.2f")))
	b.WriteString(fmt.Sprintf("最差资产: %s (Sharpe: %s, Return: %s%%)\n",
		s.Worst.Asset, cell(*s.Worst, metrics.MetricSharpe, "%.2f"), cell(*s.Worst, metrics.MetricReturn, "%.2f")))
	b.WriteString(fmt.Sprintf("\n平均表现: Sharpe=%.2f Return=%.2f%%\n", s.AvgSharpe, s.AvgReturn))
	b.WriteString(rule + "\n")
	return b.String()
}

func cell(r tester.Result, name, format string) string {
	if v, ok := r.Metrics[name]; ok {
		return fmt.Sprintf(format, v)
	}
	return "N/A"
}
