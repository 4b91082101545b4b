// Package metrics 从回测程序的自由文本输出里容错地提取数值指标。
// 上游输出不是稳定的结构化格式，措辞随第三方报表例程变化，
// 所以每个指标配一组按优先级排列的模式，取第一个能解析成数字的匹配。
package metrics

import (
	"regexp"
	"strconv"
)

// 指标名常量。缺失的指标在结果里就是缺失，绝不以零值顶替。
const (
	MetricReturn      = "return"
	MetricSharpe      = "sharpe"
	MetricMaxDrawdown = "max_drawdown"
	MetricTrades      = "trades"
	MetricWinRate     = "win_rate"
)

// metricPatterns 的顺序决定提取顺序；每个指标内部模式按可信度排列，
// 命中且可解析即停，后续模式不再尝试。
var metricPatterns = []struct {
	name     string
	patterns []*regexp.Regexp
}{
	{
		name: MetricReturn,
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)Return\s*\[%\]\s*([+-]?\d+\.?\d*)`),
			regexp.MustCompile(`(?i)Total Return.*?([+-]?\d+\.?\d*)%`),
			regexp.MustCompile(`(?i)Return.*?([+-]?\d+\.?\d*)`),
		},
	},
	{
		name: MetricSharpe,
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)Sharpe Ratio\s*([+-]?\d+\.?\d*)`),
			regexp.MustCompile(`(?i)Sharpe\s*([+-]?\d+\.?\d*)`),
		},
	},
	{
		name: MetricMaxDrawdown,
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)Max\.?\s*Drawdown\s*\[%\]\s*([+-]?\d+\.?\d*)`),
			regexp.MustCompile(`(?i)Max\.?\s*DD.*?([+-]?\d+\.?\d*)`),
		},
	},
	{
		name: MetricTrades,
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)# Trades\s*(\d+)`),
			regexp.MustCompile(`(?i)Trades\s*(\d+)`),
			regexp.MustCompile(`(?i)Number of trades.*?(\d+)`),
		},
	},
	{
		name: MetricWinRate,
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)Win Rate\s*\[%\]\s*(\d+\.?\d*)`),
			regexp.MustCompile(`(?i)Win Rate.*?(\d+\.?\d*)%`),
		},
	},
}

// Names 返回全部可识别指标名，顺序与提取顺序一致。
func Names() []string {
	out := make([]string, 0, len(metricPatterns))
	for _, m := range metricPatterns {
		out = append(out, m.name)
	}
	return out
}

// Extract 从原始文本提取指标。任何输入都不会报错：
// 空文本得到空映射，部分命中就返回命中的子集。
// 模式匹配但捕获组解析失败时跳过该模式，继续尝试下一个。
func Extract(raw string) map[string]float64 {
	out := make(map[string]float64)
	for _, metric := range metricPatterns {
		for _, pattern := range metric.patterns {
			m := pattern.FindStringSubmatch(raw)
			if m == nil {
				continue
			}
			value, err := strconv.ParseFloat(m[1], 64)
			if err != nil {
				continue
			}
			out[metric.name] = value
			break
		}
	}
	return out
}
