package main

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"assetmatrix/internal/analyze"
	"assetmatrix/internal/logger"
	"assetmatrix/internal/report"
	"assetmatrix/internal/store/results"
)

var analyzeFlags struct {
	runID     string
	minSharpe float64
	minReturn float64
	minTrades float64
	top       int
	sortBy    string
	reportOut string
	charts    bool
	png       bool
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze [results.json]",
	Short: "分析一份历史结果文档",
	Long: `读取 run 命令产出的结果 JSON，输出统计报告。

也可以用 --run <id> 直接分析历史库里的一次运行。
可按 sharpe / 收益率 / 交易数下限过滤，支持生成图表。
文档解析是宽容的：缺字段跳过，不中断分析。`,
	Args: cobra.MaximumNArgs(1),
	RunE: runAnalyze,
}

func init() {
	f := analyzeCmd.Flags()
	f.StringVar(&analyzeFlags.runID, "run", "", "分析历史库中的指定运行（代替结果文件）")
	f.Float64Var(&analyzeFlags.minSharpe, "min-sharpe", 0, "只保留 sharpe 不低于该值的结果")
	f.Float64Var(&analyzeFlags.minReturn, "min-return", 0, "只保留收益率不低于该值的结果")
	f.Float64Var(&analyzeFlags.minTrades, "min-trades", 0, "只保留交易数不低于该值的结果")
	f.IntVar(&analyzeFlags.top, "top", 0, "过滤后只展示前 N 名")
	f.StringVar(&analyzeFlags.sortBy, "sort", "sharpe", "过滤结果的排序指标")
	f.StringVar(&analyzeFlags.reportOut, "report", "", "把文本报告写入文件")
	f.BoolVar(&analyzeFlags.charts, "charts", false, "生成图表 HTML")
	f.BoolVar(&analyzeFlags.png, "png", false, "同时把图表渲染为 PNG（需要本机 Chrome）")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	var (
		loaded *analyze.Loaded
		path   string
		err    error
	)
	switch {
	case analyzeFlags.runID != "":
		loaded, err = loadFromStore(cmd, analyzeFlags.runID)
		if err != nil {
			return err
		}
		path = loaded.Path
	case len(args) == 1:
		path = args[0]
		loaded, err = analyze.Load(path)
		if err != nil {
			return fmt.Errorf("读取结果文档失败: %w", err)
		}
	default:
		return fmt.Errorf("需要结果文件路径或 --run <id>")
	}

	text := analyze.ReportText(loaded)
	fmt.Println(text)

	if cmd.Flags().Changed("min-sharpe") || cmd.Flags().Changed("min-return") || cmd.Flags().Changed("min-trades") {
		printFiltered(cmd, loaded)
	}

	if out := strings.TrimSpace(analyzeFlags.reportOut); out != "" {
		if dir := filepath.Dir(out); dir != "." && dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return err
			}
		}
		if err := os.WriteFile(out, []byte(text), 0o644); err != nil {
			return fmt.Errorf("写入报告失败: %w", err)
		}
		logger.Infof("报告已写入: %s", out)
	}

	if analyzeFlags.charts || analyzeFlags.png {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		summary := report.Summarize(loaded.Results)
		if err := writeCharts(ctx, summary, path, analyzeFlags.png); err != nil {
			logger.Warnf("生成图表失败: %v", err)
		}
	}
	return nil
}

// loadFromStore 把历史库中的一次运行还原成分析视图。
func loadFromStore(cmd *cobra.Command, runID string) (*analyze.Loaded, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	st, err := results.NewStore(cfg.Storage.Path)
	if err != nil {
		return nil, fmt.Errorf("打开历史库失败: %w", err)
	}
	defer st.Close()

	row, err := st.GetRun(cmd.Context(), runID)
	if err != nil {
		return nil, fmt.Errorf("运行 %s 不存在: %w", runID, err)
	}
	res, err := st.RunResults(cmd.Context(), runID)
	if err != nil {
		return nil, err
	}
	return &analyze.Loaded{
		Path:      filepath.Join(cfg.Output.Dir, "run_"+runID),
		Strategy:  row.Strategy,
		Timestamp: row.CreatedAt,
		Results:   res,
	}, nil
}

func printFiltered(cmd *cobra.Command, loaded *analyze.Loaded) {
	var f analyze.Filter
	if cmd.Flags().Changed("min-sharpe") {
		v := analyzeFlags.minSharpe
		f.MinSharpe = &v
	}
	if cmd.Flags().Changed("min-return") {
		v := analyzeFlags.minReturn
		f.MinReturn = &v
	}
	if cmd.Flags().Changed("min-trades") {
		v := analyzeFlags.minTrades
		f.MinTrades = &v
	}
	filtered := analyze.FilterSuccessful(loaded.Results, f)
	if analyzeFlags.top > 0 {
		filtered = analyze.TopN(filtered, analyzeFlags.top, analyzeFlags.sortBy)
	}
	fmt.Printf("过滤后剩余 %d 条结果:\n", len(filtered))
	for i, r := range filtered {
		sharpe := "n/a"
		if v, ok := r.Sharpe(); ok {
			sharpe = fmt.Sprintf("%.2f", v)
		}
		fmt.Printf("  %2d. %-12s sharpe=%s\n", i+1, r.Asset, sharpe)
	}
}
