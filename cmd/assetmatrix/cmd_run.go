package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"assetmatrix/internal/catalog"
	"assetmatrix/internal/config"
	"assetmatrix/internal/logger"
	"assetmatrix/internal/report"
	"assetmatrix/internal/store/results"
	"assetmatrix/internal/tester"
)

var runFlags struct {
	dataDir   string
	workers   int
	timeout   int
	output    string
	condaEnv  string
	noCapture bool
	charts    bool
	png       bool
	noStore   bool
}

var runCmd = &cobra.Command{
	Use:   "run <strategy.py>",
	Short: "在数据目录的全部资产上并行执行一个策略",
	Long: `对数据目录里的每个行情文件生成一个策略变体并并行执行。

每个资产恰好产出一条结果，单个资产失败不影响其余资产。
结果以 JSON 文档落盘，并写入 SQLite 历史库。`,
	Args: cobra.ExactArgs(1),
	RunE: runRun,
}

func init() {
	f := runCmd.Flags()
	f.StringVar(&runFlags.dataDir, "data-dir", "", "行情数据目录（覆盖配置）")
	f.IntVar(&runFlags.workers, "workers", 0, "最大并行 worker 数（覆盖配置）")
	f.IntVar(&runFlags.timeout, "timeout", 0, "单资产超时秒数（覆盖配置）")
	f.StringVar(&runFlags.output, "output", "", "结果 JSON 输出路径（默认按策略名和时间戳生成）")
	f.StringVar(&runFlags.condaEnv, "env", "", "conda 环境名（覆盖配置）")
	f.BoolVar(&runFlags.noCapture, "no-capture", false, "结果里不保留 stdout/stderr 全文")
	f.BoolVar(&runFlags.charts, "charts", false, "生成排名图表 HTML")
	f.BoolVar(&runFlags.png, "png", false, "同时把图表渲染为 PNG（需要本机 Chrome）")
	f.BoolVar(&runFlags.noStore, "no-store", false, "不写入 SQLite 历史库")
}

func runRun(cmd *cobra.Command, args []string) error {
	strategyPath := args[0]
	if _, err := os.Stat(strategyPath); err != nil {
		return fmt.Errorf("策略文件不存在: %s", strategyPath)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	applyRunOverrides(cfg)
	logFile, err := setupLogging(cfg)
	if err != nil {
		return fmt.Errorf("初始化日志文件失败: %w", err)
	}
	if logFile != nil {
		defer logFile.Close()
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cat := catalog.Discover(cfg.Data.Dir, cfg.Data.Extensions)
	cat.LogInventory()

	rules, _, err := loadRules(cfg)
	if err != nil {
		return err
	}
	t, err := newTester(cfg, rules)
	if err != nil {
		return err
	}

	doc, err := t.RunAll(ctx, strategyPath, cat)
	if err != nil {
		return err
	}

	outputPath := strings.TrimSpace(runFlags.output)
	if outputPath == "" {
		outputPath = tester.DefaultOutputPath(cfg.Output.Dir, doc.Strategy)
	}
	if err := doc.Save(outputPath); err != nil {
		return fmt.Errorf("保存结果失败: %w", err)
	}
	logger.Infof("结果已保存: %s", outputPath)

	summary := report.Summarize(doc.Results)
	fmt.Println(report.Render(summary))

	if runFlags.charts || runFlags.png {
		if err := writeCharts(ctx, summary, outputPath, runFlags.png); err != nil {
			logger.Warnf("生成图表失败: %v", err)
		}
	}

	if !runFlags.noStore {
		if err := persistRun(ctx, cfg.Storage.Path, doc, summary); err != nil {
			logger.Warnf("写入历史库失败: %v", err)
		}
	}
	return nil
}

func applyRunOverrides(cfg *config.Config) {
	if runFlags.dataDir != "" {
		cfg.Data.Dir = runFlags.dataDir
	}
	if runFlags.workers > 0 {
		cfg.Pool.Workers = runFlags.workers
	}
	if runFlags.timeout > 0 {
		cfg.Runner.TimeoutSeconds = runFlags.timeout
	}
	if runFlags.condaEnv != "" {
		cfg.Runner.CondaEnv = runFlags.condaEnv
	}
	if runFlags.noCapture {
		cfg.Output.NoCapture = true
	}
}

func persistRun(ctx context.Context, storagePath string, doc *tester.Document, s report.Summary) error {
	st, err := results.NewStore(storagePath)
	if err != nil {
		return err
	}
	defer st.Close()

	var avgSharpe *float64
	bestAsset := ""
	if s.HasMetrics() {
		v := s.AvgSharpe
		avgSharpe = &v
		bestAsset = s.Best.Asset
	}
	return st.SaveRun(ctx, doc, s.Successful, s.Total-s.Successful, avgSharpe, bestAsset)
}
