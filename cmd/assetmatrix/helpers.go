package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"assetmatrix/internal/config"
	"assetmatrix/internal/logger"
	"assetmatrix/internal/report"
	"assetmatrix/internal/runner"
	"assetmatrix/internal/tester"
	"assetmatrix/internal/variant"
)

// loadConfig 解析配置。显式指定的文件不存在是错误；
// 默认路径不存在时退回内置默认值，工具无配置也能跑。
func loadConfig() (*config.Config, error) {
	path := strings.TrimSpace(rootFlags.config)
	explicit := path != ""
	if path == "" {
		path = os.Getenv("ASSETMATRIX_CONFIG")
		explicit = path != ""
	}
	if path == "" {
		path = "configs/config.yaml"
	}
	if _, err := os.Stat(path); err != nil {
		if explicit {
			return nil, fmt.Errorf("配置文件不存在: %s", path)
		}
		return config.Default(), nil
	}
	return config.Load(path)
}

// setupLogging 配置日志级别与可选的日志文件，返回值由调用方负责关闭。
func setupLogging(cfg *config.Config) (*os.File, error) {
	logger.SetLevel(cfg.App.LogLevel)
	trimmed := strings.TrimSpace(cfg.App.LogPath)
	if trimmed == "" {
		return nil, nil
	}
	dir := filepath.Dir(trimmed)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	file, err := os.OpenFile(trimmed, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, err
	}
	logger.SetOutput(io.MultiWriter(os.Stdout, file))
	return file, nil
}

// loadRules 返回生效的改写规则。配置了规则文件时从文件加载并
// 附带热重载 registry，否则使用内置规则。
func loadRules(cfg *config.Config) ([]variant.RewriteRule, *variant.Registry, error) {
	path := strings.TrimSpace(cfg.Variant.RulesPath)
	if path == "" {
		return variant.DefaultRules(), nil, nil
	}
	reg, err := variant.NewRegistry(path)
	if err != nil {
		return nil, nil, fmt.Errorf("加载改写规则失败: %w", err)
	}
	return reg.Rules(), reg, nil
}

// writeCharts 把排名图表写到结果文档旁边，png 为 true 时再渲染快照。
func writeCharts(ctx context.Context, s report.Summary, resultsPath string, png bool) error {
	if !s.HasMetrics() {
		logger.Warnf("没有带指标的成功结果，跳过图表")
		return nil
	}
	base := strings.TrimSuffix(resultsPath, filepath.Ext(resultsPath))
	htmlPath := base + "_charts.html"
	if err := report.WriteChartHTML(s, htmlPath); err != nil {
		return err
	}
	logger.Infof("图表已生成: %s", htmlPath)
	if !png {
		return nil
	}
	pngPath := base + "_charts.png"
	if err := report.SnapshotPNG(ctx, htmlPath, pngPath); err != nil {
		return err
	}
	logger.Infof("图表快照已生成: %s", pngPath)
	return nil
}

func newTester(cfg *config.Config, rules []variant.RewriteRule) (*tester.Tester, error) {
	run := runner.NewCondaRunner(cfg.Runner.CondaBin, cfg.Runner.CondaEnv, cfg.Runner.PythonBin)
	return tester.New(tester.Config{
		Generator: variant.NewGenerator(rules),
		Runner:    run,
		Workers:   cfg.Pool.Workers,
		Timeout:   time.Duration(cfg.Runner.TimeoutSeconds) * time.Second,
		CondaEnv:  cfg.Runner.CondaEnv,
		NoCapture: cfg.Output.NoCapture,
	})
}
