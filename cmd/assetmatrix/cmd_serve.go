package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"assetmatrix/internal/catalog"
	"assetmatrix/internal/logger"
	"assetmatrix/internal/report"
	"assetmatrix/internal/store/results"
	"assetmatrix/internal/tester"
	httpserver "assetmatrix/internal/transport/http"
	"assetmatrix/internal/variant"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "启动 HTTP 服务：查询历史、监听数据目录、触发测试",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logFile, err := setupLogging(cfg)
	if err != nil {
		return fmt.Errorf("初始化日志文件失败: %w", err)
	}
	if logFile != nil {
		defer logFile.Close()
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := results.NewStore(cfg.Storage.Path)
	if err != nil {
		return fmt.Errorf("打开历史库失败: %w", err)
	}
	defer st.Close()

	watcher, err := catalog.NewWatcher(ctx, cfg.Data.Dir, cfg.Data.Extensions)
	if err != nil {
		return fmt.Errorf("监听数据目录失败: %w", err)
	}

	_, registry, err := loadRules(cfg)
	if err != nil {
		return err
	}

	// 每次触发都取目录与规则的最新快照，保证热重载生效。
	launcher := func(runCtx context.Context, strategyPath string) (*tester.Document, error) {
		rules := variant.DefaultRules()
		if registry != nil {
			rules = registry.Rules()
		}
		t, err := newTester(cfg, rules)
		if err != nil {
			return nil, err
		}
		doc, err := t.RunAll(runCtx, strategyPath, watcher.Snapshot())
		if err != nil {
			return nil, err
		}
		outputPath := tester.DefaultOutputPath(cfg.Output.Dir, doc.Strategy)
		if err := doc.Save(outputPath); err != nil {
			return nil, fmt.Errorf("保存结果失败: %w", err)
		}
		summary := report.Summarize(doc.Results)
		logger.InfoBlock(report.Render(summary))
		if err := persistRun(runCtx, cfg.Storage.Path, doc, summary); err != nil {
			logger.Warnf("写入历史库失败: %v", err)
		}
		return doc, nil
	}

	srv, err := httpserver.NewServer(httpserver.Config{
		Addr:     cfg.App.HTTPAddr,
		Store:    st,
		Watcher:  watcher,
		Launcher: launcher,
	})
	if err != nil {
		return err
	}
	return srv.Run(ctx)
}
