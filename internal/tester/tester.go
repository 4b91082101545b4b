// Package tester 把一个策略扇出到目录中的全部资产上并行回测。
// 并发模型：errgroup 限定 worker 数，worker 间除结果切片与进度计数外
// 不共享可变状态；结果按完成顺序收集，呈现顺序由 report 包负责。
package tester

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"assetmatrix/internal/catalog"
	"assetmatrix/internal/logger"
	"assetmatrix/internal/metrics"
	"assetmatrix/internal/runner"
	"assetmatrix/internal/variant"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// task 是提交给 worker 池的不可变工作单元。
type task struct {
	strategyPath string
	asset        catalog.Asset
	tempDir      string
}

// Config 配置一次编排运行。
type Config struct {
	Generator *variant.Generator
	Runner    runner.Interface
	Workers   int
	Timeout   time.Duration
	CondaEnv  string
	NoCapture bool
}

// Tester 负责任务扇出、结果收集与临时目录回收。
type Tester struct {
	gen       *variant.Generator
	runner    runner.Interface
	workers   int
	timeout   time.Duration
	condaEnv  string
	noCapture bool
}

func New(cfg Config) (*Tester, error) {
	if cfg.Generator == nil {
		return nil, fmt.Errorf("generator 不能为空")
	}
	if cfg.Runner == nil {
		return nil, fmt.Errorf("runner 不能为空")
	}
	if cfg.Workers <= 0 {
		return nil, fmt.Errorf("workers 必须大于 0")
	}
	if cfg.Timeout <= 0 {
		return nil, fmt.Errorf("timeout 必须大于 0")
	}
	return &Tester{
		gen:       cfg.Generator,
		runner:    cfg.Runner,
		workers:   cfg.Workers,
		timeout:   cfg.Timeout,
		condaEnv:  cfg.CondaEnv,
		noCapture: cfg.NoCapture,
	}, nil
}

// RunAll 对目录中的每个资产跑一次策略，每个提交的任务恰好产出一条结果，
// 单个任务失败绝不影响同批其他任务。变体临时目录在所有退出路径上删除。
func (t *Tester) RunAll(ctx context.Context, strategyPath string, cat *catalog.Catalog) (*Document, error) {
	strategyName := stem(strategyPath)
	doc := &Document{
		ID:             uuid.NewString(),
		Timestamp:      time.Now(),
		Strategy:       strategyName,
		AssetsTested:   cat.Symbols(),
		MaxWorkers:     t.workers,
		TimeoutSeconds: int(t.timeout / time.Second),
		CondaEnv:       t.condaEnv,
		Results:        []Result{},
	}
	assets := cat.Assets()
	if len(assets) == 0 {
		logger.Warnf("没有可测试的资产，运行 %s 产出 0 个任务", doc.ID)
		return doc, nil
	}

	tempDir, err := os.MkdirTemp("", fmt.Sprintf("assetmatrix_%s_", strategyName))
	if err != nil {
		return nil, fmt.Errorf("创建临时目录失败: %w", err)
	}
	defer func() {
		if err := os.RemoveAll(tempDir); err != nil {
			logger.Warnf("清理临时目录失败: %v", err)
		} else {
			logger.Infof("已清理临时目录 %s", tempDir)
		}
	}()

	logger.Infof("开始多资产测试：策略=%s 资产=%d 并发=%d 超时=%s", strategyName, len(assets), t.workers, t.timeout)
	logger.Infof("临时目录: %s", tempDir)

	var (
		mu        sync.Mutex
		completed atomic.Int64
		total     = int64(len(assets))
	)
	g := &errgroup.Group{}
	g.SetLimit(t.workers)
	for _, asset := range assets {
		tk := task{strategyPath: strategyPath, asset: asset, tempDir: tempDir}
		g.Go(func() error {
			res := t.runOne(ctx, tk)
			mu.Lock()
			doc.Results = append(doc.Results, res)
			mu.Unlock()
			done := completed.Add(1)
			logger.Infof("进度: %d/%d (%.1f%%)", done, total, float64(done)/float64(total)*100)
			return nil
		})
	}
	_ = g.Wait() // 任务从不返回 error，失败都在 Result 里

	doc.TotalTests = len(doc.Results)
	logger.Infof("测试完成：%d 个任务已结束", doc.TotalTests)
	return doc, nil
}

// runOne 执行单个任务。任何失败都折叠进 Result，绝不让任务静默丢失。
func (t *Tester) runOne(ctx context.Context, tk task) Result {
	res := Result{
		Strategy:  stem(tk.strategyPath),
		Asset:     tk.asset.Symbol,
		DataPath:  tk.asset.DataPath,
		Status:    StatusUnknown,
		Metrics:   map[string]float64{},
		Timestamp: time.Now(),
	}
	tag := fmt.Sprintf("[%s @ %s]", res.Strategy, res.Asset)
	start := time.Now()
	finish := func() {
		res.ExecutionTime = time.Since(start).Seconds()
		res.Timestamp = time.Now()
	}

	// 取消只阻止尚未开始的任务，已在跑的由各自 deadline 兜底。
	if err := ctx.Err(); err != nil {
		res.Status = StatusError
		res.Error = "run cancelled"
		finish()
		logger.Warnf("%s 运行已取消，任务未执行", tag)
		return res
	}

	logger.Infof("%s 开始回测...", tag)
	variantPath, err := t.gen.Generate(tk.strategyPath, tk.asset.Symbol, tk.asset.DataPath, tk.tempDir)
	if err != nil {
		res.Status = StatusError
		res.Error = err.Error()
		finish()
		logger.Errorf("%s 生成变体失败: %v", tag, err)
		return res
	}

	taskCtx, cancel := context.WithTimeout(ctx, t.timeout)
	run := t.runner.Run(taskCtx, variantPath)
	cancel()
	finish()

	switch {
	case run.TimedOut:
		res.Status = StatusTimeout
		res.Error = run.Err
		if !t.noCapture {
			res.Stderr = run.Stderr
		}
		logger.Errorf("%s 超时（%.1fs）", tag, res.ExecutionTime)
	case run.Success:
		res.Status = StatusSuccess
		res.Metrics = metrics.Extract(run.Stdout)
		if !t.noCapture {
			res.Stdout = run.Stdout
			res.Stderr = run.Stderr
		}
		logger.Infof("%s 成功（%.1fs）Sharpe=%s Return=%s", tag, res.ExecutionTime,
			formatMetric(res.Metrics, metrics.MetricSharpe), formatMetric(res.Metrics, metrics.MetricReturn))
	default:
		res.Status = StatusFailed
		res.Error = run.Err
		if !t.noCapture {
			res.Stderr = run.Stderr
		}
		logger.Errorf("%s 失败: %s", tag, res.Error)
	}
	return res
}

func formatMetric(m map[string]float64, name string) string {
	if v, ok := m[name]; ok {
		return fmt.Sprintf("%.2f", v)
	}
	return "N/A"
}

func stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
