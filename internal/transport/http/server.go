// Package http 提供 serve 模式下的查询与触发接口。
package http

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"strconv"
	"sync"
	"time"

	"assetmatrix/internal/catalog"
	"assetmatrix/internal/logger"
	"assetmatrix/internal/report"
	"assetmatrix/internal/store/results"
	"assetmatrix/internal/tester"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	JobStatusPending = "pending"
	JobStatusRunning = "running"
	JobStatusDone    = "done"
	JobStatusFailed  = "failed"
)

// Job 跟踪一次通过 HTTP 触发的测试运行。
type Job struct {
	ID           string    `json:"id"`
	StrategyPath string    `json:"strategy_path"`
	Status       string    `json:"status"`
	RunID        string    `json:"run_id,omitempty"`
	Message      string    `json:"message,omitempty"`
	StartedAt    time.Time `json:"started_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// RunLauncher 执行一次完整的多资产测试并返回结果文档。
type RunLauncher func(ctx context.Context, strategyPath string) (*tester.Document, error)

// Server 提供 Gin 接口：查询历史运行、查看目录、触发新的测试。
type Server struct {
	addr     string
	store    *results.Store
	watcher  *catalog.Watcher
	launcher RunLauncher
	router   *gin.Engine

	mu   sync.RWMutex
	jobs map[string]*Job

	baseCtx context.Context
}

type Config struct {
	Addr     string
	Store    *results.Store
	Watcher  *catalog.Watcher
	Launcher RunLauncher
}

func NewServer(cfg Config) (*Server, error) {
	if cfg.Store == nil {
		return nil, errors.New("store 不能为空")
	}
	if cfg.Addr == "" {
		cfg.Addr = ":9992"
	}
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	s := &Server{
		addr:     cfg.Addr,
		store:    cfg.Store,
		watcher:  cfg.Watcher,
		launcher: cfg.Launcher,
		router:   router,
		jobs:     make(map[string]*Job),
		baseCtx:  context.Background(),
	}
	s.registerRoutes()
	return s, nil
}

func (s *Server) registerRoutes() {
	api := s.router.Group("/api/matrix")
	api.GET("/assets", s.handleAssets)
	api.GET("/runs", s.handleRunList)
	api.GET("/runs/:id", s.handleRunDetail)
	api.GET("/runs/:id/results", s.handleRunResults)
	api.GET("/runs/:id/chart", s.handleRunChart)
	api.POST("/runs", s.handleRunStart)
	api.GET("/jobs", s.handleJobs)
	api.GET("/jobs/:id", s.handleJobStatus)
}

// Run 启动 HTTP 服务并随 ctx 退出。
func (s *Server) Run(ctx context.Context) error {
	s.baseCtx = ctx
	srv := &http.Server{Addr: s.addr, Handler: s.router}
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	logger.Infof("HTTP 服务已启动: %s", s.addr)
	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func (s *Server) handleAssets(c *gin.Context) {
	if s.watcher == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "目录监听未启用"})
		return
	}
	cat := s.watcher.Snapshot()
	c.JSON(http.StatusOK, gin.H{"dir": cat.Dir(), "assets": cat.Assets()})
}

func (s *Server) handleRunList(c *gin.Context) {
	limit := 50
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit 必须是正整数"})
			return
		}
		limit = n
	}
	rows, err := s.store.ListRuns(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"runs": rows})
}

func (s *Server) handleRunDetail(c *gin.Context) {
	row, err := s.store.GetRun(c.Request.Context(), c.Param("id"))
	if errors.Is(err, sql.ErrNoRows) {
		c.JSON(http.StatusNotFound, gin.H{"error": "运行不存在"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, row)
}

func (s *Server) handleRunResults(c *gin.Context) {
	res, err := s.store.RunResults(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": res})
}

func (s *Server) handleRunChart(c *gin.Context) {
	res, err := s.store.RunResults(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	summary := report.Summarize(res)
	if !summary.HasMetrics() {
		c.JSON(http.StatusNotFound, gin.H{"error": "no successful tests with metrics"})
		return
	}
	tmp, err := os.CreateTemp("", "assetmatrix_chart_*.html")
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	tmpPath := tmp.Name()
	tmp.Close()
	defer os.Remove(tmpPath)
	if err := report.WriteChartHTML(summary, tmpPath); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.File(tmpPath)
}

func (s *Server) handleRunStart(c *gin.Context) {
	if s.launcher == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "运行触发未启用"})
		return
	}
	var req struct {
		StrategyPath string `json:"strategy_path" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if _, err := os.Stat(req.StrategyPath); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "策略文件不存在: " + req.StrategyPath})
		return
	}
	job := &Job{
		ID:           uuid.NewString(),
		StrategyPath: req.StrategyPath,
		Status:       JobStatusPending,
		StartedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}
	s.mu.Lock()
	s.jobs[job.ID] = job
	s.mu.Unlock()

	// 快照必须在 goroutine 启动前取，之后 job 只能在锁内读写。
	snapshot := job.copy()
	go s.runJob(job.ID, req.StrategyPath)
	c.JSON(http.StatusAccepted, snapshot)
}

func (s *Server) runJob(jobID, strategyPath string) {
	s.updateJob(jobID, func(j *Job) { j.Status = JobStatusRunning })
	doc, err := s.launcher(s.baseCtx, strategyPath)
	if err != nil {
		logger.Errorf("HTTP 触发的运行失败: %v", err)
		s.updateJob(jobID, func(j *Job) {
			j.Status = JobStatusFailed
			j.Message = err.Error()
		})
		return
	}
	s.updateJob(jobID, func(j *Job) {
		j.Status = JobStatusDone
		j.RunID = doc.ID
	})
}

func (s *Server) handleJobs(c *gin.Context) {
	s.mu.RLock()
	out := make([]Job, 0, len(s.jobs))
	for _, job := range s.jobs {
		out = append(out, job.copy())
	}
	s.mu.RUnlock()
	c.JSON(http.StatusOK, gin.H{"jobs": out})
}

func (s *Server) handleJobStatus(c *gin.Context) {
	s.mu.RLock()
	job, ok := s.jobs[c.Param("id")]
	var snapshot Job
	if ok {
		snapshot = job.copy()
	}
	s.mu.RUnlock()
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "任务不存在"})
		return
	}
	c.JSON(http.StatusOK, snapshot)
}

func (s *Server) updateJob(id string, fn func(*Job)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if job, ok := s.jobs[id]; ok && fn != nil {
		fn(job)
		job.UpdatedAt = time.Now()
	}
}

func (j *Job) copy() Job {
	if j == nil {
		return Job{}
	}
	return *j
}
