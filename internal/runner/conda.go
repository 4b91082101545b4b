package runner

import (
	"bytes"
	"context"
	"os/exec"
	"strings"

	"assetmatrix/internal/logger"
)

// CondaRunner 通过 conda run 在指定环境里执行脚本；
// 未配置环境名时退化为直接调用 python。
type CondaRunner struct {
	CondaBin  string
	CondaEnv  string
	PythonBin string
}

// NewCondaRunner 构造执行器，空字段取惯用默认值。
func NewCondaRunner(condaBin, condaEnv, pythonBin string) *CondaRunner {
	if condaBin == "" {
		condaBin = "conda"
	}
	if pythonBin == "" {
		pythonBin = "python"
	}
	return &CondaRunner{CondaBin: condaBin, CondaEnv: condaEnv, PythonBin: pythonBin}
}

// Run 同步执行脚本直至退出或 ctx 到期。
func (r *CondaRunner) Run(ctx context.Context, scriptPath string) Result {
	name, args := r.command(scriptPath)
	cmd := exec.CommandContext(ctx, name, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	// 子进程不关管道时 Wait 会悬住，限定一个回收窗口。
	cmd.WaitDelay = killGracePeriod

	logger.Debugf("执行命令: %s %s", name, strings.Join(args, " "))
	runErr := cmd.Run()
	return buildResult(ctx, &stdout, &stderr, runErr)
}

func (r *CondaRunner) command(scriptPath string) (string, []string) {
	if strings.TrimSpace(r.CondaEnv) == "" {
		return r.PythonBin, []string{"-u", scriptPath}
	}
	return r.CondaBin, []string{"run", "-n", r.CondaEnv, "--no-capture-output", r.PythonBin, "-u", scriptPath}
}
