// Package runner 在隔离环境中执行一个策略脚本并带回控制台输出。
// 对编排器而言这是一个不透明能力：超时由调用方通过 ctx 的 deadline 下发，
// CommandContext 在 deadline 到达时杀掉进程，调用方据 TimedOut 区分超时与失败。
package runner

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"time"
)

// Result 是一次脚本执行的完整结论。执行失败不通过 error 返回，
// 全部折叠进 Result，调用方永远能拿到一条可记录的结果。
type Result struct {
	Success  bool
	TimedOut bool
	Stdout   string
	Stderr   string
	Err      string
}

// Interface 是编排器依赖的执行协作方契约。
type Interface interface {
	Run(ctx context.Context, scriptPath string) Result
}

// buildResult 把命令执行的产物归一化为 Result。
func buildResult(ctx context.Context, stdout, stderr *bytes.Buffer, runErr error) Result {
	res := Result{
		Stdout: stdout.String(),
		Stderr: stderr.String(),
	}
	if runErr == nil {
		res.Success = true
		return res
	}
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		res.TimedOut = true
		res.Err = "execution timed out"
		return res
	}
	msg := runErr.Error()
	if tail := lastStderrLine(res.Stderr); tail != "" {
		msg = tail
	}
	res.Err = msg
	return res
}

// lastStderrLine 取 stderr 的最后一个非空行，python 栈回溯的末行就是异常描述。
func lastStderrLine(stderr string) string {
	lines := strings.Split(strings.TrimSpace(stderr), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if line := strings.TrimSpace(lines[i]); line != "" {
			return line
		}
	}
	return ""
}

// 进程组在 deadline 后最多再等这么久被强制回收。
const killGracePeriod = 5 * time.Second
