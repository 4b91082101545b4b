package runner

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBuildResult(t *testing.T) {
	buf := func(s string) *bytes.Buffer { return bytes.NewBufferString(s) }

	t.Run("Success", func(t *testing.T) {
		res := buildResult(context.Background(), buf("Sharpe Ratio 1.5\n"), buf(""), nil)
		assert.True(t, res.Success)
		assert.False(t, res.TimedOut)
		assert.Equal(t, "Sharpe Ratio 1.5\n", res.Stdout)
		assert.Empty(t, res.Err)
	})

	t.Run("Timeout", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(context.Background(), time.Nanosecond)
		defer cancel()
		<-ctx.Done()

		res := buildResult(ctx, buf(""), buf("partial output"), errors.New("signal: killed"))
		assert.False(t, res.Success)
		assert.True(t, res.TimedOut)
		assert.Equal(t, "execution timed out", res.Err)
		assert.Equal(t, "partial output", res.Stderr)
	})

	t.Run("Failure Uses Last Stderr Line", func(t *testing.T) {
		stderr := "Traceback (most recent call last):\n  File \"s.py\", line 3\nValueError: bad input\n"
		res := buildResult(context.Background(), buf(""), buf(stderr), errors.New("exit status 1"))
		assert.False(t, res.Success)
		assert.False(t, res.TimedOut)
		assert.Equal(t, "ValueError: bad input", res.Err)
	})

	t.Run("Failure Without Stderr Keeps Exec Error", func(t *testing.T) {
		res := buildResult(context.Background(), buf(""), buf(""), errors.New("exit status 2"))
		assert.Equal(t, "exit status 2", res.Err)
	})
}

func TestLastStderrLine(t *testing.T) {
	assert.Equal(t, "", lastStderrLine(""))
	assert.Equal(t, "boom", lastStderrLine("boom"))
	assert.Equal(t, "last", lastStderrLine("first\nlast\n\n  \n"))
}

func TestCondaRunner_Command(t *testing.T) {
	t.Run("With Conda Env", func(t *testing.T) {
		r := NewCondaRunner("conda", "tflow", "python")
		name, args := r.command("/tmp/s.py")
		assert.Equal(t, "conda", name)
		assert.Equal(t, []string{"run", "-n", "tflow", "--no-capture-output", "python", "-u", "/tmp/s.py"}, args)
	})

	t.Run("Without Conda Env Falls Back To Python", func(t *testing.T) {
		r := NewCondaRunner("", "", "")
		name, args := r.command("/tmp/s.py")
		assert.Equal(t, "python", name)
		assert.Equal(t, []string{"-u", "/tmp/s.py"}, args)
	})
}
