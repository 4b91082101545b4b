package catalog

import (
	"context"
	"fmt"
	"sync"
	"time"

	"assetmatrix/internal/logger"

	"github.com/fsnotify/fsnotify"
)

// Watcher 监听数据目录并在文件变动后重扫，serve 模式用它保持目录最新。
type Watcher struct {
	dir        string
	extensions []string

	mu      sync.RWMutex
	current *Catalog
}

// NewWatcher 立即做一次发现，然后在 ctx 结束前持续监听目录。
func NewWatcher(ctx context.Context, dir string, extensions []string) (*Watcher, error) {
	w := &Watcher{dir: dir, extensions: extensions}
	w.current = Discover(dir, extensions)

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("创建目录监听失败: %w", err)
	}
	if err := fw.Add(dir); err != nil {
		// 目录还不存在时退化为静态目录，行为与 Discover 一致。
		logger.Warnf("监听数据目录失败，目录将不会自动刷新: %v", err)
		fw.Close()
		return w, nil
	}
	go w.loop(ctx, fw)
	return w, nil
}

// Snapshot 返回最近一次扫描结果。
func (w *Watcher) Snapshot() *Catalog {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.current
}

func (w *Watcher) loop(ctx context.Context, fw *fsnotify.Watcher) {
	defer fw.Close()
	// 批量拷贝文件会产生事件风暴，合并 500ms 内的事件后只扫一次。
	var pending <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return
		case evt, ok := <-fw.Events:
			if !ok {
				return
			}
			if evt.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			pending = time.After(500 * time.Millisecond)
		case err, ok := <-fw.Errors:
			if !ok {
				return
			}
			logger.Errorf("目录监听错误: %v", err)
		case <-pending:
			pending = nil
			next := Discover(w.dir, w.extensions)
			w.mu.Lock()
			w.current = next
			w.mu.Unlock()
			logger.Infof("数据目录已刷新，资产数=%d", next.Len())
		}
	}
}
