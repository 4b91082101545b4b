package report

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"time"

	"github.com/chromedp/chromedp"
)

// SnapshotPNG 用无头浏览器把图表 HTML 截为 PNG。
// 机器上没有可用的 Chrome 时返回错误，调用方降级为只保留 HTML。
func SnapshotPNG(ctx context.Context, htmlPath, pngPath string) error {
	raw, err := os.ReadFile(htmlPath)
	if err != nil {
		return fmt.Errorf("读取图表 HTML 失败: %w", err)
	}
	if ctx == nil {
		ctx = context.Background()
	}
	parent, cancel := chromedp.NewContext(ctx)
	defer cancel()
	timeoutCtx, cancelTimeout := context.WithTimeout(parent, 20*time.Second)
	defer cancelTimeout()

	dataURI := "data:text/html;base64," + base64.StdEncoding.EncodeToString(raw)
	var screenshot []byte
	tasks := chromedp.Tasks{
		chromedp.EmulateViewport(int64(chartWidthPx), int64(chartHeightPx*2)),
		chromedp.Navigate(dataURI),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.Sleep(1500 * time.Millisecond),
		chromedp.FullScreenshot(&screenshot, 100),
	}
	if err := chromedp.Run(timeoutCtx, tasks...); err != nil {
		return fmt.Errorf("渲染 PNG 失败: %w", err)
	}
	return os.WriteFile(pngPath, screenshot, 0o644)
}
