package catalog

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"assetmatrix/internal/logger"
)

// Asset 表示一个行情数据集：symbol 由文件名去扩展得到。
type Asset struct {
	Symbol    string `json:"symbol"`
	DataPath  string `json:"data_path"`
	SizeBytes int64  `json:"size_bytes"`
}

// Catalog 保存 symbol 到数据文件的映射，一次发现后只读。
type Catalog struct {
	dir    string
	assets map[string]Asset
}

// Discover 扫描目录下的直接子文件（不递归），按扩展名筛选。
// 目录不存在不是错误：记一条 warning 并返回空目录，零资产的运行是合法的。
func Discover(dir string, extensions []string) *Catalog {
	c := &Catalog{dir: dir, assets: make(map[string]Asset)}
	entries, err := os.ReadDir(dir)
	if err != nil {
		logger.Warnf("数据目录不可用: %s (%v)", dir, err)
		return c
	}
	exts := make(map[string]bool, len(extensions))
	for _, e := range extensions {
		exts[strings.ToLower(e)] = true
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		ext := strings.ToLower(filepath.Ext(name))
		if !exts[ext] {
			continue
		}
		symbol := strings.TrimSuffix(name, filepath.Ext(name))
		if symbol == "" {
			continue
		}
		asset := Asset{Symbol: symbol, DataPath: filepath.Join(dir, name)}
		if info, err := entry.Info(); err == nil {
			asset.SizeBytes = info.Size()
		}
		c.assets[symbol] = asset
	}
	logger.Infof("发现 %d 个资产数据文件（目录=%s）", len(c.assets), dir)
	return c
}

// Dir 返回数据目录。
func (c *Catalog) Dir() string {
	return c.dir
}

// Len 返回资产数量。
func (c *Catalog) Len() int {
	return len(c.assets)
}

// Asset 按 symbol 查找。
func (c *Catalog) Asset(symbol string) (Asset, bool) {
	a, ok := c.assets[symbol]
	return a, ok
}

// Assets 返回按 symbol 排序的资产列表。
func (c *Catalog) Assets() []Asset {
	out := make([]Asset, 0, len(c.assets))
	for _, a := range c.assets {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out
}

// Symbols 返回排序后的 symbol 列表。
func (c *Catalog) Symbols() []string {
	assets := c.Assets()
	out := make([]string, 0, len(assets))
	for _, a := range assets {
		out = append(out, a.Symbol)
	}
	return out
}

// LogInventory 按行打印每个资产的文件大小，便于启动时核对数据。
func (c *Catalog) LogInventory() {
	for _, a := range c.Assets() {
		logger.Infof("  - %s: %s (%.1f MB)", a.Symbol, filepath.Base(a.DataPath), float64(a.SizeBytes)/(1024*1024))
	}
}
