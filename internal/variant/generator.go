package variant

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"assetmatrix/internal/logger"
)

// Generator 负责产出按资产改写后的策略副本，原始文件永远不被修改。
type Generator struct {
	rules []RewriteRule
}

// NewGenerator 使用给定规则构造；rules 为空时使用内置规则。
func NewGenerator(rules []RewriteRule) *Generator {
	if len(rules) == 0 {
		rules = DefaultRules()
	}
	return &Generator{rules: rules}
}

// Rewrite 对源码文本做纯函数改写：相同输入必然得到相同输出。
// 返回值第二项表示是否有规则命中；都未命中时执行头部注入兜底。
func (g *Generator) Rewrite(source, symbol, dataPath string) (string, bool) {
	out, matched := applyRules(source, dataPath, g.rules)
	if matched {
		return out, true
	}
	return injectDataPath(source, symbol, dataPath), false
}

// Generate 读取策略源文件，生成 <stem>_<symbol><ext> 写入 outputDir，返回变体路径。
func (g *Generator) Generate(strategyPath, symbol, dataPath, outputDir string) (string, error) {
	raw, err := os.ReadFile(strategyPath)
	if err != nil {
		return "", fmt.Errorf("读取策略文件失败: %w", err)
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return "", fmt.Errorf("创建变体目录失败: %w", err)
	}
	base := filepath.Base(strategyPath)
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)

	rewritten, matched := g.Rewrite(string(raw), symbol, dataPath)
	if !matched {
		logger.Warnf("策略 %s 中未找到数据路径引用，已在头部注入", base)
	}

	variantPath := filepath.Join(outputDir, fmt.Sprintf("%s_%s%s", stem, symbol, ext))
	if err := os.WriteFile(variantPath, []byte(rewritten), 0o644); err != nil {
		return "", fmt.Errorf("写入变体失败: %w", err)
	}
	logger.Debugf("已生成变体 %s", filepath.Base(variantPath))
	return variantPath, nil
}
