package variant

import (
	"fmt"
	"regexp"
	"strings"
)

// PathPlaceholder 是模板里数据路径的占位符。
const PathPlaceholder = "{path}"

// RuleSpec 是一条改写规则的文本形态（pattern, template），可由规则文件配置。
type RuleSpec struct {
	Name     string `yaml:"name" json:"name"`
	Pattern  string `yaml:"pattern" json:"pattern"`
	Template string `yaml:"template" json:"template"`
}

// RewriteRule 是编译后的改写规则。规则按声明顺序依次尝试，
// 命中的每一条都会执行（同一份源码里可能有多处独立引用）。
type RewriteRule struct {
	Name     string
	Pattern  *regexp.Regexp
	Template string
}

// Compile 把规则文本编译为可执行规则。
func (s RuleSpec) Compile() (RewriteRule, error) {
	name := strings.TrimSpace(s.Name)
	if name == "" {
		return RewriteRule{}, fmt.Errorf("规则缺少 name")
	}
	re, err := regexp.Compile(s.Pattern)
	if err != nil {
		return RewriteRule{}, fmt.Errorf("规则 %s 的 pattern 无效: %w", name, err)
	}
	if !strings.Contains(s.Template, PathPlaceholder) {
		return RewriteRule{}, fmt.Errorf("规则 %s 的 template 缺少 %s 占位符", name, PathPlaceholder)
	}
	return RewriteRule{Name: name, Pattern: re, Template: s.Template}, nil
}

// Render 把模板中的占位符替换为具体数据路径。
func (r RewriteRule) Render(dataPath string) string {
	return strings.ReplaceAll(r.Template, PathPlaceholder, dataPath)
}

// DefaultRules 返回内置规则，顺序即优先级：
//  1. 变量赋值形式 data_path = "..."
//  2. 直接加载调用 pd.read_csv("...")
//  3. 加载结果绑定变量 data = pd.read_csv("...")
//
// 这是对策略源码的启发式文本替换，不是语义改写。
func DefaultRules() []RewriteRule {
	specs := []RuleSpec{
		{
			Name:     "data_path_assign",
			Pattern:  `data_path\s*=\s*["'].*?["']`,
			Template: `data_path = "{path}"`,
		},
		{
			Name:     "read_csv_call",
			Pattern:  `pd\.read_csv\(["'].*?["']\)`,
			Template: `pd.read_csv("{path}")`,
		},
		{
			Name:     "read_csv_bind",
			Pattern:  `data\s*=\s*pd\.read_csv\(["'].*?["']\)`,
			Template: `data = pd.read_csv("{path}")`,
		},
	}
	rules := make([]RewriteRule, 0, len(specs))
	for _, s := range specs {
		rule, err := s.Compile()
		if err != nil {
			panic(err) // 内置规则编译失败属于程序错误
		}
		rules = append(rules, rule)
	}
	return rules
}

// applyRules 依次应用所有命中的规则，返回改写后的文本与是否有任何规则命中。
// 渲染结果是字面文本：$ 需要转义，否则含 $ 的数据路径会被当成组引用展开。
func applyRules(source, dataPath string, rules []RewriteRule) (string, bool) {
	matched := false
	for _, rule := range rules {
		if !rule.Pattern.MatchString(source) {
			continue
		}
		replacement := strings.ReplaceAll(rule.Render(dataPath), "$", "$$")
		source = rule.Pattern.ReplaceAllString(source, replacement)
		matched = true
	}
	return source, matched
}

// injectDataPath 在源码头部块（连续的空行/注释/导入行）之后插入数据路径声明。
// 所有规则都落空时的兜底，保证每个变体至少含有一处定义引用。
func injectDataPath(source, symbol, dataPath string) string {
	lines := strings.Split(source, "\n")
	headerEnd := 0
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(line, "#") ||
			strings.HasPrefix(line, "import ") || strings.HasPrefix(line, "from ") {
			headerEnd = i + 1
			continue
		}
		break
	}
	injected := []string{
		"",
		fmt.Sprintf("# Data path for %s (injected by multi-asset tester)", symbol),
		fmt.Sprintf("data_path = %q", dataPath),
		"",
	}
	out := make([]string, 0, len(lines)+len(injected))
	out = append(out, lines[:headerEnd]...)
	out = append(out, injected...)
	out = append(out, lines[headerEnd:]...)
	return strings.Join(out, "\n")
}
