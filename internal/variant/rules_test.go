package variant

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRuleSpec_Compile(t *testing.T) {
	t.Run("Valid Spec", func(t *testing.T) {
		rule, err := RuleSpec{
			Name:     "assign",
			Pattern:  `x\s*=\s*"a"`,
			Template: `x = "{path}"`,
		}.Compile()
		assert.NoError(t, err)
		assert.Equal(t, "assign", rule.Name)
		assert.Equal(t, `x = "/d/f.csv"`, rule.Render("/d/f.csv"))
	})

	t.Run("Missing Name", func(t *testing.T) {
		_, err := RuleSpec{Pattern: `x`, Template: `{path}`}.Compile()
		assert.Error(t, err)
	})

	t.Run("Invalid Pattern", func(t *testing.T) {
		_, err := RuleSpec{Name: "bad", Pattern: `([`, Template: `{path}`}.Compile()
		assert.Error(t, err)
	})

	t.Run("Template Without Placeholder", func(t *testing.T) {
		_, err := RuleSpec{Name: "bad", Pattern: `x`, Template: `x = "fixed"`}.Compile()
		assert.Error(t, err)
	})
}

func TestApplyRules(t *testing.T) {
	rules := DefaultRules()

	t.Run("Rewrites Data Path Assignment", func(t *testing.T) {
		src := "import pandas as pd\ndata_path = \"old/btc.csv\"\nprint(data_path)\n"
		out, matched := applyRules(src, "/data/ETH-USD.csv", rules)
		assert.True(t, matched)
		assert.Contains(t, out, `data_path = "/data/ETH-USD.csv"`)
		assert.NotContains(t, out, "old/btc.csv")
	})

	t.Run("Rewrites Read CSV Call", func(t *testing.T) {
		src := "df = pd.read_csv('old.csv')\n"
		out, matched := applyRules(src, "/data/SOL-USD.csv", rules)
		assert.True(t, matched)
		assert.Contains(t, out, `pd.read_csv("/data/SOL-USD.csv")`)
	})

	t.Run("All Matching Rules Fire", func(t *testing.T) {
		src := "data_path = 'a.csv'\ndata = pd.read_csv('b.csv')\n"
		out, matched := applyRules(src, "/d/X.csv", rules)
		assert.True(t, matched)
		assert.NotContains(t, out, "a.csv")
		assert.NotContains(t, out, "b.csv")
	})

	t.Run("Dollar Sign In Data Path Stays Literal", func(t *testing.T) {
		src := "data_path = 'a.csv'\n"
		out, matched := applyRules(src, "/data/$weird/BTC$1.csv", rules)
		assert.True(t, matched)
		assert.Contains(t, out, `data_path = "/data/$weird/BTC$1.csv"`)
	})

	t.Run("No Match", func(t *testing.T) {
		src := "print('hello')\n"
		out, matched := applyRules(src, "/d/X.csv", rules)
		assert.False(t, matched)
		assert.Equal(t, src, out)
	})
}

func TestInjectDataPath(t *testing.T) {
	t.Run("Inserts After Header Block", func(t *testing.T) {
		src := strings.Join([]string{
			"# strategy",
			"import pandas as pd",
			"from math import sqrt",
			"",
			"def run():",
			"    pass",
		}, "\n")
		out := injectDataPath(src, "BTC-USD", "/data/BTC-USD.csv")
		lines := strings.Split(out, "\n")
		idx := -1
		for i, line := range lines {
			if strings.HasPrefix(line, "data_path = ") {
				idx = i
				break
			}
		}
		assert.Greater(t, idx, 3, "injection should come after imports")
		assert.Contains(t, out, `data_path = "/data/BTC-USD.csv"`)
		assert.Contains(t, out, "# Data path for BTC-USD (injected by multi-asset tester)")
		assert.Contains(t, out, "def run():")
	})

	t.Run("Body Preserved Verbatim", func(t *testing.T) {
		src := "import os\n\nx = 1\ny = 2\n"
		out := injectDataPath(src, "ETH-USD", "/d/e.csv")
		assert.Contains(t, out, "x = 1\ny = 2\n")
	})
}

func TestLoadRulesFile(t *testing.T) {
	writeRules := func(t *testing.T, content string) string {
		t.Helper()
		path := filepath.Join(t.TempDir(), "rules.yaml")
		assert.NoError(t, os.WriteFile(path, []byte(content), 0o644))
		return path
	}

	t.Run("Valid File", func(t *testing.T) {
		path := writeRules(t, `rules:
  - name: assign
    pattern: 'x = "a"'
    template: 'x = "{path}"'
`)
		rules, err := LoadRulesFile(path)
		assert.NoError(t, err)
		assert.Len(t, rules, 1)
		assert.Equal(t, "assign", rules[0].Name)
	})

	t.Run("Schema Rejects Missing Template", func(t *testing.T) {
		path := writeRules(t, `rules:
  - name: assign
    pattern: 'x'
`)
		_, err := LoadRulesFile(path)
		assert.Error(t, err)
	})

	t.Run("Schema Rejects Empty Rules", func(t *testing.T) {
		path := writeRules(t, "rules: []\n")
		_, err := LoadRulesFile(path)
		assert.Error(t, err)
	})

	t.Run("Unknown Field Rejected", func(t *testing.T) {
		path := writeRules(t, `rules:
  - name: assign
    pattern: 'x'
    template: '{path}'
extra: true
`)
		_, err := LoadRulesFile(path)
		assert.Error(t, err)
	})
}
