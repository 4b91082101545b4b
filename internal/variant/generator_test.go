package variant

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerator_Rewrite(t *testing.T) {
	g := NewGenerator(nil)

	t.Run("Pure Function", func(t *testing.T) {
		src := "data_path = 'old.csv'\n"
		a, _ := g.Rewrite(src, "BTC-USD", "/d/BTC-USD.csv")
		b, _ := g.Rewrite(src, "BTC-USD", "/d/BTC-USD.csv")
		assert.Equal(t, a, b)
	})

	t.Run("Falls Back To Injection", func(t *testing.T) {
		out, matched := g.Rewrite("print('no data refs')\n", "ETH-USD", "/d/ETH-USD.csv")
		assert.False(t, matched)
		assert.Contains(t, out, `data_path = "/d/ETH-USD.csv"`)
	})
}

func TestGenerator_Generate(t *testing.T) {
	g := NewGenerator(nil)

	t.Run("Writes Variant And Keeps Original", func(t *testing.T) {
		dir := t.TempDir()
		original := "import pandas as pd\ndata_path = 'old.csv'\n"
		strategyPath := filepath.Join(dir, "my_strategy.py")
		assert.NoError(t, os.WriteFile(strategyPath, []byte(original), 0o644))

		outDir := filepath.Join(dir, "variants")
		variantPath, err := g.Generate(strategyPath, "BTC-USD", "/d/BTC-USD.csv", outDir)
		assert.NoError(t, err)
		assert.Equal(t, filepath.Join(outDir, "my_strategy_BTC-USD.py"), variantPath)

		variantRaw, err := os.ReadFile(variantPath)
		assert.NoError(t, err)
		assert.Contains(t, string(variantRaw), `data_path = "/d/BTC-USD.csv"`)

		// 原始文件逐字节不变
		originalRaw, err := os.ReadFile(strategyPath)
		assert.NoError(t, err)
		assert.Equal(t, original, string(originalRaw))
	})

	t.Run("Missing Strategy File", func(t *testing.T) {
		_, err := g.Generate(filepath.Join(t.TempDir(), "missing.py"), "BTC-USD", "/d/x.csv", t.TempDir())
		assert.Error(t, err)
	})

	t.Run("Distinct Variants Per Symbol", func(t *testing.T) {
		dir := t.TempDir()
		strategyPath := filepath.Join(dir, "s.py")
		assert.NoError(t, os.WriteFile(strategyPath, []byte("data_path = 'x.csv'\n"), 0o644))

		p1, err := g.Generate(strategyPath, "BTC-USD", "/d/BTC-USD.csv", dir)
		assert.NoError(t, err)
		p2, err := g.Generate(strategyPath, "ETH-USD", "/d/ETH-USD.csv", dir)
		assert.NoError(t, err)
		assert.NotEqual(t, p1, p2)
	})
}
