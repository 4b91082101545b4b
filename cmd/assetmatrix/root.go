package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// version is set at build time via -ldflags.
var version = "dev"

var rootCmd = &cobra.Command{
	Use:   "assetmatrix",
	Short: "在全部资产上并行验证一个交易策略",
	Long: "assetmatrix 把单资产策略脚本改写为逐资产变体，\n" +
		"在 worker 池中并行执行，并汇总各资产的回测指标。",
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
}

var rootFlags struct {
	config string
}

func init() {
	rootCmd.PersistentFlags().StringVar(&rootFlags.config, "config", "", "配置文件路径（默认 ASSETMATRIX_CONFIG 或 configs/config.yaml）")
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(assetsCmd)
	rootCmd.Version = version
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
