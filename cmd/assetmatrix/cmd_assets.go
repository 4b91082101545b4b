package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"assetmatrix/internal/catalog"
)

var assetsCmd = &cobra.Command{
	Use:   "assets",
	Short: "列出数据目录中可用的资产",
	RunE:  runAssets,
}

func runAssets(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	cat := catalog.Discover(cfg.Data.Dir, cfg.Data.Extensions)
	if cat.Len() == 0 {
		fmt.Printf("目录 %s 中没有可用数据文件\n", cfg.Data.Dir)
		return nil
	}
	fmt.Printf("数据目录: %s（%d 个资产）\n", cat.Dir(), cat.Len())
	for _, a := range cat.Assets() {
		fmt.Printf("  %-12s %8.2f MB  %s\n", a.Symbol, float64(a.SizeBytes)/1024.0/1024.0, a.DataPath)
	}
	return nil
}
