// Command yatube 运行博客服务并提供管理子命令
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/d60-Lab/yatube/config"
	"github.com/d60-Lab/yatube/pkg/logger"
)

var rootCmd = &cobra.Command{
	Use:   "yatube",
	Short: "Yatube blogging platform",
	Long: `Yatube serves the blog pages and the JSON API.

Configuration is read from config/config.yaml (or CONFIG_PATH) and can be
overridden with YATUBE_* environment variables, e.g. YATUBE_SERVER_PORT=9000.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.AddCommand(serveCmd, migrateCmd, groupCmd, userCmd)
}

// setup 加载配置并初始化日志，所有子命令共用
func setup() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if err := logger.Init(cfg.Log.Level, cfg.Log.Format); err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	return cfg, nil
}

// @title Yatube API
// @version 1.0
// @description 帖子、分组、评论与关注关系的 JSON 接口
// @BasePath /api/v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
