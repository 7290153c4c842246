package main

import (
	"context"
	"fmt"
	"os"
	"time"

	_ "go.uber.org/automaxprocs"

	"go.uber.org/zap"

	"go-gin-gorm-user/internal/app"
	"go-gin-gorm-user/internal/transport/http/router"
)

func main() {
	cfg, log, cleanup, err := app.Bootstrap()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}
	defer cleanup()

	// 数据库 + 依赖装配（失败直接 Fatal）
	a, err := app.New(cfg, log)
	if err != nil {
		log.Fatal("bootstrap failed", zap.Error(err))
	}
	defer a.Close()

	// 首次启动写入 root / 普通用户
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	a.Seed(ctx)
	cancel()

	// 路由（用户端）
	r := router.NewAPIEngine(a.Deps())

	// 启动日志
	host4human := cfg.App.HTTP.Host
	if host4human == "" || host4human == "0.0.0.0" {
		host4human = "127.0.0.1"
	}
	baseURL := "http://" + host4human + ":" + fmt.Sprint(cfg.App.HTTP.Port)
	log.Info("user api routes",
		zap.String("open", baseURL),
		zap.String("health", baseURL+"/health"),
		zap.String("metrics", baseURL+"/metrics"),
		zap.String("api_v1", baseURL+"/api/v1"),
	)

	if err := a.Serve("user api", r, cfg.App.HTTP.Host, cfg.App.HTTP.Port); err != nil {
		log.Error("user api exited", zap.Error(err))
		a.Close()
		cleanup()
		os.Exit(1)
	}
}
