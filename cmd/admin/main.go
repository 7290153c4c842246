package main

import (
	"fmt"
	"os"

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

	// DB 连接 + 依赖（失败直接 Fatal）
	a, err := app.New(cfg, log)
	if err != nil {
		log.Fatal("bootstrap failed", zap.Error(err))
	}
	defer a.Close()

	// 路由（后台端）
	r := router.NewAdminEngine(a.Deps())

	// 启动前打印可点击地址
	host4human := cfg.App.Admin.Host
	if host4human == "" || host4human == "0.0.0.0" {
		host4human = "127.0.0.1"
	}
	baseURL := "http://" + host4human + ":" + fmt.Sprint(cfg.App.Admin.Port)
	log.Info("admin api routes",
		zap.String("open", baseURL),
		zap.String("health", baseURL+"/health"),
		zap.String("admin_v1", baseURL+"/admin/v1"),
	)

	if err := a.Serve("admin api", r, cfg.App.Admin.Host, cfg.App.Admin.Port); err != nil {
		log.Error("admin api exited", zap.Error(err))
		a.Close()
		cleanup()
		os.Exit(1)
	}
}
