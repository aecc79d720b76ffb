package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/LJTian/GrantHub/internal/aggregator"
	"github.com/LJTian/GrantHub/internal/config"
	"github.com/LJTian/GrantHub/internal/logging"
	"github.com/LJTian/GrantHub/internal/scheduler"
	"github.com/LJTian/GrantHub/internal/storage"
	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

// 一个仅执行一次采集任务的命令行入口：适合手动触发或由外部 cron 调用
func main() {
	app := &cli.App{
		Name:  "collect",
		Usage: "run one grant collection and store the snapshot",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "sources",
				Usage:   "TOML file with listings / discussion / feeds URL lists",
				EnvVars: []string{"SOURCES_FILE"},
			},
			&cli.StringFlag{
				Name:    "out",
				Usage:   "snapshot file path (file backend)",
				EnvVars: []string{"SNAPSHOT_PATH"},
			},
			&cli.StringFlag{
				Name:    "store",
				Usage:   "store backend: memory, file, redis or postgres",
				EnvVars: []string{"STORE_BACKEND"},
			},
			&cli.BoolFlag{
				Name:  "print",
				Usage: "print the collected grants as JSON to stdout",
			},
		},
		Action: run,
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func run(c *cli.Context) error {
	// 命令行参数优先于环境变量
	for flag, env := range map[string]string{"sources": "SOURCES_FILE", "out": "SNAPSHOT_PATH", "store": "STORE_BACKEND"} {
		if v := c.String(flag); v != "" {
			if err := os.Setenv(env, v); err != nil {
				return err
			}
		}
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logging.Setup(cfg.LogLevel, cfg.LogFormat)
	log.Printf("config loaded: %s", cfg.Summary())

	store, err := storage.Open(cfg)
	if err != nil {
		return fmt.Errorf("init store failed: %w", err)
	}

	// 定时规格留空：只执行一轮采集后退出
	s, err := scheduler.New("", aggregator.FromConfig(cfg), store)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	snap, err := s.RunOnce(ctx)
	if err != nil {
		return err
	}
	log.Printf("collected %d grants, %d failed fetches, stored at %s", len(snap.Grants), snap.Failed(), store.Location())

	if c.Bool("print") {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "    ")
		return enc.Encode(snap.Grants)
	}
	return nil
}
