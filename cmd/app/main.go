package main

import (
	"context"
	"flag"
	"log"
	"os/signal"
	"strings"
	"syscall"

	"MacroSync/internal/di"
	"MacroSync/internal/usecase"
	"MacroSync/pkg/config"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to configuration file")
	once := flag.Bool("once", false, "run a single sweep and exit")
	backfill := flag.Bool("backfill", false, "refetch every table from its full start")
	tables := flag.String("tables", "", "comma-separated table names to sync (default all)")
	flag.Parse()

	cfg, err := config.LoadWithEnv(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	app, err := di.InitializeApp(cfg)
	if err != nil {
		log.Fatalf("initialize: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if *once || *backfill || *tables != "" {
		opts := usecase.RunOptions{Backfill: *backfill}
		if *tables != "" {
			opts.Tables = strings.Split(*tables, ",")
		}
		if err := app.RunOnce(ctx, opts); err != nil {
			log.Fatalf("sync: %v", err)
		}
		return
	}

	if err := app.Run(ctx); err != nil {
		log.Fatalf("run: %v", err)
	}
}
