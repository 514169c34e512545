package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"progress-sync/internal/assignment"
	"progress-sync/internal/config"
	"progress-sync/internal/health"
	"progress-sync/internal/logging"
	"progress-sync/internal/supabase"
)

func main() {
	var (
		watch    = flag.Bool("watch", false, "keep watching backend health and reconcile on recovery")
		interval = flag.Duration("interval", 30*time.Second, "health probe interval in watch mode")
	)
	flag.Parse()

	_ = godotenv.Load()
	cfg := config.Load()

	logger, err := logging.New(cfg.Env)
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()

	if !cfg.SupabaseEnabled() {
		log.Fatal("SUPABASE_DB_URL is required: nothing to reconcile against")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := supabase.Connect(ctx, cfg.SupabaseDBURL)
	if err != nil {
		log.Fatalf("supabase connect: %v", err)
	}
	defer db.Close()

	local := assignment.NewLocalRepository(cfg.StateDir, logger)
	rec := assignment.NewReconciler(local, assignment.NewRemoteRepository(db), logger)

	if !*watch {
		runCtx, cancel := context.WithTimeout(ctx, 2*time.Minute)
		defer cancel()
		if err := rec.Run(runCtx); err != nil {
			log.Fatalf("reconcile: %v", err)
		}
		fmt.Println("reconcile done")
		return
	}

	monitor := health.NewMonitor(db.Ping, *interval, logger)
	monitor.OnHealthy(func() {
		logger.Info("backend healthy, draining local assignments")
		rec.Schedule(2 * time.Minute)
	})

	logger.Info("watching backend health", zap.Duration("interval", *interval))
	monitor.Run(ctx)
}
