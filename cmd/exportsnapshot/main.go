package main

import (
	"context"
	"flag"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"progress-sync/internal/assignment"
	"progress-sync/internal/config"
	"progress-sync/internal/export"
	"progress-sync/internal/logging"
	"progress-sync/internal/progress"
	"progress-sync/internal/sftpclient"
)

func main() {
	var (
		outPath    = flag.String("out", "PROGRESS-SNAPSHOT.csv", "output csv path")
		userID     = flag.String("user", "", "learner user id (progress export)")
		slug       = flag.String("slug", "", "course slug (progress export)")
		doAssign   = flag.Bool("assignments", false, "export pending local assignments instead of progress")
		uploadSFTP = flag.Bool("sftp", false, "upload the generated CSV via SFTP")
	)
	flag.Parse()

	_ = godotenv.Load()
	cfg := config.Load()

	logger, err := logging.New(cfg.Env)
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()

	// asegura dir de salida
	if dir := filepath.Dir(*outPath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			log.Fatal(err)
		}
	}

	out, err := os.Create(*outPath)
	if err != nil {
		log.Fatal(err)
	}

	if *doAssign {
		local := assignment.NewLocalRepository(cfg.StateDir, logger)
		recs := local.Pending()
		if err := export.WriteAssignmentsCSV(out, recs); err != nil {
			log.Fatalf("write csv: %v", err)
		}
		logger.Info("wrote assignment snapshot",
			zap.Int("records", len(recs)), zap.String("path", *outPath))
	} else {
		if *userID == "" || *slug == "" {
			log.Fatal("usage: exportsnapshot -user <id> -slug <slug> [-out file.csv]")
		}
		store := progress.NewStore(cfg.StateDir, logger, nil)
		rec := store.Load(*slug)
		if err := export.WriteProgressCSV(out, *userID, *slug, rec, time.Now()); err != nil {
			log.Fatalf("write csv: %v", err)
		}
		logger.Info("wrote progress snapshot",
			zap.String("slug", *slug), zap.String("path", *outPath))
	}

	if err := out.Close(); err != nil {
		log.Fatal(err)
	}

	if *uploadSFTP {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()

		upCfg := sftpclient.Config{
			Host:      cfg.SFTPHost,
			Port:      cfg.SFTPPort,
			User:      cfg.SFTPUser,
			Pass:      cfg.SFTPPass,
			RemoteDir: cfg.SFTPRemoteDir,
			// dev: el drop-zone interno no tiene known_hosts
			InsecureIgnoreHostKey: true,
		}
		remoteName := filepath.Base(*outPath)
		if err := sftpclient.UploadFile(ctx, upCfg, *outPath, remoteName); err != nil {
			log.Fatalf("sftp upload: %v", err)
		}
		logger.Info("uploaded snapshot", zap.String("remote", remoteName))
	}
}
