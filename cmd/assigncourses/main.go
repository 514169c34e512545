package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"progress-sync/internal/assignment"
	"progress-sync/internal/config"
	"progress-sync/internal/events"
	"progress-sync/internal/logging"
	"progress-sync/internal/providers/huddle"
	"progress-sync/internal/supabase"
)

func main() {
	var (
		courseID = flag.String("course", "", "backend course id to assign")
		users    = flag.String("users", "", "comma-separated user ids to assign")
		listFor  = flag.String("list", "", "list assignments for one user instead of assigning")
		progress = flag.Int("progress", -1, "set progress for -course + first of -users")
		dueDate  = flag.String("due", "", "optional due date (ISO)")
		note     = flag.String("note", "", "optional note")
		by       = flag.String("by", "", "optional assigner id")
	)
	flag.Parse()

	_ = godotenv.Load()
	cfg := config.Load()

	logger, err := logging.New(cfg.Env)
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	db, err := supabase.Connect(ctx, cfg.SupabaseDBURL)
	if err != nil {
		// sin backend seguimos en modo local
		logger.Warn("supabase unavailable, running local-only", zap.Error(err))
	}
	defer db.Close()

	bus := events.NewBus()
	bus.Subscribe(func(ev events.Event) {
		logger.Info("assignment event",
			zap.String("type", string(ev.Type)),
			zap.String("courseId", ev.CourseID),
			zap.String("userId", ev.UserID),
			zap.String("source", ev.Source))
	})

	store := assignment.NewStore(
		assignment.NewRemoteRepository(db),
		huddle.New(cfg.HuddleBaseURL, cfg.HuddleAPIKey),
		assignment.NewLocalRepository(cfg.StateDir, logger),
		bus,
		logger,
	)

	switch {
	case *listFor != "":
		recs := store.AssignmentsForUser(ctx, *listFor)
		fmt.Printf("%d assignments for %s\n", len(recs), *listFor)
		for i, rec := range recs {
			fmt.Printf("%d) %s %s %d%%\n", i+1, rec.CourseID, rec.Status, rec.Progress)
		}

	case *progress >= 0:
		userIDs := splitIDs(*users)
		if *courseID == "" || len(userIDs) == 0 {
			log.Fatal("usage: assigncourses -course <id> -users <id> -progress <0-100>")
		}
		rec := store.UpdateProgress(ctx, *courseID, userIDs[0], *progress)
		if rec == nil {
			log.Fatalf("no assignment for %s / %s", *courseID, userIDs[0])
		}
		fmt.Printf("updated: %s -> %s %d%%\n", rec.UserID, rec.Status, rec.Progress)

	default:
		userIDs := splitIDs(*users)
		if *courseID == "" || len(userIDs) == 0 {
			log.Fatal("usage: assigncourses -course <id> -users a@x.com,b@x.com")
		}
		recs := store.AddAssignments(ctx, *courseID, userIDs, assignment.AssignOptions{
			DueDate:    *dueDate,
			Note:       *note,
			AssignedBy: *by,
		})
		fmt.Printf("assigned %d users to %s\n", len(recs), *courseID)
	}
}

func splitIDs(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}
