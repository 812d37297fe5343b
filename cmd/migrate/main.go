// Command migrate applies the embedded schema migrations and exits.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/ovaphlow/pitchfork/service-taskbite/pkg/database"
	"github.com/ovaphlow/pitchfork/service-taskbite/pkg/utilities"
)

func main() {
	_ = godotenv.Load()

	// init logger
	lg, err := utilities.Init(utilities.ConfigFromEnv())
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer lg.Sync()

	sugar := lg.Sugar()

	cfg := database.ConfigFromEnv()
	if cfg.Driver == database.DriverMemory {
		sugar.Info("memory driver has no schema; nothing to migrate")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	// init db
	db, err := database.Connect(cfg)
	if err != nil {
		sugar.Fatalf("db connect: %v", err)
	}
	defer db.Close()

	if err := database.Migrate(ctx, db, cfg.Driver, sugar); err != nil {
		sugar.Fatalf("migrate: %v", err)
	}
	sugar.Infow("migrations applied", "driver", cfg.Driver)
}
