// Command export writes an owner's bookings to an xlsx file under exports.path.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"shareit/internal/config"
	"shareit/internal/database"
	"shareit/internal/export"
	"shareit/internal/logging"
	"shareit/internal/service"
)

func main() {
	ownerID := flag.Int64("owner", 0, "owner user id")
	state := flag.String("state", "ALL", "booking state filter")
	flag.Parse()

	if err := run(*ownerID, *state); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

func run(ownerID int64, state string) error {
	if ownerID <= 0 {
		return fmt.Errorf("-owner must be a positive user id")
	}

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, closer, err := logging.New(cfg.Logging, cfg.App)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	if closer != nil {
		defer (func() { _ = closer.Close() })()
	}
	logger = logging.Component(logger, "export")

	db, err := database.NewDB(cfg.Database, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	guard := service.NewConsistencyService(db, logger)
	items := service.NewItemService(db, guard, cfg.Cache.ItemSize, cfg.Cache.ItemTTL(), logger)
	bookings := service.NewBookingService(db, guard, items, nil, logger)

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	list, err := bookings.ListForOwner(ctx, ownerID, state, nil, nil)
	if err != nil {
		return err
	}

	path, err := export.SaveBookings(cfg.Exports.Path, ownerID, list, time.Now())
	if err != nil {
		return err
	}
	logger.Info().Str("file_path", path).Int("bookings", len(list)).Msg("Excel file created")
	return nil
}
