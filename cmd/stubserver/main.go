package main

import (
	"log/slog"
	"os"

	"expenseport/internal/platform/config"
	"expenseport/internal/stub"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("Failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	store := stub.NewStore()
	if err := store.SeedDefaults(); err != nil {
		logger.Error("Failed to seed stub accounts", slog.String("error", err.Error()))
		os.Exit(1)
	}
	logger.Info("Seeded development accounts", slog.String("accounts", "admin/admin123, employee/employee123"))

	server := stub.NewServer(cfg, store, logger)
	r := server.Router()

	logger.Info("Stub server starting", slog.String("port", cfg.Port))
	if err := r.Run(":" + cfg.Port); err != nil {
		logger.Error("Stub server failed to run", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
