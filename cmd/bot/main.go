package main

import (
	"context"
	"flag"
	"time"

	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/shrimpsizemoose/gradebook/internal/app"
	"github.com/shrimpsizemoose/gradebook/internal/bot"
	"github.com/shrimpsizemoose/gradebook/internal/grading"
)

func main() {
	var configPath = flag.String("config", "config.toml", "Path to config file")
	flag.Parse()

	cfg, err := bot.ReadConfig(*configPath)
	if err != nil {
		logger.Error.Fatalf("Failed to read config: %v", err)
	}

	store, err := app.NewStore(app.DBConfigFromDSN(cfg.Database.DSN, cfg.Database.MigrationsDir))
	if err != nil {
		logger.Error.Fatalf("Failed to create store: %v", err)
	}
	defer store.Close()

	gradebook := grading.NewService(
		store,
		app.NewGraders(cfg.Grading.ManualTypes),
		grading.NewExamAssembly(store),
		grading.NewArchiveLedger(store),
	)

	var tokens bot.QuizTokens
	if cfg.Auth.RedisURL != "" {
		client, err := app.NewRedisClient(context.Background(), cfg.Auth.RedisURL)
		if err != nil {
			logger.Error.Fatalf("Failed to connect to redis: %v", err)
		}
		tm := app.NewTokenManager(client, cfg.Auth.TokenKeyTemplate, time.Duration(cfg.Auth.TokenTTLHours)*time.Hour)
		defer tm.Close()
		tokens = tm
	} else {
		logger.Info.Println("No redis configured, quiz token commands are disabled")
	}

	b, err := bot.New(cfg, store, gradebook, tokens)
	if err != nil {
		logger.Error.Fatalf("Failed to create bot: %v", err)
	}

	logger.Info.Println("Bot initialized successfully")
	if err := b.Start(); err != nil {
		logger.Error.Fatalf("Bot error: %v", err)
	}
}
