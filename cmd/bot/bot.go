package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/abelzeko/panchayat-water/internal/api"
	"github.com/abelzeko/panchayat-water/internal/app"
	"go.uber.org/zap"
)

func main() {
	a, err := app.New("panchayat-water-bot")
	if err != nil {
		log.Fatalf("Failed to start bot: %v", err)
	}

	if err := run(a); err != nil {
		a.Logger.Error("Bot stopped", zap.Error(err))
		a.Close()
		os.Exit(1)
	}
	a.Close()
}

func run(a *app.App) error {
	if a.Config.TelegramBotToken == "" {
		return errors.New("TELEGRAM_BOT_TOKEN environment variable is not set")
	}

	telegramBot, err := api.NewTelegramBot(a.Config.TelegramBotToken, a.UseCase, a.Logger)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	telegramBot.Start(ctx)
	return nil
}
