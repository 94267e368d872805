package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/abelzeko/panchayat-water/internal/api"
	"github.com/abelzeko/panchayat-water/internal/app"
	"github.com/abelzeko/panchayat-water/internal/integration/telemetry"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const telemetryTimeout = 30 * time.Second

func main() {
	a, err := app.New("panchayat-water-server")
	if err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}

	if err := run(a); err != nil {
		a.Logger.Error("Server stopped", zap.Error(err))
		a.Close()
		os.Exit(1)
	}
	a.Close()
}

func run(a *app.App) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if a.Config.MQTT.Broker != "" {
		client, err := telemetry.NewClient(telemetry.Options{
			Broker:   a.Config.MQTT.Broker,
			ClientID: a.Config.MQTT.ClientID,
			Username: a.Config.MQTT.Username,
			Password: a.Config.MQTT.Password,
		}, a.Logger)
		if err != nil {
			return err
		}
		defer client.Disconnect()

		handler := telemetry.NewLeakHandler(a.Config.MQTT.Topic, a.UseCase, telemetryTimeout, a.Logger)
		if err := client.Subscribe(a.Config.MQTT.Topic, 1, handler); err != nil {
			return err
		}
	} else {
		a.Logger.Info("MQTT_BROKER not set, telemetry ingest disabled")
	}

	if a.Config.Log.Format != "console" {
		gin.SetMode(gin.ReleaseMode)
	}
	server := api.NewHTTPServer(a.UseCase, a.Logger)
	if err := server.Run(ctx, a.Config.HTTPAddr); err != nil {
		return fmt.Errorf("HTTP server failed: %w", err)
	}
	return nil
}
