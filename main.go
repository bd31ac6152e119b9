package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"i4.energy/across/loragw/rn2483"
)

func main() {
	flag.String("serial-port", "/dev/ttyUSB0", "Serial port to connect to the module")
	flag.Int("baud-rate", 57600, "Baud rate for serial communication")
	flag.String("bind-address", "0.0.0.0:8080", "Bind address for the HTTP server")
	flag.String("log-level", "info", "Log level (debug, info, warn, error)")
	flag.String("app-eui", "", "Hex-encoded application EUI for OTAA")
	flag.String("app-key", "", "Hex-encoded application key for OTAA")
	flag.String("mqtt-broker", "", "MQTT broker URL (empty disables MQTT)")
	flag.String("mqtt-topic", "lora/uplink", "MQTT topic carrying uplink requests")
	flag.Parse()

	config, err := LoadConfig(WithDefaults(), WithEnv(), WithFlags(flag.CommandLine))
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	logLevel := slog.LevelInfo
	switch config.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))

	driverConfig, err := rn2483.NewConfigBuilder().
		WithCredentials(config.AppEUI, config.AppKey).
		WithCmdTimeout(5 * time.Second).
		WithJoinTimeout(30 * time.Second).
		WithTxTimeout(30 * time.Second).
		WithLogger(logger.With("component", "rn2483")).
		WithDialer(rn2483.SerialDialer{
			PortName: config.SerialPort,
			BaudRate: config.BaudRate,
		}).
		Build()
	if err != nil {
		logger.Error("Failed to create driver config", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	driver, err := rn2483.New(ctx, driverConfig)
	if err != nil {
		logger.Error("Failed to connect to module", "error", err)
		os.Exit(1)
	}

	logger.Info("Starting LoRa Gateway", "hweui", driver.HardwareEUI())

	if err := driver.InitializeOTAA(ctx); err != nil {
		// Keep serving; POST /join retries the activation.
		logger.Warn("Initial join failed", "error", err)
	}

	sender := NewSender(logger.With("component", "sender"), driver, 16)
	go sender.Run(ctx)

	httpServer := &http.Server{
		Addr: config.BindAddress,
		Handler: &Server{
			Logger: logger.With("component", "server"),
			Driver: driver,
			Sender: sender,
		},
	}

	if config.MQTTBroker != "" {
		client, err := startMQTT(ctx, logger.With("component", "mqtt"), config, sender)
		if err != nil {
			logger.Error("Failed to start MQTT ingestion", "error", err)
			os.Exit(1)
		}
		defer client.Disconnect(250)
	}

	// Channel to listen for interrupt signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// Start HTTP server in a goroutine
	go func() {
		logger.Info("Starting HTTP server", "address", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("HTTP server failed", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	sig := <-sigChan
	logger.Info("Received shutdown signal", "signal", sig)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	logger.Info("Closing HTTP server")
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("Failed to gracefully shutdown server", "error", err)
	}

	cancel()

	logger.Info("Closing module connection")
	if err := driver.Close(); err != nil {
		logger.Error("Failed to close driver", "error", err)
	}
}
