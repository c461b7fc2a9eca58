package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/GriffinCanCode/QuantumBrowser/backend/internal/infrastructure/config"
	"github.com/GriffinCanCode/QuantumBrowser/backend/internal/infrastructure/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	// Flags override the environment
	port := flag.String("port", cfg.Server.Port, "Server port")
	dev := flag.Bool("dev", cfg.Logging.Development, "Development mode (console logs, debug level)")
	simulator := flag.Bool("simulator", cfg.Bridge.Mode == config.ModeSimulator, "Use the in-process simulator backend")
	flag.Parse()

	cfg.Server.Port = *port
	if *dev {
		cfg.Logging.Development = true
		cfg.Logging.Level = "debug"
	}
	if *simulator {
		cfg.Bridge.Mode = config.ModeSimulator
	}

	srv, err := server.NewServer(cfg)
	if err != nil {
		log.Fatalf("Failed to create server: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runErr := srv.Run(ctx)
	if runErr != nil {
		log.Printf("Server error: %v", runErr)
	}
	if err := srv.Close(); err != nil {
		log.Printf("Error during shutdown: %v", err)
	}
	if runErr != nil {
		os.Exit(1)
	}
}
