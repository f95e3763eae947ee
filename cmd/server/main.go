package main

import (
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/pointdeck/pointdeck/internal/server"
)

const shutdownTimeout = 10 * time.Second

func main() {
	log.Println("Starting PointDeck server...")

	if err := godotenv.Load(); err == nil {
		log.Println("Loaded configuration from .env")
	}

	cfg, err := server.NewConfigFromEnv()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	server.SetConfig(cfg)

	hub := server.NewHub()
	server.StartHub(hub)

	mux := server.SetupRoutes(hub)
	httpServer := server.CreateServer(cfg.Port, mux)

	go func() {
		if err := server.StartServer(httpServer); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("HTTP server failed: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	log.Println("Shutdown signal received")

	if err := server.ShutdownServer(httpServer, shutdownTimeout); err != nil {
		log.Printf("HTTP shutdown incomplete: %v", err)
	}
	if err := hub.Shutdown(shutdownTimeout); err != nil {
		log.Printf("Hub shutdown incomplete: %v", err)
	}
}
