package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"chat-relay/internal/config"
	"chat-relay/internal/handlers"
	"chat-relay/internal/presence"
	"chat-relay/internal/websocket"
	"chat-relay/pkg/logger"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger.SetLevel(logger.ParseLevel(cfg.LogLevel))

	// Presence state: session table and room directory behind one protocol
	sessions := presence.NewSessionTable()
	directory := presence.NewRoomDirectory()

	// Transport and fan-out
	hub := websocket.NewHub()
	broadcaster := presence.NewBroadcaster(directory, hub)
	svc := presence.NewService(sessions, directory, broadcaster, presence.NewLogObserver())

	// Handlers and routes
	wsHandlers := handlers.NewWebSocketHandlers(svc, hub, cfg.SendBufferSize)

	mux := http.NewServeMux()
	mux.HandleFunc("/", handlers.Health)
	mux.HandleFunc("/ws", wsHandlers.HandleWebSocket)

	server := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      mux,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	logger.Info("🚀 Server started on http://localhost%s", cfg.Addr())
	logger.Info("📡 WebSocket endpoint: ws://localhost%s/ws", cfg.Addr())

	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-quit:
	}

	logger.Info("Server shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(ctx)
}
