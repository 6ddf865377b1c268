// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-json-experiment/json"
	"golang.org/x/sync/errgroup"

	"github.com/go-a2a/taskcore"
)

// AgentCardPath is the well-known location of the agent descriptor.
const AgentCardPath = "/.well-known/agent.json"

// DefaultShutdownTimeout bounds graceful shutdown of in-flight
// requests.
const DefaultShutdownTimeout = 10 * time.Second

// Server exposes a [TaskManager] over HTTP: the JSON-RPC endpoint on
// POST / and the agent card on its well-known path.
type Server struct {
	manager *TaskManager
	handler *Handler
	card    *taskcore.AgentCard
	logger  *slog.Logger

	httpServer      *http.Server
	shutdownTimeout time.Duration
}

// ServerConfig holds configuration for a [Server].
type ServerConfig struct {
	// Addr is the listen address, for example ":8080". Required.
	Addr string

	// Manager drives the task lifecycle. Required.
	Manager *TaskManager

	// Card is the agent descriptor served on the well-known path and
	// via agent/getCard. Required.
	Card *taskcore.AgentCard

	// Logger receives server logs. Defaults to slog.Default.
	Logger *slog.Logger

	// ReadHeaderTimeout guards against slow clients. Defaults to 10s.
	ReadHeaderTimeout time.Duration

	// ShutdownTimeout bounds graceful shutdown. Defaults to
	// DefaultShutdownTimeout.
	ShutdownTimeout time.Duration
}

// NewServer creates a new Server.
func NewServer(config ServerConfig) (*Server, error) {
	if config.Addr == "" {
		return nil, errors.New("listen address is required")
	}
	if config.Manager == nil {
		return nil, errors.New("task manager is required")
	}
	if config.Card == nil {
		return nil, errors.New("agent card is required")
	}
	if err := config.Card.Validate(); err != nil {
		return nil, fmt.Errorf("invalid agent card: %w", err)
	}

	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	readHeaderTimeout := config.ReadHeaderTimeout
	if readHeaderTimeout <= 0 {
		readHeaderTimeout = 10 * time.Second
	}
	shutdownTimeout := config.ShutdownTimeout
	if shutdownTimeout <= 0 {
		shutdownTimeout = DefaultShutdownTimeout
	}

	s := &Server{
		manager:         config.Manager,
		handler:         NewHandler(config.Manager, config.Card, logger),
		card:            config.Card,
		logger:          logger,
		shutdownTimeout: shutdownTimeout,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET "+AgentCardPath, s.handleAgentCard)
	mux.Handle("POST /", s.handler)

	s.httpServer = &http.Server{
		Addr:              config.Addr,
		Handler:           mux,
		ReadHeaderTimeout: readHeaderTimeout,
	}
	return s, nil
}

// Handler returns the JSON-RPC endpoint, for mounting on an external
// mux or test server.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Run serves until ctx is canceled, then drains in-flight requests and
// waits for running task processors before returning.
func (s *Server) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s.logger.InfoContext(ctx, "server listening", slog.String("addr", s.httpServer.Addr))
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
		defer cancel()
		return s.httpServer.Shutdown(shutdownCtx)
	})

	err := g.Wait()
	s.manager.Wait()
	return err
}

func (s *Server) handleAgentCard(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.MarshalWrite(w, s.card); err != nil {
		http.Error(w, "failed to encode agent card", http.StatusInternalServerError)
	}
}
