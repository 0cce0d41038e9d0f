package server

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/teranos/typeahead/am"
	"github.com/teranos/typeahead/errors"
	"github.com/teranos/typeahead/logger"
)

// getState returns the current server state
func (s *Server) getState() ServerState {
	return ServerState(s.state.Load())
}

// setState atomically updates the server state
func (s *Server) setState(newState ServerState) {
	s.state.Store(int32(newState))
	s.logger.Infow("Server state changed", "new_state", stateString(newState))
}

// stateString returns human-readable state name
func stateString(state ServerState) string {
	switch state {
	case ServerStateRunning:
		return "running"
	case ServerStateDraining:
		return "draining"
	case ServerStateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// startConfigWatcher reloads limits and policy when the config file changes
func (s *Server) startConfigWatcher() {
	if s.configPath == "" {
		return
	}
	watcher, err := am.NewConfigWatcher(s.configPath)
	if err != nil {
		s.logger.Warnw("Config hot reload disabled", "path", s.configPath, logger.FieldError, err)
		return
	}
	watcher.OnReload(s.ApplyConfig)
	watcher.Start()
	s.configWatcher = watcher
	s.logger.Infow("Watching config for changes", "path", s.configPath)
}

// Start serves HTTP on port, or the next free port after it, and blocks
// until Stop is called.
func (s *Server) Start(port int) error {
	actualPort, err := findAvailablePort(port)
	if err != nil {
		return errors.Wrap(err, "failed to find available port")
	}
	if actualPort != port {
		s.logger.Infow("Port in use, using alternative",
			"requested_port", port,
			"actual_port", actualPort,
		)
	}

	s.startConfigWatcher()

	s.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", actualPort),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return s.ctx },
	}

	logger.AddTransportSymbol(s.logger).Infow("Server ready",
		"url", fmt.Sprintf("http://localhost:%d", actualPort),
		logger.FieldPort, actualPort,
	)

	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "http server")
	}
	return nil
}

// Stop drains the server: new API requests are refused, in-flight requests
// finish, and open LSP sessions are closed.
func (s *Server) Stop() error {
	if s.getState() != ServerStateRunning {
		return nil
	}
	s.logger.Infow("Initiating server shutdown")
	s.setState(ServerStateDraining)

	var shutdownErr error
	if s.httpServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
		defer cancel()
		if err := s.httpServer.Shutdown(ctx); err != nil {
			shutdownErr = errors.Wrap(err, "http shutdown")
		}
	}

	// Hijacked WebSocket connections are not tracked by http.Server
	s.closeSessions()

	s.cancel()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		s.logger.Infow("All sessions stopped cleanly")
	case <-time.After(ShutdownTimeout):
		s.logger.Warnw("Session shutdown timed out, forcing exit", "timeout", ShutdownTimeout)
	}

	if s.configWatcher != nil {
		if err := s.configWatcher.Stop(); err != nil {
			s.logger.Warnw("Failed to stop config watcher", logger.FieldError, err)
		}
	}

	s.setState(ServerStateStopped)
	s.logger.Infow("Server shutdown complete")
	return shutdownErr
}
