package handler

import (
	"context"
	"errors"
	"net"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Server accepts client connections and runs each on its own goroutine
type Server struct {
	controller Controller
	sessions   Sessions
	opts       Options
	logger     *zap.Logger

	wg sync.WaitGroup
}

// NewServer creates a new server
func NewServer(controller Controller, sessions Sessions, opts Options, logger *zap.Logger) *Server {
	if opts.ServerName == "" {
		opts.ServerName = "ircgateway"
	}
	if opts.Created.IsZero() {
		opts.Created = time.Now()
	}
	return &Server{
		controller: controller,
		sessions:   sessions,
		opts:       opts,
		logger:     logger,
	}
}

// Serve accepts on ln until ctx ends, then waits for open connections
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	go func() {
		<-ctx.Done()
		ln.Close()
	}()

	s.logger.Info("Listening", zap.String("addr", ln.Addr().String()))

	var delay time.Duration
	for {
		netConn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				s.wg.Wait()
				return nil
			}

			// back off on transient accept errors
			if delay == 0 {
				delay = 5 * time.Millisecond
			} else if delay *= 2; delay > time.Second {
				delay = time.Second
			}
			s.logger.Warn("Accept failed", zap.Error(err), zap.Duration("retry_in", delay))
			time.Sleep(delay)
			continue
		}
		delay = 0

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()

			conn := NewConn(netConn, s.controller, s.sessions, s.opts, s.logger)
			conn.logger.Info("Client connected")
			if err := conn.Run(ctx); err != nil {
				conn.logger.Warn("Connection ended with error", zap.Error(err))
			}
			conn.logger.Info("Client disconnected")
		}()
	}
}
