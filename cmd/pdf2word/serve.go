// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/pdiddy/pdf2word/internal/engine"
	"github.com/pdiddy/pdf2word/internal/server"
	"github.com/pdiddy/pdf2word/internal/session"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the converter page and API",
	Long: `Serve starts the HTTP server. Each browser gets its own conversion
session, kept in memory until it has been idle for the session TTL.`,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	log := newLogger(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	eng, err := engine.New(ctx, cfg.Conversion)
	if err != nil {
		return err
	}

	recorder, closeRecorder, err := openRecorder(cfg.History)
	if err != nil {
		return err
	}
	defer closeRecorder()

	reg := server.NewRegistry(func() *session.Orchestrator {
		return session.New(session.Options{
			Engine:   eng,
			Interval: cfg.Conversion.TickInterval,
			Recorder: recorder,
			Logger:   log,
		})
	}, cfg.Server.SessionTTL, log)

	return server.New(cfg, reg, log).ListenAndServe(ctx)
}

func init() {
	serveCmd.Flags().String("addr", ":8080", "listen address")
	serveCmd.Flags().Duration("session-ttl", 0, "idle time before a browser session is discarded (default 30m)")
	bindFlag("server.addr", serveCmd, "addr")
	bindFlag("server.session_ttl", serveCmd, "session-ttl")

	rootCmd.AddCommand(serveCmd)
}
