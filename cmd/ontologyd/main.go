// Package main provides ontologyd's CLI entry point.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/cyberonlab/ontology-engine/pkg/config"
	"github.com/cyberonlab/ontology-engine/pkg/ontology"
	"github.com/cyberonlab/ontology-engine/pkg/server"
	"github.com/cyberonlab/ontology-engine/pkg/transport"
)

var (
	version = "0.1.0"
	commit  = "dev"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "ontologyd",
		Short: "ontologyd - ontology graph engine for a cybernetics knowledge base",
		Long: `ontologyd serves a directed labeled property graph of cybernetics
concepts, plus its structured outline, over an MCP JSON-RPC surface and an
HTTP CRUD API.`,
	}

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("ontologyd v%s (%s)\n", version, commit)
		},
	})

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Start ontologyd",
		RunE:  runServe,
	}
	serveCmd.Flags().String("config", "", "Path to a YAML config file")
	rootCmd.AddCommand(serveCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	configPath, _ := cmd.Flags().GetString("config")

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := log.New(os.Stderr, "ontologyd: ", log.LstdFlags)
	logger.Printf("starting with %s", cfg)

	engine, err := loadEngine(cfg)
	if err != nil {
		return fmt.Errorf("loading graph: %w", err)
	}

	srvConfig := server.DefaultConfig()
	if cfg.Server.Port != 0 {
		srvConfig.Address = cfg.Server.Address
		srvConfig.Port = cfg.Server.Port
	}
	srv := server.New(srvConfig, logger)
	srv.SetQueryEngine(engine)

	if err := srv.Start(); err != nil {
		return fmt.Errorf("starting server: %w", err)
	}
	if addr := srv.Addr(); addr != "" {
		logger.Printf("HTTP CRUD surface listening on %s", addr)
	}

	if cfg.Transport.StandardStreamEnabled {
		stdio := transport.NewStandardStream("stdio", os.Stdin, os.Stdout, logger)
		if err := srv.AddTransport(stdio); err != nil {
			return fmt.Errorf("starting stdio transport: %w", err)
		}
		logger.Println("StandardStream transport started")
	}

	if cfg.Transport.NamedPipeEnabled {
		pipe, err := transport.NewNamedPipe(
			"named-pipe",
			cfg.Transport.NamedPipeInPath,
			cfg.Transport.NamedPipeOutPath,
			cfg.Transport.NamedPipeReopenDelay,
			logger,
		)
		if err != nil {
			return fmt.Errorf("setting up named pipe transport: %w", err)
		}
		if err := srv.AddTransport(pipe); err != nil {
			return fmt.Errorf("starting named pipe transport: %w", err)
		}
		logger.Printf("NamedPipe transport started (in=%s out=%s)",
			cfg.Transport.NamedPipeInPath, cfg.Transport.NamedPipeOutPath)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logger.Println("shutting down...")

	if cfg.Graph.SourcePath != "" {
		if _, err := engine.SaveToFile(cfg.Graph.SourcePath); err != nil {
			logger.Printf("save on shutdown failed: %v", err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Stop(ctx); err != nil {
		return fmt.Errorf("stopping server: %w", err)
	}
	return nil
}

func loadEngine(cfg *config.Config) (*ontology.QueryEngine, error) {
	if cfg.Graph.SourcePath == "" {
		return ontology.New(), nil
	}
	if _, err := os.Stat(cfg.Graph.SourcePath); os.IsNotExist(err) {
		return ontology.New(), nil
	}
	return ontology.LoadFromFile(cfg.Graph.SourcePath)
}
