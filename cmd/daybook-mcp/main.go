// daybook-mcp serves the daybook dashboard as MCP tools over stdio.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/mark3labs/mcp-go/server"

	"github.com/vthunder/daybook/internal/app"
	"github.com/vthunder/daybook/internal/logging"
	"github.com/vthunder/daybook/internal/mcptools"
)

var Version = "dev"

func main() {
	// Log to stderr so stdout is clean for JSON-RPC
	log.SetOutput(os.Stderr)
	log.SetPrefix("[daybook-mcp] ")

	configPath := flag.String("config", "", "Config file")
	flag.Parse()

	// Load .env file - try executable's parent dir (repo root), then exe dir, then cwd
	envPaths := []string{".env"}
	if exe, err := os.Executable(); err == nil {
		exeDir := filepath.Dir(exe)
		envPaths = append([]string{
			filepath.Join(filepath.Dir(exeDir), ".env"), // parent of bin/ = repo root
			filepath.Join(exeDir, ".env"),
		}, envPaths...)
	}
	for _, p := range envPaths {
		if _, err := os.Stat(p); err == nil {
			_ = godotenv.Load(p)
			break
		}
	}

	a, err := app.Open(context.Background(), *configPath, nil)
	if err != nil {
		log.Fatalf("Failed to open daybook: %v", err)
	}
	defer a.Close()

	s := server.NewMCPServer(
		"daybook",
		Version,
		server.WithToolCapabilities(true),
		server.WithRecovery(),
	)
	mcptools.RegisterAll(s, &mcptools.Dependencies{
		Dashboard:   a.Dashboard,
		ActivityLog: a.Activity,
		OnToolCall: func(name string) {
			logging.Debug("mcp", "handled %s", name)
		},
	})

	logging.Info("mcp", "Serving %s store at %s", a.Config.Store.Backend, a.Config.Store.Path)
	if err := server.ServeStdio(s); err != nil {
		fmt.Fprintf(os.Stderr, "Server error: %v\n", err)
		a.Close()
		os.Exit(1)
	}
}
