// sessiond: Session Continuity MCP Server
//
// An MCP server that gives AI coding tools durable session tracking:
// state snapshots with rollback, bug-fix attempt logging, and continuity
// bridges that carry context from one session into the next.
//
// Usage:
//
//	sessiond serve    # Start MCP server (stdio transport)
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	sessionserver "github.com/solokit/sessiond/internal/server"
	"github.com/mark3labs/mcp-go/server"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "serve":
		if err := run(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "--help", "-h", "help":
		printUsage()
		os.Exit(0)
	case "--version", "-v", "version":
		fmt.Printf("sessiond v%s\n", sessionserver.Version)
		os.Exit(0)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func run() error {
	s, cleanup, err := sessionserver.New(os.Getenv("SESSIOND_CONFIG"))
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}
	defer cleanup()

	// Graceful shutdown on interrupt: returning runs cleanup, which
	// closes the session store.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ServeStdio(s)
	}()

	select {
	case err := <-errCh:
		return err
	case sig := <-sigCh:
		fmt.Fprintf(os.Stderr, "received %s, shutting down\n", sig)
		return nil
	}
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `sessiond v%s — Session Continuity MCP Server

Usage:
  sessiond serve    Start the MCP server (stdio transport)

Environment:
  SESSIOND_CONFIG   Path to config.yaml (default: ~/.sessiond/config.yaml)

Configuration:
  Add to your AI tool's MCP config:

  {
    "mcpServers": {
      "sessiond": {
        "command": "sessiond",
        "args": ["serve"]
      }
    }
  }
`, sessionserver.Version)
}
