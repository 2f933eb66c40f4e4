package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/calvinwijaya/uno-game-be/internal/config"
	unomcp "github.com/calvinwijaya/uno-game-be/internal/mcp"
	"github.com/mark3labs/mcp-go/server"
)

func main() {
	envFile := flag.String("env", ".env", "Path to .env file")
	rules := flag.String("rules", "", "YAML rules file")
	flag.Parse()

	cfg, err := config.Load(*envFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if *rules != "" {
		if err := cfg.LoadRules(*rules); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		if err := cfg.Validate(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	}

	// stdout carries the protocol
	log := cfg.NewLogger()
	log.SetOutput(os.Stderr)

	s := server.NewMCPServer("uno", "1.0.0")
	unomcp.NewToolset(cfg.Rules, cfg.AutoPlayDrawn, log.WithField("component", "mcp")).RegisterTools(s)

	if err := server.ServeStdio(s); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
