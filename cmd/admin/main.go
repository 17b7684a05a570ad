package main

import (
	"context"
	"fmt"
	"os"

	"github.com/tendant/edu-content/pkg/educontent"
	"github.com/tendant/edu-content/pkg/educontent/config"
)

func main() {
	// Load .env file if it exists
	if err := config.LoadDotEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	rootCmd := NewRootCommand(buildService, os.Stdout)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// buildService wires the services from the environment, like the server does
func buildService(ctx context.Context) (*educontent.Service, func() error, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	stack, err := cfg.Build(ctx)
	if err != nil {
		return nil, nil, err
	}
	return stack.Service, stack.Close, nil
}
