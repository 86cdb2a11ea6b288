// Package main is the entry point for the taskman CLI.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"taskman/internal/api"
	"taskman/internal/cli"
	"taskman/internal/commands"
	"taskman/internal/config"
	"taskman/internal/service"
)

func main() {
	// Create context that cancels on interrupt
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		cancel()
	}()

	// Service factory: commands that need auth get a client bound to the
	// stored token. Absence of a token means anonymous.
	factory := func(ctx context.Context, cfg *config.Config) (service.Service, error) {
		token, err := cfg.LoadToken()
		if err != nil {
			return nil, err
		}
		if token == nil {
			return nil, &api.Error{Kind: api.KindAuth, Detail: "not logged in (run: taskman login)"}
		}
		client := api.New(cfg.APIURL, token)
		if cfg.Debug {
			client.Debug = os.Stderr
		}
		return client, nil
	}

	dispatcher := cli.NewDispatcher(commands.DefaultRegistry, factory)

	code := dispatcher.Run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	os.Exit(code)
}
