package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"aether-backend/internal/chain"
	"aether-backend/internal/cli"
	"aether-backend/internal/config"
	"aether-backend/internal/database"

	"gorm.io/driver/postgres"
)

func main() {
	cfg, err := config.Parse()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	env := &cli.Env{
		Config: cfg,
		OpenDB: func() error {
			db, err := database.Open(postgres.Open(cfg.DatabaseDSN))
			if err != nil {
				return err
			}
			database.DB = db
			return nil
		},
		DialChain: func() (chain.Client, error) {
			return chain.Dial(cfg)
		},
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := cli.NewRootCmd(env).ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		stop()
		os.Exit(1)
	}
}
