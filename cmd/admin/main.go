package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrijs2005/giftauth/internal/admin"
	"github.com/dmitrijs2005/giftauth/internal/logging"
	"github.com/dmitrijs2005/giftauth/internal/server/config"
)

func main() {

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := config.LoadConfig()
	logger := logging.NewJSONLogger(os.Stderr, cfg.LogLevel)

	app := admin.NewApp(cfg, logger, os.Stdout)
	if err := app.Run(ctx, admin.CommandArgs(os.Args[1:])); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}
