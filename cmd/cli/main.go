package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrijs2005/xconnect/internal/buildinfo"
	"github.com/dmitrijs2005/xconnect/internal/client/cli"
	"github.com/dmitrijs2005/xconnect/internal/client/config"
)

func main() {

	buildinfo.PrintBuildData(os.Stderr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := config.LoadConfig()
	app, err := cli.NewApp(cfg)
	if err != nil {
		log.Fatalf("%v", err)
	}

	code := app.Run(ctx, os.Args[1:])
	_ = app.Close()
	stop()
	os.Exit(code)
}
