package main

import (
	"bufio"
	"context"
	"log"
	"os"

	"github.com/dmitrijs2005/profdocs/internal/cryptox"
	"github.com/dmitrijs2005/profdocs/internal/logging"
	"github.com/dmitrijs2005/profdocs/internal/seed"
	"github.com/dmitrijs2005/profdocs/internal/server"
	"github.com/dmitrijs2005/profdocs/internal/server/config"
	"github.com/dmitrijs2005/profdocs/internal/server/services"
)

func main() {
	ctx := context.Background()
	cfg := config.LoadConfig()

	logger, err := logging.New(os.Stderr, cfg.LogFormat, cfg.LogLevel)
	if err != nil {
		log.Fatalf("%v", err)
	}

	st, err := server.OpenStorage(ctx, cfg)
	if err != nil {
		log.Fatalf("%v", err)
	}
	defer st.Close()

	svc := services.NewSettingsService(st.Store, st.Repos, cryptox.DefaultHashers(), logger)
	if err := seed.Run(ctx, bufio.NewReader(os.Stdin), os.Stdout, svc); err != nil {
		log.Printf("seed failed: %v", err)
		st.Close()
		os.Exit(1)
	}
}
