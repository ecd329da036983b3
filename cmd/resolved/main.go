package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/MJE43/dispatch-resolve-go/internal/api"
	"github.com/MJE43/dispatch-resolve-go/internal/store"
)

// Config is read from the environment; flags override.
type Config struct {
	Addr   string `env:"RESOLVED_ADDR" envDefault:"127.0.0.1:8077"`
	DBPath string `env:"RESOLVED_DB" envDefault:"resolutions.db"`
	NoDB   bool   `env:"RESOLVED_NO_DB" envDefault:"false"`
}

func main() {
	logger := log.New(os.Stdout, "[RESOLVED] ", log.LstdFlags)

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		logger.Fatalf("parse env: %v", err)
	}

	flag.StringVar(&cfg.Addr, "addr", cfg.Addr, "listen address")
	flag.StringVar(&cfg.DBPath, "db", cfg.DBPath, "sqlite path for resolution history")
	flag.BoolVar(&cfg.NoDB, "no-db", cfg.NoDB, "disable resolution history")
	flag.Parse()

	var db store.DB
	if !cfg.NoDB {
		sqlite, err := store.NewSQLiteDB(cfg.DBPath)
		if err != nil {
			logger.Fatalf("open database: %v", err)
		}
		if err := sqlite.Migrate(); err != nil {
			logger.Fatalf("migrate database: %v", err)
		}
		defer sqlite.Close()
		db = sqlite
	}

	server := &http.Server{
		Addr:         cfg.Addr,
		Handler:      api.NewServer(db).Routes(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 60 * time.Second,
	}

	go func() {
		logger.Printf("listening on %s (history=%t)", cfg.Addr, db != nil)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("serve: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Printf("shutdown: %v", err)
	}
}
