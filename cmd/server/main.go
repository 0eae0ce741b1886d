package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	figure "github.com/common-nighthawk/go-figure"
	_ "github.com/duckdb/duckdb-go/v2" // DuckDB driver
	_ "github.com/jackc/pgx/v5/stdlib" // PostgreSQL driver ("pgx")
	_ "github.com/mattn/go-sqlite3"    // SQLite driver

	"github.com/rahulmyzone/MiraNext/internal/entity"
	"github.com/rahulmyzone/MiraNext/internal/executor"
	"github.com/rahulmyzone/MiraNext/internal/sqlgen"
)

/*
 MiraNext dashboard backend:
 - Env-driven config with sensible defaults
 - Generic entity routes (read, write, describe, create structure) over one pool
 - Optional bootstrap of the dashboard tables on boot
 - Stdlib HTTP server with JSON helpers + CORS

 Env (examples):
   PORT=8080
   DB_DRIVER=sqlite3            # sqlite3 | pgx | duckdb
   DB_DSN=./data/miranext.db
   DB_SCHEMA=mira_schema_name   # defaults to the dialect's schema
   BOOTSTRAP_SCHEMA=true
   BROKER_DEFAULT_BALANCE=1000000
*/

const (
	appName = "MiraNext"
	version = "0.3.0"
)

func main() {
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()
	if *showVersion {
		fmt.Printf("%s %s\n", appName, version)
		return
	}

	figure.NewFigure(appName, "", true).Print()
	fmt.Printf("\n  version %s\n\n", version)

	log.SetFlags(log.LstdFlags | log.Lshortfile)
	cfg := defaultConfig()

	dialect, err := sqlgen.DialectFor(cfg.DBDriver)
	if err != nil {
		log.Fatalf("db driver: %v", err)
	}
	if dialect.DriverName() == "sqlite3" {
		if err := ensureSQLiteDir(cfg.DBDSN); err != nil {
			log.Fatalf("mkdir data dir: %v", err)
		}
	}

	pool, err := executor.Open(dialect.DriverName(), cfg.DBDSN, executor.Options{
		MaxOpenConns:    cfg.MaxOpenConns,
		MaxIdleConns:    cfg.MaxIdleConns,
		ConnMaxLifetime: time.Duration(cfg.ConnMaxLifetimeSeconds) * time.Second,
	})
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	defer pool.Close()

	pingCtx, cancelPing := context.WithTimeout(context.Background(), 5*time.Second)
	err = pool.Ping(pingCtx)
	cancelPing()
	if err != nil {
		log.Fatalf("ping db: %v", err)
	}

	store, err := entity.New(entity.Config{
		Executor: pool,
		Dialect:  dialect,
		Schema:   cfg.DBSchema,
		Logger:   log.Default(),
	})
	if err != nil {
		log.Fatalf("entity store: %v", err)
	}
	if cfg.BootstrapSchema {
		if err := store.Introspector().Bootstrap(context.Background()); err != nil {
			log.Fatalf("bootstrap: %v", err)
		}
	}

	app := newApp(cfg, pool, store)
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      app.routes(),
		ReadTimeout:  time.Duration(cfg.ReadTimeoutSeconds) * time.Second,
		WriteTimeout: time.Duration(cfg.WriteTimeoutSeconds) * time.Second,
		IdleTimeout:  time.Duration(cfg.IdleTimeoutSeconds) * time.Second,
	}

	log.Printf("%s %s listening on :%s (driver: %s, schema: %s)", appName, version, cfg.Port, dialect.Name(), store.Schema())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	}()
	<-ctx.Done()
	log.Println("shutdown requested")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 8*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
}

// ensureSQLiteDir creates the directory of a file-backed SQLite DSN.
func ensureSQLiteDir(dsn string) error {
	path := strings.TrimPrefix(strings.SplitN(dsn, "?", 2)[0], "file:")
	if path == "" || path == ":memory:" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil && !errors.Is(err, os.ErrExist) {
		return err
	}
	return nil
}
