package main

import (
	"database/sql"
	"flag"
	"fmt"
	"os"

	_ "github.com/mattn/go-sqlite3"

	"eventstore-sqlite/internal/api"
	"eventstore-sqlite/internal/api/handler"
	"eventstore-sqlite/internal/logger"
	"eventstore-sqlite/pkg/router"
)

// @title EventStore Snapshot Query API
// @version 1.0.0
// @description Read-only queries over a converted event snapshot database.
// @BasePath /api/v1
func main() {
	dbPath := flag.String("db", "", "path to a converted snapshot database (required)")
	addr := flag.String("addr", ":8080", "listen address")
	flag.Parse()

	if *dbPath == "" {
		fmt.Fprintln(os.Stderr, "Error: --db is required")
		os.Exit(1)
	}
	if _, err := os.Stat(*dbPath); err != nil {
		fmt.Fprintf(os.Stderr, "Error: cannot read snapshot database: %v\n", err)
		os.Exit(1)
	}

	db, err := sql.Open("sqlite3", "file:"+*dbPath+"?mode=ro")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: cannot open snapshot database: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: cannot open snapshot database: %v\n", err)
		os.Exit(1)
	}

	r := router.New()
	api.RegisterRoutes(r, handler.NewQuery(db, *dbPath))

	logger.Info("snapshot query api starting", "db", *dbPath, "addr", *addr)
	if err := r.Start(*addr); err != nil {
		logger.Error("server failed", "error", err)
		os.Exit(1)
	}
}
