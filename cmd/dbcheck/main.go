package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"os"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"

	"github.com/Luciangogogo/qualtrics-data-processor2026/pkg/config"
)

// requiredTables are the tables the processor reads and writes
var requiredTables = []string{
	"surveys",
	"survey_responses",
	"survey_responses_extraction_log",
}

func main() {
	var (
		envFile = flag.String("env", "", "Path to a .env file with DB_* variables (optional)")
		timeout = flag.Duration("timeout", 10*time.Second, "Connection timeout")
		quiet   = flag.Bool("quiet", false, "Only report failures")
	)
	flag.Parse()

	if *envFile != "" {
		if err := godotenv.Load(*envFile); err != nil {
			fmt.Fprintf(os.Stderr, "Error loading env file %s: %v\n", *envFile, err)
			os.Exit(1)
		}
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	db, err := sql.Open("pgx", cfg.GetDatabaseDSN())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening database: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Connection failed: %v\n", err)
		os.Exit(1)
	}

	var version, database string
	if err := db.QueryRowContext(ctx, "SELECT version(), current_database()").Scan(&version, &database); err != nil {
		fmt.Fprintf(os.Stderr, "Query failed: %v\n", err)
		os.Exit(1)
	}

	if !*quiet {
		fmt.Printf("Connected to %s@%s:%d/%s\n", cfg.DBUser, cfg.DBHost, cfg.DBPort, database)
		fmt.Printf("Server: %s\n", version)
	}

	missing := 0
	for _, table := range requiredTables {
		var exists bool
		err := db.QueryRowContext(ctx,
			`SELECT EXISTS (
				SELECT 1 FROM information_schema.tables
				WHERE table_schema = 'public' AND table_name = $1
			)`, table).Scan(&exists)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error checking table %s: %v\n", table, err)
			os.Exit(1)
		}

		if !exists {
			fmt.Fprintf(os.Stderr, "Missing table: %s\n", table)
			missing++
			continue
		}

		if !*quiet {
			var count int64
			if err := db.QueryRowContext(ctx, fmt.Sprintf("SELECT COUNT(*) FROM %s", table)).Scan(&count); err != nil {
				fmt.Fprintf(os.Stderr, "Error counting %s: %v\n", table, err)
				os.Exit(1)
			}
			fmt.Printf("  %-35s %d rows\n", table, count)
		}
	}

	if missing > 0 {
		fmt.Fprintf(os.Stderr, "%d required table(s) missing, apply migrations/001_init.sql\n", missing)
		os.Exit(1)
	}

	if !*quiet {
		fmt.Println("Database is ready")
	}
}
