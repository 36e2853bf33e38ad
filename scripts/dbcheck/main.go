// Command dbcheck verifies the configured database is reachable, applies the
// schema when asked, and prints row counts for the main tables.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"divyashree/internal/config"
	"divyashree/internal/database"
)

func main() {
	migrate := flag.Bool("migrate", false, "apply the schema before checking")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Unable to load configuration: %v\n", err)
		os.Exit(1)
	}
	logger := config.NewLogger(cfg.Logger)

	ctx := context.Background()
	pool, err := database.NewPool(ctx, cfg.Database, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Unable to connect to database: %v\n", err)
		os.Exit(1)
	}
	defer pool.Close()

	var dbName string
	if err := pool.QueryRow(ctx, "SELECT current_database()").Scan(&dbName); err != nil {
		fmt.Fprintf(os.Stderr, "QueryRow failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Successfully connected to database: %s\n", dbName)

	if *migrate {
		if err := database.Migrate(ctx, pool, logger); err != nil {
			fmt.Fprintf(os.Stderr, "Migration failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("Schema applied")
	}

	fmt.Println("\nTables:")
	for _, table := range []string{"users", "products", "orders", "reviews", "role_permissions", "audit_logs"} {
		var n int64
		// Table names come from the fixed list above.
		if err := pool.QueryRow(ctx, "SELECT COUNT(*) FROM "+table).Scan(&n); err != nil {
			fmt.Printf("  - %-17s missing (%v)\n", table, err)
			continue
		}
		fmt.Printf("  - %-17s %d rows\n", table, n)
	}
}
