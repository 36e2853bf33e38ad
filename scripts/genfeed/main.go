// Command genfeed writes a gzipped inventory feed that restocks every
// product in the catalogue, for exercising POST /api/admin/inventory/import.
package main

import (
	"compress/gzip"
	"context"
	"encoding/csv"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"

	"divyashree/internal/config"
	"divyashree/internal/database"
	"divyashree/internal/model"
	"divyashree/internal/repository"
)

func main() {
	name := flag.String("name", "restock.csv.gz", "feed file name")
	action := flag.String("action", string(model.StockSet), "stock action for every row: set, add or subtract")
	quantity := flag.Int("qty", 25, "quantity for every row")
	dir := flag.String("dir", "", "output directory (defaults to INVENTORY_FEED_DIR)")
	flag.Parse()

	if !model.StockAction(*action).Valid() {
		log.Fatalf("Unknown action %q", *action)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	logger := config.NewLogger(cfg.Logger)

	ctx := context.Background()
	pool, err := database.NewPool(ctx, cfg.Database, logger)
	if err != nil {
		log.Fatalf("Failed to connect: %v", err)
	}
	defer pool.Close()

	products, _, err := repository.NewProductRepository(pool, logger).List(ctx, model.ProductFilter{
		IncludeInactive: true,
		Page:            1,
		Limit:           model.MaxPageSize,
	})
	if err != nil {
		log.Fatalf("Failed to list products: %v", err)
	}

	outDir := *dir
	if outDir == "" {
		outDir = cfg.S3.LocalDir
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		log.Fatalf("Failed to create directory: %v", err)
	}

	filePath := filepath.Join(outDir, *name)
	if err := writeFeed(filePath, products, *action, *quantity); err != nil {
		log.Fatalf("Failed to write %s: %v", filePath, err)
	}

	fmt.Printf("Created %s with %d rows\n", filePath, len(products))
	fmt.Printf("\nImport it with:\n  POST /api/admin/inventory/import {\"name\": %q}\n", *name)
}

func writeFeed(filePath string, products []model.Product, action string, quantity int) error {
	file, err := os.Create(filePath)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	gzipWriter := gzip.NewWriter(file)
	defer gzipWriter.Close()

	w := csv.NewWriter(gzipWriter)
	if err := w.Write([]string{"productId", "action", "quantity"}); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	qty := strconv.Itoa(quantity)
	for _, p := range products {
		if err := w.Write([]string{p.ID.String(), action, qty}); err != nil {
			return fmt.Errorf("failed to write row: %w", err)
		}
	}
	w.Flush()
	return w.Error()
}
