// Command loadingredients imports the ingredient catalog from a CSV file.
// Each row is "name,measurement_unit"; rows that already exist are skipped.
package main

import (
	"context"
	"encoding/csv"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/opyryanova/foodgram/internal/config"
	"github.com/opyryanova/foodgram/internal/logger"
	"github.com/opyryanova/foodgram/internal/recipe"
	"github.com/opyryanova/foodgram/internal/user"
)

func main() {
	path := flag.String("file", "data/ingredients.csv", "path to the ingredients CSV file")
	flag.Parse()

	cfg := config.Load()

	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		panic(fmt.Errorf("failed to build logger: %w", err))
	}
	defer log.Sync()

	db, err := sqlx.Connect("postgres", cfg.DatabaseURL)
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}

	// The user store goes first: recipe tables reference users.
	if _, err := user.NewPostgresStore(db); err != nil {
		log.Fatal("failed to create user store", zap.Error(err))
	}
	store, err := recipe.NewPostgresStore(db)
	if err != nil {
		log.Fatal("failed to create recipe store", zap.Error(err))
	}

	f, err := os.Open(*path)
	if err != nil {
		log.Fatal("failed to open CSV file", zap.String("path", *path), zap.Error(err))
	}
	defer f.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	loaded, skipped, err := loadFrom(ctx, store, f)
	if err != nil {
		log.Fatal("import failed", zap.Error(err))
	}
	log.Info("ingredients imported",
		zap.String("path", *path),
		zap.Int("loaded", loaded),
		zap.Int("skipped", skipped))
}

// loadFrom reads CSV rows and upserts each one, counting malformed rows as
// skipped rather than aborting the whole import.
func loadFrom(ctx context.Context, store *recipe.PostgresStore, r io.Reader) (loaded, skipped int, err error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return loaded, skipped, fmt.Errorf("failed to read CSV row: %w", err)
		}
		if len(row) < 2 {
			skipped++
			continue
		}
		name := strings.TrimSpace(row[0])
		unit := strings.TrimSpace(row[1])
		if name == "" || unit == "" {
			skipped++
			continue
		}
		if err := store.UpsertIngredient(ctx, name, unit); err != nil {
			return loaded, skipped, err
		}
		loaded++
	}
	return loaded, skipped, nil
}
