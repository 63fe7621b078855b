// Command seeder loads the default categories and regional reference prices
// from a CSV file.
//
// CSV columns: product_slug, product_name, category_slug, unit, region_type,
// region_code, avg_price, effective_date (YYYY-MM-DD). The first line is a
// header.
package main

import (
	"context"
	"encoding/csv"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	redis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/backend-lista/internal/db"
	"github.com/noah-isme/backend-lista/internal/estimate"
	"github.com/noah-isme/backend-lista/internal/lock"
	"github.com/noah-isme/backend-lista/internal/obs"
	"github.com/noah-isme/backend-lista/internal/pricing"
	"github.com/noah-isme/backend-lista/internal/product"
	"github.com/noah-isme/backend-lista/internal/region"
)

var defaultCategories = []db.UpsertCategoryParams{
	{Slug: "alimentos", Name: "Alimentos"},
	{Slug: "bebidas", Name: "Bebidas"},
	{Slug: "higiene", Name: "Higiene"},
	{Slug: "limpeza", Name: "Limpeza"},
	{Slug: "utilidades", Name: "Utilidades"},
	{Slug: "outros", Name: "Outros"},
}

type priceRow struct {
	Line          int
	ProductSlug   string
	ProductName   string
	CategorySlug  string
	Unit          string
	RegionType    pricing.RegionType
	RegionCode    string
	AvgPrice      decimal.Decimal
	EffectiveDate time.Time
}

type seedStore interface {
	UpsertCategory(ctx context.Context, arg db.UpsertCategoryParams) (db.Category, error)
	GetProductBySlug(ctx context.Context, slug string) (db.Product, error)
	CreateProduct(ctx context.Context, arg db.CreateProductParams) (db.Product, error)
	UpsertRegionalPrice(ctx context.Context, arg db.UpsertRegionalPriceParams) error
}

type invalidator interface {
	Invalidate(ctx context.Context, productID pgtype.UUID) error
}

func main() {
	file := flag.String("file", "", "CSV file with regional prices (categories only when empty)")
	flag.Parse()

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintln(os.Stderr, "load .env:", err)
	}
	logger := obs.NewLogger(envOr("OBS_LOG_FORMAT", "console"), envOr("OBS_LOG_LEVEL", "info"))

	dbURL := strings.TrimSpace(os.Getenv("DATABASE_URL"))
	if dbURL == "" {
		logger.Fatal().Msg("DATABASE_URL is not set")
	}

	var rows []priceRow
	if *file != "" {
		f, err := os.Open(*file)
		if err != nil {
			logger.Fatal().Err(err).Msg("open csv")
		}
		rows, err = parseCSV(f)
		_ = f.Close()
		if err != nil {
			logger.Fatal().Err(err).Msg("parse csv")
		}
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("connect database")
	}
	defer pool.Close()

	var (
		cache  invalidator
		locker *lock.Locker
	)
	if redisURL := strings.TrimSpace(os.Getenv("REDIS_URL")); redisURL != "" {
		opts, err := redis.ParseURL(redisURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("parse redis url")
		}
		client := redis.NewClient(opts)
		defer func() { _ = client.Close() }()
		cache = &estimate.SeedCache{R: client}
		locker = &lock.Locker{R: client, Prefix: "lista:lock:"}
	}

	var touched []pgtype.UUID
	store := db.NewStore(pool)
	run := func(ctx context.Context) error {
		return store.InTx(ctx, func(q *db.Queries) error {
			var err error
			touched, err = seed(ctx, q, rows)
			return err
		})
	}
	if locker != nil {
		lockCtx, cancel := context.WithTimeout(ctx, 2*time.Minute)
		err = locker.WithLock(lockCtx, "seeder", 5*time.Minute, run)
		cancel()
	} else {
		err = run(ctx)
	}
	if err != nil {
		logger.Fatal().Err(err).Msg("seed")
	}
	logger.Info().Int("categories", len(defaultCategories)).Int("prices", len(rows)).Int("products", len(touched)).Msg("seed applied")
	invalidate(ctx, cache, touched, logger)
}

func seed(ctx context.Context, q seedStore, rows []priceRow) ([]pgtype.UUID, error) {
	categories := make(map[string]pgtype.UUID, len(defaultCategories))
	for _, c := range defaultCategories {
		row, err := q.UpsertCategory(ctx, c)
		if err != nil {
			return nil, fmt.Errorf("upsert category %s: %w", c.Slug, err)
		}
		categories[row.Slug] = row.ID
	}

	products := make(map[string]pgtype.UUID)
	var touched []pgtype.UUID
	for _, r := range rows {
		id, ok := products[r.ProductSlug]
		if !ok {
			categoryID, known := categories[r.CategorySlug]
			if !known {
				return nil, fmt.Errorf("line %d: unknown category %q", r.Line, r.CategorySlug)
			}
			p, err := catalogProduct(ctx, q, r, categoryID)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", r.Line, err)
			}
			id = p.ID
			products[r.ProductSlug] = id
			touched = append(touched, id)
		}
		err := q.UpsertRegionalPrice(ctx, db.UpsertRegionalPriceParams{
			ProductID:     id,
			RegionType:    string(r.RegionType),
			RegionCode:    r.RegionCode,
			AvgPrice:      r.AvgPrice,
			EffectiveDate: pgtype.Date{Time: r.EffectiveDate, Valid: true},
		})
		if err != nil {
			return nil, fmt.Errorf("line %d: upsert price: %w", r.Line, err)
		}
	}
	return touched, nil
}

// catalogProduct returns the shared product for r, creating it without an
// owner when missing.
func catalogProduct(ctx context.Context, q seedStore, r priceRow, categoryID pgtype.UUID) (db.Product, error) {
	p, err := q.GetProductBySlug(ctx, r.ProductSlug)
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return db.Product{}, fmt.Errorf("get product %s: %w", r.ProductSlug, err)
	}
	p, err = q.CreateProduct(ctx, db.CreateProductParams{
		Slug:       r.ProductSlug,
		Name:       r.ProductName,
		CategoryID: categoryID,
		Unit:       r.Unit,
	})
	if err != nil {
		return db.Product{}, fmt.Errorf("create product %s: %w", r.ProductSlug, err)
	}
	return p, nil
}

func invalidate(ctx context.Context, cache invalidator, ids []pgtype.UUID, logger zerolog.Logger) {
	if cache == nil {
		return
	}
	for _, id := range ids {
		if err := cache.Invalidate(ctx, id); err != nil {
			logger.Warn().Err(err).Str("product_id", db.UUIDString(id)).Msg("invalidate seed cache")
		}
	}
}

func parseCSV(r io.Reader) ([]priceRow, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = 8
	reader.TrimLeadingSpace = true

	if _, err := reader.Read(); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("read header: %w", err)
	}
	var out []priceRow
	for line := 2; ; line++ {
		rec, err := reader.Read()
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
		row, err := parseRecord(line, rec)
		if err != nil {
			return nil, err
		}
		if !row.AvgPrice.IsPositive() {
			continue
		}
		out = append(out, row)
	}
}

func parseRecord(line int, rec []string) (priceRow, error) {
	for i := range rec {
		rec[i] = strings.TrimSpace(rec[i])
	}
	row := priceRow{
		Line:         line,
		ProductSlug:  rec[0],
		ProductName:  rec[1],
		CategorySlug: rec[2],
		Unit:         rec[3],
		RegionType:   pricing.RegionType(rec[4]),
		RegionCode:   strings.ToUpper(rec[5]),
	}
	if row.ProductSlug == "" || row.ProductName == "" {
		return priceRow{}, fmt.Errorf("line %d: product slug and name are required", line)
	}
	if !product.ValidUnit(row.Unit) {
		return priceRow{}, fmt.Errorf("line %d: invalid unit %q", line, row.Unit)
	}
	if !validRegion(row.RegionType, row.RegionCode) {
		return priceRow{}, fmt.Errorf("line %d: invalid region %s/%s", line, row.RegionType, row.RegionCode)
	}
	price, err := decimal.NewFromString(strings.ReplaceAll(rec[6], ",", "."))
	if err != nil {
		return priceRow{}, fmt.Errorf("line %d: invalid price %q", line, rec[6])
	}
	row.AvgPrice = pricing.Round2(price)
	row.EffectiveDate, err = time.Parse(time.DateOnly, rec[7])
	if err != nil {
		return priceRow{}, fmt.Errorf("line %d: invalid date %q", line, rec[7])
	}
	return row, nil
}

func validRegion(kind pricing.RegionType, code string) bool {
	switch kind {
	case pricing.RegionState:
		return region.IsKnownState(code)
	case pricing.RegionMacroRegion:
		switch code {
		case region.North, region.Northeast, region.CenterWest, region.Southeast, region.South:
			return true
		}
	case pricing.RegionNational:
		return code == region.NationalCode
	}
	return false
}

func envOr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}
