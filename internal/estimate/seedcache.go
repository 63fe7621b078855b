package estimate

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	redis "github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/backend-lista/internal/db"
	"github.com/noah-isme/backend-lista/internal/obs"
	"github.com/noah-isme/backend-lista/internal/resilience"
)

const seedCachePrefix = "seedprices:v1:"

// SeedCache is a read-through Redis cache in front of a SeedReader. Entries
// are stored per product and region-code set. Redis failures fall back to
// Next and never fail the read. With a Breaker, repeated failures stop
// Redis lookups until it recovers.
type SeedCache struct {
	R       *redis.Client
	TTL     time.Duration
	Next    SeedReader
	Metrics *obs.DomainMetrics
	Breaker *resilience.Breaker
}

var _ SeedReader = (*SeedCache)(nil)

type cachedSeed struct {
	RegionType    string          `json:"region_type"`
	RegionCode    string          `json:"region_code"`
	AvgPrice      decimal.Decimal `json:"avg_price"`
	EffectiveDate time.Time       `json:"effective_date"`
	HasDate       bool            `json:"has_date"`
}

// ListRegionalPrices serves cached products from Redis and loads the rest
// from Next in a single query.
func (c *SeedCache) ListRegionalPrices(ctx context.Context, arg db.ListRegionalPricesParams) ([]db.RegionalPriceRow, error) {
	if c.R == nil || len(arg.ProductIDs) == 0 {
		return c.Next.ListRegionalPrices(ctx, arg)
	}

	scope := regionScope(arg.RegionCodes)
	keys := make([]string, len(arg.ProductIDs))
	for i, id := range arg.ProductIDs {
		keys[i] = seedCachePrefix + scope + ":" + db.UUIDString(id)
	}

	if c.Breaker != nil && !c.Breaker.Allow() {
		c.Metrics.SeedCacheResult("bypass")
		return c.Next.ListRegionalPrices(ctx, arg)
	}
	values, err := c.R.MGet(ctx, keys...).Result()
	if c.Breaker != nil {
		c.Breaker.Report(err == nil)
	}
	if err != nil {
		c.Metrics.SeedCacheResult("error")
		return c.Next.ListRegionalPrices(ctx, arg)
	}

	var (
		out     []db.RegionalPriceRow
		missing []pgtype.UUID
	)
	for i, raw := range values {
		rows, ok := decodeSeeds(raw, arg.ProductIDs[i])
		if !ok {
			missing = append(missing, arg.ProductIDs[i])
			continue
		}
		out = append(out, rows...)
	}
	if len(missing) == 0 {
		c.Metrics.SeedCacheResult("hit")
		return out, nil
	}
	c.Metrics.SeedCacheResult("miss")

	loaded, err := c.Next.ListRegionalPrices(ctx, db.ListRegionalPricesParams{ProductIDs: missing, RegionCodes: arg.RegionCodes})
	if err != nil {
		return nil, err
	}
	c.store(ctx, scope, missing, loaded)
	return append(out, loaded...), nil
}

func (c *SeedCache) store(ctx context.Context, scope string, products []pgtype.UUID, rows []db.RegionalPriceRow) {
	byProduct := make(map[[16]byte][]cachedSeed, len(products))
	for _, p := range products {
		byProduct[p.Bytes] = []cachedSeed{}
	}
	for _, row := range rows {
		entry := cachedSeed{
			RegionType: row.RegionType,
			RegionCode: row.RegionCode,
			AvgPrice:   row.AvgPrice,
			HasDate:    row.EffectiveDate.Valid,
		}
		if row.EffectiveDate.Valid {
			entry.EffectiveDate = row.EffectiveDate.Time
		}
		byProduct[row.ProductID.Bytes] = append(byProduct[row.ProductID.Bytes], entry)
	}

	pipe := c.R.Pipeline()
	for _, p := range products {
		payload, err := json.Marshal(byProduct[p.Bytes])
		if err != nil {
			continue
		}
		pipe.Set(ctx, seedCachePrefix+scope+":"+db.UUIDString(p), payload, c.TTL)
	}
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		c.Metrics.SeedCacheResult("error")
	}
}

// Invalidate drops every cached entry for the product.
func (c *SeedCache) Invalidate(ctx context.Context, productID pgtype.UUID) error {
	if c.R == nil {
		return nil
	}
	iter := c.R.Scan(ctx, 0, seedCachePrefix+"*:"+db.UUIDString(productID), 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	return c.R.Del(ctx, keys...).Err()
}

func decodeSeeds(raw any, productID pgtype.UUID) ([]db.RegionalPriceRow, bool) {
	text, ok := raw.(string)
	if !ok {
		return nil, false
	}
	var entries []cachedSeed
	if err := json.Unmarshal([]byte(text), &entries); err != nil {
		return nil, false
	}
	rows := make([]db.RegionalPriceRow, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, db.RegionalPriceRow{
			ProductID:     productID,
			RegionType:    e.RegionType,
			RegionCode:    e.RegionCode,
			AvgPrice:      e.AvgPrice,
			EffectiveDate: pgtype.Date{Time: e.EffectiveDate, Valid: e.HasDate},
		})
	}
	return rows, true
}

func regionScope(codes []string) string {
	normalized := make([]string, len(codes))
	for i, code := range codes {
		normalized[i] = strings.ToUpper(strings.TrimSpace(code))
	}
	sort.Strings(normalized)
	return strings.Join(normalized, ",")
}
