// internal/store/postgres.go
package store

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"ledgerchat/internal/common/logger"
	"ledgerchat/internal/common/metrics"
)

// PostgresStore implements Store over one table per collection, with soft
// deletes (deleted_at) and an optional Redis read-through cache for sums.
type PostgresStore struct {
	db       *sql.DB
	cache    *redis.Client
	cacheTTL time.Duration
	logger   logger.Logger
}

// NewPostgresStore creates a store without a sum cache.
func NewPostgresStore(db *sql.DB, log logger.Logger) *PostgresStore {
	return &PostgresStore{db: db, logger: log}
}

// NewPostgresStoreWithCache creates a store that caches Sum results in Redis
// under a per-collection version; writes bump the version instead of hunting
// down individual keys. Cache failures fall through to Postgres.
func NewPostgresStoreWithCache(db *sql.DB, cache *redis.Client, ttl time.Duration, log logger.Logger) *PostgresStore {
	return &PostgresStore{db: db, cache: cache, cacheTTL: ttl, logger: log}
}

func (s *PostgresStore) Insert(ctx context.Context, c Collection, rec Record) (string, error) {
	if !c.Valid() {
		return "", fmt.Errorf("unknown collection %q", c)
	}
	metrics.StoreCalls.WithLabelValues("insert", string(c)).Inc()

	id := rec.ID
	if id == "" {
		id = uuid.NewString()
	}
	var occurred interface{}
	if !rec.OccurredAt.IsZero() {
		occurred = rec.OccurredAt
	}

	query := fmt.Sprintf(
		`INSERT INTO %s (id, item, amount, counterparty, quantity, unit, occurred_at) VALUES ($1, $2, $3, $4, $5, $6, COALESCE($7, now()))`,
		c,
	)
	if _, err := s.db.ExecContext(ctx, query, id, rec.Item, rec.Amount, rec.Counterparty, rec.Quantity, rec.Unit, occurred); err != nil {
		return "", fmt.Errorf("insert into %s: %w", c, err)
	}

	s.bumpVersion(ctx, c)
	return id, nil
}

func (s *PostgresStore) Sum(ctx context.Context, c Collection, f Filter) (int64, error) {
	if !c.Valid() {
		return 0, fmt.Errorf("unknown collection %q", c)
	}
	metrics.StoreCalls.WithLabelValues("sum", string(c)).Inc()

	cacheKey := s.sumCacheKey(ctx, c, f)
	if cacheKey != "" {
		if val, err := s.cache.Get(ctx, cacheKey).Result(); err == nil {
			if total, err := strconv.ParseInt(val, 10, 64); err == nil {
				return total, nil
			}
		}
	}

	query := fmt.Sprintf(`SELECT COALESCE(SUM(amount), 0) FROM %s WHERE deleted_at IS NULL`, c)
	where, args := buildFilter(f, 1)
	query += where

	var total int64
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("sum %s: %w", c, err)
	}

	if cacheKey != "" {
		if err := s.cache.Set(ctx, cacheKey, strconv.FormatInt(total, 10), s.cacheTTL).Err(); err != nil {
			s.logger.Debug("sum cache set failed", map[string]interface{}{
				"collection": string(c),
				"error":      err.Error(),
			})
		}
	}
	return total, nil
}

func (s *PostgresStore) List(ctx context.Context, c Collection, f Filter, limit int) ([]Record, error) {
	if !c.Valid() {
		return nil, fmt.Errorf("unknown collection %q", c)
	}
	metrics.StoreCalls.WithLabelValues("list", string(c)).Inc()

	query := fmt.Sprintf(
		`SELECT id, item, amount, counterparty, quantity, unit, occurred_at, created_at FROM %s WHERE deleted_at IS NULL`,
		c,
	)
	where, args := buildFilter(f, 1)
	query += where
	args = append(args, limit)
	query += fmt.Sprintf(` ORDER BY occurred_at DESC, created_at DESC LIMIT $%d`, len(args))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", c, err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var rec Record
		if err := rows.Scan(&rec.ID, &rec.Item, &rec.Amount, &rec.Counterparty, &rec.Quantity, &rec.Unit, &rec.OccurredAt, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan %s row: %w", c, err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s rows: %w", c, err)
	}
	return records, nil
}

func (s *PostgresStore) DeleteOne(ctx context.Context, c Collection, f Filter) (int64, error) {
	if !c.Valid() {
		return 0, fmt.Errorf("unknown collection %q", c)
	}
	metrics.StoreCalls.WithLabelValues("delete_one", string(c)).Inc()

	inner := fmt.Sprintf(`SELECT id FROM %s WHERE deleted_at IS NULL`, c)
	where, args := buildFilter(f, 1)
	inner += where + ` ORDER BY occurred_at DESC LIMIT 1`

	query := fmt.Sprintf(`UPDATE %s SET deleted_at = now() WHERE id = (%s)`, c, inner)
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("delete from %s: %w", c, err)
	}
	count, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete from %s: %w", c, err)
	}

	if count > 0 {
		s.bumpVersion(ctx, c)
	}
	return count, nil
}

// buildFilter renders Filter into an AND chain starting at placeholder $next.
func buildFilter(f Filter, next int) (string, []interface{}) {
	var sb strings.Builder
	var args []interface{}

	add := func(clause string, arg interface{}) {
		args = append(args, arg)
		sb.WriteString(fmt.Sprintf(" AND "+clause, len(args)+next-1))
	}

	if f.ID != "" {
		add("id = $%d", f.ID)
	}
	if f.Counterparty != "" {
		add("counterparty ILIKE $%d", f.Counterparty)
	}
	if f.Amount != nil {
		add("amount = $%d", *f.Amount)
	}
	if f.From != nil {
		add("occurred_at >= $%d", *f.From)
	}
	if f.To != nil {
		add("occurred_at < $%d", *f.To)
	}
	return sb.String(), args
}

// sumCacheKey returns the versioned cache key, or "" when caching is off or
// the version lookup failed.
func (s *PostgresStore) sumCacheKey(ctx context.Context, c Collection, f Filter) string {
	if s.cache == nil {
		return ""
	}
	ver, err := s.cache.Get(ctx, versionKey(c)).Result()
	if err == redis.Nil {
		ver = "0"
	} else if err != nil {
		return ""
	}
	return fmt.Sprintf("ledger:sum:%s:v%s:%s", c, ver, filterKey(f))
}

func (s *PostgresStore) bumpVersion(ctx context.Context, c Collection) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Incr(ctx, versionKey(c)).Err(); err != nil {
		s.logger.Debug("sum cache version bump failed", map[string]interface{}{
			"collection": string(c),
			"error":      err.Error(),
		})
	}
}

func versionKey(c Collection) string {
	return "ledger:ver:" + string(c)
}

// filterKey renders a Filter deterministically for cache key construction.
func filterKey(f Filter) string {
	parts := []string{f.ID, strings.ToLower(f.Counterparty)}
	if f.Amount != nil {
		parts = append(parts, strconv.FormatInt(*f.Amount, 10))
	} else {
		parts = append(parts, "")
	}
	for _, ts := range []*time.Time{f.From, f.To} {
		if ts != nil {
			parts = append(parts, ts.UTC().Format(time.RFC3339))
		} else {
			parts = append(parts, "")
		}
	}
	return strings.Join(parts, "|")
}
