package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

const statsCacheKey = "cache:catalog-stats"

type StatsHandler struct {
	pool  *pgxpool.Pool
	redis *redis.Client
}

func NewStatsHandler(pool *pgxpool.Pool, redisClient *redis.Client) *StatsHandler {
	return &StatsHandler{pool: pool, redis: redisClient}
}

// Stats reports catalog-wide aggregates for the dashboard. Results are
// cached in Redis for a minute; imports are bulk operations, so slightly
// stale counts are acceptable.
func (h *StatsHandler) Stats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if cached, err := h.redis.Get(ctx, statsCacheKey).Result(); err == nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(cached))
		return
	}

	var total, recentlyUpdated int
	h.pool.QueryRow(ctx, "SELECT COUNT(*) FROM media_items").Scan(&total)
	h.pool.QueryRow(ctx, `
		SELECT COUNT(*)
		FROM media_items
		WHERE updated_at >= NOW() - INTERVAL '7 days'
	`).Scan(&recentlyUpdated)

	byContentType := h.countsBy(ctx, "content_type")
	byProvider := h.countsBy(ctx, "provider")

	stats := map[string]interface{}{
		"total_items":      total,
		"recently_updated": recentlyUpdated,
		"by_content_type":  byContentType,
		"by_provider":      byProvider,
	}

	if data, err := json.Marshal(stats); err == nil {
		h.redis.Set(ctx, statsCacheKey, data, time.Minute)
	}

	writeJSON(w, http.StatusOK, stats)
}

func (h *StatsHandler) countsBy(ctx context.Context, column string) map[string]int {
	counts := make(map[string]int)

	rows, err := h.pool.Query(ctx, `
		SELECT COALESCE(`+column+`, 'unknown'), COUNT(*)
		FROM media_items
		GROUP BY 1
		ORDER BY 2 DESC
	`)
	if err != nil {
		return counts
	}
	defer rows.Close()

	for rows.Next() {
		var key string
		var n int
		if err := rows.Scan(&key, &n); err == nil {
			counts[key] = n
		}
	}
	return counts
}
