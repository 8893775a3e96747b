package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jhoicas/inventario-ledger/internal/application/dto"
	"github.com/jhoicas/inventario-ledger/internal/application/ports"
)

const summaryKeyPrefix = "inventario:dashboard:summary:"

var _ ports.SummaryCache = (*SummaryCache)(nil)

// SummaryCache guarda el resumen del dashboard como JSON con TTL.
type SummaryCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewSummaryCache ttl <= 0 usa 60 segundos.
func NewSummaryCache(rdb *redis.Client, ttl time.Duration) *SummaryCache {
	if ttl <= 0 {
		ttl = 60 * time.Second
	}
	return &SummaryCache{rdb: rdb, ttl: ttl}
}

func summaryKey(companyID string) string { return summaryKeyPrefix + companyID }

func (c *SummaryCache) Get(ctx context.Context, companyID string) (*dto.DashboardSummaryDTO, error) {
	raw, err := c.rdb.Get(ctx, summaryKey(companyID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("redis get resumen: %w", err)
	}
	return decodeSummary(raw)
}

func (c *SummaryCache) Set(ctx context.Context, companyID string, summary *dto.DashboardSummaryDTO) error {
	raw, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("codificar resumen: %w", err)
	}
	if err := c.rdb.Set(ctx, summaryKey(companyID), raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set resumen: %w", err)
	}
	return nil
}

func (c *SummaryCache) Invalidate(ctx context.Context, companyID string) error {
	if err := c.rdb.Del(ctx, summaryKey(companyID)).Err(); err != nil {
		return fmt.Errorf("redis del resumen: %w", err)
	}
	return nil
}

func decodeSummary(raw []byte) (*dto.DashboardSummaryDTO, error) {
	var s dto.DashboardSummaryDTO
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("decodificar resumen: %w", err)
	}
	return &s, nil
}
