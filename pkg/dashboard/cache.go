package dashboard

import (
	"context"
	"sort"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/iwatch-health/health-pipeline/pkg/healthdata"
)

// Datasets holds the daily values of every metric, sorted by date.
type Datasets map[healthdata.Metric][]healthdata.DailyValue

// Cache loads all datasets from a Source and keeps them for ttl. A ttl of
// zero or less reloads on every call.
type Cache struct {
	source Source
	ttl    time.Duration
	logger log.FieldLogger
	now    func() time.Time

	mu       sync.Mutex
	datasets Datasets
	loadedAt time.Time
}

func NewCache(source Source, ttl time.Duration, logger log.FieldLogger) *Cache {
	return &Cache{
		source: source,
		ttl:    ttl,
		logger: logger,
		now:    time.Now,
	}
}

// Datasets returns the cached datasets, loading them when the cache is
// empty or expired. A failed load leaves the previous datasets in place.
func (c *Cache) Datasets(ctx context.Context) (Datasets, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.datasets != nil && c.ttl > 0 && c.now().Sub(c.loadedAt) < c.ttl {
		return c.datasets, nil
	}

	start := c.now()
	datasets, err := loadAll(ctx, c.source)
	if err != nil {
		return nil, err
	}
	c.datasets = datasets
	c.loadedAt = c.now()
	c.logger.Infof("loaded datasets in %s", c.loadedAt.Sub(start))
	return datasets, nil
}

func loadAll(ctx context.Context, source Source) (Datasets, error) {
	defs := healthdata.Definitions()
	results := make([][]healthdata.DailyValue, len(defs))

	g, gctx := errgroup.WithContext(ctx)
	for i, def := range defs {
		i, def := i, def
		g.Go(func() error {
			rows, err := source.Load(gctx, def)
			if err != nil {
				return err
			}
			sort.SliceStable(rows, func(a, b int) bool { return rows[a].Date.Before(rows[b].Date) })
			results[i] = rows
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	datasets := make(Datasets, len(defs))
	for i, def := range defs {
		datasets[def.Metric] = results[i]
	}
	return datasets, nil
}
