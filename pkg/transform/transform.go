package transform

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/gocarina/gocsv"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/iwatch-health/health-pipeline/pkg/aws"
	"github.com/iwatch-health/health-pipeline/pkg/columnar"
	"github.com/iwatch-health/health-pipeline/pkg/healthdata"
)

// Transformer reads the processed CSV files, aggregates them per day and
// writes one Parquet dataset per metric to the transformed zone.
type Transformer struct {
	logger  log.FieldLogger
	store   aws.ObjectStore
	catalog Catalog
	cfg     Config
}

// New returns a Transformer. A nil catalog skips registration.
func New(logger log.FieldLogger, store aws.ObjectStore, catalog Catalog, cfg Config) *Transformer {
	logger = logger.WithField("component", "transformer")
	if catalog == nil {
		catalog = noopCatalog{logger: logger}
	}
	return &Transformer{
		logger:  logger,
		store:   store,
		catalog: catalog,
		cfg:     cfg,
	}
}

func (t *Transformer) Run(ctx context.Context) error {
	start := time.Now()
	defs := healthdata.Definitions()
	if err := t.checkProcessedZone(ctx, defs); err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, def := range defs {
		def := def
		g.Go(func() error {
			return t.transform(gctx, def)
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	if err := t.catalog.Register(ctx, defs); err != nil {
		return err
	}
	t.logger.Infof("job complete in %s", time.Since(start).Round(10*time.Millisecond))
	return nil
}

// checkProcessedZone fails fast when a CSV file of the extract stage is
// missing.
func (t *Transformer) checkProcessedZone(ctx context.Context, defs []healthdata.Definition) error {
	prefix := t.cfg.ProcessedPrefix
	if prefix != "" {
		prefix = strings.TrimSuffix(prefix, "/") + "/"
	}
	keys, err := t.store.ListKeys(ctx, t.cfg.ProcessedBucket, prefix)
	if err != nil {
		return err
	}
	found := make(map[string]bool, len(keys))
	for _, key := range keys {
		found[key] = true
	}
	var missing []string
	for _, def := range defs {
		if key := path.Join(t.cfg.ProcessedPrefix, def.CSVFile); !found[key] {
			missing = append(missing, aws.URI(t.cfg.ProcessedBucket, key))
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("processed zone is missing %s", strings.Join(missing, ", "))
	}
	return nil
}

func (t *Transformer) transform(ctx context.Context, def healthdata.Definition) error {
	logger := t.logger.WithField("metric", def.Metric)
	logger.Infof("transforming %s", def.CSVFile)

	rows, err := t.aggregate(ctx, def)
	if err != nil {
		return err
	}

	data, err := columnar.Encode(def, rows)
	if err != nil {
		return err
	}
	key := columnar.DatasetKey(t.cfg.TransformedPrefix, def)
	if err := t.store.PutObject(ctx, t.cfg.TransformedBucket, key, "application/vnd.apache.parquet", data); err != nil {
		return err
	}
	logger.Infof("wrote %d daily rows to %s", len(rows), aws.URI(t.cfg.TransformedBucket, key))
	return nil
}

func (t *Transformer) aggregate(ctx context.Context, def healthdata.Definition) ([]healthdata.DailyValue, error) {
	key := path.Join(t.cfg.ProcessedPrefix, def.CSVFile)
	body, err := t.store.GetObject(ctx, t.cfg.ProcessedBucket, key)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	switch def.Metric {
	case healthdata.Heart:
		var records []*healthdata.QuantityRecord
		if err := unmarshal(body, &records, key); err != nil {
			return nil, err
		}
		return AggregateHeart(records), nil
	case healthdata.Sleep:
		var records []*healthdata.SleepRecord
		if err := unmarshal(body, &records, key); err != nil {
			return nil, err
		}
		return AggregateSleep(records), nil
	case healthdata.Step:
		var records []*healthdata.CountRecord
		if err := unmarshal(body, &records, key); err != nil {
			return nil, err
		}
		return AggregateSteps(records), nil
	case healthdata.Resp:
		var records []*healthdata.CountRecord
		if err := unmarshal(body, &records, key); err != nil {
			return nil, err
		}
		return AggregateResp(records), nil
	}
	return nil, fmt.Errorf("unknown metric %q", def.Metric)
}

func unmarshal(r io.Reader, out interface{}, key string) error {
	if err := gocsv.Unmarshal(r, out); err != nil {
		return fmt.Errorf("unable to read %s: %v", key, err)
	}
	return nil
}
