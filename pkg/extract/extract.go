package extract

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"time"

	"github.com/gocarina/gocsv"
	log "github.com/sirupsen/logrus"

	"github.com/iwatch-health/health-pipeline/pkg/aws"
	"github.com/iwatch-health/health-pipeline/pkg/healthdata"
)

// Extractor turns the raw export into one CSV file per metric in the
// processed zone.
type Extractor struct {
	logger log.FieldLogger
	store  aws.ObjectStore
	cfg    Config
}

func New(logger log.FieldLogger, store aws.ObjectStore, cfg Config) *Extractor {
	return &Extractor{
		logger: logger.WithField("component", "extractor"),
		store:  store,
		cfg:    cfg,
	}
}

func (e *Extractor) Run(ctx context.Context) error {
	start := time.Now()
	e.logger.Infof("reading export from %s", aws.URI(e.cfg.RawBucket, e.cfg.RawKey))

	body, err := e.store.GetObject(ctx, e.cfg.RawBucket, e.cfg.RawKey)
	if err != nil {
		return err
	}
	defer body.Close()

	records, err := Parse(ctx, body, e.logger)
	if err != nil {
		return err
	}

	for _, def := range healthdata.Definitions() {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := e.write(ctx, def, records); err != nil {
			return err
		}
	}

	e.logger.Infof("job complete in %s", time.Since(start).Round(10*time.Millisecond))
	return nil
}

// ObjectKey returns the processed zone key of the CSV file for def.
func ObjectKey(prefix string, def healthdata.Definition) string {
	return path.Join(prefix, def.CSVFile)
}

func (e *Extractor) write(ctx context.Context, def healthdata.Definition, records *Records) error {
	key := ObjectKey(e.cfg.ProcessedPrefix, def)
	e.logger.Infof("writing to S3: %s", key)

	data, err := MarshalCSV(def.Metric, records)
	if err != nil {
		return fmt.Errorf("unable to encode %s: %v", def.CSVFile, err)
	}
	if err := e.store.PutObject(ctx, e.cfg.ProcessedBucket, key, "text/csv", data); err != nil {
		return err
	}
	e.logger.Infof("done writing %d rows to %s", records.Len(def.Metric), key)
	return nil
}

// MarshalCSV encodes the records of m with a header row, which is present
// even when there are no records.
func MarshalCSV(m healthdata.Metric, records *Records) ([]byte, error) {
	var in interface{}
	switch m {
	case healthdata.Heart:
		in = records.Heart
	case healthdata.Sleep:
		in = records.Sleep
	case healthdata.Step:
		in = records.Step
	case healthdata.Resp:
		in = records.Resp
	default:
		return nil, fmt.Errorf("unknown metric %q", m)
	}
	var buf bytes.Buffer
	if err := gocsv.Marshal(in, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
