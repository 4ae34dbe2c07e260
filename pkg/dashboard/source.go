package dashboard

import (
	"context"
	"fmt"
	"io/ioutil"
	"strconv"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/iwatch-health/health-pipeline/pkg/aws"
	"github.com/iwatch-health/health-pipeline/pkg/columnar"
	"github.com/iwatch-health/health-pipeline/pkg/healthdata"
	"github.com/iwatch-health/health-pipeline/pkg/presto"
)

// Source loads every daily value of a metric from the transformed zone.
type Source interface {
	Load(ctx context.Context, def healthdata.Definition) ([]healthdata.DailyValue, error)
}

const dailyValuesQuery = `SELECT {| ident "created_at" |} AS created_at, {| ident .ValueColumn |} AS value
FROM {| tableName .Database .Table |}
ORDER BY {| ident "created_at" |}`

type dailyValuesQueryContext struct {
	Database    string
	Table       string
	ValueColumn string
}

// QuerySource reads the catalog tables through a SQL query layer. Both
// Athena and Presto are supported.
type QuerySource struct {
	queryer  presto.Queryer
	database string
	logger   log.FieldLogger
}

func NewQuerySource(queryer presto.Queryer, database string, logger log.FieldLogger) *QuerySource {
	return &QuerySource{
		queryer:  queryer,
		database: database,
		logger:   logger,
	}
}

// DailyValuesQuery renders the query selecting every row of def's table.
func DailyValuesQuery(database string, def healthdata.Definition) (string, error) {
	return presto.RenderQuery(dailyValuesQuery, dailyValuesQueryContext{
		Database:    database,
		Table:       string(def.Metric),
		ValueColumn: def.ValueColumn,
	})
}

func (s *QuerySource) Load(ctx context.Context, def healthdata.Definition) ([]healthdata.DailyValue, error) {
	query, err := DailyValuesQuery(s.database, def)
	if err != nil {
		return nil, err
	}
	rows, err := s.queryer.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %v", def.Metric, err)
	}

	values := make([]healthdata.DailyValue, 0, len(rows))
	for i, row := range rows {
		date, err := rowTime(row["created_at"])
		if err != nil {
			return nil, fmt.Errorf("%s row %d: %v", def.Metric, i, err)
		}
		v, err := rowFloat(row["value"])
		if err != nil {
			return nil, fmt.Errorf("%s row %d: %v", def.Metric, i, err)
		}
		values = append(values, healthdata.DailyValue{Date: healthdata.DayOf(date), Value: v})
	}
	s.logger.Debugf("loaded %d %s rows", len(values), def.Metric)
	return values, nil
}

func rowTime(v interface{}) (time.Time, error) {
	switch t := v.(type) {
	case time.Time:
		return t, nil
	case string:
		return healthdata.ParseTimestamp(t)
	case nil:
		return time.Time{}, fmt.Errorf("created_at is NULL")
	}
	return time.Time{}, fmt.Errorf("unexpected created_at type %T", v)
}

func rowFloat(v interface{}) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case int:
		return float64(n), nil
	case string:
		return strconv.ParseFloat(n, 64)
	case nil:
		return 0, fmt.Errorf("value is NULL")
	}
	return 0, fmt.Errorf("unexpected value type %T", v)
}

// ParquetSource reads the Parquet files of the transformed zone directly.
type ParquetSource struct {
	store  aws.ObjectStore
	bucket string
	prefix string
}

func NewParquetSource(store aws.ObjectStore, bucket, prefix string) *ParquetSource {
	return &ParquetSource{
		store:  store,
		bucket: bucket,
		prefix: prefix,
	}
}

func (s *ParquetSource) Load(ctx context.Context, def healthdata.Definition) ([]healthdata.DailyValue, error) {
	body, err := s.store.GetObject(ctx, s.bucket, columnar.DatasetKey(s.prefix, def))
	if err != nil {
		return nil, err
	}
	defer body.Close()
	data, err := ioutil.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s dataset: %v", def.Metric, err)
	}
	return columnar.Decode(ctx, def, data)
}
