package aws

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/athena"
	"github.com/aws/aws-sdk-go/service/athena/athenaiface"
	log "github.com/sirupsen/logrus"

	"github.com/iwatch-health/health-pipeline/pkg/presto"
)

const (
	defaultAthenaPollInterval = 500 * time.Millisecond

	// athenaTimestampFormat is how Athena renders timestamp values in query
	// results.
	athenaTimestampFormat = "2006-01-02 15:04:05.000"
)

type AthenaConfig struct {
	Database string
	// Workgroup is optional, the account's primary workgroup is used when
	// empty.
	Workgroup string
	// OutputLocation is the s3:// prefix query results are written to. It may
	// be empty if the workgroup enforces one.
	OutputLocation string
	PollInterval   time.Duration
	LogQueries     bool
}

// AthenaQueryer runs Presto SQL through Amazon Athena. It implements
// presto.ExecQueryer.
type AthenaQueryer struct {
	api    athenaiface.AthenaAPI
	cfg    AthenaConfig
	logger log.FieldLogger
}

func NewAthenaQueryer(api athenaiface.AthenaAPI, cfg AthenaConfig, logger log.FieldLogger) *AthenaQueryer {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = defaultAthenaPollInterval
	}
	return &AthenaQueryer{
		api:    api,
		cfg:    cfg,
		logger: logger.WithField("component", "athena"),
	}
}

func NewAthenaQueryerFromSession(sess *session.Session, cfg AthenaConfig, logger log.FieldLogger) *AthenaQueryer {
	return NewAthenaQueryer(athena.New(sess), cfg, logger)
}

var _ presto.ExecQueryer = (*AthenaQueryer)(nil)

// Exec runs a statement and waits for it to finish, discarding any results.
func (q *AthenaQueryer) Exec(ctx context.Context, query string) error {
	_, err := q.run(ctx, query)
	return err
}

// Query runs a query and returns its rows, converting values according to
// the column types Athena reports.
func (q *AthenaQueryer) Query(ctx context.Context, query string) ([]presto.Row, error) {
	id, err := q.run(ctx, query)
	if err != nil {
		return nil, err
	}

	var (
		columns    []*athena.ColumnInfo
		results    []presto.Row
		firstRow   = true
		convertErr error
	)
	pageFn := func(out *athena.GetQueryResultsOutput, lastPage bool) bool {
		if out.ResultSet == nil {
			return true
		}
		if columns == nil && out.ResultSet.ResultSetMetadata != nil {
			columns = out.ResultSet.ResultSetMetadata.ColumnInfo
		}
		for _, r := range out.ResultSet.Rows {
			// The first row of a SELECT result holds the column labels.
			if firstRow {
				firstRow = false
				if isHeaderRow(r, columns) {
					continue
				}
			}
			row, err := convertAthenaRow(r, columns)
			if err != nil {
				convertErr = err
				return false
			}
			results = append(results, row)
		}
		return true
	}
	err = q.api.GetQueryResultsPagesWithContext(ctx, &athena.GetQueryResultsInput{
		QueryExecutionId: aws.String(id),
	}, pageFn)
	if err != nil {
		return nil, fmt.Errorf("unable to get results of athena query %s: %v", id, err)
	}
	if convertErr != nil {
		return nil, fmt.Errorf("unable to read results of athena query %s: %v", id, convertErr)
	}
	return results, nil
}

// run starts the query and blocks until it reaches a terminal state. It
// returns the query execution ID.
func (q *AthenaQueryer) run(ctx context.Context, query string) (string, error) {
	if q.cfg.LogQueries {
		q.logger.Debugf("QUERY: %s", query)
	}
	input := &athena.StartQueryExecutionInput{
		QueryString: aws.String(query),
	}
	if q.cfg.Database != "" {
		input.QueryExecutionContext = &athena.QueryExecutionContext{
			Database: aws.String(q.cfg.Database),
		}
	}
	if q.cfg.OutputLocation != "" {
		input.ResultConfiguration = &athena.ResultConfiguration{
			OutputLocation: aws.String(q.cfg.OutputLocation),
		}
	}
	if q.cfg.Workgroup != "" {
		input.WorkGroup = aws.String(q.cfg.Workgroup)
	}
	out, err := q.api.StartQueryExecutionWithContext(ctx, input)
	if err != nil {
		return "", fmt.Errorf("unable to start athena query: %v", err)
	}
	id := aws.StringValue(out.QueryExecutionId)
	logger := q.logger.WithField("queryExecutionId", id)
	logger.Debugf("started athena query")

	ticker := time.NewTicker(q.cfg.PollInterval)
	defer ticker.Stop()
	for {
		exec, err := q.api.GetQueryExecutionWithContext(ctx, &athena.GetQueryExecutionInput{
			QueryExecutionId: aws.String(id),
		})
		if err != nil {
			return "", fmt.Errorf("unable to get status of athena query %s: %v", id, err)
		}
		var state, reason string
		if exec.QueryExecution != nil && exec.QueryExecution.Status != nil {
			state = aws.StringValue(exec.QueryExecution.Status.State)
			reason = aws.StringValue(exec.QueryExecution.Status.StateChangeReason)
		}
		switch state {
		case athena.QueryExecutionStateSucceeded:
			logger.Debugf("athena query succeeded")
			return id, nil
		case athena.QueryExecutionStateFailed, athena.QueryExecutionStateCancelled:
			return "", fmt.Errorf("athena query %s %s: %s", id, strings.ToLower(state), reason)
		}

		select {
		case <-ctx.Done():
			q.stop(id)
			return "", ctx.Err()
		case <-ticker.C:
		}
	}
}

func (q *AthenaQueryer) stop(id string) {
	_, err := q.api.StopQueryExecution(&athena.StopQueryExecutionInput{
		QueryExecutionId: aws.String(id),
	})
	if err != nil {
		q.logger.WithError(err).Warnf("unable to stop athena query %s", id)
	}
}

func isHeaderRow(r *athena.Row, columns []*athena.ColumnInfo) bool {
	if len(columns) == 0 || len(r.Data) != len(columns) {
		return false
	}
	for i, d := range r.Data {
		if aws.StringValue(d.VarCharValue) != aws.StringValue(columns[i].Label) &&
			aws.StringValue(d.VarCharValue) != aws.StringValue(columns[i].Name) {
			return false
		}
	}
	return true
}

func convertAthenaRow(r *athena.Row, columns []*athena.ColumnInfo) (presto.Row, error) {
	row := make(presto.Row, len(columns))
	for i, col := range columns {
		name := aws.StringValue(col.Name)
		if i >= len(r.Data) || r.Data[i].VarCharValue == nil {
			row[name] = nil
			continue
		}
		val, err := convertAthenaValue(aws.StringValue(col.Type), aws.StringValue(r.Data[i].VarCharValue))
		if err != nil {
			return nil, fmt.Errorf("column %s: %v", name, err)
		}
		row[name] = val
	}
	return row, nil
}

func convertAthenaValue(colType, s string) (interface{}, error) {
	switch strings.ToLower(colType) {
	case "tinyint", "smallint", "integer", "int", "bigint":
		return strconv.ParseInt(s, 10, 64)
	case "double", "float", "real":
		return strconv.ParseFloat(s, 64)
	case "boolean":
		return strconv.ParseBool(s)
	case "timestamp":
		t, err := time.Parse(athenaTimestampFormat, s)
		if err != nil {
			// Athena drops the fractional part for whole seconds in some
			// engine versions.
			t, err = time.Parse("2006-01-02 15:04:05", s)
		}
		return t, err
	case "date":
		return time.Parse("2006-01-02", s)
	default:
		return s, nil
	}
}
