package awstest

import (
	"fmt"
	"sync"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/athena"
	"github.com/aws/aws-sdk-go/service/athena/athenaiface"
)

// MockAthena records started queries and replays canned states and result
// pages.
type MockAthena struct {
	athenaiface.AthenaAPI

	mu sync.Mutex
	// States are returned by successive GetQueryExecution calls; the last one
	// repeats. Defaults to SUCCEEDED.
	States      []string
	Reason      string
	ResultPages []*athena.GetQueryResultsOutput
	StartErr    error

	Queries []*athena.StartQueryExecutionInput
	Stopped []string
	polls   int
}

func (m *MockAthena) StartQueryExecutionWithContext(_ aws.Context, in *athena.StartQueryExecutionInput, _ ...request.Option) (*athena.StartQueryExecutionOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.StartErr != nil {
		return nil, m.StartErr
	}
	m.Queries = append(m.Queries, in)
	return &athena.StartQueryExecutionOutput{
		QueryExecutionId: aws.String(fmt.Sprintf("query-%d", len(m.Queries))),
	}, nil
}

func (m *MockAthena) GetQueryExecutionWithContext(_ aws.Context, in *athena.GetQueryExecutionInput, _ ...request.Option) (*athena.GetQueryExecutionOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	state := athena.QueryExecutionStateSucceeded
	if len(m.States) > 0 {
		i := m.polls
		if i >= len(m.States) {
			i = len(m.States) - 1
		}
		state = m.States[i]
	}
	m.polls++
	return &athena.GetQueryExecutionOutput{
		QueryExecution: &athena.QueryExecution{
			QueryExecutionId: in.QueryExecutionId,
			Status: &athena.QueryExecutionStatus{
				State:             aws.String(state),
				StateChangeReason: aws.String(m.Reason),
			},
		},
	}, nil
}

func (m *MockAthena) GetQueryResultsPagesWithContext(_ aws.Context, _ *athena.GetQueryResultsInput, fn func(*athena.GetQueryResultsOutput, bool) bool, _ ...request.Option) error {
	for i, page := range m.ResultPages {
		if !fn(page, i == len(m.ResultPages)-1) {
			break
		}
	}
	return nil
}

func (m *MockAthena) StopQueryExecution(in *athena.StopQueryExecutionInput) (*athena.StopQueryExecutionOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Stopped = append(m.Stopped, aws.StringValue(in.QueryExecutionId))
	return &athena.StopQueryExecutionOutput{}, nil
}

// ResultPage builds a GetQueryResults page. A nil cell becomes a NULL.
func ResultPage(columns []*athena.ColumnInfo, rows ...[]*string) *athena.GetQueryResultsOutput {
	var out []*athena.Row
	for _, r := range rows {
		row := &athena.Row{}
		for _, cell := range r {
			row.Data = append(row.Data, &athena.Datum{VarCharValue: cell})
		}
		out = append(out, row)
	}
	return &athena.GetQueryResultsOutput{
		ResultSet: &athena.ResultSet{
			ResultSetMetadata: &athena.ResultSetMetadata{ColumnInfo: columns},
			Rows:              out,
		},
	}
}
