package presto

//go:generate mockgen -destination=mock/mock_db.go -package=mockpresto github.com/iwatch-health/health-pipeline/pkg/presto ExecQueryer

import (
	"context"

	"github.com/iwatch-health/health-pipeline/pkg/db"
)

// Queryer runs a query and returns its rows. It is implemented by DB and by
// the Athena client, both of which speak Presto SQL.
type Queryer interface {
	Query(ctx context.Context, query string) ([]Row, error)
}

type Execer interface {
	Exec(ctx context.Context, query string) error
}

type ExecQueryer interface {
	Queryer
	Execer
}

type DB struct {
	queryer db.Queryer
}

func NewDB(queryer db.Queryer) *DB {
	return &DB{queryer}
}

func (db *DB) Query(ctx context.Context, query string) ([]Row, error) {
	return ExecuteSelect(ctx, db.queryer, query)
}

func (db *DB) Exec(ctx context.Context, query string) error {
	return ExecuteQuery(ctx, db.queryer, query)
}

func (db *DB) Close() error {
	return db.queryer.Close()
}
