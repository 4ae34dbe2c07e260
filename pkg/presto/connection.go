package presto

import (
	"database/sql"
	"fmt"
	"net/url"

	_ "github.com/prestodb/presto-go-client/presto"
	log "github.com/sirupsen/logrus"

	"github.com/iwatch-health/health-pipeline/pkg/db"
)

// ConnConfig describes how to reach a Presto coordinator.
type ConnConfig struct {
	// Host is the hostname:port of the coordinator.
	Host    string
	User    string
	Catalog string
	Schema  string
	UseTLS  bool
}

// DSN returns the presto-go-client data source name for the config.
func (c ConnConfig) DSN() string {
	scheme := "http"
	if c.UseTLS {
		scheme = "https"
	}
	u := url.URL{
		Scheme: scheme,
		Host:   c.Host,
	}
	if c.User != "" {
		u.User = url.User(c.User)
	}
	q := url.Values{}
	if c.Catalog != "" {
		q.Set("catalog", c.Catalog)
	}
	if c.Schema != "" {
		q.Set("schema", c.Schema)
	}
	u.RawQuery = q.Encode()
	return u.String()
}

// NewPrestoConn opens a database handle to Presto. No connection is made
// until the first query.
func NewPrestoConn(logger log.FieldLogger, cfg ConnConfig, logQueries bool) (*DB, error) {
	sqlDB, err := sql.Open("presto", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("unable to open presto connection to %s: %v", cfg.Host, err)
	}
	return NewDB(db.NewLoggingQueryer(sqlDB, logger.WithField("component", "presto"), logQueries)), nil
}
