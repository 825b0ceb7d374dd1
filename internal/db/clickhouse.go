package db

import (
	_ "github.com/ClickHouse/clickhouse-go/v2"
	"github.com/jmoiron/sqlx"
)

// NewClickHouseConnection opens the analytics sink.
// DSN e.g. clickhouse://default:@localhost:9000/boardpulse?dial_timeout=5s&compress=true
func NewClickHouseConnection(dsn string, opts Opts) (*sqlx.DB, error) {
	conn, err := sqlx.Open("clickhouse", dsn)
	if err != nil {
		return nil, err
	}
	return pingOrClose(applyPool(conn, opts), opts.PingTimeout)
}
