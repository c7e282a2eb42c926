/*
Package mysql provides a MySQL-backed factor.Store.

PURPOSE:
  The factor pool historically lives in a MySQL database ("factor_pool").
  This package builds the DSN from discrete connection settings with
  go-sql-driver/mysql and plugs the MySQL dialect into sqlstore.

SCHEMA:
  Keys are DATE, factor values DOUBLE (NULL for missing). Identifiers are
  back-quoted.

TRANSACTIONS:
  MySQL commits DROP TABLE and CREATE TABLE implicitly, so a REPLACE is only
  atomic from the insert onwards. A failure between create and commit leaves
  an empty or partly filled table.

SEE ALSO:
  - store/sqlstore: Shared SQL implementation
  - config/config.go: Connection settings
*/
package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog"
	"github.com/yearone/factor-pool/factor"
	"github.com/yearone/factor-pool/store/sqlstore"
)

// errNoSuchTable is ER_NO_SUCH_TABLE.
const errNoSuchTable = 1146

// Config holds MySQL connection settings.
type Config struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
}

// DSN renders the connection string. Dates are parsed into time.Time in UTC.
func (c Config) DSN() string {
	cfg := mysql.NewConfig()
	cfg.User = c.User
	cfg.Passwd = c.Password
	cfg.Net = "tcp"
	cfg.Addr = net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
	cfg.DBName = c.Database
	cfg.ParseTime = true
	cfg.Loc = time.UTC
	return cfg.FormatDSN()
}

// Store is a MySQL factor store.
type Store struct {
	*sqlstore.Store
}

// New connects to MySQL and verifies the connection.
func New(cfg Config, log zerolog.Logger) (*Store, error) {
	db, err := sql.Open("mysql", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database %s: %w", cfg.Database, err)
	}

	log.Info().Str("host", cfg.Host).Int("port", cfg.Port).Str("database", cfg.Database).Msg("MySQL factor store opened")
	return &Store{Store: sqlstore.New(db, Dialect{}, log)}, nil
}

// =============================================================================
// DIALECT
// =============================================================================

// Dialect is the MySQL flavour of sqlstore.Dialect.
type Dialect struct{}

func (Dialect) Name() string              { return "mysql" }
func (Dialect) Quote(ident string) string { return sqlstore.QuoteWith("`", ident) }
func (Dialect) KeyType() string           { return "DATE" }
func (Dialect) ValueType() string         { return "DOUBLE" }

func (Dialect) TableExistsQuery() string {
	return `SELECT COUNT(*) FROM information_schema.tables
		WHERE table_schema = DATABASE() AND table_name = ?`
}

func (Dialect) ListColumnsQuery() string {
	return `SELECT column_name FROM information_schema.columns
		WHERE table_schema = DATABASE() AND table_name = ?
		ORDER BY ordinal_position`
}

func (Dialect) EncodeDate(d factor.Date) any { return d.Time() }

func (Dialect) IsNoSuchTable(err error) bool {
	var mysqlErr *mysql.MySQLError
	return errors.As(err, &mysqlErr) && mysqlErr.Number == errNoSuchTable
}
