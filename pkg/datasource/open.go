package datasource

import (
	"fmt"

	"github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite" // registers the "sqlite" driver

	"overviewrepo/pkg/config"
)

// Open opens the configured database. MySQL DSNs are normalized to parse
// DATE and DATETIME columns into time.Time and to report matched rather than
// changed rows as affected.
func Open(cfg config.Database) (*sqlx.DB, error) {
	dsn := cfg.DSN
	switch cfg.Driver {
	case "mysql":
		mysqlCfg, err := mysql.ParseDSN(dsn)
		if err != nil {
			return nil, fmt.Errorf("datasource: parse mysql dsn: %w", err)
		}
		mysqlCfg.ParseTime = true
		mysqlCfg.ClientFoundRows = true
		dsn = mysqlCfg.FormatDSN()
	case "sqlite":
	default:
		return nil, fmt.Errorf("datasource: unsupported driver %q", cfg.Driver)
	}

	db, err := sqlx.Open(cfg.Driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("datasource: open %s: %w", cfg.Driver, err)
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	return db, nil
}

// NewProvider returns a Transactional provider when configured, a Pool otherwise.
func NewProvider(db *sqlx.DB, cfg config.Database) Provider {
	if cfg.Transactional {
		return NewTransactional(db, nil)
	}
	return NewPool(db)
}
