package database

import (
	"crypto/tls"
	"crypto/x509"
	"database/sql"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	mysqldriver "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	gormmysql "gorm.io/driver/mysql"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const (
	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"

	mysqlTLSConfigName = "pos-custom-ca"
)

type Options struct {
	Driver          string
	URL             string
	SSLCA           string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

type DB struct {
	Gorm   *gorm.DB
	SQL    *sql.DB
	Driver string
}

// Open prepares the connection pool without contacting the server, so a
// database that is down at startup does not keep the API from booting.
func Open(opts Options) (*DB, error) {
	sqlDB, err := openSQL(opts)
	if err != nil {
		return nil, err
	}

	if opts.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(opts.MaxOpenConns)
	}
	if opts.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(opts.MaxIdleConns)
	}
	if opts.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(opts.ConnMaxLifetime)
	}

	var dialector gorm.Dialector
	switch opts.Driver {
	case DriverPostgres:
		dialector = gormpostgres.New(gormpostgres.Config{Conn: sqlDB})
	case DriverMySQL:
		dialector = gormmysql.New(gormmysql.Config{Conn: sqlDB, SkipInitializeWithVersion: true})
	}

	gdb, err := gorm.Open(dialector, &gorm.Config{
		DisableAutomaticPing: true,
		Logger:               gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("open gorm: %w", err)
	}

	return &DB{Gorm: gdb, SQL: sqlDB, Driver: opts.Driver}, nil
}

func (d *DB) Close() error {
	return d.SQL.Close()
}

func openSQL(opts Options) (*sql.DB, error) {
	if opts.URL == "" {
		return nil, fmt.Errorf("database url is empty")
	}

	switch opts.Driver {
	case DriverPostgres:
		dsn, err := postgresDSN(opts.URL, opts.SSLCA)
		if err != nil {
			return nil, err
		}
		db, err := sql.Open("postgres", dsn)
		if err != nil {
			return nil, fmt.Errorf("failed to open database: %w", err)
		}
		return db, nil
	case DriverMySQL:
		cfg, err := mysqlConfig(opts.URL, opts.SSLCA)
		if err != nil {
			return nil, err
		}
		connector, err := mysqldriver.NewConnector(cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to open database: %w", err)
		}
		return sql.OpenDB(connector), nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", opts.Driver)
	}
}

// postgresDSN adds certificate verification against caFile when one is
// configured. Both URL and key=value connection strings are accepted.
func postgresDSN(dsn, caFile string) (string, error) {
	if caFile == "" {
		return dsn, nil
	}
	if _, err := os.Stat(caFile); err != nil {
		return "", fmt.Errorf("read DB_SSL_CA: %w", err)
	}

	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		u, err := url.Parse(dsn)
		if err != nil {
			return "", fmt.Errorf("parse database url: %w", err)
		}
		q := u.Query()
		q.Set("sslmode", "verify-full")
		q.Set("sslrootcert", caFile)
		u.RawQuery = q.Encode()
		return u.String(), nil
	}
	return fmt.Sprintf("%s sslmode=verify-full sslrootcert=%s", dsn, caFile), nil
}

func mysqlConfig(dsn, caFile string) (*mysqldriver.Config, error) {
	cfg, err := mysqldriver.ParseDSN(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	cfg.ParseTime = true
	cfg.Loc = time.UTC

	if caFile == "" {
		return cfg, nil
	}

	pem, err := os.ReadFile(caFile)
	if err != nil {
		return nil, fmt.Errorf("read DB_SSL_CA: %w", err)
	}
	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(pem) {
		return nil, fmt.Errorf("DB_SSL_CA %s contains no PEM certificates", caFile)
	}
	if err := mysqldriver.RegisterTLSConfig(mysqlTLSConfigName, &tls.Config{
		RootCAs:    pool,
		MinVersion: tls.VersionTLS12,
	}); err != nil {
		return nil, fmt.Errorf("register tls config: %w", err)
	}
	cfg.TLSConfig = mysqlTLSConfigName
	return cfg, nil
}
