package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"shopify-barebone-app/internal/domain"
	"shopify-barebone-app/internal/infrastructure/repository/entity"
	"shopify-barebone-app/internal/ports"

	"github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

const createShopsTable = `CREATE TABLE IF NOT EXISTS shops (
	_id VARCHAR(255) NOT NULL PRIMARY KEY,
	data JSON NOT NULL,
	created_at TIMESTAMP NOT NULL,
	updated_at TIMESTAMP NOT NULL
)`

// Error codes reported for primary key violations
const (
	pqUniqueViolation   = "23505"
	mysqlDuplicateEntry = 1062
	connMaxLifetime     = 5 * time.Minute
	maxOpenConns        = 10
)

// SQLRepository implements ShopRepository over Postgres or MySQL.
// Queries are written with '?' placeholders and rebound for the driver.
type SQLRepository struct {
	db  *sqlx.DB
	now func() time.Time
}

// NewSQLRepository creates a repository over an open sqlx handle
func NewSQLRepository(db *sqlx.DB) ports.ShopRepository {
	return &SQLRepository{db: db, now: time.Now}
}

// ConnectPostgres opens a Postgres pool and ensures the shops table exists
func ConnectPostgres(ctx context.Context, dsn string) (ports.ShopRepository, error) {
	db, err := sqlx.ConnectContext(ctx, "postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Postgres: %w", err)
	}
	return openSQL(ctx, db)
}

// ConnectMySQL opens a MySQL pool and ensures the shops table exists
func ConnectMySQL(ctx context.Context, host, user, password, database string) (ports.ShopRepository, error) {
	cfg := mysql.NewConfig()
	cfg.Net = "tcp"
	cfg.Addr = host
	cfg.User = user
	cfg.Passwd = password
	cfg.DBName = database
	cfg.ParseTime = true
	// report matched rows so Set can detect missing shops
	cfg.ClientFoundRows = true

	db, err := sqlx.ConnectContext(ctx, "mysql", cfg.FormatDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MySQL: %w", err)
	}
	return openSQL(ctx, db)
}

func openSQL(ctx context.Context, db *sqlx.DB) (ports.ShopRepository, error) {
	db.SetMaxOpenConns(maxOpenConns)
	db.SetConnMaxLifetime(connMaxLifetime)

	repo := &SQLRepository{db: db, now: time.Now}
	if err := repo.EnsureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return repo, nil
}

// EnsureSchema creates the shops table when missing
func (r *SQLRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, createShopsTable); err != nil {
		return fmt.Errorf("failed to create shops table: %w", err)
	}
	return nil
}

// Get retrieves the shop data by domain
func (r *SQLRepository) Get(ctx context.Context, shop string) (*domain.ShopData, error) {
	var row entity.SQLShopRow
	query := r.db.Rebind(`SELECT _id, data, created_at, updated_at FROM shops WHERE _id = ?`)

	err := r.db.GetContext(ctx, &row, query, shop)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get shop: %w", err)
	}

	cred, err := row.ToDomain()
	if err != nil {
		return nil, err
	}
	return &cred.Data, nil
}

// Insert creates a new shop row
func (r *SQLRepository) Insert(ctx context.Context, shop string, data *domain.ShopData) error {
	now := r.now().UTC()
	row, err := entity.SQLShopRowFromDomain(&domain.ShopCredential{
		Shop:      shop,
		Data:      *data,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		return err
	}

	query := r.db.Rebind(`INSERT INTO shops (_id, data, created_at, updated_at) VALUES (?, ?, ?, ?)`)
	// lib/pq sends []byte as bytea, so the JSON goes over the wire as text
	_, err = r.db.ExecContext(ctx, query, row.ID, string(row.Data), row.CreatedAt, row.UpdatedAt)
	if isDuplicateKey(err) {
		return fmt.Errorf("failed to insert shop %s: %w", shop, domain.ErrShopExists)
	}
	if err != nil {
		return fmt.Errorf("failed to insert shop: %w", err)
	}

	return nil
}

// Set replaces the data of an existing shop row
func (r *SQLRepository) Set(ctx context.Context, shop string, data *domain.ShopData) error {
	row, err := entity.SQLShopRowFromDomain(&domain.ShopCredential{Shop: shop, Data: *data})
	if err != nil {
		return err
	}

	query := r.db.Rebind(`UPDATE shops SET data = ?, updated_at = ? WHERE _id = ?`)
	res, err := r.db.ExecContext(ctx, query, string(row.Data), r.now().UTC(), shop)
	if err != nil {
		return fmt.Errorf("failed to update shop: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("failed to update shop %s: %w", shop, domain.ErrShopNotFound)
	}

	return nil
}

// Close closes the connection pool
func (r *SQLRepository) Close(_ context.Context) error {
	if err := r.db.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}
	return nil
}

func isDuplicateKey(err error) bool {
	if err == nil {
		return false
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == pqUniqueViolation
	}
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return myErr.Number == mysqlDuplicateEntry
	}
	return false
}
