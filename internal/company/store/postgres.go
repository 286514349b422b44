package store

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"cnpjd/internal/company/models"
	id "cnpjd/pkg/domain"
	"cnpjd/pkg/platform/sentinel"
	txcontext "cnpjd/pkg/platform/tx"
)

//go:embed schema.sql
var schema string

// uniqueViolation is the SQLSTATE Postgres reports for duplicate keys.
const uniqueViolation = "23505"

// PostgresStore persists companies in the companies table.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// RunInTx runs fn in a transaction. Store calls made with the ctx passed to
// fn join it.
func (s *PostgresStore) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return txcontext.Run(ctx, s.db, fn)
}

// Migrate creates the companies table and indexes if they are missing.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("migrate companies: %w", err)
	}
	return nil
}

func (s *PostgresStore) Create(ctx context.Context, company *models.Company) error {
	query := `
		INSERT INTO companies (id, cnpj, root, legal_name, trade_name, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := txcontext.ExecutorFrom(ctx, s.db).ExecContext(ctx, query,
		company.ID,
		company.CNPJ.Int64(),
		company.Root(),
		company.LegalName,
		company.TradeName,
		company.CreatedAt,
		company.UpdatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return fmt.Errorf("company %s: %w", company.CNPJ.Short(), sentinel.ErrConflict)
		}
		return fmt.Errorf("insert company: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByCNPJ(ctx context.Context, cnpj id.CNPJ) (*models.Company, error) {
	query := `
		SELECT id, cnpj, legal_name, trade_name, created_at, updated_at
		FROM companies
		WHERE cnpj = $1
	`
	row := txcontext.ExecutorFrom(ctx, s.db).QueryRowContext(ctx, query, cnpj.Int64())
	c, err := scanCompany(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find company: %w", err)
	}
	return c, nil
}

func (s *PostgresStore) FindMany(ctx context.Context, cnpjs []id.CNPJ) ([]*models.Company, error) {
	if len(cnpjs) == 0 {
		return nil, nil
	}
	values := make([]int64, len(cnpjs))
	for i, c := range cnpjs {
		values[i] = c.Int64()
	}
	query := `
		SELECT id, cnpj, legal_name, trade_name, created_at, updated_at
		FROM companies
		WHERE cnpj = ANY($1)
		ORDER BY cnpj
	`
	return s.query(ctx, query, pq.Array(values))
}

func (s *PostgresStore) ListByRoot(ctx context.Context, root int64) ([]*models.Company, error) {
	query := `
		SELECT id, cnpj, legal_name, trade_name, created_at, updated_at
		FROM companies
		WHERE root = $1
		ORDER BY cnpj
	`
	return s.query(ctx, query, root)
}

func (s *PostgresStore) query(ctx context.Context, query string, args ...any) ([]*models.Company, error) {
	rows, err := txcontext.ExecutorFrom(ctx, s.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query companies: %w", err)
	}
	defer rows.Close()

	var out []*models.Company
	for rows.Next() {
		c, err := scanCompany(rows)
		if err != nil {
			return nil, fmt.Errorf("scan company: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate companies: %w", err)
	}
	return out, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanCompany(row scanner) (*models.Company, error) {
	var c models.Company
	if err := row.Scan(&c.ID, &c.CNPJ, &c.LegalName, &c.TradeName, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	return &c, nil
}
