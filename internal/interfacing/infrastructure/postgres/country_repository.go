package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	interfacing "franchise-interfacing/internal/interfacing/domain"
)

const defaultCountriesTable = "interfacing_countries"

// CountryRepository reads franchise countries from Postgres.
type CountryRepository struct {
	db    DBTX
	table string
}

// CountryOption configures the repository.
type CountryOption func(*CountryRepository)

// WithCountryTable overrides the default table name.
func WithCountryTable(table string) CountryOption {
	return func(repo *CountryRepository) {
		if table != "" {
			repo.table = table
		}
	}
}

// NewCountryRepository constructs a repository.
func NewCountryRepository(db DBTX, opts ...CountryOption) *CountryRepository {
	repo := &CountryRepository{db: db, table: defaultCountriesTable}
	for _, opt := range opts {
		opt(repo)
	}
	return repo
}

// GetCountry loads a country by id; nil when it does not exist.
func (r *CountryRepository) GetCountry(ctx context.Context, id string) (*interfacing.Country, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("country repo: nil db")
	}
	if id == "" {
		return nil, interfacing.ErrEmptyCountryID
	}
	query := fmt.Sprintf(`
SELECT id, name, iso_code, fir_code, account_id, status, currency, payer_name
FROM %s
WHERE id = $1
LIMIT 1`, r.table)
	country, err := scanCountry(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &country, nil
}

// ListCountries returns countries in any of the statuses ordered by id.
func (r *CountryRepository) ListCountries(ctx context.Context, statuses []interfacing.CountryStatus) ([]interfacing.Country, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("country repo: nil db")
	}
	values := make([]string, 0, len(statuses))
	for _, status := range statuses {
		values = append(values, string(status))
	}
	query := fmt.Sprintf(`
SELECT id, name, iso_code, fir_code, account_id, status, currency, payer_name
FROM %s
WHERE cardinality($1::text[]) = 0 OR status = ANY($1::text[])
ORDER BY id`, r.table)
	rows, err := r.db.QueryContext(ctx, query, values)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []interfacing.Country{}
	for rows.Next() {
		country, err := scanCountry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, country)
	}
	return out, rows.Err()
}

// Save upserts a country.
func (r *CountryRepository) Save(ctx context.Context, country interfacing.Country) error {
	if r == nil || r.db == nil {
		return errors.New("country repo: nil db")
	}
	if country.ID == "" {
		return interfacing.ErrEmptyCountryID
	}
	if _, err := interfacing.ParseCountryStatus(string(country.Status)); err != nil {
		return err
	}
	query := fmt.Sprintf(`
INSERT INTO %s (id, name, iso_code, fir_code, account_id, status, currency, payer_name)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
ON CONFLICT (id)
DO UPDATE SET
	name = EXCLUDED.name,
	iso_code = EXCLUDED.iso_code,
	fir_code = EXCLUDED.fir_code,
	account_id = EXCLUDED.account_id,
	status = EXCLUDED.status,
	currency = EXCLUDED.currency,
	payer_name = EXCLUDED.payer_name,
	updated_at = NOW()`, r.table)
	_, err := r.db.ExecContext(ctx, query,
		country.ID,
		country.Name,
		country.ISOCode,
		country.FIRCode,
		country.AccountID,
		string(country.Status),
		country.Currency,
		country.PayerName,
	)
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCountry(row rowScanner) (interfacing.Country, error) {
	var country interfacing.Country
	var status string
	if err := row.Scan(
		&country.ID,
		&country.Name,
		&country.ISOCode,
		&country.FIRCode,
		&country.AccountID,
		&status,
		&country.Currency,
		&country.PayerName,
	); err != nil {
		return interfacing.Country{}, err
	}
	country.Status = interfacing.CountryStatus(status)
	return country, nil
}
