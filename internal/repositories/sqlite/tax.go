package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"tailor-billing-api/internal/models"
	"tailor-billing-api/internal/repositories"

	"github.com/sirupsen/logrus"
)

const taxColumns = `id, name, type, value, created_at, updated_at`

// TaxRepository implements the TaxRepository interface for SQLite.
// Names are unique case-insensitively.
type TaxRepository struct {
	*BaseRepository
}

// NewTaxRepository creates a new SQLite tax repository
func NewTaxRepository(db *sql.DB, logger *logrus.Logger) *TaxRepository {
	return &TaxRepository{
		BaseRepository: NewBaseRepository(db, "taxes", logger),
	}
}

// Create inserts a tax definition
func (r *TaxRepository) Create(ctx context.Context, tax *models.TaxDefinition) error {
	if err := tax.Validate(); err != nil {
		return repositories.ValidationError("tax", tax.Name, err)
	}

	_, err := r.executeExec(ctx, "create",
		`INSERT INTO taxes (`+taxColumns+`) VALUES (?, ?, ?, ?, ?, ?)`,
		tax.ID, tax.Name, tax.Type, tax.Value, tax.CreatedAt.UTC(), tax.UpdatedAt.UTC())
	if err != nil {
		if isUniqueViolation(err) {
			return repositories.DuplicateError("tax", "name", tax.Name)
		}
		return err
	}
	return nil
}

// GetByName retrieves a tax definition by name
func (r *TaxRepository) GetByName(ctx context.Context, name string) (*models.TaxDefinition, error) {
	row := r.executeQueryRow(ctx, "get_by_name", `SELECT `+taxColumns+` FROM taxes WHERE name = ?`, name)

	tax, err := scanTax(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repositories.NotFoundError("tax", name)
		}
		return nil, repositories.NewRepositoryError("get_by_name", "tax", name, err)
	}
	return tax, nil
}

// List retrieves all tax definitions ordered by name
func (r *TaxRepository) List(ctx context.Context) ([]*models.TaxDefinition, error) {
	rows, err := r.executeQuery(ctx, "list", `SELECT `+taxColumns+` FROM taxes ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var taxes []*models.TaxDefinition
	for rows.Next() {
		tax, err := scanTax(rows)
		if err != nil {
			return nil, repositories.NewRepositoryError("list", "tax", "", err)
		}
		taxes = append(taxes, tax)
	}
	if err := rows.Err(); err != nil {
		return nil, repositories.NewRepositoryError("list", "tax", "", err)
	}
	return taxes, nil
}

// Update changes type and value of the tax definition with the same ID
func (r *TaxRepository) Update(ctx context.Context, tax *models.TaxDefinition) error {
	if err := tax.Validate(); err != nil {
		return repositories.ValidationError("tax", tax.Name, err)
	}
	tax.UpdatedAt = time.Now().UTC()

	result, err := r.executeExec(ctx, "update",
		`UPDATE taxes SET name = ?, type = ?, value = ?, updated_at = ? WHERE id = ?`,
		tax.Name, tax.Type, tax.Value, tax.UpdatedAt, tax.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return repositories.DuplicateError("tax", "name", tax.Name)
		}
		return err
	}

	n, err := r.rowsAffected(result, "update", tax.ID)
	if err != nil {
		return err
	}
	if n == 0 {
		return repositories.NotFoundError("tax", tax.Name)
	}
	return nil
}

// Delete removes a tax definition by name. Receipts keep their snapshots.
func (r *TaxRepository) Delete(ctx context.Context, name string) error {
	result, err := r.executeExec(ctx, "delete", `DELETE FROM taxes WHERE name = ?`, name)
	if err != nil {
		return err
	}

	n, err := r.rowsAffected(result, "delete", name)
	if err != nil {
		return err
	}
	if n == 0 {
		return repositories.NotFoundError("tax", name)
	}
	return nil
}

func scanTax(row rowScanner) (*models.TaxDefinition, error) {
	var tax models.TaxDefinition
	if err := row.Scan(&tax.ID, &tax.Name, &tax.Type, &tax.Value, &tax.CreatedAt, &tax.UpdatedAt); err != nil {
		return nil, err
	}
	return &tax, nil
}

var _ repositories.TaxRepository = (*TaxRepository)(nil)
