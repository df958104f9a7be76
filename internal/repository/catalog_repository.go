package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stemsi/examprep-backend/internal/model"
)

// CatalogRepository handles question banks and categories.
type CatalogRepository struct {
	pool *pgxpool.Pool
}

// NewCatalogRepository creates a new CatalogRepository.
func NewCatalogRepository(pool *pgxpool.Pool) *CatalogRepository {
	return &CatalogRepository{pool: pool}
}

// ListBanks returns every question bank ordered by name.
func (r *CatalogRepository) ListBanks(ctx context.Context) ([]model.QuestionBank, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, name, description, is_free, created_at
		 FROM question_banks ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var banks []model.QuestionBank
	for rows.Next() {
		var b model.QuestionBank
		if err := rows.Scan(&b.ID, &b.Name, &b.Description, &b.IsFree, &b.CreatedAt); err != nil {
			return nil, err
		}
		banks = append(banks, b)
	}
	return banks, rows.Err()
}

// GetBank retrieves one bank.
func (r *CatalogRepository) GetBank(ctx context.Context, id uuid.UUID) (*model.QuestionBank, error) {
	b := &model.QuestionBank{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, name, description, is_free, created_at
		 FROM question_banks WHERE id = $1`, id,
	).Scan(&b.ID, &b.Name, &b.Description, &b.IsFree, &b.CreatedAt)
	if err != nil {
		return nil, err
	}
	return b, nil
}

// CreateBank inserts a new bank.
func (r *CatalogRepository) CreateBank(ctx context.Context, b *model.QuestionBank) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO question_banks (name, description, is_free)
		 VALUES ($1, $2, $3)
		 RETURNING id, created_at`,
		b.Name, b.Description, b.IsFree,
	).Scan(&b.ID, &b.CreatedAt)
}

// ListCategories returns a bank's categories with their question counts.
func (r *CatalogRepository) ListCategories(ctx context.Context, bankID uuid.UUID) ([]model.Category, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT c.id, c.bank_id, c.name, c.description, COUNT(q.id), c.created_at
		 FROM categories c
		 LEFT JOIN questions q ON q.category_id = c.id
		 WHERE c.bank_id = $1
		 GROUP BY c.id
		 ORDER BY c.name`, bankID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cats []model.Category
	for rows.Next() {
		var c model.Category
		if err := rows.Scan(&c.ID, &c.BankID, &c.Name, &c.Description, &c.QuestionCount, &c.CreatedAt); err != nil {
			return nil, err
		}
		cats = append(cats, c)
	}
	return cats, rows.Err()
}

// CreateCategory inserts a category into an existing bank.
func (r *CatalogRepository) CreateCategory(ctx context.Context, c *model.Category) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO categories (bank_id, name, description)
		 VALUES ($1, $2, $3)
		 RETURNING id, created_at`,
		c.BankID, c.Name, c.Description,
	).Scan(&c.ID, &c.CreatedAt)
}

// CategoryBanks maps each existing category id to its bank and free flag.
// Unknown ids are absent from the result.
func (r *CatalogRepository) CategoryBanks(ctx context.Context, categoryIDs []uuid.UUID) (map[uuid.UUID]model.QuestionBank, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT c.id, b.id, b.name, b.is_free
		 FROM categories c JOIN question_banks b ON b.id = c.bank_id
		 WHERE c.id = ANY($1)`, categoryIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[uuid.UUID]model.QuestionBank, len(categoryIDs))
	for rows.Next() {
		var catID uuid.UUID
		var b model.QuestionBank
		if err := rows.Scan(&catID, &b.ID, &b.Name, &b.IsFree); err != nil {
			return nil, err
		}
		out[catID] = b
	}
	return out, rows.Err()
}
