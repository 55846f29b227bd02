package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/invigo/invigo-backend/internal/model"
)

// ErrDuplicateTestType is returned when a test type name is already taken.
var ErrDuplicateTestType = errors.New("test type with this name already exists")

// TestTypeRepository handles test type data access.
type TestTypeRepository struct {
	pool *pgxpool.Pool
}

// NewTestTypeRepository creates a new TestTypeRepository.
func NewTestTypeRepository(pool *pgxpool.Pool) *TestTypeRepository {
	return &TestTypeRepository{pool: pool}
}

// GetByID retrieves a test type by id.
func (r *TestTypeRepository) GetByID(ctx context.Context, id int) (*model.TestType, error) {
	t := &model.TestType{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, name, description, created_at FROM test_types WHERE id = $1`, id,
	).Scan(&t.ID, &t.Name, &t.Description, &t.CreatedAt)
	if err != nil {
		return nil, err
	}
	return t, nil
}

// List retrieves all test types ordered by name.
func (r *TestTypeRepository) List(ctx context.Context) ([]model.TestType, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, name, description, created_at FROM test_types ORDER BY name ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var types []model.TestType
	for rows.Next() {
		var t model.TestType
		if err := rows.Scan(&t.ID, &t.Name, &t.Description, &t.CreatedAt); err != nil {
			return nil, err
		}
		types = append(types, t)
	}
	if types == nil {
		types = []model.TestType{}
	}
	return types, rows.Err()
}

// Create inserts a new test type.
func (r *TestTypeRepository) Create(ctx context.Context, t *model.TestType) error {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO test_types (name, description)
		 VALUES ($1, $2)
		 RETURNING id, created_at`,
		t.Name, t.Description,
	).Scan(&t.ID, &t.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrDuplicateTestType
		}
		return err
	}
	return nil
}

// Delete removes a test type. Fails with a foreign key violation while any
// question set still references it.
func (r *TestTypeRepository) Delete(ctx context.Context, id int) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM test_types WHERE id = $1`, id)
	return err
}
