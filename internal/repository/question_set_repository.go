package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/invigo/invigo-backend/internal/exam"
	"github.com/invigo/invigo-backend/internal/model"
)

// QuestionSetRepository handles question set data access. It also implements
// exam.SnapshotSource, building the frozen candidate-facing question copy
// captured at session start.
type QuestionSetRepository struct {
	pool *pgxpool.Pool
}

// NewQuestionSetRepository creates a new QuestionSetRepository.
func NewQuestionSetRepository(pool *pgxpool.Pool) *QuestionSetRepository {
	return &QuestionSetRepository{pool: pool}
}

// GetByID retrieves a question set with its test type name.
func (r *QuestionSetRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.QuestionSet, error) {
	qs := &model.QuestionSet{}
	err := r.pool.QueryRow(ctx,
		`SELECT qs.id, qs.name, qs.description, qs.test_type_id, tt.name,
		        qs.duration_minutes, qs.warning_minutes, qs.max_attempts,
		        qs.is_active, qs.created_at, qs.updated_at
		 FROM question_sets qs
		 JOIN test_types tt ON qs.test_type_id = tt.id
		 WHERE qs.id = $1`, id,
	).Scan(&qs.ID, &qs.Name, &qs.Description, &qs.TestTypeID, &qs.TestTypeName,
		&qs.DurationMinutes, &qs.WarningMinutes, &qs.MaxAttempts,
		&qs.IsActive, &qs.CreatedAt, &qs.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return qs, nil
}

// QuestionSet implements exam.SnapshotSource.
func (r *QuestionSetRepository) QuestionSet(ctx context.Context, id uuid.UUID) (*model.QuestionSet, error) {
	return r.GetByID(ctx, id)
}

// Snapshot builds the candidate-facing copy of the set's questions, ordered
// by position. Correctness flags are not selected at all, so they cannot
// leak into the stored snapshot.
func (r *QuestionSetRepository) Snapshot(ctx context.Context, questionSetID uuid.UUID) ([]model.SnapshotQuestion, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, title, body, sections, answer_type, allow_multiple
		 FROM questions WHERE question_set_id = $1
		 ORDER BY position ASC, created_at ASC`, questionSetID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var questions []model.SnapshotQuestion
	index := make(map[uuid.UUID]int)
	for rows.Next() {
		var q model.SnapshotQuestion
		if err := rows.Scan(&q.ID, &q.Title, &q.Body, &q.Sections, &q.AnswerType, &q.AllowMultiple); err != nil {
			return nil, err
		}
		index[q.ID] = len(questions)
		questions = append(questions, q)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	optRows, err := r.pool.Query(ctx,
		`SELECT o.id, o.question_id, o.option_text, o.position
		 FROM question_options o
		 JOIN questions q ON o.question_id = q.id
		 WHERE q.question_set_id = $1
		 ORDER BY o.position ASC`, questionSetID)
	if err != nil {
		return nil, err
	}
	defer optRows.Close()

	for optRows.Next() {
		var o model.SnapshotOption
		var questionID uuid.UUID
		if err := optRows.Scan(&o.ID, &questionID, &o.OptionText, &o.Position); err != nil {
			return nil, err
		}
		if i, ok := index[questionID]; ok {
			questions[i].Options = append(questions[i].Options, o)
		}
	}
	return questions, optRows.Err()
}

// ListPaginated retrieves question sets with pagination and a question count.
func (r *QuestionSetRepository) ListPaginated(ctx context.Context, limit, offset int) ([]model.QuestionSet, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM question_sets`).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx,
		`SELECT qs.id, qs.name, qs.description, qs.test_type_id, tt.name,
		        qs.duration_minutes, qs.warning_minutes, qs.max_attempts,
		        qs.is_active, qs.created_at, qs.updated_at
		 FROM question_sets qs
		 JOIN test_types tt ON qs.test_type_id = tt.id
		 ORDER BY qs.created_at DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var sets []model.QuestionSet
	for rows.Next() {
		var qs model.QuestionSet
		if err := rows.Scan(&qs.ID, &qs.Name, &qs.Description, &qs.TestTypeID, &qs.TestTypeName,
			&qs.DurationMinutes, &qs.WarningMinutes, &qs.MaxAttempts,
			&qs.IsActive, &qs.CreatedAt, &qs.UpdatedAt); err != nil {
			return nil, 0, err
		}
		sets = append(sets, qs)
	}
	if sets == nil {
		sets = []model.QuestionSet{}
	}
	return sets, total, rows.Err()
}

// Create inserts a new question set.
func (r *QuestionSetRepository) Create(ctx context.Context, qs *model.QuestionSet) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO question_sets (name, description, test_type_id,
		                            duration_minutes, warning_minutes, max_attempts)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id, is_active, created_at, updated_at`,
		qs.Name, qs.Description, qs.TestTypeID,
		qs.DurationMinutes, qs.WarningMinutes, qs.MaxAttempts,
	).Scan(&qs.ID, &qs.IsActive, &qs.CreatedAt, &qs.UpdatedAt)
}

// Update modifies a question set. Timing changes only affect sessions
// started afterwards; in-flight sessions keep their stamped end time.
func (r *QuestionSetRepository) Update(ctx context.Context, qs *model.QuestionSet) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE question_sets
		 SET name = $1, description = $2, duration_minutes = $3, warning_minutes = $4,
		     max_attempts = $5, is_active = $6, updated_at = CURRENT_TIMESTAMP
		 WHERE id = $7`,
		qs.Name, qs.Description, qs.DurationMinutes, qs.WarningMinutes,
		qs.MaxAttempts, qs.IsActive, qs.ID)
	return err
}

var _ exam.SnapshotSource = (*QuestionSetRepository)(nil)
