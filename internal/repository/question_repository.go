package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/invigo/invigo-backend/internal/model"
)

// QuestionRepository handles question and option data access.
type QuestionRepository struct {
	pool *pgxpool.Pool
}

// NewQuestionRepository creates a new QuestionRepository.
func NewQuestionRepository(pool *pgxpool.Pool) *QuestionRepository {
	return &QuestionRepository{pool: pool}
}

// GetByID retrieves a question with its options.
func (r *QuestionRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Question, error) {
	q := &model.Question{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, question_set_id, title, body, sections, answer_type, allow_multiple, position
		 FROM questions WHERE id = $1`, id,
	).Scan(&q.ID, &q.QuestionSetID, &q.Title, &q.Body, &q.Sections, &q.AnswerType, &q.AllowMultiple, &q.Position)
	if err != nil {
		return nil, err
	}

	opts, err := r.listOptions(ctx, id)
	if err != nil {
		return nil, err
	}
	q.Options = opts
	return q, nil
}

// ListBySet retrieves all questions of a set, options included, ordered by
// position.
func (r *QuestionRepository) ListBySet(ctx context.Context, questionSetID uuid.UUID) ([]model.Question, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, question_set_id, title, body, sections, answer_type, allow_multiple, position
		 FROM questions WHERE question_set_id = $1
		 ORDER BY position ASC, created_at ASC`, questionSetID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var questions []model.Question
	index := make(map[uuid.UUID]int)
	for rows.Next() {
		var q model.Question
		if err := rows.Scan(&q.ID, &q.QuestionSetID, &q.Title, &q.Body, &q.Sections,
			&q.AnswerType, &q.AllowMultiple, &q.Position); err != nil {
			return nil, err
		}
		index[q.ID] = len(questions)
		questions = append(questions, q)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if questions == nil {
		return []model.Question{}, nil
	}

	optRows, err := r.pool.Query(ctx,
		`SELECT o.id, o.question_id, o.option_text, o.is_correct, o.position
		 FROM question_options o
		 JOIN questions q ON o.question_id = q.id
		 WHERE q.question_set_id = $1
		 ORDER BY o.position ASC`, questionSetID)
	if err != nil {
		return nil, err
	}
	defer optRows.Close()

	for optRows.Next() {
		var o model.QuestionOption
		if err := optRows.Scan(&o.ID, &o.QuestionID, &o.OptionText, &o.IsCorrect, &o.Position); err != nil {
			return nil, err
		}
		if i, ok := index[o.QuestionID]; ok {
			questions[i].Options = append(questions[i].Options, o)
		}
	}
	return questions, optRows.Err()
}

// Create inserts a question and its options in one transaction. Position is
// appended after the set's current questions.
func (r *QuestionRepository) Create(ctx context.Context, q *model.Question) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx,
		`INSERT INTO questions (question_set_id, title, body, sections, answer_type, allow_multiple, position)
		 VALUES ($1, $2, $3, $4, $5, $6,
		         (SELECT COALESCE(MAX(position), 0) + 1 FROM questions WHERE question_set_id = $1))
		 RETURNING id, position`,
		q.QuestionSetID, q.Title, q.Body, q.Sections, q.AnswerType, q.AllowMultiple,
	).Scan(&q.ID, &q.Position)
	if err != nil {
		return err
	}

	if err := r.insertOptions(ctx, tx, q); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// Update modifies a question. A non-nil option slice replaces the full
// option list; existing answers keep referencing old option ids only inside
// already-started sessions, whose snapshots are frozen anyway.
func (r *QuestionRepository) Update(ctx context.Context, q *model.Question, replaceOptions bool) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx,
		`UPDATE questions
		 SET title = $1, body = $2, sections = $3, answer_type = $4,
		     allow_multiple = $5, updated_at = CURRENT_TIMESTAMP
		 WHERE id = $6`,
		q.Title, q.Body, q.Sections, q.AnswerType, q.AllowMultiple, q.ID); err != nil {
		return err
	}

	if replaceOptions {
		if _, err := tx.Exec(ctx,
			`DELETE FROM question_options WHERE question_id = $1`, q.ID); err != nil {
			return err
		}
		if err := r.insertOptions(ctx, tx, q); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

// Delete removes a question and, via cascade, its options.
func (r *QuestionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM questions WHERE id = $1`, id)
	return err
}

// Reorder rewrites the position of every listed question of a set.
func (r *QuestionRepository) Reorder(ctx context.Context, questionSetID uuid.UUID, questionIDs []uuid.UUID) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	for i, id := range questionIDs {
		if _, err := tx.Exec(ctx,
			`UPDATE questions SET position = $1, updated_at = CURRENT_TIMESTAMP
			 WHERE id = $2 AND question_set_id = $3`,
			i+1, id, questionSetID); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

func (r *QuestionRepository) insertOptions(ctx context.Context, tx pgx.Tx, q *model.Question) error {
	if len(q.Options) == 0 {
		return nil
	}
	for i := range q.Options {
		o := &q.Options[i]
		o.QuestionID = q.ID
		o.Position = i + 1
		if err := tx.QueryRow(ctx,
			`INSERT INTO question_options (question_id, option_text, is_correct, position)
			 VALUES ($1, $2, $3, $4)
			 RETURNING id`,
			o.QuestionID, o.OptionText, o.IsCorrect, o.Position,
		).Scan(&o.ID); err != nil {
			return err
		}
	}
	return nil
}

func (r *QuestionRepository) listOptions(ctx context.Context, questionID uuid.UUID) ([]model.QuestionOption, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, question_id, option_text, is_correct, position
		 FROM question_options WHERE question_id = $1
		 ORDER BY position ASC`, questionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var options []model.QuestionOption
	for rows.Next() {
		var o model.QuestionOption
		if err := rows.Scan(&o.ID, &o.QuestionID, &o.OptionText, &o.IsCorrect, &o.Position); err != nil {
			return nil, err
		}
		options = append(options, o)
	}
	return options, rows.Err()
}
