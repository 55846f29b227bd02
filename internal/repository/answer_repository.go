package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/invigo/invigo-backend/internal/exam"
	"github.com/invigo/invigo-backend/internal/model"
)

// AnswerRepository handles answer data access. It implements
// exam.AnswerStore.
type AnswerRepository struct {
	pool *pgxpool.Pool
}

// NewAnswerRepository creates a new AnswerRepository.
func NewAnswerRepository(pool *pgxpool.Pool) *AnswerRepository {
	return &AnswerRepository{pool: pool}
}

// Upsert writes the answer keyed by (session, question). The conflict
// branch's is_final guard makes a write to a locked row affect zero rows,
// which is reported as exam.ErrAnswerFinal.
func (r *AnswerRepository) Upsert(ctx context.Context, a *model.Answer) error {
	tag, err := r.pool.Exec(ctx,
		`INSERT INTO answers (session_id, question_id, answer_text, option_ids, last_saved_at)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (session_id, question_id) DO UPDATE
		 SET answer_text = EXCLUDED.answer_text,
		     option_ids = EXCLUDED.option_ids,
		     last_saved_at = EXCLUDED.last_saved_at
		 WHERE answers.is_final = FALSE`,
		a.SessionID, a.QuestionID, a.AnswerText, a.OptionIDs, a.LastSavedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return exam.ErrAnswerFinal
	}
	return nil
}

// ListBySession retrieves all answers of a session.
func (r *AnswerRepository) ListBySession(ctx context.Context, sessionID uuid.UUID) ([]model.Answer, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT session_id, question_id, answer_text, option_ids, is_final, last_saved_at
		 FROM answers WHERE session_id = $1`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var answers []model.Answer
	for rows.Next() {
		var a model.Answer
		if err := rows.Scan(&a.SessionID, &a.QuestionID, &a.AnswerText, &a.OptionIDs, &a.IsFinal, &a.LastSavedAt); err != nil {
			return nil, err
		}
		answers = append(answers, a)
	}
	return answers, rows.Err()
}

// CountBySession counts answered questions per session for the given
// sessions, for the live monitor.
func (r *AnswerRepository) CountBySession(ctx context.Context, sessionIDs []uuid.UUID) (map[uuid.UUID]int, error) {
	counts := make(map[uuid.UUID]int)
	if len(sessionIDs) == 0 {
		return counts, nil
	}

	rows, err := r.pool.Query(ctx,
		`SELECT session_id, COUNT(*) FROM answers
		 WHERE session_id = ANY($1)
		 GROUP BY session_id`, sessionIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var id uuid.UUID
		var n int
		if err := rows.Scan(&id, &n); err != nil {
			return nil, err
		}
		counts[id] = n
	}
	return counts, rows.Err()
}

var _ exam.AnswerStore = (*AnswerRepository)(nil)
